package main

import (
	"io"

	"github.com/seedtray/unified2"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump FILE...",
	Short: "Print the events of unified2 files",
	Long: `
Print the events, or with --records the single records, found in the given
unified2 files. The files are read in the order given.

Examples:
  u2spool dump unified2.log.1500000000                 # events as JSON lines
  u2spool dump --records unified2.log.*                # every record, unaggregated
  u2spool dump --packets unified2.log.1500000000       # add the decoded packet layers
`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().Bool("records", false, "print records instead of aggregated events")
	dumpCmd.Flags().Bool("packets", false, "list the decoded layers of each packet")
}

func runDump(cmd *cobra.Command, args []string) error {
	records, err := cmd.Flags().GetBool("records")
	if err != nil {
		return err
	}
	packets, err := cmd.Flags().GetBool("packets")
	if err != nil {
		return err
	}
	out := newPrinter(cmd.OutOrStdout(), packets)

	if records {
		reader, err := unified2.NewFileRecordReader(nil, args...)
		if err != nil {
			return err
		}
		defer reader.Close()
		for {
			rec, err := reader.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if err := out.record(rec); err != nil {
				return err
			}
		}
	}

	reader, err := unified2.NewFileEventReader(nil, args...)
	if err != nil {
		return err
	}
	defer reader.Close()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := out.event(event); err != nil {
			return err
		}
	}
}
