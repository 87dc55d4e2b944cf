package main

import (
	"io"

	"github.com/seedtray/unified2/internal/config"
	"github.com/seedtray/unified2/internal/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string

	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "u2spool",
	Short: "Read unified2 logs written by Snort and Suricata",
	Long: `u2spool decodes unified2 log files and prints the aggregated events,
or single records, as JSON lines.

It can read a fixed list of files, or follow a spool directory of rotating
log files and remember its position in a bookmark file.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the command line. The log file opened during setup is
// closed on return, also when the command failed.
func Execute() error {
	defer closeLog()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	rootCmd.PersistentFlags().String("log-format", "text", "log format, text or json")
	rootCmd.PersistentFlags().String("log-file", "", "also log to this file, rotated")

	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(tailCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	closer, err := log.Init(loaded.Log)
	if err != nil {
		return err
	}
	cfg, logCloser = loaded, closer
	return nil
}

func closeLog() {
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
}
