package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seedtray/unified2"
	"github.com/seedtray/unified2/bookmark"
	"github.com/seedtray/unified2/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the events of a unified2 spool directory",
	Long: `
Read the unified2 files in a spool directory in lexical order and print their
events as JSON lines. With --follow, wait for new records and new files.

With a bookmark file the position is saved after every event, and reading
resumes from there on the next start.

Examples:
  u2spool tail --dir /var/log/snort --prefix snort.u2                      # read what is there
  u2spool tail --dir /var/log/snort --prefix snort.u2 -f -b /var/lib/u2.bm  # follow and bookmark
  u2spool tail -c u2spool.yml                                              # settings from a file
`,
	Args: cobra.NoArgs,
	RunE: runTail,
}

func init() {
	tailCmd.Flags().String("dir", "", "spool directory")
	tailCmd.Flags().String("prefix", "unified2.log", "spool file name prefix")
	tailCmd.Flags().BoolP("follow", "f", false, "wait for new records")
	tailCmd.Flags().Duration("poll-interval", unified2.DefaultPollInterval, "how often to look for new records when following")
	tailCmd.Flags().Bool("watch", false, "also wake up on spool directory changes when following")
	tailCmd.Flags().StringP("bookmark", "b", "", "bookmark file")
	tailCmd.Flags().String("metrics", "", "listen address for Prometheus metrics")
	tailCmd.Flags().Bool("packets", false, "list the decoded layers of each packet")
}

func runTail(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	packets, err := cmd.Flags().GetBool("packets")
	if err != nil {
		return err
	}
	logger := logrus.StandardLogger().WithField("component", "tail")

	if cfg.Metrics.Listen != "" {
		srv, err := metrics.Listen(cfg.Metrics.Listen, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Errorf("error shutting down metrics listener: %v", err)
			}
		}()
	}

	var bm *bookmark.Bookmark
	var cursor unified2.Cursor
	if cfg.Bookmark.Path != "" {
		bm = bookmark.New(nil, cfg.Bookmark.Path)
		cursor, err = bm.Load()
		switch {
		case errors.Is(err, bookmark.ErrNotFound):
			logger.Infof("no bookmark at %s, starting from the oldest file", bm.Path())
		case err != nil:
			return err
		default:
			logger.Infof("resuming from %s", cursor)
		}
	}

	reader, err := unified2.NewSpoolEventReader(unified2.SpoolOptions{
		Dir:          cfg.Spool.Dir,
		Prefix:       cfg.Spool.Prefix,
		Cursor:       cursor,
		Tail:         cfg.Spool.Tail,
		PollInterval: cfg.Spool.PollInterval,
		Watch:        cfg.Spool.Watch,
		Logger:       logrus.StandardLogger(),
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := newPrinter(cmd.OutOrStdout(), packets)
	save := func() error {
		if bm == nil || reader.Bookmark().IsZero() {
			return nil
		}
		return bm.Save(reader.Bookmark())
	}

	for {
		event, err := reader.Next(ctx)
		switch {
		case err == io.EOF, errors.Is(err, context.Canceled):
			return save()
		case errors.Is(err, unified2.ErrMalformed):
			logger.WithError(err).Warn("skipping malformed record")
			continue
		case err != nil:
			return err
		}
		if err := out.event(event); err != nil {
			return err
		}
		if err := save(); err != nil {
			return err
		}
	}
}
