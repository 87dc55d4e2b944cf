package unified2

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

var defaultFS = afero.NewOsFs()

// DefaultPollInterval is how long a tailing reader sleeps before looking
// for new data again.
const DefaultPollInterval = 10 * time.Millisecond

// Cursor is a resumable position in a spool directory.
type Cursor struct {
	// Base name of the file within the spool directory
	Filename string `json:"filename" yaml:"filename"`
	// Cursor to next read
	Offset int64 `json:"offset" yaml:"offset"`
}

// IsZero reports whether c points nowhere, as returned when no file is open.
func (c Cursor) IsZero() bool {
	return c.Filename == ""
}

func (c Cursor) String() string {
	if c.IsZero() {
		return "<none>"
	}
	return fmt.Sprintf("%s@%d", c.Filename, c.Offset)
}

type spoolDir struct {
	fs    afero.Fs
	path  string
	match glob.Glob
}

func newSpoolDir(fs afero.Fs, path string, prefix string) (spoolDir, error) {
	match, err := glob.Compile(glob.QuoteMeta(prefix) + "*")
	if err != nil {
		return spoolDir{}, fmt.Errorf("invalid spool prefix %q: %w", prefix, err)
	}
	return spoolDir{fs: fs, path: path, match: match}, nil
}

// filenames lists the base names of the spool files in lexical order.
func (d spoolDir) filenames() (spoolChunks, error) {
	files, err := afero.ReadDir(d.fs, d.path)
	if err != nil {
		return nil, err
	}
	var filenames spoolChunks
	for _, f := range files {
		if f.IsDir() || !d.match.Match(f.Name()) {
			continue
		}
		filenames = append(filenames, f.Name())
	}
	// NOTE: Sort order defines record order across file boundaries
	sort.Strings(filenames)
	return filenames, nil
}

type spoolChunks []string

func (chunks spoolChunks) index(filename string) int {
	for k, v := range chunks {
		if v == filename {
			return k
		}
	}
	return -1
}

// waiter suspends a tailing reader between polls. With a watcher it also
// wakes up early when the spool directory changes.
type waiter struct {
	interval time.Duration
	watcher  *fsnotify.Watcher
}

func newWaiter(opts SpoolOptions, logger logrus.FieldLogger) *waiter {
	w := &waiter{interval: opts.PollInterval}
	if !opts.Watch {
		return w
	}
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		if err = watcher.Add(opts.Dir); err != nil {
			watcher.Close()
		}
	}
	if err != nil {
		logger.WithError(err).Warnf("cannot watch %s, polling every %s", opts.Dir, opts.PollInterval)
		return w
	}
	w.watcher = watcher
	return w
}

func (w *waiter) wait(ctx context.Context) error {
	timer := time.NewTimer(w.interval)
	defer timer.Stop()
	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if w.watcher != nil {
		events, errs = w.watcher.Events, w.watcher.Errors
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	case <-events:
	case <-errs:
	}
	return nil
}

func (w *waiter) close() error {
	if w == nil || w.watcher == nil {
		return nil
	}
	return w.watcher.Close()
}
