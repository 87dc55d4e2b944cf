package unified2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/seedtray/unified2/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// RolloverFunc is called whenever a spool reader opens a file. closed is
// empty when no file was open before.
type RolloverFunc func(closed, opened string)

// SpoolOptions configures the spool readers.
type SpoolOptions struct {
	// Fs defaults to the OS filesystem
	Fs afero.Fs
	// Dir is the spool directory
	Dir string
	// Prefix selects the spool files, matched as Prefix*
	Prefix string
	// Cursor is where to resume. It is ignored if its file no longer exists.
	Cursor Cursor
	// Tail makes Next wait for more data instead of returning io.EOF
	Tail bool
	// PollInterval defaults to DefaultPollInterval
	PollInterval time.Duration
	// Watch wakes tailing readers on directory changes between polls
	Watch bool
	// OnRollover is informational only
	OnRollover RolloverFunc
	Logger     logrus.FieldLogger
}

func (opts SpoolOptions) withDefaults() SpoolOptions {
	if opts.Fs == nil {
		opts.Fs = defaultFS
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return opts
}

// SpoolRecordReader reads records from a directory of rotating unified2
// files. Files are read in lexical order of their names, which must
// match the order they were written in.
type SpoolRecordReader struct {
	opts   SpoolOptions
	dir    spoolDir
	logger logrus.FieldLogger
	waiter *waiter

	file   afero.File
	name   string
	reader *RecordReader
	// Cursor of the last record returned
	start Cursor
}

func NewSpoolRecordReader(opts SpoolOptions) (*SpoolRecordReader, error) {
	opts = opts.withDefaults()
	dir, err := newSpoolDir(opts.Fs, opts.Dir, opts.Prefix)
	if err != nil {
		return nil, err
	}
	r := &SpoolRecordReader{
		opts:   opts,
		dir:    dir,
		logger: opts.Logger.WithField("component", "SpoolRecordReader"),
	}
	if !opts.Cursor.IsZero() {
		if err := r.resume(opts.Cursor); err != nil {
			return nil, err
		}
	}
	if opts.Tail {
		r.waiter = newWaiter(opts, r.logger)
	}
	return r, nil
}

func (r *SpoolRecordReader) resume(c Cursor) error {
	name := filepath.Base(c.Filename)
	if _, err := r.opts.Fs.Stat(filepath.Join(r.opts.Dir, name)); err != nil {
		if os.IsNotExist(err) {
			r.logger.WithField("cursor", c).Warn("resume file no longer exists, starting from the oldest file")
			return nil
		}
		return fmt.Errorf("could not stat resume file %q: %w", name, err)
	}
	return r.open(name, c.Offset)
}

// open makes name the current file, positioned at offset. The current
// file is closed first. If name cannot be opened, the previous file is
// reopened at its last position so the reader stays where it was.
func (r *SpoolRecordReader) open(name string, offset int64) error {
	prev := r.Tell()
	r.closeFile()
	if err := r.openFile(name, offset); err != nil {
		if !prev.IsZero() {
			if rerr := r.openFile(prev.Filename, prev.Offset); rerr != nil {
				r.logger.WithError(rerr).WithField("cursor", prev).Warn("could not reopen previous spool file")
			}
		}
		return err
	}

	if prev.Filename != "" {
		metrics.RolloversTotal.Inc()
	}
	r.logger.WithFields(logrus.Fields{
		"closed": prev.Filename,
		"opened": name,
		"offset": offset,
	}).Info("opened spool file")
	if r.opts.OnRollover != nil {
		r.opts.OnRollover(prev.Filename, name)
	}
	return nil
}

func (r *SpoolRecordReader) openFile(name string, offset int64) error {
	f, err := r.opts.Fs.Open(filepath.Join(r.opts.Dir, name))
	if err != nil {
		return fmt.Errorf("could not open file %q: %w", name, err)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return fmt.Errorf("could not seek file %q to %d: %w", name, offset, err)
	}
	reader, err := NewRecordReader(f)
	if err != nil {
		f.Close()
		return err
	}
	r.file, r.name, r.reader = f, name, reader
	return nil
}

func (r *SpoolRecordReader) closeFile() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file, r.name, r.reader = nil, "", nil
	return err
}

// openNext opens the file after the current one and reports whether it
// did. With no file open, or when the current file has disappeared, it
// starts over from the oldest file.
func (r *SpoolRecordReader) openNext() (bool, error) {
	filenames, err := r.dir.filenames()
	if err != nil {
		return false, fmt.Errorf("could not list spool directory %q: %w", r.opts.Dir, err)
	}
	if len(filenames) == 0 {
		return false, nil
	}
	if r.file == nil {
		return true, r.open(filenames[0], 0)
	}
	idx := filenames.index(r.name)
	if idx < 0 {
		r.logger.WithField("filename", r.name).Warn("current spool file disappeared, restarting from the oldest file")
		return true, r.open(filenames[0], 0)
	}
	if idx+1 < len(filenames) {
		return true, r.open(filenames[idx+1], 0)
	}
	return false, nil
}

// next returns a nil record when nothing is available yet. A record still
// being written counts as nothing available.
func (r *SpoolRecordReader) next() (Record, error) {
	if r.file == nil {
		opened, err := r.openNext()
		if err != nil || !opened {
			return nil, err
		}
	}
	for {
		start := r.Tell()
		rec, err := r.reader.Next()
		switch {
		case err == nil:
			r.start = start
			return rec, nil
		case errors.Is(err, ErrIncomplete):
			r.logger.WithField("cursor", start).Debug("incomplete record, waiting for more data")
			return nil, nil
		case err != io.EOF:
			return nil, fmt.Errorf("%s: %w", start, err)
		}
		opened, err := r.openNext()
		if err != nil || !opened {
			return nil, err
		}
	}
}

// Next returns the next record. Without Tail it returns io.EOF when no
// record is available right now, and a later call may find more. With
// Tail it waits until a record arrives or ctx is done.
func (r *SpoolRecordReader) Next(ctx context.Context) (Record, error) {
	for {
		rec, err := r.next()
		if err != nil || rec != nil {
			return rec, err
		}
		if !r.opts.Tail {
			return nil, io.EOF
		}
		if err := r.waiter.wait(ctx); err != nil {
			return nil, err
		}
	}
}

// Tell returns the position of the next unread record, or a zero Cursor
// if no file is open. Pass it back as SpoolOptions.Cursor to resume.
func (r *SpoolRecordReader) Tell() Cursor {
	if r.file == nil {
		return Cursor{}
	}
	return Cursor{Filename: r.name, Offset: r.reader.Offset()}
}

func (r *SpoolRecordReader) Close() error {
	werr := r.waiter.close()
	if err := r.closeFile(); err != nil {
		return err
	}
	return werr
}
