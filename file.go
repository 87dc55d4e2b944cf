package unified2

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// FileRecordReader reads records from a fixed list of files as one
// stream, moving to the next file when the current one ends cleanly.
type FileRecordReader struct {
	fs     afero.Fs
	paths  []string
	file   afero.File
	reader *RecordReader
}

// NewFileRecordReader opens the first of paths. A nil fs reads from the
// OS filesystem.
func NewFileRecordReader(fs afero.Fs, paths ...string) (*FileRecordReader, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}
	if fs == nil {
		fs = defaultFS
	}
	r := &FileRecordReader{fs: fs, paths: append([]string(nil), paths...)}
	if err := r.openNext(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRecordReader) openNext() error {
	name := r.paths[0]
	r.paths = r.paths[1:]
	if r.file != nil {
		r.file.Close()
		r.file, r.reader = nil, nil
	}
	f, err := r.fs.Open(name)
	if err != nil {
		return fmt.Errorf("could not open file %q: %w", name, err)
	}
	rr, err := NewRecordReader(f)
	if err != nil {
		f.Close()
		return err
	}
	r.file, r.reader = f, rr
	return nil
}

// Next returns the next record, or io.EOF once every file is exhausted.
// ErrIncomplete is returned as is, also for files that are not last.
func (r *FileRecordReader) Next() (Record, error) {
	for {
		if r.reader == nil {
			if len(r.paths) == 0 {
				return nil, io.EOF
			}
			if err := r.openNext(); err != nil {
				return nil, err
			}
		}
		rec, err := r.reader.Next()
		if err != io.EOF {
			return rec, err
		}
		if len(r.paths) == 0 {
			return nil, io.EOF
		}
		if err := r.openNext(); err != nil {
			return nil, err
		}
	}
}

// Tell returns the name of the open file and the offset of its next
// unread record.
func (r *FileRecordReader) Tell() (string, int64) {
	if r.file == nil {
		return "", 0
	}
	return r.file.Name(), r.reader.Offset()
}

func (r *FileRecordReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file, r.reader = nil, nil
	r.paths = nil
	return err
}

// FileEventReader reads aggregated events from a fixed list of files.
type FileEventReader struct {
	reader     *FileRecordReader
	aggregator *Aggregator
}

func NewFileEventReader(fs afero.Fs, paths ...string) (*FileEventReader, error) {
	reader, err := NewFileRecordReader(fs, paths...)
	if err != nil {
		return nil, err
	}
	return &FileEventReader{reader: reader, aggregator: NewAggregator(nil)}, nil
}

// Next returns the next complete event, or io.EOF after the last one.
func (r *FileEventReader) Next() (*Event, error) {
	for {
		rec, err := r.reader.Next()
		if err == io.EOF {
			if event := r.aggregator.Flush(); event != nil {
				return event, nil
			}
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		if event := r.aggregator.Add(rec); event != nil {
			return event, nil
		}
	}
}

func (r *FileEventReader) Close() error {
	return r.reader.Close()
}
