package unified2

import (
	"context"
	"io"
)

// SpoolEventReader reads aggregated events from a spool directory. When
// tailing, the event being assembled is flushed as soon as no more records
// are available, rather than when the next event record shows up.
type SpoolEventReader struct {
	reader     *SpoolRecordReader
	aggregator *Aggregator
	tail       bool
	waiter     *waiter
	// Cursor of the event record queued in the aggregator
	pending Cursor
}

// NewSpoolEventReader takes the same options as NewSpoolRecordReader.
func NewSpoolEventReader(opts SpoolOptions) (*SpoolEventReader, error) {
	opts = opts.withDefaults()
	inner := opts
	inner.Tail = false
	reader, err := NewSpoolRecordReader(inner)
	if err != nil {
		return nil, err
	}
	r := &SpoolEventReader{
		reader:     reader,
		aggregator: NewAggregator(opts.Logger.WithField("component", "SpoolEventReader")),
		tail:       opts.Tail,
	}
	if opts.Tail {
		r.waiter = newWaiter(opts, opts.Logger)
	}
	return r, nil
}

// Next returns the next complete event. Without Tail it returns io.EOF
// once the spool holds no more records.
func (r *SpoolEventReader) Next(ctx context.Context) (*Event, error) {
	for {
		rec, err := r.reader.Next(ctx)
		if err != nil && err != io.EOF {
			return nil, err
		}
		if rec != nil {
			start := r.reader.start
			event := r.aggregator.Add(rec)
			if rec.Kind() == KindEvent {
				r.pending = start
			}
			if event != nil {
				return event, nil
			}
			continue
		}
		if event := r.aggregator.Flush(); event != nil {
			return event, nil
		}
		if !r.tail {
			return nil, io.EOF
		}
		if err := r.waiter.wait(ctx); err != nil {
			return nil, err
		}
	}
}

// Tell returns the position of the next unread record.
func (r *SpoolEventReader) Tell() Cursor {
	return r.reader.Tell()
}

// Bookmark returns the position to resume from without losing the event
// still being assembled: the start of its event record, or Tell if no
// event is queued.
func (r *SpoolEventReader) Bookmark() Cursor {
	if r.aggregator.Pending() {
		return r.pending
	}
	return r.reader.Tell()
}

func (r *SpoolEventReader) Close() error {
	werr := r.waiter.close()
	if err := r.reader.Close(); err != nil {
		return err
	}
	return werr
}
