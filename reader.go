package unified2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/seedtray/unified2/internal/metrics"
)

// RawRecord is an undecoded record: its type code and payload.
type RawRecord struct {
	Type uint32
	Data []byte
}

// RecordReader reads length-prefixed records from a seekable stream.
//
// Next returns io.EOF when the stream ends on a record boundary and
// ErrIncomplete when it ends inside a record. In the latter case the
// stream is rewound to the start of that record so the read can be
// retried once more data has been written.
type RecordReader struct {
	r io.ReadSeeker
	// Offset of the next unread record
	offset int64
}

// NewRecordReader reads records starting at the current position of r.
func NewRecordReader(r io.ReadSeeker) (*RecordReader, error) {
	offset, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("could not get stream position: %w", err)
	}
	return &RecordReader{r: r, offset: offset}, nil
}

// Offset returns the position of the next unread record.
func (rr *RecordReader) Offset() int64 {
	return rr.offset
}

// ReadRaw reads the next record without decoding it.
func (rr *RecordReader) ReadRaw() (*RawRecord, error) {
	var hdr [HeaderLen]byte
	if _, err := io.ReadFull(rr.r, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, rr.rewind(err)
	}
	header := RecordHeader{
		Type:   binary.BigEndian.Uint32(hdr[0:4]),
		Length: binary.BigEndian.Uint32(hdr[4:8]),
	}
	// The buffer grows with the bytes actually read, not with the length
	// the header claims.
	var data bytes.Buffer
	if _, err := io.CopyN(&data, rr.r, int64(header.Length)); err != nil {
		return nil, rr.rewind(err)
	}
	rr.offset += HeaderLen + int64(header.Length)
	return &RawRecord{Type: header.Type, Data: data.Bytes()}, nil
}

// Next reads and decodes the next record. A record that fails to decode
// is still consumed, so the following call moves on to the next one.
func (rr *RecordReader) Next() (Record, error) {
	raw, err := rr.ReadRaw()
	if err != nil {
		return nil, err
	}
	rec, err := Decode(raw.Type, raw.Data)
	if err != nil {
		metrics.DecodeErrorsTotal.Inc()
		return nil, err
	}
	metrics.RecordsTotal.WithLabelValues(rec.Kind().String()).Inc()
	return rec, nil
}

func (rr *RecordReader) rewind(cause error) error {
	if _, err := rr.r.Seek(rr.offset, io.SeekStart); err != nil {
		return fmt.Errorf("could not rewind to offset %d: %w", rr.offset, err)
	}
	if errors.Is(cause, io.EOF) || errors.Is(cause, io.ErrUnexpectedEOF) {
		metrics.IncompleteReadsTotal.Inc()
		return ErrIncomplete
	}
	return cause
}
