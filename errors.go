package unified2

import "errors"

var (
	// ErrIncomplete is returned when fewer bytes are available than a
	// record header or payload declares. The reader has been rewound to
	// the start of the record, so the read can be retried once the writer
	// has appended the rest.
	ErrIncomplete = errors.New("unified2: incomplete record")

	// ErrMalformed is returned when a payload is too short for the fixed
	// fields of its record type.
	ErrMalformed = errors.New("unified2: malformed record")

	ErrNoFiles = errors.New("unified2: no files to read")
)
