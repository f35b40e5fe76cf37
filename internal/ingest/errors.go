package ingest

import "errors"

var (
	// ErrMissingField marks a candidate whose title or content is empty
	// after trimming. Collected per item during validation, never fatal on
	// its own.
	ErrMissingField = errors.New("missing required field")

	// ErrNoIngestibleData is returned by IngestDirect when zero candidates
	// survive validation. This is a request-shape error, not a system
	// fault.
	ErrNoIngestibleData = errors.New("no ingestible data")

	// ErrFetchFailed wraps failures of the external fetch collaborator.
	ErrFetchFailed = errors.New("source fetch failed")
)
