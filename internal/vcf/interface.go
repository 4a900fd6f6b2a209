// Package vcf provides streaming VCF parsing: meta-information, the column
// header, INFO decoding and data records.
package vcf

// RecordSource is the interface for forward-only readers of VCF records.
// Metadata and Samples are complete before the first call to Next.
type RecordSource interface {
	// Next reads the next record.
	// Returns nil, nil when there are no more records.
	Next() (*Record, error)

	// Metadata returns the parsed meta-information lines.
	Metadata() Metadata

	// Samples returns the sample identifiers, or nil when the header
	// declared no FORMAT column.
	Samples() []string

	// LineNumber returns the current line number being processed.
	LineNumber() int

	// Close closes the reader and releases resources.
	Close() error
}
