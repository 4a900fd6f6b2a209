package vcf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
)

// state tracks which region of the file the reader is in.
// The reader moves strictly forward: metadata, header, records, done.
type state int

const (
	stateMetadata state = iota
	stateHeader
	stateRecords
	stateDone
)

// Reader reads records from a VCF stream with a single forward-only cursor.
type Reader struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *pgzip.Reader
	logger     *zap.Logger

	state      state
	lineNumber int

	// one line of lookahead, used when a region ends on a line that
	// belongs to the next region
	pending    string
	hasPending bool

	metadata      Metadata
	metadataLines int
	headerLine    bool
	samples       []string
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reader) {
		r.logger = l
	}
}

// Open creates a reader for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files; "-" reads stdin.
func Open(path string, opts ...Option) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin, opts...)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	// Check for gzip magic bytes
	buf := bufio.NewReader(file)
	magic, err := buf.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, fmt.Errorf("read vcf header: %w", err)
	}

	var src io.Reader = buf
	var gz *pgzip.Reader
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err = pgzip.NewReader(buf)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		src = gz
	}

	r, err := NewReader(src, opts...)
	if err != nil {
		if gz != nil {
			gz.Close()
		}
		file.Close()
		return nil, err
	}
	r.file = file
	r.gzipReader = gz
	return r, nil
}

// NewReader creates a reader over r and parses the metadata and header
// regions, so Metadata and Samples are available on return.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	vr := &Reader{
		reader:   bufio.NewReader(r),
		logger:   zap.NewNop(),
		metadata: make(Metadata),
	}
	for _, opt := range opts {
		opt(vr)
	}

	if err := vr.readMetadata(); err != nil {
		return nil, err
	}
	if err := vr.readHeader(); err != nil {
		return nil, err
	}
	return vr, nil
}

// readLine returns the next line without its line terminator.
// ok is false at end of input.
func (r *Reader) readLine() (line string, ok bool, err error) {
	if r.hasPending {
		r.hasPending = false
		return r.pending, true, nil
	}

	line, err = r.reader.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", false, &ParseError{Line: r.lineNumber + 1, Message: "read line", Err: err}
		}
		if line == "" {
			return "", false, nil
		}
	}
	r.lineNumber++
	return strings.TrimRight(line, "\r\n"), true, nil
}

// unreadLine pushes line back so the next readLine returns it again.
func (r *Reader) unreadLine(line string) {
	r.pending = line
	r.hasPending = true
}

// readMetadata consumes the contiguous ## lines at the start of the stream.
func (r *Reader) readMetadata() error {
	for {
		line, ok, err := r.readLine()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if !strings.HasPrefix(line, MetadataPrefix) {
			r.unreadLine(line)
			break
		}
		ParseMetadataLine(r.metadata, line)
		r.metadataLines++
	}
	r.state = stateHeader
	return nil
}

// readHeader consumes the line after the metadata if it starts with '#'.
func (r *Reader) readHeader() error {
	line, ok, err := r.readLine()
	if err != nil {
		return err
	}
	r.state = stateRecords
	if !ok {
		return nil
	}
	if !strings.HasPrefix(line, HeaderPrefix) {
		r.unreadLine(line)
		return nil
	}

	r.headerLine = true
	samples, valid := ParseHeader(line)
	if !valid {
		r.logger.Warn("header missing mandatory fields",
			zap.Int("line", r.lineNumber),
			zap.String("header", line))
	}
	r.samples = samples
	return nil
}

// Next reads the next record from the stream.
// Returns nil, nil when there are no more records. Lines with fewer than
// eight columns are skipped.
func (r *Reader) Next() (*Record, error) {
	if r.state != stateRecords {
		return nil, nil
	}

	for {
		line, ok, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if !ok {
			r.state = stateDone
			return nil, nil
		}

		rec, ok := ParseRecord(line)
		if !ok {
			continue
		}
		rec.Line = r.lineNumber
		return rec, nil
	}
}

// Metadata returns the parsed meta-information.
func (r *Reader) Metadata() Metadata {
	return r.metadata
}

// MetadataLines returns the number of ## lines consumed.
func (r *Reader) MetadataLines() int {
	return r.metadataLines
}

// HasHeaderLine reports whether a # column-header line was consumed.
func (r *Reader) HasHeaderLine() bool {
	return r.headerLine
}

// Samples returns sample identifiers from the #CHROM header line.
// Returns nil if the header declared no FORMAT column.
func (r *Reader) Samples() []string {
	return r.samples
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close closes the reader and underlying file.
func (r *Reader) Close() error {
	if r.gzipReader != nil {
		r.gzipReader.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ParseError represents an error while reading VCF input, with line context.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vcf parse error at line %d: %s: %v", e.Line, e.Message, e.Err)
	}
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
