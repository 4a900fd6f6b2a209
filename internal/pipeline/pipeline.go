// Package pipeline streams VCF records through a begin/filter/end stage.
//
// A run moves once through the metadata, the header line and the records of
// a single input. Every line a stage emits is flushed to the output before
// emit returns, so only one record and one output line are resident at a
// time.
// Stages are called from a single goroutine.
package pipeline

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/inodb/vcfdistil/internal/output"
	"github.com/inodb/vcfdistil/internal/vcf"
)

// ErrPipelineUsed is returned when Run is called a second time.
var ErrPipelineUsed = errors.New("pipeline already used; create a new one per input")

// Pipeline runs one input through a stage.
type Pipeline struct {
	stage  Stage
	logger *zap.Logger
	used   bool
	stats  Stats
}

// Stats counts what a run processed.
type Stats struct {
	Records int // records handed to the filter operation
	Lines   int // output lines written
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for warning and info messages.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// New creates a pipeline for the given stage. Missing operations are bound
// to their defaults.
func New(stage Stage, opts ...Option) *Pipeline {
	p := &Pipeline{
		stage:  stage.withDefaults(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run parses VCF text from r and writes the stage output to w.
func (p *Pipeline) Run(r io.Reader, w io.Writer) error {
	if p.used {
		return ErrPipelineUsed
	}

	src, err := vcf.NewReader(r, vcf.WithLogger(p.logger))
	if err != nil {
		p.used = true
		return err
	}
	defer src.Close()

	return p.RunSource(src, w)
}

// RunSource streams the records of src through the stage and writes the
// output to w. The source's metadata and samples are passed unchanged to
// every stage call.
func (p *Pipeline) RunSource(src vcf.RecordSource, w io.Writer) error {
	if p.used {
		return ErrPipelineUsed
	}
	p.used = true

	out := output.NewLineWriter(w)
	emit := func(line string) error {
		if err := out.WriteLine(line); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		if err := out.Flush(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
		return nil
	}

	err := p.stream(src, emit)
	p.stats.Lines = out.Lines()
	if flushErr := out.Flush(); flushErr != nil && err == nil {
		err = fmt.Errorf("flush output: %w", flushErr)
	}
	if err != nil {
		return err
	}

	p.logger.Debug("input processed",
		zap.Int("records", p.stats.Records),
		zap.Int("lines", p.stats.Lines))
	return nil
}

func (p *Pipeline) stream(src vcf.RecordSource, emit Emit) error {
	md := src.Metadata()
	samples := src.Samples()

	if err := p.stage.Begin(md, samples, emit); err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	for {
		rec, err := src.Next()
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}
		if rec == nil {
			break
		}
		p.stats.Records++

		if err := p.stage.Filter(rec, md, samples, emit); err != nil {
			return fmt.Errorf("filter record at line %d: %w", rec.Line, err)
		}
	}

	if err := p.stage.End(md, samples, emit); err != nil {
		return fmt.Errorf("end: %w", err)
	}
	return nil
}

// Stats returns the counts of the completed run.
func (p *Pipeline) Stats() Stats {
	return p.stats
}
