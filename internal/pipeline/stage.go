package pipeline

import "github.com/inodb/vcfdistil/internal/vcf"

// Emit writes one output line. Lines are written in the order they are
// emitted, as soon as they are emitted.
type Emit func(line string) error

// BeginFunc is called once before the first record.
type BeginFunc func(md vcf.Metadata, samples []string, emit Emit) error

// FilterFunc is called once per record, in file order. Emitting nothing
// drops the record from the output.
type FilterFunc func(rec *vcf.Record, md vcf.Metadata, samples []string, emit Emit) error

// EndFunc is called once after the last record.
type EndFunc func(md vcf.Metadata, samples []string, emit Emit) error

// Stage holds the three optional operations of a filter stage.
// A nil Begin or End emits nothing; a nil Filter passes every record
// through as Record.String().
//
// The metadata map and samples slice handed to the operations are shared
// for the whole run and must not be modified.
type Stage struct {
	Begin  BeginFunc
	Filter FilterFunc
	End    EndFunc
}

// Beginner is implemented by stages with a begin operation.
type Beginner interface {
	Begin(md vcf.Metadata, samples []string, emit Emit) error
}

// Filterer is implemented by stages with a filter operation.
type Filterer interface {
	Filter(rec *vcf.Record, md vcf.Metadata, samples []string, emit Emit) error
}

// Ender is implemented by stages with an end operation.
type Ender interface {
	End(md vcf.Metadata, samples []string, emit Emit) error
}

// FromValue builds a Stage from whichever of Beginner, Filterer and Ender
// v implements.
func FromValue(v any) Stage {
	var s Stage
	if b, ok := v.(Beginner); ok {
		s.Begin = b.Begin
	}
	if f, ok := v.(Filterer); ok {
		s.Filter = f.Filter
	}
	if e, ok := v.(Ender); ok {
		s.End = e.End
	}
	return s
}

// Passthrough is the default filter operation.
func Passthrough(rec *vcf.Record, _ vcf.Metadata, _ []string, emit Emit) error {
	return emit(rec.String())
}

func noLines(vcf.Metadata, []string, Emit) error {
	return nil
}

// withDefaults fills the missing operations.
func (s Stage) withDefaults() Stage {
	if s.Begin == nil {
		s.Begin = noLines
	}
	if s.Filter == nil {
		s.Filter = Passthrough
	}
	if s.End == nil {
		s.End = noLines
	}
	return s
}

// Observe wraps the stage's filter operation so fn sees every record
// before the stage does.
func Observe(s Stage, fn func(rec *vcf.Record)) Stage {
	filter := s.Filter
	if filter == nil {
		filter = Passthrough
	}
	s.Filter = func(rec *vcf.Record, md vcf.Metadata, samples []string, emit Emit) error {
		fn(rec)
		return filter(rec, md, samples, emit)
	}
	return s
}
