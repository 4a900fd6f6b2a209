package plugin

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/robertkrimen/otto"
	"go.uber.org/zap"

	"github.com/inodb/vcfdistil/internal/pipeline"
	"github.com/inodb/vcfdistil/internal/vcf"
)

// Script is a JavaScript filter plugin. The script may define any of
//
//	function begin(metadata, sampleIds) { ... }
//	function filter(record, metadata, sampleIds) { ... }
//	function end(metadata, sampleIds) { ... }
//
// Each function may return a string, an array of strings, or nothing, and
// may call emit(line) to write lines directly. splitGenotype(gt) returns
// [call, rest]. console.log goes to the log, not the output.
//
// Scripts run with the privileges of the host process. Do not load scripts
// from untrusted sources.
type Script struct {
	path    string
	program *otto.Script
	logger  *zap.Logger

	hasBegin, hasFilter, hasEnd bool
}

// LoadScript compiles and evaluates the script at path once, so syntax and
// top-level errors are reported before any input is read.
func LoadScript(path string, logger *zap.Logger) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	vm := otto.New()
	program, err := vm.Compile(path, src)
	if err != nil {
		return nil, fmt.Errorf("compile script %s: %w", path, err)
	}

	s := &Script{path: path, program: program, logger: logger}
	st, err := s.instantiate()
	if err != nil {
		return nil, err
	}
	s.hasBegin = st.begin.IsFunction()
	s.hasFilter = st.filter.IsFunction()
	s.hasEnd = st.end.IsFunction()
	return s, nil
}

// Name returns the script path.
func (s *Script) Name() string {
	return s.path
}

// NewStage evaluates the script in a fresh VM, so global state in the
// script starts over for every input.
func (s *Script) NewStage() (pipeline.Stage, error) {
	st, err := s.instantiate()
	if err != nil {
		return pipeline.Stage{}, err
	}

	var stage pipeline.Stage
	if s.hasBegin {
		stage.Begin = st.Begin
	}
	if s.hasFilter {
		stage.Filter = st.Filter
	}
	if s.hasEnd {
		stage.End = st.End
	}
	return stage, nil
}

// scriptStage is one evaluated copy of a Script.
type scriptStage struct {
	path   string
	vm     *otto.Otto
	logger *zap.Logger

	begin, filter, end otto.Value

	emit    pipeline.Emit // target of emit() during a call
	emitErr error

	md      otto.Value // converted once; metadata is fixed for a run
	samples otto.Value
	ready   bool
}

func (s *Script) instantiate() (*scriptStage, error) {
	st := &scriptStage{path: s.path, vm: otto.New(), logger: s.logger}
	if err := st.installHelpers(); err != nil {
		return nil, fmt.Errorf("script %s: %w", s.path, err)
	}
	if _, err := st.vm.Run(s.program); err != nil {
		return nil, fmt.Errorf("evaluate script %s: %w", s.path, err)
	}

	var err error
	if st.begin, err = st.vm.Get("begin"); err != nil {
		return nil, err
	}
	if st.filter, err = st.vm.Get("filter"); err != nil {
		return nil, err
	}
	if st.end, err = st.vm.Get("end"); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *scriptStage) installHelpers() error {
	if err := st.vm.Set("emit", func(call otto.FunctionCall) otto.Value {
		if st.emit == nil {
			panic(st.vm.MakeCustomError("EmitError", "emit called outside begin, filter or end"))
		}
		if err := st.emit(call.Argument(0).String()); err != nil {
			st.emitErr = err
			panic(st.vm.MakeCustomError("EmitError", err.Error()))
		}
		return otto.UndefinedValue()
	}); err != nil {
		return err
	}

	if err := st.vm.Set("splitGenotype", func(call otto.FunctionCall) otto.Value {
		c, rest := vcf.SplitGenotype(call.Argument(0).String())
		v, err := st.vm.Call("Array", nil, c, rest)
		if err != nil {
			panic(st.vm.MakeCustomError("Error", err.Error()))
		}
		return v
	}); err != nil {
		return err
	}

	console, err := st.vm.Get("console")
	if err != nil {
		return err
	}
	return console.Object().Set("log", func(call otto.FunctionCall) otto.Value {
		args := make([]string, len(call.ArgumentList))
		for i, a := range call.ArgumentList {
			args[i] = a.String()
		}
		st.logger.Info("script log", zap.String("script", st.path), zap.Strings("args", args))
		return otto.UndefinedValue()
	})
}

func (st *scriptStage) Begin(md vcf.Metadata, samples []string, emit pipeline.Emit) error {
	if err := st.prepare(md, samples); err != nil {
		return err
	}
	return st.call("begin", st.begin, emit, st.md, st.samples)
}

func (st *scriptStage) Filter(rec *vcf.Record, md vcf.Metadata, samples []string, emit pipeline.Emit) error {
	if err := st.prepare(md, samples); err != nil {
		return err
	}
	r, err := st.toJS(newJSRecord(rec))
	if err != nil {
		return fmt.Errorf("convert record: %w", err)
	}
	return st.call("filter", st.filter, emit, r, st.md, st.samples)
}

func (st *scriptStage) End(md vcf.Metadata, samples []string, emit pipeline.Emit) error {
	if err := st.prepare(md, samples); err != nil {
		return err
	}
	return st.call("end", st.end, emit, st.md, st.samples)
}

// prepare converts the run's metadata and samples on first use.
func (st *scriptStage) prepare(md vcf.Metadata, samples []string) error {
	if st.ready {
		return nil
	}
	var err error
	if st.md, err = st.toJS(newJSMetadata(md)); err != nil {
		return fmt.Errorf("convert metadata: %w", err)
	}
	if st.samples, err = st.toJS(samples); err != nil {
		return fmt.Errorf("convert samples: %w", err)
	}
	st.ready = true
	return nil
}

// toJS turns v into a plain JavaScript value via JSON, so the script sees
// real arrays and objects.
func (st *scriptStage) toJS(v any) (otto.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return otto.UndefinedValue(), err
	}
	return st.vm.Call("JSON.parse", nil, string(data))
}

func (st *scriptStage) call(name string, fn otto.Value, emit pipeline.Emit, args ...any) error {
	st.emit = emit
	st.emitErr = nil
	defer func() { st.emit = nil }()

	result, err := fn.Call(otto.NullValue(), args...)
	if st.emitErr != nil {
		return st.emitErr
	}
	if err != nil {
		var jsErr *otto.Error
		if errors.As(err, &jsErr) {
			return fmt.Errorf("script %s: %s: %s", st.path, name, jsErr.String())
		}
		return fmt.Errorf("script %s: %s: %w", st.path, name, err)
	}
	return emitResult(result, emit)
}

// emitResult writes a function's return value: nothing for undefined or
// null, one line per element for arrays, one line otherwise.
func emitResult(v otto.Value, emit pipeline.Emit) error {
	if v.IsUndefined() || v.IsNull() {
		return nil
	}
	if v.Class() != "Array" {
		return emit(v.String())
	}

	arr := v.Object()
	length, err := arr.Get("length")
	if err != nil {
		return err
	}
	n, err := length.ToInteger()
	if err != nil {
		return err
	}
	for i := int64(0); i < n; i++ {
		el, err := arr.Get(strconv.FormatInt(i, 10))
		if err != nil {
			return err
		}
		if el.IsUndefined() || el.IsNull() {
			continue
		}
		if err := emit(el.String()); err != nil {
			return err
		}
	}
	return nil
}

// jsRecord is the shape of a record as seen by scripts.
type jsRecord struct {
	Chrom     string         `json:"chrom"`
	Pos       string         `json:"pos"`
	ID        string         `json:"id"`
	Ref       string         `json:"ref"`
	Alt       string         `json:"alt"`
	Qual      string         `json:"qual"`
	Filter    string         `json:"filter"`
	Info      map[string]any `json:"info"`
	Format    *string        `json:"format"`
	Genotypes []string       `json:"genotypes"`
	Line      int            `json:"line"`
}

func newJSRecord(rec *vcf.Record) jsRecord {
	r := jsRecord{
		Chrom:     rec.Chrom,
		Pos:       rec.Pos,
		ID:        rec.ID,
		Ref:       rec.Ref,
		Alt:       rec.Alt,
		Qual:      rec.Qual,
		Filter:    rec.Filter,
		Info:      make(map[string]any, len(rec.Info)),
		Genotypes: rec.Genotypes,
		Line:      rec.Line,
	}
	for k, v := range rec.Info {
		if len(v) == 1 {
			r.Info[k] = v[0]
		} else {
			r.Info[k] = v
		}
	}
	if rec.HasFormat {
		format := rec.Format
		r.Format = &format
	}
	return r
}

// newJSMetadata maps scalar directives to strings and structured ones to
// objects keyed by ID.
func newJSMetadata(md vcf.Metadata) map[string]any {
	out := make(map[string]any, len(md))
	for name, d := range md {
		if d.IsStructured() {
			out[name] = d.Entries
		} else {
			out[name] = d.Value
		}
	}
	return out
}
