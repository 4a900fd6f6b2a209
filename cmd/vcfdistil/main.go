// Package main provides the vcfdistil command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vcfdistil/internal/pipeline"
	"github.com/inodb/vcfdistil/internal/plugin"
	"github.com/inodb/vcfdistil/internal/vcf"
)

const programName = "vcfdistil"

// Exit codes
const (
	ExitSuccess = 0
	ExitFileIO  = 1 // input/output files, and filter plugins that fail to load
	ExitUsage   = 2
	ExitVCF     = 3 // read or filter failure while streaming
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// exitError carries the exit status for an error returned by a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExit(code int, err error) error {
	return &exitError{code: code, err: err}
}

// app holds state shared by the commands of one invocation.
type app struct {
	v        *viper.Viper
	cfgFile  string
	args     []string
	logger   *zap.Logger
	closeLog func() error
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{v: viper.New(), args: args, logger: zap.NewNop()}
	defer a.syncLog()

	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if a.closeLog != nil {
			a.logger.Error("exiting", zap.Int("code", ee.code), zap.Error(ee.err))
		}
		fmt.Fprintf(stderr, "%s ERROR: %v, exiting\n", programName, ee.err)
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n\n", err)
	fmt.Fprint(stderr, root.UsageString())
	return ExitUsage
}

func (a *app) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   programName + " [flags] [VCF_FILE...]",
		Short: "Transform and filter VCF files",
		Long: `Read one or more VCF files and stream every record through a filter stage.

The filter is either a built-in (see "vcfdistil plugins") or a JavaScript
file defining any of begin(metadata, sampleIds), filter(record, metadata,
sampleIds) and end(metadata, sampleIds). Without a filter, each record is
written as CHROM POS ID REF ALT QUAL FILTER followed by its genotype columns.

WARNING: filter scripts run with the privileges of this process. Never run
a filter obtained from an untrusted source.`,
		Example: `  vcfdistil calls.vcf
  vcfdistil --filter vep-csq --log run.log annotated.vcf.gz > report.tsv
  vcfdistil --filter examples/gatk_vep_filter.js annotated.vcf
  cat calls.vcf | vcfdistil -`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(cmd); err != nil {
				return withExit(ExitFileIO, err)
			}
			return a.initLogging(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFilter(cmd, args)
		},
	}
	cmd.SetVersionTemplate("{{.Name}} version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ~/.vcfdistil.yaml)")
	pf.String("log", "", "record program progress in LOG_FILE")
	pf.Bool("progress", false, "show a record counter on stderr")

	f := cmd.Flags()
	f.String("filter", "", "built-in filter name or JavaScript filter file")
	f.StringP("output", "o", "", "output file (default: stdout)")

	for _, name := range []string{"log", "progress"} {
		_ = a.v.BindPFlag(name, pf.Lookup(name))
	}
	_ = a.v.BindPFlag("filter", f.Lookup("filter"))

	cmd.AddCommand(a.newLoadCmd())
	cmd.AddCommand(a.newPluginsCmd())
	cmd.AddCommand(a.newConfigCmd())

	return cmd
}

// initConfig reads the config file and environment. A missing default
// config file is not an error.
func (a *app) initConfig(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("VCFDISTIL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", a.cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	path := filepath.Join(home, ".vcfdistil.yaml")
	a.v.SetConfigFile(path)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func (a *app) runFilter(cmd *cobra.Command, args []string) error {
	factory, err := plugin.Load(a.v.GetString("filter"), a.logger)
	if err != nil {
		return withExit(ExitFileIO, fmt.Errorf("loading custom filter: %w", err))
	}
	a.logger.Info("filter loaded", zap.String("filter", factory.Name()))

	outPath, _ := cmd.Flags().GetString("output")
	out := &outputFile{path: outPath, stdout: cmd.OutOrStdout()}
	defer out.Close()

	if len(args) == 0 {
		args = []string{"-"}
	}

	bar := newProgress(a.v.GetBool("progress"), cmd.ErrOrStderr())
	defer bar.finish()

	for _, path := range args {
		if err := a.filterFile(path, factory, bar, out); err != nil {
			return err
		}
	}
	return nil
}

// filterFile runs one input through a fresh pipeline and stage.
func (a *app) filterFile(path string, factory plugin.Factory, bar *progress, out *outputFile) error {
	a.logger.Info("processing VCF file", zap.String("path", path))

	src, err := vcf.Open(path, vcf.WithLogger(a.logger))
	if err != nil {
		return withExit(ExitFileIO, err)
	}
	defer src.Close()

	w, err := out.writer()
	if err != nil {
		return err
	}

	stage, err := factory.NewStage()
	if err != nil {
		return withExit(ExitFileIO, fmt.Errorf("loading custom filter: %w", err))
	}
	stage = pipeline.Observe(stage, func(*vcf.Record) { bar.increment() })

	p := pipeline.New(stage, pipeline.WithLogger(a.logger.With(zap.String("path", path))))
	if err := p.RunSource(src, w); err != nil {
		return withExit(ExitVCF, fmt.Errorf("%s: %w", path, err))
	}
	return nil
}

// outputFile creates the --output file once an input has opened, so a run
// that fails to open its first input leaves an existing file untouched.
type outputFile struct {
	path   string
	stdout io.Writer
	file   *os.File
}

func (o *outputFile) writer() (io.Writer, error) {
	if o.path == "" {
		return o.stdout, nil
	}
	if o.file == nil {
		f, err := os.Create(o.path)
		if err != nil {
			return nil, withExit(ExitFileIO, fmt.Errorf("create output file: %w", err))
		}
		o.file = f
	}
	return o.file, nil
}

func (o *outputFile) Close() error {
	if o.file == nil {
		return nil
	}
	return o.file.Close()
}
