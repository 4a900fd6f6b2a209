package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vcfdistil/internal/duckdb"
	"github.com/inodb/vcfdistil/internal/pipeline"
	"github.com/inodb/vcfdistil/internal/vcf"
)

func (a *app) newLoadCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "load [flags] [VCF_FILE...]",
		Short: "Load VCF records into a DuckDB database",
		Long: `Load records, INFO values, sample names and meta-information into a
DuckDB database. Files whose size and modification time match a previous
load are skipped unless --force is given. Reading stdin always reloads.`,
		Example: `  vcfdistil load --db calls.duckdb calls.vcf.gz
  vcfdistil load --db calls.duckdb --force a.vcf b.vcf`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLoad(cmd, args, force)
		},
	}
	cmd.Flags().String("db", "", "DuckDB database path (required)")
	cmd.Flags().BoolVar(&force, "force", false, "reload files that are already loaded")
	_ = a.v.BindPFlag("db", cmd.Flags().Lookup("db"))
	return cmd
}

func (a *app) runLoad(cmd *cobra.Command, args []string, force bool) error {
	dbPath := a.v.GetString("db")
	if dbPath == "" {
		return fmt.Errorf("--db is required")
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return withExit(ExitFileIO, err)
	}
	defer store.Close()

	if len(args) == 0 {
		args = []string{"-"}
	}

	bar := newProgress(a.v.GetBool("progress"), cmd.ErrOrStderr())
	defer bar.finish()

	var loaded, skipped int
	var total int64
	for _, path := range args {
		fp := duckdb.FileFingerprint{Path: path}
		if path != "-" {
			if fp, err = duckdb.StatFile(path); err != nil {
				return withExit(ExitFileIO, fmt.Errorf("stat %s: %w", path, err))
			}
			if !force {
				done, err := store.Loaded(fp)
				if err != nil {
					return withExit(ExitFileIO, err)
				}
				if done {
					a.logger.Info("skipping loaded file", zap.String("path", path))
					skipped++
					continue
				}
			}
		}

		n, err := a.loadFile(store, fp, bar)
		if err != nil {
			return err
		}
		loaded++
		total += n
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Loaded %d records from %d file(s) into %s (%d skipped)\n",
		total, loaded, dbPath, skipped)
	return nil
}

func (a *app) loadFile(store *duckdb.Store, fp duckdb.FileFingerprint, bar *progress) (int64, error) {
	src, err := vcf.Open(fp.Path, vcf.WithLogger(a.logger))
	if err != nil {
		return 0, withExit(ExitFileIO, err)
	}
	defer src.Close()

	loader := store.NewLoader(fp, a.logger)
	defer loader.Close()

	stage := pipeline.Observe(loader.Stage(), func(*vcf.Record) { bar.increment() })
	p := pipeline.New(stage, pipeline.WithLogger(a.logger.With(zap.String("path", fp.Path))))
	if err := p.RunSource(src, io.Discard); err != nil {
		return 0, withExit(ExitVCF, fmt.Errorf("%s: %w", fp.Path, err))
	}
	return loader.Records(), nil
}
