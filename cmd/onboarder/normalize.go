package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mohammad-safakhou/onboarder/config"
	"github.com/mohammad-safakhou/onboarder/internal/dashboard"
	"github.com/mohammad-safakhou/onboarder/internal/normalize"
	"github.com/mohammad-safakhou/onboarder/internal/onboarding"
	"github.com/mohammad-safakhou/onboarder/internal/policy"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type normalizeOptions struct {
	BusinessType string
	Family       string
	OutDir       string
	WithReport   bool
	Parallel     int
}

type normalizedFile struct {
	Path   string                   `json:"path"`
	Config *dashboard.Configuration `json:"config"`
	Report *normalize.Report        `json:"report,omitempty"`
}

func normalizeCMD(cfgPath *string) *cobra.Command {
	var opts normalizeOptions
	cmd := &cobra.Command{
		Use:   "normalize <config.json>...",
		Short: "Run the normalization pipeline over stored configuration files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.General)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			tables, err := policy.Resolve(cfg.Policy.TablesFile, cfg.Policy.MaxTabs)
			if err != nil {
				return err
			}
			svc := onboarding.NewService(onboarding.Options{
				Normalizer: normalize.New(tables, logger),
				Logger:     logger,
			})
			return runNormalize(cmd.Context(), svc, args, opts, cmd.OutOrStdout(), logger)
		},
	}
	cmd.Flags().StringVar(&opts.BusinessType, "business-type", "", "business type used for industry lookups")
	cmd.Flags().StringVar(&opts.Family, "family", "", "template family whose locked components are restored")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "", "write results to this directory instead of stdout")
	cmd.Flags().BoolVar(&opts.WithReport, "report", false, "include the correction report in the output")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", runtime.NumCPU(), "files processed concurrently")
	return cmd
}

// runNormalize processes every file concurrently. Results are written in
// argument order so stdout output is stable.
func runNormalize(ctx context.Context, svc *onboarding.Service, paths []string, opts normalizeOptions, w io.Writer, logger *zap.Logger) error {
	if opts.OutDir != "" {
		names := make(map[string]string, len(paths))
		for _, path := range paths {
			base := filepath.Base(path)
			if prev, ok := names[base]; ok {
				return fmt.Errorf("%s and %s would both be written to %s", prev, path, filepath.Join(opts.OutDir, base))
			}
			names[base] = path
		}
		if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	results := make([]normalizedFile, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			cfg, err := dashboard.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out, report, err := svc.Normalize(cfg, opts.BusinessType, opts.Family)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			logger.Info("normalized",
				zap.String("path", path),
				zap.Int("tabs", len(out.Tabs)),
				zap.Int("corrections", len(report.Corrections)))

			res := normalizedFile{Path: path, Config: out}
			if opts.WithReport {
				res.Report = report
			}
			results[i] = res
			if opts.OutDir != "" {
				return writeResult(filepath.Join(opts.OutDir, filepath.Base(path)), res, opts.WithReport)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if opts.OutDir != "" {
		return nil
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, res := range results {
		if opts.WithReport || len(paths) > 1 {
			if err := enc.Encode(res); err != nil {
				return err
			}
			continue
		}
		if err := enc.Encode(res.Config); err != nil {
			return err
		}
	}
	return nil
}

func writeResult(path string, res normalizedFile, withReport bool) error {
	var v any = res.Config
	if withReport {
		v = res
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
