package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/redraft/imagegen"
	"github.com/hazyhaar/redraft/imaging"
	"github.com/hazyhaar/redraft/rephrase"
	"github.com/hazyhaar/redraft/rewrite"
	"github.com/hazyhaar/redraft/workspace"
)

var (
	flagWorkspace  string
	flagTextLimit  int
	flagImageLimit int
)

var runCmd = &cobra.Command{
	Use:   "run <document>...",
	Short: "Rewrite documents in place",
	Long: `Run processes each document in order: text nodes are rephrased and image
references regenerated, under the configured budget shared across the whole
run. Documents are written back only when something changed.

Examples:
  redraft run index.html
  redraft run --workspace ./site --text-limit 10 docs/*.html
  redraft run --image-limit 3 gallery.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&flagWorkspace, "workspace", "", "directory image references resolve against")
	runCmd.Flags().IntVar(&flagTextLimit, "text-limit", -1, "max text nodes rephrased this run")
	runCmd.Flags().IntVar(&flagImageLimit, "image-limit", -1, "max images regenerated this run (0 disables)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return err
	}
	if flagWorkspace != "" {
		cfg.Workspace = flagWorkspace
	}
	if flagTextLimit >= 0 {
		cfg.Rewrite.TextLimit = flagTextLimit
	}
	if flagImageLimit >= 0 {
		cfg.Rewrite.ImageLimit = flagImageLimit
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipe, _, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	report := rewrite.NewRunner(pipe, rewrite.FileProvider{}).Run(ctx, args)
	fmt.Println(report.Summary())

	if report.Documents == 0 && report.DocumentsFailed > 0 {
		return fmt.Errorf("all %d document(s) failed", report.DocumentsFailed)
	}
	return nil
}

// buildPipeline assembles the pipeline from an app config. The workspace
// resolver is only constructed when image processing is enabled. Empty
// capability endpoints yield identity capabilities, so a dry run is just a
// config with no endpoints.
func buildPipeline(cfg *appConfig) (*rewrite.Pipeline, rewrite.Deps, error) {
	deps := rewrite.Deps{
		Rephraser:   rephrase.New(cfg.Rephrase),
		Regenerator: imagegen.New(cfg.ImageGen),
		Normalizer:  imaging.New(cfg.Imaging),
	}

	if cfg.Rewrite.ImageLimit > 0 {
		res, err := workspace.NewDirResolver(workspace.Config{Root: cfg.Workspace})
		if err != nil {
			return nil, deps, fmt.Errorf("index workspace %s: %w", cfg.Workspace, err)
		}
		deps.Resolver = res
	}

	return rewrite.New(cfg.Rewrite, deps), deps, nil
}

// watchWorkspace starts index refresh in the background when the resolver
// supports it. Used by serve, where the workspace changes under a
// long-running process.
func watchWorkspace(ctx context.Context, deps rewrite.Deps) {
	dir, ok := deps.Resolver.(*workspace.DirResolver)
	if !ok {
		return
	}
	go func() {
		if err := dir.Watch(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("workspace watch stopped", "error", err)
		}
	}()
}
