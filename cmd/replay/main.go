// Command replay plays a TOML gesture script against a board document on a
// fake clock and prints the resulting document and undo history as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/mtmitchel/LONewDesign-sub007/internal/config"
	"github.com/mtmitchel/LONewDesign-sub007/internal/engine"
	"github.com/mtmitchel/LONewDesign-sub007/internal/logging"
	"github.com/mtmitchel/LONewDesign-sub007/internal/replay"
)

type options struct {
	doc     string
	script  string
	output  string
	verbose bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:          "replay --script gestures.toml [--doc board.json]",
		Short:        "Replay pointer gestures against a board document",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.doc, "doc", "", "board document JSON (default: built-in sample board)")
	cmd.Flags().StringVarP(&opts.script, "script", "s", "", "gesture script (TOML)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	_ = cmd.MarkFlagRequired("script")

	return cmd
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level := cfg.SlogLevel()
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := logging.New(os.Stderr, level)

	script, err := replay.Load(opts.script)
	if err != nil {
		return fmt.Errorf("load script: %w", err)
	}

	clock := clockwork.NewFakeClock()
	eng := engine.New(engine.WithConfig(cfg), engine.WithLogger(logger), engine.WithClock(clock))
	defer eng.Close()

	if opts.doc == "" {
		eng.LoadSampleDocument()
	} else {
		data, err := os.ReadFile(opts.doc)
		if err != nil {
			return err
		}
		if err := eng.LoadDocument(data); err != nil {
			return fmt.Errorf("load document: %w", err)
		}
	}

	res, err := replay.NewRunner(eng, clock, logger).Run(ctx, script)
	if err != nil {
		return err
	}
	logger.Info("replay finished", "steps", len(res.Steps), "history", len(res.History))

	var w io.Writer = os.Stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
