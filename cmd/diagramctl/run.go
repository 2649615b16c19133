package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"diagramcore/internal/config"
	"diagramcore/internal/core"
	"diagramcore/pkg/domain"
)

type runOptions struct {
	script  string
	out     string
	noInit  bool
	metrics bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Emit every command of a JSON script and print the committed state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScript(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.script, "script", "", "path to a JSON array of commands ('-' reads stdin)")
	cmd.Flags().StringVar(&opts.out, "out", "", "write the final state to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.noInit, "no-init", false, "skip the init command before the script")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print recorded metric families after the run")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func runScript(ctx context.Context, opts runOptions, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	raw, err := readScript(opts.script)
	if err != nil {
		return err
	}
	cmds, err := core.DecodeScript(raw)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, stderr)
	if err != nil {
		return err
	}
	defer s.Close()

	if !opts.noInit {
		if err := s.engine.Init(ctx); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}
	for i, cmd := range cmds {
		if err := s.engine.Emit(ctx, cmd); err != nil {
			return fmt.Errorf("command %d (%s): %w", i, cmd.CommandName(), err)
		}
	}
	if err := s.engine.FlushMeasurements(ctx); err != nil {
		return fmt.Errorf("flush measurements: %w", err)
	}
	s.logger.Info("script applied", "commands", len(cmds), "document", s.cfg.Document)

	state, err := s.engine.State(ctx)
	if err != nil {
		return err
	}
	if err := writeState(opts.out, stdout, state); err != nil {
		return err
	}
	if !opts.metrics {
		return nil
	}
	if s.cfg.Metrics != config.MetricsPrometheus {
		s.logger.Warn("metrics flag ignored", "metrics", s.cfg.Metrics,
			"hint", "set DIAGRAMCORE_METRICS=prometheus")
		return nil
	}
	return printMetrics(s, stdout)
}

func readScript(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	raw, err := os.ReadFile(path) // #nosec G304: operator-supplied script path
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return raw, nil
}

func writeState(path string, stdout io.Writer, state domain.State) error {
	body, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	body = append(body, '\n')
	if path == "" {
		_, err = stdout.Write(body)
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func printMetrics(s *session, w io.Writer) error {
	families, err := s.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := fmt.Fprintf(w, "%s %d\n", mf.GetName(), len(mf.GetMetric())); err != nil {
			return err
		}
	}
	return nil
}
