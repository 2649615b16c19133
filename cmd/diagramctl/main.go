// Command diagramctl drives a diagram engine from the command line: it runs
// JSON command scripts against the configured store and lists the commands
// and middlewares the engine wires by default.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"diagramcore/internal/config"
	"diagramcore/internal/core"
	"diagramcore/pkg/domain"
)

var exitFunc = os.Exit

// loadConfig is swapped in tests to avoid reading the process environment.
var loadConfig = config.Load

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintf(stderr, "diagramctl: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "diagramctl",
		Short:         "Run command scripts against a diagram model store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(newRunCmd(), newCommandsCmd(), newMiddlewaresCmd())
	return root
}

// session bundles an engine with the store and logger it was built from.
type session struct {
	cfg      config.Config
	engine   *core.Engine
	registry *prometheus.Registry
	logger   *slog.Logger
	store    domain.ModelStore
}

func openSession(ctx context.Context, stderr io.Writer) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logger(stderr)
	if err != nil {
		return nil, err
	}
	store, err := core.OpenModelStore(ctx, cfg.StorageConfig())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	reg := prometheus.NewRegistry()
	opts, err := cfg.EngineOptions(logger, reg)
	if err != nil {
		closeStore(store, logger)
		return nil, err
	}
	engine, err := core.NewEngine(store, opts...)
	if err != nil {
		closeStore(store, logger)
		return nil, err
	}
	return &session{cfg: cfg, engine: engine, registry: reg, logger: logger, store: store}, nil
}

func (s *session) Close() {
	s.engine.Close()
	closeStore(s.store, s.logger)
}

func closeStore(store domain.ModelStore, logger *slog.Logger) {
	if c, ok := store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn("close store", "error", err)
		}
	}
}
