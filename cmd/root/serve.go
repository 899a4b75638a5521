package root

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/agentwire/agentwire/pkg/config"
	"github.com/agentwire/agentwire/pkg/engine"
	"github.com/agentwire/agentwire/pkg/engine/anthropic"
	"github.com/agentwire/agentwire/pkg/engine/bedrock"
	"github.com/agentwire/agentwire/pkg/runstate"
	"github.com/agentwire/agentwire/pkg/runtime"
	"github.com/agentwire/agentwire/pkg/server"
)

type serveFlags struct {
	listenAddr string
	configFile string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bridge server",
		Long:  "Start the HTTP server that bridges AG-UI frontends to the configured model engine",
		Args:  cobra.NoArgs,
		RunE:  flags.runServeCommand,
	}

	cmd.Flags().StringVarP(&flags.listenAddr, "listen", "l", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "Path to the configuration file")

	return cmd
}

func (f *serveFlags) runServeCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(f.configFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	addr := f.listenAddr
	if addr == "" {
		addr = cfg.Addr()
	}

	eng, err := newEngine(cmd, cfg)
	if err != nil {
		return fmt.Errorf("creating %s engine: %w", cfg.Model.Provider, err)
	}

	store := runstate.NewStore(cfg.RunTTL)
	rt := runtime.New(eng, store)
	srv := server.New(rt, store)

	ln, err := server.Listen(ctx, addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	fmt.Fprintln(cmd.OutOrStdout(), "Listening on "+ln.Addr().String())

	slog.Info("Starting server",
		"addr", ln.Addr().String(),
		"provider", cfg.Model.Provider,
		"model", cfg.Model.ID)

	return srv.Serve(ctx, ln)
}

func newEngine(cmd *cobra.Command, cfg *config.Config) (engine.Engine, error) {
	switch cfg.Model.Provider {
	case config.ProviderBedrock:
		return bedrock.NewClient(cmd.Context(), cfg.Model)
	case config.ProviderAnthropic:
		return anthropic.NewClient(cfg.Model)
	default:
		return nil, fmt.Errorf("unknown engine provider %q", cfg.Model.Provider)
	}
}
