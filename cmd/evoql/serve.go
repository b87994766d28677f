package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/evoql/pkg/api"
	grpcapi "github.com/lemonberrylabs/evoql/pkg/api/grpc"
	"github.com/lemonberrylabs/evoql/pkg/config"
	"github.com/lemonberrylabs/evoql/pkg/store"
	"github.com/lemonberrylabs/evoql/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC query service",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("config", "", "YAML or TOML config file")
	cmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port, 0 disables gRPC (default 8788, env GRPC_PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	cmd.Flags().String("queries-dir", "", "Directory of query catalogs to load at startup (env QUERIES_DIR)")
	cmd.Flags().Bool("access-log", false, "Log every HTTP request to stderr")
	return cmd
}

// serveConfig loads the config file and environment, then applies the flags
// that were set explicitly.
func serveConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("grpc-port") {
		cfg.GRPCPort, _ = flags.GetInt("grpc-port")
	}
	if flags.Changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if flags.Changed("queries-dir") {
		cfg.QueriesDir, _ = flags.GetString("queries-dir")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := serveConfig(cmd)
	if err != nil {
		return err
	}

	s := store.New()
	analyzer := api.NewAnalyzer(cfg.MaxQueryLength, cfg.CacheSize)
	var opts []api.Option
	if v, _ := cmd.Flags().GetBool("access-log"); v {
		opts = append(opts, api.WithAccessLog(cmd.ErrOrStderr()))
	}
	server := api.New(s, analyzer, opts...)

	if cfg.QueriesDir != "" {
		log.Printf("Loading queries from: %s", cfg.QueriesDir)
		if err := server.LoadDir(cfg.QueriesDir); err != nil {
			log.Printf("Warning: failed to load queries directory: %v", err)
		}
	}

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: web UI disabled due to template error: %v", r)
			}
		}()
		web.New(s, analyzer).Register(server.App())
	}()

	var grpcServer *grpcapi.Server
	if cfg.GRPCPort != 0 {
		grpcServer = grpcapi.New(analyzer)
		go func() {
			log.Printf("gRPC server listening on %s", cfg.GRPCAddr())
			if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
				log.Fatalf("gRPC server error: %v", err)
			}
		}()
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down evoql...")
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("EvoQL service listening on %s (max query length %d, cache %d)",
		cfg.Addr(), cfg.MaxQueryLength, cfg.CacheSize)
	if cfg.GRPCPort == 0 {
		log.Printf("gRPC disabled (grpc port 0)")
	}
	return server.Listen(cfg.Addr())
}
