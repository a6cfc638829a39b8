// aroresolve gRPC Server
// Resolves accessions, names and free text against the CARD Antibiotic
// Resistance Ontology
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/nainya/aroresolve/internal/config"
	"github.com/nainya/aroresolve/internal/logger"
	"github.com/nainya/aroresolve/internal/metrics"
	"github.com/nainya/aroresolve/internal/server"
	"github.com/nainya/aroresolve/pkg/engine"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "aroresolve: %v\n", err)
		os.Exit(2)
	}

	logger.InitGlobalLogger(logger.Config{
		Level:      cfg.Log.Level,
		Pretty:     cfg.Log.Pretty,
		WithCaller: cfg.Log.Caller,
	})
	log := logger.GetGlobalLogger()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server failed").Err(err).Send()
	}
}

// loadConfig parses args twice: once to find -config, then over the loaded
// file so flags win
func loadConfig(args []string) (config.Config, error) {
	pre := flag.NewFlagSet("aroresolve", flag.ContinueOnError)
	pre.SetOutput(io.Discard)
	path := pre.String("config", "", "")
	scratch := config.Default()
	scratch.RegisterFlags(pre)
	_ = pre.Parse(args)

	cfg, err := config.Load(*path)
	if err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("aroresolve", flag.ContinueOnError)
	fs.String("config", *path, "YAML configuration file")
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func run(cfg config.Config, log *logger.Logger) error {
	log.LogServerStart(cfg.Server.GrpcPort, cfg.Ontology.Path)

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	eng := engine.New(
		engine.WithLogger(log.EngineLogger("reload")),
		engine.WithOptions(cfg.EngineOptions()),
		engine.WithSource(cfg.Ontology.Path, cfg.SourceFormat()),
	)
	srv := server.NewServer(eng, server.Options{
		DefaultSearchLimit: cfg.Search.DefaultLimit,
		MaxSearchLimit:     cfg.Search.MaxLimit,
	}, m, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The first generation must build before any listener opens
	gen, err := srv.Load(ctx)
	if err != nil {
		return fmt.Errorf("initial load of %s: %w", cfg.Ontology.Path, err)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GrpcPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(cfg.Server.MaxMsgBytes),
		grpc.MaxSendMsgSize(cfg.Server.MaxMsgBytes),
		grpc.UnaryInterceptor(server.GrpcMetricsInterceptor(m, log)),
	)
	server.RegisterResolverServiceServer(grpcServer, srv)

	// Register reflection service for grpcurl/grpcui
	reflection.Register(grpcServer)

	var obs *server.ObservabilityServer
	if cfg.Server.MetricsPort != 0 {
		obs = server.NewObservabilityServer(cfg.Server.MetricsPort, prometheus.DefaultGatherer, srv.Ready, log)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.LogServerReady(cfg.Server.GrpcPort, gen.Number, gen.Store.Len())
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server failed: %w", err)
		}
		return nil
	})

	if obs != nil {
		g.Go(obs.Start)
	}

	// SIGHUP rereads the ontology; a failed reload keeps the current generation
	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				if _, err := srv.Load(gctx); err != nil {
					log.Error("Reload failed, previous generation still serving").Err(err).Send()
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		log.LogServerShutdown()
		grpcServer.GracefulStop()
		if obs != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return obs.Shutdown(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}
