package main

import (
	"flag"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/mnemonic-graph/mnemonic/internal/config"
	"github.com/mnemonic-graph/mnemonic/internal/facade"
	"github.com/mnemonic-graph/mnemonic/internal/housekeep"
	"github.com/mnemonic-graph/mnemonic/internal/kv"
	"github.com/mnemonic-graph/mnemonic/internal/telemetry"
	"github.com/mnemonic-graph/mnemonic/internal/transport"
	"github.com/mnemonic-graph/mnemonic/internal/txn"
)

var (
	flagConfig  = flag.String("config", "", "path to a YAML config file (optional, flags below override it)")
	flagHTTP    = flag.String("http", "", "HTTP listen address (overrides config)")
	flagGRPC    = flag.String("grpc", "", "gRPC listen address (overrides config)")
	flagData    = flag.String("data", "", "checkpoint directory (overrides config)")
	flagVerbose = flag.Bool("v", false, "verbose (debug) logging")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *flagConfig != "" {
		loaded, err := config.Load(*flagConfig)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}
	if *flagHTTP != "" {
		cfg.HTTPAddr = *flagHTTP
	}
	if *flagGRPC != "" {
		cfg.GRPCAddr = *flagGRPC
	}
	if *flagData != "" {
		cfg.CheckpointDir = *flagData
	}
	if *flagVerbose {
		cfg.LogLevel = "debug"
	}

	telemetry.Init(telemetry.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	log := telemetry.WithComponent("graphd")

	store, err := kv.Open(cfg.CheckpointDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open checkpoint store")
	}
	defer store.Close()

	manager, err := txn.New(store)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hydrate version index")
	}

	graph := facade.New(manager, cfg.WorkerPoolSize)

	job, err := housekeep.Start(cfg.HousekeepCron, manager, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start housekeeping job")
	}
	defer job.Stop()

	// CheckpointInterval drives a periodic Sync independent of the
	// housekeeping cron, so a checkpoint lands on disk regularly instead of
	// only at shutdown. A zero interval disables it.
	if cfg.CheckpointInterval > 0 {
		ticker := time.NewTicker(cfg.CheckpointInterval)
		defer ticker.Stop()
		done := make(chan struct{})
		defer close(done)
		go func() {
			for {
				select {
				case <-ticker.C:
					if err := store.Sync(); err != nil {
						log.Error().Err(err).Msg("periodic checkpoint sync failed")
					}
				case <-done:
					return
				}
			}
		}()
	}

	srv := transport.NewServer(graph, log)

	// Both listeners are launched through one errgroup so either one's
	// failure surfaces through the same Wait, instead of the teacher's
	// pattern of stashing the gRPC error in a variable read from another
	// goroutine.
	var g errgroup.Group

	if cfg.GRPCAddr != "" {
		g.Go(func() error {
			lis, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				return err
			}
			transport.RegisterJSONCodec()
			gs := grpc.NewServer()
			transport.RegisterGraphServer(gs, srv)
			log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC listening")
			return gs.Serve(lis)
		})
	}

	if cfg.HTTPAddr != "" {
		g.Go(func() error {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
			return http.ListenAndServe(cfg.HTTPAddr, srv.HTTPHandler())
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
