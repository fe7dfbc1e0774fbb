package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"train-tracker/internal/api"
	"train-tracker/internal/config"
	"train-tracker/internal/db"
	"train-tracker/internal/fleet"
	"train-tracker/internal/metrics"
	"train-tracker/internal/progress"
	"train-tracker/internal/publisher"
	"train-tracker/internal/tracking"
)

func main() {
	importPath := flag.String("import", "", "kai_history JSON export to load into the order store")
	importOnly := flag.Bool("import-only", false, "exit after -import instead of serving")
	flag.Parse()

	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		log.Fatalf("db ping error: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}
	log.Printf("order store ready (%s)", store.Driver())

	if *importPath != "" {
		raw, err := os.ReadFile(*importPath)
		if err != nil {
			log.Fatalf("read import file: %v", err)
		}
		n, err := store.ImportHistory(ctx, raw)
		if err != nil {
			log.Fatalf("import history: %v", err)
		}
		log.Printf("imported %d orders from %s", n, *importPath)
	}
	if *importOnly {
		return
	}

	// Metrics setup
	var mcol *metrics.Collector
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.MoveDuration, cfg.FleetTick, cfg.SnapshotInterval)
		metricsSrv = mcol.Serve(cfg.MetricsAddr)
	}

	var pub tracking.Publisher
	if cfg.NATSDisabled {
		log.Printf("nats publishing disabled")
	} else {
		np, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, publisherMetrics(mcol))
		if err != nil {
			log.Fatalf("nats error: %v", err)
		}
		defer np.Close()
		pub = np
	}

	sim := fleet.NewSimulator(fleet.DefaultRoster(), fleetMetrics(mcol))
	if mcol != nil {
		mcol.FleetTrains.Set(float64(sim.Len()))
	}

	mgr := tracking.NewManager(store, sim, pub, trackingMetrics(mcol), tracking.Options{
		Timing: progress.Timing{
			StartupDelay: cfg.StartupDelay,
			MoveDuration: cfg.MoveDuration,
			DefaultDwell: cfg.DefaultDwell,
		},
		SnapshotInterval: cfg.SnapshotInterval,
		RefreshInterval:  cfg.RefreshInterval,
		Location:         cfg.Location,
	})
	mgr.Start(ctx)

	var metricsHandler http.Handler
	if mcol != nil {
		metricsHandler = mcol.Handler()
	}
	handler := api.NewHandler(mgr, sim, store, metricsHandler)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(cfg.CORSOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sim.Run(gctx, cfg.FleetTick, mgr.PublishFleet)
		return nil
	})
	g.Go(func() error {
		log.Printf("api listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// Shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server error: %v", err)
	}
	mgr.Stop()
	log.Println("shutdown complete")
}

// The helpers below keep a nil collector from becoming a non-nil interface.

func publisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return c
}

func fleetMetrics(c *metrics.Collector) fleet.Metrics {
	if c == nil {
		return nil
	}
	return c
}

func trackingMetrics(c *metrics.Collector) tracking.Metrics {
	if c == nil {
		return nil
	}
	return c
}
