// Command postsapi runs the development posts API the web pages read from.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsletter/internal/cache"
	"newsletter/internal/config"
	"newsletter/internal/database"
	"newsletter/internal/observability"
	"newsletter/internal/postsapi"
	"newsletter/internal/seed"
)

func main() {
	numPosts := flag.Int("seed", 0, "Number of generated posts to add on startup")
	fixtures := flag.String("fixtures", "", "YAML file of posts to add on startup")
	shouldClean := flag.Bool("clean", false, "Delete existing posts before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.SetupLogger(cfg.Environment() == config.EnvProduction, os.Stdout)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "newsletter-posts-api",
		ServiceVersion: "1.0.0",
		Environment:    string(cfg.Environment()),
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *numPosts > 0 || *fixtures != "" || *shouldClean {
		opts := seed.Options{NumPosts: *numPosts, Fixtures: *fixtures, ShouldClean: *shouldClean}
		if _, err := seed.NewSeeder(db).Run(context.Background(), opts); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	rdb := cache.Connect(context.Background(), cfg.RedisURL)
	srv := postsapi.NewServer(cfg, db, rdb)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		observability.Logger.Info("shutting down posts API")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}
