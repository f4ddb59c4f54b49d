package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dnscore/resolved/internal/cache"
	"github.com/dnscore/resolved/internal/config"
	"github.com/dnscore/resolved/internal/server"
)

var (
	cfgPath       = flag.String("config", "", "Path to YAML config file")
	listen        = flag.String("listen", "", "UDP listen address (overrides config)")
	metricsListen = flag.String("metrics-listen", "", "Prometheus metrics listen address (overrides config)")
	stats         = flag.Bool("stats", true, "Print statistics periodically")
)

func main() {
	flag.Parse()

	fileCfg := config.Default()
	if *cfgPath != "" {
		c, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
		fileCfg = c
	}

	if *listen != "" {
		fileCfg.Listen = *listen
	}
	if *metricsListen != "" {
		fileCfg.MetricsListen = *metricsListen
	}

	cfg := server.DefaultConfig()
	cfg.Addr = fileCfg.Listen
	if fileCfg.CacheCapacity > 0 {
		cfg.ResolverConfig.CacheConfig = cache.Config{Capacity: fileCfg.CacheCapacity}
	}
	if fileCfg.Workers > 0 {
		cfg.ResolverConfig.Workers = fileCfg.Workers
	}
	if fileCfg.ExchangeTimeout > 0 {
		cfg.ResolverConfig.ExchangeTimeout = fileCfg.ExchangeTimeout
	}
	if fileCfg.CallTimeout > 0 {
		cfg.ResolverConfig.CallTimeout = fileCfg.CallTimeout
	}

	if fileCfg.MetricsListen != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			fmt.Printf("metrics listening on %s\n", fileCfg.MetricsListen)
			if err := http.ListenAndServe(fileCfg.MetricsListen, mux); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server error: %v\n", err)
			}
		}()
	}

	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "start: %v\n", err)
		cancel()
		os.Exit(1)
	}

	if *stats {
		go printStats(ctx, srv)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	cancel()
	if err := srv.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "stop: %v\n", err)
		os.Exit(1)
	}
}

func printStats(ctx context.Context, srv *server.Server) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := srv.GetStats()
			fmt.Printf("cache: %d entries, %d hits, %d misses, %d evictions | pool: %d/%d workers queued, %d submitted, %d completed\n",
				s.Resolver.Cache.Entries, s.Resolver.Cache.Hits, s.Resolver.Cache.Misses, s.Resolver.Cache.Evictions,
				s.Resolver.Pool.QueueDepth, s.Resolver.Pool.Workers, s.Resolver.Pool.Submitted, s.Resolver.Pool.Completed)
		}
	}
}
