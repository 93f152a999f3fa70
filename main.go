package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/memmaker/voxeloctree/engine/octree"
	"github.com/memmaker/voxeloctree/engine/util"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"
)

func main() {
	configFile := flag.String("config", "", "octree config file (toml)")
	constructionFile := flag.String("construction", "", "Amulet .construction file whose solid blocks are indexed")
	meshFile := flag.String("mesh", "", "glTF/glb model added as a mesh collider at the origin")
	entityCount := flag.Int("entities", 1000, "number of random sphere colliders")
	rayCount := flag.Int("rays", 1000, "number of random rays to fire")
	churnCount := flag.Int("churn", 0, "number of random body moves and respawns before firing rays")
	churnStep := flag.Float64("churn-step", 1, "largest per-axis offset of a churn move")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	metricsAddr := flag.String("metrics-addr", "", "serve prometheus metrics on this address and keep running")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	util.UseTextFormatter(term.IsTerminal(int(os.Stderr.Fd())))
	if *verbose {
		util.SetLogLevel(util.LogLevelDebug)
	}

	cfg := octree.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = octree.LoadConfig(*configFile)
		if err != nil {
			util.LogIOError(err.Error())
			os.Exit(1)
		}
	}

	probe, err := NewProbe(cfg, *seed)
	if err != nil {
		util.LogSystemError(err.Error())
		os.Exit(1)
	}
	if *constructionFile != "" {
		if err = probe.LoadConstruction(*constructionFile); err != nil {
			util.LogIOError(err.Error())
			os.Exit(1)
		}
	}
	if *meshFile != "" {
		if err = probe.LoadMesh(*meshFile); err != nil {
			util.LogIOError(err.Error())
			os.Exit(1)
		}
	}
	if *constructionFile != "" {
		check, err := probe.VerifyBlocks(*rayCount)
		if err != nil {
			util.LogSystemError(err.Error())
			os.Exit(1)
		}
		util.LogSystemInfo(check.String())
	}
	probe.ScatterSpheres(*entityCount)
	probe.Churn(*churnCount, float32(*churnStep))
	stats := probe.FireRays(*rayCount)
	util.LogSystemInfo(stats.String())
	util.LogSystemInfo(probe.Shape().String())

	if *metricsAddr == "" {
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err = serveMetrics(ctx, *metricsAddr); err != nil {
		util.LogSystemError(err.Error())
		os.Exit(1)
	}
}

// serveMetrics blocks until ctx is done or the server fails.
func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	util.LogSystemInfo(fmt.Sprintf("serving metrics on %s/metrics", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
