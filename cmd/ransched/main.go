/*
Copyright 2025 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// ransched runs the MAC scheduler against a synthetic scenario and exposes its
// metrics over HTTP while the run is in progress.
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

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/utils/clock"

	"github.com/KourosZanbouri/LyapunovScheduler/pkg/common/observability/profiling"
	logutil "github.com/KourosZanbouri/LyapunovScheduler/pkg/common/util/logging"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/metrics"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/mac/types"
	"github.com/KourosZanbouri/LyapunovScheduler/pkg/sim"
	"github.com/KourosZanbouri/LyapunovScheduler/version"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to the scenario YAML file.")
		verbosity   = flag.Int("v", logutil.DEFAULT, "Log verbosity.")
		metricsAddr = flag.String("metrics-addr", "", "Address to serve Prometheus metrics on, e.g. :9090. Disabled when empty.")
		ticks       = flag.Int("ticks", 0, "Override the scenario tick count.")
		seed        = flag.Int64("seed", 0, "Override the scenario seed.")
		enablePprof = flag.Bool("enable-pprof", false, "Serve pprof profiles alongside the metrics endpoint.")
	)
	flag.Parse()

	logger := logutil.NewLogger(*verbosity)
	logger.Info("Build info", "commitSHA", version.CommitSHA, "buildRef", version.BuildRef)

	if *configPath == "" {
		logutil.Fatal(logger, fmt.Errorf("missing required flag"), "The --config flag must point to a scenario file")
	}
	cfg, err := sim.LoadConfig(*configPath)
	if err != nil {
		logutil.Fatal(logger, err, "Failed to load scenario", "path", *configPath)
	}
	if *ticks > 0 {
		cfg.Ticks = *ticks
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	metrics.Register(prometheus.DefaultRegisterer)
	if *metricsAddr != "" {
		go serveMetrics(logger, *metricsAddr, *enablePprof)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := sim.New(cfg, logger, clock.RealClock{})
	if err != nil {
		logutil.Fatal(logger, err, "Failed to build simulation")
	}

	summary, err := s.Run(ctx)
	if err != nil {
		logutil.Fatal(logger, err, "Run aborted", "completedTicks", summary.Ticks)
	}

	logger.Info("Run complete",
		"runID", summary.RunID,
		"ticks", summary.Ticks,
		"grantedBytesDL", summary.GrantedBytes[types.Downlink],
		"grantedBytesUL", summary.GrantedBytes[types.Uplink],
		"activeFlows", summary.ActiveFlows,
		"elapsed", summary.Elapsed.String())
}

func serveMetrics(logger logr.Logger, addr string, enablePprof bool) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if enablePprof {
		profiling.SetupPprofHandlers(mux)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error(err, "Metrics server failed")
	}
}
