// Command extmem runs a small attachment workload and reports the
// external-memory accounting, mainly useful for eyeballing the
// lifecycle behavior and the exported metrics.
package main

import (
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/extmem/pkg/extmem"
	"github.com/grafana/extmem/pkg/extmem/binding"
	"github.com/grafana/extmem/pkg/extmem/weakref"
)

func main() {
	var (
		cfg     extmem.Config
		count   = flag.Int("count", 64, "number of containers to attach")
		size    = flag.Int("size", 1<<20, "bytes per attachment")
		verbose = flag.Bool("verbose", false, "enable debug logging")
	)
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if *verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	if err := cfg.Validate(); err != nil {
		level.Error(logger).Log("msg", "invalid config", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	m := extmem.New(cfg, weakref.Runtime[extmem.Container]{}, nil, nil, logger, reg)

	containers := make([]*extmem.Container, 0, *count)
	for i := 0; i < *count; i++ {
		c := extmem.NewContainer()
		if _, err := binding.Attach(m, c, *size); err != nil {
			level.Error(logger).Log("msg", "attach failed", "err", err)
			os.Exit(1)
		}
		containers = append(containers, c)
	}
	report(logger, m, "attached")

	// Alias the first half of the first buffer and push some bytes
	// through a copy to exercise the data paths.
	if len(containers) >= 2 {
		view := extmem.NewContainer()
		if _, err := binding.Slice(m, containers[0], view, 0, *size/2); err != nil {
			level.Error(logger).Log("msg", "slice failed", "err", err)
			os.Exit(1)
		}
		if err := binding.Copy(m, view, 0, containers[1], 0, view.Len()); err != nil {
			level.Error(logger).Log("msg", "copy failed", "err", err)
			os.Exit(1)
		}
	}

	// Dispose half explicitly, drop the rest for the collector.
	for i, c := range containers {
		if i%2 == 0 {
			binding.Dispose(m, c)
		}
		containers[i] = nil
	}
	report(logger, m, "disposed half")

	for i := 0; i < 5 && m.Accountant().CurrentTotal() > 0; i++ {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	report(logger, m, "collected")
}

func report(logger log.Logger, m *extmem.Manager, stage string) {
	level.Info(logger).Log(
		"msg", "accounting",
		"stage", stage,
		"held", humanize.IBytes(uint64(m.Accountant().CurrentTotal())),
	)
}
