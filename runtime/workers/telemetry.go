package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"fable-lab/contract"
	"fable-lab/observability"
)

// TelemetryWorker periodically logs process health and game counters.
type TelemetryWorker struct {
	log            *slog.Logger
	metricInterval time.Duration
	stats          *observability.GameStats
	store          contract.IRoomStore
	registry       contract.IRegistry
}

func NewTelemetryWorker(
	log *slog.Logger,
	metricInterval time.Duration,
	stats *observability.GameStats,
	store contract.IRoomStore,
	registry contract.IRegistry,
) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		metricInterval: metricInterval,
		stats:          stats,
		store:          store,
		registry:       registry,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *TelemetryWorker) report(p *process.Process) {
	rss, cpu, err := getSelfStats(p)
	if err != nil {
		w.log.Error("Failed to collect self stats", "err", err)
		return
	}

	rooms := w.store.List()
	generating := 0
	for _, room := range rooms {
		if room.Loading != nil {
			generating++
		}
	}

	snapshot := w.stats.Snapshot()
	w.log.Info("Telemetry",
		"rooms", len(rooms),
		"sessions", len(w.registry.AllSinks()),
		"generations_in_flight", generating,
		"turns_played", snapshot.TurnsPlayed,
		"generations_started", snapshot.GenerationsStarted,
		"generation_retries", snapshot.GenerationRetries,
		"generation_failures", snapshot.GenerationFailures,
		"commands_dropped", snapshot.CommandsDropped,
		"ram_bytes", rss,
		"cpu_percent", cpu,
	)
}

// getSelfStats retrieves memory and CPU usage for the given process.
func getSelfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
