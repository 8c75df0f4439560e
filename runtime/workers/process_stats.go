package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"meet-lab/contract"
	"meet-lab/observability"
)

var _ contract.Worker = (*ProcessStatsWorker)(nil)

// ProcessStatsWorker logs the coordinator's own resource usage (RSS, CPU,
// OS status) together with the monitoring counters. Useful for spotting
// connection leaks: sessions that never unregister show up as a climbing
// RSS with flat admission counters.
type ProcessStatsWorker struct {
	log            *slog.Logger
	monitoring     *observability.Monitoring
	metricInterval time.Duration
}

func NewProcessStatsWorker(log *slog.Logger, monitoring *observability.Monitoring,
	metricInterval time.Duration) *ProcessStatsWorker {
	return &ProcessStatsWorker{
		log:            log,
		monitoring:     monitoring,
		metricInterval: metricInterval,
	}
}

func (w *ProcessStatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			stats := w.monitoring.GetLatest()
			w.log.Info("Coordinator stats",
				"rss_bytes", rss,
				"cpu_percent", cpu,
				"pid_status", status,
				"connections_opened", stats.ConnectionsOpened,
				"connections_closed", stats.ConnectionsClosed,
				"admissions", stats.Admissions,
				"waitings", stats.Waitings,
				"signals_relayed", stats.SignalsRelayed,
				"signals_dropped", stats.SignalsDropped,
			)
		}
	}
}

// selfStats retrieves technical metrics (Memory, CPU, and OS Status) for
// the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
