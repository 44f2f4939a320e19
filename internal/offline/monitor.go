package offline

import (
    "context"
    "log"
    "time"

    "clubaccess/internal/access"
)

// Prober reports whether the backend is currently reachable.  The
// server wires this to a database ping.
type Prober func() bool

// Monitor watches connectivity and triggers a queue drain on every
// offline-to-online transition, plus once at startup when the backend
// is already reachable.  This mirrors the behavior of a scanning
// station that flushes its local buffer as soon as the network comes
// back, without waiting for the next scan.
type Monitor struct {
    queue    *Queue
    engine   *access.Engine
    probe    Prober
    interval time.Duration
}

// NewMonitor constructs a Monitor.  A zero interval defaults to 15s.
func NewMonitor(queue *Queue, engine *access.Engine, probe Prober, interval time.Duration) *Monitor {
    if interval <= 0 {
        interval = 15 * time.Second
    }
    return &Monitor{queue: queue, engine: engine, probe: probe, interval: interval}
}

// Run blocks until the context is cancelled, probing connectivity on a
// fixed interval.  Intended to be started as a goroutine from main.
func (m *Monitor) Run(ctx context.Context) {
    online := m.probe()
    if online {
        m.drain(ctx)
    }
    ticker := time.NewTicker(m.interval)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            now := m.probe()
            if now && !online {
                log.Printf("offline-queue: connectivity restored, draining")
                m.drain(ctx)
            }
            online = now
        }
    }
}

func (m *Monitor) drain(ctx context.Context) {
    applied, err := m.queue.DrainAndReplay(ctx, func(ctx context.Context, item QueuedScan) (access.ScanOutcome, error) {
        return m.engine.Replay(ctx, item.Code, access.ScanContext{
            OperatorID: item.ScannedBy,
            Timestamp:  item.CreatedAt,
            DeviceInfo: item.DeviceInfo,
        })
    })
    if err != nil {
        log.Printf("offline-queue: drain stopped: %v", err)
    }
    if applied > 0 {
        log.Printf("offline-queue: synchronized %d buffered scan(s)", applied)
    }
}
