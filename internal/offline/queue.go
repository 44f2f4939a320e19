// Package offline implements the durable scan buffer of a gate station.
// While the backend is unreachable the station keeps accepting badge
// scans; each one is appended to a Redis list and replayed in original
// order once connectivity returns.  The queue is local to one station
// (the list key carries the station ID) and survives restarts.
package offline

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "time"

    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"

    "clubaccess/internal/access"
)

// QueuedScan is one buffered scan event.  CreatedAt is the moment the
// badge was read, not the moment of replay; the replayed scan carries
// the original timestamp so the ledger reflects when the member was
// actually at the gate.
type QueuedScan struct {
    ID         string    `json:"id"`
    Code       string    `json:"code"`
    ScannedBy  uint64    `json:"scanned_by"`
    CreatedAt  time.Time `json:"created_at"`
    DeviceInfo string    `json:"device_info"`
}

// ReplayFunc processes one queued scan, normally Engine.Replay.
type ReplayFunc func(ctx context.Context, item QueuedScan) (access.ScanOutcome, error)

// Queue is the Redis-backed scan buffer.  Items are appended with
// RPUSH and drained from the head; an item is removed only after its
// replay reached a terminal outcome, so an interrupted drain resumes
// exactly where it stopped instead of reprocessing applied scans.
type Queue struct {
    rdb     *redis.Client
    station string
}

// NewQueue returns a Queue for the given station.  The Redis client
// must be non-nil: unlike the rate limiter, the offline queue cannot
// degrade gracefully, because dropping scans is the one failure mode
// the gate must never have.
func NewQueue(rdb *redis.Client, stationID string) (*Queue, error) {
    if rdb == nil {
        return nil, errors.New("offline queue requires a redis client")
    }
    if stationID == "" {
        return nil, errors.New("offline queue requires a station id")
    }
    return &Queue{rdb: rdb, station: stationID}, nil
}

func (q *Queue) key() string { return "offline:scans:" + q.station }

// Station returns the station ID this queue belongs to.
func (q *Queue) Station() string { return q.station }

// Enqueue appends a scan to the tail of the queue.  Any persistence
// failure is returned to the caller; a scan that cannot be buffered
// must be surfaced, never dropped.
func (q *Queue) Enqueue(ctx context.Context, code string, scannedBy uint64, createdAt time.Time, deviceInfo string) error {
    item := QueuedScan{
        ID:         uuid.NewString(),
        Code:       code,
        ScannedBy:  scannedBy,
        CreatedAt:  createdAt.UTC(),
        DeviceInfo: deviceInfo,
    }
    body, err := json.Marshal(item)
    if err != nil {
        return fmt.Errorf("marshal queued scan: %w", err)
    }
    if err := q.rdb.RPush(ctx, q.key(), body).Err(); err != nil {
        return fmt.Errorf("persist queued scan: %w", err)
    }
    return nil
}

// Len returns the number of buffered scans.
func (q *Queue) Len(ctx context.Context) (int64, error) {
    return q.rdb.LLen(ctx, q.key()).Result()
}

// DrainAndReplay replays buffered scans in enqueue order, one at a
// time, removing each item only after its outcome is terminal.  It
// returns the number of scans applied.  The drain stops early when a
// replay reports the backend is still unreachable (item stays queued),
// when a replay fails unexpectedly (item stays queued for the next
// attempt), or when an item cannot be decoded (item is discarded with
// a log line, as it can never succeed).
func (q *Queue) DrainAndReplay(ctx context.Context, replay ReplayFunc) (int, error) {
    applied := 0
    for {
        body, err := q.rdb.LIndex(ctx, q.key(), 0).Result()
        if err == redis.Nil {
            return applied, nil
        }
        if err != nil {
            return applied, fmt.Errorf("read queue head: %w", err)
        }

        var item QueuedScan
        if err := json.Unmarshal([]byte(body), &item); err != nil {
            log.Printf("offline-queue: discarding undecodable item: %v", err)
            if err := q.rdb.LPop(ctx, q.key()).Err(); err != nil {
                return applied, fmt.Errorf("drop bad item: %w", err)
            }
            continue
        }

        outcome, err := replay(ctx, item)
        if err != nil {
            return applied, fmt.Errorf("replay scan %s: %w", item.ID, err)
        }
        if !outcome.Terminal() {
            // Still offline. Leave the remainder queued for the next pass.
            return applied, nil
        }

        if err := q.rdb.LPop(ctx, q.key()).Err(); err != nil {
            // The scan was applied but could not be acknowledged; the
            // next drain will replay it and toggle the member again.
            // Surface loudly rather than continue.
            return applied, fmt.Errorf("acknowledge scan %s: %w", item.ID, err)
        }
        applied++
    }
}
