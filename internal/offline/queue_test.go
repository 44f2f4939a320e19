package offline

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/suite"

    "clubaccess/internal/access"
)

type QueueSuite struct {
    suite.Suite
    mini  *miniredis.Miniredis
    rdb   *redis.Client
    queue *Queue
    ctx   context.Context
}

func TestQueueSuite(t *testing.T) {
    suite.Run(t, new(QueueSuite))
}

func (s *QueueSuite) SetupTest() {
    s.mini = miniredis.RunT(s.T())
    s.rdb = redis.NewClient(&redis.Options{Addr: s.mini.Addr()})

    q, err := NewQueue(s.rdb, "gate-1")
    s.Require().NoError(err)
    s.queue = q
    s.ctx = context.Background()
}

func (s *QueueSuite) TearDownTest() {
    if s.rdb != nil {
        _ = s.rdb.Close()
    }
}

func (s *QueueSuite) TestNewQueueValidation() {
    _, err := NewQueue(nil, "gate-1")
    s.Error(err)
    _, err = NewQueue(s.rdb, "")
    s.Error(err)
}

func (s *QueueSuite) TestEnqueuePersistsAndCounts() {
    at := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
    s.Require().NoError(s.queue.Enqueue(s.ctx, "MEM-0001-aaaa", 7, at, "tablet-1"))
    s.Require().NoError(s.queue.Enqueue(s.ctx, "MEM-0002-bbbb", 7, at.Add(time.Minute), "tablet-1"))

    n, err := s.queue.Len(s.ctx)
    s.Require().NoError(err)
    s.Equal(int64(2), n)
    s.Equal("gate-1", s.queue.Station())

    // A second station keeps its own buffer.
    other, err := NewQueue(s.rdb, "gate-2")
    s.Require().NoError(err)
    n, err = other.Len(s.ctx)
    s.Require().NoError(err)
    s.Zero(n)
}

func (s *QueueSuite) TestDrainReplaysInEnqueueOrder() {
    at := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
    s.Require().NoError(s.queue.Enqueue(s.ctx, "first", 7, at, ""))
    s.Require().NoError(s.queue.Enqueue(s.ctx, "second", 7, at.Add(time.Minute), ""))
    s.Require().NoError(s.queue.Enqueue(s.ctx, "third", 8, at.Add(2*time.Minute), ""))

    var seen []string
    applied, err := s.queue.DrainAndReplay(s.ctx, func(_ context.Context, item QueuedScan) (access.ScanOutcome, error) {
        seen = append(seen, item.Code)
        return access.ScanOutcome{Kind: access.KindRecorded, Timestamp: item.CreatedAt}, nil
    })
    s.Require().NoError(err)
    s.Equal(3, applied)
    s.Equal([]string{"first", "second", "third"}, seen)

    n, err := s.queue.Len(s.ctx)
    s.Require().NoError(err)
    s.Zero(n)
}

func (s *QueueSuite) TestDrainCarriesOriginalTimestamps() {
    at := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
    s.Require().NoError(s.queue.Enqueue(s.ctx, "MEM-0001-aaaa", 7, at, "tablet-1"))

    _, err := s.queue.DrainAndReplay(s.ctx, func(_ context.Context, item QueuedScan) (access.ScanOutcome, error) {
        s.Equal(at, item.CreatedAt)
        s.Equal(uint64(7), item.ScannedBy)
        s.Equal("tablet-1", item.DeviceInfo)
        s.NotEmpty(item.ID)
        return access.ScanOutcome{Kind: access.KindRecorded}, nil
    })
    s.Require().NoError(err)
}

func (s *QueueSuite) TestDrainStopsWhileStillOffline() {
    at := time.Now().UTC()
    s.Require().NoError(s.queue.Enqueue(s.ctx, "first", 7, at, ""))
    s.Require().NoError(s.queue.Enqueue(s.ctx, "second", 7, at, ""))

    calls := 0
    applied, err := s.queue.DrainAndReplay(s.ctx, func(_ context.Context, item QueuedScan) (access.ScanOutcome, error) {
        calls++
        if calls == 2 {
            // Backend dropped again mid-drain.
            return access.ScanOutcome{Kind: access.KindDeferred}, nil
        }
        return access.ScanOutcome{Kind: access.KindRecorded}, nil
    })
    s.Require().NoError(err)
    s.Equal(1, applied)

    // The deferred item stays at the head for the next pass.
    n, err := s.queue.Len(s.ctx)
    s.Require().NoError(err)
    s.Equal(int64(1), n)

    applied, err = s.queue.DrainAndReplay(s.ctx, func(_ context.Context, item QueuedScan) (access.ScanOutcome, error) {
        s.Equal("second", item.Code)
        return access.ScanOutcome{Kind: access.KindRecorded}, nil
    })
    s.Require().NoError(err)
    s.Equal(1, applied)
}

func (s *QueueSuite) TestDrainStopsOnReplayError() {
    at := time.Now().UTC()
    s.Require().NoError(s.queue.Enqueue(s.ctx, "first", 7, at, ""))

    _, err := s.queue.DrainAndReplay(s.ctx, func(_ context.Context, _ QueuedScan) (access.ScanOutcome, error) {
        return access.ScanOutcome{}, errors.New("boom")
    })
    s.Require().Error(err)

    // The failed item is retained.
    n, err := s.queue.Len(s.ctx)
    s.Require().NoError(err)
    s.Equal(int64(1), n)
}

func (s *QueueSuite) TestDrainDiscardsUndecodableItems() {
    s.Require().NoError(s.rdb.RPush(s.ctx, "offline:scans:gate-1", "not-json").Err())
    at := time.Now().UTC()
    s.Require().NoError(s.queue.Enqueue(s.ctx, "good", 7, at, ""))

    applied, err := s.queue.DrainAndReplay(s.ctx, func(_ context.Context, item QueuedScan) (access.ScanOutcome, error) {
        s.Equal("good", item.Code)
        return access.ScanOutcome{Kind: access.KindRecorded}, nil
    })
    s.Require().NoError(err)
    s.Equal(1, applied)

    n, err := s.queue.Len(s.ctx)
    s.Require().NoError(err)
    s.Zero(n)
}

func (s *QueueSuite) TestQueueSurvivesRestart() {
    at := time.Now().UTC()
    s.Require().NoError(s.queue.Enqueue(s.ctx, "MEM-0001-aaaa", 7, at, ""))

    // A new Queue instance over the same store sees the buffered scan,
    // as happens when the station process restarts.
    reopened, err := NewQueue(s.rdb, "gate-1")
    s.Require().NoError(err)
    n, err := reopened.Len(s.ctx)
    s.Require().NoError(err)
    s.Equal(int64(1), n)
}
