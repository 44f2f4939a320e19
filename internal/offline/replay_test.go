package offline

import (
    "context"
    "database/sql/driver"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/require"

    "clubaccess/internal/access"
    "clubaccess/internal/model"
    "clubaccess/internal/repository"
)

// Minimal in-memory accessors so a real Engine can drain a real Queue.

type replayDirectory struct{}

func (replayDirectory) FindByCode(_ context.Context, code string) (model.Member, error) {
    if code != "MEM-0001-aaaa" {
        return model.Member{}, repository.ErrMemberNotFound
    }
    return model.Member{ID: 1, MemberNumber: "0001", FullName: "Ana Souza", MembershipStatus: model.StatusActive}, nil
}

type replayVehicles struct{}

func (replayVehicles) MostRecent(_ context.Context, memberID uint64) (model.Vehicle, error) {
    return model.Vehicle{ID: 11, MemberID: memberID, RegistrationNumber: "JS-100", Type: model.VehicleJetSki}, nil
}
func (replayVehicles) CountByMember(context.Context, uint64) (int, error) { return 1, nil }

// replayLedger toggles one member in and out; while offline is set every
// call fails with a connection error, as a dead MySQL link would.
type replayLedger struct {
    offline bool
    nextID  uint64
    open    *model.Visit
    history []string
}

func (l *replayLedger) CurrentVisit(context.Context, uint64) (*model.Visit, error) {
    if l.offline {
        return nil, driver.ErrBadConn
    }
    return l.open, nil
}

func (l *replayLedger) OpenVisit(_ context.Context, memberID, vehicleID, scannedBy uint64, entryTime time.Time, _ string) (model.Visit, error) {
    if l.offline {
        return model.Visit{}, driver.ErrBadConn
    }
    if l.open != nil {
        return model.Visit{}, repository.ErrVisitConflict
    }
    l.nextID++
    v := model.Visit{ID: l.nextID, MemberID: memberID, VehicleID: vehicleID, Status: model.VisitInside, EntryTime: entryTime}
    l.open = &v
    l.history = append(l.history, "entry")
    return v, nil
}

func (l *replayLedger) CloseVisit(_ context.Context, visitID uint64, exitTime time.Time, _ string) (model.Visit, error) {
    if l.offline {
        return model.Visit{}, driver.ErrBadConn
    }
    if l.open == nil || l.open.ID != visitID {
        return model.Visit{}, repository.ErrVisitConflict
    }
    v := *l.open
    v.Status = model.VisitOutside
    v.ExitTime = &exitTime
    l.open = nil
    l.history = append(l.history, "exit")
    return v, nil
}

type replayEmitter struct{}

func (replayEmitter) RecordEvent(context.Context, *model.CardEvent) error { return nil }
func (replayEmitter) Notify(context.Context, *model.Notification) error   { return nil }

// TestOfflineScansReplayAsIfOnline buffers two scans of the same badge
// while the ledger is unreachable, then drains.  The replay must apply
// them in scan order so the ledger ends exactly as it would have online:
// an entry followed by an exit.
func TestOfflineScansReplayAsIfOnline(t *testing.T) {
    mini := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mini.Addr()})
    defer rdb.Close()

    queue, err := NewQueue(rdb, "gate-1")
    require.NoError(t, err)

    ledger := &replayLedger{offline: true}
    engine := access.New(replayDirectory{}, replayVehicles{}, ledger, replayEmitter{}, queue, access.PolicyLatest)
    ctx := context.Background()

    scanAt := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
    for i := 0; i < 2; i++ {
        out, err := engine.ProcessScan(ctx, "MEM-0001-aaaa", access.ScanContext{
            OperatorID: 7,
            Timestamp:  scanAt.Add(time.Duration(i) * time.Hour),
        })
        require.NoError(t, err)
        require.Equal(t, access.KindDeferred, out.Kind)
    }
    n, err := queue.Len(ctx)
    require.NoError(t, err)
    require.Equal(t, int64(2), n)

    // Connectivity returns; drain through the engine's replay path.
    ledger.offline = false
    applied, err := queue.DrainAndReplay(ctx, func(ctx context.Context, item QueuedScan) (access.ScanOutcome, error) {
        return engine.Replay(ctx, item.Code, access.ScanContext{
            OperatorID: item.ScannedBy,
            Timestamp:  item.CreatedAt,
            DeviceInfo: item.DeviceInfo,
        })
    })
    require.NoError(t, err)
    require.Equal(t, 2, applied)

    n, err = queue.Len(ctx)
    require.NoError(t, err)
    require.Zero(t, n)

    require.Equal(t, []string{"entry", "exit"}, ledger.history)
    require.Nil(t, ledger.open)
}
