package access

import (
    "context"
    "database/sql/driver"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/suite"

    "clubaccess/internal/model"
    "clubaccess/internal/repository"
)

// ----- in-memory fakes for the engine contracts -----

type fakeDirectory struct {
    members map[string]model.Member
    err     error
}

func (f *fakeDirectory) FindByCode(_ context.Context, code string) (model.Member, error) {
    if f.err != nil {
        return model.Member{}, f.err
    }
    m, ok := f.members[code]
    if !ok {
        return model.Member{}, repository.ErrMemberNotFound
    }
    return m, nil
}

type fakeVehicles struct {
    // newest first, mirroring the ORDER BY created_at DESC query
    byMember map[uint64][]model.Vehicle
    err      error
}

func (f *fakeVehicles) MostRecent(_ context.Context, memberID uint64) (model.Vehicle, error) {
    if f.err != nil {
        return model.Vehicle{}, f.err
    }
    vs := f.byMember[memberID]
    if len(vs) == 0 {
        return model.Vehicle{}, repository.ErrNoVehicle
    }
    return vs[0], nil
}

func (f *fakeVehicles) CountByMember(_ context.Context, memberID uint64) (int, error) {
    if f.err != nil {
        return 0, f.err
    }
    return len(f.byMember[memberID]), nil
}

type fakeLedger struct {
    mu         sync.Mutex
    nextID     uint64
    open       map[uint64]*model.Visit // keyed by member ID
    closed     []model.Visit
    currentErr error
    openErr    error
    closeErr   error
}

func newFakeLedger() *fakeLedger {
    return &fakeLedger{nextID: 1, open: make(map[uint64]*model.Visit)}
}

func (f *fakeLedger) CurrentVisit(_ context.Context, memberID uint64) (*model.Visit, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.currentErr != nil {
        return nil, f.currentErr
    }
    if v, ok := f.open[memberID]; ok {
        cp := *v
        return &cp, nil
    }
    return nil, nil
}

func (f *fakeLedger) OpenVisit(_ context.Context, memberID, vehicleID, scannedBy uint64, entryTime time.Time, notes string) (model.Visit, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.openErr != nil {
        return model.Visit{}, f.openErr
    }
    if _, ok := f.open[memberID]; ok {
        return model.Visit{}, repository.ErrVisitConflict
    }
    v := model.Visit{
        ID:        f.nextID,
        MemberID:  memberID,
        VehicleID: vehicleID,
        ScannedBy: &scannedBy,
        Status:    model.VisitInside,
        EntryTime: entryTime,
        Notes:     &notes,
    }
    f.nextID++
    f.open[memberID] = &v
    return v, nil
}

func (f *fakeLedger) CloseVisit(_ context.Context, visitID uint64, exitTime time.Time, _ string) (model.Visit, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.closeErr != nil {
        return model.Visit{}, f.closeErr
    }
    for memberID, v := range f.open {
        if v.ID == visitID {
            v.Status = model.VisitOutside
            v.ExitTime = &exitTime
            closed := *v
            delete(f.open, memberID)
            f.closed = append(f.closed, closed)
            return closed, nil
        }
    }
    return model.Visit{}, repository.ErrVisitConflict
}

type fakeEmitter struct {
    mu            sync.Mutex
    events        []model.CardEvent
    notifications []model.Notification
}

func (f *fakeEmitter) RecordEvent(_ context.Context, e *model.CardEvent) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.events = append(f.events, *e)
    return nil
}

func (f *fakeEmitter) Notify(_ context.Context, n *model.Notification) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.notifications = append(f.notifications, *n)
    return nil
}

type bufferedScan struct {
    code      string
    scannedBy uint64
    createdAt time.Time
}

type fakeBuffer struct {
    mu    sync.Mutex
    items []bufferedScan
    err   error
}

func (f *fakeBuffer) Enqueue(_ context.Context, code string, scannedBy uint64, createdAt time.Time, _ string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.err != nil {
        return f.err
    }
    f.items = append(f.items, bufferedScan{code: code, scannedBy: scannedBy, createdAt: createdAt})
    return nil
}

// ----- suite -----

type EngineSuite struct {
    suite.Suite
    directory *fakeDirectory
    vehicles  *fakeVehicles
    ledger    *fakeLedger
    emitter   *fakeEmitter
    buffer    *fakeBuffer
    engine    *Engine
    ctx       context.Context
    sc        ScanContext
}

func TestEngineSuite(t *testing.T) {
    suite.Run(t, new(EngineSuite))
}

const (
    badgeActive  = "MEM-0001-a1b2c3d4e5f6"
    badgeOverdue = "MEM-0002-ffeeddccbbaa"
    badgeBlocked = "MEM-0003-001122334455"
    badgeNoBoat  = "MEM-0004-deadbeef0000"
)

func (s *EngineSuite) SetupTest() {
    s.directory = &fakeDirectory{members: map[string]model.Member{
        badgeActive:  {ID: 1, MemberNumber: "0001", FullName: "Ana Souza", QRCode: badgeActive, MembershipStatus: model.StatusActive},
        badgeOverdue: {ID: 2, MemberNumber: "0002", FullName: "Bruno Lima", QRCode: badgeOverdue, MembershipStatus: model.StatusOverdue},
        badgeBlocked: {ID: 3, MemberNumber: "0003", FullName: "Carla Dias", QRCode: badgeBlocked, MembershipStatus: model.StatusInactive},
        badgeNoBoat:  {ID: 4, MemberNumber: "0004", FullName: "Davi Rocha", QRCode: badgeNoBoat, MembershipStatus: model.StatusActive},
    }}
    s.vehicles = &fakeVehicles{byMember: map[uint64][]model.Vehicle{
        1: {{ID: 11, MemberID: 1, RegistrationNumber: "JS-100", Type: model.VehicleJetSki}},
        2: {{ID: 21, MemberID: 2, RegistrationNumber: "BT-200", Type: model.VehicleBoat}},
        3: {{ID: 31, MemberID: 3, RegistrationNumber: "JS-300", Type: model.VehicleJetSki}},
    }}
    s.ledger = newFakeLedger()
    s.emitter = &fakeEmitter{}
    s.buffer = &fakeBuffer{}
    s.engine = New(s.directory, s.vehicles, s.ledger, s.emitter, s.buffer, PolicyLatest)
    s.ctx = context.Background()
    s.sc = ScanContext{OperatorID: 7, Timestamp: time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC), DeviceInfo: "tablet-1"}
}

func (s *EngineSuite) TestEntryThenExitToggles() {
    out, err := s.engine.ProcessScan(s.ctx, badgeActive, s.sc)
    s.Require().NoError(err)
    s.Equal(KindRecorded, out.Kind)
    s.Equal(ActionEntry, out.Action)
    s.Equal(uint64(1), out.MemberID)
    s.Equal("Ana Souza", out.MemberName)
    s.NotZero(out.VisitID)

    open, err := s.ledger.CurrentVisit(s.ctx, 1)
    s.Require().NoError(err)
    s.Require().NotNil(open)
    s.Equal(uint64(11), open.VehicleID)

    later := s.sc
    later.Timestamp = s.sc.Timestamp.Add(2 * time.Hour)
    out, err = s.engine.ProcessScan(s.ctx, badgeActive, later)
    s.Require().NoError(err)
    s.Equal(KindRecorded, out.Kind)
    s.Equal(ActionExit, out.Action)

    open, err = s.ledger.CurrentVisit(s.ctx, 1)
    s.Require().NoError(err)
    s.Nil(open)
    s.Require().Len(s.ledger.closed, 1)
    s.Equal(later.Timestamp, *s.ledger.closed[0].ExitTime)

    s.Require().Len(s.emitter.events, 2)
    s.Equal(model.ActionEntryScan, s.emitter.events[0].ActionType)
    s.Equal(model.ActionExitScan, s.emitter.events[1].ActionType)
    s.Require().Len(s.emitter.notifications, 2)
    s.Equal(model.NotifEntry, s.emitter.notifications[0].Type)
    s.Equal(model.NotifExit, s.emitter.notifications[1].Type)
}

func (s *EngineSuite) TestUnknownCodeRejected() {
    out, err := s.engine.ProcessScan(s.ctx, "MEM-9999-000000000000", s.sc)
    s.Require().NoError(err)
    s.Equal(KindRejected, out.Kind)
    s.Equal(ReasonInvalidCode, out.Reason)

    s.Require().Len(s.emitter.events, 1)
    s.Equal(model.ActionInvalidScan, s.emitter.events[0].ActionType)
    s.Nil(s.emitter.events[0].MemberID)
    s.Require().Len(s.emitter.notifications, 1)
    s.Equal(model.NotifInvalidQR, s.emitter.notifications[0].Type)
    s.Empty(s.ledger.open)
}

func (s *EngineSuite) TestBlockedMemberRejectedIdempotently() {
    for i := 0; i < 2; i++ {
        out, err := s.engine.ProcessScan(s.ctx, badgeBlocked, s.sc)
        s.Require().NoError(err)
        s.Equal(KindRejected, out.Kind)
        s.Equal(ReasonBlockedMember, out.Reason)
        s.Equal(uint64(3), out.MemberID)
        s.Equal(model.StatusInactive, out.MembershipStatus)
    }
    // Every attempt lands in the trail, none in the ledger.
    s.Require().Len(s.emitter.events, 2)
    for _, ev := range s.emitter.events {
        s.Equal(model.ActionBlockedScan, ev.ActionType)
    }
    s.Empty(s.ledger.open)
    s.Empty(s.ledger.closed)
}

func (s *EngineSuite) TestOverdueMemberMayEnter() {
    out, err := s.engine.ProcessScan(s.ctx, badgeOverdue, s.sc)
    s.Require().NoError(err)
    s.Equal(KindRecorded, out.Kind)
    s.Equal(ActionEntry, out.Action)
    s.Equal(model.StatusOverdue, out.MembershipStatus)
}

func (s *EngineSuite) TestNoVehicleRejected() {
    out, err := s.engine.ProcessScan(s.ctx, badgeNoBoat, s.sc)
    s.Require().NoError(err)
    s.Equal(KindRejected, out.Kind)
    s.Equal(ReasonNoVehicle, out.Reason)
    s.Equal(uint64(4), out.MemberID)
    s.Empty(s.ledger.open)
}

func (s *EngineSuite) TestLatestVehicleWinsUnderDefaultPolicy() {
    s.vehicles.byMember[1] = []model.Vehicle{
        {ID: 12, MemberID: 1, RegistrationNumber: "BT-101", Type: model.VehicleBoat},
        {ID: 11, MemberID: 1, RegistrationNumber: "JS-100", Type: model.VehicleJetSki},
    }
    out, err := s.engine.ProcessScan(s.ctx, badgeActive, s.sc)
    s.Require().NoError(err)
    s.Equal(KindRecorded, out.Kind)

    open, err := s.ledger.CurrentVisit(s.ctx, 1)
    s.Require().NoError(err)
    s.Require().NotNil(open)
    s.Equal(uint64(12), open.VehicleID)
}

func (s *EngineSuite) TestStrictPolicyRejectsMultiVehicleMembers() {
    s.engine = New(s.directory, s.vehicles, s.ledger, s.emitter, s.buffer, PolicyStrict)
    s.vehicles.byMember[1] = []model.Vehicle{
        {ID: 12, MemberID: 1, RegistrationNumber: "BT-101", Type: model.VehicleBoat},
        {ID: 11, MemberID: 1, RegistrationNumber: "JS-100", Type: model.VehicleJetSki},
    }

    out, err := s.engine.ProcessScan(s.ctx, badgeActive, s.sc)
    s.Require().NoError(err)
    s.Equal(KindRejected, out.Kind)
    s.Equal(ReasonAmbiguousVehicle, out.Reason)
    s.Empty(s.ledger.open)

    // A single-vehicle member is unaffected by the strict policy.
    out, err = s.engine.ProcessScan(s.ctx, badgeOverdue, s.sc)
    s.Require().NoError(err)
    s.Equal(KindRecorded, out.Kind)
}

func (s *EngineSuite) TestConnectivityLossDefersAndBuffers() {
    s.ledger.currentErr = driver.ErrBadConn

    out, err := s.engine.ProcessScan(s.ctx, badgeActive, s.sc)
    s.Require().NoError(err)
    s.Equal(KindDeferred, out.Kind)
    s.False(out.Terminal())

    s.Require().Len(s.buffer.items, 1)
    s.Equal(badgeActive, s.buffer.items[0].code)
    s.Equal(uint64(7), s.buffer.items[0].scannedBy)
    s.Equal(s.sc.Timestamp, s.buffer.items[0].createdAt)

    // No trail rows and no alerts for a deferred scan.
    s.Empty(s.emitter.events)
    s.Empty(s.emitter.notifications)
}

func (s *EngineSuite) TestReplayDoesNotReenqueue() {
    s.ledger.currentErr = driver.ErrBadConn

    out, err := s.engine.Replay(s.ctx, badgeActive, s.sc)
    s.Require().NoError(err)
    s.Equal(KindDeferred, out.Kind)
    s.Empty(s.buffer.items)
}

func (s *EngineSuite) TestBufferWriteFailureSurfaces() {
    s.ledger.currentErr = driver.ErrBadConn
    s.buffer.err = errors.New("redis gone")

    _, err := s.engine.ProcessScan(s.ctx, badgeActive, s.sc)
    s.Require().Error(err)
    s.Contains(err.Error(), "offline queue write failed")
}

func (s *EngineSuite) TestUnexpectedErrorSurfacesWithoutBuffering() {
    s.ledger.currentErr = errors.New("syntax error in query")

    _, err := s.engine.ProcessScan(s.ctx, badgeActive, s.sc)
    s.Require().Error(err)
    s.Empty(s.buffer.items)
}

func (s *EngineSuite) TestLostRaceReportsConflict() {
    s.ledger.openErr = repository.ErrVisitConflict

    _, err := s.engine.ProcessScan(s.ctx, badgeActive, s.sc)
    s.Require().ErrorIs(err, ErrScanConflict)
}

func (s *EngineSuite) TestScanRequiresOperator() {
    _, err := s.engine.ProcessScan(s.ctx, badgeActive, ScanContext{Timestamp: s.sc.Timestamp})
    s.Require().ErrorIs(err, ErrNoOperator)
}

func (s *EngineSuite) TestConcurrentScansOfSameBadgeStayConsistent() {
    const scans = 8
    var wg sync.WaitGroup
    wg.Add(scans)
    for i := 0; i < scans; i++ {
        go func() {
            defer wg.Done()
            _, err := s.engine.ProcessScan(s.ctx, badgeActive, s.sc)
            s.NoError(err)
        }()
    }
    wg.Wait()

    // An even number of serialized scans always ends outside, with
    // every visit properly paired.
    open, err := s.ledger.CurrentVisit(s.ctx, 1)
    s.Require().NoError(err)
    s.Nil(open)
    s.Len(s.ledger.closed, scans/2)
}
