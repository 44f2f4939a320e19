package access

import "sync"

// badgeLocks serializes scan processing per badge code.  Two rapid
// scans of the same badge must not interleave, or both could read "no
// open visit" and race to create duplicate entries.  One badge maps to
// one member, so locking by code is per-member serialization.  This
// replaces UI-level debouncing as the local exclusion mechanism; the
// cross-station guarantee still comes from the ledger's row locks.
type badgeLocks struct {
    mu    sync.Mutex
    locks map[string]*badgeLock
}

type badgeLock struct {
    mu   sync.Mutex
    refs int
}

func newBadgeLocks() *badgeLocks {
    return &badgeLocks{locks: make(map[string]*badgeLock)}
}

// acquire blocks until the lock for the code is held and returns the
// release function.  Entries are reference-counted and removed when the
// last holder releases, so the map does not grow with badge history.
func (b *badgeLocks) acquire(code string) func() {
    b.mu.Lock()
    l, ok := b.locks[code]
    if !ok {
        l = &badgeLock{}
        b.locks[code] = l
    }
    l.refs++
    b.mu.Unlock()

    l.mu.Lock()
    return func() {
        l.mu.Unlock()
        b.mu.Lock()
        l.refs--
        if l.refs == 0 {
            delete(b.locks, code)
        }
        b.mu.Unlock()
    }
}
