package access

import (
    "sync"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestBadgeLocksSerializeSameCode(t *testing.T) {
    locks := newBadgeLocks()

    const workers = 16
    counter := 0
    var wg sync.WaitGroup
    wg.Add(workers)
    for i := 0; i < workers; i++ {
        go func() {
            defer wg.Done()
            release := locks.acquire("MEM-0001-aaaa")
            defer release()
            // Unsynchronized increment; only the badge lock protects it.
            counter++
        }()
    }
    wg.Wait()

    assert.Equal(t, workers, counter)
}

func TestBadgeLocksIndependentCodes(t *testing.T) {
    locks := newBadgeLocks()

    releaseA := locks.acquire("MEM-0001-aaaa")
    done := make(chan struct{})
    go func() {
        releaseB := locks.acquire("MEM-0002-bbbb")
        releaseB()
        close(done)
    }()
    // A held lock on one badge must not block another badge.
    <-done
    releaseA()
}

func TestBadgeLocksMapDoesNotGrow(t *testing.T) {
    locks := newBadgeLocks()

    for i := 0; i < 100; i++ {
        release := locks.acquire("MEM-0001-aaaa")
        release()
    }
    locks.mu.Lock()
    defer locks.mu.Unlock()
    require.Empty(t, locks.locks)
}
