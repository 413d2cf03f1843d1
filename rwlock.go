package cache

import (
	"github.com/puzpuzpuz/xsync"
)

// upgradableLock is a reader/writer lock with a single upgradable reader.
//
// Shared readers use striped reader slots of xsync.RBMutex. Upgradable reader
// coexists with shared readers and can be promoted to exclusive without letting
// another writer in between, so a checked absence stays valid after upgrade.
type upgradableLock struct {
	upgrade chan struct{}
	rw      *xsync.RBMutex
}

func newUpgradableLock() *upgradableLock {
	return &upgradableLock{
		upgrade: make(chan struct{}, 1),
		rw:      new(xsync.RBMutex),
	}
}

// RLock acquires shared lock.
func (l *upgradableLock) RLock() *xsync.RToken {
	return l.rw.RLock()
}

// RUnlock releases shared lock.
func (l *upgradableLock) RUnlock(t *xsync.RToken) {
	l.rw.RUnlock(t)
}

// Lock acquires exclusive lock.
func (l *upgradableLock) Lock() {
	l.upgrade <- struct{}{}
	l.rw.Lock()
}

// TryLock acquires exclusive lock if no writer or upgradable reader holds it,
// shared readers are still waited for.
func (l *upgradableLock) TryLock() bool {
	select {
	case l.upgrade <- struct{}{}:
		l.rw.Lock()

		return true
	default:
		return false
	}
}

// Unlock releases exclusive lock.
func (l *upgradableLock) Unlock() {
	l.rw.Unlock()
	<-l.upgrade
}

// ULock acquires upgradable lock.
func (l *upgradableLock) ULock() *xsync.RToken {
	l.upgrade <- struct{}{}

	return l.rw.RLock()
}

// UUnlock releases upgradable lock without upgrade.
func (l *upgradableLock) UUnlock(t *xsync.RToken) {
	l.rw.RUnlock(t)
	<-l.upgrade
}

// Upgrade promotes upgradable lock to exclusive, release with Unlock.
func (l *upgradableLock) Upgrade(t *xsync.RToken) {
	// Other writers are kept out by the upgrade slot, shared readers drain in rw.Lock.
	l.rw.RUnlock(t)
	l.rw.Lock()
}
