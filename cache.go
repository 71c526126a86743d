// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package sqlcond

import (
	"database/sql"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/canonical/sqlcond/dialect"
)

// dbIDCount is a global variable used to generate unique IDs.
var dbIDCount uint64

type dbID = uint64

// detectionState is the state of dialect detection for one DB.
type detectionState int

const (
	undetected detectionState = iota
	detecting
	detected
)

func (s detectionState) String() string {
	switch s {
	case detecting:
		return "detecting"
	case detected:
		return "detected"
	}
	return "undetected"
}

type detectionSlot struct {
	state     detectionState
	detection dialect.Detection
}

// dialectCache holds the detected dialect of every DB, indexed by the DB
// ID. Detection may run concurrently for one DB; each run stores the same
// result, so the last write wins.
//
// A finalizer on each DB removes its slot once the DB is garbage
// collected.
//
// The mutex must be locked when accessing slots.
type dialectCache struct {
	slots map[dbID]detectionSlot
	mutex sync.RWMutex
}

var once sync.Once
var singleDialectCache *dialectCache

// newDialectCache returns the single instance of the dialect cache.
func newDialectCache() *dialectCache {
	once.Do(func() {
		singleDialectCache = &dialectCache{
			slots: map[dbID]detectionSlot{},
		}
	})
	return singleDialectCache
}

// newDB returns a new DB with an undetected slot in the cache. A finalizer
// is set on the DB to remove the slot after the DB is garbage collected.
// The sql.DB is owned by the caller and is not closed.
func (dc *dialectCache) newDB(sqldb *sql.DB) *DB {
	cacheID := atomic.AddUint64(&dbIDCount, 1)
	dc.mutex.Lock()
	dc.slots[cacheID] = detectionSlot{}
	dc.mutex.Unlock()
	db := &DB{sqldb: sqldb, cacheID: cacheID}
	runtime.SetFinalizer(db, dc.getDBFinalizer(db))
	return db
}

// lookup returns the detection of a DB if it has completed.
func (dc *dialectCache) lookup(id dbID) (dialect.Detection, bool) {
	dc.mutex.RLock()
	defer dc.mutex.RUnlock()
	slot := dc.slots[id]
	return slot.detection, slot.state == detected
}

// state returns the detection state of a DB.
func (dc *dialectCache) state(id dbID) detectionState {
	dc.mutex.RLock()
	defer dc.mutex.RUnlock()
	return dc.slots[id].state
}

// startDetection moves an undetected DB to detecting.
func (dc *dialectCache) startDetection(id dbID) {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()
	if slot, ok := dc.slots[id]; ok && slot.state == undetected {
		slot.state = detecting
		dc.slots[id] = slot
	}
}

// abortDetection moves a DB that is still detecting back to undetected so
// that the next query tries again.
func (dc *dialectCache) abortDetection(id dbID) {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()
	if slot, ok := dc.slots[id]; ok && slot.state == detecting {
		slot.state = undetected
		dc.slots[id] = slot
	}
}

// store records a detection. Detection is terminal.
func (dc *dialectCache) store(id dbID, d dialect.Detection) {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()
	if _, ok := dc.slots[id]; ok {
		dc.slots[id] = detectionSlot{state: detected, detection: d}
	}
}

// getDBFinalizer returns a finalizer that removes a DB from the cache.
func (dc *dialectCache) getDBFinalizer(db *DB) func(*DB) {
	return func(db *DB) {
		dc.mutex.Lock()
		defer dc.mutex.Unlock()
		delete(dc.slots, db.cacheID)
	}
}
