package database

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/kuretru/quatt-gateway/entity"
)

// MemoryCell 一个实体在内存中的存储单元
type MemoryCell struct {
	LastSeen time.Time
	Type     entity.DeviceType
	Source   string
	Record   *entity.StateRecord
}

// Database is the in-memory entity state store. Records are replaced wholesale
// on every write and copied on every read.
type Database struct {
	lock        sync.RWMutex
	memDb       map[string]*MemoryCell
	subscribers map[chan struct{}]struct{}
	now         func() time.Time
}

func New() *Database {
	return &Database{
		memDb:       make(map[string]*MemoryCell),
		subscribers: make(map[chan struct{}]struct{}),
		now:         time.Now,
	}
}

// Init creates the database and starts the offline cleaner, which drops
// records that have not been refreshed within maxAge.
func Init(ctx context.Context, maxAge time.Duration) *Database {
	db := New()
	if maxAge <= 0 {
		return db
	}

	ticker := time.NewTicker(maxAge / 2)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				db.cleanOfflineRecords(maxAge)
			}
		}
	}()
	return db
}

func (db *Database) cleanOfflineRecords(maxAge time.Duration) {
	now := db.now()
	removed := 0
	db.lock.Lock()
	for key, value := range db.memDb {
		if value.LastSeen.Add(maxAge).Before(now) {
			delete(db.memDb, key)
			removed++
		}
	}
	db.lock.Unlock()

	if removed > 0 {
		slog.Info("Database: removed offline records", "count", removed)
		db.notify()
	}
}

// SetState replaces the record stored under record.EntityID.
func (db *Database) SetState(_ context.Context, deviceType entity.DeviceType, source string, record *entity.StateRecord) {
	if record == nil || record.EntityID == "" {
		slog.Warn("Database: set state failed, empty entity id")
		return
	}

	now := db.now()
	stored := record.Clone()
	if stored.LastUpdated.IsZero() {
		stored.LastUpdated = now
	}

	db.lock.Lock()
	if value, ok := db.memDb[record.EntityID]; ok && value.Source != source {
		slog.Warn("Database: set state failed, source changed",
			"entityId", record.EntityID, "old", value.Source, "new", source)
		db.lock.Unlock()
		return
	}
	db.memDb[record.EntityID] = &MemoryCell{
		LastSeen: now,
		Type:     deviceType,
		Source:   source,
		Record:   stored,
	}
	db.lock.Unlock()
}

// Commit signals subscribers that a batch of writes is complete.
func (db *Database) Commit(_ context.Context) {
	db.notify()
}

// State returns a copy of the record for entityID.
func (db *Database) State(entityID string) (*entity.StateRecord, bool) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	if cell, ok := db.memDb[entityID]; ok {
		return cell.Record.Clone(), true
	}
	return nil, false
}

func (db *Database) GetAllDeviceTypes(_ context.Context) []entity.DeviceType {
	db.lock.RLock()
	defer db.lock.RUnlock()
	seen := make(map[entity.DeviceType]struct{})
	for _, cell := range db.memDb {
		seen[cell.Type] = struct{}{}
	}
	result := slices.Collect(maps.Keys(seen))
	slices.Sort(result)
	return result
}

// GetDeviceCells returns copies of every cell belonging to deviceType, ordered by entity id.
func (db *Database) GetDeviceCells(_ context.Context, deviceType entity.DeviceType) []*MemoryCell {
	db.lock.RLock()
	defer db.lock.RUnlock()
	result := make([]*MemoryCell, 0)
	for _, cell := range db.memDb {
		if cell.Type == deviceType {
			copied := *cell
			copied.Record = cell.Record.Clone()
			result = append(result, &copied)
		}
	}
	slices.SortFunc(result, func(a, b *MemoryCell) int {
		switch {
		case a.Record.EntityID < b.Record.EntityID:
			return -1
		case a.Record.EntityID > b.Record.EntityID:
			return 1
		}
		return 0
	})
	return result
}

// GetAllRecords returns copies of every record, ordered by entity id.
func (db *Database) GetAllRecords(_ context.Context) []*entity.StateRecord {
	db.lock.RLock()
	result := make([]*entity.StateRecord, 0, len(db.memDb))
	for _, cell := range db.memDb {
		result = append(result, cell.Record.Clone())
	}
	db.lock.RUnlock()
	slices.SortFunc(result, func(a, b *entity.StateRecord) int {
		switch {
		case a.EntityID < b.EntityID:
			return -1
		case a.EntityID > b.EntityID:
			return 1
		}
		return 0
	})
	return result
}

// Subscribe returns a channel that receives a signal after every Commit.
// Signals are coalesced: a slow reader sees at most one pending signal.
func (db *Database) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	db.lock.Lock()
	db.subscribers[ch] = struct{}{}
	db.lock.Unlock()

	return ch, func() {
		db.lock.Lock()
		delete(db.subscribers, ch)
		db.lock.Unlock()
	}
}

func (db *Database) notify() {
	db.lock.RLock()
	defer db.lock.RUnlock()
	for ch := range db.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
