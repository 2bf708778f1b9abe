// Package clientstore persists the per-client key/value state a browser keeps in localStorage.
package clientstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"localfelo_backend/internal/config"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is last-write-wins key/value storage scoped by client id.
type Store interface {
	Get(ctx context.Context, clientID, key string) (string, bool, error)
	Set(ctx context.Context, clientID, key, value string) error
	Remove(ctx context.Context, clientID string, keys ...string) error
	Snapshot(ctx context.Context, clientID string) (map[string]string, error)
	Clear(ctx context.Context, clientID string) error
	DeleteStale(ctx context.Context, olderThan time.Time) (int64, error)
	// Subscribe registers fn for every change made through this store. The returned func unregisters it.
	Subscribe(fn func(Event)) func()
}

type cached struct {
	value   string
	present bool
}

// GORMStore backs Store with the client_storage table and an LRU read cache.
type GORMStore struct {
	db     *gorm.DB
	cache  *lru.Cache[string, cached]
	logger *zap.Logger
	now    func() time.Time

	subMu  sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

// NewGORMStore creates a store. cacheSize <= 0 disables the read cache.
func NewGORMStore(db *gorm.DB, cacheSize int, logger *zap.Logger) (*GORMStore, error) {
	s := &GORMStore{
		db:     db,
		logger: logger.Named("clientstore"),
		now:    time.Now,
		subs:   make(map[int]func(Event)),
	}
	if cacheSize > 0 {
		c, err := lru.New[string, cached](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("client store cache: %w", err)
		}
		s.cache = c
	}
	return s, nil
}

// NewStoreFromConfig is the injector-facing constructor. Each client holds a handful of keys,
// so the read cache is sized at a few entries per retained client state.
func NewStoreFromConfig(db *gorm.DB, cfg *config.Config, logger *zap.Logger) (Store, error) {
	return NewGORMStore(db, cfg.ClientStateCacheSize*4, logger)
}

func cacheKey(clientID, key string) string {
	return clientID + "\x00" + key
}

func (s *GORMStore) Get(ctx context.Context, clientID, key string) (string, bool, error) {
	if s.cache != nil {
		if c, ok := s.cache.Get(cacheKey(clientID, key)); ok {
			return c.value, c.present, nil
		}
	}
	var e Entry
	err := s.db.WithContext(ctx).Where("client_id = ? AND item_key = ?", clientID, key).First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.remember(clientID, key, "", false)
			return "", false, nil
		}
		return "", false, fmt.Errorf("get client key %s: %w", key, err)
	}
	s.remember(clientID, key, e.Value, true)
	return e.Value, true, nil
}

func (s *GORMStore) Set(ctx context.Context, clientID, key, value string) error {
	old, _, err := s.Get(ctx, clientID, key)
	if err != nil {
		return err
	}
	e := Entry{ClientID: clientID, Key: key, Value: value, UpdatedAt: s.now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}, {Name: "item_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("set client key %s: %w", key, err)
	}
	s.remember(clientID, key, value, true)
	s.publish(Event{ClientID: clientID, Key: key, OldValue: old, NewValue: value})
	return nil
}

func (s *GORMStore) Remove(ctx context.Context, clientID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	var existing []Entry
	if err := s.db.WithContext(ctx).Where("client_id = ? AND item_key IN ?", clientID, keys).Find(&existing).Error; err != nil {
		return fmt.Errorf("remove client keys: %w", err)
	}
	if err := s.db.WithContext(ctx).Where("client_id = ? AND item_key IN ?", clientID, keys).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("remove client keys: %w", err)
	}
	for _, k := range keys {
		s.remember(clientID, k, "", false)
	}
	for _, e := range existing {
		s.publish(Event{ClientID: clientID, Key: e.Key, OldValue: e.Value, Removed: true})
	}
	return nil
}

func (s *GORMStore) Snapshot(ctx context.Context, clientID string) (map[string]string, error) {
	var entries []Entry
	if err := s.db.WithContext(ctx).Where("client_id = ?", clientID).Order("item_key").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("snapshot client %s: %w", clientID, err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Value
	}
	return out, nil
}

func (s *GORMStore) Clear(ctx context.Context, clientID string) error {
	snap, err := s.Snapshot(ctx, clientID)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	return s.Remove(ctx, clientID, keys...)
}

// DeleteStale drops entries not written since olderThan. The read cache is purged wholesale.
func (s *GORMStore) DeleteStale(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("updated_at < ?", olderThan).Delete(&Entry{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete stale client storage: %w", res.Error)
	}
	if s.cache != nil && res.RowsAffected > 0 {
		s.cache.Purge()
	}
	return res.RowsAffected, nil
}

func (s *GORMStore) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *GORMStore) publish(ev Event) {
	s.subMu.RLock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (s *GORMStore) remember(clientID, key, value string, present bool) {
	if s.cache == nil {
		return
	}
	s.cache.Add(cacheKey(clientID, key), cached{value: value, present: present})
}

// ValidClientID reports whether id is usable as a client id: 8 to 64 characters of [A-Za-z0-9_-].
func ValidClientID(id string) bool {
	if len(id) < 8 || len(id) > 64 {
		return false
	}
	return strings.IndexFunc(id, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_')
	}) < 0
}
