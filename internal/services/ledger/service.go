// Package ledger remembers which remote resources this tool created so that
// an interrupted run can be cleaned up later.
//
// Every process records under its own session id and keeps a heartbeat for
// that session while it runs. Only resources of sessions whose heartbeat has
// lapsed are reported as orphans.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/infrastructure/redis"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/logger"
	"github.com/google/uuid"
)

type Kind string

const (
	KindAgent  Kind = "agent"
	KindThread Kind = "thread"
)

var kinds = []Kind{KindAgent, KindThread}

const (
	keyPrefix   = "foundry:ledger:"
	sessionsKey = keyPrefix + "sessions"
)

// DefaultHeartbeatTTL is how long a session counts as live after its last heartbeat.
const DefaultHeartbeatTTL = 30 * time.Second

const heartbeatTimeout = 5 * time.Second

// Entry is a resource recorded by some session.
type Entry struct {
	Session string
	Kind    Kind
	ID      string
}

type Store interface {
	Add(ctx context.Context, session string, kind Kind, id string) error
	Remove(ctx context.Context, session string, kind Kind, id string) error
	Members(ctx context.Context, session string, kind Kind) ([]string, error)
	Sessions(ctx context.Context) ([]string, error)
	Heartbeat(ctx context.Context, session string, ttl time.Duration) error
	Alive(ctx context.Context, session string) (bool, error)
	// Release ends a session's heartbeat.
	Release(ctx context.Context, session string) error
	// Drop removes a session from the index.
	Drop(ctx context.Context, session string) error
}

type RedisStore struct {
	redisService *redis.Service
}

type MemoryStore struct {
	mu        sync.RWMutex
	resources map[string]map[Kind]map[string]struct{}
	alive     map[string]time.Time
	now       func() time.Time
}

type Service struct {
	store   Store
	session string
	ttl     time.Duration

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
	closed  bool
}

func NewService(redisService *redis.Service) *Service {
	log := logger.For(logger.LEDGER)

	var store Store
	if redisService != nil {
		log.Info().Msg("Using Redis for the resource ledger")
		store = &RedisStore{redisService: redisService}
	} else {
		log.Info().Msg("Using in-memory resource ledger")
		store = NewMemoryStore()
	}

	return NewServiceWithStore(store)
}

// NewServiceWithStore builds a ledger over an explicit store with a fresh session.
func NewServiceWithStore(store Store) *Service {
	return &Service{
		store:   store,
		session: uuid.NewString(),
		ttl:     DefaultHeartbeatTTL,
	}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		resources: make(map[string]map[Kind]map[string]struct{}),
		alive:     make(map[string]time.Time),
		now:       time.Now,
	}
}

func memberKey(session string, kind Kind) string {
	return keyPrefix + session + ":" + string(kind)
}

func aliveKey(session string) string {
	return keyPrefix + session + ":alive"
}

// Redis Store implementation
func (rs *RedisStore) Add(ctx context.Context, session string, kind Kind, id string) error {
	if err := rs.redisService.AddToSet(ctx, sessionsKey, session); err != nil {
		return err
	}
	return rs.redisService.AddToSet(ctx, memberKey(session, kind), id)
}

func (rs *RedisStore) Remove(ctx context.Context, session string, kind Kind, id string) error {
	return rs.redisService.RemoveFromSet(ctx, memberKey(session, kind), id)
}

func (rs *RedisStore) Members(ctx context.Context, session string, kind Kind) ([]string, error) {
	return rs.redisService.SetMembers(ctx, memberKey(session, kind))
}

func (rs *RedisStore) Sessions(ctx context.Context) ([]string, error) {
	return rs.redisService.SetMembers(ctx, sessionsKey)
}

func (rs *RedisStore) Heartbeat(ctx context.Context, session string, ttl time.Duration) error {
	return rs.redisService.Set(ctx, aliveKey(session), time.Now().UTC().Format(time.RFC3339), ttl)
}

func (rs *RedisStore) Alive(ctx context.Context, session string) (bool, error) {
	return rs.redisService.Exists(ctx, aliveKey(session))
}

func (rs *RedisStore) Release(ctx context.Context, session string) error {
	return rs.redisService.Delete(ctx, aliveKey(session))
}

func (rs *RedisStore) Drop(ctx context.Context, session string) error {
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, memberKey(session, kind))
	}
	if err := rs.redisService.Delete(ctx, keys...); err != nil {
		return err
	}
	return rs.redisService.RemoveFromSet(ctx, sessionsKey, session)
}

// Memory Store implementation
func (ms *MemoryStore) Add(ctx context.Context, session string, kind Kind, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	byKind, ok := ms.resources[session]
	if !ok {
		byKind = make(map[Kind]map[string]struct{})
		ms.resources[session] = byKind
	}
	ids, ok := byKind[kind]
	if !ok {
		ids = make(map[string]struct{})
		byKind[kind] = ids
	}
	ids[id] = struct{}{}
	return nil
}

func (ms *MemoryStore) Remove(ctx context.Context, session string, kind Kind, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.resources[session][kind], id)
	return nil
}

func (ms *MemoryStore) Members(ctx context.Context, session string, kind Kind) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	ids := make([]string, 0, len(ms.resources[session][kind]))
	for id := range ms.resources[session][kind] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (ms *MemoryStore) Sessions(ctx context.Context) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	sessions := make([]string, 0, len(ms.resources))
	for session := range ms.resources {
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (ms *MemoryStore) Heartbeat(ctx context.Context, session string, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.alive[session] = ms.now().Add(ttl)
	return nil
}

func (ms *MemoryStore) Alive(ctx context.Context, session string) (bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	until, ok := ms.alive[session]
	return ok && ms.now().Before(until), nil
}

func (ms *MemoryStore) Release(ctx context.Context, session string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.alive, session)
	return nil
}

func (ms *MemoryStore) Drop(ctx context.Context, session string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.resources, session)
	return nil
}

// Session returns the id this process records under.
func (s *Service) Session() string {
	return s.session
}

// Persistent reports whether records outlive this process.
func (s *Service) Persistent() bool {
	_, inMemory := s.store.(*MemoryStore)
	return !inMemory
}

// Start keeps the session alive in the background until Close.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil || s.closed {
		return
	}
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.heartbeatLoop(s.stop, s.stopped)
}

func (s *Service) heartbeatLoop(stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.ttl / 3)
	defer ticker.Stop()

	for {
		s.beat()
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) beat() {
	ctx, cancel := context.WithTimeout(context.Background(), heartbeatTimeout)
	defer cancel()

	if err := s.store.Heartbeat(ctx, s.session, s.ttl); err != nil {
		logger.For(logger.LEDGER).Warn().Err(err).Str("session", s.session).Msg("Failed to refresh session heartbeat")
	}
}

// Close stops the heartbeat and marks the session as ended, which makes
// anything it still has recorded eligible for a sweep. Later calls are no-ops.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	stop, stopped := s.stop, s.stopped
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-stopped
	}

	logger.For(logger.LEDGER).Debug().Str("session", s.session).Msg("Releasing ledger session")
	return s.store.Release(ctx, s.session)
}

// Record notes that a resource was created. Empty ids are ignored.
func (s *Service) Record(ctx context.Context, kind Kind, id string) error {
	if id == "" {
		return nil
	}
	logger.For(logger.LEDGER).Debug().Str("kind", string(kind)).Str("id", id).Msg("Recording resource")

	if err := s.store.Heartbeat(ctx, s.session, s.ttl); err != nil {
		return err
	}
	return s.store.Add(ctx, s.session, kind, id)
}

// Forget removes a resource of this session once it is deleted. Empty ids are ignored.
func (s *Service) Forget(ctx context.Context, kind Kind, id string) error {
	if id == "" {
		return nil
	}
	return s.ForgetEntry(ctx, Entry{Session: s.session, Kind: kind, ID: id})
}

// ForgetEntry removes a resource recorded by any session.
func (s *Service) ForgetEntry(ctx context.Context, e Entry) error {
	logger.For(logger.LEDGER).Debug().Str("kind", string(e.Kind)).Str("id", e.ID).Str("session", e.Session).Msg("Forgetting resource")
	return s.store.Remove(ctx, e.Session, e.Kind, e.ID)
}

// List returns this session's recorded ids of a kind in sorted order.
func (s *Service) List(ctx context.Context, kind Kind) ([]string, error) {
	ids, err := s.store.Members(ctx, s.session, kind)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Orphans returns the resources of a kind recorded by sessions that are no
// longer alive. This session's own records are never included.
func (s *Service) Orphans(ctx context.Context, kind Kind) ([]Entry, error) {
	log := logger.For(logger.LEDGER)

	sessions, err := s.store.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(sessions)

	var entries []Entry
	for _, session := range sessions {
		if session == s.session {
			continue
		}
		alive, err := s.store.Alive(ctx, session)
		if err != nil {
			return nil, err
		}
		if alive {
			log.Debug().Str("session", session).Msg("Skipping live session")
			continue
		}

		ids, err := s.store.Members(ctx, session, kind)
		if err != nil {
			return nil, err
		}
		sort.Strings(ids)
		for _, id := range ids {
			entries = append(entries, Entry{Session: session, Kind: kind, ID: id})
		}
	}
	return entries, nil
}

// Prune drops a dead session that has nothing left recorded.
func (s *Service) Prune(ctx context.Context, session string) error {
	alive, err := s.store.Alive(ctx, session)
	if err != nil || alive {
		return err
	}
	for _, kind := range kinds {
		ids, err := s.store.Members(ctx, session, kind)
		if err != nil {
			return err
		}
		if len(ids) > 0 {
			return nil
		}
	}
	return s.store.Drop(ctx, session)
}
