package memory

import (
	"context"
	"sync"
	"time"

	"github.com/yoockh/slife/internal/models"
	"github.com/yoockh/slife/internal/utils"
	"golang.org/x/sync/semaphore"
)

type SessionRepository interface {
	GetOrCreate(ctx context.Context, sessionID string) ([]models.Turn, error)
	Append(ctx context.Context, sessionID string, turns ...models.Turn) error
	// Get returns utils.ErrNotFound for a session that never exchanged a message.
	Get(ctx context.Context, sessionID string) (*models.SessionRecord, error)
	// Lock serializes exchanges of one session. Distinct ids never contend.
	// A waiter gives up with ctx.Err() when its context ends first.
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

type session struct {
	turnMu sync.Mutex // guards record
	record models.SessionRecord
	exch   *semaphore.Weighted // held for a whole exchange
}

type sessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*session
	now      func() time.Time
}

// NewSessionRepo keeps histories for the process lifetime. No eviction.
func NewSessionRepo() SessionRepository {
	return &sessionRepo{sessions: map[string]*session{}, now: time.Now}
}

func (r *sessionRepo) entry(id string) *session {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.sessions[id]; ok {
		return s
	}
	s = &session{
		record: models.SessionRecord{SessionID: id, CreatedAt: r.now().UTC()},
		exch:   semaphore.NewWeighted(1),
	}
	r.sessions[id] = s
	return s
}

func (r *sessionRepo) GetOrCreate(_ context.Context, sessionID string) ([]models.Turn, error) {
	s := r.entry(sessionID)
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	return append([]models.Turn(nil), s.record.Turns...), nil
}

func (r *sessionRepo) Append(_ context.Context, sessionID string, turns ...models.Turn) error {
	s := r.entry(sessionID)
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	for _, t := range turns {
		if t.At.IsZero() {
			t.At = r.now().UTC()
		}
		s.record.Turns = append(s.record.Turns, t)
	}
	return nil
}

func (r *sessionRepo) Get(_ context.Context, sessionID string) (*models.SessionRecord, error) {
	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, utils.ErrNotFound
	}
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	if len(s.record.Turns) == 0 {
		return nil, utils.ErrNotFound
	}
	rec := s.record
	rec.Turns = append([]models.Turn(nil), s.record.Turns...)
	return &rec, nil
}

func (r *sessionRepo) Lock(ctx context.Context, sessionID string) (func(), error) {
	s := r.entry(sessionID)
	if err := s.exch.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	var once sync.Once
	return func() { once.Do(func() { s.exch.Release(1) }) }, nil
}
