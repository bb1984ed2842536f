package review

import (
	"context"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/example/reviewsched/pkg/models"
)

var errBroken = errors.New("disk on fire")

type pairKey struct{ learner, item string }

// memStore is an in-memory ProgressStore, DueIndex and SessionStore.
type memStore struct {
	mu       sync.Mutex
	progress map[pairKey]models.ReviewProgress
	sessions map[string]models.ReviewSession
	failWith error
}

func newMemStore() *memStore {
	return &memStore{
		progress: make(map[pairKey]models.ReviewProgress),
		sessions: make(map[string]models.ReviewSession),
	}
}

func (m *memStore) Get(_ context.Context, learnerID, itemID string) (*models.ReviewProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	p, ok := m.progress[pairKey{learnerID, itemID}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) Upsert(_ context.Context, p models.ReviewProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.progress[pairKey{p.LearnerID, p.ItemID}] = p
	return nil
}

func (m *memStore) Apply(_ context.Context, learnerID, itemID string, fn func(*models.ReviewProgress) (models.ReviewProgress, error)) (models.ReviewProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return models.ReviewProgress{}, m.failWith
	}
	var current *models.ReviewProgress
	if p, ok := m.progress[pairKey{learnerID, itemID}]; ok {
		current = &p
	}
	next, err := fn(current)
	if err != nil {
		return models.ReviewProgress{}, err
	}
	next.LearnerID, next.ItemID = learnerID, itemID
	m.progress[pairKey{learnerID, itemID}] = next
	return next, nil
}

func (m *memStore) due(learnerID string, now time.Time) []models.ReviewProgress {
	var due []models.ReviewProgress
	for k, p := range m.progress {
		if k.learner == learnerID && p.IsDue(now) {
			due = append(due, p)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextReviewAt.Equal(due[j].NextReviewAt) {
			return due[i].NextReviewAt.Before(due[j].NextReviewAt)
		}
		return due[i].ItemID < due[j].ItemID
	})
	return due
}

func (m *memStore) DueItems(_ context.Context, learnerID string, now time.Time, limit int) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		m.mu.Lock()
		if m.failWith != nil {
			err := m.failWith
			m.mu.Unlock()
			yield("", err)
			return
		}
		due := m.due(learnerID, now)
		m.mu.Unlock()
		for i, p := range due {
			if i >= limit {
				return
			}
			if !yield(p.ItemID, nil) {
				return
			}
		}
	}
}

func (m *memStore) CountDue(_ context.Context, learnerID string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	return len(m.due(learnerID, now)), nil
}

func (m *memStore) NextReviewAfter(_ context.Context, learnerID string, now time.Time) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var next *time.Time
	for k, p := range m.progress {
		if k.learner != learnerID || !p.NextReviewAt.After(now) {
			continue
		}
		if next == nil || p.NextReviewAt.Before(*next) {
			t := p.NextReviewAt
			next = &t
		}
	}
	return next, nil
}

func (m *memStore) Create(_ context.Context, s models.ReviewSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (models.ReviewSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return models.ReviewSession{}, m.failWith
	}
	s, ok := m.sessions[id]
	if !ok {
		return models.ReviewSession{}, models.ErrSessionNotFound
	}
	return s, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, from, to models.SessionStatus, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status, s.UpdatedAt = to, now
	m.sessions[id] = s
	return true, nil
}

func (m *memStore) ExpireCreatedBefore(_ context.Context, cutoff, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.Status == models.SessionActive && s.CreatedAt.Before(cutoff) {
			s.Status, s.UpdatedAt = models.SessionExpired, now
			m.sessions[id] = s
			n++
		}
	}
	return n, nil
}

func (m *memStore) put(learnerID, itemID string, due time.Time) {
	p := models.NewReviewProgress(learnerID, itemID)
	p.State = models.StateLearning
	p.Stability = 1
	p.LastReviewAt = due.Add(-24 * time.Hour)
	p.NextReviewAt = due
	m.progress[pairKey{learnerID, itemID}] = p
}
