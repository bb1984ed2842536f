package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/example/reviewsched/internal/logger"
	"github.com/example/reviewsched/pkg/models"
)

// SessionBatchLimit is the maximum number of items packed into one review session.
const SessionBatchLimit = 50

// SessionManager packages due items into review sessions.
type SessionManager struct {
	selector *Selector
	sessions SessionStore
	log      *logger.Logger
	newID    func() string
}

// NewSessionManager creates a session manager.
func NewSessionManager(selector *Selector, sessions SessionStore, log *logger.Logger) *SessionManager {
	return &SessionManager{
		selector: selector,
		sessions: sessions,
		log:      log,
		newID:    uuid.NewString,
	}
}

// StartSession selects up to SessionBatchLimit due items and records them as a new active
// session. It returns ErrNoDueItems when nothing is due.
func (m *SessionManager) StartSession(ctx context.Context, learnerID string, now time.Time) (models.ReviewSession, error) {
	if learnerID == "" {
		return models.ReviewSession{}, errors.Wrap(ErrInvalidArgument, "learner id is required")
	}

	itemIDs, err := Collect(m.selector.SelectDue(ctx, learnerID, now, SessionBatchLimit))
	if err != nil {
		return models.ReviewSession{}, err
	}
	if len(itemIDs) == 0 {
		return models.ReviewSession{}, ErrNoDueItems
	}

	session := models.ReviewSession{
		ID:        m.newID(),
		LearnerID: learnerID,
		ItemIDs:   itemIDs,
		Status:    models.SessionActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return models.ReviewSession{}, storageError("create session", err)
	}

	m.log.Debugf("learner %s: started session %s with %d items", learnerID, session.ID, len(itemIDs))
	return session, nil
}

// GetSession returns one of the learner's sessions.
func (m *SessionManager) GetSession(ctx context.Context, learnerID, sessionID string) (models.ReviewSession, error) {
	session, err := m.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, models.ErrSessionNotFound) {
		return models.ReviewSession{}, ErrSessionNotFound
	}
	if err != nil {
		return models.ReviewSession{}, storageError("get session", err)
	}
	if session.LearnerID != learnerID {
		return models.ReviewSession{}, ErrSessionNotFound
	}
	return session, nil
}

// CompleteSession marks an active session as completed.
func (m *SessionManager) CompleteSession(ctx context.Context, learnerID, sessionID string, now time.Time) (models.ReviewSession, error) {
	session, err := m.GetSession(ctx, learnerID, sessionID)
	if err != nil {
		return models.ReviewSession{}, err
	}
	if session.Status.IsTerminal() {
		return models.ReviewSession{}, ErrSessionClosed
	}

	ok, err := m.sessions.UpdateStatus(ctx, sessionID, models.SessionActive, models.SessionCompleted, now)
	if err != nil {
		return models.ReviewSession{}, storageError("complete session", err)
	}
	if !ok {
		// expired or completed between the read and the update
		return models.ReviewSession{}, ErrSessionClosed
	}

	session.Status = models.SessionCompleted
	session.UpdatedAt = now
	return session, nil
}

// ExpireStale expires every active session created more than ttl before now.
func (m *SessionManager) ExpireStale(ctx context.Context, now time.Time, ttl time.Duration) (int64, error) {
	n, err := m.sessions.ExpireCreatedBefore(ctx, now.Add(-ttl), now)
	if err != nil {
		return 0, storageError("expire sessions", err)
	}
	return n, nil
}
