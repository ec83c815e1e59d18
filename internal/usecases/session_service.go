package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"elevex/internal/entities"
	"elevex/internal/interfaces"
)

// LocalSessionCache is the on-device session store.
type LocalSessionCache interface {
	Get(ctx context.Context, id string) (entities.ChatSession, error)
	Put(ctx context.Context, s entities.ChatSession) error
	Delete(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID string) ([]entities.ChatSession, error)
	ReplaceForUser(ctx context.Context, userID string, sessions []entities.ChatSession) error
}

type pullCall struct {
	done     chan struct{}
	sessions []entities.ChatSession
	err      error
}

// mirrorTimeout bounds each background remote write.
const mirrorTimeout = 15 * time.Second

// SessionService keeps sessions local-first and mirrors them to the remote
// store. Writes land locally and return; the remote copy is written from a
// background goroutine and never blocks the caller. Pulls are throttled per
// user and deduplicated so concurrent callers share one remote round trip.
type SessionService struct {
	local       LocalSessionCache
	remote      interfaces.RemoteSessionStore
	bridge      *IdentityBridge
	minInterval time.Duration
	log         *slog.Logger

	mirrors  sync.WaitGroup
	mu       sync.Mutex
	lastPull map[string]time.Time
	inflight map[string]*pullCall
}

func NewSessionService(local LocalSessionCache, remote interfaces.RemoteSessionStore, bridge *IdentityBridge, minInterval time.Duration, log *slog.Logger) *SessionService {
	return &SessionService{
		local:       local,
		remote:      remote,
		bridge:      bridge,
		minInterval: minInterval,
		log:         log,
		lastPull:    make(map[string]time.Time),
		inflight:    make(map[string]*pullCall),
	}
}

// Get loads one session from the local cache.
func (s *SessionService) Get(ctx context.Context, id string) (entities.ChatSession, error) {
	return s.local.Get(ctx, id)
}

// List returns the user's locally cached sessions, most recent first.
func (s *SessionService) List(ctx context.Context, userID string) ([]entities.ChatSession, error) {
	return s.local.ListForUser(ctx, userID)
}

// Save writes the session locally and returns. The remote mirror is written
// in the background; a remote failure is logged and swallowed, the local copy
// is what counts.
func (s *SessionService) Save(ctx context.Context, sess entities.ChatSession) error {
	if err := s.local.Put(ctx, sess); err != nil {
		return err
	}
	s.mirrors.Add(1)
	go func() {
		defer s.mirrors.Done()
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
		defer cancel()
		if err := s.push(mctx, sess); err != nil {
			s.log.Warn("remote save failed, local copy kept", "session_id", sess.ID, "error", err)
		}
	}()
	return nil
}

// Delete removes the session locally, then the remote copy in the background.
// A session that was never pushed has no remote mapping; the delete must not
// mint one.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := s.local.Delete(ctx, id); err != nil {
		return err
	}
	remoteID, ok, err := s.bridge.Lookup(ctx, id)
	if err != nil {
		s.log.Warn("remote delete skipped", "session_id", id, "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	s.mirrors.Add(1)
	go func() {
		defer s.mirrors.Done()
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
		defer cancel()
		if err := s.remote.DeleteSession(mctx, remoteID); err != nil {
			s.log.Warn("remote delete failed", "session_id", id, "error", err)
		}
	}()
	return nil
}

// Flush blocks until every background mirror write has finished. Used on
// shutdown so in-flight pushes are not cut off.
func (s *SessionService) Flush() {
	s.mirrors.Wait()
}

// Rename sets the session title and saves.
func (s *SessionService) Rename(ctx context.Context, id, title string) error {
	return s.mutate(ctx, id, func(sess *entities.ChatSession) {
		sess.Title = title
	})
}

// SetArchived flips the archive flag and saves.
func (s *SessionService) SetArchived(ctx context.Context, id string, archived bool) error {
	return s.mutate(ctx, id, func(sess *entities.ChatSession) {
		sess.IsArchived = archived
	})
}

// ClearMessages empties the transcript but keeps the session.
func (s *SessionService) ClearMessages(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(sess *entities.ChatSession) {
		sess.Messages = nil
		sess.Preview = ""
		sess.PendingUserQuestion = ""
		sess.KnownModel = ""
	})
}

func (s *SessionService) mutate(ctx context.Context, id string, fn func(*entities.ChatSession)) error {
	sess, err := s.local.Get(ctx, id)
	if err != nil {
		return err
	}
	fn(&sess)
	return s.Save(ctx, sess)
}

// PullAll refreshes the user's local slice from the remote store. Calls
// inside the throttle interval return the local cache without touching the
// network unless force is set. Concurrent pulls for the same user collapse
// into one remote fetch whose result every caller shares. A successful pull
// replaces the user's local sessions wholesale.
func (s *SessionService) PullAll(ctx context.Context, userID string, force bool) ([]entities.ChatSession, error) {
	s.mu.Lock()
	if call, ok := s.inflight[userID]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.sessions, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !force && time.Since(s.lastPull[userID]) < s.minInterval {
		s.mu.Unlock()
		return s.local.ListForUser(ctx, userID)
	}
	call := &pullCall{done: make(chan struct{})}
	s.inflight[userID] = call
	s.mu.Unlock()

	sessions, err := s.pull(ctx, userID)

	s.mu.Lock()
	delete(s.inflight, userID)
	if err == nil {
		s.lastPull[userID] = time.Now()
	}
	s.mu.Unlock()

	call.sessions, call.err = sessions, err
	close(call.done)
	return sessions, err
}

func (s *SessionService) pull(ctx context.Context, userID string) ([]entities.ChatSession, error) {
	remoteUserID, err := s.bridge.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	headers, err := s.remote.ListSessionsForUser(ctx, remoteUserID)
	if err != nil {
		return nil, err
	}
	sessions := make([]entities.ChatSession, 0, len(headers))
	for _, h := range headers {
		msgs, err := s.remote.ListMessages(ctx, h.ID)
		if err != nil {
			return nil, err
		}
		h.Messages = msgs
		// The local slice stays keyed by the caller's user ID.
		h.UserID = userID
		sessions = append(sessions, h)
	}
	if err := s.local.ReplaceForUser(ctx, userID, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// push mirrors one session to the remote store, translating locally
// generated IDs into the remote UUID space first.
func (s *SessionService) push(ctx context.Context, sess entities.ChatSession) error {
	remoteID, err := s.bridge.Resolve(ctx, sess.ID)
	if err != nil {
		return err
	}
	remoteUserID, err := s.bridge.Resolve(ctx, sess.UserID)
	if err != nil {
		return err
	}
	remote := sess
	remote.ID = remoteID
	remote.UserID = remoteUserID
	if err := s.remote.UpsertSession(ctx, remote); err != nil {
		return err
	}
	return s.remote.ReplaceMessages(ctx, remoteID, sess.Messages)
}
