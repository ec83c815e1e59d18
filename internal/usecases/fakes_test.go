package usecases

import (
	"context"
	"errors"
	"sync"

	"elevex/internal/entities"
	"elevex/internal/interfaces"
	"elevex/internal/repository"
)

type fakeWindowStore struct {
	mu      sync.Mutex
	windows map[string]entities.QuotaWindow
}

func newFakeWindowStore() *fakeWindowStore {
	return &fakeWindowStore{windows: make(map[string]entities.QuotaWindow)}
}

func (f *fakeWindowStore) Get(_ context.Context, userID string) (entities.QuotaWindow, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[userID]
	return w, ok, nil
}

func (f *fakeWindowStore) Put(_ context.Context, w entities.QuotaWindow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows[w.UserID] = w
	return nil
}

func (f *fakeWindowStore) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.windows, userID)
	return nil
}

type fakeOverrideStore struct {
	mu        sync.Mutex
	overrides map[string]entities.PlanOverride
	loadErr   error
	loads     int
}

func newFakeOverrideStore() *fakeOverrideStore {
	return &fakeOverrideStore{overrides: make(map[string]entities.PlanOverride)}
}

func (f *fakeOverrideStore) LoadAll(_ context.Context) (map[string]entities.PlanOverride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make(map[string]entities.PlanOverride, len(f.overrides))
	for k, v := range f.overrides {
		out[k] = v
	}
	return out, nil
}

func (f *fakeOverrideStore) SaveAll(_ context.Context, overrides map[string]entities.PlanOverride) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides = overrides
	return nil
}

type fakeMappingStore struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeMappingStore() *fakeMappingStore {
	return &fakeMappingStore{entries: make(map[string]string)}
}

func (f *fakeMappingStore) Lookup(_ context.Context, localID string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.entries[localID]
	return id, ok, nil
}

func (f *fakeMappingStore) Insert(_ context.Context, localID, remoteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.entries[localID]; ok && existing != remoteID {
		return errors.New("already bound")
	}
	f.entries[localID] = remoteID
	return nil
}

type fakeLocalCache struct {
	mu       sync.Mutex
	sessions map[string]entities.ChatSession
}

func newFakeLocalCache() *fakeLocalCache {
	return &fakeLocalCache{sessions: make(map[string]entities.ChatSession)}
}

func (f *fakeLocalCache) Get(_ context.Context, id string) (entities.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return entities.ChatSession{}, interfaces.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeLocalCache) Put(_ context.Context, s entities.ChatSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeLocalCache) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeLocalCache) ListForUser(_ context.Context, userID string) ([]entities.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.ChatSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeLocalCache) ReplaceForUser(_ context.Context, userID string, sessions []entities.ChatSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
		}
	}
	for _, s := range sessions {
		f.sessions[s.ID] = s
	}
	return nil
}

type fakeRemoteStore struct {
	mu         sync.Mutex
	sessions   map[string]entities.ChatSession
	messages   map[string][]entities.Message
	listCalls  int
	failAll    bool
	block      chan struct{}
	slowUpsert chan struct{}
}

func newFakeRemoteStore() *fakeRemoteStore {
	return &fakeRemoteStore{
		sessions: make(map[string]entities.ChatSession),
		messages: make(map[string][]entities.Message),
	}
}

func (f *fakeRemoteStore) UpsertSession(_ context.Context, s entities.ChatSession) error {
	if f.slowUpsert != nil {
		<-f.slowUpsert
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return interfaces.ErrSyncUnavailable
	}
	s.Messages = nil
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeRemoteStore) ReplaceMessages(_ context.Context, sessionID string, msgs []entities.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return interfaces.ErrSyncUnavailable
	}
	f.messages[sessionID] = append([]entities.Message(nil), msgs...)
	return nil
}

func (f *fakeRemoteStore) DeleteSession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return interfaces.ErrSyncUnavailable
	}
	delete(f.sessions, sessionID)
	delete(f.messages, sessionID)
	return nil
}

func (f *fakeRemoteStore) ListSessionsForUser(_ context.Context, userID string) ([]entities.ChatSession, error) {
	f.mu.Lock()
	f.listCalls++
	block := f.block
	if f.failAll {
		f.mu.Unlock()
		return nil, interfaces.ErrSyncUnavailable
	}
	var out []entities.ChatSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return out, nil
}

func (f *fakeRemoteStore) ListMessages(_ context.Context, sessionID string) ([]entities.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, interfaces.ErrSyncUnavailable
	}
	return append([]entities.Message(nil), f.messages[sessionID]...), nil
}

type fakeAnswerer struct {
	mu      sync.Mutex
	answer  entities.Answer
	err     error
	asked   []string
	history [][]entities.Message
}

func (f *fakeAnswerer) Ask(_ context.Context, question string, askCtx entities.AskContext) (entities.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, question)
	f.history = append(f.history, askCtx.History)
	if f.err != nil {
		return entities.Answer{}, f.err
	}
	return f.answer, nil
}

type fakeCatalog struct {
	brands []entities.Brand
	models map[string][]entities.Model
}

func (f *fakeCatalog) ListBrands(_ context.Context) ([]entities.Brand, error) {
	return f.brands, nil
}

func (f *fakeCatalog) ListModelsByBrand(_ context.Context, brandName string) ([]entities.Model, error) {
	return f.models[brandName], nil
}

type fakeAgentStore struct {
	agents map[string]entities.Agent
}

func (f *fakeAgentStore) Get(_ context.Context, id string) (entities.Agent, error) {
	a, ok := f.agents[id]
	if !ok {
		return entities.Agent{}, repository.ErrAgentNotFound
	}
	return a, nil
}
