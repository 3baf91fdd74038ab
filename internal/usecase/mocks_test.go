package usecase

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"telegram-repo-notifier/internal/domain"
	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
	"telegram-repo-notifier/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// memUserRepo is a small in-memory implementation used by unit tests.
type memUserRepo struct {
	mu    sync.RWMutex
	store map[string]*model.User // by internal ID
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{store: make(map[string]*model.User)}
}

func (m *memUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
	return nil
}

func (m *memUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.store {
		if u.TelegramID == tgID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// memSubscriptionRepo keys subscriptions by ID and enforces the
// one-per-(user, platform, project) rule like the real table does.
type memSubscriptionRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Subscription
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{store: make(map[string]*model.Subscription)}
}

func (m *memSubscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	for id, existing := range m.store {
		if existing.UserID == sub.UserID && existing.Platform == sub.Platform && existing.ProjectID == sub.ProjectID {
			if cp.WebhookID == "" {
				cp.WebhookID = existing.WebhookID
			}
			delete(m.store, id)
		}
	}
	m.store[sub.ID] = &cp
	return nil
}

func (m *memSubscriptionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *memSubscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubscriptionRepo) FindByUserProject(ctx context.Context, tx repository.Tx, userID string, platform model.Platform, projectID string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.store {
		if s.UserID == userID && s.Platform == platform && s.ProjectID == projectID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memSubscriptionRepo) FindActiveByProject(ctx context.Context, tx repository.Tx, platform model.Platform, projectID string) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.Platform == platform && s.ProjectID == projectID && s.IsActive {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

// memSettingsRepo lazily creates default settings like the real repo.
type memSettingsRepo struct {
	mu    sync.Mutex
	store map[string]*model.NotificationSettings // by user ID
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{store: make(map[string]*model.NotificationSettings)}
}

func (m *memSettingsRepo) GetOrCreate(ctx context.Context, tx repository.Tx, userID string) (*model.NotificationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.store[userID]; ok {
		cp := *s
		return &cp, nil
	}
	s := model.DefaultNotificationSettings(userID)
	m.store[userID] = s
	cp := *s
	return &cp, nil
}

func (m *memSettingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.NotificationSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.UserID] = &cp
	return nil
}

// memNotificationRepo stores history newest-first like the SQL query does.
type memNotificationRepo struct {
	mu      sync.Mutex
	items   []*model.Notification
	saveErr error
}

func newMemNotificationRepo() *memNotificationRepo {
	return &memNotificationRepo{}
}

func (m *memNotificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.items = append([]*model.Notification{&cp}, m.items...)
	return nil
}

func (m *memNotificationRepo) FindRecent(ctx context.Context, tx repository.Tx, userID string, platform model.Platform, projectName string, limit int) ([]*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Notification
	for _, n := range m.items {
		if n.UserID == userID && n.Platform == platform && n.ProjectName == projectName {
			cp := *n
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memNotificationRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// sentMessage is one call captured by fakeTransport.
type sentMessage struct {
	ChatID int64
	Text   string
	Opts   adapter.SendOptions
}

// fakeTransport records sends and returns incrementing message ids. Tests can
// make the first N sends fail via failNext.
type fakeTransport struct {
	mu       sync.Mutex
	sent     []sentMessage
	nextID   int
	failNext int
	err      error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nextID: 1000}
}

func (f *fakeTransport) Send(ctx context.Context, chatID int64, text string, opts adapter.SendOptions) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return 0, f.err
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, Opts: opts})
	f.nextID++
	return f.nextID, nil
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// stubDecoder returns a fixed event regardless of payload.
type stubDecoder struct {
	event any
	err   error
}

func (s *stubDecoder) Decode(eventType string, payload []byte) (any, error) {
	return s.event, s.err
}

// testFixture bundles repos and engine wiring common to classifier tests.
type testFixture struct {
	users    *memUserRepo
	subs     *memSubscriptionRepo
	settings *memSettingsRepo
	history  *memNotificationRepo
	engine   *Engine
}

func newTestFixture() *testFixture {
	users := newMemUserRepo()
	subs := newMemSubscriptionRepo()
	settings := newMemSettingsRepo()
	logger := newTestLogger()
	resolver := NewSubscriberResolver(users, subs, settings, logger)
	return &testFixture{
		users:    users,
		subs:     subs,
		settings: settings,
		history:  newMemNotificationRepo(),
		engine:   NewEngine(resolver, logger),
	}
}

// addSubscriber registers a user with a platform username and an active
// subscription to projectID covering the given categories.
func (f *testFixture) addSubscriber(id string, tgID int64, platform model.Platform, platformUsername, projectID string, categories ...model.EventCategory) *model.User {
	u := &model.User{ID: id, TelegramID: tgID, Username: id, IsActive: true}
	switch platform {
	case model.PlatformGitLab:
		u.GitLabUsername = platformUsername
		u.GitLabToken = "tok-" + id
	case model.PlatformGitHub:
		u.GitHubUsername = platformUsername
		u.GitHubToken = "tok-" + id
	}
	_ = f.users.Save(context.Background(), nil, u)

	if len(categories) == 0 {
		categories = model.CategoriesFor(platform)
	}
	sub := &model.Subscription{
		ID:         "sub-" + id,
		UserID:     id,
		Platform:   platform,
		ProjectID:  projectID,
		Categories: categories,
		IsActive:   true,
	}
	_ = f.subs.Upsert(context.Background(), nil, sub)
	return u
}

// setSettings tweaks one user's settings through a mutator.
func (f *testFixture) setSettings(userID string, mutate func(*model.NotificationSettings)) {
	ctx := context.Background()
	s, _ := f.settings.GetOrCreate(ctx, nil, userID)
	mutate(s)
	_ = f.settings.Save(ctx, nil, s)
}
