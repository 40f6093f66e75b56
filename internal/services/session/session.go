package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"stockpile/internal/domain/models"
	"stockpile/internal/lib/logger/sl"
	"stockpile/internal/transport/client"
	"stockpile/internal/transport/client/dto"
)

// State is the session lifecycle. Bootstrapping resolves exactly once into
// one of the two terminal states; afterwards login and logout oscillate
// between them without ever re-entering bootstrapping.
type State int

const (
	StateBootstrapping State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateBootstrapping:
		return "bootstrapping"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Manager is the session gate: consumers must not evaluate authentication
// state before Bootstrap resolves. It owns the session user and keeps it
// current after profile-affecting mutations.
type Manager struct {
	log    *slog.Logger
	client *client.Client

	mu           sync.Mutex
	state        State
	user         models.User
	bootstrapped bool
	subs         map[int]func(State)
	nextID       int
}

func New(log *slog.Logger, c *client.Client) *Manager {
	return &Manager{
		log:    log,
		client: c,
		state:  StateBootstrapping,
		subs:   map[int]func(State){},
	}
}

// Client exposes the underlying API client for calls that do not touch
// session state.
func (m *Manager) Client() *client.Client {
	return m.client
}

// Bootstrap hydrates the persisted tokens and resolves the initial state.
// With an access token present it fetches the session user; any failure
// there clears the session and resolves to anonymous rather than failing.
// Without a token it resolves to anonymous with no network call. Calling
// it again after it has resolved is a no-op.
func (m *Manager) Bootstrap(ctx context.Context) State {
	const op = "session.Bootstrap"

	m.mu.Lock()
	if m.bootstrapped {
		state := m.state
		m.mu.Unlock()
		return state
	}
	m.bootstrapped = true
	m.mu.Unlock()

	store := m.client.Store()
	store.Hydrate()

	if !store.IsAuthenticated() {
		m.log.Debug("no persisted session", slog.String("op", op))
		return m.setState(StateAnonymous, models.User{})
	}

	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		m.log.Info("persisted session rejected, starting anonymous", slog.String("op", op), sl.Err(err))
		store.Clear()

		return m.setState(StateAnonymous, models.User{})
	}

	m.log.Info("session restored", slog.String("op", op), slog.String("email", user.Email))

	return m.setState(StateAuthenticated, user)
}

// Login authenticates, then fetches the session user. A user fetch failure
// right after login is treated as a failed login: the tokens are cleared
// again.
func (m *Manager) Login(ctx context.Context, email, password string) (models.User, error) {
	const op = "session.Login"

	if _, err := m.client.Login(ctx, email, password); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		m.client.Logout()
		m.setState(StateAnonymous, models.User{})

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	m.setState(StateAuthenticated, user)

	return user, nil
}

// Register creates an account without authenticating the session.
func (m *Manager) Register(ctx context.Context, req dto.RegisterRequest) (models.Account, error) {
	return m.client.Register(ctx, req)
}

// Logout clears the session.
func (m *Manager) Logout() {
	m.client.Logout()
	m.setState(StateAnonymous, models.User{})
}

// UpdateProfile applies the change and refetches the session user so
// consumers always see the updated profile.
func (m *Manager) UpdateProfile(ctx context.Context, req dto.ProfileUpdateRequest) error {
	const op = "session.UpdateProfile"

	if err := m.client.UpdateProfile(ctx, req); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.refreshUser(ctx, op)

	return nil
}

// ChangeEmail applies the change and refetches the session user.
func (m *Manager) ChangeEmail(ctx context.Context, email string) (models.Account, error) {
	const op = "session.ChangeEmail"

	account, err := m.client.ChangeEmail(ctx, email)
	if err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	m.refreshUser(ctx, op)

	return account, nil
}

// ChangePassword rotates the password; the session user is unaffected.
func (m *Manager) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) (models.Account, error) {
	return m.client.ChangePassword(ctx, req)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// User returns the session user; ok is false while anonymous or
// bootstrapping.
func (m *Manager) User() (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.user, m.state == StateAuthenticated
}

// Subscribe registers fn to run on every state change. The returned
// function removes the subscription.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) refreshUser(ctx context.Context, op string) {
	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		m.log.Warn("failed to refetch session user", slog.String("op", op), sl.Err(err))
		return
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
}

func (m *Manager) setState(state State, user models.User) State {
	m.mu.Lock()
	changed := m.state != state
	m.state = state
	m.user = user

	subs := make([]func(State), 0, len(m.subs))
	if changed {
		for _, fn := range m.subs {
			subs = append(subs, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}

	return state
}
