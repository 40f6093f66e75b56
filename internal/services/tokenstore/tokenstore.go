package tokenstore

import (
	"log/slog"
	"sync"

	"stockpile/internal/domain/models"
	"stockpile/internal/lib/logger/sl"
	"stockpile/internal/storage"
)

// Store is the single source of truth for the credential pair. All reads
// and mutations go through it; feature code never touches tokens directly.
// Every mutation is written through to the keystore and bumps a generation
// counter so late-settling writers (a refresh racing a logout) can detect
// that their result is stale.
type Store struct {
	log      *slog.Logger
	keystore storage.Keystore

	mu     sync.Mutex
	pair   models.TokenPair
	gen    uint64
	subs   map[int]func(models.TokenPair)
	nextID int
}

func New(log *slog.Logger, ks storage.Keystore) *Store {
	return &Store{
		log:      log,
		keystore: ks,
		subs:     map[int]func(models.TokenPair){},
	}
}

// Hydrate loads the persisted pair into memory. Called once at bootstrap,
// before any request is issued.
func (s *Store) Hydrate() {
	const op = "tokenstore.Hydrate"

	access, err := s.keystore.Get(storage.KeyAccessToken)
	if err != nil {
		return
	}

	refresh, err := s.keystore.Get(storage.KeyRefreshToken)
	if err != nil {
		refresh = ""
	}

	s.mu.Lock()
	s.pair = models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    models.DefaultTokenType,
	}
	s.gen++
	pair, subs := s.pair, s.subscribers()
	s.mu.Unlock()

	s.log.Debug("restored persisted session", slog.String("op", op))

	notify(subs, pair)
}

// SetTokens replaces the access token unconditionally; an empty refresh or
// tokenType keeps the previous value. tokenType falls back to "Bearer"
// when nothing is known.
func (s *Store) SetTokens(access, refresh, tokenType string) {
	s.mu.Lock()

	if refresh == "" {
		refresh = s.pair.RefreshToken
	}
	if tokenType == "" {
		tokenType = s.pair.TokenType
	}
	if tokenType == "" {
		tokenType = models.DefaultTokenType
	}

	s.pair = models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenType,
	}
	s.gen++
	pair, subs := s.pair, s.subscribers()
	s.mu.Unlock()

	s.persist(pair)
	notify(subs, pair)
}

// CompareAndSetTokens applies the pair only when the store generation still
// equals gen, i.e. nothing else mutated the store since the caller read it.
// Reports whether the write was applied.
func (s *Store) CompareAndSetTokens(gen uint64, access, refresh, tokenType string) bool {
	s.mu.Lock()

	if s.gen != gen {
		s.mu.Unlock()
		return false
	}

	if refresh == "" {
		refresh = s.pair.RefreshToken
	}
	if tokenType == "" {
		tokenType = models.DefaultTokenType
	}

	s.pair = models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenType,
	}
	s.gen++
	pair, subs := s.pair, s.subscribers()
	s.mu.Unlock()

	s.persist(pair)
	notify(subs, pair)

	return true
}

// Clear drops the pair from memory and from the keystore. Always wins over
// any concurrently settling write thanks to the generation bump.
func (s *Store) Clear() {
	const op = "tokenstore.Clear"

	s.mu.Lock()
	s.pair = models.TokenPair{}
	s.gen++
	subs := s.subscribers()
	s.mu.Unlock()

	if err := s.keystore.Delete(storage.KeyAccessToken); err != nil {
		s.log.Warn("failed to remove persisted access token", slog.String("op", op), sl.Err(err))
	}
	if err := s.keystore.Delete(storage.KeyRefreshToken); err != nil {
		s.log.Warn("failed to remove persisted refresh token", slog.String("op", op), sl.Err(err))
	}

	notify(subs, models.TokenPair{})
}

// Tokens returns a snapshot of the current pair.
func (s *Store) Tokens() models.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pair
}

// IsAuthenticated is derived, never stored: true iff an access token is
// present.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pair.AccessToken != ""
}

// Generation returns the current mutation counter.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gen
}

// Snapshot returns the pair together with the generation it was read at,
// under a single lock acquisition. Callers that later CompareAndSetTokens
// must use this rather than separate Tokens/Generation reads, otherwise a
// Clear landing between the two reads goes undetected.
func (s *Store) Snapshot() (models.TokenPair, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pair, s.gen
}

// Subscribe registers fn to run after every mutation with the new pair.
// The returned function removes the subscription. Callbacks must be fast;
// they run on the mutating goroutine.
func (s *Store) Subscribe(fn func(models.TokenPair)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) persist(pair models.TokenPair) {
	const op = "tokenstore.persist"

	if err := s.keystore.Set(storage.KeyAccessToken, pair.AccessToken); err != nil {
		s.log.Warn("failed to persist access token", slog.String("op", op), sl.Err(err))
	}
	if err := s.keystore.Set(storage.KeyRefreshToken, pair.RefreshToken); err != nil {
		s.log.Warn("failed to persist refresh token", slog.String("op", op), sl.Err(err))
	}
}

func (s *Store) subscribers() []func(models.TokenPair) {
	out := make([]func(models.TokenPair), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}

	return out
}

func notify(subs []func(models.TokenPair), pair models.TokenPair) {
	for _, fn := range subs {
		fn(pair)
	}
}
