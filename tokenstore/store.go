package tokenstore

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultPersistTimeout = 5 * time.Second

// Credentials is the access/refresh token pair. Empty strings mean "absent".
type Credentials struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Empty reports whether neither token is present.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Persister is the durable backend behind a [Store].
//
// Load returns empty Credentials (and no error) when nothing was stored yet.
type Persister interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, creds Credentials) error
	Clear(ctx context.Context) error
}

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the logger used for persistence warnings.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Store) {
		if logger != nil {
			s.log = logger
		}
	}
}

// WithPersistTimeout bounds every persister call. Defaults to 5s.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// Store is a thread-safe token store with write-through persistence.
type Store struct {
	mu        sync.Mutex
	creds     Credentials
	gen       uint64
	persister Persister
	log       logrus.FieldLogger
	timeout   time.Duration
}

// New creates a Store and restores whatever p has persisted. A nil persister
// yields a memory-only store. Load failures are logged and the store starts
// empty.
func New(p Persister, opts ...Option) *Store {
	s := &Store{
		persister: p,
		log:       discardLogger(),
		timeout:   defaultPersistTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.persister != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		creds, err := s.persister.Load(ctx)
		if err != nil {
			s.log.WithError(err).Warn("goauthclient: token store load failed, starting empty")
		} else {
			s.creds = creds
		}
	}

	return s
}

// Get returns the current credentials.
func (s *Store) Get() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// Snapshot returns the current credentials together with their generation.
func (s *Store) Snapshot() (Credentials, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, s.gen
}

// Generation returns the current generation counter.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// AccessToken returns the stored access token or "".
func (s *Store) AccessToken() string { return s.Get().AccessToken }

// RefreshToken returns the stored refresh token or "".
func (s *Store) RefreshToken() string { return s.Get().RefreshToken }

// SetAccess replaces the access token. The generation is unchanged.
func (s *Store) SetAccess(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.AccessToken = token
	s.persistLocked()
}

// SetAccessToken is an alias of SetAccess for session-layer callers.
func (s *Store) SetAccessToken(token string) { s.SetAccess(token) }

// SetRefresh replaces the refresh token and starts a new generation.
func (s *Store) SetRefresh(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.RefreshToken = token
	s.gen++
	s.persistLocked()
}

// SetRefreshToken is an alias of SetRefresh for session-layer callers.
func (s *Store) SetRefreshToken(token string) { s.SetRefresh(token) }

// SetCredentials replaces both tokens at once and starts a new generation.
func (s *Store) SetCredentials(creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.gen++
	s.persistLocked()
}

// Clear removes both tokens and starts a new generation.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

// ApplyRefresh stores the outcome of a refresh that started at generation
// gen. refreshToken may be empty when the server did not rotate it. Returns
// false, leaving the store untouched, if the generation moved on.
func (s *Store) ApplyRefresh(gen uint64, accessToken, refreshToken string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.creds.AccessToken = accessToken
	if refreshToken != "" {
		s.creds.RefreshToken = refreshToken
	}
	s.persistLocked()
	return true
}

// ClearIfGeneration clears the store only if it is still at generation gen.
func (s *Store) ClearIfGeneration(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.clearLocked()
	return true
}

func (s *Store) clearLocked() {
	s.creds = Credentials{}
	s.gen++
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.persister.Clear(ctx); err != nil {
		s.log.WithError(err).Warn("goauthclient: token store clear not persisted")
	}
}

func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.persister.Save(ctx, s.creds); err != nil {
		s.log.WithError(err).Warn("goauthclient: token store write not persisted")
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
