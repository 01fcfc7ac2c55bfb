package auth

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/devinsights/api"
	"github.com/jrsteele09/devinsights/internal/logging"
	"github.com/jrsteele09/devinsights/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// exchangeKeyLength is how much of an authorization code identifies a login
// attempt when coalescing concurrent logins.
const exchangeKeyLength = 10

// Backend is the part of the analytics API the auth service needs.
type Backend interface {
	ExchangeCode(ctx context.Context, code string) (*api.AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*api.AuthResponse, error)
}

var _ oauth2.TokenSource = (*Service)(nil)

// Service owns the client's session: the bearer token and the user it was
// issued to. It is the only writer of the stored session.
type Service struct {
	backend     Backend
	sessions    sessions.Repo
	logoutHooks []func() error
	nowTime     func() time.Time
	logger      zerolog.Logger

	lock    sync.RWMutex
	session *sessions.Session

	exchanges singleflight.Group
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithLogoutHook registers a function run after the session is destroyed,
// e.g. to clear the repository selection.
func WithLogoutHook(hook func() error) ServiceOption {
	return func(s *Service) {
		s.logoutHooks = append(s.logoutHooks, hook)
	}
}

// NewService creates the auth service. Call Restore to pick up a stored session.
func NewService(backend Backend, sessionRepo sessions.Repo, options ...ServiceOption) (*Service, error) {
	if backend == nil {
		return nil, errors.New("[NewService] backend is required")
	}
	if sessionRepo == nil {
		return nil, errors.New("[NewService] session repo is required")
	}

	s := &Service{
		backend:  backend,
		sessions: sessionRepo,
		nowTime:  time.Now,
		logger:   logging.Component("auth"),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Session returns a copy of the current session, or nil when logged out.
func (s *Service) Session() *sessions.Session {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

// IsAuthenticated reports whether a validated session exists.
func (s *Service) IsAuthenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.session != nil && s.session.User != nil
}

// Restore validates a previously stored token. A token the backend rejects is
// removed together with the stored user.
func (s *Service) Restore(ctx context.Context) (*sessions.Session, error) {
	stored, err := s.sessions.Load()
	if err != nil {
		if stderrors.Is(err, sessions.ErrSessionNotFound) {
			return nil, NotAuthenticatedErr
		}
		return nil, errors.Wrap(err, "[Restore] loading session")
	}

	user, err := s.validate(ctx, stored.Token)
	if err != nil {
		s.logger.Warn().Err(err).Msg("stored token failed validation")
		s.destroy()
		return nil, errors.Wrap(NotAuthenticatedErr, err.Error())
	}

	return s.establish(&sessions.Session{Token: stored.Token, User: user})
}

// Login exchanges a GitHub OAuth code for a session. Concurrent logins with
// the same code share one exchange. A stored token that still validates is
// reused without spending the code.
func (s *Service) Login(ctx context.Context, code string) (*sessions.Session, error) {
	if code == "" {
		return nil, InvalidCodeErr
	}
	if s.IsAuthenticated() {
		s.logger.Debug().Msg("already authenticated, skipping login")
		return s.Session(), nil
	}

	key := "exchange_" + code[:min(len(code), exchangeKeyLength)]
	v, err, shared := s.exchanges.Do(key, func() (any, error) {
		return s.exchange(ctx, code)
	})
	if shared {
		s.logger.Debug().Str("key", key).Msg("joined in-flight code exchange")
	}
	if err != nil {
		return nil, err
	}
	sess := v.(*sessions.Session)
	cp := *sess
	return &cp, nil
}

func (s *Service) exchange(ctx context.Context, code string) (*sessions.Session, error) {
	if sess, ok := s.reuseStoredToken(ctx); ok {
		return sess, nil
	}

	resp, err := s.backend.ExchangeCode(ctx, code)
	if err != nil {
		if api.IsStatus(err, http.StatusConflict) {
			// Another exchange may have stored a token while this one was in flight.
			if sess, ok := s.reuseStoredToken(ctx); ok {
				return sess, nil
			}
			return nil, errors.Wrap(CodeAlreadyUsedErr, err.Error())
		}
		return nil, errors.Wrap(err, "[Login] code exchange failed")
	}
	if resp == nil || resp.Token == "" || resp.User == nil {
		return nil, InvalidAuthResponseErr
	}

	return s.establish(&sessions.Session{Token: resp.Token, User: resp.User})
}

// reuseStoredToken validates a stored token; an invalid one is dropped.
func (s *Service) reuseStoredToken(ctx context.Context) (*sessions.Session, bool) {
	stored, err := s.sessions.Load()
	if err != nil {
		return nil, false
	}
	user, err := s.validate(ctx, stored.Token)
	if err != nil {
		s.logger.Info().Err(err).Msg("stored token invalid, continuing with exchange")
		if err := s.sessions.Clear(); err != nil {
			s.logger.Warn().Err(err).Msg("clearing stored token")
		}
		return nil, false
	}
	sess, err := s.establish(&sessions.Session{Token: stored.Token, User: user})
	if err != nil {
		return nil, false
	}
	return sess, true
}

func (s *Service) validate(ctx context.Context, token string) (*sessions.User, error) {
	if exp, ok := tokenExpiry(token); ok && !exp.After(s.nowTime()) {
		return nil, TokenExpiredErr
	}
	resp, err := s.backend.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.User == nil || (resp.IsValid != nil && !*resp.IsValid) {
		return nil, InvalidAuthResponseErr
	}
	return resp.User, nil
}

func (s *Service) establish(sess *sessions.Session) (*sessions.Session, error) {
	if err := s.sessions.Save(sess); err != nil {
		return nil, errors.Wrap(err, "[Login] saving session")
	}

	s.lock.Lock()
	s.session = sess
	s.lock.Unlock()

	s.logger.Info().Str("user", sess.User.DisplayName()).Msg("session established")
	return sess, nil
}

func (s *Service) destroy() {
	s.lock.Lock()
	s.session = nil
	s.lock.Unlock()

	if err := s.sessions.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("clearing session")
	}
}

// Logout destroys the session and runs the logout hooks.
func (s *Service) Logout() error {
	s.lock.Lock()
	s.session = nil
	s.lock.Unlock()

	errs := []error{s.sessions.Clear()}
	for _, hook := range s.logoutHooks {
		errs = append(errs, hook())
	}
	return stderrors.Join(errs...)
}

// Token implements oauth2.TokenSource so API calls carry the session token.
// A stored token is used even before Restore has validated it; tokens that
// are JWTs and already expired are withheld.
func (s *Service) Token() (*oauth2.Token, error) {
	s.lock.RLock()
	sess := s.session
	s.lock.RUnlock()

	if sess == nil {
		stored, err := s.sessions.Load()
		if err != nil {
			return nil, NotAuthenticatedErr
		}
		sess = stored
	}

	tok := &oauth2.Token{AccessToken: sess.Token, TokenType: "Bearer"}
	if exp, ok := tokenExpiry(sess.Token); ok {
		if !exp.After(s.nowTime()) {
			return nil, TokenExpiredErr
		}
		tok.Expiry = exp
	}
	return tok, nil
}

// tokenExpiry reads the exp claim of a JWT without verifying it. Opaque
// tokens report no expiry.
func tokenExpiry(raw string) (time.Time, bool) {
	token, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
