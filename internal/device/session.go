package device

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Credentials authenticate against the device's web console.
type Credentials struct {
	Username string
	Password string
}

// SessionState is the current authentication state of a Session. At most one
// live token exists per device; it is replaced on renewal and cleared on
// Close.
type SessionState struct {
	Token         string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	Authenticated bool
}

// Expired reports whether the token has passed its lifetime at t.
func (s SessionState) Expired(t time.Time) bool {
	return !s.Authenticated || !t.Before(s.ExpiresAt)
}

// Session is the authenticated HTTP conversation with a single device. It is
// shared between the background monitoring loop and on-demand callers, so all
// authenticated traffic (including the transparent re-login inside Execute)
// is serialized by one mutex. Two concurrent re-logins would otherwise race
// on the session cookie and invalidate each other.
type Session struct {
	host   string
	creds  Credentials
	client *http.Client
	logger *zap.Logger

	// relogins throttles transparent re-login attempts so an expiry storm
	// cannot hammer the device's login endpoint.
	relogins *rate.Limiter

	mu         sync.Mutex
	state      SessionState
	cookieName string
}

// NewSession creates a session for the device at host (host or host:port).
// No network traffic happens until Login or Execute is called.
func NewSession(host string, creds Credentials, logger *zap.Logger) *Session {
	return &Session{
		host:  host,
		creds: creds,
		client: &http.Client{
			Timeout: requestTimeout,
			// The device answers every request with 200 and relies on body
			// markers; following redirects would mask the login page.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:   logger,
		relogins: rate.NewLimiter(rate.Every(2*time.Second), 3),
	}
}

// Host returns the device address this session talks to.
func (s *Session) Host() string { return s.host }

// State returns a copy of the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Login authenticates against the device and stores the session cookie.
// A rejected login or unreachable device yields *AuthError.
func (s *Session) Login(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login(ctx)
}

// login performs the actual login request. Callers must hold s.mu.
func (s *Session) login(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	form := url.Values{
		"username": {s.creds.Username},
		"password": {s.creds.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.endpoint(LoginPath), strings.NewReader(form.Encode()))
	if err != nil {
		return &AuthError{Host: s.host, Reason: "build login request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		s.state = SessionState{}
		return &AuthError{Host: s.host, Reason: "device unreachable", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	cookie := sessionCookie(resp)
	if cookie == nil {
		s.state = SessionState{}
		return &AuthError{Host: s.host, Reason: "credentials rejected"}
	}

	now := time.Now().UTC()
	s.cookieName = cookie.Name
	s.state = SessionState{
		Token:         cookie.Value,
		IssuedAt:      now,
		ExpiresAt:     now.Add(sessionLifetime),
		Authenticated: true,
	}
	s.logger.Debug("device session established",
		zap.String("host", s.host),
		zap.Time("expires_at", s.state.ExpiresAt),
	)
	return nil
}

// Execute performs one authenticated request and returns the raw response
// body. If the device answers with its login page (the session expired), it
// re-logs in exactly once and retries the original request once. A second
// expiry within the same call is surfaced as *TransportError; retrying across
// calls is the monitoring loop's job, not this layer's.
func (s *Session) Execute(ctx context.Context, endpoint, method, body string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Expired(time.Now().UTC()) {
		if err := s.login(ctx); err != nil {
			return "", err
		}
	}

	text, err := s.do(ctx, endpoint, method, body)
	if err != nil {
		return "", err
	}
	if !strings.Contains(text, expiredMarker) {
		return text, nil
	}

	// Session expired mid-conversation: one transparent re-login, one retry.
	if !s.relogins.Allow() {
		return "", &TransportError{Host: s.host, Endpoint: endpoint, Reason: "re-login throttled", Err: ErrRateLimited}
	}
	s.logger.Info("device session expired, re-authenticating", zap.String("host", s.host))
	if err := s.login(ctx); err != nil {
		return "", &TransportError{Host: s.host, Endpoint: endpoint, Reason: "re-login failed", Err: err}
	}
	text, err = s.do(ctx, endpoint, method, body)
	if err != nil {
		return "", err
	}
	if strings.Contains(text, expiredMarker) {
		return "", &TransportError{Host: s.host, Endpoint: endpoint, Reason: "session expired immediately after re-login"}
	}
	return text, nil
}

// do issues one raw request with the current token. Callers must hold s.mu.
func (s *Session) do(ctx context.Context, endpoint, method, body string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.endpoint(endpoint), reader)
	if err != nil {
		return "", &TransportError{Host: s.host, Endpoint: endpoint, Reason: "build request", Err: err}
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if s.state.Authenticated {
		req.AddCookie(&http.Cookie{Name: s.cookieName, Value: s.state.Token})
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &TransportError{Host: s.host, Endpoint: endpoint, Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &TransportError{Host: s.host, Endpoint: endpoint, Reason: "read response", Err: err}
	}
	return string(data), nil
}

// Renew refreshes the session cookie before it expires. The monitoring loop
// calls this at half the session lifetime so an expiry never races a poll.
func (s *Session) Renew(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login(ctx)
}

// TestConnection reports whether the device's web server answers within a
// short timeout. It never mutates session state and never returns an error.
func (s *Session) TestConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, testTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint("/"), nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode < http.StatusInternalServerError
}

// Close releases the session deterministically. The device has no logout
// endpoint; dropping the token and the idle connections is all there is.
func (s *Session) Close() {
	s.mu.Lock()
	s.state = SessionState{}
	s.mu.Unlock()
	s.client.CloseIdleConnections()
}

func (s *Session) endpoint(path string) string {
	return "http://" + s.host + path
}

// sessionCookie extracts the session cookie from a login response. The cookie
// name varies between firmware revisions, so the first cookie wins.
func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Value != "" {
			return c
		}
	}
	return nil
}
