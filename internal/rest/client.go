package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/nerrad567/ring-relay/internal/infrastructure/config"
)

const (
	// oauthClientID is the client identifier the official Android app
	// presents to the OAuth endpoint.
	oauthClientID = "ring_official_android"

	// sessionSettleDelay is how long to wait after session registration
	// before the session token is reliably accepted by other endpoints.
	sessionSettleDelay = 1500 * time.Millisecond

	requestTimeout = 30 * time.Second
)

// transientCodes maps vendor error codes returned in 404 bodies to
// conditions that clear on their own. Requests rejected with one of
// these wait a long cooldown and retry until the context is cancelled.
var transientCodes = map[int64]string{
	7000: "update in progress",
	7001: "asset offline",
	7003: "connection offline",
	7016: "maintenance",
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Client is the authenticated transport for the Ring API.
//
// Two request flavors are supported: OAuth-style calls carrying the
// access token as a bearer header (OAuthRequest), and client API calls
// carrying the session token as a request parameter
// (AuthenticatedRequest). A 401 response invalidates the relevant
// token and retries once with a fresh one. Transient vendor rejections
// and network resolution failures are retried with fixed cooldowns
// until the request context is cancelled.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	cfg        config.RingConfig
	httpClient *http.Client
	urls       URLs
	tokens     *Tokens

	// hardwareID identifies this client instance to the session
	// endpoint. Fresh per process; the vendor uses it to distinguish
	// devices on the account.
	hardwareID string

	settleDelay time.Duration

	// OAuth access token cache, separate from the session token.
	// Session registration and OAuth-flavoured calls both use it.
	accessMu    sync.RWMutex
	accessToken string
	accessGroup singleflight.Group

	// logger for retry/auth diagnostics (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a Client for the given Ring configuration.
func New(cfg config.RingConfig) *Client {
	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		urls:        NewURLs(cfg.ServerRoot),
		hardwareID:  uuid.NewString(),
		settleDelay: sessionSettleDelay,
	}
	c.tokens = NewTokens(c)
	return c
}

// SetLogger sets a logger for retry and authentication diagnostics.
// If not set, the client is silent.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// URLs returns the endpoint builder for this client's server root.
func (c *Client) URLs() URLs {
	return c.urls
}

// HardwareID returns the device identifier this client registered with.
func (c *Client) HardwareID() string {
	return c.hardwareID
}

// Tokens returns the client's session token store.
func (c *Client) Tokens() *Tokens {
	return c.tokens
}

// AcquireSession performs the two-step authentication flow:
// a password-grant OAuth request for an access token, then a device
// session registration exchanging it for a session token.
//
// The session token is not reliably accepted by other endpoints
// immediately after registration, so a short settle delay follows
// a successful exchange.
func (c *Client) AcquireSession(ctx context.Context) (string, error) {
	payload := map[string]any{
		"device": map[string]any{
			"hardware_id": c.hardwareID,
			"metadata": map[string]any{
				"api_version": c.cfg.APIVersion,
			},
			"os": "android",
		},
	}

	sessionURL := c.urls.Session() + "?api_version=" + strconv.Itoa(c.cfg.APIVersion)

	var session struct {
		Profile struct {
			AuthenticationToken string `json:"authentication_token"`
		} `json:"profile"`
	}
	if err := c.OAuthRequest(ctx, http.MethodPost, sessionURL, payload, &session); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSessionRejected, err)
	}
	if session.Profile.AuthenticationToken == "" {
		return "", fmt.Errorf("%w: session response carried no authentication token", ErrSessionRejected)
	}

	if err := sleepCtx(ctx, c.settleDelay); err != nil {
		return "", err
	}

	return session.Profile.AuthenticationToken, nil
}

// OAuthRequest performs a request authenticated with the OAuth access
// token as a bearer header, carrying payload as a JSON body. The
// response body is decoded into out (nil discards it).
func (c *Client) OAuthRequest(ctx context.Context, method, rawURL string, payload, out any) error {
	newReq := func(ctx context.Context) (*http.Request, error) {
		accessToken, err := c.currentAccessToken(ctx)
		if err != nil {
			return nil, err
		}

		var body io.Reader
		if payload != nil {
			encoded, marshalErr := json.Marshal(payload)
			if marshalErr != nil {
				return nil, fmt.Errorf("rest: encoding request body: %w", marshalErr)
			}
			body = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
		if err != nil {
			return nil, fmt.Errorf("rest: building request: %w", err)
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		req.Header.Set("Authorization", "Bearer "+accessToken)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}

	return c.execute(ctx, method, rawURL, newReq, c.invalidateAccessToken, out)
}

// AuthenticatedRequest performs a client API request with the session
// token attached as a request parameter, decoding a JSON response body
// into out (nil discards it).
//
// Retry policy:
//   - 401: invalidate the session token and retry once with a fresh
//     one; a second 401 fails with ErrAuthFailed.
//   - 404 with a known transient vendor code: wait the transient
//     cooldown and retry until ctx is cancelled.
//   - 404 with an unknown vendor code: logged and surfaced immediately.
//   - DNS or connect failure: wait the network cooldown and retry
//     until ctx is cancelled.
func (c *Client) AuthenticatedRequest(ctx context.Context, method, rawURL string, out any) error {
	newReq := func(ctx context.Context) (*http.Request, error) {
		token, err := c.tokens.Current(ctx)
		if err != nil {
			return nil, err
		}

		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("rest: parsing url: %w", err)
		}
		q := u.Query()
		q.Set("api_version", strconv.Itoa(c.cfg.APIVersion))
		q.Set("auth_token", token)
		u.RawQuery = q.Encode()

		// The token and API version are mirrored into the body for
		// methods that carry one; some endpoints read one, some the
		// other.
		var body io.Reader
		if method != http.MethodGet && method != http.MethodHead {
			encoded, marshalErr := json.Marshal(map[string]any{
				"api_version": c.cfg.APIVersion,
				"auth_token":  token,
			})
			if marshalErr != nil {
				return nil, fmt.Errorf("rest: encoding request body: %w", marshalErr)
			}
			body = bytes.NewReader(encoded)
		}

		req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
		if err != nil {
			return nil, fmt.Errorf("rest: building request: %w", err)
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}

	return c.execute(ctx, method, rawURL, newReq, c.tokens.Invalidate, out)
}

// execute runs a request through the shared retry policy.
//
// newReq is invoked per attempt so each retry picks up fresh tokens.
// invalidate is called on the first 401 before retrying; a second 401
// is fatal.
func (c *Client) execute(ctx context.Context, method, rawURL string, newReq func(context.Context) (*http.Request, error), invalidate func(), out any) error {
	retried401 := false

	for {
		req, err := newReq(ctx)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if isNetworkNotFound(err) {
				if logger := c.getLogger(); logger != nil {
					logger.Warn("network unreachable, retrying",
						"url", rawURL,
						"cooldown", c.cfg.GetNetworkCooldown(),
						"error", err,
					)
				}
				if sleepErr := sleepCtx(ctx, c.cfg.GetNetworkCooldown()); sleepErr != nil {
					return sleepErr
				}
				continue
			}
			return fmt.Errorf("rest: %s %s: %w", method, rawURL, err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			drain(resp)
			if invalidate == nil || retried401 {
				return fmt.Errorf("%w: %s %s rejected with 401", ErrAuthFailed, method, rawURL)
			}
			retried401 = true
			invalidate()
			continue

		case resp.StatusCode == http.StatusNotFound:
			apiErr := c.readAPIError(resp)
			if condition, ok := transientCodes[apiErr.Code]; ok {
				if logger := c.getLogger(); logger != nil {
					logger.Warn("transient service condition, retrying",
						"url", rawURL,
						"condition", condition,
						"cooldown", c.cfg.GetTransientCooldown(),
					)
				}
				if sleepErr := sleepCtx(ctx, c.cfg.GetTransientCooldown()); sleepErr != nil {
					return sleepErr
				}
				continue
			}
			if logger := c.getLogger(); logger != nil {
				logger.Error("unrecognised vendor error code", "url", rawURL, "code", apiErr.Code)
			}
			return apiErr

		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return c.readAPIError(resp)
		}

		err = decodeJSON(resp.Body, out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("rest: parsing response from %s: %w", rawURL, err)
		}
		return nil
	}
}

// currentAccessToken returns the cached OAuth access token, acquiring
// one if none is cached. Concurrent acquisition attempts are collapsed
// onto a single in-flight request.
func (c *Client) currentAccessToken(ctx context.Context) (string, error) {
	c.accessMu.RLock()
	token := c.accessToken
	c.accessMu.RUnlock()

	if token != "" {
		return token, nil
	}

	v, err, _ := c.accessGroup.Do("oauth", func() (any, error) {
		c.accessMu.RLock()
		cached := c.accessToken
		c.accessMu.RUnlock()
		if cached != "" {
			return cached, nil
		}

		fresh, acquireErr := c.acquireAccessToken(ctx)
		if acquireErr != nil {
			return nil, acquireErr
		}

		c.accessMu.Lock()
		c.accessToken = fresh
		c.accessMu.Unlock()

		return fresh, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) invalidateAccessToken() {
	c.accessMu.Lock()
	c.accessToken = ""
	c.accessMu.Unlock()
}

// acquireAccessToken performs the form-encoded password-grant OAuth call.
func (c *Client) acquireAccessToken(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":  {oauthClientID},
		"grant_type": {"password"},
		"scope":      {"client"},
		"username":   {c.cfg.Email},
		"password":   {c.cfg.Password},
	}

	newReq := func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("rest: building oauth request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		return req, nil
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	// No invalidate hook: a 401 here means the credentials themselves
	// were rejected, which no retry will fix.
	if err := c.execute(ctx, http.MethodPost, c.cfg.AuthURL, newReq, nil, &body); err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%w: oauth response carried no access token", ErrAuthFailed)
	}

	c.logTokenExpiry(body.AccessToken)

	return body.AccessToken, nil
}

// logTokenExpiry decodes the access token's expiry claim for diagnostics.
// The token is not verified; only the claim payload is read.
func (c *Client) logTokenExpiry(accessToken string) {
	logger := c.getLogger()
	if logger == nil {
		return
	}

	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	logger.Debug("access token acquired", "expires", exp.Time)
}

// readAPIError drains a non-2xx response into an APIError, extracting
// the vendor error code when the body carries one.
func (c *Client) readAPIError(resp *http.Response) *APIError {
	defer resp.Body.Close()

	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return apiErr
	}

	var body struct {
		Error            json.Number `json:"error"`
		ErrorDescription string      `json:"error_description"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if code, convErr := body.Error.Int64(); convErr == nil {
			apiErr.Code = code
		}
		apiErr.Message = body.ErrorDescription
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

// isNetworkNotFound reports whether err is a DNS resolution or
// connect-level failure worth retrying.
func isNetworkNotFound(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}

// sleepCtx waits for d or until ctx is cancelled, whichever is first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()
}
