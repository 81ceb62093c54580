package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const (
	rateSafetyMargin = 2 * time.Second
	maxRateWait      = time.Hour
)

// Connection is an authenticated client reused by every helper of a
// system, so a sync run logs in once.
type Connection struct {
	c *http.Client
}

// NewConnection returns a connection that sends token as a bearer token.
// An *http.Client stored under oauth2.HTTPClient in ctx is used as the base
// transport.
func NewConnection(ctx context.Context, token string) *Connection {
	c := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	c.Timeout = 30 * time.Second
	return &Connection{c: c}
}

// NewAnonymousConnection returns a connection sending no credentials. It
// suits helpers that only build ticket links, and public endpoints.
func NewAnonymousConnection() *Connection {
	return &Connection{c: &http.Client{Timeout: 30 * time.Second}}
}

func (conn *Connection) client() *http.Client {
	if conn.c == nil {
		return http.DefaultClient
	}
	return conn.c
}

// getJSON fetches rawURL and decodes the JSON body into out.
func (conn *Connection) getJSON(ctx context.Context, rawURL, accept string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", accept)
	resp, err := conn.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// do runs req, waiting out rate limits advertised through
// X-RateLimit-Remaining/X-RateLimit-Reset or Retry-After.
func (conn *Connection) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	for {
		resp, err := conn.client().Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		if wait, limited := rateLimitWait(resp); limited {
			_ = drainAndClose(resp.Body)
			slog.Warn("rate.limit.sleep", "url", req.URL.String(), "wait", wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		b, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s %s returned %d: %s", req.Method, req.URL.String(), resp.StatusCode, string(b))
	}
}

func rateLimitWait(resp *http.Response) (time.Duration, bool) {
	if resp.StatusCode == http.StatusTooManyRequests {
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s >= 0 {
			return capWait(time.Duration(s)*time.Second + rateSafetyMargin), true
		}
	}
	if (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests) &&
		resp.Header.Get("X-RateLimit-Remaining") == "0" {
		if sec, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
			return capWait(time.Until(time.Unix(sec, 0)) + rateSafetyMargin), true
		}
	}
	return 0, false
}

func capWait(d time.Duration) time.Duration {
	if d < rateSafetyMargin {
		return rateSafetyMargin
	}
	if d > maxRateWait {
		return maxRateWait
	}
	return d
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, rc)
	return rc.Close()
}
