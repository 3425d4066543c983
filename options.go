package gamesync

// Functional options that configure the Client during construction.
// Keeping them in a standalone file makes it easy to discover all
// available knobs at a glance.

import (
	"fmt"
	"time"

	"github.com/gameinfo/gamesync/internal/docstore"
)

// Option configures a Client during construction in New. Options must
// be deterministic and side-effect free.
type Option func(*Client) error

// WithBaseURL points the client at a different catalog endpoint,
// typically a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) error {
		if u == "" {
			return fmt.Errorf("base URL must not be empty")
		}
		c.baseURL = u
		return nil
	}
}

// WithHTTPTimeout sets the underlying http.Client timeout. Prefer
// per-request context deadlines; this is a coarse safety net bounding
// one whole HTTP exchange. Must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithPageSize overrides the fixed search page size.
func WithPageSize(n int) Option {
	return func(c *Client) error {
		if n <= 0 {
			return fmt.Errorf("page size must be > 0")
		}
		c.pageSize = n
		return nil
	}
}

// WithDocStore substitutes the backing document store. The default is
// the in-process store.
func WithDocStore(s docstore.Store) Option {
	return func(c *Client) error {
		if s == nil {
			return fmt.Errorf("doc store must not be nil")
		}
		c.docs = s
		return nil
	}
}

// WithIdentity injects the acting-user capability. Without it the
// client behaves as signed out: favorites and review mutations fail
// with an Unauthenticated error.
func WithIdentity(id Identity) Option {
	return func(c *Client) error {
		if id == nil {
			return fmt.Errorf("identity must not be nil")
		}
		c.identity = id
		return nil
	}
}

// WithEnrichWorkers bounds the parallelism of detail enrichment.
func WithEnrichWorkers(n int) Option {
	return func(c *Client) error {
		if n <= 0 {
			return fmt.Errorf("enrich workers must be > 0")
		}
		c.enrichWorkers = n
		return nil
	}
}

// WithDebugLogging wraps the transport so each request/response is
// dumped to the log. Also enabled automatically by GAMESYNC_DEBUG=true.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.debugHTTP = c.debugHTTP || enabled
		return nil
	}
}
