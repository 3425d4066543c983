package gamesync

import (
	"net/http"
	"net/http/httputil"
	"os"

	"github.com/rs/zerolog/log"
)

// keyTransport appends the catalog API key as a query parameter to
// every outbound request, so call sites never handle credentials.
type keyTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *keyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	q := cloned.URL.Query()
	q.Set("key", t.apiKey)
	cloned.URL.RawQuery = q.Encode()
	return t.base.RoundTrip(cloned)
}

// debugTransport dumps each request/response when debug logging is
// enabled. It sits beneath the key transport, so dumps include the full
// URL actually sent. Do not enable in production; dumps may contain the
// API key and user data.
type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
	}
	return resp, nil
}

// debugLoggingRequested checks whether HTTP debug logging should be
// enabled. GAMESYNC_DEBUG=true targets just this SDK; DEBUG=true is the
// broader development flag.
func debugLoggingRequested() bool {
	return os.Getenv("GAMESYNC_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}
