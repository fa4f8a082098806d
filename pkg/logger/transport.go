package logger

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// transport wraps an http.RoundTripper and logs every JSON-RPC round trip
type transport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

// NewTransport creates an RPC logging round tripper.
// Successful calls are logged at debug level, 4xx at warn, transport failures and 5xx at error.
// A nil next uses http.DefaultTransport.
func NewTransport(logger *slog.Logger, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &transport{next: next, logger: logger}
}

func (t *transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	method := rpcMethod(r)

	resp, err := t.next.RoundTrip(r)

	attrs := []slog.Attr{
		slog.String("rpc_method", method),
		slog.String("host", r.URL.Host),
		slog.Duration("duration", time.Since(start)),
	}

	level := slog.LevelDebug
	switch {
	case err != nil:
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", err.Error()))
	case resp.StatusCode >= http.StatusInternalServerError:
		level = slog.LevelError
		attrs = append(attrs, slog.Int("status", resp.StatusCode))
	case resp.StatusCode >= http.StatusBadRequest:
		level = slog.LevelWarn
		attrs = append(attrs, slog.Int("status", resp.StatusCode))
	default:
		attrs = append(attrs, slog.Int("status", resp.StatusCode))
	}

	t.logger.LogAttrs(r.Context(), level, "RPC", attrs...)
	return resp, err
}

// rpcMethod peeks at a replayable request body for the JSON-RPC method name.
// The original body is left untouched.
func rpcMethod(r *http.Request) string {
	if r.GetBody == nil {
		return "unknown"
	}
	body, err := r.GetBody()
	if err != nil {
		return "unknown"
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "unknown"
	}

	var call struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(raw, &call); err != nil {
		if len(raw) > 0 && raw[0] == '[' {
			return "batch"
		}
		return "unknown"
	}
	if call.Method == "" {
		return "unknown"
	}
	return call.Method
}
