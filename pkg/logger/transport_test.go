package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/jupstaker/pkg/logger"
)

// logEntry represents a parsed log entry for testing
type logEntry struct {
	Level     string  `json:"level"`
	Msg       string  `json:"msg"`
	RPCMethod string  `json:"rpc_method"`
	Host      string  `json:"host"`
	Status    int     `json:"status"`
	Duration  float64 `json:"duration"`
	Error     string  `json:"error,omitempty"`
}

// parseLogEntry parses a single JSON log line
func parseLogEntry(t *testing.T, logOutput string) logEntry {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(logOutput), "\n")
	lastLine := lines[len(lines)-1]

	var entry logEntry
	err := json.Unmarshal([]byte(lastLine), &entry)
	require.NoError(t, err, "Should parse log entry as JSON")

	return entry
}

func TestNewTransport(t *testing.T) {
	t.Parallel()

	t.Run("it logs successful calls at debug level with the rpc method", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var logBuffer bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{Level: slog.LevelDebug}))

		var receivedBody string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			receivedBody = string(body)
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"ok"}`))
		}))
		defer server.Close()

		client := &http.Client{Transport: logger.NewTransport(log, nil)}
		payload := `{"jsonrpc":"2.0","id":1,"method":"getLatestBlockhash"}`

		// Act
		resp, err := client.Post(server.URL, "application/json", strings.NewReader(payload))
		require.NoError(t, err)
		defer resp.Body.Close()

		// Assert
		assert.Equal(t, payload, receivedBody, "Body should reach the server unchanged")

		entry := parseLogEntry(t, logBuffer.String())
		assert.Equal(t, "DEBUG", entry.Level)
		assert.Equal(t, "RPC", entry.Msg)
		assert.Equal(t, "getLatestBlockhash", entry.RPCMethod)
		assert.Equal(t, strings.TrimPrefix(server.URL, "http://"), entry.Host)
		assert.Equal(t, http.StatusOK, entry.Status)
		assert.Greater(t, entry.Duration, 0.0)
		assert.Empty(t, entry.Error)
	})

	t.Run("it logs server errors at error level", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var logBuffer bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{Level: slog.LevelDebug}))

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := &http.Client{Transport: logger.NewTransport(log, nil)}

		// Act
		resp, err := client.Post(server.URL, "application/json", strings.NewReader(`{"method":"sendTransaction"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		// Assert
		entry := parseLogEntry(t, logBuffer.String())
		assert.Equal(t, "ERROR", entry.Level)
		assert.Equal(t, "sendTransaction", entry.RPCMethod)
		assert.Equal(t, http.StatusBadGateway, entry.Status)
	})

	t.Run("it logs rate limiting at warn level", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var logBuffer bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{Level: slog.LevelDebug}))

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := &http.Client{Transport: logger.NewTransport(log, nil)}

		// Act
		resp, err := client.Post(server.URL, "application/json", strings.NewReader(`{"method":"getAccountInfo"}`))
		require.NoError(t, err)
		defer resp.Body.Close()

		// Assert
		entry := parseLogEntry(t, logBuffer.String())
		assert.Equal(t, "WARN", entry.Level)
		assert.Equal(t, http.StatusTooManyRequests, entry.Status)
	})

	t.Run("it logs transport failures with error details", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var logBuffer bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{Level: slog.LevelDebug}))

		failing := roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})
		client := &http.Client{Transport: logger.NewTransport(log, failing)}

		// Act
		_, err := client.Post("http://rpc.invalid", "application/json", strings.NewReader(`{"method":"getAccountInfo"}`))

		// Assert
		require.Error(t, err)

		entry := parseLogEntry(t, logBuffer.String())
		assert.Equal(t, "ERROR", entry.Level)
		assert.Equal(t, "getAccountInfo", entry.RPCMethod)
		assert.Equal(t, "connection refused", entry.Error)
	})

	t.Run("it reports batch calls", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var logBuffer bytes.Buffer
		log := slog.New(slog.NewJSONHandler(&logBuffer, &slog.HandlerOptions{Level: slog.LevelDebug}))

		ok := roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: http.NoBody, Request: r}, nil
		})
		client := &http.Client{Transport: logger.NewTransport(log, ok)}

		// Act
		resp, err := client.Post("http://rpc.invalid", "application/json", strings.NewReader(`[{"method":"a"},{"method":"b"}]`))
		require.NoError(t, err)
		defer resp.Body.Close()

		// Assert
		entry := parseLogEntry(t, logBuffer.String())
		assert.Equal(t, "batch", entry.RPCMethod)
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("it writes JSON with British timestamps", func(t *testing.T) {
		t.Parallel()

		// Arrange
		var out bytes.Buffer
		log := logger.NewFromConfig(logger.Config{LogLevel: "debug", Output: &out})

		// Act
		log.Debug("hello")

		// Assert
		var entry map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
		assert.Regexp(t, `^\d{2}\.\d{2}\.\d{4} \d{2}:\d{2}:\d{2}$`, entry["time"])
	})

	t.Run("it falls back to info for unknown levels", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, slog.LevelInfo, logger.ParseLevel("chatty"))
		assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
