package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/claim-management/pkg/logger"
)

// maxLoggedBody caps how much of a JSON body ends up in a log line.
const maxLoggedBody = 4 << 10

// redactedKeys are matched as substrings of lower-cased header names and JSON keys.
var redactedKeys = []string{
	"password",
	"token",
	"authorization",
	"secret",
	"cookie",
	"session",
	"credential",
	"api_key",
	"apikey",
}

const redacted = "[FILTERED]"

// LoggingMiddleware logs one line per request and one per response through the
// request scoped logger, so trace ids set earlier in the chain are included.
// Only JSON bodies are logged; uploads and other payloads are summarised.
func LoggingMiddleware(fallback *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lg := logger.FromOr(r.Context(), fallback)

			lg.Info("incoming request",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", redactHeaders(r.Header),
				"body", requestBody(r))

			rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case rec.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			body := summarise(rec.Header().Get("Content-Type"), rec.size)
			if isJSON(rec.Header().Get("Content-Type")) {
				body = redactBody(rec.body.Bytes())
			}

			lg.Log(r.Context(), level, "response",
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", rec.size,
				"body", body)
		})
	}
}

type recordingWriter struct {
	http.ResponseWriter
	status      int
	size        int
	body        bytes.Buffer
	wroteHeader bool
}

func (rw *recordingWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	if room := maxLoggedBody - rw.body.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		rw.body.Write(b[:room])
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// requestBody reads and restores a JSON body so the handler still sees it.
func requestBody(r *http.Request) string {
	contentType := r.Header.Get("Content-Type")
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	if !isJSON(contentType) {
		return summarise(contentType, int(r.ContentLength))
	}

	raw, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return "[UNREADABLE]"
	}
	return redactBody(raw)
}

func summarise(contentType string, size int) string {
	if contentType == "" {
		contentType = "unknown"
	}
	if size < 0 {
		return "[" + contentType + "]"
	}
	return "[" + contentType + ", " + strconv.Itoa(size) + " bytes]"
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "application/json")
}

func isRedacted(name string) bool {
	lower := strings.ToLower(name)
	for _, key := range redactedKeys {
		if strings.Contains(lower, key) {
			return true
		}
	}
	return false
}

func redactHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isRedacted(name) {
			out[name] = redacted
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

func redactBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		// truncated or malformed; never echo raw text that may hold secrets
		return "[UNPARSED JSON, " + strconv.Itoa(len(body)) + " bytes]"
	}

	out, err := json.Marshal(redactValue(doc))
	if err != nil {
		return "[UNPARSED JSON]"
	}
	return string(out)
}

func redactValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		for key, value := range typed {
			if isRedacted(key) {
				typed[key] = redacted
				continue
			}
			typed[key] = redactValue(value)
		}
		return typed
	case []interface{}:
		for i, item := range typed {
			typed[i] = redactValue(item)
		}
		return typed
	default:
		return v
	}
}
