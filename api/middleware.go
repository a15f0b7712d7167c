package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/signalboard/signalboard-backend/allowlist"
	"github.com/signalboard/signalboard-backend/errs"
)

// maxBodySize caps mutation payloads at 1 MiB.
const maxBodySize = 1 << 20

// accessGate guards gated mutations: the caller's address is extracted from
// the request payload and checked against the allow-list snapshot. The
// request proceeds unchanged; the body is restored for the handler.
type accessGate struct {
	allowlist *allowlist.Cache
	responder Responder
}

func newAccessGate(cache *allowlist.Cache) accessGate {
	logger := log.With().Str("handlerName", "accessGate").Logger()
	return accessGate{
		allowlist: cache,
		responder: NewResponder(logger),
	}
}

// Candidate fields checked after the call site's primary field, in order.
var gateFallbackFields = []string{"address", "creator", "participant", "sender", "from"}

// Require gates a route on allow-list membership. The primary field names
// where the caller's credential lives for this route ("owner" for project
// mutations, "address" for signaling).
func (g accessGate) Require(primary string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
			if err != nil {
				g.responder.WriteError(w, errs.NewBadRequestError("failed to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			candidate := extractCandidateAddress(body, primary)
			if candidate == "" {
				g.responder.WriteError(w, errs.NewBadRequestError("address required"))
				return
			}

			if !g.allowlist.Get(r.Context()).Contains(candidate) {
				g.responder.WriteError(w, errs.NewInviteOnlyError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractCandidateAddress takes the first non-empty string among the primary
// field and the fixed fallbacks. Returns "" on unparseable payloads.
func extractCandidateAddress(body []byte, primary string) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	fields := make([]string, 0, len(gateFallbackFields)+1)
	if primary != "" {
		fields = append(fields, primary)
	}
	for _, f := range gateFallbackFields {
		if f != primary {
			fields = append(fields, f)
		}
	}

	for _, f := range fields {
		if value, ok := payload[f].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func LogInternalServerErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", err).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic")

				// Write 500 if nothing written yet
				if !srw.wroteHeader {
					srw.WriteHeader(http.StatusInternalServerError)
				}
			}
		}()

		next.ServeHTTP(srw, r)

		if srw.status == http.StatusInternalServerError {
			log.Error().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("500 error response")
		}
	})
}

// ColoredHTTPLoggingMiddleware logs HTTP requests with colored output based on status codes
func ColoredHTTPLoggingMiddleware(next http.Handler) http.Handler {
	colorLogger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		next.ServeHTTP(srw, r)

		duration := time.Since(start)

		var logEvent *zerolog.Event
		switch {
		case srw.status >= 500:
			logEvent = colorLogger.Error()
		case srw.status >= 400:
			logEvent = colorLogger.Warn()
		default:
			logEvent = colorLogger.Info()
		}

		logEvent.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", srw.status).
			Dur("duration", duration).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP Request")
	})
}
