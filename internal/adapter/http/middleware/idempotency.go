package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bobpool/internal/usecase"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys.
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayHeader marks a response served from the store.
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	processingMarker = "processing"
)

// storedResponse is what the store keeps for a completed request.
type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// IdempotencyMiddleware replays completed POST and PATCH requests that carry
// the same Idempotency-Key.
type IdempotencyMiddleware struct {
	store  usecase.IdempotencyStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewIdempotencyMiddleware creates a new IdempotencyMiddleware. A zero ttl uses
// usecase.IdempotencyKeyTTL.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore, ttl time.Duration, logger zerolog.Logger) *IdempotencyMiddleware {
	if ttl <= 0 {
		ttl = usecase.IdempotencyKeyTTL
	}
	return &IdempotencyMiddleware{store: store, ttl: ttl, logger: logger}
}

// Wrap wraps an http.Handler with idempotency checking.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only apply to mutating requests
		if r.Method != http.MethodPost && r.Method != http.MethodPatch {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(IdempotencyKeyHeader)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Scope keys to the endpoint so one key cannot replay another route.
		key := r.Method + " " + r.URL.Path + " " + header

		exists, cached, err := m.store.CheckAndSet(r.Context(), key, nil, m.ttl)
		if err != nil {
			m.logger.Error().Err(err).Str("key", header).Msg("idempotency check failed")
			writeJSONError(w, http.StatusServiceUnavailable, "idempotency_unavailable", "idempotency check failed", true)
			return
		}

		if exists {
			if cached == nil || string(cached) == processingMarker {
				writeJSONError(w, http.StatusConflict, "conflict", "request with this Idempotency-Key is still in progress", true)
				return
			}

			var stored storedResponse
			if err := json.Unmarshal(cached, &stored); err != nil {
				m.logger.Warn().Err(err).Str("key", header).Msg("unreadable idempotency record")
				writeJSONError(w, http.StatusConflict, "conflict", "request with this Idempotency-Key cannot be replayed", false)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(IdempotencyReplayHeader, "true")
			w.WriteHeader(stored.Status)
			w.Write(stored.Body)
			return
		}

		// Capture response
		recorder := &responseRecorder{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
			statusCode:     http.StatusOK,
		}
		// A panicking handler must not leave the key parked at processing.
		defer func() {
			if rec := recover(); rec != nil {
				m.release(r, key, header)
				panic(rec)
			}
		}()
		next.ServeHTTP(recorder, r)

		// Failed requests release the key so the client can retry.
		if recorder.statusCode < 200 || recorder.statusCode >= 300 {
			m.release(r, key, header)
			return
		}

		record, err := json.Marshal(storedResponse{
			Status: recorder.statusCode,
			Body:   json.RawMessage(recorder.body.Bytes()),
		})
		if err == nil {
			err = m.store.Update(r.Context(), key, record, m.ttl)
		}
		if err != nil {
			m.logger.Warn().Err(err).Str("key", header).Msg("failed to store idempotent response")
		}
	})
}

func (m *IdempotencyMiddleware) release(r *http.Request, key, header string) {
	if err := m.store.Release(r.Context(), key); err != nil {
		m.logger.Warn().Err(err).Str("key", header).Msg("failed to release idempotency key")
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string, retryable bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error":     code,
		"message":   message,
		"retryable": retryable,
	})
}
