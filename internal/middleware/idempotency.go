package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"
)

// IdempotencyStore remembers responses to POSTs carrying an
// Idempotency-Key header, so a dashboard retry of a run submission cannot
// start a second engine job.
type IdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	stopChan chan struct{}
}

type idempotencyEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	done      chan struct{} // closed once the first request finishes
}

// IdempotencyConfig holds idempotency store settings.
type IdempotencyConfig struct {
	TTL     time.Duration // how long replays are served (default 24h)
	Cleanup time.Duration // expiry sweep interval (default 1h)
}

// NewIdempotencyStore creates a store and starts its sweep goroutine.
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}

	store := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		stopChan: make(chan struct{}),
	}

	go store.sweepLoop(cfg.Cleanup)

	return store
}

// Stop stops the sweep goroutine.
func (s *IdempotencyStore) Stop() {
	close(s.stopChan)
}

func (s *IdempotencyStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.entries {
		if !entry.expiresAt.IsZero() && entry.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// begin claims the key for this request. When an entry already exists the
// second return is false and the caller should wait on the entry instead.
func (s *IdempotencyStore) begin(key string) (*idempotencyEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok {
		if existing.expiresAt.IsZero() || existing.expiresAt.After(time.Now()) {
			return existing, false
		}
		// Expired; claim the key again.
	}

	entry := &idempotencyEntry{done: make(chan struct{})}
	s.entries[key] = entry
	return entry, true
}

// complete records the captured response and releases any waiters.
func (s *IdempotencyStore) complete(entry *idempotencyEntry, status int, headers http.Header, body []byte) {
	s.mu.Lock()
	entry.status = status
	entry.headers = headers.Clone()
	entry.body = body
	entry.expiresAt = time.Now().Add(s.ttl)
	s.mu.Unlock()
	close(entry.done)
}

func (s *IdempotencyStore) replay(w http.ResponseWriter, entry *idempotencyEntry) {
	<-entry.done

	s.mu.Lock()
	status := entry.status
	headers := entry.headers
	body := entry.body
	s.mu.Unlock()

	for k, values := range headers {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// fingerprint ties the idempotency key to the caller and request content,
// so the same key with a different body is a different request.
func fingerprint(userID, idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte(idempotencyKey))
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// captureWriter records the response for later replay.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency returns middleware that deduplicates POST requests carrying
// an Idempotency-Key header. Requests without the header pass through.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			idempotencyKey := r.Header.Get("Idempotency-Key")
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID := GetUserID(r.Context())
			if userID == "" {
				userID = r.RemoteAddr
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := fingerprint(userID, idempotencyKey, r.Method, r.URL.Path, body)

			entry, claimed := store.begin(key)
			if !claimed {
				store.replay(w, entry)
				return
			}

			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(cw, r)

			store.complete(entry, cw.status, cw.Header(), cw.body.Bytes())
		})
	}
}
