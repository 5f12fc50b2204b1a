package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cmcs-backend/pkg/id"
)

var (
	errCorruptEntry = errors.New("idempotency: unreadable entry")
	errKeyContended = errors.New("idempotency: key held by another request")
)

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

// entryKey scopes a stored response to the concrete resource path, so one
// request id reused on two claims never shares an entry.
func entryKey(method, path, userID, requestID string) string {
	return strings.Join([]string{"idemp", "cmcs", strings.ToLower(method), path, userID, requestID}, ":")
}

var reUUID = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)

// validRequestID accepts a canonical UUID or the 32-hex id form.
func validRequestID(s string) bool {
	return reUUID.MatchString(s) || id.IsID32(s)
}

// parseRequestAt accepts epoch seconds, epoch milliseconds, or RFC3339 with
// an explicit zone. Timestamps without a zone are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}

// requestMeta is what a mutating request must carry to be deduplicated.
type requestMeta struct {
	RequestID string
	UserID    string
	At        time.Time
}

// parseRequestMeta validates the idempotency headers. On failure it returns
// the status code the caller should answer with.
func parseRequestMeta(h http.Header, now time.Time) (requestMeta, int, error) {
	var m requestMeta

	m.RequestID = strings.ToLower(strings.TrimSpace(h.Get(HeaderRequestID)))
	if m.RequestID == "" {
		return m, http.StatusBadRequest, errors.New("missing " + HeaderRequestID)
	}
	if !validRequestID(m.RequestID) {
		return m, http.StatusBadRequest, errors.New("invalid " + HeaderRequestID + " format")
	}

	at, err := parseRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return m, http.StatusBadRequest, err
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return m, http.StatusBadRequest, errors.New(HeaderRequestAt + " too skewed")
	}
	m.At = at

	m.UserID = strings.TrimSpace(h.Get(HeaderUserID))
	if m.UserID == "" {
		return m, http.StatusUnauthorized, errors.New("missing " + HeaderUserID)
	}
	if !id.IsID32(m.UserID) {
		return m, http.StatusUnauthorized, errors.New("invalid " + HeaderUserID)
	}
	return m, 0, nil
}

// entryStore keeps one idempEntry per key in redis.
type entryStore struct {
	rdb *redis.Client
	log *zap.Logger
}

func (s entryStore) reserve(ctx context.Context, key string, e idempEntry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, fmt.Errorf("encode entry: %w", err)
	}
	return s.rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

// load returns redis.Nil when the key is gone and errCorruptEntry when its
// value cannot be decoded.
func (s entryStore) load(ctx context.Context, key string) (idempEntry, error) {
	var e idempEntry
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(v, &e); err != nil {
		return idempEntry{}, fmt.Errorf("%w: %v", errCorruptEntry, err)
	}
	return e, nil
}

func (s entryStore) finish(ctx context.Context, key string, e idempEntry, ttl time.Duration) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	return s.rdb.Set(ctx, key, payload, ttl).Err()
}

func (s entryStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// acquire reserves key for e. When another entry already holds the key that
// entry is returned with owned=false. An unreadable entry is dropped, and the
// reservation is retried once, as it is when the key expires in between.
func (s entryStore) acquire(ctx context.Context, key string, e idempEntry) (bool, idempEntry, error) {
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.reserve(ctx, key, e)
		if err != nil || ok {
			return ok, idempEntry{}, err
		}
		cur, err := s.load(ctx, key)
		switch {
		case err == nil:
			return false, cur, nil
		case errors.Is(err, errCorruptEntry):
			s.log.Warn("dropping unreadable idempotency entry", zap.String("key", key), zap.Error(err))
			if err := s.release(ctx, key); err != nil {
				return false, idempEntry{}, err
			}
		case errors.Is(err, redis.Nil):
		default:
			return false, idempEntry{}, err
		}
	}
	return false, idempEntry{}, errKeyContended
}
