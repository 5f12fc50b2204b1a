package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
	HeaderUserID    = "Ax-User-Id"
	HeaderUserRole  = "Ax-User-Role"
	HeaderReplay    = "Ax-Idempotent-Replay"
)

const (
	// How long we hold the "in-progress" lock before it must be refreshed by finishing the handler.
	provisionalLockTTL = 60 * time.Second
	// Allowed client/server clock skew for Ax-Request-At (in UTC).
	maxClockSkew = 10 * time.Minute
)

type idempEntry struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	if r.buf != nil {
		r.buf.Write(b)
	}
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

func reject(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// IdempotencyMiddleware deduplicates mutating requests per method, concrete
// path, user id and Ax-Request-Id. Ax-Request-At must be epoch (s/ms) or
// RFC3339 with a zone. Responses with a 5xx status are not remembered, so the
// client may retry with the same request id.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	store := entryStore{rdb: rdb, log: log}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			meta, code, err := parseRequestMeta(req.Header, nowUTC())
			if err != nil {
				return reject(c, code, err.Error())
			}

			var body []byte
			if req.Body != nil {
				body, err = io.ReadAll(req.Body)
				if err != nil {
					return reject(c, http.StatusBadRequest, "unreadable request body")
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			bhash := bodyHash(body)

			key := entryKey(req.Method, req.URL.Path, meta.UserID, meta.RequestID)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			owned, cur, err := store.acquire(ctx, key, idempEntry{
				InProgress:  true,
				BodySHA256:  bhash,
				RequestID:   meta.RequestID,
				RequestAtMS: meta.At.UnixMilli(),
				CreatedAt:   nowUTC(),
			})
			switch {
			case errors.Is(err, errKeyContended):
				return reject(c, http.StatusConflict, "request is already in progress")
			case err != nil:
				log.Error("idempotency store unavailable", zap.String("key", key), zap.Error(err))
				return reject(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			case !owned:
				return replay(c, cur, bhash)
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			if rec.code >= http.StatusInternalServerError {
				if err := store.release(context.Background(), key); err != nil {
					log.Warn("release idempotency key", zap.String("key", key), zap.Error(err))
				}
				return nil
			}

			final := idempEntry{
				Code:        rec.code,
				ContentType: rec.Header().Get(echo.HeaderContentType),
				Body:        rec.buf.Bytes(),
				BodySHA256:  bhash,
				RequestID:   meta.RequestID,
				RequestAtMS: meta.At.UnixMilli(),
				CreatedAt:   nowUTC(),
			}
			if err := store.finish(context.Background(), key, final, ttl); err != nil {
				log.Warn("save idempotent response", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
}

// replay answers from an entry another request already holds.
func replay(c echo.Context, cur idempEntry, bhash string) error {
	if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
		return reject(c, http.StatusConflict, HeaderRequestID+" reused with different body")
	}
	if cur.InProgress || cur.Code == 0 {
		return reject(c, http.StatusConflict, "request is already in progress")
	}
	c.Response().Header().Set(HeaderReplay, "true")
	if len(cur.Body) == 0 {
		return c.NoContent(cur.Code)
	}
	ct := cur.ContentType
	if ct == "" {
		ct = echo.MIMEApplicationJSON
	}
	return c.Blob(cur.Code, ct, cur.Body)
}
