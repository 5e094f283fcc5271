package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go-wages/internal/shared/apperror"
	"go-wages/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader    = "Idempotency-Key"
	idempotencyLockTTL   = 5 * time.Minute
	idempotencyReplayTTL = 24 * time.Hour
)

var errRequestInFlight = apperror.New(
	apperror.CodeConflict,
	"A request with this Idempotency-Key is still being processed",
	http.StatusConflict,
)

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response for a repeated POST carrying the
// same Idempotency-Key, and rejects a duplicate while the first is running.
func Idempotency(rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("middleware.idempotency")
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if rdb == nil || key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := fmt.Sprintf("idemp:%s:%s", c.FullPath(), key)
		lockKey := cacheKey + ":lock"

		if cached, err := rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			status, body := decodeStored(cached)
			c.Header("Idempotent-Replay", "true")
			c.Data(status, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}

		acquired, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			log.Warn("idempotency lock unavailable, continuing without it", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			response.AbortWithError(c, errRequestInFlight)
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec

		c.Next()

		if status := rec.Status(); status >= 200 && status < 300 {
			if err := rdb.Set(ctx, cacheKey, encodeStored(status, rec.body.Bytes()), idempotencyReplayTTL).Err(); err != nil {
				log.Warn("store idempotent response failed", zap.String("key", cacheKey), zap.Error(err))
			}
		}
		if err := rdb.Del(ctx, lockKey).Err(); err != nil {
			log.Warn("release idempotency lock failed", zap.String("key", lockKey), zap.Error(err))
		}
	}
}

// Stored responses are "<status>\n<body>" so a replay keeps the original code.
func encodeStored(status int, body []byte) []byte {
	out := strconv.AppendInt(nil, int64(status), 10)
	out = append(out, '\n')
	return append(out, body...)
}

func decodeStored(raw []byte) (int, []byte) {
	head, body, ok := bytes.Cut(raw, []byte{'\n'})
	if !ok {
		return http.StatusOK, raw
	}
	status, err := strconv.Atoi(string(head))
	if err != nil {
		return http.StatusOK, raw
	}
	return status, body
}
