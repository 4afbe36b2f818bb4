package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"account-ledger/internal/adapter/storage/redis"
	"account-ledger/internal/core/ports"
	"account-ledger/internal/core/ports/mocks"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func setupIdempotencyRouter(cache ports.IdempotencyCache, calls *int, status int) *gin.Engine {
	r := gin.New()
	auth := func(c *gin.Context) {
		if id := c.GetHeader("X-Test-Client"); id != "" {
			c.Set(CtxClientID, id)
		}
		c.Next()
	}
	handle := func(c *gin.Context) {
		*calls++
		c.JSON(status, gin.H{"call": *calls, "path": c.Request.URL.Path})
	}
	idem := Idempotency(cache, time.Hour, zerolog.Nop())
	r.POST("/accounts/:id/deposit", auth, idem, handle)
	r.POST("/accounts/:id/withdraw", auth, idem, handle)
	return r
}

func idempotentRequest(client, key string) *http.Request {
	return idempotentRequestTo("/accounts/A1/deposit", client, key)
}

func idempotentRequestTo(path, client, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if client != "" {
		req.Header.Set("X-Test-Client", client)
	}
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	return req
}

func newRedisIdempotencyCache(t *testing.T) *redis.IdempotencyCache {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.NewIdempotencyCache(client)
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	calls := 0
	router := setupIdempotencyRouter(newRedisIdempotencyCache(t), &calls, http.StatusOK)

	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, idempotentRequest("CLIENT1", "dep-1"))
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, idempotentRequest("CLIENT1", "dep-1"))

	assert.Equal(t, 1, calls, "handler must run once")
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.JSONEq(t, w1.Body.String(), w2.Body.String())
	assert.Equal(t, "true", w2.Header().Get(HeaderReplayed))
}

func TestIdempotency_KeysAreScopedPerClient(t *testing.T) {
	calls := 0
	router := setupIdempotencyRouter(newRedisIdempotencyCache(t), &calls, http.StatusOK)

	router.ServeHTTP(httptest.NewRecorder(), idempotentRequest("CLIENT1", "same"))
	router.ServeHTTP(httptest.NewRecorder(), idempotentRequest("CLIENT2", "same"))

	assert.Equal(t, 2, calls)
}

func TestIdempotency_KeysAreScopedPerOperation(t *testing.T) {
	calls := 0
	router := setupIdempotencyRouter(newRedisIdempotencyCache(t), &calls, http.StatusCreated)

	router.ServeHTTP(httptest.NewRecorder(), idempotentRequestTo("/accounts/A1/deposit", "CLIENT1", "k1"))

	for _, path := range []string{"/accounts/A2/withdraw", "/accounts/A2/deposit", "/accounts/A1/withdraw"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, idempotentRequestTo(path, "CLIENT1", "k1"))
		assert.Empty(t, w.Header().Get(HeaderReplayed), path)
		assert.Contains(t, w.Body.String(), path)
	}
	assert.Equal(t, 4, calls)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, idempotentRequestTo("/accounts/A2/withdraw", "CLIENT1", "k1"))
	assert.Equal(t, "true", w.Header().Get(HeaderReplayed))
	assert.Equal(t, 4, calls)
}

func TestBuildIdempotencyKey(t *testing.T) {
	assert.Equal(t, "CLIENT1:POST:/accounts/A1/deposit:k1",
		BuildIdempotencyKey("CLIENT1", http.MethodPost, "/accounts/A1/deposit", "k1"))
	assert.NotEqual(t,
		BuildIdempotencyKey("CLIENT1", http.MethodPost, "/accounts/A1/deposit", "k1"),
		BuildIdempotencyKey("CLIENT1", http.MethodPost, "/accounts/A2/deposit", "k1"))
}

func TestIdempotency_FailuresAreNotStored(t *testing.T) {
	calls := 0
	router := setupIdempotencyRouter(newRedisIdempotencyCache(t), &calls, http.StatusPaymentRequired)

	router.ServeHTTP(httptest.NewRecorder(), idempotentRequest("CLIENT1", "dep-2"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, idempotentRequest("CLIENT1", "dep-2"))

	assert.Equal(t, 2, calls)
	assert.Empty(t, w.Header().Get(HeaderReplayed))
}

func TestIdempotency_PassThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockIdempotencyCache(ctrl)
	// No expectations - the cache is not touched without a key or a client.
	calls := 0
	router := setupIdempotencyRouter(cache, &calls, http.StatusOK)

	router.ServeHTTP(httptest.NewRecorder(), idempotentRequest("CLIENT1", ""))
	router.ServeHTTP(httptest.NewRecorder(), idempotentRequest("", "dep-3"))
	assert.Equal(t, 2, calls)
}

func TestIdempotency_CacheErrorProcessesRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockIdempotencyCache(ctrl)
	cache.EXPECT().Get(gomock.Any(), "CLIENT1:POST:/accounts/A1/deposit:dep-4").Return(nil, errors.New("redis down"))
	cache.EXPECT().Set(gomock.Any(), "CLIENT1:POST:/accounts/A1/deposit:dep-4", gomock.Any(), time.Hour).Return(errors.New("redis down"))

	calls := 0
	router := setupIdempotencyRouter(cache, &calls, http.StatusOK)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, idempotentRequest("CLIENT1", "dep-4"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}
