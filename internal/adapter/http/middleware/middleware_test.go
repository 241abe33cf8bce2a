package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"todostore/internal/core/telemetry"
	ct "todostore/pkg/context"
	"todostore/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func limitedRouter(store RateLimitStore, requests int, metrics *telemetry.AppMetrics) *gin.Engine {
	router := gin.New()
	router.Use(NewRateLimiter(store, requests, time.Minute, logger.NewNop(), metrics).RateLimitMiddleware())
	router.GET("/todos/:id", func(c *gin.Context) { c.JSON(http.StatusOK, "ok") })

	return router
}

func TestRateLimiter_MemoryStore(t *testing.T) {
	RegisterTestingT(t)

	registry := prometheus.NewRegistry()
	router := limitedRouter(NewMemoryStore(), 2, telemetry.NewAppMetrics(registry))

	first := serve(router, http.MethodGet, "/todos/1")
	Expect(first.Code).To(Equal(http.StatusOK))
	Expect(first.Header().Get("X-RateLimit-Limit")).To(Equal("2"))
	Expect(first.Header().Get("X-RateLimit-Remaining")).To(Equal("1"))

	// Different ids share the route template.
	second := serve(router, http.MethodGet, "/todos/2")
	Expect(second.Code).To(Equal(http.StatusOK))
	Expect(second.Header().Get("X-RateLimit-Remaining")).To(Equal("0"))

	third := serve(router, http.MethodGet, "/todos/3")
	Expect(third.Code).To(Equal(http.StatusTooManyRequests))
	Expect(third.Body.String()).To(MatchJSON(`{"err":"rate limit exceeded"}`))
	Expect(third.Header().Get("Retry-After")).To(Equal("60"))

	hits, err := testutil.GatherAndCount(registry, "rate_limit_hits_total")
	Expect(err).To(BeNil())
	Expect(hits).To(Equal(1))
}

func TestMemoryStore_WindowResets(t *testing.T) {
	RegisterTestingT(t)

	now := time.Unix(1700000000, 0)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	count, resetIn, err := store.Increment(context.Background(), "k", time.Minute)
	Expect(err).To(BeNil())
	Expect(count).To(Equal(int64(1)))
	Expect(resetIn).To(Equal(time.Minute))

	now = now.Add(30 * time.Second)
	count, resetIn, _ = store.Increment(context.Background(), "k", time.Minute)
	Expect(count).To(Equal(int64(2)))
	Expect(resetIn).To(Equal(30 * time.Second))

	now = now.Add(31 * time.Second)
	count, _, _ = store.Increment(context.Background(), "k", time.Minute)
	Expect(count).To(Equal(int64(1)))
}

func TestRateLimiter_RedisStore(t *testing.T) {
	RegisterTestingT(t)

	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	router := limitedRouter(NewRedisStore(client), 1, nil)

	Expect(serve(router, http.MethodGet, "/todos/1").Code).To(Equal(http.StatusOK))

	blocked := serve(router, http.MethodGet, "/todos/1")
	Expect(blocked.Code).To(Equal(http.StatusTooManyRequests))
	Expect(blocked.Header().Get("Retry-After")).To(Equal("60"))

	m.FastForward(61 * time.Second)

	Expect(serve(router, http.MethodGet, "/todos/1").Code).To(Equal(http.StatusOK))
}

func TestRateLimiter_StoreFailureLetsRequestThrough(t *testing.T) {
	RegisterTestingT(t)

	m, err := mr.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	m.Close()

	router := limitedRouter(NewRedisStore(client), 1, nil)

	Expect(serve(router, http.MethodGet, "/todos/1").Code).To(Equal(http.StatusOK))
	Expect(serve(router, http.MethodGet, "/todos/1").Code).To(Equal(http.StatusOK))
}

func TestRequestID(t *testing.T) {
	RegisterTestingT(t)

	var seen string

	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		seen = ct.RequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	generated := serve(router, http.MethodGet, "/")
	Expect(generated.Header().Get(RequestIDHeader)).To(HaveLen(36))
	Expect(seen).To(Equal(generated.Header().Get(RequestIDHeader)))

	forwarded := serve(router, http.MethodGet, "/", RequestIDHeader, "abc-123")
	Expect(forwarded.Header().Get(RequestIDHeader)).To(Equal("abc-123"))
	Expect(seen).To(Equal("abc-123"))
}

func TestCORS_Preflight(t *testing.T) {
	RegisterTestingT(t)

	router := gin.New()
	router.Use(CORS())
	router.GET("/todos", func(c *gin.Context) { c.JSON(http.StatusOK, []string{}) })

	preflight := serve(router, http.MethodOptions, "/todos")
	Expect(preflight.Code).To(Equal(http.StatusNoContent))
	Expect(preflight.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))

	get := serve(router, http.MethodGet, "/todos")
	Expect(get.Code).To(Equal(http.StatusOK))
	Expect(get.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
}

func TestHTTPSEnforcer(t *testing.T) {
	RegisterTestingT(t)

	router := gin.New()
	router.Use(NewHTTPSEnforcer(true, logger.NewNop()).HTTPSMiddleware())
	router.GET("/todos", func(c *gin.Context) { c.Status(http.StatusOK) })

	redirected := serve(router, http.MethodGet, "http://todos.example.com/todos?done=1")
	Expect(redirected.Code).To(Equal(http.StatusMovedPermanently))
	Expect(redirected.Header().Get("Location")).To(Equal("https://todos.example.com/todos?done=1"))

	proxied := serve(router, http.MethodGet, "http://todos.example.com/todos", "X-Forwarded-Proto", "https")
	Expect(proxied.Code).To(Equal(http.StatusOK))

	local := serve(router, http.MethodGet, "http://localhost:8080/todos")
	Expect(local.Code).To(Equal(http.StatusOK))
}

func TestMetrics_RecordsRouteTemplate(t *testing.T) {
	RegisterTestingT(t)

	registry := prometheus.NewRegistry()

	router := gin.New()
	router.Use(Metrics(telemetry.NewAppMetrics(registry)))
	router.GET("/todos/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/todos/1")
	serve(router, http.MethodGet, "/todos/2")

	expected := `
# HELP http_requests_total Total number of HTTP requests
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/todos/:id",status="200"} 2
`

	Expect(testutil.GatherAndCompare(registry, strings.NewReader(expected), "http_requests_total")).To(Succeed())
}
