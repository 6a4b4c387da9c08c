package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"civicengine-be/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func limiterTestRouter(userID string, limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/issues", func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	}, IssueRateLimiter(limit), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"success": true})
	})
	return r
}

func withMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)

	prev := config.RedisClient
	config.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		config.RedisClient.Close()
		config.RedisClient = prev
	})
	return mr
}

func TestIssueRateLimiterUnderLimit(t *testing.T) {
	withMiniredis(t)
	router := limiterTestRouter("user-1", 3)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/issues", nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d, want 201", i+1, w.Code)
		}
	}
}

func TestIssueRateLimiterOverLimit(t *testing.T) {
	withMiniredis(t)
	router := limiterTestRouter("user-2", 2)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/issues", nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d, want 201", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/issues", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 (body %s)", w.Code, w.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if _, ok := body["retry_after"]; !ok {
		t.Error("429 body missing retry_after")
	}
}

func TestIssueRateLimiterPerUserKeys(t *testing.T) {
	withMiniredis(t)

	// user-3 exhausts their allowance
	router := limiterTestRouter("user-3", 1)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/issues", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("first request: status = %d, want 201", w.Code)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/issues", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", w.Code)
	}

	// user-4 is unaffected
	other := limiterTestRouter("user-4", 1)
	w = httptest.NewRecorder()
	other.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/issues", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("other user: status = %d, want 201", w.Code)
	}
}

func TestIssueRateLimiterMissingUser(t *testing.T) {
	withMiniredis(t)
	router := limiterTestRouter("", 5)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/issues", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestIssueRateLimiterWithoutRedis(t *testing.T) {
	prev := config.RedisClient
	config.RedisClient = nil
	t.Cleanup(func() { config.RedisClient = prev })

	router := limiterTestRouter("user-5", 1)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/issues", nil))
		if w.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d, want 201 when redis is down", i+1, w.Code)
		}
	}
}
