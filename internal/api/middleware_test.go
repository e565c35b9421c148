package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	engine := gin.New()
	engine.Use(RateLimit(60, 3))
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	allowed, limited := 0, 0
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		engine.ServeHTTP(w, req)

		switch w.Code {
		case http.StatusOK:
			allowed++
		case http.StatusTooManyRequests:
			limited++
		default:
			t.Fatalf("unexpected status %d", w.Code)
		}
	}

	if allowed == 0 || limited == 0 {
		t.Errorf("allowed=%d limited=%d, want both non-zero", allowed, limited)
	}
	if allowed > 4 {
		t.Errorf("allowed=%d exceeds burst of 3", allowed)
	}
}

func TestRateLimitIsPerClient(t *testing.T) {
	engine := gin.New()
	engine.Use(RateLimit(60, 1))
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.3:1"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = addr
		engine.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("request %d from fresh client got %d", i, w.Code)
		}
	}
}

func TestRateLimiterSweepsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(60, 1)

	// A drained bucket must survive the sweep; a full one must not.
	rl.limiter("drained").Allow()
	rl.limiter("idle")

	rl.mu.Lock()
	if len(rl.limiters) != 2 {
		rl.mu.Unlock()
		t.Fatalf("limiter map holds %d buckets, want 2", len(rl.limiters))
	}
	rl.lastCleanup = time.Now().Add(-2 * cleanupInterval)
	rl.mu.Unlock()

	// Any request past the interval triggers the sweep inline.
	rl.limiter("fresh")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.limiters["idle"]; ok {
		t.Error("refilled bucket survived the sweep")
	}
	if _, ok := rl.limiters["drained"]; !ok {
		t.Error("in-use bucket was swept")
	}
	if _, ok := rl.limiters["fresh"]; !ok {
		t.Error("triggering key was not registered")
	}
}

func TestFormImage(t *testing.T) {
	t.Run("missing file is not an error", func(t *testing.T) {
		c := multipartContext(t, nil)
		image, closeFn, err := formImage(c, "image")
		defer closeFn()
		if err != nil {
			t.Fatalf("formImage: %v", err)
		}
		if image != nil {
			t.Error("expected nil image for absent field")
		}
	})

	t.Run("file is read with metadata", func(t *testing.T) {
		c := multipartContext(t, map[string][]byte{"image": []byte("png-data")})
		image, closeFn, err := formImage(c, "image")
		defer closeFn()
		if err != nil {
			t.Fatalf("formImage: %v", err)
		}
		if image == nil {
			t.Fatal("expected image")
		}
		if image.Size != int64(len("png-data")) {
			t.Errorf("size = %d", image.Size)
		}
		if image.ContentType == "" {
			t.Error("content type missing")
		}
	})
}

func TestOptionalForm(t *testing.T) {
	c := multipartContext(t, nil)
	c.Request.PostForm = map[string][]string{"location": {"Berlin"}, "empty": {""}}

	if got := optionalForm(c, "location"); got == nil || *got != "Berlin" {
		t.Errorf("location = %v", got)
	}
	if got := optionalForm(c, "empty"); got != nil {
		t.Errorf("empty field = %v, want nil", got)
	}
	if got := optionalForm(c, "absent"); got != nil {
		t.Errorf("absent field = %v, want nil", got)
	}
}

// multipartContext builds a gin context carrying a multipart form with the
// given file fields.
func multipartContext(t *testing.T, files map[string][]byte) *gin.Context {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for field, data := range files {
		part, err := writer.CreateFormFile(field, field+".png")
		if err != nil {
			t.Fatal(err)
		}
		part.Write(data)
	}
	writer.Close()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", &body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	return c
}
