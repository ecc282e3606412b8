package container

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-photo-qc/internal/config"
)

func TestNewContainer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Host:                "127.0.0.1",
		Port:                "8080",
		RequestTimeout:      5 * time.Second,
		ImageFetchTimeout:   time.Second,
		AnalysisTimeout:     time.Second,
		MaxRequestBodySize:  1 << 20,
		ChromaticShiftRange: 5,
		FFTMaskRadius:       30,
		MedianFilterWindow:  5,
		BatchConcurrency:    2,
	}

	c, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer c.Close()

	if c.Config() != cfg {
		t.Error("Expected container to keep the given config")
	}
	if len(c.Service().Metrics()) == 0 {
		t.Error("Expected registered metrics")
	}

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from /health, got %d", w.Code)
	}
}
