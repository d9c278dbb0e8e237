package application

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/icon-grid/internal/config"
)

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(":8085")
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if app.server == nil || app.server.Handler == nil {
		t.Fatalf("expected server and root handler to be initialized")
	}

	rec := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/icons", nil))
	var list struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode icon list: %v", err)
	}
	if rec.Code != http.StatusOK || list.Count != 0 {
		t.Fatalf("expected an empty library, got status %d and %d icons", rec.Code, list.Count)
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
	if app.server.Addr != ":8085" {
		t.Fatalf("expected address :8085, got %s", app.server.Addr)
	}
}

func TestNewEnforcesLibraryCapacity(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.MaxIcons = 1

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/icons", bytes.NewReader(buf.Bytes()))
		rec := httptest.NewRecorder()
		app.server.Handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusCreated || codes[1] != http.StatusInsufficientStorage {
		t.Fatalf("expected 201 then 507, got %v", codes)
	}
}

func TestNewAppliesPixelLimit(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.MaxImagePixels = 16

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 5, 5))); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/icons", bytes.NewReader(buf.Bytes()))
	rec := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for a 25 pixel image, got %d", rec.Code)
	}
}

func TestNewAppliesCanvasDefaults(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.DefaultCanvasSize = 90

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/layout?count=9", nil)
	rec := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, req)

	var body struct {
		Size     int `json:"size"`
		CellSize int `json:"cellSize"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Size != 90 || body.CellSize != 30 {
		t.Fatalf("expected size 90 and cell 30, got %+v", body)
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestResolveProjectPathFindsGoMod(t *testing.T) {
	path, err := resolveProjectPath("go.mod")
	if err != nil {
		t.Fatalf("resolveProjectPath returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected go.mod to exist at %s: %v", path, err)
	}
}

func TestNewReturnsErrorForInvalidCanvasBounds(t *testing.T) {
	cfg := baseTestConfig(":0")
	cfg.MinCanvasSize = 1024
	cfg.MaxCanvasSize = 64

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for inverted canvas bounds")
	}
}

func TestResolveProjectPathUnknownTarget(t *testing.T) {
	if _, err := resolveProjectPath("definitely-not-a-real-file"); err == nil {
		t.Fatalf("expected error for missing resource")
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		DefaultCanvasSize:    256,
		MinCanvasSize:        16,
		MaxCanvasSize:        1024,
		MaxUploadBytes:       1 << 20,
		MaxImagePixels:       1 << 20,
		MaxIcons:             8,
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
	}
}
