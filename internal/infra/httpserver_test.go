package infra

import (
	"net/http"
	"testing"
	"time"
)

func TestNewHTTPServerRaisesWriteTimeoutForGeneration(t *testing.T) {
	cfg := &Config{
		Port:              "8080",
		HTTPWriteTimeout:  30 * time.Second,
		GenerationTimeout: 300 * time.Second,
	}
	srv := NewHTTPServer(cfg, http.NewServeMux())
	if want := 310 * time.Second; srv.server.WriteTimeout != want {
		t.Fatalf("WriteTimeout = %s, want %s", srv.server.WriteTimeout, want)
	}
}

func TestNewHTTPServerKeepsGenerousWriteTimeout(t *testing.T) {
	cfg := &Config{
		Port:              "8080",
		HTTPWriteTimeout:  320 * time.Second,
		GenerationTimeout: 300 * time.Second,
	}
	srv := NewHTTPServer(cfg, http.NewServeMux())
	if want := 320 * time.Second; srv.server.WriteTimeout != want {
		t.Fatalf("WriteTimeout = %s, want %s", srv.server.WriteTimeout, want)
	}
}
