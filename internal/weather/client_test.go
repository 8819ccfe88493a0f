package weather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(baseURL string) *OpenWeatherClient {
	return NewOpenWeatherClient(baseURL, "test-key", "metric", "fr", &http.Client{}, testLogger())
}

func TestCurrentByCitySuccess(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Paris","main":{"temp":15.2},"weather":[{"description":"ciel dégagé","icon":"01d"}]}`))
	}))
	defer upstream.Close()

	client := newTestClient(upstream.URL)
	result, err := client.CurrentByCity(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.City != "Paris" {
		t.Errorf("expected city 'Paris', got '%s'", result.City)
	}
	if result.Temp != 15.2 {
		t.Errorf("expected temp 15.2, got %v", result.Temp)
	}
	if result.Description != "ciel dégagé" {
		t.Errorf("expected description 'ciel dégagé', got '%s'", result.Description)
	}
	if result.Icon != "01d" {
		t.Errorf("expected icon '01d', got '%s'", result.Icon)
	}
}

func TestCurrentByCityQueryParams(t *testing.T) {
	var gotQuery map[string]string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"q":     r.URL.Query().Get("q"),
			"appid": r.URL.Query().Get("appid"),
			"units": r.URL.Query().Get("units"),
			"lang":  r.URL.Query().Get("lang"),
		}
		w.Write([]byte(`{"name":"New York","main":{"temp":1},"weather":[]}`))
	}))
	defer upstream.Close()

	client := newTestClient(upstream.URL)
	// Город с пробелом должен уйти percent-encoded и вернуться без искажений
	if _, err := client.CurrentByCity(context.Background(), "New York"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery["q"] != "New York" {
		t.Errorf("expected q 'New York', got '%s'", gotQuery["q"])
	}
	if gotQuery["appid"] != "test-key" {
		t.Errorf("expected appid 'test-key', got '%s'", gotQuery["appid"])
	}
	if gotQuery["units"] != "metric" {
		t.Errorf("expected units 'metric', got '%s'", gotQuery["units"])
	}
	if gotQuery["lang"] != "fr" {
		t.Errorf("expected lang 'fr', got '%s'", gotQuery["lang"])
	}
}

func TestCurrentByCityNotConfigured(t *testing.T) {
	called := false
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer upstream.Close()

	client := NewOpenWeatherClient(upstream.URL, "", "metric", "fr", &http.Client{}, testLogger())
	_, err := client.CurrentByCity(context.Background(), "Paris")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if called {
		t.Error("upstream must not be called without an API key")
	}
}

func TestCurrentByCityNotFound(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer upstream.Close()

	client := newTestClient(upstream.URL)
	_, err := client.CurrentByCity(context.Background(), "Nowhere")
	if !errors.Is(err, ErrCityNotFound) {
		t.Fatalf("expected ErrCityNotFound, got %v", err)
	}
}

func TestCurrentByCityUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	client := newTestClient(upstream.URL)
	_, err := client.CurrentByCity(context.Background(), "Paris")
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestCurrentByCityMissingConditions(t *testing.T) {
	// Пустой weather -> значения по умолчанию "N/A"
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Paris","main":{"temp":15.2},"weather":[]}`))
	}))
	defer upstream.Close()

	client := newTestClient(upstream.URL)
	result, err := client.CurrentByCity(context.Background(), "Paris")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Description != "N/A" {
		t.Errorf("expected description 'N/A', got '%s'", result.Description)
	}
	if result.Icon != "N/A" {
		t.Errorf("expected icon 'N/A', got '%s'", result.Icon)
	}
	if result.Temp != 15.2 {
		t.Errorf("temp must stay unaffected, got %v", result.Temp)
	}
}

func TestCurrentByCityBadPayload(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing main", `{"name":"Paris","weather":[]}`},
		{"missing temp", `{"name":"Paris","main":{},"weather":[]}`},
		{"missing name", `{"main":{"temp":1},"weather":[]}`},
		{"broken json", `{"name":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer upstream.Close()

			client := newTestClient(upstream.URL)
			_, err := client.CurrentByCity(context.Background(), "Paris")
			if !errors.Is(err, ErrBadPayload) {
				t.Fatalf("expected ErrBadPayload, got %v", err)
			}
		})
	}
}

func TestCurrentByCityTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"name":"Paris","main":{"temp":1},"weather":[]}`))
	}))
	defer upstream.Close()

	client := newTestClient(upstream.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.CurrentByCity(ctx, "Paris")
	if !errors.Is(err, ErrUpstreamTimeout) {
		t.Fatalf("expected ErrUpstreamTimeout, got %v", err)
	}
}

func TestCurrentByCityNetworkFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close() // Сервер уже закрыт, вызов упадет на транспорте

	client := newTestClient(upstream.URL)
	_, err := client.CurrentByCity(context.Background(), "Paris")
	if err == nil {
		t.Fatal("expected error for unreachable upstream")
	}
	for _, sentinel := range []error{ErrCityNotFound, ErrUpstream, ErrUpstreamTimeout, ErrBadPayload, ErrNotConfigured} {
		if errors.Is(err, sentinel) {
			t.Fatalf("transport failure must not map to %v", sentinel)
		}
	}
}
