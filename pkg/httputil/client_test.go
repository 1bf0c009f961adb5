package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "depscope-test" {
			t.Errorf("User-Agent = %q, want depscope-test", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"bash","count":3}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second, map[string]string{"User-Agent": "depscope-test"})
	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Name != "bash" || out.Count != 3 {
		t.Errorf("decoded %+v", out)
	}
}

func TestGetJSON_StatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		wantErr   error
		retryable bool
	}{
		{"not found", http.StatusNotFound, ErrNotFound, false},
		{"server error", http.StatusInternalServerError, ErrNetwork, true},
		{"bad gateway", http.StatusBadGateway, ErrNetwork, true},
		{"forbidden", http.StatusForbidden, ErrNetwork, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			c := NewClient(time.Second, nil)
			err := c.GetJSON(context.Background(), srv.URL, &struct{}{})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			var re *RetryableError
			if got := errors.As(err, &re); got != tt.retryable {
				t.Errorf("retryable = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestGetJSON_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(time.Second, nil)
	err := c.GetJSON(context.Background(), srv.URL, &struct{}{})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Error("connection failure should be retryable")
	}
}

func TestRetry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: ErrNetwork}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return ErrNotFound
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, 10*time.Millisecond, func() error {
		return &RetryableError{Err: ErrNetwork}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
