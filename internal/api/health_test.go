package api

import (
	"context"
	"net/http"
	"sync"
	"testing"
)

func TestCheckHealth_PlainBody(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		writeJSON(w, http.StatusOK, `{"status":"healthy","version":"1.2.0"}`)
	})
	hs, err := CheckHealth(context.Background(), srv.Client(), srv.URL+"/health")
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if hs.Status != "healthy" || hs.Version != "1.2.0" {
		t.Fatalf("unexpected status: %+v", hs)
	}
}

func TestCheckHealth_EmptyBody(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	hs, err := CheckHealth(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
	if hs.Status != "ok" {
		t.Fatalf("status = %q", hs.Status)
	}
}

func TestCheckHealth_Unhealthy(t *testing.T) {
	t.Parallel()
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if _, err := CheckHealth(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestAnalytics_Paths(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	seen := map[string]bool{}
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path] = true
		mu.Unlock()
		writeJSON(w, http.StatusOK, `{"data":{"total":3}}`)
	})
	ctx := context.Background()
	for _, fn := range []func() error{
		func() error { _, err := GetMeetingAnalytics(ctx, srv.Client(), srv.URL); return err },
		func() error { _, err := GetParticipantAnalytics(ctx, srv.Client(), srv.URL); return err },
		func() error { _, err := GetSentimentAnalytics(ctx, srv.Client(), srv.URL); return err },
		func() error { _, err := GetActionItemAnalytics(ctx, srv.Client(), srv.URL); return err },
	} {
		if err := fn(); err != nil {
			t.Fatalf("analytics: %v", err)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	for _, p := range []string{"/analytics/meetings", "/analytics/participants", "/analytics/action-items", "/analytics/sentiment"} {
		if !seen[p] {
			t.Fatalf("path %s not requested", p)
		}
	}
}
