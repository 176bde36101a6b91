package geo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pethealthai/advisor/internal/model/vet"
)

func requireLocateError(t *testing.T, err error, want Reason) {
	t.Helper()
	var le *LocateError
	if !errors.As(err, &le) {
		t.Fatalf("error %T is not a *LocateError", err)
	}
	if le.Reason != want {
		t.Fatalf("reason = %s, want %s", le.Reason, want)
	}
	if le.Message == "" {
		t.Fatal("locate error must carry a user-facing message")
	}
}

func TestStaticLocator(t *testing.T) {
	coords, err := Static{Coords: vet.Coordinates{Latitude: 47.6, Longitude: -122.3}}.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate err: %v", err)
	}
	if coords.Latitude != 47.6 || coords.Longitude != -122.3 {
		t.Fatalf("coords = %+v", coords)
	}
}

func TestUnsupportedLocator(t *testing.T) {
	_, err := Unsupported{}.Locate(context.Background())
	requireLocateError(t, err, ReasonUnsupported)
}

func TestIPLocatorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cc := r.Header.Get("Cache-Control"); cc != "no-cache" {
			t.Errorf("Cache-Control = %q, want no-cache", cc)
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "lat": 47.6062, "lon": -122.3321})
	}))
	defer srv.Close()

	coords, err := NewIPLocator(srv.URL, time.Second).Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate err: %v", err)
	}
	if coords.Latitude != 47.6062 || coords.Longitude != -122.3321 {
		t.Fatalf("coords = %+v", coords)
	}
}

func TestIPLocatorServiceFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "fail", "message": "private range"})
	}))
	defer srv.Close()

	_, err := NewIPLocator(srv.URL, time.Second).Locate(context.Background())
	requireLocateError(t, err, ReasonUnavailable)
}

func TestIPLocatorDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewIPLocator(srv.URL, time.Second).Locate(context.Background())
	requireLocateError(t, err, ReasonPermissionDenied)
}

func TestIPLocatorTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	_, err := NewIPLocator(srv.URL, 50*time.Millisecond).Locate(context.Background())
	requireLocateError(t, err, ReasonTimeout)
}

func TestFromConfig(t *testing.T) {
	lat, lon := 1.0, 2.0

	loc, err := FromConfig(&lat, &lon, "", 0)
	if err != nil {
		t.Fatalf("FromConfig err: %v", err)
	}
	if _, ok := loc.(Static); !ok {
		t.Fatalf("locator = %T, want Static", loc)
	}

	if _, err := FromConfig(&lat, nil, "", 0); err == nil {
		t.Fatal("half-configured coordinates must be rejected")
	}

	loc, err = FromConfig(nil, nil, "http://geo.example", 0)
	if err != nil {
		t.Fatalf("FromConfig err: %v", err)
	}
	if _, ok := loc.(*IPLocator); !ok {
		t.Fatalf("locator = %T, want *IPLocator", loc)
	}

	loc, err = FromConfig(nil, nil, "", 0)
	if err != nil {
		t.Fatalf("FromConfig err: %v", err)
	}
	if _, ok := loc.(Unsupported); !ok {
		t.Fatalf("locator = %T, want Unsupported", loc)
	}
}
