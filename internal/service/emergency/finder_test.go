package emergency_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pethealthai/advisor/internal/auth"
	"github.com/pethealthai/advisor/internal/geo"
	"github.com/pethealthai/advisor/internal/model/vet"
	"github.com/pethealthai/advisor/internal/service/emergency"
	"github.com/pethealthai/advisor/internal/service/triage"
)

type recordingSurface struct {
	centers []vet.Coordinates
	markers []emergency.Marker
}

func (s *recordingSurface) Recenter(c vet.Coordinates)      { s.centers = append(s.centers, c) }
func (s *recordingSurface) SetMarkers(m []emergency.Marker) { s.markers = m }

func staticLocator(lat, lon float64) geo.Locator {
	return geo.Static{Coords: vet.Coordinates{Latitude: lat, Longitude: lon}}
}

func TestRunHappyPath(t *testing.T) {
	var gotOrigin vet.Coordinates
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/find_vets" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotOrigin); err != nil {
			t.Errorf("decoding origin: %v", err)
		}
		lat1, lon1 := 47.66, -122.34
		json.NewEncoder(w).Encode(map[string]any{
			"vets": []vet.Record{
				{ID: "a", Name: "Plotted Clinic", Latitude: &lat1, Longitude: &lon1},
				{ID: "b", Name: "Mobile Unit"}, // no coordinates
			},
		})
	}))
	defer srv.Close()

	client := emergency.NewVetClient(srv.URL, auth.StaticProvider("tok"), time.Second)
	finder := emergency.NewFinder(staticLocator(47.6, -122.3), client)
	surface := &recordingSurface{}

	report, err := finder.Run(context.Background(), surface)
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}

	if gotOrigin.Latitude != 47.6 || gotOrigin.Longitude != -122.3 {
		t.Fatalf("origin sent = %+v", gotOrigin)
	}
	if len(report.Vets) != 2 {
		t.Fatalf("vets = %d, want 2 (server order, unlocated listed)", len(report.Vets))
	}
	if report.Notice != "" {
		t.Fatalf("unexpected notice: %q", report.Notice)
	}
	if len(surface.centers) != 1 || surface.centers[0] != gotOrigin {
		t.Fatalf("surface centers = %+v", surface.centers)
	}
	if len(surface.markers) != 1 || surface.markers[0].Name != "Plotted Clinic" {
		t.Fatalf("markers = %+v, want only the located record", surface.markers)
	}
}

func TestRunLocateFailureSkipsLookup(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	client := emergency.NewVetClient(srv.URL, auth.StaticProvider("tok"), time.Second)
	finder := emergency.NewFinder(geo.Unsupported{}, client)

	_, err := finder.Run(context.Background(), &recordingSurface{})
	var le *geo.LocateError
	if !errors.As(err, &le) {
		t.Fatalf("error %T, want *geo.LocateError", err)
	}
	if requests != 0 {
		t.Fatalf("lookup was attempted despite locate failure: %d requests", requests)
	}
}

func TestRunEmptyResultIsNoticeNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"vets": []vet.Record{}})
	}))
	defer srv.Close()

	client := emergency.NewVetClient(srv.URL, auth.StaticProvider("tok"), time.Second)
	finder := emergency.NewFinder(staticLocator(1, 2), client)

	report, err := finder.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty result must not be an error: %v", err)
	}
	if report.Notice != emergency.NoResultsNotice {
		t.Fatalf("notice = %q", report.Notice)
	}
}

func TestRunAuthFailureDistinctFromServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := emergency.NewVetClient(srv.URL, auth.StaticProvider("tok"), time.Second)
	finder := emergency.NewFinder(staticLocator(1, 2), client)

	_, err := finder.Run(context.Background(), nil)
	var fault *triage.Fault
	if !errors.As(err, &fault) {
		t.Fatalf("error %T, want *triage.Fault", err)
	}
	if fault.Reason != triage.FaultUnauthenticated {
		t.Fatalf("reason = %s, want unauthenticated", fault.Reason)
	}
}

func TestRunTokenFailureSkipsLookup(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	client := emergency.NewVetClient(srv.URL, auth.StaticProvider(""), time.Second)
	finder := emergency.NewFinder(staticLocator(1, 2), client)

	_, err := finder.Run(context.Background(), nil)
	var fault *triage.Fault
	if !errors.As(err, &fault) || fault.Reason != triage.FaultUnauthenticated {
		t.Fatalf("err = %v, want unauthenticated fault", err)
	}
	if requests != 0 {
		t.Fatalf("expected no HTTP request, saw %d", requests)
	}
}
