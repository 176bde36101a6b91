// Package geo resolves the device's position for the emergency workflow.
// Acquisition is one-shot with an explicit timeout and no cached fallback.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/pethealthai/advisor/internal/model/vet"
)

// Reason classifies why a location could not be acquired.
type Reason string

const (
	ReasonPermissionDenied Reason = "permission_denied"
	ReasonUnavailable      Reason = "unavailable"
	ReasonTimeout          Reason = "timeout"
	ReasonUnsupported      Reason = "unsupported"
)

// DefaultTimeout bounds the one-shot position query.
const DefaultTimeout = 10 * time.Second

// LocateError maps each failure reason to a distinct user-facing message.
// Any locate failure halts the vet-lookup pipeline.
type LocateError struct {
	Reason  Reason
	Message string
}

func (e *LocateError) Error() string { return e.Message }

func newLocateError(reason Reason) *LocateError {
	switch reason {
	case ReasonPermissionDenied:
		return &LocateError{reason, "Location access denied. Please allow location access to find nearby vets."}
	case ReasonTimeout:
		return &LocateError{reason, "Getting your location timed out."}
	case ReasonUnsupported:
		return &LocateError{reason, "Location lookup is not supported on this device. Please search for a vet manually."}
	default:
		return &LocateError{ReasonUnavailable, "Location information is unavailable."}
	}
}

// Locator is the platform's one-shot position query.
type Locator interface {
	Locate(ctx context.Context) (vet.Coordinates, error)
}

// Static serves a fixed, user-configured position.
type Static struct {
	Coords vet.Coordinates
}

func (s Static) Locate(_ context.Context) (vet.Coordinates, error) {
	return s.Coords, nil
}

// Unsupported is the locator used when no position source is configured.
type Unsupported struct{}

func (Unsupported) Locate(_ context.Context) (vet.Coordinates, error) {
	return vet.Coordinates{}, newLocateError(ReasonUnsupported)
}

// IPLocator queries an IP-geolocation service. Best effort accuracy for a
// terminal client, but it honors the one-shot/timeout/no-cache contract.
type IPLocator struct {
	endpoint   string
	httpClient *http.Client
}

// NewIPLocator builds a locator against endpoint, expected to answer GET
// with {"status", "lat", "lon"}.
func NewIPLocator(endpoint string, timeout time.Duration) *IPLocator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &IPLocator{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type ipResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (l *IPLocator) Locate(ctx context.Context) (vet.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return vet.Coordinates{}, newLocateError(ReasonUnavailable)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return vet.Coordinates{}, newLocateError(ReasonTimeout)
		}
		log.Printf("[geo] position query failed: %v", err)
		return vet.Coordinates{}, newLocateError(ReasonUnavailable)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return vet.Coordinates{}, newLocateError(ReasonPermissionDenied)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[geo] position service status %d", resp.StatusCode)
		return vet.Coordinates{}, newLocateError(ReasonUnavailable)
	}

	var payload ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return vet.Coordinates{}, newLocateError(ReasonUnavailable)
	}
	if payload.Status != "" && payload.Status != "success" {
		log.Printf("[geo] position service refused: %s", payload.Message)
		return vet.Coordinates{}, newLocateError(ReasonUnavailable)
	}
	if payload.Lat == 0 && payload.Lon == 0 {
		return vet.Coordinates{}, newLocateError(ReasonUnavailable)
	}
	return vet.Coordinates{Latitude: payload.Lat, Longitude: payload.Lon}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// FromConfig picks the locator for the given settings: explicit coordinates
// win, then an IP-geolocation endpoint, else location is unsupported.
func FromConfig(lat, lon *float64, endpoint string, timeout time.Duration) (Locator, error) {
	switch {
	case lat != nil && lon != nil:
		return Static{Coords: vet.Coordinates{Latitude: *lat, Longitude: *lon}}, nil
	case lat != nil || lon != nil:
		return nil, fmt.Errorf("latitude and longitude must be configured together")
	case endpoint != "":
		return NewIPLocator(endpoint, timeout), nil
	default:
		return Unsupported{}, nil
	}
}
