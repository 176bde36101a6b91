// Package emergency implements the care-finding workflow entered when a
// triage response escalates: resolve the device position, fetch nearby
// clinics, and feed a map surface.
package emergency

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pethealthai/advisor/internal/auth"
	"github.com/pethealthai/advisor/internal/geo"
	"github.com/pethealthai/advisor/internal/model/vet"
	"github.com/pethealthai/advisor/internal/service/triage"
)

// DefaultUrgentMessage fills in when an escalation arrives without advisory
// text.
const DefaultUrgentMessage = "An urgent pet health situation was detected. Please seek veterinary care immediately."

// NoResultsNotice reports an empty lookup. Distinct from any failure: the
// exchange succeeded, there is simply nothing nearby.
const NoResultsNotice = "No veterinary clinics were automatically found near your current location. Please try a manual search."

// Marker is one plottable clinic position.
type Marker struct {
	Name   string
	Coords vet.Coordinates
}

// MapSurface is the rendering contract: recenter whenever coordinates
// change, one marker per located record. Implementations live outside the
// core.
type MapSurface interface {
	Recenter(vet.Coordinates)
	SetMarkers([]Marker)
}

// VetClient calls the vet-locator endpoint. Same token-acquisition and
// failure-classification contract as the triage client.
type VetClient struct {
	baseURL    string
	tokens     auth.TokenProvider
	httpClient *http.Client
}

// NewVetClient builds a locator client for the backend at baseURL.
func NewVetClient(baseURL string, tokens auth.TokenProvider, timeout time.Duration) *VetClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &VetClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FindNearby posts the origin coordinates and returns the clinics in server
// order. Every returned error is a *triage.Fault.
func (c *VetClient) FindNearby(ctx context.Context, origin vet.Coordinates) ([]vet.Record, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		log.Printf("[vets] token fetch failed: %v", err)
		return nil, triage.AuthFault()
	}

	raw, err := json.Marshal(origin)
	if err != nil {
		return nil, &triage.Fault{Reason: triage.FaultUnknown, Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/find_vets", bytes.NewReader(raw))
	if err != nil {
		return nil, &triage.Fault{Reason: triage.FaultUnknown, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[vets] transport error: %v", err)
		return nil, triage.NetworkFault()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, triage.ResponseFault(resp)
	}

	var payload struct {
		Vets []vet.Record `json:"vets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &triage.Fault{Reason: triage.FaultUnknown, Message: err.Error()}
	}
	return payload.Vets, nil
}

// Report is the finder's outcome handed to the emergency view.
type Report struct {
	Origin vet.Coordinates
	Vets   []vet.Record
	Notice string
}

// Finder runs the two-step pipeline: position first, lookup second. The
// steps are sequential; a position failure halts everything and nothing is
// retried automatically.
type Finder struct {
	locator geo.Locator
	client  *VetClient
}

// NewFinder wires the finder's collaborators.
func NewFinder(locator geo.Locator, client *VetClient) *Finder {
	return &Finder{locator: locator, client: client}
}

// Run resolves the position, updates the surface, and fetches nearby
// clinics. Position failures surface as *geo.LocateError (no lookup is
// attempted); lookup failures as *triage.Fault.
func (f *Finder) Run(ctx context.Context, surface MapSurface) (*Report, error) {
	coords, err := f.locator.Locate(ctx)
	if err != nil {
		return nil, err
	}
	if surface != nil {
		surface.Recenter(coords)
	}

	vets, err := f.client.FindNearby(ctx, coords)
	if err != nil {
		return nil, err
	}

	if surface != nil {
		markers := make([]Marker, 0, len(vets))
		for _, record := range vets {
			pos, ok := record.Position()
			if !ok {
				// Listed but not plotted.
				continue
			}
			markers = append(markers, Marker{Name: record.Name, Coords: pos})
		}
		surface.SetMarkers(markers)
	}

	report := &Report{Origin: coords, Vets: vets}
	if len(vets) == 0 {
		report.Notice = NoResultsNotice
	}
	return report, nil
}
