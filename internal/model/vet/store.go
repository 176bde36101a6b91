package vet

import "sort"

// Store exposes clinic lookup for the stub backend's handlers.
type Store interface {
	Nearby(origin Coordinates, limit int) []Record
}

// MemoryStore implements Store with an in-memory slice, suitable for the
// development backend.
type MemoryStore struct {
	items []Record
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied records.
func NewMemoryStore(items []Record) *MemoryStore {
	return &MemoryStore{items: append([]Record(nil), items...)}
}

// Nearby returns up to limit records ordered by distance from origin.
// Records without coordinates sort last.
func (s *MemoryStore) Nearby(origin Coordinates, limit int) []Record {
	out := append([]Record(nil), s.items...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, oki := out[i].Position()
		pj, okj := out[j].Position()
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		return DistanceKm(origin, pi) < DistanceKm(origin, pj)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func ptrFloat(v float64) *float64 { return &v }
func ptrBool(v bool) *bool        { return &v }

// Seed provides the development backend's default clinic set.
func Seed() []Record {
	return []Record{
		{
			ID:        "vet-emerald-city",
			Name:      "Emerald City Emergency Vet",
			Address:   "4102 Stone Way N, Seattle, WA 98103",
			Phone:     "+1 206-555-0134",
			Rating:    ptrFloat(4.7),
			OpenNow:   ptrBool(true),
			Latitude:  ptrFloat(47.6569),
			Longitude: ptrFloat(-122.3422),
		},
		{
			ID:        "vet-rainier",
			Name:      "Rainier Animal Hospital",
			Address:   "3809 Rainier Ave S, Seattle, WA 98118",
			Phone:     "+1 206-555-0178",
			Rating:    ptrFloat(4.4),
			OpenNow:   ptrBool(true),
			Latitude:  ptrFloat(47.5721),
			Longitude: ptrFloat(-122.2968),
		},
		{
			ID:        "vet-ballard",
			Name:      "Ballard 24h Pet Clinic",
			Address:   "1442 NW Market St, Seattle, WA 98107",
			Phone:     "+1 206-555-0102",
			Rating:    ptrFloat(4.9),
			OpenNow:   ptrBool(true),
			Latitude:  ptrFloat(47.6687),
			Longitude: ptrFloat(-122.3764),
		},
		{
			ID:      "vet-mobile-care",
			Name:    "Puget Mobile Vet Care",
			Phone:   "+1 206-555-0190",
			Rating:  ptrFloat(4.1),
			OpenNow: ptrBool(false),
			// Mobile unit, no fixed coordinates to plot.
		},
		{
			ID:        "vet-eastside",
			Name:      "Eastside Veterinary Specialists",
			Address:   "2115 112th Ave NE, Bellevue, WA 98004",
			Phone:     "+1 425-555-0147",
			Rating:    ptrFloat(4.6),
			OpenNow:   ptrBool(false),
			Latitude:  ptrFloat(47.6262),
			Longitude: ptrFloat(-122.1858),
		},
	}
}
