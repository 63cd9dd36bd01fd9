package models

import (
	"math"
	"strings"

	dErrors "shelterhub/pkg/domain-errors"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in kilometres.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

// Radius restricts results to points within DistanceKm of (Lat, Lon), inclusive.
type Radius struct {
	Lat        float64
	Lon        float64
	DistanceKm float64
}

func (r Radius) Contains(lat, lon float64) bool {
	return HaversineKm(r.Lat, r.Lon, lat, lon) <= r.DistanceKm
}

// CapabilityFilter holds exact-match predicates on capability flags.
type CapabilityFilter struct {
	PetsAllowed       *bool
	BarrierFree       *bool
	ToiletAvailable   *bool
	FoodAvailable     *bool
	MedicalAvailable  *bool
	WifiAvailable     *bool
	ChargingAvailable *bool
}

// Columns pairs each set predicate with its column name.
func (c CapabilityFilter) Columns() []FlagPredicate {
	var out []FlagPredicate
	add := func(col string, v *bool) {
		if v != nil {
			out = append(out, FlagPredicate{Column: col, Value: *v})
		}
	}
	add("pets_allowed", c.PetsAllowed)
	add("barrier_free", c.BarrierFree)
	add("toilet_available", c.ToiletAvailable)
	add("food_available", c.FoodAvailable)
	add("medical_available", c.MedicalAvailable)
	add("wifi_available", c.WifiAvailable)
	add("charging_available", c.ChargingAvailable)
	return out
}

type FlagPredicate struct {
	Column string
	Value  bool
}

func (c CapabilityFilter) matches(caps Capabilities) bool {
	check := func(want *bool, got bool) bool { return want == nil || *want == got }
	return check(c.PetsAllowed, caps.PetsAllowed) &&
		check(c.BarrierFree, caps.BarrierFree) &&
		check(c.ToiletAvailable, caps.ToiletAvailable) &&
		check(c.FoodAvailable, caps.FoodAvailable) &&
		check(c.MedicalAvailable, caps.MedicalAvailable) &&
		check(c.WifiAvailable, caps.WifiAvailable) &&
		check(c.ChargingAvailable, caps.ChargingAvailable)
}

// Filter is a conjunction of optional predicates; the zero value matches everything.
type Filter struct {
	Search string
	Status *Status
	Flags  CapabilityFilter
	Near   *Radius
}

func (f Filter) Validate() error {
	if f.Status != nil && !f.Status.IsValid() {
		return invalidStatus(*f.Status)
	}
	if f.Near != nil {
		if err := validateCoordinates(f.Near.Lat, f.Near.Lon); err != nil {
			return err
		}
		if !(f.Near.DistanceKm >= 0) {
			return dErrors.New(dErrors.CodeValidation, "distance must not be negative")
		}
	}
	return nil
}

// Matches applies every predicate to s.
func (f Filter) Matches(s *Shelter) bool {
	return f.MatchesAttributes(s) && f.WithinRadius(s)
}

// MatchesAttributes applies the non-geographic predicates.
func (f Filter) MatchesAttributes(s *Shelter) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(s.Name), q) && !strings.Contains(strings.ToLower(s.Address), q) {
			return false
		}
	}
	if f.Status != nil && s.Status != *f.Status {
		return false
	}
	return f.Flags.matches(s.Capabilities)
}

// WithinRadius applies the radius predicate, if any.
func (f Filter) WithinRadius(s *Shelter) bool {
	return f.Near == nil || f.Near.Contains(s.Latitude, s.Longitude)
}
