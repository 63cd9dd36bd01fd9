package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"shelterhub/internal/shelter/models"
	dErrors "shelterhub/pkg/domain-errors"
)

// parseFilter reads the list query. lat, lon and distance must be given
// together.
func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	filter := models.Filter{Search: q.Get("search")}

	if raw := q.Get("status"); raw != "" {
		status := models.Status(raw)
		filter.Status = &status
	}

	flags := []struct {
		name string
		dst  **bool
	}{
		{"pets_allowed", &filter.Flags.PetsAllowed},
		{"barrier_free", &filter.Flags.BarrierFree},
		{"toilet_available", &filter.Flags.ToiletAvailable},
		{"food_available", &filter.Flags.FoodAvailable},
		{"medical_available", &filter.Flags.MedicalAvailable},
		{"wifi_available", &filter.Flags.WifiAvailable},
		{"charging_available", &filter.Flags.ChargingAvailable},
	}
	for _, f := range flags {
		v, err := optionalBool(q, f.name)
		if err != nil {
			return models.Filter{}, err
		}
		*f.dst = v
	}

	near, err := parseRadius(q)
	if err != nil {
		return models.Filter{}, err
	}
	filter.Near = near
	return filter, nil
}

func parseRadius(q url.Values) (*models.Radius, error) {
	lat, lon, dist := q.Get("lat"), q.Get("lon"), q.Get("distance")
	if lat == "" && lon == "" && dist == "" {
		return nil, nil
	}
	if lat == "" || lon == "" || dist == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "lat, lon and distance must be given together")
	}
	var r models.Radius
	var err error
	if r.Lat, err = strconv.ParseFloat(lat, 64); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "lat must be a number")
	}
	if r.Lon, err = strconv.ParseFloat(lon, 64); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "lon must be a number")
	}
	if r.DistanceKm, err = strconv.ParseFloat(dist, 64); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "distance must be a number")
	}
	return &r, nil
}

func optionalBool(q url.Values, name string) (*bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, name+" must be true or false")
	}
	return &v, nil
}
