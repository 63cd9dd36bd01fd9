package models

import (
	"time"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusClosed
}

// Capabilities are the named boolean facilities a shelter advertises.
type Capabilities struct {
	PetsAllowed       bool `json:"pets_allowed"`
	BarrierFree       bool `json:"barrier_free"`
	ToiletAvailable   bool `json:"toilet_available"`
	FoodAvailable     bool `json:"food_available"`
	MedicalAvailable  bool `json:"medical_available"`
	WifiAvailable     bool `json:"wifi_available"`
	ChargingAvailable bool `json:"charging_available"`
}

// Shelter is one facility record. OwnerID is empty only for seeded records.
type Shelter struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Address          string  `json:"address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Capacity         int     `json:"capacity"`
	CurrentOccupancy int     `json:"current_occupancy"`
	Capabilities
	Equipment string     `json:"equipment"`
	Contact   string     `json:"contact"`
	Operator  string     `json:"operator"`
	OpenedAt  *time.Time `json:"opened_at,omitempty"`
	Status    Status     `json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
	OwnerID   string     `json:"owner_id,omitempty"`
	PhotoIDs  []string   `json:"photo_ids"`
}

// Owner returns the principal id that owns the record.
func (s *Shelter) Owner() string {
	return s.OwnerID
}

// Clone returns a deep copy safe to hand out of a store.
func (s *Shelter) Clone() *Shelter {
	if s == nil {
		return nil
	}
	out := *s
	if s.OpenedAt != nil {
		t := *s.OpenedAt
		out.OpenedAt = &t
	}
	if s.PhotoIDs != nil {
		out.PhotoIDs = append([]string(nil), s.PhotoIDs...)
	}
	return &out
}

// Draft is the input for creating a shelter.
type Draft struct {
	Name             string   `json:"name"`
	Address          string   `json:"address"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Capacity         int      `json:"capacity"`
	CurrentOccupancy int      `json:"current_occupancy"`
	Capabilities
	Equipment string     `json:"equipment"`
	Contact   string     `json:"contact"`
	Operator  string     `json:"operator"`
	OpenedAt  *time.Time `json:"opened_at"`
	Status    Status     `json:"status"`
	PhotoIDs  []string   `json:"photo_ids"`
}

// NewShelter builds the record described by d, owned by ownerID.
func (d *Draft) NewShelter(ownerID string, now time.Time) *Shelter {
	status := d.Status
	if status == "" {
		status = StatusOpen
	}
	s := &Shelter{
		Name:             d.Name,
		Address:          d.Address,
		Capacity:         d.Capacity,
		CurrentOccupancy: d.CurrentOccupancy,
		Capabilities:     d.Capabilities,
		Equipment:        d.Equipment,
		Contact:          d.Contact,
		Operator:         d.Operator,
		Status:           status,
		UpdatedAt:        now,
		OwnerID:          ownerID,
		PhotoIDs:         dedupe(d.PhotoIDs),
	}
	if d.Latitude != nil {
		s.Latitude = *d.Latitude
	}
	if d.Longitude != nil {
		s.Longitude = *d.Longitude
	}
	if d.OpenedAt != nil {
		t := *d.OpenedAt
		s.OpenedAt = &t
	}
	return s
}

// BulkPatch is the subset of fields a bulk update may change.
type BulkPatch struct {
	Status           *Status `json:"status"`
	CurrentOccupancy *int    `json:"current_occupancy"`
}

func (p BulkPatch) Apply(s *Shelter, now time.Time) {
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.CurrentOccupancy != nil {
		s.CurrentOccupancy = *p.CurrentOccupancy
	}
	s.UpdatedAt = now
}

// Fields names the attributes the patch sets.
func (p BulkPatch) Fields() []string {
	var out []string
	if p.Status != nil {
		out = append(out, "status")
	}
	if p.CurrentOccupancy != nil {
		out = append(out, "current_occupancy")
	}
	return out
}

func dedupe(ids []string) []string {
	if ids == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
