package models

import "time"

// Patch is a partial update. Nil fields are left untouched; a non-nil
// PhotoIDs replaces the photo list, including with an empty list.
type Patch struct {
	Name              *string    `json:"name"`
	Address           *string    `json:"address"`
	Latitude          *float64   `json:"latitude"`
	Longitude         *float64   `json:"longitude"`
	Capacity          *int       `json:"capacity"`
	CurrentOccupancy  *int       `json:"current_occupancy"`
	PetsAllowed       *bool      `json:"pets_allowed"`
	BarrierFree       *bool      `json:"barrier_free"`
	ToiletAvailable   *bool      `json:"toilet_available"`
	FoodAvailable     *bool      `json:"food_available"`
	MedicalAvailable  *bool      `json:"medical_available"`
	WifiAvailable     *bool      `json:"wifi_available"`
	ChargingAvailable *bool      `json:"charging_available"`
	Equipment         *string    `json:"equipment"`
	Contact           *string    `json:"contact"`
	Operator          *string    `json:"operator"`
	OpenedAt          *time.Time `json:"opened_at"`
	Status            *Status    `json:"status"`
	PhotoIDs          *[]string  `json:"photo_ids"`
}

// Apply merges the present fields into s and stamps UpdatedAt.
func (p *Patch) Apply(s *Shelter, now time.Time) {
	setIf(&s.Name, p.Name)
	setIf(&s.Address, p.Address)
	setIf(&s.Latitude, p.Latitude)
	setIf(&s.Longitude, p.Longitude)
	setIf(&s.Capacity, p.Capacity)
	setIf(&s.CurrentOccupancy, p.CurrentOccupancy)
	setIf(&s.PetsAllowed, p.PetsAllowed)
	setIf(&s.BarrierFree, p.BarrierFree)
	setIf(&s.ToiletAvailable, p.ToiletAvailable)
	setIf(&s.FoodAvailable, p.FoodAvailable)
	setIf(&s.MedicalAvailable, p.MedicalAvailable)
	setIf(&s.WifiAvailable, p.WifiAvailable)
	setIf(&s.ChargingAvailable, p.ChargingAvailable)
	setIf(&s.Equipment, p.Equipment)
	setIf(&s.Contact, p.Contact)
	setIf(&s.Operator, p.Operator)
	setIf(&s.Status, p.Status)
	if p.OpenedAt != nil {
		t := *p.OpenedAt
		s.OpenedAt = &t
	}
	if p.PhotoIDs != nil {
		s.PhotoIDs = dedupe(*p.PhotoIDs)
		if s.PhotoIDs == nil {
			s.PhotoIDs = []string{}
		}
	}
	s.UpdatedAt = now
}

// Fields names the attributes the patch sets, for audit details.
func (p *Patch) Fields() []string {
	var out []string
	add := func(name string, present bool) {
		if present {
			out = append(out, name)
		}
	}
	add("name", p.Name != nil)
	add("address", p.Address != nil)
	add("latitude", p.Latitude != nil)
	add("longitude", p.Longitude != nil)
	add("capacity", p.Capacity != nil)
	add("current_occupancy", p.CurrentOccupancy != nil)
	add("pets_allowed", p.PetsAllowed != nil)
	add("barrier_free", p.BarrierFree != nil)
	add("toilet_available", p.ToiletAvailable != nil)
	add("food_available", p.FoodAvailable != nil)
	add("medical_available", p.MedicalAvailable != nil)
	add("wifi_available", p.WifiAvailable != nil)
	add("charging_available", p.ChargingAvailable != nil)
	add("equipment", p.Equipment != nil)
	add("contact", p.Contact != nil)
	add("operator", p.Operator != nil)
	add("opened_at", p.OpenedAt != nil)
	add("status", p.Status != nil)
	add("photo_ids", p.PhotoIDs != nil)
	return out
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
