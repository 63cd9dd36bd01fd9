package models

import photomodels "shelterhub/internal/photo/models"

// View is a shelter as returned to clients, with photo ids materialised
// into URLs.
type View struct {
	*Shelter
	PhotoURLs []string `json:"photo_urls"`
}

func NewView(s *Shelter) *View {
	return &View{Shelter: s, PhotoURLs: photomodels.URLs(s.PhotoIDs)}
}

func NewViews(shelters []*Shelter) []*View {
	out := make([]*View, len(shelters))
	for i, s := range shelters {
		out[i] = NewView(s)
	}
	return out
}
