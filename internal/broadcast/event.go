package broadcast

import (
	"strconv"

	"shelterhub/internal/shelter/models"
)

// Action is the kind of change an event announces.
type Action string

const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionBulkUpdate Action = "bulk_update"
	ActionBulkDelete Action = "bulk_delete"
)

// Event is the JSON frame pushed to every live subscriber.
type Event struct {
	Action     Action         `json:"action"`
	ShelterID  *int64         `json:"shelter_id,omitempty"`
	ShelterIDs []int64        `json:"shelter_ids,omitempty"`
	Shelter    *models.View   `json:"shelter,omitempty"`
	Shelters   []*models.View `json:"shelters,omitempty"`
	Deleted    bool           `json:"deleted,omitempty"`
}

func Created(s *models.View) Event {
	return Event{Action: ActionCreate, ShelterID: &s.ID, Shelter: s}
}

func Updated(s *models.View) Event {
	return Event{Action: ActionUpdate, ShelterID: &s.ID, Shelter: s}
}

func Deleted(id int64) Event {
	return Event{Action: ActionDelete, ShelterID: &id, Deleted: true}
}

func BulkUpdated(shelters []*models.View) Event {
	ids := make([]int64, len(shelters))
	for i, s := range shelters {
		ids[i] = s.ID
	}
	return Event{Action: ActionBulkUpdate, ShelterIDs: ids, Shelters: shelters}
}

func BulkDeleted(ids []int64) Event {
	return Event{Action: ActionBulkDelete, ShelterIDs: ids, Deleted: true}
}

// Key partitions mirrored events by shelter.
func (e Event) Key() string {
	if e.ShelterID != nil {
		return strconv.FormatInt(*e.ShelterID, 10)
	}
	return string(e.Action)
}
