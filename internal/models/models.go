package models

import (
	"sort"
	"time"
)

// State is the conversation step a user is in.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingDate         State = "awaiting_date"
	StateAwaitingFacility     State = "awaiting_facility"
	StateAwaitingSlot         State = "awaiting_slot"
	StateAwaitingConfirmation State = "awaiting_confirmation"
)

// Slot is a bookable interval at a facility as reported by the backend.
type Slot struct {
	ID        string    `json:"id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	FreeSpots int       `json:"freeSpots"`
}

// Availability maps a facility name to its slots for one date window.
type Availability map[string][]Slot

// FacilitySummary is a facility that still has something free.
type FacilitySummary struct {
	Name      string
	SlotCount int
}

// Bookable returns a copy without slots that have no free spots.
// Facility keys are kept even when their list ends up empty.
func (a Availability) Bookable() Availability {
	out := make(Availability, len(a))
	for name, slots := range a {
		kept := make([]Slot, 0, len(slots))
		for _, s := range slots {
			if s.FreeSpots > 0 {
				kept = append(kept, s)
			}
		}
		out[name] = kept
	}
	return out
}

// Facilities lists facilities with at least one slot, ordered by name.
func (a Availability) Facilities() []FacilitySummary {
	out := make([]FacilitySummary, 0, len(a))
	for name, slots := range a {
		if len(slots) == 0 {
			continue
		}
		out = append(out, FacilitySummary{Name: name, SlotCount: len(slots)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HasFacility reports whether name is listed and has slots.
func (a Availability) HasFacility(name string) bool {
	return len(a[name]) > 0
}

// FindSlot looks a slot up by id within one facility.
func (a Availability) FindSlot(facility, id string) (Slot, bool) {
	for _, s := range a[facility] {
		if s.ID == id {
			return s, true
		}
	}
	return Slot{}, false
}

// CalendarView is the position of the date picker.
type CalendarView struct {
	Step  string `json:"step"` // "month" or "day"
	Year  int    `json:"year"`
	Month int    `json:"month"`
}

// Session is everything kept for one user between updates.
type Session struct {
	UserID    int64         `json:"user_id"`
	State     State         `json:"state"`
	Date      string        `json:"date,omitempty"` // YYYY-MM-DD
	View      CalendarView  `json:"view"`
	Draft     *BookingDraft `json:"draft,omitempty"`
	Snapshot  Availability  `json:"snapshot,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewSession returns an empty session in the idle state.
func NewSession(userID int64) *Session {
	return &Session{UserID: userID, State: StateIdle}
}

// Profile is the user record held by the backend. Its shape is owned by the
// backend, so it is kept as raw fields.
type Profile map[string]any
