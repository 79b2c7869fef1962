package models

import (
	"errors"
	"time"
)

// ErrIncompleteDraft is returned when a draft is converted before every field is chosen.
var ErrIncompleteDraft = errors.New("booking draft is incomplete")

// BookingDraft is the selection a user has made so far.
type BookingDraft struct {
	UserID   int64     `json:"user_id"`
	Facility string    `json:"facility,omitempty"`
	SlotID   string    `json:"slot_id,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// ChooseFacility sets the facility and drops any slot picked for another one.
func (d *BookingDraft) ChooseFacility(name string) {
	d.Facility = name
	d.ClearSlot()
}

// ChooseSlot copies the slot identity and times into the draft.
func (d *BookingDraft) ChooseSlot(s Slot) {
	d.SlotID = s.ID
	d.Start = s.Start.UTC()
	d.End = s.End.UTC()
}

// ClearSlot forgets the chosen slot but keeps the facility.
func (d *BookingDraft) ClearSlot() {
	d.SlotID = ""
	d.Start = time.Time{}
	d.End = time.Time{}
}

// Complete reports whether every field needed for a booking is set.
func (d *BookingDraft) Complete() bool {
	return d != nil && d.UserID != 0 && d.Facility != "" && d.SlotID != "" &&
		!d.Start.IsZero() && !d.End.IsZero()
}

// Request builds the wire body for the booking endpoint.
func (d *BookingDraft) Request() (BookingRequest, error) {
	if !d.Complete() {
		return BookingRequest{}, ErrIncompleteDraft
	}
	return BookingRequest{
		UserID: d.UserID,
		Place:  d.Facility,
		ID:     d.SlotID,
		Start:  d.Start.UTC().Format(TimestampLayout),
		End:    d.End.UTC().Format(TimestampLayout),
	}, nil
}

// BookingRequest is the body POSTed to the backend.
type BookingRequest struct {
	UserID int64  `json:"userId"`
	Place  string `json:"place"`
	ID     string `json:"id"`
	Start  string `json:"start"`
	End    string `json:"end"`
}
