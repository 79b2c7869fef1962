package conversation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"boulderbot/internal/backend"
	"boulderbot/internal/models"
)

const (
	textWelcome = "Welcome human, you can book bouldering spots with me ;)!!\n" +
		"- /book to start\n" +
		"- /profile to change your profile (not available yet)"
	textUnknownCommand = "I don't know that one. Use /book to start"
	textChooseFacility = "Where do you want to go? Or /cancel"
	textChooseSlot     = "What time do you want to go? Or /cancel"
	textProceeding     = "Proceeding with the booking!..."
	textBookingFailed  = "something went wrong with the booking :(.. Cancelled"
	textRequestCancel  = "Request cancelled :)"
	textNotEnoughData  = "I'm sorry, but I don't have enough data to proceed with the booking :(. " +
		"But you can still check the slots"
	textCancelled      = "Booking cancelled. New booking? /book"
	textNoProfile      = "Your profile does not exist :("
	textExpired        = "This menu has expired"
	textStartAgain     = "Something went wrong with your selection :( Please start again with /book"
	textBackendDown    = "Sorry, I can't reach the booking service right now :( Please try again later"
	textGenericError   = "Something went wrong :( Please try again"
	backLabel          = "🔙"
)

// userMessage maps an error to the text shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrSlotNotFound), errors.Is(err, models.ErrIncompleteDraft):
		return textStartAgain
	case errors.Is(err, backend.ErrBookingRejected):
		return textBookingFailed
	case errors.Is(err, backend.ErrBackendUnavailable):
		return textBackendDown
	default:
		return textGenericError
	}
}

func noSlotsText(date string) string {
	return fmt.Sprintf("Sorry, there are no free slots for %s :(", date)
}

func clock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(models.DisplayTimeLayout)
}

func day(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(models.DisplayDateLayout)
}

func summaryLines(d *models.BookingDraft, loc *time.Location) string {
	return fmt.Sprintf("| %s the %s\n| from: %s\n| to: %s",
		d.Facility, day(d.Start, loc), clock(d.Start, loc), clock(d.End, loc))
}

func confirmText(d *models.BookingDraft, loc *time.Location) string {
	return "You chose:\n" + summaryLines(d, loc) + "\nDo you confirm?"
}

func bookedText(d *models.BookingDraft, loc *time.Location) string {
	return "Booked at\n" + summaryLines(d, loc) + "\nSee you next time ;)"
}

func profileText(p models.Profile) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Your profile:")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %v", k, p[k])
	}
	return b.String()
}

// facilityButtons lists one facility per row, then the way back to the calendar.
func facilityButtons(snapshot models.Availability) [][]Button {
	facilities := snapshot.Facilities()
	rows := make([][]Button, 0, len(facilities)+1)
	for _, f := range facilities {
		rows = append(rows, []Button{
			button(fmt.Sprintf("%s | %d", f.Name, f.SlotCount), Event{Kind: EventFacility, Arg: f.Name}),
		})
	}
	return append(rows, []Button{button(backLabel, Event{Kind: EventBackToCalendar})})
}

// slotButtons lists the facility's slots two per row, then the way back.
func slotButtons(slots []models.Slot, loc *time.Location) [][]Button {
	rows := make([][]Button, 0, len(slots)/2+2)
	row := make([]Button, 0, 2)
	for _, s := range slots {
		label := fmt.Sprintf("%s - %s | %d", clock(s.Start, loc), clock(s.End, loc), s.FreeSpots)
		row = append(row, button(label, Event{Kind: EventSlot, Arg: s.ID}))
		if len(row) == 2 {
			rows = append(rows, row)
			row = make([]Button, 0, 2)
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return append(rows, []Button{button(backLabel, Event{Kind: EventBackToFacility})})
}

func confirmButtons(canBook bool) [][]Button {
	choice := []Button{button("Cancel", Event{Kind: EventConfirmNo})}
	if canBook {
		choice = append(choice, button("Yes", Event{Kind: EventConfirmYes}))
	}
	return [][]Button{choice, {button(backLabel, Event{Kind: EventBackToSlot})}}
}
