package conversation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"boulderbot/internal/models"
)

// EventKind is the type of a button press.
type EventKind int

const (
	EventNoop EventKind = iota
	EventCalendarMonths
	EventCalendarDays
	EventDatePicked
	EventBackToCalendar
	EventFacility
	EventBackToFacility
	EventSlot
	EventBackToSlot
	EventConfirmYes
	EventConfirmNo
)

var eventNames = map[EventKind]string{
	EventNoop:           "noop",
	EventCalendarMonths: "calendar_months",
	EventCalendarDays:   "calendar_days",
	EventDatePicked:     "date_picked",
	EventBackToCalendar: "back_to_calendar",
	EventFacility:       "facility",
	EventBackToFacility: "back_to_facility",
	EventSlot:           "slot",
	EventBackToSlot:     "back_to_slot",
	EventConfirmYes:     "confirm_yes",
	EventConfirmNo:      "confirm_no",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

const (
	tokenNoop        = "noop"
	tokenYes         = "YES"
	tokenNo          = "NO"
	tokenBackCal     = "back:cal"
	tokenBackFac     = "back:fac"
	tokenBackSlot    = "back:slot"
	prefixYear       = "cal:y:"
	prefixMonth      = "cal:m:"
	prefixDay        = "cal:d:"
	prefixFacility   = "fac:"
	prefixSlot       = "slot:"
	monthTokenLayout = "2006-01"
)

// ErrUnknownEvent is returned for callback data that is not one of ours.
var ErrUnknownEvent = errors.New("unknown callback data")

// Event is a parsed callback token. Arg carries the facility name or slot id;
// At carries the year, month or date of calendar events.
type Event struct {
	Kind EventKind
	Arg  string
	At   time.Time
}

// ParseEvent decodes callback data.
func ParseEvent(data string) (Event, error) {
	switch data {
	case tokenNoop:
		return Event{Kind: EventNoop}, nil
	case tokenYes:
		return Event{Kind: EventConfirmYes}, nil
	case tokenNo:
		return Event{Kind: EventConfirmNo}, nil
	case tokenBackCal:
		return Event{Kind: EventBackToCalendar}, nil
	case tokenBackFac:
		return Event{Kind: EventBackToFacility}, nil
	case tokenBackSlot:
		return Event{Kind: EventBackToSlot}, nil
	}

	switch {
	case strings.HasPrefix(data, prefixYear):
		year, err := strconv.Atoi(strings.TrimPrefix(data, prefixYear))
		if err != nil || year < 1 || year > 9999 {
			return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, data)
		}
		return Event{Kind: EventCalendarMonths, At: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)}, nil
	case strings.HasPrefix(data, prefixMonth):
		at, err := time.Parse(monthTokenLayout, strings.TrimPrefix(data, prefixMonth))
		if err != nil {
			return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, data)
		}
		return Event{Kind: EventCalendarDays, At: at}, nil
	case strings.HasPrefix(data, prefixDay):
		at, err := time.Parse(models.DateLayout, strings.TrimPrefix(data, prefixDay))
		if err != nil {
			return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, data)
		}
		return Event{Kind: EventDatePicked, At: at}, nil
	case strings.HasPrefix(data, prefixFacility) && len(data) > len(prefixFacility):
		return Event{Kind: EventFacility, Arg: strings.TrimPrefix(data, prefixFacility)}, nil
	case strings.HasPrefix(data, prefixSlot) && len(data) > len(prefixSlot):
		return Event{Kind: EventSlot, Arg: strings.TrimPrefix(data, prefixSlot)}, nil
	}

	return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, data)
}

// Data encodes the event back into callback data.
func (e Event) Data() string {
	switch e.Kind {
	case EventCalendarMonths:
		return fmt.Sprintf("%s%04d", prefixYear, e.At.Year())
	case EventCalendarDays:
		return prefixMonth + e.At.Format(monthTokenLayout)
	case EventDatePicked:
		return prefixDay + e.At.Format(models.DateLayout)
	case EventBackToCalendar:
		return tokenBackCal
	case EventFacility:
		return prefixFacility + e.Arg
	case EventBackToFacility:
		return tokenBackFac
	case EventSlot:
		return prefixSlot + e.Arg
	case EventBackToSlot:
		return tokenBackSlot
	case EventConfirmYes:
		return tokenYes
	case EventConfirmNo:
		return tokenNo
	default:
		return tokenNoop
	}
}
