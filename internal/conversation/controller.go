package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boulderbot/internal/backend"
	"boulderbot/internal/domain"
	"boulderbot/internal/events"
	"boulderbot/internal/models"

	"github.com/rs/zerolog"
)

// Commands understood by the controller.
const (
	CommandStart   = "start"
	CommandBook    = "book"
	CommandCancel  = "cancel"
	CommandProfile = "profile"
)

// availabilityWindowEnd is the upper bound of the daily availability query.
const availabilityWindowEnd = 23 * time.Hour

// allowed lists the button presses accepted in each state.
var allowed = map[models.State]map[EventKind]bool{
	models.StateAwaitingDate: {
		EventCalendarMonths: true,
		EventCalendarDays:   true,
		EventDatePicked:     true,
	},
	models.StateAwaitingFacility: {
		EventBackToCalendar: true,
		EventFacility:       true,
	},
	models.StateAwaitingSlot: {
		EventBackToFacility: true,
		EventSlot:           true,
	},
	models.StateAwaitingConfirmation: {
		EventBackToSlot: true,
		EventConfirmYes: true,
		EventConfirmNo:  true,
	},
}

// Controller runs the booking conversation. It owns the user sessions and is
// the only component that reads or writes them.
type Controller struct {
	sessions domain.SessionManager
	backend  domain.BackendClient
	events   domain.EventPublisher
	loc      *time.Location
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewController builds a controller. loc is the zone used to show times and
// to decide what "today" is.
func NewController(
	sessions domain.SessionManager,
	backendClient domain.BackendClient,
	publisher domain.EventPublisher,
	loc *time.Location,
	logger *zerolog.Logger,
) *Controller {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Controller{
		sessions: sessions,
		backend:  backendClient,
		events:   publisher,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

func (c *Controller) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return c.logger
}

// today is the current date in the display zone, expressed as a UTC midnight.
func (c *Controller) today() time.Time {
	now := c.now().In(c.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// HandleCommand handles a slash command without the leading slash.
func (c *Controller) HandleCommand(ctx context.Context, userID int64, command string) Reply {
	switch command {
	case CommandStart:
		return Reply{Text: textWelcome, State: c.currentState(ctx, userID)}
	case CommandBook:
		return c.startBooking(ctx, userID)
	case CommandCancel:
		return c.cancel(ctx, userID)
	case CommandProfile:
		return c.profile(ctx, userID)
	default:
		return Reply{Text: textUnknownCommand, State: c.currentState(ctx, userID)}
	}
}

// HandleCallback handles a button press. progress, when not nil, is called
// with interim text before slow steps.
func (c *Controller) HandleCallback(ctx context.Context, userID int64, data string, progress func(string)) Reply {
	ev, err := ParseEvent(data)
	if err != nil {
		c.log(ctx).Debug().Err(err).Int64("user_id", userID).Msg("Ignoring callback")
		return Reply{Notice: textExpired, State: c.currentState(ctx, userID)}
	}
	if ev.Kind == EventNoop {
		return Reply{State: c.currentState(ctx, userID)}
	}

	session, err := c.sessions.GetSession(ctx, userID)
	if err != nil {
		return Reply{Notice: textGenericError, State: models.StateIdle}
	}
	if session == nil || !allowed[session.State][ev.Kind] {
		state := models.StateIdle
		if session != nil {
			state = session.State
		}
		c.log(ctx).Debug().
			Int64("user_id", userID).
			Str("event", ev.Kind.String()).
			Str("state", string(state)).
			Msg("Callback not valid for state")
		return Reply{Notice: textExpired, State: state}
	}

	switch ev.Kind {
	case EventCalendarMonths:
		session.View = models.CalendarView{Step: stepMonth, Year: ev.At.Year()}
		return c.showCalendar(ctx, session)
	case EventCalendarDays:
		session.View = models.CalendarView{Step: stepDay, Year: ev.At.Year(), Month: int(ev.At.Month())}
		return c.showCalendar(ctx, session)
	case EventDatePicked:
		return c.pickDate(ctx, session, ev.At)
	case EventBackToCalendar:
		return c.backToCalendar(ctx, session)
	case EventFacility:
		return c.pickFacility(ctx, session, ev.Arg)
	case EventBackToFacility:
		return c.backToFacility(ctx, session)
	case EventSlot:
		return c.pickSlot(ctx, session, ev.Arg)
	case EventBackToSlot:
		return c.backToSlot(ctx, session)
	case EventConfirmNo:
		return c.decline(ctx, session)
	case EventConfirmYes:
		return c.commit(ctx, session, progress)
	}

	return Reply{Notice: textExpired, State: session.State}
}

func (c *Controller) currentState(ctx context.Context, userID int64) models.State {
	session, err := c.sessions.GetSession(ctx, userID)
	if err != nil || session == nil {
		return models.StateIdle
	}
	return session.State
}

func (c *Controller) startBooking(ctx context.Context, userID int64) Reply {
	if err := c.sessions.ClearSession(ctx, userID); err != nil {
		c.log(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Failed to clear previous session")
	}
	session := models.NewSession(userID)
	return c.resetCalendar(ctx, session)
}

// resetCalendar drops any selection and shows the current month.
func (c *Controller) resetCalendar(ctx context.Context, session *models.Session) Reply {
	today := c.today()
	session.State = models.StateAwaitingDate
	session.Date = ""
	session.Draft = nil
	session.Snapshot = nil
	session.View = models.CalendarView{Step: stepDay, Year: today.Year(), Month: int(today.Month())}
	return c.showCalendar(ctx, session)
}

func (c *Controller) showCalendar(ctx context.Context, session *models.Session) Reply {
	today := c.today()
	view := clampView(session.View, today)
	session.View = view

	var rows [][]Button
	if view.Step == stepMonth {
		rows = monthGrid(view.Year, today)
	} else {
		rows = dayGrid(view.Year, time.Month(view.Month), today)
	}

	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return c.storeFailed(ctx, session, err)
	}
	return Reply{Text: calendarText(view.Step), Buttons: rows, State: session.State}
}

// clampView keeps the picker from moving before the month of today.
func clampView(v models.CalendarView, today time.Time) models.CalendarView {
	if v.Step != stepMonth {
		v.Step = stepDay
	}
	if v.Year < today.Year() {
		v.Year = today.Year()
		if v.Step == stepDay {
			v.Month = int(today.Month())
		}
	}
	if v.Step == stepDay {
		if v.Month < 1 || v.Month > 12 {
			v.Month = int(today.Month())
		}
		if v.Year == today.Year() && v.Month < int(today.Month()) {
			v.Month = int(today.Month())
		}
	}
	return v
}

func (c *Controller) pickDate(ctx context.Context, session *models.Session, date time.Time) Reply {
	if date.Before(c.today()) {
		return c.resetCalendar(ctx, session)
	}

	dateStr := date.Format(models.DateLayout)
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	availability, err := c.backend.FetchAvailability(ctx, from, from.Add(availabilityWindowEnd))
	if err != nil {
		c.log(ctx).Error().Err(err).Int64("user_id", session.UserID).Str("date", dateStr).Msg("Availability query failed")
		c.endFlow(ctx, session.UserID)
		return Reply{Text: userMessage(err), State: models.StateIdle}
	}

	snapshot := availability.Bookable()
	if len(snapshot.Facilities()) == 0 {
		c.endFlow(ctx, session.UserID)
		return Reply{Text: noSlotsText(dateStr), State: models.StateIdle}
	}

	session.Date = dateStr
	session.Snapshot = snapshot
	session.Draft = &models.BookingDraft{UserID: session.UserID}
	return c.showFacilities(ctx, session)
}

func (c *Controller) showFacilities(ctx context.Context, session *models.Session) Reply {
	session.State = models.StateAwaitingFacility
	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return c.storeFailed(ctx, session, err)
	}
	return Reply{Text: textChooseFacility, Buttons: facilityButtons(session.Snapshot), State: session.State}
}

func (c *Controller) backToCalendar(ctx context.Context, session *models.Session) Reply {
	return c.resetCalendar(ctx, session)
}

func (c *Controller) pickFacility(ctx context.Context, session *models.Session, name string) Reply {
	if !session.Snapshot.HasFacility(name) {
		return c.lookupFailed(ctx, session, fmt.Errorf("%w: facility %q", ErrSlotNotFound, name))
	}
	if session.Draft == nil {
		session.Draft = &models.BookingDraft{UserID: session.UserID}
	}
	session.Draft.ChooseFacility(name)
	return c.showSlots(ctx, session)
}

func (c *Controller) showSlots(ctx context.Context, session *models.Session) Reply {
	session.State = models.StateAwaitingSlot
	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return c.storeFailed(ctx, session, err)
	}
	slots := session.Snapshot[session.Draft.Facility]
	return Reply{Text: textChooseSlot, Buttons: slotButtons(slots, c.loc), State: session.State}
}

func (c *Controller) backToFacility(ctx context.Context, session *models.Session) Reply {
	session.Draft = &models.BookingDraft{UserID: session.UserID}
	return c.showFacilities(ctx, session)
}

func (c *Controller) pickSlot(ctx context.Context, session *models.Session, id string) Reply {
	if session.Draft == nil || session.Draft.Facility == "" {
		return c.lookupFailed(ctx, session, fmt.Errorf("%w: no facility chosen", ErrSlotNotFound))
	}
	slot, ok := session.Snapshot.FindSlot(session.Draft.Facility, id)
	if !ok {
		return c.lookupFailed(ctx, session, fmt.Errorf("%w: slot %q at %q", ErrSlotNotFound, id, session.Draft.Facility))
	}
	session.Draft.ChooseSlot(slot)

	canBook := c.backend.UserExists(ctx, session.UserID)
	session.State = models.StateAwaitingConfirmation
	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return c.storeFailed(ctx, session, err)
	}
	return Reply{
		Text:    confirmText(session.Draft, c.loc),
		Buttons: confirmButtons(canBook),
		State:   session.State,
	}
}

func (c *Controller) backToSlot(ctx context.Context, session *models.Session) Reply {
	if session.Draft == nil || !session.Snapshot.HasFacility(session.Draft.Facility) {
		return c.lookupFailed(ctx, session, fmt.Errorf("%w: no facility chosen", ErrSlotNotFound))
	}
	session.Draft.ClearSlot()
	return c.showSlots(ctx, session)
}

func (c *Controller) decline(ctx context.Context, session *models.Session) Reply {
	c.endFlow(ctx, session.UserID)
	c.publish(ctx, events.EventBookingCancelled, bookingPayload(session, "declined"))
	return Reply{Text: textRequestCancel, State: models.StateIdle}
}

func (c *Controller) commit(ctx context.Context, session *models.Session, progress func(string)) Reply {
	logger := c.log(ctx).With().Int64("user_id", session.UserID).Logger()

	if !c.backend.UserExists(ctx, session.UserID) {
		c.endFlow(ctx, session.UserID)
		c.publish(ctx, events.EventBookingFailed, bookingPayload(session, "profile missing"))
		return Reply{Text: textNotEnoughData, State: models.StateIdle}
	}

	req, err := session.Draft.Request()
	if err != nil {
		return c.lookupFailed(ctx, session, err)
	}

	if progress != nil {
		progress(textProceeding)
	}

	err = c.backend.SubmitBooking(ctx, req)
	c.endFlow(ctx, session.UserID)
	if err != nil {
		logger.Error().Err(err).Str("facility", req.Place).Str("slot_id", req.ID).Msg("Booking failed")
		c.publish(ctx, events.EventBookingFailed, bookingPayload(session, err.Error()))
		return Reply{Text: textBookingFailed, State: models.StateIdle}
	}

	logger.Info().Str("facility", req.Place).Str("slot_id", req.ID).Msg("Booking submitted")
	c.publish(ctx, events.EventBookingSubmitted, bookingPayload(session, ""))
	return Reply{Text: bookedText(session.Draft, c.loc), State: models.StateIdle}
}

func (c *Controller) cancel(ctx context.Context, userID int64) Reply {
	session, err := c.sessions.GetSession(ctx, userID)
	if err != nil {
		c.log(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Failed to read session on cancel")
	}
	c.endFlow(ctx, userID)
	if session != nil {
		c.publish(ctx, events.EventBookingCancelled, bookingPayload(session, "cancelled"))
	}
	return Reply{Text: textCancelled, State: models.StateIdle}
}

func (c *Controller) profile(ctx context.Context, userID int64) Reply {
	state := c.currentState(ctx, userID)
	profile, err := c.backend.FetchProfile(ctx, userID)
	switch {
	case err == nil:
		return Reply{Text: profileText(profile), State: state}
	case errors.Is(err, backend.ErrProfileNotFound):
		return Reply{Text: textNoProfile, State: state}
	default:
		c.log(ctx).Error().Err(err).Int64("user_id", userID).Msg("Profile lookup failed")
		return Reply{Text: userMessage(err), State: state}
	}
}

// lookupFailed resets the flow after a selection that does not match the snapshot.
func (c *Controller) lookupFailed(ctx context.Context, session *models.Session, err error) Reply {
	c.log(ctx).Warn().Err(err).Int64("user_id", session.UserID).Str("state", string(session.State)).Msg("Selection lookup failed")
	c.endFlow(ctx, session.UserID)
	return Reply{Text: userMessage(err), State: models.StateIdle}
}

// storeFailed reports a session write failure. The stored state is left as it was.
func (c *Controller) storeFailed(ctx context.Context, session *models.Session, err error) Reply {
	c.log(ctx).Error().Err(err).Int64("user_id", session.UserID).Msg("Failed to save session")
	return Reply{Notice: textGenericError, State: c.currentState(ctx, session.UserID)}
}

// endFlow destroys the session. Failures are logged; the session then expires by TTL.
func (c *Controller) endFlow(ctx context.Context, userID int64) {
	if err := c.sessions.ClearSession(ctx, userID); err != nil {
		c.log(ctx).Error().Err(err).Int64("user_id", userID).Msg("Failed to clear session")
	}
}

func (c *Controller) publish(ctx context.Context, eventType string, payload events.BookingEventPayload) {
	if c.events == nil {
		return
	}
	if err := c.events.PublishJSON(eventType, payload); err != nil {
		c.log(ctx).Warn().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}

func bookingPayload(session *models.Session, reason string) events.BookingEventPayload {
	payload := events.BookingEventPayload{UserID: session.UserID, Reason: reason}
	if d := session.Draft; d != nil {
		payload.Facility = d.Facility
		payload.SlotID = d.SlotID
		payload.Start = d.Start
		payload.End = d.End
	}
	return payload
}
