// Package wizard implements the three-step booking flow as an explicit state
// machine. Every selection change runs its dependent refetch synchronously,
// so request ordering is a decision made here rather than an accident of UI
// reactivity.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/belvedhair/booking-widget/internal/calendar"
	"github.com/belvedhair/booking-widget/internal/salonapi"
	"github.com/belvedhair/booking-widget/pkg/logging"
)

// Sentinel errors the HTTP layer maps to responses.
var (
	// ErrSuppressed means the honeypot field was filled: the submission is
	// dropped without a network call and without user-visible feedback.
	ErrSuppressed = errors.New("wizard: submission suppressed")

	ErrNoBarber       = errors.New("wizard: no barber selected")
	ErrNoDateTime     = errors.New("wizard: date and time required")
	ErrDayUnavailable = errors.New("wizard: day is fully booked")
	ErrUnknownSlot    = errors.New("wizard: time is not a free slot")
	ErrWrongStep      = errors.New("wizard: action not available on this step")
)

// ValidationError is a client-side form rejection; it never reaches the
// booking backend.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// BookingAPI is the slice of the backend client the wizard needs.
type BookingAPI interface {
	MonthOverview(ctx context.Context, barberID, month string) (*salonapi.MonthOverview, error)
	Availability(ctx context.Context, barberID, date string) ([]string, error)
	Book(ctx context.Context, req salonapi.BookRequest) (*salonapi.BookResult, error)
	SubmitPriorityRequest(ctx context.Context, req salonapi.PriorityRequest) error
}

// contactForm is validated before any booking call leaves the widget.
type contactForm struct {
	Name    string `validate:"required"`
	Phone   string `validate:"required"`
	Consent bool   `validate:"required"`
}

// Wizard drives Session state transitions. It is stateless itself; the
// session travels through the store between requests.
type Wizard struct {
	api      BookingAPI
	validate *validator.Validate
	logger   *logging.Logger
	now      func() time.Time
}

// New creates a wizard controller over the given backend client.
func New(api BookingAPI, logger *logging.Logger) *Wizard {
	if logger == nil {
		logger = logging.Default()
	}
	return &Wizard{
		api:      api,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// StartSession creates a fresh step-1 session showing the current month.
func (w *Wizard) StartSession(barbers []salonapi.Barber) *Session {
	s := &Session{
		ID:           uuid.NewString(),
		Step:         StepBarber,
		Barbers:      barbers,
		Month:        calendar.Current(w.now()),
		PriorityTime: defaultPriorityTime,
		UpdatedAt:    w.now(),
	}
	return s
}

// SelectBarber picks a barber and loads that barber's overview for the
// displayed month. Date, time and slot state reset and the priority panel
// closes, since they belonged to the previous selection.
func (w *Wizard) SelectBarber(ctx context.Context, s *Session, barberID string) error {
	found := false
	for _, b := range s.Barbers {
		if b.ID == barberID {
			found = true
			break
		}
	}
	if !found {
		return &ValidationError{Msg: "Unbekannter Friseur."}
	}
	s.BarberID = barberID
	return w.reloadMonth(ctx, s)
}

// PrevMonth shows the previous calendar month and reloads the overview.
func (w *Wizard) PrevMonth(ctx context.Context, s *Session) error {
	month, err := calendar.Prev(s.Month)
	if err != nil {
		return err
	}
	s.Month = month
	return w.reloadMonth(ctx, s)
}

// NextMonth shows the next calendar month and reloads the overview.
func (w *Wizard) NextMonth(ctx context.Context, s *Session) error {
	month, err := calendar.Next(s.Month)
	if err != nil {
		return err
	}
	s.Month = month
	return w.reloadMonth(ctx, s)
}

func (w *Wizard) reloadMonth(ctx context.Context, s *Session) error {
	s.Date = ""
	s.Time = ""
	s.Slots = nil
	s.PriorityOpen = false
	if s.BarberID == "" {
		s.Days = nil
		return nil
	}
	ov, err := w.api.MonthOverview(ctx, s.BarberID, s.Month)
	if err != nil {
		s.Days = nil
		return fmt.Errorf("load month overview: %w", err)
	}
	s.Days = ov.Days
	s.UpdatedAt = w.now()
	return nil
}

// SelectDate picks a day from the calendar and loads its free slots. Fully
// booked days are not selectable: the selection stays where it was.
func (w *Wizard) SelectDate(ctx context.Context, s *Session, date string) error {
	if s.BarberID == "" {
		return ErrNoBarber
	}
	available := false
	for _, d := range s.Days {
		if d.Date == date && d.Free > 0 {
			available = true
			break
		}
	}
	if !available {
		return ErrDayUnavailable
	}

	slots, err := w.api.Availability(ctx, s.BarberID, date)
	if err != nil {
		return fmt.Errorf("load availability: %w", err)
	}
	s.Date = date
	s.Slots = slots
	s.Time = ""
	s.UpdatedAt = w.now()
	return nil
}

// SelectTime picks one of the loaded free slots.
func (w *Wizard) SelectTime(s *Session, timeOfDay string) error {
	for _, slot := range s.Slots {
		if slot == timeOfDay {
			s.Time = timeOfDay
			s.UpdatedAt = w.now()
			return nil
		}
	}
	return ErrUnknownSlot
}

// Next advances to the following step if its gate is satisfied.
func (w *Wizard) Next(s *Session) error {
	switch s.Step {
	case StepBarber:
		if s.BarberID == "" {
			return ErrNoBarber
		}
		s.Step = StepDateTime
	case StepDateTime:
		if s.Date == "" || s.Time == "" {
			return ErrNoDateTime
		}
		s.Step = StepContact
	default:
		return ErrWrongStep
	}
	s.UpdatedAt = w.now()
	return nil
}

// Back returns to the previous step. Entered state is kept.
func (w *Wizard) Back(s *Session) error {
	switch s.Step {
	case StepDateTime:
		s.Step = StepBarber
	case StepContact:
		s.Step = StepDateTime
	default:
		return ErrWrongStep
	}
	s.UpdatedAt = w.now()
	return nil
}

// TogglePriorityPanel opens or closes the priority-request side-flow.
func (w *Wizard) TogglePriorityPanel(s *Session) {
	s.PriorityOpen = !s.PriorityOpen
	s.UpdatedAt = w.now()
}

// DismissConfirmation hides the confirmation banner.
func (w *Wizard) DismissConfirmation(s *Session) {
	s.Confirmation = nil
	s.UpdatedAt = w.now()
}

// ContactInput is the step-3 form submission.
type ContactInput struct {
	Name     string
	Phone    string
	Consent  bool
	Honeypot string
}

// SubmitBooking validates the contact form and books the selected slot.
// A filled honeypot suppresses the submission entirely. On success the
// draft resets to step 1 and the confirmation banner is set.
func (w *Wizard) SubmitBooking(ctx context.Context, s *Session, in ContactInput) error {
	if in.Honeypot != "" {
		w.logger.Info("booking suppressed by honeypot", "session_id", s.ID)
		return ErrSuppressed
	}
	if s.BarberID == "" || s.Date == "" || s.Time == "" {
		return ErrNoDateTime
	}
	if err := w.checkContact(in); err != nil {
		return err
	}

	res, err := w.api.Book(ctx, salonapi.BookRequest{
		BarberID:     s.BarberID,
		StartTSISO:   s.Date + "T" + s.Time,
		CustomerName: in.Name,
		PhoneE164:    in.Phone,
	})
	if err != nil {
		return fmt.Errorf("book: %w", err)
	}

	w.logger.Info("booking confirmed",
		"session_id", s.ID,
		"barber_id", s.BarberID,
		"start", s.Date+"T"+s.Time,
		"booking_id", res.BookingID,
	)

	s.Confirmation = &Confirmation{
		BarberName:    s.BarberName(),
		DateTimeLabel: s.Date + " " + s.Time,
		BookingID:     res.BookingID,
	}
	s.resetDraft()
	s.UpdatedAt = w.now()
	return nil
}

// PriorityInput is the priority-request side-flow submission. Date and time
// are free inputs here; the day may well be fully booked.
type PriorityInput struct {
	Date     string
	Time     string
	Note     string
	Name     string
	Phone    string
	Consent  bool
	Honeypot string
}

// SubmitPriority sends a non-binding interest request for an overbooked
// slot. Same honeypot and consent rules as a booking; the confirmation
// carries no booking id.
func (w *Wizard) SubmitPriority(ctx context.Context, s *Session, in PriorityInput) error {
	if in.Honeypot != "" {
		w.logger.Info("priority request suppressed by honeypot", "session_id", s.ID)
		return ErrSuppressed
	}
	if s.BarberID == "" {
		return ErrNoBarber
	}
	// The flow is only reachable through its banner: the month is booked
	// out, the selected day has no slots, or the panel is already open.
	if !s.PriorityOpen && !s.ShowPriorityBanner() {
		return ErrWrongStep
	}
	if in.Date == "" {
		return &ValidationError{Msg: "Bitte Datum wählen."}
	}
	if in.Time == "" {
		in.Time = defaultPriorityTime
	}
	if err := w.checkContact(ContactInput{Name: in.Name, Phone: in.Phone, Consent: in.Consent}); err != nil {
		return err
	}

	err := w.api.SubmitPriorityRequest(ctx, salonapi.PriorityRequest{
		BarberID:        s.BarberID,
		DesiredLocalISO: in.Date + "T" + in.Time,
		CustomerName:    in.Name,
		PhoneE164:       in.Phone,
		Notes:           in.Note,
	})
	if err != nil {
		return fmt.Errorf("priority request: %w", err)
	}

	w.logger.Info("priority request submitted",
		"session_id", s.ID,
		"barber_id", s.BarberID,
		"desired", in.Date+"T"+in.Time,
	)

	s.Confirmation = &Confirmation{
		BarberName:    s.BarberName(),
		DateTimeLabel: in.Date + " " + in.Time,
	}
	s.resetDraft()
	s.UpdatedAt = w.now()
	return nil
}

func (w *Wizard) checkContact(in ContactInput) error {
	form := contactForm{Name: in.Name, Phone: in.Phone, Consent: in.Consent}
	if err := w.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Name" || fe.Field() == "Phone" {
					return &ValidationError{Msg: "Name & Telefon erforderlich."}
				}
			}
			return &ValidationError{Msg: "Bitte Datenschutz akzeptieren."}
		}
		return err
	}
	return nil
}
