// Package admin implements the read-only admin panel operations: list and
// cancel bookings, and enter time-off blocks. Authentication is a Basic
// header built from the credentials typed into the page and forwarded to
// the booking backend with every request; no session is kept here.
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/belvedhair/booking-widget/internal/salonapi"
	"github.com/belvedhair/booking-widget/pkg/logging"
)

// ErrLoginFailed covers every failed admin load. The backend does not let
// us distinguish wrong credentials from transport errors, so neither do we.
var ErrLoginFailed = errors.New("admin: login failed")

// ErrNoBarber means no barber could be resolved for a time-off block.
var ErrNoBarber = errors.New("admin: no barber for time-off block")

// BackendAPI is the slice of the backend client the panel needs.
type BackendAPI interface {
	AdminBookings(ctx context.Context, creds salonapi.Credentials, frm, to, barberID string) ([]salonapi.AdminBookingItem, error)
	AdminCancel(ctx context.Context, creds salonapi.Credentials, bookingID string) error
	AdminTimeOff(ctx context.Context, creds salonapi.Credentials, req salonapi.TimeOffRequest) error
}

// Panel executes admin operations against the booking backend.
type Panel struct {
	api    BackendAPI
	logger *logging.Logger
}

// NewPanel creates the admin panel service.
func NewPanel(api BackendAPI, logger *logging.Logger) *Panel {
	if logger == nil {
		logger = logging.Default()
	}
	return &Panel{api: api, logger: logger}
}

// Query selects the booking window to list.
type Query struct {
	From     string // YYYY-MM-DD, inclusive
	To       string // YYYY-MM-DD, inclusive
	BarberID string // optional filter
}

// Load fetches the bookings for the query window. The result replaces
// whatever list the page showed before. Any failure is reported as a
// generic login failure.
func (p *Panel) Load(ctx context.Context, creds salonapi.Credentials, q Query) ([]salonapi.AdminBookingItem, error) {
	items, err := p.api.AdminBookings(ctx, creds, q.From, q.To, q.BarberID)
	if err != nil {
		p.logger.Warn("admin booking list failed", "error", err)
		return nil, ErrLoginFailed
	}
	return items, nil
}

// Cancel cancels one booking and returns the updated list. The status of
// the matching item flips to cancelled only after the backend confirms;
// on failure the list comes back unchanged alongside the error.
func (p *Panel) Cancel(ctx context.Context, creds salonapi.Credentials, items []salonapi.AdminBookingItem, bookingID string) ([]salonapi.AdminBookingItem, error) {
	if err := p.api.AdminCancel(ctx, creds, bookingID); err != nil {
		p.logger.Warn("admin cancel failed", "booking_id", bookingID, "error", err)
		return items, fmt.Errorf("cancel booking %s: %w", bookingID, err)
	}

	updated := make([]salonapi.AdminBookingItem, len(items))
	copy(updated, items)
	for i := range updated {
		if updated[i].ID == bookingID {
			updated[i].Status = salonapi.StatusCancelled
		}
	}
	p.logger.Info("booking cancelled", "booking_id", bookingID)
	return updated, nil
}

// TimeOffForm is the time-off block as entered on the page: one date and
// two times, plus an optional reason.
type TimeOffForm struct {
	BarberID string // may be empty
	Date     string // YYYY-MM-DD
	Start    string // HH:MM
	End      string // HH:MM
	Reason   string
}

// AddTimeOff submits a time-off block. When the form names no barber, the
// currently filtered barber is used, then the first known barber. The
// caller reloads the booking list on success.
func (p *Panel) AddTimeOff(ctx context.Context, creds salonapi.Credentials, form TimeOffForm, filterBarberID string, barbers []salonapi.Barber) error {
	barberID := form.BarberID
	if barberID == "" {
		barberID = filterBarberID
	}
	if barberID == "" && len(barbers) > 0 {
		barberID = barbers[0].ID
	}
	if barberID == "" {
		return ErrNoBarber
	}

	req := salonapi.TimeOffRequest{
		BarberID:      barberID,
		StartLocalISO: form.Date + "T" + form.Start,
		EndLocalISO:   form.Date + "T" + form.End,
		Reason:        form.Reason,
	}
	if err := p.api.AdminTimeOff(ctx, creds, req); err != nil {
		p.logger.Warn("time-off block failed", "barber_id", barberID, "error", err)
		return fmt.Errorf("time off for %s: %w", barberID, err)
	}
	p.logger.Info("time-off block created", "barber_id", barberID, "start", req.StartLocalISO, "end", req.EndLocalISO)
	return nil
}
