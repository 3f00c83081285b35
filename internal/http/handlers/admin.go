package handlers

import (
	"errors"
	"net/http"

	"github.com/belvedhair/booking-widget/internal/admin"
	"github.com/belvedhair/booking-widget/internal/observability/metrics"
	"github.com/belvedhair/booking-widget/internal/salonapi"
	"github.com/belvedhair/booking-widget/pkg/logging"
)

// AdminHandler exposes the admin panel operations. It keeps no state: the
// Basic credentials typed into the page arrive with every request and are
// forwarded to the booking backend, and the booking list lives on the page,
// travelling through the cancel request so the confirmed mutation can be
// applied in one place.
type AdminHandler struct {
	panel   *admin.Panel
	barbers []salonapi.Barber
	metrics *metrics.WidgetMetrics
	logger  *logging.Logger
}

// NewAdminHandler creates the admin handler.
func NewAdminHandler(panel *admin.Panel, barbers []salonapi.Barber, m *metrics.WidgetMetrics, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{panel: panel, barbers: barbers, metrics: m, logger: logger}
}

func adminCredentials(w http.ResponseWriter, r *http.Request) (salonapi.Credentials, bool) {
	user, pass, ok := r.BasicAuth()
	if !ok {
		respondError(w, http.StatusUnauthorized, "Login fehlgeschlagen.")
		return salonapi.Credentials{}, false
	}
	return salonapi.Credentials{User: user, Pass: pass}, true
}

type bookingListResponse struct {
	Items []salonapi.AdminBookingItem `json:"items"`
}

// ListBookings handles GET /api/admin/bookings?frm&to&barber_id.
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	creds, ok := adminCredentials(w, r)
	if !ok {
		return
	}
	q := admin.Query{
		From:     r.URL.Query().Get("frm"),
		To:       r.URL.Query().Get("to"),
		BarberID: r.URL.Query().Get("barber_id"),
	}
	items, err := h.panel.Load(r.Context(), creds, q)
	if err != nil {
		h.metrics.ObserveAdminOp("load", "failed")
		// Wrong credentials and backend trouble look identical to the page.
		respondError(w, http.StatusUnauthorized, "Login fehlgeschlagen.")
		return
	}
	h.metrics.ObserveAdminOp("load", "ok")
	if items == nil {
		items = []salonapi.AdminBookingItem{}
	}
	respondJSON(w, http.StatusOK, bookingListResponse{Items: items})
}

type cancelRequest struct {
	BookingID string                      `json:"booking_id"`
	Items     []salonapi.AdminBookingItem `json:"items"`
}

// CancelBooking handles POST /api/admin/cancel. On success the response
// carries the page's list with only the cancelled item's status changed;
// no re-fetch happens. On failure the list is left alone and the error is
// surfaced.
func (h *AdminHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	creds, ok := adminCredentials(w, r)
	if !ok {
		return
	}
	var req cancelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.BookingID == "" {
		respondError(w, http.StatusBadRequest, "booking_id fehlt.")
		return
	}

	items, err := h.panel.Cancel(r.Context(), creds, req.Items, req.BookingID)
	if err != nil {
		h.metrics.ObserveAdminOp("cancel", "failed")
		respondError(w, http.StatusBadGateway, "Stornierung fehlgeschlagen.")
		return
	}
	h.metrics.ObserveAdminOp("cancel", "ok")
	respondJSON(w, http.StatusOK, bookingListResponse{Items: items})
}

type timeOffRequest struct {
	BarberID       string `json:"barber_id"`
	FilterBarberID string `json:"filter_barber_id"`
	Date           string `json:"date"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Reason         string `json:"reason"`
}

// AddTimeOff handles POST /api/admin/time_off. The page reloads the
// booking list after a success response.
func (h *AdminHandler) AddTimeOff(w http.ResponseWriter, r *http.Request) {
	creds, ok := adminCredentials(w, r)
	if !ok {
		return
	}
	var req timeOffRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Date == "" || req.Start == "" || req.End == "" {
		respondError(w, http.StatusBadRequest, "Datum und Zeitraum erforderlich.")
		return
	}

	form := admin.TimeOffForm{
		BarberID: req.BarberID,
		Date:     req.Date,
		Start:    req.Start,
		End:      req.End,
		Reason:   req.Reason,
	}
	if err := h.panel.AddTimeOff(r.Context(), creds, form, req.FilterBarberID, h.barbers); err != nil {
		h.metrics.ObserveAdminOp("time_off", "failed")
		if errors.Is(err, admin.ErrNoBarber) {
			respondError(w, http.StatusBadRequest, "Kein Friseur ausgewählt.")
			return
		}
		respondError(w, http.StatusBadGateway, "Fehler beim Eintragen.")
		return
	}
	h.metrics.ObserveAdminOp("time_off", "ok")
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
