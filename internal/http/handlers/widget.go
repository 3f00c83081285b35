package handlers

import (
	"errors"
	"hash/fnv"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/belvedhair/booking-widget/internal/calendar"
	"github.com/belvedhair/booking-widget/internal/ical"
	"github.com/belvedhair/booking-widget/internal/observability/metrics"
	"github.com/belvedhair/booking-widget/internal/salonapi"
	"github.com/belvedhair/booking-widget/internal/wizard"
	"github.com/belvedhair/booking-widget/pkg/logging"
)

const sessionLockStripes = 64

// WidgetHandler drives the booking wizard over JSON. Each transition loads
// the session, applies exactly one state change, and saves the result under
// a per-session lock, so a slow upstream response can never overwrite the
// outcome of a later action.
type WidgetHandler struct {
	wizard   *wizard.Wizard
	store    wizard.Store
	barbers  []salonapi.Barber
	exporter *ical.Exporter
	metrics  *metrics.WidgetMetrics
	logger   *logging.Logger

	locks [sessionLockStripes]sync.Mutex
}

// NewWidgetHandler creates the wizard handler. The barber list is fetched
// once at startup and reused for every session.
func NewWidgetHandler(w *wizard.Wizard, store wizard.Store, barbers []salonapi.Barber, exporter *ical.Exporter, m *metrics.WidgetMetrics, logger *logging.Logger) *WidgetHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WidgetHandler{
		wizard:   w,
		store:    store,
		barbers:  barbers,
		exporter: exporter,
		metrics:  m,
		logger:   logger,
	}
}

// sessionView is the wizard state as rendered to the page.
type sessionView struct {
	SessionID          string            `json:"session_id"`
	Step               wizard.Step       `json:"step"`
	Barbers            []salonapi.Barber `json:"barbers"`
	BarberID           string            `json:"barber_id"`
	Month              string            `json:"month"`
	Grid               *calendar.Grid    `json:"grid,omitempty"`
	Date               string            `json:"date"`
	Slots              []string          `json:"slots"`
	Time               string            `json:"time"`
	NoFreeInMonth      bool              `json:"no_free_in_month"`
	ShowPriorityBanner bool              `json:"show_priority_banner"`
	PriorityOpen       bool              `json:"priority_open"`
	PriorityTime       string            `json:"priority_time"`
	Confirmation       *confirmationView `json:"confirmation,omitempty"`
}

type confirmationView struct {
	BarberName    string `json:"barber_name"`
	DateTimeLabel string `json:"date_time"`
	BookingID     string `json:"booking_id,omitempty"`
	ICSPath       string `json:"ics_path,omitempty"`
	GoogleLink    string `json:"google_link,omitempty"`
}

func (h *WidgetHandler) view(s *wizard.Session) *sessionView {
	v := &sessionView{
		SessionID:          s.ID,
		Step:               s.Step,
		Barbers:            s.Barbers,
		BarberID:           s.BarberID,
		Month:              s.Month,
		Date:               s.Date,
		Slots:              s.Slots,
		Time:               s.Time,
		NoFreeInMonth:      s.NoFreeInMonth(),
		ShowPriorityBanner: s.ShowPriorityBanner(),
		PriorityOpen:       s.PriorityOpen,
		PriorityTime:       s.PriorityTime,
	}
	if len(s.Days) > 0 {
		if grid, err := calendar.Build(s.Month, s.Days); err == nil {
			v.Grid = grid
		}
	}
	if c := s.Confirmation; c != nil {
		cv := &confirmationView{
			BarberName:    c.BarberName,
			DateTimeLabel: c.DateTimeLabel,
			BookingID:     c.BookingID,
		}
		if date, timeOfDay, ok := splitDateTimeLabel(c.DateTimeLabel); ok {
			cv.ICSPath = "/api/widget/session/" + s.ID + "/confirmation.ics"
			if link, err := h.exporter.GoogleLink(c.BarberName, date, timeOfDay); err == nil {
				cv.GoogleLink = link
			}
		}
		v.Confirmation = cv
	}
	return v
}

func splitDateTimeLabel(label string) (date, timeOfDay string, ok bool) {
	// "YYYY-MM-DD HH:MM"
	if len(label) != 16 || label[10] != ' ' {
		return "", "", false
	}
	return label[:10], label[11:], true
}

// StartSession handles POST /api/widget/session.
func (h *WidgetHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	s := h.wizard.StartSession(h.barbers)
	if err := h.store.Save(r.Context(), s); err != nil {
		h.logger.Error("failed to save new session", "error", err)
		respondError(w, http.StatusInternalServerError, "Sitzung konnte nicht erstellt werden.")
		return
	}
	h.metrics.ObserveSessionStarted()
	respondJSON(w, http.StatusCreated, h.view(s))
}

// GetSession handles GET /api/widget/session/{sessionID}.
func (h *WidgetHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.view(s))
}

// SelectBarber handles POST /api/widget/session/{sessionID}/barber.
func (h *WidgetHandler) SelectBarber(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BarberID string `json:"barber_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.transition(w, r, func(s *wizard.Session) error {
		return h.wizard.SelectBarber(r.Context(), s, req.BarberID)
	})
}

// PrevMonth handles POST /api/widget/session/{sessionID}/month/prev.
func (h *WidgetHandler) PrevMonth(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s *wizard.Session) error {
		return h.wizard.PrevMonth(r.Context(), s)
	})
}

// NextMonth handles POST /api/widget/session/{sessionID}/month/next.
func (h *WidgetHandler) NextMonth(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s *wizard.Session) error {
		return h.wizard.NextMonth(r.Context(), s)
	})
}

// SelectDate handles POST /api/widget/session/{sessionID}/date.
func (h *WidgetHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.transition(w, r, func(s *wizard.Session) error {
		return h.wizard.SelectDate(r.Context(), s, req.Date)
	})
}

// SelectTime handles POST /api/widget/session/{sessionID}/time.
func (h *WidgetHandler) SelectTime(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Time string `json:"time"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	h.transition(w, r, func(s *wizard.Session) error {
		return h.wizard.SelectTime(s, req.Time)
	})
}

// NextStep handles POST /api/widget/session/{sessionID}/next.
func (h *WidgetHandler) NextStep(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.wizard.Next)
}

// BackStep handles POST /api/widget/session/{sessionID}/back.
func (h *WidgetHandler) BackStep(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.wizard.Back)
}

// TogglePriority handles POST /api/widget/session/{sessionID}/priority/toggle.
func (h *WidgetHandler) TogglePriority(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s *wizard.Session) error {
		h.wizard.TogglePriorityPanel(s)
		return nil
	})
}

// DismissConfirmation handles POST /api/widget/session/{sessionID}/confirmation/dismiss.
func (h *WidgetHandler) DismissConfirmation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(s *wizard.Session) error {
		h.wizard.DismissConfirmation(s)
		return nil
	})
}

type contactRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Consent bool   `json:"consent"`
	// Website is the honeypot: real visitors never see this field.
	Website string `json:"website"`
}

// SubmitBooking handles POST /api/widget/session/{sessionID}/book.
func (h *WidgetHandler) SubmitBooking(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.submit(w, r, "booking", func(s *wizard.Session) error {
		return h.wizard.SubmitBooking(r.Context(), s, wizard.ContactInput{
			Name:     req.Name,
			Phone:    req.Phone,
			Consent:  req.Consent,
			Honeypot: req.Website,
		})
	})
}

type priorityRequest struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Note    string `json:"note"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Consent bool   `json:"consent"`
	Website string `json:"website"`
}

// SubmitPriority handles POST /api/widget/session/{sessionID}/priority.
func (h *WidgetHandler) SubmitPriority(w http.ResponseWriter, r *http.Request) {
	var req priorityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.submit(w, r, "priority", func(s *wizard.Session) error {
		return h.wizard.SubmitPriority(r.Context(), s, wizard.PriorityInput{
			Date:     req.Date,
			Time:     req.Time,
			Note:     req.Note,
			Name:     req.Name,
			Phone:    req.Phone,
			Consent:  req.Consent,
			Honeypot: req.Website,
		})
	})
}

// DownloadICS handles GET /api/widget/session/{sessionID}/confirmation.ics.
func (h *WidgetHandler) DownloadICS(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	c := s.Confirmation
	if c == nil {
		respondError(w, http.StatusNotFound, "Keine Buchung vorhanden.")
		return
	}
	date, timeOfDay, ok := splitDateTimeLabel(c.DateTimeLabel)
	if !ok {
		respondError(w, http.StatusNotFound, "Keine Buchung vorhanden.")
		return
	}
	ics, err := h.exporter.ICS(c.BarberName, date, timeOfDay)
	if err != nil {
		h.logger.Error("ics generation failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Kalenderdatei konnte nicht erstellt werden.")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ical.FileName(date, timeOfDay)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics))
}

// transition runs one state change under the session lock and answers with
// the resulting state.
func (h *WidgetHandler) transition(w http.ResponseWriter, r *http.Request, apply func(*wizard.Session) error) {
	id := chi.URLParam(r, "sessionID")
	unlock := h.lockSession(id)
	defer unlock()

	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	if err := apply(s); err != nil {
		h.respondTransitionError(w, err)
		return
	}
	if err := h.store.Save(r.Context(), s); err != nil {
		h.logger.Error("failed to save session", "session_id", s.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "Sitzung konnte nicht gespeichert werden.")
		return
	}
	respondJSON(w, http.StatusOK, h.view(s))
}

// submit is transition plus metrics and the honeypot's silent success.
func (h *WidgetHandler) submit(w http.ResponseWriter, r *http.Request, kind string, apply func(*wizard.Session) error) {
	id := chi.URLParam(r, "sessionID")
	unlock := h.lockSession(id)
	defer unlock()

	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	err := apply(s)
	h.observeSubmission(kind, err)
	switch {
	case err == nil:
	case errors.Is(err, wizard.ErrSuppressed):
		// A filled honeypot answers like nothing happened: current state,
		// no error, no confirmation.
		respondJSON(w, http.StatusOK, h.view(s))
		return
	default:
		h.respondTransitionError(w, err)
		return
	}

	if err := h.store.Save(r.Context(), s); err != nil {
		h.logger.Error("failed to save session", "session_id", s.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "Sitzung konnte nicht gespeichert werden.")
		return
	}
	respondJSON(w, http.StatusOK, h.view(s))
}

func (h *WidgetHandler) observeSubmission(kind string, err error) {
	outcome := "confirmed"
	var verr *wizard.ValidationError
	var apiErr *salonapi.APIError
	switch {
	case err == nil:
	case errors.Is(err, wizard.ErrSuppressed):
		outcome = "suppressed"
	case errors.As(err, &verr):
		outcome = "invalid"
	case errors.As(err, &apiErr):
		outcome = "rejected"
	default:
		outcome = "failed"
	}
	if kind == "priority" {
		h.metrics.ObservePriorityRequest(outcome)
		return
	}
	h.metrics.ObserveBooking(outcome)
}

func (h *WidgetHandler) respondTransitionError(w http.ResponseWriter, err error) {
	var verr *wizard.ValidationError
	var apiErr *salonapi.APIError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusUnprocessableEntity, verr.Msg)
	case errors.Is(err, wizard.ErrDayUnavailable):
		respondError(w, http.StatusConflict, "Dieser Tag ist ausgebucht.")
	case errors.Is(err, wizard.ErrUnknownSlot):
		respondError(w, http.StatusConflict, "Diese Uhrzeit ist nicht mehr frei.")
	case errors.Is(err, wizard.ErrNoBarber), errors.Is(err, wizard.ErrNoDateTime), errors.Is(err, wizard.ErrWrongStep):
		respondError(w, http.StatusConflict, "Bitte zuerst die vorherigen Schritte abschließen.")
	case errors.As(err, &apiErr):
		respondError(w, http.StatusBadGateway, "Buchung fehlgeschlagen – bitte erneut versuchen.")
	default:
		h.logger.Error("wizard transition failed", "error", err)
		respondError(w, http.StatusBadGateway, "Verbindung zum Buchungssystem fehlgeschlagen.")
	}
}

func (h *WidgetHandler) loadSession(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	s, err := h.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, wizard.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "Sitzung abgelaufen – bitte neu laden.")
		} else {
			h.logger.Error("failed to load session", "session_id", id, "error", err)
			respondError(w, http.StatusInternalServerError, "Sitzung konnte nicht geladen werden.")
		}
		return nil, false
	}
	return s, true
}

// lockSession serializes transitions per session id.
func (h *WidgetHandler) lockSession(id string) func() {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(id))
	m := &h.locks[hash.Sum32()%sessionLockStripes]
	m.Lock()
	return m.Unlock
}
