package wizard

import (
	"time"

	"github.com/belvedhair/booking-widget/internal/salonapi"
)

// Step identifies the wizard page the visitor is on.
type Step int

const (
	StepBarber   Step = 1 // choose barber
	StepDateTime Step = 2 // choose date and time
	StepContact  Step = 3 // enter contact details
)

const defaultPriorityTime = "12:00"

// Confirmation is shown after a successful booking or priority request and
// stays visible until explicitly dismissed.
type Confirmation struct {
	BarberName    string `json:"barber_name"`
	DateTimeLabel string `json:"date_time"` // "YYYY-MM-DD HH:MM"
	BookingID     string `json:"booking_id,omitempty"`
}

// Session is the transient state of one visitor's booking wizard. It lives
// only in the session store; nothing here outlasts the booking flow.
type Session struct {
	ID   string `json:"id"`
	Step Step   `json:"step"`

	Barbers  []salonapi.Barber `json:"barbers"`
	BarberID string            `json:"barber_id"`

	Month string                     `json:"month"` // YYYY-MM
	Days  []salonapi.DayAvailability `json:"days"`
	Date  string                     `json:"date"` // YYYY-MM-DD
	Slots []string                   `json:"slots"`
	Time  string                     `json:"time"` // HH:MM

	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Consent  bool   `json:"consent"`
	Honeypot string `json:"honeypot"`

	PriorityOpen bool   `json:"priority_open"`
	PriorityTime string `json:"priority_time"`
	PriorityNote string `json:"priority_note"`

	Confirmation *Confirmation `json:"confirmation,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy. Stores hand out clones so an aborted
// transition cannot leak partial mutations into persisted state.
func (s *Session) Clone() *Session {
	c := *s
	if s.Barbers != nil {
		c.Barbers = append([]salonapi.Barber(nil), s.Barbers...)
	}
	if s.Days != nil {
		c.Days = append([]salonapi.DayAvailability(nil), s.Days...)
	}
	if s.Slots != nil {
		c.Slots = append([]string(nil), s.Slots...)
	}
	if s.Confirmation != nil {
		conf := *s.Confirmation
		c.Confirmation = &conf
	}
	return &c
}

// BarberName resolves the selected barber's display name, empty if none.
func (s *Session) BarberName() string {
	for _, b := range s.Barbers {
		if b.ID == s.BarberID {
			return b.Name
		}
	}
	return ""
}

// NoFreeInMonth reports whether the loaded month has no bookable day at all.
// An empty overview does not count: it means nothing was loaded yet.
func (s *Session) NoFreeInMonth() bool {
	if len(s.Days) == 0 {
		return false
	}
	for _, d := range s.Days {
		if d.Free > 0 {
			return false
		}
	}
	return true
}

// ShowPriorityBanner reports whether the priority-request entry point is
// visible on step 2: either the whole month is booked out, or the selected
// day came back with zero slots.
func (s *Session) ShowPriorityBanner() bool {
	return s.NoFreeInMonth() || (s.Date != "" && len(s.Slots) == 0)
}

// resetDraft clears everything the visitor entered, returning the wizard to
// step 1. The confirmation banner and the displayed month are kept.
func (s *Session) resetDraft() {
	s.Step = StepBarber
	s.BarberID = ""
	s.Days = nil
	s.Date = ""
	s.Slots = nil
	s.Time = ""
	s.Name = ""
	s.Phone = ""
	s.Consent = false
	s.Honeypot = ""
	s.PriorityOpen = false
	s.PriorityTime = defaultPriorityTime
	s.PriorityNote = ""
}
