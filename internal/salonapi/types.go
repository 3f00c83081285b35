package salonapi

import "encoding/base64"

// Barber is one bookable staff member, as returned by the backend.
type Barber struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// DayAvailability is the free-slot count for one calendar day.
type DayAvailability struct {
	Date string `json:"date"` // YYYY-MM-DD
	Free int    `json:"free"`
}

// MonthOverview is the per-day availability summary for one barber/month.
type MonthOverview struct {
	Days []DayAvailability `json:"days"`
}

type availabilityResponse struct {
	Slots []string `json:"slots"`
}

// BookRequest is the payload for a confirmed booking.
type BookRequest struct {
	BarberID     string `json:"barber_id"`
	StartTSISO   string `json:"start_ts_iso"` // YYYY-MM-DDTHH:MM, salon-local
	CustomerName string `json:"customer_name"`
	PhoneE164    string `json:"phone_e164"`
}

// BookResult is the backend's answer to a successful booking.
type BookResult struct {
	BookingID string `json:"booking_id"`
}

// PriorityRequest is a non-binding interest submission for an overbooked slot.
type PriorityRequest struct {
	BarberID        string `json:"barber_id"`
	DesiredLocalISO string `json:"desired_local_iso"`
	CustomerName    string `json:"customer_name"`
	PhoneE164       string `json:"phone_e164"`
	Notes           string `json:"notes,omitempty"`
}

// AdminBookingItem is one row of the admin booking list.
type AdminBookingItem struct {
	ID           string `json:"id"`
	CustomerName string `json:"customer_name"`
	PhoneE164    string `json:"phone_e164"`
	Email        string `json:"email,omitempty"`
	Status       string `json:"status"`
	StartLocal   string `json:"start_local"`
	EndLocal     string `json:"end_local"`
	BarberName   string `json:"barber_name"`
	ServiceName  string `json:"service_name"`
}

type adminBookingsResponse struct {
	Items []AdminBookingItem `json:"items"`
}

// TimeOffRequest blocks out an interval during which a barber is unavailable.
type TimeOffRequest struct {
	BarberID      string `json:"barber_id"`
	StartLocalISO string `json:"start_local_iso"`
	EndLocalISO   string `json:"end_local_iso"`
	Reason        string `json:"reason"`
}

// Credentials is the admin username/password pair entered in-page.
type Credentials struct {
	User string
	Pass string
}

// AuthorizationHeader returns the Basic auth header value the backend expects.
func (c Credentials) AuthorizationHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.User+":"+c.Pass))
}

// StatusCancelled is the status the backend assigns to cancelled bookings.
const StatusCancelled = "cancelled"
