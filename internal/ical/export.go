// Package ical produces the calendar artifacts offered after a successful
// booking: a downloadable .ics file and a Google Calendar deep link.
package ical

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Appointments are fixed-length; the backend books 30-minute slots.
const eventDuration = 30 * time.Minute

const icsTemplate = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//BelvedHair//Booking//DE
BEGIN:VEVENT
UID:%s
DTSTAMP:%s
DTSTART:%s
DTEND:%s
SUMMARY:Haarschnitt bei %s
DESCRIPTION:Buchung online bestätigt.
LOCATION:%s
END:VEVENT
END:VCALENDAR`

// Exporter builds calendar exports for booked appointments. The supplied
// date and time are wall-clock in the salon's timezone and are serialized
// as UTC.
type Exporter struct {
	location *time.Location
	venue    string

	now    func() time.Time
	newUID func() string
}

// New creates an Exporter for the given salon timezone and venue name.
func New(location *time.Location, venue string) *Exporter {
	if location == nil {
		location = time.Local
	}
	return &Exporter{
		location: location,
		venue:    venue,
		now:      time.Now,
		newUID:   uuid.NewString,
	}
}

// ICS renders a minimal VCALENDAR/VEVENT block for the appointment.
// Output is deterministic except for the UID and creation timestamp.
func (e *Exporter) ICS(barber, date, timeOfDay string) (string, error) {
	start, end, err := e.eventWindow(date, timeOfDay)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(icsTemplate,
		e.newUID(),
		formatUTC(e.now()),
		formatUTC(start),
		formatUTC(end),
		barber,
		e.venue,
	), nil
}

// GoogleLink builds a calendar.google.com render link for the appointment.
func (e *Exporter) GoogleLink(barber, date, timeOfDay string) (string, error) {
	start, end, err := e.eventWindow(date, timeOfDay)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", "Haarschnitt bei "+barber)
	q.Set("dates", formatUTC(start)+"/"+formatUTC(end))
	q.Set("location", e.venue)
	q.Set("details", "Online gebucht.")
	return "https://calendar.google.com/calendar/render?" + q.Encode(), nil
}

// FileName is the download name offered for the .ics blob.
func FileName(date, timeOfDay string) string {
	return fmt.Sprintf("termin-%s-%s.ics", date, timeOfDay)
}

func (e *Exporter) eventWindow(date, timeOfDay string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02T15:04", date+"T"+timeOfDay, e.location)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("ical: invalid appointment time %s %s: %w", date, timeOfDay, err)
	}
	return start, start.Add(eventDuration), nil
}

// formatUTC serializes a timestamp as YYYYMMDDTHHMMSSZ.
func formatUTC(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
