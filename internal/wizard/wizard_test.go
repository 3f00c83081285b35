package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belvedhair/booking-widget/internal/salonapi"
)

// fakeAPI records calls and serves canned availability data.
type fakeAPI struct {
	months    map[string][]salonapi.DayAvailability // key barberID|month
	slots     map[string][]string                   // key barberID|date
	bookErr   error
	prioErr   error
	bookID    string
	bookCalls []salonapi.BookRequest
	prioCalls []salonapi.PriorityRequest
}

func (f *fakeAPI) MonthOverview(_ context.Context, barberID, month string) (*salonapi.MonthOverview, error) {
	return &salonapi.MonthOverview{Days: f.months[barberID+"|"+month]}, nil
}

func (f *fakeAPI) Availability(_ context.Context, barberID, date string) ([]string, error) {
	return f.slots[barberID+"|"+date], nil
}

func (f *fakeAPI) Book(_ context.Context, req salonapi.BookRequest) (*salonapi.BookResult, error) {
	f.bookCalls = append(f.bookCalls, req)
	if f.bookErr != nil {
		return nil, f.bookErr
	}
	return &salonapi.BookResult{BookingID: f.bookID}, nil
}

func (f *fakeAPI) SubmitPriorityRequest(_ context.Context, req salonapi.PriorityRequest) error {
	f.prioCalls = append(f.prioCalls, req)
	return f.prioErr
}

var testBarbers = []salonapi.Barber{
	{ID: "b1", Name: "Anna"},
	{ID: "b2", Name: "Mehmet"},
}

func newTestWizard(api *fakeAPI) (*Wizard, *Session) {
	w := New(api, nil)
	s := w.StartSession(testBarbers)
	return w, s
}

func marchDays(freeOnTenth int) []salonapi.DayAvailability {
	days := make([]salonapi.DayAvailability, 0, 31)
	for d := 1; d <= 31; d++ {
		free := 0
		if d == 10 {
			free = freeOnTenth
		}
		days = append(days, salonapi.DayAvailability{
			Date: fmt.Sprintf("2025-03-%02d", d),
			Free: free,
		})
	}
	return days
}

func TestStartSession(t *testing.T) {
	w, s := newTestWizard(&fakeAPI{})
	_ = w
	assert.Equal(t, StepBarber, s.Step)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "12:00", s.PriorityTime)
	assert.Nil(t, s.Confirmation)
}

func TestSelectBarberLoadsMonthAndResetsSelection(t *testing.T) {
	api := &fakeAPI{months: map[string][]salonapi.DayAvailability{}}
	w, s := newTestWizard(api)
	s.Month = "2025-03"
	api.months["b1|2025-03"] = marchDays(2)

	// stale state from a previous selection
	s.Date = "2025-02-10"
	s.Time = "09:00"
	s.Slots = []string{"09:00"}
	s.PriorityOpen = true

	require.NoError(t, w.SelectBarber(context.Background(), s, "b1"))

	assert.Equal(t, "b1", s.BarberID)
	assert.Len(t, s.Days, 31)
	assert.Empty(t, s.Date)
	assert.Empty(t, s.Time)
	assert.Empty(t, s.Slots)
	assert.False(t, s.PriorityOpen)
}

func TestSelectUnknownBarberRejected(t *testing.T) {
	w, s := newTestWizard(&fakeAPI{})
	err := w.SelectBarber(context.Background(), s, "nope")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestMonthNavigationReloadsOverview(t *testing.T) {
	api := &fakeAPI{months: map[string][]salonapi.DayAvailability{
		"b1|2025-03": marchDays(2),
		"b1|2025-04": {{Date: "2025-04-01", Free: 1}},
		"b1|2025-02": {{Date: "2025-02-01", Free: 0}},
	}}
	w, s := newTestWizard(api)
	s.Month = "2025-03"
	require.NoError(t, w.SelectBarber(context.Background(), s, "b1"))

	require.NoError(t, w.NextMonth(context.Background(), s))
	assert.Equal(t, "2025-04", s.Month)
	assert.Len(t, s.Days, 1)

	require.NoError(t, w.PrevMonth(context.Background(), s))
	require.NoError(t, w.PrevMonth(context.Background(), s))
	assert.Equal(t, "2025-02", s.Month)
}

func TestSelectDateRequiresFreeDay(t *testing.T) {
	api := &fakeAPI{
		months: map[string][]salonapi.DayAvailability{"b1|2025-03": marchDays(2)},
		slots:  map[string][]string{"b1|2025-03-10": {"10:00", "10:30"}},
	}
	w, s := newTestWizard(api)
	s.Month = "2025-03"
	require.NoError(t, w.SelectBarber(context.Background(), s, "b1"))

	// Fully booked day: selection must not change.
	err := w.SelectDate(context.Background(), s, "2025-03-11")
	assert.ErrorIs(t, err, ErrDayUnavailable)
	assert.Empty(t, s.Date)

	require.NoError(t, w.SelectDate(context.Background(), s, "2025-03-10"))
	assert.Equal(t, "2025-03-10", s.Date)
	assert.Equal(t, []string{"10:00", "10:30"}, s.Slots)
	assert.Empty(t, s.Time, "changing date resets the chosen time")
}

func TestSelectTimeMustBeFreeSlot(t *testing.T) {
	w, s := newTestWizard(&fakeAPI{})
	s.Slots = []string{"10:00"}
	assert.ErrorIs(t, w.SelectTime(s, "11:00"), ErrUnknownSlot)
	require.NoError(t, w.SelectTime(s, "10:00"))
	assert.Equal(t, "10:00", s.Time)
}

func TestStepGating(t *testing.T) {
	w, s := newTestWizard(&fakeAPI{
		months: map[string][]salonapi.DayAvailability{"b1|2025-03": marchDays(1)},
		slots:  map[string][]string{"b1|2025-03-10": {"10:00"}},
	})
	s.Month = "2025-03"

	assert.ErrorIs(t, w.Next(s), ErrNoBarber)

	require.NoError(t, w.SelectBarber(context.Background(), s, "b1"))
	require.NoError(t, w.Next(s))
	assert.Equal(t, StepDateTime, s.Step)

	assert.ErrorIs(t, w.Next(s), ErrNoDateTime)

	require.NoError(t, w.SelectDate(context.Background(), s, "2025-03-10"))
	assert.ErrorIs(t, w.Next(s), ErrNoDateTime, "time still missing")

	require.NoError(t, w.SelectTime(s, "10:00"))
	require.NoError(t, w.Next(s))
	assert.Equal(t, StepContact, s.Step)

	require.NoError(t, w.Back(s))
	assert.Equal(t, StepDateTime, s.Step)
	require.NoError(t, w.Back(s))
	assert.Equal(t, StepBarber, s.Step)
	assert.ErrorIs(t, w.Back(s), ErrWrongStep)
}

func TestNoFreeInMonthAndBanner(t *testing.T) {
	api := &fakeAPI{
		months: map[string][]salonapi.DayAvailability{"b1|2025-03": marchDays(2)},
		slots:  map[string][]string{"b1|2025-03-10": {}},
	}
	w, s := newTestWizard(api)
	s.Month = "2025-03"
	require.NoError(t, w.SelectBarber(context.Background(), s, "b1"))

	// One day still has slots: no banner from the month view alone.
	assert.False(t, s.NoFreeInMonth())
	assert.False(t, s.ShowPriorityBanner())

	// Selecting that day returns an empty slot list: banner shows.
	require.NoError(t, w.SelectDate(context.Background(), s, "2025-03-10"))
	assert.True(t, s.ShowPriorityBanner())
}

func TestNoFreeInMonthAllBooked(t *testing.T) {
	api := &fakeAPI{months: map[string][]salonapi.DayAvailability{"b1|2025-03": marchDays(0)}}
	w, s := newTestWizard(api)
	s.Month = "2025-03"
	require.NoError(t, w.SelectBarber(context.Background(), s, "b1"))
	assert.True(t, s.NoFreeInMonth())
	assert.True(t, s.ShowPriorityBanner())
}

func TestNoFreeInMonthEmptyOverview(t *testing.T) {
	_, s := newTestWizard(&fakeAPI{})
	assert.False(t, s.NoFreeInMonth(), "an unloaded month is not 'fully booked'")
}

func bookableSession(t *testing.T, api *fakeAPI) (*Wizard, *Session) {
	t.Helper()
	if api.months == nil {
		api.months = map[string][]salonapi.DayAvailability{"b1|2025-03": marchDays(2)}
	}
	if api.slots == nil {
		api.slots = map[string][]string{"b1|2025-03-10": {"14:00"}}
	}
	w, s := newTestWizard(api)
	s.Month = "2025-03"
	require.NoError(t, w.SelectBarber(context.Background(), s, "b1"))
	require.NoError(t, w.Next(s))
	require.NoError(t, w.SelectDate(context.Background(), s, "2025-03-10"))
	require.NoError(t, w.SelectTime(s, "14:00"))
	require.NoError(t, w.Next(s))
	return w, s
}

func TestSubmitBookingValidation(t *testing.T) {
	tests := []struct {
		name string
		in   ContactInput
		msg  string
	}{
		{"empty name", ContactInput{Phone: "+43", Consent: true}, "Name & Telefon erforderlich."},
		{"empty phone", ContactInput{Name: "Jane", Consent: true}, "Name & Telefon erforderlich."},
		{"no consent", ContactInput{Name: "Jane", Phone: "+43"}, "Bitte Datenschutz akzeptieren."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{bookID: "x"}
			w, s := bookableSession(t, api)

			err := w.SubmitBooking(context.Background(), s, tt.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Msg)
			assert.Empty(t, api.bookCalls, "validation failure must not issue a network request")
		})
	}
}

func TestSubmitBookingHoneypotSilentlySuppresses(t *testing.T) {
	api := &fakeAPI{bookID: "x"}
	w, s := bookableSession(t, api)

	err := w.SubmitBooking(context.Background(), s, ContactInput{
		Name: "Jane", Phone: "+43", Consent: true, Honeypot: "gotcha",
	})
	assert.ErrorIs(t, err, ErrSuppressed)
	assert.Empty(t, api.bookCalls)
	assert.Nil(t, s.Confirmation)
}

func TestSubmitBookingSuccess(t *testing.T) {
	api := &fakeAPI{bookID: "abc123"}
	w, s := bookableSession(t, api)
	s.Date = "2025-04-01"
	s.Time = "09:30"

	require.NoError(t, w.SubmitBooking(context.Background(), s, ContactInput{
		Name: "Jane Doe", Phone: "+436640000000", Consent: true,
	}))

	require.Len(t, api.bookCalls, 1)
	assert.Equal(t, "2025-04-01T09:30", api.bookCalls[0].StartTSISO)

	require.NotNil(t, s.Confirmation)
	assert.Equal(t, "Anna", s.Confirmation.BarberName)
	assert.Equal(t, "2025-04-01 09:30", s.Confirmation.DateTimeLabel)
	assert.Equal(t, "abc123", s.Confirmation.BookingID)

	// Wizard resets underneath; the banner stays until dismissed.
	assert.Equal(t, StepBarber, s.Step)
	assert.Empty(t, s.BarberID)
	assert.Empty(t, s.Name)
	assert.Empty(t, s.Phone)
	assert.False(t, s.Consent)
	assert.Empty(t, s.Days)

	w.DismissConfirmation(s)
	assert.Nil(t, s.Confirmation)
}

func TestSubmitBookingBackendFailureSurfaced(t *testing.T) {
	api := &fakeAPI{bookErr: &salonapi.APIError{StatusCode: 409, Body: `{"detail":"taken"}`}}
	w, s := bookableSession(t, api)

	err := w.SubmitBooking(context.Background(), s, ContactInput{Name: "J", Phone: "+43", Consent: true})
	var apiErr *salonapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Nil(t, s.Confirmation)
	assert.Equal(t, StepContact, s.Step, "form stays editable after a rejected booking")
}

func TestSubmitPriority(t *testing.T) {
	api := &fakeAPI{months: map[string][]salonapi.DayAvailability{"b1|2025-03": marchDays(0)}}
	w, s := newTestWizard(api)
	s.Month = "2025-03"
	require.NoError(t, w.SelectBarber(context.Background(), s, "b1"))

	err := w.SubmitPriority(context.Background(), s, PriorityInput{
		Date: "2025-03-15", Time: "", Note: "Nur vormittags",
		Name: "Jane", Phone: "+43", Consent: true,
	})
	require.NoError(t, err)

	require.Len(t, api.prioCalls, 1)
	assert.Equal(t, "2025-03-15T12:00", api.prioCalls[0].DesiredLocalISO, "empty time falls back to 12:00")
	assert.Equal(t, "Nur vormittags", api.prioCalls[0].Notes)

	require.NotNil(t, s.Confirmation)
	assert.Empty(t, s.Confirmation.BookingID, "priority requests carry no booking id")
	assert.Equal(t, StepBarber, s.Step)
	assert.False(t, s.PriorityOpen)
	assert.Equal(t, "12:00", s.PriorityTime)
}

func TestSubmitPriorityHoneypotAndValidation(t *testing.T) {
	api := &fakeAPI{months: map[string][]salonapi.DayAvailability{"b1|2025-03": marchDays(0)}}
	w, s := newTestWizard(api)
	s.Month = "2025-03"
	require.NoError(t, w.SelectBarber(context.Background(), s, "b1"))

	err := w.SubmitPriority(context.Background(), s, PriorityInput{
		Date: "2025-03-15", Name: "J", Phone: "+43", Consent: true, Honeypot: "bot",
	})
	assert.ErrorIs(t, err, ErrSuppressed)
	assert.Empty(t, api.prioCalls)

	err = w.SubmitPriority(context.Background(), s, PriorityInput{
		Name: "J", Phone: "+43", Consent: true,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Bitte Datum wählen.", verr.Msg)
	assert.Empty(t, api.prioCalls)
}

func TestSubmitPriorityUnreachableWithFreeDays(t *testing.T) {
	api := &fakeAPI{months: map[string][]salonapi.DayAvailability{"b1|2025-03": marchDays(3)}}
	w, s := newTestWizard(api)
	s.Month = "2025-03"
	require.NoError(t, w.SelectBarber(context.Background(), s, "b1"))

	in := PriorityInput{Date: "2025-03-15", Name: "J", Phone: "+43", Consent: true}
	err := w.SubmitPriority(context.Background(), s, in)
	assert.ErrorIs(t, err, ErrWrongStep, "no banner, no panel, no request")
	assert.Empty(t, api.prioCalls)

	// Once the panel is open the same submission goes through.
	w.TogglePriorityPanel(s)
	require.NoError(t, w.SubmitPriority(context.Background(), s, in))
	require.Len(t, api.prioCalls, 1)
}

func TestPriorityPanelToggle(t *testing.T) {
	w, s := newTestWizard(&fakeAPI{})
	w.TogglePriorityPanel(s)
	assert.True(t, s.PriorityOpen)
	w.TogglePriorityPanel(s)
	assert.False(t, s.PriorityOpen)
}

func TestSubmitBookingWrapsAPIError(t *testing.T) {
	api := &fakeAPI{bookErr: errors.New("connection refused")}
	w, s := bookableSession(t, api)
	err := w.SubmitBooking(context.Background(), s, ContactInput{Name: "J", Phone: "+43", Consent: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "book:")
}
