package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belvedhair/booking-widget/internal/salonapi"
)

type fakeBackend struct {
	items       []salonapi.AdminBookingItem
	listErr     error
	cancelErr   error
	timeOffErr  error
	lastQuery   [3]string
	cancelled   []string
	timeOffReqs []salonapi.TimeOffRequest
}

func (f *fakeBackend) AdminBookings(_ context.Context, _ salonapi.Credentials, frm, to, barberID string) ([]salonapi.AdminBookingItem, error) {
	f.lastQuery = [3]string{frm, to, barberID}
	return f.items, f.listErr
}

func (f *fakeBackend) AdminCancel(_ context.Context, _ salonapi.Credentials, bookingID string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, bookingID)
	return nil
}

func (f *fakeBackend) AdminTimeOff(_ context.Context, _ salonapi.Credentials, req salonapi.TimeOffRequest) error {
	if f.timeOffErr != nil {
		return f.timeOffErr
	}
	f.timeOffReqs = append(f.timeOffReqs, req)
	return nil
}

var creds = salonapi.Credentials{User: "admin", Pass: "pw"}

func sampleItems() []salonapi.AdminBookingItem {
	return []salonapi.AdminBookingItem{
		{ID: "bk1", CustomerName: "Jane", Status: "booked"},
		{ID: "bk2", CustomerName: "Max", Status: "booked"},
	}
}

func TestLoad(t *testing.T) {
	backend := &fakeBackend{items: sampleItems()}
	panel := NewPanel(backend, nil)

	items, err := panel.Load(context.Background(), creds, Query{From: "2025-03-01", To: "2025-03-14", BarberID: "b1"})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, [3]string{"2025-03-01", "2025-03-14", "b1"}, backend.lastQuery)
}

func TestLoadFailureIsGenericLoginFailure(t *testing.T) {
	backend := &fakeBackend{listErr: &salonapi.APIError{StatusCode: 401, Body: "nope"}}
	panel := NewPanel(backend, nil)

	_, err := panel.Load(context.Background(), creds, Query{})
	assert.ErrorIs(t, err, ErrLoginFailed)

	// A 500 looks the same: the page cannot tell them apart.
	backend.listErr = &salonapi.APIError{StatusCode: 500, Body: "boom"}
	_, err = panel.Load(context.Background(), creds, Query{})
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestCancelMutatesOnlyMatchingItem(t *testing.T) {
	backend := &fakeBackend{}
	panel := NewPanel(backend, nil)
	items := sampleItems()

	updated, err := panel.Cancel(context.Background(), creds, items, "bk1")
	require.NoError(t, err)

	assert.Equal(t, salonapi.StatusCancelled, updated[0].Status)
	assert.Equal(t, "booked", updated[1].Status)
	assert.Equal(t, "booked", items[0].Status, "input list stays untouched")
	assert.Equal(t, []string{"bk1"}, backend.cancelled)
}

func TestCancelFailureLeavesListUnchangedAndSurfacesError(t *testing.T) {
	backend := &fakeBackend{cancelErr: &salonapi.APIError{StatusCode: 502, Body: "bad gateway"}}
	panel := NewPanel(backend, nil)
	items := sampleItems()

	updated, err := panel.Cancel(context.Background(), creds, items, "bk1")
	require.Error(t, err)
	assert.Equal(t, items, updated)
}

func TestAddTimeOffBarberFallbackChain(t *testing.T) {
	barbers := []salonapi.Barber{{ID: "b1", Name: "Anna"}, {ID: "b2", Name: "Mehmet"}}
	form := TimeOffForm{Date: "2025-03-10", Start: "10:00", End: "12:00", Reason: "Pause"}

	tests := []struct {
		name     string
		formID   string
		filterID string
		want     string
	}{
		{"explicit barber wins", "b2", "b1", "b2"},
		{"falls back to filter", "", "b1", "b1"},
		{"falls back to first known", "", "", "b1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			panel := NewPanel(backend, nil)

			f := form
			f.BarberID = tt.formID
			require.NoError(t, panel.AddTimeOff(context.Background(), creds, f, tt.filterID, barbers))

			require.Len(t, backend.timeOffReqs, 1)
			got := backend.timeOffReqs[0]
			assert.Equal(t, tt.want, got.BarberID)
			assert.Equal(t, "2025-03-10T10:00", got.StartLocalISO)
			assert.Equal(t, "2025-03-10T12:00", got.EndLocalISO)
			assert.Equal(t, "Pause", got.Reason)
		})
	}
}

func TestAddTimeOffNoBarberAtAll(t *testing.T) {
	panel := NewPanel(&fakeBackend{}, nil)
	err := panel.AddTimeOff(context.Background(), creds, TimeOffForm{Date: "2025-03-10", Start: "10:00", End: "12:00"}, "", nil)
	assert.ErrorIs(t, err, ErrNoBarber)
}

func TestAddTimeOffFailureSurfaced(t *testing.T) {
	backend := &fakeBackend{timeOffErr: &salonapi.APIError{StatusCode: 500, Body: "boom"}}
	panel := NewPanel(backend, nil)
	err := panel.AddTimeOff(context.Background(), creds, TimeOffForm{BarberID: "b1", Date: "2025-03-10", Start: "10:00", End: "12:00"}, "", nil)
	assert.Error(t, err)
}
