package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinichub/clinic-scheduling/internal/clock"
	"github.com/clinichub/clinic-scheduling/internal/directory"
	"github.com/clinichub/clinic-scheduling/internal/domain"
	"github.com/clinichub/clinic-scheduling/internal/schedule"
)

type apptFixture struct {
	repo   *memRepo
	dir    *mockDirectory
	locker *mockLocker
	clk    *clock.Fixed
	svc    *AppointmentService
}

func newApptFixture() *apptFixture {
	f := &apptFixture{
		repo:   newMemRepo(),
		dir:    &mockDirectory{},
		locker: &mockLocker{},
		clk:    &clock.Fixed{T: testNow},
	}
	f.svc = NewAppointmentService(f.repo, f.dir, f.locker, f.clk, testLogger())
	return f
}

func (f *apptFixture) availableSlot(daysFromNow int, start, end string) *Slot {
	d := testDate(daysFromNow)
	return f.repo.addSlot(Slot{
		DoctorID: uuid.New(),
		RoomID:   uuid.New(),
		Date:     d,
		Weekday:  d.Weekday(),
		Window:   win(start, end),
		Status:   SlotAvailable,
	})
}

func (f *apptFixture) slotStatus(t *testing.T, id uuid.UUID) SlotStatus {
	t.Helper()
	s, err := f.repo.GetSlotByID(context.Background(), id)
	require.NoError(t, err)
	return s.Status
}

func (f *apptFixture) hasEvent(eventType string) bool {
	for _, ev := range f.repo.events {
		if ev.EventType == eventType {
			return true
		}
	}
	return false
}

func TestBookAppointment(t *testing.T) {
	f := newApptFixture()
	slot := f.availableSlot(1, "09:00", "09:30")
	patientID := uuid.New()

	appt, err := f.svc.BookAppointment(context.Background(), patientID, slot.ID, "checkup")
	require.NoError(t, err)

	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, patientID, appt.PatientID)
	assert.Equal(t, slot.ID, appt.SlotID)
	assert.Equal(t, "checkup", appt.Reason)
	assert.Equal(t, SlotReserved, f.slotStatus(t, slot.ID))
	assert.True(t, f.hasEvent(EventAppointmentBooked))
}

func TestBookAppointmentUnknownPatient(t *testing.T) {
	f := newApptFixture()
	f.dir.patientFunc = func(ctx context.Context, id uuid.UUID) (*directory.Patient, error) {
		return nil, directory.ErrPatientNotFound
	}
	slot := f.availableSlot(1, "09:00", "09:30")

	_, err := f.svc.BookAppointment(context.Background(), uuid.New(), slot.ID, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, SlotAvailable, f.slotStatus(t, slot.ID))
}

func TestBookAppointmentSlotNotAvailable(t *testing.T) {
	f := newApptFixture()
	slot := f.availableSlot(1, "09:00", "09:30")

	_, err := f.svc.BookAppointment(context.Background(), uuid.New(), slot.ID, "")
	require.NoError(t, err)

	// The slot is now reserved; a second patient cannot take it.
	_, err = f.svc.BookAppointment(context.Background(), uuid.New(), slot.ID, "")
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBookAppointmentLockHeld(t *testing.T) {
	f := newApptFixture()
	f.locker.held = true
	slot := f.availableSlot(1, "09:00", "09:30")

	_, err := f.svc.BookAppointment(context.Background(), uuid.New(), slot.ID, "")
	assert.ErrorIs(t, err, ErrSlotBeingBooked)
	assert.Equal(t, SlotAvailable, f.slotStatus(t, slot.ID))
}

func TestBookAppointmentDuplicatePatient(t *testing.T) {
	f := newApptFixture()
	ctx := context.Background()
	slot := f.availableSlot(1, "09:00", "09:30")
	patientID := uuid.New()

	appt, err := f.svc.BookAppointment(ctx, patientID, slot.ID, "")
	require.NoError(t, err)
	_, err = f.svc.ConfirmAppointment(ctx, appt.ID)
	require.NoError(t, err)
	_, err = f.svc.TerminateAppointment(ctx, appt.ID)
	require.NoError(t, err)

	// The slot is free again, but this patient already consumed it.
	require.Equal(t, SlotAvailable, f.slotStatus(t, slot.ID))
	_, err = f.svc.BookAppointment(ctx, patientID, slot.ID, "")
	assert.ErrorIs(t, err, ErrDuplicateBooking)

	// A different patient may take the freed slot.
	_, err = f.svc.BookAppointment(ctx, uuid.New(), slot.ID, "")
	assert.NoError(t, err)
}

func TestBookAppointmentCancelThenRebook(t *testing.T) {
	f := newApptFixture()
	ctx := context.Background()
	slot := f.availableSlot(1, "09:00", "09:30")
	patientID := uuid.New()

	appt, err := f.svc.BookAppointment(ctx, patientID, slot.ID, "")
	require.NoError(t, err)
	_, err = f.svc.CancelAppointment(ctx, appt.ID)
	require.NoError(t, err)
	require.Equal(t, SlotAvailable, f.slotStatus(t, slot.ID))

	// A cancelled booking does not block the same patient from rebooking.
	again, err := f.svc.BookAppointment(ctx, patientID, slot.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
	assert.Equal(t, SlotReserved, f.slotStatus(t, slot.ID))
}

func TestBookAppointmentAdvancesRecurringSlot(t *testing.T) {
	f := newApptFixture()
	slot := f.repo.addSlot(Slot{
		DoctorID:  uuid.New(),
		RoomID:    uuid.New(),
		Date:      testDate(-7),
		Weekday:   testDate(-7).Weekday(),
		Window:    win("09:00", "09:30"),
		Status:    SlotAvailable,
		Recurring: true,
	})

	_, err := f.svc.BookAppointment(context.Background(), uuid.New(), slot.ID, "")
	require.NoError(t, err)

	got, err := f.repo.GetSlotByID(context.Background(), slot.ID)
	require.NoError(t, err)
	assert.Equal(t, SlotReserved, got.Status)
	assert.True(t, got.Date.Equal(testDate(0)), "date advances in 7-day steps to the first occurrence on or after today")
	assert.Equal(t, slot.Weekday, got.Weekday)
}

func TestBookAppointmentPastSlotRejected(t *testing.T) {
	f := newApptFixture()
	// The sweep has not run yet; the slot is still AVAILABLE but its window
	// closed yesterday.
	slot := f.availableSlot(-1, "09:00", "09:30")

	_, err := f.svc.BookAppointment(context.Background(), uuid.New(), slot.ID, "")
	assert.ErrorIs(t, err, ErrSlotTimePassed)
	assert.ErrorIs(t, err, domain.ErrState)

	for _, a := range f.repo.appts {
		t.Fatalf("no appointment should exist, found %v", a.ID)
	}
}

func TestConfirmAppointment(t *testing.T) {
	f := newApptFixture()
	ctx := context.Background()
	slot := f.availableSlot(1, "09:00", "09:30")

	appt, err := f.svc.BookAppointment(ctx, uuid.New(), slot.ID, "")
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, SlotReserved, f.slotStatus(t, slot.ID), "confirming keeps the slot reserved")

	_, err = f.svc.ConfirmAppointment(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
	assert.ErrorIs(t, err, domain.ErrState)
}

func TestConfirmExpiredSlotFlipsItUnavailable(t *testing.T) {
	f := newApptFixture()
	ctx := context.Background()
	slot := f.availableSlot(0, "11:00", "11:30")

	appt, err := f.svc.BookAppointment(ctx, uuid.New(), slot.ID, "")
	require.NoError(t, err)

	// The confirmation arrives after the slot's window closed but before the
	// sweep has run.
	f.clk.Advance(2 * time.Hour)

	_, err = f.svc.ConfirmAppointment(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrSlotTimePassed)
	assert.ErrorIs(t, err, domain.ErrState)

	// The flip to UNAVAILABLE survives the failed confirmation.
	assert.Equal(t, SlotUnavailable, f.slotStatus(t, slot.ID))
	assert.True(t, f.hasEvent(EventSlotExpiredOnAccess))

	got, err := f.repo.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestTerminateAppointment(t *testing.T) {
	f := newApptFixture()
	ctx := context.Background()
	slot := f.availableSlot(1, "09:00", "09:30")

	appt, err := f.svc.BookAppointment(ctx, uuid.New(), slot.ID, "")
	require.NoError(t, err)

	// Terminating a pending appointment is rejected.
	_, err = f.svc.TerminateAppointment(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrNotConfirmed)

	_, err = f.svc.ConfirmAppointment(ctx, appt.ID)
	require.NoError(t, err)

	done, err := f.svc.TerminateAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, SlotAvailable, f.slotStatus(t, slot.ID), "completion frees the slot")

	_, err = f.svc.TerminateAppointment(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestCancelAppointment(t *testing.T) {
	f := newApptFixture()
	ctx := context.Background()

	t.Run("pending", func(t *testing.T) {
		slot := f.availableSlot(1, "09:00", "09:30")
		appt, err := f.svc.BookAppointment(ctx, uuid.New(), slot.ID, "")
		require.NoError(t, err)

		cancelled, err := f.svc.CancelAppointment(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
		assert.Equal(t, SlotAvailable, f.slotStatus(t, slot.ID))

		_, err = f.svc.CancelAppointment(ctx, appt.ID)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
	})

	t.Run("confirmed", func(t *testing.T) {
		slot := f.availableSlot(2, "09:00", "09:30")
		appt, err := f.svc.BookAppointment(ctx, uuid.New(), slot.ID, "")
		require.NoError(t, err)
		_, err = f.svc.ConfirmAppointment(ctx, appt.ID)
		require.NoError(t, err)

		cancelled, err := f.svc.CancelAppointment(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
		assert.Equal(t, SlotAvailable, f.slotStatus(t, slot.ID))
	})
}

func TestUpdateAppointmentReason(t *testing.T) {
	f := newApptFixture()
	ctx := context.Background()
	slot := f.availableSlot(1, "09:00", "09:30")

	appt, err := f.svc.BookAppointment(ctx, uuid.New(), slot.ID, "checkup")
	require.NoError(t, err)

	reason := "follow-up"
	updated, err := f.svc.UpdateAppointment(ctx, appt.ID, UpdateParams{Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, "follow-up", updated.Reason)
	assert.Equal(t, slot.ID, updated.SlotID)
	assert.Equal(t, SlotReserved, f.slotStatus(t, slot.ID))
}

func TestUpdateAppointmentMovesSlot(t *testing.T) {
	f := newApptFixture()
	ctx := context.Background()
	oldSlot := f.availableSlot(1, "09:00", "09:30")
	newSlot := f.availableSlot(1, "10:00", "10:30")

	appt, err := f.svc.BookAppointment(ctx, uuid.New(), oldSlot.ID, "")
	require.NoError(t, err)

	updated, err := f.svc.UpdateAppointment(ctx, appt.ID, UpdateParams{SlotID: &newSlot.ID})
	require.NoError(t, err)

	assert.Equal(t, newSlot.ID, updated.SlotID)
	assert.Equal(t, StatusPending, updated.Status)
	assert.Equal(t, SlotAvailable, f.slotStatus(t, oldSlot.ID))
	assert.Equal(t, SlotReserved, f.slotStatus(t, newSlot.ID))
	assert.True(t, f.hasEvent(EventAppointmentRescheduled))
}

func TestUpdateAppointmentTargetNotAvailable(t *testing.T) {
	f := newApptFixture()
	ctx := context.Background()
	oldSlot := f.availableSlot(1, "09:00", "09:30")
	target := f.availableSlot(1, "10:00", "10:30")

	appt, err := f.svc.BookAppointment(ctx, uuid.New(), oldSlot.ID, "")
	require.NoError(t, err)
	// Someone else takes the target first.
	_, err = f.svc.BookAppointment(ctx, uuid.New(), target.ID, "")
	require.NoError(t, err)

	_, err = f.svc.UpdateAppointment(ctx, appt.ID, UpdateParams{SlotID: &target.ID})
	assert.ErrorIs(t, err, ErrTargetSlotNotAvailable)
	assert.ErrorIs(t, err, domain.ErrState)

	// Nothing moved.
	assert.Equal(t, SlotReserved, f.slotStatus(t, oldSlot.ID))
	assert.Equal(t, SlotReserved, f.slotStatus(t, target.ID))
	got, err := f.repo.GetAppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, oldSlot.ID, got.SlotID)
}

func TestUpdateAppointmentRequiresPending(t *testing.T) {
	f := newApptFixture()
	ctx := context.Background()
	slot := f.availableSlot(1, "09:00", "09:30")

	appt, err := f.svc.BookAppointment(ctx, uuid.New(), slot.ID, "")
	require.NoError(t, err)
	_, err = f.svc.ConfirmAppointment(ctx, appt.ID)
	require.NoError(t, err)

	reason := "too late"
	_, err = f.svc.UpdateAppointment(ctx, appt.ID, UpdateParams{Reason: &reason})
	assert.ErrorIs(t, err, ErrUpdateRequiresPending)
	assert.ErrorIs(t, err, domain.ErrState)
}

func TestDeleteAppointment(t *testing.T) {
	f := newApptFixture()
	ctx := context.Background()

	t.Run("pending releases slot", func(t *testing.T) {
		slot := f.availableSlot(1, "09:00", "09:30")
		appt, err := f.svc.BookAppointment(ctx, uuid.New(), slot.ID, "")
		require.NoError(t, err)

		require.NoError(t, f.svc.DeleteAppointment(ctx, appt.ID))
		assert.Equal(t, SlotAvailable, f.slotStatus(t, slot.ID))
		_, err = f.repo.GetAppointmentByID(ctx, appt.ID)
		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	})

	t.Run("confirmed is forbidden", func(t *testing.T) {
		slot := f.availableSlot(2, "09:00", "09:30")
		appt, err := f.svc.BookAppointment(ctx, uuid.New(), slot.ID, "")
		require.NoError(t, err)
		_, err = f.svc.ConfirmAppointment(ctx, appt.ID)
		require.NoError(t, err)

		err = f.svc.DeleteAppointment(ctx, appt.ID)
		assert.ErrorIs(t, err, ErrDeleteForbidden)
		assert.ErrorIs(t, err, domain.ErrState)
		assert.Equal(t, SlotReserved, f.slotStatus(t, slot.ID))
	})

	t.Run("cancelled leaves slot alone", func(t *testing.T) {
		slot := f.availableSlot(3, "09:00", "09:30")
		appt, err := f.svc.BookAppointment(ctx, uuid.New(), slot.ID, "")
		require.NoError(t, err)
		_, err = f.svc.CancelAppointment(ctx, appt.ID)
		require.NoError(t, err)

		// Another patient takes the freed slot before the delete.
		_, err = f.svc.BookAppointment(ctx, uuid.New(), slot.ID, "")
		require.NoError(t, err)

		require.NoError(t, f.svc.DeleteAppointment(ctx, appt.ID))
		assert.Equal(t, SlotReserved, f.slotStatus(t, slot.ID))
	})
}

func TestListAppointmentsByPatient(t *testing.T) {
	f := newApptFixture()
	ctx := context.Background()
	patientID := uuid.New()

	for i := 1; i <= 3; i++ {
		slot := f.availableSlot(i, "09:00", "09:30")
		_, err := f.svc.BookAppointment(ctx, patientID, slot.ID, "")
		require.NoError(t, err)
	}
	other := f.availableSlot(4, "09:00", "09:30")
	_, err := f.svc.BookAppointment(ctx, uuid.New(), other.ID, "")
	require.NoError(t, err)

	appts, err := f.svc.ListAppointmentsByPatient(ctx, patientID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, appts, 3)
	for _, a := range appts {
		assert.Equal(t, patientID, a.PatientID)
	}
}

func TestSlotIsPastUsesWindowEnd(t *testing.T) {
	s := Slot{Date: schedule.DateOnly(testNow), Window: win("09:00", "09:30")}
	assert.True(t, s.IsPast(testNow))

	s.Window = win("09:00", "11:00")
	assert.False(t, s.IsPast(testNow))
}
