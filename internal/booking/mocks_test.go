package booking

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinichub/clinic-scheduling/internal/availability"
	"github.com/clinichub/clinic-scheduling/internal/directory"
	redisclient "github.com/clinichub/clinic-scheduling/internal/redis"
	"github.com/clinichub/clinic-scheduling/internal/schedule"
)

// memRepo is an in-memory Repository used by the service tests. Status
// updates keep the compare-and-swap semantics of the Postgres repository.
type memRepo struct {
	mu     sync.Mutex
	slots  map[uuid.UUID]*Slot
	appts  map[uuid.UUID]*Appointment
	events []EventLog
}

func newMemRepo() *memRepo {
	return &memRepo{
		slots: make(map[uuid.UUID]*Slot),
		appts: make(map[uuid.UUID]*Appointment),
	}
}

func (m *memRepo) addSlot(s Slot) *Slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := s
	m.slots[cp.ID] = &cp
	return &cp
}

func (m *memRepo) WithTx(ctx context.Context, fn func(Repository) error) error {
	return fn(m)
}

func (m *memRepo) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) GetSlotByIDForUpdate(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return m.GetSlotByID(ctx, id)
}

func (m *memRepo) CreateSlot(ctx context.Context, s *Slot) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.slots[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memRepo) UpdateSlot(ctx context.Context, s *Slot) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[s.ID]; !ok {
		return nil, ErrSlotNotFound
	}
	cp := *s
	m.slots[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memRepo) UpdateSlotStatus(ctx context.Context, id uuid.UUID, from, to SlotStatus) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok || s.Status != from {
		return nil, ErrSlotStatusChanged
	}
	s.Status = to
	cp := *s
	return &cp, nil
}

func (m *memRepo) UpdateSlotDate(ctx context.Context, id uuid.UUID, date time.Time, weekday time.Weekday) (*Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, ErrSlotNotFound
	}
	s.Date = date
	s.Weekday = weekday
	cp := *s
	return &cp, nil
}

func (m *memRepo) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[id]; !ok {
		return ErrSlotNotFound
	}
	delete(m.slots, id)
	return nil
}

func (m *memRepo) ListSlotsByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slot
	for _, s := range m.slots {
		if s.DoctorID == doctorID && !s.Date.Before(from) && !s.Date.After(to) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memRepo) ListDoctorSlotsOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time, excludeID *uuid.UUID) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slot
	for _, s := range m.slots {
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		if s.DoctorID == doctorID && s.Date.Equal(date) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memRepo) ListRoomSlotsOnDate(ctx context.Context, roomID uuid.UUID, date time.Time, excludeID *uuid.UUID) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slot
	for _, s := range m.slots {
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		if s.RoomID == roomID && s.Date.Equal(date) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memRepo) ListRecurringDoctorSlots(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday, excludeID *uuid.UUID) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slot
	for _, s := range m.slots {
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		if s.DoctorID == doctorID && s.Recurring && s.Weekday == weekday {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memRepo) ListRecurringRoomSlots(ctx context.Context, roomID uuid.UUID, weekday time.Weekday, excludeID *uuid.UUID) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Slot
	for _, s := range m.slots {
		if excludeID != nil && s.ID == *excludeID {
			continue
		}
		if s.RoomID == roomID && s.Recurring && s.Weekday == weekday {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memRepo) ExpireDueSlots(ctx context.Context, today time.Time, nowMin int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.slots {
		if s.Status != SlotAvailable && s.Status != SlotReserved {
			continue
		}
		if s.Date.Before(today) || (s.Date.Equal(today) && s.Window.End.Minutes() < nowMin) {
			s.Status = SlotExpired
			n++
		}
	}
	return n, nil
}

func (m *memRepo) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memRepo) GetAppointmentByPatientAndSlot(ctx context.Context, patientID, slotID uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appts {
		if a.PatientID == patientID && a.SlotID == slotID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *memRepo) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.appts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memRepo) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appts[a.ID]; !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	m.appts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memRepo) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentStatusChanged
	}
	a.Status = to
	cp := *a
	return &cp, nil
}

func (m *memRepo) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appts[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(m.appts, id)
	return nil
}

func (m *memRepo) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appts {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memRepo) InsertEvent(ctx context.Context, ev EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// mockDirectory answers every lookup with an existing record unless a func
// field overrides it.
type mockDirectory struct {
	doctorFunc  func(ctx context.Context, id uuid.UUID) (*directory.Doctor, error)
	patientFunc func(ctx context.Context, id uuid.UUID) (*directory.Patient, error)
	roomFunc    func(ctx context.Context, id uuid.UUID) (*directory.Room, error)
}

func (m *mockDirectory) GetDoctorByID(ctx context.Context, id uuid.UUID) (*directory.Doctor, error) {
	if m.doctorFunc != nil {
		return m.doctorFunc(ctx, id)
	}
	return &directory.Doctor{ID: id}, nil
}

func (m *mockDirectory) GetPatientByID(ctx context.Context, id uuid.UUID) (*directory.Patient, error) {
	if m.patientFunc != nil {
		return m.patientFunc(ctx, id)
	}
	return &directory.Patient{ID: id}, nil
}

func (m *mockDirectory) GetHealthCenterByID(ctx context.Context, id uuid.UUID) (*directory.HealthCenter, error) {
	return &directory.HealthCenter{ID: id}, nil
}

func (m *mockDirectory) GetConsultationDurationByID(ctx context.Context, id uuid.UUID) (*directory.ConsultationDuration, error) {
	return &directory.ConsultationDuration{ID: id, Minutes: 30}, nil
}

func (m *mockDirectory) GetRoomByID(ctx context.Context, id uuid.UUID) (*directory.Room, error) {
	if m.roomFunc != nil {
		return m.roomFunc(ctx, id)
	}
	return &directory.Room{ID: id, Status: directory.RoomAvailable}, nil
}

// mockAvailability serves fixed active windows for conflict/coverage queries.
type mockAvailability struct {
	windows []availability.Availability
	err     error
}

func (m *mockAvailability) GetAvailabilityByID(ctx context.Context, id uuid.UUID) (*availability.Availability, error) {
	return nil, availability.ErrAvailabilityNotFound
}

func (m *mockAvailability) ListActiveForConflict(ctx context.Context, doctorID, centerID uuid.UUID, weekday time.Weekday, excludeID *uuid.UUID) ([]availability.Availability, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []availability.Availability
	for _, a := range m.windows {
		if a.Weekday == weekday {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAvailability) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]availability.Availability, error) {
	return m.windows, nil
}

func (m *mockAvailability) CreateAvailability(ctx context.Context, a *availability.Availability) (*availability.Availability, error) {
	return a, nil
}

func (m *mockAvailability) UpdateAvailability(ctx context.Context, a *availability.Availability) (*availability.Availability, error) {
	return a, nil
}

func (m *mockAvailability) SetAvailabilityActive(ctx context.Context, id uuid.UUID, active bool) (*availability.Availability, error) {
	return nil, availability.ErrAvailabilityNotFound
}

func (m *mockAvailability) DeleteAvailability(ctx context.Context, id uuid.UUID) error {
	return nil
}

// mockLocker runs the critical section inline, optionally simulating a held
// lock.
type mockLocker struct {
	held bool
}

func (m *mockLocker) WithSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error {
	if m.held {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func mustTod(s string) schedule.TimeOfDay {
	v, err := schedule.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return v
}

func win(start, end string) schedule.Window {
	return schedule.Window{Start: mustTod(start), End: mustTod(end)}
}
