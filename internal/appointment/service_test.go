package appointment

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmontano/taller-booking-backend/internal/events"
	"github.com/vmontano/taller-booking-backend/internal/locker"
	"github.com/vmontano/taller-booking-backend/internal/mechanic"
	"github.com/vmontano/taller-booking-backend/internal/schedule"
)

// fakeRepo is an in-memory Repository safe for concurrent use.
type fakeRepo struct {
	mu      sync.Mutex
	seq     int
	items   map[string]Appointment
	updates int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[string]Appointment)}
}

func (r *fakeRepo) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	a.ID = "apt-" + strconv.Itoa(r.seq)
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.items[a.ID] = *a
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *fakeRepo) List(_ context.Context, filter Filter) ([]*Appointment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Appointment
	for id := range r.items {
		a := r.items[id]
		if filter.UserID != "" && a.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && string(a.Status) != filter.Status {
			continue
		}
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, len(out), nil
}

func (r *fakeRepo) Update(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.ID]; !ok {
		return ErrNotFound
	}
	r.updates++
	a.UpdatedAt = time.Now()
	r.items[a.ID] = *a
	return nil
}

func (r *fakeRepo) ActiveForUser(_ context.Context, userID string) ([]*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Appointment
	for id := range r.items {
		a := r.items[id]
		if a.UserID == userID && a.Status.Active() {
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeRepo) BusyForMechanicDay(_ context.Context, mechanicID string, dayStart, dayEnd time.Time) ([]schedule.Busy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var busy []schedule.Busy
	for _, a := range r.items {
		if a.MechanicID == nil || *a.MechanicID != mechanicID || !a.Status.Active() {
			continue
		}
		if a.StartTime.Before(dayStart) || !a.StartTime.Before(dayEnd) {
			continue
		}
		busy = append(busy, schedule.Busy{
			ID:       a.ID,
			Interval: schedule.Interval{Start: a.StartTime, End: a.EndTime},
		})
	}
	return busy, nil
}

// fakeMechRepo serves a fixed roster.
type fakeMechRepo struct {
	mechs []*mechanic.Mechanic
}

func (r *fakeMechRepo) Create(context.Context, *mechanic.Mechanic) error { return nil }
func (r *fakeMechRepo) Update(context.Context, *mechanic.Mechanic) error { return nil }
func (r *fakeMechRepo) Delete(context.Context, string) error             { return nil }

func (r *fakeMechRepo) GetByID(_ context.Context, id string) (*mechanic.Mechanic, error) {
	for _, m := range r.mechs {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, mechanic.ErrNotFound
}

func (r *fakeMechRepo) GetByPhone(_ context.Context, phone string) (*mechanic.Mechanic, error) {
	for _, m := range r.mechs {
		if m.Phone == phone {
			return m, nil
		}
	}
	return nil, mechanic.ErrNotFound
}

func (r *fakeMechRepo) List(_ context.Context, filter mechanic.Filter) ([]*mechanic.Mechanic, int, error) {
	var out []*mechanic.Mechanic
	for _, m := range r.mechs {
		if filter.ServiceKey != "" && !m.CanPerform(filter.ServiceKey) {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.AppointmentEvent
}

func (p *capturePublisher) Publish(_ context.Context, ev events.AppointmentEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// Wednesday 2024-06-05, mid-morning.
var testNow = time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, mechs ...*mechanic.Mechanic) (Service, *fakeRepo, *capturePublisher) {
	t.Helper()
	if len(mechs) == 0 {
		mechs = []*mechanic.Mechanic{{ID: "m1", Name: "Pedro", Phone: "55511111"}}
	}
	repo := newFakeRepo()
	pub := &capturePublisher{}
	svc := NewService(
		repo,
		mechanic.NewService(&fakeMechRepo{mechs: mechs}),
		locker.NewKeyed(),
		pub,
		Config{
			Window:      schedule.DefaultWindow(),
			SlotOptions: schedule.Options{Mode: schedule.ModeDurationAware, StepMinutes: 30, BufferMinutes: 10},
			Location:    time.UTC,
		},
		zerolog.Nop(),
	)
	svc.(*service).nowFn = func() time.Time { return testNow }
	return svc, repo, pub
}

func TestCreate(t *testing.T) {
	svc, _, pub := newTestService(t)

	a, err := svc.Create(context.Background(), CreateRequest{
		UserID:        "u1",
		ServicePhrase: "cambio de aceite",
		DatePhrase:    "2024-06-10",
		TimePhrase:    "3 y media",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, a.Status)
	assert.Equal(t, "cambio_aceite", a.ServiceKey)
	assert.Equal(t, time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC), a.StartTime)
	assert.Equal(t, time.Date(2024, 6, 10, 16, 30, 0, 0, time.UTC), a.EndTime)
	require.NotNil(t, a.MechanicID)
	assert.Equal(t, "m1", *a.MechanicID)
	assert.Equal(t, []string{events.TypeCreated}, pub.types())
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, repo, _ := newTestService(t)

	tests := []struct {
		name    string
		req     CreateRequest
		wantErr error
	}{
		{
			"unknown service",
			CreateRequest{UserID: "u1", ServicePhrase: "lavado de coche", DatePhrase: "hoy", TimePhrase: "10"},
			ErrUnknownService,
		},
		{
			"past date",
			CreateRequest{UserID: "u1", ServicePhrase: "balanceo", DatePhrase: "1 de junio de 2024", TimePhrase: "10"},
			ErrPastDate,
		},
		{
			"unrecognized date",
			CreateRequest{UserID: "u1", ServicePhrase: "balanceo", DatePhrase: "algún día", TimePhrase: "10"},
			ErrUnrecognizedDate,
		},
		{
			"unrecognized time",
			CreateRequest{UserID: "u1", ServicePhrase: "balanceo", DatePhrase: "hoy", TimePhrase: "cuando se pueda"},
			ErrUnrecognizedTime,
		},
		{
			"outside business hours",
			CreateRequest{UserID: "u1", ServicePhrase: "balanceo", DatePhrase: "mañana", TimePhrase: "medianoche"},
			ErrOutsideBusinessHours,
		},
		{
			"service would end past close",
			CreateRequest{UserID: "u1", ServicePhrase: "mantenimiento preventivo", DatePhrase: "mañana", TimePhrase: "17:00"},
			ErrOutsideBusinessHours,
		},
		{
			"unknown mechanic",
			CreateRequest{UserID: "u1", ServicePhrase: "balanceo", DatePhrase: "mañana", TimePhrase: "10", MechanicID: "ghost"},
			ErrMechanicNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, repo.items, "rejected requests must not write")
}

func TestCreateFallsToNextCapableMechanic(t *testing.T) {
	svc, _, _ := newTestService(t,
		&mechanic.Mechanic{ID: "m1", Name: "Pedro", Phone: "55511111"},
		&mechanic.Mechanic{ID: "m2", Name: "Lucía", Phone: "55522222"},
	)

	first, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "balanceo", DatePhrase: "2024-06-10", TimePhrase: "10:00",
	})
	require.NoError(t, err)
	require.Equal(t, "m1", *first.MechanicID)

	second, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u2", ServicePhrase: "balanceo", DatePhrase: "2024-06-10", TimePhrase: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "m2", *second.MechanicID)

	// Both mechanics occupied now.
	_, err = svc.Create(context.Background(), CreateRequest{
		UserID: "u3", ServicePhrase: "balanceo", DatePhrase: "2024-06-10", TimePhrase: "10:00",
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestCreateRespectsCapabilities(t *testing.T) {
	svc, _, _ := newTestService(t,
		&mechanic.Mechanic{ID: "m1", Name: "Pedro", Phone: "55511111", ServiceKeys: []string{"alineacion"}},
	)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "cambio de aceite", DatePhrase: "mañana", TimePhrase: "10:00",
	})
	assert.ErrorIs(t, err, ErrMechanicNotFound)

	_, err = svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "cambio de aceite", DatePhrase: "mañana", TimePhrase: "10:00", MechanicID: "m1",
	})
	assert.ErrorIs(t, err, ErrMechanicNotFound)
}

func TestConcurrentCreateSameSlot(t *testing.T) {
	svc, repo, _ := newTestService(t)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), CreateRequest{
				UserID:        "u" + strconv.Itoa(i),
				ServicePhrase: "cambio de aceite",
				DatePhrase:    "2024-06-10",
				TimePhrase:    "10:00",
			})
		}(i)
	}
	wg.Wait()

	var won, taken int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case assert.ErrorIs(t, err, ErrSlotTaken):
			taken++
		}
	}
	assert.Equal(t, 1, won, "exactly one racer may book the slot")
	assert.Equal(t, racers-1, taken)
	assert.Len(t, repo.items, 1)
}

func TestRescheduleSameTimeIsNoop(t *testing.T) {
	svc, repo, pub := newTestService(t)

	a, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "cambio de aceite", DatePhrase: "2024-06-10", TimePhrase: "10:00",
	})
	require.NoError(t, err)

	got, err := svc.Reschedule(context.Background(), "u1", "2024-06-10", "10:00")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, StatusConfirmed, got.Status, "no-op reschedule keeps the status")
	assert.Zero(t, repo.updates, "no-op reschedule must not write")
	assert.Equal(t, []string{events.TypeCreated}, pub.types())
}

func TestReschedule(t *testing.T) {
	svc, _, pub := newTestService(t)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "cambio de aceite", DatePhrase: "2024-06-10", TimePhrase: "10:00",
	})
	require.NoError(t, err)

	got, err := svc.Reschedule(context.Background(), "u1", "2024-06-11", "3 de la tarde")
	require.NoError(t, err)
	assert.Equal(t, StatusRescheduled, got.Status)
	assert.Equal(t, time.Date(2024, 6, 11, 15, 0, 0, 0, time.UTC), got.StartTime)
	assert.Equal(t, time.Date(2024, 6, 11, 16, 0, 0, 0, time.UTC), got.EndTime)
	assert.Equal(t, []string{events.TypeCreated, events.TypeRescheduled}, pub.types())
}

func TestRescheduleConflict(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "cambio de aceite", DatePhrase: "2024-06-10", TimePhrase: "10:00",
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateRequest{
		UserID: "u2", ServicePhrase: "cambio de aceite", DatePhrase: "2024-06-10", TimePhrase: "14:00",
	})
	require.NoError(t, err)

	// u2's slot (and its buffer) is occupied for the only mechanic.
	_, err = svc.Reschedule(context.Background(), "u1", "2024-06-10", "14:30")
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestRescheduleWithoutActiveAppointment(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Reschedule(context.Background(), "u1", "mañana", "10:00")
	assert.ErrorIs(t, err, ErrNoActiveAppointment)
}

func TestCancel(t *testing.T) {
	svc, _, pub := newTestService(t)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "balanceo", DatePhrase: "mañana", TimePhrase: "10:00",
	})
	require.NoError(t, err)

	got, err := svc.Cancel(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, []string{events.TypeCreated, events.TypeCancelled}, pub.types())

	// Terminal: a second cancel finds nothing active.
	_, err = svc.Cancel(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoActiveAppointment)
}

func TestCancelWithoutActiveAppointment(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Cancel(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoActiveAppointment)
	assert.Zero(t, repo.updates)
}

func TestRescheduleByID(t *testing.T) {
	svc, _, pub := newTestService(t)

	a, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "cambio de aceite", DatePhrase: "2024-06-10", TimePhrase: "10:00",
	})
	require.NoError(t, err)

	got, err := svc.RescheduleByID(context.Background(), a.ID, "2024-06-11", "3 de la tarde")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, StatusRescheduled, got.Status)
	assert.Equal(t, time.Date(2024, 6, 11, 15, 0, 0, 0, time.UTC), got.StartTime)
	assert.Equal(t, []string{events.TypeCreated, events.TypeRescheduled}, pub.types())

	_, err = svc.RescheduleByID(context.Background(), "missing", "2024-06-11", "10:00")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRescheduleByIDConflict(t *testing.T) {
	svc, _, _ := newTestService(t)

	a, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "cambio de aceite", DatePhrase: "2024-06-10", TimePhrase: "10:00",
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateRequest{
		UserID: "u2", ServicePhrase: "cambio de aceite", DatePhrase: "2024-06-10", TimePhrase: "14:00",
	})
	require.NoError(t, err)

	_, err = svc.RescheduleByID(context.Background(), a.ID, "2024-06-10", "14:30")
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestCancelByID(t *testing.T) {
	svc, _, pub := newTestService(t)

	a, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "balanceo", DatePhrase: "mañana", TimePhrase: "10:00",
	})
	require.NoError(t, err)

	got, err := svc.CancelByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Equal(t, []string{events.TypeCreated, events.TypeCancelled}, pub.types())

	// Terminal appointments cannot be cancelled again.
	_, err = svc.CancelByID(context.Background(), a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CancelByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestComplete(t *testing.T) {
	svc, _, _ := newTestService(t)

	a, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "balanceo", DatePhrase: "mañana", TimePhrase: "10:00",
	})
	require.NoError(t, err)

	// A mechanic who is not assigned may not complete the job.
	_, err = svc.Complete(context.Background(), a.ID, "m2", false)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	got, err := svc.Complete(context.Background(), a.ID, "m1", false)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	// Completed is terminal.
	_, err = svc.Complete(context.Background(), a.ID, "m1", false)
	assert.ErrorIs(t, err, ErrNotCompletable)
}

func TestCompleteAsAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)

	a, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "balanceo", DatePhrase: "mañana", TimePhrase: "10:00",
	})
	require.NoError(t, err)

	got, err := svc.Complete(context.Background(), a.ID, "", true)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestReassign(t *testing.T) {
	svc, _, _ := newTestService(t,
		&mechanic.Mechanic{ID: "m1", Name: "Pedro", Phone: "55511111"},
		&mechanic.Mechanic{ID: "m2", Name: "Lucía", Phone: "55522222"},
	)

	a, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "balanceo", DatePhrase: "2024-06-10", TimePhrase: "10:00",
	})
	require.NoError(t, err)
	require.Equal(t, "m1", *a.MechanicID)

	got, err := svc.Reassign(context.Background(), a.ID, "m2")
	require.NoError(t, err)
	assert.Equal(t, "m2", *got.MechanicID)

	// m2 now holds 10:00; moving another booking onto them must fail.
	b, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u2", ServicePhrase: "balanceo", DatePhrase: "2024-06-10", TimePhrase: "10:00", MechanicID: "m1",
	})
	require.NoError(t, err)
	_, err = svc.Reassign(context.Background(), b.ID, "m2")
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestAvailability(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "cambio de aceite", DatePhrase: "2024-06-10", TimePhrase: "9:00 am",
	})
	require.NoError(t, err)

	slots, err := svc.Availability(context.Background(), AvailabilityRequest{
		DatePhrase:    "2024-06-10",
		ServicePhrase: "cambio de aceite",
	})
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	// The 09:00-10:00 booking widened by the buffer blocks every start
	// before 10:10; the first free grid start is 10:30.
	assert.Equal(t, time.Date(2024, 6, 10, 10, 30, 0, 0, time.UTC), slots[0].Start)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Start.Before(slots[i].Start), "slots must ascend")
	}
}

func TestAvailabilityMergesMechanics(t *testing.T) {
	svc, _, _ := newTestService(t,
		&mechanic.Mechanic{ID: "m1", Name: "Pedro", Phone: "55511111"},
		&mechanic.Mechanic{ID: "m2", Name: "Lucía", Phone: "55522222"},
	)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID: "u1", ServicePhrase: "cambio de aceite", DatePhrase: "2024-06-10", TimePhrase: "9:00 am", MechanicID: "m1",
	})
	require.NoError(t, err)

	slots, err := svc.Availability(context.Background(), AvailabilityRequest{
		DatePhrase:    "2024-06-10",
		ServicePhrase: "cambio de aceite",
	})
	require.NoError(t, err)

	// m2 is completely free, so the full day remains bookable.
	require.NotEmpty(t, slots)
	assert.Equal(t, time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC), slots[0].Start)

	// Filtering to the busy mechanic shows the gap.
	slots, err = svc.Availability(context.Background(), AvailabilityRequest{
		DatePhrase:    "2024-06-10",
		ServicePhrase: "cambio de aceite",
		MechanicID:    "m1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.Equal(t, time.Date(2024, 6, 10, 10, 30, 0, 0, time.UTC), slots[0].Start)
}

func TestActiveForUserPicksEarliest(t *testing.T) {
	svc, repo, _ := newTestService(t)

	// Seed two active rows directly; normal flow only ever creates one.
	m := "m1"
	later := Appointment{UserID: "u1", MechanicID: &m, ServiceKey: "balanceo",
		StartTime: time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 6, 12, 10, 45, 0, 0, time.UTC), Status: StatusConfirmed}
	earlier := Appointment{UserID: "u1", MechanicID: &m, ServiceKey: "balanceo",
		StartTime: time.Date(2024, 6, 11, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 6, 11, 10, 45, 0, 0, time.UTC), Status: StatusConfirmed}
	require.NoError(t, repo.Create(context.Background(), &later))
	require.NoError(t, repo.Create(context.Background(), &earlier))

	got, err := svc.ActiveForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, earlier.ID, got.ID)
	assert.Equal(t, "Balanceo", got.ServiceName)
}
