package appointment

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/vmontano/taller-booking-backend/internal/events"
	"github.com/vmontano/taller-booking-backend/internal/locker"
	"github.com/vmontano/taller-booking-backend/internal/mechanic"
	"github.com/vmontano/taller-booking-backend/internal/schedule"
	"github.com/vmontano/taller-booking-backend/internal/servicetype"
	"github.com/vmontano/taller-booking-backend/internal/timeparse"
)

// CreateRequest carries the raw conversational inputs for a booking. Date and
// time arrive as free-form Spanish phrases; MechanicID is optional and a free
// capable mechanic is assigned when it is empty.
type CreateRequest struct {
	UserID        string
	ServicePhrase string
	DatePhrase    string
	TimePhrase    string
	MechanicID    string
}

// AvailabilityRequest asks for the bookable start times of one day.
type AvailabilityRequest struct {
	DatePhrase    string
	ServicePhrase string
	MechanicID    string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Appointment, error)
	Reschedule(ctx context.Context, userID, datePhrase, timePhrase string) (*Appointment, error)
	RescheduleByID(ctx context.Context, id, datePhrase, timePhrase string) (*Appointment, error)
	Cancel(ctx context.Context, userID string) (*Appointment, error)
	CancelByID(ctx context.Context, id string) (*Appointment, error)
	Complete(ctx context.Context, id, actorMechanicID string, isAdmin bool) (*Appointment, error)
	Reassign(ctx context.Context, id, mechanicID string) (*Appointment, error)

	Availability(ctx context.Context, req AvailabilityRequest) ([]schedule.Interval, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, filter Filter) ([]*Appointment, int, error)
	ActiveForUser(ctx context.Context, userID string) (*Appointment, error)
}

// Config carries the scheduling parameters shared by every operation.
type Config struct {
	Window      schedule.Window
	SlotOptions schedule.Options
	Location    *time.Location
}

type service struct {
	repo      Repository
	mechanics mechanic.Service
	locks     locker.Locker
	publisher events.Publisher
	cfg       Config
	logger    zerolog.Logger
	nowFn     func() time.Time
}

func NewService(
	repo Repository,
	mechanics mechanic.Service,
	locks locker.Locker,
	publisher events.Publisher,
	cfg Config,
	logger zerolog.Logger,
) Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &service{
		repo:      repo,
		mechanics: mechanics,
		locks:     locks,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		nowFn:     time.Now,
	}
}

func (s *service) today() time.Time {
	now := s.nowFn().In(s.cfg.Location)
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.cfg.Location)
}

// parseDate resolves a free-form date phrase and rejects days in the past.
func (s *service) parseDate(phrase string) (time.Time, error) {
	date, err := timeparse.ParseDate(phrase, s.nowFn(), s.cfg.Location)
	if err != nil {
		return time.Time{}, ErrUnrecognizedDate
	}
	if date.Before(s.today()) {
		return time.Time{}, ErrPastDate
	}
	return date, nil
}

// parseInterval resolves date and time phrases into the concrete candidate
// interval for a service of the given duration, enforcing business hours.
func (s *service) parseInterval(datePhrase, timePhrase string, durationMin int) (schedule.Interval, error) {
	date, err := s.parseDate(datePhrase)
	if err != nil {
		return schedule.Interval{}, err
	}
	tod, err := timeparse.ParseTime(timePhrase)
	if err != nil {
		return schedule.Interval{}, ErrUnrecognizedTime
	}

	start := time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, s.cfg.Location)
	candidate := schedule.Interval{
		Start: start,
		End:   start.Add(time.Duration(durationMin) * time.Minute),
	}
	if !s.cfg.Window.Contains(candidate) {
		return schedule.Interval{}, ErrOutsideBusinessHours
	}
	return candidate, nil
}

func lockKey(mechanicID string, day time.Time) string {
	return mechanicID + "|" + day.Format("2006-01-02")
}

// candidateMechanics resolves which mechanics may take the job: the requested
// one, or every mechanic capable of the service when none was requested.
func (s *service) candidateMechanics(ctx context.Context, mechanicID, serviceKey string) ([]*mechanic.Mechanic, error) {
	if mechanicID != "" {
		m, err := s.mechanics.GetByID(ctx, mechanicID)
		if err != nil {
			if errors.Is(err, mechanic.ErrNotFound) {
				return nil, ErrMechanicNotFound
			}
			return nil, err
		}
		if !m.CanPerform(serviceKey) {
			return nil, ErrMechanicNotFound
		}
		return []*mechanic.Mechanic{m}, nil
	}

	all, _, err := s.mechanics.List(ctx, mechanic.Filter{ServiceKey: serviceKey, PageSize: 100})
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrMechanicNotFound
	}
	return all, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	svc, ok := servicetype.Match(req.ServicePhrase)
	if !ok {
		return nil, ErrUnknownService
	}

	candidate, err := s.parseInterval(req.DatePhrase, req.TimePhrase, svc.DurationMinutes)
	if err != nil {
		return nil, err
	}

	candidates, err := s.candidateMechanics(ctx, req.MechanicID, svc.Key)
	if err != nil {
		return nil, err
	}

	day := s.cfg.Window.OnDate(candidate.Start)
	for _, m := range candidates {
		a, err := s.tryBook(ctx, req.UserID, svc, m.ID, candidate, day)
		if err == nil {
			s.logger.Info().
				Str("appointment_id", a.ID).
				Str("mechanic_id", m.ID).
				Str("service", svc.Key).
				Time("start", a.StartTime).
				Msg("appointment booked")
			s.publish(ctx, events.TypeCreated, a)
			return a, nil
		}
		if !errors.Is(err, ErrSlotTaken) {
			return nil, err
		}
		// Slot taken for this mechanic; try the next capable one.
	}
	s.logger.Debug().
		Str("service", svc.Key).
		Time("start", candidate.Start).
		Int("mechanics_tried", len(candidates)).
		Msg("slot taken for every capable mechanic")
	return nil, ErrSlotTaken
}

// tryBook runs the serialized read-check-write sequence for one mechanic.
func (s *service) tryBook(ctx context.Context, userID string, svc servicetype.Service, mechanicID string, candidate, day schedule.Interval) (*Appointment, error) {
	unlock, err := s.locks.Lock(ctx, lockKey(mechanicID, candidate.Start))
	if err != nil {
		return nil, err
	}
	defer unlock()

	busy, err := s.repo.BusyForMechanicDay(ctx, mechanicID, day.Start, day.End)
	if err != nil {
		return nil, err
	}
	if !schedule.CanBook(candidate, busy, "", s.cfg.SlotOptions.BufferMinutes) {
		return nil, ErrSlotTaken
	}

	mID := mechanicID
	a := &Appointment{
		UserID:     userID,
		MechanicID: &mID,
		ServiceKey: svc.Key,
		StartTime:  candidate.Start,
		EndTime:    candidate.End,
		Status:     StatusConfirmed,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	a.ServiceName = svc.Name
	return a, nil
}

func (s *service) Reschedule(ctx context.Context, userID, datePhrase, timePhrase string) (*Appointment, error) {
	a, err := s.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.reschedule(ctx, a, datePhrase, timePhrase)
}

// RescheduleByID moves any active appointment regardless of owner. Callers
// gate this behind the admin role.
func (s *service) RescheduleByID(ctx context.Context, id, datePhrase, timePhrase string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.Active() {
		return nil, ErrNotFound
	}
	s.fillServiceName(a)
	return s.reschedule(ctx, a, datePhrase, timePhrase)
}

func (s *service) reschedule(ctx context.Context, a *Appointment, datePhrase, timePhrase string) (*Appointment, error) {
	svc, _ := servicetype.ByKey(a.ServiceKey)
	duration := svc.DurationMinutes
	if duration == 0 {
		duration = int(a.EndTime.Sub(a.StartTime) / time.Minute)
	}

	candidate, err := s.parseInterval(datePhrase, timePhrase, duration)
	if err != nil {
		return nil, err
	}

	// Rescheduling onto the slot already held is a no-op; skip the conflict
	// check entirely so the appointment never collides with itself.
	if candidate.Start.Equal(a.StartTime) {
		return a, nil
	}

	if a.MechanicID != nil {
		day := s.cfg.Window.OnDate(candidate.Start)
		unlock, err := s.locks.Lock(ctx, lockKey(*a.MechanicID, candidate.Start))
		if err != nil {
			return nil, err
		}
		defer unlock()

		busy, err := s.repo.BusyForMechanicDay(ctx, *a.MechanicID, day.Start, day.End)
		if err != nil {
			return nil, err
		}
		if !schedule.CanBook(candidate, busy, a.ID, s.cfg.SlotOptions.BufferMinutes) {
			return nil, ErrSlotTaken
		}
	}

	a.StartTime = candidate.Start
	a.EndTime = candidate.End
	a.Status = StatusRescheduled
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", a.ID).
		Time("start", a.StartTime).
		Msg("appointment rescheduled")
	s.publish(ctx, events.TypeRescheduled, a)
	return a, nil
}

func (s *service) Cancel(ctx context.Context, userID string) (*Appointment, error) {
	a, err := s.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, a)
}

// CancelByID cancels any active appointment regardless of owner. Callers
// gate this behind the admin role.
func (s *service) CancelByID(ctx context.Context, id string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.Active() {
		return nil, ErrNotFound
	}
	s.fillServiceName(a)
	return s.cancel(ctx, a)
}

func (s *service) cancel(ctx context.Context, a *Appointment) (*Appointment, error) {
	a.Status = StatusCancelled
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeCancelled, a)
	return a, nil
}

func (s *service) Complete(ctx context.Context, id, actorMechanicID string, isAdmin bool) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		if a.MechanicID == nil || *a.MechanicID != actorMechanicID {
			return nil, ErrPermissionDenied
		}
	}
	if !a.Status.Active() {
		return nil, ErrNotCompletable
	}

	a.Status = StatusCompleted
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeCompleted, a)
	return a, nil
}

func (s *service) Reassign(ctx context.Context, id, mechanicID string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Status.Active() {
		return nil, ErrNotFound
	}

	m, err := s.mechanics.GetByID(ctx, mechanicID)
	if err != nil {
		if errors.Is(err, mechanic.ErrNotFound) {
			return nil, ErrMechanicNotFound
		}
		return nil, err
	}
	if !m.CanPerform(a.ServiceKey) {
		return nil, ErrMechanicNotFound
	}

	candidate := schedule.Interval{Start: a.StartTime, End: a.EndTime}
	day := s.cfg.Window.OnDate(a.StartTime)

	unlock, err := s.locks.Lock(ctx, lockKey(m.ID, a.StartTime))
	if err != nil {
		return nil, err
	}
	defer unlock()

	busy, err := s.repo.BusyForMechanicDay(ctx, m.ID, day.Start, day.End)
	if err != nil {
		return nil, err
	}
	if !schedule.CanBook(candidate, busy, a.ID, s.cfg.SlotOptions.BufferMinutes) {
		return nil, ErrSlotTaken
	}

	a.MechanicID = &m.ID
	a.MechanicName = m.Name
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Availability computes the bookable start intervals for a day. Without a
// mechanic filter a slot is free when any capable mechanic can take it.
func (s *service) Availability(ctx context.Context, req AvailabilityRequest) ([]schedule.Interval, error) {
	svc, ok := servicetype.Match(req.ServicePhrase)
	if !ok {
		return nil, ErrUnknownService
	}
	date, err := s.parseDate(req.DatePhrase)
	if err != nil {
		return nil, err
	}

	candidates, err := s.candidateMechanics(ctx, req.MechanicID, svc.Key)
	if err != nil {
		return nil, err
	}

	day := s.cfg.Window.OnDate(date)
	merged := make(map[int64]schedule.Interval)
	for _, m := range candidates {
		busy, err := s.repo.BusyForMechanicDay(ctx, m.ID, day.Start, day.End)
		if err != nil {
			return nil, err
		}
		for _, slot := range schedule.Slots(day, svc.DurationMinutes, busy, s.cfg.SlotOptions) {
			merged[slot.Start.Unix()] = slot
		}
	}

	slots := make([]schedule.Interval, 0, len(merged))
	for _, slot := range merged {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.fillServiceName(a)
	return a, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Appointment, int, error) {
	appointments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for _, a := range appointments {
		s.fillServiceName(a)
	}
	return appointments, total, nil
}

// ActiveForUser returns the user's single active appointment. Legacy data may
// hold several; the earliest by (date, time) wins deterministically.
func (s *service) ActiveForUser(ctx context.Context, userID string) (*Appointment, error) {
	active, err := s.repo.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, ErrNoActiveAppointment
	}
	a := active[0]
	s.fillServiceName(a)
	return a, nil
}

func (s *service) fillServiceName(a *Appointment) {
	if svc, ok := servicetype.ByKey(a.ServiceKey); ok {
		a.ServiceName = svc.Name
	}
}

func (s *service) publish(ctx context.Context, eventType string, a *Appointment) {
	mechanicID := ""
	if a.MechanicID != nil {
		mechanicID = *a.MechanicID
	}
	s.publisher.Publish(ctx, events.AppointmentEvent{
		Type:          eventType,
		AppointmentID: a.ID,
		UserID:        a.UserID,
		MechanicID:    mechanicID,
		Service:       a.ServiceKey,
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		Status:        string(a.Status),
	})
}
