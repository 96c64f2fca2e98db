package booking

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/alicebob/miniredis/v2"
	"github.com/mothercare-dev/clinic/backend/internal/config"
	"github.com/mothercare-dev/clinic/backend/internal/domain"
	"github.com/mothercare-dev/clinic/backend/internal/metrics"
	"github.com/mothercare-dev/clinic/backend/internal/repository"
	"github.com/mothercare-dev/clinic/backend/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu           sync.Mutex
	doctors      map[string]*domain.Doctor
	services     map[string]*domain.MedicalService
	appointments map[string]*domain.Appointment
	dayQueries   int
}

func (f *fakeStore) GetDoctorByID(_ context.Context, id string) (*domain.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return d, nil
}

func (f *fakeStore) GetServiceByID(_ context.Context, id string) (*domain.MedicalService, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (f *fakeStore) GetAppointmentByID(_ context.Context, id string) (*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *a
	return &c, nil
}

func (f *fakeStore) GetAppointmentByConfirmationCode(_ context.Context, code string) (*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appointments {
		if a.ConfirmationCode == code {
			c := *a
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) GetAppointmentsByDoctorAndDay(_ context.Context, doctorID string, dayStart, dayEnd time.Time) ([]*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dayQueries++

	out := make([]*domain.Appointment, 0)
	for _, a := range f.appointments {
		if a.DoctorID == doctorID && scheduler.Overlaps(dayStart, dayEnd, a.DateTime, a.EndTime()) {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeStore) taken(a *domain.Appointment) bool {
	for _, other := range f.appointments {
		if other.ID == a.ID || other.DoctorID != a.DoctorID || !other.Status.Blocking() {
			continue
		}
		if scheduler.Overlaps(a.DateTime, a.EndTime(), other.DateTime, other.EndTime()) {
			return true
		}
	}
	return false
}

func (f *fakeStore) CreateAppointmentIfFree(_ context.Context, a *domain.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.taken(a) {
		return repository.ErrSlotTaken
	}
	a.Version = 1
	c := *a
	f.appointments[a.ID] = &c
	return nil
}

func (f *fakeStore) RescheduleAppointmentIfFree(ctx context.Context, a *domain.Appointment) error {
	f.mu.Lock()
	taken := f.taken(a)
	f.mu.Unlock()
	if taken {
		return repository.ErrSlotTaken
	}
	return f.UpdateAppointment(ctx, a)
}

func (f *fakeStore) UpdateAppointment(_ context.Context, a *domain.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.appointments[a.ID]
	if !ok || stored.Version != a.Version {
		return sql.ErrNoRows
	}
	a.Version++
	c := *a
	f.appointments[a.ID] = &c
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.MailMessage
}

func (n *fakeNotifier) Publish(_ context.Context, msg domain.MailMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]string, 0, len(n.sent))
	for _, m := range n.sent {
		types = append(types, m.Type)
	}
	return types
}

var (
	// Monday
	monday = time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	at     = func(hour, minute int) time.Time { return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute) }
)

func weekdaysNineToFive() []domain.DoctorAvailability {
	schedule := make([]domain.DoctorAvailability, 0, 7)
	for _, day := range domain.Weekdays {
		available := day != "Saturday" && day != "Sunday"
		schedule = append(schedule, domain.DoctorAvailability{Day: day, StartTime: "09:00", EndTime: "17:00", IsAvailable: available})
	}
	return schedule
}

type fixture struct {
	svc      *Service
	store    *fakeStore
	notifier *fakeNotifier
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := &fakeStore{
		doctors: map[string]*domain.Doctor{
			"dr-sarah-johnson": {ID: "dr-sarah-johnson", Name: "Dr. Sarah Johnson", Availability: weekdaysNineToFive()},
		},
		services: map[string]*domain.MedicalService{
			"prenatal-care": {ID: "prenatal-care", Name: "Comprehensive Prenatal Care", Duration: "30-45 minutes", Preparation: []string{"Bring previous reports"}},
			"fertility":     {ID: "fertility", Name: "Fertility Treatment", Duration: "1-2 hours"},
		},
		appointments: map[string]*domain.Appointment{},
	}
	notifier := &fakeNotifier{}

	cfg := &config.Config{}
	cfg.Booking.TimeZone = "UTC"
	cfg.Booking.HorizonDays = 90
	cfg.Booking.LockTTL = 15
	cfg.Booking.SlotCacheTTL = 60

	svc, err := NewService(cfg, store, rdb, notifier, metrics.NewBookingMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)
	svc.now = func() time.Time { return now }

	return &fixture{svc: svc, store: store, notifier: notifier, redis: mr}
}

func request(start time.Time) *domain.Appointment {
	return &domain.Appointment{
		DoctorID:       "dr-sarah-johnson",
		ServiceID:      "prenatal-care",
		DateTime:       start,
		ReasonForVisit: "First trimester check",
		PatientInfo: domain.PatientInfo{
			Name:  "Maria O'Neil",
			Email: "maria@example.com",
			Phone: "(555) 123-4567",
		},
	}
}

func TestServiceDuration(t *testing.T) {
	tests := []struct {
		duration string
		want     int
	}{
		{"30-45 minutes", 30},
		{"60 minutes", 60},
		{"1-3 hours", 60},
		{"2 hours", 120},
		{"Varies", scheduler.DefaultSlotMinutes},
		{"", scheduler.DefaultSlotMinutes},
	}

	for _, tt := range tests {
		t.Run(tt.duration, func(t *testing.T) {
			assert.Equal(t, tt.want, ServiceDuration(&domain.MedicalService{Duration: tt.duration}))
		})
	}

	assert.Equal(t, scheduler.DefaultSlotMinutes, ServiceDuration(nil))
}

func TestBook(t *testing.T) {
	f := newFixture(t, at(8, 0))

	a := request(at(10, 0))
	confirmation, err := f.svc.Book(context.Background(), a)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, domain.StatusScheduled, a.Status)
	assert.Equal(t, 30, a.Duration)
	assert.Regexp(t, `^MC-[A-Z0-9]{6}$`, confirmation.ConfirmationCode)
	assert.Equal(t, "Dr. Sarah Johnson", confirmation.DoctorName)
	assert.Equal(t, []string{"Bring previous reports"}, confirmation.PreparationInstructions)

	assert.Equal(t, []string{domain.MailAppointmentConfirmation}, f.notifier.types())
	assert.False(t, f.redis.Exists(lockKey("dr-sarah-johnson", monday)), "lock must be released")

	assert.Equal(t, domain.StatusScheduled, confirmation.Status)

	found, err := f.svc.Lookup(context.Background(), confirmation.ConfirmationCode)
	require.NoError(t, err)
	assert.Equal(t, confirmation, found)
}

func TestBookUsesServiceDurationInHours(t *testing.T) {
	f := newFixture(t, at(8, 0))

	a := request(at(9, 0))
	a.ServiceID = "fertility"
	_, err := f.svc.Book(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, 60, a.Duration)

	// 09:30 falls inside the hour just booked
	b := request(at(9, 30))
	_, err = f.svc.Book(context.Background(), b)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestBookRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *domain.Appointment)
		wantErr error
	}{
		{"off the slot grid", func(a *domain.Appointment) { a.DateTime = at(10, 15) }, ErrSlotUnavailable},
		{"outside working hours", func(a *domain.Appointment) { a.DateTime = at(17, 0) }, ErrSlotUnavailable},
		{"in the past", func(a *domain.Appointment) { a.DateTime = at(7, 0) }, ErrSlotUnavailable},
		{"beyond the horizon", func(a *domain.Appointment) { a.DateTime = at(10, 0).AddDate(0, 0, 98) }, ErrSlotUnavailable},
		{"weekend", func(a *domain.Appointment) { a.DateTime = at(10, 0).AddDate(0, 0, 5) }, ErrSlotUnavailable},
		{"unknown doctor", func(a *domain.Appointment) { a.DoctorID = "dr-nobody" }, ErrNotFound},
		{"unknown service", func(a *domain.Appointment) { a.ServiceID = "massage" }, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, at(8, 0))
			a := request(at(10, 0))
			tt.mutate(a)

			_, err := f.svc.Book(context.Background(), a)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.store.appointments)
			assert.Empty(t, f.notifier.types())
		})
	}
}

func TestBookSameSlotTwice(t *testing.T) {
	f := newFixture(t, at(8, 0))

	_, err := f.svc.Book(context.Background(), request(at(10, 0)))
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), request(at(10, 0)))
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Len(t, f.store.appointments, 1)
}

func TestBookLockContention(t *testing.T) {
	f := newFixture(t, at(8, 0))
	require.NoError(t, f.redis.Set(lockKey("dr-sarah-johnson", monday), "held-by-someone-else"))

	_, err := f.svc.Book(context.Background(), request(at(10, 0)))
	assert.ErrorIs(t, err, ErrSlotBusy)

	// the other holder's lock is untouched
	got, err := f.redis.Get(lockKey("dr-sarah-johnson", monday))
	require.NoError(t, err)
	assert.Equal(t, "held-by-someone-else", got)
}

func TestAvailabilityCachesAndInvalidates(t *testing.T) {
	f := newFixture(t, at(8, 0))
	ctx := context.Background()

	day, err := f.svc.Availability(ctx, "dr-sarah-johnson", monday, 30)
	require.NoError(t, err)
	assert.Len(t, day.Slots, 16)
	assert.Equal(t, "2024-06-03", day.Date)
	assert.Len(t, day.Grouped.Morning, 6)
	assert.Len(t, day.Grouped.Afternoon, 10)
	assert.Empty(t, day.Grouped.Evening)
	assert.Equal(t, 1, f.store.dayQueries)

	_, err = f.svc.Availability(ctx, "dr-sarah-johnson", monday, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.dayQueries, "second read is served from the cache")

	_, err = f.svc.Book(ctx, request(at(10, 0)))
	require.NoError(t, err)

	day, err = f.svc.Availability(ctx, "dr-sarah-johnson", monday, 30)
	require.NoError(t, err)
	assert.Len(t, day.Slots, 15)
	assert.Equal(t, 3, f.store.dayQueries)
	for _, slot := range day.Slots {
		assert.NotEqual(t, "dr-sarah-johnson-2024-06-03-3", slot.ID)
	}
}

func TestAvailabilitySkipsStartedSlots(t *testing.T) {
	f := newFixture(t, at(12, 10))

	day, err := f.svc.Availability(context.Background(), "dr-sarah-johnson", monday, 30)
	require.NoError(t, err)
	require.Len(t, day.Slots, 9)
	assert.True(t, day.Slots[0].StartTime.Equal(at(12, 30)))
	assert.Empty(t, day.Grouped.Morning)
}

func TestAvailabilityRejectsBadLength(t *testing.T) {
	f := newFixture(t, at(8, 0))

	_, err := f.svc.Availability(context.Background(), "dr-sarah-johnson", monday, 0)
	assert.ErrorIs(t, err, scheduler.ErrInvalidArgument)

	_, err = f.svc.Availability(context.Background(), "dr-nobody", monday, 30)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvailableDates(t *testing.T) {
	f := newFixture(t, at(8, 0))

	dates, err := f.svc.AvailableDates(context.Background(), "dr-sarah-johnson", monday, 7)
	require.NoError(t, err)
	require.Len(t, dates, 5)
	assert.Equal(t, time.Friday, dates[4].Weekday())

	// a start in the past is moved to today
	dates, err = f.svc.AvailableDates(context.Background(), "dr-sarah-johnson", monday.AddDate(0, 0, -7), 14)
	require.NoError(t, err)
	require.Len(t, dates, 5)
	assert.True(t, dates[0].Equal(monday))
}

func TestAvailableDatesAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	ctx := context.Background()

	everyDay := make([]domain.DoctorAvailability, 0, 7)
	for _, day := range domain.Weekdays {
		everyDay = append(everyDay, domain.DoctorAvailability{Day: day, StartTime: "09:00", EndTime: "17:00", IsAvailable: true})
	}

	f := newFixture(t, time.Date(2024, time.March, 1, 8, 0, 0, 0, ny))
	f.svc.loc = ny
	f.store.doctors["dr-daily"] = &domain.Doctor{ID: "dr-daily", Availability: everyDay}

	// the 90 day horizon crosses the 23 hour day of March 10
	dates, err := f.svc.AvailableDates(ctx, "dr-daily", time.Date(2024, time.March, 1, 0, 0, 0, 0, ny), 120)
	require.NoError(t, err)
	require.Len(t, dates, 90)
	assert.Equal(t, "2024-05-29", dates[89].Format("2006-01-02"))

	// March 9 and 10 are gone, only March 11 is left of the three requested days
	f.svc.now = func() time.Time { return time.Date(2024, time.March, 11, 8, 0, 0, 0, ny) }
	dates, err = f.svc.AvailableDates(ctx, "dr-daily", time.Date(2024, time.March, 9, 0, 0, 0, 0, ny), 3)
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.Equal(t, "2024-03-11", dates[0].Format("2006-01-02"))
}

func TestInvalidateDoctorDropsCachedSchedule(t *testing.T) {
	f := newFixture(t, at(8, 0))
	ctx := context.Background()
	tuesday := monday.AddDate(0, 0, 1)

	day, err := f.svc.Availability(ctx, "dr-sarah-johnson", monday, 30)
	require.NoError(t, err)
	require.Len(t, day.Slots, 16)
	_, err = f.svc.Availability(ctx, "dr-sarah-johnson", tuesday, 60)
	require.NoError(t, err)

	schedule := weekdaysNineToFive()
	for i := range schedule {
		if schedule[i].Day == "Monday" {
			schedule[i].EndTime = "10:00"
		}
	}
	f.store.doctors["dr-sarah-johnson"].Availability = schedule

	require.NoError(t, f.svc.InvalidateDoctor(ctx, "dr-sarah-johnson"))
	assert.False(t, f.redis.Exists(slotsKey("dr-sarah-johnson", monday)))
	assert.False(t, f.redis.Exists(slotsKey("dr-sarah-johnson", tuesday)))

	day, err = f.svc.Availability(ctx, "dr-sarah-johnson", monday, 30)
	require.NoError(t, err)
	assert.Len(t, day.Slots, 2)
}

func TestCacheFillAfterInvalidationIsDropped(t *testing.T) {
	f := newFixture(t, at(8, 0))
	ctx := context.Background()
	slots := []domain.TimeSlot{{ID: "dr-sarah-johnson-2024-06-03-3", IsAvailable: true}}

	// a booking lands between computing the slots and caching them
	gen := f.svc.slotsGeneration(ctx, "dr-sarah-johnson")
	f.svc.invalidate(ctx, "dr-sarah-johnson", monday)
	f.svc.cacheSlots(ctx, "dr-sarah-johnson", monday, 30, gen, slots)
	assert.False(t, f.redis.Exists(slotsKey("dr-sarah-johnson", monday)))

	gen = f.svc.slotsGeneration(ctx, "dr-sarah-johnson")
	f.svc.cacheSlots(ctx, "dr-sarah-johnson", monday, 30, gen, slots)
	cached := f.svc.cachedSlots(ctx, "dr-sarah-johnson", monday, 30)
	require.Len(t, cached, 1)
	assert.Equal(t, "dr-sarah-johnson-2024-06-03-3", cached[0].ID)
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t, at(8, 0))
	ctx := context.Background()

	a := request(at(10, 0))
	_, err := f.svc.Book(ctx, a)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, a.ID, "travelling")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "travelling", *cancelled.CancellationReason)

	_, err = f.svc.Book(ctx, request(at(10, 0)))
	assert.NoError(t, err)

	_, err = f.svc.Cancel(ctx, a.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, []string{
		domain.MailAppointmentConfirmation,
		domain.MailAppointmentCancelled,
		domain.MailAppointmentConfirmation,
	}, f.notifier.types())
}

func TestReschedule(t *testing.T) {
	f := newFixture(t, at(8, 0))
	ctx := context.Background()

	a := request(at(10, 0))
	_, err := f.svc.Book(ctx, a)
	require.NoError(t, err)
	b := request(at(11, 0))
	_, err = f.svc.Book(ctx, b)
	require.NoError(t, err)

	_, err = f.svc.Reschedule(ctx, a.ID, at(11, 0))
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// moving by one slot overlaps only itself
	moved, err := f.svc.Reschedule(ctx, a.ID, at(10, 30))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRescheduled, moved.Status)
	assert.True(t, moved.DateTime.Equal(at(10, 30)))

	moved, err = f.svc.Reschedule(ctx, a.ID, at(14, 0).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, time.Tuesday, moved.DateTime.Weekday())

	_, err = f.svc.Reschedule(ctx, "missing", at(14, 0))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t, at(8, 0))
	ctx := context.Background()

	a := request(at(10, 0))
	_, err := f.svc.Book(ctx, a)
	require.NoError(t, err)

	confirmed, err := f.svc.UpdateStatus(ctx, a.ID, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, confirmed.Status)

	_, err = f.svc.UpdateStatus(ctx, a.ID, domain.StatusRescheduled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(ctx, a.ID, domain.StatusNoShow)
	require.NoError(t, err)

	// a no-show no longer holds the slot
	_, err = f.svc.Book(ctx, request(at(10, 0)))
	assert.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, a.ID, domain.StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
