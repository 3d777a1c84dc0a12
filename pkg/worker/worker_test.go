package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorlink/mentor-api/internal/calendar"
	"github.com/mentorlink/mentor-api/internal/model"
	apperrors "github.com/mentorlink/mentor-api/pkg/errors"
	"github.com/mentorlink/mentor-api/pkg/logger"
	"github.com/mentorlink/mentor-api/pkg/metrics"
)

var testMetrics = metrics.New("worker_test")

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if apt.ID == uuid.Nil {
		apt.ID = uuid.New()
	}
	f.appointments[apt.ID] = apt
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	apt, ok := f.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment")
	}
	return apt, nil
}

func (f *fakeAppointmentRepo) List(context.Context, *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) HasOverlap(context.Context, uuid.UUID, time.Time, time.Time) (bool, error) {
	return false, nil
}

func (f *fakeAppointmentRepo) Confirm(context.Context, uuid.UUID, string) (bool, error) {
	return false, nil
}

func (f *fakeAppointmentRepo) Cancel(context.Context, uuid.UUID, string, uuid.UUID, time.Time) (bool, error) {
	return false, nil
}

func (f *fakeAppointmentRepo) CompleteWithFeedback(context.Context, uuid.UUID, *model.Feedback) (bool, error) {
	return false, nil
}

func (f *fakeAppointmentRepo) SetCalendarEvent(_ context.Context, id uuid.UUID, eventID, joinLink string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	apt, ok := f.appointments[id]
	if !ok {
		return apperrors.NotFound("appointment")
	}
	apt.CalendarEventID = &eventID
	apt.MeetingLink = &joinLink
	return nil
}

func (f *fakeAppointmentRepo) ListConfirmedWithoutEvent(_ context.Context, limit int) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range f.appointments {
		if apt.Status == model.AppointmentStatusConfirmed && apt.CalendarEventID == nil {
			out = append(out, apt)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListConfirmedBetween(_ context.Context, from, to time.Time) ([]*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Appointment
	for _, apt := range f.appointments {
		if apt.Status != model.AppointmentStatusConfirmed {
			continue
		}
		if !apt.StartTime.Before(from) && apt.StartTime.Before(to) {
			out = append(out, apt)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (f *fakeUserRepo) Create(context.Context, *model.User) error { return nil }

func (f *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, apperrors.NotFound("user")
}
func (f *fakeUserRepo) Update(context.Context, *model.User) error { return nil }
func (f *fakeUserRepo) SetRoleIfUnset(context.Context, uuid.UUID, model.Role) (bool, error) {
	return false, nil
}
func (f *fakeUserRepo) SetEmailVerified(context.Context, uuid.UUID) error { return nil }
func (f *fakeUserRepo) SetMentorVerification(context.Context, uuid.UUID, bool, uuid.UUID) error {
	return nil
}
func (f *fakeUserRepo) ListVerifiedMentors(context.Context, model.Pagination) ([]*model.MentorListing, error) {
	return nil, nil
}

type fakeCalendar struct {
	mu      sync.Mutex
	fail    bool
	created int
}

func (f *fakeCalendar) CreateEvent(_ context.Context, _ *calendar.CreateEventRequest) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, assert.AnError
	}
	f.created++
	return &calendar.Event{EventID: "evt-1", JoinLink: "https://meet.example/abc"}, nil
}

func (f *fakeCalendar) DeleteEvent(context.Context, string) error { return nil }

type recordingEmail struct {
	mu        sync.Mutex
	reminders []string
}

func (r *recordingEmail) SendVerification(context.Context, string, string) error { return nil }
func (r *recordingEmail) SendBookingRequested(context.Context, string, string, time.Time) error {
	return nil
}
func (r *recordingEmail) SendBookingConfirmed(context.Context, string, string, time.Time, string) error {
	return nil
}
func (r *recordingEmail) SendBookingCancelled(context.Context, string, time.Time, string) error {
	return nil
}

func (r *recordingEmail) SendSessionReminder(_ context.Context, to string, _ time.Time, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reminders = append(r.reminders, to)
	return nil
}

func seedUsers() (*fakeUserRepo, *model.User, *model.User) {
	mentor := &model.User{Base: model.Base{ID: uuid.New()}, Email: "mentor@example.com"}
	mentee := &model.User{Base: model.Base{ID: uuid.New()}, Email: "mentee@example.com"}
	repo := &fakeUserRepo{users: map[uuid.UUID]*model.User{
		mentor.ID: mentor,
		mentee.ID: mentee,
	}}
	return repo, mentor, mentee
}

func TestReconciler(t *testing.T) {
	t.Run("backfills missing calendar events", func(t *testing.T) {
		appointments := newFakeAppointmentRepo()
		users, mentor, mentee := seedUsers()
		cal := &fakeCalendar{}

		apt := &model.Appointment{
			Base:      model.Base{ID: uuid.New()},
			MentorID:  mentor.ID,
			MenteeID:  mentee.ID,
			StartTime: time.Now().Add(time.Hour),
			EndTime:   time.Now().Add(2 * time.Hour),
			Status:    model.AppointmentStatusConfirmed,
		}
		require.NoError(t, appointments.Create(context.Background(), apt))

		r := NewReconciler(appointments, users, cal, ReconcilerConfig{
			Interval:  time.Minute,
			BatchSize: 10,
		}, logger.NewLogger(nil), testMetrics)

		require.NoError(t, r.reconcile(context.Background()))

		stored, err := appointments.Get(context.Background(), apt.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.CalendarEventID)
		assert.Equal(t, "evt-1", *stored.CalendarEventID)
		require.NotNil(t, stored.MeetingLink)
		assert.Equal(t, 1, cal.created)

		// A second pass finds nothing to do.
		require.NoError(t, r.reconcile(context.Background()))
		assert.Equal(t, 1, cal.created)
	})

	t.Run("calendar failure leaves appointment for next pass", func(t *testing.T) {
		appointments := newFakeAppointmentRepo()
		users, mentor, mentee := seedUsers()
		cal := &fakeCalendar{fail: true}

		apt := &model.Appointment{
			Base:      model.Base{ID: uuid.New()},
			MentorID:  mentor.ID,
			MenteeID:  mentee.ID,
			StartTime: time.Now().Add(time.Hour),
			EndTime:   time.Now().Add(2 * time.Hour),
			Status:    model.AppointmentStatusConfirmed,
		}
		require.NoError(t, appointments.Create(context.Background(), apt))

		r := NewReconciler(appointments, users, cal, ReconcilerConfig{
			Interval:  time.Minute,
			BatchSize: 10,
		}, logger.NewLogger(nil), testMetrics)

		require.NoError(t, r.reconcile(context.Background()))

		stored, err := appointments.Get(context.Background(), apt.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.CalendarEventID)

		cal.fail = false
		require.NoError(t, r.reconcile(context.Background()))
		stored, err = appointments.Get(context.Background(), apt.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.CalendarEventID)
	})
}

func TestReminder(t *testing.T) {
	t.Run("delayed tick widens the next window instead of skipping", func(t *testing.T) {
		appointments := newFakeAppointmentRepo()
		users, mentor, mentee := seedUsers()
		emailSvc := &recordingEmail{}

		now := time.Now()
		interval := 5 * time.Minute
		lead := time.Hour

		// Falls after the first window; a tick delayed past one interval
		// would have skipped it under fixed windows.
		betweenTicks := &model.Appointment{
			Base:      model.Base{ID: uuid.New()},
			MentorID:  mentor.ID,
			MenteeID:  mentee.ID,
			StartTime: now.Add(lead + interval + time.Minute),
			EndTime:   now.Add(lead + interval + 61*time.Minute),
			Status:    model.AppointmentStatusConfirmed,
		}
		require.NoError(t, appointments.Create(context.Background(), betweenTicks))

		r := NewReminder(appointments, users, emailSvc, ReminderConfig{
			Interval: interval,
			Lead:     lead,
		}, logger.NewLogger(nil), testMetrics)

		require.NoError(t, r.remind(context.Background(), now))
		assert.Empty(t, emailSvc.reminders)

		// Next tick arrives three intervals late.
		require.NoError(t, r.remind(context.Background(), now.Add(4*interval)))
		assert.ElementsMatch(t, []string{"mentor@example.com", "mentee@example.com"}, emailSvc.reminders)

		// Already-scanned windows are not revisited.
		require.NoError(t, r.remind(context.Background(), now.Add(5*interval)))
		assert.Len(t, emailSvc.reminders, 2)
	})

	t.Run("reminds both participants of in-window confirmed sessions", func(t *testing.T) {
		appointments := newFakeAppointmentRepo()
		users, mentor, mentee := seedUsers()
		emailSvc := &recordingEmail{}

		now := time.Now()
		inWindow := &model.Appointment{
			Base:      model.Base{ID: uuid.New()},
			MentorID:  mentor.ID,
			MenteeID:  mentee.ID,
			StartTime: now.Add(61 * time.Minute),
			EndTime:   now.Add(121 * time.Minute),
			Status:    model.AppointmentStatusConfirmed,
		}
		tooFar := &model.Appointment{
			Base:      model.Base{ID: uuid.New()},
			MentorID:  mentor.ID,
			MenteeID:  mentee.ID,
			StartTime: now.Add(6 * time.Hour),
			EndTime:   now.Add(7 * time.Hour),
			Status:    model.AppointmentStatusConfirmed,
		}
		pending := &model.Appointment{
			Base:      model.Base{ID: uuid.New()},
			MentorID:  mentor.ID,
			MenteeID:  mentee.ID,
			StartTime: now.Add(61 * time.Minute),
			EndTime:   now.Add(121 * time.Minute),
			Status:    model.AppointmentStatusPending,
		}
		for _, apt := range []*model.Appointment{inWindow, tooFar, pending} {
			require.NoError(t, appointments.Create(context.Background(), apt))
		}

		r := NewReminder(appointments, users, emailSvc, ReminderConfig{
			Interval: 5 * time.Minute,
			Lead:     time.Hour,
		}, logger.NewLogger(nil), testMetrics)

		require.NoError(t, r.remind(context.Background(), now))

		// Both participants of the in-window confirmed session, nobody else.
		assert.ElementsMatch(t, []string{"mentor@example.com", "mentee@example.com"}, emailSvc.reminders)
	})
}
