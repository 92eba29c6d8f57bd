package appointment

import (
	"context"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/hackgods/donation-pipeline/internal/redis"
)

// -- Mock Repository --

type mockRepo struct {
	donors map[uuid.UUID]*Donor
	orgs   map[uuid.UUID]*Organization
	appts  map[uuid.UUID]*Appointment

	// appointments referenced by a donation record
	donated map[uuid.UUID]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		donors: make(map[uuid.UUID]*Donor),
		orgs:   make(map[uuid.UUID]*Organization),
		appts:  make(map[uuid.UUID]*Appointment),

		donated: make(map[uuid.UUID]bool),
	}
}

func (m *mockRepo) GetDonorByID(_ context.Context, id uuid.UUID) (*Donor, error) {
	d, ok := m.donors[id]
	if !ok {
		return nil, ErrDonorNotFound
	}
	return d, nil
}

func (m *mockRepo) GetOrganizationByID(_ context.Context, id uuid.UUID) (*Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return nil, ErrOrganizationNotFound
	}
	return o, nil
}

func (m *mockRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) ListAppointments(_ context.Context, f Filter) ([]Appointment, error) {
	var out []Appointment
	for _, a := range m.appts {
		if f.OrganizationID != nil && a.OrganizationID != *f.OrganizationID {
			continue
		}
		if f.DonorID != nil && a.DonorID != *f.DonorID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *mockRepo) CountUpcomingForDonor(_ context.Context, donorID uuid.UUID) (int, error) {
	n := 0
	for _, a := range m.appts {
		if a.DonorID == donorID && a.Status == StatusUpcoming {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) CreateAppointment(_ context.Context, a Appointment) (*Appointment, error) {
	a.ID = uuid.New()
	a.Status = StatusUpcoming
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	if d, ok := m.donors[a.DonorID]; ok {
		a.DonorName = d.Name
		a.BloodGroup = d.BloodGroup
	}
	m.appts[a.ID] = &a
	cp := a
	return &cp, nil
}

func (m *mockRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	cp := *a
	return &cp, nil
}

func (m *mockRepo) MarkStatus(_ context.Context, id uuid.UUID, from []Status, to Status) (bool, error) {
	a, ok := m.appts[id]
	if !ok || !slices.Contains(from, a.Status) {
		return false, nil
	}
	a.Status = to
	return true, nil
}

func (m *mockRepo) HasDonation(_ context.Context, id uuid.UUID) (bool, error) {
	return m.donated[id], nil
}

type stubLocker struct {
	busy bool
	keys []string
}

func (l *stubLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.keys = append(l.keys, key)
	if l.busy {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}

func newTestService() (*Service, *mockRepo, *stubLocker) {
	repo := newMockRepo()
	locker := &stubLocker{}
	svc := NewService(repo, locker, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC) }
	return svc, repo, locker
}

func seedDonorAndOrg(repo *mockRepo) (uuid.UUID, uuid.UUID) {
	donor := &Donor{ID: uuid.New(), Name: "Asha Rao", BloodGroup: "O+"}
	org := &Organization{ID: uuid.New(), Name: "City Blood Bank", Kind: KindBloodBank}
	repo.donors[donor.ID] = donor
	repo.orgs[org.ID] = org
	return donor.ID, org.ID
}

func TestBook(t *testing.T) {
	svc, repo, locker := newTestService()
	donorID, orgID := seedDonorAndOrg(repo)

	appt, err := svc.Book(context.Background(), BookInput{
		DonorID:        donorID,
		OrganizationID: orgID,
		DateTime:       svc.now().Add(time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusUpcoming, appt.Status)
	assert.Equal(t, "O+", appt.BloodGroup)
	assert.Equal(t, []string{redisclient.LockKey("donor", donorID)}, locker.keys)
}

func TestBook_OneUpcomingPerDonor(t *testing.T) {
	svc, repo, _ := newTestService()
	donorID, orgID := seedDonorAndOrg(repo)
	in := BookInput{DonorID: donorID, OrganizationID: orgID, DateTime: svc.now().Add(time.Hour)}

	_, err := svc.Book(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), in)
	assert.ErrorIs(t, err, ErrDonorHasUpcoming)
}

func TestBook_Validation(t *testing.T) {
	svc, repo, locker := newTestService()
	donorID, orgID := seedDonorAndOrg(repo)
	future := svc.now().Add(time.Hour)

	_, err := svc.Book(context.Background(), BookInput{DonorID: donorID, OrganizationID: orgID, DateTime: svc.now().Add(-time.Hour)})
	assert.ErrorIs(t, err, ErrDateInPast)

	_, err = svc.Book(context.Background(), BookInput{DonorID: uuid.New(), OrganizationID: orgID, DateTime: future})
	assert.ErrorIs(t, err, ErrDonorNotFound)

	_, err = svc.Book(context.Background(), BookInput{DonorID: donorID, OrganizationID: uuid.New(), DateTime: future})
	assert.ErrorIs(t, err, ErrOrganizationNotFound)

	locker.busy = true
	_, err = svc.Book(context.Background(), BookInput{DonorID: donorID, OrganizationID: orgID, DateTime: future})
	assert.ErrorIs(t, err, ErrDonorBeingBooked)
}

func TestCancel(t *testing.T) {
	svc, repo, _ := newTestService()
	donorID, orgID := seedDonorAndOrg(repo)

	appt, err := svc.Book(context.Background(), BookInput{DonorID: donorID, OrganizationID: orgID, DateTime: svc.now().Add(time.Hour)})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = svc.Cancel(context.Background(), appt.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = svc.Cancel(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}

func TestCancel_RefusesAppointmentInPipeline(t *testing.T) {
	svc, repo, locker := newTestService()
	donorID, orgID := seedDonorAndOrg(repo)

	appt, err := svc.Book(context.Background(), BookInput{DonorID: donorID, OrganizationID: orgID, DateTime: svc.now().Add(time.Hour)})
	require.NoError(t, err)
	repo.donated[appt.ID] = true

	_, err = svc.Cancel(context.Background(), appt.ID)
	require.ErrorIs(t, err, ErrInPipeline)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Equal(t, StatusUpcoming, repo.appts[appt.ID].Status)
	assert.Contains(t, locker.keys, "lock:appointment:"+appt.ID.String())
}

func TestCancel_LockBusy(t *testing.T) {
	svc, repo, locker := newTestService()
	donorID, orgID := seedDonorAndOrg(repo)

	appt, err := svc.Book(context.Background(), BookInput{DonorID: donorID, OrganizationID: orgID, DateTime: svc.now().Add(time.Hour)})
	require.NoError(t, err)

	locker.busy = true
	_, err = svc.Cancel(context.Background(), appt.ID)
	assert.ErrorIs(t, err, redisclient.ErrLockNotAcquired)
	assert.Equal(t, StatusUpcoming, repo.appts[appt.ID].Status)
}

func TestList_ClampsLimit(t *testing.T) {
	svc, repo, _ := newTestService()
	orgID := uuid.New()
	for i := 0; i < 120; i++ {
		id := uuid.New()
		repo.appts[id] = &Appointment{ID: id, OrganizationID: orgID, Status: StatusUpcoming, DateTime: svc.now().Add(time.Duration(i) * time.Minute)}
	}

	appts, err := svc.List(context.Background(), Filter{OrganizationID: &orgID, Limit: 500})
	require.NoError(t, err)
	assert.Len(t, appts, 100)

	appts, err = svc.List(context.Background(), Filter{OrganizationID: &orgID})
	require.NoError(t, err)
	assert.Len(t, appts, 20)
}

func TestStatus(t *testing.T) {
	assert.False(t, StatusUpcoming.Consumed())
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusCollected, StatusRejected} {
		assert.True(t, s.Consumed(), s)
	}

	st, ok := ParseStatus("CANCELLED")
	assert.True(t, ok)
	assert.Equal(t, StatusCancelled, st)
	_, ok = ParseStatus("pending")
	assert.False(t, ok)

	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	a := Appointment{DateTime: at}
	assert.True(t, a.Arrived(at))
	assert.True(t, a.Arrived(at.Add(time.Minute)))
	assert.False(t, a.Arrived(at.Add(-time.Minute)))
}
