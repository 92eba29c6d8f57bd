package camp

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/hackgods/donation-pipeline/internal/redis"
)

type mockRepo struct {
	camps        map[uuid.UUID]*Camp
	participants map[uuid.UUID]*Participant
	donated      map[uuid.UUID]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		camps:        map[uuid.UUID]*Camp{},
		participants: map[uuid.UUID]*Participant{},
		donated:      map[uuid.UUID]bool{},
	}
}

func (m *mockRepo) CreateCamp(_ context.Context, c Camp) (*Camp, error) {
	c.ID = uuid.New()
	m.camps[c.ID] = &c
	return &c, nil
}

func (m *mockRepo) GetCampByID(_ context.Context, id uuid.UUID) (*Camp, error) {
	c, ok := m.camps[id]
	if !ok {
		return nil, ErrCampNotFound
	}
	return c, nil
}

func (m *mockRepo) CreateParticipant(_ context.Context, p Participant) (*Participant, error) {
	c, ok := m.camps[p.CampID]
	if !ok {
		return nil, ErrCampNotFound
	}
	p.ID = uuid.New()
	p.Status = ParticipantRegistered
	p.OrganizationID = c.OrganizationID
	p.CampStartsAt = c.StartsAt
	m.participants[p.ID] = &p
	return &p, nil
}

func (m *mockRepo) GetParticipantByID(_ context.Context, id uuid.UUID) (*Participant, error) {
	p, ok := m.participants[id]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) ListParticipantsByCamp(_ context.Context, campID uuid.UUID) ([]Participant, error) {
	var out []Participant
	for _, p := range m.participants {
		if p.CampID == campID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockRepo) ListRegisteredByOrganization(_ context.Context, orgID uuid.UUID) ([]Participant, error) {
	var out []Participant
	for _, p := range m.participants {
		if p.OrganizationID == orgID && p.Status == ParticipantRegistered {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockRepo) MarkParticipant(_ context.Context, id uuid.UUID, from []ParticipantStatus, to ParticipantStatus) (bool, error) {
	p, ok := m.participants[id]
	if !ok || !slices.Contains(from, p.Status) {
		return false, nil
	}
	p.Status = to
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

var testNow = time.Date(2026, 6, 14, 10, 0, 0, 0, time.UTC)

func newTestService() (*Service, *mockRepo) {
	svc, repo, _ := newLockedService()
	return svc, repo
}

func newLockedService() (*Service, *mockRepo, *stubLocker) {
	repo := newMockRepo()
	locker := &stubLocker{}
	svc := NewService(repo, locker, zerolog.Nop())
	svc.now = func() time.Time { return testNow }
	return svc, repo, locker
}

func TestCreateCamp_Validation(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateCamp(context.Background(), Camp{Name: " ", StartsAt: testNow, EndsAt: testNow.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrInvalidCamp)

	_, err = svc.CreateCamp(context.Background(), Camp{Name: "World Blood Donor Day", StartsAt: testNow, EndsAt: testNow})
	assert.ErrorIs(t, err, ErrInvalidCamp)

	c, err := svc.CreateCamp(context.Background(), Camp{Name: " World Blood Donor Day ", StartsAt: testNow, EndsAt: testNow.Add(8 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "World Blood Donor Day", c.Name)
}

func TestRegister(t *testing.T) {
	svc, repo := newTestService()
	orgID := uuid.New()
	c, err := svc.CreateCamp(context.Background(), Camp{OrganizationID: orgID, Name: "Campus drive", StartsAt: testNow.Add(-time.Hour), EndsAt: testNow.Add(time.Hour)})
	require.NoError(t, err)

	p, err := svc.Register(context.Background(), RegisterInput{CampID: c.ID, Name: "Ravi", BloodGroup: "b-"})
	require.NoError(t, err)
	assert.Equal(t, "B-", p.BloodGroup)
	assert.Equal(t, ParticipantRegistered, p.Status)
	assert.True(t, p.Arrived(testNow))

	registered, err := repo.ListRegisteredByOrganization(context.Background(), orgID)
	require.NoError(t, err)
	assert.Len(t, registered, 1)

	_, err = svc.Register(context.Background(), RegisterInput{CampID: c.ID, Name: "", BloodGroup: "B-"})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = svc.Register(context.Background(), RegisterInput{CampID: c.ID, Name: "Ravi", BloodGroup: "Z"})
	assert.Error(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{CampID: uuid.New(), Name: "Ravi", BloodGroup: "B-"})
	assert.ErrorIs(t, err, ErrCampNotFound)
}

func TestRegister_ClosedCamp(t *testing.T) {
	svc, _ := newTestService()
	c, err := svc.CreateCamp(context.Background(), Camp{Name: "Last week", StartsAt: testNow.Add(-48 * time.Hour), EndsAt: testNow.Add(-40 * time.Hour)})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{CampID: c.ID, Name: "Late", BloodGroup: "A+"})
	assert.ErrorIs(t, err, ErrCampClosed)
}

func TestCancelParticipant(t *testing.T) {
	svc, _, locker := newLockedService()
	ctx := context.Background()
	c, err := svc.CreateCamp(ctx, Camp{OrganizationID: uuid.New(), Name: "Campus drive", StartsAt: testNow, EndsAt: testNow.Add(time.Hour)})
	require.NoError(t, err)
	p, err := svc.Register(ctx, RegisterInput{CampID: c.ID, Name: "Ravi", BloodGroup: "B-"})
	require.NoError(t, err)

	cancelled, err := svc.CancelParticipant(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, ParticipantCancelled, cancelled.Status)
	assert.Equal(t, []string{"lock:participant:" + p.ID.String()}, locker.keys)

	stored, err := svc.GetParticipant(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, ParticipantCancelled, stored.Status)

	_, err = svc.CancelParticipant(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)

	_, err = svc.CancelParticipant(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestCancelParticipant_InPipeline(t *testing.T) {
	svc, repo, _ := newLockedService()
	ctx := context.Background()
	c, err := svc.CreateCamp(ctx, Camp{OrganizationID: uuid.New(), Name: "Campus drive", StartsAt: testNow, EndsAt: testNow.Add(time.Hour)})
	require.NoError(t, err)
	p, err := svc.Register(ctx, RegisterInput{CampID: c.ID, Name: "Ravi", BloodGroup: "B-"})
	require.NoError(t, err)
	repo.donated[p.ID] = true

	_, err = svc.CancelParticipant(ctx, p.ID)
	assert.ErrorIs(t, err, ErrInPipeline)
	assert.Equal(t, ParticipantRegistered, repo.participants[p.ID].Status)
}

func TestCancelParticipant_LockBusy(t *testing.T) {
	svc, repo, locker := newLockedService()
	ctx := context.Background()
	c, err := svc.CreateCamp(ctx, Camp{OrganizationID: uuid.New(), Name: "Campus drive", StartsAt: testNow, EndsAt: testNow.Add(time.Hour)})
	require.NoError(t, err)
	p, err := svc.Register(ctx, RegisterInput{CampID: c.ID, Name: "Ravi", BloodGroup: "B-"})
	require.NoError(t, err)

	locker.busy = true
	_, err = svc.CancelParticipant(ctx, p.ID)
	assert.ErrorIs(t, err, redisclient.ErrLockNotAcquired)
	assert.Equal(t, ParticipantRegistered, repo.participants[p.ID].Status)
}
