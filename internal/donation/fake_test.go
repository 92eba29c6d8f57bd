package donation

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/donation-pipeline/internal/appointment"
	"github.com/hackgods/donation-pipeline/internal/camp"
	"github.com/hackgods/donation-pipeline/internal/inventory"
	redisclient "github.com/hackgods/donation-pipeline/internal/redis"
	"github.com/hackgods/donation-pipeline/internal/request"
)

// memDB backs every store with maps. InTx restores a snapshot when fn
// fails, which is enough to observe rollbacks.
type memDB struct {
	mu sync.Mutex

	donations    map[uuid.UUID]Donation
	appts        map[uuid.UUID]appointment.Appointment
	participants map[uuid.UUID]camp.Participant
	requests     map[uuid.UUID]request.BloodRequest
	units        map[uuid.UUID]inventory.Unit

	clock time.Time
}

func newMemDB() *memDB {
	return &memDB{
		donations:    make(map[uuid.UUID]Donation),
		appts:        make(map[uuid.UUID]appointment.Appointment),
		participants: make(map[uuid.UUID]camp.Participant),
		requests:     make(map[uuid.UUID]request.BloodRequest),
		units:        make(map[uuid.UUID]inventory.Unit),
		clock:        time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memDB) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memDB) Stores() Stores {
	return Stores{
		Donations:    memDonations{m},
		Appointments: memAppointments{m},
		Participants: memParticipants{m},
		Requests:     memRequests{m},
		Inventory:    memInventory{m},
	}
}

func (m *memDB) InTx(_ context.Context, fn func(Stores) error) error {
	m.mu.Lock()
	snap := m.snapshot()
	m.mu.Unlock()

	if err := fn(m.Stores()); err != nil {
		m.mu.Lock()
		m.restore(snap)
		m.mu.Unlock()
		return err
	}
	return nil
}

type memSnapshot struct {
	donations    map[uuid.UUID]Donation
	appts        map[uuid.UUID]appointment.Appointment
	participants map[uuid.UUID]camp.Participant
	requests     map[uuid.UUID]request.BloodRequest
	units        map[uuid.UUID]inventory.Unit
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memDB) snapshot() memSnapshot {
	return memSnapshot{
		donations:    cloneMap(m.donations),
		appts:        cloneMap(m.appts),
		participants: cloneMap(m.participants),
		requests:     cloneMap(m.requests),
		units:        cloneMap(m.units),
	}
}

func (m *memDB) restore(s memSnapshot) {
	m.donations = s.donations
	m.appts = s.appts
	m.participants = s.participants
	m.requests = s.requests
	m.units = s.units
}

// cloneDonation copies the slices and pointers a caller could mutate.
func cloneDonation(d Donation) Donation {
	d.History = append([]HistoryEntry(nil), d.History...)
	if d.Screening != nil {
		sc := *d.Screening
		d.Screening = &sc
	}
	if d.Collection != nil {
		c := *d.Collection
		d.Collection = &c
	}
	if d.LabTests != nil {
		l := *d.LabTests
		d.LabTests = &l
	}
	return d
}

type memDonations struct{ m *memDB }

func (r memDonations) Create(_ context.Context, d Donation) (*Donation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, existing := range r.m.donations {
		if d.AppointmentID != nil && existing.AppointmentID != nil && *existing.AppointmentID == *d.AppointmentID {
			return nil, ErrDonationExists
		}
		if d.CampParticipantID != nil && existing.CampParticipantID != nil && *existing.CampParticipantID == *d.CampParticipantID {
			return nil, ErrDonationExists
		}
	}

	d.ID = uuid.New()
	d.Version = 1
	d.CreatedAt = r.m.tick()
	d.UpdatedAt = d.CreatedAt
	r.m.donations[d.ID] = cloneDonation(d)
	out := cloneDonation(d)
	return &out, nil
}

func (r memDonations) GetByID(_ context.Context, id uuid.UUID) (*Donation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	d, ok := r.m.donations[id]
	if !ok {
		return nil, ErrDonationNotFound
	}
	out := cloneDonation(d)
	return &out, nil
}

func (r memDonations) find(match func(Donation) bool) (*Donation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, d := range r.m.donations {
		if match(d) {
			out := cloneDonation(d)
			return &out, nil
		}
	}
	return nil, ErrDonationNotFound
}

func (r memDonations) GetByAppointmentID(_ context.Context, id uuid.UUID) (*Donation, error) {
	return r.find(func(d Donation) bool { return d.AppointmentID != nil && *d.AppointmentID == id })
}

func (r memDonations) GetByCampParticipantID(_ context.Context, id uuid.UUID) (*Donation, error) {
	return r.find(func(d Donation) bool { return d.CampParticipantID != nil && *d.CampParticipantID == id })
}

func (r memDonations) List(_ context.Context, f Filter) ([]Donation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []Donation
	for _, d := range r.m.donations {
		if f.OrganizationID != nil && d.OrganizationID != *f.OrganizationID {
			continue
		}
		if f.DonorID != nil && (d.DonorID == nil || *d.DonorID != *f.DonorID) {
			continue
		}
		if f.Stage != "" && d.Stage != f.Stage {
			continue
		}
		out = append(out, cloneDonation(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r memDonations) Update(_ context.Context, d Donation) (*Donation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	stored, ok := r.m.donations[d.ID]
	if !ok {
		return nil, ErrDonationNotFound
	}
	if stored.Version != d.Version {
		return nil, ErrVersionConflict
	}
	if d.Collection != nil {
		for id, other := range r.m.donations {
			if id != d.ID && other.Collection != nil && other.Collection.BloodBagIDGenerated == d.Collection.BloodBagIDGenerated {
				return nil, ErrDuplicateBagID
			}
		}
	}

	d.Version++
	d.UpdatedAt = r.m.tick()
	r.m.donations[d.ID] = cloneDonation(d)
	out := cloneDonation(d)
	return &out, nil
}

type memAppointments struct{ m *memDB }

func (r memAppointments) GetAppointmentByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	a, ok := r.m.appts[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (r memAppointments) ListAppointments(_ context.Context, f appointment.Filter) ([]appointment.Appointment, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []appointment.Appointment
	for _, a := range r.m.appts {
		if f.OrganizationID != nil && a.OrganizationID != *f.OrganizationID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

func (r memAppointments) MarkStatus(_ context.Context, id uuid.UUID, from []appointment.Status, to appointment.Status) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	a, ok := r.m.appts[id]
	if !ok || !slices.Contains(from, a.Status) {
		return false, nil
	}
	a.Status = to
	r.m.appts[id] = a
	return true, nil
}

type memParticipants struct{ m *memDB }

func (r memParticipants) GetParticipantByID(_ context.Context, id uuid.UUID) (*camp.Participant, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p, ok := r.m.participants[id]
	if !ok {
		return nil, camp.ErrParticipantNotFound
	}
	return &p, nil
}

func (r memParticipants) ListRegisteredByOrganization(_ context.Context, orgID uuid.UUID) ([]camp.Participant, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []camp.Participant
	for _, p := range r.m.participants {
		if p.OrganizationID == orgID && p.Status == camp.ParticipantRegistered {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memParticipants) MarkParticipant(_ context.Context, id uuid.UUID, from []camp.ParticipantStatus, to camp.ParticipantStatus) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p, ok := r.m.participants[id]
	if !ok || !slices.Contains(from, p.Status) {
		return false, nil
	}
	p.Status = to
	r.m.participants[id] = p
	return true, nil
}

type memRequests struct{ m *memDB }

func (r memRequests) Fulfill(_ context.Context, id, donationID uuid.UUID) (*request.BloodRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	req, ok := r.m.requests[id]
	if !ok || req.Status != request.StatusOpen {
		return nil, request.ErrRequestNotFound
	}
	at := r.m.clock
	req.Status = request.StatusFulfilled
	req.FulfilledBy = &donationID
	req.FulfilledAt = &at
	r.m.requests[id] = req
	return &req, nil
}

func (r memRequests) Reopen(_ context.Context, id, donationID uuid.UUID) (*request.BloodRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	req, ok := r.m.requests[id]
	if !ok {
		return nil, request.ErrRequestNotFound
	}
	ownFulfillment := req.Status == request.StatusFulfilled && req.FulfilledBy != nil && *req.FulfilledBy == donationID
	if req.Status != request.StatusOpen && !ownFulfillment {
		return nil, request.ErrRequestNotFound
	}
	req.Status = request.StatusOpen
	req.FulfilledBy = nil
	req.FulfilledAt = nil
	r.m.requests[id] = req
	return &req, nil
}

type memInventory struct{ m *memDB }

func (r memInventory) Create(_ context.Context, u inventory.Unit) (*inventory.Unit, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, existing := range r.m.units {
		if existing.DonationID == u.DonationID {
			return nil, inventory.ErrUnitExists
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = r.m.clock
	u.UpdatedAt = u.CreatedAt
	r.m.units[u.ID] = u
	return &u, nil
}

// stubLocker runs fn inline, or refuses when busy is set.
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
