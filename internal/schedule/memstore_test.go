package schedule

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"pickupsched/internal/model"
)

// memStore is an in-memory Store. Setting err makes every call fail.
type memStore struct {
	mu         sync.Mutex
	templates  map[string]model.WeeklyTemplate
	settings   map[string]model.ScheduleSettings
	exceptions map[string]map[model.Date]model.DateException
	err        error
	saves      int
}

func newMemStore() *memStore {
	return &memStore{
		templates:  make(map[string]model.WeeklyTemplate),
		settings:   make(map[string]model.ScheduleSettings),
		exceptions: make(map[string]map[model.Date]model.DateException),
	}
}

func (m *memStore) LoadWeeklyTemplate(_ context.Context, affiliateID string) (model.WeeklyTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.WeeklyTemplate{}, m.err
	}
	t, ok := m.templates[affiliateID]
	if !ok {
		return model.WeeklyTemplate{}, model.ErrNotFound
	}
	return t, nil
}

func (m *memStore) SaveWeeklyTemplate(_ context.Context, affiliateID string, t model.WeeklyTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.templates[affiliateID] = t
	return nil
}

func (m *memStore) LoadExceptions(_ context.Context, affiliateID string, from, to model.Date) ([]model.DateException, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []model.DateException
	for d, e := range m.exceptions[affiliateID] {
		if !d.Before(from) && !d.After(to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memStore) UpsertException(_ context.Context, exc model.DateException) (model.DateException, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.DateException{}, m.err
	}
	byDate, ok := m.exceptions[exc.AffiliateID]
	if !ok {
		byDate = make(map[model.Date]model.DateException)
		m.exceptions[exc.AffiliateID] = byDate
	}
	if prev, ok := byDate[exc.Date]; ok {
		exc.CreatedAt = prev.CreatedAt
	}
	byDate[exc.Date] = exc
	return exc, nil
}

func (m *memStore) DeleteException(_ context.Context, affiliateID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for d, e := range m.exceptions[affiliateID] {
		if e.ID == id {
			delete(m.exceptions[affiliateID], d)
			return nil
		}
	}
	return model.ErrNotFound
}

func (m *memStore) LoadSettings(_ context.Context, affiliateID string) (model.ScheduleSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.ScheduleSettings{}, m.err
	}
	s, ok := m.settings[affiliateID]
	if !ok {
		return model.ScheduleSettings{}, model.ErrNotFound
	}
	return s, nil
}

func (m *memStore) SaveSettings(_ context.Context, s model.ScheduleSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.settings[s.AffiliateID] = s
	return nil
}

func (m *memStore) HasSchedule(_ context.Context, affiliateID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.templates[affiliateID]
	return ok, nil
}

type mockDemand struct {
	mock.Mock
}

func (m *mockDemand) CountOutstandingOrders(ctx context.Context, affiliateID string, date model.Date) (int, error) {
	args := m.Called(ctx, affiliateID, date)
	return args.Int(0), args.Error(1)
}
