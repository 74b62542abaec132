package healthstats

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"pet-health/internal/domain/duedate"
	"pet-health/internal/domain/healthrecords"
	"pet-health/internal/domain/reminders"
	"pet-health/internal/domain/vaccinations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

type fakeRecords struct {
	checkups []time.Time
	others   []time.Time
	err      error
}

func (f *fakeRecords) CountByPet(ctx context.Context, petID string, asOf time.Time) (int, error) {
	n := 0
	for _, d := range append(slices.Clone(f.checkups), f.others...) {
		if !d.After(asOf) {
			n++
		}
	}
	return n, f.err
}

func (f *fakeRecords) CountBetween(ctx context.Context, petID string, t healthrecords.RecordType, from, to time.Time) (int, error) {
	n := 0
	for _, d := range f.checkups {
		if !d.Before(from) && !d.After(to) {
			n++
		}
	}
	return n, f.err
}

func (f *fakeRecords) LatestOfType(ctx context.Context, petID string, t healthrecords.RecordType, asOf time.Time) (*time.Time, error) {
	var latest *time.Time
	for _, d := range f.checkups {
		if d.After(asOf) {
			continue
		}
		if latest == nil || d.After(*latest) {
			d := d
			latest = &d
		}
	}
	return latest, f.err
}

type fakeVaccinations struct {
	statuses []duedate.Status
}

func (f *fakeVaccinations) Compliance(ctx context.Context, petID string, now time.Time) ([]vaccinations.VaccineStatus, error) {
	out := make([]vaccinations.VaccineStatus, 0, len(f.statuses))
	for _, st := range f.statuses {
		out = append(out, vaccinations.VaccineStatus{Status: st})
	}
	return out, nil
}

type fakeReminders struct {
	upcoming int
	overdue  int
	// afterOverdueRead corre dentro de CountOverdue, después de leer overdue.
	afterOverdueRead func()
}

func (f *fakeReminders) Upcoming(ctx context.Context, petID string, now time.Time, horizonDays int) ([]reminders.Reminder, error) {
	return make([]reminders.Reminder, f.upcoming), nil
}

func (f *fakeReminders) CountOverdue(ctx context.Context, petID string, now time.Time) (int, error) {
	n := f.overdue
	if hook := f.afterOverdueRead; hook != nil {
		f.afterOverdueRead = nil
		hook()
	}
	return n, nil
}

type cacheEntry struct {
	gen int64
	st  Stats
}

type fakeCache struct {
	mu          sync.Mutex
	items       map[string]cacheEntry
	gens        map[string]int64
	getErr      error
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: map[string]cacheEntry{}, gens: map[string]int64{}}
}

func (c *fakeCache) Get(ctx context.Context, petID string) (Stats, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return Stats{}, 0, false, c.getErr
	}
	gen := c.gens[petID]
	e, ok := c.items[petID]
	if !ok || e.gen != gen {
		return Stats{}, gen, false, nil
	}
	return e.st, gen, true, nil
}

func (c *fakeCache) Set(ctx context.Context, petID string, gen int64, st Stats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[petID] = cacheEntry{gen: gen, st: st}
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, petID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[petID]++
	delete(c.items, petID)
	c.invalidated = append(c.invalidated, petID)
	return nil
}

func (c *fakeCache) has(petID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[petID]
	return ok
}

func daysAgo(n int) time.Time { return now.Add(-time.Duration(n) * duedate.Day) }

func newSvc(rec *fakeRecords, vac *fakeVaccinations, rem *fakeReminders, opts ...Option) *Service {
	svc := NewService(rec, vac, rem, opts...)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCompute_FullMarks(t *testing.T) {
	svc := newSvc(
		&fakeRecords{checkups: []time.Time{daysAgo(10)}, others: []time.Time{daysAgo(20), daysAgo(40)}},
		&fakeVaccinations{statuses: []duedate.Status{duedate.StatusUpToDate, duedate.StatusDueSoon}},
		&fakeReminders{upcoming: 2},
	)

	st, err := svc.Compute(context.Background(), "pet-1", now)
	require.NoError(t, err)
	assert.Equal(t, Components{Recency: 30, Vaccination: 40, Reminders: 30}, st.Components)
	assert.Equal(t, 100, st.HealthScore)
	assert.Equal(t, 3, st.TotalRecords)
	assert.Equal(t, 1, st.RecentCheckups)
	assert.Equal(t, 2, st.VaccinationsUpToDate)
	assert.Equal(t, 2, st.UpcomingReminders)
	assert.Equal(t, 1.0, st.VaccinationCompliance)
	assert.Equal(t, now, st.ComputedAt)
}

func TestCompute_NoCheckupsNoVaccinesThreeOverdue(t *testing.T) {
	svc := newSvc(&fakeRecords{}, &fakeVaccinations{}, &fakeReminders{overdue: 3})

	st, err := svc.Compute(context.Background(), "pet-1", now)
	require.NoError(t, err)
	assert.Equal(t, Components{Recency: 0, Vaccination: 40, Reminders: 0}, st.Components)
	assert.Equal(t, 40, st.HealthScore)
	assert.Equal(t, 3, st.OverdueReminders)
	assert.Nil(t, st.LastCheckup)
}

func TestRecencyScore(t *testing.T) {
	svc := newSvc(&fakeRecords{}, &fakeVaccinations{}, &fakeReminders{})

	cases := []struct {
		name string
		last *time.Time
		want int
	}{
		{"absent", nil, 0},
		{"today", ptr(now), 30},
		{"after now", ptr(now.Add(duedate.Day)), 30},
		{"exactly one year", ptr(daysAgo(365)), 30},
		{"midpoint", ptr(daysAgo(547)), 15},
		{"three quarters", ptr(daysAgo(638)), 8},
		{"exactly two years", ptr(daysAgo(730)), 0},
		{"older", ptr(daysAgo(2000)), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, svc.recencyScore(tc.last, now))
		})
	}
}

func TestVaccinationAndReminderScores(t *testing.T) {
	svc := newSvc(&fakeRecords{}, &fakeVaccinations{}, &fakeReminders{})

	assert.Equal(t, 27, svc.vaccinationScore(2.0/3.0))
	assert.Equal(t, 0, svc.vaccinationScore(0))
	assert.Equal(t, 30, svc.reminderScore(0))
	assert.Equal(t, 20, svc.reminderScore(1))
	assert.Equal(t, 0, svc.reminderScore(3))
	assert.Equal(t, 0, svc.reminderScore(50))
}

func TestCompute_ScoreAlwaysInRange(t *testing.T) {
	checkups := [][]time.Time{nil, {daysAgo(1)}, {daysAgo(400)}, {daysAgo(900)}}
	vaccineSets := [][]duedate.Status{
		nil,
		{duedate.StatusOverdue},
		{duedate.StatusOverdue, duedate.StatusUpToDate},
		{duedate.StatusNoDate, duedate.StatusDueSoon, duedate.StatusUpToDate},
	}
	for _, c := range checkups {
		for _, v := range vaccineSets {
			for overdue := 0; overdue <= 12; overdue += 3 {
				svc := newSvc(&fakeRecords{checkups: c}, &fakeVaccinations{statuses: v}, &fakeReminders{overdue: overdue})
				st, err := svc.Compute(context.Background(), "pet-1", now)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, st.HealthScore, 0)
				assert.LessOrEqual(t, st.HealthScore, 100)
			}
		}
	}
}

func TestCompute_ExplicitNowIgnoresLaterRecords(t *testing.T) {
	svc := newSvc(
		&fakeRecords{checkups: []time.Time{daysAgo(800), daysAgo(5)}, others: []time.Time{daysAgo(60), daysAgo(2)}},
		&fakeVaccinations{},
		&fakeReminders{},
	)

	st, err := svc.Compute(context.Background(), "pet-1", daysAgo(30))
	require.NoError(t, err)
	require.NotNil(t, st.LastCheckup)
	assert.Equal(t, daysAgo(800), *st.LastCheckup)
	assert.Equal(t, 0, st.RecentCheckups)
	assert.Equal(t, 0, st.Components.Recency)
	assert.Equal(t, 2, st.TotalRecords)

	st, err = svc.Compute(context.Background(), "pet-1", now)
	require.NoError(t, err)
	assert.Equal(t, 4, st.TotalRecords)
}

func TestCompute_CustomPolicy(t *testing.T) {
	p := DefaultPolicy()
	p.Weights = Weights{Recency: 20, Vaccination: 50, Reminders: 30}
	p.OverduePenalty = 5
	require.NoError(t, p.Validate())

	svc := newSvc(&fakeRecords{checkups: []time.Time{daysAgo(3)}}, &fakeVaccinations{}, &fakeReminders{overdue: 2}, WithPolicy(p))
	st, err := svc.Compute(context.Background(), "pet-1", now)
	require.NoError(t, err)
	assert.Equal(t, Components{Recency: 20, Vaccination: 50, Reminders: 20}, st.Components)
	assert.Equal(t, 90, st.HealthScore)
}

func TestCompute_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	svc := newSvc(&fakeRecords{err: boom}, &fakeVaccinations{}, &fakeReminders{})

	_, err := svc.Compute(context.Background(), "pet-1", now)
	require.ErrorIs(t, err, boom)
}

func TestCurrent_UsesCacheAndInvalidate(t *testing.T) {
	cache := newFakeCache()
	rem := &fakeReminders{}
	svc := newSvc(&fakeRecords{checkups: []time.Time{daysAgo(1)}}, &fakeVaccinations{}, rem, WithCache(cache))

	first, err := svc.Current(context.Background(), "pet-1")
	require.NoError(t, err)
	assert.Equal(t, 100, first.HealthScore)
	require.True(t, cache.has("pet-1"))

	// Sin invalidar, el cache sigue sirviendo el valor viejo.
	rem.overdue = 1
	cached, err := svc.Current(context.Background(), "pet-1")
	require.NoError(t, err)
	assert.Equal(t, 100, cached.HealthScore)

	svc.Invalidate(context.Background(), "pet-1")
	assert.Equal(t, []string{"pet-1"}, cache.invalidated)

	fresh, err := svc.Current(context.Background(), "pet-1")
	require.NoError(t, err)
	assert.Equal(t, 90, fresh.HealthScore)
}

func TestCurrent_WriteDuringComputeIsNotCachedAsFresh(t *testing.T) {
	cache := newFakeCache()
	rem := &fakeReminders{}
	svc := newSvc(&fakeRecords{checkups: []time.Time{daysAgo(1)}}, &fakeVaccinations{}, rem, WithCache(cache))

	// Mientras Compute lee overdue=0, llegan tres vencidos y el store invalida.
	rem.afterOverdueRead = func() {
		rem.overdue = 3
		svc.Invalidate(context.Background(), "pet-1")
	}

	inFlight, err := svc.Current(context.Background(), "pet-1")
	require.NoError(t, err)
	assert.Equal(t, 100, inFlight.HealthScore)

	fresh, err := svc.Current(context.Background(), "pet-1")
	require.NoError(t, err)
	assert.Equal(t, 70, fresh.HealthScore)
	assert.Equal(t, 3, fresh.OverdueReminders)

	// La entrada nueva sí se sirve desde el cache.
	rem.overdue = 0
	again, err := svc.Current(context.Background(), "pet-1")
	require.NoError(t, err)
	assert.Equal(t, 70, again.HealthScore)
}

func TestCurrent_CacheErrorFallsBackToCompute(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = errors.New("redis: connection refused")
	svc := newSvc(&fakeRecords{}, &fakeVaccinations{}, &fakeReminders{}, WithCache(cache))

	st, err := svc.Current(context.Background(), "pet-1")
	require.NoError(t, err)
	assert.Equal(t, 70, st.HealthScore)
	assert.False(t, cache.has("pet-1"))
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	bad := DefaultPolicy()
	bad.Weights.Recency = 31
	assert.Error(t, bad.Validate())

	bad = DefaultPolicy()
	bad.StaleCheckupAge = bad.RecentCheckupAge
	assert.Error(t, bad.Validate())

	bad = DefaultPolicy()
	bad.OverduePenalty = -1
	assert.Error(t, bad.Validate())
}

func ptr(t time.Time) *time.Time { return &t }
