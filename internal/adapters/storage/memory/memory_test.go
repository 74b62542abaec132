package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pet-health/internal/domain/duedate"
	"pet-health/internal/domain/healthrecords"
	"pet-health/internal/domain/reminders"
	"pet-health/internal/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

func TestReminderRepo_ApplyCompletionIsCompareAndSwap(t *testing.T) {
	repo := NewReminderRepo()
	ctx := context.Background()
	weekly := duedate.FrequencyWeekly

	rem := reminders.Reminder{ID: "r1", PetID: "p1", DueDate: t0, Frequency: &weekly, IsRecurring: true}
	require.NoError(t, repo.Create(ctx, rem))

	const workers = 16
	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := rem
			next.DueDate = t0.AddDate(0, 0, 7)
			err := repo.ApplyCompletion(ctx, reminders.CompletionUpdate{
				ExpectedDueDate: t0,
				Reminder:        next,
				Entry:           reminders.Completion{ReminderID: "r1", DueDate: t0, CompletedAt: t0},
			})
			if err == nil {
				ok.Add(1)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrConflict)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	got, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, t0.AddDate(0, 0, 7), got.DueDate)

	history, err := repo.ListCompletions(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestReminderRepo_ListExcludesCompletedOnce(t *testing.T) {
	repo := NewReminderRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, reminders.Reminder{ID: "b", PetID: "p1", DueDate: t0.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, reminders.Reminder{ID: "a", PetID: "p1", DueDate: t0, IsCompleted: true}))
	require.NoError(t, repo.Create(ctx, reminders.Reminder{ID: "c", PetID: "p2", DueDate: t0}))

	pending, err := repo.ListByPet(ctx, "p1", false)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b", pending[0].ID)

	all, err := repo.ListByPet(ctx, "p1", true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
}

func TestHealthRecordRepo_FiltersAndOrder(t *testing.T) {
	repo := NewHealthRecordRepo()
	ctx := context.Background()

	mk := func(id string, daysAgo int, typ healthrecords.RecordType) {
		require.NoError(t, repo.Create(ctx, healthrecords.HealthRecord{
			ID: id, PetID: "p1", Type: typ, Date: t0.AddDate(0, 0, -daysAgo), Attachments: []string{"a.pdf"},
		}))
	}
	mk("old", 400, healthrecords.RecordTypeCheckup)
	mk("mid", 100, healthrecords.RecordTypeIllness)
	mk("new", 10, healthrecords.RecordTypeCheckup)

	all, err := repo.ListByPet(ctx, "p1", healthrecords.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{all[0].ID, all[1].ID, all[2].ID})

	from := t0.AddDate(0, 0, -200)
	checkups, err := repo.ListByPet(ctx, "p1", healthrecords.ListFilter{
		Types: []healthrecords.RecordType{healthrecords.RecordTypeCheckup},
		From:  &from,
	})
	require.NoError(t, err)
	require.Len(t, checkups, 1)
	assert.Equal(t, "new", checkups[0].ID)

	n, err := repo.CountBetween(ctx, "p1", healthrecords.RecordTypeCheckup, t0.AddDate(0, 0, -365), t0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	total, err := repo.CountByPet(ctx, "p1", t0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	total, err = repo.CountByPet(ctx, "p1", t0.AddDate(0, 0, -50))
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	// Las copias devueltas no comparten el slice de adjuntos.
	all[0].Attachments[0] = "mutated"
	again, err := repo.GetByID(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", again.Attachments[0])
}

func TestRepos_NotFound(t *testing.T) {
	ctx := context.Background()

	_, err := NewPetRepo().GetByID(ctx, "x")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, NewHealthRecordRepo().Delete(ctx, "x"), apperr.ErrNotFound)
	assert.ErrorIs(t, NewVaccinationRepo().Delete(ctx, "x"), apperr.ErrNotFound)
	assert.ErrorIs(t, NewReminderRepo().Delete(ctx, "x"), apperr.ErrNotFound)
}
