package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-health/internal/domain/duedate"
	"pet-health/internal/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTP_EndToEnd_HealthFlow(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{AuthVerifier: nil}))
	defer ts.Close()

	ownerID := "owner-1"
	intruderID := "intruder-1"
	today := time.Now().UTC()
	day := func(offset int) string { return today.AddDate(0, 0, offset).Format(time.DateOnly) }

	// 1) Owner crea mascota
	petID := createPet(t, ts.URL, ownerID, map[string]any{
		"name":    "Milo",
		"species": "dog",
		"breed":   "mixed",
		"sex":     "male",
	})
	base := "/pets/" + petID + "/health"

	// 2) Otro usuario no ve nada de la mascota
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets/"+petID, intruderID, nil)
		assert.Equal(t, http.StatusForbidden, st)

		st, _ = doReq(t, ts.URL, "GET", base+"/stats", intruderID, nil)
		assert.Equal(t, http.StatusForbidden, st)

		st, _ = doReq(t, ts.URL, "GET", base+"/records", "", nil)
		assert.Equal(t, http.StatusUnauthorized, st)

		st, _ = doReq(t, ts.URL, "GET", "/pets/missing/health/stats", ownerID, nil)
		assert.Equal(t, http.StatusNotFound, st)
	}

	// 3) Health records
	{
		st, body := doReq(t, ts.URL, "POST", base+"/records", ownerID, map[string]any{
			"date":        day(-10),
			"type":        "checkup",
			"vet_name":    "Dr. Ruiz",
			"cost":        45.5,
			"attachments": []string{"lab.pdf"},
		})
		require.Equal(t, http.StatusCreated, st, string(body))

		st, _ = doReq(t, ts.URL, "POST", base+"/records", ownerID, map[string]any{
			"date": day(-1),
			"type": "haircut",
		})
		assert.Equal(t, http.StatusBadRequest, st)

		var list []map[string]any
		st, body = doReq(t, ts.URL, "GET", base+"/records?types=checkup", ownerID, nil)
		require.Equal(t, http.StatusOK, st, string(body))
		require.NoError(t, json.Unmarshal(body, &list))
		assert.Len(t, list, 1)
	}

	// 4) Vacunas: next_due_date anterior a date_given => 400
	{
		st, body := doReq(t, ts.URL, "POST", base+"/vaccinations", ownerID, map[string]any{
			"vaccine_name":  "Rabies",
			"date_given":    "2024-01-01",
			"next_due_date": "2023-12-31",
		})
		assert.Equal(t, http.StatusBadRequest, st, string(body))
	}
	{
		st, body := doReq(t, ts.URL, "POST", base+"/vaccinations", ownerID, map[string]any{
			"vaccine_name":    "Rabies",
			"date_given":      day(-355),
			"next_due_date":   day(10),
			"create_reminder": true,
		})
		require.Equal(t, http.StatusCreated, st, string(body))

		var resp struct {
			ReminderID string `json:"reminder_id"`
		}
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.NotEmpty(t, resp.ReminderID)

		var upcoming []map[string]any
		st, body = doReq(t, ts.URL, "GET", base+"/vaccinations/upcoming", ownerID, nil)
		require.Equal(t, http.StatusOK, st, string(body))
		require.NoError(t, json.Unmarshal(body, &upcoming))
		assert.Len(t, upcoming, 1)
	}

	// 5) Stats: checkup reciente, vacuna due_soon, sin vencidos
	stats := getStats(t, ts.URL, ownerID, base)
	assert.Equal(t, 100, stats.HealthScore)
	assert.Equal(t, 1, stats.TotalRecords)
	assert.Equal(t, 1, stats.VaccinationsUpToDate)

	// 6) Recordatorio recurrente: cada complete avanza un período
	{
		monthlyID := createReminder(t, ts.URL, ownerID, base, map[string]any{
			"type":          "medication",
			"title":         "Antiparasitario",
			"due_date":      day(3),
			"frequency":     "monthly",
			"is_recurring":  true,
			"reminder_days": 7,
		})

		st, body := doReq(t, ts.URL, "POST", base+"/reminders/"+monthlyID+"/complete", ownerID, nil)
		require.Equal(t, http.StatusOK, st, string(body))

		var rem struct {
			DueDate     time.Time `json:"due_date"`
			IsCompleted bool      `json:"is_completed"`
			State       string    `json:"state"`
		}
		require.NoError(t, json.Unmarshal(body, &rem))
		assert.False(t, rem.IsCompleted)
		assert.Equal(t, "pending", rem.State)
		first, err := duedate.ParseDate(day(3))
		require.NoError(t, err)
		want, err := duedate.Advance(first, duedate.FrequencyMonthly)
		require.NoError(t, err)
		assert.True(t, want.Equal(rem.DueDate), "due_date=%s want=%s", rem.DueDate, want)

		var history []map[string]any
		st, body = doReq(t, ts.URL, "GET", base+"/reminders/"+monthlyID+"/completions", ownerID, nil)
		require.Equal(t, http.StatusOK, st, string(body))
		require.NoError(t, json.Unmarshal(body, &history))
		assert.Len(t, history, 1)
	}

	// 7) Recordatorio único: completar dos veces es idempotente
	{
		onceID := createReminder(t, ts.URL, ownerID, base, map[string]any{
			"type":     "grooming",
			"title":    "Baño",
			"due_date": day(1),
		})
		for i := 0; i < 2; i++ {
			st, body := doReq(t, ts.URL, "POST", base+"/reminders/"+onceID+"/complete", ownerID, nil)
			require.Equal(t, http.StatusOK, st, string(body))
		}

		var history []map[string]any
		st, body := doReq(t, ts.URL, "GET", base+"/reminders/"+onceID+"/completions", ownerID, nil)
		require.Equal(t, http.StatusOK, st, string(body))
		require.NoError(t, json.Unmarshal(body, &history))
		assert.Len(t, history, 1)

		st, _ = doReq(t, ts.URL, "POST", base+"/reminders", ownerID, map[string]any{
			"type":         "other",
			"title":        "Bad",
			"due_date":     day(1),
			"frequency":    "once",
			"is_recurring": true,
		})
		assert.Equal(t, http.StatusBadRequest, st)
	}

	// 8) Un vencido baja el score
	createReminder(t, ts.URL, ownerID, base, map[string]any{
		"type":     "checkup",
		"title":    "Control anual",
		"due_date": day(-2),
	})
	stats = getStats(t, ts.URL, ownerID, base)
	assert.Equal(t, 1, stats.OverdueReminders)
	assert.Equal(t, 90, stats.HealthScore)

	var upcoming []map[string]any
	st, body := doReq(t, ts.URL, "GET", base+"/reminders/upcoming", ownerID, nil)
	require.Equal(t, http.StatusOK, st, string(body))
	require.NoError(t, json.Unmarshal(body, &upcoming))
	titles := make([]any, 0, len(upcoming))
	for _, u := range upcoming {
		titles = append(titles, u["title"])
	}
	// El recordatorio de la vacuna entra 14 días antes: va primero.
	assert.ElementsMatch(t, []any{"Rabies booster", "Control anual", "Antiparasitario"}, titles)
	require.Len(t, titles, 3)
	assert.Equal(t, "Rabies booster", titles[0])

	st, _ = doReq(t, ts.URL, "GET", base+"/reminders/upcoming?horizon_days=abc", ownerID, nil)
	assert.Equal(t, http.StatusBadRequest, st)
}

func TestHTTP_OpsEndpoints(t *testing.T) {
	ts := httptest.NewServer(router.NewRouter(router.Options{}))
	defer ts.Close()

	st, _ := doReq(t, ts.URL, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, st)

	st, body := doReq(t, ts.URL, "GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, st)
	assert.Contains(t, string(body), "go_goroutines")
}

type statsResponse struct {
	HealthScore          int `json:"health_score"`
	TotalRecords         int `json:"total_records"`
	VaccinationsUpToDate int `json:"vaccinations_up_to_date"`
	OverdueReminders     int `json:"overdue_reminders"`
}

func getStats(t *testing.T, baseURL, userID, base string) statsResponse {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", base+"/stats", userID, nil)
	require.Equal(t, http.StatusOK, st, string(body))

	var resp statsResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func createPet(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create pet: missing id body=%s", string(body))
	}
	return resp.ID
}

func createReminder(t *testing.T, baseURL, userID, base string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", base+"/reminders", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create reminder, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create reminder: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, userID string, payload any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}
