package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captainbotgit/mission-control/internal/models"
)

func TestListCronJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cron/list", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"jobs":[
			{"id":"digest","name":"Daily Digest","schedule":{"kind":"cron","expr":"0 9 * * *"},"sessionTarget":"isolated","enabled":false},
			{"id":"hb","name":"Heartbeat","schedule":{"kind":"every","everyMs":1800000},"lastRun":"2026-10-18T08:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", time.Second)
	jobs, err := c.ListCronJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, models.ScheduleCron, jobs[0].Schedule.Kind)
	assert.False(t, jobs[0].Enabled)
	assert.Equal(t, "isolated", jobs[0].SessionTarget)

	assert.True(t, jobs[1].Enabled, "enabled defaults to true")
	assert.Equal(t, "main", jobs[1].SessionTarget)
	assert.Equal(t, int64(1800000), jobs[1].Schedule.EveryMs)
	require.NotNil(t, jobs[1].LastRun)
	assert.Equal(t, 8, jobs[1].LastRun.Hour())
	assert.Nil(t, jobs[1].NextRun)
}

func TestListCronJobsErrors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		_, err := NewClient("http://localhost:4440", "", time.Second).ListCronJobs(context.Background())
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "secret", time.Second).ListCronJobs(context.Background())
		assert.ErrorContains(t, err, "401")
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL, "secret", 50*time.Millisecond).ListCronJobs(context.Background())
		assert.Error(t, err)
	})
}
