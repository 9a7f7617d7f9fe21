package metricsvc

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.Notified("absence", true)
	m.Notified("absence", true)
	m.Notified("absence", false)
	m.Notified("agenda", true)
	m.AbsencesRecorded(3)
	m.AbsencesRecorded(0)
	m.RateLimited("/v1/email/absence-email")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.notifications.WithLabelValues("absence", resultSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("absence", resultFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("agenda", resultSent)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.absences))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited.WithLabelValues("/v1/email/absence-email")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.AbsencesRecorded(2)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "enactus_attendance_absences_recorded_total 2")
}
