package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BackendCall("openai", "gpt", time.Second, 10, nil)
		m.Candidates(StageParsed, 3)
		m.Attempt("match")
		m.Unit(UnitDone)
		m.UnitStarted()()
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()

	m.BackendCall("openai", "gpt-4o", 2*time.Second, 120, nil)
	m.BackendCall("openai", "gpt-4o", time.Second, 0, errors.New("boom"))
	m.Candidates(StageParsed, 5)
	m.Candidates(StagePersisted, 2)
	m.Candidates(StageDropped, 0)
	m.Attempt("match")
	m.Attempt("mismatch")
	m.Attempt("mismatch")
	m.Unit(UnitFailed)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("openai", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("openai", "error")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.backendTokens.WithLabelValues("gpt-4o")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.candidates.WithLabelValues(StageParsed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.candidates.WithLabelValues(StagePersisted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.units.WithLabelValues(UnitFailed)))
}

func TestUnitsInFlight(t *testing.T) {
	m := New()
	done1 := m.UnitStarted()
	done2 := m.UnitStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.unitsInFlight))
	done1()
	done2()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.unitsInFlight))
}

func TestHandler(t *testing.T) {
	m := New()
	m.Unit(UnitDone)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `qforge_units_total{outcome="done"} 1`))
}
