package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStatusCheck("error")
		m.ObserveIngestion("accepted")
		m.ObserveCoalesced()
		m.ObservePollTick()
		m.JobStarted()
		m.JobFinished("succeeded", time.Second)
	})
}

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveStatusCheck("processed")
	m.ObserveStatusCheck("pending")
	m.ObserveStatusCheck("pending")
	m.ObserveCoalesced()
	m.JobStarted()
	m.JobStarted()
	m.JobFinished("failed", 2*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusChecks.WithLabelValues("processed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StatusChecks.WithLabelValues("pending")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestionCoalesced))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsTotal.WithLabelValues("failed")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObservePollTick()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "devinsights_poll_ticks_total 1"))
}

func TestRecoverMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	h := ChainMiddleware(panicking, RecoverMiddleware(zerolog.Nop()), LoggingMiddleware(zerolog.Nop()))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChainMiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := ChainMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), tag("first"), tag("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}
