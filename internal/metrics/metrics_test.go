package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mes/internal/ports/secondary"
)

type stubPublisher struct{ err error }

func (s stubPublisher) Publish(ctx context.Context, event secondary.Event) error { return s.err }

func TestRequestStarted(t *testing.T) {
	m := New()

	done := m.RequestStarted()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpInFlight))
	done("GET", "/api/work-orders/:id", 200)

	assert.Equal(t, float64(0), testutil.ToFloat64(m.httpInFlight))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/work-orders/:id", "200")))
}

func TestCountingPublisher(t *testing.T) {
	m := New()
	ctx := context.Background()
	event := secondary.Event{Type: secondary.EventIssueCreated}

	require.NoError(t, NewCountingPublisher(stubPublisher{}, m).Publish(ctx, event))
	err := NewCountingPublisher(stubPublisher{err: errors.New("broker down")}, m).Publish(ctx, event)
	assert.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.events.WithLabelValues("issue.created", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.events.WithLabelValues("issue.created", "error")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.RecordLogin(false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(string(body), `mes_auth_logins_total{outcome="failure"} 1`))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
