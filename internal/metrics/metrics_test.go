package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestReject(t *testing.T) {
	m := New()

	m.Reject(ReasonMissingToken)
	m.Reject(ReasonMissingToken)
	m.Reject(ReasonForbidden)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthRejections.WithLabelValues(ReasonMissingToken)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthRejections.WithLabelValues(ReasonForbidden)))
}

func TestReject_NilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.Reject(ReasonNotOwner) })
}

func TestHandler(t *testing.T) {
	m := New()
	m.TokensIssued.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bookcatalog_tokens_issued_total 1")
}
