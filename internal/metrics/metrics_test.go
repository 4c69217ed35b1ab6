package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersHTTPCollectors(t *testing.T) {
	m := New("console")

	m.RequestCounter.WithLabelValues("GET", "/api/notifications", "200").Inc()
	m.RequestCounter.WithLabelValues("GET", "/api/notifications", "200").Inc()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/api/notifications", "200")))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["console_http_requests_total"])
	assert.True(t, names["go_goroutines"])
}
