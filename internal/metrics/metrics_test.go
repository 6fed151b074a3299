package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewToken()
	require.NoError(t, m.Register(reg))
	require.NoError(t, m.Register(reg), "registering twice is tolerated")

	m.Issued("email_verify")
	m.Issued("email_verify")
	m.Redeemed("password_reset", "success")
	m.NotifyFailed("email_verify")
	m.Swept(3)
	m.Swept(-1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.issued.WithLabelValues("email_verify")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.redemptions.WithLabelValues("password_reset", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifyFailures.WithLabelValues("email_verify")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.swept))
}

func TestNilTokenMetricsIsNoop(t *testing.T) {
	var m *Token
	assert.NotPanics(t, func() {
		m.Issued("email_verify")
		m.Redeemed("email_verify", "success")
		m.NotifyFailed("email_verify")
		m.Swept(1)
	})
}
