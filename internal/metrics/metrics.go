package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Token collects counters for the token lifecycle. A nil *Token is valid and
// records nothing.
type Token struct {
	issued         *prometheus.CounterVec
	redemptions    *prometheus.CounterVec
	notifyFailures *prometheus.CounterVec
	swept          prometheus.Counter
}

func NewToken() *Token {
	return &Token{
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tokens_issued_total",
			Help: "Single-use tokens persisted, by purpose",
		}, []string{"purpose"}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "token_redemptions_total",
			Help: "Redemption attempts by purpose and result",
		}, []string{"purpose", "result"}),
		notifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "token_notify_failures_total",
			Help: "Token emails that could not be delivered",
		}, []string{"purpose"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tokens_swept_total",
			Help: "Expired or consumed tokens deleted by the sweeper",
		}),
	}
}

// Register adds the collectors to reg (or the default registerer when nil).
func (m *Token) Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{m.issued, m.redemptions, m.notifyFailures, m.swept} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	return nil
}

func (m *Token) Issued(purpose string) {
	if m == nil {
		return
	}
	m.issued.WithLabelValues(purpose).Inc()
}

func (m *Token) Redeemed(purpose string, result string) {
	if m == nil {
		return
	}
	m.redemptions.WithLabelValues(purpose, result).Inc()
}

func (m *Token) NotifyFailed(purpose string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(purpose).Inc()
}

func (m *Token) Swept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.swept.Add(float64(n))
}
