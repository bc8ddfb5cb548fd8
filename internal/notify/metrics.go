package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	smsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_sms_sent_total",
		Help: "Absence messages accepted by the SMS provider.",
	})
	smsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_sms_failed_total",
		Help: "Absence messages that were not sent, by reason.",
	}, []string{"reason"})
	lookupGaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_sms_lookup_gaps_total",
		Help: "Unjustified absences skipped because no guardian phone was on file.",
	})
)
