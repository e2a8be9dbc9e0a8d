package extmem

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	heldBytes   prometheus.GaugeFunc
	attachments *prometheus.CounterVec // by attach mode
	releases    *prometheus.CounterVec // by release path
	copiedBytes prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, acct *Accountant) *metrics {
	return &metrics{
		heldBytes: promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "extmem",
			Name:      "held_bytes",
			Help:      "Externally held bytes currently attached to containers.",
		}, func() float64 {
			return float64(acct.CurrentTotal())
		}),
		attachments: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "extmem",
			Name:      "attachments_total",
			Help:      "Attachments created, by mode.",
		}, []string{"mode"}),
		releases: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "extmem",
			Name:      "releases_total",
			Help:      "Attachment releases, by path.",
		}, []string{"path"}),
		copiedBytes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "extmem",
			Name:      "copied_bytes_total",
			Help:      "Bytes moved by bulk copies.",
		}),
	}
}
