package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters incremented by PaperService.
type Metrics struct {
	downloads prometheus.Counter
	uploads   *prometheus.CounterVec
}

// NewMetrics creates the paper counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		downloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paper_downloads_total",
			Help: "Total number of paper downloads served.",
		}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paper_uploads_total",
			Help: "Total number of paper uploads by result.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{m.downloads, m.uploads} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) download() {
	if m != nil {
		m.downloads.Inc()
	}
}

func (m *Metrics) upload(result string) {
	if m != nil {
		m.uploads.WithLabelValues(result).Inc()
	}
}
