package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfoOnce sync.Once

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Pennywise API build information.",
		},
		[]string{"version"},
	)
)

func registerBuildInfo() {
	buildInfoOnce.Do(func() {
		prometheus.MustRegister(buildInfo)
	})
}

// SetBuildInfo publishes build_info{version="..."} 1.
func SetBuildInfo(version string) {
	registerBuildInfo()
	buildInfo.WithLabelValues(version).Set(1)
}
