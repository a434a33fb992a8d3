package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Version, Commit, BuildDate string
)

var (
	BuildInfo = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "munin_plugin_build_info",
		Help: "Munin plugin build information",
		ConstLabels: map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_date": BuildDate,
		},
	})
)
