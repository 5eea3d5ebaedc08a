package main

import (
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	buzzerClicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jeopardy_buzzer_clicks_total",
		Help: "Buzzer click submissions, partitioned by outcome.",
	}, []string{"result"})

	buzzerResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "jeopardy_buzzer_resets_total",
		Help: "Buzzer round resets.",
	})
)

const (
	resultAdmitted  = "admitted"
	resultDuplicate = "duplicate"
	resultInvalid   = "invalid"
)

func registerMetrics(cfg *Config, mux *httprouter.Router) {
	mux.Handler("GET", cfg.prefix+"/metrics", promhttp.Handler())
}
