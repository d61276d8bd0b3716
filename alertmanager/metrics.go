package alertmanager

import (
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	channelTag, _ = tag.NewKey("channel")
	reasonTag, _  = tag.NewKey("reason")
	pre           = "alerthub_"

	sendBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
)

// AlertMeasures groups the alerter registry and dispatch metrics.
var AlertMeasures = struct {
	PluginsLoaded      *stats.Int64Measure
	PluginLoadFailures *stats.Int64Measure
	DegradedInits      *stats.Int64Measure
	AlertsSent         *stats.Int64Measure
	AlertsFailed       *stats.Int64Measure
	SendDuration       *promclient.HistogramVec
}{
	PluginsLoaded:      stats.Int64(pre+"plugins_loaded", "Alerter plugins loaded successfully.", stats.UnitDimensionless),
	PluginLoadFailures: stats.Int64(pre+"plugin_load_failures", "Alerter plugins skipped because loading failed.", stats.UnitDimensionless),
	DegradedInits:      stats.Int64(pre+"degraded_inits", "Registry initializations that fell back to the degraded state.", stats.UnitDimensionless),
	AlertsSent:         stats.Int64(pre+"alerts_sent", "Alerts delivered to a channel.", stats.UnitDimensionless),
	AlertsFailed:       stats.Int64(pre+"alerts_failed", "Alerts a channel failed to deliver.", stats.UnitDimensionless),
	SendDuration: promclient.NewHistogramVec(promclient.HistogramOpts{
		Name:    pre + "send_duration_seconds",
		Buckets: sendBuckets,
		Help:    "The histogram of alert send durations in seconds, per channel.",
	}, []string{"channel"}),
}

func init() {
	err := view.Register(
		&view.View{
			Measure:     AlertMeasures.PluginsLoaded,
			Aggregation: view.Sum(),
		},
		&view.View{
			Measure:     AlertMeasures.PluginLoadFailures,
			Aggregation: view.Sum(),
			TagKeys:     []tag.Key{reasonTag},
		},
		&view.View{
			Measure:     AlertMeasures.DegradedInits,
			Aggregation: view.Sum(),
		},
		&view.View{
			Measure:     AlertMeasures.AlertsSent,
			Aggregation: view.Sum(),
			TagKeys:     []tag.Key{channelTag},
		},
		&view.View{
			Measure:     AlertMeasures.AlertsFailed,
			Aggregation: view.Sum(),
			TagKeys:     []tag.Key{channelTag},
		},
	)
	if err != nil {
		panic(err)
	}

	err = promclient.Register(AlertMeasures.SendDuration)
	if err != nil {
		panic(err)
	}
}
