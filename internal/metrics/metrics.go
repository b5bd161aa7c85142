package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nunc_posts_created_total",
		Help: "Posts accepted by the ledger.",
	})

	PostRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nunc_post_rejections_total",
		Help: "Posts rejected by validation, by reason.",
	}, []string{"reason"})

	Boosts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nunc_boosts_total",
		Help: "Sum of boost deltas applied to live posts.",
	})

	PostsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nunc_posts_expired_total",
		Help: "Expired posts removed by the sweeper.",
	})

	livePosts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nunc_live_posts",
		Help: "Live posts at the last collection.",
	})

	liveBoosts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nunc_live_boosts",
		Help: "Boosts held by live posts at the last collection.",
	})
)
