package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safecity_ws_messages_delivered_total",
		Help: "Messages pushed to an online recipient connection.",
	})
	deliveryMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safecity_ws_delivery_misses_total",
		Help: "Deliveries skipped because the recipient was offline or backed up.",
	})
	presenceBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safecity_ws_presence_broadcasts_total",
		Help: "Full presence snapshot fan-outs.",
	})
)
