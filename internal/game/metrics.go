package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality: rooms are a fixed small pool, so a room
// label is safe; never label by player.
var (
	metricTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arena_tick_duration_seconds",
		Help:    "Time spent in one room simulation tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.0166, 0.05, 0.1},
	})

	metricPlayersPerRoom = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_room_players",
		Help: "Live players in a room",
	}, []string{"room"})

	metricFoodPerRoom = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_room_food",
		Help: "Food pellets in a room",
	}, []string{"room"})

	metricRoomValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_room_value_lamports",
		Help: "Total economic value held by a room's players",
	}, []string{"room"})

	metricPlayersEaten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_players_eaten_total",
		Help: "Player-eats-player events across all rooms",
	})

	metricFoodEaten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_food_eaten_total",
		Help: "Food pellets consumed across all rooms",
	})

	metricCashOuts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_cash_outs_total",
		Help: "Voluntary cash-outs across all rooms",
	})

	metricSettlementDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_settlement_dropped_total",
		Help: "Settlement events dropped on a full sink buffer",
	})

	metricRoomRecycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_room_recycles_total",
		Help: "Idle rooms stopped and recreated by the pool",
	})
)
