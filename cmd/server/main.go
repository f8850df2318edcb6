package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sol-arena/internal/api"
	"sol-arena/internal/config"
	"sol-arena/internal/game"
	"sol-arena/internal/journal"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	log.Println("🪙 ================================")
	log.Println("🪙  SOL ARENA - GAME SERVER")
	log.Println("🪙 ================================")

	cfg := config.Load()

	log.Printf("🗺️ World: %.0fx%.0f map, %.0f grid cells", cfg.World.MapSize, cfg.World.MapSize, cfg.World.GridCellSize)
	log.Printf("⏱️ Cadence: %d TPS simulation, %d Hz broadcast", cfg.Sim.TickRate, cfg.Sim.BroadcastRate)
	log.Printf("🏊 Pool: %d rooms x %d players", cfg.Pool.Rooms, cfg.Pool.PlayersPerRoom)

	roomCfg := game.RoomConfig{
		MapSize:      cfg.World.MapSize,
		GridCellSize: cfg.World.GridCellSize,
		TickRate:     cfg.Sim.TickRate,
		PerfSample:   cfg.Sim.PerfSample,
		MaxPlayers:   cfg.Pool.PlayersPerRoom,

		FoodBasePerZone:   cfg.Food.BasePerZone,
		FoodPerPlayerMult: int(cfg.Food.PerPlayerMultiplier),
		FoodMaxPerZone:    cfg.Food.MaxPerZone,
		FoodMaxTotal:      cfg.Food.MaxTotal,
		FoodMinMass:       cfg.Food.MinMass,
		FoodMaxMass:       cfg.Food.MaxMass,
		FoodSpawnMargin:   cfg.Food.SpawnMargin,
	}

	sink := game.NewEventSink(1024)

	pool := game.NewPool(game.PoolConfig{
		Rooms:         cfg.Pool.Rooms,
		RoomConfig:    roomCfg,
		IdleRecycle:   cfg.Pool.IdleRecycle,
		StatsInterval: cfg.Pool.StatsInterval,
	}, sink)

	// Settlement journal is optional. Without it settlement events are
	// still emitted but only consumed by the log drain below.
	var jnl *journal.Journal
	if cfg.Server.JournalPath != "" {
		j, err := journal.Open(cfg.Server.JournalPath)
		if err != nil {
			log.Fatalf("❌ Failed to open settlement journal: %v", err)
		}
		jnl = j
		jnl.Consume(sink.Events())
		log.Printf("📝 Settlement journal: %s", cfg.Server.JournalPath)
	} else {
		log.Println("⚠️ Settlement journal disabled, events will be logged only")
		go func() {
			for ev := range sink.Events() {
				log.Printf("🧾 settlement %s room=%d eater=%s eaten=%s lamports=%d",
					ev.Type, ev.RoomID, ev.Eater, ev.Eaten, ev.Lamports)
			}
		}()
	}

	server := api.NewServer(api.ServerConfig{
		Pool:            pool,
		Journal:         jnl,
		BroadcastRate:   cfg.Sim.BroadcastRate,
		MaxConnsTotal:   cfg.Server.MaxConnsTotal,
		MaxConnsPerIP:   cfg.Server.MaxConnsPerIP,
		InputsPerSecond: cfg.Server.InputsPerSecond,
		InputBurst:      cfg.Server.InputBurst,
		CORSOrigins:     corsOriginsFromEnv(),
	})

	pool.Start()
	log.Println("✅ Room pool started")

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := server.Start(addr); isFatalServeErr(err) {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
	pool.Stop()
	if jnl != nil {
		if err := jnl.Close(); err != nil {
			log.Printf("⚠️ Journal close: %v", err)
		}
	}
	log.Println("👋 Goodbye!")
}

// isFatalServeErr filters the ErrServerClosed a graceful Shutdown produces,
// so the shutdown path below still gets to drain the pool and the journal.
func isFatalServeErr(err error) bool {
	return err != nil && !errors.Is(err, http.ErrServerClosed)
}

func corsOriginsFromEnv() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
