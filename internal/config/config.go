// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all simulation and server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"time"
)

// =============================================================================
// WORLD & ZONE CONFIGURATION
// =============================================================================

// WorldConfig holds map geometry settings shared by every room.
type WorldConfig struct {
	MapSize      float64 // Square map edge length in world units
	ZoneSize     float64 // Each zone is a ZoneSize x ZoneSize quadrant
	GridCellSize float64 // Spatial index cell size
}

// DefaultWorld returns the default world configuration.
// Four 5000x5000 zones tile the 10000x10000 map.
func DefaultWorld() WorldConfig {
	return WorldConfig{
		MapSize:      10000,
		ZoneSize:     5000,
		GridCellSize: 500,
	}
}

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds tick and replication cadence settings.
type SimConfig struct {
	TickRate      int // Simulation ticks per second
	BroadcastRate int // State replication pushes per second (decoupled, slower)
	PerfSample    int // Record tick timing stats every N ticks
}

// DefaultSim returns the default simulation cadence.
func DefaultSim() SimConfig {
	return SimConfig{
		TickRate:      60,
		BroadcastRate: 20,
		PerfSample:    60,
	}
}

// SimFromEnv returns simulation configuration with environment overrides.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if br := getEnvInt("BROADCAST_RATE", 0); br > 0 {
		cfg.BroadcastRate = br
	}
	return cfg
}

// =============================================================================
// FOOD CONFIGURATION
// =============================================================================

// FoodConfig controls food population scaling.
// Target per zone = BasePerZone + log2(alivePlayers+1)*PerPlayerMultiplier,
// capped at MaxPerZone per zone and MaxTotal per room.
type FoodConfig struct {
	BasePerZone         int
	PerPlayerMultiplier float64
	MaxPerZone          int
	MaxTotal            int
	MinMass             float64 // Spawn mass lower bound (inclusive)
	MaxMass             float64 // Spawn mass upper bound (exclusive)
	SpawnMargin         float64 // Inset from zone edges for random spawns
}

// DefaultFood returns the default food scaling configuration.
func DefaultFood() FoodConfig {
	return FoodConfig{
		BasePerZone:         300,
		PerPlayerMultiplier: 50,
		MaxPerZone:          1000,
		MaxTotal:            4000,
		MinMass:             10,
		MaxMass:             25,
		SpawnMargin:         100,
	}
}

// =============================================================================
// ROOM POOL CONFIGURATION
// =============================================================================

// PoolConfig controls the fixed room pool.
type PoolConfig struct {
	Rooms          int           // Fixed number of independently ticking rooms
	PlayersPerRoom int           // Hard capacity per room
	IdleRecycle    time.Duration // Zero-player rooms older than this are recreated
	StatsInterval  time.Duration // Cross-room stats refresh cadence
}

// DefaultPool returns the default pool configuration.
func DefaultPool() PoolConfig {
	return PoolConfig{
		Rooms:          20,
		PlayersPerRoom: 50,
		IdleRecycle:    30 * time.Minute,
		StatsInterval:  time.Minute,
	}
}

// PoolFromEnv returns pool configuration with environment overrides.
func PoolFromEnv() PoolConfig {
	cfg := DefaultPool()

	if n := getEnvInt("POOL_ROOMS", 0); n > 0 {
		cfg.Rooms = n
	}
	if n := getEnvInt("ROOM_CAPACITY", 0); n > 0 {
		cfg.PlayersPerRoom = n
	}
	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds the HTTP/WebSocket lifecycle surface settings.
type ServerConfig struct {
	Port            int
	JournalPath     string // SQLite settlement journal ("" disables)
	MaxConnsTotal   int    // Hard cap on WebSocket connections
	MaxConnsPerIP   int
	InputsPerSecond float64 // Per-player input rate limit
	InputBurst      int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:            3000,
		JournalPath:     "settlement.db",
		MaxConnsTotal:   1000,
		MaxConnsPerIP:   10,
		InputsPerSecond: 60,
		InputBurst:      120,
	}
}

// ServerFromEnv returns server configuration with environment overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if jp := os.Getenv("JOURNAL_PATH"); jp != "" {
		cfg.JournalPath = jp
	}
	if os.Getenv("JOURNAL_DISABLED") == "true" {
		cfg.JournalPath = ""
	}
	if n := getEnvInt("MAX_CONNECTIONS", 0); n > 0 {
		cfg.MaxConnsTotal = n
	}
	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	World  WorldConfig
	Sim    SimConfig
	Food   FoodConfig
	Pool   PoolConfig
	Server ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		World:  DefaultWorld(),
		Sim:    SimFromEnv(),
		Food:   DefaultFood(),
		Pool:   PoolFromEnv(),
		Server: ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
