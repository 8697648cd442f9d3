package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host    string
	Port    string
	GinMode string
}

type RedisCache struct {
	Host     string
	Port     string
	Password string
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Game holds the session lifecycle tunables: TTLs, sweep cadence and
// admission thresholds.
type Game struct {
	RoomTTL    time.Duration
	ReserveTTL time.Duration
	LeaseTTL   time.Duration

	SweepInterval   time.Duration
	ReclaimInterval time.Duration
	SweepBatch      int

	RateLimitWindow time.Duration
	RateLimitMax    int

	TrafficWindow       time.Duration
	TrafficMaxPerWindow int
	TrafficHighWindow   int
	TrafficHighRooms    int
	TrafficCritRooms    int
	TrafficSampleLimit  int
	TrafficInterval     time.Duration
}

type Config struct {
	HTTP     HTTPServer
	Redis    RedisCache
	Postgres Postgres
	Game     Game
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := &Config{
		HTTP:     *newHTTP(),
		Redis:    *newRedis(),
		Postgres: *newPostgres(),
		Game:     *newGame(),
	}

	log.Printf("%s backend config : %+v\n", logtag, cfg)
	return cfg
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port:    getenv("HTTP_PORT", "8080"),
		Host:    getenv("HTTP_HOST", "localhost"),
		GinMode: getenv("GIN_MODE", "release"),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "redis"),
		Password: getenv("REDIS_PASSWORD", "shared"),
	}
}

func newPostgres() *Postgres {
	return &Postgres{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "admin"),
		Password: getenv("DB_PASSWORD", "shared"),
		DBName:   getenv("DB_NAME", "partydeck"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
	}
}

func newGame() *Game {
	return &Game{
		RoomTTL:    getenvDuration("ROOM_TTL", 30*time.Minute),
		ReserveTTL: getenvDuration("ROOM_RESERVE_TTL", 30*time.Second),
		LeaseTTL:   getenvDuration("PLAYER_LEASE_TTL", 15*time.Second),

		SweepInterval:   getenvDuration("SWEEP_INTERVAL", 20*time.Second),
		ReclaimInterval: getenvDuration("RECLAIM_INTERVAL", 10*time.Second),
		SweepBatch:      getenvInt("SWEEP_BATCH", 100),

		RateLimitWindow: getenvDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMax:    getenvInt("RATE_LIMIT_MAX", 10),

		TrafficWindow:       getenvDuration("TRAFFIC_WINDOW", time.Minute),
		TrafficMaxPerWindow: getenvInt("TRAFFIC_MAX_PER_WINDOW", 100),
		TrafficHighWindow:   getenvInt("TRAFFIC_HIGH_PER_WINDOW", 60),
		TrafficHighRooms:    getenvInt("TRAFFIC_HIGH_ROOMS", 500),
		TrafficCritRooms:    getenvInt("TRAFFIC_CRIT_ROOMS", 1000),
		TrafficSampleLimit:  getenvInt("TRAFFIC_SAMPLE_LIMIT", 2000),
		TrafficInterval:     getenvDuration("TRAFFIC_INTERVAL", 15*time.Second),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	fmt.Printf("%s %s = %s\n", logtag, key, val)
	return val
}

func getenvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("%s %s is not an integer, using default %d", logtag, key, defaultValue)
		return defaultValue
	}
	return n
}

func getenvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("%s %s is not a duration, using default %s", logtag, key, defaultValue)
		return defaultValue
	}
	return d
}
