// Package service_traffic classifies cluster load from room-creation rate
// and a sampled count of active rooms, and gates room creation when load
// turns critical. Counters live in the shared store so every process sees
// the same picture.
package service_traffic

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis"
	"github.com/partydeck/core/internal/model"
)

const keyPrefix = "traffic:room_creation:"

// CodeScanner samples active rooms with the same bounded incremental scan
// the sweeps use.
type CodeScanner interface {
	ScanCodes(ctx context.Context, cursor uint64, count int64) ([]string, uint64, error)
}

// ConnectionCounter reports open realtime connections on this process.
type ConnectionCounter interface {
	ConnectionCount() int
}

// Broadcaster fans a status event out to every connected client.
type Broadcaster interface {
	ToAll(event string, payload any)
}

type Config struct {
	Window              time.Duration
	MaxPerWindow        int
	HighPerWindow       int
	HighActiveRooms     int
	CriticalActiveRooms int
	SampleLimit         int
	Interval            time.Duration
}

type Monitor struct {
	client      *redis.Client
	scanner     CodeScanner
	connections ConnectionCounter
	broadcaster Broadcaster
	cfg         Config
	logger      *slog.Logger

	mu    sync.RWMutex
	level model.TrafficLevel
}

func New(client *redis.Client, scanner CodeScanner, connections ConnectionCounter, broadcaster Broadcaster, cfg Config) *Monitor {
	return &Monitor{
		client:      client,
		scanner:     scanner,
		connections: connections,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      slog.Default(),
		level:       model.TrafficNormal,
	}
}

func (m *Monitor) windowKey(now time.Time) string {
	window := now.Unix() / int64(m.cfg.Window/time.Second)
	return keyPrefix + strconv.FormatInt(window, 10)
}

// RoomCreationAllowed counts one creation attempt against the current
// window and reports whether creation is open. Denied when the window
// budget is spent, when load is classified critical, or when the store
// cannot answer (failing closed so the gate cannot be starved away).
func (m *Monitor) RoomCreationAllowed(ctx context.Context) (bool, string) {
	if m.CurrentLevel() == model.TrafficCritical {
		return false, "Server is at capacity. Please try again later."
	}

	key := m.windowKey(time.Now())
	count, err := m.client.Incr(key).Result()
	if err != nil {
		m.logger.Error("traffic counter failed, denying room creation", "error", err)
		return false, "High traffic detected. Please try again in a moment."
	}
	if count == 1 {
		// small buffer past the window so a late read still sees it
		if err := m.client.Expire(key, m.cfg.Window+10*time.Second).Err(); err != nil {
			m.logger.Error("traffic counter expire failed", "error", err)
		}
	}
	if count > int64(m.cfg.MaxPerWindow) {
		return false, "High traffic detected. Please try again in a moment."
	}
	return true, ""
}

// Snapshot builds the current traffic status: creations in the rolling
// window plus a sampled active-room count, classified against thresholds.
func (m *Monitor) Snapshot(ctx context.Context) model.TrafficStatus {
	creations := m.windowCount()
	rooms := m.sampleActiveRooms(ctx)

	level := m.classify(creations, rooms)
	m.setLevel(level)

	status := model.TrafficStatus{
		Level:               level,
		ActiveRooms:         rooms,
		RoomCreationEnabled: level != model.TrafficCritical,
		Timestamp:           time.Now().UnixMilli(),
	}
	if m.connections != nil {
		status.ActiveConnections = m.connections.ConnectionCount()
	}
	switch level {
	case model.TrafficHigh:
		status.Message = "Traffic is elevated; room creation may slow down."
	case model.TrafficCritical:
		status.Message = "Server is at capacity. Room creation is temporarily disabled."
	}
	return status
}

// Run re-evaluates load periodically and broadcasts the status cluster-wide
// while it is non-normal. Normal load stays quiet.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := m.Snapshot(ctx)
			if status.Level != model.TrafficNormal {
				m.broadcaster.ToAll("traffic_status", status)
			}
		}
	}
}

func (m *Monitor) CurrentLevel() model.TrafficLevel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.level
}

func (m *Monitor) setLevel(level model.TrafficLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = level
}

func (m *Monitor) windowCount() int {
	val, err := m.client.Get(m.windowKey(time.Now())).Result()
	if err == redis.Nil {
		return 0
	}
	if err != nil {
		m.logger.Error("failed to read traffic counter", "error", err)
		return 0
	}
	count, _ := strconv.Atoi(val)
	return count
}

// sampleActiveRooms counts room keys up to the configured cap so the cost
// stays bounded no matter how many rooms exist.
func (m *Monitor) sampleActiveRooms(ctx context.Context) int {
	var (
		cursor uint64
		total  int
	)
	for {
		codes, next, err := m.scanner.ScanCodes(ctx, cursor, 100)
		if err != nil {
			m.logger.Error("active room sampling failed", "error", err)
			return total
		}
		total += len(codes)
		cursor = next
		if cursor == 0 || total >= m.cfg.SampleLimit {
			return total
		}
	}
}

func (m *Monitor) classify(creations, rooms int) model.TrafficLevel {
	switch {
	case creations >= m.cfg.MaxPerWindow || rooms >= m.cfg.CriticalActiveRooms:
		return model.TrafficCritical
	case creations >= m.cfg.HighPerWindow || rooms >= m.cfg.HighActiveRooms:
		return model.TrafficHigh
	default:
		return model.TrafficNormal
	}
}
