package app

import (
	"context"

	"github.com/partydeck/core/internal/config"
	http_health "github.com/partydeck/core/internal/delivery/http/health"
	http_init "github.com/partydeck/core/internal/delivery/http/init"
	http_pack "github.com/partydeck/core/internal/delivery/http/pack"
	http_traffic "github.com/partydeck/core/internal/delivery/http/traffic"
	ws_session "github.com/partydeck/core/internal/delivery/ws/session"
	infra_pg_init "github.com/partydeck/core/internal/infra/postgres/init"
	infra_postgres_pack "github.com/partydeck/core/internal/infra/postgres/pack"
	infra_redis_init "github.com/partydeck/core/internal/infra/redis/init"
	infra_redis_presence "github.com/partydeck/core/internal/infra/redis/presence"
	infra_redis_ratelimit "github.com/partydeck/core/internal/infra/redis/ratelimit"
	infra_redis_room "github.com/partydeck/core/internal/infra/redis/room"
	service_sweeper "github.com/partydeck/core/internal/service/sweeper"
	service_traffic "github.com/partydeck/core/internal/service/traffic"
	storage_room "github.com/partydeck/core/internal/storage/room"
	usecase_session "github.com/partydeck/core/internal/usecase/session"
)

func Go(cfg *config.Config) {
	ctx := context.Background()

	redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
	pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)

	roomStore := infra_redis_room.New(redisConn, cfg.Game.RoomTTL, cfg.Game.ReserveTTL)
	roomStorage := storage_room.New(roomStore)
	presence := infra_redis_presence.New(redisConn, cfg.Game.LeaseTTL)
	limiter := infra_redis_ratelimit.New(redisConn, cfg.Game.RateLimitWindow, cfg.Game.RateLimitMax)
	packRepo := infra_postgres_pack.New(pgConn)

	hub := ws_session.NewHub()

	monitor := service_traffic.New(redisConn, roomStorage, hub, hub, service_traffic.Config{
		Window:              cfg.Game.TrafficWindow,
		MaxPerWindow:        cfg.Game.TrafficMaxPerWindow,
		HighPerWindow:       cfg.Game.TrafficHighWindow,
		HighActiveRooms:     cfg.Game.TrafficHighRooms,
		CriticalActiveRooms: cfg.Game.TrafficCritRooms,
		SampleLimit:         cfg.Game.TrafficSampleLimit,
		Interval:            cfg.Game.TrafficInterval,
	})

	sessions := usecase_session.New(
		roomStorage,
		presence,
		packRepo,
		limiter,
		monitor,
		hub,
		hub,
	)

	sweeper := service_sweeper.New(
		roomStorage,
		sessions,
		hub,
		cfg.Game.SweepInterval,
		cfg.Game.ReclaimInterval,
		int64(cfg.Game.SweepBatch),
	)

	go hub.Run()
	go monitor.Run(ctx)
	go sweeper.Run(ctx)

	controllerPool := http_init.NewControllerPool(cfg.HTTP.GinMode)
	controllerPool.Add(ws_session.NewController(hub, sessions))
	controllerPool.Add(http_pack.New(packRepo))
	controllerPool.Add(http_traffic.New(monitor))
	controllerPool.Add(http_health.New(
		http_health.PingFunc(func() error { return redisConn.Ping().Err() }),
		http_health.PingFunc(pgConn.Ping),
	))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}
