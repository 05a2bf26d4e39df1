// Package server wires stores, services and HTTP routes into one gin engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinicbook/internal/config"
	"clinicbook/internal/domain/availability"
	"clinicbook/internal/domain/booking"
	"clinicbook/internal/domain/catalog"
	"clinicbook/internal/middleware"
	"clinicbook/internal/observability/metrics"
	"clinicbook/internal/pkg/jwt"
	"clinicbook/internal/pkg/response"
	"clinicbook/internal/realtime"
)

type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Log    *zap.Logger
	// Redis is used for LOCK_BACKEND=redis; built from config when nil.
	Redis redis.UniversalClient
	// Clock defaults to the system clock.
	Clock booking.Clock
}

type Server struct {
	Engine   *gin.Engine
	Bookings *booking.Service
	Slots    *availability.Service
	Hub      *realtime.Hub
	JWT      *jwt.Service
	Registry *prometheus.Registry

	ownedRedis redis.UniversalClient
}

func New(d Deps) (*Server, error) {
	cfg := d.Config
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(reg)

	rdb, owned := d.Redis, redis.UniversalClient(nil)
	if cfg.LockBackend == config.LockRedis && rdb == nil {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		owned = rdb
	}
	locker, err := NewLocker(cfg, rdb)
	if err != nil {
		return nil, err
	}

	catalogRepo := catalog.NewRepository(d.DB)
	ruleRepo := availability.NewRuleRepository(d.DB)
	bookingRepo := booking.NewRepository(d.DB)

	slots := availability.NewService(availability.NewResolver(ruleRepo), bookingRepo, catalogRepo, log.Named("availability"))

	hub := realtime.NewHub(log.Named("realtime"))
	sink := booking.MultiSink{booking.NewLogSink(log.Named("events")), hub}

	opts := booking.DefaultOptions()
	opts.Location = cfg.Location()
	opts.ReminderLead = cfg.ReminderLead
	opts.PublicPolicy.EnforceAvailability = cfg.PublicEnforceAvailability
	opts.StaffPolicy.EnforceAvailability = cfg.StaffEnforceAvailability
	opts.Metrics = bookingMetrics
	if d.Clock != nil {
		opts.Clock = d.Clock
	}
	bookings := booking.NewService(bookingRepo, catalogRepo, slots, locker, sink, opts, log.Named("booking"))

	jwtService := jwt.New(cfg.JWTSecret, cfg.JWTTTL)

	r := gin.New()
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(middleware.CORS(cfg.WSAllowedOrigins))

	r.GET("/health", health(d.DB))
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	bookingHandler := booking.NewHandler(bookings)
	slotHandler := availability.NewHandler(slots, ruleRepo, catalogRepo, bookingMetrics)
	catalogHandler := catalog.NewHandler(catalogRepo)

	v1 := r.Group("/api/v1")
	{
		public := v1.Group("")
		public.Use(middleware.OptionalAuth(jwtService))
		slotHandler.RegisterRoutes(public)
		catalogHandler.RegisterRoutes(public)
		bookingHandler.RegisterPublicRoutes(public)

		staff := v1.Group("")
		staff.Use(middleware.JWTAuth(jwtService), middleware.RequireStaff())
		bookingHandler.RegisterStaffRoutes(staff)
		slotHandler.RegisterStaffRoutes(staff)
		catalogHandler.RegisterStaffRoutes(staff)
	}
	realtime.NewHandler(hub, jwtService, cfg.WSAllowedOrigins, log.Named("ws")).RegisterRoutes(r)

	return &Server{
		Engine:     r,
		Bookings:   bookings,
		Slots:      slots,
		Hub:        hub,
		JWT:        jwtService,
		Registry:   reg,
		ownedRedis: owned,
	}, nil
}

// NewLocker picks the reservation lock for the configured backend.
func NewLocker(cfg *config.Config, rdb redis.UniversalClient) (booking.Locker, error) {
	switch cfg.LockBackend {
	case config.LockMemory:
		return booking.NewMemoryLocker(cfg.LockWait), nil
	case config.LockRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis lock backend needs a redis client")
		}
		return booking.NewRedisLocker(rdb, booking.RedisLockerConfig{TTL: cfg.LockTTL, Wait: cfg.LockWait}), nil
	case config.LockNone:
		return booking.NoopLocker{}, nil
	}
	return nil, fmt.Errorf("unknown lock backend %q", cfg.LockBackend)
}

// Close releases clients the server opened itself.
func (s *Server) Close() error {
	if s.ownedRedis != nil {
		return s.ownedRedis.Close()
	}
	return nil
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database is unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
