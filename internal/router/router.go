package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mentorlink/mentor-api/internal/handler"
	appointmentHandler "github.com/mentorlink/mentor-api/internal/handler/appointment"
	authHandler "github.com/mentorlink/mentor-api/internal/handler/auth"
	mentorHandler "github.com/mentorlink/mentor-api/internal/handler/mentor"
	"github.com/mentorlink/mentor-api/internal/middleware"
)

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration
	CORSConfig     middleware.CORSConfig
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	authH        *authHandler.Handler
	appointmentH *appointmentHandler.Handler
	mentorH      *mentorHandler.Handler
	healthH      *handler.HealthHandler
	metrics      *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func newRouterMetrics() *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),
	}
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authHandler.Handler,
	appointmentH *appointmentHandler.Handler,
	mentorH *mentorHandler.Handler,
	healthH *handler.HealthHandler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         auth,
		authH:        authH,
		appointmentH: appointmentH,
		mentorH:      mentorH,
		healthH:      healthH,
		metrics:      newRouterMetrics(),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
	)
	if config.RequestTimeout > 0 {
		engine.Use(middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}))
	}
	engine.Use(middleware.CORS(config.CORSConfig))

	if config.RateLimitRPS > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   config.RateLimitRPS,
			Burst: config.RateLimitBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	handler.RegisterValidations()

	r.engine.GET("/health", r.healthH.Health)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	// Public surface: sign-up/sign-in and the mentor marketplace.
	r.authH.RegisterPublicRoutes(api)
	r.mentorH.RegisterPublicRoutes(api)

	// Everything else requires an authenticated principal.
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.authH.RegisterProtectedRoutes(protected)
	r.appointmentH.RegisterRoutes(protected, r.auth)
	r.mentorH.RegisterAdminRoutes(protected, r.auth)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		labels := []string{c.Request.Method, path, strconv.Itoa(status)}
		r.metrics.requestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(labels...).Inc()
	}
}
