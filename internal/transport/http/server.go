package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderelay/internal/assist"
	"github.com/vovakirdan/coderelay/internal/config"
	"github.com/vovakirdan/coderelay/internal/metrics"
)

// StatsProvider reports live room and connection counts.
type StatsProvider interface {
	Stats() (rooms, clients int)
}

// Deps are the collaborators served over HTTP.
type Deps struct {
	Stats    StatsProvider
	WS       stdhttp.Handler
	Assist   *assist.Service
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Rooms   int `json:"rooms"`
	Clients int `json:"clients"`
}

// NewServer builds an HTTP server with the relay routes.
func NewServer(deps Deps, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(MetricsMiddleware(deps.Metrics))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/health", healthHandler)
	router.GET("/stats", statsHandler(deps.Stats))

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	assistHandlers := NewAssistHandlers(deps.Assist, logger)
	router.POST("/gemini", assistHandlers.Generate)

	router.NoRoute(staticHandler(cfg.StaticDir))

	// The websocket upgrade hijacks the connection after writing 101, which
	// gin's response writer refuses, so /ws is served next to the router.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", deps.WS)
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

func statsHandler(stats StatsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms, clients := stats.Stats()
		c.JSON(stdhttp.StatusOK, StatsResponse{Rooms: rooms, Clients: clients})
	}
}
