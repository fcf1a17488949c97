package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"opensoak/internal/logger"
	"opensoak/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	gatherer prometheus.Gatherer
}

// NewHandler constructs a new HTTP handler with dependencies. A nil gatherer
// leaves /metrics unregistered.
func NewHandler(services *service.Service, log *logger.Logger, gatherer prometheus.Gatherer) *Handler {
	return &Handler{services: services, log: log, gatherer: gatherer}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Live status stream (HTTP upgrade) on the same port.
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.requireOperator)
	{
		h.registerStatusRoutes(api)
		h.registerControlRoutes(api)
		h.registerSettingsRoutes(api)
		h.registerSafetyRoutes(api)
		h.registerScheduleRoutes(api)

		api.GET("/logs", h.getLogs)
		api.GET("/thermal", h.getThermal)
		api.GET("/energy", h.getEnergy)
	}
}

func (h *Handler) registerStatusRoutes(api *gin.RouterGroup) {
	status := api.Group("/status")
	{
		status.GET("", h.getStatus)
		status.GET("/history", h.getHistory)
	}
}

func (h *Handler) registerControlRoutes(api *gin.RouterGroup) {
	control := api.Group("/control")
	{
		// Body example: {"jet_pump":true,"light":false}
		control.POST("", h.updateControl)
		// Body example: {"target_f":104,"duration_minutes":45}
		control.POST("/soak", h.startSoak)
		control.DELETE("/soak", h.cancelSoak)
	}
}

func (h *Handler) registerSettingsRoutes(api *gin.RouterGroup) {
	settings := api.Group("/settings")
	{
		settings.GET("", h.getSettings)
		settings.POST("", h.updateSettings)
	}
}

func (h *Handler) registerSafetyRoutes(api *gin.RouterGroup) {
	safety := api.Group("/safety")
	{
		safety.POST("/reset", h.resetSafety)
		safety.POST("/shutdown", h.masterShutdown)
	}
}

func (h *Handler) registerScheduleRoutes(api *gin.RouterGroup) {
	schedules := api.Group("/schedules")
	{
		schedules.GET("", h.listSchedules)
		schedules.POST("", h.createSchedule)
		schedules.DELETE("/:id", h.deleteSchedule)
	}
}
