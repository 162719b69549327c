package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/banrai-farm/duriantrack/backend/internal/auth"
	"github.com/banrai-farm/duriantrack/backend/internal/farm"
	"github.com/banrai-farm/duriantrack/backend/internal/photos"
	"github.com/banrai-farm/duriantrack/backend/internal/yield"
)

const subjectContextKey = "duriantrack_subject"

var (
	errMissingFarmService   = errors.New("farm service dependency required")
	errMissingTokenIssuer   = errors.New("token issuer dependency required")
	errMissingExtractor     = errors.New("yield extractor dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// Dependencies wires the HTTP layer to the application services.
type Dependencies struct {
	FarmService *farm.Service
	Tokens      *auth.TokenIssuer
	Extractor   *yield.Extractor
	Cache       *yield.AnalyticsCache
	Photos      *photos.Store
	Events      *EventDispatcher
	Clock       func() time.Time
	Logger      *zap.Logger
}

// NewHTTPHandler builds the gin router for the API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.FarmService == nil {
		return nil, errMissingFarmService
	}
	if deps.Tokens == nil {
		return nil, errMissingTokenIssuer
	}
	if deps.Extractor == nil {
		return nil, errMissingExtractor
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	events := deps.Events
	if events == nil {
		events = NewEventDispatcher()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		farmService: deps.FarmService,
		tokens:      deps.Tokens,
		extractor:   deps.Extractor,
		cache:       deps.Cache,
		photos:      deps.Photos,
		events:      events,
		clock:       clock,
		logger:      logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.POST("/auth/login", handler.handleLogin)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)

	protected.GET("/plots", handler.handleListPlots)
	protected.POST("/plots", handler.handleCreatePlot)
	protected.GET("/plots/:id", handler.handleGetPlot)
	protected.PUT("/plots/:id", handler.handleUpdatePlot)
	protected.DELETE("/plots/:id", handler.handleDeletePlot)
	protected.GET("/plots/:id/sections", handler.handleListSections)
	protected.POST("/plots/:id/sections", handler.handleCreateSection)
	protected.GET("/plots/:id/sections/next-code", handler.handleNextSectionCode)

	protected.GET("/sections/:id", handler.handleGetSection)
	protected.PUT("/sections/:id", handler.handleUpdateSection)
	protected.DELETE("/sections/:id", handler.handleDeleteSection)
	protected.GET("/sections/:id/trees", handler.handleListTrees)
	protected.POST("/sections/:id/trees", handler.handleCreateTree)
	protected.GET("/sections/:id/trees/next-code", handler.handleNextTreeCode)

	protected.GET("/trees/:id", handler.handleGetTree)
	protected.PUT("/trees/:id", handler.handleUpdateTree)
	protected.DELETE("/trees/:id", handler.handleDeleteTree)
	protected.POST("/trees/:id/regrow", handler.handleRegrowTree)
	protected.POST("/trees/:id/fruit-count", handler.handleAdjustFruitCount)
	protected.GET("/trees/:id/logs", handler.handleListTreeLogs)
	protected.POST("/trees/:id/logs", handler.handleAddTreeLog)
	protected.GET("/trees/:id/logs/:logID/photo", handler.handleTreeLogPhoto)
	protected.GET("/trees/:id/yield/analytics", handler.handleYieldAnalytics)
	protected.GET("/trees/:id/yield/trend", handler.handleYieldTrend)

	protected.GET("/yield/periods", handler.handleYieldPeriods)

	protected.GET("/costs", handler.handleListCosts)
	protected.POST("/costs", handler.handleAddCost)
	protected.DELETE("/costs/:id", handler.handleDeleteCost)

	protected.GET("/varieties", handler.handleListVarieties)
	protected.POST("/varieties", handler.handleCreateVariety)
	protected.DELETE("/varieties/:id", handler.handleDeleteVariety)
	protected.GET("/fertilizers", handler.handleListFertilizers)
	protected.POST("/fertilizers", handler.handleCreateFertilizer)
	protected.DELETE("/fertilizers/:id", handler.handleDeleteFertilizer)
	protected.GET("/pesticides", handler.handleListPesticides)
	protected.POST("/pesticides", handler.handleCreatePesticide)
	protected.DELETE("/pesticides/:id", handler.handleDeletePesticide)

	protected.GET("/export/farm.xlsx", handler.handleExportFarm)
	protected.GET("/events", handler.handleEventStream)

	return router, nil
}

type httpHandler struct {
	farmService *farm.Service
	tokens      *auth.TokenIssuer
	extractor   *yield.Extractor
	cache       *yield.AnalyticsCache
	photos      *photos.Store
	events      *EventDispatcher
	clock       func() time.Time
	logger      *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type loginRequestPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Username) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	token, expiresIn, err := h.tokens.Login(c.Request.Context(), request.Username, request.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		h.logger.Error("failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	c.JSON(http.StatusOK, loginResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.ValidateToken(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(subjectContextKey, subject)
	c.Next()
}

func (h *httpHandler) handleEventStream(c *gin.Context) {
	plotCode := strings.ToUpper(strings.TrimSpace(c.Query("plot")))
	stream, cleanup := h.events.Subscribe(c.Request.Context(), plotCode)
	defer cleanup()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent(event.EventType, event)
			return true
		case <-heartbeat.C:
			c.SSEvent(eventHeartbeat, gin.H{"source": eventSourceBackend, "time": h.clock().UTC()})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// respondServiceError maps farm service errors onto HTTP statuses with the
// dotted error code as the payload.
func (h *httpHandler) respondServiceError(c *gin.Context, err error) {
	var serviceErr *farm.ServiceError
	if !errors.As(err, &serviceErr) {
		h.logger.Error("unexpected handler error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	code := serviceErr.Code()
	status := http.StatusInternalServerError
	switch {
	case farm.IsNotFound(serviceErr):
		status = http.StatusNotFound
	case farm.IsConflict(serviceErr) || strings.HasSuffix(code, ".code_taken") || strings.HasSuffix(code, ".name_taken"):
		status = http.StatusConflict
	case strings.Contains(code, ".missing_") || strings.Contains(code, ".invalid_") ||
		strings.HasSuffix(code, ".negative_fruit_count") || strings.HasSuffix(code, ".negative_amount") ||
		strings.HasSuffix(code, ".plot_not_empty") || strings.HasSuffix(code, ".section_not_empty") ||
		strings.HasSuffix(code, ".tree_not_dead"):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("farm service failure", zap.String("code", code), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": code})
}

func (h *httpHandler) publishTreeEvent(eventType, plotCode string, treeCodes ...string) {
	h.events.Publish(FarmEvent{
		PlotCode:  plotCode,
		EventType: eventType,
		TreeCodes: treeCodes,
		Timestamp: h.clock().UTC(),
	})
}

// plotCodeForSection resolves the plot code a section belongs to, for event
// publication. Failures only cost the event, never the request.
func (h *httpHandler) plotCodeForSection(c *gin.Context, sectionID string) string {
	section, err := h.farmService.GetSection(c.Request.Context(), sectionID)
	if err != nil {
		return ""
	}
	return plotCodeFromSectionCode(section.SectionCode)
}

// plotCodeFromSectionCode strips the trailing number off a section code.
func plotCodeFromSectionCode(sectionCode string) string {
	trimmed := strings.TrimRight(sectionCode, "0123456789")
	return trimmed
}
