package api

import (
	"VoiceCalendarAI/backend/go/internal/command_service/service"
	"VoiceCalendarAI/backend/go/internal/models"
	"VoiceCalendarAI/backend/go/pkg/logger"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// API provides the HTTP handlers of the command service.
type API struct {
	service  *service.CommandService
	health   *service.HealthChecker
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewAPI creates a new API handler.
func NewAPI(svc *service.CommandService, health *service.HealthChecker, logger *logger.Logger) *API {
	return &API{
		service: svc,
		health:  health,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // In production, implement a proper origin check.
			},
		},
	}
}

// commandPayload is the request body shared by interpretation and command
// submission. A missing reference defaults to the server's now.
type commandPayload struct {
	Transcript string `json:"transcript"`
	Reference  string `json:"reference,omitempty"` // RFC 3339
	Timezone   string `json:"timezone,omitempty"`
}

func (p *commandPayload) toRequest() (models.InterpretRequest, error) {
	req := models.InterpretRequest{
		Transcript: p.Transcript,
		Timezone:   p.Timezone,
	}
	if p.Reference != "" {
		ref, err := time.Parse(time.RFC3339, p.Reference)
		if err != nil {
			return models.InterpretRequest{}, err
		}
		req.Reference = ref
	}
	return req, nil
}

// InterpretHandler interprets a transcript synchronously without booking
// anything. The outcome carries either the extracted intent or the parse
// failure; both are 200 responses.
func (a *API) InterpretHandler(c *gin.Context) {
	var payload commandPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reference timestamp"})
		return
	}

	outcome, err := a.service.Interpret(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// SubmitCommandHandler accepts a transcript into the booking pipeline.
func (a *API) SubmitCommandHandler(c *gin.Context) {
	userID, _ := c.Get("userID")

	var payload commandPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reference timestamp"})
		return
	}

	record, err := a.service.SubmitCommand(c.Request.Context(), userID.(string), req)
	if err != nil {
		// The service layer already logged the detailed error
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit command"})
		return
	}

	c.JSON(http.StatusAccepted, record)
}

// GetCommandHandler returns a single command record by its ID.
func (a *API) GetCommandHandler(c *gin.Context) {
	userID, _ := c.Get("userID")
	commandID := c.Param("id")

	record, err := a.service.GetCommandByID(c.Request.Context(), commandID, userID.(string))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve command"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Command not found or not authorized"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// GetCommandsHandler returns the user's command history.
func (a *API) GetCommandsHandler(c *gin.Context) {
	userID, _ := c.Get("userID")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	records, err := a.service.GetUserCommands(c.Request.Context(), userID.(string), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve commands"})
		return
	}

	c.JSON(http.StatusOK, records)
}

// HealthHandler reports the state of the service's dependencies. Degraded
// dependencies yield 503 with the per-component detail.
func (a *API) HealthHandler(c *gin.Context) {
	report := a.health.Check(c.Request.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

// WebSocketHandler upgrades the connection for pushing booking results.
func (a *API) WebSocketHandler(c *gin.Context) {
	userID, _ := c.Get("userID")

	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to upgrade WebSocket connection")
		return
	}

	a.service.AddConnection(userID.(string), conn)

	go func() {
		defer a.service.RemoveConnection(userID.(string))
		for {
			if _, _, err := conn.NextReader(); err != nil {
				break
			}
		}
	}()
}
