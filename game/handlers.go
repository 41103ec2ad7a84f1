package game

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are enforced by the server middleware before the upgrade
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type GameHandler struct {
	hub         *Hub
	registry    *Registry
	coordinator *Coordinator
	evaluator   PromptEvaluator
}

func NewGameHandler(hub *Hub, registry *Registry, coordinator *Coordinator, evaluator PromptEvaluator) *GameHandler {
	return &GameHandler{
		hub:         hub,
		registry:    registry,
		coordinator: coordinator,
		evaluator:   evaluator,
	}
}

func (h *GameHandler) WebsocketHandler(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	socket := NewWebsocketConnection(conn)
	client := NewConn(uuid.NewString())
	h.hub.Register(client)
	log.Info().Str("conn", client.ID()).Str("ip", ctx.ClientIP()).Msg("client connected")

	h.hub.Send(client.ID(), MakeEventConnected(client.ID()))
	go client.WritePump(socket)
	client.ReadPump(socket, h.coordinator)

	h.hub.Unregister(client.ID())
	log.Info().Str("conn", client.ID()).Msg("client disconnected")
}

func (h *GameHandler) HealthHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"rooms":       h.registry.Count(),
		"connections": h.hub.Count(),
	})
}

type evaluatePromptRequest struct {
	Prompt    string `json:"prompt"`
	Challenge string `json:"challenge"`
	LevelID   *int   `json:"levelId"`
}

func (h *GameHandler) EvaluatePromptHandler(ctx *gin.Context) {
	var req evaluatePromptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": ErrBadPayload.Code()})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" || strings.TrimSpace(req.Challenge) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": ErrMissingFields.Code()})
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), evaluationTimeout)
	defer cancel()

	score, err := h.evaluator.Evaluate(reqCtx, req.Prompt, req.Challenge, req.LevelID)
	if err != nil {
		log.Warn().Err(err).Msg("prompt evaluation failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": ErrEvaluationFailed.Code()})
		return
	}
	ctx.JSON(http.StatusOK, score)
}
