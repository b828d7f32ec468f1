package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // demo host only, no real transport trust boundary here
	},
}

// Handler serves the demo host's HTTP status/control surface and its
// websocket topology feed, the way the reference server's api.Handler
// wraps a live cluster for a browser dashboard.
type Handler struct {
	swarm *Swarm
}

// NewHandler wraps swarm for HTTP/WS serving.
func NewHandler(swarm *Swarm) *Handler {
	return &Handler{swarm: swarm}
}

// GetStatus returns the swarm's current round and per-peer bucket sizes.
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"snapshot":  h.swarm.Snapshot(),
		"timestamp": time.Now().Unix(),
	})
}

// GetPeers returns the per-peer view, as seen by each simulated node.
func (h *Handler) GetPeers(c *gin.Context) {
	snap := h.swarm.Snapshot()
	c.JSON(http.StatusOK, gin.H{"peers": snap.Peers, "round": snap.Round})
}

// PostStrike lets the demo operator inject a strike against a peer as
// observed by another, exercising the policy engine's quarantine path
// without waiting for an organic gossip failure.
func (h *Handler) PostStrike(c *gin.Context) {
	var req struct {
		Observer int    `json:"observer" binding:"required"`
		Target   int    `json:"target" binding:"required"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, ok := h.swarm.StrikePeer(req.Observer, req.Target, req.Reason)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown observer or target peer"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// WebSocketHandler pushes a fresh Snapshot every tick for as long as the
// browser stays connected, the same polling-over-websocket shape the
// reference dashboard uses for its ring view.
func (h *Handler) WebSocketHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()

	if err := conn.WriteJSON(gin.H{"type": "hello", "session": sessionID, "snapshot": h.swarm.Snapshot()}); err != nil {
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		msg := gin.H{"type": "snapshot", "session": sessionID, "snapshot": h.swarm.Snapshot()}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// NewRouter builds the gin engine with the demo host's routes, CORS
// permissive the same way the reference server is for local dashboard
// development.
func NewRouter(swarm *Swarm) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	h := NewHandler(swarm)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "poldercast topology engine demo swarm",
			"status":  "/status",
			"peers":   "/peers",
			"strike":  "/strike",
			"ws":      "/ws",
		})
	})
	router.GET("/status", h.GetStatus)
	router.GET("/peers", h.GetPeers)
	router.POST("/strike", h.PostStrike)
	router.GET("/ws", h.WebSocketHandler)

	return router
}
