// Package server exposes the orchestrators over HTTP. Runs stream their
// progress as server-sent events; finished sessions are persisted and can
// be listed and fetched afterwards.
package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quorumtrade/quorum/config"
	"github.com/quorumtrade/quorum/internal/events"
	"github.com/quorumtrade/quorum/internal/models"
	"github.com/quorumtrade/quorum/internal/storage"
	"github.com/quorumtrade/quorum/internal/training"
)

// DebateRunner and ConsensusRunner are the orchestrator surfaces the
// server depends on.
type DebateRunner interface {
	Run(ctx context.Context, req models.DebateRequest, stream *events.Stream) (*models.DebateResult, error)
}

type ConsensusRunner interface {
	Run(ctx context.Context, req models.ConsensusRequest, stream *events.Stream) (*models.ConsensusResult, error)
}

type Server struct {
	engine    *gin.Engine
	debate    DebateRunner
	consensus ConsensusRunner
	store     *storage.Store
	exporter  *training.Exporter
	cfg       *config.Manager
}

// New wires the routes. store, exporter, and cfg may be nil; the matching
// endpoints then degrade (no persistence, no export, no config API).
func New(debate DebateRunner, consensus ConsensusRunner, store *storage.Store, exporter *training.Exporter, cfg *config.Manager) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:    engine,
		debate:    debate,
		consensus: consensus,
		store:     store,
		exporter:  exporter,
		cfg:       cfg,
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	{
		api.POST("/debate/stream", s.handleDebateStream)
		api.POST("/consensus/stream", s.handleConsensusStream)
		api.GET("/sessions", s.handleListSessions)
		api.GET("/sessions/:id", s.handleGetSession)
		api.GET("/config", s.handleGetConfig)
		api.PUT("/config", s.handlePutConfig)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks serving HTTP until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("server: listening on %s", addr)
	return s.engine.Run(addr)
}
