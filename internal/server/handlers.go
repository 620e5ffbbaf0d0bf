package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quorumtrade/quorum/internal/events"
	"github.com/quorumtrade/quorum/internal/models"
	"github.com/quorumtrade/quorum/internal/storage"
)

// defaultPanel is the debate line-up used when the request names no
// agents.
func defaultPanel() []models.AgentDescriptor {
	return []models.AgentDescriptor{
		{ID: "analyst-1", Role: models.RoleAnalyst, DisplayName: "Analyst", Model: models.ModelID{Provider: "openai", Model: "gpt-5"}},
		{ID: "critic-1", Role: models.RoleCritic, DisplayName: "Critic", Model: models.ModelID{Provider: "anthropic", Model: "claude-sonnet"}},
		{ID: "judge-1", Role: models.RoleJudge, DisplayName: "Judge", Model: models.ModelID{Provider: "gemini", Model: "gemini-pro"}},
	}
}

func (s *Server) handleDebateStream(c *gin.Context) {
	var req models.DebateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if len(req.Agents) == 0 {
		req.Agents = defaultPanel()
	}

	stream := events.NewStream()
	stream.Emit(events.Event{Type: events.TypeConnected})

	// The run is detached from the request context: a client that
	// disconnects mid-debate still gets a persisted session.
	go func() {
		defer stream.Close()
		result, err := s.debate.Run(context.Background(), req, stream)
		if err != nil || result == nil {
			return
		}
		s.persistDebate(req, result)
	}()

	s.writeEventStream(c, stream)
}

func (s *Server) handleConsensusStream(c *gin.Context) {
	var req models.ConsensusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	stream := events.NewStream()
	stream.Emit(events.Event{Type: events.TypeConnected})

	go func() {
		defer stream.Close()
		result, err := s.consensus.Run(context.Background(), req, stream)
		if err != nil || result == nil {
			return
		}
		s.persistConsensus(req, result)
	}()

	s.writeEventStream(c, stream)
}

// writeEventStream relays stream events to the client until the stream
// closes or the client goes away. Orchestration is never aborted by the
// writer; unread events are simply dropped by the stream.
func (s *Server) writeEventStream(c *gin.Context, stream *events.Stream) {
	events.SetSSEHeaders(c)
	clientGone := c.Request.Context().Done()

	for {
		select {
		case e, ok := <-stream.Events():
			if !ok {
				return
			}
			if err := events.WriteSSE(c, e); err != nil {
				return
			}
		case <-clientGone:
			return
		}
	}
}

func (s *Server) persistDebate(req models.DebateRequest, result *models.DebateResult) {
	if s.store != nil {
		ctx := context.Background()
		record := storage.SessionRecord{ID: result.SessionID, Kind: storage.KindDebate, Topic: req.Query, Status: storage.StatusDone}
		if err := s.store.CreateSession(ctx, record); err != nil {
			log.Printf("server: persist debate session: %v", err)
		} else if err := s.store.SaveDebateResult(ctx, result); err != nil {
			log.Printf("server: persist debate result: %v", err)
		}
	}
	s.exporter.ExportDebate(req.Query, result)
}

func (s *Server) persistConsensus(req models.ConsensusRequest, result *models.ConsensusResult) {
	if s.store != nil {
		ctx := context.Background()
		record := storage.SessionRecord{ID: result.SessionID, Kind: storage.KindConsensus, Topic: req.Symbol, Status: storage.StatusDone}
		if err := s.store.CreateSession(ctx, record); err != nil {
			log.Printf("server: persist consensus session: %v", err)
		} else if err := s.store.SaveConsensusResult(ctx, result); err != nil {
			log.Printf("server: persist consensus result: %v", err)
		}
	}
	s.exporter.ExportConsensus(result)
}

func (s *Server) handleListSessions(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "persistence disabled"})
		return
	}

	cursor, _ := strconv.ParseInt(c.Query("cursor"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))

	sessions, err := s.store.ListSessions(c.Request.Context(), cursor, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var next int64
	if len(sessions) > 0 {
		next = sessions[len(sessions)-1].RowID
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "next_cursor": next})
}

func (s *Server) handleGetSession(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "persistence disabled"})
		return
	}

	id := c.Param("id")
	ctx := c.Request.Context()

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	messages, err := s.store.ListMessages(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	_, payload, err := s.store.GetResult(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"session": session, "messages": messages}
	if payload != nil {
		resp["result"] = json.RawMessage(payload)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetConfig(c *gin.Context) {
	if s.cfg == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "config API disabled"})
		return
	}
	c.JSON(http.StatusOK, s.cfg.Get())
}

func (s *Server) handlePutConfig(c *gin.Context) {
	if s.cfg == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "config API disabled"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body: " + err.Error()})
		return
	}
	if err := s.cfg.UpdateFromJSON(string(body)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.cfg.Get())
}
