package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"PinCurator/internal/domain"
	"PinCurator/internal/staging"
	"PinCurator/internal/usecase"
)

// Server exposes the operator review surface over HTTP: generate a batch,
// inspect pending candidates, approve or reject them one by one.
type Server struct {
	pipeline *usecase.Pipeline
	logger   *slog.Logger

	mu      sync.Mutex
	session *staging.Session
}

// NewServer wires the pipeline into the review surface.
func NewServer(pipeline *usecase.Pipeline, logger *slog.Logger) *Server {
	return &Server{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Router constructs a Gin engine with registered routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	api.POST("/batch/generate", s.handleGenerate)
	api.GET("/candidates", s.handleList)
	api.POST("/candidates/:id/approve", s.handleApprove)
	api.POST("/candidates/:id/reject", s.handleReject)

	return r
}

type candidateView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImagePath   string `json:"image_path"`
	ProductURL  string `json:"product_url"`
}

type generateResponse struct {
	Fetched    int             `json:"fetched"`
	Eligible   int             `json:"eligible"`
	Sampled    int             `json:"sampled"`
	Staged     int             `json:"staged"`
	Candidates []candidateView `json:"candidates"`
}

type approveResponse struct {
	ProductID string `json:"product_id"`
	PinRef    string `json:"pin_ref"`
}

// handleGenerate runs the intake pipeline and replaces the review session.
// Candidates from the previous batch are discarded, mirroring the one-batch
// review flow of the operator UI.
func (s *Server) handleGenerate(c *gin.Context) {
	session, stats, err := s.pipeline.GenerateBatch(c.Request.Context())
	if err != nil {
		s.logger.Error("batch generation failed", "error", err)
		c.JSON(statusForBatchError(err), gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	c.JSON(http.StatusOK, generateResponse{
		Fetched:    stats.Fetched,
		Eligible:   stats.Eligible,
		Sampled:    stats.Sampled,
		Staged:     stats.Staged,
		Candidates: toViews(session.Pending()),
	})
}

func (s *Server) handleList(c *gin.Context) {
	session := s.currentSession()
	if session == nil {
		c.JSON(http.StatusOK, []candidateView{})
		return
	}
	c.JSON(http.StatusOK, toViews(session.Pending()))
}

func (s *Server) handleApprove(c *gin.Context) {
	session := s.currentSession()
	if session == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no batch has been generated"})
		return
	}

	entry, err := s.pipeline.Approve(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrConfig):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			s.logger.Error("approve failed", "candidate", c.Param("id"), "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, approveResponse{ProductID: entry.ProductID, PinRef: entry.PinRef})
}

func (s *Server) handleReject(c *gin.Context) {
	session := s.currentSession()
	if session == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "no batch has been generated"})
		return
	}

	if err := s.pipeline.Reject(session, c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) currentSession() *staging.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// statusForBatchError maps the batch-level failure taxonomy onto HTTP codes:
// upstream feed trouble reads as a bad gateway, a malformed feed as an
// unprocessable entity.
func statusForBatchError(err error) int {
	var schemaErr *domain.SchemaError
	switch {
	case errors.Is(err, domain.ErrSourceUnavailable):
		return http.StatusBadGateway
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func toViews(candidates []domain.Candidate) []candidateView {
	views := make([]candidateView, 0, len(candidates))
	for _, candidate := range candidates {
		views = append(views, candidateView{
			ID:          candidate.ID,
			Title:       candidate.Product.Name,
			Description: candidate.Description,
			ImagePath:   candidate.ImagePath,
			ProductURL:  candidate.Product.DeepLink,
		})
	}
	return views
}
