package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"licitradar/internal/domain"
	"licitradar/internal/ports"
	"licitradar/internal/usecase"
)

// Server exposes the review dashboard: tender listing and curation, the
// strategic profile form, and a manual pipeline trigger.
type Server struct {
	repo     ports.TenderRepository
	profiles ports.ProfileStore
	pipeline *usecase.Pipeline
	logger   *slog.Logger
	runMu    sync.Mutex
}

// NewServer wires the dashboard against the repository and the pipeline.
func NewServer(repo ports.TenderRepository, profiles ports.ProfileStore, pipeline *usecase.Pipeline, logger *slog.Logger) *Server {
	return &Server{
		repo:     repo,
		profiles: profiles,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Router builds the gin engine with all dashboard routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.index)

	api := router.Group("/api")
	{
		api.GET("/tenders", s.listTenders)
		api.POST("/tenders/:id/status", s.setStatus)
		api.GET("/profile", s.getProfile)
		api.PUT("/profile", s.saveProfile)
		api.POST("/run", s.runCycle)
	}

	return router
}

// Run starts the HTTP listener and shuts it down when ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	if s.logger != nil {
		s.logger.Info("dashboard listening", "addr", addr)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

type tenderView struct {
	ExternalID    string          `json:"external_id"`
	Title         string          `json:"title"`
	Organization  string          `json:"organization"`
	ClosingDate   string          `json:"closing_date"`
	PublishedDate string          `json:"published_date"`
	PaymentNote   string          `json:"payment_note"`
	PaymentRisk   bool            `json:"payment_risk"`
	Link          string          `json:"link"`
	Score         int             `json:"score"`
	Verdict       *domain.Verdict `json:"verdict,omitempty"`
	ArchiveReason string          `json:"archive_reason,omitempty"`
	Status        string          `json:"status"`
}

func (s *Server) listTenders(c *gin.Context) {
	status := domain.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status filter"})
		return
	}

	tenders, err := s.repo.List(c.Request.Context(), status)
	if err != nil {
		s.fail(c, "list tenders", err)
		return
	}

	views := make([]tenderView, 0, len(tenders))
	for _, t := range tenders {
		views = append(views, tenderView{
			ExternalID:    t.ExternalID,
			Title:         t.Title,
			Organization:  t.Organization,
			ClosingDate:   t.ClosingDate,
			PublishedDate: t.PublishedDate,
			PaymentNote:   t.PaymentNote,
			PaymentRisk:   paymentRisk(t.PaymentNote),
			Link:          t.Link,
			Score:         t.Score,
			Verdict:       t.Verdict,
			ArchiveReason: t.ArchiveReason,
			Status:        string(t.Status),
		})
	}

	c.JSON(http.StatusOK, views)
}

func (s *Server) setStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := domain.Status(body.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	err := s.repo.SetStatus(c.Request.Context(), c.Param("id"), status)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "tender not found"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "transition not allowed"})
	case err != nil:
		s.fail(c, "set status", err)
	default:
		c.JSON(http.StatusOK, gin.H{"status": body.Status})
	}
}

func (s *Server) getProfile(c *gin.Context) {
	profile, err := s.profiles.Profile(c.Request.Context())
	if errors.Is(err, domain.ErrNoProfile) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not configured"})
		return
	}
	if err != nil {
		s.fail(c, "load profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"positive_keywords": profile.PositiveKeywords,
		"negative_keywords": profile.NegativeKeywords,
		"regions":           profile.Regions,
		"strategy":          profile.Strategy,
	})
}

func (s *Server) saveProfile(c *gin.Context) {
	var body struct {
		PositiveKeywords string `json:"positive_keywords" binding:"required"`
		NegativeKeywords string `json:"negative_keywords"`
		Regions          string `json:"regions"`
		Strategy         string `json:"strategy"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile := domain.Profile{
		PositiveKeywords: body.PositiveKeywords,
		NegativeKeywords: body.NegativeKeywords,
		Regions:          body.Regions,
		Strategy:         body.Strategy,
	}
	if err := s.profiles.SaveProfile(c.Request.Context(), profile); err != nil {
		s.fail(c, "save profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": true})
}

func (s *Server) runCycle(c *gin.Context) {
	if s.pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline not configured"})
		return
	}
	if !s.runMu.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "a cycle is already running"})
		return
	}
	defer s.runMu.Unlock()

	summary, err := s.pipeline.RunCycle(c.Request.Context())
	if err != nil {
		s.fail(c, "run cycle", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	if s.logger != nil {
		s.logger.Error(op, "error", err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// paymentRisk flags organisms with a non-trivial payment-complaint history.
// "0 reclamos" and the not-informed sentinel count as clean.
func paymentRisk(note string) bool {
	if note == "" || note == domain.PlaceholderNoPayment {
		return false
	}
	return !strings.Contains(note, "0")
}
