package api

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"nerva/backend/internal/ai"
	"nerva/backend/internal/analysis"
	"nerva/backend/internal/config"
	"nerva/backend/internal/display"
	"nerva/backend/internal/geometry"
	"nerva/backend/internal/store"
)

const maxBatchDilemmas = 20

// Config defines server dependencies. Analyzer and Extractor, when set, replace the
// OpenAI clients built from AIConfig and FallbackConfig.
type Config struct {
	DBPath         string
	SilentDB       bool
	AllowedOrigins []string
	AIConfig       ai.Config
	FallbackConfig ai.Config
	DisableAI      bool
	BatchLimit     int
	Analyzer       ai.Analyzer
	Extractor      ai.Extractor
}

// Server wires HTTP handlers with the analysis pipeline, persistence and display state.
type Server struct {
	db             *store.Database
	service        *analysis.Service
	extractor      ai.Extractor
	slot           *display.Slot
	evalNotifier   *EvaluationNotifier
	allowedOrigins []string
	model          string
	batchLimit     int
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	analyzer, extractor, model, err := buildAnalyzer(cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	server := &Server{
		db:             db,
		extractor:      extractor,
		slot:           &display.Slot{},
		evalNotifier:   NewEvaluationNotifier(),
		allowedOrigins: cfg.AllowedOrigins,
		model:          model,
		batchLimit:     cfg.BatchLimit,
	}
	server.service = analysis.NewService(analysis.Options{
		Analyzer: analyzer,
		Recorder: db,
		Sink:     server,
		Model:    model,
	})
	return server, nil
}

func buildAnalyzer(cfg Config) (ai.Analyzer, ai.Extractor, string, error) {
	if cfg.Analyzer != nil {
		return cfg.Analyzer, cfg.Extractor, cfg.AIConfig.Model, nil
	}
	if cfg.DisableAI {
		logrus.Info("AI analyzer disabled via configuration")
		return nil, nil, "", nil
	}

	primary, err := ai.NewClient(cfg.AIConfig)
	if errors.Is(err, ai.ErrDisabled) {
		logrus.Warn("no OpenAI credentials configured; /api/analyze will be unavailable")
		return nil, nil, "", nil
	}
	if err != nil {
		return nil, nil, "", fmt.Errorf("ai client: %w", err)
	}

	var analyzer ai.Analyzer = primary
	if strings.TrimSpace(cfg.FallbackConfig.APIKey) != "" {
		fallback, err := ai.NewClient(cfg.FallbackConfig)
		if err != nil {
			return nil, nil, "", fmt.Errorf("fallback ai client: %w", err)
		}
		analyzer = ai.WithFallback(primary, fallback)
		logrus.WithField("fallback_model", fallback.Model()).Info("fallback analyzer configured")
	}
	logrus.WithField("model", primary.Model()).Info("AI analyzer enabled")
	return analyzer, primary, primary.Model(), nil
}

// Close releases the database handle.
func (s *Server) Close() error {
	return s.db.Close()
}

// Publish fans analysis events out to the display slot and websocket clients.
func (s *Server) Publish(event analysis.Event) {
	s.slot.Publish(event)
	s.evalNotifier.Publish(event)
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.POST("/analyze", s.handleAnalyze)
		api.POST("/analyze/batch", s.handleAnalyzeBatch)
		api.GET("/analyze/stream", s.handleAnalyzeStream)
		api.POST("/map", s.handleMap)
		api.POST("/classify", s.handleClassify)
		api.POST("/extract", s.handleExtract)
		api.GET("/scene", s.handleScene)
		api.DELETE("/scene", s.handleClearScene)
		api.GET("/evaluations", s.handleListEvaluations)
		api.GET("/evaluations/:id", s.handleGetEvaluation)
		api.GET("/stats", s.handleStats)
		api.GET("/export.csv", s.handleExportCSV)
		api.GET("/export.json", s.handleExportJSON)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"model":               s.model,
		"analyzer_enabled":    s.service.Enabled(),
		"extractor_enabled":   s.extractor != nil,
		"alignment_threshold": geometry.AlignmentThreshold,
		"score_min":           geometry.ScoreMin,
		"score_max":           geometry.ScoreMax,
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	result, err := s.service.Evaluate(c.Request.Context(), req.Dilemma)
	if err != nil {
		s.renderError(c, statusForError(err), err)
		return
	}
	c.JSON(http.StatusOK, FromResult(result))
}

func (s *Server) handleAnalyzeBatch(c *gin.Context) {
	var req BatchAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if len(req.Dilemmas) == 0 {
		s.renderError(c, http.StatusBadRequest, errors.New("dilemmas are required"))
		return
	}
	if len(req.Dilemmas) > maxBatchDilemmas {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("at most %d dilemmas per batch", maxBatchDilemmas))
		return
	}

	results, err := s.service.EvaluateBatch(c.Request.Context(), req.Dilemmas, s.batchLimit)
	if err != nil {
		s.renderError(c, statusForError(err), err)
		return
	}
	items := make([]EvaluationDTO, 0, len(results))
	for _, r := range results {
		items = append(items, FromResult(r))
	}
	c.JSON(http.StatusOK, EvaluationsResponse{Items: items, Total: int64(len(items))})
}

func (s *Server) handleMap(c *gin.Context) {
	var req MapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	result, err := s.service.Record(req.Dilemma, ai.Assessment{
		ThesisStrength: *req.ThesisStrength,
		AntithesisRisk: *req.AntithesisRisk,
		IntegrityScore: *req.IntegrityScore,
		Synthesis:      strings.TrimSpace(req.Synthesis),
	})
	if err != nil {
		s.renderError(c, statusForError(err), err)
		return
	}
	c.JSON(http.StatusOK, FromResult(result))
}

func (s *Server) handleClassify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	class := geometry.Classify(*req.IntegrityScore)
	c.JSON(http.StatusOK, ClassifyResponse{
		IntegrityScore: *req.IntegrityScore,
		Threshold:      geometry.AlignmentThreshold,
		Classification: class,
		Banner:         display.Banner(class),
	})
}

func (s *Server) handleExtract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	scenario := strings.TrimSpace(req.Scenario)
	if scenario == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("scenario is required"))
		return
	}
	if s.extractor == nil {
		s.renderError(c, http.StatusServiceUnavailable, ai.ErrDisabled)
		return
	}

	signals, err := s.extractor.Extract(c.Request.Context(), scenario)
	if err != nil {
		s.renderError(c, statusForError(err), err)
		return
	}
	c.JSON(http.StatusOK, signals)
}

func (s *Server) handleScene(c *gin.Context) {
	c.JSON(http.StatusOK, display.Render(s.slot.Load()))
}

func (s *Server) handleClearScene(c *gin.Context) {
	s.slot.Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAnalyzeStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.evalNotifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("evaluation websocket connected")
	defer s.evalNotifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("evaluation websocket closed")
			} else {
				logrus.WithError(err).Warn("evaluation websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) handleListEvaluations(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = 25
	}

	rows, total, err := s.db.ListEvaluations(store.EvaluationQuery{
		Query:          strings.TrimSpace(c.Query("q")),
		Classification: strings.TrimSpace(c.Query("classification")),
		Source:         strings.TrimSpace(c.Query("source")),
		Sort:           strings.TrimSpace(c.Query("sort")),
		Offset:         page * pageSize,
		Limit:          pageSize,
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, EvaluationsResponse{Items: toDTOs(rows), Total: total})
}

func (s *Server) handleGetEvaluation(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	row, err := s.db.GetEvaluation(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("evaluation %s not found", id))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, FromResult(analysis.FromModel(*row)))
}

func (s *Server) handleStats(c *gin.Context) {
	counts, err := s.db.CountByClassification()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{
		"total":       total,
		"aligned":     counts[string(geometry.Aligned)],
		"sub_optimal": counts[string(geometry.SubOptimal)],
	})
}

func (s *Server) handleExportCSV(c *gin.Context) {
	rows, _, err := s.db.ListEvaluations(store.EvaluationQuery{
		Classification: strings.TrimSpace(c.Query("classification")),
		Sort:           "created_asc",
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=nerva-export.csv")
	c.Header("Content-Type", "text/csv")

	writer := csv.NewWriter(c.Writer)
	headers := []string{"id", "created_at", "dilemma", "thesis_strength", "antithesis_risk", "integrity_score", "theta", "phi", "x", "y", "z", "classification", "synthesis"}
	if err := writer.Write(headers); err != nil {
		return
	}
	for _, dto := range toDTOs(rows) {
		line := []string{
			dto.ID,
			dto.CreatedAt.Format(time.RFC3339),
			dto.Dilemma,
			formatFloat(dto.ThesisStrength),
			formatFloat(dto.AntithesisRisk),
			formatFloat(dto.IntegrityScore),
			formatFloat(dto.Theta),
			formatFloat(dto.Phi),
			formatFloat(dto.X),
			formatFloat(dto.Y),
			formatFloat(dto.Z),
			string(dto.Classification),
			dto.Synthesis,
		}
		if err := writer.Write(line); err != nil {
			return
		}
	}
	writer.Flush()
}

func (s *Server) handleExportJSON(c *gin.Context) {
	rows, _, err := s.db.ListEvaluations(store.EvaluationQuery{
		Classification: strings.TrimSpace(c.Query("classification")),
		Sort:           "created_asc",
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=nerva-export.json")
	c.JSON(http.StatusOK, toDTOs(rows))
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusForError maps pipeline errors onto HTTP statuses.
func statusForError(err error) int {
	var upstream *ai.StatusError
	switch {
	case errors.Is(err, analysis.ErrEmptyDilemma):
		return http.StatusBadRequest
	case errors.Is(err, geometry.ErrOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ai.ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ai.ErrMalformedResponse), errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

func toDTOs(rows []store.Evaluation) []EvaluationDTO {
	out := make([]EvaluationDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromResult(analysis.FromModel(row)))
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// ConfigFrom translates the runtime configuration into server dependencies.
func ConfigFrom(cfg config.Config) Config {
	return Config{
		DBPath:         cfg.DBPath,
		SilentDB:       cfg.SilentDB,
		AllowedOrigins: cfg.AllowedOrigins,
		AIConfig:       cfg.AI,
		FallbackConfig: cfg.Fallback,
		DisableAI:      cfg.DisableAI,
		BatchLimit:     cfg.BatchLimit,
	}
}
