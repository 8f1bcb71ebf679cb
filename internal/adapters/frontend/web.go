package frontend

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mikey/sms-spam-detector/internal/config"
	"github.com/mikey/sms-spam-detector/internal/core"
	"github.com/mikey/sms-spam-detector/internal/metrics"
	"github.com/mikey/sms-spam-detector/internal/ports"
	"github.com/mikey/sms-spam-detector/internal/utils"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	// EmptyInputWarning is shown when a blank message is submitted
	EmptyInputWarning = "Please enter a message before detection."
	genericFailure    = "The message could not be classified. Please try again later."
)

// Example is a sample message listed in the sidebar
type Example struct {
	Kind string
	Text string
}

// Examples are the sample messages offered to users
var Examples = []Example{
	{Kind: "Spam", Text: "WINNER!! You've been selected for a free $1000 gift card!"},
	{Kind: "Ham", Text: "Hey, are we still meeting for lunch tomorrow?"},
	{Kind: "Spam", Text: "Urgent: Your bank account needs verification. Click here now!"},
}

// WebFrontend serves the detector over HTTP: an HTML form, a JSON API, a
// health check and the metrics endpoint
type WebFrontend struct {
	service       *core.SpamDetectorService
	metrics       *metrics.Metrics
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	cfg           config.ServerConfig
	spamLabel     string

	engine   *gin.Engine
	server   *http.Server
	mu       sync.Mutex
	listener net.Listener
}

var _ ports.Frontend = (*WebFrontend)(nil)

// NewWebFrontend creates a new web frontend. m may be nil.
func NewWebFrontend(
	service *core.SpamDetectorService,
	m *metrics.Metrics,
	textProcessor *utils.TextProcessor,
	cfg config.ServerConfig,
	spamLabel string,
	logger *zap.Logger,
) (*WebFrontend, error) {
	switch cfg.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Mode)
	default:
		return nil, fmt.Errorf("invalid server mode %q", cfg.Mode)
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	f := &WebFrontend{
		service:       service,
		metrics:       m,
		textProcessor: textProcessor,
		logger:        logger,
		cfg:           cfg,
		spamLabel:     spamLabel,
	}

	engine := gin.New()
	engine.SetHTMLTemplate(tmpl)
	engine.Use(gin.Recovery(), requestID(), requestLogger(logger))

	classify := engine.Group("")
	if cfg.RateLimit != "" {
		rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid rate limit %q: %w", cfg.RateLimit, err)
		}
		classify.Use(mgin.NewMiddleware(limiter.New(memory.NewStore(), rate)))
	}
	classify.Use(bodyLimit(f.maxBodyBytes()))

	engine.GET("/", f.handleIndex)
	classify.POST("/", f.handleForm)
	classify.POST("/api/v1/classify", f.handleClassify)
	engine.GET("/healthz", f.handleHealth)
	if cfg.MetricsEnabled && m != nil {
		engine.GET("/metrics", gin.WrapH(m.Handler()))
	}

	f.engine = engine
	f.server = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return f, nil
}

// Handler returns the HTTP handler
func (f *WebFrontend) Handler() http.Handler {
	return f.engine
}

// ProcessMessage classifies one message and records the outcome
func (f *WebFrontend) ProcessMessage(ctx context.Context, message string) (*core.PredictionResult, error) {
	start := time.Now()
	result, err := f.service.Classify(ctx, message)
	outcome := metrics.Outcome(result, err)
	f.metrics.ObserveClassification(outcome, time.Since(start))

	f.logger.Debug("Processed message",
		zap.String("preview", f.textProcessor.Preview(message)),
		zap.String("outcome", outcome),
		zap.Duration("duration", time.Since(start)))

	return result, err
}

// Start binds the listen address and serves in the background
func (f *WebFrontend) Start() error {
	ln, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}

	f.mu.Lock()
	f.listener = ln
	f.mu.Unlock()

	f.logger.Info("Starting web frontend", zap.String("address", ln.Addr().String()))

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("Web frontend stopped unexpectedly", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once started
func (f *WebFrontend) Addr() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listener == nil {
		return ""
	}
	return f.listener.Addr().String()
}

// Stop gracefully shuts the server down, waiting up to the shutdown timeout
// for in-flight requests
func (f *WebFrontend) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.ShutdownTimeout)
	defer cancel()

	f.logger.Info("Stopping web frontend")
	if err := f.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down web frontend: %w", err)
	}
	return nil
}

// maxBodyBytes bounds request bodies well above the message limit so that the
// message length check, not the reader, decides
func (f *WebFrontend) maxBodyBytes() int64 {
	if f.cfg.MaxMessageLength <= 0 {
		return 0
	}
	return int64(f.cfg.MaxMessageLength)*6 + 4096
}

func (f *WebFrontend) tooLong(message string) bool {
	return f.cfg.MaxMessageLength > 0 && len(message) > f.cfg.MaxMessageLength
}

type resultView struct {
	IsSpam     bool
	Confidence string
	Original   string
	Processed  string
	Spam       string
	Ham        string
}

type pageData struct {
	Message  string
	Warning  string
	Error    string
	Result   *resultView
	Examples []Example
}

func (f *WebFrontend) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageData{Examples: Examples})
}

func (f *WebFrontend) handleForm(c *gin.Context) {
	tooLarge := tooLargeBody(c)
	message := f.textProcessor.SanitizeUTF8(c.PostForm("message"))
	data := pageData{Message: message, Examples: Examples}

	if tooLarge || f.tooLong(message) {
		data.Message = ""
		data.Error = fmt.Sprintf("Messages are limited to %d bytes.", f.cfg.MaxMessageLength)
		c.HTML(http.StatusRequestEntityTooLarge, "index.html", data)
		return
	}

	result, err := f.ProcessMessage(c.Request.Context(), message)
	switch {
	case errors.Is(err, core.ErrEmptyInput):
		data.Warning = EmptyInputWarning
		c.HTML(http.StatusOK, "index.html", data)
	case err != nil:
		f.logger.Error("Failed to classify message",
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.Error(err))
		data.Error = genericFailure
		c.HTML(http.StatusInternalServerError, "index.html", data)
	default:
		data.Result = &resultView{
			IsSpam:     result.IsSpam(),
			Confidence: result.ConfidenceDisplay(),
			Original:   message,
			Processed:  result.NormalizedText,
			Spam:       core.FormatPercent(result.ProbabilityOfSpam * 100),
			Ham:        core.FormatPercent(result.ProbabilityOfHam * 100),
		}
		c.HTML(http.StatusOK, "index.html", data)
	}
}

type classifyRequest struct {
	Message *string `json:"message"`
}

type probabilities struct {
	Spam float64 `json:"spam"`
	Ham  float64 `json:"ham"`
}

type classifyResponse struct {
	RequestID         string        `json:"request_id"`
	Outcome           string        `json:"outcome"`
	Label             string        `json:"label"`
	Confidence        float64       `json:"confidence"`
	ConfidenceDisplay string        `json:"confidence_display"`
	Probabilities     probabilities `json:"probabilities"`
	NormalizedText    string        `json:"normalized_text"`
	Model             string        `json:"model"`
}

type errorResponse struct {
	RequestID string `json:"request_id"`
	Outcome   string `json:"outcome,omitempty"`
	Error     string `json:"error"`
}

func (f *WebFrontend) handleClassify(c *gin.Context) {
	id := c.GetString(requestIDKey)

	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{RequestID: id, Error: "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{RequestID: id, Error: "invalid request body"})
		return
	}
	if req.Message == nil {
		c.JSON(http.StatusBadRequest, errorResponse{RequestID: id, Error: "message is required"})
		return
	}
	if f.tooLong(*req.Message) {
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
			RequestID: id,
			Error:     fmt.Sprintf("message exceeds %d bytes", f.cfg.MaxMessageLength),
		})
		return
	}

	result, err := f.ProcessMessage(c.Request.Context(), *req.Message)
	switch {
	case errors.Is(err, core.ErrEmptyInput):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{
			RequestID: id,
			Outcome:   metrics.OutcomeEmptyInput,
			Error:     EmptyInputWarning,
		})
	case err != nil:
		f.logger.Error("Failed to classify message", zap.String(requestIDKey, id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{RequestID: id, Outcome: metrics.OutcomeError, Error: genericFailure})
	default:
		label := "HAM"
		if result.IsSpam() {
			label = "SPAM"
		}
		c.JSON(http.StatusOK, classifyResponse{
			RequestID:         id,
			Outcome:           result.Label.String(),
			Label:             label,
			Confidence:        result.Confidence,
			ConfidenceDisplay: result.ConfidenceDisplay(),
			Probabilities: probabilities{
				Spam: result.ProbabilityOfSpam,
				Ham:  result.ProbabilityOfHam,
			},
			NormalizedText: result.NormalizedText,
			Model:          result.ModelUsed,
		})
	}
}

func (f *WebFrontend) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"model":      f.service.ModelKind(),
		"features":   f.service.NumFeatures(),
		"spam_label": f.spamLabel,
	})
}

// requestID propagates the caller's X-Request-ID or assigns a new one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger logs one line per request. Bodies are never logged.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("Request completed",
			zap.String(requestIDKey, c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status_code", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()))
	}
}

// bodyLimit caps the request body; zero disables the cap
func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// tooLargeBody reports whether parsing the form hit the body limit. It must
// run before the form is read through gin, which swallows parse errors.
func tooLargeBody(c *gin.Context) bool {
	if err := c.Request.ParseForm(); err != nil {
		var maxErr *http.MaxBytesError
		return errors.As(err, &maxErr)
	}
	return false
}
