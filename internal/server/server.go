package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/affiliateai/copilot/internal/adapter"
	"github.com/affiliateai/copilot/internal/observe"
	"github.com/affiliateai/copilot/internal/registry"
	"github.com/affiliateai/copilot/internal/store"
	"github.com/affiliateai/copilot/internal/translator"
)

const (
	maxBodyBytes        = 1 << 20 // 1 MiB
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	writeTimeout        = 180 * time.Second
	idleTimeout         = 120 * time.Second

	// CredentialHeader carries the caller's provider API key. Keys are taken
	// from the request every time and never held by the server.
	CredentialHeader = "X-Provider-Key"
)

type Server struct {
	assistant *adapter.Assistant
	registry  *registry.Registry
	library   store.Storage
	obs       *observe.Observer
	app       *echo.Echo
	address   string

	// chats holds one Assistant per chat session so concurrent clients
	// never share conversation history. The shared assistant serves the
	// stateless generation endpoints only.
	mu    sync.Mutex
	chats map[string]*adapter.Assistant
}

// New constructs an HTTP server wired with routing and middleware. The
// library store is optional; when nil the library endpoints return 503.
func New(address string, assistant *adapter.Assistant, reg *registry.Registry, library store.Storage, obs *observe.Observer) (*Server, error) {
	if assistant == nil {
		return nil, errors.New("assistant must not be nil")
	}
	if reg == nil {
		reg = registry.Default()
	}
	if obs == nil {
		obs = observe.New(io.Discard, false)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			obs.Log().Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Int("latency_ms", int(v.Latency.Milliseconds())).
				Msg("request")
			return nil
		},
	}))

	srv := &Server{
		assistant: assistant,
		registry:  reg,
		library:   library,
		obs:       obs,
		app:       e,
		address:   address,
		chats:     make(map[string]*adapter.Assistant),
	}

	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.obs.Log().Info().Str("addr", s.address).Msg("starting server")

	httpServer := &http.Server{
		Addr:         s.address,
		Handler:      s.app,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.obs.Log().Info().Msg("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/healthz", s.handleHealth)
	s.app.GET("/v1/providers", s.handleProviders)

	s.app.POST("/v1/generate", s.handleGenerate)
	s.app.POST("/v1/chat", s.handleChat)
	s.app.POST("/v1/niches/analyze", s.handleNicheAnalysis)
	s.app.POST("/v1/content", s.handleContent)
	s.app.POST("/v1/keywords", s.handleKeywords)
	s.app.POST("/v1/email-sequences", s.handleEmailSequence)
	s.app.POST("/v1/products/recommendations", s.handleProducts)
	s.app.POST("/v1/image-prompts", s.handleImagePrompt)
	s.app.POST("/v1/images", s.handleImages)

	s.app.GET("/v1/sessions", s.handleSessions)
	s.app.GET("/v1/library", s.handleLibraryList)
	s.app.GET("/v1/library/:id", s.handleLibraryGet)
	s.app.DELETE("/v1/library/:id", s.handleLibraryDelete)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type providerInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	DefaultModel string   `json:"default_model"`
	ImageModel   string   `json:"image_model,omitempty"`
	KeyPrefix    string   `json:"key_prefix"`
	Capabilities []string `json:"capabilities"`
	Free         bool     `json:"free"`
}

func (s *Server) handleProviders(c echo.Context) error {
	providers := s.registry.List()
	out := make([]providerInfo, 0, len(providers))
	for _, p := range providers {
		caps := make([]string, 0, len(p.Capabilities))
		for _, cap := range p.Capabilities {
			caps = append(caps, string(cap))
		}
		out = append(out, providerInfo{
			ID:           p.ID,
			Name:         p.Name,
			DefaultModel: p.DefaultModel,
			ImageModel:   p.ImageModel,
			KeyPrefix:    p.KeyPrefix,
			Capabilities: caps,
			Free:         p.Free,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"providers": out})
}

// generationParams are the model-selection fields shared by every
// generation endpoint.
type generationParams struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Tier     string `json:"tier"`
}

func (p generationParams) options() translator.Options {
	return translator.Options{Model: p.Model, Tier: p.Tier}
}

func credentialFrom(c echo.Context) string {
	return c.Request().Header.Get(CredentialHeader)
}

type generateRequest struct {
	generationParams
	Prompt      string   `json:"prompt"`
	System      string   `json:"system"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   int      `json:"max_tokens"`
}

func (s *Server) handleGenerate(c echo.Context) error {
	var req generateRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}
	if req.Prompt == "" {
		return requestError{Status: http.StatusBadRequest, Message: "prompt is required", Type: "invalid_request_error"}
	}

	opts := req.options()
	opts.Temperature = req.Temperature
	opts.MaxTokens = req.MaxTokens

	var messages []adapter.Message
	if req.System != "" {
		messages = append(messages, adapter.Message{Role: translator.RoleSystem, Content: req.System})
	}
	messages = append(messages, adapter.Message{Role: translator.RoleUser, Content: req.Prompt})

	text, err := s.assistant.GenerateText(c.Request().Context(), messages, opts, credentialFrom(c), req.Provider)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"text": text})
}

type chatRequest struct {
	generationParams
	SessionID       string `json:"session_id"`
	Message         string `json:"message"`
	Module          string `json:"module"`
	ExperienceLevel string `json:"experience_level"`
}

// chatAssistant resolves the conversation for a session id. An empty id
// opens a fresh session; an unknown id is rejected rather than silently
// starting over.
func (s *Server) chatAssistant(sessionID string) (*adapter.Assistant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID == "" {
		a := adapter.New(adapter.WithRegistry(s.registry), adapter.WithObserver(s.obs))
		s.chats[a.SessionID()] = a
		return a, nil
	}
	a, ok := s.chats[sessionID]
	if !ok {
		return nil, requestError{
			Status:  http.StatusNotFound,
			Message: fmt.Sprintf("unknown chat session %q", sessionID),
			Type:    "not_found",
		}
	}
	return a, nil
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}
	if req.Message == "" {
		return requestError{Status: http.StatusBadRequest, Message: "message is required", Type: "invalid_request_error"}
	}

	assistant, err := s.chatAssistant(req.SessionID)
	if err != nil {
		return err
	}

	reply, err := assistant.Chat(c.Request().Context(), req.Message, adapter.ChatContext{
		Module:          req.Module,
		ExperienceLevel: req.ExperienceLevel,
	}, credentialFrom(c), req.Provider)
	if err != nil {
		return toHTTPError(err)
	}

	sessionID := assistant.SessionID()
	if s.library != nil {
		providerID := req.Provider
		if providerID == "" {
			providerID = registry.DefaultTextProvider
		}
		sess := &store.ChatSession{
			ID:        sessionID,
			Provider:  providerID,
			Module:    req.Module,
			Turns:     len(assistant.History()) / 2,
			StartedAt: time.Now(),
		}
		if err := s.library.SaveChatSession(sess); err != nil {
			s.obs.Log().Warn().Err(err).Msg("failed to record chat session")
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"session_id": sessionID,
		"reply":      reply,
	})
}

type nicheRequest struct {
	generationParams
	Niche    string `json:"niche"`
	SubNiche string `json:"sub_niche"`
}

func (s *Server) handleNicheAnalysis(c echo.Context) error {
	var req nicheRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}
	if req.Niche == "" {
		return requestError{Status: http.StatusBadRequest, Message: "niche is required", Type: "invalid_request_error"}
	}

	analysis, err := s.assistant.AnalyzeNiche(c.Request().Context(), req.Niche, req.SubNiche, credentialFrom(c), req.Provider)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, analysis)
}

type contentRequest struct {
	generationParams
	Type                 string   `json:"type"`
	Topic                string   `json:"topic"`
	Product              string   `json:"product"`
	Keywords             []string `json:"keywords"`
	Tone                 string   `json:"tone"`
	Length               string   `json:"length"`
	Platform             string   `json:"platform"`
	IncludeAffiliateLink bool     `json:"include_affiliate_link"`
	Save                 bool     `json:"save"`
}

func (s *Server) handleContent(c echo.Context) error {
	var req contentRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}
	if req.Topic == "" {
		return requestError{Status: http.StatusBadRequest, Message: "topic is required", Type: "invalid_request_error"}
	}

	providerID := req.Provider
	if providerID == "" {
		providerID = registry.DefaultTextProvider
	}

	piece, err := s.assistant.GenerateContent(c.Request().Context(), adapter.ContentPrompt{
		Type:                 req.Type,
		Topic:                req.Topic,
		Product:              req.Product,
		Keywords:             req.Keywords,
		Tone:                 req.Tone,
		Length:               req.Length,
		Platform:             req.Platform,
		IncludeAffiliateLink: req.IncludeAffiliateLink,
	}, credentialFrom(c), req.Provider)
	if err != nil {
		return toHTTPError(err)
	}

	var savedID string
	if req.Save && s.library != nil {
		rec := &store.ContentRecord{
			ID:        uuid.NewString(),
			Kind:      req.Type,
			Topic:     req.Topic,
			Title:     piece.Title,
			Body:      piece.Content,
			Provider:  providerID,
			Metadata:  map[string]string{"tone": req.Tone, "platform": req.Platform},
			CreatedAt: time.Now(),
		}
		if err := s.library.SaveContent(rec); err != nil {
			s.obs.Log().Warn().Err(err).Msg("failed to save content to library")
		} else {
			savedID = rec.ID
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"content":  piece,
		"saved_id": savedID,
	})
}

type keywordRequest struct {
	generationParams
	Niche       string `json:"niche"`
	SeedKeyword string `json:"seed_keyword"`
}

func (s *Server) handleKeywords(c echo.Context) error {
	var req keywordRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}
	if req.Niche == "" {
		return requestError{Status: http.StatusBadRequest, Message: "niche is required", Type: "invalid_request_error"}
	}

	research, err := s.assistant.GenerateKeywords(c.Request().Context(), req.Niche, req.SeedKeyword, credentialFrom(c), req.Provider)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, research)
}

type emailSequenceRequest struct {
	generationParams
	Niche   string `json:"niche"`
	Product string `json:"product"`
	Goal    string `json:"goal"`
	Length  int    `json:"length"`
}

func (s *Server) handleEmailSequence(c echo.Context) error {
	var req emailSequenceRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}
	if req.Niche == "" {
		return requestError{Status: http.StatusBadRequest, Message: "niche is required", Type: "invalid_request_error"}
	}

	seq, err := s.assistant.GenerateEmailSequence(c.Request().Context(), adapter.EmailSequencePrompt{
		Niche:   req.Niche,
		Product: req.Product,
		Goal:    req.Goal,
		Length:  req.Length,
	}, credentialFrom(c), req.Provider)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, seq)
}

type productsRequest struct {
	generationParams
	Niche    string `json:"niche"`
	Platform string `json:"platform"`
}

func (s *Server) handleProducts(c echo.Context) error {
	var req productsRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}
	if req.Niche == "" {
		return requestError{Status: http.StatusBadRequest, Message: "niche is required", Type: "invalid_request_error"}
	}

	recs, err := s.assistant.RecommendProducts(c.Request().Context(), req.Niche, req.Platform, credentialFrom(c), req.Provider)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, recs)
}

type imagePromptRequest struct {
	generationParams
	Topic string `json:"topic"`
	Style string `json:"style"`
}

func (s *Server) handleImagePrompt(c echo.Context) error {
	var req imagePromptRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}
	if req.Topic == "" {
		return requestError{Status: http.StatusBadRequest, Message: "topic is required", Type: "invalid_request_error"}
	}

	text, err := s.assistant.GenerateImagePrompt(c.Request().Context(), req.Topic, req.Style, credentialFrom(c), req.Provider)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"prompt": text})
}

type imagesRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Count       int    `json:"count"`
}

type imageBody struct {
	Data     string `json:"data"`
	MIMEType string `json:"mime_type"`
}

func (s *Server) handleImages(c echo.Context) error {
	var req imagesRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}
	if req.Prompt == "" {
		return requestError{Status: http.StatusBadRequest, Message: "prompt is required", Type: "invalid_request_error"}
	}

	images, err := s.assistant.GenerateImage(c.Request().Context(), req.Prompt, adapter.ImageOptions{
		AspectRatio: req.AspectRatio,
		Count:       req.Count,
	}, credentialFrom(c))
	if err != nil {
		return toHTTPError(err)
	}

	out := make([]imageBody, 0, len(images))
	for _, img := range images {
		out = append(out, imageBody{Data: img.Data, MIMEType: img.MIMEType})
	}
	return c.JSON(http.StatusOK, map[string]any{"images": out})
}

// Library handlers

type libraryEntry struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	Topic     string            `json:"topic"`
	Title     string            `json:"title"`
	Body      string            `json:"body,omitempty"`
	Provider  string            `json:"provider"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func libraryEntryFrom(rec *store.ContentRecord, includeBody bool) libraryEntry {
	e := libraryEntry{
		ID:        rec.ID,
		Kind:      rec.Kind,
		Topic:     rec.Topic,
		Title:     rec.Title,
		Provider:  rec.Provider,
		Metadata:  rec.Metadata,
		CreatedAt: rec.CreatedAt,
	}
	if includeBody {
		e.Body = rec.Body
	}
	return e
}

func (s *Server) requireLibrary() error {
	if s.library == nil {
		return requestError{Status: http.StatusServiceUnavailable, Message: "content library is not configured", Type: "library_unavailable"}
	}
	return nil
}

type sessionEntry struct {
	ID        string    `json:"id"`
	Provider  string    `json:"provider"`
	Module    string    `json:"module,omitempty"`
	Turns     int       `json:"turns"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Server) handleSessions(c echo.Context) error {
	if err := s.requireLibrary(); err != nil {
		return err
	}

	sessions, err := s.library.ListChatSessions()
	if err != nil {
		return requestError{Status: http.StatusInternalServerError, Message: err.Error(), Type: "server_error"}
	}

	out := make([]sessionEntry, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionEntry{
			ID:        sess.ID,
			Provider:  sess.Provider,
			Module:    sess.Module,
			Turns:     sess.Turns,
			StartedAt: sess.StartedAt,
			UpdatedAt: sess.UpdatedAt,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"sessions": out})
}

func (s *Server) handleLibraryList(c echo.Context) error {
	if err := s.requireLibrary(); err != nil {
		return err
	}

	records, err := s.library.ListContent(c.QueryParam("pattern"))
	if err != nil {
		return requestError{Status: http.StatusBadRequest, Message: err.Error(), Type: "invalid_request_error"}
	}

	out := make([]libraryEntry, 0, len(records))
	for _, rec := range records {
		out = append(out, libraryEntryFrom(rec, false))
	}
	return c.JSON(http.StatusOK, map[string]any{"contents": out})
}

func (s *Server) handleLibraryGet(c echo.Context) error {
	if err := s.requireLibrary(); err != nil {
		return err
	}

	rec, err := s.library.GetContent(c.Param("id"))
	if err != nil {
		return requestError{Status: http.StatusNotFound, Message: err.Error(), Type: "not_found"}
	}
	return c.JSON(http.StatusOK, libraryEntryFrom(rec, true))
}

func (s *Server) handleLibraryDelete(c echo.Context) error {
	if err := s.requireLibrary(); err != nil {
		return err
	}

	if err := s.library.DeleteContent(c.Param("id")); err != nil {
		return requestError{Status: http.StatusNotFound, Message: err.Error(), Type: "not_found"}
	}
	return c.NoContent(http.StatusNoContent)
}

func decodeRequestBody[T any](c echo.Context, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return requestError{
				Status:  http.StatusBadRequest,
				Message: "request body is required",
				Type:    "invalid_request_error",
			}
		}
		return requestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("invalid JSON payload: %v", err),
			Type:    "invalid_request_error",
		}
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "request body must contain a single JSON object",
			Type:    "invalid_request_error",
		}
	}
	return nil
}
