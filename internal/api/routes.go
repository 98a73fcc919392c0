package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/lvthome/lvtbridge/domain/entities"
	"github.com/lvthome/lvtbridge/internal/auth"
	"github.com/lvthome/lvtbridge/internal/config"
	"github.com/lvthome/lvtbridge/internal/session"
)

// Handlers carries the dependencies shared by all API routes.
type Handlers struct {
	session  *session.Session
	tokens   *auth.Manager
	username string
	password string
	logger   *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, sess *session.Session, tokens *auth.Manager, username, password string, logger *zap.Logger) {
	h := &Handlers{
		session:  sess,
		tokens:   tokens,
		username: username,
		password: password,
		logger:   logger,
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "lvtbridge",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")
	v1.POST("/auth/login", h.login)

	protected := v1.Group("", h.requireToken)
	protected.GET("/status", h.status)
	protected.GET("/speakers", h.listSpeakers)
	protected.GET("/speakers/:id", h.getSpeaker)
	protected.PUT("/speakers/:id/volume", h.setVolume)
	protected.PUT("/speakers/:id/filter", h.setFilter)
	protected.POST("/commands/:command", h.command)
	protected.POST("/probe", h.probe)
}

// requireToken guards routes behind a bearer token issued by login.
func (h *Handlers) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "Authorization bearer token is required",
			})
		}

		claims, err := h.tokens.ValidateToken(token)
		if err != nil {
			h.logger.Warn("Token validation failed", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Token is invalid or expired",
			})
		}

		c.Set("subject", claims.Subject)
		return next(c)
	}
}

func (h *Handlers) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.Username != h.username || req.Password != h.password {
		h.logger.Warn("API login failed", zap.String("username", req.Username))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid credentials",
		})
	}

	token, err := h.tokens.GenerateToken(req.Username, "admin")
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
}

func (h *Handlers) status(c echo.Context) error {
	s := h.session
	return c.JSON(http.StatusOK, StatusResponse{
		Started:    s.Started(),
		Online:     s.Online(),
		Authorized: s.Authorized(),
		Server:     s.Server(),
		Port:       s.Port(),
		SSLMode:    s.SSLMode(),
		Speakers:   len(s.Registry().IDs()),
	})
}

func (h *Handlers) listSpeakers(c echo.Context) error {
	speakers := h.session.Registry().All()
	out := make([]SpeakerResponse, 0, len(speakers))
	for _, sp := range speakers {
		out = append(out, speakerResponse(sp))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handlers) getSpeaker(c echo.Context) error {
	sp, ok := h.session.Registry().Get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "unknown_speaker",
			Message: "No speaker with that ID",
		})
	}
	return c.JSON(http.StatusOK, speakerResponse(sp))
}

func (h *Handlers) setVolume(c echo.Context) error {
	sp, ok := h.session.Registry().Get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "unknown_speaker",
			Message: "No speaker with that ID",
		})
	}

	var req VolumeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Volume < 0 || req.Volume > 100 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_volume",
			Message: "Volume must be between 0 and 100",
		})
	}

	volume := sp.Entities().Volume
	if volume == nil {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "no_entities",
			Message: "Speaker has no volume entity yet",
		})
	}

	// Prefer the stepped setter so API writes land on the same grid as
	// the number entity.
	if stepped, ok := volume.(interface{ SetDesired(int) }); ok {
		stepped.SetDesired(req.Volume)
	} else {
		volume.SetValue(req.Volume)
	}
	h.session.SynchronizeSpeakers()
	return c.JSON(http.StatusOK, speakerResponse(sp))
}

func (h *Handlers) setFilter(c echo.Context) error {
	sp, ok := h.session.Registry().Get(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "unknown_speaker",
			Message: "No speaker with that ID",
		})
	}

	var req FilterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	filter := sp.Entities().Filter
	if filter == nil {
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "no_entities",
			Message: "Speaker has no filter entity yet",
		})
	}

	filter.SelectOption(req.Filter)
	h.session.SynchronizeSpeakers()
	return c.JSON(http.StatusOK, speakerResponse(sp))
}

// command dispatches a voice command. The body is the raw service call data,
// passed through unchanged so each command applies its own field rules.
func (h *Handlers) command(c echo.Context) error {
	// Bind writes path params into the map, so it must not be nil.
	call := session.ServiceCall{}
	if err := c.Bind(&call); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	ctx := c.Request().Context()
	switch c.Param("command") {
	case "play":
		h.session.Play(ctx, call)
	case "say":
		h.session.Say(ctx, call)
	case "confirm":
		h.session.Confirm(ctx, call)
	case "negotiate":
		h.session.Negotiate(ctx, call)
	case "listening_start":
		h.session.ListeningStart(ctx, call)
	case "listening_stop":
		h.session.ListeningStop(ctx, call)
	case "restart":
		h.session.RestartSpeaker(ctx, call)
	default:
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "unknown_command",
			Message: "No such command",
		})
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handlers) probe(c echo.Context) error {
	var req ProbeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Server == "" {
		req.Server = config.DefaultServer
	}
	if req.Port == 0 {
		req.Port = config.DefaultPort
	}

	reachable := session.Probe(c.Request().Context(), req.Server, req.Port, req.Password, config.ParseSSLMode(req.SSLMode))
	return c.JSON(http.StatusOK, ProbeResponse{Reachable: reachable})
}

func speakerResponse(sp *entities.Speaker) SpeakerResponse {
	return SpeakerResponse{
		ID:        sp.ID(),
		Name:      sp.Name(),
		Online:    sp.Online(),
		Volume:    sp.Volume(),
		Filter:    sp.Filter(),
		Version:   sp.Version(),
		Address:   sp.Address(),
		Location:  sp.Location(),
		OutOfSync: sp.OutOfSync(),
	}
}
