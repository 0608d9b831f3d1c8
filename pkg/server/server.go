package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/flowsmith/flowsmith/pkg/events"
	"github.com/flowsmith/flowsmith/pkg/relay"
)

// RelayTopic is the watermill topic every relay event is mirrored to for
// monitoring subscribers.
const RelayTopic = "relay-events"

// Server is the transport adapter: it decodes generation requests, runs the
// relay pipeline, and streams the resulting events to the client as SSE
// frames. Authentication beyond the optional shared token is the job of the
// surrounding deployment.
type Server struct {
	service  *relay.Service
	mirror   events.EventSink
	apiToken string
}

type Option func(*Server)

// WithAPIToken requires a bearer token on the generate endpoint.
func WithAPIToken(token string) Option {
	return func(s *Server) {
		s.apiToken = token
	}
}

// WithEventMirror mirrors every relay event to the given sink (typically a
// WatermillSink on RelayTopic) in addition to the client stream.
func WithEventMirror(sink events.EventSink) Option {
	return func(s *Server) {
		s.mirror = sink
	}
}

func New(service *relay.Service, options ...Option) *Server {
	s := &Server{service: service}
	for _, o := range options {
		o(s)
	}
	return s
}

// Handler builds the gin engine with all routes registered.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	if s.apiToken != "" {
		api.Use(s.authMiddleware())
	}
	api.POST("/generate", s.generateHandler)

	return engine
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header || token != s.apiToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing bearer token"})
			return
		}
		c.Next()
	}
}

func (s *Server) generateHandler(c *gin.Context) {
	var req relay.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	req.RequestID = uuid.NewString()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Request-Id", req.RequestID)

	sink := newSSESink(c.Writer)
	var out events.EventSink = sink
	if s.mirror != nil {
		out = events.NewMultiSink(sink, s.mirror)
	}

	// the request context is cancelled when the client disconnects, which
	// stops the relay's provider read loop promptly
	if err := s.service.Generate(c.Request.Context(), &req, out); err != nil {
		log.Warn().Err(err).Msg("generation finished with error")
	}

	// the stream always ends with the terminal marker, error or not
	sink.writeDone()
}
