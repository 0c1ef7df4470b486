package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/flowkit/internal/document"
	"github.com/samcharles93/flowkit/internal/logger"
	"github.com/samcharles93/flowkit/internal/version"
	"github.com/samcharles93/flowkit/pkg/message"
	"github.com/samcharles93/flowkit/pkg/script"
)

// DefaultMaxBodyBytes bounds request bodies when Config leaves it unset.
const DefaultMaxBodyBytes = 16 << 20

// HeaderDocumentID names the stored document on encode responses.
const HeaderDocumentID = "X-Document-Id"

type Config struct {
	MaxBodyBytes int64
	// AllowUnresolvedLabels is the default for script encodes that do not
	// pass allow_unresolved.
	AllowUnresolvedLabels bool
	Logger                logger.Logger
}

type Server struct {
	store *DocumentStore
	cfg   Config
	log   logger.Logger
	clock func() time.Time
}

func NewServer(store *DocumentStore, cfg Config) *Server {
	if store == nil {
		store = NewDocumentStore(0)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		store: store,
		cfg:   cfg,
		log:   log.With("component", "api"),
		clock: time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)

	e.POST("/v1/decode", s.handleDecode)
	e.POST("/v1/encode/script", s.handleEncodeScript)
	e.POST("/v1/encode/message", s.handleEncodeMessage)

	e.GET("/v1/documents/:id", s.handleGetDocument)
	e.GET("/v1/documents/:id/chunk", s.handleGetChunk)
	e.DELETE("/v1/documents/:id", s.handleDeleteDocument)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   version.String(),
		Documents: s.store.Len(),
	})
}

func (s *Server) handleDecode(c *echo.Context) error {
	data, err := readBody(c, s.cfg.MaxBodyBytes)
	if err != nil {
		return writeCodecError(c, err)
	}
	if len(data) == 0 {
		return writeBadRequest(c, "empty request body")
	}
	doc, err := document.Decode(data)
	if err != nil {
		s.log.Debug("decode failed", "bytes", len(data), "error", err)
		return writeCodecError(c, err)
	}
	rec := s.store.Create(doc, s.clock())
	s.log.Info("decoded chunk", "id", rec.ID, "summary", doc.Summary())
	return writeJSON(c, http.StatusOK, rec)
}

func (s *Server) handleEncodeScript(c *echo.Context) error {
	return s.handleEncode(c, script.Tag)
}

func (s *Server) handleEncodeMessage(c *echo.Context) error {
	return s.handleEncode(c, message.Tag)
}

func (s *Server) handleEncode(c *echo.Context, tag string) error {
	allow := s.cfg.AllowUnresolvedLabels
	if q := c.QueryParam("allow_unresolved"); q != "" {
		v, err := strconv.ParseBool(q)
		if err != nil {
			return writeError(c, http.StatusBadRequest, "invalid_request_error",
				fmt.Sprintf("allow_unresolved: %v", err), "allow_unresolved", "")
		}
		allow = v
	}

	data, err := readBody(c, s.cfg.MaxBodyBytes)
	if err != nil {
		return writeCodecError(c, err)
	}
	doc, err := document.Parse(data, tag)
	if err != nil {
		if status, _ := classify(err); status == http.StatusInternalServerError {
			return writeBadRequest(c, err.Error())
		}
		return writeCodecError(c, err)
	}

	out, err := doc.Encode(document.Options{AllowUnresolvedLabels: allow, Logger: s.log})
	if err != nil {
		return writeCodecError(c, err)
	}
	rec := s.store.Create(doc, s.clock())
	s.log.Info("encoded chunk", "id", rec.ID, "bytes", len(out), "summary", doc.Summary())

	c.Response().Header().Set(HeaderDocumentID, rec.ID)
	return writeBlob(c, http.StatusOK, echo.MIMEOctetStream, out)
}

func (s *Server) handleGetDocument(c *echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "document not found")
	}
	return writeJSON(c, http.StatusOK, rec)
}

func (s *Server) handleGetChunk(c *echo.Context) error {
	rec, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "document not found")
	}
	out, err := rec.Encode(document.Options{AllowUnresolvedLabels: s.cfg.AllowUnresolvedLabels, Logger: s.log})
	if err != nil {
		return writeCodecError(c, err)
	}
	c.Response().Header().Set(HeaderDocumentID, rec.ID)
	return writeBlob(c, http.StatusOK, echo.MIMEOctetStream, out)
}

func (s *Server) handleDeleteDocument(c *echo.Context) error {
	id := c.Param("id")
	if !s.store.Delete(id) {
		return writeNotFound(c, "document not found")
	}
	return writeJSON(c, http.StatusOK, DeleteResponse{ID: id, Deleted: true})
}
