package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/atikulmunna/quill/internal/model"
	"github.com/atikulmunna/quill/internal/registry"
	"github.com/atikulmunna/quill/internal/source"
)

// sourceView is the JSON form of a source.
type sourceView struct {
	Name     string      `json:"name"`
	Level    model.Level `json:"level"`
	Path     string      `json:"path"`
	Template string      `json:"template"`
}

func viewOf(s *source.Source) sourceView {
	return sourceView{
		Name:     s.Name(),
		Level:    s.Threshold(),
		Path:     s.Path(),
		Template: s.Template(),
	}
}

// sourceRequest creates or updates a source. Nil fields are left unchanged.
type sourceRequest struct {
	Name   string  `json:"name"`
	Level  *string `json:"level"`
	Path   *string `json:"path"`
	Format *string `json:"format"`
}

func (r sourceRequest) options() ([]source.Option, error) {
	var opts []source.Option
	if r.Level != nil {
		level, err := model.ParseLevel(*r.Level)
		if err != nil {
			return nil, err
		}
		opts = append(opts, source.WithThreshold(level))
	}
	if r.Path != nil {
		opts = append(opts, source.WithPath(*r.Path))
	}
	if r.Format != nil {
		opts = append(opts, source.WithTemplate(*r.Format))
	}
	return opts, nil
}

type publishRequest struct {
	Level   string `json:"level" binding:"required"`
	Message string `json:"message"`
}

func abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// statusOf maps registry errors to HTTP status codes.
func statusOf(err error) int {
	switch errors.Cause(err) {
	case registry.ErrExists:
		return http.StatusConflict
	case registry.ErrProtected:
		return http.StatusForbidden
	case registry.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) lookup(c *gin.Context) (*source.Source, bool) {
	name := c.Param("name")
	src, ok := s.dispatch.Lookup(name)
	if !ok {
		abort(c, http.StatusNotFound, errors.Wrapf(registry.ErrNotFound, "source %q", name))
		return nil, false
	}
	return src, true
}

func (s *Server) listSources(c *gin.Context) {
	names := s.dispatch.Sources()
	views := make([]sourceView, 0, len(names))
	for _, name := range names {
		views = append(views, viewOf(s.dispatch.Source(name)))
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) getSource(c *gin.Context) {
	src, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(src))
}

func (s *Server) createSource(c *gin.Context) {
	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		abort(c, http.StatusBadRequest, errors.New("name is required"))
		return
	}
	opts, err := req.options()
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	src := source.New(req.Name, opts...)
	if err := s.dispatch.Register(src); err != nil {
		abort(c, statusOf(err), err)
		return
	}
	c.JSON(http.StatusCreated, viewOf(src))
}

func (s *Server) updateSource(c *gin.Context) {
	src, ok := s.lookup(c)
	if !ok {
		return
	}
	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	opts, err := req.options()
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	src.Configure(opts...)
	c.JSON(http.StatusOK, viewOf(src))
}

func (s *Server) deleteSource(c *gin.Context) {
	if err := s.dispatch.Unregister(c.Param("name")); err != nil {
		abort(c, statusOf(err), err)
		return
	}
	c.Status(http.StatusNoContent)
}

// publish logs a message through the named source, creating it on demand.
func (s *Server) publish(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	level, err := model.ParseLevel(req.Level)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	s.dispatch.Publish(c.Param("name"), level, req.Message)
	c.Status(http.StatusAccepted)
}
