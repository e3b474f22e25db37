package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/tokbin/internal/corpus"
)

// Loader is the dataloader surface the server exposes.
type Loader interface {
	Config() corpus.Config
	BatchN(split string, n int) (*corpus.Batch, error)
	Item(split string, idx int) (*corpus.Batch, error)
	Layout(split string) (corpus.Layout, error)
}

// MaxBatchSize bounds the size query parameter.
const MaxBatchSize = 4096

type Server struct {
	loader Loader
	clock  func() time.Time
}

func NewServer(loader Loader) *Server {
	return &Server{
		loader: loader,
		clock:  time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/splits/:split/batch", s.handleBatch)
	e.GET("/v1/splits/:split/items/:index", s.handleItem)
	e.GET("/v1/splits/:split/layout", s.handleLayout)
}

func (s *Server) handleHealth(c *echo.Context) error {
	cfg := s.loader.Config()
	return writeJSON(c, http.StatusOK, HealthResponse{
		Status:  "ok",
		Dataset: cfg.Dataset,
		Variant: cfg.Variant.String(),
		Dir:     cfg.Dir(),
	})
}

func (s *Server) handleBatch(c *echo.Context) error {
	split := c.Param("split")
	size, err := intParam(c.QueryParam("size"), "size", s.loader.Config().BatchSize)
	if err != nil {
		return writeBadRequest(c, err.Error(), "size")
	}
	if size == 0 || size > MaxBatchSize {
		return writeBadRequest(c, "size must be between 1 and 4096", "size")
	}
	b, err := s.loader.BatchN(split, size)
	if err != nil {
		return writeLoaderError(c, err)
	}
	return writeJSON(c, http.StatusOK, s.batchResponse(b, nil))
}

func (s *Server) handleItem(c *echo.Context) error {
	split := c.Param("split")
	idx, err := intParam(c.Param("index"), "index", 0)
	if err != nil {
		return writeBadRequest(c, err.Error(), "index")
	}
	b, err := s.loader.Item(split, idx)
	if err != nil {
		return writeLoaderError(c, err)
	}
	return writeJSON(c, http.StatusOK, s.batchResponse(b, &idx))
}

func (s *Server) handleLayout(c *echo.Context) error {
	split := c.Param("split")
	l, err := s.loader.Layout(split)
	if err != nil {
		return writeLoaderError(c, err)
	}
	cfg := s.loader.Config()
	return writeJSON(c, http.StatusOK, LayoutResponse{
		Object:   "layout",
		Split:    split,
		Variant:  cfg.Variant.String(),
		Kind:     l.Kind.String(),
		Shape:    l.Shape,
		Examples: l.Count,
		Path:     cfg.SplitPath(split),
	})
}

func (s *Server) batchResponse(b *corpus.Batch, idx *int) BatchResponse {
	object := "batch"
	if idx != nil {
		object = "item"
	}
	return BatchResponse{
		ID:      newBatchID(),
		Object:  object,
		Created: s.clock().Unix(),
		Split:   b.Split,
		Variant: s.loader.Config().Variant.String(),
		Index:   idx,
		Shape:   b.Shape,
		X:       b.X,
		Y:       b.Y,
		Mask:    b.Mask,
	}
}
