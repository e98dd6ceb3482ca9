// Package httpadapter serves health, readiness, metrics and summaries of
// generated products.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/radar-composite/internal/product"
	"github.com/couchcryptid/radar-composite/internal/radar"
)

// Server exposes the operational HTTP endpoints of the compositor.
type Server struct {
	httpServer *http.Server
	productDir string
	logger     *slog.Logger
}

// ProductSummary describes a stored composite without its data arrays.
type ProductSummary struct {
	Name        string   `json:"name"`
	Source      string   `json:"source"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Product     string   `json:"product"`
	Area        string   `json:"area"`
	XSize       int      `json:"xsize"`
	YSize       int      `json:"ysize"`
	Quantities  []string `json:"quantities"`
	Nodes       string   `json:"nodes,omitempty"`
	ProcessedAt string   `json:"processed_at,omitempty"`
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and,
// when productDir is set, /products/{name}.
func NewServer(addr string, ready sharedobs.ReadinessChecker, productDir string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		productDir: productDir,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if productDir != "" {
		mux.HandleFunc("GET /products/{name}", s.handleProduct)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(r.PathValue("name"))
	p, err := product.Open(filepath.Join(s.productDir, name))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	case errors.Is(err, product.ErrNotComposite):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	case err != nil:
		s.logger.Warn("failed to open product", "name", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "product unreadable"})
		return
	}

	sum := ProductSummary{
		Name: name, Source: p.Source, Date: p.Date, Time: p.Time,
		Product: p.ProductType, Area: p.AreaID, XSize: p.XSize, YSize: p.YSize,
	}
	for _, param := range p.Params {
		sum.Quantities = append(sum.Quantities, param.Quantity)
	}
	sum.Nodes, _ = p.Attrs.String(radar.AttrNodes)
	sum.ProcessedAt, _ = p.Attrs.String(product.AttrProcessedAt)
	writeJSON(w, http.StatusOK, sum)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
