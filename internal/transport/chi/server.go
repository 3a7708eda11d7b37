// Package chi is the HTTP transport for the catalog search API.
package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"strconv"

	// Image formats accepted on upload.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylist/internal/domain"
	healthuc "github.com/kailas-cloud/stylist/internal/usecase/health"
	searchuc "github.com/kailas-cloud/stylist/internal/usecase/search"
	"github.com/kailas-cloud/stylist/internal/version"
)

// maxUploadBytes bounds image upload size.
const maxUploadBytes = 10 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search API over chi.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	defaultTopK   int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, defaultTopK int, logger *zap.Logger) *Server {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	s := &Server{
		search:      search,
		health:      health,
		defaultTopK: defaultTopK,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrIndexNotLoaded, http.StatusServiceUnavailable, "index_not_loaded"),
		sentinelHandler(domain.ErrInvalidTopK, http.StatusBadRequest, "validation_failed"),
		sentinelHandler(domain.ErrSlotOutOfRange, http.StatusNotFound, "slot_out_of_range"),
		sentinelHandler(domain.ErrNotAnImage, http.StatusBadRequest, "invalid_image"),
		sentinelHandler(domain.ErrImageFileMissing, http.StatusNotFound, "image_file_missing"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"),
	}
	return s
}

// Mount attaches all routes to the router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/", s.Root)
	r.Post("/search/text", s.SearchText)
	r.Post("/search/image", s.SearchImage)
	r.Get("/image/{idx}", s.Image)
	r.Get("/healthz", s.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// Root handles GET /, the liveness message.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message: "Fashion RAG API is running",
		Version: version.Version,
	})
}

// SearchText handles POST /search/text.
func (s *Server) SearchText(w http.ResponseWriter, r *http.Request) {
	var req textSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "query is required")
		return
	}

	topK := s.defaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	resp, err := s.search.SearchText(r.Context(), req.Query, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponseFromUsecase(resp))
}

// SearchImage handles POST /search/image. The image arrives as a multipart
// "file" field or as the raw request body; top_k comes from the query string.
func (s *Server) SearchImage(w http.ResponseWriter, r *http.Request) {
	topK := s.defaultTopK
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "top_k must be an integer")
			return
		}
		topK = v
	}

	data, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Cannot read upload: "+err.Error())
		return
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		s.handleDomainError(w, fmt.Errorf("%w: %v", domain.ErrNotAnImage, err))
		return
	}

	resp, err := s.search.SearchImage(r.Context(), data, topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponseFromUsecase(resp))
}

// Image handles GET /image/{idx}: streams the raw image bytes for a slot.
func (s *Server) Image(w http.ResponseWriter, r *http.Request) {
	slot, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "idx must be an integer")
		return
	}

	item, err := s.search.Item(slot)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	f, err := os.Open(item.ImagePath)
	if err != nil {
		s.handleDomainError(w, fmt.Errorf("%w: slot %d: %v", domain.ErrImageFileMissing, slot, err))
		return
	}
	defer func() { _ = f.Close() }()

	// Sniff the content type from the leading bytes, then stream the rest.
	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		s.handleDomainError(w, fmt.Errorf("read image for slot %d: %w", slot, err))
		return
	}
	head = head[:n]

	w.Header().Set("Content-Type", http.DetectContentType(head))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(head)
	_, _ = io.Copy(w, f)
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func readUpload(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	if file, _, err := r.FormFile("file"); err == nil {
		defer func() { _ = file.Close() }()
		return io.ReadAll(file)
	}
	// Not multipart, accept the raw body.
	return io.ReadAll(r.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err, err.Error()) {
			return
		}
	}
	s.logger.Error("Unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
