package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"sort"
	"time"

	"github.com/docforensics/forensics-api/internal/forensics/domain"
	"github.com/docforensics/forensics-api/internal/forensics/service"
	"github.com/docforensics/forensics-api/pkg/config"
	"github.com/docforensics/forensics-api/pkg/errors"
	"github.com/docforensics/forensics-api/pkg/httputil"
	"github.com/docforensics/forensics-api/pkg/logger"
)

const (
	// multipart framing allowed on top of the file itself
	multipartOverhead = 1 << 20
	// parts above this spill to disk while the form is parsed
	maxFormMemory = 32 << 20
	uploadField   = "file"
)

// Analyzer runs the forensic analysis of one upload
type Analyzer interface {
	Analyze(ctx context.Context, up service.Upload) (*domain.AnalysisReport, error)
}

// Handler handles HTTP requests for document analysis
type Handler struct {
	service   Analyzer
	api       config.APIConfig
	maxUpload int64
	log       *logger.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(svc Analyzer, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		service:   svc,
		api:       cfg.API,
		maxUpload: cfg.Upload.MaxSize,
		log:       log.WithComponent("handler"),
	}
}

// StatusResponse is returned by the root endpoint
type StatusResponse struct {
	Message   string `json:"message"`
	Version   string `json:"version"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Root handles GET / and GET /api
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, StatusResponse{
		Message:   h.api.Name + " is running",
		Version:   h.api.Version,
		Status:    "active",
		Timestamp: domain.FormatTimestamp(time.Now().UTC()),
	})
}

// Health handles GET /health and GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.JSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: domain.FormatTimestamp(time.Now().UTC()),
	})
}

// Analyze handles POST /analyze and POST /api/analyze
// Accepts a multipart form with the document in the "file" field. Any other
// single file field is accepted too.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithRequestID(httputil.GetRequestID(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.Error(w, errors.FileTooLarge(h.maxUpload))
			return
		}
		log.Warn().Err(err).Msg("invalid multipart form")
		httputil.Error(w, errors.BadRequest("Invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	header := uploadedFile(r.MultipartForm)
	if header == nil || header.Filename == "" {
		httputil.Error(w, errors.NoFile())
		return
	}
	if header.Size > h.maxUpload {
		httputil.Error(w, errors.FileTooLarge(h.maxUpload))
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Error().Err(err).Msg("failed to open uploaded file")
		httputil.Error(w, errors.Internal("Failed to read uploaded file"))
		return
	}
	defer file.Close()

	up := service.Upload{
		Filename:     header.Filename,
		DeclaredType: header.Header.Get("Content-Type"),
		Size:         header.Size,
		Content:      file,
	}

	report, err := h.service.Analyze(r.Context(), up)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Str("filename", up.Filename).Msg("analysis cancelled by client")
		} else {
			log.Error().Err(err).Str("filename", up.Filename).Msg("analysis failed")
		}
		httputil.Error(w, errors.AnalysisFailed(err))
		return
	}

	httputil.JSON(w, http.StatusOK, report)
}

// uploadedFile returns the "file" part, or the first file part by field name
func uploadedFile(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	if files := form.File[uploadField]; len(files) > 0 {
		return files[0]
	}

	fields := make([]string, 0, len(form.File))
	for name := range form.File {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	for _, name := range fields {
		if files := form.File[name]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}
