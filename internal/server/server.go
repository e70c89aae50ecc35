package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/kiesman99/raster2vector/internal/api"
	"github.com/kiesman99/raster2vector/internal/vectorize"
	"github.com/kiesman99/raster2vector/pkg/raster"
)

// Config holds the defaults and limits applied to every request
type Config struct {
	Scale        float64
	StrokeWidth  float64
	Workers      int
	MaxPixels    int
	MaxBodyBytes int64
}

// DefaultConfig returns the limits used when none are configured
func DefaultConfig() Config {
	return Config{
		Scale:        10.0,
		StrokeWidth:  0.01,
		Workers:      1,
		MaxPixels:    4096 * 4096,
		MaxBodyBytes: 32 << 20,
	}
}

// Server implements the ServerInterface from the api package
type Server struct {
	startTime time.Time
	version   string
	cfg       Config
}

// NewServer creates a new server instance
func NewServer(version string, cfg Config) *Server {
	return &Server{
		startTime: time.Now(),
		version:   version,
		cfg:       cfg,
	}
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error encoding health response: %v", err)
	}
}

// Vectorize implements the conversion endpoint
func (s *Server) Vectorize(w http.ResponseWriter, r *http.Request, params api.VectorizeParams) {
	requestID := requestIDFrom(r)

	opts, err := s.vectorizeOptions(params)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR, err.Error(), &requestID, nil)
		return
	}

	body := r.Body
	if s.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		s.handleError(w, err, &requestID)
		return
	}
	if len(data) == 0 {
		s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR,
			"request body must contain an image", &requestID, nil)
		return
	}

	// Check dimensions before allocating the pixel buffer
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		s.handleError(w, &raster.DecodeError{Reason: err.Error()}, &requestID)
		return
	}
	if s.cfg.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(s.cfg.MaxPixels) {
		s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, api.IMAGETOOLARGE,
			fmt.Sprintf("image is %dx%d, limit is %d pixels", cfg.Width, cfg.Height, s.cfg.MaxPixels),
			&requestID, map[string]interface{}{
				"width":      cfg.Width,
				"height":     cfg.Height,
				"max_pixels": s.cfg.MaxPixels,
			})
		return
	}

	buf, err := raster.Decode(bytes.NewReader(data))
	if err != nil {
		s.handleError(w, err, &requestID)
		return
	}

	if err := r.Context().Err(); err != nil {
		s.handleError(w, err, &requestID)
		return
	}

	doc, report, err := vectorize.Run(buf, opts)
	if err != nil {
		s.handleError(w, err, &requestID)
		return
	}

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		s.handleError(w, err, &requestID)
		return
	}

	log.Printf("[%s] vectorized %dx%d image (%d channels) into %d polygons in %v",
		requestID, buf.Width(), buf.Height(), buf.Channels(), report.Polygons, report.Actual)

	w.Header().Set("Content-Type", api.SVGContentType)
	w.Header().Set("X-Request-ID", requestID)
	w.Header().Set("X-Image-Width", strconv.Itoa(buf.Width()))
	w.Header().Set("X-Image-Height", strconv.Itoa(buf.Height()))
	w.Header().Set("X-Image-Channels", strconv.Itoa(buf.Channels()))
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Bytes()); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// vectorizeOptions merges request parameters over the server defaults
func (s *Server) vectorizeOptions(params api.VectorizeParams) (vectorize.Options, error) {
	opts := vectorize.Options{
		Scale:       s.cfg.Scale,
		StrokeWidth: s.cfg.StrokeWidth,
		Workers:     s.cfg.Workers,
	}

	if params.Scale != nil {
		opts.Scale = *params.Scale
	}
	if params.StrokeWidth != nil {
		opts.StrokeWidth = *params.StrokeWidth
	}

	if !vectorize.ValidScale(opts.Scale) {
		return opts, fmt.Errorf("scale must be a finite number greater than 0")
	}
	if !vectorize.ValidStrokeWidth(opts.StrokeWidth) {
		return opts, fmt.Errorf("stroke_width must be a finite number not below 0")
	}

	return opts, nil
}

// HandleParamError reports a query parameter that could not be parsed
func (s *Server) HandleParamError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestIDFrom(r)
	s.writeErrorResponse(w, http.StatusBadRequest, api.VALIDATIONERROR, err.Error(), &requestID, nil)
}

// handleError maps pipeline errors to responses
func (s *Server) handleError(w http.ResponseWriter, err error, requestID *string) {
	var decodeErr *raster.DecodeError
	if errors.As(err, &decodeErr) {
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, api.DECODEERROR,
			decodeErr.Reason, requestID, nil)
		return
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, api.BODYTOOLARGE,
			fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit), requestID, nil)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		s.writeErrorResponse(w, http.StatusGatewayTimeout, api.TIMEOUT,
			"request timed out", requestID, nil)
		return
	}

	log.Printf("[%s] vectorize failed: %v", *requestID, err)
	s.writeErrorResponse(w, http.StatusInternalServerError, api.INTERNALERROR,
		"Internal server error", requestID, nil)
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	w.Header().Set("Content-Type", "application/json")
	if requestID != nil {
		w.Header().Set("X-Request-ID", *requestID)
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// requestIDFrom returns the id assigned by the RequestID middleware,
// or generates one when the middleware is not installed
func requestIDFrom(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return generateRequestID()
}

// generateRequestID generates a unique request ID
func generateRequestID() string {
	return fmt.Sprintf("req_%d", time.Now().UnixNano())
}
