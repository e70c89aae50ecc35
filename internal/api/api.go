// Package api defines the HTTP contract of the vectorization service:
// request parameters, response bodies, and a chi handler that binds
// parameters before calling into a ServerInterface.
//
// This file is maintained by hand. It keeps the layout of oapi-codegen's
// chi-server output so handlers stay interchangeable with generated ones,
// but there is no OpenAPI document to regenerate it from.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// Defines values for HealthResponseStatus.
const (
	Healthy   HealthResponseStatus = "healthy"
	Unhealthy HealthResponseStatus = "unhealthy"
)

// Error codes used in ErrorResponse.Error.
const (
	VALIDATIONERROR = "VALIDATION_ERROR"
	DECODEERROR     = "DECODE_ERROR"
	BODYTOOLARGE    = "BODY_TOO_LARGE"
	IMAGETOOLARGE   = "IMAGE_TOO_LARGE"
	INTERNALERROR   = "INTERNAL_ERROR"
	TIMEOUT         = "TIMEOUT"
)

// Content type of a vectorized image.
const SVGContentType = "image/svg+xml"

// HealthResponseStatus defines model for HealthResponse.Status.
type HealthResponseStatus string

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status    HealthResponseStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`

	// Uptime Seconds since the server started
	Uptime  *int    `json:"uptime,omitempty"`
	Version *string `json:"version,omitempty"`
}

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Error     string                  `json:"error"`
	Message   string                  `json:"message"`
	RequestId *string                 `json:"request_id,omitempty"`
	Details   *map[string]interface{} `json:"details,omitempty"`
}

// VectorizeParams defines parameters for Vectorize.
type VectorizeParams struct {
	// Scale Output units per pixel
	Scale *float64 `form:"scale,omitempty" json:"scale,omitempty"`

	// StrokeWidth Outline width in pixel units
	StrokeWidth *float64 `form:"stroke_width,omitempty" json:"stroke_width,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Health check
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)

	// Convert the raster image in the request body to SVG
	// (POST /vectorize)
	Vectorize(w http.ResponseWriter, r *http.Request, params VectorizeParams)
}

// MiddlewareFunc wraps a handler.
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// GetHealth operation middleware
func (siw *ServerInterfaceWrapper) GetHealth(w http.ResponseWriter, r *http.Request) {
	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetHealth(w, r)
	})

	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}

	handler.ServeHTTP(w, r)
}

// Vectorize operation middleware
func (siw *ServerInterfaceWrapper) Vectorize(w http.ResponseWriter, r *http.Request) {
	var err error

	// Parameter object where we will unmarshal all parameters from the context
	var params VectorizeParams

	// ------------- Optional query parameter "scale" -------------

	err = runtime.BindQueryParameter("form", true, false, "scale", r.URL.Query(), &params.Scale)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "scale", Err: err})
		return
	}

	// ------------- Optional query parameter "stroke_width" -------------

	err = runtime.BindQueryParameter("form", true, false, "stroke_width", r.URL.Query(), &params.StrokeWidth)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "stroke_width", Err: err})
		return
	}

	var handler http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.Vectorize(w, r, params)
	})

	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}

	handler.ServeHTTP(w, r)
}

// InvalidParamFormatError is passed to ErrorHandlerFunc when a parameter cannot be bound
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// ChiServerOptions configures HandlerWithOptions
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching the API
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates http.Handler with additional options
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health", wrapper.GetHealth)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/vectorize", wrapper.Vectorize)
	})

	return r
}
