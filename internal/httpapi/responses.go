package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/image-tone/internal/config"
	"github.com/ironsheep/image-tone/internal/imaging"
	"github.com/ironsheep/image-tone/internal/store"
	"github.com/ironsheep/image-tone/internal/tone"
)

// errBadRequest marks malformed client input.
var errBadRequest = errors.New("bad request")

// ImageResponse describes a stored original.
type ImageResponse struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	Format      string     `json:"format"`
	Mode        string     `json:"mode"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	SizeBytes   int64      `json:"size_bytes"`
	CameraModel string     `json:"camera_model,omitempty"`
	CaptureTime *time.Time `json:"capture_time,omitempty"`
}

// AdjustResponse reports a brightness/contrast/saturation run.
type AdjustResponse struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	OutputID   string  `json:"output_id"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
}

// OperationResponse reports any other processing run.
type OperationResponse struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message"`
	OutputID   string             `json:"output_id"`
	Operation  string             `json:"operation"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
}

// HistogramResponse carries the histogram of an original or processed image.
type HistogramResponse struct {
	ID        string                       `json:"id"`
	Processed bool                         `json:"processed"`
	Histogram tone.HistogramTable          `json:"histogram"`
	Stats     map[string]tone.ChannelStats `json:"stats"`
}

// PreviewResponse carries an image as a data URL.
type PreviewResponse struct {
	ID        string `json:"id"`
	Processed bool   `json:"processed"`
	MimeType  string `json:"mime_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Data      string `json:"data"`
}

// Base64Response is returned by /process-base64.
type Base64Response struct {
	Success    bool    `json:"success"`
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	Data       string  `json:"data"`
}

// BatchItem is the outcome for one file of a batch.
type BatchItem struct {
	Filename string `json:"filename"`
	ID       string `json:"id,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// BatchResponse is returned by /batch/process.
type BatchResponse struct {
	Processed  int         `json:"processed"`
	Failed     int         `json:"failed"`
	Brightness float64     `json:"brightness"`
	Contrast   float64     `json:"contrast"`
	Saturation float64     `json:"saturation"`
	Results    []BatchItem `json:"results"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// statusFor maps an error to the HTTP status a client should see.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, store.ErrInvalidID),
		errors.Is(err, tone.ErrInvalidParameter),
		errors.Is(err, config.ErrOutOfRange),
		errors.Is(err, imaging.ErrNotImage):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail writes err with the matching status, logging server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, err.Error())
}

// parseForm reads url-encoded and multipart bodies alike.
func (s *Server) parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
			return formError(err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return formError(err)
	}
	return nil
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// floatParam returns the form or query value name, or def when absent.
func floatParam(r *http.Request, name string, def float64) (float64, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", errBadRequest, name)
	}
	return f, nil
}

// intParam is floatParam for integers.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return n, nil
}

// processedParam reads the "processed" query flag.
func processedParam(r *http.Request, def bool) (bool, error) {
	v := r.URL.Query().Get("processed")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: processed must be true or false", errBadRequest)
	}
	return b, nil
}

// adjustmentParams reads and range-checks brightness, contrast and saturation.
func (s *Server) adjustmentParams(r *http.Request) (tone.Adjustments, error) {
	var a tone.Adjustments
	var err error
	if a.Brightness, err = floatParam(r, "brightness", 1); err != nil {
		return a, err
	}
	if a.Contrast, err = floatParam(r, "contrast", 1); err != nil {
		return a, err
	}
	if a.Saturation, err = floatParam(r, "saturation", 1); err != nil {
		return a, err
	}
	return a, s.cfg.Limits.CheckAdjustments(a.Brightness, a.Contrast, a.Saturation)
}
