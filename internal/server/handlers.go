package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ironsheep/image-tone/internal/config"
	"github.com/ironsheep/image-tone/internal/imaging"
	"github.com/ironsheep/image-tone/internal/tone"
)

// errInvalidArgs marks tool arguments that could not be decoded or are missing.
var errInvalidArgs = errors.New("invalid arguments")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "tone_open", "tone_clahe").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments and out-of-range parameters return code -32602; any other
// tool failure returns -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		if isInvalidParams(err) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

func isInvalidParams(err error) bool {
	return errors.Is(err, errInvalidArgs) ||
		errors.Is(err, tone.ErrInvalidParameter) ||
		errors.Is(err, config.ErrOutOfRange)
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Session lifecycle
	case "tone_open":
		return s.handleToneOpen(args)
	case "tone_reset":
		return s.handleToneReset(args)
	case "tone_close":
		return s.handleToneClose(args)

	// Adjustments
	case "tone_adjust":
		return s.handleToneAdjust(args)
	case "tone_auto_level":
		return s.handleToneAutoLevel(args)
	case "tone_clahe":
		return s.handleToneCLAHE(args)
	case "tone_s_curve":
		return s.handleToneSCurve(args)

	// Inspection and output
	case "tone_histogram":
		return s.handleToneHistogram(args)
	case "tone_preview":
		return s.handleTonePreview(args)
	case "tone_info":
		return s.handleToneInfo(args)
	case "tone_save":
		return s.handleToneSave(args)

	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArgs, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments and checks that a path was given.
func decodeArgs(args json.RawMessage, v interface{ target() string }) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	if v.target() == "" {
		return fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	return nil
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// open decodes the image at path and starts a new session for it,
// replacing any session already open for that path.
func (s *Server) open(path string) (*openImage, error) {
	s.cache.Evict(path)
	d, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	img := &openImage{
		path:    path,
		info:    imaging.Describe(d, stat.Size()),
		session: tone.NewSession(imaging.ToRaster(d.Image)),
	}
	s.sessions.put(img)
	s.log.Debug().Str("path", path).Msg("session opened")
	return img, nil
}

// session returns the open session for path, opening one on first use.
func (s *Server) session(path string) (*openImage, error) {
	if img, ok := s.sessions.get(path); ok {
		return img, nil
	}
	return s.open(path)
}

// === Result types ===

// OpenResult describes a freshly opened image.
type OpenResult struct {
	Path     string `json:"path"`
	Channels int    `json:"channels"`
	*imaging.ImageInfo
}

// OperationResult reports the working buffer after an operation.
type OperationResult struct {
	Path       string                       `json:"path"`
	Operation  string                       `json:"operation"`
	Parameters map[string]float64           `json:"parameters,omitempty"`
	History    []string                     `json:"history"`
	Stats      map[string]tone.ChannelStats `json:"stats"`
}

// HistogramResult carries the histogram of one snapshot.
type HistogramResult struct {
	Path      string                       `json:"path"`
	Source    string                       `json:"source"`
	Histogram tone.HistogramTable          `json:"histogram"`
	Stats     map[string]tone.ChannelStats `json:"stats"`
	Chart     *imaging.PreviewResult       `json:"chart,omitempty"`
}

// InfoResult describes an image file and its session, if any.
type InfoResult struct {
	*imaging.ImageInfo
	Open    bool     `json:"open"`
	History []string `json:"history,omitempty"`
}

// SaveResult describes a written file.
type SaveResult struct {
	Output   string `json:"output"`
	Source   string `json:"source"`
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// CloseResult reports which sessions remain open.
type CloseResult struct {
	Path       string   `json:"path"`
	Closed     bool     `json:"closed"`
	OpenImages []string `json:"open_images"`
}

// === Session lifecycle handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (a *pathArgs) target() string { return a.Path }

func (s *Server) handleToneOpen(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.open(a.Path)
	if err != nil {
		return nil, err
	}
	return &OpenResult{
		Path:      a.Path,
		Channels:  img.session.Working().Channels(),
		ImageInfo: img.info,
	}, nil
}

func (s *Server) handleToneReset(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.session(a.Path)
	if err != nil {
		return nil, err
	}
	img.session.Reset()
	img.history = nil
	return s.operationResult(img, "reset", nil), nil
}

func (s *Server) handleToneClose(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	closed := s.sessions.remove(a.Path)
	s.cache.Evict(a.Path)
	return &CloseResult{
		Path:       a.Path,
		Closed:     closed,
		OpenImages: s.sessions.paths(),
	}, nil
}

// === Adjustment handlers ===

// apply runs op on the session for path and records it in the history.
func (s *Server) apply(path, name string, params map[string]float64, op func(*tone.Session) (*tone.Raster, error)) (interface{}, error) {
	img, err := s.session(path)
	if err != nil {
		return nil, err
	}
	if _, err := op(img.session); err != nil {
		return nil, err
	}
	img.history = append(img.history, name)
	return s.operationResult(img, name, params), nil
}

func (s *Server) operationResult(img *openImage, name string, params map[string]float64) *OperationResult {
	history := append([]string{}, img.history...)
	return &OperationResult{
		Path:       img.path,
		Operation:  name,
		Parameters: params,
		History:    history,
		Stats:      tone.Summarize(img.session.Histogram(tone.Working)),
	}
}

type toneAdjustArgs struct {
	Path       string   `json:"path"`
	Brightness *float64 `json:"brightness"`
	Contrast   *float64 `json:"contrast"`
	Saturation *float64 `json:"saturation"`
}

func (a *toneAdjustArgs) target() string { return a.Path }

func (s *Server) handleToneAdjust(args json.RawMessage) (interface{}, error) {
	var a toneAdjustArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	adj := tone.Adjustments{
		Brightness: valueOr(a.Brightness, 1),
		Contrast:   valueOr(a.Contrast, 1),
		Saturation: valueOr(a.Saturation, 1),
	}
	if err := s.limits.CheckAdjustments(adj.Brightness, adj.Contrast, adj.Saturation); err != nil {
		return nil, err
	}
	params := map[string]float64{
		"brightness": adj.Brightness,
		"contrast":   adj.Contrast,
		"saturation": adj.Saturation,
	}
	return s.apply(a.Path, "adjust", params, func(session *tone.Session) (*tone.Raster, error) {
		return session.Adjust(adj)
	})
}

func (s *Server) handleToneAutoLevel(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.apply(a.Path, "auto_level", nil, func(session *tone.Session) (*tone.Raster, error) {
		return session.AutoLevel()
	})
}

type toneCLAHEArgs struct {
	Path      string   `json:"path"`
	ClipLimit *float64 `json:"clip_limit"`
	TileGrid  int      `json:"tile_grid"`
	TileRows  int      `json:"tile_rows"`
	TileCols  int      `json:"tile_cols"`
}

func (a *toneCLAHEArgs) target() string { return a.Path }

func (s *Server) handleToneCLAHE(args json.RawMessage) (interface{}, error) {
	var a toneCLAHEArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	p := tone.DefaultCLAHEParams
	p.ClipLimit = valueOr(a.ClipLimit, p.ClipLimit)
	if a.TileGrid != 0 {
		p.TileRows, p.TileCols = a.TileGrid, a.TileGrid
	}
	if a.TileRows != 0 {
		p.TileRows = a.TileRows
	}
	if a.TileCols != 0 {
		p.TileCols = a.TileCols
	}
	if err := s.limits.CheckCLAHE(p.ClipLimit, p.TileRows); err != nil {
		return nil, err
	}
	if err := s.limits.TileGrid.Check("tile_cols", p.TileCols); err != nil {
		return nil, err
	}

	params := map[string]float64{
		"clip_limit": p.ClipLimit,
		"tile_rows":  float64(p.TileRows),
		"tile_cols":  float64(p.TileCols),
	}
	return s.apply(a.Path, "clahe", params, func(session *tone.Session) (*tone.Raster, error) {
		return session.CLAHE(p)
	})
}

type toneSCurveArgs struct {
	Path      string   `json:"path"`
	Intensity *float64 `json:"intensity"`
}

func (a *toneSCurveArgs) target() string { return a.Path }

func (s *Server) handleToneSCurve(args json.RawMessage) (interface{}, error) {
	var a toneSCurveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	intensity := valueOr(a.Intensity, 0.5)
	if err := s.limits.CheckIntensity(intensity); err != nil {
		return nil, err
	}
	params := map[string]float64{"intensity": intensity}
	return s.apply(a.Path, "s_curve", params, func(session *tone.Session) (*tone.Raster, error) {
		return session.SCurve(intensity)
	})
}

// === Inspection and output handlers ===

type sourceArgs struct {
	Path   string `json:"path"`
	Source string `json:"source"`
}

func (a *sourceArgs) target() string { return a.Path }

// snapshot returns a copy of the requested buffer for path.
func (s *Server) snapshot(path, source string) (*tone.Raster, tone.Source, error) {
	src, err := tone.ParseSource(source)
	if err != nil {
		return nil, 0, err
	}
	img, err := s.session(path)
	if err != nil {
		return nil, 0, err
	}
	if src == tone.Original {
		return img.session.Original(), src, nil
	}
	return img.session.Snapshot(), src, nil
}

type toneHistogramArgs struct {
	Path   string `json:"path"`
	Source string `json:"source"`
	Chart  bool   `json:"chart"`
}

func (a *toneHistogramArgs) target() string { return a.Path }

func (s *Server) handleToneHistogram(args json.RawMessage) (interface{}, error) {
	var a toneHistogramArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	raster, src, err := s.snapshot(a.Path, a.Source)
	if err != nil {
		return nil, err
	}

	table := tone.Histogram(raster)
	result := &HistogramResult{
		Path:      a.Path,
		Source:    src.String(),
		Histogram: table,
		Stats:     tone.Summarize(table),
	}
	if a.Chart {
		chart := imaging.RenderHistogram(table, imaging.ChartWidth, imaging.ChartHeight)
		if result.Chart, err = imaging.PreviewPNG(chart, 0); err != nil {
			return nil, err
		}
	}
	return result, nil
}

type tonePreviewArgs struct {
	Path    string `json:"path"`
	Source  string `json:"source"`
	MaxSize int    `json:"max_size"`
}

func (a *tonePreviewArgs) target() string { return a.Path }

func (s *Server) handleTonePreview(args json.RawMessage) (interface{}, error) {
	var a tonePreviewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.MaxSize < 0 {
		return nil, fmt.Errorf("%w: max_size must not be negative", errInvalidArgs)
	}
	if a.MaxSize == 0 {
		a.MaxSize = s.previewMax
	}
	raster, _, err := s.snapshot(a.Path, a.Source)
	if err != nil {
		return nil, err
	}
	return imaging.PreviewPNG(imaging.FromRaster(raster), a.MaxSize)
}

func (s *Server) handleToneInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	result := &InfoResult{ImageInfo: info}
	if img, ok := s.sessions.get(a.Path); ok {
		result.Open = true
		result.History = append([]string{}, img.history...)
	}
	return result, nil
}

type toneSaveArgs struct {
	Path   string `json:"path"`
	Output string `json:"output"`
	Source string `json:"source"`
}

func (a *toneSaveArgs) target() string { return a.Path }

func (s *Server) handleToneSave(args json.RawMessage) (interface{}, error) {
	var a toneSaveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Output == "" {
		return nil, fmt.Errorf("%w: output is required", errInvalidArgs)
	}
	if a.Output == a.Path {
		return nil, fmt.Errorf("%w: output must differ from the source image", errInvalidArgs)
	}
	raster, src, err := s.snapshot(a.Path, a.Source)
	if err != nil {
		return nil, err
	}
	if err := imaging.Save(imaging.FromRaster(raster), a.Output); err != nil {
		return nil, err
	}
	s.cache.Evict(a.Output)
	s.log.Info().Str("path", a.Path).Str("output", a.Output).Msg("image saved")

	return &SaveResult{
		Output:   a.Output,
		Source:   src.String(),
		MimeType: imaging.MimeType(imaging.FormatFromFilename(a.Output)),
		Width:    raster.Width(),
		Height:   raster.Height(),
	}, nil
}
