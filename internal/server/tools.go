package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

var sourceProperty = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"working", "original"},
	"description": "Buffer to read: the adjusted working image (default) or the untouched original",
	"default":     "working",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Session lifecycle
		{
			Name:        "tone_open",
			Description: "Open an image file for tone adjustment. Starts a new session with a working copy of the pixels, discarding any earlier session for the same path. Other tone tools open the image automatically on first use.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tone_reset",
			Description: "Discard every adjustment and restore the working image to the original pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tone_close",
			Description: "Close the session for an image and release its memory.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Adjustments
		{
			Name:        "tone_adjust",
			Description: "Scale brightness, then contrast about the global mean, then saturation about per-pixel luma. 1.0 leaves a property unchanged. Adjustments accumulate on the working image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"brightness": map[string]interface{}{
						"type":        "number",
						"description": "Brightness factor (0 = black). Default 1.0",
						"default":     1.0,
						"minimum":     0,
					},
					"contrast": map[string]interface{}{
						"type":        "number",
						"description": "Contrast factor (0 = flat gray at the mean). Default 1.0",
						"default":     1.0,
						"minimum":     0,
					},
					"saturation": map[string]interface{}{
						"type":        "number",
						"description": "Saturation factor (0 = grayscale). Ignored for grayscale images. Default 1.0",
						"default":     1.0,
						"minimum":     0,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tone_auto_level",
			Description: "Stretch each channel so its 2nd percentile maps to 0 and its 98th percentile to 255. Channels with almost no spread are left unchanged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tone_clahe",
			Description: "Contrast Limited Adaptive Histogram Equalization. Boosts local contrast tile by tile; color images are equalized on L*a*b* lightness only so hues are kept.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"clip_limit": map[string]interface{}{
						"type":        "number",
						"description": "Histogram clip limit; higher values allow more contrast. Default 2.0",
						"default":     2.0,
					},
					"tile_grid": map[string]interface{}{
						"type":        "integer",
						"description": "Number of tiles along each axis. Default 8",
						"default":     8,
					},
					"tile_rows": map[string]interface{}{
						"type":        "integer",
						"description": "Tile rows, overriding tile_grid",
					},
					"tile_cols": map[string]interface{}{
						"type":        "integer",
						"description": "Tile columns, overriding tile_grid",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tone_s_curve",
			Description: "Apply a tone curve that keeps black, mid-gray and white fixed. Lifts shadows and deepens the upper half; 0 leaves the image unchanged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"intensity": map[string]interface{}{
						"type":        "number",
						"description": "Curve strength. Default 0.5",
						"default":     0.5,
						"minimum":     0,
					},
				},
				"required": []string{"path"},
			},
		},

		// Inspection and output
		{
			Name:        "tone_histogram",
			Description: "Get the 256-bin histogram of each channel with min, max, mean, standard deviation and percentiles. Optionally renders the histogram as a PNG chart.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"source": sourceProperty,
					"chart": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a base64 PNG chart of the histogram. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tone_preview",
			Description: "Return the working (or original) image as a base64-encoded PNG, downscaled to fit max_size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"source": sourceProperty,
					"max_size": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the preview in pixels. Defaults to the server setting",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tone_info",
			Description: "Get dimensions, format, color mode, EXIF camera data and the adjustment history of an image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "tone_save",
			Description: "Write the working (or original) image to a new file. The format follows the output extension; unsupported extensions are written as PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the file to write",
					},
					"source": sourceProperty,
				},
				"required": []string{"path", "output"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
