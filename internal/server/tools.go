package server

import "github.com/ironsheep/floorplan-vectorizer/internal/export"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	formats := make([]string, 0, len(export.Formats))
	for _, f := range export.Formats {
		formats = append(formats, string(f))
	}

	return []Tool{
		{
			Name:        "map_info",
			Description: "Load an occupancy-grid map (PGM, PNG or JPEG) and return its dimensions, format and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the map raster"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "map_classify",
			Description: "Classify every map cell as occupied, unknown or free using the thresholds of a calibration file, and return the cell counts.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty("Absolute path to the map raster"),
					"yaml_path": pathProperty("Absolute path to the map calibration YAML"),
				},
				"required": []string{"path", "yaml_path"},
			},
		},
		{
			Name:        "floorplan_edges",
			Description: "Run Canny edge detection on the classified map and return the edge map as a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty("Absolute path to the map raster"),
					"yaml_path": pathProperty("Absolute path to the map calibration YAML"),
					"threshold_low": map[string]interface{}{
						"type":        "integer",
						"description": "Lower hysteresis threshold. Defaults to the configured value (100)",
					},
					"threshold_high": map[string]interface{}{
						"type":        "integer",
						"description": "Upper hysteresis threshold. Defaults to the configured value (200)",
					},
				},
				"required": []string{"path", "yaml_path"},
			},
		},
		{
			Name:        "floorplan_extract",
			Description: "Extract wall segments from a map. Returns the segments with a length summary, and optionally writes or returns a vector document.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":      pathProperty("Absolute path to the map raster"),
					"yaml_path": pathProperty("Absolute path to the map calibration YAML"),
					"vector_format": map[string]interface{}{
						"type":        "string",
						"enum":        formats,
						"description": "Optional vector document format",
					},
					"output_path": pathProperty("Where to write the vector document. If omitted the document is returned inline"),
					"include_measurements": map[string]interface{}{
						"type":        "boolean",
						"description": "Include per-segment length and angle. Default false",
						"default":     false,
					},
				},
				"required": []string{"path", "yaml_path"},
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
