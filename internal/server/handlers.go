package server

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/floorplan-vectorizer/internal/config"
	"github.com/ironsheep/floorplan-vectorizer/internal/errs"
	"github.com/ironsheep/floorplan-vectorizer/internal/export"
	"github.com/ironsheep/floorplan-vectorizer/internal/imaging"
	"github.com/ironsheep/floorplan-vectorizer/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "map_info", "floorplan_extract").
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
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("tool call failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Debug().Str("tool", params.Name).Msg("tool call")

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

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "map_info":
		return s.handleMapInfo(args)
	case "map_classify":
		return s.handleMapClassify(args)
	case "floorplan_edges":
		return s.handleFloorplanEdges(args)
	case "floorplan_extract":
		return s.handleFloorplanExtract(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
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

// loadMap fetches the raster through the cache and reads its calibration.
func (s *Server) loadMap(path, yamlPath string) (*imaging.Raster, *config.Calibration, error) {
	if path == "" || yamlPath == "" {
		return nil, nil, fmt.Errorf("path and yaml_path are required: %w", errs.ErrInvalidInput)
	}
	r, err := s.cache.Load(path)
	if err != nil {
		return nil, nil, err
	}
	cal, err := config.LoadCalibration(yamlPath)
	if err != nil {
		return nil, nil, err
	}
	return r, cal, nil
}

// === Map Handlers ===

type mapInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleMapInfo(args json.RawMessage) (interface{}, error) {
	var a mapInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadMapInfo(s.cache, a.Path)
}

type mapArgs struct {
	Path     string `json:"path"`
	YAMLPath string `json:"yaml_path"`
}

// ClassifyResult reports the cell states of a classified map.
type ClassifyResult struct {
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Occupied int      `json:"occupied"`
	Unknown  int      `json:"unknown"`
	Free     int      `json:"free"`
	Negate   bool     `json:"negate"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *Server) handleMapClassify(args json.RawMessage) (interface{}, error) {
	var a mapArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	r, cal, err := s.loadMap(a.Path, a.YAMLPath)
	if err != nil {
		return nil, err
	}

	// Count states before negation; negation only relabels them.
	classified := imaging.Classify(r, cal.OccupiedThresh, cal.FreeThresh, false)
	return &ClassifyResult{
		Width:    r.Width,
		Height:   r.Height,
		Occupied: classified.Count(imaging.Occupied),
		Unknown:  classified.Count(imaging.Unknown),
		Free:     classified.Count(imaging.Free),
		Negate:   cal.Negate,
		Warnings: cal.Warnings(),
	}, nil
}

// === Floor Plan Handlers ===

type floorplanEdgesArgs struct {
	mapArgs
	// nil selects the configured threshold; 0 is a valid explicit value
	ThresholdLow  *int `json:"threshold_low"`
	ThresholdHigh *int `json:"threshold_high"`
}

// thresholds resolves the hysteresis thresholds against the configured defaults.
func (a *floorplanEdgesArgs) thresholds(cfg *config.Config) (int, int) {
	low, high := cfg.Edges.Low, cfg.Edges.High
	if a.ThresholdLow != nil {
		low = *a.ThresholdLow
	}
	if a.ThresholdHigh != nil {
		high = *a.ThresholdHigh
	}
	return low, high
}

func (s *Server) handleFloorplanEdges(args json.RawMessage) (interface{}, error) {
	var a floorplanEdgesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	low, high := a.thresholds(s.cfg)
	r, cal, err := s.loadMap(a.Path, a.YAMLPath)
	if err != nil {
		return nil, err
	}

	classified := imaging.Classify(r, cal.OccupiedThresh, cal.FreeThresh, cal.Negate)
	edges, err := imaging.DetectEdges(classified, low, high)
	if err != nil {
		return nil, err
	}
	return imaging.EncodeEdgeImage(edges)
}

type floorplanExtractArgs struct {
	mapArgs
	VectorFormat        string `json:"vector_format"`
	OutputPath          string `json:"output_path"`
	IncludeMeasurements bool   `json:"include_measurements"`
}

// ExtractResult is the outcome of floorplan_extract.
type ExtractResult struct {
	Width        int                      `json:"width"`
	Height       int                      `json:"height"`
	Segments     []imaging.Segment        `json:"segments"`
	Summary      pipeline.Summary         `json:"summary"`
	Measurements []imaging.SegmentMeasure `json:"measurements,omitempty"`
	VectorFormat string                   `json:"vector_format,omitempty"`
	VectorPath   string                   `json:"vector_path,omitempty"`
	Document     string                   `json:"document,omitempty"`
}

func (s *Server) handleFloorplanExtract(args json.RawMessage) (interface{}, error) {
	var a floorplanExtractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var exporter export.Exporter
	if a.VectorFormat != "" {
		format, err := export.ParseFormat(a.VectorFormat)
		if err != nil {
			return nil, err
		}
		exporter, err = export.New(format, export.Options{Stroke: s.cfg.Export.SVGStroke})
		if err != nil {
			return nil, err
		}
	} else if a.OutputPath != "" {
		return nil, fmt.Errorf("output_path requires vector_format: %w", errs.ErrInvalidInput)
	}

	r, cal, err := s.loadMap(a.Path, a.YAMLPath)
	if err != nil {
		return nil, err
	}

	res, err := pipeline.Process(r, cal, s.cfg)
	if err != nil {
		return nil, err
	}

	out := &ExtractResult{
		Width:    r.Width,
		Height:   r.Height,
		Segments: res.Segments,
		Summary:  res.Summary,
	}

	if a.IncludeMeasurements {
		out.Measurements = make([]imaging.SegmentMeasure, 0, len(res.Segments))
		for _, seg := range res.Segments {
			out.Measurements = append(out.Measurements, imaging.MeasureSegment(seg, cal.Resolution))
		}
	}

	if exporter != nil {
		out.VectorFormat = string(exporter.Format())
		if a.OutputPath != "" {
			if err := exporter.Export(res.Segments, a.OutputPath); err != nil {
				return nil, err
			}
			out.VectorPath = a.OutputPath
		} else {
			doc, err := exporter.Encode(res.Segments)
			if err != nil {
				return nil, err
			}
			out.Document = string(doc)
		}
	}

	return out, nil
}
