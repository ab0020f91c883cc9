package server

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/floorplan-vectorizer/internal/export"
	"github.com/ironsheep/floorplan-vectorizer/internal/imaging"
)

const testCalibration = `image: map.pgm
resolution: 0.05
origin: [0.0, 0.0, 0.0]
negate: 0
occupied_thresh: 0.65
free_thresh: 0.25
`

// createTestMap writes a white 100x100 PGM with a black stripe at rows 50-52
// plus its calibration, and returns both paths.
func createTestMap(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()

	r := imaging.NewRaster(100, 100)
	for i := range r.Pix {
		r.Pix[i] = 255
	}
	for y := 50; y < 53; y++ {
		for x := 0; x < 100; x++ {
			r.Set(x, y, 0)
		}
	}

	mapPath := filepath.Join(dir, "map.pgm")
	f, err := os.Create(mapPath)
	if err != nil {
		t.Fatalf("failed to create map: %v", err)
	}
	defer f.Close()
	if err := imaging.EncodePGM(f, r); err != nil {
		t.Fatalf("failed to encode map: %v", err)
	}

	yamlPath := filepath.Join(dir, "map.yaml")
	if err := os.WriteFile(yamlPath, []byte(testCalibration), 0644); err != nil {
		t.Fatalf("failed to write calibration: %v", err)
	}
	return mapPath, yamlPath
}

// callTool runs a tools/call request and decodes the text payload into out.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) *MCPResponse {
	t.Helper()

	paramsJSON, _ := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil || out == nil {
		return resp
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	text := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("failed to decode tool result: %v\n%s", err, text)
	}
	return resp
}

func TestHandleToolsCall_MapInfo(t *testing.T) {
	s := newTestServer()
	mapPath, _ := createTestMap(t)

	var info imaging.MapInfo
	resp := callTool(t, s, "map_info", map[string]interface{}{"path": mapPath}, &info)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if info.Width != 100 || info.Height != 100 {
		t.Errorf("dimensions: got %dx%d", info.Width, info.Height)
	}
	if info.Format != "pgm" {
		t.Errorf("format: got %q, want pgm", info.Format)
	}
}

func TestHandleToolsCall_MapClassify(t *testing.T) {
	s := newTestServer()
	mapPath, yamlPath := createTestMap(t)

	var res ClassifyResult
	resp := callTool(t, s, "map_classify", map[string]interface{}{
		"path":      mapPath,
		"yaml_path": yamlPath,
	}, &res)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if res.Free != 300 || res.Occupied != 9700 || res.Unknown != 0 {
		t.Errorf("unexpected counts %+v", res)
	}
}

func TestHandleToolsCall_FloorplanEdges(t *testing.T) {
	s := newTestServer()
	mapPath, yamlPath := createTestMap(t)

	var res imaging.EdgeImageResult
	resp := callTool(t, s, "floorplan_edges", map[string]interface{}{
		"path":      mapPath,
		"yaml_path": yamlPath,
	}, &res)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if res.EdgePixels != 200 {
		t.Errorf("edge pixels: got %d, want 200", res.EdgePixels)
	}
	if res.MimeType != "image/png" || res.ImageBase64 == "" {
		t.Errorf("unexpected image payload: %s, %d bytes", res.MimeType, len(res.ImageBase64))
	}
}

func TestHandleToolsCall_FloorplanExtract(t *testing.T) {
	s := newTestServer()
	mapPath, yamlPath := createTestMap(t)

	var res ExtractResult
	resp := callTool(t, s, "floorplan_extract", map[string]interface{}{
		"path":                 mapPath,
		"yaml_path":            yamlPath,
		"vector_format":        "json",
		"include_measurements": true,
	}, &res)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	if len(res.Segments) < 2 || res.Summary.Segments != len(res.Segments) {
		t.Fatalf("unexpected segments %v / summary %+v", res.Segments, res.Summary)
	}
	for _, seg := range res.Segments {
		if seg.Y1 != seg.Y2 || (seg.Y1 != 49 && seg.Y1 != 52) {
			t.Errorf("unexpected segment %+v", seg)
		}
	}
	if len(res.Measurements) != len(res.Segments) {
		t.Errorf("measurements: got %d, want %d", len(res.Measurements), len(res.Segments))
	}

	inline, err := export.DecodeJSON([]byte(res.Document))
	if err != nil {
		t.Fatalf("inline document: %v", err)
	}
	if len(inline) != len(res.Segments) {
		t.Errorf("inline document has %d segments, want %d", len(inline), len(res.Segments))
	}
}

func TestHandleToolsCall_FloorplanExtractToFile(t *testing.T) {
	s := newTestServer()
	mapPath, yamlPath := createTestMap(t)
	outPath := filepath.Join(t.TempDir(), "plan.dxf")

	var res ExtractResult
	resp := callTool(t, s, "floorplan_extract", map[string]interface{}{
		"path":          mapPath,
		"yaml_path":     yamlPath,
		"vector_format": "dxf",
		"output_path":   outPath,
	}, &res)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if res.VectorPath != outPath || res.Document != "" {
		t.Errorf("unexpected result %+v", res)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading dxf: %v", err)
	}
	if got := strings.Count(string(data), "\nLINE\n"); got != len(res.Segments) {
		t.Errorf("dxf has %d LINE entities, want %d", got, len(res.Segments))
	}
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := newTestServer()
	mapPath, yamlPath := createTestMap(t)

	tests := []struct {
		name     string
		tool     string
		args     map[string]interface{}
		wantData string
	}{
		{"unknown tool", "image_crop", map[string]interface{}{}, "unknown tool"},
		{"missing map", "map_info", map[string]interface{}{"path": mapPath + ".missing.pgm"}, "input not found"},
		{"missing yaml_path", "map_classify", map[string]interface{}{"path": mapPath}, "invalid input"},
		{"bad vector format", "floorplan_extract", map[string]interface{}{"path": mapPath, "yaml_path": yamlPath, "vector_format": "pdf"}, "invalid format"},
		{"output without format", "floorplan_extract", map[string]interface{}{"path": mapPath, "yaml_path": yamlPath, "output_path": "/tmp/x.svg"}, "invalid input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := callTool(t, s, tt.tool, tt.args, nil)
			if resp.Error == nil {
				t.Fatal("expected error response")
			}
			if resp.Error.Code != -32000 {
				t.Errorf("code: got %d, want -32000", resp.Error.Code)
			}
			if data, _ := resp.Error.Data.(string); !strings.Contains(data, tt.wantData) {
				t.Errorf("data %q should mention %q", data, tt.wantData)
			}
		})
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	resp := newTestServer().handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

func TestFloorplanEdgesArgs_Thresholds(t *testing.T) {
	cfg := newTestServer().cfg

	tests := []struct {
		name     string
		args     string
		wantLow  int
		wantHigh int
	}{
		{"absent uses config", `{}`, 100, 200},
		{"explicit zero low", `{"threshold_low":0}`, 0, 200},
		{"explicit zero both", `{"threshold_low":0,"threshold_high":0}`, 0, 0},
		{"explicit values", `{"threshold_low":30,"threshold_high":90}`, 30, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a floorplanEdgesArgs
			if err := json.Unmarshal([]byte(tt.args), &a); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			low, high := a.thresholds(cfg)
			if low != tt.wantLow || high != tt.wantHigh {
				t.Errorf("thresholds: got %d/%d, want %d/%d", low, high, tt.wantLow, tt.wantHigh)
			}
		})
	}
}

func TestHandleToolsCall_FloorplanEdgesZeroLow(t *testing.T) {
	s := newTestServer()
	mapPath, yamlPath := createTestMap(t)

	var res imaging.EdgeImageResult
	resp := callTool(t, s, "floorplan_edges", map[string]interface{}{
		"path":          mapPath,
		"yaml_path":     yamlPath,
		"threshold_low": 0,
	}, &res)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if res.EdgePixels == 0 {
		t.Error("expected edges with an explicit zero low threshold")
	}
}
