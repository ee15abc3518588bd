// ABOUTME: MCP tool definitions and handlers
// ABOUTME: Exposes locate, list, get, delete and export operations to AI agents

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harper/geolocation/internal/geojson"
	"github.com/harper/geolocation/internal/models"
	"github.com/harper/geolocation/internal/ui"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	s.registerLocateTool()
	s.registerListLocationsTool()
	s.registerGetLocationTool()
	s.registerDeleteLocationTool()
	s.registerDeleteAllLocationsTool()
	s.registerExportLocationTool()
}

// LocationOutput defines output for location tools.
type LocationOutput struct {
	ID          int64           `json:"id"`
	Resolved    models.Position `json:"resolved"`
	GPS         models.Position `json:"gps"`
	CaptureTime time.Time       `json:"capture_time"`
	Signals     int             `json:"signals"`
}

func toOutput(rec *models.LocationRecord) LocationOutput {
	return LocationOutput{
		ID:          rec.ID,
		Resolved:    rec.Resolved,
		GPS:         rec.Reported,
		CaptureTime: rec.CaptureTime,
		Signals:     rec.Params.SignalCount(),
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonBytes, _ := json.MarshalIndent(v, "", "  ") //nolint:errchkjson // output is always serializable
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(jsonBytes)}},
	}
}

var positionSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"latitude":  map[string]interface{}{"type": "number"},
		"longitude": map[string]interface{}{"type": "number"},
		"accuracy":  map[string]interface{}{"type": "number"},
	},
	"required": []string{"latitude", "longitude"},
}

var idSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"id": map[string]interface{}{
			"type":        "integer",
			"description": "Location record id",
		},
	},
	"required": []string{"id"},
}

// LocateInput defines input for locate tool.
type LocateInput struct {
	Request models.LocationRequest `json:"request"`
	GPS     *models.Position       `json:"gps,omitempty"`
}

func (s *Server) registerLocateTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "locate",
		Description: "Resolve observed cell towers, Wi-Fi access points and Bluetooth beacons into a position and store it with the device's own GPS fix.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"request": map[string]interface{}{
					"type":        "object",
					"description": "Geolocate request body (cellTowers, wifiAccessPoints, bluetoothBeacons, considerIp, fallbacks)",
				},
				"gps": positionSchema,
			},
			"required": []string{"request"},
		},
	}, s.handleLocate)
}

func (s *Server) handleLocate(ctx context.Context, req *mcp.CallToolRequest, input LocateInput) (*mcp.CallToolResult, LocationOutput, error) {
	if input.GPS != nil {
		if _, err := models.NewPosition(input.GPS.Latitude, input.GPS.Longitude, input.GPS.Accuracy); err != nil {
			return nil, LocationOutput{}, fmt.Errorf("invalid gps position: %w", err)
		}
	}

	id, err := s.repo.NewLocation(ctx, &input.Request, input.GPS)
	if err != nil {
		return nil, LocationOutput{}, err
	}

	rec, err := s.repo.GetLocation(ctx, id)
	if err != nil {
		return nil, LocationOutput{}, err
	}

	output := toOutput(rec)
	return jsonResult(output), output, nil
}

// ListLocationsOutput defines output for list_locations tool.
type ListLocationsOutput struct {
	Locations []LocationOutput `json:"locations"`
	Count     int              `json:"count"`
}

// ListLocationsInput is empty but required for type.
type ListLocationsInput struct{}

func (s *Server) registerListLocationsTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_locations",
		Description: "List all stored location records, oldest first.",
		InputSchema: map[string]interface{}{
			"type": "object",
		},
	}, s.handleListLocations)
}

func (s *Server) listOutput(ctx context.Context) (ListLocationsOutput, error) {
	records, err := s.repo.ListLocations(ctx)
	if err != nil {
		return ListLocationsOutput{}, fmt.Errorf("failed to list locations: %w", err)
	}

	locations := make([]LocationOutput, len(records))
	for i, rec := range records {
		locations[i] = toOutput(rec)
	}
	return ListLocationsOutput{Locations: locations, Count: len(locations)}, nil
}

func (s *Server) handleListLocations(ctx context.Context, req *mcp.CallToolRequest, input ListLocationsInput) (*mcp.CallToolResult, ListLocationsOutput, error) {
	output, err := s.listOutput(ctx)
	if err != nil {
		return nil, ListLocationsOutput{}, err
	}
	return jsonResult(output), output, nil
}

// IDInput defines input for tools addressing one record.
type IDInput struct {
	ID int64 `json:"id"`
}

func (s *Server) registerGetLocationTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_location",
		Description: "Get one stored location record by id.",
		InputSchema: idSchema,
	}, s.handleGetLocation)
}

func (s *Server) handleGetLocation(ctx context.Context, req *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, LocationOutput, error) {
	rec, err := s.repo.GetLocation(ctx, input.ID)
	if err != nil {
		return nil, LocationOutput{}, err
	}

	output := toOutput(rec)
	return jsonResult(output), output, nil
}

// DeleteOutput defines output for delete tools.
type DeleteOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) registerDeleteLocationTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_location",
		Description: "Delete one location record. Deleting an unknown id is not an error.",
		InputSchema: idSchema,
	}, s.handleDeleteLocation)
}

func (s *Server) handleDeleteLocation(ctx context.Context, req *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := s.repo.DeleteLocation(ctx, input.ID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete location: %w", err)
	}

	output := DeleteOutput{
		Success: true,
		Message: fmt.Sprintf("Deleted location %d", input.ID),
	}
	return jsonResult(output), output, nil
}

// DeleteAllInput defines input for delete_all_locations tool.
type DeleteAllInput struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) registerDeleteAllLocationsTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_all_locations",
		Description: "Delete every stored location record. This cannot be undone.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"confirm": map[string]interface{}{
					"type":        "boolean",
					"description": "Must be true",
				},
			},
			"required": []string{"confirm"},
		},
	}, s.handleDeleteAllLocations)
}

func (s *Server) handleDeleteAllLocations(ctx context.Context, req *mcp.CallToolRequest, input DeleteAllInput) (*mcp.CallToolResult, DeleteOutput, error) {
	if !input.Confirm {
		return nil, DeleteOutput{}, fmt.Errorf("confirm must be true to delete all locations")
	}
	if err := s.repo.DeleteAllLocations(ctx); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("failed to delete locations: %w", err)
	}

	output := DeleteOutput{Success: true, Message: "Deleted all locations"}
	return jsonResult(output), output, nil
}

// ExportInput defines input for export_location tool.
type ExportInput struct {
	ID     int64  `json:"id"`
	Format string `json:"format,omitempty"`
}

// ExportOutput defines output for export_location tool.
type ExportOutput struct {
	URI  string `json:"uri"`
	Path string `json:"path,omitempty"`
}

func (s *Server) registerExportLocationTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "export_location",
		Description: "Write one location record to the share target and return a URI for it.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "integer",
					"description": "Location record id",
				},
				"format": map[string]interface{}{
					"type":        "string",
					"description": "text (default) or geojson",
					"enum":        []string{"text", "geojson"},
				},
			},
			"required": []string{"id"},
		},
	}, s.handleExportLocation)
}

func (s *Server) handleExportLocation(ctx context.Context, req *mcp.CallToolRequest, input ExportInput) (*mcp.CallToolResult, ExportOutput, error) {
	rec, err := s.repo.GetLocation(ctx, input.ID)
	if err != nil {
		return nil, ExportOutput{}, err
	}

	var text string
	switch input.Format {
	case "", "text":
		text = ui.FormatRecordText(rec)
	case "geojson":
		data, err := geojson.ToRecordFeatureCollection(rec).ToJSONIndent()
		if err != nil {
			return nil, ExportOutput{}, fmt.Errorf("failed to render geojson: %w", err)
		}
		text = string(data)
	default:
		return nil, ExportOutput{}, fmt.Errorf("unknown format %q", input.Format)
	}

	h, err := s.repo.ExportLocationAsText(ctx, text)
	if err != nil {
		return nil, ExportOutput{}, err
	}

	output := ExportOutput{URI: h.URI, Path: h.Path}
	return jsonResult(output), output, nil
}
