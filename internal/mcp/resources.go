// ABOUTME: MCP resource definitions
// ABOUTME: Provides read-only views of stored locations for AI agents

package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const locationsURI = "geolocation://locations"

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		Name:        locationsURI,
		Description: "All stored location records",
		URI:         locationsURI,
		MIMEType:    "application/json",
	}, s.handleLocationsResource)
}

func (s *Server) handleLocationsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	output, err := s.listOutput(ctx)
	if err != nil {
		return nil, err
	}

	jsonBytes, _ := json.MarshalIndent(output, "", "  ") //nolint:errchkjson // output is always serializable

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      locationsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		},
	}, nil
}
