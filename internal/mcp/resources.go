package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) inventory(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	records, err := h.ds.ListEquipment(ctx, UserIDFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, records)
}

func (h *handlers) progress(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	p, err := h.ds.Progress(ctx, UserIDFromContext(ctx))
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, p)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
