package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// DefaultUserID is used when the transport did not inject a user.
const DefaultUserID = "local"

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok && id != "" {
		return id
	}
	return DefaultUserID
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FitScan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FitScan gym assistant. Read the user's profile stats, equipment inventory, today's workout and training progress. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetDashboard, Handler: h.getDashboard},
		server.ServerTool{Tool: toolListEquipment, Handler: h.listEquipment},
		server.ServerTool{Tool: toolGetTodayWorkout, Handler: h.getTodayWorkout},
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resInventory, Handler: h.inventory},
		server.ServerResource{Resource: resProgress, Handler: h.progress},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resInventory = mcp.NewResource(
	"fitscan://inventory",
	"Equipment Inventory",
	mcp.WithResourceDescription("Every gym machine the user has scanned, with its suggested exercises"),
	mcp.WithMIMEType("application/json"),
)

var resProgress = mcp.NewResource(
	"fitscan://progress",
	"Workout Progress",
	mcp.WithResourceDescription("Completed workout days, achievements and the last workout time"),
	mcp.WithMIMEType("application/json"),
)
