package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/repstack/repstack/internal/records"
	"github.com/repstack/repstack/internal/storage"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds *storage.DB, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RepStack", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RepStack strength training server. Query workout sessions, personal bests, per-exercise progress history, activity totals, goal streaks, and short-horizon forecasts. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, analyzer: records.NewAnalyzer(ds), log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetPersonalBests, Handler: h.getPersonalBests},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolGetExerciseHistory, Handler: h.getExerciseHistory},
		server.ServerTool{Tool: toolGetActivitySummary, Handler: h.getActivitySummary},
		server.ServerTool{Tool: toolGetGoalStreaks, Handler: h.getGoalStreaks},
		server.ServerTool{Tool: toolGetForecast, Handler: h.getForecast},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resDataStats, Handler: h.dataStats},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds       DataSource
	analyzer *records.Analyzer
	log      *slog.Logger
}

// --- Resource definitions ---

var resRecentSessions = mcp.NewResource(
	"repstack://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Workout sessions from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resDataStats = mcp.NewResource(
	"repstack://data_stats",
	"Data Stats",
	mcp.WithResourceDescription("Row counts and date coverage per data category for the authenticated user"),
	mcp.WithMIMEType("application/json"),
)
