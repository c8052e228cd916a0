package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetDashboard = mcp.NewTool("get_dashboard",
	mcp.WithDescription("The user's home screen: profile, BMI, fitness level, daily calories and macros, progress, current workout day and today's workout. onboardingRequired is true when no profile exists yet."),
)

var toolListEquipment = mcp.NewTool("list_equipment",
	mcp.WithDescription("List the gym equipment the user has scanned, with muscle groups and suggested exercises."),
)

var toolGetTodayWorkout = mcp.NewTool("get_today_workout",
	mcp.WithDescription("Today's workout plan built from the user's equipment. Day 1 is legs and glutes, day 2 arms and chest."),
	mcp.WithNumber("day", mcp.Description("Workout day (1 or 2). Defaults to the user's current day.")),
)

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Completed workout days, achievements and the time of the last completed workout."),
)

// --- Tool handlers ---

func (h *handlers) getDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := h.ds.Dashboard(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_dashboard", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(d)
}

func (h *handlers) listEquipment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := h.ds.ListEquipment(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp list_equipment", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(records)
}

func (h *handlers) getTodayWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day := req.GetInt("day", 0)
	if day != 0 && day != 1 && day != 2 {
		return mcp.NewToolResultError("day must be 1 or 2"), nil
	}

	plan, err := h.ds.TodayWorkout(ctx, UserIDFromContext(ctx), day)
	if err != nil {
		h.log.Error("mcp get_today_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(plan)
}

func (h *handlers) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.ds.Progress(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(p)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
