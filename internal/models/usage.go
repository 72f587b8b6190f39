package models

import "time"

// UsageCategory groups usage events for analytics.
type UsageCategory string

const (
	CategoryExplorer  UsageCategory = "explorer"
	CategoryTools     UsageCategory = "tools"
	CategoryAPI       UsageCategory = "api"
	CategoryDashboard UsageCategory = "dashboard"
)

// UsageEvent is append-only; the service never updates or deletes one.
type UsageEvent struct {
	ID        string                 `json:"id" db:"id"`
	EventName string                 `json:"eventName" db:"event_name"`
	Category  UsageCategory          `json:"category" db:"category"`
	Path      string                 `json:"path,omitempty" db:"path"`
	ToolID    string                 `json:"toolId,omitempty" db:"tool_id"`
	UserID    string                 `json:"userId,omitempty" db:"user_id"`
	Metadata  map[string]interface{} `json:"metadata" db:"metadata"`
	CreatedAt time.Time              `json:"createdAt" db:"created_at"`
}

type UsageTotals struct {
	Events         int `json:"events"`
	ExplorerRuns   int `json:"explorerRuns"`
	ToolExecutions int `json:"toolExecutions"`
	APICalls       int `json:"apiCalls"`
}

type DailyUsage struct {
	Day      string `json:"day"`
	Total    int    `json:"total"`
	Explorer int    `json:"explorer"`
	Tools    int    `json:"tools"`
	API      int    `json:"api"`
}

type ToolCount struct {
	ToolID string `json:"toolId"`
	Count  int    `json:"count"`
}

// UsageSummary is the dashboard analytics view over recent events.
type UsageSummary struct {
	Totals      UsageTotals  `json:"totals"`
	DailySeries []DailyUsage `json:"dailySeries"`
	TopTools    []ToolCount  `json:"topTools"`
	WindowDays  int          `json:"windowDays"`
}
