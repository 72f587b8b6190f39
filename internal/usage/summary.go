// internal/usage/summary.go
package usage

import (
	"context"
	"sort"
	"strings"
	"time"

	"capability-explorer/internal/common/logger"
	"capability-explorer/internal/models"
)

const (
	// LookbackDays bounds the events fetched for the dashboard.
	LookbackDays = 30
	// SeriesDays is the length of the daily series.
	SeriesDays = 14
	// FetchLimit caps events read per summary.
	FetchLimit = 5000
	topToolsN  = 5
)

// EventReader reads a user's recent events.
type EventReader interface {
	ListForUser(ctx context.Context, userID string, since time.Time, limit int) ([]models.UsageEvent, error)
}

// Service builds the dashboard usage summary.
type Service struct {
	reader EventReader
	logger logger.Logger
	now    func() time.Time
}

func NewService(reader EventReader, log logger.Logger) *Service {
	return &Service{reader: reader, logger: log, now: time.Now}
}

// Summary never fails: a read error yields an empty summary.
func (s *Service) Summary(ctx context.Context, userID string) models.UsageSummary {
	now := s.now().UTC()

	var events []models.UsageEvent
	if s.reader != nil {
		var err error
		events, err = s.reader.ListForUser(ctx, userID, now.AddDate(0, 0, -LookbackDays), FetchLimit)
		if err != nil {
			s.logger.Warn("failed to fetch usage events", map[string]interface{}{"userId": userID, "error": err})
			events = nil
		}
	}
	return Summarize(events, now)
}

// Summarize aggregates events into totals, a daily series ending on now's
// UTC day, and the most used tools.
func Summarize(events []models.UsageEvent, now time.Time) models.UsageSummary {
	now = now.UTC()
	series := make([]models.DailyUsage, SeriesDays)
	byDay := make(map[string]*models.DailyUsage, SeriesDays)
	for i := 0; i < SeriesDays; i++ {
		day := now.AddDate(0, 0, i-(SeriesDays-1)).Format("2006-01-02")
		series[i] = models.DailyUsage{Day: day}
		byDay[day] = &series[i]
	}

	var totals models.UsageTotals
	toolCounts := map[string]int{}
	for _, e := range events {
		isExplorer := e.Category == models.CategoryExplorer || strings.HasPrefix(e.EventName, "explorer_")
		isTool := e.Category == models.CategoryTools || strings.HasPrefix(e.EventName, "tool_")
		isAPI := e.Category == models.CategoryAPI || strings.HasPrefix(e.Path, "/api/")

		totals.Events++
		if isExplorer {
			totals.ExplorerRuns++
		}
		if isTool {
			totals.ToolExecutions++
		}
		if isAPI {
			totals.APICalls++
		}

		if bucket, ok := byDay[e.CreatedAt.UTC().Format("2006-01-02")]; ok {
			bucket.Total++
			if isExplorer {
				bucket.Explorer++
			}
			if isTool {
				bucket.Tools++
			}
			if isAPI {
				bucket.API++
			}
		}

		if e.ToolID != "" {
			toolCounts[e.ToolID]++
		}
	}

	top := make([]models.ToolCount, 0, len(toolCounts))
	for id, n := range toolCounts {
		top = append(top, models.ToolCount{ToolID: id, Count: n})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].ToolID < top[j].ToolID
	})
	if len(top) > topToolsN {
		top = top[:topToolsN]
	}

	return models.UsageSummary{
		Totals:      totals,
		DailySeries: series,
		TopTools:    top,
		WindowDays:  SeriesDays,
	}
}
