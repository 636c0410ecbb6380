// Package dashboard computes time-windowed statistics for the admin UI. It
// only reads the report and message stores.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/safecity/backend/internal/store"
)

type Stats struct {
	WindowDays       int              `json:"window_days"`
	TotalReports     int64            `json:"total_reports"`
	ReportsInWindow  int64            `json:"reports_in_window"`
	MessagesInWindow int64            `json:"messages_in_window"`
	ByCategory       map[string]int64 `json:"by_category"`
	ByUrgency        map[string]int64 `json:"by_urgency"`
}

type Service struct {
	messages store.MessageStore
	reports  store.ReportStore
}

func NewService(messages store.MessageStore, reports store.ReportStore) *Service {
	return &Service{messages: messages, reports: reports}
}

func (s *Service) Stats(ctx context.Context, days int) (*Stats, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	total, err := s.reports.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}
	inWindow, err := s.reports.CountSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count reports in window: %w", err)
	}
	msgs, err := s.messages.CountSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	byCategory, err := s.reports.CountByCategory(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	byUrgency, err := s.reports.CountByUrgency(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count by urgency: %w", err)
	}

	return &Stats{
		WindowDays:       days,
		TotalReports:     total,
		ReportsInWindow:  inWindow,
		MessagesInWindow: msgs,
		ByCategory:       byCategory,
		ByUrgency:        byUrgency,
	}, nil
}
