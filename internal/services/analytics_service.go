package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

const adminAnalyticsPath = "/admin/analytics"

type AnalyticsService struct {
	Events *repos.AnalyticsRepo
}

// Track stores e. Page views of the analytics dashboard itself are dropped
// and Track reports false for them.
func (s *AnalyticsService) Track(e domain.AnalyticsEvent) (bool, error) {
	if e.Type == "page_view" && strings.HasPrefix(e.Path, adminAnalyticsPath) {
		return false, nil
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp <= 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	if err := s.Events.Insert(e); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AnalyticsService) Latest() ([]domain.AnalyticsEvent, error) {
	return s.Events.ListLatest(100)
}
