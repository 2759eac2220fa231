package repos

import (
	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type AnalyticsRepo struct{ db *sqlx.DB }

func NewAnalyticsRepo(db *sqlx.DB) *AnalyticsRepo { return &AnalyticsRepo{db: db} }

func (r *AnalyticsRepo) Insert(e domain.AnalyticsEvent) error {
	_, err := r.db.NamedExec(`
	  INSERT INTO analytics_events(id, type, ts, user_id, path, element, extra)
	  VALUES(:id, :type, :ts, :user_id, :path, :element, :extra)`, e)
	return err
}

func (r *AnalyticsRepo) ListLatest(limit int) ([]domain.AnalyticsEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.AnalyticsEvent
	err := r.db.Select(&out, `
	  SELECT id, type, ts, user_id, path, element, extra
	  FROM analytics_events
	  ORDER BY ts DESC, rowid DESC
	  LIMIT ?`, limit)
	return out, err
}
