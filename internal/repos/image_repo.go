package repos

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type ImageRepo struct{ db *sqlx.DB }

func NewImageRepo(db *sqlx.DB) *ImageRepo { return &ImageRepo{db: db} }

func (r *ImageRepo) Insert(img domain.Image) error {
	_, err := r.db.NamedExec(`
	  INSERT INTO images(id, object_key, url, uploaded_by, created_at)
	  VALUES(:id, :object_key, :url, :uploaded_by, :created_at)`, img)
	return err
}

func (r *ImageRepo) Get(id string) (domain.Image, error) {
	var img domain.Image
	err := r.db.Get(&img, `SELECT id, object_key, url, uploaded_by, created_at FROM images WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Image{}, ErrNotFound
	}
	return img, err
}

func (r *ImageRepo) List() ([]domain.Image, error) {
	var out []domain.Image
	err := r.db.Select(&out, `SELECT id, object_key, url, uploaded_by, created_at FROM images ORDER BY created_at DESC, id`)
	return out, err
}

func (r *ImageRepo) Delete(id string) error {
	return mustAffect(r.db.Exec(`DELETE FROM images WHERE id = ?`, id))
}
