package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/storage"
	"storefront/internal/validate"
)

var ErrBadImage = errors.New("images must be jpg, jpeg, png or webp and at most 5 MB")

type ImageService struct {
	Images *repos.ImageRepo
	Store  storage.ImageStore
}

// Upload stores the object first and then records it. A failed insert
// removes the stored object again.
func (s *ImageService) Upload(ctx context.Context, filename string, size int64, body io.Reader, uploadedBy string) (domain.Image, error) {
	ext, contentType, ok := validate.ImageFile(filename, size)
	if !ok {
		return domain.Image{}, ErrBadImage
	}
	id := uuid.NewString()
	key := "images/" + id + ext
	// a lying size header must not get past the limit
	url, err := s.Store.Put(ctx, key, contentType, io.LimitReader(body, validate.MaxImageBytes))
	if err != nil {
		return domain.Image{}, fmt.Errorf("store image: %w", err)
	}
	img := domain.Image{
		ID:         id,
		ObjectKey:  key,
		URL:        url,
		UploadedBy: uploadedBy,
		CreatedAt:  time.Now().UnixMilli(),
	}
	if err := s.Images.Insert(img); err != nil {
		if derr := s.Store.Delete(ctx, key); derr != nil {
			applog.Event("image.cleanup.fail", derr, map[string]any{"key": key})
		}
		return domain.Image{}, err
	}
	return img, nil
}

func (s *ImageService) List() ([]domain.Image, error) { return s.Images.List() }

// Delete removes the stored object and its row.
func (s *ImageService) Delete(ctx context.Context, id string) error {
	img, err := s.Images.Get(id)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, img.ObjectKey); err != nil {
		return err
	}
	return s.Images.Delete(id)
}
