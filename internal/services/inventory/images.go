package inventory

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"parkeasy/internal/models"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	maxImageSide = 1280
	jpegQuality  = 85
)

// SetImage stores an uploaded photo as image 1 or 2 of the place. The picture
// is re-encoded as JPEG and shrunk to fit maxImageSide.
func (s *Service) SetImage(ctx context.Context, ownerID string, placeID uint, index int, r io.Reader) (*models.ParkingPlace, error) {
	column := map[int]string{1: "image1", 2: "image2"}[index]
	if column == "" {
		return nil, models.Invalid("image", "Image slot must be 1 or 2.")
	}
	db := s.db.WithContext(ctx)
	p, err := ownedPlace(db, ownerID, placeID)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, models.Invalid("image", "Upload a valid PNG, JPEG or GIF image.")
	}
	img = imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)

	dir := filepath.Join(s.uploadDir, "places")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	rel := filepath.ToSlash(filepath.Join("places", fmt.Sprintf("%d_%d_%s.jpg", p.ID, index, uuid.NewString())))
	if err := imaging.Save(img, filepath.Join(s.uploadDir, filepath.FromSlash(rel)), imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	old := p.Image1
	if index == 2 {
		old = p.Image2
	}
	if err := db.Model(p).Update(column, rel).Error; err != nil {
		_ = os.Remove(filepath.Join(s.uploadDir, filepath.FromSlash(rel)))
		return nil, err
	}
	if old != "" {
		if err := os.Remove(filepath.Join(s.uploadDir, filepath.FromSlash(old))); err != nil && !os.IsNotExist(err) {
			s.lg.Warnw("could not remove replaced image", "path", old, "error", err)
		}
	}
	s.lg.Infow("place image stored", "place_id", p.ID, "index", index, "path", rel)
	return ownedPlace(db, ownerID, placeID)
}
