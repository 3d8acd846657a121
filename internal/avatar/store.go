package avatar

import (
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/dropDatabas3/openidgate/internal/observability/logger"
	"github.com/dropDatabas3/openidgate/internal/store"
)

// Uploader is the part of the WebDAV client DAVStore needs.
type Uploader interface {
	StoreItem(ctx context.Context, p string, data []byte, mimeType string) error
}

// DAVStore keeps metadata in the image repository and bytes on WebDAV at
// <dir>/<object_type>/<image id>.jpg.
type DAVStore struct {
	images store.ImageRepository
	dav    Uploader
	dir    string
}

func NewDAVStore(images store.ImageRepository, dav Uploader, dir string) *DAVStore {
	if dir == "" {
		dir = "/uploads/pictures"
	}
	return &DAVStore{images: images, dav: dav, dir: dir}
}

// PathFor returns the storage path of an image.
func (s *DAVStore) PathFor(objectType string, id int64) string {
	return path.Join(s.dir, objectType, strconv.FormatInt(id, 10)+".jpg")
}

// Store inserts the metadata row, then uploads. A failed upload removes the row.
func (s *DAVStore) Store(ctx context.Context, meta Metadata, raw []byte) (int64, error) {
	img := &store.Image{
		UserID:     meta.UserID,
		ObjectType: meta.ObjectType,
		ObjectID:   meta.ObjectID,
		Width:      meta.Width,
		Height:     meta.Height,
		MimeType:   meta.MimeType,
		Type:       meta.Type,
	}
	id, err := s.images.CreateImage(ctx, img)
	if err != nil {
		return 0, err
	}
	if err := s.dav.StoreItem(ctx, s.PathFor(meta.ObjectType, id), raw, meta.MimeType); err != nil {
		if derr := s.images.DeleteImage(ctx, id); derr != nil {
			logger.From(ctx).Error("orphan image row", logger.Component("avatar"), logger.Int64("image_id", id), logger.Err(derr))
		}
		return 0, fmt.Errorf("upload: %w", err)
	}
	return id, nil
}
