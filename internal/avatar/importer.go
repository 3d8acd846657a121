// Package avatar imports remote profile pictures into the picture storage.
package avatar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // decoders for image.Decode
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/dropDatabas3/openidgate/internal/metrics"
	"github.com/dropDatabas3/openidgate/internal/observability/logger"
)

const (
	ObjectTypeUser = "user"
	TypeAvatar     = "avatar"

	jpegQuality  = 90
	maxImageSize = 10 << 20
)

var ErrUndecodable = errors.New("avatar: image is not jpeg, gif or png")

// Metadata describes an imported picture.
type Metadata struct {
	UserID     int64
	ObjectType string
	ObjectID   int64
	Width      int
	Height     int
	MimeType   string
	Type       string
}

// ImageStore persists the picture bytes and their metadata.
type ImageStore interface {
	Store(ctx context.Context, meta Metadata, raw []byte) (int64, error)
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Importer fetches, normalizes to JPEG and stores avatars.
type Importer struct {
	store  ImageStore
	client HTTPClient
}

func NewImporter(store ImageStore, client HTTPClient) *Importer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Importer{store: store, client: client}
}

// Import downloads url and stores it as userID's avatar.
func (i *Importer) Import(ctx context.Context, userID int64, url string) (err error) {
	log := logger.From(ctx).With(logger.Component("avatar"), logger.UserID(userID), logger.URL(url))
	defer func() {
		result := "stored"
		if err != nil {
			result = "failed"
			log.Warn("avatar import failed", logger.Err(err))
		}
		metrics.AvatarImports.WithLabelValues(result).Inc()
	}()

	raw, err := i.fetch(ctx, url)
	if err != nil {
		return err
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("avatar: encode jpeg: %w", err)
	}
	b := img.Bounds()
	meta := Metadata{
		UserID:     userID,
		ObjectType: ObjectTypeUser,
		ObjectID:   userID,
		Width:      b.Dx(),
		Height:     b.Dy(),
		MimeType:   "image/jpeg",
		Type:       TypeAvatar,
	}
	id, err := i.store.Store(ctx, meta, buf.Bytes())
	if err != nil {
		return fmt.Errorf("avatar: store: %w", err)
	}
	log.Info("avatar imported", logger.Int64("image_id", id), logger.String("source_format", format))
	return nil
}

func (i *Importer) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("avatar: %w", err)
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("avatar: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("avatar: fetch: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
}
