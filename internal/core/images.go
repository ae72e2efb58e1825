package core

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"rentapp/internal/blob"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/avif": ".avif",
}

// ImageOffloader moves inline data: URL images out of the submission store
// into a blob store, replacing them with addresses.
type ImageOffloader struct {
	store  blob.Store
	logger Logger
	newID  func() string
}

// NewImageOffloader returns an offloader writing to store.
func NewImageOffloader(store blob.Store, logger Logger) *ImageOffloader {
	if logger == nil {
		logger = noopLogger{}
	}
	return &ImageOffloader{store: store, logger: logger, newID: uuid.NewString}
}

// IsInline reports whether image is a data: URL.
func IsInline(image string) bool {
	return strings.HasPrefix(image, "data:")
}

func imagePrefix(propertyID string) string {
	return "properties/" + propertyID + "/"
}

// decodeDataURL splits data:<mediatype>[;base64],<payload>.
func decodeDataURL(raw string) (string, []byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return "", nil, errors.New("data url without payload")
	}
	mediaType, params, _ := strings.Cut(header, ";")
	if mediaType == "" {
		mediaType = "text/plain"
	}
	if strings.Contains(params, "base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("decode base64 image: %w", err)
		}
		return mediaType, data, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("unescape image: %w", err)
	}
	return mediaType, []byte(text), nil
}

// Offload stores every inline image of propertyID and returns the image list
// with addresses substituted. Non-inline entries pass through. On failure the
// blobs written so far are removed and the error is returned.
func (o *ImageOffloader) Offload(ctx context.Context, propertyID string, images []string) ([]string, error) {
	out := make([]string, len(images))
	var written []string
	rollback := func() {
		for _, key := range written {
			if _, err := o.store.Delete(ctx, key); err != nil {
				o.logger.Warn("image rollback failed", "key", key, "error", err)
			}
		}
	}
	for i, img := range images {
		if !IsInline(img) {
			out[i] = img
			continue
		}
		mediaType, data, err := decodeDataURL(img)
		if err != nil {
			rollback()
			return nil, err
		}
		ext, ok := imageExtensions[strings.ToLower(mediaType)]
		if !ok {
			ext = ".bin"
		}
		key := imagePrefix(propertyID) + o.newID() + ext
		if _, err := o.store.Put(ctx, key, data, mediaType); err != nil {
			rollback()
			return nil, fmt.Errorf("store image %d: %w", i, err)
		}
		written = append(written, key)
		addr, err := o.store.URL(ctx, key)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("address image %d: %w", i, err)
		}
		out[i] = addr
	}
	if len(written) > 0 {
		o.logger.Debug("offloaded images", "property", propertyID, "count", len(written))
	}
	return out, nil
}

// DeleteAll removes every blob stored for propertyID.
func (o *ImageOffloader) DeleteAll(ctx context.Context, propertyID string) (int, error) {
	infos, err := o.store.List(ctx, imagePrefix(propertyID))
	if err != nil {
		return 0, fmt.Errorf("list images: %w", err)
	}
	removed := 0
	for _, info := range infos {
		ok, err := o.store.Delete(ctx, info.Key)
		if err != nil {
			return removed, fmt.Errorf("delete image %s: %w", info.Key, err)
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// Prune removes the blobs of propertyID that none of keep refers to. Image
// addresses embed the blob key, so a blob is kept when any entry contains it.
func (o *ImageOffloader) Prune(ctx context.Context, propertyID string, keep []string) (int, error) {
	infos, err := o.store.List(ctx, imagePrefix(propertyID))
	if err != nil {
		return 0, fmt.Errorf("list images: %w", err)
	}
	removed := 0
	for _, info := range infos {
		if referenced(keep, info.Key) {
			continue
		}
		ok, err := o.store.Delete(ctx, info.Key)
		if err != nil {
			return removed, fmt.Errorf("delete image %s: %w", info.Key, err)
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

func referenced(images []string, key string) bool {
	for _, img := range images {
		if strings.Contains(img, key) {
			return true
		}
	}
	return false
}
