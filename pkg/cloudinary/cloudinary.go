// Package cloudinary uploads profile avatars, forum thread images and chat media.
package cloudinary

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Uploader is the subset the upload handler needs; tests substitute a fake.
type Uploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string, kind ImageKind) (*UploadResult, error)
	Delete(ctx context.Context, publicID string) error
}

type ImageKind int

const (
	Avatar ImageKind = iota
	ThreadImage
	ChatMedia
)

// Eager transformations per image kind (single string per SDK).
const (
	avatarEager = "q_auto,f_auto,w_400,h_400,c_thumb,g_face"
	threadEager = "q_auto,f_auto,w_1200,c_limit"
	chatEager   = "q_auto,f_auto,w_1080,c_limit"
	ThumbWidth  = 200
)

type UploadResult struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	PublicID     string `json:"public_id"`
}

// BuildImageURL returns a delivery URL with auto quality/format at the given width.
func BuildImageURL(cloudName, publicID string, width int) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,c_fill/%s",
		cloudName, width, publicID)
}

// PublicIDFromURL extracts the public id (folder/name, no extension) from a
// res.cloudinary.com delivery URL. Returns "" for foreign URLs.
func PublicIDFromURL(url string) string {
	_, rest, ok := strings.Cut(url, "/image/upload/")
	if !ok {
		return ""
	}
	parts := strings.Split(rest, "/")
	// drop transformation and version segments
	for len(parts) > 1 && (strings.Contains(parts[0], "_") && strings.Contains(parts[0], ",") || strings.HasPrefix(parts[0], "v") && isDigits(parts[0][1:])) {
		parts = parts[1:]
	}
	id := strings.Join(parts, "/")
	if dot := strings.LastIndex(id, "."); dot > strings.LastIndex(id, "/") {
		id = id[:dot]
	}
	return id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var eagerAsyncFalse = false

type client struct {
	cloudName string
	uploader  *uploader.API
}

func (c *client) UploadImage(ctx context.Context, file io.Reader, folder, publicID string, kind ImageKind) (*UploadResult, error) {
	eager := threadEager
	switch kind {
	case Avatar:
		eager = avatarEager
	case ChatMedia:
		eager = chatEager
	}
	overwrite := true
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Eager:      eager,
		EagerAsync: &eagerAsyncFalse,
		Overwrite:  &overwrite,
	})
	if err != nil {
		return nil, err
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary: %s", result.Error.Message)
	}
	out := &UploadResult{URL: result.SecureURL, PublicID: result.PublicID}
	if len(result.Eager) > 0 {
		out.URL = result.Eager[0].SecureURL
	}
	out.ThumbnailURL = BuildImageURL(c.cloudName, result.PublicID, ThumbWidth)
	return out, nil
}

func (c *client) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := c.uploader.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}

// NewClient builds an Uploader from Cloudinary cloud name, API key, and secret.
func NewClient(cloudName, apiKey, apiSecret string) (Uploader, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &client{cloudName: cloudName, uploader: up}, nil
}
