package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"imaginarium/internal/logger"
	"imaginarium/internal/storage"
)

// Frame geometry.
const (
	framePadding     = 20
	frameBlurSigma   = 20.0
	cornerRadius     = 24
	avatarSize       = 48
	transparentInset = 4

	maxSourceBytes = 20 << 20
)

// FrameCompositor draws the render on a blurred copy of itself with rounded
// corners and a circular avatar badge in the top right corner, then stores
// the PNG.
type FrameCompositor struct {
	store      storage.ObjectStore
	httpClient *http.Client
	log        logrus.FieldLogger
}

func NewFrameCompositor(store storage.ObjectStore, log logrus.FieldLogger) *FrameCompositor {
	return &FrameCompositor{
		store:      store,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        logger.Component(log, "FrameCompositor"),
	}
}

func (c *FrameCompositor) Thumbnail(ctx context.Context, imageURL, avatarURL string) (string, error) {
	url, err := c.thumbnail(ctx, imageURL, avatarURL)
	if err != nil {
		return "", &CompositingError{Err: err}
	}
	return url, nil
}

func (c *FrameCompositor) thumbnail(ctx context.Context, imageURL, avatarURL string) (string, error) {
	src, err := c.fetchImage(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("fetch render: %w", err)
	}

	var avatar image.Image
	if avatarURL != "" {
		avatar, err = c.fetchImage(ctx, avatarURL)
		if err != nil {
			return "", fmt.Errorf("fetch avatar: %w", err)
		}
	}

	framed := Frame(src, avatar)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, framed, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}

	url, err := c.store.Put(ctx, storage.NewObjectKey(storage.FolderThumbnails, ".png"), buf.Bytes(), storage.ContentTypePNG)
	if err != nil {
		return "", err
	}

	c.log.WithFields(logrus.Fields{"bytes": buf.Len(), "with_avatar": avatar != nil}).Debug("thumbnail stored")
	return url, nil
}

// Frame composes the thumbnail. A nil avatar leaves the badge out.
func Frame(src, avatar image.Image) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	fw, fh := w+2*framePadding, h+2*framePadding

	bg := imaging.Fill(src, fw, fh, imaging.Center, imaging.Lanczos)
	bg = imaging.Blur(bg, frameBlurSigma)

	frame := imaging.Overlay(bg, roundCorners(imaging.Clone(src), cornerRadius), image.Pt(framePadding, framePadding), 1.0)

	if avatar != nil {
		badge := circleCrop(imaging.Fill(avatar, avatarSize, avatarSize, imaging.Center, imaging.Lanczos))
		frame = imaging.Overlay(frame, badge, image.Pt(fw-avatarSize-framePadding, framePadding), 1.0)
	}

	out := imaging.New(fw+2*transparentInset, fh+2*transparentInset, color.NRGBA{})
	return imaging.Paste(out, frame, image.Pt(transparentInset, transparentInset))
}

// roundCorners clears pixels outside a rounded rectangle of radius r.
func roundCorners(img *image.NRGBA, r int) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if r*2 > w || r*2 > h {
		r = min(w, h) / 2
	}
	rf := float64(r)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cx := clampf(float64(x)+0.5, rf, float64(w)-rf)
			cy := clampf(float64(y)+0.5, rf, float64(h)-rf)
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy > rf*rf {
				img.Pix[img.PixOffset(x, y)+3] = 0
			}
		}
	}
	return img
}

// circleCrop clears pixels outside the inscribed circle.
func circleCrop(img *image.NRGBA) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	r := float64(min(w, h)) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)+0.5-float64(w)/2, float64(y)+0.5-float64(h)/2
			if dx*dx+dy*dy > r*r {
				img.Pix[img.PixOffset(x, y)+3] = 0
			}
		}
	}
	return img
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (c *FrameCompositor) fetchImage(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download status=%d", resp.StatusCode)
	}

	img, err := imaging.Decode(io.LimitReader(resp.Body, maxSourceBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}
