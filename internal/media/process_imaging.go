package media

import (
	"bytes"
	"image"
	"path/filepath"

	"vsgtalent-backend/internal/logging"
	"vsgtalent-backend/internal/metrics"

	"github.com/disintegration/imaging"
)

// processWithImaging is the pure-Go fallback used when libvips is not
// available. It can only write JPEG, so AVIF and WebP sources still get a
// usable output at the cost of a larger file.
func (p *Processor) processWithImaging(path string, plan *CropPlan) Result {
	img, err := LoadImageConstrained(path, MaxImageDimension, MaxImagePixels)
	if err != nil {
		logging.Warn("failed to load %s: %v", path, err)
		return Result{Path: path}
	}

	if plan != nil {
		img = imaging.Crop(img, image.Rect(plan.X, plan.Y, plan.X+plan.Width, plan.Y+plan.Height))
	}
	img = imaging.Fit(img, p.Params.FloorWidth, p.Params.FloorHeight, imaging.Lanczos)

	quality := 82
	if sameExt(filepath.Ext(path), ".jpg") {
		// Resize only, no format change.
		quality = 95
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		logging.Warn("jpeg encode failed for %s: %v", path, err)
		metrics.ConversionsTotal.WithLabelValues("jpeg", "error").Inc()
		return Result{Path: path}
	}
	metrics.ConversionsTotal.WithLabelValues("jpeg", "success").Inc()

	newPath, err := replaceFile(path, ".jpg", buf.Bytes())
	if err != nil {
		logging.Warn("failed to write converted file for %s: %v", path, err)
		return Result{Path: path}
	}

	logging.Info("converted %s to jpeg without libvips (%d bytes)", filepath.Base(path), buf.Len())
	return Result{Changed: true, Path: newPath, Mime: "image/jpeg"}
}
