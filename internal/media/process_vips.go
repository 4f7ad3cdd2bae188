//go:build vips

package media

import (
	"path/filepath"

	"vsgtalent-backend/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

// processWithVips crops, resizes, and re-encodes one image using libvips.
// Any failure falls open to an unchanged Result.
func (p *Processor) processWithVips(path string, plan *CropPlan, attempts []Attempt) Result {
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		logging.Warn("vips failed to load %s: %v", path, err)
		return Result{Path: path}
	}
	defer ref.Close()

	if plan != nil {
		if err := ref.ExtractArea(plan.X, plan.Y, plan.Width, plan.Height); err != nil {
			logging.Warn("vips crop failed for %s: %v", path, err)
			return Result{Path: path}
		}
	}

	if err := ref.Thumbnail(p.Params.FloorWidth, p.Params.FloorHeight, vips.InterestingNone); err != nil {
		logging.Warn("vips resize failed for %s: %v", path, err)
		return Result{Path: path}
	}

	attempt, data, err := runAttempts(attempts, func(a Attempt) ([]byte, error) {
		switch a.Format {
		case "avif":
			params := vips.NewAvifExportParams()
			params.Quality = a.Quality
			out, _, err := ref.ExportAvif(params)
			return out, err
		case "webp":
			params := vips.NewWebpExportParams()
			params.Quality = a.Quality
			out, _, err := ref.ExportWebp(params)
			return out, err
		default:
			params := vips.NewJpegExportParams()
			params.Quality = a.Quality
			params.OptimizeCoding = true
			out, _, err := ref.ExportJpeg(params)
			return out, err
		}
	})
	if err != nil {
		logging.Warn("all encode attempts failed for %s: %v", path, err)
		return Result{Path: path}
	}

	newPath, err := replaceFile(path, attempt.Ext, data)
	if err != nil {
		logging.Warn("failed to write converted file for %s: %v", path, err)
		return Result{Path: path}
	}

	logging.Info("converted %s to %s (%d bytes)", filepath.Base(path), attempt.Format, len(data))
	return Result{Changed: true, Path: newPath, Mime: attempt.Mime}
}
