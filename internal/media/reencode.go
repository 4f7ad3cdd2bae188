package media

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vsgtalent-backend/internal/logging"
	"vsgtalent-backend/internal/metrics"
)

// Attempt is one output format the re-encoder will try.
type Attempt struct {
	Format  string
	Ext     string
	Mime    string
	Quality int
}

// errNoEncoder is returned by runAttempts when every attempt failed.
var errNoEncoder = errors.New("no usable image encoder")

// encodeAttempts returns the ordered format attempts for a source file.
// AVIF gives the best compression, WebP is the broadly supported fallback,
// JPEG always works. When the source already has the attempt's extension
// the operation is a resize rather than a conversion, so quality goes up.
func encodeAttempts(srcExt string) []Attempt {
	srcExt = strings.ToLower(srcExt)
	attempts := []Attempt{
		{Format: "avif", Ext: ".avif", Mime: "image/avif", Quality: 50},
		{Format: "webp", Ext: ".webp", Mime: "image/webp", Quality: 80},
		{Format: "jpeg", Ext: ".jpg", Mime: "image/jpeg", Quality: 82},
	}
	for i := range attempts {
		if sameExt(srcExt, attempts[i].Ext) {
			attempts[i].Quality = 95
		}
	}
	return attempts
}

func sameExt(a, b string) bool {
	norm := func(e string) string {
		e = strings.ToLower(e)
		if e == ".jpeg" {
			return ".jpg"
		}
		return e
	}
	return norm(a) == norm(b)
}

// runAttempts tries each attempt in order and returns the first that
// succeeds. An attempt whose encoder is unavailable in the runtime fails
// like any other and the next format is tried.
func runAttempts(attempts []Attempt, try func(Attempt) ([]byte, error)) (Attempt, []byte, error) {
	var lastErr error
	for _, a := range attempts {
		data, err := try(a)
		if err != nil {
			logging.Debug("encode attempt %s failed: %v", a.Format, err)
			metrics.ConversionsTotal.WithLabelValues(a.Format, "error").Inc()
			lastErr = err
			continue
		}
		metrics.ConversionsTotal.WithLabelValues(a.Format, "success").Inc()
		return a, data, nil
	}
	if lastErr == nil {
		lastErr = errNoEncoder
	}
	return Attempt{}, nil, lastErr
}

// Result reports what the processor did to a file. Changed false means the
// original file and metadata are untouched, either because the filename
// carries a skip marker or because every processing step failed. The upload
// completes either way.
type Result struct {
	Changed bool
	Skipped bool
	Path    string
	Mime    string
	Width   int
	Height  int
}

// Processor runs the upload-time transform: crop to the target ratio,
// resize to the output dimensions, and re-encode into the best available
// format.
type Processor struct {
	Params CropParams
	// SkipMarkers lists filename substrings that exempt a file from any
	// transformation, so brand assets survive untouched.
	SkipMarkers []string
}

// NewProcessor returns a Processor with the default crop tunables and skip
// markers.
func NewProcessor() *Processor {
	return &Processor{
		Params:      DefaultCropParams(),
		SkipMarkers: []string{"logo", "noresize"},
	}
}

// Process transforms one image file in place. The returned Result always
// carries a usable path; on any failure it is the unchanged source path.
func (p *Processor) Process(path string) Result {
	name := strings.ToLower(filepath.Base(path))
	for _, marker := range p.SkipMarkers {
		if marker != "" && strings.Contains(name, strings.ToLower(marker)) {
			logging.Debug("skipping %s: filename contains %q", filepath.Base(path), marker)
			metrics.ConversionsSkippedTotal.Inc()
			return Result{Skipped: true, Path: path}
		}
	}

	start := time.Now()
	defer func() {
		metrics.ConversionDuration.Observe(time.Since(start).Seconds())
	}()

	dims, err := GetImageDimensions(path)
	if err != nil {
		logging.Warn("cannot read dimensions of %s: %v", path, err)
		return Result{Path: path}
	}

	plan, err := p.Params.Plan(dims.Width, dims.Height)
	if err != nil {
		logging.Warn("cannot plan crop for %s: %v", path, err)
		return Result{Path: path}
	}

	attempts := encodeAttempts(filepath.Ext(path))

	var res Result
	if IsVipsAvailable() {
		res = p.processWithVips(path, plan, attempts)
	} else {
		res = p.processWithImaging(path, plan)
	}
	if !res.Changed {
		return res
	}

	if out, err := GetImageDimensions(res.Path); err == nil {
		res.Width = out.Width
		res.Height = out.Height
	}
	return res
}

// replaceFile writes the encoded bytes next to the source and removes the
// superseded source file when the extension changed.
func replaceFile(srcPath string, ext string, data []byte) (string, error) {
	newPath := strings.TrimSuffix(srcPath, filepath.Ext(srcPath)) + ext
	if err := os.WriteFile(newPath, data, 0644); err != nil {
		return "", err
	}
	if newPath != srcPath {
		if err := os.Remove(srcPath); err != nil {
			logging.Warn("failed to remove superseded file %s: %v", srcPath, err)
		}
	}
	return newPath, nil
}
