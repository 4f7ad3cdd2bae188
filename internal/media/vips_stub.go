//go:build !vips

package media

// Stubs used when the binary is built without the vips tag. libvips is
// never initialized, so Process always takes the pure-Go imaging path.

// InitVips is a no-op without libvips support compiled in.
func InitVips() error { return nil }

// ShutdownVips is a no-op without libvips support compiled in.
func ShutdownVips() {}

// IsVipsAvailable reports whether libvips is initialized and available.
// Without libvips compiled in it is always false.
func IsVipsAvailable() bool { return false }

// processWithVips is unreachable without libvips (IsVipsAvailable is
// always false); it falls through to the pure-Go path.
func (p *Processor) processWithVips(path string, plan *CropPlan, attempts []Attempt) Result {
	return p.processWithImaging(path, plan)
}
