package media

import (
	"fmt"
	"math"
)

// CropPlan is the source rectangle to extract before resizing. Coordinates
// are in source pixels.
type CropPlan struct {
	X      int
	Y      int
	Width  int
	Height int
}

// CropParams holds the tunables of the crop planner. The focal fractions
// bias portrait crops toward the upper part of the frame, where the subject
// of a portrait photo usually is. The exact numbers are editorial taste,
// not derived from anything.
type CropParams struct {
	TargetRatio float64
	// Tolerance is the relative ratio deviation below which no crop is
	// planned.
	Tolerance float64
	// FloorWidth and FloorHeight are the fixed output dimensions; sources
	// already near the target ratio but smaller than the floor are still
	// cropped so the resize step has an exact-ratio input.
	FloorWidth  int
	FloorHeight int

	// Portrait focal heuristic: for a source aspect ratio below
	// ExtremePortraitBelow use ExtremeFocal, below ModeratePortraitBelow
	// use ModerateFocal, otherwise NearLandscapeFocal.
	ExtremePortraitBelow  float64
	ModeratePortraitBelow float64
	ExtremeFocal          float64
	ModerateFocal         float64
	NearLandscapeFocal    float64
}

// DefaultCropParams returns the production tunables: 16:9 output at 800x450
// with a 2% ratio tolerance.
func DefaultCropParams() CropParams {
	return CropParams{
		TargetRatio:           16.0 / 9.0,
		Tolerance:             0.02,
		FloorWidth:            800,
		FloorHeight:           450,
		ExtremePortraitBelow:  0.4,
		ModeratePortraitBelow: 0.7,
		ExtremeFocal:          0.20,
		ModerateFocal:         0.35,
		NearLandscapeFocal:    0.45,
	}
}

// PlanCrop computes the crop rectangle for a source image using the default
// tunables. A nil plan means no crop is needed and a plain resize suffices.
func PlanCrop(origWidth, origHeight int) (*CropPlan, error) {
	return DefaultCropParams().Plan(origWidth, origHeight)
}

// Plan computes the crop rectangle for a source of the given dimensions.
//
// Returns (nil, nil) when the source is already within tolerance of the
// target ratio and at least as large as the output floor. Sources wider
// than the target are center-cropped horizontally; taller sources keep
// their full width and take their vertical offset from the focal heuristic.
func (p CropParams) Plan(origWidth, origHeight int) (*CropPlan, error) {
	if origWidth <= 0 || origHeight <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", origWidth, origHeight)
	}

	origRatio := float64(origWidth) / float64(origHeight)

	if math.Abs(origRatio-p.TargetRatio) <= p.Tolerance*p.TargetRatio &&
		origWidth >= p.FloorWidth && origHeight >= p.FloorHeight {
		return nil, nil
	}

	if origRatio > p.TargetRatio {
		// Wider than target: trim the sides, keep full height.
		cropWidth := int(math.Round(float64(origHeight) * p.TargetRatio))
		if cropWidth > origWidth {
			cropWidth = origWidth
		}
		return &CropPlan{
			X:      (origWidth - cropWidth) / 2,
			Y:      0,
			Width:  cropWidth,
			Height: origHeight,
		}, nil
	}

	// Taller than target: trim top and bottom, keep full width.
	cropHeight := int(math.Round(float64(origWidth) / p.TargetRatio))
	if cropHeight > origHeight {
		cropHeight = origHeight
	}

	focal := p.NearLandscapeFocal
	switch {
	case origRatio < p.ExtremePortraitBelow:
		focal = p.ExtremeFocal
	case origRatio < p.ModeratePortraitBelow:
		focal = p.ModerateFocal
	}

	y := int(math.Round(float64(origHeight-cropHeight) * focal))
	if y < 0 {
		y = 0
	}
	if y+cropHeight > origHeight {
		y = origHeight - cropHeight
	}

	return &CropPlan{
		X:      0,
		Y:      y,
		Width:  origWidth,
		Height: cropHeight,
	}, nil
}
