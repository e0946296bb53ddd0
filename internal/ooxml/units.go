// Package ooxml assembles Office Open XML containers (WordprocessingML and
// PresentationML) from hand-built parts. Parts are written in a fixed order
// with fixed metadata so identical input always produces identical bytes.
package ooxml

import "math"

// EMU (English Metric Units) per unit of length.
const (
	EMUPerCm   = 360000
	EMUPerInch = 914400
	EMUPerPx   = 9525 // at 96 dpi
)

// CmToEMU converts centimeters to EMU.
func CmToEMU(cm float64) int64 {
	return int64(math.Round(cm * EMUPerCm))
}

// PxToEMU converts pixels at 96 dpi to EMU.
func PxToEMU(px int) int64 {
	return int64(px) * EMUPerPx
}

// CmToTwips converts centimeters to twentieths of a point.
func CmToTwips(cm float64) int {
	return int(math.Round(cm * 1440 / 2.54))
}

// HalfPoints converts a point size to WordprocessingML half-points.
func HalfPoints(pt float64) int {
	return int(math.Round(pt * 2))
}

// CentiPoints converts a point size to DrawingML hundredths of a point.
func CentiPoints(pt float64) int {
	return int(math.Round(pt * 100))
}

// SpacingLine converts a line-spacing multiplier to the 240ths used by
// w:spacing with lineRule "auto".
func SpacingLine(multiplier float64) int {
	return int(math.Round(multiplier * 240))
}
