package policy

import (
	"fmt"

	"assetopt/internal/services"
)

// FitWithin scales width x height so that neither side exceeds maxDimension.
//
// Images already within the cap are returned unchanged. Otherwise the larger
// side is clamped (height wins for square and portrait images), the other side
// follows the aspect ratio rounded down, and both are rounded down to an even
// number with a floor of 1. The result never exceeds the input on either axis.
func FitWithin(width, height, maxDimension int) (int, int, error) {
	if width <= 0 || height <= 0 {
		return 0, 0, services.Wrap(services.ErrInvalidAsset, "policy", "compute target size",
			fmt.Sprintf("invalid dimensions %dx%d", width, height), nil)
	}
	if maxDimension <= 0 {
		return 0, 0, services.Wrap(services.ErrConfiguration, "policy", "compute target size",
			fmt.Sprintf("max dimension must be positive, got %d", maxDimension), nil)
	}
	if width <= maxDimension && height <= maxDimension {
		return width, height, nil
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxDimension
		newHeight = int(int64(height) * int64(maxDimension) / int64(width))
	} else {
		newHeight = maxDimension
		newWidth = int(int64(width) * int64(maxDimension) / int64(height))
	}
	return evenFloor(newWidth), evenFloor(newHeight), nil
}

func evenFloor(v int) int {
	v -= v % 2
	if v < 1 {
		return 1
	}
	return v
}
