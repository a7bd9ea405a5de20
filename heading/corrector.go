package heading

import (
	"context"

	"go.viam.com/direction/display"
	"go.viam.com/direction/logging"
	"go.viam.com/direction/utils"
)

// A Corrector converts between raw sensor headings and headings relative to the display. The
// display rotation is read on every call.
type Corrector struct {
	display display.Display
	logger  logging.Logger
}

// NewCorrector returns a Corrector reading rotation from d. A nil d is never rotated.
func NewCorrector(d display.Display, logger logging.Logger) *Corrector {
	return &Corrector{display: d, logger: logger}
}

// Rotation returns the current display rotation, or display.RotationNone when it cannot be read.
func (c *Corrector) Rotation(ctx context.Context) display.Rotation {
	if c.display == nil {
		return display.RotationNone
	}
	rotation, err := c.display.Rotation(ctx)
	if err != nil {
		c.logger.CDebugw(ctx, "display rotation unavailable, assuming none", "error", err)
		return display.RotationNone
	}
	return rotation
}

// Apply adds the display rotation to direction.
func (c *Corrector) Apply(ctx context.Context, direction float64) float64 {
	return utils.ModAngDeg(direction + float64(display.Offset(c.Rotation(ctx))))
}

// Reverse removes the display rotation from direction.
func (c *Corrector) Reverse(ctx context.Context, direction float64) float64 {
	return utils.ModAngDeg(direction - float64(display.Offset(c.Rotation(ctx))))
}
