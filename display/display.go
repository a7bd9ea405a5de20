// Package display provides the rotation of the device's display relative to its natural
// orientation.
package display

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// Rotation is the rotation of the display, clockwise from its natural orientation.
type Rotation int

// The known rotations.
const (
	RotationNone Rotation = iota
	Rotation90
	Rotation180
	Rotation270
)

func (r Rotation) String() string {
	switch r {
	case RotationNone:
		return "none"
	case Rotation90:
		return "90"
	case Rotation180:
		return "180"
	case Rotation270:
		return "270"
	default:
		return "unknown"
	}
}

// Offset returns the heading offset in degrees for a rotation. Unrecognized rotations have no
// offset.
func Offset(r Rotation) int {
	switch r {
	case Rotation90:
		return 90
	case Rotation180:
		return 180
	case Rotation270:
		return 270
	case RotationNone:
		return 0
	default:
		return 0
	}
}

// RotationFromDegrees returns the rotation for 0, 90, 180 or 270 degrees.
func RotationFromDegrees(degrees int) (Rotation, error) {
	switch degrees {
	case 0:
		return RotationNone, nil
	case 90:
		return Rotation90, nil
	case 180:
		return Rotation180, nil
	case 270:
		return Rotation270, nil
	}
	return RotationNone, errors.Errorf("rotation must be one of 0, 90, 180 or 270 degrees, got %d", degrees)
}

// A Display reports its current rotation. Implementations are read on every call and must not
// block for long.
type Display interface {
	Rotation(ctx context.Context) (Rotation, error)
}

// Static is a Display whose rotation is set by the application.
type Static struct {
	rotation atomic.Int32
}

// NewStatic returns a Static display at the given rotation.
func NewStatic(rotation Rotation) *Static {
	s := &Static{}
	s.Set(rotation)
	return s
}

// Set changes the rotation.
func (s *Static) Set(rotation Rotation) {
	s.rotation.Store(int32(rotation))
}

// Rotation returns the last rotation set.
func (s *Static) Rotation(ctx context.Context) (Rotation, error) {
	return Rotation(s.rotation.Load()), nil
}

// The kinds of display New can construct.
const (
	KindStatic = "static"
	KindSysfs  = "sysfs"
)

// Kinds lists the kinds accepted by New.
var Kinds = []string{KindStatic, KindSysfs}

// New constructs a display of the given kind. rotation only applies to static displays and path
// only to sysfs ones. An empty kind means static.
func New(kind string, rotation Rotation, path string) (Display, error) {
	switch kind {
	case KindStatic, "":
		return NewStatic(rotation), nil
	case KindSysfs:
		return NewSysfs(path), nil
	default:
		return nil, errors.Errorf("unknown display kind %q, expected one of %v", kind, Kinds)
	}
}
