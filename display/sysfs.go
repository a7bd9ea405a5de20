package display

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// DefaultSysfsPath is where the Linux framebuffer console exposes its rotation. It holds 0, 1, 2
// or 3 for quarter turns.
const DefaultSysfsPath = "/sys/class/graphics/fbcon/rotate"

// Sysfs is a Display that reads the rotation from a file holding a quarter turn count.
type Sysfs struct {
	path string
}

// NewSysfs returns a Sysfs display reading path, or DefaultSysfsPath if path is empty.
func NewSysfs(path string) *Sysfs {
	if path == "" {
		path = DefaultSysfsPath
	}
	return &Sysfs{path: path}
}

// Rotation reads the file. Quarter turn counts other than 0 to 3 are returned as is and have no
// offset.
func (s *Sysfs) Rotation(ctx context.Context) (Rotation, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return RotationNone, errors.Wrap(err, "reading display rotation")
	}
	quarterTurns, err := cast.ToIntE(strings.TrimSpace(string(raw)))
	if err != nil {
		return RotationNone, errors.Wrapf(err, "parsing display rotation from %s", s.path)
	}
	return Rotation(quarterTurns), nil
}
