package annotations

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/wbrown/janus-plutus/plutus"
)

// maxValueLen bounds rendered values so large contexts stay on one line
const maxValueLen = 72

// ValueRenderer pretty-prints data values for event output
type ValueRenderer struct {
	useColor bool
}

// NewValueRenderer creates a new value renderer
func NewValueRenderer(useColor bool) *ValueRenderer {
	return &ValueRenderer{useColor: useColor}
}

// RenderValue renders a value as Kind(text), truncated
func (r *ValueRenderer) RenderValue(d plutus.Data) string {
	if d == nil {
		return r.colorize("<nil>", color.FgRed)
	}

	text := truncate(d.String(), maxValueLen)
	kind := capitalize(d.Kind().String())
	if !r.useColor {
		return fmt.Sprintf("%s(%s)", kind, text)
	}
	return fmt.Sprintf("%s%s%s",
		color.BlueString(kind+"("),
		color.CyanString(text),
		color.BlueString(")"))
}

// RenderBinding renders name :type = value
func (r *ValueRenderer) RenderBinding(name, typ string, d plutus.Data) string {
	if r.useColor {
		return fmt.Sprintf("%s %s = %s",
			color.CyanString(name),
			color.YellowString(typ),
			r.RenderValue(d))
	}
	return fmt.Sprintf("%s %s = %s", name, typ, r.RenderValue(d))
}

// colorizeCount formats a count with color based on size
func (r *ValueRenderer) colorizeCount(label string, count int) string {
	if !r.useColor {
		return fmt.Sprintf("%d %s", count, label)
	}

	countStr := fmt.Sprintf("%d", count)
	switch {
	case count == 0:
		countStr = color.RedString(countStr)
	case count < 1000:
		countStr = color.GreenString(countStr)
	case count < 100000:
		countStr = color.YellowString(countStr)
	default:
		countStr = color.RedString(countStr)
	}
	return fmt.Sprintf("%s %s", countStr, label)
}

func (r *ValueRenderer) colorize(text string, attrs ...color.Attribute) string {
	if !r.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
