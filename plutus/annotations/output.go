package annotations

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/wbrown/janus-plutus/plutus"
)

// OutputFormatter formats events for human-readable display.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
	renderer *ValueRenderer
}

// NewOutputFormatter creates a formatter with color support detection.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stderr
	}

	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}

	return NewOutputFormatterWithColor(w, useColor)
}

// NewOutputFormatterWithColor creates a formatter with color forced on or off.
func NewOutputFormatterWithColor(w io.Writer, useColor bool) *OutputFormatter {
	return &OutputFormatter{
		useColor: useColor,
		writer:   w,
		renderer: NewValueRenderer(useColor),
	}
}

// Handle implements the Handler interface - prints events as they occur
func (f *OutputFormatter) Handle(event Event) {
	output := f.Format(event)
	if output != "" {
		fmt.Fprintln(f.writer, output)
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event.Latency)
	data := event.Data

	switch event.Name {
	case TemplateLoaded:
		return fmt.Sprintf("%s Template %s loaded with %s",
			latency,
			f.colorize(str(data, "module"), color.FgCyan),
			f.renderer.colorizeCount("parameters", num(data, "params.count")))

	case ParamBound:
		value, _ := data["value"].(plutus.Data)
		return fmt.Sprintf("%s Bound %s",
			latency,
			f.renderer.RenderBinding(str(data, "param"), str(data, "type"), value))

	case ProgramFinalized:
		return fmt.Sprintf("%s Finalized %s (%s)",
			latency,
			str(data, "module"),
			f.renderer.colorizeCount("bytes", num(data, "size.bytes")))

	case ArtifactEmitted:
		return fmt.Sprintf("%s %s Emitted %s with policy id %s",
			latency,
			f.colorize("===", color.FgGreen),
			str(data, "type"),
			f.colorize(str(data, "policy.id"), color.FgCyan))

	case ArtifactStored:
		state := "stored"
		if existing, _ := data["existing"].(bool); existing {
			state = "already stored"
		}
		return fmt.Sprintf("%s Artifact %s %s", latency, str(data, "hash"), state)

	case EvalTrace:
		return fmt.Sprintf("%s %s %s",
			latency,
			f.colorize("trace", color.FgYellow),
			str(data, "message"))

	case ErrorEval:
		return fmt.Sprintf("%s %s Evaluation failed after %s: %v",
			latency,
			f.colorize("✗", color.FgRed),
			f.renderer.colorizeCount("steps", num(data, "steps")),
			data["error"])

	case EvalCompleted:
		value, _ := data["value"].(plutus.Data)
		return fmt.Sprintf("%s %s Evaluated to %s in %s",
			latency,
			f.colorize("===", color.FgGreen),
			f.renderer.RenderValue(value),
			f.renderer.colorizeCount("steps", num(data, "steps")))

	case ErrorBinding, ErrorStorage:
		return fmt.Sprintf("%s %s %s: %v",
			latency,
			f.colorize("✗", color.FgRed),
			event.Name,
			data["error"])

	default:
		return fmt.Sprintf("%s %s %v", latency, event.Name, data)
	}
}

func str(data map[string]interface{}, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	if v, ok := data[key]; ok {
		return fmt.Sprint(v)
	}
	return "?"
}

func num(data map[string]interface{}, key string) int {
	n, _ := data[key].(int)
	return n
}

// formatLatency formats a duration as [XXXms] or [XXXµs] with color coding.
func (f *OutputFormatter) formatLatency(d time.Duration) string {
	if d < time.Millisecond {
		s := fmt.Sprintf("[%dµs]", d.Microseconds())
		if !f.useColor {
			return s
		}
		return color.GreenString(s)
	}

	ms := float64(d.Microseconds()) / 1000.0
	s := fmt.Sprintf("[%.1fms]", ms)
	if !f.useColor {
		return s
	}

	switch {
	case ms < 50:
		return color.GreenString(s)
	case ms < 200:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// colorize applies color if enabled.
func (f *OutputFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// truncate shortens long renderings for display.
func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// ConsoleHandler creates a handler that prints formatted events to stderr.
func ConsoleHandler() Handler {
	return NewOutputFormatter(os.Stderr).Handle
}

// isTerminal checks if the file descriptor is a terminal.
func isTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}
