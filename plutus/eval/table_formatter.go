package eval

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wbrown/janus-plutus/plutus"
	"github.com/wbrown/janus-plutus/plutus/ledger"
	"github.com/wbrown/janus-plutus/plutus/template"
)

// TableFormatter renders evaluation diagnostics as markdown tables
type TableFormatter struct {
	// MaxWidth is the maximum width for a cell
	MaxWidth int
	// TruncateString is the string to append when truncating
	TruncateString string
}

// NewTableFormatter creates a new table formatter with default settings
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		MaxWidth:       50,
		TruncateString: "...",
	}
}

// FormatTable formats headers and rows as a markdown table
func (tf *TableFormatter) FormatTable(headers []string, rows [][]string) string {
	tableString := &strings.Builder{}

	alignment := make([]tw.Align, len(headers))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	table.Header(headers)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = tf.truncate(cell)
		}
		table.Append(cells)
	}
	table.Render()

	return tableString.String()
}

// truncate shortens s to MaxWidth runes, never splitting a rune
func (tf *TableFormatter) truncate(s string) string {
	if tf.MaxWidth <= 0 || utf8.RuneCountInString(s) <= tf.MaxWidth {
		return s
	}
	cut := tf.MaxWidth - utf8.RuneCountInString(tf.TruncateString)
	if cut < 0 {
		cut = 0
	}
	return string([]rune(s)[:cut]) + tf.TruncateString
}

// FormatCallSites renders call sites outermost first
func (tf *TableFormatter) FormatCallSites(sites []CallSite) string {
	if len(sites) == 0 {
		return "_No call sites_"
	}
	rows := make([][]string, len(sites))
	for i, cs := range sites {
		pos := "?"
		if cs.Known {
			pos = cs.Pos.String()
		}
		rows[i] = []string{fmt.Sprintf("%d", i), cs.Function, pos}
	}
	return tf.FormatTable([]string{"depth", "function", "position"}, rows)
}

// FormatOutcomes renders a scenario report
func (tf *TableFormatter) FormatOutcomes(outcomes []Outcome) string {
	rows := make([][]string, len(outcomes))
	for i, o := range outcomes {
		status := "ok"
		if !o.Matches() {
			status = "MISMATCH"
		}
		detail := ""
		if o.Err != nil {
			var f *Failure
			if errors.As(o.Err, &f) {
				detail = f.Message
			} else {
				detail = o.Err.Error()
			}
		}
		rows[i] = []string{o.Scenario.Name, passFail(o.Scenario.ExpectSuccess), passFail(o.Succeeded()), status, detail}
	}
	return tf.FormatTable([]string{"scenario", "expected", "actual", "status", "detail"}, rows)
}

func passFail(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// FormatCallSites renders call sites with the default formatter
func FormatCallSites(sites []CallSite) string {
	return NewTableFormatter().FormatCallSites(sites)
}

// Outcome is the result of running one scenario
type Outcome struct {
	Scenario ledger.Scenario
	Result   *Result
	Err      error
}

// Succeeded reports whether evaluation succeeded
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Matches reports whether the outcome is the expected one. Only evaluation
// failures count as an expected failure.
func (o Outcome) Matches() bool {
	if o.Scenario.ExpectSuccess {
		return o.Err == nil && plutus.Equal(o.Result.Value, plutus.Unit())
	}
	return errors.Is(o.Err, ErrEvaluationFailure)
}

// RunScenarios evaluates p against every scenario
func (e *Evaluator) RunScenarios(p *template.Program, scenarios []ledger.Scenario) []Outcome {
	outcomes := make([]Outcome, len(scenarios))
	for i, s := range scenarios {
		res, err := e.Evaluate(p, s.Args())
		outcomes[i] = Outcome{Scenario: s, Result: res, Err: err}
	}
	return outcomes
}
