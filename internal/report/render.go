package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mattn/go-runewidth"

	"testdesk/models"
)

// Format selects a renderer.
type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatTable, FormatMarkdown, FormatHTML, FormatJSON}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(strings.TrimSpace(s)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q (want table, markdown, html or json)", s)
}

var tableHeader = []string{"画面", "シナリオ", "状態", "メッセージ", "項目数"}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

// Render writes outcomes in the given format. title heads markdown and HTML
// output.
func Render(w io.Writer, format Format, title string, outcomes []models.ImportOutcome) error {
	switch format {
	case FormatTable:
		return renderTable(w, outcomes)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(title, outcomes))
		return err
	case FormatHTML:
		_, err := w.Write(HTML(title, outcomes))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Outcomes []models.ImportOutcome `json:"outcomes"`
			Summary  Summary                `json:"summary"`
		}{Outcomes: nonNil(outcomes), Summary: Summarize(outcomes)})
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func nonNil(outcomes []models.ImportOutcome) []models.ImportOutcome {
	if outcomes == nil {
		return []models.ImportOutcome{}
	}
	return outcomes
}

func outcomeCells(o models.ImportOutcome) []string {
	return []string{o.Screen, o.Name, o.Status, o.Message, fmt.Sprint(o.ItemCount)}
}

// renderTable pads columns by display width so CJK text lines up.
func renderTable(w io.Writer, outcomes []models.ImportOutcome) error {
	rows := make([][]string, len(outcomes))
	for i, o := range outcomes {
		rows[i] = outcomeCells(o)
	}

	var b strings.Builder
	writeTable(&b, tableHeader, rows, func(row, col int, cell string) string {
		if col != 2 {
			return cell
		}
		if outcomes[row].Succeeded() {
			return successStyle.Render(cell)
		}
		return failureStyle.Render(cell)
	})

	s := Summarize(outcomes)
	fmt.Fprintf(&b, "\n%d scenarios: %d created, %d overwritten, %d kept, %d failed; %d items\n",
		s.Total, s.Created, s.Overwritten, s.Kept, s.Failed, s.Items)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteTable writes rows under header with columns padded to their widest
// cell as displayed in a terminal.
func WriteTable(w io.Writer, header []string, rows [][]string) error {
	var b strings.Builder
	writeTable(&b, header, rows, nil)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeTable(b *strings.Builder, header []string, rows [][]string, style func(row, col int, cell string) string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for i := 0; i < len(r) && i < len(widths); i++ {
			if cw := runewidth.StringWidth(r[i]); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	for i, h := range header {
		b.WriteString(headerStyle.Render(runewidth.FillRight(h, widths[i])))
		b.WriteString("  ")
	}
	b.WriteString("\n")
	for i := range header {
		b.WriteString(strings.Repeat("-", widths[i]))
		b.WriteString("  ")
	}
	b.WriteString("\n")

	for ri, r := range rows {
		for i := range header {
			cell := ""
			if i < len(r) {
				cell = r[i]
			}
			cell = runewidth.FillRight(cell, widths[i])
			if style != nil {
				cell = style(ri, i, cell)
			}
			b.WriteString(cell)
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}
}

// Markdown renders the summary and per-screen groups as a markdown document.
func Markdown(title string, outcomes []models.ImportOutcome) string {
	s := Summarize(outcomes)
	var b strings.Builder

	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", escapeMarkdown(title))
	}
	fmt.Fprintf(&b, "- 新規登録: %d\n- 上書き登録: %d\n- 既存維持: %d\n- 失敗: %d\n- 項目数: %d\n",
		s.Created, s.Overwritten, s.Kept, s.Failed, s.Items)
	if s.ItemStats.Scenarios > 0 {
		fmt.Fprintf(&b, "- 項目数 (平均 / 中央値 / 最大): %.1f / %.1f / %.0f\n",
			s.ItemStats.Mean, s.ItemStats.Median, s.ItemStats.Max)
	}

	for _, g := range s.Screens {
		fmt.Fprintf(&b, "\n## %s\n\n", escapeMarkdown(g.Screen))
		b.WriteString("| シナリオ | 状態 | メッセージ | 項目数 |\n")
		b.WriteString("| --- | --- | --- | ---: |\n")
		for _, sc := range g.Scenarios {
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n",
				escapeMarkdown(sc.Name), sc.Status, escapeMarkdown(sc.Message), sc.ItemCount)
		}
	}
	return b.String()
}

// HTML renders the markdown report as a complete HTML page.
func HTML(title string, outcomes []models.ImportOutcome) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: title,
	})
	return markdown.ToHTML([]byte(Markdown(title, outcomes)), p, renderer)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, `|`, `\|`, `*`, `\*`, `_`, `\_`, "`", "\\`", `<`, `&lt;`, `>`, `&gt;`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
