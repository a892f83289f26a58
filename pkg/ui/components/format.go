// Package components renders the dashboard panes from a state snapshot.
package components

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/asset"
)

// NotFound is shown for a frame whose lookup found nothing.
const NotFound = "Not Found"

var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#10B981")
	colorDanger    = lipgloss.Color("#EF4444")
	colorWarning   = lipgloss.Color("#F59E0B")
	colorMuted     = lipgloss.Color("#6B7280")

	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	labelStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(colorPrimary)
	itemStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Underline(true)
	successStyle  = lipgloss.NewStyle().Foreground(colorSecondary)
	failureStyle  = lipgloss.NewStyle().Foreground(colorDanger)
	warningStyle  = lipgloss.NewStyle().Foreground(colorWarning)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)

// Labeler turns addresses into display labels: the ENS name when one is
// cached, else a known token label, else the checksummed hex.
type Labeler struct {
	Ens      *domain.EnsCache
	Registry *asset.Registry
	ChainID  uint64
}

// Address labels a, keeping the hex visible next to any name.
func (l Labeler) Address(a common.Address) string {
	if name := l.name(a); name != "" {
		return name + " (" + a.Hex() + ")"
	}
	return a.Hex()
}

// Short labels a for narrow table columns.
func (l Labeler) Short(a common.Address) string {
	if name := l.name(a); name != "" {
		return name
	}
	return ShortHex(a.Hex())
}

func (l Labeler) name(a common.Address) string {
	if l.Ens != nil {
		if name := l.Ens.Name(a); name != "" {
			return name
		}
	}
	if l.Registry != nil {
		return l.Registry.Label(l.ChainID, a)
	}
	return ""
}

// ShortHex keeps the first and last four digits of a hex string.
func ShortHex(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

// Timestamp formats unix seconds in UTC.
func Timestamp(sec uint64) string {
	return time.Unix(int64(sec), 0).UTC().Format("2006-01-02 15:04:05 UTC")
}

// Percent renders part/whole with one decimal.
func Percent(part, whole uint64) string {
	if whole == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(whole))
}

// Fee multiplies gas by price; nil when price is unknown.
func Fee(gas uint64, price *big.Int) *big.Int {
	if price == nil {
		return nil
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(gas), price)
}

// Truncate cuts s to width runes.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

type field struct {
	label string
	value string
	// item is the selectable row index, or -1.
	item int
}

func plain(label, value string) field { return field{label: label, value: value, item: -1} }

func selectable(label, value string, item int) field {
	return field{label: label, value: value, item: item}
}

// renderFields lays out label/value rows. The row whose item equals cursor is
// highlighted; other selectable rows are underlined.
func renderFields(fields []field, cursor int) string {
	width := 0
	for _, f := range fields {
		width = max(width, len(f.label))
	}

	var b strings.Builder
	for i, f := range fields {
		label := labelStyle.Render(fmt.Sprintf("%-*s", width, f.label))
		value := valueStyle.Render(f.value)
		switch {
		case f.item >= 0 && f.item == cursor:
			value = selectedStyle.Render(f.value)
		case f.item >= 0:
			value = itemStyle.Render(f.value)
		}
		b.WriteString(label + "  " + value)
		if i < len(fields)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// table renders rows under a header, highlighting the row at cursor.
func table(header []string, rows [][]string, widths []int, cursor int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(formatRow(header, widths)))
	for i, row := range rows {
		b.WriteString("\n")
		line := formatRow(row, widths)
		if i == cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(line)
		}
	}
	return b.String()
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		w := 12
		if i < len(widths) {
			w = widths[i]
		}
		parts[i] = fmt.Sprintf("%-*s", w, Truncate(c, w))
	}
	return strings.TrimRight(strings.Join(parts, " "), " ")
}

// visible returns the [start, end) window of n rows of at most limit rows
// that keeps cursor in view.
func visible(n, cursor, limit int) (int, int) {
	if limit <= 0 || n <= limit {
		return 0, n
	}
	start := 0
	if cursor >= limit {
		start = cursor - limit + 1
	}
	return start, start + limit
}
