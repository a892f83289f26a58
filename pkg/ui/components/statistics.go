package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/asset"
)

// Unavailable marks a statistic that could not be loaded.
const Unavailable = "unavailable"

// StatisticsComponent renders the network statistics grid.
type StatisticsComponent struct {
	stats domain.Statistics
}

func NewStatisticsComponent() *StatisticsComponent {
	return &StatisticsComponent{}
}

// Update replaces the statistics shown.
func (s *StatisticsComponent) Update(stats domain.Statistics) {
	s.stats = stats
}

// View renders two columns of three cells within width.
func (s *StatisticsComponent) View(width int) string {
	left := []string{
		cell("ETHER PRICE", usd(s.stats.EthUSD)),
		cell("SUGGESTED BASE FEE", gwei(s.stats.SuggestedBaseFee)),
		cell("LAST SAFE BLOCK", height(s.stats.LastSafeBlock)),
	}
	right := []string{
		cell("NODES", count(s.stats.NodeCount)),
		cell("MED GAS PRICE", gwei(s.stats.MedianGasPrice)),
		cell("LAST FINALIZED BLOCK", height(s.stats.LastFinalizedBlock)),
	}

	col := lipgloss.NewStyle().Width(max(width/2, 1))
	return lipgloss.JoinHorizontal(lipgloss.Top,
		col.Render(strings.Join(left, "\n")),
		col.Render(strings.Join(right, "\n")),
	)
}

func cell(title, value string) string {
	return labelStyle.Render(title) + "\n" + valueStyle.Bold(true).Render(value)
}

func usd(d *decimal.Decimal) string {
	if d == nil {
		return Unavailable
	}
	return asset.FormatUSD(*d)
}

func gwei(d *decimal.Decimal) string {
	if d == nil {
		return Unavailable
	}
	return d.String() + " Gwei"
}

func count(n *uint64) string {
	if n == nil {
		return Unavailable
	}
	return strconv.FormatUint(*n, 10)
}

func height(h *types.Header) string {
	if h == nil || h.Number == nil {
		return Unavailable
	}
	return "#" + h.Number.String()
}
