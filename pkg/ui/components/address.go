package components

import (
	"slices"
	"strconv"
	"strings"

	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/asset"
)

// Address renders the address view. cursor indexes AddressDetailItems; the
// selected contract item is expanded below the summary.
func Address(info *domain.AddressInfo, cursor, width, limit int, lab Labeler) string {
	if info == nil {
		return NotFound
	}
	items := domain.AddressDetailItems(info)
	at := func(it domain.AddressDetailItem) int { return slices.Index(items, it) }

	kind := "Externally Owned Account"
	if info.IsContract() {
		kind = "Contract"
	}
	fields := []field{
		plain("Address", info.Address.Hex()),
		plain("Type", kind),
	}
	if info.Name != nil {
		fields = append(fields, plain("ENS Name", *info.Name))
	} else if label := lab.name(info.Address); label != "" {
		fields = append(fields, plain("Label", label))
	}
	if info.AvatarURL != nil {
		fields = append(fields, plain("Avatar", *info.AvatarURL))
	}
	fields = append(fields, plain("Balance", asset.FormatEther(info.Balance, 18)))

	if src := info.ContractSource; src != nil {
		fields = append(fields, selectable("Contract Source", src.ContractName, at(domain.AddressItemSource)))
	}
	if info.ContractABI != nil {
		fields = append(fields, selectable("Contract ABI", strconv.Itoa(len(*info.ContractABI))+" bytes", at(domain.AddressItemABI)))
	}

	out := renderFields(fields, cursor)
	if cursor < 0 || cursor >= len(items) {
		return out
	}
	switch items[cursor] {
	case domain.AddressItemSource:
		out += "\n\n" + contractSource(info.ContractSource, limit)
	case domain.AddressItemABI:
		out += "\n\n" + clip(wrap(*info.ContractABI, max(width, 16)), limit)
	}
	return out
}

func contractSource(src *domain.ContractSource, limit int) string {
	optimization := "No"
	if src.OptimizationUsed {
		optimization = "Yes with " + strconv.Itoa(src.Runs) + " runs"
	}
	fields := []field{
		plain("Contract Name", src.ContractName),
		plain("Compiler Version", src.CompilerVersion),
		plain("Optimization", optimization),
		plain("EVM Version", src.EVMVersion),
		plain("License", src.LicenseType),
	}
	if src.Proxy {
		fields = append(fields, plain("Implementation", src.Implementation))
	}
	code := clip(src.SourceCode, max(limit-len(fields)-1, 1))
	return renderFields(fields, domain.NoCursor) + "\n\n" + mutedStyle.Render(code)
}

// clip keeps the first limit lines of s.
func clip(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n") + "\n…"
}
