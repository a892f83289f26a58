package components

import (
	"slices"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/blockterm/business/explorer/domain"
	"github.com/fd1az/blockterm/internal/asset"
)

func statusText(status uint64) string {
	if status == types.ReceiptStatusSuccessful {
		return "Success"
	}
	return "Failed"
}

func receiptStatus(status uint64) string {
	if status == types.ReceiptStatusSuccessful {
		return successStyle.Render(statusText(status))
	}
	return failureStyle.Render(statusText(status))
}

// Transaction renders the transaction detail view. cursor indexes
// TxDetailItems.
func Transaction(tx *domain.TxWithReceipt, cursor int, lab Labeler) string {
	if tx == nil {
		return NotFound
	}
	t := tx.Tx
	items := domain.TxDetailItems(tx)
	at := func(it domain.TxDetailItem) int { return slices.Index(items, it) }

	status := warningStyle.Render("Pending")
	block := "-"
	fee := "-"
	gasPrice := asset.FormatGwei(t.GasPrice(), 2)
	gasUsage := strconv.FormatUint(t.Gas(), 10)
	if r := tx.Receipt; r != nil {
		status = receiptStatus(r.Status)
		if r.BlockNumber != nil {
			block = r.BlockNumber.String()
		}
		if r.EffectiveGasPrice != nil {
			gasPrice = asset.FormatGwei(r.EffectiveGasPrice, 2)
			fee = asset.FormatEther(Fee(r.GasUsed, r.EffectiveGasPrice), 8)
		}
		gasUsage += " | " + strconv.FormatUint(r.GasUsed, 10) + " (" + Percent(r.GasUsed, t.Gas()) + ")"
	}

	fields := []field{
		plain("Transaction Hash", tx.Hash().Hex()),
		plain("Status", status),
		plain("Block", block),
		selectable("From", lab.Address(tx.From), at(domain.TxItemFrom)),
	}
	if to := t.To(); to != nil {
		fields = append(fields, selectable("To", lab.Address(*to), at(domain.TxItemTo)))
	} else {
		created := "Contract Creation"
		if tx.Receipt != nil {
			created += " " + tx.Receipt.ContractAddress.Hex()
		}
		fields = append(fields, plain("To", created))
	}
	fields = append(fields,
		plain("Value", asset.FormatEther(t.Value(), 18)),
		plain("Transaction Fee", fee),
		plain("Gas Price", gasPrice),
		plain("Gas Limit & Usage", gasUsage),
		plain("Nonce", strconv.FormatUint(t.Nonce(), 10)),
		plain("Type", txType(t.Type())),
	)
	if data := t.Data(); len(data) > 0 {
		fields = append(fields, selectable("Input Data", inputSummary(data), at(domain.TxItemInputData)))
	}
	return renderFields(fields, cursor)
}

func txType(t uint8) string {
	switch t {
	case types.LegacyTxType:
		return "0 (Legacy)"
	case types.AccessListTxType:
		return "1 (EIP-2930)"
	case types.DynamicFeeTxType:
		return "2 (EIP-1559)"
	case types.BlobTxType:
		return "3 (EIP-4844)"
	case types.SetCodeTxType:
		return "4 (EIP-7702)"
	default:
		return strconv.Itoa(int(t))
	}
}

func inputSummary(data []byte) string {
	s := strconv.Itoa(len(data)) + " bytes"
	if len(data) >= 4 {
		s += ", selector " + hexutil.Encode(data[:4])
	}
	return s
}

// InputData renders decoded calldata, or the raw bytes when no ABI was
// available.
func InputData(tx *domain.TxWithReceipt, decoded *domain.DecodedInput, width int) string {
	if tx == nil {
		return NotFound
	}
	data := tx.Tx.Data()
	var b strings.Builder
	b.WriteString(headerStyle.Render("Input data of "+tx.Hash().Hex()) + "\n\n")

	if decoded == nil {
		b.WriteString(mutedStyle.Render("Contract ABI unavailable, showing raw input") + "\n\n")
		b.WriteString(wrap(hexutil.Encode(data), max(width, 16)))
		return b.String()
	}

	fields := []field{
		plain("Function", decoded.Signature),
		plain("Method ID", decoded.Selector),
	}
	for i, arg := range decoded.Args {
		name := arg.Name
		if name == "" {
			name = "arg" + strconv.Itoa(i)
		}
		fields = append(fields, plain("["+strconv.Itoa(i)+"] "+name+" "+arg.Type, arg.Value))
	}
	b.WriteString(renderFields(fields, domain.NoCursor))
	return b.String()
}

func wrap(s string, width int) string {
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteString("\n")
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}
