package report

import (
	"fmt"

	"glreport/internal/core"
)

// Column field types understood by the rendering layer.
const (
	FieldTypeDate        = "Date"
	FieldTypeData        = "Data"
	FieldTypeDynamicLink = "Dynamic Link"
	FieldTypeFloat       = "Float"
)

// Columns describes the report columns for the given filters, in display
// order. Amount labels carry the presentation currency.
func Columns(f Filters) []core.Column {
	columns := []core.Column{
		{FieldName: "posting_date", FieldType: FieldTypeDate, Label: "Posting Date", Width: 100},
		{FieldName: "voucher_type", FieldType: FieldTypeData, Label: "Voucher Type", Width: 120},
		{FieldName: "voucher_no", FieldType: FieldTypeDynamicLink, Label: "Voucher No", Options: "voucher_type", Width: 180},
	}

	if f.AddValuesInTransactionCurrency {
		columns = append(columns,
			core.Column{FieldName: "debit_in_account_currency", FieldType: FieldTypeFloat, Label: "Debit in Transaction Currency", Width: 150},
			core.Column{FieldName: "credit_in_account_currency", FieldType: FieldTypeFloat, Label: "Credit in Transaction Currency", Width: 150},
			core.Column{FieldName: "account_currency", FieldType: FieldTypeData, Label: "Currency", Width: 80},
		)
	}

	currency := f.Currency()
	columns = append(columns,
		core.Column{FieldName: "debit", FieldType: FieldTypeFloat, Label: fmt.Sprintf("Debit (%s)", currency), Width: 130},
		core.Column{FieldName: "credit", FieldType: FieldTypeFloat, Label: fmt.Sprintf("Credit (%s)", currency), Width: 130},
		core.Column{FieldName: "balance", FieldType: FieldTypeFloat, Label: fmt.Sprintf("Balance (%s)", currency), Width: 130},
	)

	if f.ShowRemarks {
		columns = append(columns, core.Column{FieldName: "remarks", FieldType: FieldTypeData, Label: "Remarks", Width: 200})
	}

	return columns
}

// Cell returns the value of a row for a column field name, or nil when the
// row does not carry it.
func Cell(row core.ReportRow, field string) any {
	switch field {
	case "posting_date":
		return row.PostingDate.String()
	case "voucher_type":
		return row.VoucherType
	case "voucher_no":
		return row.VoucherNo
	case "debit":
		return row.Debit
	case "credit":
		return row.Credit
	case "balance":
		return row.Balance
	case "debit_in_account_currency":
		if row.DebitInAccountCurrency != nil {
			return *row.DebitInAccountCurrency
		}
	case "credit_in_account_currency":
		if row.CreditInAccountCurrency != nil {
			return *row.CreditInAccountCurrency
		}
	case "account_currency":
		if row.AccountCurrency != nil {
			return *row.AccountCurrency
		}
	case "remarks":
		if row.Remarks != nil {
			return *row.Remarks
		}
	}
	return nil
}
