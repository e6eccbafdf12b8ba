package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Document status values carried by GL entries.
const (
	DocStatusDraft     = 0
	DocStatusSubmitted = 1
	DocStatusCancelled = 2
)

type (
	Date struct {
		time.Time
	}

	// LedgerEntry is a single debit/credit posting tied to a voucher.
	// Entries are read-only to this system.
	LedgerEntry struct {
		Name               string    `json:"name"`
		PostingDate        Date      `json:"posting_date"`
		Creation           time.Time `json:"creation"`
		Company            string    `json:"company"`
		Account            string    `json:"account"`
		PartyType          string    `json:"party_type"`
		Party              string    `json:"party"`
		CostCenter         string    `json:"cost_center"`
		Project            string    `json:"project"`
		VoucherType        string    `json:"voucher_type"`
		VoucherNo          string    `json:"voucher_no"`
		AgainstVoucherType string    `json:"against_voucher_type"`

		Debit                   decimal.Decimal `json:"debit"`
		Credit                  decimal.Decimal `json:"credit"`
		DebitInAccountCurrency  decimal.Decimal `json:"debit_in_account_currency"`
		CreditInAccountCurrency decimal.Decimal `json:"credit_in_account_currency"`
		AccountCurrency         string          `json:"account_currency"`

		Remarks           string `json:"remarks"`
		DocStatus         int    `json:"docstatus"`
		IsSystemGenerated bool   `json:"is_system_generated"`
	}

	// ReportRow is one line of the GL report. Pointer members are only set
	// when the matching report option is enabled.
	ReportRow struct {
		PostingDate Date            `json:"posting_date"`
		VoucherType string          `json:"voucher_type"`
		VoucherNo   string          `json:"voucher_no"`
		Debit       decimal.Decimal `json:"debit"`
		Credit      decimal.Decimal `json:"credit"`
		Balance     decimal.Decimal `json:"balance"`

		DebitInAccountCurrency  *decimal.Decimal `json:"debit_in_account_currency,omitempty"`
		CreditInAccountCurrency *decimal.Decimal `json:"credit_in_account_currency,omitempty"`
		AccountCurrency         *string          `json:"account_currency,omitempty"`
		Remarks                 *string          `json:"remarks,omitempty"`
	}

	// Column describes how a report field is displayed.
	Column struct {
		FieldName string `json:"fieldname"`
		FieldType string `json:"fieldtype"`
		Label     string `json:"label"`
		Options   string `json:"options,omitempty"`
		Width     int    `json:"width"`
	}

	Report struct {
		Columns []Column    `json:"columns"`
		Rows    []ReportRow `json:"data"`
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrEmptyAccount  = errors.New("empty account")
	ErrEmptyVoucher  = errors.New("empty voucher")
	ErrInvalidStatus = errors.New("invalid docstatus")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. Timestamps are truncated to their date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf drops the clock part of t.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalJSON decodes an entry and coerces the amounts with Flt, so a
// malformed amount reads as zero instead of failing the whole document.
func (e *LedgerEntry) UnmarshalJSON(b []byte) error {
	type plain LedgerEntry
	aux := struct {
		*plain
		Debit                   json.RawMessage `json:"debit"`
		Credit                  json.RawMessage `json:"credit"`
		DebitInAccountCurrency  json.RawMessage `json:"debit_in_account_currency"`
		CreditInAccountCurrency json.RawMessage `json:"credit_in_account_currency"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	e.Debit = amountFromJSON(aux.Debit)
	e.Credit = amountFromJSON(aux.Credit)
	e.DebitInAccountCurrency = amountFromJSON(aux.DebitInAccountCurrency)
	e.CreditInAccountCurrency = amountFromJSON(aux.CreditInAccountCurrency)
	return nil
}

func amountFromJSON(raw json.RawMessage) decimal.Decimal {
	if len(raw) == 0 {
		return decimal.Zero
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return decimal.Zero
	}
	return Flt(v)
}

// Validate checks the fields an entry needs to be stored.
func (e LedgerEntry) Validate() error {
	if e.PostingDate.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(e.Account) == "" {
		return ErrEmptyAccount
	}
	if strings.TrimSpace(e.VoucherType) == "" || strings.TrimSpace(e.VoucherNo) == "" {
		return ErrEmptyVoucher
	}
	switch e.DocStatus {
	case DocStatusDraft, DocStatusSubmitted, DocStatusCancelled:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// Closing returns the balance carried by the last row, or zero.
func (r Report) Closing() decimal.Decimal {
	if len(r.Rows) == 0 {
		return decimal.Zero
	}
	return r.Rows[len(r.Rows)-1].Balance
}
