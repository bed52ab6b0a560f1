package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodSummary is the irreversible rollup of one closed calendar month.
// Summaries only ever append, strictly in calendar order.
type PeriodSummary struct {
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	TotalDebits    decimal.Decimal `json:"total_debits"`
	TotalCredits   decimal.Decimal `json:"total_credits"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	EntryCount     int             `json:"entry_count"`
	ClosedAt       time.Time       `json:"closed_at"`
	ClosedBy       string          `json:"closed_by"`
}

// ClosePeriod closes the account's open period. The requested (year, month)
// must equal the open period, which also rejects closing a period twice: once
// closed, the open period has advanced and the old one can never match again.
//
// Totals aggregate the entries stamped with the closing period (entries
// belong to the period that was open when they posted, not to the calendar
// month of their timestamp). Opening entries are excluded from totals and
// count; everything else classifies by its debit-equivalent delta.
func (a *Account) ClosePeriod(year, month int, closedBy string, now time.Time) (*Account, *PeriodSummary, error) {
	if !a.Initialized() {
		return nil, nil, fmt.Errorf("%w: account is not initialized", ErrNotFound)
	}
	if month < 1 || month > 12 {
		return nil, nil, fmt.Errorf("%w: month %d is out of range", ErrInvalidPeriod, month)
	}
	if year != a.PeriodYear || month != a.PeriodMonth {
		return nil, nil, fmt.Errorf("%w: period %04d-%02d is not open (open period is %04d-%02d)",
			ErrInvalidPeriod, year, month, a.PeriodYear, a.PeriodMonth)
	}

	totalDebits := decimal.Zero
	totalCredits := decimal.Zero
	count := 0
	for i := range a.Entries {
		e := &a.Entries[i]
		if e.PeriodYear != year || e.PeriodMonth != month || e.Type == EntryTypeOpening {
			continue
		}
		equiv := debitEquivalent(a.Type, e.Delta)
		if equiv.IsNegative() {
			totalCredits = totalCredits.Add(equiv.Neg())
		} else {
			totalDebits = totalDebits.Add(equiv)
		}
		count++
	}

	next := a.clone()
	next.Periods = append(next.Periods, PeriodSummary{
		Year:           year,
		Month:          month,
		TotalDebits:    totalDebits,
		TotalCredits:   totalCredits,
		ClosingBalance: a.Balance,
		EntryCount:     count,
		ClosedAt:       now,
		ClosedBy:       closedBy,
	})
	next.PeriodYear, next.PeriodMonth = nextPeriod(year, month)
	next.touch(closedBy, now)

	summary := &next.Periods[len(next.Periods)-1]
	return next, summary, nil
}

func nextPeriod(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}
