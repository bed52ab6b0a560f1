package domain

import "github.com/shopspring/decimal"

// DebitNormal reports whether debits increase this account type's balance.
// Asset and Expense accounts are debit-normal; Liability, Equity and Revenue
// are credit-normal.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// SignFor returns the sign (+1 or -1) a posting of entryType applies to an
// account of the given type. Defined for Debit and Credit only; every other
// entry type carries an explicit delta and returns 0 here.
func SignFor(accountType AccountType, entryType EntryType) int {
	debitSign := 1
	if !accountType.DebitNormal() {
		debitSign = -1
	}
	switch entryType {
	case EntryTypeDebit:
		return debitSign
	case EntryTypeCredit:
		return -debitSign
	default:
		return 0
	}
}

func signedAmount(accountType AccountType, entryType EntryType, amount decimal.Decimal) decimal.Decimal {
	if SignFor(accountType, entryType) < 0 {
		return amount.Neg()
	}
	return amount
}

// debitEquivalent re-expresses an entry's delta on the debit side of the
// account: positive means debit activity, negative means credit activity.
// Debit and Credit entries reduce to +Amount/-Amount under this rule, and
// Adjustment/Reversal deltas classify by the side they actually moved.
func debitEquivalent(accountType AccountType, delta decimal.Decimal) decimal.Decimal {
	if SignFor(accountType, EntryTypeDebit) < 0 {
		return delta.Neg()
	}
	return delta
}
