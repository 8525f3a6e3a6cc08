package journal

import (
	"github.com/shopspring/decimal"

	"github.com/ponmo-books/ponmo/internal/model"
)

// NormalBalance converts raw debit and credit totals to a balance on the
// account's normal side. Positive always means the expected side.
func NormalBalance(acct model.Account, debit, credit decimal.Decimal) decimal.Decimal {
	if acct.Type.DebitNormal() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// AccountBalance folds the lines of counted entries that touch acct.
func AccountBalance(entries []model.JournalEntry, acct model.Account) decimal.Decimal {
	debit, credit := decimal.Zero, decimal.Zero
	for _, e := range entries {
		if !e.Status.Counted() {
			continue
		}
		for _, l := range e.Lines {
			if l.AccountCode != acct.Code {
				continue
			}
			debit = debit.Add(l.Debit)
			credit = credit.Add(l.Credit)
		}
	}
	return NormalBalance(acct, debit, credit)
}

// Balances returns the balance of every account in accounts, zeros included.
// Lines on codes outside accounts are ignored.
func Balances(entries []model.JournalEntry, accounts []model.Account) map[string]decimal.Decimal {
	type sums struct{ debit, credit decimal.Decimal }
	totals := make(map[string]*sums, len(accounts))
	for _, a := range accounts {
		totals[a.Code] = &sums{debit: decimal.Zero, credit: decimal.Zero}
	}

	for _, e := range entries {
		if !e.Status.Counted() {
			continue
		}
		for _, l := range e.Lines {
			t, ok := totals[l.AccountCode]
			if !ok {
				continue
			}
			t.debit = t.debit.Add(l.Debit)
			t.credit = t.credit.Add(l.Credit)
		}
	}

	out := make(map[string]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		t := totals[a.Code]
		out[a.Code] = NormalBalance(a, t.debit, t.credit)
	}
	return out
}

// NonZero drops zero balances.
func NonZero(balances map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(balances))
	for code, b := range balances {
		if !b.IsZero() {
			out[code] = b
		}
	}
	return out
}
