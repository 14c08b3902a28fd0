package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"realestate-ledger/shared"
)

// SaleView is one row of a LedgerView.
type SaleView struct {
	Sale      Sale            `json:"-"`
	Converted decimal.Decimal `json:"converted"`
	// IsConverted is false when the conversion failed; such rows are left
	// out of the total and Failure holds the reason.
	IsConverted bool   `json:"isConverted"`
	Failure     string `json:"failure,omitempty"`
	InRange     bool   `json:"inRange"`
}

// LedgerView is a consistent copy of everything a display needs, taken at
// one ledger version.
type LedgerView struct {
	LedgerID        string          `json:"ledgerId"`
	Version         int             `json:"version"`
	DisplayCurrency shared.Currency `json:"displayCurrency"`
	BeginDate       time.Time       `json:"beginDate"`
	EndDate         time.Time       `json:"endDate"`
	Sales           []SaleView      `json:"sales"`
	Total           Money           `json:"total"`
}

func CreateView(l *Ledger) LedgerView {
	view := LedgerView{
		LedgerID:        l.ID,
		Version:         l.Version,
		DisplayCurrency: l.displayCurrency,
		BeginDate:       l.beginDate,
		EndDate:         l.endDate,
		Sales:           make([]SaleView, 0, len(l.sales)),
		Total:           l.total,
	}
	for _, sale := range l.sales {
		reason, _ := l.Failure(sale)
		view.Sales = append(view.Sales, SaleView{
			Sale:        sale,
			Converted:   l.ConvertedPrice(sale),
			IsConverted: l.IsConverted(sale),
			Failure:     reason,
			InRange:     l.InRange(sale.Date()),
		})
	}
	return view
}

// Sorted returns a copy of the view's rows ordered by key. Price order uses
// the converted prices captured in the view; unconverted rows rank as zero.
func (v LedgerView) Sorted(key SortKey) []SaleView {
	converted := make(map[uuid.UUID]decimal.Decimal, len(v.Sales))
	for _, row := range v.Sales {
		converted[row.Sale.ID()] = row.Converted
	}
	compare := key.Ordering(func(s Sale) decimal.Decimal { return converted[s.ID()] })

	rows := slices.Clone(v.Sales)
	slices.SortStableFunc(rows, func(a, b SaleView) int { return compare(a.Sale, b.Sale) })
	return rows
}
