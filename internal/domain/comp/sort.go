package comp

import (
	"sort"
	"strings"
)

// SortForDisplay orders comps the way the comparables picker presents them:
// pending transactions first, alphabetically by business name, then closed
// transactions by most recent sale date. The input is not modified.
func SortForDisplay(comps []*Comp) []*Comp {
	out := make([]*Comp, len(comps))
	copy(out, comps)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		aPending := a.SaleStatus == SalePending
		bPending := b.SaleStatus == SalePending
		if aPending != bPending {
			return aPending
		}
		if aPending {
			return strings.ToLower(a.BusinessName) < strings.ToLower(b.BusinessName)
		}
		switch {
		case a.DateSold == nil:
			return false
		case b.DateSold == nil:
			return true
		default:
			return a.DateSold.After(*b.DateSold)
		}
	})
	return out
}
