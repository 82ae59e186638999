package bot

import (
	"cmp"
	"slices"

	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

// MergeMerchants returns the merchants sorted ascending by id with duplicate
// ids collapsed to one entry. When offers is non-nil, merchants not
// referenced by any offer's merchant ids are dropped as well. Pure function;
// the input slice is not modified.
func MergeMerchants(merchants []domain.Merchant, offers []domain.Offer) []domain.Merchant {
	var relevant map[int64]bool
	if offers != nil {
		relevant = make(map[int64]bool)
		for i := range offers {
			for _, id := range offers[i].MerchantIDs {
				relevant[id] = true
			}
		}
	}

	sorted := slices.Clone(merchants)
	slices.SortFunc(sorted, func(a, b domain.Merchant) int {
		return cmp.Compare(a.ID, b.ID)
	})

	// Sorting makes every duplicate adjacent, so one pass comparing against
	// the previously kept entry is enough.
	var merged []domain.Merchant
	for _, m := range sorted {
		if len(merged) > 0 && merged[len(merged)-1].ID == m.ID {
			continue
		}
		if relevant != nil && !relevant[m.ID] {
			continue
		}
		merged = append(merged, m)
	}
	return merged
}

// MergeOfferLists appends src's offers to dst and recomputes dst's merchant
// set over the combined offers.
func MergeOfferLists(dst *domain.OfferList, src *domain.OfferList) {
	dst.Offers = append(dst.Offers, src.Offers...)
	dst.Merchants = MergeMerchants(append(dst.Merchants, src.Merchants...), dst.Offers)
}
