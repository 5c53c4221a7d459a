package categorize

import (
	"strings"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

type keywordRule struct {
	category domain.Category
	keywords []string
}

// rules are evaluated top to bottom; the first rule with a matching keyword
// decides the category.
var rules = []keywordRule{
	{domain.CategoryFood, []string{"food", "restaurant", "grocery"}},
	{domain.CategoryTransport, []string{"transport", "uber", "taxi"}},
	{domain.CategoryHousing, []string{"rent", "mortgage"}},
	{domain.CategoryUtilities, []string{"electric", "water", "gas"}},
	{domain.CategoryEntertainment, []string{"entertainment", "movie", "netflix", "spotify"}},
	{domain.CategoryHealthcare, []string{"health", "medical", "pharmacy"}},
	{domain.CategoryShopping, []string{"shop", "store", "mall"}},
}

// Heuristic assigns a category from keywords in the description.
func Heuristic(description string) domain.Category {
	d := strings.ToLower(description)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(d, kw) {
				return r.category
			}
		}
	}
	return domain.CategoryOthers
}
