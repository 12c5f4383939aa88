package classify

import "strings"

// Category is the coarse classification label assigned once per item. It
// determines the item's stage list and final destination.
type Category string

const (
	CategoryContract      Category = "contract"
	CategoryInvoice       Category = "invoice"
	CategoryResearchPaper Category = "research_paper"
	CategoryUnknown       Category = "unknown"
)

var allCategories = []Category{
	CategoryContract,
	CategoryInvoice,
	CategoryResearchPaper,
	CategoryUnknown,
}

// AllCategories returns the ordered list of known categories.
func AllCategories() []Category {
	cp := make([]Category, len(allCategories))
	copy(cp, allCategories)
	return cp
}

// ParseCategory converts a string into a known Category.
func ParseCategory(value string) (Category, bool) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case CategoryContract, CategoryInvoice, CategoryResearchPaper, CategoryUnknown:
		return normalized, true
	}
	return "", false
}

// Signals carries the cheap ingress hints the classifier operates on.
type Signals struct {
	Filename     string
	CategoryHint string
	Tags         []string
}

type rule struct {
	category  Category
	filename  []string
	tagTokens []string
}

// Ordered rule list; first match wins.
var rules = []rule{
	{
		category:  CategoryContract,
		filename:  []string{"contract", "agreement"},
		tagTokens: []string{"legal"},
	},
	{
		category:  CategoryInvoice,
		filename:  []string{"invoice"},
		tagTokens: []string{"billing"},
	},
	{
		category:  CategoryResearchPaper,
		filename:  []string{"research", "paper"},
		tagTokens: []string{},
	},
}

// Classify infers a category from the provided signals. A valid declared
// hint takes precedence over the substring rules. Pure and deterministic.
func Classify(signals Signals) Category {
	if hint, ok := ParseCategory(signals.CategoryHint); ok && hint != CategoryUnknown {
		return hint
	}

	name := strings.ToLower(signals.Filename)
	tags := strings.ToLower(strings.Join(signals.Tags, " "))

	for _, r := range rules {
		for _, token := range r.filename {
			if strings.Contains(name, token) {
				return r.category
			}
		}
		for _, token := range r.tagTokens {
			if strings.Contains(tags, token) {
				return r.category
			}
		}
	}
	return CategoryUnknown
}
