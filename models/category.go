package models

import "strings"

// Fixed category set. Unrecognized input is coerced to CategoryOther.
const (
	CategoryPublicGoods    = "public-goods"
	CategoryDeFi           = "defi"
	CategoryNFT            = "nft"
	CategorySocial         = "social"
	CategoryInfrastructure = "infrastructure"
	CategoryTooling        = "tooling"
	CategoryOther          = "other"
)

// Categories lists every valid category, in display order.
var Categories = []string{
	CategoryPublicGoods,
	CategoryDeFi,
	CategoryNFT,
	CategorySocial,
	CategoryInfrastructure,
	CategoryTooling,
	CategoryOther,
}

// MaxTags caps the number of tags stored per project.
const MaxTags = 10

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// NormalizeCategory coerces any unrecognized value to CategoryOther.
func NormalizeCategory(category string) string {
	if IsValidCategory(category) {
		return category
	}
	return CategoryOther
}

// TruncateTags cuts a tag list down to MaxTags entries. Tags are stored as
// given: no dedup, no case normalization.
func TruncateTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	if len(tags) > MaxTags {
		return tags[:MaxTags]
	}
	return tags
}

// CategoryCount and TagCount are the discovery aggregation rows.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// NormalizeAddress lowercases an address for storage and comparison.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// IsAddress reports whether a string is syntactically plausible as an
// address: a 0x prefix with at least one character after it.
func IsAddress(address string) bool {
	address = strings.TrimSpace(address)
	if len(address) < 3 || len(address) > 128 {
		return false
	}
	return strings.HasPrefix(strings.ToLower(address), "0x")
}
