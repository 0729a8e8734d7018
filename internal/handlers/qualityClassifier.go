package handlers

import "strings"

// Quality tiers for a scanned text snippet.
const (
	TierReject    = "reject"
	TierGood      = "good"
	TierExcellent = "excellent"
)

// blacklistTerms mark seller/promotional/broker language. A single hit
// rejects the snippet no matter what else it contains: a false positive from
// promotional language costs more than a cautious rejection.
var blacklistTerms = []string{
	"للبيع", "سمسار", "وسيط", "عرض خاص", "فرصة",
	"شركة تسويق", "اعلان ممول", "إعلان ممول",
	"for sale", "broker", "promo",
}

// buyerTerms signal direct buying intent.
var buyerTerms = []string{
	"مطلوب", "ابحث عن", "أبحث عن", "محتاج", "عايز اشتري",
	"شراء", "كاش",
	"wanted", "looking for", "need", "cash", "buying",
}

// inquiryTerms signal a softer information request.
var inquiryTerms = []string{
	"سعر", "السعر", "بكام", "تفاصيل", "كام",
	"price", "details", "how much",
}

// ClassifySnippet maps a text snippet to a quality tier using ordered rule
// evaluation: blacklist first (short-circuit), then buyer intent, then
// inquiry, else reject. Matching is case-insensitive substring containment;
// there is no score accumulation.
func ClassifySnippet(text string) string {
	lower := strings.ToLower(text)

	if containsAny(lower, blacklistTerms) {
		return TierReject
	}
	if containsAny(lower, buyerTerms) {
		return TierExcellent
	}
	if containsAny(lower, inquiryTerms) {
		return TierGood
	}
	return TierReject
}

func containsAny(lower string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
