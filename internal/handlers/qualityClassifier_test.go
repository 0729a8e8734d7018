package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySnippet(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "arabic buyer intent",
			text:     "مطلوب شقة في مدينة نصر للسكن",
			expected: TierExcellent,
		},
		{
			name:     "english buyer intent",
			text:     "Looking for a 3 bedroom apartment in Maadi",
			expected: TierExcellent,
		},
		{
			name:     "cash buyer",
			text:     "عايز اشتري ارض كاش في اكتوبر",
			expected: TierExcellent,
		},
		{
			name:     "arabic price inquiry",
			text:     "الشقة دي بكام؟ ممكن تفاصيل",
			expected: TierGood,
		},
		{
			name:     "english price inquiry",
			text:     "how much is the villa in new cairo",
			expected: TierGood,
		},
		{
			name:     "seller listing rejected",
			text:     "شقة للبيع في التجمع الخامس بسعر مميز",
			expected: TierReject,
		},
		{
			name:     "broker rejected",
			text:     "سمسار عقارات يعرض شقق في المعادي",
			expected: TierReject,
		},
		{
			name:     "promotional offer rejected",
			text:     "فرصة لا تتكرر عرض خاص لفترة محدودة",
			expected: TierReject,
		},
		{
			name:     "blacklist wins over buyer terms",
			text:     "مطلوب مشتري جاد شقة للبيع كاش",
			expected: TierReject,
		},
		{
			name:     "blacklist wins over inquiry terms",
			text:     "for sale: ask for price and details",
			expected: TierReject,
		},
		{
			name:     "buyer wins over inquiry",
			text:     "مطلوب شقة وياريت حد يقولي السعر",
			expected: TierExcellent,
		},
		{
			name:     "uppercase english matched",
			text:     "LOOKING FOR an office space downtown",
			expected: TierExcellent,
		},
		{
			name:     "neutral text rejected",
			text:     "اجمل مناطق القاهرة الجديدة للمعيشة",
			expected: TierReject,
		},
		{
			name:     "empty text rejected",
			text:     "",
			expected: TierReject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifySnippet(tt.text))
		})
	}
}
