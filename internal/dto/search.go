package dto

// SearchRequest represents a raw provider search request
// @Description Parameters for a direct search against the provider, outside the hunt flow
type SearchRequest struct {
	// Search query string
	Q string `json:"q" binding:"required,min=2,max=500" example:"مطلوب شقة التجمع الخامس"`
	// UI language code (defaults to ar)
	Hl string `json:"hl,omitempty" example:"ar"`
	// Country code for results (defaults to eg)
	Gl string `json:"gl,omitempty" example:"eg"`
	// Domains to exclude from results
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
	// Number of results requested (max 100)
	Num int `json:"num,omitempty" binding:"omitempty,min=1,max=100" example:"20"`
	// Result offset for pagination
	Start int `json:"start,omitempty" binding:"omitempty,min=0"`
}
