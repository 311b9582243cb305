package domain

// CatalogItem is an orderable service or equipment offering. Immutable
// per search.
type CatalogItem struct {
	ID             string `json:"sys_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	Price          string `json:"price"`
	RelevanceScore int    `json:"relevance_score"`
	OrderURL       string `json:"order_url"`
	Active         bool   `json:"-"`
	Popularity     int    `json:"-"`
}
