package model

type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product mirrors one entry of the products file.
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}

// ProductFilter holds inclusive bounds; a nil bound is unconstrained.
type ProductFilter struct {
	MinPrice *float64
	MaxPrice *float64
	MinCount *int
	MaxCount *int
}

func (f ProductFilter) IsEmpty() bool {
	return f.MinPrice == nil && f.MaxPrice == nil && f.MinCount == nil && f.MaxCount == nil
}

func (f ProductFilter) Matches(p Product) bool {
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinCount != nil && p.Rating.Count < *f.MinCount {
		return false
	}
	if f.MaxCount != nil && p.Rating.Count > *f.MaxCount {
		return false
	}
	return true
}

// ProductUpdate is a partial update; nil fields keep their current value.
type ProductUpdate struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Count       *int     `json:"count"`
}
