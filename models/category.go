package models

import "time"

// UncategorizedName labels the bucket for transactions without a category.
const UncategorizedName = "Uncategorized"

type Category struct {
	Code               string    `json:"code" db:"code"`
	Name               string    `json:"name" db:"name"`
	UserCode           string    `json:"user_code" db:"user_code"`
	ParentCategoryCode *string   `json:"parent_category_code,omitempty" db:"parent_category_code"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

func (c Category) HasParent() bool {
	return c.ParentCategoryCode != nil && *c.ParentCategoryCode != ""
}

// CategoryTotal is one row of a per-root-category aggregation.
type CategoryTotal struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}
