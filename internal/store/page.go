package store

import "gorm.io/gorm"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page selects a 1-indexed window of a listing.
type Page struct {
	Number int
	Limit  int
}

// Normalize clamps the page to number >= 1 and limit in [1, MaxPageLimit].
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	switch {
	case p.Limit < 1:
		p.Limit = DefaultPageLimit
	case p.Limit > MaxPageLimit:
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Limit
}

// PageResult is one page of a listing plus the totals needed to page through it.
type PageResult[T any] struct {
	Data       []T   `json:"data"`
	Count      int64 `json:"count"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// TotalPages returns ceil(count / limit).
func TotalPages(count int64, limit int) int {
	if limit <= 0 || count <= 0 {
		return 0
	}
	return int((count + int64(limit) - 1) / int64(limit))
}

// paginate counts the filtered query and then loads only the requested
// window. A page past the end yields empty data with accurate totals.
func paginate[T any](query *gorm.DB, p Page, order string) (*PageResult[T], error) {
	p = p.Normalize()

	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, err
	}

	result := &PageResult[T]{
		Data:       make([]T, 0),
		Count:      count,
		Page:       p.Number,
		Limit:      p.Limit,
		TotalPages: TotalPages(count, p.Limit),
	}
	if int64(p.offset()) >= count {
		return result, nil
	}

	if err := query.Session(&gorm.Session{}).Order(order).Offset(p.offset()).Limit(p.Limit).Find(&result.Data).Error; err != nil {
		return nil, err
	}
	return result, nil
}
