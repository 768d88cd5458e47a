package models

type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

const (
	DefaultPage = 1
	DefaultTake = 10
)

// PageOptions requests an offset page. A nil Page or Take falls back to the
// defaults; when both are nil the caller asked for no pagination at all.
type PageOptions struct {
	Page  *int      `form:"page" json:"page,omitempty"`
	Take  *int      `form:"take" json:"take,omitempty"`
	Order SortOrder `form:"order" json:"order,omitempty"`
}

// Requested reports whether any pagination signal is present.
func (o *PageOptions) Requested() bool {
	return o != nil && (o.Page != nil || o.Take != nil)
}

func (o *PageOptions) PageNumber() int {
	if o == nil || o.Page == nil {
		return DefaultPage
	}
	return *o.Page
}

func (o *PageOptions) PageSize() int {
	if o == nil || o.Take == nil {
		return DefaultTake
	}
	return *o.Take
}

func (o *PageOptions) Offset() int {
	return (o.PageNumber() - 1) * o.PageSize()
}

// Direction defaults to ascending.
func (o *PageOptions) Direction() SortOrder {
	if o == nil || o.Order == "" {
		return SortAsc
	}
	return o.Order
}

type PageMeta struct {
	Page            int   `json:"page"`
	PageSize        int   `json:"pageSize"`
	ItemCount       int64 `json:"itemCount"`
	PageCount       int   `json:"pageCount"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
	HasNextPage     bool  `json:"hasNextPage"`
}

func NewPageMeta(page, pageSize int, itemCount int64) PageMeta {
	pageCount := 0
	if pageSize > 0 {
		pageCount = int((itemCount + int64(pageSize) - 1) / int64(pageSize))
	}
	return PageMeta{
		Page:            page,
		PageSize:        pageSize,
		ItemCount:       itemCount,
		PageCount:       pageCount,
		HasPreviousPage: page > 1,
		HasNextPage:     page < pageCount,
	}
}

// Page is a result slice plus its pagination metadata.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}
