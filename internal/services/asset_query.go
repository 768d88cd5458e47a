package services

import (
	"context"
	"fmt"
	"math"

	"github.com/assetstore/backend/internal/apperror"
	"github.com/assetstore/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderField names a sortable asset column as clients spell it.
type OrderField string

const (
	OrderByPrice     OrderField = "price"
	OrderByRating    OrderField = "rating"
	OrderByLikes     OrderField = "likes"
	OrderByDiscount  OrderField = "discount"
	OrderByCreatedAt OrderField = "createdAt"
	OrderByUpdatedAt OrderField = "updatedAt"
)

var orderColumns = map[OrderField]string{
	OrderByPrice:     "assets.price",
	OrderByRating:    "assets.rating",
	OrderByLikes:     "assets.likes",
	OrderByDiscount:  "assets.discount",
	OrderByCreatedAt: "assets.created_at",
	OrderByUpdatedAt: "assets.updated_at",
}

// AssetQuery is the flat asset search filter. Every field is optional and
// present fields are ANDed together.
type AssetQuery struct {
	Price    *float64    `form:"price" json:"price,omitempty"`
	Rating   *float64    `form:"rating" json:"rating,omitempty"`
	UUID     *string     `form:"uuid" json:"uuid,omitempty" binding:"omitempty,uuid"`
	ID       *uint       `form:"id" json:"id,omitempty"`
	Title    *string     `form:"title" json:"title,omitempty"`
	Desc     *string     `form:"desc" json:"desc,omitempty"`
	Language *string     `form:"language" json:"language,omitempty"`
	UserUUID *string     `form:"userUuid" json:"userUuid,omitempty" binding:"omitempty,uuid"`
	Discount *bool       `form:"discount" json:"discount,omitempty"`
	MinPrice *float64    `form:"minPrice" json:"minPrice,omitempty" binding:"omitempty,gte=0"`
	MaxPrice *float64    `form:"maxPrice" json:"maxPrice,omitempty" binding:"omitempty,gte=0"`
	OrderBy  *OrderField `form:"orderBy" json:"orderBy,omitempty" binding:"omitempty,oneof=price rating likes discount createdAt updatedAt"`
}

// predicate turns one filter field into a WHERE condition, or reports that
// the field is absent.
type predicate func(q *AssetQuery) (cond string, args []interface{}, ok bool)

type assetFilter struct {
	field string
	build predicate
}

// assetFilters is the complete filter surface. Fields not listed here are
// never turned into SQL.
var assetFilters = []assetFilter{
	{"price", equals("assets.price", func(q *AssetQuery) *float64 { return q.Price })},
	{"rating", equals("assets.rating", func(q *AssetQuery) *float64 { return q.Rating })},
	{"uuid", uuidEquals("assets.uuid", func(q *AssetQuery) *string { return q.UUID })},
	{"id", equals("assets.id", func(q *AssetQuery) *uint { return q.ID })},
	{"title", hasTranslation("title", func(q *AssetQuery) *string { return q.Title })},
	{"desc", hasTranslation("description", func(q *AssetQuery) *string { return q.Desc })},
	{"language", hasTranslation("language", func(q *AssetQuery) *string { return q.Language })},
	{"userUuid", ownedByUser},
	{"discount", discounted},
	{"priceRange", priceRange},
}

func init() {
	seen := make(map[string]bool, len(assetFilters))
	for _, f := range assetFilters {
		if f.field == "" || f.build == nil || seen[f.field] {
			panic(fmt.Sprintf("services: invalid asset filter %q", f.field))
		}
		seen[f.field] = true
	}
	for _, of := range []OrderField{OrderByPrice, OrderByRating, OrderByLikes, OrderByDiscount, OrderByCreatedAt, OrderByUpdatedAt} {
		if _, ok := orderColumns[of]; !ok {
			panic(fmt.Sprintf("services: order field %q has no column", of))
		}
	}
}

func equals[T any](column string, get func(*AssetQuery) *T) predicate {
	return func(q *AssetQuery) (string, []interface{}, bool) {
		v := get(q)
		if v == nil {
			return "", nil, false
		}
		return column + " = ?", []interface{}{*v}, true
	}
}

// uuidEquals expects the query to be validated already.
func uuidEquals(column string, get func(*AssetQuery) *string) predicate {
	return func(q *AssetQuery) (string, []interface{}, bool) {
		v := get(q)
		if v == nil {
			return "", nil, false
		}
		id, err := uuid.Parse(*v)
		if err != nil {
			return "", nil, false
		}
		return column + " = ?", []interface{}{id}, true
	}
}

func ownedByUser(q *AssetQuery) (string, []interface{}, bool) {
	cond, args, ok := uuidEquals("users.uuid", func(q *AssetQuery) *string { return q.UserUUID })(q)
	if !ok {
		return "", nil, false
	}
	return "assets.user_id IN (SELECT users.id FROM users WHERE " + cond + ")", args, true
}

// hasTranslation matches assets with at least one translation whose column
// equals the field. Each translation field is checked on its own, so two
// fields may be satisfied by different translations.
func hasTranslation(column string, get func(*AssetQuery) *string) predicate {
	return func(q *AssetQuery) (string, []interface{}, bool) {
		v := get(q)
		if v == nil {
			return "", nil, false
		}
		return "EXISTS (SELECT 1 FROM asset_translations t WHERE t.asset_id = assets.id AND t." + column + " = ?)", []interface{}{*v}, true
	}
}

func discounted(q *AssetQuery) (string, []interface{}, bool) {
	if q.Discount == nil || !*q.Discount {
		return "", nil, false
	}
	return "assets.discount <> 0", nil, true
}

func priceRange(q *AssetQuery) (string, []interface{}, bool) {
	if q.MinPrice == nil && q.MaxPrice == nil {
		return "", nil, false
	}
	lo, hi := 0.0, math.MaxFloat64
	if q.MinPrice != nil {
		lo = *q.MinPrice
	}
	if q.MaxPrice != nil {
		hi = *q.MaxPrice
	}
	return "assets.price >= ? AND assets.price <= ?", []interface{}{lo, hi}, true
}

// Validate rejects malformed filters before any store access.
func (q *AssetQuery) Validate() error {
	for field, v := range map[string]*string{"uuid": q.UUID, "userUuid": q.UserUUID} {
		if v == nil {
			continue
		}
		if _, err := uuid.Parse(*v); err != nil {
			return apperror.ValidationFailed(field, fmt.Sprintf("%s must be a UUID", field))
		}
	}
	if q.MinPrice != nil && *q.MinPrice < 0 {
		return apperror.ValidationFailed("minPrice", "minPrice must not be negative")
	}
	if q.MaxPrice != nil && *q.MaxPrice < 0 {
		return apperror.ValidationFailed("maxPrice", "maxPrice must not be negative")
	}
	if q.OrderBy != nil {
		if _, ok := orderColumns[*q.OrderBy]; !ok {
			return apperror.ValidationFailed("orderBy", fmt.Sprintf("cannot order by %q", *q.OrderBy))
		}
	}
	return nil
}

func validatePageOptions(opts *models.PageOptions, maxTake int) error {
	if opts == nil {
		return nil
	}
	if opts.PageNumber() < 1 {
		return apperror.ValidationFailed("page", "page must be >= 1")
	}
	take := opts.PageSize()
	if take < 1 || (maxTake > 0 && take > maxTake) {
		return apperror.ValidationFailed("take", fmt.Sprintf("take must be between 1 and %d", maxTake))
	}
	if limit := math.MaxInt / take; opts.PageNumber() > limit {
		return apperror.ValidationFailed("page", fmt.Sprintf("page must be <= %d", limit))
	}
	switch opts.Order {
	case "", models.SortAsc, models.SortDesc:
	default:
		return apperror.ValidationFailed("order", "order must be ASC or DESC")
	}
	return nil
}

func applyFilters(db *gorm.DB, q *AssetQuery) *gorm.DB {
	db = db.Model(&models.Asset{})
	for _, f := range assetFilters {
		if cond, args, ok := f.build(q); ok {
			db = db.Where(cond, args...)
		}
	}
	return db
}

func orderClause(q *AssetQuery, opts *models.PageOptions, paged bool) string {
	dir := models.SortAsc
	if paged {
		dir = opts.Direction()
	}
	column := "assets.id"
	switch {
	case q.OrderBy != nil:
		column = orderColumns[*q.OrderBy]
	case paged:
		column = orderColumns[OrderByCreatedAt]
	}
	if column == "assets.id" {
		return fmt.Sprintf("assets.id %s", dir)
	}
	return fmt.Sprintf("%s %s, assets.id %s", column, dir, dir)
}

// FindByQuery returns every asset matching q. When opts carries a page or
// take, only that page is returned together with its metadata; otherwise the
// metadata is nil.
func (s *AssetService) FindByQuery(ctx context.Context, q AssetQuery, opts *models.PageOptions) ([]models.Asset, *models.PageMeta, error) {
	if err := q.Validate(); err != nil {
		return nil, nil, err
	}
	paged := opts.Requested()
	if paged {
		if err := validatePageOptions(opts, s.maxTake); err != nil {
			return nil, nil, err
		}
	}

	db := s.db.WithContext(ctx)
	var meta *models.PageMeta
	find := applyFilters(db, &q).
		Preload("User").
		Preload("Translations", func(db *gorm.DB) *gorm.DB { return db.Order("asset_translations.id") }).
		Order(orderClause(&q, opts, paged))

	if paged {
		var total int64
		if err := applyFilters(db, &q).Count(&total).Error; err != nil {
			return nil, nil, fmt.Errorf("count assets: %w", err)
		}
		m := models.NewPageMeta(opts.PageNumber(), opts.PageSize(), total)
		meta = &m
		find = find.Offset(opts.Offset()).Limit(opts.PageSize())
	}

	assets := []models.Asset{}
	if err := find.Find(&assets).Error; err != nil {
		return nil, nil, fmt.Errorf("find assets: %w", err)
	}
	return assets, meta, nil
}
