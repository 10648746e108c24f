package database

import (
	"fmt"
	"strings"

	"property-platform/internal/models"
)

// QueryProperties is the PostgreSQL query builder. It covers the fallback
// translation surface (location substring, price range, exact bedrooms and
// listing type, country scoping) with the same visibility invariant and
// stable ordering as the GORM path.
func (db *DB) QueryProperties(filters PropertyFilters) (*PageResult, error) {
	page, limit := normalizePaging(filters.Page, filters.Limit)

	where := []string{"status IN ('online', 'active')"}
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Search != "" {
		p := arg("%" + strings.ToLower(filters.Search) + "%")
		where = append(where, fmt.Sprintf(
			"(LOWER(title) LIKE %s OR LOWER(address_line1) LIKE %s OR LOWER(city) LIKE %s)", p, p, p))
	}
	if filters.Country != "" {
		where = append(where, "country = "+arg(filters.Country))
	}
	if filters.City != "" {
		where = append(where, "LOWER(city) LIKE "+arg("%"+strings.ToLower(filters.City)+"%"))
	}
	if filters.Postcode != "" {
		where = append(where, "LOWER(postcode) LIKE "+arg("%"+strings.ToLower(filters.Postcode)+"%"))
	}
	if filters.ListingType != "" {
		where = append(where, "listing_type = "+arg(filters.ListingType))
	}
	if filters.MinPrice != nil {
		where = append(where, "price_amount >= "+arg(*filters.MinPrice))
	}
	if filters.MaxPrice != nil {
		where = append(where, "price_amount <= "+arg(*filters.MaxPrice))
	}
	if filters.Bedrooms != nil {
		where = append(where, "bedrooms = "+arg(*filters.Bedrooms))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := "SELECT COUNT(*) FROM properties WHERE " + whereClause
	if err := db.conn.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, &StoreQueryError{Op: "count", Err: err}
	}

	query := fmt.Sprintf(`
		SELECT %s FROM properties
		WHERE %s
		ORDER BY %s
		LIMIT %s OFFSET %s
	`, propertyColumns, whereClause, orderClause(filters.SortBy), arg(limit), arg((page-1)*limit))

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, &StoreQueryError{Op: "select", Err: err}
	}
	defer rows.Close()

	result := &PageResult{Data: []models.Property{}, Page: page, Limit: limit, Total: total}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, &StoreQueryError{Op: "scan", Err: err}
		}
		result.Data = append(result.Data, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreQueryError{Op: "select", Err: err}
	}

	result.TotalPages = totalPages(total, limit)
	result.HasNextPage = page < result.TotalPages
	result.HasPreviousPage = page > 1 && total > 0
	return result, nil
}
