package repo

import (
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/aq2208/stockroom-api/internal/entity"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// contains builds a LIKE pattern matching s literally anywhere in the column.
func contains(s string) string { return "%" + likeEscaper.Replace(s) + "%" }

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func orderBy(column string, desc bool) string {
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}

func offset(page, limit int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * limit
}

// supplierCols and productCols receive LEFT JOIN columns that may be NULL.
type supplierCols struct {
	ID, Name, Email, Phone, Address sql.NullString
	CreatedAt, UpdatedAt            sql.NullTime
}

func (s supplierCols) supplier() *domain.Supplier {
	if !s.ID.Valid {
		return nil
	}
	return &domain.Supplier{
		ID:        s.ID.String,
		Name:      s.Name.String,
		Email:     s.Email.String,
		Phone:     s.Phone.String,
		Address:   s.Address.String,
		CreatedAt: s.CreatedAt.Time,
		UpdatedAt: s.UpdatedAt.Time,
	}
}

type productCols struct {
	ID, Name, SKU sql.NullString
	SellingPrice  decimal.NullDecimal
}

func (p productCols) ref() *domain.ProductRef {
	if !p.ID.Valid {
		return nil
	}
	return &domain.ProductRef{
		ID:           p.ID.String,
		Name:         p.Name.String,
		SKU:          p.SKU.String,
		SellingPrice: p.SellingPrice.Decimal,
	}
}
