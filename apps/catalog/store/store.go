// Package store holds the catalog data-access objects. Every multi-row
// write runs inside a single gorm transaction.
package store

import (
	"errors"
	"strings"

	"sneaker-catalog/apps/catalog/errs"
	"sneaker-catalog/apps/catalog/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate 自动建表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.Brand{}, &model.Shoe{}, &model.ShoeImage{})
}

// Page selects a slice of a result set. Limit 0 returns everything.
type Page struct {
	Offset int
	Limit  int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}

// likeEscape is portable across mysql, postgres and sqlite, unlike backslash.
const likeEscape = "!"

func containsPattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + strings.ToLower(r.Replace(s)) + "%"
}

// icontains builds a case-insensitive substring condition over cols, OR'ed.
func icontains(term string, cols ...string) (string, []interface{}) {
	pattern := containsPattern(term)
	parts := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, col := range cols {
		parts[i] = "LOWER(" + col + ") LIKE ? ESCAPE '" + likeEscape + "'"
		args[i] = pattern
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// orderBy turns a comma separated ordering like "-created_at,name" into an
// ORDER BY clause. Unknown fields are ignored; fallback applies when nothing
// valid remains.
func orderBy(ordering string, allowed map[string]string, fallback string) string {
	var parts []string
	for _, f := range strings.Split(ordering, ",") {
		f = strings.TrimSpace(f)
		desc := strings.HasPrefix(f, "-")
		col, ok := allowed[strings.TrimPrefix(f, "-")]
		if !ok {
			continue
		}
		if desc {
			parts = append(parts, col+" DESC")
		} else {
			parts = append(parts, col+" ASC")
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}

func notFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFound(entity)
	}
	return err
}

// duplicate maps a unique index violation that slipped past the explicit
// checks (concurrent writers) onto a validation error.
func duplicate(err error, field, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Field(field, msg)
	}
	return err
}

// lockShoe takes a row lock on the shoe so image writes for one shoe
// serialize. SQLite has no row locks and locks the database on write anyway.
func lockShoe(tx *gorm.DB, shoeID uint) (*model.Shoe, error) {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var shoe model.Shoe
	if err := q.First(&shoe, shoeID).Error; err != nil {
		return nil, notFound(err, "shoe")
	}
	return &shoe, nil
}
