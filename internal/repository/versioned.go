package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// saveVersioned writes every column of value except the primary key and
// creation time, guarded by the version the caller read. On success the
// in-memory version is advanced; on failure it is restored.
//
// value must be a pointer to a model whose primary key is set. Associations
// are never written through this path.
func saveVersioned(tx *gorm.DB, value any, version *int64) error {
	expected := *version
	*version = expected + 1
	res := tx.Model(value).
		Select("*").
		Omit(clause.Associations, "id", "created_at").
		Where("version = ?", expected).
		Updates(value)
	if res.Error != nil {
		*version = expected
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		*version = expected
		return ErrConflict
	}
	return nil
}

// bumpVersion advances the version column of the given table row without
// touching any other field. Used when a change lives in a join table but
// still counts as a write to the parent.
func bumpVersion(tx *gorm.DB, table, id string, version int64) error {
	res := tx.Table(table).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]any{"version": version + 1, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// containsPattern builds the LIKE pattern matched against LOWER(column).
func containsPattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
