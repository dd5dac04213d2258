package repository

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/totegamma/timepulse/internal/domain"
)

// translate maps gorm's translated driver errors onto domain errors.
func translate(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NotFoundError{Resource: resource}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ConflictError{Message: resource + " already exists"}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.ValidationError{Field: resource, Message: "references a missing record"}
	}
	return err
}

// missedUpdate tells a missing row from one whose status moved on before a
// guarded update.
func missedUpdate(db *gorm.DB, model any, tenantID, id, resource string) error {
	var n int64
	if err := db.Model(model).Where("tenant_id = ? AND id = ?", tenantID, id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: resource}
	}
	return domain.ConflictError{Message: resource + " status changed concurrently"}
}

func paginate(db *gorm.DB, page domain.Page) *gorm.DB {
	page = page.Normalize()
	return db.Limit(page.Limit).Offset(page.Offset)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern matches q literally anywhere; postgres uses backslash as the
// default LIKE escape.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
