package repo

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/aq2208/stockroom-api/internal/usecase"
)

const (
	errDupEntry        = 1062
	errRowIsReferenced = 1451
	errNoReferencedRow = 1452
)

// mapErr translates driver errors into the usecase error kinds.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return usecase.ErrNotFound
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDupEntry:
			return fmt.Errorf("%w: record already exists", usecase.ErrConflict)
		case errRowIsReferenced:
			return fmt.Errorf("%w: record is still in use", usecase.ErrConflict)
		case errNoReferencedRow:
			return &usecase.ValidationError{Msg: "Referenced record does not exist"}
		}
	}
	return &usecase.StorageError{Op: op, Err: err}
}
