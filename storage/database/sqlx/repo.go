package sqlxrepos

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/academia/lms/core"
	"github.com/academia/lms/storage/database"
)

// repository holds the default executor; every method may be handed a transaction instead.
type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps "no rows" to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapUniqueErr maps a UNIQUE constraint violation to conflict.
func trapUniqueErr(err error, conflict error, msg string) error {
	if database.IsUniqueViolation(err) {
		return conflict
	}
	return errors.Wrap(err, msg)
}

// mustAffect returns notFound when res touched no row.
func mustAffect(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "reading affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
