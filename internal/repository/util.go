package repository

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// Postgres error codes we translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isPgError(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE substring pattern with wildcards escaped.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
