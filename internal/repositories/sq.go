package repositories

import (
	"errors"

	"github.com/Masterminds/squirrel"
)

var SqBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var ErrBadQuery = errors.New("bad query")

// Postgres error codes the repositories translate into sentinels.
const (
	PgUniqueViolation = "23505"
	PgCheckViolation  = "23514"
)
