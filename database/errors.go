/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLError classifies backend errors independently of the driver.
type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoIndexErr
	NoColumnErr
	ExistIndexErr
	ExistColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

var sqlErrorNames = [...]string{
	UnknownErr:                  "unknown",
	NoRowsErr:                   "no rows",
	NoIndexErr:                  "no index",
	NoColumnErr:                 "no column",
	ExistIndexErr:               "index exists",
	ExistColumnErr:              "column exists",
	NoTableErr:                  "no table",
	ExistTableErr:               "table exists",
	DuplicateKeyErr:             "duplicate key",
	NotNullViolationErr:         "not null violation",
	ForeignKeyViolationErr:      "foreign key violation",
	CheckConstraintViolationErr: "check constraint violation",
	DataTruncatedErr:            "data truncated",
	InvalidTypeCastErr:          "invalid type cast",
}

func (e SQLError) String() string {
	if e < 0 || int(e) >= len(sqlErrorNames) {
		return sqlErrorNames[UnknownErr]
	}
	return sqlErrorNames[e]
}

// PostgreSQL SQLSTATE codes, shared by lib/pq and pgx.
var sqlStates = map[string]SQLError{
	"23505": DuplicateKeyErr,
	"23502": NotNullViolationErr,
	"23503": ForeignKeyViolationErr,
	"23514": CheckConstraintViolationErr,
	"22001": DataTruncatedErr,
	"42703": NoColumnErr,
	"42701": ExistColumnErr,
	"42704": NoIndexErr,
	"42P01": NoTableErr,
	"42P07": ExistTableErr,
	"42804": InvalidTypeCastErr,
}

// MySQL server error numbers.
var mysqlErrors = map[uint16]SQLError{
	1091: NoIndexErr,
	1054: NoColumnErr,
	1061: ExistIndexErr,
	1060: ExistColumnErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	1451: ForeignKeyViolationErr,
	1452: ForeignKeyViolationErr,
	1146: NoTableErr,
	1050: ExistTableErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
}

// messageRule matches a lower-cased error message when every fragment of any
// one alternative occurs in it.
type messageRule struct {
	kind         SQLError
	alternatives [][]string
}

func (r messageRule) match(msg string) bool {
	for _, all := range r.alternatives {
		ok := true
		for _, fragment := range all {
			if !strings.Contains(msg, fragment) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// messageRules cover sqlite, whose driver errors carry no codes, and errors
// that were flattened to text. Order matters: the first match wins.
var messageRules = []messageRule{
	{NoColumnErr, [][]string{{"sqlstate 42703"}, {"undefined column"}, {"no such column"}}},
	{NoIndexErr, [][]string{{"sqlstate 42704"}, {"no such index"}, {"does not exist", "index"}}},
	{NoTableErr, [][]string{{"sqlstate 42p01"}, {"undefined table"}, {"no such table"}}},
	{ExistIndexErr, [][]string{{"already exists", "index"}}},
	{ExistTableErr, [][]string{{"already exists", "table"}, {"relation", "already exists"}}},
	{DuplicateKeyErr, [][]string{{"duplicate key value"}, {"unique constraint failed"}, {"sqlstate 23505"}}},
	{NotNullViolationErr, [][]string{{"not-null constraint"}, {"sqlstate 23502"}, {"not null constraint failed"}}},
	{ForeignKeyViolationErr, [][]string{{"foreign key violation"}, {"foreign key constraint failed"}, {"sqlstate 23503"}}},
	{CheckConstraintViolationErr, [][]string{{"check constraint"}, {"sqlstate 23514"}}},
	{DataTruncatedErr, [][]string{{"string data right truncation"}, {"sqlstate 22001"}, {"data truncated"}}},
	{InvalidTypeCastErr, [][]string{{"datatype mismatch"}, {"sqlstate 42804"}}},
}

// ClassifyError returns the kind of err, UnknownErr when it is not
// recognised.
func ClassifyError(err error) SQLError {
	_, kind := IsSqlError(err)
	return kind
}

// IsSqlErrorKind reports whether err is a backend error of the given kind.
func IsSqlErrorKind(err error, kind SQLError) bool {
	is, got := IsSqlError(err)
	return is && got == kind
}

// IsSqlError reports whether err comes from the backend and, if so, its kind.
// Driver error types are checked first; sqlite and wrapped errors fall back
// to message matching.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, NoRowsErr
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return true, lookupKind(sqlStates, string(pqErr.Code))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return true, lookupKind(sqlStates, pgErr.Code)
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return true, lookupKind(mysqlErrors, mysqlErr.Number)
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		if rule.match(msg) {
			return true, rule.kind
		}
	}
	return false, UnknownErr
}

func lookupKind[K comparable](codes map[K]SQLError, code K) SQLError {
	if kind, ok := codes[code]; ok {
		return kind
	}
	return UnknownErr
}
