package sqlstore

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

func classifySQLite(err error) (store.Kind, bool) {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return "", false
	}
	switch se.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return store.KindTransient, true
	case sqlite3.ErrPerm, sqlite3.ErrReadonly, sqlite3.ErrAuth:
		return store.KindPermissionDenied, true
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB:
		return store.KindUnreachable, true
	}
	return store.KindUnknown, true
}

func classifyPostgres(err error) (store.Kind, bool) {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		if kind, ok := classifyPgCode(err); ok {
			return kind, true
		}
		return store.KindUnreachable, true
	}
	return classifyPgCode(err)
}

func classifyPgCode(err error) (store.Kind, bool) {
	var pe *pgconn.PgError
	if !errors.As(err, &pe) {
		return "", false
	}
	switch {
	case pe.Code == "42501", pe.Code == "28000", pe.Code == "28P01":
		// insufficient_privilege, invalid_authorization_specification, invalid_password
		return store.KindPermissionDenied, true
	case pe.Code == "40001", pe.Code == "40P01", pe.Code == "55P03", pe.Code == "57P03", pe.Code == "53300":
		// serialization_failure, deadlock_detected, lock_not_available,
		// cannot_connect_now, too_many_connections
		return store.KindTransient, true
	case strings.HasPrefix(pe.Code, "08"):
		return store.KindUnreachable, true
	}
	return store.KindUnknown, true
}
