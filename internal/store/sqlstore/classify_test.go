package sqlstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

func TestClassifySQLite(t *testing.T) {
	tests := []struct {
		code sqlite3.ErrNo
		want store.Kind
	}{
		{sqlite3.ErrBusy, store.KindTransient},
		{sqlite3.ErrLocked, store.KindTransient},
		{sqlite3.ErrReadonly, store.KindPermissionDenied},
		{sqlite3.ErrPerm, store.KindPermissionDenied},
		{sqlite3.ErrCantOpen, store.KindUnreachable},
		{sqlite3.ErrCorrupt, store.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.code.Error(), func(t *testing.T) {
			err := fmt.Errorf("insert: %w", sqlite3.Error{Code: tt.code})
			kind, ok := classifySQLite(err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, kind)
		})
	}

	_, ok := classifySQLite(errors.New("plain"))
	assert.False(t, ok)
}

func TestClassifyPostgres(t *testing.T) {
	tests := []struct {
		code string
		want store.Kind
	}{
		{"42501", store.KindPermissionDenied},
		{"28P01", store.KindPermissionDenied},
		{"40001", store.KindTransient},
		{"40P01", store.KindTransient},
		{"57P03", store.KindTransient},
		{"08006", store.KindUnreachable},
		{"23505", store.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: tt.code})
			kind, ok := classifyPostgres(err)
			assert.True(t, ok)
			assert.Equal(t, tt.want, kind)
		})
	}

	_, ok := classifyPostgres(errors.New("plain"))
	assert.False(t, ok)
}
