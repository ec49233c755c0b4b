package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFilter_SearchPattern(t *testing.T) {
	testCases := []struct {
		search string
		want   string
	}{
		{"", ""},
		{"   ", ""},
		{"go", "%go%"},
		{" Go Basics ", "%Go Basics%"},
		{"100%", `%100\%%`},
		{"snake_case", `%snake\_case%`},
		{`back\slash`, `%back\\slash%`},
	}

	for _, tc := range testCases {
		t.Run(tc.search, func(t *testing.T) {
			assert.Equal(t, tc.want, ListFilter{Search: tc.search}.searchPattern())
		})
	}
}

func TestMigrations_Ordered(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i := 1; i < len(migrations); i++ {
		assert.Less(t, migrations[i-1].Version, migrations[i].Version)
	}
	assert.Equal(t, "0001_users", migrations[0].Version)
	for _, m := range migrations {
		assert.NotEmpty(t, m.SQL, m.Version)
	}
}

func TestUniqueViolation(t *testing.T) {
	assert.Empty(t, uniqueViolation(nil))
	assert.Empty(t, uniqueViolation(errors.New("23505 in message only")))

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
	assert.Equal(t, "users_username_key", uniqueViolation(fmt.Errorf("wrapped: %w", pgErr)))

	assert.Equal(t, "unknown", uniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.Empty(t, uniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestMapUserWriteError(t *testing.T) {
	assert.ErrorIs(t,
		mapUserWriteError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}, "update user"),
		ErrUsernameTaken)
	assert.ErrorIs(t,
		mapUserWriteError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, "create user"),
		ErrEmailExists)

	other := errors.New("connection reset")
	err := mapUserWriteError(other, "update user")
	assert.ErrorIs(t, err, other)
	assert.Contains(t, err.Error(), "failed to update user")
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.False(t, isForeignKeyViolation(nil))
	assert.False(t, isForeignKeyViolation(&pgconn.PgError{Code: pgUniqueViolation}))
	assert.True(t, isForeignKeyViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})))
}
