package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"clinicbook/backend/internal/store"
)

func TestMapWriteError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "overlap constraint becomes conflict",
			err:  &pgconn.PgError{Code: "23P01", ConstraintName: noOverlapConstraint},
			want: store.ErrConflict,
		},
		{
			name: "wrapped overlap constraint becomes conflict",
			err:  fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01", ConstraintName: noOverlapConstraint}),
			want: store.ErrConflict,
		},
		{
			name: "unique violation becomes duplicate",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"},
			want: store.ErrDuplicate,
		},
		{
			name: "foreign key violation becomes not found",
			err:  &pgconn.PgError{Code: "23503"},
			want: store.ErrNotFound,
		},
		{
			name: "other exclusion constraints pass through",
			err:  &pgconn.PgError{Code: "23P01", ConstraintName: "something_else"},
		},
		{
			name: "non-postgres errors pass through",
			err:  other,
			want: other,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapWriteError(tt.err)
			want := tt.want
			if want == nil {
				want = tt.err
			}
			if !errors.Is(got, want) {
				t.Fatalf("mapWriteError(%v) = %v, want %v", tt.err, got, want)
			}
		})
	}
}
