package tr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"unique", &pgconn.PgError{Code: "23505"}, true},
		{"check violation", &pgconn.PgError{Code: "23514"}, false},
		{"conflict sentinel", e.Wrap("op", e.ErrTxConflict), true},
		{"plain", errors.New("boom"), false},
		{"validation", e.NewValidationError("items", "required"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestIsUniqueViolationAndConflict(t *testing.T) {
	assert.True(t, IsUniqueViolation(e.Wrap("op", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsConflict(&pgconn.PgError{Code: "40001"}))
	assert.False(t, IsConflict(errors.New("x")))
}
