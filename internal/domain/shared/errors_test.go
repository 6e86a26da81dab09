package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches by code", func(t *testing.T) {
		err := ErrNotFound.WithMessage("invoice not found")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrValidation))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("load: %w", ErrConcurrencyConflict)
		assert.True(t, errors.Is(err, ErrConcurrencyConflict))
	})
}

func TestDomainError_WithDetail(t *testing.T) {
	base := ErrValidation
	err := base.WithDetail("items", "add at least one item")

	assert.Equal(t, "add at least one item", err.Details["items"])
	assert.Empty(t, base.Details, "original must not be mutated")
}

func TestDomainError_Wrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewRetryableError("PORT_UNAVAILABLE", "stock service unavailable").Wrap(cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.False(t, IsRetryable(ErrNotFound))
}

func TestTenantContext(t *testing.T) {
	assert.Error(t, TenantContext{}.Validate())

	tc := NewTenantContext(uuid.New(), "EGP")
	assert.NoError(t, tc.Validate())
	assert.Equal(t, "EGP", tc.Currency)
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 21, 2, 10)
	assert.Equal(t, 3, p.TotalPages)

	f := Filter{Page: 3, PageSize: 10}
	assert.Equal(t, 20, f.Offset())
}
