package worm_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/worm"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := worm.NewNotFoundError("Tests")
		assert.Equal(t, "worm: Tests not found", err.Error())
	})

	t.Run("ErrorWithID", func(t *testing.T) {
		err := worm.NewNotFoundErrorWithID("Tests", int64(42))
		assert.Equal(t, "worm: Tests not found (key=42)", err.Error())
		assert.Equal(t, int64(42), err.ID())
		assert.Equal(t, "Tests", err.Label())
	})

	t.Run("Is", func(t *testing.T) {
		err := worm.NewNotFoundError("Tests")
		assert.True(t, errors.Is(err, worm.ErrNotFound))
		assert.False(t, errors.Is(err, worm.ErrNotSingular))
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := worm.NewNotFoundError("Tests")
		assert.True(t, worm.IsNotFound(err))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, worm.IsNotFound(wrapped))
		assert.True(t, worm.IsNotFound(worm.ErrNotFound))
		assert.False(t, worm.IsNotFound(nil))
		assert.False(t, worm.IsNotFound(errors.New("other")))
	})
}

func TestNotSingularError(t *testing.T) {
	err := worm.NewNotSingularErrorWithCount("Tests", 3)
	assert.Equal(t, "worm: Tests not singular (got 3 results, expected 1)", err.Error())
	assert.Equal(t, 3, err.Count())
	assert.True(t, errors.Is(err, worm.ErrNotSingular))
	assert.True(t, worm.IsNotSingular(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, worm.IsNotSingular(nil))
}

func TestConfigError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := worm.NewConfigError("Test", "Id", "duplicate", nil)
		assert.Equal(t, "worm: config error on type Test column Id: duplicate", err.Error())

		cause := errors.New("boom")
		err = worm.NewConfigError("Test", "", "invalid table", cause)
		assert.Equal(t, "worm: config error on type Test: invalid table: boom", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Is", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", worm.NewConfigError("Test", "", "x", nil))
		assert.ErrorIs(t, err, worm.ErrConfig)
		assert.True(t, worm.IsConfigError(err))
		assert.False(t, worm.IsConfigError(errors.New("other")))
		assert.False(t, worm.IsConfigError(nil))
	})
}

func TestDecodeError(t *testing.T) {
	err := &worm.DecodeError{Table: "Tests", Column: "Name", Err: worm.ErrNullValue}
	assert.Equal(t, "worm: decoding Tests.Name: worm: NULL value for non-nullable field", err.Error())
	assert.ErrorIs(t, err, worm.ErrNullValue)
	assert.True(t, worm.IsDecodeError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, worm.IsDecodeError(nil))
}

func TestConstraintError(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed: Tests.Name")
	err := worm.NewConstraintError(cause.Error(), cause)
	assert.Equal(t, "worm: constraint failed: UNIQUE constraint failed: Tests.Name", err.Error())
	assert.True(t, worm.IsConstraintError(err))
	assert.ErrorIs(t, err, cause)

	mutation := worm.NewMutationError("Tests", "insert", errors.Join(err, &worm.RollbackError{Err: errors.New("gone")}))
	assert.True(t, worm.IsConstraintError(mutation))
	var rerr *worm.RollbackError
	require.ErrorAs(t, mutation, &rerr)
	assert.Equal(t, "worm: rollback failed: gone", rerr.Error())
	assert.False(t, worm.IsConstraintError(nil))
}

func TestQueryError(t *testing.T) {
	cause := errors.New("no such table")
	err := worm.NewQueryError("Tests", "get_by_id", cause)
	assert.Equal(t, "worm: querying Tests (get_by_id): no such table", err.Error())
	assert.ErrorIs(t, err, cause)

	err = worm.NewQueryError("Tests", "", cause)
	assert.Equal(t, "worm: querying Tests: no such table", err.Error())
}

func TestMutationError(t *testing.T) {
	cause := errors.New("disk full")
	err := worm.NewMutationError("Tests", "insert", cause)
	assert.Equal(t, "worm: insert Tests: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}
