package faqerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationfMatchesSentinel(t *testing.T) {
	err := Validationf("field %s is empty", "question")
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "question")
}

func TestDimensionMismatchAs(t *testing.T) {
	var err error = fmt.Errorf("build: %w", &DimensionMismatchError{Expected: 10, Got: 7})

	var dim *DimensionMismatchError
	require.True(t, errors.As(err, &dim))
	assert.Equal(t, 10, dim.Expected)
	assert.Equal(t, 7, dim.Got)
}

func TestPersistenceWarningUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	warn := &PersistenceWarning{Path: "/data/kb.csv", Cause: cause}

	assert.True(t, errors.Is(warn, cause))
	assert.Contains(t, warn.Error(), "/data/kb.csv")
}
