package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlreadyPaidIsBadRequest(t *testing.T) {
	err := fmt.Errorf("phase ph-design: %w", ErrAlreadyPaid)
	assert.True(t, errors.Is(err, ErrAlreadyPaid))
	assert.True(t, errors.Is(err, ErrBadRequest))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(ErrBadRequest, ErrAlreadyPaid))
}
