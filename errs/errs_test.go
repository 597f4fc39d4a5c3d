package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRejection(t *testing.T) {
	notYourTurn := fmt.Errorf("%w: not your turn", ErrValidation)
	closed := fmt.Errorf("%w: voting closed", ErrState)
	tooFew := fmt.Errorf("%w: not enough players", ErrResource)

	assert.True(t, IsRejection(notYourTurn))
	assert.True(t, IsRejection(fmt.Errorf("submit: %w", closed)))
	assert.False(t, IsRejection(tooFew))
	assert.False(t, IsRejection(errors.New("boom")))
	assert.False(t, IsRejection(nil))
}
