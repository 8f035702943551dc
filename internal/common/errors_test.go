package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinels_AreDistinct(t *testing.T) {
	all := []error{
		ErrorNotFound, ErrorInternal, ErrValidation,
		ErrRateLimitExceeded, ErrRemoteRejected, ErrCancelled, ErrDecodeCorrupt,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v must not match %v", a, b)
			}
		}
	}
}

func TestSentinels_SurviveWrapping(t *testing.T) {
	err := fmt.Errorf("get collection[42]: %w", fmt.Errorf("decode: %w", ErrDecodeCorrupt))
	assert.ErrorIs(t, err, ErrDecodeCorrupt)
	assert.NotErrorIs(t, err, ErrValidation)
}
