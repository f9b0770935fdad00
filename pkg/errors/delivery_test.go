package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermanentWrapping(t *testing.T) {
	base := errors.New("template missing")
	err := Permanent(base)

	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "template missing")
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}

func TestPermanentSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("dispatch failed: %w", Permanentf("channel %s not implemented", "sms"))

	assert.True(t, IsPermanent(err))
}

func TestTransientIsNotPermanent(t *testing.T) {
	assert.False(t, IsPermanent(errors.New("connection refused")))
	assert.False(t, IsPermanent(nil))
}
