package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ebfe/scard"
	"github.com/stretchr/testify/assert"
)

func TestServiceError_Message(t *testing.T) {
	assert.Equal(t, "transmit: 0x80100069", (&ServiceError{Op: "transmit", Code: CodeRemovedCard}).Error())
	assert.Equal(t, "connect: boom", (&ServiceError{Op: "connect", Err: errors.New("boom")}).Error())
	assert.Equal(t, "status: failed", (&ServiceError{Op: "status"}).Error())
}

func TestNewServiceError_ExtractsCode(t *testing.T) {
	err := newServiceError("connect", fmt.Errorf("wrapped: %w", scard.Error(CodeNoSmartcard)))
	assert.Equal(t, CodeNoSmartcard, err.Code)
	assert.ErrorIs(t, err, scard.Error(CodeNoSmartcard))

	// Re-wrapping keeps the code and takes the new op
	rewrapped := newServiceError("transmit", err)
	assert.Equal(t, "transmit", rewrapped.Op)
	assert.Equal(t, CodeNoSmartcard, rewrapped.Code)
}

func TestServiceCode(t *testing.T) {
	assert.Equal(t, CodeTimeout, ServiceCode(scard.Error(CodeTimeout)))
	assert.Equal(t, CodeTimeout, ServiceCode(fmt.Errorf("x: %w", &ServiceError{Op: "connect", Code: CodeTimeout})))
	assert.Equal(t, uint32(0), ServiceCode(errors.New("plain")))
	assert.Equal(t, uint32(0), ServiceCode(nil))
}

func TestErrorKindsAreDistinct(t *testing.T) {
	errs := []error{
		&ServiceError{Op: "transmit", Code: CodeRemovedCard},
		&TrailerMismatchError{Response: []byte{0x63, 0x00}},
		&ClassificationLengthError{Length: 6, Required: 15},
		&ConfigurationError{Kind: NoReaders},
	}
	predicates := []func(error) bool{IsServiceError, IsTrailerMismatch, IsClassificationLength, IsConfigurationError}

	for i, err := range errs {
		for j, is := range predicates {
			wrapped := fmt.Errorf("op: %w", err)
			assert.Equal(t, i == j, is(wrapped), "error %d predicate %d", i, j)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "expected 90 00 trailer not found in response [63 00]", (&TrailerMismatchError{Response: []byte{0x63, 0x00}}).Error())
	assert.Equal(t, "status response too short for classification (6 bytes, need 15)", (&ClassificationLengthError{Length: 6, Required: 15}).Error())
	assert.Equal(t, "no readers found", (&ConfigurationError{Kind: NoReaders}).Error())
	assert.Equal(t, `reader "ACS ACR1252 Dual Reader PICC" does not match expected model "ACR122"`,
		(&ConfigurationError{Kind: WrongModel, Reader: "ACS ACR1252 Dual Reader PICC", Model: "ACR122"}).Error())
}

func TestStatusCodesMatchPCSC(t *testing.T) {
	assert.Equal(t, uint32(0x8010000A), CodeTimeout)
	assert.Equal(t, uint32(0x8010000C), CodeNoSmartcard)
	assert.Equal(t, uint32(0x80100016), CodeNotTransacted)
	assert.Equal(t, uint32(0x8010002E), CodeNoReadersAvailable)
	assert.Equal(t, uint32(0x80100069), CodeRemovedCard)
	assert.ErrorIs(t, fmt.Errorf("connect: %w", scard.Error(CodeNoSmartcard)), scard.ErrNoSmartcard)
}
