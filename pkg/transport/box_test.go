package transport_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/transports/pkg/transport"
)

func validBox() transport.BoxSpec {
	return transport.BoxSpec{LocatorCode: 42, LengthCM: 30, WidthCM: 20, HeightCM: 10, WeightKG: 2, DeclaredValue: 15}
}

func TestValidateBoxes_Valid(t *testing.T) {
	boxes := []transport.Box{validBox(), validBox()}
	assert.NoError(t, transport.ValidateBoxes(boxes))
}

func TestValidateBoxes_Empty(t *testing.T) {
	assert.NoError(t, transport.ValidateBoxes(nil))
}

func TestValidateBoxes_Violations(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(b *transport.BoxSpec)
		capability string
		reason     transport.ViolationReason
	}{
		{"missing locator", func(b *transport.BoxSpec) { b.LocatorCode = 0 }, "locator", transport.ReasonMissing},
		{"negative locator", func(b *transport.BoxSpec) { b.LocatorCode = -1 }, "locator", transport.ReasonInvalid},
		{"locator over hex36 range", func(b *transport.BoxSpec) { b.LocatorCode = transport.MaxLocator + 1 }, "locator", transport.ReasonInvalid},
		{"missing length", func(b *transport.BoxSpec) { b.LengthCM = 0 }, "length", transport.ReasonMissing},
		{"negative width", func(b *transport.BoxSpec) { b.WidthCM = -3 }, "width", transport.ReasonInvalid},
		{"infinite height", func(b *transport.BoxSpec) { b.HeightCM = math.Inf(1) }, "height", transport.ReasonInvalid},
		{"missing weight", func(b *transport.BoxSpec) { b.WeightKG = 0 }, "weight", transport.ReasonMissing},
		{"NaN weight", func(b *transport.BoxSpec) { b.WeightKG = math.NaN() }, "weight", transport.ReasonInvalid},
		{"negative value", func(b *transport.BoxSpec) { b.DeclaredValue = -1 }, "value", transport.ReasonInvalid},
		{"notes too long", func(b *transport.BoxSpec) { b.Remarks = "0123456789012345678901234567890" }, "notes", transport.ReasonInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := validBox()
			tt.mutate(&bad)

			err := transport.ValidateBoxes([]transport.Box{validBox(), bad})

			require.Error(t, err)
			var violation *transport.ContractViolation
			require.True(t, errors.As(err, &violation))
			assert.Equal(t, 1, violation.Index)
			assert.Equal(t, tt.capability, violation.Capability)
			assert.Equal(t, tt.reason, violation.Reason)
			assert.True(t, errors.Is(err, transport.ErrContractViolation))
			assert.Contains(t, err.Error(), tt.capability)
		})
	}
}

func TestValidateBoxes_ZeroValueAllowed(t *testing.T) {
	b := validBox()
	b.DeclaredValue = 0
	assert.NoError(t, transport.ValidateBoxes([]transport.Box{b}))
}

func TestValidateBoxes_MaxLocatorAllowed(t *testing.T) {
	b := validBox()
	b.LocatorCode = transport.MaxLocator
	assert.NoError(t, transport.ValidateBoxes([]transport.Box{b}))
	assert.Equal(t, "ZZZZZZZZ", transport.LocatorCode(transport.MaxLocator))
}

func TestValidateBoxes_NilBox(t *testing.T) {
	err := transport.ValidateBoxes([]transport.Box{nil})

	var violation *transport.ContractViolation
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, "box", violation.Capability)
	assert.Equal(t, transport.ReasonMissing, violation.Reason)
}

func TestValidateBoxes_FirstViolationWins(t *testing.T) {
	first := validBox()
	first.WeightKG = 0
	second := validBox()
	second.LocatorCode = 0

	err := transport.ValidateBoxes([]transport.Box{validBox(), first, second})

	var violation *transport.ContractViolation
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, 1, violation.Index)
	assert.Equal(t, "weight", violation.Capability)
}

func TestValidateBoxes_Idempotent(t *testing.T) {
	bad := validBox()
	bad.WeightKG = 0
	boxes := []transport.Box{validBox(), bad}

	first := transport.ValidateBoxes(boxes)
	second := transport.ValidateBoxes(boxes)
	assert.Equal(t, first, second)

	good := []transport.Box{validBox()}
	assert.NoError(t, transport.ValidateBoxes(good))
	assert.NoError(t, transport.ValidateBoxes(good))
}

func TestLocatorCode(t *testing.T) {
	assert.Equal(t, "00000001", transport.LocatorCode(1))
	assert.Equal(t, "0000000Z", transport.LocatorCode(35))
	assert.Equal(t, "00000010", transport.LocatorCode(36))
}

func TestDescribeBox(t *testing.T) {
	assert.Equal(t, "42:30Lx20Wx10H-2", transport.DescribeBox(validBox()))
	assert.Equal(t, "<nil>", transport.DescribeBox(nil))
}
