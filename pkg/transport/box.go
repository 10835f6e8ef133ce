package transport

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxLocator is the largest locator that fits in eight base-36 characters.
const MaxLocator int64 = 2821109907455

// maxBoxNotes bounds the free-text notes a carrier accepts per shipment.
const maxBoxNotes = 30

// Box is a shippable unit. Concrete box types belong to the consuming
// domain; the dispatcher only relies on this capability set.
//
// Dimensions are in centimetres, weight in kilograms and value in the
// shipper's currency.
type Box interface {
	Locator() int64
	Length() float64
	Width() float64
	Height() float64
	Weight() float64
	Value() float64
	Notes() string
}

// BoxSpec is a plain Box implementation for callers without a box model of their own.
type BoxSpec struct {
	LocatorCode   int64   `json:"locator"`
	LengthCM      float64 `json:"length"`
	WidthCM       float64 `json:"width"`
	HeightCM      float64 `json:"height"`
	WeightKG      float64 `json:"weight"`
	DeclaredValue float64 `json:"value"`
	Remarks       string  `json:"notes"`
}

func (b BoxSpec) Locator() int64  { return b.LocatorCode }
func (b BoxSpec) Length() float64 { return b.LengthCM }
func (b BoxSpec) Width() float64  { return b.WidthCM }
func (b BoxSpec) Height() float64 { return b.HeightCM }
func (b BoxSpec) Weight() float64 { return b.WeightKG }
func (b BoxSpec) Value() float64  { return b.DeclaredValue }
func (b BoxSpec) Notes() string   { return b.Remarks }

// String renders the box the way it shows up in violation reports.
func (b BoxSpec) String() string {
	return DescribeBox(b)
}

var _ Box = BoxSpec{}

// DescribeBox renders a box as locator:LxWxH-weight.
func DescribeBox(b Box) string {
	if b == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%d:%gLx%gWx%gH-%g", b.Locator(), b.Length(), b.Width(), b.Height(), b.Weight())
}

// LocatorCode renders a locator as the eight character base-36 code printed on labels.
func LocatorCode(locator int64) string {
	code := strings.ToUpper(strconv.FormatInt(locator, 36))
	if len(code) < 8 {
		code = strings.Repeat("0", 8-len(code)) + code
	}
	return code
}

// ValidateBoxes checks, in order, that every box exposes a usable capability
// set. It stops at the first offending box.
func ValidateBoxes(boxes []Box) error {
	for i, b := range boxes {
		if err := validateBox(i, b); err != nil {
			return err
		}
	}
	return nil
}

func validateBox(i int, b Box) error {
	if b == nil {
		return &ContractViolation{Index: i, Box: DescribeBox(b), Capability: "box", Reason: ReasonMissing}
	}
	violation := func(capability string, reason ViolationReason) error {
		return &ContractViolation{Index: i, Box: DescribeBox(b), Capability: capability, Reason: reason}
	}

	switch loc := b.Locator(); {
	case loc == 0:
		return violation("locator", ReasonMissing)
	case loc < 0 || loc > MaxLocator:
		return violation("locator", ReasonInvalid)
	}

	measures := []struct {
		name  string
		value float64
	}{
		{"length", b.Length()},
		{"width", b.Width()},
		{"height", b.Height()},
		{"weight", b.Weight()},
	}
	for _, m := range measures {
		switch {
		case m.value == 0:
			return violation(m.name, ReasonMissing)
		case !usable(m.value):
			return violation(m.name, ReasonInvalid)
		}
	}

	// A zero declared value is legitimate.
	if !usable(b.Value()) && b.Value() != 0 {
		return violation("value", ReasonInvalid)
	}
	if utf8.RuneCountInString(b.Notes()) > maxBoxNotes {
		return violation("notes", ReasonInvalid)
	}
	return nil
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
