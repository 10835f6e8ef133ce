package transport

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Field limits, matching the persisted record.
const (
	MaxReferenceLen = 15
	MaxReverseLen   = 64
	MaxPlatformLen  = 20
	MaxNotesLen     = 30
	MaxAddressLen   = 30
)

// Environment labels used in error reports and logs.
const (
	EnvironmentReal = "REAL"
	EnvironmentTest = "TEST"
)

// EnvironmentLabel renders a real/test flag.
func EnvironmentLabel(real bool) string {
	if real {
		return EnvironmentReal
	}
	return EnvironmentTest
}

// Address is one end of a transport.
type Address struct {
	Line    string
	Country string // ISO 3166-1 alpha-2, e.g. "ES", "PT"
}

// Request is a transport booking towards a carrier platform. It is the
// aggregate the Dispatcher mutates; boxes are supplied alongside it.
type Request struct {
	ID        uuid.UUID
	Reference *string // carrier-assigned, nil until the carrier answers with one
	Reverse   string
	Platform  string
	Protocol  Protocol
	Real      bool

	Error     bool
	ErrorText string
	Cancelled bool
	Notes     string

	Origin      Address
	Destination Address

	RequestPayload  string
	ResponsePayload string
	RequestedAt     *time.Time
	RespondedAt     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRequest creates an empty request for platform with a fresh ID.
func NewRequest(platform string, origin, destination Address) *Request {
	return &Request{
		ID:          uuid.New(),
		Platform:    platform,
		Origin:      origin,
		Destination: destination,
	}
}

// Validate checks the fields the caller is responsible for populating.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Platform) == "" {
		return fmt.Errorf("%w: platform is required", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(r.Platform) > MaxPlatformLen {
		return fmt.Errorf("%w: platform longer than %d characters", ErrInvalidRequest, MaxPlatformLen)
	}
	if utf8.RuneCountInString(r.Reverse) > MaxReverseLen {
		return fmt.Errorf("%w: reverse longer than %d characters", ErrInvalidRequest, MaxReverseLen)
	}
	if utf8.RuneCountInString(r.Notes) > MaxNotesLen {
		return fmt.Errorf("%w: notes longer than %d characters", ErrInvalidRequest, MaxNotesLen)
	}
	if err := r.Origin.validate("origin"); err != nil {
		return err
	}
	return r.Destination.validate("destination")
}

func (a Address) validate(side string) error {
	if utf8.RuneCountInString(a.Line) > MaxAddressLen {
		return fmt.Errorf("%w: %s address longer than %d characters", ErrInvalidRequest, side, MaxAddressLen)
	}
	if a.Country == "" {
		return fmt.Errorf("%w: %s country is required", ErrInvalidRequest, side)
	}
	if !IsCountry(a.Country) {
		return fmt.Errorf("%w: %s country %q is not an ISO 3166 country", ErrInvalidRequest, side, a.Country)
	}
	return nil
}

// IsCountry reports whether code is a two-letter ISO 3166-1 country code.
func IsCountry(code string) bool {
	if len(code) != 2 {
		return false
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return false
	}
	return region.IsCountry()
}

// Cancel flags the request as cancelled. The audit trail is kept.
func (r *Request) Cancel() {
	r.Cancelled = true
}

// Environment returns the REAL/TEST label of the request.
func (r *Request) Environment() string {
	return EnvironmentLabel(r.Real)
}

// ReferenceValue returns the carrier reference or an empty string.
func (r *Request) ReferenceValue() string {
	if r.Reference == nil {
		return ""
	}
	return *r.Reference
}

// String implements fmt.Stringer.
func (r *Request) String() string {
	return fmt.Sprintf("TransReq(%s)_%s:%s|%s", r.ID, r.Platform, r.Protocol, r.ReferenceValue())
}

// Snapshot returns an immutable copy of the request for adapters.
func (r *Request) Snapshot() Snapshot {
	return Snapshot{
		ID:          r.ID,
		Reference:   r.ReferenceValue(),
		Reverse:     r.Reverse,
		Platform:    r.Platform,
		Protocol:    r.Protocol,
		Real:        r.Real,
		Notes:       r.Notes,
		Origin:      r.Origin,
		Destination: r.Destination,
	}
}

// recordExchange stores the audit trail of one dispatch attempt. A carrier
// reference that does not fit MaxReferenceLen is not stored and is reported.
func (r *Request) recordExchange(ex *Exchange, requestedAt, respondedAt time.Time) error {
	r.RequestedAt = &requestedAt
	r.RespondedAt = &respondedAt
	r.RequestPayload = ""
	r.ResponsePayload = ""
	if ex == nil {
		return nil
	}
	r.RequestPayload = string(ex.Request)
	r.ResponsePayload = string(ex.Response)
	if ex.Reference == "" {
		return nil
	}
	if utf8.RuneCountInString(ex.Reference) > MaxReferenceLen {
		return NewRemoteFault(r.Protocol, "REFERENCE_TOO_LONG",
			fmt.Sprintf("carrier reference '%s' exceeds %d characters", ex.Reference, MaxReferenceLen))
	}
	ref := ex.Reference
	r.Reference = &ref
	return nil
}

func (r *Request) markFailed(err error) {
	r.Error = true
	r.ErrorText = err.Error()
}

func (r *Request) markSucceeded() {
	r.Error = false
	r.ErrorText = ""
}

// Snapshot is the read-only view of a Request handed to adapters.
type Snapshot struct {
	ID          uuid.UUID
	Reference   string
	Reverse     string
	Platform    string
	Protocol    Protocol
	Real        bool
	Notes       string
	Origin      Address
	Destination Address
}
