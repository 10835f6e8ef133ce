package transport

import (
	"errors"
	"fmt"
)

// ErrorKind classifies configuration and protocol resolution failures.
type ErrorKind int

const (
	// KindUnknownProtocol means the platform resolved to a protocol with no handler.
	KindUnknownProtocol ErrorKind = 1
	// KindWrongEnvironment means the request and the system disagree on real/test.
	KindWrongEnvironment ErrorKind = 2
	// KindUnknownPlatform means the platform has no configuration at all.
	KindUnknownPlatform ErrorKind = 3
)

// String returns a short identifier for the kind, suitable for metric labels.
func (k ErrorKind) String() string {
	switch k {
	case KindUnknownProtocol:
		return "unknown_protocol"
	case KindWrongEnvironment:
		return "wrong_environment"
	case KindUnknownPlatform:
		return "unknown_platform"
	default:
		return fmt.Sprintf("kind_%d", int(k))
	}
}

// TransportError is raised when a request cannot be routed to a carrier.
type TransportError struct {
	Kind   ErrorKind
	Detail string
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error %d: %s", int(e.Kind), e.Detail)
}

// Is matches any TransportError of the same kind.
func (e *TransportError) Is(target error) bool {
	t, ok := target.(*TransportError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewTransportError creates a new TransportError.
func NewTransportError(kind ErrorKind, format string, args ...any) *TransportError {
	return &TransportError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// ViolationReason tells apart an absent capability from one that is present but unusable.
type ViolationReason string

const (
	ReasonMissing ViolationReason = "not implemented"
	ReasonInvalid ViolationReason = "not a valid computed value"
)

// ContractViolation reports the first box that does not honour the Box contract.
type ContractViolation struct {
	Index      int
	Box        string
	Capability string
	Reason     ViolationReason
}

// Error implements the error interface.
func (e *ContractViolation) Error() string {
	return fmt.Sprintf("box #%d (%s) does not implement the transport box contract: '%s' %s",
		e.Index, e.Box, e.Capability, e.Reason)
}

// Unwrap lets callers match ErrContractViolation.
func (e *ContractViolation) Unwrap() error {
	return ErrContractViolation
}

// RemoteFault is a business-level fault answered by the carrier endpoint.
type RemoteFault struct {
	Protocol Protocol
	Code     string
	Message  string
}

// Error implements the error interface.
func (e *RemoteFault) Error() string {
	return fmt.Sprintf("%s remote fault (%s): %s", e.Protocol, e.Code, e.Message)
}

// Unwrap lets callers match ErrRemoteFault.
func (e *RemoteFault) Unwrap() error {
	return ErrRemoteFault
}

// NewRemoteFault creates a new RemoteFault.
func NewRemoteFault(protocol Protocol, code, message string) *RemoteFault {
	return &RemoteFault{Protocol: protocol, Code: code, Message: message}
}

// TransportFault is raised when the carrier cannot be reached, including when
// no usable endpoint is configured.
type TransportFault struct {
	Protocol Protocol
	Endpoint string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *TransportFault) Error() string {
	msg := fmt.Sprintf("%s transport fault", e.Protocol)
	if e.Endpoint != "" {
		msg += " [" + e.Endpoint + "]"
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *TransportFault) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrTransportFault, e.Cause}
	}
	return []error{ErrTransportFault}
}

// NewTransportFault creates a new TransportFault.
func NewTransportFault(protocol Protocol, endpoint, message string) *TransportFault {
	return &TransportFault{Protocol: protocol, Endpoint: endpoint, Message: message}
}

// WithCause adds a cause to the fault.
func (e *TransportFault) WithCause(err error) *TransportFault {
	e.Cause = err
	return e
}

// Sentinel errors.
var (
	// ErrContractViolation matches every ContractViolation.
	ErrContractViolation = errors.New("box contract violation")

	// ErrRemoteFault matches every RemoteFault.
	ErrRemoteFault = errors.New("remote fault")

	// ErrTransportFault matches every TransportFault.
	ErrTransportFault = errors.New("transport fault")

	// ErrInvalidRequest indicates the request is not fit to be dispatched.
	ErrInvalidRequest = errors.New("invalid transport request")

	// ErrUnsupportedCountry indicates the carrier does not serve a country.
	ErrUnsupportedCountry = errors.New("unsupported country")

	// ErrDuplicateRequest indicates the same request was submitted twice in one batch.
	ErrDuplicateRequest = errors.New("duplicate request in batch")
)

// Sentinel TransportErrors, usable as errors.Is targets.
var (
	ErrUnknownProtocol  = &TransportError{Kind: KindUnknownProtocol}
	ErrWrongEnvironment = &TransportError{Kind: KindWrongEnvironment}
	ErrUnknownPlatform  = &TransportError{Kind: KindUnknownPlatform}
)

// Classify returns a short label for err, used for metrics and events.
func Classify(err error) string {
	var te *TransportError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &te):
		return te.Kind.String()
	case errors.Is(err, ErrContractViolation):
		return "contract_violation"
	case errors.Is(err, ErrRemoteFault):
		return "remote_fault"
	case errors.Is(err, ErrTransportFault):
		return "transport_fault"
	case errors.Is(err, ErrUnsupportedCountry):
		return "unsupported_country"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return "unknown"
	}
}
