package graphql

import (
	"errors"
	"strings"

	"github.com/tournevent/transports/internal/booking"
	"github.com/tournevent/transports/internal/store"
	"github.com/tournevent/transports/pkg/transport"
)

func bookingInputToModel(input BookTransportInput) booking.Input {
	in := booking.Input{
		Platform:    input.Platform,
		Origin:      addressInputToModel(input.Origin),
		Destination: addressInputToModel(input.Destination),
		Boxes:       make([]transport.BoxSpec, len(input.Boxes)),
	}
	if input.Reverse != nil {
		in.Reverse = *input.Reverse
	}
	if input.Notes != nil {
		in.Notes = *input.Notes
	}
	for i, b := range input.Boxes {
		in.Boxes[i] = boxInputToModel(b)
	}
	return in
}

func addressInputToModel(input AddressInput) transport.Address {
	return transport.Address{
		Line:    strings.TrimSpace(input.Line),
		Country: strings.ToUpper(strings.TrimSpace(input.Country)),
	}
}

func boxInputToModel(input BoxInput) transport.BoxSpec {
	box := transport.BoxSpec{
		LocatorCode: input.Locator,
		LengthCM:    input.Length,
		WidthCM:     input.Width,
		HeightCM:    input.Height,
		WeightKG:    input.Weight,
	}
	if input.Value != nil {
		box.DeclaredValue = *input.Value
	}
	if input.Notes != nil {
		box.Remarks = *input.Notes
	}
	return box
}

func requestToGraphQL(req *transport.Request) *TransportRequest {
	if req == nil {
		return nil
	}
	out := &TransportRequest{
		ID:              req.ID.String(),
		Platform:        req.Platform,
		Reference:       req.Reference,
		Reverse:         optional(req.Reverse),
		Environment:     req.Environment(),
		Error:           req.Error,
		ErrorText:       optional(req.ErrorText),
		Cancelled:       req.Cancelled,
		Notes:           optional(req.Notes),
		Origin:          Address{Line: req.Origin.Line, Country: req.Origin.Country},
		Destination:     Address{Line: req.Destination.Line, Country: req.Destination.Country},
		RequestPayload:  optional(req.RequestPayload),
		ResponsePayload: optional(req.ResponsePayload),
		RequestedAt:     req.RequestedAt,
		RespondedAt:     req.RespondedAt,
		CreatedAt:       req.CreatedAt,
	}
	if req.Protocol != "" {
		label := req.Protocol.Label()
		out.Protocol = &label
	}
	return out
}

func errorToGraphQL(err error) *Error {
	code := strings.ToUpper(transport.Classify(err))
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = "NOT_FOUND"
	case errors.Is(err, store.ErrDuplicateReference):
		code = "DUPLICATE_REFERENCE"
	case errors.Is(err, booking.ErrCancelled):
		code = "ALREADY_CANCELLED"
	}
	return &Error{Code: code, Message: err.Error()}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
