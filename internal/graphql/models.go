package graphql

import "time"

// Address is the GraphQL view of an address.
type Address struct {
	Line    string `json:"line"`
	Country string `json:"country"`
}

// TransportRequest is the GraphQL view of a transport request.
type TransportRequest struct {
	ID              string     `json:"id"`
	Platform        string     `json:"platform"`
	Protocol        *string    `json:"protocol"`
	Reference       *string    `json:"reference"`
	Reverse         *string    `json:"reverse"`
	Environment     string     `json:"environment"`
	Error           bool       `json:"error"`
	ErrorText       *string    `json:"errorText"`
	Cancelled       bool       `json:"cancelled"`
	Notes           *string    `json:"notes"`
	Origin          Address    `json:"origin"`
	Destination     Address    `json:"destination"`
	RequestPayload  *string    `json:"requestPayload"`
	ResponsePayload *string    `json:"responsePayload"`
	RequestedAt     *time.Time `json:"requestedAt"`
	RespondedAt     *time.Time `json:"respondedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Platform describes a configured platform.
type Platform struct {
	Name      string `json:"name"`
	Protocol  string `json:"protocol"`
	Available bool   `json:"available"`
}

// Error is a business error reported in a mutation result.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BookTransportResult is returned by bookTransport.
type BookTransportResult struct {
	Success bool              `json:"success"`
	Request *TransportRequest `json:"request"`
	Errors  []*Error          `json:"errors"`
}

// CancelTransportResult is returned by cancelTransport.
type CancelTransportResult struct {
	Success bool              `json:"success"`
	Request *TransportRequest `json:"request"`
	Errors  []*Error          `json:"errors"`
}

// AddressInput is an address argument.
type AddressInput struct {
	Line    string `json:"line"`
	Country string `json:"country"`
}

// BoxInput is a box argument.
type BoxInput struct {
	Locator int64    `json:"locator"`
	Length  float64  `json:"length"`
	Width   float64  `json:"width"`
	Height  float64  `json:"height"`
	Weight  float64  `json:"weight"`
	Value   *float64 `json:"value"`
	Notes   *string  `json:"notes"`
}

// BookTransportInput is the bookTransport argument.
type BookTransportInput struct {
	Platform    string       `json:"platform"`
	Reverse     *string      `json:"reverse"`
	Notes       *string      `json:"notes"`
	Origin      AddressInput `json:"origin"`
	Destination AddressInput `json:"destination"`
	Boxes       []BoxInput   `json:"boxes"`
}
