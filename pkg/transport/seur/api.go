package seur

import (
	"context"
)

// APIClient defines the interface for SEUR web service operations.
type APIClient interface {
	// CrearRecogida requests a pickup. The response carries the raw payloads
	// exchanged, also when an error is returned after the call was made.
	CrearRecogida(ctx context.Context, endpoint string, req *PickupRequest) (*PickupResponse, error)
}

// PickupRequest is the crearRecogida payload.
type PickupRequest struct {
	Usuario    string
	Password   string
	CCC        string // SEUR customer account
	NIF        string
	Franquicia string

	Referencia     string
	Fecha          string // dd/mm/yyyy
	Bultos         int
	Kilos          float64
	Volumen        float64 // m3
	ValorDeclarado float64
	Observaciones  string

	OrigenDireccion  string
	OrigenPais       string
	DestinoDireccion string
	DestinoPais      string

	Localizadores []string
}

// RedactedPassword replaces the password in payloads kept for auditing.
const RedactedPassword = "********"

// Redacted returns a copy safe to keep in audit records.
func (r *PickupRequest) Redacted() *PickupRequest {
	c := *r
	if c.Password != "" {
		c.Password = RedactedPassword
	}
	return &c
}

// PickupResponse is the crearRecogida result.
type PickupResponse struct {
	Localizador string
	NumRecogida string
	Error       string // empty on success
	Mensaje     string

	RawRequest  []byte
	RawResponse []byte
}

// Succeeded reports whether SEUR created the pickup.
func (r *PickupResponse) Succeeded() bool {
	return r.Error == "" && r.Localizador != ""
}

// APIError represents a fault answered by the SEUR API.
type APIError struct {
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Description
}
