package mrw

import (
	"context"
)

// APIClient defines the interface for MRW SAGEC operations.
// This abstraction allows for mock implementations during testing
// and the SOAP implementation in production.
type APIClient interface {
	// TransmEnvio books a shipment. The response carries the raw payloads
	// exchanged, also when an error is returned after the call was made.
	TransmEnvio(ctx context.Context, endpoint string, auth AuthInfo, req *TransmEnvioRequest) (*TransmEnvioResponse, error)
}

// ============================================================================
// API Request/Response Types (match MRW SAGEC SOAP structure)
// ============================================================================

// AuthInfo is the SOAP header MRW authenticates every call with.
type AuthInfo struct {
	CodigoFranquicia   string
	CodigoAbonado      string
	CodigoDepartamento string
	UserName           string
	Password           string
}

// RedactedPassword replaces the password in payloads kept for auditing.
const RedactedPassword = "********"

// Redacted returns a copy safe to keep in audit records.
func (a AuthInfo) Redacted() AuthInfo {
	if a.Password != "" {
		a.Password = RedactedPassword
	}
	return a
}

// TransmEnvioRequest is the shipment booking payload.
type TransmEnvioRequest struct {
	DatosEntrega  DatosEntrega
	DatosServicio DatosServicio
}

// DatosEntrega describes where and to whom the shipment is delivered.
type DatosEntrega struct {
	Direccion     Direccion
	Nif           string
	Nombre        string
	Telefono      string
	Contacto      string
	ALaAtencionDe string
	Observaciones string
}

// Direccion is an MRW delivery address.
type Direccion struct {
	CodigoTipoVia string
	Via           string
	Numero        string
	Resto         string
	CodigoPostal  string
	Poblacion     string
	CodigoPais    string
}

// DatosServicio describes the booked service and its packages.
type DatosServicio struct {
	Fecha                 string // dd/mm/yyyy
	Referencia            string
	EnFranquicia          string
	CodigoServicio        string
	NumeroSobre           int
	Bultos                []Bulto
	NumeroBultos          int
	Peso                  float64 // kg
	EntregaSabado         string
	Entrega830            string
	Gestion               string
	Retorno               string
	ConfirmacionInmediata string
	Reembolso             string
	TipoMercancia         string
	ValorDeclarado        float64
	Notificaciones        []Notificacion
}

// Bulto is one package, dimensions in cm and weight in kg.
type Bulto struct {
	Alto       float64
	Largo      float64
	Ancho      float64
	Peso       float64
	Referencia string
}

// Notificacion asks MRW to notify the recipient through a channel.
type Notificacion struct {
	CanalNotificacion int
	TipoNotificacion  int
	MailSMS           string
}

// Notification channels and types.
const (
	CanalEmail = 1
	CanalSMS   = 2

	TipoConfirmacion = 2
)

// TransmEnvioResponse is the booking result.
type TransmEnvioResponse struct {
	Estado          string // "1" on success
	Mensaje         string
	NumeroSolicitud string
	NumeroEnvio     string
	URL             string

	RawRequest  []byte
	RawResponse []byte
}

// Succeeded reports whether MRW accepted the booking.
func (r *TransmEnvioResponse) Succeeded() bool {
	return r.Estado == "1"
}

// APIError represents a fault answered by the MRW API.
type APIError struct {
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Description
}
