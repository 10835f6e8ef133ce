package mrw

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"
)

const (
	soapNamespace = "http://www.mrw.es/"
	soapAction    = soapNamespace + "TransmEnvio"
)

// SOAPAPIClient is the production implementation of APIClient.
type SOAPAPIClient struct {
	httpClient *http.Client
}

// SOAPAPIClientConfig holds configuration for the SOAP client.
type SOAPAPIClientConfig struct {
	Timeout time.Duration
}

// NewSOAPAPIClient creates a new SOAP-based API client.
func NewSOAPAPIClient(cfg SOAPAPIClientConfig) *SOAPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &SOAPAPIClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// TransmEnvio posts a TransmEnvio call to the service behind the endpoint WSDL.
// RawRequest holds the envelope with the password redacted.
func (c *SOAPAPIClient) TransmEnvio(ctx context.Context, endpoint string, auth AuthInfo, req *TransmEnvioRequest) (*TransmEnvioResponse, error) {
	body, err := buildTransmEnvio(auth, req)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	audit, err := buildTransmEnvio(auth.Redacted(), req)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	result := &TransmEnvioResponse{RawRequest: audit}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, serviceURL(endpoint), bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", soapAction)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, fmt.Errorf("failed to read response: %w", err)
	}
	result.RawResponse = raw

	// Only a SOAP fault is an answer from MRW; anything else is the endpoint failing.
	var env soapEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return result, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
		}
		return result, fmt.Errorf("failed to parse response: %w", err)
	}
	if env.Body.Fault != nil {
		return result, &APIError{Code: env.Body.Fault.Code, Description: env.Body.Fault.String}
	}
	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}
	if env.Body.TransmEnvioResponse == nil {
		return result, fmt.Errorf("response has no TransmEnvioResult")
	}

	r := env.Body.TransmEnvioResponse.Result
	result.Estado = r.Estado
	result.Mensaje = r.Mensaje
	result.NumeroSolicitud = r.NumeroSolicitud
	result.NumeroEnvio = r.NumeroEnvio
	result.URL = r.URL
	return result, nil
}

// serviceURL turns a WSDL location into the address calls are posted to.
func serviceURL(endpoint string) string {
	if i := strings.Index(strings.ToLower(endpoint), "?wsdl"); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}

// ============================================================================
// SOAP Request Builder
// ============================================================================

const transmEnvioTemplate = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/" xmlns:mrw="http://www.mrw.es/">
  <soap:Header>
    <mrw:AuthInfo>
      <mrw:CodigoFranquicia>{{x .Auth.CodigoFranquicia}}</mrw:CodigoFranquicia>
      <mrw:CodigoAbonado>{{x .Auth.CodigoAbonado}}</mrw:CodigoAbonado>
      <mrw:CodigoDepartamento>{{x .Auth.CodigoDepartamento}}</mrw:CodigoDepartamento>
      <mrw:UserName>{{x .Auth.UserName}}</mrw:UserName>
      <mrw:Password>{{x .Auth.Password}}</mrw:Password>
    </mrw:AuthInfo>
  </soap:Header>
  <soap:Body>
    <mrw:TransmEnvio>
      <mrw:request>
        <mrw:DatosEntrega>
          <mrw:Direccion>
            <mrw:CodigoTipoVia>{{x .Req.DatosEntrega.Direccion.CodigoTipoVia}}</mrw:CodigoTipoVia>
            <mrw:Via>{{x .Req.DatosEntrega.Direccion.Via}}</mrw:Via>
            <mrw:Numero>{{x .Req.DatosEntrega.Direccion.Numero}}</mrw:Numero>
            <mrw:Resto>{{x .Req.DatosEntrega.Direccion.Resto}}</mrw:Resto>
            <mrw:CodigoPostal>{{x .Req.DatosEntrega.Direccion.CodigoPostal}}</mrw:CodigoPostal>
            <mrw:Poblacion>{{x .Req.DatosEntrega.Direccion.Poblacion}}</mrw:Poblacion>
            <mrw:CodigoPais>{{x .Req.DatosEntrega.Direccion.CodigoPais}}</mrw:CodigoPais>
          </mrw:Direccion>
          <mrw:Nif>{{x .Req.DatosEntrega.Nif}}</mrw:Nif>
          <mrw:Nombre>{{x .Req.DatosEntrega.Nombre}}</mrw:Nombre>
          <mrw:Telefono>{{x .Req.DatosEntrega.Telefono}}</mrw:Telefono>
          <mrw:Contacto>{{x .Req.DatosEntrega.Contacto}}</mrw:Contacto>
          <mrw:ALaAtencionDe>{{x .Req.DatosEntrega.ALaAtencionDe}}</mrw:ALaAtencionDe>
          <mrw:Observaciones>{{x .Req.DatosEntrega.Observaciones}}</mrw:Observaciones>
        </mrw:DatosEntrega>
        <mrw:DatosServicio>
          <mrw:Fecha>{{x .Req.DatosServicio.Fecha}}</mrw:Fecha>
          <mrw:Referencia>{{x .Req.DatosServicio.Referencia}}</mrw:Referencia>
          <mrw:EnFranquicia>{{x .Req.DatosServicio.EnFranquicia}}</mrw:EnFranquicia>
          <mrw:CodigoServicio>{{x .Req.DatosServicio.CodigoServicio}}</mrw:CodigoServicio>
          <mrw:NumeroSobre>{{.Req.DatosServicio.NumeroSobre}}</mrw:NumeroSobre>
          <mrw:Bultos>{{range .Req.DatosServicio.Bultos}}
            <mrw:BultoRequest>
              <mrw:Alto>{{num .Alto}}</mrw:Alto>
              <mrw:Largo>{{num .Largo}}</mrw:Largo>
              <mrw:Ancho>{{num .Ancho}}</mrw:Ancho>
              <mrw:Dimension>3</mrw:Dimension>
              <mrw:Referencia>{{x .Referencia}}</mrw:Referencia>
              <mrw:Peso>{{num .Peso}}</mrw:Peso>
            </mrw:BultoRequest>{{end}}
          </mrw:Bultos>
          <mrw:NumeroBultos>{{.Req.DatosServicio.NumeroBultos}}</mrw:NumeroBultos>
          <mrw:Peso>{{num .Req.DatosServicio.Peso}}</mrw:Peso>
          <mrw:EntregaSabado>{{x .Req.DatosServicio.EntregaSabado}}</mrw:EntregaSabado>
          <mrw:Entrega830>{{x .Req.DatosServicio.Entrega830}}</mrw:Entrega830>
          <mrw:Gestion>{{x .Req.DatosServicio.Gestion}}</mrw:Gestion>
          <mrw:Retorno>{{x .Req.DatosServicio.Retorno}}</mrw:Retorno>
          <mrw:ConfirmacionInmediata>{{x .Req.DatosServicio.ConfirmacionInmediata}}</mrw:ConfirmacionInmediata>
          <mrw:Reembolso>{{x .Req.DatosServicio.Reembolso}}</mrw:Reembolso>
          <mrw:TipoMercancia>{{x .Req.DatosServicio.TipoMercancia}}</mrw:TipoMercancia>
          <mrw:ValorDeclarado>{{num .Req.DatosServicio.ValorDeclarado}}</mrw:ValorDeclarado>
          <mrw:Notificaciones>{{range .Req.DatosServicio.Notificaciones}}
            <mrw:NotificacionRequest>
              <mrw:CanalNotificacion>{{.CanalNotificacion}}</mrw:CanalNotificacion>
              <mrw:TipoNotificacion>{{.TipoNotificacion}}</mrw:TipoNotificacion>
              <mrw:MailSMS>{{x .MailSMS}}</mrw:MailSMS>
            </mrw:NotificacionRequest>{{end}}
          </mrw:Notificaciones>
        </mrw:DatosServicio>
      </mrw:request>
    </mrw:TransmEnvio>
  </soap:Body>
</soap:Envelope>`

var envelopeTmpl = template.Must(template.New("transmEnvio").Funcs(template.FuncMap{
	"x":   xmlEscape,
	"num": formatNumber,
}).Parse(transmEnvioTemplate))

func buildTransmEnvio(auth AuthInfo, req *TransmEnvioRequest) ([]byte, error) {
	data := struct {
		Auth AuthInfo
		Req  *TransmEnvioRequest
	}{Auth: auth, Req: req}

	var buf bytes.Buffer
	if err := envelopeTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func formatNumber(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// ============================================================================
// SOAP Response Parsing - XML Types
// ============================================================================

type soapEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    soapBody `xml:"Body"`
}

type soapBody struct {
	Fault               *soapFault           `xml:"Fault,omitempty"`
	TransmEnvioResponse *transmEnvioResponse `xml:"TransmEnvioResponse,omitempty"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type transmEnvioResponse struct {
	Result transmEnvioResult `xml:"TransmEnvioResult"`
}

type transmEnvioResult struct {
	Estado          string `xml:"Estado"`
	Mensaje         string `xml:"Mensaje"`
	NumeroSolicitud string `xml:"NumeroSolicitud"`
	NumeroEnvio     string `xml:"NumeroEnvio"`
	URL             string `xml:"Url"`
}

var _ APIClient = (*SOAPAPIClient)(nil)
