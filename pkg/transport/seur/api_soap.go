package seur

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

// CrearRecogida posts a pickup request to the pickup service.
// RawRequest holds the envelope with the password redacted.
func (c *SOAPAPIClient) CrearRecogida(ctx context.Context, endpoint string, req *PickupRequest) (*PickupResponse, error) {
	body, err := buildCrearRecogida(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	audit, err := buildCrearRecogida(req.Redacted())
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	result := &PickupResponse{RawRequest: audit}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, serviceURL(endpoint), bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", "")

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
	if env.Body.CrearRecogidaResponse == nil {
		return result, fmt.Errorf("response has no crearRecogida result")
	}

	out := env.Body.CrearRecogidaResponse.Out
	result.Localizador = strings.TrimSpace(out.Localizador)
	result.NumRecogida = strings.TrimSpace(out.NumRecogida)
	result.Error = strings.TrimSpace(out.Error)
	result.Mensaje = strings.TrimSpace(out.Mensaje)
	return result, nil
}

func serviceURL(endpoint string) string {
	if i := strings.Index(strings.ToLower(endpoint), "?wsdl"); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}

// ============================================================================
// SOAP Request Builder
// ============================================================================

const crearRecogidaTemplate = `<?xml version="1.0" encoding="utf-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:rec="http://crearRecogida.servicios.webseur">
  <soapenv:Header/>
  <soapenv:Body>
    <rec:crearRecogida>
      <rec:usuario>{{x .Usuario}}</rec:usuario>
      <rec:password>{{x .Password}}</rec:password>
      <rec:ccc>{{x .CCC}}</rec:ccc>
      <rec:nif>{{x .NIF}}</rec:nif>
      <rec:franquicia>{{x .Franquicia}}</rec:franquicia>
      <rec:referencia>{{x .Referencia}}</rec:referencia>
      <rec:fecha>{{x .Fecha}}</rec:fecha>
      <rec:bultos>{{.Bultos}}</rec:bultos>
      <rec:kilos>{{num .Kilos}}</rec:kilos>
      <rec:volumen>{{vol .Volumen}}</rec:volumen>
      <rec:valorDeclarado>{{num .ValorDeclarado}}</rec:valorDeclarado>
      <rec:observaciones>{{x .Observaciones}}</rec:observaciones>
      <rec:origenDireccion>{{x .OrigenDireccion}}</rec:origenDireccion>
      <rec:origenPais>{{x .OrigenPais}}</rec:origenPais>
      <rec:destinoDireccion>{{x .DestinoDireccion}}</rec:destinoDireccion>
      <rec:destinoPais>{{x .DestinoPais}}</rec:destinoPais>
      <rec:localizadores>{{range .Localizadores}}
        <rec:localizador>{{x .}}</rec:localizador>{{end}}
      </rec:localizadores>
    </rec:crearRecogida>
  </soapenv:Body>
</soapenv:Envelope>`

var envelopeTmpl = template.Must(template.New("crearRecogida").Funcs(template.FuncMap{
	"x":   xmlEscape,
	"num": func(f float64) string { return fmt.Sprintf("%.2f", f) },
	"vol": func(f float64) string { return fmt.Sprintf("%.4f", f) },
}).Parse(crearRecogidaTemplate))

func buildCrearRecogida(req *PickupRequest) ([]byte, error) {
	var buf bytes.Buffer
	if err := envelopeTmpl.Execute(&buf, req); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// ============================================================================
// SOAP Response Parsing - XML Types
// ============================================================================

type soapEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    soapBody `xml:"Body"`
}

type soapBody struct {
	Fault                 *soapFault             `xml:"Fault,omitempty"`
	CrearRecogidaResponse *crearRecogidaResponse `xml:"crearRecogidaResponse,omitempty"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

type crearRecogidaResponse struct {
	Out crearRecogidaOut `xml:"out"`
}

type crearRecogidaOut struct {
	Localizador string `xml:"localizador"`
	NumRecogida string `xml:"numRecogida"`
	Error       string `xml:"error"`
	Mensaje     string `xml:"mensaje"`
}

var _ APIClient = (*SOAPAPIClient)(nil)
