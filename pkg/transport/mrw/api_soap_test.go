package mrw_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/transports/pkg/transport/mrw"
)

const transmEnvioOK = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <TransmEnvioResponse xmlns="http://www.mrw.es/">
      <TransmEnvioResult>
        <Estado>1</Estado>
        <Mensaje>Envio grabado</Mensaje>
        <NumeroSolicitud>987</NumeroSolicitud>
        <NumeroEnvio>02700A12345</NumeroEnvio>
        <Url>http://sagec-test.mrw.es/etiqueta</Url>
      </TransmEnvioResult>
    </TransmEnvioResponse>
  </soap:Body>
</soap:Envelope>`

const transmEnvioFault = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <soap:Fault>
      <faultcode>soap:Client</faultcode>
      <faultstring>Usuario no autorizado</faultstring>
    </soap:Fault>
  </soap:Body>
</soap:Envelope>`

func sampleRequest() *mrw.TransmEnvioRequest {
	return &mrw.TransmEnvioRequest{
		DatosEntrega: mrw.DatosEntrega{
			Direccion:     mrw.Direccion{CodigoTipoVia: "CL", Via: "Marques & Co", CodigoPais: "ES"},
			Observaciones: "ring <twice>",
		},
		DatosServicio: mrw.DatosServicio{
			Fecha:        "07/03/2026",
			Referencia:   "ref-1",
			Bultos:       []mrw.Bulto{{Alto: 1, Largo: 2, Ancho: 3, Peso: 4, Referencia: "0000000A"}},
			NumeroBultos: 1,
			Peso:         4,
		},
	}
}

func TestSOAPAPIClient_TransmEnvio_Success(t *testing.T) {
	var gotPath, gotAction string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAction = r.Header.Get("SOAPAction")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(transmEnvioOK))
	}))
	defer srv.Close()

	client := mrw.NewSOAPAPIClient(mrw.SOAPAPIClientConfig{Timeout: 5 * time.Second})
	auth := mrw.AuthInfo{CodigoFranquicia: "02700", UserName: "user", Password: "secret"}

	resp, err := client.TransmEnvio(context.Background(), srv.URL+"/MRWEnvio.asmx?WSDL", auth, sampleRequest())

	require.NoError(t, err)
	assert.True(t, resp.Succeeded())
	assert.Equal(t, "02700A12345", resp.NumeroEnvio)
	assert.Equal(t, "987", resp.NumeroSolicitud)
	assert.Equal(t, "/MRWEnvio.asmx", gotPath)
	assert.Equal(t, "http://www.mrw.es/TransmEnvio", gotAction)
	assert.Equal(t, transmEnvioOK, string(resp.RawResponse))
	assert.Contains(t, string(gotBody), "<mrw:Password>secret</mrw:Password>")
	assert.NotContains(t, string(resp.RawRequest), "secret")
	assert.Contains(t, string(resp.RawRequest), "<mrw:Password>"+mrw.RedactedPassword+"</mrw:Password>")

	body := string(gotBody)
	assert.Contains(t, body, "<mrw:CodigoFranquicia>02700</mrw:CodigoFranquicia>")
	assert.Contains(t, body, "<mrw:Via>Marques &amp; Co</mrw:Via>")
	assert.Contains(t, body, "<mrw:Observaciones>ring &lt;twice&gt;</mrw:Observaciones>")
	assert.Contains(t, body, "<mrw:Referencia>0000000A</mrw:Referencia>")
	assert.Contains(t, body, "<mrw:Peso>4.00</mrw:Peso>")
}

func TestSOAPAPIClient_TransmEnvio_Fault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(transmEnvioFault))
	}))
	defer srv.Close()

	client := mrw.NewSOAPAPIClient(mrw.SOAPAPIClientConfig{})

	resp, err := client.TransmEnvio(context.Background(), srv.URL, mrw.AuthInfo{}, sampleRequest())

	require.Error(t, err)
	var apiErr *mrw.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "soap:Client", apiErr.Code)
	assert.Equal(t, "Usuario no autorizado", apiErr.Description)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.RawRequest)
	assert.Equal(t, transmEnvioFault, string(resp.RawResponse))
}

func TestSOAPAPIClient_TransmEnvio_HTTPError(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"html gateway page", http.StatusBadGateway, "<html>bad gateway</html>"},
		{"plain text", http.StatusServiceUnavailable, "service unavailable"},
		{"envelope without fault", http.StatusInternalServerError, `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body/></soap:Envelope>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := mrw.NewSOAPAPIClient(mrw.SOAPAPIClientConfig{})

			resp, err := client.TransmEnvio(context.Background(), srv.URL, mrw.AuthInfo{}, sampleRequest())

			require.Error(t, err)
			var apiErr *mrw.APIError
			assert.False(t, errors.As(err, &apiErr))
			assert.Contains(t, err.Error(), "unexpected HTTP status")
			require.NotNil(t, resp)
			assert.Equal(t, tt.body, string(resp.RawResponse))
		})
	}
}

func TestSOAPAPIClient_TransmEnvio_MissingResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body/></soap:Envelope>`))
	}))
	defer srv.Close()

	client := mrw.NewSOAPAPIClient(mrw.SOAPAPIClientConfig{})

	_, err := client.TransmEnvio(context.Background(), srv.URL, mrw.AuthInfo{}, sampleRequest())

	require.Error(t, err)
	var apiErr *mrw.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestSOAPAPIClient_TransmEnvio_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := mrw.NewSOAPAPIClient(mrw.SOAPAPIClientConfig{Timeout: time.Second})

	resp, err := client.TransmEnvio(context.Background(), url, mrw.AuthInfo{}, sampleRequest())

	require.Error(t, err)
	var apiErr *mrw.APIError
	assert.False(t, errors.As(err, &apiErr))
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.RawRequest)
	assert.Empty(t, resp.RawResponse)
}
