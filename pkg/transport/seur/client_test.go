package seur_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/transports/pkg/transport"
	"github.com/tournevent/transports/pkg/transport/seur"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newTestAdapter(api seur.APIClient) *seur.Adapter {
	return seur.NewWithAPIClient(api, otelzap.New(zap.NewNop()), nil)
}

func testSnapshot(real bool) transport.Snapshot {
	return transport.Snapshot{
		ID:          uuid.New(),
		Platform:    "seur",
		Protocol:    transport.ProtocolSEUR,
		Real:        real,
		Origin:      transport.Address{Line: "Av. Andalucia 5", Country: "ES"},
		Destination: transport.Address{Line: "Gran Via 22", Country: "ES"},
	}
}

func testBoxes() []transport.Box {
	return []transport.Box{
		transport.BoxSpec{LocatorCode: 1, LengthCM: 100, WidthCM: 50, HeightCM: 20, WeightKG: 7, DeclaredValue: 100},
		transport.BoxSpec{LocatorCode: 2, LengthCM: 50, WidthCM: 50, HeightCM: 40, WeightKG: 3},
	}
}

func testConfig() transport.PlatformConfig {
	return transport.PlatformConfig{
		Protocol: "seur",
		Credentials: map[string]string{
			seur.CredUsername: "user",
			seur.CredPassword: "secret",
			seur.CredAccount:  "12345-67",
			seur.CredNIF:      "B12345678",
		},
	}
}

func TestResolveEndpoints_Real(t *testing.T) {
	eps := seur.ResolveEndpoints(true)

	assert.Equal(t, "https://ws.seur.com/webseur/services/WSCrearRecogida?wsdl", eps.Pickup)
	assert.Equal(t, seur.PublicEndpoint, eps.Public)
	assert.Equal(t, seur.PrintEndpoint, eps.Print)
	assert.Equal(t, seur.DetailsEndpoint, eps.Details)
	assert.Equal(t, seur.ExpeditionEndpoint, eps.Expedition)
}

func TestResolveEndpoints_Test(t *testing.T) {
	eps := seur.ResolveEndpoints(false)

	assert.Equal(t, "https://wspre.seur.com/webseur/services/WSCrearRecogida?wsdl", eps.Pickup)
	assert.Equal(t, seur.ResolveEndpoints(true).Public, eps.Public)
	assert.Equal(t, seur.ResolveEndpoints(true).Expedition, eps.Expedition)
}

func TestAdapter_Send_UsesEnvironmentPickupEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		real     bool
		expected string
	}{
		{"real", true, seur.PickupEndpoint},
		{"test", false, seur.PickupTestEndpoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAPI := seur.NewMockAPIClient()
			adapter := newTestAdapter(mockAPI)

			ex, err := adapter.Send(context.Background(), testSnapshot(tt.real), testBoxes(), testConfig())

			require.NoError(t, err)
			assert.NotEmpty(t, ex.Reference)
			assert.NotEmpty(t, ex.Request)
			assert.NotEmpty(t, ex.Response)
			assert.Equal(t, []string{tt.expected}, mockAPI.Endpoints())
		})
	}
}

func TestAdapter_Send_RemoteFault(t *testing.T) {
	mockAPI := seur.NewMockAPIClient()
	mockAPI.SimulateErrors = true
	adapter := newTestAdapter(mockAPI)

	ex, err := adapter.Send(context.Background(), testSnapshot(false), testBoxes(), testConfig())

	require.Error(t, err)
	var fault *transport.RemoteFault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, transport.ProtocolSEUR, fault.Protocol)
	require.NotNil(t, ex)
	assert.NotEmpty(t, ex.Request)
}

func TestAdapter_Send_BusinessError(t *testing.T) {
	mockAPI := seur.NewMockAPIClient()
	mockAPI.OnCrearRecogida = func(ctx context.Context, endpoint string, req *seur.PickupRequest) (*seur.PickupResponse, error) {
		return &seur.PickupResponse{Error: "E102", Mensaje: "CCC no valido"}, nil
	}
	adapter := newTestAdapter(mockAPI)

	_, err := adapter.Send(context.Background(), testSnapshot(false), testBoxes(), testConfig())

	var fault *transport.RemoteFault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "E102", fault.Code)
	assert.Equal(t, "CCC no valido", fault.Message)
}

func TestAdapter_Send_NetworkError(t *testing.T) {
	mockAPI := seur.NewMockAPIClient()
	mockAPI.OnCrearRecogida = func(ctx context.Context, endpoint string, req *seur.PickupRequest) (*seur.PickupResponse, error) {
		return nil, errors.New("dial tcp: i/o timeout")
	}
	adapter := newTestAdapter(mockAPI)

	_, err := adapter.Send(context.Background(), testSnapshot(false), testBoxes(), testConfig())

	var fault *transport.TransportFault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, seur.PickupTestEndpoint, fault.Endpoint)
}

func TestBuildPickupRequest(t *testing.T) {
	snap := testSnapshot(false)
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	req := seur.BuildPickupRequest(snap, testBoxes(), testConfig(), now)

	assert.Equal(t, "user", req.Usuario)
	assert.Equal(t, "12345-67", req.CCC)
	assert.Equal(t, "17/10/2026", req.Fecha)
	assert.Equal(t, 2, req.Bultos)
	assert.InDelta(t, 10.0, req.Kilos, 0.0001)
	assert.InDelta(t, 0.2, req.Volumen, 0.0001)
	assert.InDelta(t, 100.0, req.ValorDeclarado, 0.0001)
	assert.Equal(t, []string{"00000001", "00000002"}, req.Localizadores)
	assert.Equal(t, snap.ID.String(), req.Referencia)
}

const crearRecogidaOK = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <ns1:crearRecogidaResponse xmlns:ns1="http://crearRecogida.servicios.webseur">
      <ns1:out>
        <localizador>LOC1234567</localizador>
        <numRecogida>R0099</numRecogida>
      </ns1:out>
    </ns1:crearRecogidaResponse>
  </soap:Body>
</soap:Envelope>`

func TestSOAPAPIClient_CrearRecogida(t *testing.T) {
	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(crearRecogidaOK))
	}))
	defer srv.Close()

	client := seur.NewSOAPAPIClient(seur.SOAPAPIClientConfig{Timeout: 5 * time.Second})
	req := seur.BuildPickupRequest(testSnapshot(false), testBoxes(), testConfig(), time.Now())

	resp, err := client.CrearRecogida(context.Background(), srv.URL+"/webseur/services/WSCrearRecogida?wsdl", req)

	require.NoError(t, err)
	assert.True(t, resp.Succeeded())
	assert.Equal(t, "LOC1234567", resp.Localizador)
	assert.Equal(t, "R0099", resp.NumRecogida)
	assert.Equal(t, "/webseur/services/WSCrearRecogida", gotPath)
	assert.Contains(t, string(gotBody), "<rec:ccc>12345-67</rec:ccc>")
	assert.Contains(t, string(gotBody), "<rec:localizador>00000002</rec:localizador>")
	assert.Contains(t, string(gotBody), "<rec:password>secret</rec:password>")
	assert.NotContains(t, string(resp.RawRequest), "secret")
	assert.Contains(t, string(resp.RawRequest), "<rec:password>"+seur.RedactedPassword+"</rec:password>")
}

func TestSOAPAPIClient_CrearRecogida_Fault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body><soap:Fault><faultcode>soap:Server</faultcode><faultstring>Usuario incorrecto</faultstring></soap:Fault></soap:Body></soap:Envelope>`))
	}))
	defer srv.Close()

	client := seur.NewSOAPAPIClient(seur.SOAPAPIClientConfig{})
	resp, err := client.CrearRecogida(context.Background(), srv.URL, &seur.PickupRequest{})

	var apiErr *seur.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "soap:Server", apiErr.Code)
	assert.Equal(t, "Usuario incorrecto", apiErr.Description)
	assert.NotEmpty(t, resp.RawResponse)
}

func TestSOAPAPIClient_CrearRecogida_HTTPError(t *testing.T) {
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

			client := seur.NewSOAPAPIClient(seur.SOAPAPIClientConfig{})

			resp, err := client.CrearRecogida(context.Background(), srv.URL, &seur.PickupRequest{})

			require.Error(t, err)
			var apiErr *seur.APIError
			assert.False(t, errors.As(err, &apiErr))
			assert.Contains(t, err.Error(), "unexpected HTTP status")
			require.NotNil(t, resp)
			assert.Equal(t, tt.body, string(resp.RawResponse))
		})
	}
}

func TestAdapter_Send_GatewayErrorIsTransportFault(t *testing.T) {
	mockAPI := seur.NewMockAPIClient()
	mockAPI.OnCrearRecogida = func(ctx context.Context, endpoint string, req *seur.PickupRequest) (*seur.PickupResponse, error) {
		return &seur.PickupResponse{RawResponse: []byte("<html>bad gateway</html>")}, errors.New("unexpected HTTP status 502")
	}
	adapter := newTestAdapter(mockAPI)

	ex, err := adapter.Send(context.Background(), testSnapshot(false), testBoxes(), testConfig())

	assert.True(t, errors.Is(err, transport.ErrTransportFault))
	assert.False(t, errors.Is(err, transport.ErrRemoteFault))
	require.NotNil(t, ex)
	assert.Equal(t, "<html>bad gateway</html>", string(ex.Response))
}

func TestMockAPIClient_RedactsPassword(t *testing.T) {
	mockAPI := seur.NewMockAPIClient()
	adapter := newTestAdapter(mockAPI)

	ex, err := adapter.Send(context.Background(), testSnapshot(false), testBoxes(), testConfig())

	require.NoError(t, err)
	assert.NotContains(t, string(ex.Request), "secret")
}
