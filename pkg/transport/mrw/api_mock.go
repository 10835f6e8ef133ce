package mrw

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnTransmEnvio func(ctx context.Context, endpoint string, auth AuthInfo, req *TransmEnvioRequest) (*TransmEnvioResponse, error)

	mu        sync.Mutex
	endpoints []string
	requests  []*TransmEnvioRequest
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// TransmEnvio returns a mock booking confirmation.
func (m *MockAPIClient) TransmEnvio(ctx context.Context, endpoint string, auth AuthInfo, req *TransmEnvioRequest) (*TransmEnvioResponse, error) {
	m.mu.Lock()
	m.endpoints = append(m.endpoints, endpoint)
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.SimulateLatency > 0 {
		select {
		case <-time.After(m.SimulateLatency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	raw, _ := json.Marshal(req)

	if m.SimulateErrors {
		return &TransmEnvioResponse{RawRequest: raw}, &APIError{Code: "MOCK_ERROR", Description: "Simulated API error"}
	}

	if m.OnTransmEnvio != nil {
		return m.OnTransmEnvio(ctx, endpoint, auth, req)
	}

	numero := fmt.Sprintf("%012d", uuid.New().ID())
	return &TransmEnvioResponse{
		Estado:          "1",
		Mensaje:         "OK",
		NumeroSolicitud: numero,
		NumeroEnvio:     numero,
		RawRequest:      raw,
		RawResponse:     []byte(`<TransmEnvioResult><Estado>1</Estado><NumeroEnvio>` + numero + `</NumeroEnvio></TransmEnvioResult>`),
	}, nil
}

// Endpoints returns the endpoints the mock was called with.
func (m *MockAPIClient) Endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.endpoints...)
}

// Requests returns the payloads the mock received.
func (m *MockAPIClient) Requests() []*TransmEnvioRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*TransmEnvioRequest(nil), m.requests...)
}

var _ APIClient = (*MockAPIClient)(nil)
