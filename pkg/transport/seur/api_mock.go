package seur

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors bool

	OnCrearRecogida func(ctx context.Context, endpoint string, req *PickupRequest) (*PickupResponse, error)

	mu        sync.Mutex
	endpoints []string
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// CrearRecogida returns a mock pickup confirmation.
func (m *MockAPIClient) CrearRecogida(ctx context.Context, endpoint string, req *PickupRequest) (*PickupResponse, error) {
	m.mu.Lock()
	m.endpoints = append(m.endpoints, endpoint)
	m.mu.Unlock()

	raw, _ := json.Marshal(req.Redacted())

	if m.SimulateErrors {
		return &PickupResponse{RawRequest: raw}, &APIError{Code: "MOCK_ERROR", Description: "Simulated API error"}
	}

	if m.OnCrearRecogida != nil {
		return m.OnCrearRecogida(ctx, endpoint, req)
	}

	loc := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:10])
	return &PickupResponse{
		Localizador: loc,
		NumRecogida: "R" + loc[:6],
		Mensaje:     "OK",
		RawRequest:  raw,
		RawResponse: []byte("<out><localizador>" + loc + "</localizador></out>"),
	}, nil
}

// Endpoints returns the endpoints the mock was called with.
func (m *MockAPIClient) Endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.endpoints...)
}

var _ APIClient = (*MockAPIClient)(nil)
