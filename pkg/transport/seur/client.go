// Package seur provides integration with the SEUR pickup web services.
package seur

import (
	"context"
	"errors"
	"time"

	"github.com/tournevent/transports/pkg/transport"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const protocol = transport.ProtocolSEUR

// Credential keys read from the platform configuration.
const (
	CredUsername  = "username"
	CredPassword  = "password"
	CredAccount   = "ccc"
	CredNIF       = "nif"
	CredFranchise = "franchise"
)

// Config holds SEUR adapter configuration.
type Config struct {
	UseMock bool
	Timeout time.Duration
}

// Adapter is the SEUR protocol adapter.
type Adapter struct {
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// New creates a new SEUR adapter.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Adapter {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewSOAPAPIClient(SOAPAPIClientConfig{Timeout: cfg.Timeout})
	}
	return NewWithAPIClient(apiClient, logger, tracer)
}

// NewWithAPIClient creates a new SEUR adapter with a custom API client.
func NewWithAPIClient(apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Adapter {
	return &Adapter{
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
		now:       time.Now,
	}
}

// Protocol returns the protocol handled by this adapter.
func (a *Adapter) Protocol() transport.Protocol {
	return protocol
}

// Endpoints returns the service endpoints used for the environment.
func (a *Adapter) Endpoints(real bool) Endpoints {
	return ResolveEndpoints(real)
}

// Send requests a SEUR pickup for the boxes.
func (a *Adapter) Send(ctx context.Context, snap transport.Snapshot, boxes []transport.Box, cfg transport.PlatformConfig) (ex *transport.Exchange, err error) {
	eps := a.Endpoints(snap.Real)

	if a.tracer != nil {
		var span trace.Span
		ctx, span = a.tracer.Start(ctx, "seur.crearRecogida", trace.WithAttributes(
			attribute.String("transport.request_id", snap.ID.String()),
			attribute.String("seur.endpoint", eps.Pickup),
		))
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}()
	}
	log := a.logger.Ctx(ctx)

	req := BuildPickupRequest(snap, boxes, cfg, a.now())

	log.Info("Requesting SEUR pickup",
		zap.String("request_id", snap.ID.String()),
		zap.String("endpoint", eps.Pickup),
		zap.Int("package_count", req.Bultos),
		zap.Float64("weight_kg", req.Kilos),
	)

	resp, err := a.apiClient.CrearRecogida(ctx, eps.Pickup, req)
	if resp != nil {
		ex = &transport.Exchange{Request: resp.RawRequest, Response: resp.RawResponse}
	}
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			log.Error("SEUR remote fault", zap.String("code", apiErr.Code), zap.String("description", apiErr.Description))
			return ex, transport.NewRemoteFault(protocol, apiErr.Code, apiErr.Description)
		}
		log.Error("SEUR API error", zap.String("endpoint", eps.Pickup), zap.Error(err))
		return ex, transport.NewTransportFault(protocol, eps.Pickup, "crearRecogida call failed").WithCause(err)
	}
	if resp == nil {
		return nil, transport.NewTransportFault(protocol, eps.Pickup, "empty crearRecogida response")
	}
	if !resp.Succeeded() {
		code := resp.Error
		if code == "" {
			code = "NO_LOCATOR"
		}
		log.Error("SEUR rejected pickup", zap.String("code", code), zap.String("mensaje", resp.Mensaje))
		return ex, transport.NewRemoteFault(protocol, code, resp.Mensaje)
	}

	ex.Reference = resp.Localizador
	return ex, nil
}

// BuildPickupRequest builds the pickup payload for a request and its boxes.
func BuildPickupRequest(snap transport.Snapshot, boxes []transport.Box, cfg transport.PlatformConfig, now time.Time) *PickupRequest {
	reference := snap.Reverse
	if reference == "" {
		reference = snap.ID.String()
	}

	req := &PickupRequest{
		Usuario:          cfg.Credential(CredUsername),
		Password:         cfg.Credential(CredPassword),
		CCC:              cfg.Credential(CredAccount),
		NIF:              cfg.Credential(CredNIF),
		Franquicia:       cfg.Credential(CredFranchise),
		Referencia:       reference,
		Fecha:            now.Format("02/01/2006"),
		Bultos:           len(boxes),
		Observaciones:    snap.Notes,
		OrigenDireccion:  snap.Origin.Line,
		OrigenPais:       snap.Origin.Country,
		DestinoDireccion: snap.Destination.Line,
		DestinoPais:      snap.Destination.Country,
		Localizadores:    make([]string, 0, len(boxes)),
	}
	for _, b := range boxes {
		req.Kilos += b.Weight()
		req.Volumen += b.Length() * b.Width() * b.Height() / 1e6
		req.ValorDeclarado += b.Value()
		req.Localizadores = append(req.Localizadores, transport.LocatorCode(b.Locator()))
	}
	return req
}

var _ transport.Adapter = (*Adapter)(nil)
