// Package mrw provides integration with the MRW SAGEC booking service.
package mrw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tournevent/transports/pkg/transport"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const protocol = transport.ProtocolMRW

// TestEndpoint is the SAGEC sandbox WSDL.
const TestEndpoint = "http://sagec-test.mrw.es/MRWEnvio.asmx?WSDL"

// RealEndpointKey is the platform endpoint key holding the production WSDL.
// MRW has no built-in production endpoint; it must be configured.
const RealEndpointKey = "real"

// Credential keys read from the platform configuration.
const (
	CredFranchise   = "franchise"
	CredClient      = "client"
	CredDepartment  = "department"
	CredUsername    = "username"
	CredPassword    = "password"
	CredService     = "service"
	CredGoodsType   = "goods_type"
	CredNotifyEmail = "notify_email"
	CredContactName = "contact_name"
	CredContact     = "contact"
	CredPhone       = "phone"
)

const defaultServiceCode = "0110"

// MRW only serves these countries.
var servedCountries = map[string]bool{"ES": true, "PT": true, "AD": true, "GI": true}

// Config holds MRW adapter configuration.
type Config struct {
	UseMock bool
	Timeout time.Duration
}

// Adapter is the MRW protocol adapter.
type Adapter struct {
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// New creates a new MRW adapter.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Adapter {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewSOAPAPIClient(SOAPAPIClientConfig{Timeout: cfg.Timeout})
	}
	return NewWithAPIClient(apiClient, logger, tracer)
}

// NewWithAPIClient creates a new MRW adapter with a custom API client.
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

// Endpoint selects the WSDL for the environment. The real environment
// fails unless a production endpoint is configured.
func Endpoint(real bool, cfg transport.PlatformConfig) (string, error) {
	if !real {
		return TestEndpoint, nil
	}
	if ep, ok := cfg.Endpoint(RealEndpointKey); ok {
		return ep, nil
	}
	return "", transport.NewTransportFault(protocol, "", "No endpoint defined for MRW REAL")
}

// Send books the shipment with MRW.
func (a *Adapter) Send(ctx context.Context, snap transport.Snapshot, boxes []transport.Box, cfg transport.PlatformConfig) (ex *transport.Exchange, err error) {
	if a.tracer != nil {
		var span trace.Span
		ctx, span = a.tracer.Start(ctx, "mrw.TransmEnvio", trace.WithAttributes(
			attribute.String("transport.request_id", snap.ID.String()),
			attribute.Bool("transport.real", snap.Real),
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

	endpoint, err := Endpoint(snap.Real, cfg)
	if err != nil {
		log.Error("MRW endpoint unavailable", zap.String("environment", transport.EnvironmentLabel(snap.Real)), zap.Error(err))
		return nil, err
	}
	for _, country := range []string{snap.Origin.Country, snap.Destination.Country} {
		if !servedCountries[country] {
			return nil, fmt.Errorf("%w: MRW does not serve '%s'", transport.ErrUnsupportedCountry, country)
		}
	}

	req := BuildTransmEnvio(snap, boxes, cfg, a.now())

	log.Info("Booking MRW shipment",
		zap.String("request_id", snap.ID.String()),
		zap.String("endpoint", endpoint),
		zap.Int("package_count", req.DatosServicio.NumeroBultos),
		zap.Float64("weight_kg", req.DatosServicio.Peso),
	)

	resp, err := a.apiClient.TransmEnvio(ctx, endpoint, authFromConfig(cfg), req)
	ex = exchangeFrom(resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			log.Error("MRW remote fault", zap.String("code", apiErr.Code), zap.String("description", apiErr.Description))
			return ex, transport.NewRemoteFault(protocol, apiErr.Code, apiErr.Description)
		}
		log.Error("MRW API error", zap.String("endpoint", endpoint), zap.Error(err))
		return ex, transport.NewTransportFault(protocol, endpoint, "TransmEnvio call failed").WithCause(err)
	}
	if resp == nil {
		return nil, transport.NewTransportFault(protocol, endpoint, "empty TransmEnvio response")
	}
	if !resp.Succeeded() {
		log.Error("MRW rejected shipment", zap.String("estado", resp.Estado), zap.String("mensaje", resp.Mensaje))
		return ex, transport.NewRemoteFault(protocol, "ESTADO_"+resp.Estado, resp.Mensaje)
	}

	ex.Reference = resp.NumeroEnvio
	return ex, nil
}

// BuildTransmEnvio builds the booking payload for a request and its boxes.
func BuildTransmEnvio(snap transport.Snapshot, boxes []transport.Box, cfg transport.PlatformConfig, now time.Time) *TransmEnvioRequest {
	service := cfg.Credential(CredService)
	if service == "" {
		service = defaultServiceCode
	}
	reference := snap.Reverse
	if reference == "" {
		reference = snap.ID.String()
	}

	bultos := make([]Bulto, len(boxes))
	var weight, value float64
	for i, b := range boxes {
		bultos[i] = Bulto{
			Alto:       b.Height(),
			Largo:      b.Length(),
			Ancho:      b.Width(),
			Peso:       b.Weight(),
			Referencia: transport.LocatorCode(b.Locator()),
		}
		weight += b.Weight()
		value += b.Value()
	}

	var notifications []Notificacion
	if email := cfg.Credential(CredNotifyEmail); email != "" {
		notifications = append(notifications, Notificacion{
			CanalNotificacion: CanalEmail,
			TipoNotificacion:  TipoConfirmacion,
			MailSMS:           email,
		})
	}

	return &TransmEnvioRequest{
		DatosEntrega: DatosEntrega{
			Direccion: Direccion{
				CodigoTipoVia: "CL",
				Via:           snap.Destination.Line,
				CodigoPais:    snap.Destination.Country,
			},
			Nombre:        cfg.Credential(CredContactName),
			Telefono:      cfg.Credential(CredPhone),
			Contacto:      cfg.Credential(CredContact),
			Observaciones: snap.Notes,
		},
		DatosServicio: DatosServicio{
			Fecha:                 now.Format("02/01/2006"),
			Referencia:            reference,
			EnFranquicia:          "N",
			CodigoServicio:        service,
			Bultos:                bultos,
			NumeroBultos:          len(boxes),
			Peso:                  weight,
			EntregaSabado:         "N",
			Entrega830:            "N",
			Gestion:               "N",
			Retorno:               "S",
			ConfirmacionInmediata: "N",
			Reembolso:             "N",
			TipoMercancia:         cfg.Credential(CredGoodsType),
			ValorDeclarado:        value,
			Notificaciones:        notifications,
		},
	}
}

func authFromConfig(cfg transport.PlatformConfig) AuthInfo {
	return AuthInfo{
		CodigoFranquicia:   cfg.Credential(CredFranchise),
		CodigoAbonado:      cfg.Credential(CredClient),
		CodigoDepartamento: cfg.Credential(CredDepartment),
		UserName:           cfg.Credential(CredUsername),
		Password:           cfg.Credential(CredPassword),
	}
}

func exchangeFrom(resp *TransmEnvioResponse) *transport.Exchange {
	if resp == nil {
		return nil
	}
	return &transport.Exchange{Request: resp.RawRequest, Response: resp.RawResponse}
}

var _ transport.Adapter = (*Adapter)(nil)
