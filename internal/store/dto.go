// Package store persists transport requests in PostgreSQL through GORM.
package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/tournevent/transports/pkg/transport"
)

// RequestDTO is the database representation of a transport request.
// Reference and platform are unique together; requests without a carrier
// reference yet do not collide.
type RequestDTO struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Reference       *string    `gorm:"size:15;uniqueIndex:idx_transport_reference_platform"`
	Reverse         string     `gorm:"size:64"`
	Platform        string     `gorm:"size:20;not null;uniqueIndex:idx_transport_reference_platform"`
	Protocol        string     `gorm:"size:10"`
	Real            bool       `gorm:"not null;default:false"`
	Error           bool       `gorm:"not null;default:false"`
	ErrorText       string     `gorm:"type:text"`
	Cancelled       bool       `gorm:"not null;default:false;index"`
	Notes           string     `gorm:"size:30"`
	Origin          AddressDTO `gorm:"embedded;embeddedPrefix:origin_"`
	Destination     AddressDTO `gorm:"embedded;embeddedPrefix:destination_"`
	RequestPayload  string     `gorm:"type:text"`
	ResponsePayload string     `gorm:"type:text"`
	RequestedAt     *time.Time
	RespondedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName overrides GORM's default table name.
func (RequestDTO) TableName() string {
	return "transport_requests"
}

// AddressDTO is an embedded address.
type AddressDTO struct {
	Line    string `gorm:"size:30"`
	Country string `gorm:"size:2"`
}

func fromDomain(r *transport.Request) RequestDTO {
	return RequestDTO{
		ID:              r.ID,
		Reference:       r.Reference,
		Reverse:         r.Reverse,
		Platform:        r.Platform,
		Protocol:        string(r.Protocol),
		Real:            r.Real,
		Error:           r.Error,
		ErrorText:       r.ErrorText,
		Cancelled:       r.Cancelled,
		Notes:           r.Notes,
		Origin:          AddressDTO{Line: r.Origin.Line, Country: r.Origin.Country},
		Destination:     AddressDTO{Line: r.Destination.Line, Country: r.Destination.Country},
		RequestPayload:  r.RequestPayload,
		ResponsePayload: r.ResponsePayload,
		RequestedAt:     r.RequestedAt,
		RespondedAt:     r.RespondedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toDomain(dto RequestDTO) *transport.Request {
	return &transport.Request{
		ID:              dto.ID,
		Reference:       dto.Reference,
		Reverse:         dto.Reverse,
		Platform:        dto.Platform,
		Protocol:        transport.Protocol(dto.Protocol),
		Real:            dto.Real,
		Error:           dto.Error,
		ErrorText:       dto.ErrorText,
		Cancelled:       dto.Cancelled,
		Notes:           dto.Notes,
		Origin:          transport.Address{Line: dto.Origin.Line, Country: dto.Origin.Country},
		Destination:     transport.Address{Line: dto.Destination.Line, Country: dto.Destination.Country},
		RequestPayload:  dto.RequestPayload,
		ResponsePayload: dto.ResponsePayload,
		RequestedAt:     dto.RequestedAt,
		RespondedAt:     dto.RespondedAt,
		CreatedAt:       dto.CreatedAt,
		UpdatedAt:       dto.UpdatedAt,
	}
}
