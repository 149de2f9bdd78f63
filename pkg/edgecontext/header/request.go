package header

import (
	"context"
	"fmt"

	"github.com/apache/thrift/lib/go/thrift"
)

const (
	fieldLoid                int16 = 1
	fieldSession             int16 = 2
	fieldAuthenticationToken int16 = 3
	fieldDevice              int16 = 4
	fieldOriginService       int16 = 5
	fieldGeolocation         int16 = 6
	fieldRequestID           int16 = 7
)

// Loid identifies a logged-out browser.
type Loid struct {
	ID        string
	CreatedMs int64
}

// Session holds the session identifier.
type Session struct {
	ID string
}

// Device holds the device identifier.
type Device struct {
	ID string
}

// OriginService names the first internal service that saw the request.
type OriginService struct {
	Name string
}

// Geolocation holds the ISO 3166-1 alpha-2 country code of the client.
type Geolocation struct {
	CountryCode string
}

// RequestID holds the human-readable request identifier.
type RequestID struct {
	ReadableID string
}

// Request is the decoded envelope. The zero value is the empty envelope.
type Request struct {
	Loid                Loid
	Session             Session
	AuthenticationToken string
	Device              Device
	OriginService       OriginService
	Geolocation         Geolocation
	RequestID           RequestID
}

// IsEmpty reports whether no field carries a value.
func (r Request) IsEmpty() bool {
	return r == Request{}
}

func (r *Request) Write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "Request"); err != nil {
		return thrift.PrependError("Request write struct begin: ", err)
	}

	if err := writeStruct(ctx, p, "loid", fieldLoid, func() error {
		if err := writeString(ctx, p, "id", 1, r.Loid.ID); err != nil {
			return err
		}
		return writeI64(ctx, p, "created_ms", 2, r.Loid.CreatedMs)
	}); err != nil {
		return err
	}

	if err := writeStruct(ctx, p, "session", fieldSession, func() error {
		return writeString(ctx, p, "id", 1, r.Session.ID)
	}); err != nil {
		return err
	}

	if err := writeString(ctx, p, "authentication_token", fieldAuthenticationToken, r.AuthenticationToken); err != nil {
		return err
	}

	if err := writeStruct(ctx, p, "device", fieldDevice, func() error {
		return writeString(ctx, p, "id", 1, r.Device.ID)
	}); err != nil {
		return err
	}

	if err := writeStruct(ctx, p, "origin_service", fieldOriginService, func() error {
		return writeString(ctx, p, "name", 1, r.OriginService.Name)
	}); err != nil {
		return err
	}

	if err := writeStruct(ctx, p, "geolocation", fieldGeolocation, func() error {
		return writeString(ctx, p, "country_code", 1, r.Geolocation.CountryCode)
	}); err != nil {
		return err
	}

	if err := writeStruct(ctx, p, "request_id", fieldRequestID, func() error {
		return writeString(ctx, p, "readable_id", 1, r.RequestID.ReadableID)
	}); err != nil {
		return err
	}

	if err := p.WriteFieldStop(ctx); err != nil {
		return thrift.PrependError("Request write field stop: ", err)
	}
	if err := p.WriteStructEnd(ctx); err != nil {
		return thrift.PrependError("Request write struct end: ", err)
	}
	return nil
}

func (r *Request) Read(ctx context.Context, p thrift.TProtocol) error {
	return readStruct(ctx, p, "Request", func(id int16, typ thrift.TType) error {
		switch {
		case id == fieldLoid && typ == thrift.STRUCT:
			return readStruct(ctx, p, "Loid", func(id int16, typ thrift.TType) error {
				switch {
				case id == 1 && typ == thrift.STRING:
					return readString(ctx, p, &r.Loid.ID)
				case id == 2 && typ == thrift.I64:
					v, err := p.ReadI64(ctx)
					if err != nil {
						return thrift.PrependError("Loid read created_ms: ", err)
					}
					r.Loid.CreatedMs = v
					return nil
				}
				return p.Skip(ctx, typ)
			})
		case id == fieldSession && typ == thrift.STRUCT:
			return readStringStruct(ctx, p, "Session", &r.Session.ID)
		case id == fieldAuthenticationToken && typ == thrift.STRING:
			return readString(ctx, p, &r.AuthenticationToken)
		case id == fieldDevice && typ == thrift.STRUCT:
			return readStringStruct(ctx, p, "Device", &r.Device.ID)
		case id == fieldOriginService && typ == thrift.STRUCT:
			return readStringStruct(ctx, p, "OriginService", &r.OriginService.Name)
		case id == fieldGeolocation && typ == thrift.STRUCT:
			return readStringStruct(ctx, p, "Geolocation", &r.Geolocation.CountryCode)
		case id == fieldRequestID && typ == thrift.STRUCT:
			return readStringStruct(ctx, p, "RequestId", &r.RequestID.ReadableID)
		}
		return p.Skip(ctx, typ)
	})
}

func (r *Request) String() string {
	if r == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Request(%+v)", *r)
}

func writeStruct(ctx context.Context, p thrift.TProtocol, name string, id int16, body func() error) error {
	if err := p.WriteFieldBegin(ctx, name, thrift.STRUCT, id); err != nil {
		return thrift.PrependError(fmt.Sprintf("write field begin error %d:%s: ", id, name), err)
	}
	if err := p.WriteStructBegin(ctx, name); err != nil {
		return thrift.PrependError(fmt.Sprintf("%s write struct begin: ", name), err)
	}
	if err := body(); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("%s write field stop: ", name), err)
	}
	if err := p.WriteStructEnd(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("%s write struct end: ", name), err)
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("write field end error %d:%s: ", id, name), err)
	}
	return nil
}

func writeString(ctx context.Context, p thrift.TProtocol, name string, id int16, value string) error {
	if value == "" {
		return nil
	}
	if err := p.WriteFieldBegin(ctx, name, thrift.STRING, id); err != nil {
		return thrift.PrependError(fmt.Sprintf("write field begin error %d:%s: ", id, name), err)
	}
	if err := p.WriteString(ctx, value); err != nil {
		return thrift.PrependError(fmt.Sprintf("%s (%d) field write error: ", name, id), err)
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("write field end error %d:%s: ", id, name), err)
	}
	return nil
}

func writeI64(ctx context.Context, p thrift.TProtocol, name string, id int16, value int64) error {
	if value == 0 {
		return nil
	}
	if err := p.WriteFieldBegin(ctx, name, thrift.I64, id); err != nil {
		return thrift.PrependError(fmt.Sprintf("write field begin error %d:%s: ", id, name), err)
	}
	if err := p.WriteI64(ctx, value); err != nil {
		return thrift.PrependError(fmt.Sprintf("%s (%d) field write error: ", name, id), err)
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("write field end error %d:%s: ", id, name), err)
	}
	return nil
}

// readStruct reads fields until STOP, handing each one to field. field must
// either consume the value or skip it.
func readStruct(ctx context.Context, p thrift.TProtocol, name string, field func(id int16, typ thrift.TType) error) error {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("%s read error: ", name), err)
	}
	for {
		_, typ, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return thrift.PrependError(fmt.Sprintf("%s field %d read error: ", name, id), err)
		}
		if typ == thrift.STOP {
			break
		}
		if err := field(id, typ); err != nil {
			return err
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	if err := p.ReadStructEnd(ctx); err != nil {
		return thrift.PrependError(fmt.Sprintf("%s read struct end error: ", name), err)
	}
	return nil
}

// readStringStruct reads a struct whose only known field is string field 1.
func readStringStruct(ctx context.Context, p thrift.TProtocol, name string, dst *string) error {
	return readStruct(ctx, p, name, func(id int16, typ thrift.TType) error {
		if id == 1 && typ == thrift.STRING {
			return readString(ctx, p, dst)
		}
		return p.Skip(ctx, typ)
	})
}

func readString(ctx context.Context, p thrift.TProtocol, dst *string) error {
	v, err := p.ReadString(ctx)
	if err != nil {
		return thrift.PrependError("error reading string field: ", err)
	}
	*dst = v
	return nil
}
