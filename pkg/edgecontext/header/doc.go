// Package header implements the binary envelope that carries edge context
// between services.
//
// The envelope is a Thrift struct encoded with TBinaryProtocol. Every
// sub-record is always present on the wire, possibly as an empty struct, so
// that downstream readers never have to distinguish a missing record from an
// empty one. Scalar fields are written only when they hold a non-zero value.
//
//	Request {
//	    1: Loid          loid
//	    2: Session       session
//	    3: string        authentication_token
//	    4: Device        device
//	    5: OriginService origin_service
//	    6: Geolocation   geolocation
//	    7: RequestId     request_id
//	}
package header
