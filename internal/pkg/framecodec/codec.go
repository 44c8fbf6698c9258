// Package framecodec encodes globe frames in protobuf wire format for
// websocket clients that ask for binary frames.
//
//	message Vec3      { double x = 1; double y = 2; double z = 3; }
//	message Placement { string id = 1; string label = 2; string color = 3;
//	                    double lat = 4; double lon = 5; Vec3 position = 6;
//	                    bool front_facing = 7; }
//	message Frame     { uint64 sequence = 1; double rotation = 2; Vec3 camera = 3;
//	                    repeated Placement placements = 4; uint32 visible = 5; }
package framecodec

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/samirrijal/globefolio/internal/core/domain"
)

// ErrWireType is returned when a known field arrives with an unexpected wire type.
var ErrWireType = errors.New("framecodec: unexpected wire type")

const (
	frameSequence   protowire.Number = 1
	frameRotation   protowire.Number = 2
	frameCamera     protowire.Number = 3
	framePlacements protowire.Number = 4
	frameVisible    protowire.Number = 5

	placementID          protowire.Number = 1
	placementLabel       protowire.Number = 2
	placementColor       protowire.Number = 3
	placementLat         protowire.Number = 4
	placementLon         protowire.Number = 5
	placementPosition    protowire.Number = 6
	placementFrontFacing protowire.Number = 7

	vecX protowire.Number = 1
	vecY protowire.Number = 2
	vecZ protowire.Number = 3
)

// Marshal encodes a frame.
func Marshal(f *domain.Frame) []byte {
	var b []byte
	b = appendVarint(b, frameSequence, f.Sequence)
	b = appendDouble(b, frameRotation, f.Rotation)
	b = appendMessage(b, frameCamera, appendVec(nil, f.Camera))
	for _, p := range f.Placements {
		b = appendMessage(b, framePlacements, appendPlacement(nil, p))
	}
	b = appendVarint(b, frameVisible, uint64(f.Visible))
	return b
}

// Unmarshal decodes a frame. Unknown fields are skipped.
func Unmarshal(b []byte) (*domain.Frame, error) {
	f := &domain.Frame{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case frameSequence:
			x, n, err := consumeVarint(typ, v)
			f.Sequence = x
			return n, err
		case frameRotation:
			x, n, err := consumeDouble(typ, v)
			f.Rotation = x
			return n, err
		case frameCamera:
			msg, n, err := consumeBytes(typ, v)
			if err != nil {
				return n, err
			}
			f.Camera, err = unmarshalVec(msg)
			return n, err
		case framePlacements:
			msg, n, err := consumeBytes(typ, v)
			if err != nil {
				return n, err
			}
			p, err := unmarshalPlacement(msg)
			if err != nil {
				return n, err
			}
			f.Placements = append(f.Placements, p)
			return n, nil
		case frameVisible:
			x, n, err := consumeVarint(typ, v)
			f.Visible = int(x)
			return n, err
		}
		return -1, nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func appendPlacement(b []byte, p domain.MarkerPlacement) []byte {
	b = appendString(b, placementID, p.Marker.ID)
	b = appendString(b, placementLabel, p.Marker.Label)
	b = appendString(b, placementColor, p.Marker.Color)
	b = appendDouble(b, placementLat, p.Marker.Point.Lat)
	b = appendDouble(b, placementLon, p.Marker.Point.Lon)
	b = appendMessage(b, placementPosition, appendVec(nil, p.Position))
	if p.FrontFacing {
		b = appendVarint(b, placementFrontFacing, 1)
	}
	return b
}

func unmarshalPlacement(b []byte) (domain.MarkerPlacement, error) {
	var p domain.MarkerPlacement
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case placementID, placementLabel, placementColor:
			s, n, err := consumeBytes(typ, v)
			switch num {
			case placementID:
				p.Marker.ID = string(s)
			case placementLabel:
				p.Marker.Label = string(s)
			default:
				p.Marker.Color = string(s)
			}
			return n, err
		case placementLat:
			x, n, err := consumeDouble(typ, v)
			p.Marker.Point.Lat = x
			return n, err
		case placementLon:
			x, n, err := consumeDouble(typ, v)
			p.Marker.Point.Lon = x
			return n, err
		case placementPosition:
			msg, n, err := consumeBytes(typ, v)
			if err != nil {
				return n, err
			}
			p.Position, err = unmarshalVec(msg)
			return n, err
		case placementFrontFacing:
			x, n, err := consumeVarint(typ, v)
			p.FrontFacing = x != 0
			return n, err
		}
		return -1, nil
	})
	return p, err
}

func appendVec(b []byte, v domain.Vec3) []byte {
	b = appendDouble(b, vecX, v.X)
	b = appendDouble(b, vecY, v.Y)
	return appendDouble(b, vecZ, v.Z)
}

func unmarshalVec(b []byte) (domain.Vec3, error) {
	var v domain.Vec3
	err := walk(b, func(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
		var dst *float64
		switch num {
		case vecX:
			dst = &v.X
		case vecY:
			dst = &v.Y
		case vecZ:
			dst = &v.Z
		default:
			return -1, nil
		}
		x, n, err := consumeDouble(typ, data)
		*dst = x
		return n, err
	})
	return v, err
}

// walk iterates the fields of one message. fn returns the bytes it consumed,
// or -1 to have the field skipped.
func walk(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := fn(num, typ, b)
		if err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		if n < 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
		}
		b = b[n:]
	}
	return nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, ErrWireType
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeDouble(typ protowire.Type, b []byte) (float64, int, error) {
	if typ != protowire.Fixed64Type {
		return 0, 0, ErrWireType
	}
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return math.Float64frombits(v), n, nil
}

func consumeBytes(typ protowire.Type, b []byte) ([]byte, int, error) {
	if typ != protowire.BytesType {
		return nil, 0, ErrWireType
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}
