package domain

import (
	"fmt"
	"strconv"
)

// MessageIdentifier is the structural identity of an AIS message.
// DAC and FID are nil exactly when the message lacks a usable value for them.
type MessageIdentifier struct {
	Type uint64
	DAC  *uint64
	FID  *uint64
}

// IdentifierKey is the comparable form of a MessageIdentifier, used as a map
// key. Absent components are distinguished from any present value.
type IdentifierKey struct {
	Type   uint64
	DAC    uint64
	HasDAC bool
	FID    uint64
	HasFID bool
}

// NewIdentifier builds an identifier; pass nil for absent components.
func NewIdentifier(typ uint64, dac, fid *uint64) MessageIdentifier {
	id := MessageIdentifier{Type: typ}
	if dac != nil {
		v := *dac
		id.DAC = &v
	}
	if fid != nil {
		v := *fid
		id.FID = &v
	}
	return id
}

// Key returns the comparable form of id.
func (id MessageIdentifier) Key() IdentifierKey {
	k := IdentifierKey{Type: id.Type}
	if id.DAC != nil {
		k.DAC, k.HasDAC = *id.DAC, true
	}
	if id.FID != nil {
		k.FID, k.HasFID = *id.FID, true
	}
	return k
}

// Equal reports structural equality, including presence of DAC and FID.
func (id MessageIdentifier) Equal(other MessageIdentifier) bool {
	return id.Key() == other.Key()
}

func (id MessageIdentifier) String() string {
	return fmt.Sprintf("type=%d dac=%s fid=%s", id.Type, optString(id.DAC), optString(id.FID))
}

func optString(v *uint64) string {
	if v == nil {
		return "none"
	}
	return strconv.FormatUint(*v, 10)
}

// ResolveIdentifier derives the (type, dac, fid) triple of a raw message.
// Only type is mandatory; dac and fid are nil when missing or non-numeric.
func ResolveIdentifier(m RawMessage) (MessageIdentifier, error) {
	v, ok := lookup(m, "type")
	if !ok {
		return MessageIdentifier{}, ErrMissingType
	}
	typ, err := coerceUint("type", v)
	if err != nil {
		return MessageIdentifier{}, fmt.Errorf("%w: %w", ErrMissingType, err)
	}
	return MessageIdentifier{
		Type: typ,
		DAC:  optionalUint(m, "dac"),
		FID:  optionalUint(m, "fid"),
	}, nil
}
