package encoding

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
)

var (
	// ErrEncoding is returned when an operation cannot be serialized. This always indicates a bug in the caller.
	ErrEncoding = errors.New("encoding log operation")

	// ErrDecoding is returned when a checksum-valid payload cannot be decoded into an operation. This indicates a
	// format mismatch rather than a torn write.
	ErrDecoding = errors.New("decoding log operation")
)

// OperationKind describes which mutation an operation applies.
type OperationKind uint8

const (
	OperationKindSet OperationKind = iota + 1 // We do not start at 0 to detect missing values.
	OperationKindDelete
)

// String returns a string representation of the operation kind.
func (k OperationKind) String() string {
	switch k {
	case OperationKindSet:
		return "set"
	case OperationKindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// OperationKinds provides a list of supported operation kinds. Helpful for writing tests which iterate over all
// possibilities.
var OperationKinds = []OperationKind{
	OperationKindSet,
	OperationKindDelete,
}

// Operation is a single mutation recorded in the log. Operations are plain values and are never modified after
// construction.
type Operation struct {
	Kind OperationKind

	// Key is the key the operation applies to.
	Key string

	// Value is the new value for OperationKindSet. It is always nil for OperationKindDelete.
	Value []byte
}

// Set returns an operation which inserts or overwrites the value of key. The operation holds its own copy of value,
// so the caller is free to reuse the slice afterwards.
func Set(key string, value []byte) Operation {
	value = slices.Clone(value)
	if value == nil {
		value = []byte{}
	}
	return Operation{
		Kind:  OperationKindSet,
		Key:   key,
		Value: value,
	}
}

// Delete returns an operation which removes key.
func Delete(key string) Operation {
	return Operation{
		Kind: OperationKindDelete,
		Key:  key,
	}
}

// String returns a human-readable representation of the operation.
func (o Operation) String() string {
	if o.Kind == OperationKindSet {
		return fmt.Sprintf("set %q = %q", o.Key, o.Value)
	}
	return fmt.Sprintf("%s %q", o.Kind, o.Key)
}

// PayloadVersion is the version of the payload format written by EncodeOperation. It is stored inside every payload
// so a future change of the operation shape is rejected explicitly instead of being misread.
const PayloadVersion = 1

// operationPayload is the wire shape of an operation. Integer map keys keep the payload small.
type operationPayload struct {
	Version uint16        `cbor:"0,keyasint"`
	Kind    OperationKind `cbor:"1,keyasint"`
	Key     string        `cbor:"2,keyasint"`
	Value   []byte        `cbor:"3,keyasint,omitempty"`
}

var (
	operationEncMode cbor.EncMode
	operationDecMode cbor.DecMode
)

func init() {
	var err error

	// Core deterministic encoding makes the same operation always produce identical bytes and therefore identical
	// checksums.
	operationEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("encoding: CBOR encoder initialization failed: " + err.Error())
	}

	operationDecMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		IndefLength:       cbor.IndefLengthForbidden,
		UTF8:              cbor.UTF8RejectInvalid,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("encoding: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeOperation serializes the operation into a record payload.
// Returns an error wrapping ErrEncoding when the operation cannot be represented.
func EncodeOperation(operation Operation) ([]byte, error) {
	if err := validateOperation(operation); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	payload, err := operationEncMode.Marshal(operationPayload{
		Version: PayloadVersion,
		Kind:    operation.Kind,
		Key:     operation.Key,
		Value:   operation.Value,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return payload, nil
}

// DecodeOperation deserializes a record payload into an operation.
// Returns an error wrapping ErrDecoding when the payload is not a valid operation.
func DecodeOperation(payload []byte) (Operation, error) {
	var decoded operationPayload
	if err := operationDecMode.Unmarshal(payload, &decoded); err != nil {
		return Operation{}, fmt.Errorf("%w: %w", ErrDecoding, err)
	}
	if decoded.Version != PayloadVersion {
		return Operation{}, fmt.Errorf("%w: unsupported payload version %d", ErrDecoding, decoded.Version)
	}

	switch decoded.Kind {
	case OperationKindSet:
		return Set(decoded.Key, decoded.Value), nil
	case OperationKindDelete:
		if len(decoded.Value) > 0 {
			return Operation{}, fmt.Errorf("%w: delete of %q carries a value", ErrDecoding, decoded.Key)
		}
		return Delete(decoded.Key), nil
	default:
		return Operation{}, fmt.Errorf("%w: unsupported operation kind %d", ErrDecoding, decoded.Kind)
	}
}

func validateOperation(operation Operation) error {
	switch operation.Kind {
	case OperationKindSet:
	case OperationKindDelete:
		if len(operation.Value) > 0 {
			return fmt.Errorf("delete of %q must not carry a value", operation.Key)
		}
	default:
		return fmt.Errorf("unsupported operation kind %d", operation.Kind)
	}
	if !utf8.ValidString(operation.Key) {
		return fmt.Errorf("key %q is not valid UTF-8", operation.Key)
	}
	return nil
}
