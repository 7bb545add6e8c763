package state

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/backbone81/durable-kv/internal/fs"
)

// ErrSnapshotInvalid is returned when a snapshot can not be decoded.
var ErrSnapshotInvalid = errors.New("invalid snapshot")

// SnapshotVersion is the version of the snapshot format written by EncodeSnapshot.
const SnapshotVersion = 1

type snapshotPayload struct {
	Version uint16            `cbor:"0,keyasint"`
	Entries map[string][]byte `cbor:"1,keyasint"`
}

var (
	snapshotEncMode cbor.EncMode
	snapshotDecMode cbor.DecMode

	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	// Sorted map keys make snapshots of equal states byte-identical.
	snapshotEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("state: CBOR encoder initialization failed: " + err.Error())
	}

	snapshotDecMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		IndefLength:       cbor.IndefLengthForbidden,
		UTF8:              cbor.UTF8RejectInvalid,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("state: CBOR decoder initialization failed: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("state: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("state: zstd decoder initialization failed: " + err.Error())
	}
}

// EncodeSnapshot serializes the state into a zstd compressed CBOR document.
func EncodeSnapshot(state State) ([]byte, error) {
	encoded, err := snapshotEncMode.Marshal(snapshotPayload{
		Version: SnapshotVersion,
		Entries: state,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return zstdEncoder.EncodeAll(encoded, nil), nil
}

// DecodeSnapshot deserializes a snapshot written by EncodeSnapshot.
func DecodeSnapshot(data []byte) (State, error) {
	encoded, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing: %w", ErrSnapshotInvalid, err)
	}

	var payload snapshotPayload
	if err := snapshotDecMode.Unmarshal(encoded, &payload); err != nil {
		return nil, fmt.Errorf("%w: decoding: %w", ErrSnapshotInvalid, err)
	}
	if payload.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrSnapshotInvalid, payload.Version)
	}

	state := make(State, len(payload.Entries))
	for key, value := range payload.Entries {
		if value == nil {
			value = []byte{}
		}
		state[key] = value
	}
	return state, nil
}

// LoadSnapshot reads and decodes the snapshot at path.
func LoadSnapshot(path string) (State, error) {
	return loadSnapshot(fs.Default, path)
}

func loadSnapshot(fileSystem fs.FileSystem, path string) (State, error) {
	data, err := readSnapshot(fileSystem, path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %q: %w", path, err)
	}
	state, err := DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %w", path, err)
	}
	return state, nil
}

func readSnapshot(fileSystem fs.FileSystem, path string) (data []byte, err error) {
	file, err := fileSystem.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("closing file: %w", closeErr))
		}
	}()
	return io.ReadAll(file)
}
