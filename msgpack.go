package parametric

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// SaveMsgpack writes the full dump as msgpack, atomically. Msgpack files are
// the binary checkpoint format for parameter snapshots.
func (in *Instance) SaveMsgpack(path string) error {
	data, err := msgpack.Marshal(in.Dump())
	if err != nil {
		return fmt.Errorf("marshaling parameters to msgpack: %w", err)
	}
	return atomicWriteFile(path, data)
}

// OverrideMsgpackFile loads a msgpack snapshot and applies it as one override
// call. Unlike text parameter files, a missing snapshot is an error: snapshots
// are written by SaveMsgpack and loaded deliberately, never as optional
// overlays.
func (in *Instance) OverrideMsgpackFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading parameter snapshot %q: %w", path, err)
	}
	m := make(map[string]any)
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing parameter snapshot %q: %w", path, err)
	}
	return in.OverrideMap(m)
}
