package core

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// diffEntryJSON is the wire form shared by all DiffEntry kinds. Optional
// fields are pointers so that MarshalJSON can emit exactly the field set the
// kind defines and nothing else.
type diffEntryJSON struct {
	Kind         DiffKind       `json:"kind"`
	Address      common.Address `json:"address"`
	StorageKeys  *[]common.Hash `json:"storage_keys,omitempty"`
	MissingSlots *[]common.Hash `json:"missing_slots,omitempty"`
	StorageKey   *common.Hash   `json:"storage_key,omitempty"`
	GasWaste     uint64         `json:"gas_waste"`
}

// MarshalJSON implements json.Marshaler, emitting the tagged per-kind shape.
func (e DiffEntry) MarshalJSON() ([]byte, error) {
	enc := diffEntryJSON{
		Kind:     e.Kind,
		Address:  e.Address,
		GasWaste: e.GasWaste,
	}
	switch e.Kind {
	case DiffMissing, DiffStale:
		keys := e.StorageKeys
		if keys == nil {
			keys = []common.Hash{}
		}
		enc.StorageKeys = &keys
	case DiffIncomplete:
		slots := e.MissingSlots
		if slots == nil {
			slots = []common.Hash{}
		}
		enc.MissingSlots = &slots
	case DiffRedundant:
		// address and gas_waste only
	case DiffDuplicate:
		key := e.StorageKey
		enc.StorageKey = &key
	default:
		return nil, fmt.Errorf("unknown diff entry kind %q", e.Kind)
	}
	return json.Marshal(&enc)
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *DiffEntry) UnmarshalJSON(input []byte) error {
	var dec diffEntryJSON
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	switch dec.Kind {
	case DiffMissing, DiffStale, DiffIncomplete, DiffRedundant, DiffDuplicate:
	default:
		return fmt.Errorf("unknown diff entry kind %q", dec.Kind)
	}
	*e = DiffEntry{
		Kind:     dec.Kind,
		Address:  dec.Address,
		GasWaste: dec.GasWaste,
	}
	switch dec.Kind {
	case DiffMissing, DiffStale:
		if dec.StorageKeys == nil {
			return fmt.Errorf("%s entry missing storage_keys", dec.Kind)
		}
		e.StorageKeys = *dec.StorageKeys
	case DiffIncomplete:
		if dec.MissingSlots == nil {
			return fmt.Errorf("incomplete entry missing missing_slots")
		}
		e.MissingSlots = *dec.MissingSlots
	case DiffDuplicate:
		if dec.StorageKey == nil {
			return fmt.Errorf("duplicate entry missing storage_key")
		}
		e.StorageKey = *dec.StorageKey
	}
	return nil
}
