package main

import (
	"fmt"
	"os"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"github.com/benjaminschreck/go-prepp/pkg/prepp"
)

// Binding state persisted between process invocations, so a pipeline can
// split a multi-file run across separate prepp calls and still share
// accumulated definitions.

func saveState(path string, values prepp.Bindings) error {
	data, err := cbor.Marshal(map[string]interface{}(values))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write state %s: %w", path, err)
	}
	return nil
}

func loadState(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", path, err)
	}

	// Nested mappings must decode as map[string]interface{} and positive
	// integers as int64 to stay usable as preprocessor values.
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
		IntDec:         cbor.IntDecConvertSigned,
	}.DecMode()
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{}
	if err := dm.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", path, err)
	}
	return out, nil
}
