package filter

import (
	"bytes"
	"fmt"

	"github.com/flowgraph/portgraph/pkg/validation"
	"github.com/vmihailenco/msgpack/v5"
)

// decodeConfig materializes a loosely typed config map into dst, which must
// be a pointer to a struct carrying msgpack tags and already holding the
// defaults. Unknown keys are rejected.
func decodeConfig(cfg map[string]any, dst any) error {
	if len(cfg) > 0 {
		raw, err := msgpack.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		dec := msgpack.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields(true)
		if err := dec.Decode(dst); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if err := validation.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// toFloat widens any Go numeric kind, or a bool, to float64.
func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrNonNumeric, v)
	}
}
