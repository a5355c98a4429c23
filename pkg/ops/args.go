package ops

import (
	"cadbridge/pkg/geom"
	"cadbridge/pkg/proto"
)

// Argument extraction helpers. JSON decoding yields float64 for numbers, but
// handlers also accept int values so tests can pass literals directly.

func stringArg(args map[string]any, key string) (string, error) {
	v, exists := args[key]
	if !exists {
		return "", proto.FailErrorf(proto.FailInvalidArgument, "Missing required argument: %s", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", proto.FailErrorf(proto.FailInvalidArgument, "Argument %s must be a non-empty string", key)
	}
	return s, nil
}

func stringArgOrDefault(args map[string]any, key, defaultVal string) string {
	v, exists := args[key]
	if !exists {
		return defaultVal
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return defaultVal
	}
	return s
}

func floatArg(args map[string]any, key string) (float64, error) {
	v, exists := args[key]
	if !exists {
		return 0, proto.FailErrorf(proto.FailInvalidArgument, "Missing required argument: %s", key)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, proto.FailErrorf(proto.FailInvalidArgument, "Argument %s must be a number", key)
	}
	return f, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// vecArg reads an optional {x, y, z} object, substituting def for the whole
// argument when absent and per-component defaults for missing keys.
func vecArg(args map[string]any, key string, def geom.Vec3) (geom.Vec3, error) {
	v, exists := args[key]
	if !exists {
		return def, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return geom.Vec3{}, proto.FailErrorf(proto.FailInvalidArgument, "Argument %s must be an {x, y, z} object", key)
	}
	out := def
	for _, c := range []struct {
		name string
		dst  *float64
	}{{"x", &out.X}, {"y", &out.Y}, {"z", &out.Z}} {
		raw, exists := m[c.name]
		if !exists {
			continue
		}
		f, ok := toFloat(raw)
		if !ok {
			return geom.Vec3{}, proto.FailErrorf(proto.FailInvalidArgument, "Argument %s.%s must be a number", key, c.name)
		}
		*c.dst = f
	}
	return out, nil
}

// stringsArg reads a required ordered list of strings.
func stringsArg(args map[string]any, key string) ([]string, error) {
	v, exists := args[key]
	if !exists {
		return nil, proto.FailErrorf(proto.FailInvalidArgument, "Missing required argument: %s", key)
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, proto.FailErrorf(proto.FailInvalidArgument, "Argument %s must be a list of strings", key)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, proto.FailErrorf(proto.FailInvalidArgument, "Argument %s must be a list of strings", key)
	}
}
