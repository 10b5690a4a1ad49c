package toolchain

import (
	"strings"
	"unicode/utf8"

	derrors "git.home.luguber.info/inful/protogen/internal/errors"
)

// ParseKeyValue splits raw at its first ':' into a path and a value.
func ParseKeyValue(raw string) (KeyValue, error) {
	if !utf8.ValidString(raw) {
		return KeyValue{}, derrors.ValidationError("key and value must be valid UTF-8").
			WithContext("value", raw).Build()
	}
	key, value, ok := strings.Cut(raw, ":")
	if !ok {
		return KeyValue{}, derrors.ValidationError("key:value pair must contain at least one ':'").
			WithContext("value", raw).Build()
	}
	return KeyValue{Key: key, Value: value}, nil
}

// ParseKeyValues parses every entry of raw; flag names the option in errors.
func ParseKeyValues(flag string, raw []string) ([]KeyValue, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]KeyValue, 0, len(raw))
	for _, r := range raw {
		kv, err := ParseKeyValue(r)
		if err != nil {
			if ce, ok := derrors.AsClassified(err); ok {
				return nil, ce.WithContext("flag", flag)
			}
			return nil, err
		}
		out = append(out, kv)
	}
	return out, nil
}
