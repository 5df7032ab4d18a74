// Package normalize turns the fraud service's loosely shaped JSON into the
// console's view models. The service answers either flat ({...}) or wrapped
// ({"data": {...}}), sometimes with numbers encoded as strings; each endpoint
// has exactly one function here that resolves that ambiguity.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"fraud-console/internal/errors"
)

type object map[string]json.RawMessage

// envelope holds the top-level object and, when present, the object nested
// under "data".
type envelope struct {
	top  object
	data object
}

func parse(raw json.RawMessage) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env.top); err != nil || env.top == nil {
		return env, errors.UpstreamBadResponse(err, "fraud service response is not a JSON object")
	}
	if nested, ok := env.top["data"]; ok {
		var data object
		if err := json.Unmarshal(nested, &data); err == nil {
			env.data = data
		}
	}
	return env, nil
}

// Unwrap returns the payload object, preferring the one under "data".
func Unwrap(raw json.RawMessage) (json.RawMessage, error) {
	env, err := parse(raw)
	if err != nil {
		return nil, err
	}
	if env.data != nil {
		return env.top["data"], nil
	}
	return raw, nil
}

// dataFirst and topFirst give the lookup order used by an endpoint.
func (e envelope) dataFirst() []object {
	if e.data == nil {
		return []object{e.top}
	}
	return []object{e.data, e.top}
}

func (e envelope) topFirst() []object {
	if e.data == nil {
		return []object{e.top}
	}
	return []object{e.top, e.data}
}

// rejected reports an explicit success=false in the top-level object.
func (e envelope) rejected() (string, bool) {
	var success bool
	if !lookup([]object{e.top}, &success, "success") || success {
		return "", false
	}
	var msg string
	if !lookup(e.topFirst(), &msg, "error", "message") {
		msg = ""
	}
	return msg, true
}

// lookup decodes the first present, non-null, decodable key into dst.
func lookup(layers []object, dst any, keys ...string) bool {
	for _, layer := range layers {
		for _, key := range keys {
			raw, ok := layer[key]
			if !ok || isNull(raw) {
				continue
			}
			if err := json.Unmarshal(raw, dst); err == nil {
				return true
			}
		}
	}
	return false
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// number accepts 0.42 as well as "0.42". "NaN" and "Inf" fail to decode, so
// lookup treats them as absent.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("number %q is not finite", s)
	}
	*n = number(f)
	return nil
}

func lookupFloat(layers []object, keys ...string) (float64, bool) {
	var n number
	if !lookup(layers, &n, keys...) {
		return 0, false
	}
	return float64(n), true
}

// maxCount is the largest integer a float64 holds exactly.
const maxCount = 1 << 53

// lookupCount reads a non-negative integer, clamped to [0, maxCount].
func lookupCount(layers []object, keys ...string) (int64, bool) {
	v, ok := lookupFloat(layers, keys...)
	if !ok {
		return 0, false
	}
	return int64(math.Min(math.Max(v, 0), maxCount)), true
}

// lookupObject finds a nested object and returns it as a single layer.
func lookupObject(layers []object, keys ...string) ([]object, bool) {
	var nested object
	if !lookup(layers, &nested, keys...) || nested == nil {
		return nil, false
	}
	return []object{nested}, true
}

func lookupString(layers []object, keys ...string) string {
	var s string
	if lookup(layers, &s, keys...) {
		return s
	}
	var n number
	if lookup(layers, &n, keys...) {
		return strconv.FormatFloat(float64(n), 'f', -1, 64)
	}
	return ""
}
