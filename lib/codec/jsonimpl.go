package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/ValentinKolb/dGrid/lib/query"
)

// NewJSONCodec creates a codec that encodes values as tagged JSON envelopes,
// e.g. {"t":"int","v":5}. The tag keeps integer, float and byte values apart
// after a round trip. Non-finite floats are written as strings ("+Inf", "NaN"),
// predicates as the envelope of their tree (see query.ToTree).
func NewJSONCodec() ICodec {
	return &jsonCodecImpl{}
}

// jsonCodecImpl implements ICodec using encoding/json
type jsonCodecImpl struct {
}

// envelope is the JSON form of a single value
type envelope struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v,omitempty"`
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (j jsonCodecImpl) Encode(v any) ([]byte, error) {
	env, err := j.toEnvelope(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func (j jsonCodecImpl) Decode(b []byte) (any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	return j.fromEnvelope(env)
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (j jsonCodecImpl) toEnvelope(v any) (envelope, error) {
	t, norm, err := normalize(v)
	if err != nil {
		return envelope{}, err
	}

	var payload any
	switch t {
	case tagNull:
		return envelope{T: t.String()}, nil
	case tagList:
		payload, err = j.toEnvelopes(norm.([]any))
	case tagKeys:
		payload, err = j.toEnvelopes(norm.(Keys).Items)
	case tagMap:
		m := norm.(map[string]any)
		envs := make(map[string]envelope, len(m))
		for k, item := range m {
			if envs[k], err = j.toEnvelope(item); err != nil {
				break
			}
		}
		payload = envs
	case tagPredicate:
		var tree map[string]any
		if tree, err = predicateTree(norm.(query.Predicate)); err == nil {
			payload, err = j.toEnvelope(tree)
		}
	case tagFloat:
		// JSON has no literal for infinities and NaN
		if f := norm.(float64); math.IsInf(f, 0) || math.IsNaN(f) {
			payload = strconv.FormatFloat(f, 'g', -1, 64)
		} else {
			payload = f
		}
	default:
		payload = norm
	}
	if err != nil {
		return envelope{}, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return envelope{}, fmt.Errorf("codec: %w", err)
	}
	return envelope{T: t.String(), V: raw}, nil
}

func (j jsonCodecImpl) toEnvelopes(items []any) ([]envelope, error) {
	envs := make([]envelope, len(items))
	for i, item := range items {
		env, err := j.toEnvelope(item)
		if err != nil {
			return nil, err
		}
		envs[i] = env
	}
	return envs, nil
}

func (j jsonCodecImpl) fromEnvelope(env envelope) (any, error) {
	t, err := parseTag(env.T)
	if err != nil {
		return nil, err
	}

	switch t {
	case tagNull:
		return nil, nil
	case tagBool:
		return unmarshalAs[bool](env.V)
	case tagInt:
		return unmarshalAs[int64](env.V)
	case tagFloat:
		if len(env.V) > 0 && env.V[0] == '"' {
			text, err := unmarshalAs[string](env.V)
			if err != nil {
				return nil, err
			}
			return strconv.ParseFloat(text, 64)
		}
		return unmarshalAs[float64](env.V)
	case tagString:
		return unmarshalAs[string](env.V)
	case tagBytes:
		b, err := unmarshalAs[[]byte](env.V)
		if err == nil && b == nil {
			return []byte{}, nil
		}
		return b, err
	case tagList, tagKeys:
		var envs []envelope
		if err := unmarshalRaw(env.V, &envs); err != nil {
			return nil, err
		}
		items := make([]any, len(envs))
		for i, e := range envs {
			if items[i], err = j.fromEnvelope(e); err != nil {
				return nil, err
			}
		}
		if t == tagKeys {
			return Keys{Items: items}, nil
		}
		return items, nil
	case tagMap:
		var envs map[string]envelope
		if err := unmarshalRaw(env.V, &envs); err != nil {
			return nil, err
		}
		m := make(map[string]any, len(envs))
		for k, e := range envs {
			if m[k], err = j.fromEnvelope(e); err != nil {
				return nil, err
			}
		}
		return m, nil
	default: // tagPredicate
		var inner envelope
		if err := unmarshalRaw(env.V, &inner); err != nil {
			return nil, err
		}
		tree, err := j.fromEnvelope(inner)
		if err != nil {
			return nil, err
		}
		return decodePredicate(tree)
	}
}

// unmarshalAs decodes the payload of an envelope into a T
func unmarshalAs[T any](raw json.RawMessage) (T, error) {
	var v T
	err := unmarshalRaw(raw, &v)
	return v, err
}

func unmarshalRaw(raw json.RawMessage, target any) error {
	if len(raw) == 0 {
		return fmt.Errorf("codec: missing value")
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("codec: %w", err)
	}
	return nil
}
