package core

import "encoding/json"

// JSONClone returns a deep, alias-free copy of v by round-tripping it
// through JSON. It doubles as a JSON-round-trippability check: a value
// that cannot be marshaled or unmarshaled this way is rejected with an
// error rather than silently aliased into the engine's scratch state.
func JSONClone(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
