/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package params

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Map holds the parameters of a column, e.g. length, null, default.
type Map map[string]Value

// Equal compares two values by their encoded form. A nil value equals Null.
func Equal(a, b Value) bool {
	return orNull(a).Encode() == orNull(b).Encode()
}

// Keys returns the parameter names in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of m. Values are immutable so this is enough
// to let the copy be modified independently.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Get returns the value stored under key, or nil.
func (m Map) Get(key string) Value {
	if m == nil {
		return nil
	}
	return m[key]
}

func (m Map) Equal(other Map) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		ov, ok := other[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

// Diff returns the entries of m that differ from old, and the entries of old
// under the same keys. A key missing on one side is left out of that side.
func (m Map) Diff(old Map) (changed Map, previous Map) {
	changed, previous = Map{}, Map{}
	keys := make(map[string]struct{}, len(m)+len(old))
	for k := range m {
		keys[k] = struct{}{}
	}
	for k := range old {
		keys[k] = struct{}{}
	}
	for k := range keys {
		nv, nok := m[k]
		ov, ook := old[k]
		if nok && ook && Equal(nv, ov) {
			continue
		}
		if nok {
			changed[k] = nv
		}
		if ook {
			previous[k] = ov
		}
	}
	return changed, previous
}

// Serialize renders m as a params.Map literal with sorted keys.
func (m Map) Serialize() Serialized {
	out := Serialized{Imports: []Import{self("Map")}}
	entries := make([]string, 0, len(m))
	for _, k := range m.Keys() {
		s := orNull(m[k]).Serialize()
		entries = append(entries, strconv.Quote(k)+": "+s.Code)
		out = out.absorb(s)
	}
	out.Code = "params.Map{" + strings.Join(entries, ", ") + "}"
	return out
}

// Encode returns the storage form of every entry.
func (m Map) Encode() map[string]Encoded {
	out := make(map[string]Encoded, len(m))
	for k, v := range m {
		out[k] = orNull(v).Encode()
	}
	return out
}

// DecodeMap rebuilds a Map from its storage form.
func DecodeMap(encoded map[string]Encoded) (Map, error) {
	out := make(Map, len(encoded))
	for k, e := range encoded {
		v, err := Decode(e)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// Signature is a deterministic text form of m used for hashing.
func (m Map) Signature() string {
	parts := make([]string, 0, len(m))
	for _, k := range m.Keys() {
		e := orNull(m[k]).Encode()
		parts = append(parts, strconv.Quote(k)+"="+e.Type+":"+strconv.Quote(e.Value))
	}
	return strings.Join(parts, ",")
}
