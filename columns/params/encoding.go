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
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DecodeFunc rebuilds a Value from its encoded text.
type DecodeFunc func(text string) (Value, error)

var (
	decodersMu sync.RWMutex
	decoders   = map[string]DecodeFunc{}
)

// RegisterDecoder makes Decode understand values encoded with typ. Packages
// that add variants outside this package register them from init.
func RegisterDecoder(typ string, fn DecodeFunc) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders[typ] = fn
}

// Decode rebuilds a Value from its encoded form.
func Decode(e Encoded) (Value, error) {
	decodersMu.RLock()
	fn, ok := decoders[e.Type]
	decodersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown param type %q", e.Type)
	}
	v, err := fn(e.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s param %q: %w", e.Type, e.Value, err)
	}
	return v, nil
}

func init() {
	RegisterDecoder(TypeNull, func(string) (Value, error) { return Null{}, nil })
	RegisterDecoder(TypeBool, func(text string) (Value, error) {
		b, err := strconv.ParseBool(text)
		return Bool(b), err
	})
	RegisterDecoder(TypeInt, func(text string) (Value, error) {
		i, err := strconv.ParseInt(text, 10, 64)
		return Int(i), err
	})
	RegisterDecoder(TypeFloat, func(text string) (Value, error) {
		f, err := strconv.ParseFloat(text, 64)
		return Float(f), err
	})
	RegisterDecoder(TypeString, func(text string) (Value, error) { return String(text), nil })
	RegisterDecoder(TypeTime, func(text string) (Value, error) {
		t, err := time.Parse(time.RFC3339Nano, text)
		return Time(t), err
	})
	RegisterDecoder(TypeDuration, func(text string) (Value, error) {
		d, err := strconv.ParseInt(text, 10, 64)
		return Duration(d), err
	})
	RegisterDecoder(TypeUUID, func(text string) (Value, error) {
		u, err := uuid.Parse(text)
		return UUID(u), err
	})
	RegisterDecoder(TypeDecimal, func(text string) (Value, error) {
		d, err := decimal.NewFromString(text)
		return Decimal(d), err
	})
	RegisterDecoder(TypeDefault, func(text string) (Value, error) { return Default(text), nil })
	RegisterDecoder(TypeFunc, func(text string) (Value, error) {
		var f Func
		err := json.Unmarshal([]byte(text), &f)
		return f, err
	})
	RegisterDecoder(TypeChoices, func(text string) (Value, error) {
		var c Choices
		err := json.Unmarshal([]byte(text), &c)
		return c, err
	})
	RegisterDecoder(TypeReference, func(text string) (Value, error) {
		var r Reference
		err := json.Unmarshal([]byte(text), &r)
		return r, err
	})
	RegisterDecoder(TypeList, func(text string) (Value, error) {
		var items []Encoded
		if err := json.Unmarshal([]byte(text), &items); err != nil {
			return nil, err
		}
		l := make(List, 0, len(items))
		for _, item := range items {
			v, err := Decode(item)
			if err != nil {
				return nil, err
			}
			l = append(l, v)
		}
		return l, nil
	})
}
