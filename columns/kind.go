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

package columns

import (
	"fmt"

	"github.com/tomoncle/automigrate/columns/params"
	"github.com/tomoncle/automigrate/types"
)

// Path is the import path of this package as referenced by generated code.
const Path = "github.com/tomoncle/automigrate/columns"

// Kind identifies the type class of a column. The zero value means "no kind"
// and is used by alter operations whose kind did not change.
type Kind int

const (
	Invalid Kind = iota
	Varchar
	Secret
	Text
	Integer
	SmallInt
	BigInt
	Serial
	BigSerial
	Real
	DoublePrecision
	Numeric
	Boolean
	Date
	Time
	Timestamp
	Timestamptz
	Interval
	UUID
	JSON
	JSONB
	Bytea
	Array
	ForeignKey
)

var _ types.BaseEnum = Kind(0)

// Well-known parameter names.
const (
	ParamNull         = "null"
	ParamPrimaryKey   = "primary_key"
	ParamUnique       = "unique"
	ParamIndex        = "index"
	ParamDefault      = "default"
	ParamLength       = "length"
	ParamDigits       = "digits"
	ParamBaseColumn   = "base_column"
	ParamReferences   = "references"
	ParamChoices      = "choices"
	ParamDBColumnName = "db_column_name"
)

type paramRule struct {
	key      string
	typ      string
	required bool
}

type kindSpec struct {
	name  string
	desc  string
	rules []paramRule
}

var commonRules = []paramRule{
	{key: ParamNull, typ: params.TypeBool},
	{key: ParamPrimaryKey, typ: params.TypeBool},
	{key: ParamUnique, typ: params.TypeBool},
	{key: ParamIndex, typ: params.TypeBool},
	{key: ParamChoices, typ: params.TypeChoices},
}

var kindSpecs = map[Kind]kindSpec{
	Varchar:         {name: "Varchar", desc: "variable length string", rules: []paramRule{{key: ParamLength, typ: params.TypeInt}}},
	Secret:          {name: "Secret", desc: "string excluded from default selects", rules: []paramRule{{key: ParamLength, typ: params.TypeInt}}},
	Text:            {name: "Text", desc: "unbounded string"},
	Integer:         {name: "Integer", desc: "32 bit integer"},
	SmallInt:        {name: "SmallInt", desc: "16 bit integer"},
	BigInt:          {name: "BigInt", desc: "64 bit integer"},
	Serial:          {name: "Serial", desc: "auto incrementing 32 bit integer"},
	BigSerial:       {name: "BigSerial", desc: "auto incrementing 64 bit integer"},
	Real:            {name: "Real", desc: "single precision float"},
	DoublePrecision: {name: "DoublePrecision", desc: "double precision float"},
	Numeric:         {name: "Numeric", desc: "exact decimal", rules: []paramRule{{key: ParamDigits, typ: params.TypeList}}},
	Boolean:         {name: "Boolean", desc: "true or false"},
	Date:            {name: "Date", desc: "calendar date"},
	Time:            {name: "Time", desc: "time of day"},
	Timestamp:       {name: "Timestamp", desc: "date and time without time zone"},
	Timestamptz:     {name: "Timestamptz", desc: "date and time with time zone"},
	Interval:        {name: "Interval", desc: "time span"},
	UUID:            {name: "UUID", desc: "universally unique identifier"},
	JSON:            {name: "JSON", desc: "json document stored as text"},
	JSONB:           {name: "JSONB", desc: "binary json document"},
	Bytea:           {name: "Bytea", desc: "binary data"},
	Array:           {name: "Array", desc: "array of a base column", rules: []paramRule{{key: ParamBaseColumn, typ: TypeColumn, required: true}}},
	ForeignKey:      {name: "ForeignKey", desc: "reference to another table", rules: []paramRule{{key: ParamReferences, typ: params.TypeReference, required: true}}},
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindSpecs))
	for k := Varchar; k <= ForeignKey; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind returns the kind with the given name, ignoring case.
func ParseKind(name string) (Kind, error) {
	k, ok := types.LookupEnum(name, Kinds())
	if !ok {
		return Invalid, fmt.Errorf("unknown column kind %q", name)
	}
	return k, nil
}

func (k Kind) IsValid() bool {
	_, ok := kindSpecs[k]
	return ok
}

func (k Kind) Number() int {
	if !k.IsValid() {
		return types.IllegalValue
	}
	return int(k)
}

func (k Kind) Name() string {
	if spec, ok := kindSpecs[k]; ok {
		return spec.name
	}
	return types.IllegalName
}

func (k Kind) String() string { return k.Name() }

func (k Kind) Desc() string {
	if spec, ok := kindSpecs[k]; ok {
		return spec.desc
	}
	return types.IllegalDesc
}

// Import returns the declaration generated code needs to reference k.
func (k Kind) Import() params.Import {
	return params.NewImport(Path, k.Name())
}

// Serialize renders k as a Go expression. The zero kind renders as an empty
// expression so callers can omit the field.
func (k Kind) Serialize() params.Serialized {
	if !k.IsValid() {
		return params.Serialized{}
	}
	return params.Serialized{
		Code:    "columns." + k.Name(),
		Imports: []params.Import{k.Import()},
	}
}

// Validate checks the well-known parameters of a column of kind k.
// Parameters this package does not know are accepted as they are.
func (k Kind) Validate(m params.Map) error {
	spec, ok := kindSpecs[k]
	if !ok {
		return fmt.Errorf("invalid column kind %d", int(k))
	}
	rules := append(append([]paramRule{}, commonRules...), spec.rules...)
	for _, rule := range rules {
		v, present := m[rule.key]
		if !present {
			if rule.required {
				return fmt.Errorf("%s column requires the %q param", spec.name, rule.key)
			}
			continue
		}
		if v == nil {
			return fmt.Errorf("%s column param %q is nil", spec.name, rule.key)
		}
		typ := v.Encode().Type
		if typ == params.TypeNull && !rule.required {
			continue
		}
		if typ != rule.typ {
			return fmt.Errorf("%s column param %q must be %s, got %s", spec.name, rule.key, rule.typ, typ)
		}
	}
	if k == Numeric {
		return validateDigits(m[ParamDigits])
	}
	return nil
}

func validateDigits(v params.Value) error {
	if _, isNull := v.(params.Null); v == nil || isNull {
		return nil
	}
	digits, ok := v.(params.List)
	if !ok || len(digits) != 2 {
		return fmt.Errorf("numeric column param %q must be a list of precision and scale", ParamDigits)
	}
	for _, d := range digits {
		if _, ok := d.(params.Int); !ok {
			return fmt.Errorf("numeric column param %q must contain integers", ParamDigits)
		}
	}
	return nil
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.IsValid() {
		return []byte{}, nil
	}
	return []byte(k.Name()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*k = Invalid
		return nil
	}
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
