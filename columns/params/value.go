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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"go/token"
	"math"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Serialized is a rendered Go expression together with the imports and
// top-level definitions it needs to compile.
type Serialized struct {
	Code        string
	Imports     []Import
	Definitions []string
}

func (s Serialized) absorb(other Serialized) Serialized {
	s.Imports = append(s.Imports, other.Imports...)
	s.Definitions = append(s.Definitions, other.Definitions...)
	return s
}

// Value is a column parameter value. The set of implementations is closed:
// every variant has a decoder registered under the type its Encode returns.
type Value interface {
	// Serialize renders the value as a Go expression.
	Serialize() Serialized
	// Encode returns the snapshot form of the value.
	Encode() Encoded
}

// Encoded is the storage form of a Value.
type Encoded struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Encoded value types.
const (
	TypeNull      = "null"
	TypeBool      = "bool"
	TypeInt       = "int"
	TypeFloat     = "float"
	TypeString    = "string"
	TypeTime      = "time"
	TypeDuration  = "duration"
	TypeUUID      = "uuid"
	TypeDecimal   = "decimal"
	TypeDefault   = "default"
	TypeFunc      = "func"
	TypeChoices   = "choices"
	TypeReference = "reference"
	TypeList      = "list"
)

func call(symbol, arg string, extra ...Import) Serialized {
	return Serialized{
		Code:    "params." + symbol + "(" + arg + ")",
		Imports: append([]Import{self(symbol)}, extra...),
	}
}

func encodeJSON(typ string, v any) Encoded {
	b, err := json.Marshal(v)
	if err != nil {
		// only plain structs of strings are encoded this way
		panic(fmt.Sprintf("params: encode %s: %v", typ, err))
	}
	return Encoded{Type: typ, Value: string(b)}
}

// Null is an explicit nil parameter.
type Null struct{}

func (Null) Serialize() Serialized {
	return Serialized{Code: "params.Null{}", Imports: []Import{self("Null")}}
}

func (Null) Encode() Encoded { return Encoded{Type: TypeNull} }

type Bool bool

func (b Bool) Serialize() Serialized { return call("Bool", strconv.FormatBool(bool(b))) }

func (b Bool) Encode() Encoded {
	return Encoded{Type: TypeBool, Value: strconv.FormatBool(bool(b))}
}

type Int int64

func (i Int) Serialize() Serialized { return call("Int", strconv.FormatInt(int64(i), 10)) }

func (i Int) Encode() Encoded {
	return Encoded{Type: TypeInt, Value: strconv.FormatInt(int64(i), 10)}
}

type Float float64

func (f Float) Serialize() Serialized {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return call("Float", "math.NaN()", NewImport("math", "NaN"))
	case math.IsInf(v, 1):
		return call("Float", "math.Inf(1)", NewImport("math", "Inf"))
	case math.IsInf(v, -1):
		return call("Float", "math.Inf(-1)", NewImport("math", "Inf"))
	}
	return call("Float", strconv.FormatFloat(v, 'g', -1, 64))
}

func (f Float) Encode() Encoded {
	return Encoded{Type: TypeFloat, Value: strconv.FormatFloat(float64(f), 'g', -1, 64)}
}

type String string

func (s String) Serialize() Serialized { return call("String", strconv.Quote(string(s))) }

func (s String) Encode() Encoded { return Encoded{Type: TypeString, Value: string(s)} }

// Time is a fixed point in time, always rendered in UTC.
type Time time.Time

func (t Time) Serialize() Serialized {
	u := time.Time(t).UTC()
	arg := fmt.Sprintf("time.Date(%d, time.%s, %d, %d, %d, %d, %d, time.UTC)",
		u.Year(), u.Month(), u.Day(), u.Hour(), u.Minute(), u.Second(), u.Nanosecond())
	return call("Time", arg, NewImport("time", "Date"))
}

func (t Time) Encode() Encoded {
	return Encoded{Type: TypeTime, Value: time.Time(t).UTC().Format(time.RFC3339Nano)}
}

type Duration time.Duration

func (d Duration) Serialize() Serialized {
	v := time.Duration(d)
	if v != 0 && v%time.Second == 0 {
		return call("Duration", fmt.Sprintf("%d * time.Second", int64(v/time.Second)), NewImport("time", "Second"))
	}
	return call("Duration", strconv.FormatInt(int64(v), 10))
}

func (d Duration) Encode() Encoded {
	return Encoded{Type: TypeDuration, Value: strconv.FormatInt(int64(d), 10)}
}

type UUID uuid.UUID

func (u UUID) Serialize() Serialized {
	arg := fmt.Sprintf("uuid.MustParse(%q)", uuid.UUID(u).String())
	return call("UUID", arg, NewImport("github.com/google/uuid", "MustParse"))
}

func (u UUID) Encode() Encoded { return Encoded{Type: TypeUUID, Value: uuid.UUID(u).String()} }

type Decimal decimal.Decimal

func (d Decimal) Serialize() Serialized {
	arg := fmt.Sprintf("decimal.RequireFromString(%q)", decimal.Decimal(d).String())
	return call("Decimal", arg, NewImport("github.com/shopspring/decimal", "RequireFromString"))
}

func (d Decimal) Encode() Encoded {
	return Encoded{Type: TypeDecimal, Value: decimal.Decimal(d).String()}
}

// Default is a value computed by the database or the runtime when a row is
// inserted.
type Default string

const (
	DefaultNow     Default = "now"
	DefaultToday   Default = "today"
	DefaultTimeNow Default = "time_now"
	DefaultUUID4   Default = "uuid4"
)

var defaultIdents = map[Default]string{
	DefaultNow:     "DefaultNow",
	DefaultToday:   "DefaultToday",
	DefaultTimeNow: "DefaultTimeNow",
	DefaultUUID4:   "DefaultUUID4",
}

func (d Default) Serialize() Serialized {
	if ident, ok := defaultIdents[d]; ok {
		return Serialized{Code: "params." + ident, Imports: []Import{self(ident)}}
	}
	return call("Default", strconv.Quote(string(d)))
}

func (d Default) Encode() Encoded { return Encoded{Type: TypeDefault, Value: string(d)} }

// Func references a package-level Go function, typically a default value
// factory. The generated code imports the function's package.
type Func struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

// FuncOf builds a Func from a function value. It returns the zero Func when
// fn is not a package-level function. Closures and methods have no name that
// generated code can refer to.
func FuncOf(fn any) Func {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return Func{}
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return Func{}
	}
	full := rf.Name()
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return Func{}
	}
	name := full[slash+2+dot:]
	if !token.IsIdentifier(name) {
		return Func{}
	}
	return Func{Path: full[:slash+1+dot], Name: name}
}

// Import returns the declaration needed to reference the function.
func (f Func) Import() Import {
	return Import{Path: f.Path, Symbol: f.Name, Alias: f.Alias}
}

func (f Func) Serialize() Serialized {
	imp := f.Import()
	return Serialized{
		Code:    "params.FuncOf(" + imp.Qualifier() + f.Name + ")",
		Imports: []Import{self("FuncOf"), imp},
	}
}

func (f Func) Encode() Encoded { return encodeJSON(TypeFunc, f) }

// Choice is one allowed value of an enumerated column.
type Choice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Choices restricts a column to a named set of values. It renders as a
// definition referenced by Ident, so two versions of one set can appear in
// the same file.
type Choices struct {
	Name  string   `json:"name"`
	Items []Choice `json:"items"`
}

// Ident is the name followed by a short digest of the items.
func (c Choices) Ident() string {
	sum := sha256.Sum256([]byte(c.Encode().Value))
	return c.Name + "_" + hex.EncodeToString(sum[:4])
}

func (c Choices) Serialize() Serialized {
	ident := c.Ident()
	var b strings.Builder
	fmt.Fprintf(&b, "var %s = params.Choices{Name: %q, Items: []params.Choice{", ident, c.Name)
	for i, item := range c.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "{Name: %q, Value: %q}", item.Name, item.Value)
	}
	b.WriteString("}}")
	return Serialized{
		Code:        ident,
		Imports:     []Import{self("Choices"), self("Choice")},
		Definitions: []string{b.String()},
	}
}

func (c Choices) Encode() Encoded { return encodeJSON(TypeChoices, c) }

// Reference points a foreign key at the table it references.
type Reference struct {
	ClassName string `json:"class_name"`
	Tablename string `json:"tablename"`
}

// Serialize renders the reference inline. It never adds a definition.
func (r Reference) Serialize() Serialized {
	return Serialized{
		Code:    fmt.Sprintf("params.Reference{ClassName: %q, Tablename: %q}", r.ClassName, r.Tablename),
		Imports: []Import{self("Reference")},
	}
}

func (r Reference) Encode() Encoded { return encodeJSON(TypeReference, r) }

type List []Value

func (l List) Serialize() Serialized {
	out := Serialized{Imports: []Import{self("List")}}
	codes := make([]string, 0, len(l))
	for _, v := range l {
		s := orNull(v).Serialize()
		codes = append(codes, s.Code)
		out = out.absorb(s)
	}
	out.Code = "params.List{" + strings.Join(codes, ", ") + "}"
	return out
}

func (l List) Encode() Encoded {
	items := make([]Encoded, 0, len(l))
	for _, v := range l {
		items = append(items, orNull(v).Encode())
	}
	return encodeJSON(TypeList, items)
}

func orNull(v Value) Value {
	if v == nil {
		return Null{}
	}
	return v
}

// Of converts a plain Go value into a Value.
func Of(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(x), nil
	case int8:
		return Int(x), nil
	case int16:
		return Int(x), nil
	case int32:
		return Int(x), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(x), nil
	case uint16:
		return Int(x), nil
	case uint32:
		return Int(x), nil
	case float32:
		return Float(x), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case time.Time:
		return Time(x), nil
	case time.Duration:
		return Duration(x), nil
	case uuid.UUID:
		return UUID(x), nil
	case decimal.Decimal:
		return Decimal(x), nil
	case []string:
		l := make(List, 0, len(x))
		for _, s := range x {
			l = append(l, String(s))
		}
		return l, nil
	case []any:
		l := make(List, 0, len(x))
		for _, item := range x {
			iv, err := Of(item)
			if err != nil {
				return nil, err
			}
			l = append(l, iv)
		}
		return l, nil
	}
	return nil, fmt.Errorf("unsupported param value of type %T", v)
}

// MustOf is like Of but panics on unsupported values.
func MustOf(v any) Value {
	pv, err := Of(v)
	if err != nil {
		panic(err)
	}
	return pv
}
