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
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialize(t *testing.T) {
	tests := []struct {
		value Value
		code  string
	}{
		{Null{}, "params.Null{}"},
		{Bool(true), "params.Bool(true)"},
		{Int(-3), "params.Int(-3)"},
		{Float(0.5), "params.Float(0.5)"},
		{Float(math.Inf(-1)), "params.Float(math.Inf(-1))"},
		{String(`say "hi"`), `params.String("say \"hi\"")`},
		{Time(time.Date(2024, 5, 6, 7, 8, 9, 10, time.UTC)), "params.Time(time.Date(2024, time.May, 6, 7, 8, 9, 10, time.UTC))"},
		{Duration(90 * time.Second), "params.Duration(90 * time.Second)"},
		{Duration(1500 * time.Millisecond), "params.Duration(1500000000)"},
		{UUID(uuid.MustParse("1b4e28ba-2fa1-11d2-883f-0016d3cca427")), `params.UUID(uuid.MustParse("1b4e28ba-2fa1-11d2-883f-0016d3cca427"))`},
		{Decimal(decimal.RequireFromString("9.99")), `params.Decimal(decimal.RequireFromString("9.99"))`},
		{DefaultNow, "params.DefaultNow"},
		{Default("nextval('seq')"), `params.Default("nextval('seq')")`},
		{List{Int(1), nil}, "params.List{params.Int(1), params.Null{}}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.value.Serialize().Code)
	}
}

func TestSerializeImports(t *testing.T) {
	s := Float(math.NaN()).Serialize()
	assert.Equal(t, "params.Float(math.NaN())", s.Code)
	assert.Equal(t, []Import{{Path: Path, Symbol: "Float"}, {Path: "math", Symbol: "NaN"}}, s.Imports)

	s = Map{"null": Bool(false), "length": Int(10)}.Serialize()
	assert.Equal(t, `params.Map{"length": params.Int(10), "null": params.Bool(false)}`, s.Code)
	assert.Equal(t, []Import{{Path: Path, Symbol: "Map"}, {Path: Path, Symbol: "Int"}, {Path: Path, Symbol: "Bool"}}, s.Imports)
}

func TestDefinitions(t *testing.T) {
	s := Choices{Name: "Genre", Items: []Choice{{Name: "Rock", Value: "rock"}, {Name: "Jazz", Value: "jazz"}}}.Serialize()
	assert.Equal(t, "Genre_34f0a86a", s.Code)
	assert.Equal(t, []string{`var Genre_34f0a86a = params.Choices{Name: "Genre", Items: []params.Choice{{Name: "Rock", Value: "rock"}, {Name: "Jazz", Value: "jazz"}}}`}, s.Definitions)

	s = Map{"references": Reference{ClassName: "Manager", Tablename: "manager"}}.Serialize()
	assert.Equal(t, `params.Map{"references": params.Reference{ClassName: "Manager", Tablename: "manager"}}`, s.Code)
	assert.Empty(t, s.Definitions)
}

func TestChoicesIdentFollowsItems(t *testing.T) {
	rock := Choices{Name: "Genre", Items: []Choice{{Name: "Rock", Value: "rock"}}}
	jazz := Choices{Name: "Genre", Items: []Choice{{Name: "Jazz", Value: "jazz"}}}
	assert.Equal(t, "Genre_32b72742", rock.Ident())
	assert.Equal(t, "Genre_eabc0e7c", jazz.Ident())
	assert.Equal(t, rock.Ident(), Choices{Name: "Genre", Items: []Choice{{Name: "Rock", Value: "rock"}}}.Ident())
}

func TestReferenceTablenameChange(t *testing.T) {
	before := Reference{ClassName: "Band", Tablename: "band"}.Serialize()
	after := Reference{ClassName: "Band", Tablename: "bands"}.Serialize()
	assert.NotEqual(t, before.Code, after.Code)
	assert.Empty(t, before.Definitions)
	assert.Empty(t, after.Definitions)
	assert.Equal(t, []Import{{Path: Path, Symbol: "Reference"}}, after.Imports)
}

func TestFunc(t *testing.T) {
	f := FuncOf(strings.ToUpper)
	assert.Equal(t, Func{Path: "strings", Name: "ToUpper"}, f)
	assert.Equal(t, "params.FuncOf(strings.ToUpper)", f.Serialize().Code)

	f = Func{Path: "github.com/acme/defaults", Name: "Token", Alias: "."}
	s := f.Serialize()
	assert.Equal(t, "params.FuncOf(Token)", s.Code)
	assert.Contains(t, s.Imports, Import{Path: "github.com/acme/defaults", Symbol: "Token", Alias: "."})

	assert.Equal(t, Func{}, FuncOf(42))
	var nilFunc func()
	assert.Equal(t, Func{}, FuncOf(nilFunc))
}

type clock struct{}

func (*clock) Now() string { return "now" }

func TestFuncRejectsUnnamed(t *testing.T) {
	closure := func() string { return "x" }
	assert.Equal(t, Func{}, FuncOf(closure))
	assert.Equal(t, Func{}, FuncOf((*clock).Now))
	assert.Equal(t, Func{}, FuncOf((&clock{}).Now))
}

func TestDecode(t *testing.T) {
	values := []Value{
		Null{}, Bool(false), Int(42), Float(2.5), String("x"),
		Time(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)), Duration(time.Minute),
		UUID(uuid.MustParse("1b4e28ba-2fa1-11d2-883f-0016d3cca427")), Decimal(decimal.RequireFromString("1.50")),
		DefaultUUID4, Func{Path: "strings", Name: "ToUpper"},
		Choices{Name: "Genre", Items: []Choice{{Name: "Rock", Value: "rock"}}},
		Reference{ClassName: "Manager", Tablename: "manager"},
		List{Int(1), List{String("a")}},
	}
	for _, v := range values {
		got, err := Decode(v.Encode())
		require.NoError(t, err, "%T", v)
		assert.True(t, Equal(v, got), "%T", v)
	}

	_, err := Decode(Encoded{Type: "hologram"})
	assert.ErrorContains(t, err, `unknown param type "hologram"`)

	_, err = Decode(Encoded{Type: TypeInt, Value: "forty"})
	assert.ErrorContains(t, err, `failed to decode int param "forty"`)

	_, err = DecodeMap(map[string]Encoded{"length": {Type: TypeInt, Value: "x"}})
	assert.ErrorContains(t, err, "param length")
}

func TestOf(t *testing.T) {
	v, err := Of(int32(7))
	require.NoError(t, err)
	assert.Equal(t, Int(7), v)

	v, err = Of([]any{1, "a", nil})
	require.NoError(t, err)
	assert.Equal(t, List{Int(1), String("a"), Null{}}, v)

	v, err = Of([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, List{String("a"), String("b")}, v)

	v, err = Of(DefaultNow)
	require.NoError(t, err)
	assert.Equal(t, DefaultNow, v)

	_, err = Of(struct{}{})
	assert.ErrorContains(t, err, "unsupported param value")
	assert.Panics(t, func() { MustOf(map[string]int{}) })
}

func TestEqualTreatsNilAsNull(t *testing.T) {
	assert.True(t, Equal(nil, Null{}))
	assert.True(t, Equal(Null{}, nil))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, Int(0)))
	assert.Equal(t, Map{"default": nil}.Signature(), Map{"default": Null{}}.Signature())
}

func TestMapDiff(t *testing.T) {
	current := Map{"length": Int(200), "null": Bool(false), "unique": Bool(true)}
	old := Map{"length": Int(100), "null": Bool(false), "default": String("")}

	changed, previous := current.Diff(old)
	assert.Equal(t, Map{"length": Int(200), "unique": Bool(true)}, changed)
	assert.Equal(t, Map{"length": Int(100), "default": String("")}, previous)

	assert.True(t, current.Equal(current.Clone()))
	assert.True(t, Map{"default": nil}.Equal(Map{"default": Null{}}))
	assert.False(t, current.Equal(old))
	assert.Nil(t, Map(nil).Get("length"))
	assert.Equal(t, `"length"=int:"200","null"=bool:"false","unique"=bool:"true"`, current.Signature())
}

func TestPackageName(t *testing.T) {
	for path, want := range map[string]string{
		"github.com/google/uuid":           "uuid",
		"gopkg.in/yaml.v3":                 "yaml",
		"github.com/AlecAivazis/survey/v2": "survey",
		"github.com/hashicorp/go-version":  "version",
		"github.com/mattn/go-sqlite3":      "sqlite3",
		"github.com/acme/client-go":        "client",
		"time":                             "time",
	} {
		assert.Equal(t, want, PackageName(path), path)
	}
}

func TestImport(t *testing.T) {
	uuidImport := Import{Path: "github.com/google/uuid", Alias: "uuid"}
	assert.Equal(t, `import "github.com/google/uuid"`, uuidImport.String())
	assert.Equal(t, "uuid.", uuidImport.Qualifier())
	assert.True(t, uuidImport.Same(NewImport("github.com/google/uuid", "New")))

	aliased := Import{Path: "github.com/google/uuid", Alias: "u"}
	assert.Equal(t, `import u "github.com/google/uuid"`, aliased.String())
	assert.Equal(t, "u", aliased.Name())

	dot := Import{Path: "github.com/acme/defaults", Alias: ".", Symbol: "Now"}
	assert.Equal(t, "Now", dot.Name())
	assert.Equal(t, "", dot.Qualifier())

	blank := Import{Path: "github.com/lib/pq", Alias: "_"}
	assert.Equal(t, "", blank.Name())
	assert.Equal(t, `import _ "github.com/lib/pq"`, blank.String())
}

func TestUniqueImports(t *testing.T) {
	got := UniqueImports([]Import{
		NewImport("time", "Date"),
		NewImport("time", "Second"),
		{Path: "github.com/acme/defaults", Alias: ".", Symbol: "Now"},
		{Path: "github.com/acme/defaults", Alias: ".", Symbol: "Today"},
		{Path: "github.com/acme/defaults", Alias: ".", Symbol: "Now"},
	})
	assert.Equal(t, []Import{
		NewImport("time", "Date"),
		{Path: "github.com/acme/defaults", Alias: ".", Symbol: "Now"},
		{Path: "github.com/acme/defaults", Alias: ".", Symbol: "Today"},
	}, got)
}
