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

package database

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tomoncle/automigrate/columns"
	"github.com/tomoncle/automigrate/columns/params"
	"github.com/tomoncle/automigrate/schema"
)

// TagName is the struct tag read next to the bun tag. It accepts
// "rename:<old column>" and "index".
const TagName = "automigrate"

var sqlTypePattern = regexp.MustCompile(`^([a-z ]+?)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?$`)

var (
	timeType    = reflect.TypeOf(time.Time{})
	durType     = reflect.TypeOf(time.Duration(0))
	uuidType    = reflect.TypeOf(uuid.UUID{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

var sqlKinds = map[string]columns.Kind{
	"varchar":                  columns.Varchar,
	"character varying":        columns.Varchar,
	"char":                     columns.Varchar,
	"text":                     columns.Text,
	"integer":                  columns.Integer,
	"int":                      columns.Integer,
	"int4":                     columns.Integer,
	"smallint":                 columns.SmallInt,
	"int2":                     columns.SmallInt,
	"bigint":                   columns.BigInt,
	"int8":                     columns.BigInt,
	"serial":                   columns.Serial,
	"bigserial":                columns.BigSerial,
	"real":                     columns.Real,
	"float4":                   columns.Real,
	"double precision":         columns.DoublePrecision,
	"float8":                   columns.DoublePrecision,
	"numeric":                  columns.Numeric,
	"decimal":                  columns.Numeric,
	"boolean":                  columns.Boolean,
	"bool":                     columns.Boolean,
	"date":                     columns.Date,
	"time":                     columns.Time,
	"timestamp":                columns.Timestamp,
	"timestamptz":              columns.Timestamptz,
	"timestamp with time zone": columns.Timestamptz,
	"interval":                 columns.Interval,
	"uuid":                     columns.UUID,
	"json":                     columns.JSON,
	"jsonb":                    columns.JSONB,
	"bytea":                    columns.Bytea,
	"blob":                     columns.Bytea,
}

var sqlDefaults = map[string]params.Value{
	"current_timestamp":  params.DefaultNow,
	"now()":              params.DefaultNow,
	"current_date":       params.DefaultToday,
	"current_time":       params.DefaultTimeNow,
	"gen_random_uuid()":  params.DefaultUUID4,
	"uuid_generate_v4()": params.DefaultUUID4,
	"null":               params.Null{},
}

// DescribeModel builds the descriptor of a bun model. The model must embed
// bun.BaseModel with a table tag.
func DescribeModel(model interface{}) (*schema.TableDescriptor, error) {
	t := reflect.TypeOf(model)
	if t == nil {
		return nil, fmt.Errorf("model cannot be nil")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model %s is not a struct", t)
	}
	tablename, err := resolveTableName(t)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", t.Name(), err)
	}

	table := schema.NewTable(t.Name(), tablename)
	if err := collectColumns(t, table); err != nil {
		return nil, fmt.Errorf("model %s: %w", t.Name(), err)
	}
	return table, nil
}

// DescribeModels describes every model in the order given.
func DescribeModels(models ...interface{}) ([]*schema.TableDescriptor, error) {
	tables := make([]*schema.TableDescriptor, 0, len(models))
	for _, m := range models {
		table, err := DescribeModel(m)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	if err := schema.ValidateAll(tables); err != nil {
		return nil, err
	}
	return tables, nil
}

// DescribeRegistered describes the models of the default registry.
func DescribeRegistered() ([]*schema.TableDescriptor, error) {
	return DescribeModels(RegisteredModelInstances()...)
}

func resolveTableName(t reflect.Type) (string, error) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !isBaseModel(f.Type) {
			continue
		}
		for _, part := range strings.Split(f.Tag.Get("bun"), ",") {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(part, "table:") {
				return strings.TrimPrefix(part, "table:"), nil
			}
		}
	}
	return "", fmt.Errorf("missing table tag on bun.BaseModel")
}

func isBaseModel(t reflect.Type) bool {
	return t.Name() == "BaseModel" && strings.Contains(t.PkgPath(), "uptrace/bun")
}

// bunTag is a parsed bun struct tag.
type bunTag struct {
	name    string
	options map[string]string
}

func parseBunTag(tag string) bunTag {
	parts := splitTag(tag)
	bt := bunTag{name: strings.TrimSpace(parts[0]), options: map[string]string{}}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key, val, _ := strings.Cut(p, ":")
		bt.options[key] = val
	}
	return bt
}

// splitTag splits on commas outside parentheses and single quotes, so
// "type:numeric(10,2)" stays one option.
func splitTag(tag string) []string {
	var parts []string
	depth, quoted, start := 0, false, 0
	for i, r := range tag {
		switch {
		case r == '\'':
			quoted = !quoted
		case quoted:
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ',' && depth == 0:
			parts = append(parts, tag[start:i])
			start = i + 1
		}
	}
	return append(parts, tag[start:])
}

func (bt bunTag) has(key string) bool {
	_, ok := bt.options[key]
	return ok
}

func collectColumns(t reflect.Type, table *schema.TableDescriptor) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if isBaseModel(f.Type) {
			continue
		}
		raw, tagged := f.Tag.Lookup("bun")
		if raw == "-" || !f.IsExported() && !f.Anonymous {
			continue
		}
		if !tagged {
			if f.Anonymous {
				ft := f.Type
				if ft.Kind() == reflect.Ptr {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					if err := collectColumns(ft, table); err != nil {
						return err
					}
				}
			}
			continue
		}

		tag := parseBunTag(raw)
		if rel, ok := tag.options["rel"]; ok {
			if rel == "belongs-to" {
				if err := applyBelongsTo(table, f, tag); err != nil {
					return err
				}
			}
			continue
		}
		if tag.has("m2m") || tag.name == "" {
			continue
		}

		col, err := describeField(f, tag)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		if table.Column(col.Name) != nil {
			return fmt.Errorf("duplicate column %s", col.Name)
		}
		table.Columns = append(table.Columns, col)
	}
	return nil
}

func describeField(f reflect.StructField, tag bunTag) (*schema.ColumnDescriptor, error) {
	ps := params.Map{}
	kind, err := fieldKind(f.Type, tag, ps)
	if err != nil {
		return nil, err
	}

	pk := tag.has("pk")
	if pk && tag.has("autoincrement") {
		switch kind {
		case columns.Integer, columns.SmallInt:
			kind = columns.Serial
		case columns.BigInt:
			kind = columns.BigSerial
		}
	}
	ps[columns.ParamNull] = params.Bool(!(pk || tag.has("notnull")))
	if pk {
		ps[columns.ParamPrimaryKey] = params.Bool(true)
	}
	if tag.has("unique") {
		ps[columns.ParamUnique] = params.Bool(true)
	}
	if def, ok := tag.options["default"]; ok {
		ps[columns.ParamDefault] = parseDefault(def)
	}

	col := schema.NewColumn(tag.name, kind, ps)
	for _, opt := range strings.Split(f.Tag.Get(TagName), ",") {
		opt = strings.TrimSpace(opt)
		switch {
		case strings.HasPrefix(opt, "rename:"):
			col.RenamedFrom = strings.Trim(strings.TrimSpace(strings.TrimPrefix(opt, "rename:")), `'"`)
		case opt == "index":
			col.Params[columns.ParamIndex] = params.Bool(true)
		}
	}
	return col, nil
}

// fieldKind picks the kind from the type tag, or from the Go type when the
// tag has none. Length and digits from the type tag are written to ps.
func fieldKind(rt reflect.Type, tag bunTag, ps params.Map) (columns.Kind, error) {
	if typ, ok := tag.options["type"]; ok && typ != "" {
		return sqlKind(typ, ps)
	}
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if tag.has("array") && rt.Kind() == reflect.Slice {
		base := params.Map{}
		kind, err := goKind(rt.Elem(), base)
		if err != nil {
			return columns.Invalid, err
		}
		ps[columns.ParamBaseColumn] = columns.Column{Kind: kind, Params: base}
		return columns.Array, nil
	}
	return goKind(rt, ps)
}

func sqlKind(typ string, ps params.Map) (columns.Kind, error) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if base, ok := strings.CutSuffix(typ, "[]"); ok {
		baseParams := params.Map{}
		kind, err := sqlKind(base, baseParams)
		if err != nil {
			return columns.Invalid, err
		}
		ps[columns.ParamBaseColumn] = columns.Column{Kind: kind, Params: baseParams}
		return columns.Array, nil
	}
	m := sqlTypePattern.FindStringSubmatch(typ)
	if m == nil {
		return columns.Invalid, fmt.Errorf("unsupported column type %q", typ)
	}
	kind, ok := sqlKinds[m[1]]
	if !ok {
		return columns.Invalid, fmt.Errorf("unsupported column type %q", typ)
	}
	switch kind {
	case columns.Varchar:
		length := int64(255)
		if m[2] != "" {
			length, _ = strconv.ParseInt(m[2], 10, 64)
		}
		ps[columns.ParamLength] = params.Int(length)
	case columns.Numeric:
		if m[2] != "" {
			scale, _ := strconv.ParseInt(m[3], 10, 64)
			precision, _ := strconv.ParseInt(m[2], 10, 64)
			ps[columns.ParamDigits] = params.List{params.Int(precision), params.Int(scale)}
		}
	}
	return kind, nil
}

func goKind(rt reflect.Type, ps params.Map) (columns.Kind, error) {
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	switch rt {
	case timeType:
		return columns.Timestamptz, nil
	case durType:
		return columns.Interval, nil
	case uuidType:
		return columns.UUID, nil
	case decimalType:
		return columns.Numeric, nil
	}
	switch rt.Kind() {
	case reflect.String:
		ps[columns.ParamLength] = params.Int(255)
		return columns.Varchar, nil
	case reflect.Bool:
		return columns.Boolean, nil
	case reflect.Int8, reflect.Int16, reflect.Uint8:
		return columns.SmallInt, nil
	case reflect.Int32, reflect.Uint16:
		return columns.Integer, nil
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return columns.BigInt, nil
	case reflect.Float32:
		return columns.Real, nil
	case reflect.Float64:
		return columns.DoublePrecision, nil
	case reflect.Slice:
		if rt.Elem().Kind() == reflect.Uint8 {
			return columns.Bytea, nil
		}
		return columns.JSONB, nil
	case reflect.Map, reflect.Struct:
		return columns.JSONB, nil
	}
	return columns.Invalid, fmt.Errorf("unsupported field type %s", rt)
}

func parseDefault(raw string) params.Value {
	s := strings.TrimSpace(raw)
	if v, ok := sqlDefaults[strings.ToLower(s)]; ok {
		return v
	}
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return params.String(strings.ReplaceAll(s[1:len(s)-1], "''", "'"))
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return params.Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return params.Float(f)
	}
	switch strings.ToLower(s) {
	case "true":
		return params.Bool(true)
	case "false":
		return params.Bool(false)
	}
	return params.Default(s)
}

// applyBelongsTo turns the local join column of a belongs-to relation into a
// foreign key referencing the related model's table.
func applyBelongsTo(table *schema.TableDescriptor, f reflect.StructField, tag bunTag) error {
	join, ok := tag.options["join"]
	if !ok {
		return fmt.Errorf("relation %s: missing join", f.Name)
	}
	local, _, _ := strings.Cut(join, "=")
	local = strings.TrimSpace(local)

	rt := f.Type
	if rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return fmt.Errorf("relation %s: %s is not a struct", f.Name, rt)
	}
	refTable, err := resolveTableName(rt)
	if err != nil {
		return fmt.Errorf("relation %s: %w", f.Name, err)
	}

	col := table.Column(local)
	if col == nil {
		return fmt.Errorf("relation %s: join column %s must be declared before the relation", f.Name, local)
	}
	col.Kind = columns.ForeignKey
	delete(col.Params, columns.ParamLength)
	col.Params[columns.ParamReferences] = params.Reference{ClassName: rt.Name(), Tablename: refTable}
	return nil
}
