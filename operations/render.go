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

package operations

import (
	"strconv"
	"strings"

	"github.com/tomoncle/automigrate/columns/params"
)

// Statement is one rendered manager call with the imports and top-level
// definitions it needs.
type Statement struct {
	Code        string
	Imports     []params.Import
	Definitions []string
}

type field struct {
	name  string
	value params.Serialized
}

func str(name, value string) field {
	return field{name: name, value: params.Serialized{Code: strconv.Quote(value)}}
}

func expr(name string, value params.Serialized) field {
	return field{name: name, value: value}
}

// render builds `manager.<Method>(operations.<Method>{Field: value, ...})`.
// Fields with an empty expression are left out.
func render(method string, fields ...field) Statement {
	st := Statement{Imports: []params.Import{params.NewImport(Path, method)}}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.value.Code == "" {
			continue
		}
		parts = append(parts, f.name+": "+f.value.Code)
		st.Imports = append(st.Imports, f.value.Imports...)
		st.Definitions = append(st.Definitions, f.value.Definitions...)
	}

	var b strings.Builder
	b.WriteString(ManagerIdent)
	b.WriteByte('.')
	b.WriteString(method)
	b.WriteString("(operations.")
	b.WriteString(method)
	b.WriteByte('{')
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString("})")
	st.Code = b.String()
	return st
}
