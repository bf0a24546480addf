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
	"encoding/json"
	"fmt"

	"github.com/tomoncle/automigrate/columns/params"
)

// TypeColumn is the encoded type of a nested Column param.
const TypeColumn = "column"

// Column is a column used as a parameter of another column, such as the base
// column of an Array.
type Column struct {
	Kind   Kind
	Params params.Map
}

var _ params.Value = Column{}

type encodedColumn struct {
	Kind   string                    `json:"kind"`
	Params map[string]params.Encoded `json:"params,omitempty"`
}

func (c Column) Serialize() params.Serialized {
	kind := c.Kind.Serialize()
	ps := c.Params.Serialize()
	imports := append([]params.Import{params.NewImport(Path, "Column")}, kind.Imports...)
	return params.Serialized{
		Code:        fmt.Sprintf("columns.Column{Kind: %s, Params: %s}", kind.Code, ps.Code),
		Imports:     append(imports, ps.Imports...),
		Definitions: ps.Definitions,
	}
}

func (c Column) Encode() params.Encoded {
	b, err := json.Marshal(encodedColumn{Kind: c.Kind.Name(), Params: c.Params.Encode()})
	if err != nil {
		panic(fmt.Sprintf("columns: encode column: %v", err))
	}
	return params.Encoded{Type: TypeColumn, Value: string(b)}
}

func decodeColumn(text string) (params.Value, error) {
	var ec encodedColumn
	if err := json.Unmarshal([]byte(text), &ec); err != nil {
		return nil, err
	}
	kind, err := ParseKind(ec.Kind)
	if err != nil {
		return nil, err
	}
	ps, err := params.DecodeMap(ec.Params)
	if err != nil {
		return nil, err
	}
	return Column{Kind: kind, Params: ps}, nil
}

func init() {
	params.RegisterDecoder(TypeColumn, decodeColumn)
}
