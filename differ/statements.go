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

package differ

import (
	"github.com/tomoncle/automigrate/columns/params"
	"github.com/tomoncle/automigrate/operations"
)

// Category labels, in the order GetAlterStatements returns them.
const (
	LabelCreateTables    = "Created tables"
	LabelDropTables      = "Dropped tables"
	LabelRenameTables    = "Renamed tables"
	LabelNewTableColumns = "Created table columns"
	LabelDropColumns     = "Dropped columns"
	LabelAddColumns      = "Columns added to existing tables"
	LabelRenameColumns   = "Renamed columns"
	LabelAlterColumns    = "Altered columns"
)

// AlterStatements is one category of generated statements together with the
// imports and top-level definitions they need.
type AlterStatements struct {
	Label            string
	Statements       []string
	ExtraImports     []params.Import
	ExtraDefinitions []string
	// Operations are the calls Statements render, in the same order.
	Operations []operations.Operation
}

func newAlterStatements(label string, ops []operations.Operation) AlterStatements {
	group := AlterStatements{
		Label:      label,
		Statements: []string{},
		Operations: ops,
	}
	var imports []params.Import
	for _, op := range ops {
		st := op.Render()
		group.Statements = append(group.Statements, st.Code)
		imports = append(imports, st.Imports...)
		group.ExtraDefinitions = appendUnique(group.ExtraDefinitions, st.Definitions...)
	}
	group.ExtraImports = params.UniqueImports(imports)
	return group
}

func (a AlterStatements) Empty() bool { return len(a.Statements) == 0 }

// Apply hands every operation of the group to m.
func (a AlterStatements) Apply(m operations.Manager) {
	for _, op := range a.Operations {
		op.Apply(m)
	}
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range list {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}
