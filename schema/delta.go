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

package schema

import (
	"github.com/tomoncle/automigrate/columns"
	"github.com/tomoncle/automigrate/columns/params"
)

// AlterColumn describes a column present on both sides whose shape changed.
// Params and OldParams only hold the keys that changed. Kind and OldKind are
// left zero when the kind did not change.
type AlterColumn struct {
	ColumnName   string
	DBColumnName string
	Params       params.Map
	OldParams    params.Map
	Kind         columns.Kind
	OldKind      columns.Kind
}

// TableDelta is what changed between two versions of a table.
type TableDelta struct {
	AddColumns   []*ColumnDescriptor
	DropColumns  []*ColumnDescriptor
	AlterColumns []AlterColumn
}

func (d TableDelta) Empty() bool {
	return len(d.AddColumns) == 0 && len(d.DropColumns) == 0 && len(d.AlterColumns) == 0
}

// Diff computes the delta that turns oldTable into newTable. Columns are
// matched by name and reported in declaration order.
func Diff(newTable, oldTable *TableDescriptor) TableDelta {
	var delta TableDelta

	for _, col := range newTable.Columns {
		existing := oldTable.Column(col.Name)
		if existing == nil {
			delta.AddColumns = append(delta.AddColumns, col)
			continue
		}
		if alter, changed := diffColumn(col, existing); changed {
			delta.AlterColumns = append(delta.AlterColumns, alter)
		}
	}

	for _, col := range oldTable.Columns {
		if newTable.Column(col.Name) == nil {
			delta.DropColumns = append(delta.DropColumns, col)
		}
	}

	return delta
}

func diffColumn(col, existing *ColumnDescriptor) (AlterColumn, bool) {
	changed, previous := col.Params.Diff(existing.Params)
	if col.DBColumnName() != existing.DBColumnName() {
		changed[columns.ParamDBColumnName] = params.String(col.DBColumnName())
		previous[columns.ParamDBColumnName] = params.String(existing.DBColumnName())
	}

	alter := AlterColumn{
		ColumnName:   col.Name,
		DBColumnName: col.DBColumnName(),
		Params:       changed,
		OldParams:    previous,
	}
	if col.Kind != existing.Kind {
		alter.Kind = col.Kind
		alter.OldKind = existing.Kind
	}

	return alter, len(changed) > 0 || len(previous) > 0 || alter.Kind != columns.Invalid
}
