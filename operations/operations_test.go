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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomoncle/automigrate/columns"
	"github.com/tomoncle/automigrate/columns/params"
)

func TestRenderTableOperations(t *testing.T) {
	st := AddTable{ClassName: "Band", Tablename: "band"}.Render()
	assert.Equal(t, `manager.AddTable(operations.AddTable{ClassName: "Band", Tablename: "band"})`, st.Code)
	assert.Equal(t, []params.Import{params.NewImport(Path, "AddTable")}, st.Imports)
	assert.Empty(t, st.Definitions)

	st = DropTable{ClassName: "Band", Tablename: "band"}.Render()
	assert.Equal(t, `manager.DropTable(operations.DropTable{ClassName: "Band", Tablename: "band"})`, st.Code)

	st = RenameTable{OldClassName: "Band", OldTablename: "band", NewClassName: "Group", NewTablename: "group"}.Render()
	assert.Equal(t,
		`manager.RenameTable(operations.RenameTable{OldClassName: "Band", OldTablename: "band", NewClassName: "Group", NewTablename: "group"})`,
		st.Code)
}

func TestRenderAddColumn(t *testing.T) {
	st := AddColumn{
		TableClassName:  "Band",
		Tablename:       "band",
		ColumnName:      "name",
		DBColumnName:    "name",
		ColumnClassName: "Varchar",
		ColumnClass:     columns.Varchar,
		Params:          params.Map{"length": params.Int(255), "null": params.Bool(false)},
	}.Render()

	assert.Equal(t,
		`manager.AddColumn(operations.AddColumn{TableClassName: "Band", Tablename: "band", ColumnName: "name", DBColumnName: "name", `+
			`ColumnClassName: "Varchar", ColumnClass: columns.Varchar, Params: params.Map{"length": params.Int(255), "null": params.Bool(false)}})`,
		st.Code)
	assert.Contains(t, st.Imports, params.NewImport(columns.Path, "Varchar"))
	assert.Contains(t, st.Imports, params.NewImport(params.Path, "Int"))
}

func TestRenderAddForeignKeyColumnInlinesReference(t *testing.T) {
	st := AddColumn{
		TableClassName:  "Band",
		Tablename:       "band",
		ColumnName:      "manager",
		DBColumnName:    "manager",
		ColumnClassName: "ForeignKey",
		ColumnClass:     columns.ForeignKey,
		Params:          params.Map{"references": params.Reference{ClassName: "Manager", Tablename: "manager"}},
	}.Render()

	assert.Contains(t, st.Code, `Params: params.Map{"references": params.Reference{ClassName: "Manager", Tablename: "manager"}}`)
	assert.Empty(t, st.Definitions)
}

func TestRenderAlterColumnOmitsUnchangedKind(t *testing.T) {
	st := AlterColumn{
		TableClassName: "Band",
		Tablename:      "band",
		ColumnName:     "name",
		DBColumnName:   "name",
		Params:         params.Map{"length": params.Int(255)},
		OldParams:      params.Map{"length": params.Int(100)},
	}.Render()

	assert.Equal(t,
		`manager.AlterColumn(operations.AlterColumn{TableClassName: "Band", Tablename: "band", ColumnName: "name", DBColumnName: "name", `+
			`Params: params.Map{"length": params.Int(255)}, OldParams: params.Map{"length": params.Int(100)}})`,
		st.Code)

	st = AlterColumn{
		TableClassName: "Band",
		Tablename:      "band",
		ColumnName:     "popularity",
		DBColumnName:   "popularity",
		ColumnClass:    columns.BigInt,
		OldColumnClass: columns.Integer,
	}.Render()
	assert.Contains(t, st.Code, "ColumnClass: columns.BigInt, OldColumnClass: columns.Integer")
	assert.Contains(t, st.Code, "Params: params.Map{}, OldParams: params.Map{}")
}

func TestRenderColumnOperations(t *testing.T) {
	st := DropColumn{TableClassName: "Band", Tablename: "band", ColumnName: "label", DBColumnName: "label"}.Render()
	assert.Equal(t,
		`manager.DropColumn(operations.DropColumn{TableClassName: "Band", Tablename: "band", ColumnName: "label", DBColumnName: "label"})`,
		st.Code)

	st = RenameColumn{
		TableClassName:  "Band",
		Tablename:       "band",
		OldColumnName:   "title",
		NewColumnName:   "name",
		OldDBColumnName: "title",
		NewDBColumnName: "name",
	}.Render()
	assert.Equal(t,
		`manager.RenameColumn(operations.RenameColumn{TableClassName: "Band", Tablename: "band", OldColumnName: "title", NewColumnName: "name", OldDBColumnName: "title", NewDBColumnName: "name"})`,
		st.Code)
}

func TestRecorder(t *testing.T) {
	ops := []Operation{
		AddTable{ClassName: "Band", Tablename: "band"},
		AddColumn{TableClassName: "Band", Tablename: "band", ColumnName: "name", ColumnClass: columns.Varchar},
		RenameColumn{TableClassName: "Band", Tablename: "band", OldColumnName: "a", NewColumnName: "b"},
		DropTable{ClassName: "Venue", Tablename: "venue"},
	}

	rec := &Recorder{}
	for _, op := range ops {
		op.Apply(rec)
	}
	assert.Equal(t, ops, rec.Operations())

	rec.Reset()
	assert.Empty(t, rec.Operations())
}
