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
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/automigrate/columns"
	"github.com/tomoncle/automigrate/columns/params"
	"github.com/tomoncle/automigrate/schema"
)

const foreignKeyYAML = `
foreign_keys:
  - table: books
    column: editor_id
    reference_table: authors
    reference_column: id
    on_delete: cascade
    description: books.editor_id -> authors.id
`

func describedTables(t *testing.T) []*schema.TableDescriptor {
	t.Helper()
	tables, err := DescribeModels((*Author)(nil), (*Book)(nil))
	require.NoError(t, err)
	tables[1].Columns = append(tables[1].Columns, schema.NewColumn("editor_id", columns.BigInt, params.Map{columns.ParamNull: params.Bool(true)}))
	return tables
}

func TestLoadAndApplyForeignKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "configs/foreign_keys.yaml", []byte(foreignKeyYAML), 0o644))

	fkm, err := LoadForeignKeyManager(fs, "configs/foreign_keys.yaml", nil)
	require.NoError(t, err)
	require.Len(t, fkm.ListAllConstraints(), 1)
	assert.Equal(t, "fk_books_editor_id", fkm.ListAllConstraints()[0].GenerateConstraintName())
	assert.Len(t, fkm.GetConstraintsByTable("BOOKS"), 1)

	tables := describedTables(t)
	require.NoError(t, fkm.ApplyForeignKeys(tables))

	editor := tables[1].Column("editor_id")
	assert.Equal(t, columns.ForeignKey, editor.Kind)
	assert.Equal(t, params.Reference{ClassName: "Author", Tablename: "authors"}, editor.Params[columns.ParamReferences])
	assert.Equal(t, params.String("CASCADE"), editor.Params["on_delete"])
	assert.NoError(t, tables[1].Validate())
}

func TestApplyForeignKeysUnknownTargets(t *testing.T) {
	cases := []ForeignKeyConstraint{
		{Table: "missing", Column: "editor_id", ReferenceTable: "authors", ReferenceColumn: "id"},
		{Table: "books", Column: "missing", ReferenceTable: "authors", ReferenceColumn: "id"},
		{Table: "books", Column: "editor_id", ReferenceTable: "missing", ReferenceColumn: "id"},
	}
	for _, c := range cases {
		err := NewForeignKeyManager(nil, c).ApplyForeignKeys(describedTables(t))
		assert.ErrorContains(t, err, "missing")
	}
}

func TestValidateConstraints(t *testing.T) {
	fkm := NewForeignKeyManager(nil,
		ForeignKeyConstraint{},
		ForeignKeyConstraint{Table: "a", Column: "b", ReferenceTable: "c", ReferenceColumn: "d", OnDelete: "explode"},
	)
	errs := fkm.ValidateConstraints()
	assert.Len(t, errs, 5)

	err := fkm.ApplyForeignKeys(nil)
	assert.ErrorContains(t, err, "5 errors in total")
}

func TestExportForeignKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	fkm := NewForeignKeyManager(nil, ForeignKeyConstraint{Table: "books", Column: "editor_id", ReferenceTable: "authors", ReferenceColumn: "id", OnUpdate: "RESTRICT"})
	require.NoError(t, fkm.ExportToConfig(fs, "out/fk.yaml"))

	loaded, err := LoadForeignKeyManager(fs, "out/fk.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, fkm.ListAllConstraints(), loaded.ListAllConstraints())

	_, err = LoadForeignKeyManager(fs, "out/missing.yaml", nil)
	assert.ErrorContains(t, err, "failed to read config file")
}
