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
	"github.com/tomoncle/automigrate/columns"
	"github.com/tomoncle/automigrate/columns/params"
)

// Path is the import path of this package as referenced by generated code.
const Path = "github.com/tomoncle/automigrate/operations"

// ManagerIdent is the identifier generated statements call the manager by.
const ManagerIdent = "manager"

// Manager receives the operations of a migration. Generated migration code
// calls one method per statement.
type Manager interface {
	AddTable(op AddTable)
	DropTable(op DropTable)
	RenameTable(op RenameTable)
	AddColumn(op AddColumn)
	DropColumn(op DropColumn)
	RenameColumn(op RenameColumn)
	AlterColumn(op AlterColumn)
}

// Operation is a single manager call.
type Operation interface {
	// Render returns the statement that performs the operation.
	Render() Statement
	// Apply hands the operation to m.
	Apply(m Manager)
}

type AddTable struct {
	ClassName string
	Tablename string
}

func (op AddTable) Apply(m Manager) { m.AddTable(op) }

func (op AddTable) Render() Statement {
	return render("AddTable", str("ClassName", op.ClassName), str("Tablename", op.Tablename))
}

type DropTable struct {
	ClassName string
	Tablename string
}

func (op DropTable) Apply(m Manager) { m.DropTable(op) }

func (op DropTable) Render() Statement {
	return render("DropTable", str("ClassName", op.ClassName), str("Tablename", op.Tablename))
}

type RenameTable struct {
	OldClassName string
	OldTablename string
	NewClassName string
	NewTablename string
}

func (op RenameTable) Apply(m Manager) { m.RenameTable(op) }

func (op RenameTable) Render() Statement {
	return render("RenameTable",
		str("OldClassName", op.OldClassName),
		str("OldTablename", op.OldTablename),
		str("NewClassName", op.NewClassName),
		str("NewTablename", op.NewTablename),
	)
}

// AddColumn adds a column to a table. ColumnClassName duplicates the kind
// name so the manager can report it without resolving ColumnClass.
type AddColumn struct {
	TableClassName  string
	Tablename       string
	ColumnName      string
	DBColumnName    string
	ColumnClassName string
	ColumnClass     columns.Kind
	Params          params.Map
}

func (op AddColumn) Apply(m Manager) { m.AddColumn(op) }

func (op AddColumn) Render() Statement {
	return render("AddColumn",
		str("TableClassName", op.TableClassName),
		str("Tablename", op.Tablename),
		str("ColumnName", op.ColumnName),
		str("DBColumnName", op.DBColumnName),
		str("ColumnClassName", op.ColumnClassName),
		expr("ColumnClass", op.ColumnClass.Serialize()),
		expr("Params", paramsOf(op.Params).Serialize()),
	)
}

type DropColumn struct {
	TableClassName string
	Tablename      string
	ColumnName     string
	DBColumnName   string
}

func (op DropColumn) Apply(m Manager) { m.DropColumn(op) }

func (op DropColumn) Render() Statement {
	return render("DropColumn",
		str("TableClassName", op.TableClassName),
		str("Tablename", op.Tablename),
		str("ColumnName", op.ColumnName),
		str("DBColumnName", op.DBColumnName),
	)
}

type RenameColumn struct {
	TableClassName  string
	Tablename       string
	OldColumnName   string
	NewColumnName   string
	OldDBColumnName string
	NewDBColumnName string
}

func (op RenameColumn) Apply(m Manager) { m.RenameColumn(op) }

func (op RenameColumn) Render() Statement {
	return render("RenameColumn",
		str("TableClassName", op.TableClassName),
		str("Tablename", op.Tablename),
		str("OldColumnName", op.OldColumnName),
		str("NewColumnName", op.NewColumnName),
		str("OldDBColumnName", op.OldDBColumnName),
		str("NewDBColumnName", op.NewDBColumnName),
	)
}

// AlterColumn changes an existing column. Params and OldParams only carry the
// changed keys; ColumnClass and OldColumnClass are left zero unless the kind
// changed, and are then omitted from the rendered statement.
type AlterColumn struct {
	TableClassName string
	Tablename      string
	ColumnName     string
	DBColumnName   string
	Params         params.Map
	OldParams      params.Map
	ColumnClass    columns.Kind
	OldColumnClass columns.Kind
}

func (op AlterColumn) Apply(m Manager) { m.AlterColumn(op) }

func (op AlterColumn) Render() Statement {
	return render("AlterColumn",
		str("TableClassName", op.TableClassName),
		str("Tablename", op.Tablename),
		str("ColumnName", op.ColumnName),
		str("DBColumnName", op.DBColumnName),
		expr("Params", paramsOf(op.Params).Serialize()),
		expr("OldParams", paramsOf(op.OldParams).Serialize()),
		expr("ColumnClass", op.ColumnClass.Serialize()),
		expr("OldColumnClass", op.OldColumnClass.Serialize()),
	)
}

func paramsOf(m params.Map) params.Map {
	if m == nil {
		return params.Map{}
	}
	return m
}
