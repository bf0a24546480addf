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
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/tomoncle/automigrate/operations"
	"github.com/tomoncle/automigrate/schema"
	"github.com/tomoncle/automigrate/utils"
)

// LabelWidth is the width category labels are padded to in the summary.
const LabelWidth = 40

// Logger is the logging contract of the differ. database.Logger satisfies it.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// SchemaDiffer compares the current schema with a snapshot and renders the
// statements of a migration between them. Renames are resolved once, when
// the differ is created.
type SchemaDiffer struct {
	schema   []*schema.TableDescriptor
	snapshot []*schema.TableDescriptor

	input  InputFunc
	logger Logger
	out    io.Writer

	renameTables  RenameTableCollection
	renameColumns RenameColumnCollection
}

type Option func(*SchemaDiffer)

// WithInput sets the provider that answers rename prompts.
func WithInput(input InputFunc) Option {
	return func(d *SchemaDiffer) {
		if input != nil {
			d.input = input
		}
	}
}

// WithAutoInput answers every rename prompt with answer.
func WithAutoInput(answer string) Option {
	return WithInput(AutoInput(answer))
}

func WithLogger(logger Logger) Option {
	return func(d *SchemaDiffer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithOutput sets where the category summary is written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(d *SchemaDiffer) {
		if w != nil {
			d.out = w
		}
	}
}

// New validates both schemas and resolves table and column renames.
func New(current, snapshot []*schema.TableDescriptor, opts ...Option) (*SchemaDiffer, error) {
	d := &SchemaDiffer{
		schema:   current,
		snapshot: snapshot,
		input:    AutoInput(""),
		logger:   nopLogger{},
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := schema.ValidateAll(current); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	if err := schema.ValidateAll(snapshot); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	var err error
	d.renameTables, err = detectTableRenames(snapshot, current, d.input, d.logger)
	if err != nil {
		return nil, err
	}
	d.renameColumns, err = detectColumnRenames(current, d.snapshotTable, d.input, d.logger)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("renames resolved", "tables", d.renameTables.Len(), "columns", d.renameColumns.Len())
	return d, nil
}

// TableRenames returns the confirmed table renames.
func (d *SchemaDiffer) TableRenames() *RenameTableCollection { return &d.renameTables }

// ColumnRenames returns the confirmed column renames.
func (d *SchemaDiffer) ColumnRenames() *RenameColumnCollection { return &d.renameColumns }

// snapshotTable returns the snapshot table for a current class name. A table
// renamed in this run is found under its old class name and re-keyed.
func (d *SchemaDiffer) snapshotTable(className string) *schema.TableDescriptor {
	for _, t := range d.snapshot {
		if t.ClassName == className {
			return t
		}
	}
	oldClassName, ok := d.renameTables.RenamedFrom(className)
	if !ok {
		return nil
	}
	for _, t := range d.snapshot {
		if t.ClassName == oldClassName {
			return t.WithClassName(className)
		}
	}
	return nil
}

func (d *SchemaDiffer) createdTables() []*schema.TableDescriptor {
	var out []*schema.TableDescriptor
	for _, t := range schema.Difference(d.schema, d.snapshot) {
		if !d.renameTables.IsRenameTarget(t.ClassName) {
			out = append(out, t)
		}
	}
	return out
}

func (d *SchemaDiffer) CreateTables() AlterStatements {
	var ops []operations.Operation
	for _, t := range d.createdTables() {
		ops = append(ops, operations.AddTable{ClassName: t.ClassName, Tablename: t.StorageName})
	}
	return newAlterStatements(LabelCreateTables, ops)
}

func (d *SchemaDiffer) DropTables() AlterStatements {
	var ops []operations.Operation
	for _, t := range schema.Difference(d.snapshot, d.schema) {
		if d.renameTables.IsRenameSource(t.ClassName) {
			continue
		}
		ops = append(ops, operations.DropTable{ClassName: t.ClassName, Tablename: t.StorageName})
	}
	return newAlterStatements(LabelDropTables, ops)
}

func (d *SchemaDiffer) RenameTables() AlterStatements {
	var ops []operations.Operation
	for _, r := range d.renameTables.Renames() {
		ops = append(ops, r)
	}
	return newAlterStatements(LabelRenameTables, ops)
}

// NewTableColumns adds every column of the tables created in this run.
func (d *SchemaDiffer) NewTableColumns() AlterStatements {
	var ops []operations.Operation
	for _, t := range d.createdTables() {
		for _, col := range t.Columns {
			ops = append(ops, addColumn(t, col))
		}
	}
	return newAlterStatements(LabelNewTableColumns, ops)
}

func (d *SchemaDiffer) DropColumns() AlterStatements {
	var ops []operations.Operation
	d.eachDelta(func(t *schema.TableDescriptor, delta schema.TableDelta) {
		renamed := d.renameColumns.OldColumnNames(t.ClassName)
		for _, col := range delta.DropColumns {
			if slices.Contains(renamed, col.Name) {
				continue
			}
			ops = append(ops, operations.DropColumn{
				TableClassName: t.ClassName,
				Tablename:      t.StorageName,
				ColumnName:     col.Name,
				DBColumnName:   col.DBColumnName(),
			})
		}
	})
	return newAlterStatements(LabelDropColumns, ops)
}

// AddColumns adds the columns new to tables that already existed.
func (d *SchemaDiffer) AddColumns() AlterStatements {
	var ops []operations.Operation
	d.eachDelta(func(t *schema.TableDescriptor, delta schema.TableDelta) {
		renamed := d.renameColumns.NewColumnNames(t.ClassName)
		for _, col := range delta.AddColumns {
			if slices.Contains(renamed, col.Name) {
				continue
			}
			ops = append(ops, addColumn(t, col))
		}
	})
	return newAlterStatements(LabelAddColumns, ops)
}

func (d *SchemaDiffer) RenameColumns() AlterStatements {
	var ops []operations.Operation
	for _, r := range d.renameColumns.Renames() {
		ops = append(ops, r)
	}
	return newAlterStatements(LabelRenameColumns, ops)
}

func (d *SchemaDiffer) AlterColumns() AlterStatements {
	var ops []operations.Operation
	d.eachDelta(func(t *schema.TableDescriptor, delta schema.TableDelta) {
		for _, alter := range delta.AlterColumns {
			ops = append(ops, operations.AlterColumn{
				TableClassName: t.ClassName,
				Tablename:      t.StorageName,
				ColumnName:     alter.ColumnName,
				DBColumnName:   alter.DBColumnName,
				Params:         alter.Params,
				OldParams:      alter.OldParams,
				ColumnClass:    alter.Kind,
				OldColumnClass: alter.OldKind,
			})
		}
	})
	return newAlterStatements(LabelAlterColumns, ops)
}

// GetAlterStatements runs every category in order, writes a count per
// category and checks the imports and definitions of the result.
func (d *SchemaDiffer) GetAlterStatements() ([]AlterStatements, error) {
	groups := []AlterStatements{
		d.CreateTables(),
		d.DropTables(),
		d.RenameTables(),
		d.NewTableColumns(),
		d.DropColumns(),
		d.AddColumns(),
		d.RenameColumns(),
		d.AlterColumns(),
	}

	for _, group := range groups {
		_, _ = fmt.Fprintf(d.out, "%s %d\n", utils.FixedLengthString(group.Label, LabelWidth), len(group.Statements))
	}

	if err := CheckImports(groups); err != nil {
		d.logger.Error("alter statements rejected", "error", err)
		return nil, err
	}
	if err := CheckDefinitions(groups); err != nil {
		d.logger.Error("alter statements rejected", "error", err)
		return nil, err
	}
	return groups, nil
}

func (d *SchemaDiffer) eachDelta(fn func(t *schema.TableDescriptor, delta schema.TableDelta)) {
	for _, t := range d.schema {
		snapshotTable := d.snapshotTable(t.ClassName)
		if snapshotTable == nil {
			continue
		}
		fn(t, schema.Diff(t, snapshotTable))
	}
}

func addColumn(t *schema.TableDescriptor, col *schema.ColumnDescriptor) operations.AddColumn {
	return operations.AddColumn{
		TableClassName:  t.ClassName,
		Tablename:       t.StorageName,
		ColumnName:      col.Name,
		DBColumnName:    col.DBColumnName(),
		ColumnClassName: col.Kind.Name(),
		ColumnClass:     col.Kind,
		Params:          col.Params,
	}
}
