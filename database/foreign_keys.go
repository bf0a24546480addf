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
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/tomoncle/automigrate/columns"
	"github.com/tomoncle/automigrate/columns/params"
	"github.com/tomoncle/automigrate/schema"
)

var validActions = []string{"CASCADE", "RESTRICT", "SET NULL", "NO ACTION", "SET DEFAULT"}

// ForeignKeyConstraint describes a foreign key relationship between tables.
// Table and ReferenceTable are storage names.
type ForeignKeyConstraint struct {
	Table           string
	Column          string
	ReferenceTable  string
	ReferenceColumn string
	OnDelete        string // CASCADE, RESTRICT, SET NULL, NO ACTION
	OnUpdate        string // CASCADE, RESTRICT, SET NULL, NO ACTION
	ConstraintName  string
}

// GenerateConstraintName returns the explicit name or a derived name.
func (fk *ForeignKeyConstraint) GenerateConstraintName() string {
	if fk.ConstraintName != "" {
		return fk.ConstraintName
	}
	return fmt.Sprintf("fk_%s_%s", fk.Table, fk.Column)
}

// ForeignKeyManager applies configured foreign keys to described tables.
type ForeignKeyManager struct {
	constraints []ForeignKeyConstraint
	logger      Logger
}

// NewForeignKeyManager creates a manager for the given constraints.
func NewForeignKeyManager(logger Logger, constraints ...ForeignKeyConstraint) *ForeignKeyManager {
	return &ForeignKeyManager{
		constraints: constraints,
		logger:      logger,
	}
}

// LoadForeignKeyManager reads the YAML configuration file at path.
func LoadForeignKeyManager(fs afero.Fs, path string, logger Logger) (*ForeignKeyManager, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config ForeignKeyConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	constraints := make([]ForeignKeyConstraint, 0, len(config.ForeignKeys))
	for _, fkConfig := range config.ForeignKeys {
		constraints = append(constraints, fkConfig.ToForeignKeyConstraint())
	}
	if logger != nil {
		logger.Debug("Loaded foreign key constraints", "config_path", path, "count", len(constraints))
	}
	return NewForeignKeyManager(logger, constraints...), nil
}

// ExportToConfig writes the constraints to a YAML file at outputPath.
func (fkm *ForeignKeyManager) ExportToConfig(fs afero.Fs, outputPath string) error {
	configConstraints := make([]ForeignKeyConstraintConfig, 0, len(fkm.constraints))
	for _, constraint := range fkm.constraints {
		configConstraints = append(configConstraints, ForeignKeyConstraintConfig{
			Table:           constraint.Table,
			Column:          constraint.Column,
			ReferenceTable:  constraint.ReferenceTable,
			ReferenceColumn: constraint.ReferenceColumn,
			OnDelete:        constraint.OnDelete,
			OnUpdate:        constraint.OnUpdate,
			ConstraintName:  constraint.ConstraintName,
			Description:     fmt.Sprintf("%s.%s -> %s.%s", constraint.Table, constraint.Column, constraint.ReferenceTable, constraint.ReferenceColumn),
		})
	}

	data, err := yaml.Marshal(&ForeignKeyConfig{ForeignKeys: configConstraints})
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := afero.WriteFile(fs, outputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetConstraintsByTable returns the constraints defined for a table.
func (fkm *ForeignKeyManager) GetConstraintsByTable(tableName string) []ForeignKeyConstraint {
	var result []ForeignKeyConstraint
	for _, constraint := range fkm.constraints {
		if strings.EqualFold(constraint.Table, tableName) {
			result = append(result, constraint)
		}
	}
	return result
}

// ListAllConstraints returns all configured constraints.
func (fkm *ForeignKeyManager) ListAllConstraints() []ForeignKeyConstraint {
	return fkm.constraints
}

// ValidateConstraints checks the configured constraints for common issues.
func (fkm *ForeignKeyManager) ValidateConstraints() []error {
	var errs []error

	for _, constraint := range fkm.constraints {
		if constraint.Table == "" {
			errs = append(errs, fmt.Errorf("table name cannot be empty"))
		}
		if constraint.Column == "" {
			errs = append(errs, fmt.Errorf("column name cannot be empty: %s", constraint.Table))
		}
		if constraint.ReferenceTable == "" {
			errs = append(errs, fmt.Errorf("reference table name cannot be empty: %s.%s", constraint.Table, constraint.Column))
		}
		if constraint.ReferenceColumn == "" {
			errs = append(errs, fmt.Errorf("reference column name cannot be empty: %s.%s -> %s", constraint.Table, constraint.Column, constraint.ReferenceTable))
		}
		for _, action := range []string{constraint.OnDelete, constraint.OnUpdate} {
			if action != "" && !slices.Contains(validActions, strings.ToUpper(action)) {
				errs = append(errs, fmt.Errorf("invalid referential action: %s, constraint: %s", action, constraint.GenerateConstraintName()))
			}
		}
	}

	return errs
}

// ApplyForeignKeys turns the configured columns of tables into foreign keys.
// Tables and columns are matched by storage name, ignoring case. Every
// constraint must match; the first failure is returned.
func (fkm *ForeignKeyManager) ApplyForeignKeys(tables []*schema.TableDescriptor) error {
	if errs := fkm.ValidateConstraints(); len(errs) > 0 {
		for _, err := range errs {
			if fkm.logger != nil {
				fkm.logger.Debug("Foreign key constraint validation failed", "error", err.Error())
			}
		}
		return fmt.Errorf("foreign key constraint validation failed, %d errors in total: %w", len(errs), errs[0])
	}

	for _, constraint := range fkm.constraints {
		table := findTable(tables, constraint.Table)
		if table == nil {
			return fmt.Errorf("constraint %s: unknown table %s", constraint.GenerateConstraintName(), constraint.Table)
		}
		ref := findTable(tables, constraint.ReferenceTable)
		if ref == nil {
			return fmt.Errorf("constraint %s: unknown reference table %s", constraint.GenerateConstraintName(), constraint.ReferenceTable)
		}
		col := findColumn(table, constraint.Column)
		if col == nil {
			return fmt.Errorf("constraint %s: unknown column %s.%s", constraint.GenerateConstraintName(), constraint.Table, constraint.Column)
		}

		col.Kind = columns.ForeignKey
		delete(col.Params, columns.ParamLength)
		col.Params[columns.ParamReferences] = params.Reference{ClassName: ref.ClassName, Tablename: ref.StorageName}
		if constraint.OnDelete != "" {
			col.Params["on_delete"] = params.String(strings.ToUpper(constraint.OnDelete))
		}
		if constraint.OnUpdate != "" {
			col.Params["on_update"] = params.String(strings.ToUpper(constraint.OnUpdate))
		}
		if fkm.logger != nil {
			fkm.logger.Debug("Applied foreign key constraint", "constraint", constraint.GenerateConstraintName())
		}
	}
	return nil
}

func findTable(tables []*schema.TableDescriptor, storageName string) *schema.TableDescriptor {
	for _, t := range tables {
		if strings.EqualFold(t.StorageName, storageName) {
			return t
		}
	}
	return nil
}

func findColumn(table *schema.TableDescriptor, dbName string) *schema.ColumnDescriptor {
	for _, c := range table.Columns {
		if strings.EqualFold(c.DBColumnName(), dbName) {
			return c
		}
	}
	return nil
}
