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

import "github.com/tomoncle/automigrate/operations"

// RenameTableCollection holds the confirmed table renames of one run.
type RenameTableCollection struct {
	renames []operations.RenameTable
}

func (c *RenameTableCollection) Append(r operations.RenameTable) {
	c.renames = append(c.renames, r)
}

func (c *RenameTableCollection) Len() int { return len(c.renames) }

// Renames returns the renames in the order they were confirmed.
func (c *RenameTableCollection) Renames() []operations.RenameTable {
	out := make([]operations.RenameTable, len(c.renames))
	copy(out, c.renames)
	return out
}

func (c *RenameTableCollection) OldClassNames() []string {
	out := make([]string, 0, len(c.renames))
	for _, r := range c.renames {
		out = append(out, r.OldClassName)
	}
	return out
}

func (c *RenameTableCollection) NewClassNames() []string {
	out := make([]string, 0, len(c.renames))
	for _, r := range c.renames {
		out = append(out, r.NewClassName)
	}
	return out
}

// RenamedFrom returns the old class name of the table renamed to
// newClassName.
func (c *RenameTableCollection) RenamedFrom(newClassName string) (string, bool) {
	for _, r := range c.renames {
		if r.NewClassName == newClassName {
			return r.OldClassName, true
		}
	}
	return "", false
}

// IsRenameSource reports whether the table was renamed away from.
func (c *RenameTableCollection) IsRenameSource(oldClassName string) bool {
	for _, r := range c.renames {
		if r.OldClassName == oldClassName {
			return true
		}
	}
	return false
}

// IsRenameTarget reports whether the table was renamed to.
func (c *RenameTableCollection) IsRenameTarget(newClassName string) bool {
	_, ok := c.RenamedFrom(newClassName)
	return ok
}

// RenameColumnCollection holds the confirmed column renames of one run.
type RenameColumnCollection struct {
	renames []operations.RenameColumn
}

func (c *RenameColumnCollection) Append(r operations.RenameColumn) {
	c.renames = append(c.renames, r)
}

func (c *RenameColumnCollection) Len() int { return len(c.renames) }

func (c *RenameColumnCollection) Renames() []operations.RenameColumn {
	out := make([]operations.RenameColumn, len(c.renames))
	copy(out, c.renames)
	return out
}

// ForTable returns the renames recorded on the given table class.
func (c *RenameColumnCollection) ForTable(tableClassName string) []operations.RenameColumn {
	var out []operations.RenameColumn
	for _, r := range c.renames {
		if r.TableClassName == tableClassName {
			out = append(out, r)
		}
	}
	return out
}

func (c *RenameColumnCollection) OldColumnNames(tableClassName string) []string {
	var out []string
	for _, r := range c.ForTable(tableClassName) {
		out = append(out, r.OldColumnName)
	}
	return out
}

func (c *RenameColumnCollection) NewColumnNames(tableClassName string) []string {
	var out []string
	for _, r := range c.ForTable(tableClassName) {
		out = append(out, r.NewColumnName)
	}
	return out
}
