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
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tomoncle/automigrate/columns"
	"github.com/tomoncle/automigrate/columns/params"
)

// MaxJoinChain is the longest foreign key call chain a column may carry.
const MaxJoinChain = 10

var ErrJoinChainTooLong = errors.New("joining more than 10 tables isn't supported - please restructure your query")

// ColumnDescriptor is the comparable shape of a column.
type ColumnDescriptor struct {
	Name        string
	StorageName string
	Kind        columns.Kind
	Params      params.Map
	// CallChain lists the foreign key hops used to reach the column through
	// joined tables. Empty for columns declared directly on a table.
	CallChain []string
	// RenamedFrom is a hint naming the column this one replaces. It is not
	// part of the column's shape.
	RenamedFrom string
}

// NewColumn returns a column whose storage name equals its name.
func NewColumn(name string, kind columns.Kind, ps params.Map) *ColumnDescriptor {
	if ps == nil {
		ps = params.Map{}
	}
	return &ColumnDescriptor{Name: name, StorageName: name, Kind: kind, Params: ps}
}

// DBColumnName returns the storage name, falling back to the name.
func (c *ColumnDescriptor) DBColumnName() string {
	if c.StorageName != "" {
		return c.StorageName
	}
	return c.Name
}

func (c *ColumnDescriptor) signature() string {
	return strings.Join([]string{
		strconv.Quote(c.Name),
		strconv.Quote(c.DBColumnName()),
		c.Kind.Name(),
		"{" + c.Params.Signature() + "}",
		"[" + strings.Join(c.CallChain, ">") + "]",
	}, "|")
}

// Equal reports whether both columns have the same shape.
func (c *ColumnDescriptor) Equal(o *ColumnDescriptor) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.Name != o.Name || c.DBColumnName() != o.DBColumnName() || c.Kind != o.Kind {
		return false
	}
	if len(c.CallChain) != len(o.CallChain) {
		return false
	}
	for i := range c.CallChain {
		if c.CallChain[i] != o.CallChain[i] {
			return false
		}
	}
	return c.Params.Equal(o.Params)
}

func (c *ColumnDescriptor) Validate() error {
	if c.Name == "" {
		return errors.New("column name cannot be empty")
	}
	if len(c.CallChain) > MaxJoinChain {
		return fmt.Errorf("column %s: %w", c.Name, ErrJoinChainTooLong)
	}
	if err := c.Kind.Validate(c.Params); err != nil {
		return fmt.Errorf("column %s: %w", c.Name, err)
	}
	return nil
}

// Identity is the key tables are matched by across two schemas.
type Identity struct {
	ClassName   string
	StorageName string
}

// TableDescriptor is the comparable shape of a table. Descriptors are not
// modified after construction; use WithClassName to re-key one.
type TableDescriptor struct {
	ClassName   string
	StorageName string
	Columns     []*ColumnDescriptor
}

// NewTable builds a table descriptor.
func NewTable(className, storageName string, cols ...*ColumnDescriptor) *TableDescriptor {
	return &TableDescriptor{ClassName: className, StorageName: storageName, Columns: cols}
}

func (t *TableDescriptor) Identity() Identity {
	return Identity{ClassName: t.ClassName, StorageName: t.StorageName}
}

// Column returns the column with the given name, or nil.
func (t *TableDescriptor) Column(name string) *ColumnDescriptor {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// SharesColumnWith reports whether both tables have at least one column
// storage name in common.
func (t *TableDescriptor) SharesColumnWith(o *TableDescriptor) bool {
	names := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		names[c.DBColumnName()] = struct{}{}
	}
	for _, c := range o.Columns {
		if _, ok := names[c.DBColumnName()]; ok {
			return true
		}
	}
	return false
}

// WithClassName returns a copy of t registered under another class name.
func (t *TableDescriptor) WithClassName(className string) *TableDescriptor {
	cols := make([]*ColumnDescriptor, len(t.Columns))
	copy(cols, t.Columns)
	return &TableDescriptor{ClassName: className, StorageName: t.StorageName, Columns: cols}
}

// Signature is a deterministic text form of the whole table.
func (t *TableDescriptor) Signature() string {
	parts := make([]string, 0, len(t.Columns)+1)
	parts = append(parts, strconv.Quote(t.ClassName)+"|"+strconv.Quote(t.StorageName))
	for _, c := range t.Columns {
		parts = append(parts, c.signature())
	}
	return strings.Join(parts, ";")
}

// Hash returns the hex sha256 of the table signature.
func (t *TableDescriptor) Hash() string {
	sum := sha256.Sum256([]byte(t.Signature()))
	return hex.EncodeToString(sum[:])
}

// Equal reports whether both tables have the same identity and columns.
func (t *TableDescriptor) Equal(o *TableDescriptor) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Identity() != o.Identity() || len(t.Columns) != len(o.Columns) {
		return false
	}
	for i := range t.Columns {
		if !t.Columns[i].Equal(o.Columns[i]) {
			return false
		}
	}
	return true
}

func (t *TableDescriptor) Validate() error {
	if t.ClassName == "" {
		return errors.New("table class name cannot be empty")
	}
	if t.StorageName == "" {
		return fmt.Errorf("table %s: storage name cannot be empty", t.ClassName)
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if c == nil {
			return fmt.Errorf("table %s: nil column", t.ClassName)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("table %s: %w", t.ClassName, err)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("table %s: duplicate column %s", t.ClassName, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// ValidateAll validates every table and checks that class names are unique.
func ValidateAll(tables []*TableDescriptor) error {
	seen := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		if t == nil {
			return errors.New("nil table descriptor")
		}
		if err := t.Validate(); err != nil {
			return err
		}
		if _, dup := seen[t.ClassName]; dup {
			return fmt.Errorf("duplicate table class name %s", t.ClassName)
		}
		seen[t.ClassName] = struct{}{}
	}
	return nil
}

// Difference returns the tables of a whose identity does not appear in b,
// keeping the order of a.
func Difference(a, b []*TableDescriptor) []*TableDescriptor {
	present := make(map[Identity]struct{}, len(b))
	for _, t := range b {
		present[t.Identity()] = struct{}{}
	}
	out := make([]*TableDescriptor, 0)
	for _, t := range a {
		if _, ok := present[t.Identity()]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// IndexByClassName maps class names to tables.
func IndexByClassName(tables []*TableDescriptor) map[string]*TableDescriptor {
	out := make(map[string]*TableDescriptor, len(tables))
	for _, t := range tables {
		out[t.ClassName] = t
	}
	return out
}

// Checksum returns the hex sha256 over the hashes of tables, in order.
func Checksum(tables []*TableDescriptor) string {
	h := sha256.New()
	for _, t := range tables {
		h.Write([]byte(t.Hash()))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
