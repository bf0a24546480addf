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

package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/tomoncle/automigrate/columns"
	"github.com/tomoncle/automigrate/columns/params"
	"github.com/tomoncle/automigrate/schema"
)

// Version is written into every new document.
const Version = "1.0"

var (
	ErrNoSnapshot         = errors.New("no snapshot found")
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

var supportedVersions = version.MustConstraints(version.NewConstraint(">= 1.0, < 2.0"))

// Document is the stored form of a schema.
type Document struct {
	Version     string  `json:"version" yaml:"version"`
	App         string  `json:"app,omitempty" yaml:"app,omitempty"`
	MigrationID string  `json:"migration_id,omitempty" yaml:"migration_id,omitempty"`
	Tables      []Table `json:"tables" yaml:"tables"`
}

type Table struct {
	ClassName string   `json:"class_name" yaml:"class_name"`
	Tablename string   `json:"tablename" yaml:"tablename"`
	Columns   []Column `json:"columns" yaml:"columns"`
}

type Column struct {
	Name         string                    `json:"name" yaml:"name"`
	DBColumnName string                    `json:"db_column_name,omitempty" yaml:"db_column_name,omitempty"`
	Kind         string                    `json:"kind" yaml:"kind"`
	Params       map[string]params.Encoded `json:"params,omitempty" yaml:"params,omitempty"`
	CallChain    []string                  `json:"call_chain,omitempty" yaml:"call_chain,omitempty"`
}

// NewDocument captures tables into a document.
func NewDocument(app, migrationID string, tables []*schema.TableDescriptor) *Document {
	doc := &Document{Version: Version, App: app, MigrationID: migrationID, Tables: make([]Table, 0, len(tables))}
	for _, t := range tables {
		table := Table{ClassName: t.ClassName, Tablename: t.StorageName, Columns: make([]Column, 0, len(t.Columns))}
		for _, c := range t.Columns {
			column := Column{
				Name:      c.Name,
				Kind:      c.Kind.Name(),
				Params:    c.Params.Encode(),
				CallChain: c.CallChain,
			}
			if c.DBColumnName() != c.Name {
				column.DBColumnName = c.DBColumnName()
			}
			table.Columns = append(table.Columns, column)
		}
		doc.Tables = append(doc.Tables, table)
	}
	return doc
}

// Descriptors rebuilds the tables of the document.
func (d *Document) Descriptors() ([]*schema.TableDescriptor, error) {
	out := make([]*schema.TableDescriptor, 0, len(d.Tables))
	for _, t := range d.Tables {
		table := schema.NewTable(t.ClassName, t.Tablename)
		for _, c := range t.Columns {
			kind, err := columns.ParseKind(c.Kind)
			if err != nil {
				return nil, fmt.Errorf("table %s column %s: %w", t.ClassName, c.Name, err)
			}
			ps, err := params.DecodeMap(c.Params)
			if err != nil {
				return nil, fmt.Errorf("table %s column %s: %w", t.ClassName, c.Name, err)
			}
			col := schema.NewColumn(c.Name, kind, ps)
			if c.DBColumnName != "" {
				col.StorageName = c.DBColumnName
			}
			col.CallChain = c.CallChain
			table.Columns = append(table.Columns, col)
		}
		out = append(out, table)
	}
	return out, nil
}

func (d *Document) checkVersion() error {
	v, err := version.NewVersion(d.Version)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrUnsupportedVersion, d.Version, err)
	}
	if !supportedVersions.Check(v) {
		return fmt.Errorf("%w %q", ErrUnsupportedVersion, d.Version)
	}
	return nil
}

// Marshal encodes the document as YAML.
func Marshal(d *Document) ([]byte, error) {
	return yaml.Marshal(d)
}

// MarshalJSON encodes the document as JSON.
func MarshalJSON(d *Document) ([]byte, error) {
	return json.Marshal(d)
}

// Unmarshal decodes a YAML or JSON document and checks its version.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if err := doc.checkVersion(); err != nil {
		return nil, err
	}
	return &doc, nil
}
