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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/tomoncle/automigrate/schema"
)

// Store keeps the schema of the latest migration of each app.
type Store interface {
	// Load returns the latest stored schema of app, or ErrNoSnapshot.
	Load(ctx context.Context, app string) ([]*schema.TableDescriptor, error)
	// Save stores tables as the schema of migration id.
	Save(ctx context.Context, app, id string, tables []*schema.TableDescriptor) error
}

// Meta describes the migration a snapshot is saved for.
type Meta struct {
	Name       string
	Statements int
	// Summary counts the statements of each category by label.
	Summary map[string]int
}

// Recorder is a Store that also keeps migration metadata.
type Recorder interface {
	Store
	Record(ctx context.Context, app, id string, meta Meta, tables []*schema.TableDescriptor) error
}

const fileExt = ".yaml"

// FileStore writes one YAML document per migration to <dir>/<app>/<id>.yaml.
type FileStore struct {
	fs  afero.Fs
	dir string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(fs afero.Fs, dir string) *FileStore {
	return &FileStore{fs: fs, dir: dir}
}

// IDs lists the stored migration ids of app in ascending order.
func (s *FileStore) IDs(_ context.Context, app string) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, filepath.Join(s.dir, app))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Load(ctx context.Context, app string) ([]*schema.TableDescriptor, error) {
	ids, err := s.IDs(ctx, app)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoSnapshot
	}
	doc, err := ReadFile(s.fs, s.path(app, ids[len(ids)-1]))
	if err != nil {
		return nil, err
	}
	return doc.Descriptors()
}

func (s *FileStore) Save(_ context.Context, app, id string, tables []*schema.TableDescriptor) error {
	if err := s.fs.MkdirAll(filepath.Join(s.dir, app), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return WriteFile(s.fs, s.path(app, id), NewDocument(app, id, tables))
}

// Forget removes the snapshot of migration id.
func (s *FileStore) Forget(_ context.Context, app, id string) error {
	path := s.path(app, id)
	if ok, _ := afero.Exists(s.fs, path); !ok {
		return fmt.Errorf("migration %s: %w", id, ErrNoSnapshot)
	}
	if err := s.fs.Remove(path); err != nil {
		return fmt.Errorf("failed to remove snapshot %s: %w", path, err)
	}
	return nil
}

func (s *FileStore) path(app, id string) string {
	return filepath.Join(s.dir, app, id+fileExt)
}

// ReadFile reads a document from path.
func ReadFile(fs afero.Fs, path string) (*Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	return Unmarshal(data)
}

// WriteFile writes doc to path as YAML.
func WriteFile(fs afero.Fs, path string, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}
