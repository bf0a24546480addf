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

package automigrate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/tomoncle/automigrate/columns/params"
	"github.com/tomoncle/automigrate/database"
	"github.com/tomoncle/automigrate/differ"
	"github.com/tomoncle/automigrate/operations"
	"github.com/tomoncle/automigrate/schema"
	"github.com/tomoncle/automigrate/snapshot"
)

// ErrNoChanges is returned by Commit for a migration without statements.
var ErrNoChanges = errors.New("no changes detected")

// NewMigrationID formats t as a migration id, such as
// 2025-01-02T15:04:05:123456. Ids sort in time order.
func NewMigrationID(t time.Time) string {
	return fmt.Sprintf("%s:%06d", t.Format("2006-01-02T15:04:05"), t.Nanosecond()/int(time.Microsecond))
}

// Migration is the outcome of comparing the current schema with the latest
// snapshot of an app.
type Migration struct {
	ID   string
	App  string
	Name string
	// Groups holds one entry per category, in differ order.
	Groups      []differ.AlterStatements
	Imports     []params.Import
	Definitions []string
	// Tables is the schema the migration leads to.
	Tables []*schema.TableDescriptor
}

// Empty reports whether no category produced a statement.
func (m *Migration) Empty() bool {
	for _, g := range m.Groups {
		if !g.Empty() {
			return false
		}
	}
	return true
}

// Statements returns every statement in order.
func (m *Migration) Statements() []string {
	var out []string
	for _, g := range m.Groups {
		out = append(out, g.Statements...)
	}
	return out
}

// Summary counts the statements of each category.
func (m *Migration) Summary() map[string]int {
	out := make(map[string]int, len(m.Groups))
	for _, g := range m.Groups {
		out[g.Label] = len(g.Statements)
	}
	return out
}

// Replay hands every operation of the migration to mgr, in order.
func (m *Migration) Replay(mgr operations.Manager) {
	for _, g := range m.Groups {
		g.Apply(mgr)
	}
}

// Ident returns the id with everything but letters and digits removed. It
// suffixes the top-level names of the generated source so migrations of one
// app can share a package.
func (m *Migration) Ident() string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, m.ID)
}

// Source renders the migration as a Go file of package pkg. The file holds
// an ID constant and a Forwards function that calls the manager, both named
// after Ident. Definitions are local to Forwards.
func (m *Migration) Source(pkg string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\n", pkg)

	seen := map[params.Import]struct{}{}
	for _, imp := range m.Imports {
		c := imp.Canonical()
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	ident := m.Ident()
	if m.ID != "" {
		fmt.Fprintf(&b, "const ID%s = %q\n\n", ident, m.ID)
	}

	fmt.Fprintf(&b, "func Forwards%s(%s operations.Manager) {\n", ident, operations.ManagerIdent)
	for _, def := range m.Definitions {
		fmt.Fprintf(&b, "\t%s\n", def)
	}
	for _, st := range m.Statements() {
		fmt.Fprintf(&b, "\t%s\n", st)
	}
	b.WriteString("}\n")
	return b.String()
}

// Service creates migrations for one app from the snapshots kept in a store.
type Service struct {
	store      snapshot.Store
	app        string
	differOpts []differ.Option
	logger     database.Logger
	now        func() time.Time
}

type ServiceOption func(*Service)

// WithApp sets the app the service works on. Defaults to "default".
func WithApp(app string) ServiceOption {
	return func(s *Service) {
		if app != "" {
			s.app = app
		}
	}
}

// WithDifferOptions passes opts to every differ the service creates.
func WithDifferOptions(opts ...differ.Option) ServiceOption {
	return func(s *Service) {
		s.differOpts = append(s.differOpts, opts...)
	}
}

func WithLogger(logger database.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now for migration ids.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store snapshot.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		app:    "default",
		logger: database.GetLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// App returns the app the service works on.
func (s *Service) App() string { return s.app }

// Snapshot loads the latest stored schema. An app without snapshots has an
// empty schema.
func (s *Service) Snapshot(ctx context.Context) ([]*schema.TableDescriptor, error) {
	tables, err := s.store.Load(ctx, s.app)
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		s.logger.Debug("No snapshot found, starting from an empty schema", "app", s.app)
		return []*schema.TableDescriptor{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return tables, nil
}

// MakeMigration compares current with the latest snapshot.
func (s *Service) MakeMigration(ctx context.Context, name string, current []*schema.TableDescriptor) (*Migration, error) {
	previous, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	opts := append([]differ.Option{differ.WithLogger(s.logger)}, s.differOpts...)
	d, err := differ.New(current, previous, opts...)
	if err != nil {
		return nil, err
	}
	groups, err := d.GetAlterStatements()
	if err != nil {
		return nil, err
	}

	m := &Migration{
		ID:     NewMigrationID(s.now()),
		App:    s.app,
		Name:   name,
		Groups: groups,
		Tables: current,
	}
	var imports []params.Import
	for _, g := range groups {
		imports = append(imports, g.ExtraImports...)
		for _, def := range g.ExtraDefinitions {
			if !slices.Contains(m.Definitions, def) {
				m.Definitions = append(m.Definitions, def)
			}
		}
	}
	m.Imports = params.UniqueImports(imports)
	sort.SliceStable(m.Imports, func(i, j int) bool {
		return m.Imports[i].String() < m.Imports[j].String()
	})

	s.logger.Info("Migration created", "app", s.app, "id", m.ID, "statements", len(m.Statements()))
	return m, nil
}

// Commit stores the schema of m as the latest snapshot of the app.
func (s *Service) Commit(ctx context.Context, m *Migration) error {
	if m == nil || m.Empty() {
		return ErrNoChanges
	}
	if rec, ok := s.store.(snapshot.Recorder); ok {
		meta := snapshot.Meta{Name: m.Name, Statements: len(m.Statements()), Summary: m.Summary()}
		if err := rec.Record(ctx, m.App, m.ID, meta, m.Tables); err != nil {
			return err
		}
	} else if err := s.store.Save(ctx, m.App, m.ID, m.Tables); err != nil {
		return err
	}
	s.logger.Info("Migration committed", "app", m.App, "id", m.ID)
	return nil
}

