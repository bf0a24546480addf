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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tomoncle/automigrate/repository"
	"github.com/tomoncle/automigrate/schema"
	"github.com/tomoncle/automigrate/snapshot"
	"github.com/tomoncle/automigrate/types"
)

// HistoryTable is the table committed migrations are recorded in.
const HistoryTable = "automigrate_migrations"

// MigrationRecord is one committed migration and the schema it left behind.
type MigrationRecord struct {
	bun.BaseModel `bun:"table:automigrate_migrations"`

	ID         string           `bun:"id,pk,type:varchar(64)"`
	App        string           `bun:"app,notnull,type:varchar(255)"`
	Name       string           `bun:"name,notnull,type:varchar(255)"`
	Snapshot   types.JsonText   `bun:"snapshot,notnull,type:text"`
	Statements int              `bun:"statements,notnull"`
	Summary    types.JsonObject `bun:"summary,type:text"`
	Checksum   string           `bun:"checksum,type:varchar(64)"`
	RunID      uuid.UUID        `bun:"run_id,type:varchar(36)"`
	AppliedAt  time.Time        `bun:"applied_at,notnull"`
}

// HistoryStore records migrations in the database. It implements
// snapshot.Recorder.
type HistoryStore struct {
	db     *bun.DB
	repo   repository.Repository[MigrationRecord]
	logger Logger
}

var _ snapshot.Recorder = (*HistoryStore)(nil)

func NewHistoryStore(db *bun.DB, logger Logger) *HistoryStore {
	if logger == nil {
		logger = GetLogger()
	}
	return &HistoryStore{
		db:     db,
		repo:   repository.NewRepository[MigrationRecord](db),
		logger: logger,
	}
}

// Init creates the history table if it does not exist.
func (s *HistoryStore) Init(ctx context.Context) error {
	if s.db == nil {
		return ErrNotConnected
	}
	_, err := s.db.NewCreateTable().
		Model((*MigrationRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// Load returns the schema recorded by the latest migration of app.
func (s *HistoryStore) Load(ctx context.Context, app string) ([]*schema.TableDescriptor, error) {
	rec, err := s.Latest(ctx, app)
	if err != nil {
		return nil, err
	}
	doc, err := snapshot.Unmarshal(rec.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("migration %s: %w", rec.ID, err)
	}
	return doc.Descriptors()
}

// Latest returns the record with the greatest id of app.
func (s *HistoryStore) Latest(ctx context.Context, app string) (*MigrationRecord, error) {
	rec, err := s.repo.First(ctx, types.NewQueryFilter("app = ?", app), "id DESC")
	if err != nil {
		if is, kind := IsSqlError(err); is && (kind == NoRowsErr || kind == NoTableErr) {
			return nil, snapshot.ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to load latest migration: %w", err)
	}
	return rec, nil
}

func (s *HistoryStore) Save(ctx context.Context, app, id string, tables []*schema.TableDescriptor) error {
	return s.Record(ctx, app, id, snapshot.Meta{}, tables)
}

// Record stores the schema of migration id together with meta.
func (s *HistoryStore) Record(ctx context.Context, app, id string, meta snapshot.Meta, tables []*schema.TableDescriptor) error {
	data, err := snapshot.MarshalJSON(snapshot.NewDocument(app, id, tables))
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	summary := types.JsonObject{}
	for label, count := range meta.Summary {
		summary[label] = count
	}
	rec := &MigrationRecord{
		ID:         id,
		App:        app,
		Name:       meta.Name,
		Snapshot:   data,
		Statements: meta.Statements,
		Summary:    summary,
		Checksum:   schema.Checksum(tables),
		RunID:      uuid.New(),
		AppliedAt:  time.Now().UTC(),
	}

	err = s.repo.RunInTx(ctx, func(ctx context.Context, tx *bun.Tx) error {
		return s.repo.CreateWithTx(ctx, tx, rec)
	})
	if err != nil {
		if is, kind := IsSqlError(err); is && kind == DuplicateKeyErr {
			return fmt.Errorf("migration %s is already recorded: %w", id, err)
		}
		return fmt.Errorf("failed to record migration %s: %w", id, err)
	}
	s.logger.Info("Migration recorded", "app", app, "id", id, "name", meta.Name, "statements", meta.Statements)
	return nil
}

// Get returns the record with the given id.
func (s *HistoryStore) Get(ctx context.Context, id string) (*MigrationRecord, error) {
	rec, err := s.repo.GetOne(ctx, id)
	if err != nil {
		if is, kind := IsSqlError(err); is && kind == NoRowsErr {
			return nil, fmt.Errorf("migration %s: %w", id, snapshot.ErrNoSnapshot)
		}
		return nil, err
	}
	return rec, nil
}

// History pages the records of app, newest first.
func (s *HistoryStore) History(ctx context.Context, app string, page, pageSize int) (*types.Pagination[MigrationRecord], error) {
	req := types.NewPageRequest(page, pageSize, types.NewQueryFilter("app = ?", app), []string{"id DESC"})
	return s.repo.Page(ctx, req)
}

// Forget deletes the record with the given id.
func (s *HistoryStore) Forget(ctx context.Context, id string) error {
	exists, err := s.repo.Exists(ctx, types.NewQueryFilter("id = ?", id))
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("migration %s: %w", id, snapshot.ErrNoSnapshot)
	}
	return s.repo.RunInTx(ctx, func(ctx context.Context, tx *bun.Tx) error {
		return s.repo.DeleteWithTx(ctx, tx, id)
	})
}

// IsNoSnapshot reports whether err means no migration has been recorded.
func IsNoSnapshot(err error) bool {
	return errors.Is(err, snapshot.ErrNoSnapshot)
}
