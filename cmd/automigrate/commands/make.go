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

package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tomoncle/automigrate"
	"github.com/tomoncle/automigrate/database"
)

func newMakeCommand(c *cli) *cobra.Command {
	var (
		schemaFile  string
		foreignKeys string
		pkg         string
		dryRun      bool
		input       inputFlags
	)
	cmd := &cobra.Command{
		Use:   "make [name]",
		Short: "Create a migration from the current schema",
		Long: `Compare the schema document given by --schema with the latest snapshot of the
app, print the statements and record the new snapshot. The migration is also
written as a Go source file next to the file snapshots.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			name := "auto"
			if len(args) == 1 {
				name = args[0]
			}

			tables, err := c.readSchema(schemaFile)
			if err != nil {
				return err
			}
			if foreignKeys == "" {
				foreignKeys = c.config.Migration.ForeignKeyFile
			}
			if foreignKeys != "" {
				fkm, err := database.LoadForeignKeyManager(c.fs, foreignKeys, c.logger)
				if err != nil {
					return err
				}
				if err := fkm.ApplyForeignKeys(tables); err != nil {
					return err
				}
			}

			store, release, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer release()

			svc := automigrate.NewService(store,
				automigrate.WithApp(c.config.Migration.App),
				automigrate.WithLogger(c.logger),
				automigrate.WithDifferOptions(input.options(cmd)...),
			)
			m, err := svc.MakeMigration(ctx, name, tables)
			if err != nil {
				return err
			}
			if m.Empty() {
				warn(out, "No changes detected")
				return nil
			}
			printStatements(out, m.Groups)
			if dryRun {
				return nil
			}

			if err := svc.Commit(ctx, m); err != nil {
				if errors.Is(err, automigrate.ErrNoChanges) {
					warn(out, "No changes detected")
					return nil
				}
				return err
			}
			path, err := c.writeSource(m, pkg)
			if err != nil {
				return err
			}

			success(out, "\nCreated migration %s", m.ID)
			rows := make([][]string, 0, len(m.Groups))
			for _, g := range m.Groups {
				if !g.Empty() {
					rows = append(rows, []string{g.Label, strconv.Itoa(len(g.Statements))})
				}
			}
			if err := printTable(out, []string{"Category", "Statements"}, rows); err != nil {
				return err
			}
			fmt.Fprintf(out, "Source: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&schemaFile, "schema", "s", "", "schema document describing the current models")
	cmd.Flags().StringVar(&foreignKeys, "foreign-keys", "", "YAML file of foreign keys to apply to the schema")
	cmd.Flags().StringVar(&pkg, "package", "migrations", "package of the generated source file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the statements without recording the migration")
	_ = cmd.MarkFlagRequired("schema")
	input.register(cmd)
	return cmd
}

// writeSource writes the migration as <snapshot_dir>/<app>/<file>.go.
func (c *cli) writeSource(m *automigrate.Migration, pkg string) (string, error) {
	dir := filepath.Join(c.config.Migration.SnapshotDir, m.App)
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create migration directory: %w", err)
	}
	path := filepath.Join(dir, migrationFileName(m.App, m.ID))
	if err := afero.WriteFile(c.fs, path, []byte(m.Source(pkg)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write migration %s: %w", path, err)
	}
	return path, nil
}

// removeSource deletes the Go file written for a migration, if any.
func (c *cli) removeSource(app, id string) error {
	path := filepath.Join(c.config.Migration.SnapshotDir, app, migrationFileName(app, id))
	if err := c.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove migration %s: %w", path, err)
	}
	return nil
}
