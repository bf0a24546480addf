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
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomoncle/automigrate/database"
	"github.com/tomoncle/automigrate/snapshot"
	"github.com/tomoncle/automigrate/utils"
)

func newHistoryCommand(c *cli) *cobra.Command {
	var page, size int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the recorded migrations of the app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			app := c.config.Migration.App

			store, release, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer release()

			switch s := store.(type) {
			case *database.HistoryStore:
				result, err := s.History(ctx, app, page, size)
				if err != nil {
					return err
				}
				if result.Total == 0 {
					warn(out, "No migrations recorded for %s", app)
					return nil
				}
				rows := make([][]string, 0, len(result.Items))
				for _, rec := range result.Items {
					checksum := rec.Checksum
					if len(checksum) > 12 {
						checksum = checksum[:12]
					}
					rows = append(rows, []string{rec.ID, rec.Name, strconv.Itoa(rec.Statements), checksum, utils.Timestamp(rec.AppliedAt.Local())})
				}
				if err := printTable(out, []string{"ID", "Name", "Statements", "Checksum", "Applied"}, rows); err != nil {
					return err
				}
				fmt.Fprintf(out, "Page %d of %d, %d migrations\n", result.Page, result.TotalPages(), result.Total)
			case *snapshot.FileStore:
				ids, err := s.IDs(ctx, app)
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					warn(out, "No migrations recorded for %s", app)
					return nil
				}
				rows := make([][]string, 0, len(ids))
				for i := len(ids) - 1; i >= 0; i-- {
					rows = append(rows, []string{ids[i]})
				}
				if err := printTable(out, []string{"ID"}, rows); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page of the database history")
	cmd.Flags().IntVar(&size, "size", 20, "migrations per page of the database history")
	return cmd
}

func newForgetCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <id>",
		Short: "Remove a recorded migration so that its changes are detected again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id := args[0]

			store, release, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer release()

			switch s := store.(type) {
			case *database.HistoryStore:
				err = s.Forget(ctx, id)
			case *snapshot.FileStore:
				err = s.Forget(ctx, c.config.Migration.App, id)
			}
			if err != nil {
				return err
			}
			if err := c.removeSource(c.config.Migration.App, id); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Forgot migration %s", id)
			return nil
		},
	}
}
