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
	"github.com/spf13/cobra"

	"github.com/tomoncle/automigrate/differ"
	"github.com/tomoncle/automigrate/schema"
)

func newDiffCommand(c *cli) *cobra.Command {
	var (
		from, to string
		input    inputFlags
	)
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two schema documents",
		Long: `Print the statements that migrate the schema in --from into the schema in
--to. Without --from the schema is compared with an empty one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := c.readSchema(to)
			if err != nil {
				return err
			}
			previous := []*schema.TableDescriptor{}
			if from != "" {
				if previous, err = c.readSchema(from); err != nil {
					return err
				}
			}

			d, err := differ.New(current, previous, append(input.options(cmd), differ.WithLogger(c.logger))...)
			if err != nil {
				return err
			}
			groups, err := d.GetAlterStatements()
			if err != nil {
				return err
			}
			printStatements(cmd.OutOrStdout(), groups)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "schema document to migrate from")
	cmd.Flags().StringVar(&to, "to", "", "schema document to migrate to")
	_ = cmd.MarkFlagRequired("to")
	input.register(cmd)
	return cmd
}
