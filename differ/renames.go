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

import (
	"fmt"

	"github.com/tomoncle/automigrate/operations"
	"github.com/tomoncle/automigrate/schema"
)

// LookupFunc returns the snapshot counterpart of a current table, or nil.
type LookupFunc func(className string) *schema.TableDescriptor

// DetectTableRenames pairs tables that disappeared from oldTables with tables
// that appeared in newTables. A table keeping its class name under a new
// storage name is renamed without asking. Other pairs are only offered when
// they share a column, and need confirmation. Each table takes part in at
// most one rename.
func DetectTableRenames(oldTables, newTables []*schema.TableDescriptor, input InputFunc) (RenameTableCollection, error) {
	return detectTableRenames(oldTables, newTables, input, nopLogger{})
}

func detectTableRenames(oldTables, newTables []*schema.TableDescriptor, input InputFunc, log Logger) (RenameTableCollection, error) {
	var collection RenameTableCollection
	if input == nil {
		input = AutoInput("")
	}

	dropped := schema.Difference(oldTables, newTables)
	created := schema.Difference(newTables, oldTables)
	if len(dropped) == 0 || len(created) == 0 {
		return collection, nil
	}

	claimedOld := make(map[schema.Identity]bool, len(dropped))
	claimedNew := make(map[schema.Identity]bool, len(created))
	claim := func(newTable, oldTable *schema.TableDescriptor) {
		claimedOld[oldTable.Identity()] = true
		claimedNew[newTable.Identity()] = true
		collection.Append(operations.RenameTable{
			OldClassName: oldTable.ClassName,
			OldTablename: oldTable.StorageName,
			NewClassName: newTable.ClassName,
			NewTablename: newTable.StorageName,
		})
	}

	for _, newTable := range created {
		for _, oldTable := range dropped {
			if claimedOld[oldTable.Identity()] || newTable.ClassName != oldTable.ClassName {
				continue
			}
			log.Debug("table storage name changed", "table", newTable.ClassName,
				"from", oldTable.StorageName, "to", newTable.StorageName)
			claim(newTable, oldTable)
			break
		}
	}

	for _, newTable := range created {
		if claimedNew[newTable.Identity()] {
			continue
		}
		for _, oldTable := range dropped {
			if claimedOld[oldTable.Identity()] || !newTable.SharesColumnWith(oldTable) {
				continue
			}
			prompt := fmt.Sprintf("Did you rename %s (tablename: %s) to %s (tablename: %s)? (y/N)",
				oldTable.ClassName, oldTable.StorageName, newTable.ClassName, newTable.StorageName)
			ok, err := input.confirm(prompt)
			if err != nil {
				return RenameTableCollection{}, err
			}
			log.Debug("table rename answered", "from", oldTable.ClassName, "to", newTable.ClassName, "confirmed", ok)
			if ok {
				claim(newTable, oldTable)
				break
			}
		}
	}

	return collection, nil
}

// DetectColumnRenames looks for renamed columns on every current table that
// both gained and lost columns relative to its snapshot. A new column whose
// rename hint names a lost column is renamed without asking; otherwise every
// pair is offered in declaration order. The first rename found on a table
// resolves it.
func DetectColumnRenames(current []*schema.TableDescriptor, lookup LookupFunc, input InputFunc) (RenameColumnCollection, error) {
	return detectColumnRenames(current, lookup, input, nopLogger{})
}

func detectColumnRenames(current []*schema.TableDescriptor, lookup LookupFunc, input InputFunc, log Logger) (RenameColumnCollection, error) {
	var collection RenameColumnCollection
	if input == nil {
		input = AutoInput("")
	}

	for _, table := range current {
		snapshotTable := lookup(table.ClassName)
		if snapshotTable == nil {
			continue
		}
		delta := schema.Diff(table, snapshotTable)
		if len(delta.AddColumns) == 0 || len(delta.DropColumns) == 0 {
			continue
		}

		rename := func(added, dropped *schema.ColumnDescriptor) {
			collection.Append(operations.RenameColumn{
				TableClassName:  table.ClassName,
				Tablename:       table.StorageName,
				OldColumnName:   dropped.Name,
				NewColumnName:   added.Name,
				OldDBColumnName: dropped.DBColumnName(),
				NewDBColumnName: added.DBColumnName(),
			})
		}

		if added, dropped := hintedRename(delta); added != nil {
			log.Debug("column renamed by hint", "table", table.ClassName, "from", dropped.Name, "to", added.Name)
			rename(added, dropped)
			continue
		}

	pairs:
		for _, added := range delta.AddColumns {
			for _, dropped := range delta.DropColumns {
				prompt := fmt.Sprintf("Did you rename the `%s` column to `%s` on the `%s` table? (y/N)",
					dropped.DBColumnName(), added.DBColumnName(), table.ClassName)
				ok, err := input.confirm(prompt)
				if err != nil {
					return RenameColumnCollection{}, err
				}
				log.Debug("column rename answered", "table", table.ClassName,
					"from", dropped.Name, "to", added.Name, "confirmed", ok)
				if ok {
					rename(added, dropped)
					break pairs
				}
			}
		}
	}

	return collection, nil
}

func hintedRename(delta schema.TableDelta) (added, dropped *schema.ColumnDescriptor) {
	for _, a := range delta.AddColumns {
		if a.RenamedFrom == "" {
			continue
		}
		for _, d := range delta.DropColumns {
			if d.Name == a.RenamedFrom {
				return a, d
			}
		}
	}
	return nil, nil
}
