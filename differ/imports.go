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

import "github.com/tomoncle/automigrate/columns/params"

// CheckImports makes sure no identifier is bound by two different import
// declarations across all groups. Repeats of the same declaration are fine.
func CheckImports(groups []AlterStatements) error {
	declarations := make(map[string][]params.Import)
	var names []string

	for _, group := range groups {
		for _, imp := range group.ExtraImports {
			name := imp.Name()
			if name == "" {
				continue
			}
			existing, seen := declarations[name]
			if !seen {
				names = append(names, name)
			}
			if containsImport(existing, imp) {
				continue
			}
			declarations[name] = append(existing, imp.Canonical())
		}
	}

	var conflicts [][]params.Import
	for _, name := range names {
		if len(declarations[name]) > 1 {
			conflicts = append(conflicts, declarations[name])
		}
	}
	if len(conflicts) > 0 {
		return &ConflictingImportsError{Conflicts: conflicts}
	}
	return nil
}

func containsImport(list []params.Import, imp params.Import) bool {
	for _, existing := range list {
		if existing.Same(imp) {
			return true
		}
	}
	return false
}
