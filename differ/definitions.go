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
	"slices"
	"strings"
)

// CheckDefinitions makes sure no top-level name is declared with two
// different bodies across all groups. Repeats of the same definition are
// fine.
func CheckDefinitions(groups []AlterStatements) error {
	bodies := make(map[string][]string)
	var names []string

	for _, group := range groups {
		for _, def := range group.ExtraDefinitions {
			name := definitionName(def)
			if name == "" {
				continue
			}
			existing, seen := bodies[name]
			if !seen {
				names = append(names, name)
			}
			if slices.Contains(existing, def) {
				continue
			}
			bodies[name] = append(existing, def)
		}
	}

	var conflicts [][]string
	for _, name := range names {
		if len(bodies[name]) > 1 {
			conflicts = append(conflicts, bodies[name])
		}
	}
	if len(conflicts) > 0 {
		return &ConflictingDefinitionsError{Conflicts: conflicts}
	}
	return nil
}

// definitionName returns the identifier declared by a "var Name = ..." or
// "const Name = ..." definition.
func definitionName(def string) string {
	for _, keyword := range []string{"var ", "const "} {
		if rest, ok := strings.CutPrefix(def, keyword); ok {
			name, _, _ := strings.Cut(strings.TrimSpace(rest), " ")
			return name
		}
	}
	return ""
}
