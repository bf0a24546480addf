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
	"errors"
	"strings"

	"github.com/tomoncle/automigrate/columns/params"
)

// ErrAlterStatements is the root of errors about a set of generated
// statement groups that cannot be written out.
var ErrAlterStatements = errors.New("invalid alter statements")

// ConflictingImportsError reports names bound by more than one distinct
// import declaration. Each entry of Conflicts lists the competing
// declarations for one name, in the order they were first seen.
type ConflictingImportsError struct {
	Conflicts [][]params.Import
}

func (e *ConflictingImportsError) Error() string {
	var b strings.Builder
	b.WriteString("Alter statements contain conflicting extra imports:")
	for _, group := range e.Conflicts {
		items := make([]string, 0, len(group))
		for _, imp := range group {
			items = append(items, imp.String())
		}
		b.WriteString("\n    - ")
		b.WriteString(humanizeList(items))
	}
	return b.String()
}

func (e *ConflictingImportsError) Unwrap() error { return ErrAlterStatements }

// ConflictingDefinitionsError reports top-level names declared with more
// than one body. Each entry of Conflicts lists the competing definitions for
// one name.
type ConflictingDefinitionsError struct {
	Conflicts [][]string
}

func (e *ConflictingDefinitionsError) Error() string {
	var b strings.Builder
	b.WriteString("Alter statements contain conflicting extra definitions:")
	for _, group := range e.Conflicts {
		b.WriteString("\n    - ")
		b.WriteString(humanizeList(group))
	}
	return b.String()
}

func (e *ConflictingDefinitionsError) Unwrap() error { return ErrAlterStatements }

// humanizeList joins items as "a", "a and b" or "a, b and c".
func humanizeList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
