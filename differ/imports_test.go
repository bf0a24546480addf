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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/automigrate/columns/params"
)

func group(imports ...params.Import) AlterStatements {
	return AlterStatements{ExtraImports: imports}
}

func TestCheckImportsIdenticalDeclarations(t *testing.T) {
	now := params.Import{Path: "github.com/a/defaults", Symbol: "Now"}
	groups := []AlterStatements{group(now, now), group(now), group(params.Import{Path: "github.com/a/defaults", Symbol: "Today", Alias: "defaults"})}
	assert.NoError(t, CheckImports(groups))
}

func TestCheckImportsDifferentModules(t *testing.T) {
	groups := []AlterStatements{
		group(params.Import{Path: "github.com/a/defaults", Symbol: "Now"}),
		group(params.Import{Path: "github.com/b/defaults", Symbol: "Now"}),
	}

	err := CheckImports(groups)
	var conflict *ConflictingImportsError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, "github.com/a/defaults", conflict.Conflicts[0][0].Path)
	assert.Equal(t, "github.com/b/defaults", conflict.Conflicts[0][1].Path)
	assert.ErrorIs(t, err, ErrAlterStatements)
}

func TestCheckImportsDifferentAliasing(t *testing.T) {
	groups := []AlterStatements{
		group(params.Import{Path: "github.com/a/defaults"}),
		group(params.Import{Path: "github.com/a/other", Alias: "defaults"}),
		group(params.Import{Path: "github.com/a/now", Alias: ".", Symbol: "Now"}),
		group(params.Import{Path: "github.com/a/clock", Alias: "Now"}),
	}

	err := CheckImports(groups)
	require.Error(t, err)
	assert.Equal(t,
		"Alter statements contain conflicting extra imports:\n"+
			"    - import \"github.com/a/defaults\" and import defaults \"github.com/a/other\"\n"+
			"    - import . \"github.com/a/now\" and import Now \"github.com/a/clock\"",
		err.Error())
}

func TestCheckImportsIgnoresBlankImports(t *testing.T) {
	groups := []AlterStatements{
		group(params.Import{Path: "github.com/lib/pq", Alias: "_"}),
		group(params.Import{Path: "github.com/go-sql-driver/mysql", Alias: "_"}),
	}
	assert.NoError(t, CheckImports(groups))
}

func TestConflictingImportsErrorListsEveryDeclaration(t *testing.T) {
	err := &ConflictingImportsError{Conflicts: [][]params.Import{{
		{Path: "a/x"}, {Path: "b/x"}, {Path: "c/x"},
	}}}
	assert.Equal(t,
		"Alter statements contain conflicting extra imports:\n"+
			`    - import "a/x", import "b/x" and import "c/x"`,
		err.Error())
}
