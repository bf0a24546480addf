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
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/automigrate/columns"
	"github.com/tomoncle/automigrate/columns/params"
	"github.com/tomoncle/automigrate/operations"
	"github.com/tomoncle/automigrate/schema"
	"github.com/tomoncle/automigrate/utils"
)

type scriptedInput struct {
	answers []string
	prompts []string
}

func (s *scriptedInput) input(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		return "", nil
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func failingInput(t *testing.T) InputFunc {
	return func(prompt string) (string, error) {
		t.Errorf("unexpected prompt: %s", prompt)
		return "", nil
	}
}

func col(name string) *schema.ColumnDescriptor {
	return schema.NewColumn(name, columns.Varchar, params.Map{columns.ParamLength: params.Int(255)})
}

func table(className, storageName string, cols ...*schema.ColumnDescriptor) *schema.TableDescriptor {
	return schema.NewTable(className, storageName, cols...)
}

func tables(ts ...*schema.TableDescriptor) []*schema.TableDescriptor { return ts }

func newDiffer(t *testing.T, current, snapshot []*schema.TableDescriptor, opts ...Option) *SchemaDiffer {
	t.Helper()
	d, err := New(current, snapshot, append([]Option{WithOutput(io.Discard)}, opts...)...)
	require.NoError(t, err)
	return d
}

func statementsByLabel(t *testing.T, d *SchemaDiffer) map[string][]string {
	t.Helper()
	groups, err := d.GetAlterStatements()
	require.NoError(t, err)
	out := make(map[string][]string, len(groups))
	for _, g := range groups {
		out[g.Label] = g.Statements
	}
	return out
}

func assertOnlyCategory(t *testing.T, got map[string][]string, label string, count int) {
	t.Helper()
	for l, statements := range got {
		if l == label {
			assert.Len(t, statements, count, l)
		} else {
			assert.Empty(t, statements, l)
		}
	}
}

func TestIdenticalSchemasProduceNoStatements(t *testing.T) {
	band := table("Band", "band", col("name"), schema.NewColumn("popularity", columns.Integer, nil))
	manager := table("Manager", "manager", col("name"))

	d := newDiffer(t, tables(band, manager), tables(band, manager), WithInput(failingInput(t)))
	for label, statements := range statementsByLabel(t, d) {
		assert.Empty(t, statements, label)
	}
}

func TestAddColumnToExistingTable(t *testing.T) {
	d := newDiffer(t,
		tables(table("A", "a", col("x"), col("y"))),
		tables(table("A", "a", col("x"))),
		WithInput(failingInput(t)),
	)

	got := statementsByLabel(t, d)
	assertOnlyCategory(t, got, LabelAddColumns, 1)
	assert.Equal(t,
		`manager.AddColumn(operations.AddColumn{TableClassName: "A", Tablename: "a", ColumnName: "y", DBColumnName: "y", `+
			`ColumnClassName: "Varchar", ColumnClass: columns.Varchar, Params: params.Map{"length": params.Int(255)}})`,
		got[LabelAddColumns][0])
}

func TestSameClassNameRenameIsAutomatic(t *testing.T) {
	d := newDiffer(t,
		tables(table("A", "b", col("x"))),
		tables(table("A", "a", col("x"))),
		WithInput(failingInput(t)),
	)

	got := statementsByLabel(t, d)
	assertOnlyCategory(t, got, LabelRenameTables, 1)
	assert.Equal(t,
		`manager.RenameTable(operations.RenameTable{OldClassName: "A", OldTablename: "a", NewClassName: "A", NewTablename: "b"})`,
		got[LabelRenameTables][0])
}

func TestSameClassNameRenameWinsOverEarlierCandidate(t *testing.T) {
	d := newDiffer(t,
		tables(table("Artist", "artist", col("x")), table("Band", "bands", col("x"))),
		tables(table("Band", "band", col("x"))),
		WithInput(failingInput(t)),
	)

	got := statementsByLabel(t, d)
	assert.Equal(t, []string{
		`manager.RenameTable(operations.RenameTable{OldClassName: "Band", OldTablename: "band", NewClassName: "Band", NewTablename: "bands"})`,
	}, got[LabelRenameTables])
	assert.Equal(t, []string{`manager.AddTable(operations.AddTable{ClassName: "Artist", Tablename: "artist"})`}, got[LabelCreateTables])
	assert.Empty(t, got[LabelDropTables])
}

func TestDifferentClassNameRenameNeedsConfirmation(t *testing.T) {
	current := tables(table("B", "b", col("x")))
	snapshot := tables(table("A", "a", col("x")))

	t.Run("confirmed", func(t *testing.T) {
		in := &scriptedInput{answers: []string{"y"}}
		d := newDiffer(t, current, snapshot, WithInput(in.input))

		require.Equal(t, []string{"Did you rename A (tablename: a) to B (tablename: b)? (y/N)"}, in.prompts)
		got := statementsByLabel(t, d)
		assertOnlyCategory(t, got, LabelRenameTables, 1)
		assert.Contains(t, got[LabelRenameTables][0], `OldClassName: "A"`)
		assert.Contains(t, got[LabelRenameTables][0], `NewClassName: "B"`)
	})

	t.Run("declined", func(t *testing.T) {
		d := newDiffer(t, current, snapshot, WithAutoInput("n"))

		got := statementsByLabel(t, d)
		assert.Empty(t, got[LabelRenameTables])
		require.Len(t, got[LabelCreateTables], 1)
		assert.Contains(t, got[LabelCreateTables][0], `ClassName: "B"`)
		require.Len(t, got[LabelDropTables], 1)
		assert.Contains(t, got[LabelDropTables][0], `ClassName: "A"`)
		require.Len(t, got[LabelNewTableColumns], 1)
		assert.Contains(t, got[LabelNewTableColumns][0], `TableClassName: "B"`)
	})
}

func TestUnrelatedTablesAreNotOffered(t *testing.T) {
	d := newDiffer(t,
		tables(table("B", "b", col("y"))),
		tables(table("A", "a", col("x"))),
		WithInput(failingInput(t)),
	)
	assert.Equal(t, 0, d.TableRenames().Len())
}

func TestTableSetsArePartitioned(t *testing.T) {
	snapshot := tables(
		table("Band", "band", col("name")),
		table("Venue", "venue", col("address")),
		table("Ticket", "ticket", col("price")),
	)
	current := tables(
		table("Band", "bands", col("name")),
		table("Concert", "concert", col("address")),
		table("Genre", "genre", col("title")),
	)

	d := newDiffer(t, current, snapshot, WithAutoInput("y"))

	var created, renamedTo, dropped, renamedFrom []string
	for _, op := range d.CreateTables().Operations {
		created = append(created, op.(operations.AddTable).ClassName)
	}
	for _, op := range d.DropTables().Operations {
		dropped = append(dropped, op.(operations.DropTable).ClassName)
	}
	for _, op := range d.RenameTables().Operations {
		r := op.(operations.RenameTable)
		renamedTo = append(renamedTo, r.NewClassName)
		renamedFrom = append(renamedFrom, r.OldClassName)
	}

	assert.Equal(t, []string{"Genre"}, created)
	assert.ElementsMatch(t, []string{"Band", "Concert"}, renamedTo)
	assert.ElementsMatch(t, []string{"Band", "Concert", "Genre"}, append(created, renamedTo...))
	assert.Equal(t, []string{"Ticket"}, dropped)
	assert.ElementsMatch(t, []string{"Band", "Venue"}, renamedFrom)
	assert.ElementsMatch(t, []string{"Band", "Venue", "Ticket"}, append(dropped, renamedFrom...))
}

func TestTableClaimedOnce(t *testing.T) {
	in := &scriptedInput{answers: []string{"y", "y"}}
	d := newDiffer(t,
		tables(table("B", "b", col("x")), table("C", "c", col("x"))),
		tables(table("A", "a", col("x"))),
		WithInput(in.input),
	)

	require.Len(t, in.prompts, 1)
	renames := d.TableRenames().Renames()
	require.Len(t, renames, 1)
	assert.Equal(t, "B", renames[0].NewClassName)
	assert.Equal(t, []string{"A"}, d.TableRenames().OldClassNames())
	assert.Equal(t, []string{"B"}, d.TableRenames().NewClassNames())
}

func TestColumnRename(t *testing.T) {
	snapshot := tables(table("Band", "band", col("name"), col("label")))
	current := tables(table("Band", "band", col("title"), col("label")))

	t.Run("confirmed", func(t *testing.T) {
		in := &scriptedInput{answers: []string{"Y "}}
		d := newDiffer(t, current, snapshot, WithInput(in.input))

		assert.Equal(t, []string{"Did you rename the `name` column to `title` on the `Band` table? (y/N)"}, in.prompts)
		got := statementsByLabel(t, d)
		assertOnlyCategory(t, got, LabelRenameColumns, 1)
		assert.Equal(t,
			`manager.RenameColumn(operations.RenameColumn{TableClassName: "Band", Tablename: "band", OldColumnName: "name", NewColumnName: "title", OldDBColumnName: "name", NewDBColumnName: "title"})`,
			got[LabelRenameColumns][0])
	})

	t.Run("declined", func(t *testing.T) {
		d := newDiffer(t, current, snapshot, WithAutoInput("n"))

		got := statementsByLabel(t, d)
		assert.Empty(t, got[LabelRenameColumns])
		require.Len(t, got[LabelAddColumns], 1)
		assert.Contains(t, got[LabelAddColumns][0], `ColumnName: "title"`)
		require.Len(t, got[LabelDropColumns], 1)
		assert.Contains(t, got[LabelDropColumns][0], `ColumnName: "name"`)
	})
}

func TestColumnRenameFirstAffirmativeResolvesTable(t *testing.T) {
	in := &scriptedInput{answers: []string{"n", "y", "y"}}
	d := newDiffer(t,
		tables(table("Band", "band", col("c"), col("d"))),
		tables(table("Band", "band", col("a"), col("b"))),
		WithInput(in.input),
	)

	assert.Equal(t, []string{
		"Did you rename the `a` column to `c` on the `Band` table? (y/N)",
		"Did you rename the `b` column to `c` on the `Band` table? (y/N)",
	}, in.prompts)

	renames := d.ColumnRenames().ForTable("Band")
	require.Len(t, renames, 1)
	assert.Equal(t, "b", renames[0].OldColumnName)
	assert.Equal(t, "c", renames[0].NewColumnName)

	got := statementsByLabel(t, d)
	require.Len(t, got[LabelAddColumns], 1)
	assert.Contains(t, got[LabelAddColumns][0], `ColumnName: "d"`)
	require.Len(t, got[LabelDropColumns], 1)
	assert.Contains(t, got[LabelDropColumns][0], `ColumnName: "a"`)
}

func TestColumnRenameHint(t *testing.T) {
	title := col("title")
	title.RenamedFrom = "name"

	d := newDiffer(t,
		tables(table("Band", "band", col("genre"), title)),
		tables(table("Band", "band", col("label"), col("name"))),
		WithInput(failingInput(t)),
	)

	renames := d.ColumnRenames().Renames()
	require.Len(t, renames, 1)
	assert.Equal(t, "name", renames[0].OldColumnName)
	assert.Equal(t, "title", renames[0].NewColumnName)
}

func TestColumnRenameAcrossTableRename(t *testing.T) {
	d := newDiffer(t,
		tables(table("Group", "group", col("x"), col("z"))),
		tables(table("Band", "band", col("x"), col("y"))),
		WithAutoInput("y"),
	)

	got := statementsByLabel(t, d)
	require.Len(t, got[LabelRenameTables], 1)
	require.Len(t, got[LabelRenameColumns], 1)
	assert.Equal(t,
		`manager.RenameColumn(operations.RenameColumn{TableClassName: "Group", Tablename: "group", OldColumnName: "y", NewColumnName: "z", OldDBColumnName: "y", NewDBColumnName: "z"})`,
		got[LabelRenameColumns][0])
	for _, label := range []string{LabelCreateTables, LabelDropTables, LabelNewTableColumns, LabelAddColumns, LabelDropColumns, LabelAlterColumns} {
		assert.Empty(t, got[label], label)
	}
}

func TestDecliningEverythingProducesNoRenames(t *testing.T) {
	d := newDiffer(t,
		tables(table("Group", "group", col("x"), col("z")), table("Band", "band", col("title"))),
		tables(table("Venue", "venue", col("x"), col("y")), table("Band", "band", col("name"))),
		WithAutoInput(""),
	)

	assert.Equal(t, 0, d.TableRenames().Len())
	assert.Equal(t, 0, d.ColumnRenames().Len())

	got := statementsByLabel(t, d)
	assert.Len(t, got[LabelCreateTables], 1)
	assert.Len(t, got[LabelDropTables], 1)
	assert.Len(t, got[LabelAddColumns], 1)
	assert.Len(t, got[LabelDropColumns], 1)
}

func TestAlterColumns(t *testing.T) {
	d := newDiffer(t,
		tables(table("Band", "band",
			schema.NewColumn("name", columns.Varchar, params.Map{columns.ParamLength: params.Int(100)}),
			schema.NewColumn("popularity", columns.BigInt, nil),
		)),
		tables(table("Band", "band",
			col("name"),
			schema.NewColumn("popularity", columns.Integer, nil),
		)),
		WithInput(failingInput(t)),
	)

	got := statementsByLabel(t, d)
	assertOnlyCategory(t, got, LabelAlterColumns, 2)
	assert.Equal(t,
		`manager.AlterColumn(operations.AlterColumn{TableClassName: "Band", Tablename: "band", ColumnName: "name", DBColumnName: "name", `+
			`Params: params.Map{"length": params.Int(100)}, OldParams: params.Map{"length": params.Int(255)}})`,
		got[LabelAlterColumns][0])
	assert.Contains(t, got[LabelAlterColumns][1], "ColumnClass: columns.BigInt, OldColumnClass: columns.Integer")
}

func TestReferencedTablenameChange(t *testing.T) {
	bandFK := func(tablename string) *schema.ColumnDescriptor {
		return schema.NewColumn("band_id", columns.ForeignKey, params.Map{
			columns.ParamReferences: params.Reference{ClassName: "Band", Tablename: tablename},
		})
	}
	d := newDiffer(t,
		tables(table("Band", "bands", col("name")), table("Concert", "concert", bandFK("bands"))),
		tables(table("Band", "band", col("name")), table("Concert", "concert", bandFK("band"))),
		WithInput(failingInput(t)),
	)

	groups, err := d.GetAlterStatements()
	require.NoError(t, err)
	var alters AlterStatements
	for _, g := range groups {
		assert.Empty(t, g.ExtraDefinitions, g.Label)
		if g.Label == LabelAlterColumns {
			alters = g
		}
	}
	require.Len(t, alters.Statements, 1)
	assert.Contains(t, alters.Statements[0], `Params: params.Map{"references": params.Reference{ClassName: "Band", Tablename: "bands"}}`)
	assert.Contains(t, alters.Statements[0], `OldParams: params.Map{"references": params.Reference{ClassName: "Band", Tablename: "band"}}`)
}

func TestNilParamMatchesNullInSnapshot(t *testing.T) {
	d := newDiffer(t,
		tables(table("Band", "band", schema.NewColumn("label", columns.Varchar, params.Map{columns.ParamDefault: nil}))),
		tables(table("Band", "band", schema.NewColumn("label", columns.Varchar, params.Map{columns.ParamDefault: params.Null{}}))),
		WithInput(failingInput(t)),
	)
	for label, statements := range statementsByLabel(t, d) {
		assert.Empty(t, statements, label)
	}
}

func TestChoicesChangeKeepsBothDefinitions(t *testing.T) {
	genre := func(items ...params.Choice) *schema.ColumnDescriptor {
		return schema.NewColumn("genre", columns.Varchar, params.Map{
			columns.ParamChoices: params.Choices{Name: "Genre", Items: items},
		})
	}
	d := newDiffer(t,
		tables(table("Band", "band", genre(params.Choice{Name: "Jazz", Value: "jazz"}))),
		tables(table("Band", "band", genre(params.Choice{Name: "Rock", Value: "rock"}))),
		WithInput(failingInput(t)),
	)

	groups, err := d.GetAlterStatements()
	require.NoError(t, err)
	require.NoError(t, CheckDefinitions(groups))
	alters := groups[len(groups)-1]
	require.Equal(t, LabelAlterColumns, alters.Label)
	require.Len(t, alters.Statements, 1)
	assert.Contains(t, alters.Statements[0], `Params: params.Map{"choices": Genre_eabc0e7c}, OldParams: params.Map{"choices": Genre_32b72742}`)
	assert.Equal(t, []string{
		`var Genre_eabc0e7c = params.Choices{Name: "Genre", Items: []params.Choice{{Name: "Jazz", Value: "jazz"}}}`,
		`var Genre_32b72742 = params.Choices{Name: "Genre", Items: []params.Choice{{Name: "Rock", Value: "rock"}}}`,
	}, alters.ExtraDefinitions)
}

func TestNewTableColumnsCarryImports(t *testing.T) {
	managerFK := schema.NewColumn("manager", columns.ForeignKey, params.Map{
		columns.ParamReferences: params.Reference{ClassName: "Manager", Tablename: "manager"},
	})
	d := newDiffer(t, tables(table("Band", "band", col("name"), managerFK)), nil)

	group := d.NewTableColumns()
	require.Len(t, group.Statements, 2)
	var paths []string
	for _, imp := range group.ExtraImports {
		paths = append(paths, imp.Path)
	}
	assert.ElementsMatch(t, []string{operations.Path, columns.Path, params.Path}, paths)
	assert.Empty(t, group.ExtraDefinitions)
	assert.Contains(t, group.Statements[1], `params.Map{"references": params.Reference{ClassName: "Manager", Tablename: "manager"}}`)

	rec := &operations.Recorder{}
	group.Apply(rec)
	assert.Len(t, rec.Operations(), 2)
}

func TestSummaryOutput(t *testing.T) {
	var buf bytes.Buffer
	d, err := New(
		tables(table("A", "a", col("x"), col("y"))),
		tables(table("A", "a", col("x"))),
		WithOutput(&buf),
	)
	require.NoError(t, err)

	_, err = d.GetAlterStatements()
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, utils.FixedLengthString(LabelCreateTables, LabelWidth)+" 0", lines[0])
	assert.Equal(t, utils.FixedLengthString(LabelAddColumns, LabelWidth)+" 1", lines[5])
	assert.Equal(t, utils.FixedLengthString(LabelAlterColumns, LabelWidth)+" 0", lines[7])
}

func TestGroupOrder(t *testing.T) {
	d := newDiffer(t, nil, nil)
	groups, err := d.GetAlterStatements()
	require.NoError(t, err)

	var labels []string
	for _, g := range groups {
		labels = append(labels, g.Label)
		assert.True(t, g.Empty())
	}
	assert.Equal(t, []string{
		LabelCreateTables, LabelDropTables, LabelRenameTables, LabelNewTableColumns,
		LabelDropColumns, LabelAddColumns, LabelRenameColumns, LabelAlterColumns,
	}, labels)
}

func TestConflictingImportsFromParams(t *testing.T) {
	a := schema.NewColumn("created", columns.Timestamp, params.Map{
		columns.ParamDefault: params.Func{Path: "github.com/a/defaults", Name: "Now"},
	})
	b := schema.NewColumn("updated", columns.Timestamp, params.Map{
		columns.ParamDefault: params.Func{Path: "github.com/b/defaults", Name: "Now"},
	})
	d := newDiffer(t, tables(table("Band", "band", a, b)), nil)

	groups, err := d.GetAlterStatements()
	assert.Nil(t, groups)
	var conflict *ConflictingImportsError
	require.ErrorAs(t, err, &conflict)
	assert.ErrorIs(t, err, ErrAlterStatements)
	assert.Equal(t,
		"Alter statements contain conflicting extra imports:\n"+
			`    - import "github.com/a/defaults" and import "github.com/b/defaults"`,
		err.Error())
}

func TestJoinChainTooLong(t *testing.T) {
	c := col("name")
	c.CallChain = strings.Split("a,b,c,d,e,f,g,h,i,j,k", ",")

	_, err := New(tables(table("Band", "band", c)), nil, WithOutput(io.Discard))
	assert.ErrorIs(t, err, schema.ErrJoinChainTooLong)
}

func TestInputErrorIsReturned(t *testing.T) {
	boom := errors.New("stdin closed")
	_, err := New(
		tables(table("B", "b", col("x"))),
		tables(table("A", "a", col("x"))),
		WithOutput(io.Discard),
		WithInput(func(string) (string, error) { return "", boom }),
	)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "failed to confirm rename")
}
