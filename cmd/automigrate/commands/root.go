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
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tomoncle/automigrate/database"
	"github.com/tomoncle/automigrate/differ"
	"github.com/tomoncle/automigrate/schema"
	"github.com/tomoncle/automigrate/snapshot"
	"github.com/tomoncle/automigrate/utils"
)

// Set at build time with -ldflags "-X ...".
var (
	Version = "dev"
	Commit  = "none"
)

// cli carries the state shared by every subcommand of one root command.
type cli struct {
	fs         afero.Fs
	configFile string
	logLevel   string
	app        string
	config     *database.Config
	logger     database.Logger
}

// Execute runs the root command against the real filesystem.
func Execute() error {
	return NewRootCommand(afero.NewOsFs()).Execute()
}

// NewRootCommand builds the command tree. Files are read from and written
// to fs.
func NewRootCommand(fs afero.Fs) *cobra.Command {
	c := &cli{fs: fs, logger: database.GetLogger()}

	root := &cobra.Command{
		Use:   "automigrate",
		Short: "Generate schema migrations from schema snapshots",
		Long: `automigrate compares the current schema of an app with the snapshot left by
its latest migration and generates the statements that migrate one into the
other. Snapshots are kept as YAML files, or in the database when a connection
is configured.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			if c.logLevel != "" {
				utils.ConfigureLogLevel(c.logLevel)
			}
			cfg, err := LoadConfig(c.fs, c.configFile)
			if err != nil {
				return err
			}
			if c.app != "" {
				cfg.Migration.App = c.app
			}
			c.config = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "config file (default .automigrate.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVarP(&c.app, "app", "a", "", "app the migrations belong to")

	root.AddCommand(
		newDiffCommand(c),
		newMakeCommand(c),
		newHistoryCommand(c),
		newForgetCommand(c),
		newVersionCommand(),
	)
	return root
}

// openStore returns the history store when a connection is configured and
// the file store otherwise. The returned func releases the store.
func (c *cli) openStore(ctx context.Context) (snapshot.Store, func(), error) {
	if c.config.Connection.Type == "" {
		return snapshot.NewFileStore(c.fs, c.config.Migration.SnapshotDir), func() {}, nil
	}
	db, err := database.InitDB(ctx, &c.config.Connection)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := database.CloseDB(); err != nil {
			c.logger.Warn("Failed to close database", "error", err)
		}
	}
	store := database.NewHistoryStore(db, c.logger)
	if err := store.Init(ctx); err != nil {
		closeDB()
		return nil, nil, err
	}
	return store, closeDB, nil
}

// readSchema reads the tables of a snapshot document.
func (c *cli) readSchema(path string) ([]*schema.TableDescriptor, error) {
	doc, err := snapshot.ReadFile(c.fs, path)
	if err != nil {
		return nil, err
	}
	return doc.Descriptors()
}

// inputFlags selects how rename prompts are answered.
type inputFlags struct {
	autoInput string
	plain     bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.autoInput, "auto-input", "", "answer every rename prompt with this value, e.g. y")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "read rename answers line by line from stdin")
}

func (f *inputFlags) options(cmd *cobra.Command) []differ.Option {
	opts := []differ.Option{differ.WithOutput(cmd.OutOrStdout())}
	switch {
	case cmd.Flags().Changed("auto-input"):
		opts = append(opts, differ.WithAutoInput(f.autoInput))
	case f.plain:
		opts = append(opts, differ.WithInput(differ.ReaderInput(cmd.InOrStdin(), cmd.OutOrStdout())))
	default:
		opts = append(opts, differ.WithInput(differ.SurveyInput()))
	}
	return opts
}

var labelColors = map[string]*color.Color{
	differ.LabelCreateTables:    color.New(color.FgGreen),
	differ.LabelNewTableColumns: color.New(color.FgGreen),
	differ.LabelAddColumns:      color.New(color.FgGreen),
	differ.LabelDropTables:      color.New(color.FgRed),
	differ.LabelDropColumns:     color.New(color.FgRed),
	differ.LabelRenameTables:    color.New(color.FgYellow),
	differ.LabelRenameColumns:   color.New(color.FgYellow),
	differ.LabelAlterColumns:    color.New(color.FgCyan),
}

// printStatements writes the statements of every non-empty group under a
// comment naming its category.
func printStatements(w io.Writer, groups []differ.AlterStatements) {
	title := color.New(color.Bold)
	for _, g := range groups {
		if g.Empty() {
			continue
		}
		title.Fprintf(w, "\n// %s\n", g.Label)
		c, ok := labelColors[g.Label]
		if !ok {
			c = color.New(color.Reset)
		}
		for _, st := range g.Statements {
			c.Fprintln(w, st)
		}
	}
}

// printTable renders rows under headers.
func printTable(w io.Writer, headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func warn(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(w, format+"\n", args...)
}

func success(w io.Writer, format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(w, format+"\n", args...)
}

func init() {
	if os.Getenv("NO_COLOR") != "" {
		pterm.DisableColor()
	}
}
