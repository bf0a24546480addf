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

package params

import (
	"fmt"
	"strings"
	"unicode"
)

// Path is the import path of this package as referenced by generated code.
const Path = "github.com/tomoncle/automigrate/columns/params"

// Import is a package that generated migration source needs in scope.
// Symbol names the exported identifier the statement refers to through the
// import; it only affects the bound name of dot imports.
type Import struct {
	Path   string `json:"path" yaml:"path"`
	Symbol string `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Alias  string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// NewImport returns an import of path referenced through symbol.
func NewImport(path, symbol string) Import {
	return Import{Path: path, Symbol: symbol}
}

func self(symbol string) Import {
	return NewImport(Path, symbol)
}

// IsDot reports whether the import is a dot import.
func (i Import) IsDot() bool { return i.Alias == "." }

// IsBlank reports whether the import is a blank import.
func (i Import) IsBlank() bool { return i.Alias == "_" }

// Name returns the identifier the import binds in the importing file. Blank
// imports bind nothing and return "".
func (i Import) Name() string {
	switch {
	case i.IsBlank():
		return ""
	case i.IsDot():
		return i.Symbol
	case i.Alias != "":
		return i.Alias
	default:
		return PackageName(i.Path)
	}
}

// Canonical returns the declaration i stands for. Two imports with equal
// canonical forms are the same import line.
func (i Import) Canonical() Import {
	c := Import{Path: i.Path, Alias: i.Alias}
	if c.Alias == PackageName(c.Path) {
		c.Alias = ""
	}
	return c
}

// Same reports whether i and o declare the same import.
func (i Import) Same(o Import) bool {
	return i.Canonical() == o.Canonical()
}

// String renders the import declaration.
func (i Import) String() string {
	c := i.Canonical()
	if c.Alias == "" {
		return fmt.Sprintf("import %q", c.Path)
	}
	return fmt.Sprintf("import %s %q", c.Alias, c.Path)
}

// Qualifier returns the prefix used to reference an exported identifier
// through the import ("pkg." or "" for dot imports).
func (i Import) Qualifier() string {
	if i.IsDot() || i.IsBlank() {
		return ""
	}
	return i.Name() + "."
}

// PackageName derives the conventional package name of an import path.
func PackageName(path string) string {
	elems := strings.Split(strings.Trim(path, "/"), "/")
	name := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(name) {
		name = elems[len(elems)-2]
	}
	// gopkg.in/yaml.v3
	if idx := strings.LastIndex(name, "."); idx > 0 && isMajorVersion(name[idx+1:]) {
		name = name[:idx]
	}
	name = strings.TrimPrefix(name, "go-")
	name = strings.TrimSuffix(name, "-go")
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, name)
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// UniqueImports drops repeated declarations, keeping the first occurrence.
// Dot imports are kept once per symbol since each symbol binds its own name.
func UniqueImports(imports []Import) []Import {
	seen := make(map[Import]struct{}, len(imports))
	out := make([]Import, 0, len(imports))
	for _, imp := range imports {
		key := imp.Canonical()
		if imp.IsDot() {
			key.Symbol = imp.Symbol
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, imp)
	}
	return out
}
