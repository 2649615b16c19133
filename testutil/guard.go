// Package testutil holds import-boundary assertions shared by package tests.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Under returns a predicate matching prefix and every package below it.
func Under(prefix string) func(importPath string) bool {
	return func(importPath string) bool {
		return importPath == prefix || strings.HasPrefix(importPath, prefix+"/")
	}
}

// InternalImport matches any path with an internal/ element.
func InternalImport(importPath string) bool {
	return strings.HasPrefix(importPath, "internal/") || strings.Contains(importPath, "/internal/")
}

// DirectImports maps each import path used by the non-test .go files in dir
// to the files importing it. Subdirectories are not visited.
func DirectImports(dir string) (map[string][]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	out := make(map[string][]string)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range file.Imports {
			ip := strings.Trim(imp.Path.Value, "\"")
			out[ip] = append(out[ip], name)
		}
	}
	return out, nil
}

// AssertNoDirectImports fails t when a non-test file in dir imports a path
// matching forbidden.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	imports, err := DirectImports(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	reportViolations(t, reason, violations(imports, forbidden))
}

func violations(imports map[string][]string, forbidden func(string) bool) []string {
	var out []string
	for ip, files := range imports {
		if !forbidden(ip) {
			continue
		}
		out = append(out, ip+" (in "+strings.Join(files, ", ")+")")
	}
	sort.Strings(out)
	return out
}

type fatalLogger interface {
	Helper()
	Fatalf(format string, args ...any)
}

func reportViolations(t fatalLogger, reason string, viols []string) {
	t.Helper()
	if len(viols) > 0 {
		t.Fatalf("forbidden imports (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}
