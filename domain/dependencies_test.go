package domain_test

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modulePath = "github.com/scriptgate-dev/scriptgate/"

// TestDomainImportsOnlyDomain verifies the layering rule: domain
// packages import the standard library, third-party libraries and other
// domain packages, never application or infrastructure.
func TestDomainImportsOnlyDomain(t *testing.T) {
	fset := token.NewFileSet()

	for _, pkg := range []string{"entities", "errors", "ports", "policy"} {
		files, err := filepath.Glob(filepath.Join("..", "domain", pkg, "*.go"))
		require.NoError(t, err)
		require.NotEmpty(t, files, "domain/%s should contain Go files", pkg)

		for _, file := range files {
			if strings.HasSuffix(file, "_test.go") {
				continue
			}
			f, err := parser.ParseFile(fset, file, nil, parser.ImportsOnly)
			require.NoError(t, err, "failed to parse %s", file)

			for _, imp := range f.Imports {
				importPath := strings.Trim(imp.Path.Value, `"`)
				if !strings.HasPrefix(importPath, modulePath) {
					continue
				}
				assert.True(t,
					strings.HasPrefix(importPath, modulePath+"domain/"),
					"domain/%s (%s) imports non-domain package %s",
					pkg, filepath.Base(file), importPath)
			}
		}
	}
}
