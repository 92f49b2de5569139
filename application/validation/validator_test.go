package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
)

func TestValidateScript(t *testing.T) {
	v := New()

	t.Run("plain script passes", func(t *testing.T) {
		res := v.Validate(`export function handler(req) { return { ok: true } }`, ClassScript)
		assert.True(t, res.OK)
	})

	rejected := []struct {
		name    string
		payload string
	}{
		{"eval call", `const x = eval("1+1")`},
		{"eval with space", `eval ("code")`},
		{"function constructor", `const f = new Function("return 1")`},
		{"child_process", `const cp = require("child_process")`},
		{"process binding", `process.binding("spawn_sync")`},
		{"fs require", `require("fs").readFileSync("/etc/passwd")`},
		{"node import", `await import("node:net")`},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			res := v.Validate(tc.payload, ClassScript)
			assert.False(t, res.OK)
			assert.Equal(t, entities.ViolationCodeExecution, res.Reason)
		})
	}

	t.Run("case variations still match", func(t *testing.T) {
		res := v.Validate(`EVAL("x")`, ClassScript)
		assert.False(t, res.OK)
	})

	t.Run("eval as substring of identifier passes", func(t *testing.T) {
		res := v.Validate(`const medieval = retrieval(1)`, ClassScript)
		assert.True(t, res.OK)
	})
}

func TestValidatePath(t *testing.T) {
	v := New()

	t.Run("normal key passes", func(t *testing.T) {
		assert.True(t, v.Validate("app/pages/index.js", ClassPath).OK)
	})

	for _, payload := range []string{
		"../etc/passwd",
		`..\windows\system32`,
		"%2e%2e%2fescape",
		"%2E%2E/escape",
		"a/b/../../../c",
	} {
		t.Run(payload, func(t *testing.T) {
			res := v.Validate(payload, ClassPath)
			assert.False(t, res.OK)
			assert.Equal(t, entities.ViolationPathTraversal, res.Reason)
		})
	}
}

func TestValidateField(t *testing.T) {
	v := New()

	t.Run("plain text passes", func(t *testing.T) {
		assert.True(t, v.Validate("hello <b>world</b>", ClassField).OK)
	})

	for _, payload := range []string{
		`<script>alert(1)</script>`,
		`<SCRIPT src="x">`,
		`<iframe src="evil">`,
		`javascript:alert(1)`,
		`<img onerror=steal()>`,
		`<body onload = go()>`,
	} {
		t.Run(payload, func(t *testing.T) {
			res := v.Validate(payload, ClassField)
			assert.False(t, res.OK)
			assert.Equal(t, entities.ViolationXSSMarkup, res.Reason)
		})
	}
}

func TestValidateSizeFirst(t *testing.T) {
	v := New(WithMaxFieldSize(16))

	// Oversized and containing a pattern: size must win, the payload
	// is never scanned.
	res := v.Validate(strings.Repeat("x", 20)+"<script>", ClassField)
	assert.False(t, res.OK)
	assert.Equal(t, entities.ViolationPayloadTooBig, res.Reason)
}

func TestValidateControlBytes(t *testing.T) {
	v := New()
	res := v.Validate("ab\x00cd", ClassField)
	assert.False(t, res.OK)
	assert.Equal(t, entities.ViolationControlBytes, res.Reason)
}

func TestValidateClassesAreIndependent(t *testing.T) {
	v := New()

	// Traversal patterns do not apply to fields, XSS markup does not
	// apply to paths.
	assert.True(t, v.Validate("a ../ b", ClassField).OK)
	assert.True(t, v.Validate("key-with-<script>", ClassPath).OK)
}
