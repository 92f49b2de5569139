// Package validation implements stateless pattern-based rejection of
// dangerous guest payloads. Validation runs before any mutation, has
// no side effects, and never touches capabilities or secrets. A
// rejection carries only a stable reason code, never the matched
// substring, to keep dangerous text out of logs and guest responses.
package validation

import (
	"regexp"
	"strings"

	"github.com/scriptgate-dev/scriptgate/domain/entities"
)

// PayloadClass selects which pattern classes apply to a payload.
type PayloadClass string

const (
	// ClassScript is stored guest script source.
	ClassScript PayloadClass = "script"

	// ClassPath is a resource key or storage path.
	ClassPath PayloadClass = "path"

	// ClassField is a free-form field (form input, header value,
	// stream payload).
	ClassField PayloadClass = "field"

	// ClassURL is an outbound request URL.
	ClassURL PayloadClass = "url"
)

// Compiled once at package init. Checks first match wins, so order
// inside each list is part of the contract.
var (
	codeExecPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\beval\s*\(`),
		regexp.MustCompile(`(?i)\bnew\s+Function\s*\(`),
		regexp.MustCompile(`(?i)\bFunction\s*\(\s*["']`),
		regexp.MustCompile(`(?i)\bchild_process\b`),
		regexp.MustCompile(`(?i)\bprocess\s*\.\s*binding\b`),
		regexp.MustCompile(`(?i)\brequire\s*\(\s*["'](?:fs|net|vm|os)["']`),
		regexp.MustCompile(`(?i)\bimport\s*\(\s*["']node:`),
	}

	traversalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\.\./`),
		regexp.MustCompile(`\.\.\\`),
		regexp.MustCompile(`(?i)%2e%2e(?:%2f|%5c|/|\\)`),
	}

	xssPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<script\b`),
		regexp.MustCompile(`(?i)<iframe\b`),
		regexp.MustCompile(`(?i)javascript\s*:`),
		regexp.MustCompile(`(?i)\bon(?:error|load|click|mouseover)\s*=`),
	}
)

type validatorConfig struct {
	maxScriptSize int
	maxPathSize   int
	maxFieldSize  int
	maxURLSize    int
}

func defaultValidatorConfig() validatorConfig {
	return validatorConfig{
		maxScriptSize: 1 * 1024 * 1024,
		maxPathSize:   4 * 1024,
		maxFieldSize:  64 * 1024,
		maxURLSize:    8 * 1024,
	}
}

// Option configures a Validator.
type Option func(*validatorConfig)

// WithMaxScriptSize sets the stored-script size limit in bytes.
func WithMaxScriptSize(n int) Option {
	return func(c *validatorConfig) {
		if n > 0 {
			c.maxScriptSize = n
		}
	}
}

// WithMaxFieldSize sets the free-form field size limit in bytes.
func WithMaxFieldSize(n int) Option {
	return func(c *validatorConfig) {
		if n > 0 {
			c.maxFieldSize = n
		}
	}
}

// Validator rejects payloads matching fixed dangerous-pattern classes.
// Stateless and safe for concurrent use.
type Validator struct {
	config validatorConfig
}

// New creates a Validator with the given options.
func New(opts ...Option) *Validator {
	cfg := defaultValidatorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Validator{config: cfg}
}

// Validate checks one guest-supplied payload against the pattern
// classes for its class. The first violation wins; size is always
// checked first so oversized payloads are never scanned.
func (v *Validator) Validate(payload string, class PayloadClass) entities.ValidationResult {
	if len(payload) > v.limitFor(class) {
		return entities.Violation(entities.ViolationPayloadTooBig, string(class))
	}
	if strings.ContainsRune(payload, 0) {
		return entities.Violation(entities.ViolationControlBytes, string(class))
	}

	switch class {
	case ClassScript:
		if matchAny(codeExecPatterns, payload) {
			return entities.Violation(entities.ViolationCodeExecution, string(class))
		}
	case ClassPath, ClassURL:
		if matchAny(traversalPatterns, payload) {
			return entities.Violation(entities.ViolationPathTraversal, string(class))
		}
	case ClassField:
		if matchAny(xssPatterns, payload) {
			return entities.Violation(entities.ViolationXSSMarkup, string(class))
		}
	}
	return entities.Valid()
}

func (v *Validator) limitFor(class PayloadClass) int {
	switch class {
	case ClassScript:
		return v.config.maxScriptSize
	case ClassPath:
		return v.config.maxPathSize
	case ClassURL:
		return v.config.maxURLSize
	default:
		return v.config.maxFieldSize
	}
}

func matchAny(patterns []*regexp.Regexp, payload string) bool {
	for _, p := range patterns {
		if p.MatchString(payload) {
			return true
		}
	}
	return false
}
