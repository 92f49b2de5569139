package secrets

import (
	"regexp"

	derrors "github.com/scriptgate-dev/scriptgate/domain/errors"
)

// markerPattern matches the explicit-namespace secret marker form
// {{secret:IDENTIFIER}}. Bare {{NAME}} tokens are not secret markers
// and pass through untouched.
var markerPattern = regexp.MustCompile(`\{\{secret:([A-Za-z0-9_][A-Za-z0-9_.-]*)\}\}`)

// Injector substitutes secret markers in outbound request templates.
// It runs inside the native transport path, before any network I/O.
type Injector struct {
	store *Store
}

// NewInjector creates an Injector over the given store.
func NewInjector(store *Store) *Injector {
	return &Injector{store: store}
}

// Render substitutes every marker in the template. If any identifier
// is unresolved the whole render fails with SecretNotFoundError and no
// partially-substituted output is produced. Substitution is single
// pass: a value that itself contains a marker is not re-expanded.
//
// The returned identifier list records each marker occurrence in
// order, deduplicated, so the caller can emit one SecretAccessed
// event per identifier.
func (i *Injector) Render(template string) (string, []string, error) {
	matches := markerPattern.FindAllStringSubmatch(template, -1)
	if len(matches) == 0 {
		return template, nil, nil
	}

	// Resolve every value up front: abort before producing any output
	// if a single identifier is missing. Substituting from this
	// snapshot keeps the render atomic against concurrent deletes.
	values := make(map[string]string, len(matches))
	var used []string
	for _, m := range matches {
		id := m[1]
		if _, ok := values[id]; ok {
			continue
		}
		value, ok := i.store.Get(id)
		if !ok {
			return "", nil, &derrors.SecretNotFoundError{Identifier: id}
		}
		values[id] = value
		used = append(used, id)
	}

	rendered := markerPattern.ReplaceAllStringFunc(template, func(marker string) string {
		return values[markerPattern.FindStringSubmatch(marker)[1]]
	})
	return rendered, used, nil
}

// RenderRequest substitutes markers across a header map and body.
// All-or-nothing: a missing identifier anywhere aborts the whole
// request before a byte leaves the process.
func (i *Injector) RenderRequest(headers map[string]string, body string) (map[string]string, string, []string, error) {
	outHeaders := make(map[string]string, len(headers))
	seen := make(map[string]bool)
	var used []string

	record := func(ids []string) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				used = append(used, id)
			}
		}
	}

	for name, value := range headers {
		rendered, ids, err := i.Render(value)
		if err != nil {
			return nil, "", nil, err
		}
		record(ids)
		outHeaders[name] = rendered
	}

	renderedBody, ids, err := i.Render(body)
	if err != nil {
		return nil, "", nil, err
	}
	record(ids)

	return outHeaders, renderedBody, used, nil
}
