package reactive

import (
	"io"
	"log/slog"
	"testing"
)

// newTestRuntime returns an isolated runtime that discards log output.
func newTestRuntime(opts ...RuntimeOption) *Runtime {
	opts = append([]RuntimeOption{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewRuntime(opts...)
}

// newTestObject returns an administered object with the given declarations.
func newTestObject(t *testing.T, rt *Runtime, decls ...Declaration) (*Object, *Administration) {
	t.Helper()
	obj := NewObject()
	adm, err := Extend(obj, decls, WithRuntime(rt), WithName("test"))
	if err != nil {
		t.Fatalf("Extend failed: %v", err)
	}
	return obj, adm
}

// changeRecorder collects committed changes as strings.
type changeRecorder struct {
	changes []Change
}

func (r *changeRecorder) listen(c Change) {
	r.changes = append(r.changes, c)
}

func (r *changeRecorder) strings() []string {
	out := make([]string, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalKeys(a []PropertyKey, b ...PropertyKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
