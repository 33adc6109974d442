package reactive

import (
	"errors"
	"testing"
)

func newTestView(t *testing.T, rt *Runtime, decls ...Declaration) *DynamicView {
	t.Helper()
	view, err := NewObservableObject(decls, WithRuntime(rt), WithName("view"))
	if err != nil {
		t.Fatalf("NewObservableObject failed: %v", err)
	}
	return view
}

func TestViewGetSetDelete(t *testing.T) {
	rt := newTestRuntime()
	view := newTestView(t, rt, Observable("a", 1))

	if v := view.Get("a"); v != 1 {
		t.Errorf("expected 1, got %v", v)
	}
	if v := view.Get("missing"); v != Absent {
		t.Errorf("expected Absent for a missing key, got %v", v)
	}

	if err := view.Set("b", "two"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !IsObservableProp(view, "b") {
		t.Error("assigning through the view should declare an observable property")
	}
	if err := view.Delete("b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if view.Has("b") {
		t.Error("expected b to be gone")
	}
	if err := view.Delete("b"); err != nil {
		t.Errorf("deleting a missing key should be a no-op, got %v", err)
	}
}

func TestViewChangeRecordsPointAtView(t *testing.T) {
	rt := newTestRuntime()
	view := newTestView(t, rt)

	rec := &changeRecorder{}
	if _, err := view.Observe(rec.listen); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}

	_ = view.Set("x", 1)
	_ = view.Set("x", 2)
	_ = view.Delete("x")

	want := []string{"add x=1", "update x: 1 -> 2", "remove x (was 2)"}
	if !equalStrings(rec.strings(), want) {
		t.Fatalf("expected %v, got %v", want, rec.strings())
	}
	for _, c := range rec.changes {
		if c.Object != view {
			t.Errorf("change %v: expected Object to be the view, got %T", c, c.Object)
		}
	}
}

func TestViewUndeclaredKeyIsObservable(t *testing.T) {
	rt := newTestRuntime()
	view := newTestView(t, rt)

	var seen []any
	stop := Autorun(rt, func() {
		seen = append(seen, view.Get("title"))
	})
	defer stop()

	_ = view.Set("title", "draft")
	_ = view.Set("title", "final")
	_ = view.Delete("title")
	_ = view.Set("title", "again")

	want := []any{Absent, "draft", "final", Absent, "again"}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("run %d: expected %v, got %v", i, want[i], seen[i])
		}
	}
}

func TestViewHasIsObservable(t *testing.T) {
	rt := newTestRuntime()
	view := newTestView(t, rt)

	var seen []bool
	stop := Autorun(rt, func() {
		seen = append(seen, view.Has("k"))
	})
	defer stop()

	_ = view.Set("k", 1)
	_ = view.Delete("k")

	if len(seen) != 3 || seen[0] || !seen[1] || seen[2] {
		t.Errorf("expected [false true false], got %v", seen)
	}
}

func TestViewKeys(t *testing.T) {
	rt := newTestRuntime()
	sym := NewSymbol("meta")
	view := newTestView(t, rt, Observable("a", 1), Observable(sym, "m"), Observable("b", 2))

	var counts []int
	stop := Autorun(rt, func() {
		counts = append(counts, len(view.Keys()))
	})
	defer stop()

	if keys := view.Keys(); !equalKeys(keys, "a", "b", sym) {
		t.Errorf("expected [a b Symbol(meta)], got %v", keys)
	}

	_ = view.Set("c", 3)
	_ = view.Delete("a")

	if len(counts) != 3 || counts[0] != 3 || counts[1] != 4 || counts[2] != 3 {
		t.Errorf("expected key counts [3 4 3], got %v", counts)
	}
}

func TestViewNumericKeysNormalize(t *testing.T) {
	rt := newTestRuntime()
	view := newTestView(t, rt)

	_ = view.Set(1, "one")
	if v := view.Get("1"); v != "one" {
		t.Errorf("expected \"one\" under key \"1\", got %v", v)
	}
	if !view.Has(1.0) {
		t.Error("expected 1.0 to normalize to \"1\"")
	}
}

func TestViewInvalidKeys(t *testing.T) {
	rt := newTestRuntime()
	view := newTestView(t, rt)

	if err := view.Set(struct{}{}, 1); !errors.Is(err, ErrInvalidKeyType) {
		t.Errorf("Set: expected ErrInvalidKeyType, got %v", err)
	}
	if err := view.Delete([]int{1}); !errors.Is(err, ErrInvalidKeyType) {
		t.Errorf("Delete: expected ErrInvalidKeyType, got %v", err)
	}
	if view.Has(struct{}{}) {
		t.Error("Has: invalid keys are never present")
	}
	if v := view.Get(struct{}{}); v != Absent {
		t.Errorf("Get: expected Absent, got %v", v)
	}
}

func TestViewReservedKey(t *testing.T) {
	rt := newTestRuntime()
	view := newTestView(t, rt)

	if !view.Has(AdministrationKey) {
		t.Error("the administration key is always present")
	}
	if view.Get(AdministrationKey) != view.Administration() {
		t.Error("the administration key should resolve to the administration")
	}
}

func TestViewFreezeFails(t *testing.T) {
	rt := newTestRuntime()
	view := newTestView(t, rt, Observable("a", 1))

	if err := view.Freeze(); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("Freeze: expected ErrUnsupportedOperation, got %v", err)
	}
	if err := view.PreventExtensions(); !errors.Is(err, ErrUnsupportedOperation) {
		t.Errorf("PreventExtensions: expected ErrUnsupportedOperation, got %v", err)
	}

	// The view keeps working.
	if err := view.Set("b", 2); err != nil {
		t.Errorf("Set after failed freeze: %v", err)
	}
}

func TestViewPlainTargetProperty(t *testing.T) {
	rt := newTestRuntime()
	obj := NewObject()
	_ = obj.Define("plain", "raw", true)
	_, _ = CreateAdministration(obj, WithRuntime(rt))

	view, err := CreateDynamicView(obj)
	if err != nil {
		t.Fatalf("CreateDynamicView failed: %v", err)
	}
	if v := view.Get("plain"); v != "raw" {
		t.Errorf("expected plain property value, got %v", v)
	}

	// Assigning a plain key through the view declares it reactively.
	rec := &changeRecorder{}
	_, _ = view.Observe(rec.listen)
	_ = view.Set("plain", "cooked")
	if len(rec.changes) != 1 || rec.changes[0].Type != ChangeAdd {
		t.Errorf("expected one add change, got %v", rec.strings())
	}
	if v := view.Get("plain"); v != "cooked" {
		t.Errorf("expected cooked, got %v", v)
	}
}

func TestCreateDynamicView(t *testing.T) {
	rt := newTestRuntime()

	if _, err := CreateDynamicView(NewObject()); !errors.Is(err, ErrNotAdministered) {
		t.Errorf("expected ErrNotAdministered, got %v", err)
	}

	obj := NewObject()
	adm, _ := CreateAdministration(obj, WithRuntime(rt))
	v1, _ := CreateDynamicView(obj)
	v2, _ := CreateDynamicView(obj)
	if v1 != v2 {
		t.Error("a target has at most one view")
	}
	if adm.View() != v1 {
		t.Error("administration should report the bound view")
	}
	if v1.Target() != Target(obj) {
		t.Error("view should expose its target")
	}
	if AdministrationOf(v1) != adm || !IsObservableObject(v1) {
		t.Error("view should resolve to its administration")
	}
}

func TestViewLookup(t *testing.T) {
	rt := newTestRuntime()
	view := newTestView(t, rt, Observable("a", nil))

	v, ok := view.Lookup("a")
	if !ok || v != nil {
		t.Errorf("expected (nil, true), got (%v, %v)", v, ok)
	}
	v, ok = view.Lookup("b")
	if ok || v != Absent {
		t.Errorf("expected (Absent, false), got (%v, %v)", v, ok)
	}
}
