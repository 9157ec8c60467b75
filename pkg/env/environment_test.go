package env

import (
	"testing"

	"riposte/pkg/heap"
	"riposte/pkg/intern"
	"riposte/pkg/value"
)

func TestGetRecursiveWalksParentChain(t *testing.T) {
	h := heap.New(1 << 20)
	root := New(nil, 4, h)
	root.Set(intern.Intern("x"), value.NewInteger(1))
	child := New(root, 4, h)
	child.Set(intern.Intern("y"), value.NewInteger(2))

	v, owner, ok := child.GetRecursive(intern.Intern("x"))
	if !ok || v.AsIntegerSlice()[0] != 1 {
		t.Fatalf("expected to find x=1 via parent chain, got %v, %v", v, ok)
	}
	if owner != root {
		t.Fatalf("expected owner to be root environment")
	}

	if _, _, ok := child.GetRecursive(intern.Intern("nonexistent")); ok {
		t.Fatalf("expected miss for unbound name")
	}
}

func TestInsertRecursiveWritesToExistingAncestor(t *testing.T) {
	h := heap.New(1 << 20)
	root := New(nil, 4, h)
	name := intern.Intern("counter")
	root.Set(name, value.NewInteger(0))

	mid := New(root, 4, h)
	leaf := New(mid, 4, h)

	leaf.InsertRecursive(name, value.NewInteger(42))

	if leaf.Has(name) {
		t.Fatalf("<<- should not create a binding in the innermost environment")
	}
	if mid.Has(name) {
		t.Fatalf("<<- should not bind in an intermediate environment that never had the name")
	}
	v, ok := root.Get(name)
	if !ok || v.AsIntegerSlice()[0] != 42 {
		t.Fatalf("expected root's binding to be updated to 42, got %v, %v", v, ok)
	}
}

func TestInsertRecursiveCreatesInOutermostWhenAbsentEverywhere(t *testing.T) {
	h := heap.New(1 << 20)
	root := New(nil, 4, h)
	mid := New(root, 4, h)
	leaf := New(mid, 4, h)

	name := intern.Intern("brandNew")
	leaf.InsertRecursive(name, value.NewInteger(7))

	if leaf.Has(name) || mid.Has(name) {
		t.Fatalf("new binding via <<- must land in the outermost environment, not an inner one")
	}
	v, ok := root.Get(name)
	if !ok || v.AsIntegerSlice()[0] != 7 {
		t.Fatalf("expected new binding in root, got %v, %v", v, ok)
	}
}

func TestAsValueFromValueRoundTrip(t *testing.T) {
	h := heap.New(1 << 20)
	e := New(nil, 4, h)
	v := AsValue(e)
	if !v.IsEnvironment() {
		t.Fatalf("expected Environment-tagged value")
	}
	if FromValue(v) != e {
		t.Fatalf("FromValue(AsValue(e)) != e")
	}
}

func TestCloneDoesNotShareDictionary(t *testing.T) {
	h := heap.New(1 << 20)
	root := New(nil, 4, h)
	name := intern.Intern("shared")
	root.Set(name, value.NewInteger(1))

	clone := root.Clone(2, h)
	clone.Set(name, value.NewInteger(99))

	v, _ := root.Get(name)
	if v.AsIntegerSlice()[0] != 1 {
		t.Fatalf("mutating clone's dictionary leaked back into original")
	}
	if clone.Parent != root.Parent {
		t.Fatalf("clone should preserve the original parent pointer")
	}
}

func TestTraceVisitsDictParentAndContext(t *testing.T) {
	h := heap.New(1 << 20)
	root := New(nil, 4, h)
	child := New(root, 4, h)
	caller := New(nil, 4, h)
	child.Ctx = &Context{Caller: caller}

	visited := map[heap.HeapObject]bool{}
	child.Trace(func(ho heap.HeapObject) { visited[ho] = true })

	if !visited[child.Dict] {
		t.Fatalf("Trace did not visit own dictionary")
	}
	if !visited[root] {
		t.Fatalf("Trace did not visit parent environment")
	}
	if !visited[heap.HeapObject(caller)] {
		t.Fatalf("Trace did not visit context caller")
	}
}
