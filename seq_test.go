// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gridslice

import (
	"context"
	"reflect"
	"testing"

	"github.com/gridslice/gridslice/gridfunc"
)

func mustFunc(t *testing.T, fn interface{}) gridfunc.Func {
	t.Helper()
	f, ok := gridfunc.Of(fn)
	if !ok {
		t.Fatalf("invalid function %T", fn)
	}
	return f
}

func TestZipLen(t *testing.T) {
	chunks := []reflect.Value{
		reflect.ValueOf([]int{1, 2, 3}),
		reflect.ValueOf([]string{"a", "b", "c"}),
	}
	n, err := zipLen("test", chunks)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := n, 3; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if _, err = zipLen("test", []reflect.Value{chunks[0], reflect.ValueOf([]string{"a"})}); err == nil {
		t.Error("expected length mismatch error")
	}
	if _, err = zipLen("test", []reflect.Value{reflect.ValueOf(42)}); err == nil {
		t.Error("expected non-collection error")
	}
}

func TestSeqMapReduce(t *testing.T) {
	ctx := context.Background()
	red := mustFunc(t, func(a, x int) int { return a + x })
	seed := reflect.ValueOf(0)

	// Identity map (nil fn) over a single chunk.
	acc, err := seqMapReduce(ctx, "reduce", gridfunc.Nil, red, seed, []reflect.Value{reflect.ValueOf([]int{1, 2, 3})})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := acc.Interface().(int), 6; got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	// Zipped two-argument map.
	fn := mustFunc(t, func(x, y int) int { return x * y })
	acc, err = seqMapReduce(ctx, "mapreduce", fn, red, seed, []reflect.Value{
		reflect.ValueOf([]int{1, 2, 3}),
		reflect.ValueOf([]int{4, 5, 6}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := acc.Interface().(int), 4+10+18; got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	// Empty chunk yields the seed.
	acc, err = seqMapReduce(ctx, "reduce", gridfunc.Nil, red, reflect.ValueOf(7), []reflect.Value{reflect.ValueOf([]int{})})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := acc.Interface().(int), 7; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSeqMapReduceFoldOrder(t *testing.T) {
	// Left-fold order is observable with a non-commutative operator.
	ctx := context.Background()
	red := mustFunc(t, func(a, x string) string { return a + x })
	acc, err := seqMapReduce(ctx, "reduce", gridfunc.Nil, red, reflect.ValueOf("-"), []reflect.Value{
		reflect.ValueOf([]string{"a", "b", "c"}),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := acc.Interface().(string), "-abc"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSeqMapReduceByKey(t *testing.T) {
	ctx := context.Background()
	type kv struct {
		K string
		V int
	}
	red := mustFunc(t, func(a, v int) int { return a + v })
	mapType := reflect.MapOf(reflect.TypeOf(""), reflect.TypeOf(0))
	chunk := reflect.ValueOf([]kv{{"a", 1}, {"b", 2}, {"a", 3}})
	m, err := seqMapReduceByKey(ctx, "reducebykey", gridfunc.Nil, red, reflect.ValueOf(0), mapType, chunk)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]int{"a": 4, "b": 2}
	if got := m.Interface().(map[string]int); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCombinePartials(t *testing.T) {
	ctx := context.Background()
	red := mustFunc(t, func(a, x string) string { return a + x })
	partials := []reflect.Value{
		reflect.ValueOf("p0"),
		reflect.ValueOf("p1"),
		reflect.ValueOf("p2"),
	}
	acc := combinePartials(ctx, red, reflect.ValueOf(""), partials)
	// Partition order must be preserved by the global combine.
	if got, want := acc.Interface().(string), "p0p1p2"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMergeByKey(t *testing.T) {
	ctx := context.Background()
	red := mustFunc(t, func(a, v int) int { return a + v })
	mapType := reflect.MapOf(reflect.TypeOf(""), reflect.TypeOf(0))
	gathered := []reflect.Value{
		reflect.ValueOf(map[string]int{"a": 1, "b": 2}),
		reflect.ValueOf(map[string]int{"b": 3, "c": 4}),
	}
	m := mergeByKey(ctx, red, reflect.ValueOf(0), mapType, gathered)
	want := map[string]int{"a": 1, "b": 5, "c": 4}
	if got := m.Interface().(map[string]int); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
