// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package gridtest provides utilities for testing gridslice user code.
// The utilities here are strictly intended for unit testing; they run
// graphs on a fresh in-process executor and report errors as fatal to
// the test.
package gridtest

import (
	"context"
	"reflect"
	"testing"

	"github.com/gridslice/gridslice"
	"github.com/gridslice/gridslice/local"
)

// Run computes node on a fresh local executor and returns the computed
// value. Errors are reported as fatal to t.
func Run(t *testing.T, node gridslice.Node) interface{} {
	t.Helper()
	v, err := gridslice.Compute(context.Background(), local.New(), node)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

// Collect computes node on a fresh local executor, gathers and
// concatenates its partitioned result, and stores it through out, which
// must be a pointer to a slice of the node's element type. For example,
// for a Node<int>:
//
//	var got []int
//	gridtest.Collect(t, node, &got)
//
// Errors are reported as fatal to t.
func Collect(t *testing.T, node gridslice.Node, out interface{}) {
	t.Helper()
	CollectProcs(t, 0, node, out)
}

// CollectProcs is Collect on an executor limited to procs partitions of
// parallelism; procs <= 0 means the default. Tests use it to verify that
// results are invariant under partition count.
func CollectProcs(t *testing.T, procs int, node gridslice.Node, out interface{}) {
	t.Helper()
	exec := local.New()
	if procs > 0 {
		exec = local.New(local.Procs(procs))
	}
	v, err := gridslice.Collect(context.Background(), exec, node)
	if err != nil {
		t.Fatal(err)
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		t.Fatalf("collect: out must be a pointer to a slice, got %T", out)
	}
	rv.Elem().Set(reflect.ValueOf(v))
}
