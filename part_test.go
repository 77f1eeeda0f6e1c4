// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gridslice

import (
	"reflect"
	"testing"

	"github.com/grailbio/base/errors"
)

func TestCutChunks(t *testing.T) {
	xs := []int{0, 1, 2, 3, 4, 5, 6}
	for _, test := range []struct {
		width int
		want  [][]int
	}{
		{1, [][]int{{0, 1, 2, 3, 4, 5, 6}}},
		{2, [][]int{{0, 1, 2}, {3, 4, 5, 6}}},
		{3, [][]int{{0, 1}, {2, 3}, {4, 5, 6}}},
		{7, [][]int{{0}, {1}, {2}, {3}, {4}, {5}, {6}}},
		{100, [][]int{{0}, {1}, {2}, {3}, {4}, {5}, {6}}},
	} {
		chunks, err := Cut{}.Chunks(reflect.ValueOf(xs), test.width)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := len(chunks), len(test.want); got != want {
			t.Fatalf("width=%d: got %d chunks, want %d", test.width, got, want)
		}
		var flat []int
		for i, chunk := range chunks {
			got := chunk.Interface().([]int)
			if !reflect.DeepEqual(got, test.want[i]) {
				t.Errorf("width=%d: chunk %d: got %v, want %v", test.width, i, got, test.want[i])
			}
			flat = append(flat, got...)
		}
		if !reflect.DeepEqual(flat, xs) {
			t.Errorf("width=%d: chunks do not reassemble the dataset: %v", test.width, flat)
		}
	}
}

func TestCutEmpty(t *testing.T) {
	chunks, err := Cut{}.Chunks(reflect.ValueOf([]int{}), 4)
	if err != nil {
		t.Fatal(err)
	}
	// An empty dataset still occupies one (empty) partition so that
	// reductions contribute their seed.
	if got, want := len(chunks), 1; got != want {
		t.Fatalf("got %d chunks, want %d", got, want)
	}
	if got := chunks[0].Len(); got != 0 {
		t.Errorf("got chunk length %d, want 0", got)
	}
}

func TestCutUnsupportedDim(t *testing.T) {
	_, err := Cut{Dim: 1}.Chunks(reflect.ValueOf([][]int{{1}}), 2)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(errors.NotSupported, err) {
		t.Errorf("expected unsupported error, got %v", err)
	}
}

func TestBcastChunks(t *testing.T) {
	chunks, err := Bcast{}.Chunks(reflect.ValueOf(42), 3)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(chunks), 3; got != want {
		t.Fatalf("got %d chunks, want %d", got, want)
	}
	for i, chunk := range chunks {
		if got, want := chunk.Interface().(int), 42; got != want {
			t.Errorf("chunk %d: got %v, want %v", i, got, want)
		}
	}
}

func TestByKeyChunks(t *testing.T) {
	type kv struct {
		K string
		V int
	}
	pairs := []kv{{"a", 1}, {"b", 2}, {"a", 3}, {"c", 4}, {"b", 5}, {"a", 6}}
	chunks, err := ByKey{}.Chunks(reflect.ValueOf(pairs), 4)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(chunks), 4; got != want {
		t.Fatalf("got %d chunks, want %d", got, want)
	}
	seen := make(map[string]int) // key -> partition
	var total int
	for p, chunk := range chunks {
		els := chunk.Interface().([]kv)
		total += len(els)
		last := make(map[string]int)
		for _, el := range els {
			if prev, ok := seen[el.K]; ok && prev != p {
				t.Errorf("key %q split across partitions %d and %d", el.K, prev, p)
			}
			seen[el.K] = p
			// Within a partition, relative order of a key's values must be
			// preserved.
			if el.V < last[el.K] {
				t.Errorf("key %q values out of order in partition %d", el.K, p)
			}
			last[el.K] = el.V
		}
	}
	if got, want := total, len(pairs); got != want {
		t.Errorf("got %d elements across chunks, want %d", got, want)
	}
}

func TestByKeyNonPair(t *testing.T) {
	_, err := ByKey{}.Chunks(reflect.ValueOf([]int{1, 2}), 2)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(errors.Invalid, err) {
		t.Errorf("expected invalid error, got %v", err)
	}
}
