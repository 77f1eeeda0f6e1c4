// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gridslice

import (
	"fmt"
	"reflect"

	"github.com/grailbio/base/errors"
	"github.com/gridslice/gridslice/typecheck"
	"github.com/spaolacci/murmur3"
)

// A Scheme describes how a dataset is split into partitions. Schemes are
// value objects attached to data source nodes at construction time and
// resolved by the execution context when a source is computed: given the
// dataset and the context's partition width, a Scheme produces the local
// chunk for every partition.
type Scheme interface {
	// Chunks cuts data into per-partition chunks, at most width of them
	// unless the scheme's nature demands otherwise. Chunks are returned
	// in partition index order. An error is returned if the scheme does
	// not support the dataset's shape.
	Chunks(data reflect.Value, width int) ([]reflect.Value, error)

	String() string
}

// Cut splits a dataset along the given dimension into contiguous,
// order-preserving chunks. Only the outermost dimension (0) is supported
// for plain Go slices; other dimensions are reported as unsupported at
// evaluation time.
type Cut struct {
	Dim int
}

// Chunks implements Scheme. The dataset is split into min(len, width)
// contiguous chunks, and always at least one, so that an empty dataset
// still occupies a single (empty) partition.
func (c Cut) Chunks(data reflect.Value, width int) ([]reflect.Value, error) {
	if data.Kind() != reflect.Slice {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("cut: dataset of type %s is not a slice", data.Type()))
	}
	if c.Dim != 0 {
		return nil, errors.E(errors.NotSupported, fmt.Sprintf("cut: dimension %d is not supported", c.Dim))
	}
	n := data.Len()
	k := width
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}
	chunks := make([]reflect.Value, k)
	for i := range chunks {
		beg, end := i*n/k, (i+1)*n/k
		chunks[i] = data.Slice(beg, end)
	}
	return chunks, nil
}

func (c Cut) String() string { return fmt.Sprintf("cut(%d)", c.Dim) }

// Bcast replicates the whole dataset to every partition. A broadcast
// chunk is the dataset itself, not a sub-collection of it, so broadcast
// sources compose with MapPart but not with element-zipped operators.
type Bcast struct{}

// Chunks implements Scheme.
func (Bcast) Chunks(data reflect.Value, width int) ([]reflect.Value, error) {
	if width < 1 {
		width = 1
	}
	chunks := make([]reflect.Value, width)
	for i := range chunks {
		chunks[i] = data
	}
	return chunks, nil
}

func (Bcast) String() string { return "bcast" }

// ByKey partitions a dataset of pair elements by a hash of each element's
// key, so that all elements sharing a key land in the same partition.
// Relative element order is preserved within each partition.
type ByKey struct{}

// Chunks implements Scheme. The dataset must be a slice of two-field
// structs; the first field is the key.
func (b ByKey) Chunks(data reflect.Value, width int) ([]reflect.Value, error) {
	if data.Kind() != reflect.Slice {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("bykey: dataset of type %s is not a slice", data.Type()))
	}
	if _, _, ok := typecheck.Pair(data.Type().Elem()); !ok {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("bykey: element type %s is not a pair", data.Type().Elem()))
	}
	if width < 1 {
		width = 1
	}
	chunks := make([]reflect.Value, width)
	for i := range chunks {
		chunks[i] = reflect.MakeSlice(data.Type(), 0, 0)
	}
	for i := 0; i < data.Len(); i++ {
		el := data.Index(i)
		p := int(hashKey(el.Field(0)) % uint32(width))
		chunks[p] = reflect.Append(chunks[p], el)
	}
	return chunks, nil
}

func (ByKey) String() string { return "bykey" }

// hashKey hashes a key value of any printable type. Keys are hashed by
// their printed representation so that any comparable key type can be
// partitioned; the hash need only be stable within a single evaluation.
func hashKey(key reflect.Value) uint32 {
	return murmur3.Sum32([]byte(fmt.Sprint(key.Interface())))
}

// Parts is a realized partitioned value: one chunk per partition, in
// partition index order, together with the element type and the scheme
// under which the value was realized. For collection-valued nodes each
// chunk is a typed slice of Elem; for per-partition partials (map-reduce
// stage one) each chunk is a single value.
type Parts struct {
	// Elem is the element type of the partitioned collection, or nil for
	// unit-valued results.
	Elem reflect.Type
	// Scheme is the partitioning scheme the value was realized under.
	Scheme Scheme
	// Chunks holds the local value of each partition.
	Chunks []reflect.Value
}

// NumPart returns the number of partitions.
func (p *Parts) NumPart() int { return len(p.Chunks) }
