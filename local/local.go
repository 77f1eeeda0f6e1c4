// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package local provides an in-process gridslice executor. Partitions are
// realized as sub-slices of the original dataset, per-partition functions
// run in separate goroutines bounded by the executor's parallelism, and
// all results are buffered in memory. The executor is the reference
// implementation of the core's Executor interface, suitable for tests
// and for jobs that fit on one machine.
package local

import (
	"context"
	"fmt"
	"reflect"
	"runtime"

	"github.com/google/uuid"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/gridslice/gridslice"
	"golang.org/x/sync/errgroup"
)

// Executor is an in-process execution context.
type Executor struct {
	procs int
}

// An Option configures an Executor.
type Option func(*Executor)

// Procs limits the executor to n partitions of parallelism. Cut schemes
// also use n as the partition width, which makes Procs the knob for
// partition-count invariance tests.
func Procs(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.procs = n
		}
	}
}

// New returns a new Executor. The default parallelism is the maxprocs
// reported by the Go runtime.
func New(opts ...Option) *Executor {
	e := &Executor{procs: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Maxprocs returns the executor's configured parallelism.
func (e *Executor) Maxprocs() int { return e.procs }

// Partition implements gridslice.Executor: it resolves scheme against the
// dataset at the executor's partition width.
func (e *Executor) Partition(ctx context.Context, data interface{}, scheme gridslice.Scheme) (*gridslice.Parts, error) {
	v := reflect.ValueOf(data)
	if !v.IsValid() {
		return nil, errors.E(errors.Invalid, "local: partition of nil dataset")
	}
	chunks, err := scheme.Chunks(v, e.procs)
	if err != nil {
		return nil, err
	}
	var elem reflect.Type
	if _, ok := scheme.(gridslice.Bcast); ok {
		elem = v.Type()
	} else {
		if v.Kind() != reflect.Slice {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("local: dataset of type %s is not a slice", v.Type()))
		}
		elem = v.Type().Elem()
	}
	id := uuid.New()
	log.Debug.Printf("local: partition %s: %s: %d chunks of %s", id, scheme, len(chunks), elem)
	return &gridslice.Parts{Elem: elem, Scheme: scheme, Chunks: chunks}, nil
}

// Apply implements gridslice.Executor: fn is invoked for each partition
// in its own goroutine, at most Maxprocs at a time, and the results are
// assembled in partition order. The first failing partition cancels the
// rest and aborts the apply.
func (e *Executor) Apply(ctx context.Context, elem reflect.Type, fn gridslice.PartFunc, inputs []*gridslice.Parts) (*gridslice.Parts, error) {
	if len(inputs) == 0 {
		return nil, errors.E(errors.Invalid, "local: apply with no inputs")
	}
	npart := inputs[0].NumPart()
	for i, in := range inputs {
		if in.NumPart() != npart {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("local: apply input %d has %d partitions, input 0 has %d", i, in.NumPart(), npart))
		}
	}
	id := uuid.New()
	log.Debug.Printf("local: apply %s across %d partitions", id, npart)
	var (
		results = make([]reflect.Value, npart)
		sema    = make(chan struct{}, e.procs)
	)
	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < npart; p++ {
		p := p
		g.Go(func() error {
			sema <- struct{}{}
			defer func() { <-sema }()
			chunks := make([]reflect.Value, len(inputs))
			for i, in := range inputs {
				chunks[i] = in.Chunks[p]
			}
			v, err := fn(gctx, p, chunks)
			if err != nil {
				log.Error.Printf("local: apply %s: partition %d: %v", id, p, err)
				return err
			}
			results[p] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &gridslice.Parts{Elem: elem, Scheme: inputs[0].Scheme, Chunks: results}, nil
}

// Gather implements gridslice.Executor. Apply has already completed every
// partition by the time its Parts exists, so gathering is a copy of the
// chunk vector in partition index order.
func (e *Executor) Gather(ctx context.Context, parts *gridslice.Parts) ([]reflect.Value, error) {
	if parts == nil {
		return nil, errors.E(errors.Invalid, "local: gather of nil parts")
	}
	chunks := make([]reflect.Value, len(parts.Chunks))
	copy(chunks, parts.Chunks)
	return chunks, nil
}
