// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gridslice_test

import (
	"context"
	"fmt"
	"sort"

	"github.com/gridslice/gridslice"
	"github.com/gridslice/gridslice/local"
)

func ExampleReduce() {
	xs := []int{1, 2, 3, 4, 5, 6}
	node := gridslice.Reduce(
		func(a, x int) int { return a + x }, 0,
		gridslice.Partition(xs),
	)
	sum, err := gridslice.Compute(context.Background(), local.New(local.Procs(2)), node)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(sum)
	// Output: 21
}

func ExampleMapReduceByKey() {
	type rating struct {
		Title string
		Stars int
	}
	ratings := []rating{
		{"solaris", 5},
		{"stalker", 5},
		{"solaris", 3},
		{"stalker", 4},
	}
	node := gridslice.MapReduceByKey(
		func(r rating) (string, int) { return r.Title, r.Stars },
		func(total, stars int) int { return total + stars }, 0,
		gridslice.Partition(ratings),
	)
	v, err := gridslice.Compute(context.Background(), local.New(), node)
	if err != nil {
		fmt.Println(err)
		return
	}
	totals := v.(map[string]int)
	titles := make([]string, 0, len(totals))
	for title := range totals {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	for _, title := range titles {
		fmt.Printf("%s: %d\n", title, totals[title])
	}
	// Output:
	// solaris: 8
	// stalker: 9
}
