// Copyright 2025 samber.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://github.com/samber/ro/blob/main/licenses/LICENSE.apache.md
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScheduleRunsInEnqueueOrder(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	q := New()
	t.Cleanup(q.Close)

	var mu sync.Mutex
	var order []int

	var completions []*Completion
	for i := range 5 {
		completions = append(completions, q.Schedule(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, c := range completions {
		is.True(c.Wait(ctx))
	}

	mu.Lock()
	defer mu.Unlock()
	is.Equal([]int{0, 1, 2, 3, 4}, order)
}

func TestScheduleFromWithinCallbackIsAppendedAfterAlreadyQueued(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	q := New()
	t.Cleanup(q.Close)

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var nested *Completion
	c1 := q.Schedule(func() {
		record("a")
		nested = q.Schedule(func() { record("nested") })
	})
	c2 := q.Schedule(func() { record("b") })
	c3 := q.Schedule(func() { record("c") })

	is.True(c1.Wait(ctx))
	is.True(c2.Wait(ctx))
	is.True(c3.Wait(ctx))

	for nested == nil {
		time.Sleep(time.Millisecond)
	}
	is.True(nested.Wait(ctx))

	mu.Lock()
	defer mu.Unlock()
	is.Equal([]string{"a", "b", "c", "nested"}, order)
}

func TestResolvedCompletionIsImmediatelyDone(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c := Resolved(false)

	select {
	case <-c.Done():
	default:
		is.Fail("expected Resolved completion to already be closed")
	}

	is.False(c.Value())
}
