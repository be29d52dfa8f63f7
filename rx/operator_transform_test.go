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

package rx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapFilterScan(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var got []int
	Pipe3(
		Of(1, 2, 3, 4, 5),
		Filter(func(v int) bool { return v%2 == 0 }),
		Map(func(v int) int { return v * 10 }),
		func(src Observable[int]) Observable[int] {
			return Pipe1(src, Scan(func(acc, v int) int { return acc + v }, 0))
		},
	).Subscribe(context.Background(), OnNext(func(ctx context.Context, v int) { got = append(got, v) }))

	is.Equal([]int{20, 60}, got)
}

func TestTap(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	var seen []int
	completeCalled := false

	Pipe1(Of(1, 2), Tap(
		func(v int) { seen = append(seen, v) },
		nil,
		func() { completeCalled = true },
	)).Subscribe(context.Background(), NoopObserver[int]())

	is.Equal([]int{1, 2}, seen)
	is.True(completeCalled)
}
