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

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samber/ro-signals/id"
	"github.com/samber/ro-signals/rx"
)

func TestGetEffectReportsNotFoundBeforeAddEffect(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	s := New()
	t.Cleanup(func() { Close(context.Background(), s) })

	effectID := id.NewEffectID[EffectFunc[int, int]]()
	fn, found := GetEffect(s, effectID)
	is.False(found)
	is.Nil(fn)
}

func TestAddEffectStoresAValueRetrievableByGetEffect(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	ctx := context.Background()
	s := New()
	t.Cleanup(func() { Close(ctx, s) })

	effectID := id.NewEffectID[EffectFunc[int, int]]()

	double := EffectFunc[int, int](func(ctx context.Context, input int, s *Store, prevInput *int, prevResult *int) rx.Observable[int] {
		return rx.Of(input * 2)
	})

	AddEffect(ctx, s, effectID, double)

	fn, found := GetEffect(s, effectID)
	is.True(found)

	var got int
	fn(ctx, 21, s, nil, nil).Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { got = v }))
	is.Equal(42, got)
}
