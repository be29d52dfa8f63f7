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

	"github.com/samber/ro-signals/id"
	"github.com/samber/ro-signals/rx"
)

// EffectFunc is the effect contract: given an input and the store it runs
// against, plus the previous input/result of its last invocation (nil on
// the first), it returns a stream of results. No other structural
// requirement is placed on it.
type EffectFunc[In, Result any] func(ctx context.Context, input In, s *Store, prevInput *In, prevResult *Result) rx.Observable[Result]

// AddEffect stores fn as the value of a state-kind behavior addressed by
// effectID. Effects are otherwise just values: nothing about AddEffect
// subscribes or invokes fn.
func AddEffect[In, Result any](ctx context.Context, s *Store, effectID id.ID[EffectFunc[In, Result]], fn EffectFunc[In, Result]) {
	AddState(ctx, s, effectID, id.Value(fn))
}

// GetEffect returns the function currently stored under effectID, and
// whether one has in fact been stored yet.
func GetEffect[In, Result any](s *Store, effectID id.ID[EffectFunc[In, Result]]) (EffectFunc[In, Result], bool) {
	cs := getOrCreateBehavior(context.Background(), s, effectID, nil)

	var (
		value EffectFunc[In, Result]
		found bool
	)

	sub := cs.Observable().Subscribe(context.Background(), rx.OnNext(func(_ context.Context, v EffectFunc[In, Result]) {
		value = v
		found = true
	}))
	sub.Unsubscribe()

	return value, found
}
