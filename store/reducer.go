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

// Reducer is a pure state transition function, modeled as a source on a
// state behavior.
type Reducer[S, E any] func(state S, event E) S

// AddReducer attaches a derived source to stateID's controlled subject
// whose source-id is eventID's symbol: the source stream is
// events(eventID) zipped with the latest state, mapped through reducer.
// Because the state subject is addressed non-lazily by its own reducer
// pipeline (the pipeline's source-id is added with lazy=false), the state
// is always subscribed to itself and never misses an event. Adding a
// second reducer for the same (stateID, eventID) pair fails with
// ErrDuplicateSource.
func AddReducer[S, E any](ctx context.Context, s *Store, stateID id.ID[S], eventID id.ID[E], reducer Reducer[S, E]) error {
	if stateID.IsZero() || eventID.IsZero() {
		return ErrInvalidIdentifier
	}

	state := getOrCreateBehavior(ctx, s, stateID, nil)
	events := getOrCreateEvent(ctx, s, eventID)

	zipped := rx.Pipe1(
		events.Observable(),
		rx.WithLatestFrom[E, S](state.Observable()),
	)
	nextState := rx.Pipe1(zipped, rx.Map(func(pair rx.Tuple2[E, S]) S {
		return reducer(pair.B, pair.A)
	}))

	return state.AddSource(ctx, eventID.Symbol(), nextState, false, id.None[S]())
}

// RemoveReducer detaches the reducer previously attached for this
// (stateID, eventID) pair, if any.
func RemoveReducer[S, E any](ctx context.Context, s *Store, stateID id.ID[S], eventID id.ID[E]) {
	state := getOrCreateBehavior(ctx, s, stateID, nil)
	state.RemoveSource(ctx, eventID.Symbol())
}
