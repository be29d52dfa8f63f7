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

func TestAddReducerFoldsDispatchedEventsIntoState(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	ctx := context.Background()
	s := New()
	t.Cleanup(func() { Close(ctx, s) })

	stateID := id.NewStateID[int]()
	incID := id.NewEventID[int]()
	AddState(ctx, s, stateID, id.Value(0))
	is.NoError(AddReducer(ctx, s, stateID, incID, func(state, delta int) int { return state + delta }))

	var got int
	GetBehavior(s, stateID).Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { got = v }))

	is.True(Dispatch(ctx, s, incID, 1).Wait(ctx))
	is.Equal(1, got)

	is.True(Dispatch(ctx, s, incID, 2).Wait(ctx))
	is.Equal(3, got)
}

func TestAddReducerRejectsDuplicatePairAndZeroIdentifiers(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	ctx := context.Background()
	s := New()
	t.Cleanup(func() { Close(ctx, s) })

	stateID := id.NewStateID[int]()
	eventID := id.NewEventID[int]()
	AddState(ctx, s, stateID, id.Value(0))

	fold := func(state, delta int) int { return state + delta }
	is.NoError(AddReducer(ctx, s, stateID, eventID, fold))
	is.ErrorIs(AddReducer(ctx, s, stateID, eventID, fold), ErrDuplicateSource)

	var zero id.ID[int]
	is.ErrorIs(AddReducer(ctx, s, zero, eventID, fold), ErrInvalidIdentifier)
	is.ErrorIs(AddReducer(ctx, s, stateID, zero, fold), ErrInvalidIdentifier)
}

func TestRemoveReducerDetachesSoFurtherDispatchesAreNoOps(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	ctx := context.Background()
	s := New()
	t.Cleanup(func() { Close(ctx, s) })

	stateID := id.NewStateID[int]()
	eventID := id.NewEventID[int]()
	AddState(ctx, s, stateID, id.Value(0))
	is.NoError(AddReducer(ctx, s, stateID, eventID, func(state, delta int) int { return state + delta }))

	var got int
	GetBehavior(s, stateID).Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { got = v }))

	is.True(Dispatch(ctx, s, eventID, 1).Wait(ctx))
	is.Equal(1, got)

	RemoveReducer(ctx, s, stateID, eventID)

	is.False(Dispatch(ctx, s, eventID, 1).Wait(ctx), "no observer left on the event once its only reducer is detached")
	is.Equal(1, got, "state unchanged since the reducer no longer feeds it")
}

func TestStateRemainsSubscribedThroughItsOwnReducerEvenWithNoExternalObserver(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	ctx := context.Background()
	s := New()
	t.Cleanup(func() { Close(ctx, s) })

	stateID := id.NewStateID[int]()
	eventID := id.NewEventID[int]()
	AddState(ctx, s, stateID, id.Value(0))
	is.NoError(AddReducer(ctx, s, stateID, eventID, func(state, delta int) int { return state + delta }))

	is.True(IsSubscribed(s, stateID), "the reducer pipeline keeps the state subscribed to itself permanently")
}
