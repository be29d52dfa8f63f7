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

// Package store implements the public façade of the reactive signal store:
// identifier-addressed registries of behaviors and events, the parent/child
// store hierarchy, and the convenience operations (state+reducer, connect,
// dispatch, typed event fan-out, effects, introspection) layered over the
// per-signal controlled subject in ../signal.
//
// Go disallows generic methods, so every operation that is generic over a
// signal's value type T is a package-level function taking *Store as its
// first non-context argument, rather than a method on Store.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/samber/ro-signals/id"
	"github.com/samber/ro-signals/queue"
	"github.com/samber/ro-signals/rx"
	"github.com/samber/ro-signals/signal"
)

// Mutation is one registry-mutation notification: a signal was added to (or
// removed from) a store's behaviors or events registry.
type Mutation struct {
	Symbol uuid.UUID
	Kind   id.Kind
	Added  bool
}

// signalMeta is the type-erased bookkeeping record kept alongside every
// typed *signal.ControlledSubject[T], so that introspection and typed
// fan-out can operate without knowing T.
type signalMeta struct {
	kind                   id.Kind
	name                   string
	sourceCount            func() int
	isSubscribed           func() bool
	isSubscribedObservable rx.Observable[bool]

	// getResetHandle is non-nil only for behaviors: it closes over the
	// concrete T known at registration time, so ResetBehaviors can operate
	// over the heterogeneous registry without knowing any individual T.
	getResetHandle func() resetHandle
}

// resetHandle is satisfied by *signal.ResetHandle[T] for any T: neither
// method mentions T in its signature, so the assignment in
// getOrCreateBehavior type-checks regardless of which T is live there.
type resetHandle interface {
	RemoveSources(ctx context.Context)
	ReaddSources(ctx context.Context)
}

// Store is the public façade: two identifier→controlled-subject registries
// (behaviors, events), a parent link, and a delayed event queue shared with
// every descendant store.
type Store struct {
	mu sync.Mutex

	parent *Store
	dq     *queue.DelayedQueue

	behaviors map[uuid.UUID]any
	events    map[uuid.UUID]any
	meta      map[uuid.UUID]*signalMeta
	fanouts   map[uuid.UUID]rx.Subscription

	mutations rx.Subject[Mutation]
}

// New creates a root store with its own delayed event queue.
func New() *Store {
	return &Store{
		dq:        queue.New(),
		behaviors: make(map[uuid.UUID]any),
		events:    make(map[uuid.UUID]any),
		meta:      make(map[uuid.UUID]*signalMeta),
		fanouts:   make(map[uuid.UUID]rx.Subscription),
		mutations: rx.NewSubject[Mutation](),
	}
}

// CreateChildStore returns a fresh store whose parent is s and which shares
// s's delayed event queue, so event ordering is preserved across the
// parent/child boundary.
func CreateChildStore(s *Store) *Store {
	return &Store{
		parent:    s,
		dq:        s.dq,
		behaviors: make(map[uuid.UUID]any),
		events:    make(map[uuid.UUID]any),
		meta:      make(map[uuid.UUID]*signalMeta),
		fanouts:   make(map[uuid.UUID]rx.Subscription),
		mutations: rx.NewSubject[Mutation](),
	}
}

// GetParentStore returns s's parent, or nil if s is a root store.
func GetParentStore(s *Store) *Store { return s.parent }

// GetRootStore walks s's parent chain up to the root store.
func GetRootStore(s *Store) *Store {
	for s.parent != nil {
		s = s.parent
	}

	return s
}

// Mutations exposes the registry-mutation notification stream: every
// add/complete of a behavior or event is announced here, so that children
// and is-subscribed reporters can react.
func Mutations(s *Store) rx.Observable[Mutation] {
	return s.mutations.AsObservable()
}

func (s *Store) notifyMutation(ctx context.Context, symbol uuid.UUID, kind id.Kind, added bool) {
	s.mutations.Next(ctx, Mutation{Symbol: symbol, Kind: kind, Added: added})
}

// getOrCreateBehavior looks up (or lazily creates) the controlled subject
// backing bid, in the behaviors registry.
func getOrCreateBehavior[T any](ctx context.Context, s *Store, bid id.ID[T], equal signal.EqualFunc[T]) *signal.ControlledSubject[T] {
	s.mu.Lock()
	if cs, ok := s.behaviors[bid.Symbol()]; ok {
		s.mu.Unlock()
		return cs.(*signal.ControlledSubject[T]) //nolint:forcetypeassert
	}

	cs := signal.NewBehaviorControlledSubject[T](equal)
	s.behaviors[bid.Symbol()] = cs
	s.meta[bid.Symbol()] = &signalMeta{
		kind:                   bid.Kind(),
		name:                   bid.Name(),
		sourceCount:            cs.SourceCount,
		isSubscribed:           cs.IsObservableSubscribed,
		isSubscribedObservable: cs.IsSubscribedObservable(),
		getResetHandle:         func() resetHandle { return cs.GetResetHandle() },
	}
	s.mu.Unlock()

	s.notifyMutation(ctx, bid.Symbol(), bid.Kind(), true)

	return cs
}

// getOrCreateEvent looks up (or lazily creates) the controlled subject
// backing eid, in the events registry.
func getOrCreateEvent[T any](ctx context.Context, s *Store, eid id.ID[T]) *signal.ControlledSubject[T] {
	s.mu.Lock()
	if cs, ok := s.events[eid.Symbol()]; ok {
		s.mu.Unlock()
		return cs.(*signal.ControlledSubject[T]) //nolint:forcetypeassert
	}

	cs := signal.NewEventControlledSubject[T](s.dq)
	s.events[eid.Symbol()] = cs
	s.meta[eid.Symbol()] = &signalMeta{
		kind:                   eid.Kind(),
		name:                   eid.Name(),
		sourceCount:            cs.SourceCount,
		isSubscribed:           cs.IsObservableSubscribed,
		isSubscribedObservable: cs.IsSubscribedObservable(),
	}
	s.mu.Unlock()

	s.notifyMutation(ctx, eid.Symbol(), eid.Kind(), true)

	return cs
}

// SetName binds a diagnostic name to id, overriding whatever name it was
// constructed or previously bound with.
func SetName[T any](s *Store, sid id.ID[T], name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.meta[sid.Symbol()]; ok {
		m.name = name
	}
}

// Name returns the diagnostic name currently bound to id, if any.
func Name[T any](s *Store, sid id.ID[T]) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.meta[sid.Symbol()]; ok {
		return m.name
	}

	return sid.Name()
}

// IsSubscribed reports whether id's controlled subject currently has at
// least one downstream observer.
func IsSubscribed[T any](s *Store, sid id.ID[T]) bool {
	s.mu.Lock()
	m, ok := s.meta[sid.Symbol()]
	s.mu.Unlock()

	return ok && m.isSubscribed()
}

// IsSubscribedObservable is the reactive counterpart of IsSubscribed.
func IsSubscribedObservable[T any](s *Store, sid id.ID[T]) rx.Observable[bool] {
	s.mu.Lock()
	m, ok := s.meta[sid.Symbol()]
	s.mu.Unlock()

	if !ok {
		return rx.NewBehaviorSubject(false).AsObservable()
	}

	return m.isSubscribedObservable
}

// SourceCount returns the number of source records currently attached to
// id's controlled subject.
func SourceCount[T any](s *Store, sid id.ID[T]) int {
	s.mu.Lock()
	m, ok := s.meta[sid.Symbol()]
	s.mu.Unlock()

	if !ok {
		return 0
	}

	return m.sourceCount()
}

// Info is one row of the Signals introspection snapshot.
type Info struct {
	Symbol       uuid.UUID
	Kind         id.Kind
	Name         string
	SourceCount  int
	IsSubscribed bool
}

// Signals snapshots every signal registered directly on s (not its
// ancestors), for diagnostics and tests.
func Signals(s *Store) []Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]Info, 0, len(s.meta))
	for symbol, m := range s.meta {
		infos = append(infos, Info{
			Symbol:       symbol,
			Kind:         m.kind,
			Name:         m.name,
			SourceCount:  m.sourceCount(),
			IsSubscribed: m.isSubscribed(),
		})
	}

	return infos
}

// ResetBehaviors obtains a reset handle from every behavior registered
// directly on s, removes all their sources, then re-adds them — in two
// passes, so every behavior deterministically returns to the value
// dictated by its initial-value slot or non-lazy source.
func ResetBehaviors(ctx context.Context, s *Store) {
	s.mu.Lock()
	getters := make([]func() resetHandle, 0, len(s.behaviors))
	for symbol := range s.behaviors {
		if m, ok := s.meta[symbol]; ok && m.getResetHandle != nil {
			getters = append(getters, m.getResetHandle)
		}
	}
	s.mu.Unlock()

	handles := make([]resetHandle, 0, len(getters))
	for _, get := range getters {
		handles = append(handles, get())
	}

	for _, h := range handles {
		h.RemoveSources(ctx)
	}

	for _, h := range handles {
		h.ReaddSources(ctx)
	}
}

// CompleteBehavior drains bid's sources, completes its subject, and
// deregisters it.
func CompleteBehavior[T any](ctx context.Context, s *Store, bid id.ID[T]) {
	s.mu.Lock()
	cs, ok := s.behaviors[bid.Symbol()]
	if ok {
		delete(s.behaviors, bid.Symbol())
		delete(s.meta, bid.Symbol())
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	typed := cs.(*signal.ControlledSubject[T]) //nolint:forcetypeassert
	typed.RemoveAllSources(ctx)
	typed.Complete(ctx)

	s.notifyMutation(ctx, bid.Symbol(), bid.Kind(), false)
}

// CompleteAllSignals drains and completes every behavior and event
// registered directly on s, and cancels every typed fan-out subscription.
// This is the only guaranteed way to release every upstream a store holds;
// call it at store teardown.
func CompleteAllSignals(ctx context.Context, s *Store) {
	s.mu.Lock()
	behaviors := make(map[uuid.UUID]any, len(s.behaviors))
	for k, v := range s.behaviors {
		behaviors[k] = v
	}

	events := make(map[uuid.UUID]any, len(s.events))
	for k, v := range s.events {
		events[k] = v
	}

	fanouts := make([]rx.Subscription, 0, len(s.fanouts))
	for _, sub := range s.fanouts {
		fanouts = append(fanouts, sub)
	}

	s.behaviors = make(map[uuid.UUID]any)
	s.events = make(map[uuid.UUID]any)
	s.meta = make(map[uuid.UUID]*signalMeta)
	s.fanouts = make(map[uuid.UUID]rx.Subscription)
	s.mu.Unlock()

	for _, sub := range fanouts {
		sub.Unsubscribe()
	}

	for symbol, cs := range behaviors {
		completeErased(ctx, cs)
		s.notifyMutation(ctx, symbol, id.KindBehavior, false)
	}

	for symbol, cs := range events {
		completeErased(ctx, cs)
		s.notifyMutation(ctx, symbol, id.KindEvent, false)
	}
}

// Close completes every signal on s (as CompleteAllSignals does) and, if s
// is a root store, closes its delayed event queue's drain goroutine too —
// a child store shares its parent's queue, so only the root may close it.
// Call this at store teardown to avoid leaking the drain goroutine.
func Close(ctx context.Context, s *Store) {
	CompleteAllSignals(ctx, s)

	if s.parent == nil {
		s.dq.Close()
	}
}

// completer is implemented by every *signal.ControlledSubject[T]; used by
// CompleteAllSignals to tear one down without knowing its T.
type completer interface {
	RemoveAllSources(ctx context.Context)
	Complete(ctx context.Context)
}

func completeErased(ctx context.Context, cs any) {
	c := cs.(completer) //nolint:forcetypeassert
	c.RemoveAllSources(ctx)
	c.Complete(ctx)
}
