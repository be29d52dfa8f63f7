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

// Package id defines the opaque signal identifiers addressed by the store:
// behaviors, states, derived states, events, and effects. Every identifier
// carries a process-unique symbol used for equality and lookup, and a kind
// discriminator distinguishing which registry (behaviors or events) it
// belongs to.
package id

import "github.com/google/uuid"

// Kind discriminates what a signal identifier addresses.
type Kind uint8

const (
	// KindBehavior is a general behavior: a signal with a current value.
	KindBehavior Kind = iota
	// KindState is a behavior with no upstream source, seeded by reducers.
	KindState
	// KindDerived is a behavior computed lazily from other signals.
	KindDerived
	// KindEvent is a discrete, one-shot occurrence stream.
	KindEvent
	// KindEffect aliases KindState for a behavior whose value is a function.
	KindEffect
)

func (k Kind) String() string {
	switch k {
	case KindBehavior:
		return "behavior"
	case KindState:
		return "state"
	case KindDerived:
		return "derived"
	case KindEvent:
		return "event"
	case KindEffect:
		return "effect"
	default:
		return "unknown"
	}
}

// IsBehaviorKind reports whether k belongs in the behaviors registry (state
// and derived are sub-kinds of behavior; effect aliases state).
func (k Kind) IsBehaviorKind() bool {
	return k != KindEvent
}

// ID is an opaque, typed, process-unique signal identifier. The phantom type
// parameter T never appears at runtime; it only constrains what value type
// flows through the signal this identifier addresses. Equality is identity
// of the underlying symbol, so two IDs constructed separately — even with
// the same name — are never equal.
type ID[T any] struct {
	symbol uuid.UUID
	kind   Kind
	name   string
}

// Symbol returns the process-unique value backing equality and lookup.
func (i ID[T]) Symbol() uuid.UUID { return i.symbol }

// Kind returns the discriminator tag this identifier was created with.
func (i ID[T]) Kind() Kind { return i.kind }

// Name returns the human-readable name bound to this identifier, if any.
func (i ID[T]) Name() string { return i.name }

// IsZero reports whether i is the unconstructed zero value — never a valid
// identifier, since every constructor assigns a fresh symbol.
func (i ID[T]) IsZero() bool { return i.symbol == uuid.Nil }

// WithName returns a copy of i with name bound, for diagnostics. The
// original identifier still compares equal (same symbol) to the copy.
func (i ID[T]) WithName(name string) ID[T] {
	i.name = name
	return i
}

func newID[T any](kind Kind) ID[T] {
	return ID[T]{symbol: uuid.New(), kind: kind}
}

// NewBehaviorID creates a fresh opaque identifier for a general behavior.
func NewBehaviorID[T any]() ID[T] { return newID[T](KindBehavior) }

// NewStateID creates a fresh opaque identifier for a state behavior (no
// upstream source; seeded only by reducers or direct dispatch-equivalents).
func NewStateID[T any]() ID[T] { return newID[T](KindState) }

// NewDerivedID creates a fresh opaque identifier for a derived behavior.
func NewDerivedID[T any]() ID[T] { return newID[T](KindDerived) }

// NewEventID creates a fresh opaque identifier for an event.
func NewEventID[T any]() ID[T] { return newID[T](KindEvent) }

// NewEffectID creates a fresh opaque identifier for an effect: a state-kind
// behavior whose value happens to be an effect function.
func NewEffectID[T any]() ID[T] { return newID[T](KindEffect) }

// noValue is the unexported sentinel type backing NoValue: a dedicated type
// guarantees no user value can ever compare equal to it.
type noValue struct{}

// NoValue is a distinguished sentinel meaning "do not emit an initial
// value", distinguishable from any user value of any type. It is the
// default content of an initial-value slot.
var NoValue = noValue{}

// InitialValue is the content of a behavior's initial-value slot: either a
// concrete value, a zero-argument getter evaluated lazily on first
// subscription, or NoValue (meaning no initial value at all).
type InitialValue[T any] struct {
	hasValue  bool
	value     T
	getter    func() T
	isNoValue bool
}

// Value wraps a concrete initial value.
func Value[T any](v T) InitialValue[T] {
	return InitialValue[T]{hasValue: true, value: v}
}

// Getter wraps a zero-argument value-getter, evaluated lazily the first time
// it is needed. A panicking getter surfaces as an UpstreamError at first
// subscription.
func Getter[T any](fn func() T) InitialValue[T] {
	return InitialValue[T]{getter: fn}
}

// None returns an initial-value slot holding NoValue: no initial value will
// ever be emitted for it.
func None[T any]() InitialValue[T] {
	return InitialValue[T]{isNoValue: true}
}

// IsNoValue reports whether this slot carries NoValue.
func (s InitialValue[T]) IsNoValue() bool { return s.isNoValue }

// Resolve evaluates the slot to a concrete value, invoking the getter if
// present. It must not be called when IsNoValue is true.
func (s InitialValue[T]) Resolve() T {
	if s.getter != nil {
		return s.getter()
	}

	return s.value
}
