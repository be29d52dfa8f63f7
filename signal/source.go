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

// Package signal implements the controlled subject: the per-signal
// multiplexer that owns a set of source records, a shared downstream pipe,
// and the source-subscription state machine described for behaviors and
// events.
package signal

import (
	"context"
	"errors"

	"github.com/samber/ro-signals/id"
	"github.com/samber/ro-signals/rx"
)

// ErrDuplicateSource is returned by AddSource when a record with the given
// source id is already attached to this controlled subject.
var ErrDuplicateSource = errors.New("signal: a source with this id is already attached")

type sourceState uint8

const (
	stateIdle sourceState = iota
	stateSubscribing
	stateSubscribed
	stateRemoved
)

// sourceRecord is the immutable-shape descriptor attaching one input stream
// to one controlled subject, plus the mutable subscription state machine
// fields tracked alongside it.
type sourceRecord[T any] struct {
	sourceID   any
	observable rx.Observable[T]
	lazy       bool
	initial    id.InitialValue[T]

	initialConsumed bool
	state           sourceState
	subscribing     bool
	sub             rx.Subscription
}

// resetEntry is an immutable snapshot of a source record, enough to re-add
// it verbatim. Captured by GetResetHandle before RemoveSources mutates the
// live record set.
type resetEntry[T any] struct {
	sourceID   any
	observable rx.Observable[T]
	lazy       bool
	initial    id.InitialValue[T]
}

// ResetHandle captures the source records attached to a controlled subject
// at the moment it was obtained, so that reset-behaviors can remove every
// behavior's sources in one pass and re-add them in a second pass —
// deterministically re-seeding every behavior from its initial-value slots
// or non-lazy sources.
type ResetHandle[T any] struct {
	subject  *ControlledSubject[T]
	snapshot []resetEntry[T]
}

// RemoveSources unsubscribes and erases every source the handle captured.
func (h *ResetHandle[T]) RemoveSources(ctx context.Context) {
	h.subject.RemoveAllSources(ctx)
}

// ReaddSources re-attaches every source the handle captured, in its
// original order and with its original laziness and initial value.
func (h *ResetHandle[T]) ReaddSources(ctx context.Context) {
	for _, e := range h.snapshot {
		// DuplicateSource cannot occur here: RemoveSources always runs first.
		_ = h.subject.AddSource(ctx, e.sourceID, e.observable, e.lazy, e.initial)
	}
}
