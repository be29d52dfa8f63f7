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
	"errors"

	"github.com/samber/ro-signals/signal"
)

// Validation errors: synchronous, local to the caller.
var (
	// ErrInvalidIdentifier is returned when a zero-value identifier is
	// passed to an operation that requires one.
	ErrInvalidIdentifier = errors.New("store: invalid identifier")
	// ErrInvalidSource is returned when a nil observable is passed where a
	// source stream is required.
	ErrInvalidSource = errors.New("store: invalid source")
	// ErrDuplicateBehaviorSource is returned by AddBehavior/AddDerivedState
	// (and their aliases) when the target behavior already carries a source
	// under the same source-id (the behavior's own id, which AddState also
	// uses), and by ConnectToBehavior when the target carries any source.
	ErrDuplicateBehaviorSource = errors.New("store: behavior already has a source")
)

// ErrDuplicateSource is returned when a second source is attached under a
// source-id already in use on the same signal (reducers, explicit event
// sources). It is the same value as the lower-level signal.ErrDuplicateSource,
// so callers can match on either.
var ErrDuplicateSource = signal.ErrDuplicateSource
