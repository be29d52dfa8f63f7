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
	"errors"
	"fmt"
)

var ErrMissingSubject = errors.New("rx: Share: missing connector factory")

func recoverValueToError(e any) error {
	if err, ok := e.(error); ok {
		return err
	}

	return fmt.Errorf("rx: unexpected panic: %v", e)
}

type observableError struct {
	err error
}

func newObservableError(err error) error {
	return &observableError{err: err}
}

func (e *observableError) Error() string {
	return "rx.Observable: " + e.err.Error()
}

func (e *observableError) Unwrap() error {
	return e.err
}
