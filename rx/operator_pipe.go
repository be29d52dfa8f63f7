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

// Pipe1 applies a single operator to source.
func Pipe1[A, B any](source Observable[A], op1 func(Observable[A]) Observable[B]) Observable[B] {
	return op1(source)
}

// Pipe2 applies two operators to source, in order.
func Pipe2[A, B, C any](
	source Observable[A],
	op1 func(Observable[A]) Observable[B],
	op2 func(Observable[B]) Observable[C],
) Observable[C] {
	return op2(op1(source))
}

// Pipe3 applies three operators to source, in order.
func Pipe3[A, B, C, D any](
	source Observable[A],
	op1 func(Observable[A]) Observable[B],
	op2 func(Observable[B]) Observable[C],
	op3 func(Observable[C]) Observable[D],
) Observable[D] {
	return op3(op2(op1(source)))
}

// Pipe4 applies four operators to source, in order.
func Pipe4[A, B, C, D, E any](
	source Observable[A],
	op1 func(Observable[A]) Observable[B],
	op2 func(Observable[B]) Observable[C],
	op3 func(Observable[C]) Observable[D],
	op4 func(Observable[D]) Observable[E],
) Observable[E] {
	return op4(op3(op2(op1(source))))
}
