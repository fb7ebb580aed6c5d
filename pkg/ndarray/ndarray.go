/*
Copyright 2024 The Pipelime Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package ndarray is the minimal numeric-array value type pipelime's image
// and numpy codecs decode into. Real numeric/image processing is
// delegated (spec §1 Non-goals); this type only needs to carry shape and
// data far enough to round-trip through the codecs and be compared in
// tests.
package ndarray

import "fmt"

// DType is the element type of an Array.
type DType string

const (
	Uint8   DType = "uint8"
	Float32 DType = "float32"
	Float64 DType = "float64"
)

// Array is an n-dimensional numeric array, row-major.
type Array struct {
	Shape []int
	DType DType
	Data  []float64
}

// NumElements returns the product of Shape.
func (a Array) NumElements() int {
	n := 1
	for _, s := range a.Shape {
		n *= s
	}
	return n
}

// Equal reports whether a and b have identical shape, dtype and data.
func (a Array) Equal(b Array) bool {
	if a.DType != b.DType || len(a.Shape) != len(b.Shape) || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			return false
		}
	}
	return true
}

func (a Array) String() string {
	return fmt.Sprintf("Array(shape=%v, dtype=%s)", a.Shape, a.DType)
}

// AtLeast2D returns a unchanged if it already has 2 or more dimensions;
// otherwise it returns a new Array sharing a's Data, reshaped to Nx1 (from
// 1-D) or 1x1 (from 0-D), matching numpy-text's "at-least-2-D" decode
// contract (spec §4.1).
func (a Array) AtLeast2D() Array {
	if len(a.Shape) >= 2 {
		return a
	}
	if len(a.Shape) == 0 {
		return Array{Shape: []int{1, 1}, DType: a.DType, Data: a.Data}
	}
	return Array{Shape: []int{a.Shape[0], 1}, DType: a.DType, Data: a.Data}
}
