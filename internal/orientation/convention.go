// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "fmt"

// Matrix3 is a row-major 3x3 matrix.
type Matrix3 [3][3]float64

// Mul returns the matrix product m·n.
func (m Matrix3) Mul(n Matrix3) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return out
}

// Transpose returns mᵀ.
func (m Matrix3) Transpose() Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// Convention is a named fixed rotation mapping the sensor axis frame onto
// the world axis frame. It is selected once at construction and never
// changes for the lifetime of a pipeline.
type Convention struct {
	Name   string
	matrix Matrix3
}

// Axis-remap presets. These come from bench testing real boards: e.g. on a
// SparkFun BNO080 the physical Z axis reads back as sensor X, so swapping
// X and Z (with sign flips for handedness) puts the board upright on screen.
// New hardware quirks are added here as named matrices, not as branches in
// the transform code.
var conventions = map[string]Matrix3{
	"identity":        {{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	"swap_xy":         {{0, 1, 0}, {1, 0, 0}, {0, 0, 1}},
	"swap_xz":         {{0, 0, 1}, {0, 1, 0}, {1, 0, 0}},
	"swap_yz":         {{1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	"flip_z":          {{1, 0, 0}, {0, 1, 0}, {0, 0, -1}},
	"swap_xz_flipz":   {{0, 0, -1}, {0, 1, 0}, {-1, 0, 0}},
	"swap_xz_flipy":   {{0, 0, 1}, {0, -1, 0}, {1, 0, 0}},
	"swap_xz_rot180y": {{0, 0, -1}, {0, 1, 0}, {1, 0, 0}},
	"bno080_fix":      {{0, 0, 1}, {0, -1, 0}, {-1, 0, 0}},
}

// ConventionByName looks up one of the preset axis conventions.
func ConventionByName(name string) (Convention, error) {
	m, ok := conventions[name]
	if !ok {
		return Convention{}, fmt.Errorf("unknown axis convention %q", name)
	}
	return Convention{Name: name, matrix: m}, nil
}

// IdentityConvention returns the no-op axis mapping.
func IdentityConvention() Convention {
	return Convention{Name: "identity", matrix: conventions["identity"]}
}

// ConventionNames returns the recognized preset names, for config errors.
func ConventionNames() []string {
	names := make([]string, 0, len(conventions))
	for n := range conventions {
		names = append(names, n)
	}
	return names
}

// IsIdentity reports whether the convention leaves the rotation untouched.
func (c Convention) IsIdentity() bool {
	return c.matrix == conventions["identity"]
}

// Apply remaps a rotation matrix from the sensor frame to the world frame:
// R' = T·R·Tᵀ. Conjugating by T also works when T is a reflection
// (det = -1): the result is still a proper rotation.
func (c Convention) Apply(r Matrix3) Matrix3 {
	return c.matrix.Mul(r).Mul(c.matrix.Transpose())
}
