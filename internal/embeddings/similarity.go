// Package embeddings ranks ideas by semantic similarity of their text.
package embeddings

import (
	"fmt"
	"math"
)

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
func CosineSimilarity(a, b []float64) (float64, error) {
	dot, err := DotProduct(a, b)
	if err != nil {
		return 0, err
	}

	normA, normB := Magnitude(a), Magnitude(b)
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("vector norm cannot be zero")
	}

	// Clamp to handle floating point errors
	return math.Max(-1, math.Min(1, dot/(normA*normB))), nil
}

// Normalize scales v to unit length. For unit vectors the dot product equals
// the cosine similarity, which is how the index compares them.
func Normalize(v []float64) ([]float64, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("vector cannot be empty")
	}

	norm := Magnitude(v)
	if norm == 0 {
		return nil, fmt.Errorf("cannot normalize zero vector")
	}

	result := make([]float64, len(v))
	for i, val := range v {
		result[i] = val / norm
	}
	return result, nil
}

// DotProduct calculates the dot product of two vectors
func DotProduct(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have same length: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}

	result := 0.0
	for i := range a {
		result += a[i] * b[i]
	}
	return result, nil
}

// Magnitude calculates the Euclidean norm of a vector
func Magnitude(v []float64) float64 {
	sum := 0.0
	for _, val := range v {
		sum += val * val
	}
	return math.Sqrt(sum)
}

// Validate rejects empty vectors and vectors holding NaN or Inf.
func Validate(vec []float64) error {
	if len(vec) == 0 {
		return fmt.Errorf("embedding vector is empty")
	}
	for i, val := range vec {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("embedding contains invalid value at index %d: %v", i, val)
		}
	}
	return nil
}
