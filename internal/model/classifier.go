// Package model defines the classifier boundary and ships a standardizing
// logistic-regression baseline so the pipeline runs end to end without an
// external model artifact.
package model

import (
	"fmt"
	"math"

	"github.com/fortuna/courtside/internal/store"
)

// Classifier estimates home win probabilities from feature vectors.
// Implementations must be deterministic for a given training set.
type Classifier interface {
	Train(features []store.FeatureVector) error
	PredictProbability(f store.FeatureVector) (float64, error)
}

// Logistic is a gradient-descent logistic regression over standardized
// inputs. It is deliberately small; the boundary exists so a stronger model
// can be dropped in without touching the pipeline.
type Logistic struct {
	means   []float64
	stddevs []float64
	weights []float64
	bias    float64

	// Training hyperparameters, fixed at construction.
	epochs int
	lr     float64
}

// NewLogistic returns an untrained baseline classifier.
func NewLogistic() *Logistic {
	return &Logistic{epochs: 300, lr: 0.05}
}

// Train fits weights by full-batch gradient descent on standardized features.
func (m *Logistic) Train(features []store.FeatureVector) error {
	if len(features) == 0 {
		return fmt.Errorf("training set is empty")
	}

	dim := len(store.FeatureNames)
	rows := make([][]float64, len(features))
	labels := make([]float64, len(features))
	for i, f := range features {
		rows[i] = f.Vector()
		if f.HomeWin {
			labels[i] = 1
		}
	}

	m.means = make([]float64, dim)
	m.stddevs = make([]float64, dim)
	for j := 0; j < dim; j++ {
		sum := 0.0
		for _, r := range rows {
			sum += r[j]
		}
		mean := sum / float64(len(rows))
		varSum := 0.0
		for _, r := range rows {
			d := r[j] - mean
			varSum += d * d
		}
		std := math.Sqrt(varSum / float64(len(rows)))
		if std == 0 {
			std = 1
		}
		m.means[j] = mean
		m.stddevs[j] = std
	}

	scaled := make([][]float64, len(rows))
	for i, r := range rows {
		s := make([]float64, dim)
		for j := range r {
			s[j] = (r[j] - m.means[j]) / m.stddevs[j]
		}
		scaled[i] = s
	}

	m.weights = make([]float64, dim)
	m.bias = 0
	n := float64(len(scaled))
	for epoch := 0; epoch < m.epochs; epoch++ {
		gradW := make([]float64, dim)
		gradB := 0.0
		for i, s := range scaled {
			p := sigmoid(dot(m.weights, s) + m.bias)
			err := p - labels[i]
			for j := range s {
				gradW[j] += err * s[j]
			}
			gradB += err
		}
		for j := range m.weights {
			m.weights[j] -= m.lr * gradW[j] / n
		}
		m.bias -= m.lr * gradB / n
	}
	return nil
}

// PredictProbability returns the home win probability for one vector.
func (m *Logistic) PredictProbability(f store.FeatureVector) (float64, error) {
	if m.weights == nil {
		return 0, fmt.Errorf("classifier is not trained")
	}
	v := f.Vector()
	z := m.bias
	for j, x := range v {
		z += m.weights[j] * (x - m.means[j]) / m.stddevs[j]
	}
	return sigmoid(z), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
