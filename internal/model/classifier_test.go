package model

import (
	"testing"

	"github.com/fortuna/courtside/internal/store"
)

func TestLogisticTrainRequiresData(t *testing.T) {
	if err := NewLogistic().Train(nil); err == nil {
		t.Fatal("expected error for empty training set")
	}
}

func TestLogisticPredictRequiresTraining(t *testing.T) {
	if _, err := NewLogistic().PredictProbability(store.FeatureVector{}); err == nil {
		t.Fatal("expected error before training")
	}
}

func TestLogisticLearnsSeparableSignal(t *testing.T) {
	// Net rating difference fully determines the label.
	var train []store.FeatureVector
	for i := 0; i < 40; i++ {
		train = append(train,
			store.FeatureVector{DiffNetRtg: 8, HomeWin: true},
			store.FeatureVector{DiffNetRtg: -8, HomeWin: false},
		)
	}

	m := NewLogistic()
	if err := m.Train(train); err != nil {
		t.Fatalf("train: %v", err)
	}

	pHigh, err := m.PredictProbability(store.FeatureVector{DiffNetRtg: 8})
	if err != nil {
		t.Fatal(err)
	}
	pLow, err := m.PredictProbability(store.FeatureVector{DiffNetRtg: -8})
	if err != nil {
		t.Fatal(err)
	}

	if pHigh <= 0.5 {
		t.Errorf("positive signal: got %v, want > 0.5", pHigh)
	}
	if pLow >= 0.5 {
		t.Errorf("negative signal: got %v, want < 0.5", pLow)
	}
	if pHigh <= pLow {
		t.Errorf("ordering violated: %v <= %v", pHigh, pLow)
	}
}

func TestLogisticIsDeterministic(t *testing.T) {
	train := []store.FeatureVector{
		{DiffNetRtg: 3, DiffStreak: 1, HomeWin: true},
		{DiffNetRtg: -2, DiffStreak: -2, HomeWin: false},
		{DiffNetRtg: 5, DiffStreak: 0, HomeWin: true},
		{DiffNetRtg: -4, DiffStreak: 2, HomeWin: false},
	}
	probe := store.FeatureVector{DiffNetRtg: 1, DiffStreak: 1}

	m1, m2 := NewLogistic(), NewLogistic()
	if err := m1.Train(train); err != nil {
		t.Fatal(err)
	}
	if err := m2.Train(train); err != nil {
		t.Fatal(err)
	}

	p1, _ := m1.PredictProbability(probe)
	p2, _ := m2.PredictProbability(probe)
	if p1 != p2 {
		t.Errorf("same data, different predictions: %v vs %v", p1, p2)
	}
}
