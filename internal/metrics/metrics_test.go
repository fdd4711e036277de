package metrics

import (
	"errors"
	"math"
	"testing"
)

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{10, 20, 30})
	if err != nil {
		t.Fatal(err)
	}
	if s.Mean != 20 || s.Dev != 0.5 || s.Min != 10 || s.Max != 30 {
		t.Errorf("summary = %+v", s)
	}
	if math.Abs(s.StdDev-8.165) > 0.001 {
		t.Errorf("std dev = %.4f, want 8.165", s.StdDev)
	}
}

func TestSummarizeSingleAndZero(t *testing.T) {
	s, err := Summarize([]float64{5})
	if err != nil || s.Dev != 0 || s.StdDev != 0 {
		t.Errorf("single: %+v %v", s, err)
	}
	s, err = Summarize([]float64{0, 0})
	if err != nil || s.Dev != 0 {
		t.Errorf("zero mean: %+v %v", s, err)
	}
	if _, err := Summarize(nil); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v", err)
	}
}
