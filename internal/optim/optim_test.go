package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/flightdyn/internal/aircraft"
)

func TestGridSearchFindsMinimum(t *testing.T) {
	g := NewGridSearch([]string{"x", "y"}, [][]float64{Linspace(-2, 2, 9), Linspace(0, 4, 5)})
	obj := func(_ context.Context, p map[string]float64) (float64, error) {
		if p["y"] == 0 {
			return 0, errors.New("infeasible")
		}
		return (p["x"]-0.5)*(p["x"]-0.5) + (p["y"]-3)*(p["y"]-3), nil
	}

	params, val, err := g.Search(context.Background(), obj)
	if err != nil {
		t.Fatal(err)
	}
	if params["x"] != 0.5 || params["y"] != 3 || val != 0 {
		t.Errorf("got %v = %v, want x=0.5 y=3", params, val)
	}
}

func TestGridSearchErrors(t *testing.T) {
	g := NewGridSearch([]string{"x"}, [][]float64{{1, 2}})
	_, _, err := g.Search(context.Background(), func(context.Context, map[string]float64) (float64, error) {
		return 0, errors.New("nope")
	})
	if !errors.Is(err, ErrNoFeasiblePoint) {
		t.Errorf("expected ErrNoFeasiblePoint, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = g.Search(ctx, func(context.Context, map[string]float64) (float64, error) { return 1, nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(30, 40, 3)
	if len(got) != 3 || got[0] != 30 || got[1] != 35 || got[2] != 40 {
		t.Errorf("Linspace = %v", got)
	}
	if got := Linspace(7, 9, 1); len(got) != 1 || got[0] != 7 {
		t.Errorf("single point Linspace = %v", got)
	}
}

func TestTrimObjectiveSearch(t *testing.T) {
	for _, name := range ObjectiveNames() {
		t.Run(name, func(t *testing.T) {
			obj, err := TrimObjective(aircraft.Trainer(), 1500, name, nil)
			if err != nil {
				t.Fatal(err)
			}
			speeds := Linspace(30, 80, 11)
			params, best, err := NewGridSearch([]string{"airspeed"}, [][]float64{speeds}).Search(context.Background(), obj)
			if err != nil {
				t.Fatal(err)
			}
			if v := params["airspeed"]; v < 30 || v > 80 {
				t.Errorf("best airspeed %v outside the grid", v)
			}
			if best <= 0 || math.IsInf(best, 0) {
				t.Errorf("unexpected objective value %v", best)
			}
			for _, v := range speeds {
				val, err := obj(context.Background(), map[string]float64{"airspeed": v})
				if err == nil && val < best {
					t.Errorf("airspeed %v scores %v, below reported minimum %v", v, val, best)
				}
			}
		})
	}

	if _, err := TrimObjective(aircraft.Trainer(), 1500, "lift", nil); err == nil {
		t.Error("expected error for unknown objective")
	}
}
