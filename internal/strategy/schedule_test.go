package strategy

import (
	"math"
	"testing"
	"time"
)

func TestGridPrices_Arithmetic(t *testing.T) {
	prices := GridPrices(100, 200, 5, SpacingArithmetic)

	expected := []float64{100, 125, 150, 175, 200}
	if len(prices) != len(expected) {
		t.Fatalf("unexpected price count: got %d want %d", len(prices), len(expected))
	}
	for i, want := range expected {
		if diff := math.Abs(prices[i] - want); diff > 1e-9 {
			t.Errorf("price[%d] mismatch: got %f want %f", i, prices[i], want)
		}
	}
}

func TestGridPrices_ArithmeticEndpointsAndMonotonic(t *testing.T) {
	prices := GridPrices(64000, 72000, 17, SpacingArithmetic)

	if len(prices) != 17 {
		t.Fatalf("unexpected price count: got %d want 17", len(prices))
	}
	if math.Abs(prices[0]-64000) > 1e-6 {
		t.Errorf("first price should equal lower bound, got %f", prices[0])
	}
	if math.Abs(prices[len(prices)-1]-72000) > 1e-6 {
		t.Errorf("last price should equal upper bound, got %f", prices[len(prices)-1])
	}
	for i := 1; i < len(prices); i++ {
		if prices[i] <= prices[i-1] {
			t.Errorf("prices not strictly increasing at index %d: %f <= %f", i, prices[i], prices[i-1])
		}
	}
}

func TestGridPrices_GeometricConstantRatio(t *testing.T) {
	prices := GridPrices(100, 200, 5, SpacingGeometric)

	if math.Abs(prices[0]-100) > 1e-9 {
		t.Errorf("first price should equal lower bound, got %f", prices[0])
	}
	if math.Abs(prices[4]-200) > 1e-9 {
		t.Errorf("last price should equal upper bound, got %f", prices[4])
	}
	if diff := math.Abs(prices[2] - 141.4213562373095); diff > 1e-6 {
		t.Errorf("middle price mismatch: got %f want 141.421356", prices[2])
	}

	firstRatio := prices[1] / prices[0]
	for i := 2; i < len(prices); i++ {
		ratio := prices[i] / prices[i-1]
		if diff := math.Abs(ratio - firstRatio); diff > 1e-9 {
			t.Errorf("ratio at index %d drifts: got %f want %f", i, ratio, firstRatio)
		}
	}
}

func TestGridPrices_Idempotent(t *testing.T) {
	first := GridPrices(0.5, 1.5, 9, SpacingGeometric)
	second := GridPrices(0.5, 1.5, 9, SpacingGeometric)

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("price[%d] not reproducible: %f vs %f", i, first[i], second[i])
		}
	}
}

func TestEvenQuantities_SumPreserved(t *testing.T) {
	quantities := EvenQuantities(1.0, 7)

	if len(quantities) != 7 {
		t.Fatalf("unexpected quantity count: got %d want 7", len(quantities))
	}
	var sum float64
	for _, q := range quantities {
		sum += q
	}
	if diff := math.Abs(sum - 1.0); diff > 1e-9 {
		t.Errorf("quantity sum drifts from total: got %f", sum)
	}
}

func TestMartingaleQuantities_Powers(t *testing.T) {
	quantities := MartingaleQuantities(0.01, 2.0, 5)

	expected := []float64{0.01, 0.02, 0.04, 0.08, 0.16}
	for i, want := range expected {
		if diff := math.Abs(quantities[i] - want); diff > 1e-12 {
			t.Errorf("quantity[%d] mismatch: got %f want %f", i, quantities[i], want)
		}
	}
}

func TestDCAQuantities_BudgetPreservedAndInverse(t *testing.T) {
	prices := GridPrices(100, 200, 5, SpacingArithmetic)
	quantities := DCAQuantities(1000, prices)

	var spent float64
	for i, q := range quantities {
		spent += q * prices[i]
	}
	if diff := math.Abs(spent - 1000); diff > 1e-6 {
		t.Errorf("total spend drifts from budget: got %f", spent)
	}
	for i := 1; i < len(quantities); i++ {
		if quantities[i] >= quantities[i-1] {
			t.Errorf("quantities should decrease as price rises, index %d: %f >= %f", i, quantities[i], quantities[i-1])
		}
	}
}

func TestProfileQuantities_SumPreserved(t *testing.T) {
	profiles := []Profile{ProfileUniform, ProfileFrontLoaded, ProfileBackLoaded, ProfileMiddleLoaded}
	for _, profile := range profiles {
		quantities := ProfileQuantities(2.5, 10, profile)
		var sum float64
		for _, q := range quantities {
			sum += q
		}
		if diff := math.Abs(sum - 2.5); diff > 1e-9 {
			t.Errorf("profile %s sum drifts: got %f want 2.5", profile, sum)
		}
	}
}

func TestProfileQuantities_FrontLoadedDecreasing(t *testing.T) {
	quantities := ProfileQuantities(1.0, 6, ProfileFrontLoaded)
	for i := 1; i < len(quantities); i++ {
		if quantities[i] >= quantities[i-1] {
			t.Errorf("front loaded quantities should decrease, index %d: %f >= %f", i, quantities[i], quantities[i-1])
		}
	}
}

func TestProfileQuantities_BackLoadedIncreasing(t *testing.T) {
	quantities := ProfileQuantities(1.0, 6, ProfileBackLoaded)
	for i := 1; i < len(quantities); i++ {
		if quantities[i] <= quantities[i-1] {
			t.Errorf("back loaded quantities should increase, index %d: %f <= %f", i, quantities[i], quantities[i-1])
		}
	}
}

func TestProfileQuantities_MiddleLoadedPeaksAtCenter(t *testing.T) {
	quantities := ProfileQuantities(1.0, 9, ProfileMiddleLoaded)

	mid := len(quantities) / 2
	for i, q := range quantities {
		if i == mid {
			continue
		}
		if q > quantities[mid] {
			t.Errorf("quantity[%d]=%f exceeds middle quantity %f", i, q, quantities[mid])
		}
	}
	if quantities[0] >= quantities[mid] {
		t.Errorf("edge quantity %f should be below middle %f", quantities[0], quantities[mid])
	}
}

func TestSliceInterval(t *testing.T) {
	if got := SliceInterval(30, 10); got != 200*time.Second {
		t.Errorf("interval mismatch: got %v want 200s", got)
	}
	if got := SliceInterval(1, 2); got != 60*time.Second {
		t.Errorf("interval mismatch: got %v want 60s", got)
	}
}

func TestGridSides_BothAlternates(t *testing.T) {
	sides := GridSides(SideBoth, 5)

	expected := []Side{SideBuy, SideSell, SideBuy, SideSell, SideBuy}
	for i, want := range expected {
		if sides[i] != want {
			t.Errorf("side[%d] mismatch: got %s want %s", i, sides[i], want)
		}
	}
}

func TestGridSides_SingleSideUniform(t *testing.T) {
	for _, side := range GridSides(SideSell, 4) {
		if side != SideSell {
			t.Fatalf("expected all SELL legs, got %s", side)
		}
	}
}

func TestBuildLegs_IndexAndPrice(t *testing.T) {
	prices := []float64{100, 110, 120}
	quantities := []float64{0.1, 0.2, 0.3}
	legs := BuildLegs(prices, quantities, GridSides(SideBuy, 3))

	for i, leg := range legs {
		if leg.Index != i+1 {
			t.Errorf("leg %d has index %d, want %d", i, leg.Index, i+1)
		}
		if leg.Price != prices[i] {
			t.Errorf("leg %d price mismatch: got %f want %f", i, leg.Price, prices[i])
		}
		if leg.Quantity != quantities[i] {
			t.Errorf("leg %d quantity mismatch: got %f want %f", i, leg.Quantity, quantities[i])
		}
	}
}

func TestBuildLegs_NoPricesMeansMarket(t *testing.T) {
	legs := BuildLegs(nil, []float64{0.1, 0.1}, GridSides(SideBuy, 2))
	for _, leg := range legs {
		if leg.Price != 0 {
			t.Errorf("market leg should carry zero price, got %f", leg.Price)
		}
	}
}
