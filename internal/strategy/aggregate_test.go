package strategy

import (
	"math"
	"testing"
	"time"
)

func TestAggregate_CountsAndSuccessRate(t *testing.T) {
	outcomes := []LegOutcome{
		{Leg: ScheduleLeg{Index: 1}, OrderID: "1", ExecutedQty: 0.1, QuoteQty: 10},
		{Leg: ScheduleLeg{Index: 2}, Err: "rejected"},
		{Leg: ScheduleLeg{Index: 3}, OrderID: "3", ExecutedQty: 0.1, QuoteQty: 11},
		{Leg: ScheduleLeg{Index: 4}, OrderID: "4", ExecutedQty: 0.2, QuoteQty: 24},
		{Leg: ScheduleLeg{Index: 5}, OrderID: "5", ExecutedQty: 0.1, QuoteQty: 13},
	}

	report := Aggregate("TWAP", "BTCUSDT", SideBuy, nil, outcomes, time.Now().UTC())

	if report.PlacedCount != 4 || report.FailedCount != 1 {
		t.Errorf("unexpected counts: placed=%d failed=%d", report.PlacedCount, report.FailedCount)
	}
	if diff := math.Abs(report.SuccessRate - 80.0); diff > 1e-9 {
		t.Errorf("success rate mismatch: got %f want 80.0", report.SuccessRate)
	}
	if diff := math.Abs(report.TotalExecuted - 0.5); diff > 1e-9 {
		t.Errorf("total executed mismatch: got %f want 0.5", report.TotalExecuted)
	}
	if diff := math.Abs(report.TotalCost - 58); diff > 1e-9 {
		t.Errorf("total cost mismatch: got %f want 58", report.TotalCost)
	}
	if diff := math.Abs(report.AveragePrice - 116); diff > 1e-9 {
		t.Errorf("average price mismatch: got %f want 116", report.AveragePrice)
	}
}

func TestAggregate_AllFailedAveragePriceZero(t *testing.T) {
	outcomes := []LegOutcome{
		{Leg: ScheduleLeg{Index: 1}, Err: "timeout"},
		{Leg: ScheduleLeg{Index: 2}, Err: "timeout"},
	}

	report := Aggregate("GRID", "ETHUSDT", SideSell, nil, outcomes, time.Now().UTC())

	if report.PlacedCount != 0 || report.FailedCount != 2 {
		t.Errorf("unexpected counts: placed=%d failed=%d", report.PlacedCount, report.FailedCount)
	}
	if report.SuccessRate != 0 {
		t.Errorf("success rate should be 0, got %f", report.SuccessRate)
	}
	if report.AveragePrice != 0 {
		t.Errorf("average price must stay 0 when nothing executed, got %f", report.AveragePrice)
	}
}

func TestAggregate_PlacedWithoutFillsKeepsAverageZero(t *testing.T) {
	outcomes := []LegOutcome{
		{Leg: ScheduleLeg{Index: 1}, OrderID: "1", Status: "NEW"},
		{Leg: ScheduleLeg{Index: 2}, OrderID: "2", Status: "NEW"},
	}

	report := Aggregate("GRID", "BTCUSDT", SideBuy, nil, outcomes, time.Now().UTC())

	if report.PlacedCount != 2 {
		t.Errorf("expected 2 placed legs, got %d", report.PlacedCount)
	}
	if report.SuccessRate != 100 {
		t.Errorf("success rate should be 100, got %f", report.SuccessRate)
	}
	if report.AveragePrice != 0 {
		t.Errorf("average price must stay 0 for resting limit orders, got %f", report.AveragePrice)
	}
}
