package strategy

import "time"

// Aggregate 将逐腿结果规约为报告。仅成功腿参与数量与成交额累加；
// 一腿未成交时均价返回 0 而不是 NaN。
func Aggregate(kind, symbol string, side Side, request any, outcomes []LegOutcome, startedAt time.Time) Report {
	report := Report{
		Kind:       kind,
		Symbol:     symbol,
		Side:       side,
		Request:    request,
		Outcomes:   outcomes,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
	}

	for _, o := range outcomes {
		if o.Placed() {
			report.PlacedCount++
			report.TotalExecuted += o.ExecutedQty
			report.TotalCost += o.QuoteQty
		} else {
			report.FailedCount++
		}
	}

	if total := len(outcomes); total > 0 {
		report.SuccessRate = float64(report.PlacedCount) / float64(total) * 100
	}
	if report.TotalExecuted > 0 {
		report.AveragePrice = report.TotalCost / report.TotalExecuted
	}

	return report
}
