package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-scalper/internal/analytics"
	"github.com/rxtech-lab/argo-scalper/internal/types"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(faintStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		}).
		Headers(headers...)
}

func renderBacktest(symbol string, bars int, result types.BacktestResult) string {
	m := result.Metrics

	t := newTable("Metric", "Value").Rows(
		[]string{"Bars", strconv.Itoa(bars)},
		[]string{"Trades", strconv.Itoa(m.TotalTrades)},
		[]string{"Win rate", fmt.Sprintf("%.1f%%", m.WinRate*100)},
		[]string{"Profit factor", fmt.Sprintf("%.2f", m.ProfitFactor)},
		[]string{"Expectancy", fmt.Sprintf("%.2f", m.Expectancy)},
		[]string{"Total pnl", fmt.Sprintf("%.2f", m.TotalPnL)},
		[]string{"Total fees", fmt.Sprintf("%.2f", result.TotalFees())},
		[]string{"Return", fmt.Sprintf("%.2f%%", m.TotalReturnPct)},
		[]string{"Max drawdown", fmt.Sprintf("%.2f%%", m.MaxDrawdownPct)},
		[]string{"Sharpe", fmt.Sprintf("%.2f", m.SharpeRatio)},
		[]string{"Sortino", fmt.Sprintf("%.2f", m.SortinoRatio)},
		[]string{"Initial equity", fmt.Sprintf("%.2f", result.InitialEquity)},
		[]string{"Final equity", fmt.Sprintf("%.2f", result.FinalEquity())},
	)

	return titleStyle.Render(fmt.Sprintf("Backtest %s (run %s)", symbol, result.RunID)) + "\n" + t.Render()
}

func renderDistributions(runs int, trades int, finals, drawdowns analytics.Distribution) string {
	row := func(name string, d analytics.Distribution) []string {
		return []string{
			name,
			fmt.Sprintf("%.4f", d.Mean),
			fmt.Sprintf("%.4f", d.StdDev),
			fmt.Sprintf("%.4f", d.Min),
			fmt.Sprintf("%.4f", d.P5),
			fmt.Sprintf("%.4f", d.P50),
			fmt.Sprintf("%.4f", d.P95),
			fmt.Sprintf("%.4f", d.Max),
		}
	}

	t := newTable("Measure", "Mean", "StdDev", "Min", "P5", "P50", "P95", "Max").Rows(
		row("Final equity (x capital)", finals),
		row("Max drawdown (%)", drawdowns),
	)

	title := titleStyle.Render(fmt.Sprintf("Monte Carlo: %d reshuffles of %d trades", runs, trades))
	if trades == 0 {
		return title + "\n" + faintStyle.Render("No trades to resample.")
	}

	return title + "\n" + t.Render()
}

func renderWalkForward(results []windowResult) string {
	t := newTable("Window", "Test from", "Test to", "Trades", "Win rate", "Return", "Max DD")

	for i, r := range results {
		m := r.Result.Metrics
		t.Row(
			strconv.Itoa(i+1),
			r.Start.Time.Format("2006-01-02 15:04"),
			r.End.Time.Format("2006-01-02 15:04"),
			strconv.Itoa(m.TotalTrades),
			fmt.Sprintf("%.1f%%", m.WinRate*100),
			fmt.Sprintf("%.2f%%", m.TotalReturnPct),
			fmt.Sprintf("%.2f%%", m.MaxDrawdownPct),
		)
	}

	return titleStyle.Render(fmt.Sprintf("Walk-forward: %d windows", len(results))) + "\n" + t.Render()
}
