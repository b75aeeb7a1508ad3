package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/pattern"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorRed    = lipgloss.Color("#D14D41")
	colorOrange = lipgloss.Color("#DA702C")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(colorText)
	borderStyle = lipgloss.NewStyle().Foreground(colorBorder)
	goodStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	badStyle    = lipgloss.NewStyle().Foreground(colorRed)
	warnStyle   = lipgloss.NewStyle().Foreground(colorOrange)
)

// Table is a bordered text table. The first column is left-aligned, the rest
// right-aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Width(60).
		Align(lipgloss.Center).
		Padding(0, 1)
	return box.Render(titleStyle.Render(title))
}

// RenderTable renders t with box-drawing borders.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := 0; i < numCols && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	rule := func(left, mid, right string) string {
		parts := make([]string, numCols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return borderStyle.Render(left+strings.Join(parts, mid)+right) + "\n"
	}
	line := func(cells []string, style lipgloss.Style) string {
		var b strings.Builder
		b.WriteString(borderStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if i == 0 {
				b.WriteString(style.Render(" " + cell + pad + " "))
			} else {
				b.WriteString(style.Render(" " + pad + cell + " "))
			}
			b.WriteString(borderStyle.Render("│"))
		}
		return b.String() + "\n"
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	b.WriteString(rule("╭", "┬", "╮"))
	b.WriteString(line(t.Headers, headerStyle))
	b.WriteString(rule("├", "┼", "┤"))
	for _, row := range t.Rows {
		b.WriteString(line(row, valueStyle))
	}
	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

// ForecastTable lays out one row per forecast day.
func ForecastTable(days []model.DailyForecast) Table {
	t := Table{
		Title:   "Daily forecast",
		Headers: []string{"Date", "Income", "Expenses", "Net", "Income range", "Expense range", "Balance"},
	}
	for _, d := range days {
		t.Rows = append(t.Rows, []string{
			d.Date.Format("Mon 2006-01-02"),
			FormatMoney(d.Income),
			FormatMoney(d.Expenses),
			FormatMoney(d.Net),
			formatRange(d.IncomeRange),
			formatRange(d.ExpenseRange),
			FormatMoney(d.Balance),
		})
	}
	return t
}

// RecurringTable lists detected recurring transactions.
func RecurringTable(items []model.RecurringTransaction) Table {
	t := Table{
		Title:   "Recurring transactions",
		Headers: []string{"Merchant", "Direction", "Amount", "Frequency", "Every", "Seen", "Next", "Confidence"},
	}
	for _, rt := range items {
		t.Rows = append(t.Rows, []string{
			rt.MerchantKey,
			string(rt.Direction),
			FormatMoney(decimal.NewFromFloat(rt.Amount).Round(2)),
			string(rt.Frequency),
			fmt.Sprintf("%dd", rt.IntervalDays),
			fmt.Sprintf("%d", rt.Occurrences),
			rt.NextDate.Format(dateFormat),
			fmt.Sprintf("%.0f%%", rt.Confidence*100),
		})
	}
	return t
}

// WeekdayTable shows mean income and expense per day of week, Monday first.
func WeekdayTable(a *pattern.Analysis) Table {
	t := Table{
		Title:   "Day of week",
		Headers: []string{"Day", "Avg income", "Avg expense", "Samples"},
	}
	for i := 1; i <= 7; i++ {
		wd := time.Weekday(i % 7)
		b := a.ForWeekday(wd)
		inc, _ := b.MeanIncome()
		exp, _ := b.MeanExpenses()
		t.Rows = append(t.Rows, []string{
			wd.String(),
			FormatMoney(decimal.NewFromFloat(inc).Round(2)),
			FormatMoney(decimal.NewFromFloat(exp).Round(2)),
			fmt.Sprintf("%d", len(b.Income)+len(b.Expenses)),
		})
	}
	return t
}

// CategoryTable lists category totals, largest expense first.
func CategoryTable(a *pattern.Analysis) Table {
	t := Table{
		Title:   "Categories",
		Headers: []string{"Category", "Income", "Expenses", "Count"},
	}
	names := make([]string, 0, len(a.Categories))
	for name := range a.Categories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ci, cj := a.Categories[names[i]], a.Categories[names[j]]
		if ci.Expenses != cj.Expenses {
			return ci.Expenses > cj.Expenses
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		c := a.Categories[name]
		t.Rows = append(t.Rows, []string{
			name,
			FormatMoney(decimal.NewFromFloat(c.Income).Round(2)),
			FormatMoney(decimal.NewFromFloat(c.Expenses).Round(2)),
			fmt.Sprintf("%d", c.Count),
		})
	}
	return t
}

// AnalysisSummary renders the headline statistics of an analysis.
func AnalysisSummary(a *pattern.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  History      %s to %s (%d days)\n", a.Start.Format(dateFormat), a.End.Format(dateFormat), a.TotalDays)
	fmt.Fprintf(&b, "  Transactions %s income, %s expense, %s outliers removed\n",
		FormatNumber(int64(a.IncomeCount)), FormatNumber(int64(a.ExpenseCount)), FormatNumber(int64(a.OutlierCount)))
	fmt.Fprintf(&b, "  Daily avg    %s in, %s out\n",
		FormatMoney(decimal.NewFromFloat(a.AvgDailyIncome).Round(2)),
		FormatMoney(decimal.NewFromFloat(a.AvgDailyExpenses).Round(2)))
	fmt.Fprintf(&b, "  Trend        income %s, expenses %s\n", FormatPercent(a.Trend.Income), FormatPercent(a.Trend.Expense))
	return b.String()
}

// SummaryLines renders the totals and runway of a forecast.
func SummaryLines(s model.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Income       %s\n", goodStyle.Render(FormatMoney(s.TotalIncome)))
	fmt.Fprintf(&b, "  Expenses     %s\n", warnStyle.Render(FormatMoney(s.TotalExpenses)))
	fmt.Fprintf(&b, "  Net          %s\n", moneyStyle(s.TotalNet).Render(FormatMoney(s.TotalNet)))
	fmt.Fprintf(&b, "  Balance      %s -> %s\n", FormatMoney(s.StartBalance), moneyStyle(s.EndBalance).Render(FormatMoney(s.EndBalance)))
	if !s.LowestDate.IsZero() {
		fmt.Fprintf(&b, "  Lowest       %s on %s\n", FormatMoney(s.LowestBalance), s.LowestDate.Format(dateFormat))
	}
	if s.Shortfall != nil {
		fmt.Fprintf(&b, "  %s\n", badStyle.Render("Shortfall from "+s.Shortfall.Format(dateFormat)))
	} else {
		fmt.Fprintf(&b, "  %s\n", goodStyle.Render(fmt.Sprintf("No shortfall in %d days", s.Days)))
	}
	return b.String()
}

func moneyStyle(d decimal.Decimal) lipgloss.Style {
	if d.IsNegative() {
		return badStyle
	}
	return valueStyle
}

func formatRange(r model.Range) string {
	return FormatMoney(r.Min) + " - " + FormatMoney(r.Max)
}
