// cli/render.go
package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mwiater/gridcast/internal/appconfig"
	"github.com/mwiater/gridcast/internal/chat"
	"github.com/mwiater/gridcast/internal/comparison"
	"github.com/mwiater/gridcast/internal/forecast"
	"github.com/mwiater/gridcast/internal/granularity"
	"github.com/mwiater/gridcast/internal/numfmt"
	"github.com/mwiater/gridcast/internal/store"
	"github.com/mwiater/gridcast/internal/util"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	columnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	bestStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("34")).Padding(0, 1)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	positiveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	negativeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	bannerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("124")).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Bold(true)
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	failedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const (
	timeColumn  = 18
	valueColumn = 10
	modelColumn = 22
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Renderer formats dashboard data as terminal text.
type Renderer struct {
	Config  appconfig.Config
	Numbers *numfmt.Formatter
}

// NewRenderer returns a Renderer using cfg's model table and number locale.
// An unparseable locale falls back to English.
func NewRenderer(cfg appconfig.Config) *Renderer {
	nf, err := numfmt.New(cfg.NumberLocale)
	if err != nil {
		nf, _ = numfmt.New("")
	}
	return &Renderer{Config: cfg, Numbers: nf}
}

func (r *Renderer) modelLabel(id string, width int) string {
	label := util.PadRight(r.Config.ModelName(id), width)
	if color := r.Config.ModelColor(id); color != "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(label)
	}
	return label
}

// Ranking renders models ordered by SMAPE with their other metrics.
func (r *Renderer) Ranking(code granularity.Code, ranked []comparison.Ranked) string {
	if len(ranked) == 0 {
		return mutedStyle.Render("No models with a defined SMAPE.")
	}
	var b strings.Builder
	b.WriteString(columnStyle.Render(
		util.PadRight("#", 3) +
			util.PadRight("Model", modelColumn) +
			util.PadRight("Horizon", 12) +
			util.PadLeft("SMAPE", valueColumn) +
			util.PadLeft("MAE", valueColumn) +
			util.PadLeft("RMSE", valueColumn) +
			util.PadLeft("MAPE", valueColumn)))
	for _, m := range ranked {
		b.WriteString("\n")
		b.WriteString(util.PadRight(fmt.Sprint(m.Rank), 3))
		b.WriteString(r.modelLabel(m.Model, modelColumn))
		b.WriteString(util.PadRight(granularity.HorizonLabel(code, m.Horizon), 12))
		smape := m.SMAPE
		b.WriteString(util.PadLeft(numfmt.Percent(&smape), valueColumn))
		b.WriteString(util.PadLeft(r.Numbers.Format(m.Metrics.MAE), valueColumn))
		b.WriteString(util.PadLeft(r.Numbers.Format(m.Metrics.RMSE), valueColumn))
		b.WriteString(util.PadLeft(numfmt.Percent(m.Metrics.MAPE), valueColumn))
		if m.Rank == 1 {
			b.WriteString(" " + bestStyle.Render("best"))
		}
	}
	return b.String()
}

func signed(s string, v float64) string {
	switch {
	case v > 0:
		return positiveStyle.Render(s)
	case v < 0:
		return negativeStyle.Render(s)
	}
	return s
}

func tail[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[len(items)-limit:]
	}
	return items
}

// RowsTable renders aligned rows with one predicted/error column pair per
// model. A positive limit keeps only the most recent rows.
func (r *Renderer) RowsTable(code granularity.Code, models []string, rows []comparison.Row, limit int) string {
	if len(rows) == 0 {
		return mutedStyle.Render("No prediction rows to compare.")
	}
	var b strings.Builder
	header := util.PadRight("Time", timeColumn) + util.PadLeft("Actual", valueColumn)
	for _, m := range models {
		header += util.PadLeft(util.Truncate(r.Config.ModelName(m), valueColumn*2-1), valueColumn*2)
	}
	b.WriteString(columnStyle.Render(header))

	for _, row := range tail(rows, limit) {
		b.WriteString("\n")
		b.WriteString(util.PadRight(granularity.FormatTimeLabelShort(row.T, code), timeColumn))
		b.WriteString(util.PadLeft(r.Numbers.FormatFloat(row.Actual), valueColumn))
		for _, m := range models {
			p, ok := row.PerModel[m]
			if !ok {
				b.WriteString(util.PadLeft("-", valueColumn*2))
				continue
			}
			errText := fmt.Sprintf("(%+.0f)", p.Error)
			b.WriteString(util.PadLeft(r.Numbers.FormatFloat(p.Predicted), valueColumn))
			b.WriteString(signed(util.PadLeft(errText, valueColumn), p.Error))
		}
	}
	return b.String()
}

// Single renders the metrics, summary statistics and most recent points of one model.
func (r *Renderer) Single(code granularity.Code, result forecast.ModelResult, limit int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s · %s ahead", r.Config.ModelName(result.Model), granularity.HorizonLabel(code, result.Horizon))))
	b.WriteString("\n")
	m := result.Metrics
	b.WriteString(fmt.Sprintf("SMAPE %s   MAPE %s   MAE %s   RMSE %s",
		numfmt.Percent(m.SMAPE), numfmt.Percent(m.MAPE), r.Numbers.Format(m.MAE), r.Numbers.Format(m.RMSE)))

	if stats, ok := comparison.AggregateSeriesStats(result.Series); ok {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d points · avg actual %s · avg predicted %s · mean |error| %s · max |error| %s · error σ %s",
			stats.Count,
			r.Numbers.FormatFloat(stats.AvgActual),
			r.Numbers.FormatFloat(stats.AvgPredicted),
			r.Numbers.FormatFloat(stats.MeanAbsError),
			r.Numbers.FormatFloat(stats.MaxAbsError),
			r.Numbers.FormatFloat(stats.ErrorStdDev))))
	}

	if len(result.Series) == 0 {
		return b.String()
	}
	b.WriteString("\n\n")
	b.WriteString(columnStyle.Render(
		util.PadRight("Time", timeColumn) +
			util.PadLeft("Actual", valueColumn) +
			util.PadLeft("Predicted", valueColumn) +
			util.PadLeft("Error", valueColumn) +
			util.PadLeft("Accuracy", valueColumn)))
	for _, p := range tail(result.Series, limit) {
		acc := comparison.PerPointAccuracy(p)
		e := p.Predicted - p.Actual
		b.WriteString("\n")
		b.WriteString(util.PadRight(granularity.FormatTimeLabelShort(p.T, code), timeColumn))
		b.WriteString(util.PadLeft(r.Numbers.FormatFloat(p.Actual), valueColumn))
		b.WriteString(util.PadLeft(r.Numbers.FormatFloat(p.Predicted), valueColumn))
		b.WriteString(signed(util.PadLeft(fmt.Sprintf("%+.0f", e), valueColumn), e))
		b.WriteString(util.PadLeft(fmt.Sprintf("%.1f%%", comparison.ClampAccuracy(acc.Accuracy)), valueColumn))
	}
	return b.String()
}

// Sparkline draws the absolute error of each point, scaled to the largest
// error, using at most width cells.
func Sparkline(points []comparison.ErrorPoint, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}
	n := min(width, len(points))
	values := make([]float64, n)
	for i := range values {
		lo, hi := i*len(points)/n, (i+1)*len(points)/n
		for _, p := range points[lo:hi] {
			values[i] = math.Max(values[i], math.Abs(p.Error))
		}
	}
	top := 0.0
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			top = math.Max(top, v)
		}
	}
	var b strings.Builder
	for _, v := range values {
		idx := 0
		if top > 0 && !math.IsNaN(v) {
			idx = util.Clamp(int(math.Round(v/top*float64(len(sparkBlocks)-1))), 0, len(sparkBlocks)-1)
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

// ErrorSparklines renders one labelled error sparkline per model in the store.
func (r *Renderer) ErrorSparklines(st *store.Store, width int) string {
	var lines []string
	for _, m := range st.Models() {
		lines = append(lines, r.modelLabel(m, modelColumn)+Sparkline(comparison.ErrorSeries(st, m), width-modelColumn))
	}
	return strings.Join(lines, "\n")
}

// Chat renders the conversation log wrapped to width.
func (r *Renderer) Chat(messages []chat.Message, width int) string {
	if len(messages) == 0 {
		return mutedStyle.Render("Ask about the forecasts on screen.")
	}
	var b strings.Builder
	for i, msg := range messages {
		role := userStyle.Render("You: ")
		content := msg.Content
		if msg.Role == chat.RoleAssistant {
			role = assistantStyle.Render("Assistant: ")
		}
		content = util.WrapToWidth(content, max(width-lipgloss.Width(role), 10))
		if msg.Failed {
			content = failedStyle.Render(content)
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, role, content))
	}
	return b.String()
}

// Banner renders a persistent error line.
func Banner(msg string) string {
	if msg == "" {
		return ""
	}
	return bannerStyle.Render(msg)
}
