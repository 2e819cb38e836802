package render

import (
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"trajview/internal/domain"
	"trajview/internal/metrics"
)

// Columns of the summary table, in display order.
var Columns = []string{"Color", "Route Id", "Distance", "Speed", "Total time", "Number of stops"}

// Row is one formatted summary table row
type Row struct {
	Color      string `json:"color"`
	ColorHex   string `json:"colorHex"`
	ColorIndex int    `json:"colorIndex"`
	RouteID    string `json:"routeId"`
	Distance   string `json:"distance"`
	Speed      string `json:"speed"`
	TotalTime  string `json:"totalTime"`
	Stops      int    `json:"stops"`
}

// Cells returns the row in column order.
func (r Row) Cells() []string {
	return []string{r.Color, r.RouteID, r.Distance, r.Speed, r.TotalTime, strconv.Itoa(r.Stops)}
}

// RowsFor formats metrics as table rows. Undefined speed shows as N/A.
func RowsFor(ms []domain.RouteMetrics) []Row {
	rows := make([]Row, len(ms))
	for i, m := range ms {
		sw := Style(m.ColorIndex)
		rows[i] = Row{
			Color:      sw.Name,
			ColorHex:   sw.Hex,
			ColorIndex: m.ColorIndex,
			RouteID:    m.RouteID,
			Distance:   metrics.FormatFloat(m.Distance),
			Speed:      metrics.FormatSpeed(m.Speed),
			TotalTime:  metrics.FormatFloat(m.ElapsedTime),
			Stops:      m.StopCount,
		}
	}
	return rows
}

// Table is the summary table sink. It is rendered once per session and is
// read-only afterwards.
type Table struct {
	mu      sync.RWMutex
	metrics []domain.RouteMetrics
	rows    []Row
	renders int
}

func NewTable() *Table {
	return &Table{}
}

// RenderTable stores the metrics and their formatted rows.
func (t *Table) RenderTable(ms []domain.RouteMetrics) {
	cp := make([]domain.RouteMetrics, len(ms))
	copy(cp, ms)
	rows := RowsFor(cp)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = cp
	t.rows = rows
	t.renders++
}

func (t *Table) Rows() []Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t *Table) Metrics() []domain.RouteMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.RouteMetrics, len(t.metrics))
	copy(out, t.metrics)
	return out
}

// Renders counts RenderTable calls.
func (t *Table) Renders() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.renders
}

// Terminal renders rows as a bordered terminal table with a colored swatch
// column.
func Terminal(rows []Row) string {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = r.Cells()
		cells[i][0] = "● " + r.Color
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FBBF24")).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(Columns...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if col == 0 && row >= 0 && row < len(rows) {
				return cell.Foreground(lipgloss.Color(rows[row].ColorHex))
			}
			return cell
		})

	return t.String()
}
