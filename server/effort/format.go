package effort

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var digits = message.NewPrinter(language.English)
var titleCaser = cases.Title(language.English)

// Cell carries a human display string and a separate numeric sort key, so
// formatted strings (grouping, signs, units) never leak into sort comparisons.
type Cell struct {
	Value string  `json:"value"`
	Order float64 `json:"dataOrder"`
}

// Row is one rendered table line. Every row carries exactly the TableColumns
// column set.
type Row struct {
	Material  string `json:"material"`
	Link      string `json:"link"`
	Faction   string `json:"faction"`
	Current   Cell   `json:"current"`
	Required  Cell   `json:"required"`
	Remaining Cell   `json:"remaining"`
	Delta24h  Cell   `json:"delta24h"`
	PerHour   Cell   `json:"perHour"`
	Percent   Cell   `json:"percent"`
}

// TableColumns is the fixed column set, in display order.
var TableColumns = []string{"Material", "Faction", "Current", "Required", "Remaining", "∆ 24h", "Per hour", "%"}

// Table is the payload behind the aq-effort list page.
type Table struct {
	Title         string   `json:"title"`
	Head          []string `json:"head"`
	Rows          []Row    `json:"rows"`
	SortColumn    int      `json:"sortColumn"`
	SortDirection string   `json:"sortDirection"`
	PageLength    int      `json:"pageLength"`
	LastUpdate    int64    `json:"lastUpdate"` // unix milliseconds of the newest snapshot
}

// Chart is the payload behind a single material's history page.
type Chart struct {
	Title    string   `json:"title"`
	XLabels  []string `json:"xLabels"`
	YMin     int64    `json:"yMin"`
	YMax     int64    `json:"yMax"`
	DataName string   `json:"dataName"`
	Data     []int64  `json:"data"`
}

// FormatTable renders aggregated metrics into sortable table rows.
// The metrics arrive already ordered; the sort metadata tells the client to
// keep sorting by the 24h delta, descending.
func FormatTable(server string, metrics []Metric) *Table {
	rows := make([]Row, 0, len(metrics))
	lastUpdate := int64(0)
	for i := range metrics {
		m := &metrics[i]
		rows = append(rows, Row{
			Material: m.Material,
			Link:     fmt.Sprintf("/wow/aq-effort/%v/material/%v/%v", Slug(server), Slug(m.Faction), Slug(m.Material)),
			Faction:  m.Faction,
			Current: Cell{
				Value: groupInt(m.Current),
				Order: float64(m.Current),
			},
			Required: Cell{
				Value: groupInt(m.Required),
				Order: float64(m.Required),
			},
			Remaining: Cell{
				Value: groupInt(m.Remaining),
				Order: float64(m.Remaining),
			},
			Delta24h: Cell{
				Value: signedGroupInt(m.Delta),
				Order: float64(m.Delta),
			},
			PerHour: Cell{
				Value: groupFloat(m.PerHour),
				Order: m.PerHour,
			},
			Percent: Cell{
				Value: strconv.FormatFloat(m.Percent, 'f', 2, 64) + "%",
				Order: m.Percent,
			},
		})
		if ms := m.UpdatedAt.UnixMilli(); ms > lastUpdate {
			lastUpdate = ms
		}
	}
	return &Table{
		Title:         "AQ War Effort - " + DisplayName(server),
		Head:          TableColumns,
		Rows:          rows,
		SortColumn:    columnIndex("∆ 24h"),
		SortDirection: "desc",
		PageLength:    50,
		LastUpdate:    lastUpdate,
	}
}

// FormatChart renders a material's history into the chart payload.
// The y-axis runs from zero to the required amount.
func FormatChart(server, faction, material string, history []HistoryPoint, required int64) *Chart {
	labels := make([]string, 0, len(history))
	data := make([]int64, 0, len(history))
	for _, point := range history {
		labels = append(labels, point.Time.Format("Mon 2.1. 15:04"))
		data = append(data, point.Value)
	}
	return &Chart{
		Title:    fmt.Sprintf("AQ War Effort - %v - %v", DisplayName(server), material),
		XLabels:  labels,
		YMin:     0,
		YMax:     required,
		DataName: fmt.Sprintf("%v (%v)", material, faction),
		Data:     data,
	}
}

func columnIndex(name string) int {
	for i, col := range TableColumns {
		if col == name {
			return i
		}
	}
	return 0
}

// Slug turns a display name into its URL form: "Nightfin Snapper" ->
// "nightfin_snapper".
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// DisplayName is the inverse of Slug: "nightfin_snapper" ->
// "Nightfin Snapper". Snapshot rows store display names, route params carry
// slugs.
func DisplayName(slug string) string {
	return titleCaser.String(strings.ReplaceAll(slug, "_", " "))
}

func groupInt(v int64) string {
	return digits.Sprintf("%d", v)
}

func signedGroupInt(v int64) string {
	if v > 0 {
		return "+" + groupInt(v)
	}
	return groupInt(v)
}

func groupFloat(v float64) string {
	return digits.Sprintf("%.2f", v)
}
