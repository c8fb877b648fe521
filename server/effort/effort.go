package effort

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/tavernkeep/tavern/server/model"
	"gorm.io/gorm"
)

// The rolling window for the delta column
const deltaWindow = 24 * time.Hour

// Metric is the aggregated view of one (material, faction) pair, computed
// fresh per request from the raw snapshots. remaining + current == required
// always holds. percent is not clamped, so over-collection reads >100%.
type Metric struct {
	Material  string    `json:"material"`
	Faction   string    `json:"faction"`
	Current   int64     `json:"current"`
	Required  int64     `json:"required"`
	Remaining int64     `json:"remaining"`
	Delta     int64     `json:"delta"`
	PerHour   float64   `json:"perHour"`
	Percent   float64   `json:"percent"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HistoryPoint is one step of a material's time series.
type HistoryPoint struct {
	Time  time.Time `json:"time"`
	Value int64     `json:"value"`
}

// EffortDB reads the append-only snapshot table that the external collector
// writes, and aggregates it into table and chart views.
type EffortDB struct {
	db  *gorm.DB
	log logs.Log
}

func NewEffortDB(db *gorm.DB, log logs.Log) *EffortDB {
	return &EffortDB{
		db:  db,
		log: log,
	}
}

// LatestByServer returns one Metric per (material, faction) pair on the given
// server: the most recent snapshot, with the delta against the nearest
// snapshot at or before 24 hours prior. Sorted by delta descending; ties keep
// first-seen order. An empty result is not an error, it means "no such
// server" and the caller maps it to a 404.
func (e *EffortDB) LatestByServer(ctx context.Context, server string) ([]Metric, error) {
	snapshots := []model.Snapshot{}
	err := e.db.WithContext(ctx).
		Where("server = ?", server).
		Order("updated_at DESC, id DESC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}

	type key struct {
		faction  string
		material string
	}
	type aggregate struct {
		metric    Metric
		deltaDone bool
	}
	latest := map[key]*aggregate{}
	order := []key{}
	for i := range snapshots {
		snap := &snapshots[i]
		k := key{snap.Faction, snap.Material}
		agg := latest[k]
		if agg == nil {
			latest[k] = &aggregate{
				metric: Metric{
					Material:  snap.Material,
					Faction:   snap.Faction,
					Current:   snap.Current,
					Required:  snap.Required,
					Remaining: snap.Required - snap.Current,
					UpdatedAt: snap.UpdatedAt.Get(),
				},
			}
			order = append(order, k)
			continue
		}
		// Rows arrive newest first, so the first row at or beyond the window
		// boundary is the nearest snapshot at or before latest-24h.
		if !agg.deltaDone && !snap.UpdatedAt.Get().After(agg.metric.UpdatedAt.Add(-deltaWindow)) {
			agg.metric.Delta = agg.metric.Current - snap.Current
			agg.metric.PerHour = Round2(float64(agg.metric.Delta) / 24)
			agg.deltaDone = true
		}
	}

	metrics := make([]Metric, 0, len(order))
	for _, k := range order {
		m := latest[k].metric
		if m.Required != 0 {
			m.Percent = Round2(float64(m.Current) / float64(m.Required) * 100)
		}
		metrics = append(metrics, m)
	}
	sort.SliceStable(metrics, func(i, j int) bool {
		return metrics[i].Delta > metrics[j].Delta
	})
	return metrics, nil
}

// MaterialHistory returns the ordered time series for one material on one
// server, plus the latest required amount (the chart's y-axis maximum).
// An empty series means "no data for that combination"; not an error.
func (e *EffortDB) MaterialHistory(ctx context.Context, server, faction, material string) ([]HistoryPoint, int64, error) {
	snapshots := []model.Snapshot{}
	err := e.db.WithContext(ctx).
		Where("server = ? AND faction = ? AND material = ?", server, faction, material).
		Order("updated_at ASC, id ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, 0, err
	}
	history := make([]HistoryPoint, 0, len(snapshots))
	required := int64(0)
	for i := range snapshots {
		history = append(history, HistoryPoint{
			Time:  snapshots[i].UpdatedAt.Get(),
			Value: snapshots[i].Current,
		})
		required = snapshots[i].Required
	}
	return history, required, nil
}

// AddSnapshots appends collector measurements. Snapshots are immutable; there
// is no update path.
func (e *EffortDB) AddSnapshots(ctx context.Context, snapshots []model.Snapshot) error {
	return e.db.WithContext(ctx).Create(&snapshots).Error
}

// Round2 rounds half-up to two decimals (Math.round semantics, so -0.005
// rounds toward positive infinity).
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
