// Package report renders import outcome lists for terminals, markdown,
// HTML and JSON consumers.
package report

import (
	"github.com/montanaflynn/stats"

	"testdesk/models"
)

// ScenarioLine is one scenario of a screen group.
type ScenarioLine struct {
	Name      string              `json:"name"`
	Status    string              `json:"status"`
	Message   string              `json:"message"`
	Action    models.ImportAction `json:"action"`
	ItemCount int                 `json:"item_count"`
}

// ScreenGroup collects the scenarios reported for one screen.
type ScreenGroup struct {
	Screen    string         `json:"screen"`
	Scenarios []ScenarioLine `json:"scenarios"`
}

// ItemStats describes item counts over the scenarios that were written.
type ItemStats struct {
	Scenarios int     `json:"scenarios"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	Max       float64 `json:"max"`
}

// Summary aggregates an outcome list.
type Summary struct {
	Total       int           `json:"total"`
	Succeeded   int           `json:"succeeded"`
	Failed      int           `json:"failed"`
	Created     int           `json:"created"`
	Overwritten int           `json:"overwritten"`
	Kept        int           `json:"kept"`
	Items       int           `json:"items"`
	Screens     []ScreenGroup `json:"screens"`
	ItemStats   ItemStats     `json:"item_stats"`
}

// Summarize groups outcomes by screen in first-seen order and computes the
// counters.
func Summarize(outcomes []models.ImportOutcome) Summary {
	s := Summary{Total: len(outcomes), Screens: []ScreenGroup{}}
	index := make(map[string]int)
	var written stats.Float64Data

	for _, o := range outcomes {
		if o.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
		}
		switch o.Action {
		case models.ActionCreated:
			s.Created++
			written = append(written, float64(o.ItemCount))
		case models.ActionOverwritten:
			s.Overwritten++
			written = append(written, float64(o.ItemCount))
		case models.ActionKept:
			s.Kept++
		}
		s.Items += o.ItemCount

		i, ok := index[o.Screen]
		if !ok {
			i = len(s.Screens)
			index[o.Screen] = i
			s.Screens = append(s.Screens, ScreenGroup{Screen: o.Screen})
		}
		s.Screens[i].Scenarios = append(s.Screens[i].Scenarios, ScenarioLine{
			Name:      o.Name,
			Status:    o.Status,
			Message:   o.Message,
			Action:    o.Action,
			ItemCount: o.ItemCount,
		})
	}

	s.ItemStats = itemStats(written)
	return s
}

func itemStats(data stats.Float64Data) ItemStats {
	out := ItemStats{Scenarios: data.Len()}
	if data.Len() == 0 {
		return out
	}
	// Errors only occur for empty input, handled above.
	out.Mean, _ = stats.Mean(data)
	out.Median, _ = stats.Median(data)
	out.Max, _ = stats.Max(data)
	return out
}
