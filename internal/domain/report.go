package domain

import "time"

// Report is the result of one pipeline run. It is populated stage by stage, so
// a run that fails while rendering still carries its estimates.
type Report struct {
	RunID        string        `json:"run_id"`
	Station      Station       `json:"station"`
	Input        string        `json:"input"`
	Observations int           `json:"observations"`
	First        time.Time     `json:"first"`
	Last         time.Time     `json:"last"`
	Gaps         int           `json:"gaps"`
	GLS          TrendEstimate `json:"gls"`
	OLS          TrendEstimate `json:"ols"`
	Charts       []string      `json:"charts,omitempty"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// Summarize fills the series-level fields of the report from observations.
func (r *Report) Summarize(obs []Observation) {
	r.Observations = len(obs)
	if len(obs) == 0 {
		return
	}
	r.First = obs[0].Date
	r.Last = obs[len(obs)-1].Date
	r.Gaps = CountGaps(obs)
}
