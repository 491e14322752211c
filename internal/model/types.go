package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord describes one optimization run and the settings it used.
type RunRecord struct {
	VersionedRecord
	ID             string    `json:"id"`
	LayoutName     string    `json:"layout_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Seed           int64     `json:"seed"`
	PopulationSize int       `json:"population_size"`
	Generations    int       `json:"generations"`
	Completed      int       `json:"completed_generations"`
	FitnessCutoff  float64   `json:"fitness_cutoff"`
	SwapWeight     float64   `json:"swap_weight"`
	ReplaceWeight  float64   `json:"replace_weight"`
	Selector       string    `json:"selector"`
	BestScore      float64   `json:"best_score"`
	Interrupted    bool      `json:"interrupted,omitempty"`
}

// LayoutRecord holds a layout in its token text form.
type LayoutRecord struct {
	VersionedRecord
	RunID       string  `json:"run_id"`
	CandidateID string  `json:"candidate_id"`
	Rows        int     `json:"rows"`
	Cols        int     `json:"cols"`
	Score       float64 `json:"score"`
	Layout      string  `json:"layout"`
	Fingerprint string  `json:"fingerprint"`
}

type GenerationDiagnostics struct {
	Generation    int     `json:"generation"`
	BestScore     float64 `json:"best_score"`
	BestEverScore float64 `json:"best_ever_score"`
	MeanScore     float64 `json:"mean_score"`
	StdDevScore   float64 `json:"std_dev_score"`
	WorstScore    float64 `json:"worst_score"`
	Diversity     int     `json:"diversity"`
	Survivors     int     `json:"survivors"`
}

type LineageRecord struct {
	VersionedRecord
	CandidateID string `json:"candidate_id"`
	ParentID    string `json:"parent_id,omitempty"`
	Generation  int    `json:"generation"`
	Operation   string `json:"operation"`
	Fingerprint string `json:"fingerprint"`
}
