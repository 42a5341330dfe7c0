package types

// Task is a unit of work in a workflow's dependency graph. Duration is in
// minutes; zero means "use the default duration table".
type Task struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	Duration  int      `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Key returns the identifier used in the dependency graph, falling back to the
// task name when the id is absent.
func (t *Task) Key() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Name
}

// Wave is a maximal set of tasks whose dependencies are already satisfied and
// which can therefore run concurrently. EstimatedDuration is the max of the
// member durations, not the sum, because members run in parallel.
type Wave struct {
	WaveNumber        int      `json:"wave_number"`
	Tasks             []string `json:"tasks"`
	Parallel          bool     `json:"parallel"`
	EstimatedDuration int      `json:"estimated_duration"`
}

// WaveMetrics carries the timing breakdown behind the optimization gain.
// SequentialTime is the sum of all task durations; ParallelTime is the sum of
// per-wave max durations.
type WaveMetrics struct {
	SequentialTime int     `json:"sequential_time"`
	ParallelTime   int     `json:"parallel_time"`
	Speedup        float64 `json:"speedup"`
	MaxWaveSize    int     `json:"max_wave_size"`
}

// WaveAnalysis is the full result of analyzing a workflow's task graph.
type WaveAnalysis struct {
	WorkflowID       string      `json:"workflow_id"`
	TotalTasks       int         `json:"total_tasks"`
	Waves            []Wave      `json:"waves"`
	OptimizationGain int         `json:"optimization_gain"` // integer percentage
	CriticalPath     []string    `json:"critical_path"`
	Metrics          WaveMetrics `json:"metrics"`
}
