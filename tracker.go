package missionsim

// LoadSample is the state of a load in a snapshot.
type LoadSample struct {
	ID      LoadID
	On      bool
	Current float64 // mA
}

// Snapshot is the state of the satellite at the end of a step.
type Snapshot struct {
	Time         float64 // Seconds from mission start
	Loads        [NumLoads]LoadSample
	ShuntEngaged bool
	Depleted     bool // At least one discharge was clamped at zero charge during this step.
	Temperatures NodeValues
	HeatFlows    NodeValues
	CurrentIn    float64 // mA
	CurrentOut   float64 // mA
	CurrentNet   float64 // mA, out minus in
	Voltage      float64 // V
	Charge       float64 // mAh
	PowerIn      float64 // mW
	PowerOut     float64 // mW
	PowerNet     float64 // mW, positive when the battery gains energy
}

// Tracker is the append-only telemetry time series of a run.
type Tracker struct {
	snapshots []Snapshot
}

// NewTracker returns a tracker with room for the provided number of snapshots.
func NewTracker(capacity int) *Tracker {
	return &Tracker{snapshots: make([]Snapshot, 0, capacity)}
}

// Grow makes room for n more snapshots.
func (t *Tracker) Grow(n int) {
	if n <= cap(t.snapshots)-len(t.snapshots) {
		return
	}
	grown := make([]Snapshot, len(t.snapshots), len(t.snapshots)+n)
	copy(grown, t.snapshots)
	t.snapshots = grown
}

// Append adds a snapshot at the end of the series.
func (t *Tracker) Append(s Snapshot) {
	t.snapshots = append(t.snapshots, s)
}

// Len returns the number of snapshots.
func (t *Tracker) Len() int {
	return len(t.snapshots)
}

// At returns the i-th snapshot.
func (t *Tracker) At(i int) Snapshot {
	return t.snapshots[i]
}

// Last returns the latest snapshot, and false if the tracker is empty.
func (t *Tracker) Last() (Snapshot, bool) {
	if len(t.snapshots) == 0 {
		return Snapshot{}, false
	}
	return t.snapshots[len(t.snapshots)-1], true
}

// Snapshots returns a copy of the whole series.
func (t *Tracker) Snapshots() []Snapshot {
	cpy := make([]Snapshot, len(t.snapshots))
	copy(cpy, t.snapshots)
	return cpy
}

// Series extracts one value per snapshot.
func (t *Tracker) Series(f func(Snapshot) float64) []float64 {
	vals := make([]float64, len(t.snapshots))
	for i, s := range t.snapshots {
		vals[i] = f(s)
	}
	return vals
}

// Times returns the time of each snapshot.
func (t *Tracker) Times() []float64 {
	return t.Series(func(s Snapshot) float64 { return s.Time })
}

// Voltages returns the battery voltage of each snapshot.
func (t *Tracker) Voltages() []float64 {
	return t.Series(func(s Snapshot) float64 { return s.Voltage })
}

// Charges returns the battery charge of each snapshot.
func (t *Tracker) Charges() []float64 {
	return t.Series(func(s Snapshot) float64 { return s.Charge })
}

// Temperatures returns the temperature of the provided node in each snapshot.
func (t *Tracker) Temperatures(n Node) []float64 {
	return t.Series(func(s Snapshot) float64 { return s.Temperatures.Get(n) })
}
