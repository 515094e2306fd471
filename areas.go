package missionsim

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Face identifies a face of the satellite.
type Face uint8

const (
	// PlusX face
	PlusX Face = iota
	// PlusY face
	PlusY
	// NegX face
	NegX
	// NegY face
	NegY
	// PlusZ face
	PlusZ
	// NegZ face, the payload bottom cap.
	NegZ
	// NumFaces is the number of faces.
	NumFaces = int(NegZ) + 1
)

const (
	// stkAreaScale converts the STK report area column to m^2.
	stkAreaScale = 0.01
)

func (f Face) String() string {
	switch f {
	case PlusX:
		return "plusX"
	case PlusY:
		return "plusY"
	case NegX:
		return "negX"
	case NegY:
		return "negY"
	case PlusZ:
		return "plusZ"
	case NegZ:
		return "negZ"
	}
	panic(fmt.Errorf("cannot stringify unknown face %d", uint8(f)))
}

// FaceFromString returns the face from its name (e.g. "plusX", case insensitive).
func FaceFromString(name string) (Face, error) {
	for f := Face(0); int(f) < NumFaces; f++ {
		if strings.EqualFold(f.String(), strings.TrimSpace(name)) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown face `%s`", name)
}

// AreaTable stores the projected sunlit area (m^2) of each face over one orbit.
// Samples past the supplied data are zero, i.e. the satellite is in eclipse.
type AreaTable struct {
	faces    [NumFaces][]float64
	orbitLen int
	supplied int // Number of samples of the shortest supplied face.
}

// NewAreaTable returns a new table of orbitLen samples per face. Faces which are missing are never in the sun, and
// supplied faces shorter than one orbit are zero filled (cf. Padded). Negative, non-finite, or extra samples are an
// error.
func NewAreaTable(samples map[Face][]float64, orbitLen int) (*AreaTable, error) {
	if orbitLen <= 0 {
		return nil, fmt.Errorf("orbit length must be positive, got %d", orbitLen)
	}
	t := &AreaTable{orbitLen: orbitLen}
	if len(samples) > 0 {
		t.supplied = orbitLen
	}
	for f := Face(0); int(f) < NumFaces; f++ {
		vals, ok := samples[f]
		if len(vals) > orbitLen {
			return nil, fmt.Errorf("face %s has %d samples, more than the %d of one orbit", f, len(vals), orbitLen)
		}
		if ok && len(vals) < t.supplied {
			t.supplied = len(vals)
		}
		t.faces[f] = make([]float64, orbitLen)
		for i, v := range vals {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("face %s sample #%d is invalid: %f", f, i, v)
			}
			t.faces[f][i] = v
		}
	}
	return t, nil
}

// ZeroAreaTable returns a table where no face is ever in the sun.
func ZeroAreaTable(orbitLen int) *AreaTable {
	t, err := NewAreaTable(nil, orbitLen)
	if err != nil {
		panic(err)
	}
	t.supplied = orbitLen
	return t
}

// OrbitLen returns the number of samples in one orbit.
func (t *AreaTable) OrbitLen() int {
	return t.orbitLen
}

// Supplied returns the number of samples supplied for every face of the table, zero if no face was supplied.
func (t *AreaTable) Supplied() int {
	return t.supplied
}

// Padded returns whether some samples of the orbit were not supplied and are zero filled.
func (t *AreaTable) Padded() bool {
	return t.supplied < t.orbitLen
}

func (t *AreaTable) index(i int) int {
	idx := i % t.orbitLen
	if idx < 0 {
		idx += t.orbitLen
	}
	return idx
}

// Face returns the sunlit area of face f at step i, modulo the orbit length.
func (t *AreaTable) Face(i int, f Face) float64 {
	return t.faces[f][t.index(i)]
}

// Sum returns the sunlit area of the provided faces at step i.
func (t *AreaTable) Sum(i int, faces ...Face) float64 {
	idx := t.index(i)
	sum := 0.0
	for _, f := range faces {
		sum += t.faces[f][idx]
	}
	return sum
}

// Total returns the sunlit area of all the faces at step i.
func (t *AreaTable) Total(i int) float64 {
	idx := t.index(i)
	sum := 0.0
	for f := range t.faces {
		sum += t.faces[f][idx]
	}
	return sum
}

// ReadSTKAreas reads the projected areas from an STK report.
// The report has one section per face: a row whose first cell is the face name, a title row whose second cell is
// "Time", then rows of (_, _, time, area, intensity). A row of empty cells ends the report.
// Faces are zero filled up to orbitLen samples.
func ReadSTKAreas(r io.Reader, orbitLen int) (*AreaTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	samples := make(map[Face][]float64)
	current := -1
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("STK areas line %d: %s", line, err)
		}
		if len(record) == 0 {
			continue
		}
		if f, ferr := FaceFromString(record[0]); ferr == nil {
			current = int(f)
			samples[f] = []float64{}
			continue
		}
		if len(record) > 1 && strings.TrimSpace(record[1]) == "Time" {
			continue
		}
		if emptyRecord(record) {
			break
		}
		if current < 0 {
			return nil, fmt.Errorf("STK areas line %d: data before any face section", line)
		}
		if len(record) < 4 {
			return nil, fmt.Errorf("STK areas line %d: expected at least 4 columns, got %d", line, len(record))
		}
		area, perr := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if perr != nil {
			return nil, fmt.Errorf("STK areas line %d: %s", line, perr)
		}
		f := Face(current)
		if len(samples[f]) == orbitLen {
			// Anything past one orbit is ignored.
			continue
		}
		samples[f] = append(samples[f], area*stkAreaScale)
	}
	return NewAreaTable(samples, orbitLen)
}

// LoadSTKAreas reads the STK report at the provided path.
func LoadSTKAreas(path string, orbitLen int) (*AreaTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSTKAreas(f, orbitLen)
}

func emptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
