package risk

import (
	"github.com/okian/pdwatch/internal/domain/model"
)

// Cell is one (qualitative, quantitative) combination.
type Cell struct {
	Qualitative  Level    `json:"risco_qualitativo"`
	Quantitative Level    `json:"risco_quantitativo"`
	Count        int      `json:"count"`
	Score        int      `json:"combined_score"`
	Models       []string `json:"models"`
}

// Unclassified is a model left out of the matrix.
type Unclassified struct {
	ModelID int    `json:"model_id"`
	Name    string `json:"name"`
	Reason  string `json:"reason"`
}

// Matrix is the 4x4 portfolio risk matrix. Every cell is present even when empty.
type Matrix struct {
	cells        [levelCount][levelCount]Cell
	Unclassified []Unclassified
	// Overall counts models per risco_geral level, keyed by label.
	Overall map[string]int
}

// BuildMatrix counts models per (risco_qualitativo, risco_quantitativo) cell.
// Models with a category outside the four levels are reported as unclassified.
func BuildMatrix(models []model.Model) Matrix {
	var m Matrix
	for _, q := range Levels() {
		for _, qt := range Levels() {
			m.cells[q-1][qt-1] = Cell{
				Qualitative:  q,
				Quantitative: qt,
				Score:        CombinedScore(q, qt),
				Models:       []string{},
			}
		}
	}
	m.Overall = make(map[string]int, levelCount)
	for _, l := range Levels() {
		m.Overall[l.String()] = 0
	}

	for _, md := range models {
		if l, err := ParseLevel(md.OverallRisk); err == nil {
			m.Overall[l.String()]++
		}
		q, errQ := ParseLevel(md.QualitativeRisk)
		qt, errQt := ParseLevel(md.QuantitativeRisk)
		switch {
		case errQ != nil:
			m.Unclassified = append(m.Unclassified, Unclassified{ModelID: md.ID, Name: md.Name, Reason: "risco_qualitativo: " + errQ.Error()})
			continue
		case errQt != nil:
			m.Unclassified = append(m.Unclassified, Unclassified{ModelID: md.ID, Name: md.Name, Reason: "risco_quantitativo: " + errQt.Error()})
			continue
		}
		c := &m.cells[q-1][qt-1]
		c.Count++
		c.Models = append(c.Models, md.Name)
	}
	return m
}

// Cell returns the cell for the given pair. Invalid levels yield a zero Cell.
func (m Matrix) Cell(qualitative, quantitative Level) Cell {
	if !qualitative.Valid() || !quantitative.Valid() {
		return Cell{}
	}
	return m.cells[qualitative-1][quantitative-1]
}

// Cells returns all 16 cells, rows by qualitative level, columns by quantitative.
func (m Matrix) Cells() []Cell {
	out := make([]Cell, 0, levelCount*levelCount)
	for i := range m.cells {
		out = append(out, m.cells[i][:]...)
	}
	return out
}

// Classified returns the number of models counted in cells.
func (m Matrix) Classified() int {
	n := 0
	for i := range m.cells {
		for j := range m.cells[i] {
			n += m.cells[i][j].Count
		}
	}
	return n
}
