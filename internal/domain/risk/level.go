// Package risk classifies a model portfolio by crossing its qualitative and
// quantitative risk levels.
package risk

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is an ordered risk category. The zero value is not a valid level.
type Level int

// Levels, lowest to highest severity.
const (
	MuitoBaixo Level = iota + 1
	Baixo
	Medio
	Alto
)

const levelCount = 4

var labels = [levelCount]string{"Muito Baixo", "Baixo", "Médio", "Alto"}

// Levels returns every level in severity order.
func Levels() []Level { return []Level{MuitoBaixo, Baixo, Medio, Alto} }

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool { return l >= MuitoBaixo && l <= Alto }

// Rank returns the 1-based severity of l.
func (l Level) Rank() int { return int(l) }

// Less orders levels by severity.
func (l Level) Less(o Level) bool { return l < o }

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return labels[l-1]
}

// MarshalJSON emits the label.
func (l Level) MarshalJSON() ([]byte, error) { return json.Marshal(l.String()) }

// UnmarshalJSON reads a label written by MarshalJSON.
func (l *Level) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ParseLevel parses a level label. Surrounding space is ignored and "Medio"
// is accepted for "Médio".
func ParseLevel(s string) (Level, error) {
	t := strings.TrimSpace(s)
	for i, label := range labels {
		if t == label {
			return Level(i + 1), nil
		}
	}
	if t == "Medio" {
		return Medio, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// scores is fixed policy, indexed [qualitative-1][quantitative-1].
var scores = [levelCount][levelCount]int{
	{1, 1, 2, 3},
	{1, 2, 3, 3},
	{2, 3, 3, 4},
	{3, 3, 4, 4},
}

// CombinedScore returns the 1..4 severity of a (qualitative, quantitative)
// pair, or 0 if either level is invalid.
func CombinedScore(qualitative, quantitative Level) int {
	if !qualitative.Valid() || !quantitative.Valid() {
		return 0
	}
	return scores[qualitative-1][quantitative-1]
}
