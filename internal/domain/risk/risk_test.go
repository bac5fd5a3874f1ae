package risk_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/pdwatch/internal/domain/model"
	"github.com/okian/pdwatch/internal/domain/risk"
	. "github.com/smartystreets/goconvey/convey"
)

func portfolio() []model.Model {
	qual := []string{"Médio", "Alto", "Médio", "Baixo", "Alto", "Médio", "Baixo", "Médio", "Alto", "Médio"}
	quant := []string{"Médio", "Alto", "Médio", "Baixo", "Médio", "Médio", "Baixo", "Alto", "Alto", "Médio"}
	geral := []string{"Médio", "Alto", "Médio", "Baixo", "Alto", "Médio", "Baixo", "Alto", "Alto", "Médio"}
	names := []string{"MPD_01", "MPD_02", "MPD_03", "MPD_04", "MPD_05", "MPD_06", "MPD_07", "MPD_08", "MPD_09", "MPD_10"}
	out := make([]model.Model, len(names))
	for i := range names {
		out[i] = model.Model{ID: i + 1, Name: names[i], QualitativeRisk: qual[i], QuantitativeRisk: quant[i], OverallRisk: geral[i]}
	}
	return out
}

func TestLevels(t *testing.T) {
	Convey("Given the four risk levels", t, func() {
		Convey("Then they have a total order", func() {
			ls := risk.Levels()
			for i := 1; i < len(ls); i++ {
				So(ls[i-1].Less(ls[i]), ShouldBeTrue)
				So(ls[i].Rank(), ShouldEqual, i+1)
			}
		})

		Convey("Then labels round-trip", func() {
			for _, l := range risk.Levels() {
				got, err := risk.ParseLevel(" " + l.String() + " ")
				So(err, ShouldBeNil)
				So(got, ShouldEqual, l)
			}
			got, err := risk.ParseLevel("Medio")
			So(err, ShouldBeNil)
			So(got, ShouldEqual, risk.Medio)
		})

		Convey("Then unknown labels fail", func() {
			_, err := risk.ParseLevel("Crítico")
			So(errors.Is(err, risk.ErrUnknownLevel), ShouldBeTrue)
			So(risk.Level(0).Valid(), ShouldBeFalse)
		})

		Convey("Then a cell decodes from its JSON labels", func() {
			var c risk.Cell
			err := json.Unmarshal([]byte(`{"risco_qualitativo":"Alto","risco_quantitativo":"Muito Baixo","count":1}`), &c)
			So(err, ShouldBeNil)
			So(c.Qualitative, ShouldEqual, risk.Alto)
			So(c.Quantitative, ShouldEqual, risk.MuitoBaixo)

			err = json.Unmarshal([]byte(`{"risco_qualitativo":"Extremo"}`), &c)
			So(errors.Is(err, risk.ErrUnknownLevel), ShouldBeTrue)
		})
	})
}

func TestCombinedScore(t *testing.T) {
	Convey("Given the fixed combined-score table", t, func() {
		want := [][]int{
			{1, 1, 2, 3},
			{1, 2, 3, 3},
			{2, 3, 3, 4},
			{3, 3, 4, 4},
		}
		Convey("Then every pair maps exactly", func() {
			for i, q := range risk.Levels() {
				for j, qt := range risk.Levels() {
					So(risk.CombinedScore(q, qt), ShouldEqual, want[i][j])
				}
			}
		})

		Convey("Then invalid levels score zero", func() {
			So(risk.CombinedScore(0, risk.Alto), ShouldEqual, 0)
		})
	})
}

func TestBuildMatrix(t *testing.T) {
	Convey("Given the ten-model portfolio", t, func() {
		m := risk.BuildMatrix(portfolio())

		Convey("Then all 16 cells are present", func() {
			cells := m.Cells()
			So(cells, ShouldHaveLength, 16)
			So(cells[0].Qualitative, ShouldEqual, risk.MuitoBaixo)
			So(cells[0].Quantitative, ShouldEqual, risk.MuitoBaixo)
			So(cells[15].Qualitative, ShouldEqual, risk.Alto)
			So(cells[15].Quantitative, ShouldEqual, risk.Alto)
			for _, c := range cells {
				So(c.Score, ShouldEqual, risk.CombinedScore(c.Qualitative, c.Quantitative))
				So(c.Models, ShouldNotBeNil)
			}
		})

		Convey("Then MPD_02 (Alto, Alto) sits in a score-4 cell", func() {
			c := m.Cell(risk.Alto, risk.Alto)
			So(c.Score, ShouldEqual, 4)
			So(c.Models, ShouldContain, "MPD_02")
			So(c.Count, ShouldEqual, 2)
		})

		Convey("Then counts match the portfolio", func() {
			So(m.Cell(risk.Medio, risk.Medio).Count, ShouldEqual, 4)
			So(m.Cell(risk.Baixo, risk.Baixo).Count, ShouldEqual, 2)
			So(m.Cell(risk.Alto, risk.Medio).Count, ShouldEqual, 1)
			So(m.Cell(risk.Medio, risk.Alto).Count, ShouldEqual, 1)
			So(m.Cell(risk.MuitoBaixo, risk.Alto).Count, ShouldEqual, 0)
			So(m.Classified(), ShouldEqual, 10)
			So(m.Unclassified, ShouldBeEmpty)
		})

		Convey("Then the overall distribution is counted", func() {
			So(m.Overall["Alto"], ShouldEqual, 4)
			So(m.Overall["Médio"], ShouldEqual, 4)
			So(m.Overall["Baixo"], ShouldEqual, 2)
			So(m.Overall["Muito Baixo"], ShouldEqual, 0)
		})
	})

	Convey("Given models with unknown categories", t, func() {
		models := append(portfolio(),
			model.Model{ID: 11, Name: "MPD_11", QualitativeRisk: "Crítico", QuantitativeRisk: "Alto"},
			model.Model{ID: 12, Name: "MPD_12", QualitativeRisk: "Alto", QuantitativeRisk: ""},
		)
		m := risk.BuildMatrix(models)

		Convey("Then they are excluded from counts and reported", func() {
			So(m.Classified(), ShouldEqual, 10)
			So(m.Unclassified, ShouldHaveLength, 2)
			So(m.Unclassified[0].Name, ShouldEqual, "MPD_11")
			So(m.Unclassified[0].Reason, ShouldContainSubstring, "risco_qualitativo")
			So(m.Unclassified[1].Reason, ShouldContainSubstring, "risco_quantitativo")
		})
	})

	Convey("Given an empty portfolio", t, func() {
		m := risk.BuildMatrix(nil)

		Convey("Then the matrix is still fully populated", func() {
			So(m.Cells(), ShouldHaveLength, 16)
			So(m.Classified(), ShouldEqual, 0)
		})
	})

	Convey("Given the same input twice", t, func() {
		So(risk.BuildMatrix(portfolio()).Cells(), ShouldResemble, risk.BuildMatrix(portfolio()).Cells())
	})
}
