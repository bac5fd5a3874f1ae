// Package synth generates a deterministic synthetic portfolio of PD models
// with monthly monitoring metrics, shaped like the production input tables.
package synth

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/okian/pdwatch/internal/adapters/repository"
	"github.com/okian/pdwatch/internal/domain/model"
)

// Defaults of Config.
const (
	DefaultModels = 10
	DefaultMonths = 6
	DefaultSeed   = 42
)

// Ranges of the simulated metrics.
const (
	scoreLow, scoreHigh         = 0.70, 0.95 // Accuracy, ROC-AUC, R2
	errorLow, errorHigh         = 0.20, 0.40 // KS, RMSE
	psiLow, psiHigh             = 0.05, 0.15
	contractsLow, contractsHigh = 0.03, 0.05 // share of vol_carteira
	realizedPD                  = 0.02
	estimatedLow, estimatedHigh = 0.01, 0.05
	riskMedium, riskHigh        = 0.02, 0.04
)

// Model table columns, cycled when more models are requested.
var (
	modelTypes = []model.ModelType{
		model.ModelBinary, model.ModelBinary, model.ModelContinuous, model.ModelContinuous, model.ModelBinary,
		model.ModelContinuous, model.ModelBinary, model.ModelContinuous, model.ModelBinary, model.ModelContinuous,
	}
	volumes      = []float64{1500000, 1200000, 2000000, 1800000, 1000000, 2200000, 1300000, 2500000, 1100000, 2000000}
	qualitative  = []string{"Médio", "Alto", "Médio", "Baixo", "Alto", "Médio", "Baixo", "Médio", "Alto", "Médio"}
	quantitative = []string{"Médio", "Alto", "Médio", "Baixo", "Médio", "Médio", "Baixo", "Alto", "Alto", "Médio"}
	overall      = []string{"Médio", "Alto", "Médio", "Baixo", "Alto", "Médio", "Baixo", "Alto", "Alto", "Médio"}
)

// Config controls the size and randomness of the generated dataset.
type Config struct {
	Models int
	Months int
	Seed   uint64
	// Start is the first monthly date; zero means 2025-01-01.
	Start time.Time
}

func (c Config) withDefaults() Config {
	if c.Models <= 0 {
		c.Models = DefaultModels
	}
	if c.Months <= 0 {
		c.Months = DefaultMonths
	}
	if c.Start.IsZero() {
		c.Start = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return c
}

// Descriptions returns the metric-description table of the generated metrics.
func Descriptions() []model.MetricDescription {
	d := func(name, desc string, att, alt *float64, t model.MetricType, dir model.Direction) model.MetricDescription {
		return model.MetricDescription{
			MetricName: name, Description: desc, Type: t, Direction: dir,
			Thresholds: model.Thresholds{Attention: att, Alert: alt},
		}
	}
	f := model.Float
	return []model.MetricDescription{
		d("ROC-AUC", "Área sob a curva ROC", f(0.75), f(0.70), model.MetricPerformance, model.HigherBetter),
		d("KS", "Kolmogorov-Smirnov", f(0.25), f(0.20), model.MetricPerformance, model.HigherBetter),
		d("Accuracy", "Acurácia do modelo", f(0.80), f(0.75), model.MetricPerformance, model.HigherBetter),
		d("RMSE", "Erro quadrático médio", f(0.35), f(0.40), model.MetricPerformance, model.LowerBetter),
		d("R2", "Coeficiente de determinação", f(0.60), f(0.50), model.MetricPerformance, model.HigherBetter),
		d("PSI", "Population Stability Index", f(0.10), f(0.25), model.MetricStability, model.LowerBetter),
		d(model.MetricRealizedDefaultRate, "Taxa de default realizada no mês", nil, nil, model.MetricDefault, model.Neutral),
		d(model.MetricEstimatedDefaultRate, "Taxa de default estimada pelo modelo", nil, nil, model.MetricDefault, model.Neutral),
		d(model.MetricContracts, "Volume de contratos analisados no mês", f(1000), f(5000), model.MetricDefault, model.Neutral),
		d("risk_score", "Score de risco médio do modelo", f(0.02), f(0.05), model.MetricRisk, model.LowerBetter),
		d("risk_level", "Nível de risco categórico do modelo (low, medium, high)", nil, nil, model.MetricRisk, model.Neutral),
	}
}

// Generate builds the three tables. The same Config always yields the same dataset.
func Generate(cfg Config) repository.Dataset {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	ds := repository.Dataset{Descriptions: Descriptions()}
	for i := range cfg.Models {
		k := i % len(volumes)
		ds.Models = append(ds.Models, model.Model{
			ID:               i + 1,
			Name:             fmt.Sprintf("MPD_%02d", i+1),
			Description:      "Modelo de PD IFRS9",
			Type:             modelTypes[k],
			Volume:           volumes[k],
			QualitativeRisk:  qualitative[k],
			QuantitativeRisk: quantitative[k],
			OverallRisk:      overall[k],
		})
	}

	for _, m := range ds.Models {
		for j := range cfg.Months {
			date := cfg.Start.AddDate(0, j, 0)
			ds.Observations = append(ds.Observations, monthRows(rng, m, date)...)
		}
	}
	return ds
}

func monthRows(rng *rand.Rand, m model.Model, date time.Time) []model.MetricObservation {
	var rows []model.MetricObservation
	add := func(name string, v model.MetricValue, t model.MetricType) {
		rows = append(rows, model.MetricObservation{ModelID: m.ID, MetricName: name, Value: v, MetricType: t, Date: date})
	}

	for _, name := range []string{"Accuracy", "ROC-AUC", "KS", "RMSE", "R2"} {
		lo, hi := errorLow, errorHigh
		if name == "Accuracy" || name == "ROC-AUC" || name == "R2" {
			lo, hi = scoreLow, scoreHigh
		}
		add(name, model.NumberValue(round(uniform(rng, lo, hi), 2)), model.MetricPerformance)
	}
	add("PSI", model.NumberValue(round(uniform(rng, psiLow, psiHigh), 2)), model.MetricStability)

	lo, hi := int(contractsLow*m.Volume), int(contractsHigh*m.Volume)
	contracts := lo
	if hi > lo {
		contracts = lo + rng.IntN(hi-lo)
	}
	realized, estimated := defaultRates(rng, contracts)
	add(model.MetricRealizedDefaultRate, model.NumberValue(realized), model.MetricDefault)
	add(model.MetricEstimatedDefaultRate, model.NumberValue(estimated), model.MetricDefault)
	add(model.MetricContracts, model.NumberValue(float64(contracts)), model.MetricDefault)

	add("risk_score", model.NumberValue(estimated), model.MetricRisk)
	add("risk_level", model.TextValue(riskLevel(estimated)), model.MetricRisk)
	return rows
}

// defaultRates simulates n contracts: realized is the observed default share,
// estimated the mean PD assigned by the model. Both are rounded to 4 places.
func defaultRates(rng *rand.Rand, n int) (float64, float64) {
	if n <= 0 {
		return 0, 0
	}
	defaults := 0
	var pdSum float64
	for range n {
		if rng.Float64() < realizedPD {
			defaults++
		}
		pdSum += uniform(rng, estimatedLow, estimatedHigh)
	}
	return round(float64(defaults)/float64(n), 4), round(pdSum/float64(n), 4)
}

func riskLevel(score float64) string {
	switch {
	case score < riskMedium:
		return "low"
	case score < riskHigh:
		return "medium"
	default:
		return "high"
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
