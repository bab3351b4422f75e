package gvi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"glyco/defs"
)

var nan = math.NaN()

func mgConfig() *defs.CalcConfig {
	return &defs.CalcConfig{
		Unit:            defs.UnitMg,
		Interval:        5,
		SmoothingWindow: 9,
		EventDuration:   15,
	}
}

func mmolConfig() *defs.CalcConfig {
	cfg := mgConfig()
	cfg.Unit = defs.UnitMmol
	return cfg
}

func frame(vs ...float64) *defs.Frame {
	return defs.GlucoseFrame(vs)
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func must[T any](ix T, err error) T {
	if err != nil {
		panic(err)
	}
	return ix
}

type FormulasTestSuite struct {
	suite.Suite
}

func TestFormulasTestSuite(t *testing.T) {
	suite.Run(t, new(FormulasTestSuite))
}

func (suite *FormulasTestSuite) TestMomentsSkipMissing() {
	f := frame(100, 120, nan, 140)

	mean, err := must(NewMean(f, mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 120, mean, 1e-12)

	median, err := must(NewMedian(f, mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 120, median, 1e-12)

	variance, err := must(NewVariance(f, mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 800.0/3, variance, 1e-9)

	sd, err := must(NewSD(f, mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), math.Sqrt(800.0/3), sd, 1e-9)
}

func (suite *FormulasTestSuite) TestMedianAveragesMiddlePair() {
	median, err := must(NewMedian(frame(160, 100, 140, 120), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 130, median, 1e-12)
}

func (suite *FormulasTestSuite) TestMeanIgnoresMissingEntirely() {
	withGaps, err := must(NewMean(frame(100, nan, 120, nan, 140), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	dense, err := must(NewMean(frame(100, 120, 140), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), dense, withGaps)
}

func (suite *FormulasTestSuite) TestCVIsVarianceOverMean() {
	cv, err := must(NewCV(frame(100, 120, nan, 140), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 800.0/3/120, cv, 1e-9)
}

func (suite *FormulasTestSuite) TestCVZeroMeanUndefined() {
	_, err := must(NewCV(frame(-100, 100), mgConfig())).Calculate()
	assert.ErrorIs(suite.T(), err, ErrUndefined)
}

func (suite *FormulasTestSuite) TestCountsStayDefinedOnAllMissing() {
	f := frame(nan, nan, nan)

	_, err := must(NewMean(f, mgConfig())).Calculate()
	assert.ErrorIs(suite.T(), err, ErrUndefined)
	_, err = must(NewVariance(f, mgConfig())).Calculate()
	assert.ErrorIs(suite.T(), err, ErrUndefined)

	missing, err := must(NewNanFraction(f, mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1.0, missing)

	records, err := must(NewRecords(f, mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3.0, records)
}

func (suite *FormulasTestSuite) TestNanFraction() {
	missing, err := must(NewNanFraction(frame(100, 120, nan, 140), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0.25, missing)

	missing, err = must(NewNanFraction(frame(100, 120), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0.0, missing)
}

func (suite *FormulasTestSuite) TestConstructionRejectsBadInputs() {
	_, err := NewMean(nil, mgConfig())
	assert.ErrorIs(suite.T(), err, ErrInvalidArgument)

	noGlucose, err := defs.NewFrame(map[string][]float64{"pulse": {60}})
	require.NoError(suite.T(), err)
	_, err = NewMean(noGlucose, mgConfig())
	assert.ErrorIs(suite.T(), err, ErrInvalidArgument)

	_, err = NewMean(frame(), mgConfig())
	assert.ErrorIs(suite.T(), err, ErrInvalidArgument)

	_, err = NewMean(frame(100), nil)
	assert.ErrorIs(suite.T(), err, ErrInvalidArgument)

	cfg := mgConfig()
	cfg.Interval = 0
	_, err = NewMean(frame(100), cfg)
	assert.ErrorIs(suite.T(), err, ErrInvalidArgument)

	cfg = mgConfig()
	cfg.Unit = "mgdl"
	_, err = NewMean(frame(100), cfg)
	assert.ErrorIs(suite.T(), err, ErrInvalidArgument)
}

func (suite *FormulasTestSuite) TestM100ReferencePoint() {
	m, err := must(NewM100(frame(100, 100, 100), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 0, m, 1e-12)

	m, err = must(NewM100(frame(1000), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 1000, m, 1e-9)

	m, err = must(NewM100(frame(100.0/18.0), mmolConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 0, m, 1e-12)
}

func (suite *FormulasTestSuite) TestM100UnitRoundTrip() {
	mg := []float64{90, 120, 150, 180}
	mmol := make([]float64, len(mg))
	for i, v := range mg {
		mmol[i] = v / defs.MmolConvFactor
	}

	inMg, err := must(NewM100(frame(mg...), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	inMmol, err := must(NewM100(frame(mmol...), mmolConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), inMg, inMmol, 1e-9)
}

func (suite *FormulasTestSuite) TestJIndex() {
	j, err := must(NewJIndex(frame(100, 120, nan, 140), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 18.585850255, j, 1e-6)

	_, err = must(NewJIndex(frame(nan), mgConfig())).Calculate()
	assert.ErrorIs(suite.T(), err, ErrUndefined)
}

func (suite *FormulasTestSuite) TestGradeZeroAtCurveMinimum() {
	// The score vanishes where log10(log10(g)+0.16) does, at g = 10^0.84
	// mmol/L.
	g, err := must(NewGRADE(frame(math.Pow(10, 0.84)), mmolConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 0, g, 1e-8)
}

func (suite *FormulasTestSuite) TestGradeUnitRoundTrip() {
	mg := []float64{90, 126, 180, 250}
	mmol := make([]float64, len(mg))
	for i, v := range mg {
		mmol[i] = v / defs.MmolConvFactor
	}

	inMg, err := must(NewGRADE(frame(mg...), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	inMmol, err := must(NewGRADE(frame(mmol...), mmolConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), inMg, inMmol, 1e-12)
}

func (suite *FormulasTestSuite) TestGradeMasksLogDomainViolations() {
	// 0.5 mmol/L pushes the inner log10 negative, so the sample masks
	// out instead of poisoning the mean.
	withBad, err := must(NewGRADE(frame(0.5, 7), mmolConfig())).Calculate()
	require.NoError(suite.T(), err)
	clean, err := must(NewGRADE(frame(7), mmolConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), clean, withBad)

	_, err = must(NewGRADE(frame(0.5), mmolConfig())).Calculate()
	assert.ErrorIs(suite.T(), err, ErrUndefined)
}

func (suite *FormulasTestSuite) TestGradeHypoMgSelectsEverything() {
	// The mg/dL branch rescales readings but not the 90 cutoff, so every
	// valid reading lands below it.
	share, err := must(NewGradeHypo(frame(80, 120, 300), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 1.0, share, 1e-12)

	share, err = must(NewGradeHyper(frame(80, 120, 300), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 0.0, share, 1e-12)
}

func (suite *FormulasTestSuite) TestGradeHypoMmolSplits() {
	all, err := must(NewGradeHypo(frame(3, 4, 4.5), mmolConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 1.0, all, 1e-12)

	none, err := must(NewGradeHypo(frame(6, 7), mmolConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 0.0, none, 1e-12)

	some, err := must(NewGradeHypo(frame(4, 6), mmolConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.Greater(suite.T(), some, 0.0)
	assert.Less(suite.T(), some, 1.0)

	_, err = must(NewGradeHypo(frame(0.5), mmolConfig())).Calculate()
	assert.ErrorIs(suite.T(), err, ErrUndefined)
}

func (suite *FormulasTestSuite) TestGradeHyperMmol() {
	all, err := must(NewGradeHyper(frame(9, 10), mmolConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 1.0, all, 1e-12)

	none, err := must(NewGradeHyper(frame(6, 7), mmolConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 0.0, none, 1e-12)
}

func (suite *FormulasTestSuite) TestRiskIndicesZeroOppositeSide() {
	// The log10-based risk function stays negative for any realistic
	// reading, so even high glucose lands on the low side and HBGI is
	// zero.
	low := frame(60, 70)
	lbgi, err := must(NewLBGI(low, mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 275.261958451, lbgi, 1e-9)
	hbgi, err := must(NewHBGI(low, mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0.0, hbgi)

	high := frame(300, 400)
	lbgi, err = must(NewLBGI(high, mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 158.167837532, lbgi, 1e-9)
	hbgi, err = must(NewHBGI(high, mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0.0, hbgi)

	// The sign flips only past the symmetry point near 52858 mg/dL.
	extreme := frame(60000)
	lbgi, err = must(NewLBGI(extreme, mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0.0, lbgi)
	hbgi, err = must(NewHBGI(extreme, mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.Greater(suite.T(), hbgi, 0.0)
}

func (suite *FormulasTestSuite) TestLBGIAveragesOverAllValid() {
	// A reading above the symmetry point contributes a zero, not a skip,
	// so it still counts in the denominator.
	lowOnly, err := must(NewLBGI(frame(60), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	mixed, err := must(NewLBGI(frame(60, 60000), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), lowOnly/2, mixed, 1e-9)
}

func (suite *FormulasTestSuite) TestRiskIndicesMaskBadReadings() {
	withBad, err := must(NewLBGI(frame(-5, 60, nan), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	clean, err := must(NewLBGI(frame(60), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), clean, withBad)
}

func (suite *FormulasTestSuite) TestEA1c() {
	est, err := must(NewEA1c(frame(5, 7, nan, 9), mmolConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), (7+2.52)/1.583, est, 1e-9)

	// 126.14 mg/dL is exactly 7 mmol/L under the 18.02 conversion this
	// index uses.
	est, err = must(NewEA1c(frame(126.14, 126.14), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), (7+2.52)/1.583, est, 1e-9)

	_, err = must(NewEA1c(frame(nan), mmolConfig())).Calculate()
	assert.ErrorIs(suite.T(), err, ErrUndefined)
}

func (suite *FormulasTestSuite) TestAUC() {
	auc, err := must(NewAUC(frame(100, 100, 100), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 200.0/3, auc, 1e-9)

	// Missing readings enter the area as zeros.
	auc, err = must(NewAUC(frame(100, nan, 100), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 100.0/3, auc, 1e-9)

	auc, err = must(NewAUC(frame(100), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0.0, auc)
}

func (suite *FormulasTestSuite) TestAUCScalesLinearly() {
	base := []float64{80, 120, 100, 140}
	doubled := make([]float64, len(base))
	for i, v := range base {
		doubled[i] = 2 * v
	}

	aucBase, err := must(NewAUC(frame(base...), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	aucDoubled, err := must(NewAUC(frame(doubled...), mgConfig())).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 2*aucBase, aucDoubled, 1e-9)
}

func (suite *FormulasTestSuite) TestAUCIndependentOfInterval() {
	fast := mgConfig()
	fast.Interval = 1
	slow := mgConfig()
	slow.Interval = 5

	f := frame(80, 120, 100, 140)
	aucFast, err := must(NewAUC(f, fast)).Calculate()
	require.NoError(suite.T(), err)
	aucSlow, err := must(NewAUC(f, slow)).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), aucFast, aucSlow, 1e-9)
}

func (suite *FormulasTestSuite) TestMODDUsesDayLagDifferences() {
	cfg := mgConfig()
	cfg.Interval = 720 // two samples per day, order 2 differences

	modd, err := must(NewMODD(frame(1, 2, 4, 8), cfg)).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 1.5, modd, 1e-12)
}

func (suite *FormulasTestSuite) TestMODDRoundsOrderHalfUp() {
	cfg := mgConfig()
	cfg.Interval = 960 // 1440/960 = 1.5 rounds up to order 2

	modd, err := must(NewMODD(frame(1, 2, 4, 8), cfg)).Calculate()
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 1.5, modd, 1e-12)
}

func (suite *FormulasTestSuite) TestMODDUndefinedWhenSeriesTooShort() {
	cfg := mgConfig()
	cfg.Interval = 720

	_, err := must(NewMODD(frame(1, 2), cfg)).Calculate()
	assert.ErrorIs(suite.T(), err, ErrUndefined)
}

func (suite *FormulasTestSuite) TestMODDMissingPoisonsDifferences() {
	cfg := mgConfig()
	cfg.Interval = 720

	_, err := must(NewMODD(frame(1, 2, nan, 8), cfg)).Calculate()
	assert.ErrorIs(suite.T(), err, ErrUndefined)
}

func (suite *FormulasTestSuite) TestCONGA() {
	cfg := mgConfig()
	cfg.Interval = 60

	conga, err := must(NewCONGA(frame(1, 2, 4, 8), cfg)).Calculate(2)
	require.NoError(suite.T(), err)
	assert.InDelta(suite.T(), 0.25, conga, 1e-12)
}

func (suite *FormulasTestSuite) TestCONGARejectsBadHours() {
	conga := must(NewCONGA(frame(1, 2, 4, 8), mgConfig()))

	_, err := conga.Calculate(0)
	assert.ErrorIs(suite.T(), err, ErrInvalidArgument)
	_, err = conga.Calculate(-1)
	assert.ErrorIs(suite.T(), err, ErrInvalidArgument)
}
