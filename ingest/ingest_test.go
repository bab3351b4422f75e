package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"glyco/defs"
)

type IngestTestSuite struct {
	suite.Suite
}

func TestIngestTestSuite(t *testing.T) {
	suite.Run(t, new(IngestTestSuite))
}

func (suite *IngestTestSuite) TestFrameSortsByTime() {
	base := time.Date(2022, time.May, 8, 13, 30, 0, 0, time.UTC)
	readings := []defs.Reading{
		{Time: base.Add(10 * time.Minute), Value: 7.2},
		{Time: base, Value: 5.5},
		{Time: base.Add(5 * time.Minute), Value: 6.1},
	}

	f := Frame(readings)
	require.Equal(suite.T(), 3, f.Len())

	glucose, ok := f.Column(defs.ColGlucose)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), []float64{5.5, 6.1, 7.2}, glucose)

	times := f.Times()
	require.Len(suite.T(), times, 3)
	assert.Equal(suite.T(), base, times[0])
	assert.Equal(suite.T(), base.Add(10*time.Minute), times[2])
}

func (suite *IngestTestSuite) TestFrameEmpty() {
	f := Frame(nil)
	assert.Equal(suite.T(), 0, f.Len())
}
