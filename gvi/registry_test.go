package gvi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) TestNamesLeadWithDefaults() {
	names := Names()
	require.GreaterOrEqual(suite.T(), len(names), len(DefaultIndices))
	assert.Equal(suite.T(), DefaultIndices, names[:len(DefaultIndices)])
	assert.Contains(suite.T(), names, "SD")
}

func (suite *RegistryTestSuite) TestLookup() {
	build, err := Lookup("Mean")
	require.NoError(suite.T(), err)
	ix, err := build(frame(100, 120), mgConfig())
	require.NoError(suite.T(), err)
	v, err := ix.Calculate()
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 110.0, v)
}

func (suite *RegistryTestSuite) TestLookupUnknownName() {
	_, err := Lookup("mean")
	assert.ErrorIs(suite.T(), err, ErrNotFound)

	_, err = Lookup("Glycemic Mystery Index")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *RegistryTestSuite) TestBatchDefaults() {
	results, err := Batch(frame(100, 120, nan, 140), mgConfig())
	require.NoError(suite.T(), err)

	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	assert.Equal(suite.T(), DefaultIndices, names)
	for _, r := range results {
		assert.True(suite.T(), r.Defined(), r.Name)
	}
}

func (suite *RegistryTestSuite) TestBatchKeepsRegistrationOrder() {
	results, err := Batch(frame(100, 120), mgConfig(), "CV", "Mean")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), results, 2)
	assert.Equal(suite.T(), "Mean", results[0].Name)
	assert.Equal(suite.T(), "CV", results[1].Name)
}

func (suite *RegistryTestSuite) TestBatchCollapsesDuplicates() {
	results, err := Batch(frame(100, 120), mgConfig(), "Mean", "Mean")
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), results, 1)
}

func (suite *RegistryTestSuite) TestBatchUnknownNameFailsWhole() {
	results, err := Batch(frame(100, 120), mgConfig(), "Mean", "Nope")
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	assert.Nil(suite.T(), results)
}

func (suite *RegistryTestSuite) TestBatchCarriesUndefinedPerIndex() {
	results, err := Batch(frame(nan, nan), mgConfig(), "Mean", "Missing values")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), results, 2)

	assert.Equal(suite.T(), "Mean", results[0].Name)
	assert.ErrorIs(suite.T(), results[0].Err, ErrUndefined)
	assert.False(suite.T(), results[0].Defined())

	assert.Equal(suite.T(), "Missing values", results[1].Name)
	require.True(suite.T(), results[1].Defined())
	assert.Equal(suite.T(), 1.0, results[1].Value)
}

func (suite *RegistryTestSuite) TestBatchRejectsBadInputs() {
	_, err := Batch(nil, mgConfig(), "Mean")
	assert.ErrorIs(suite.T(), err, ErrInvalidArgument)

	_, err = Batch(frame(100), nil, "Mean")
	assert.ErrorIs(suite.T(), err, ErrInvalidArgument)
}
