package census

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePercentages(t *testing.T) {
	s := RaceStats{TotalPop: 400, Hispanic: 100, NonHispWhiteOnly: 200, NonHispBlackOnly: 60, NonHispAsianOnly: 40}
	s.ComputePercentages()

	assert.Equal(t, 25.0, s.HispanicPerc)
	assert.Equal(t, 50.0, s.NonHispWhiteOnlyPerc)
	assert.Equal(t, 15.0, s.NonHispBlackOnlyPerc)
	assert.Equal(t, 10.0, s.NonHispAsianOnlyPerc)

	empty := RaceStats{Hispanic: 3}
	empty.ComputePercentages()
	assert.Zero(t, empty.HispanicPerc)
}

func TestField(t *testing.T) {
	s := RaceStats{TotalPop: 10, HispanicPerc: 12.5}

	v, ok := s.Field("total_pop")
	assert.True(t, ok)
	assert.Equal(t, 10.0, v)

	v, ok = s.Field("hispanic_perc")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	_, ok = s.Field("geoid")
	assert.False(t, ok)
	assert.False(t, IsField("state"))
}
