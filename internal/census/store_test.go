package census

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/EmpoweredVote/fairlending-api/internal/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRaceByCounty(t *testing.T) {
	gdb, mock := dbtest.New(t)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN geo.geos g ON g.geoid = rs.geoid")).
		WithArgs("11", "222").
		WillReturnRows(sqlmock.NewRows([]string{
			"geoid", "total_pop", "hispanic", "non_hisp_white_only",
			"non_hisp_black_only", "non_hisp_asian_only", "hispanic_perc",
			"non_hisp_white_only_perc", "non_hisp_black_only_perc", "non_hisp_asian_only_perc",
		}).AddRow("11222000001", 100, 10, 80, 5, 5, 10.0, 80.0, 5.0, 5.0))

	stats, err := NewStore(gdb).RaceByCounty(context.Background(), "11", "222")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "11222000001", stats[0].GeoID)
	assert.Equal(t, 80, stats[0].NonHispWhiteOnly)
	assert.Equal(t, 5.0, stats[0].NonHispAsianOnlyPerc)
}

func TestStoreRaceByCountyError(t *testing.T) {
	gdb, mock := dbtest.New(t)
	mock.ExpectQuery("FROM census.race_stats").WillReturnError(errors.New("boom"))

	_, err := NewStore(gdb).RaceByCounty(context.Background(), "11", "222")
	assert.ErrorContains(t, err, "race by county query failed")
}

func TestStoreUpsertRaceStats(t *testing.T) {
	gdb, mock := dbtest.New(t)

	mock.ExpectExec(`INSERT INTO "census"."race_stats" .+ON CONFLICT \("geoid"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows := []RaceStats{{GeoID: "11222000001", TotalPop: 50, Hispanic: 25}}
	require.NoError(t, NewStore(gdb).UpsertRaceStats(context.Background(), rows, 0))
	// the save hook ran on the caller's slice
	assert.Equal(t, 50.0, rows[0].HispanicPerc)
}

func TestStoreUpsertHouseholds(t *testing.T) {
	gdb, mock := dbtest.New(t)

	mock.ExpectExec(`INSERT INTO "census"."households"`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := NewStore(gdb).UpsertHouseholds(context.Background(),
		[]Households{{GeoID: "1", Total: 10}, {GeoID: "2", Total: 20}}, 0)
	require.NoError(t, err)
}
