package hmda

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/EmpoweredVote/fairlending-api/internal/batch"
	"github.com/EmpoweredVote/fairlending-api/internal/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	rows []OriginationRow
	err  error
	args []string
}

func (f *fakeStore) LoanOriginations(_ context.Context, state, county, lender string) ([]OriginationRow, error) {
	f.args = []string{state, county, lender}
	return f.rows, f.err
}

func intp(i int) *int { return &i }

func TestVolumePer100Households(t *testing.T) {
	assert.Equal(t, 0.0, VolumePer100Households(0, intp(100)))
	assert.Equal(t, 10.0, VolumePer100Households(10, intp(100)))
	assert.Equal(t, 0.0, VolumePer100Households(10, intp(0)))
	assert.Equal(t, 0.0, VolumePer100Households(10, nil))
	assert.InDelta(t, 33.333, VolumePer100Households(1, intp(3)), 1e-3)
}

func TestLoanOriginations(t *testing.T) {
	store := &fakeStore{rows: []OriginationRow{
		{GeoID: "11222333333", Volume: 5, NumHouseholds: intp(50)},
		{GeoID: "11222444444", Volume: 2},
	}}
	h := SetupRoutes(NewHandler(store, nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/volume?state_fips=11&county_fips=222&lender=90000000001", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"11", "222", "90000000001"}, store.args)

	assert.JSONEq(t, `{
		"11222333333": {"volume": 5, "num_households": 50, "volume_per_100_households": 10},
		"11222444444": {"volume": 2, "num_households": null, "volume_per_100_households": 0}
	}`, rec.Body.String())
}

func TestLoanOriginationsMissingParams(t *testing.T) {
	h := SetupRoutes(NewHandler(&fakeStore{}, nil))

	for _, target := range []string{
		"/volume",
		"/volume?state_fips=11&county_fips=222",
		"/volume?state_fips=11&lender=1",
		"/volume?county_fips=222&lender=1",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, "Missing one of state_fips, county_fips, lender\n", rec.Body.String())
	}
}

func TestLoanOriginationsBatchEndpoint(t *testing.T) {
	h := NewHandler(&fakeStore{err: errors.New("db down")}, nil)

	_, err := h.LoanOriginations(context.Background(), batch.Params{"state_fips": "11"})
	assert.ErrorIs(t, err, batch.ErrBadRequest)

	_, err = h.LoanOriginations(context.Background(),
		batch.Params{"state_fips": "11", "county_fips": "222", "lender": "1"})
	assert.EqualError(t, err, "db down")
}

func TestRecordSetDerived(t *testing.T) {
	r := Record{AgencyCode: "9", RespondentID: "0000000001", StateFP: "11", CountyFP: "222", CensusTractNumber: "3333.33"}
	r.SetDerived()
	assert.Equal(t, "90000000001", r.Lender)
	assert.Equal(t, "11222333333", r.GeoID)

	r.CensusTractNumber = ""
	r.SetDerived()
	assert.Empty(t, r.GeoID)
}

func TestStoreLoanOriginations(t *testing.T) {
	gdb, mock := dbtest.New(t)

	mock.ExpectQuery(`LEFT JOIN census.households h ON h.geoid = r.geoid.+r.action_taken <= \$4.+GROUP BY r.geoid`).
		WithArgs("222", "90000000001", "11", 6).
		WillReturnRows(sqlmock.NewRows([]string{"geoid", "volume", "num_households"}).
			AddRow("11222333333", 5, 50).
			AddRow("11222444444", 2, nil))

	rows, err := NewStore(gdb).LoanOriginations(context.Background(), "11", "222", "90000000001")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 50, *rows[0].NumHouseholds)
	assert.Nil(t, rows[1].NumHouseholds)
}

func TestStoreInsert(t *testing.T) {
	gdb, mock := dbtest.New(t)

	mock.ExpectQuery(`INSERT INTO "hmda"."records"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	records := []Record{{AgencyCode: "9", RespondentID: "0000000001", StateFP: "11", CountyFP: "222", CensusTractNumber: "3333.33"}}
	require.NoError(t, NewStore(gdb).Insert(context.Background(), records, 0))
	assert.Equal(t, "11222333333", records[0].GeoID)
}
