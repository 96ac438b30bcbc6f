package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pondermatic/strategy11-challenge/src/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	dataset *domain.Dataset
	err     error
}

func (s stubSource) GetData(context.Context) (*domain.Dataset, error) {
	return s.dataset, s.err
}

func datasetFromJSON(t *testing.T, body string) *domain.Dataset {
	t.Helper()
	dataset := &domain.Dataset{}
	require.NoError(t, dataset.FromJSON([]byte(body)))
	return dataset
}

func ids(rows []domain.Row) []int64 {
	out := make([]int64, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ID)
	}
	return out
}

func keys(rows []domain.Row) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Key)
	}
	return out
}

func TestTablePresenter_IntegerColumnsSortNumerically(t *testing.T) {
	// ids arrive as strings and numbers alike
	dataset := datasetFromJSON(t, `{"title":"t","data":{"headers":[],"rows":{
		"a":{"id":"100","fname":"","lname":"","email":"","date":"30"},
		"b":{"id":9,"fname":"","lname":"","email":"","date":200},
		"c":{"id":"20","fname":"","lname":"","email":"","date":1000}
	}}}`)
	p := NewTablePresenter("en")

	rows := p.Present(dataset, domain.SortSpec{Column: domain.SortColumnID, Direction: domain.SortAsc})
	assert.Equal(t, []int64{9, 20, 100}, ids(rows))

	rows = p.Present(dataset, domain.SortSpec{Column: domain.SortColumnID, Direction: domain.SortDesc})
	assert.Equal(t, []int64{100, 20, 9}, ids(rows))

	rows = p.Present(dataset, domain.SortSpec{Column: domain.SortColumnDate, Direction: domain.SortAsc})
	assert.Equal(t, []string{"a", "b", "c"}, keys(rows))
}

func TestTablePresenter_StringColumnsSortNaturally(t *testing.T) {
	dataset := &domain.Dataset{Rows: domain.Rows{
		{Key: "1", ID: 1, FName: "item10"},
		{Key: "2", ID: 2, FName: "Item2"},
		{Key: "3", ID: 3, FName: "item1"},
		{Key: "4", ID: 4, FName: "apple"},
	}}
	p := NewTablePresenter("en")

	rows := p.Present(dataset, domain.SortSpec{Column: domain.SortColumnFName, Direction: domain.SortAsc})
	assert.Equal(t, []string{"4", "3", "2", "1"}, keys(rows))

	rows = p.Present(dataset, domain.SortSpec{Column: domain.SortColumnFName, Direction: domain.SortDesc})
	assert.Equal(t, []string{"1", "2", "3", "4"}, keys(rows))
}

func TestTablePresenter_StableForEqualKeys(t *testing.T) {
	dataset := &domain.Dataset{Rows: domain.Rows{
		{Key: "1", ID: 5, LName: "Smith"},
		{Key: "2", ID: 3, LName: "smith"},
		{Key: "3", ID: 4, LName: "Adams"},
		{Key: "4", ID: 1, LName: "SMITH"},
	}}
	p := NewTablePresenter("en")

	rows := p.Present(dataset, domain.SortSpec{Column: domain.SortColumnLName, Direction: domain.SortAsc})
	assert.Equal(t, []string{"3", "1", "2", "4"}, keys(rows))

	rows = p.Present(dataset, domain.SortSpec{Column: domain.SortColumnLName, Direction: domain.SortDesc})
	assert.Equal(t, []string{"1", "2", "4", "3"}, keys(rows))
}

func TestTablePresenter_UnknownColumnFallsBackToID(t *testing.T) {
	dataset := &domain.Dataset{Rows: domain.Rows{
		{Key: "1", ID: 90, FName: "b"},
		{Key: "2", ID: 56, FName: "c"},
		{Key: "3", ID: 71, FName: "a"},
	}}
	p := NewTablePresenter("en")

	explicit := p.Present(dataset, domain.ParseSortSpec("id", "asc"))
	assert.Equal(t, explicit, p.Present(dataset, domain.ParseSortSpec("nope", "desc")))
	assert.Equal(t, explicit, p.Present(dataset, domain.SortSpec{Column: "nope", Direction: domain.SortDesc}))
	assert.Equal(t, []int64{56, 71, 90}, ids(explicit))
}

func TestTablePresenter_DoesNotReorderDataset(t *testing.T) {
	dataset := &domain.Dataset{Rows: domain.Rows{
		{Key: "1", ID: 3},
		{Key: "2", ID: 1},
	}}
	p := NewTablePresenter("en")

	_ = p.Present(dataset, domain.DefaultSortSpec())
	assert.Equal(t, []string{"1", "2"}, keys(dataset.Rows))
	assert.Empty(t, p.Present(nil, domain.DefaultSortSpec()))
}

func TestTablePresenter_BuildView(t *testing.T) {
	dataset := &domain.Dataset{
		Title:   "Title",
		Headers: []string{"ID", "First Name", "Last Name", "Email", "Date"},
		Rows: domain.Rows{
			{Key: "1", ID: 71, FName: "Liam", LName: "Neeson", Email: "skills@test.com", Date: 13626000},
			{Key: "2", ID: 56, FName: "Jason", LName: "Statham", Email: "FrankMartin@test.com", Date: 13626970},
		},
	}
	p := NewTablePresenter("en")

	view := p.BuildView(context.Background(), stubSource{dataset: dataset}, domain.SortSpec{Column: domain.SortColumnID, Direction: domain.SortDesc})

	assert.Empty(t, view.Notices)
	assert.Equal(t, "Title", view.Title)
	require.Len(t, view.Cells, 2)
	assert.Equal(t, []string{"71", "Liam", "Neeson", "skills@test.com", "June 7, 1970 5:00 pm"}, view.Cells[0])

	require.Len(t, view.Columns, 5)
	assert.Equal(t, "ID", view.Columns[0].Label)
	assert.True(t, view.Columns[0].Sorted)
	assert.Equal(t, domain.SortAsc, view.Columns[0].Next)
	assert.False(t, view.Columns[1].Sorted)
	assert.Equal(t, domain.SortAsc, view.Columns[1].Next)
}

func TestTablePresenter_BuildViewOnError(t *testing.T) {
	p := NewTablePresenter("en")
	err := domain.NewError(domain.ErrorCodeRemoteProcess, errors.New("dial tcp: refused"),
		domain.WithMsg("Unable to reach the challenge API."))

	view := p.BuildView(context.Background(), stubSource{err: err}, domain.DefaultSortSpec())

	assert.Equal(t, domain.EmptyDataset(), view.Dataset)
	assert.Empty(t, view.Rows)
	assert.Equal(t, []string{"Unable to reach the challenge API."}, view.Notices)
}

func TestFormatNotice(t *testing.T) {
	schemaErr := domain.NewError(domain.ErrorCodeRemoteSchemaInvalid, errors.New("invalid"),
		domain.WithMsg("The fetched user data did not pass JSON schema validation tests."),
		domain.WithDetail(&domain.ValidationError{
			JSONPointer: "/data/rows/1/id",
			Message:     "The data (string) must match the type: integer",
		}),
	)
	assert.Equal(t,
		`The fetched user data did not pass JSON schema validation tests.<br>JSON path: "/data/rows/1/id"<br>message: "The data (string) must match the type: integer"`,
		FormatNotice(schemaErr),
	)

	escaped := domain.NewError(domain.ErrorCodeRemoteSchemaInvalid, errors.New("invalid"),
		domain.WithMsg("bad"),
		domain.WithDetail(&domain.ValidationError{JSONPointer: "/data/rows/<b>", Message: "x"}),
	)
	assert.Equal(t, `bad<br>JSON path: "/data/rows/&lt;b&gt;"<br>message: "x"`, FormatNotice(escaped))

	assert.Equal(t, "Unable to load the challenge data.", FormatNotice(errors.New("plain")))
}
