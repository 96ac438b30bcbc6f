package service

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"sort"
	"time"

	"github.com/pondermatic/strategy11-challenge/src/domain"
	"github.com/rs/zerolog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultDateLayout renders row dates, e.g. "March 3, 2023 4:05 pm"
const DefaultDateLayout = "January 2, 2006 3:04 pm"

const genericNotice = "Unable to load the challenge data."

// DataSource supplies the dataset a table is built from
type DataSource interface {
	GetData(ctx context.Context) (*domain.Dataset, error)
}

// Column describes one table header
type Column struct {
	Key       domain.SortColumn
	Label     string
	Sorted    bool
	Direction domain.SortDirection
	// Next is the direction a click on the header selects
	Next domain.SortDirection
}

// TableView is everything a page needs to render the challenge table
type TableView struct {
	Dataset *domain.Dataset
	Title   string
	Columns []Column
	Rows    []domain.Row
	Cells   [][]string
	Notices []string
	Sort    domain.SortSpec
}

// TablePresenter sorts and formats datasets for display. It never talks to
// the network or the cache itself.
type TablePresenter struct {
	locale     language.Tag
	dateLayout string
	location   *time.Location
}

func NewTablePresenter(locale string) *TablePresenter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &TablePresenter{
		locale:     tag,
		dateLayout: DefaultDateLayout,
		location:   time.UTC,
	}
}

func (p *TablePresenter) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "table-presenter").Logger()
	return &l
}

// Present returns a sorted copy of the dataset rows. Integer columns compare
// numerically and string columns with case-insensitive natural ordering. The
// sort is stable and desc is the negated ascending comparison.
func (p *TablePresenter) Present(dataset *domain.Dataset, spec domain.SortSpec) []domain.Row {
	if dataset == nil {
		return []domain.Row{}
	}
	if !spec.Column.Valid() {
		spec = domain.DefaultSortSpec()
	}

	rows := make([]domain.Row, len(dataset.Rows))
	copy(rows, dataset.Rows)

	compare := p.comparator(spec.Column)
	sign := 1
	if spec.Direction == domain.SortDesc {
		sign = -1
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return sign*compare(rows[i], rows[j]) < 0
	})
	return rows
}

func (p *TablePresenter) comparator(column domain.SortColumn) func(a, b domain.Row) int {
	if column.IsInteger() {
		return func(a, b domain.Row) int {
			x, y := a.IntValue(column), b.IntValue(column)
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	}

	// a Collator keeps internal buffers, so each sort gets its own
	c := collate.New(p.locale, collate.IgnoreCase, collate.Numeric)
	return func(a, b domain.Row) int {
		return c.CompareString(a.StringValue(column), b.StringValue(column))
	}
}

// BuildView loads the dataset from source and prepares it for rendering. A
// failure yields the empty placeholder dataset and a single notice.
func (p *TablePresenter) BuildView(ctx context.Context, source DataSource, spec domain.SortSpec) TableView {
	if !spec.Column.Valid() {
		spec = domain.DefaultSortSpec()
	}

	view := TableView{Sort: spec}

	dataset, err := source.GetData(ctx)
	if err != nil {
		p.logger(ctx).Warn().Err(err).Msg("rendering empty challenge table")
		dataset = domain.EmptyDataset()
		view.Notices = append(view.Notices, FormatNotice(err))
	}

	view.Dataset = dataset
	view.Title = dataset.Title
	view.Columns = p.columns(spec)
	view.Rows = p.Present(dataset, spec)
	view.Cells = make([][]string, 0, len(view.Rows))
	for _, row := range view.Rows {
		view.Cells = append(view.Cells, p.cells(row))
	}
	return view
}

func (p *TablePresenter) columns(spec domain.SortSpec) []Column {
	columns := make([]Column, 0, len(domain.Columns))
	for _, key := range domain.Columns {
		col := Column{
			Key:   key,
			Label: key.Label(),
			Next:  domain.SortAsc,
		}
		if key == spec.Column {
			col.Sorted = true
			col.Direction = spec.Direction
			if spec.Direction == domain.SortAsc {
				col.Next = domain.SortDesc
			}
		}
		columns = append(columns, col)
	}
	return columns
}

func (p *TablePresenter) cells(row domain.Row) []string {
	cells := make([]string, 0, len(domain.Columns))
	for _, key := range domain.Columns {
		if key == domain.SortColumnDate {
			cells = append(cells, p.FormatDate(row.Date))
			continue
		}
		cells = append(cells, row.StringValue(key))
	}
	return cells
}

// FormatDate renders a unix timestamp with the presenter's layout
func (p *TablePresenter) FormatDate(ts int64) string {
	return time.Unix(ts, 0).In(p.location).Format(p.dateLayout)
}

// FormatNotice turns a pipeline error into an HTML-escaped notice. Schema
// violations include the JSON pointer and the violation message.
func FormatNotice(err error) string {
	var domainErr domain.DomainError
	if !errors.As(err, &domainErr) {
		return template.HTMLEscapeString(genericNotice)
	}

	msg := domainErr.ClientMsg()
	if msg == "" {
		msg = genericNotice
	}

	violation, ok := domainErr.Detail().(*domain.ValidationError)
	if !ok || violation == nil {
		return template.HTMLEscapeString(msg)
	}

	return fmt.Sprintf(`%s<br>JSON path: "%s"<br>message: "%s"`,
		template.HTMLEscapeString(msg),
		template.HTMLEscapeString(violation.JSONPointer),
		template.HTMLEscapeString(violation.Message),
	)
}
