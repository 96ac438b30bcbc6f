package domain

import (
	"strconv"
	"strings"
)

type SortColumn string

const (
	SortColumnID    SortColumn = "id"
	SortColumnFName SortColumn = "fname"
	SortColumnLName SortColumn = "lname"
	SortColumnEmail SortColumn = "email"
	SortColumnDate  SortColumn = "date"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec selects the column and direction used to order table rows
type SortSpec struct {
	Column    SortColumn    `json:"orderby"`
	Direction SortDirection `json:"order"`
}

// Columns lists the table columns in display order
var Columns = []SortColumn{SortColumnID, SortColumnFName, SortColumnLName, SortColumnEmail, SortColumnDate}

// ColumnLabels holds the header text for each column
var ColumnLabels = map[SortColumn]string{
	SortColumnID:    "ID",
	SortColumnFName: "First Name",
	SortColumnLName: "Last Name",
	SortColumnEmail: "Email",
	SortColumnDate:  "Date",
}

func DefaultSortSpec() SortSpec {
	return SortSpec{Column: SortColumnID, Direction: SortAsc}
}

// ParseSortSpec builds a SortSpec from the orderby and order request
// parameters. An unknown column resets the whole spec to id ascending; an
// empty column keeps id with the requested direction. Anything other than
// "desc" sorts ascending.
func ParseSortSpec(orderBy, order string) SortSpec {
	spec := DefaultSortSpec()

	column := SortColumn(strings.ToLower(strings.TrimSpace(orderBy)))
	switch {
	case column == "":
	case column.Valid():
		spec.Column = column
	default:
		return spec
	}
	if strings.ToLower(strings.TrimSpace(order)) == string(SortDesc) {
		spec.Direction = SortDesc
	}
	return spec
}

func (c SortColumn) Valid() bool {
	switch c {
	case SortColumnID, SortColumnFName, SortColumnLName, SortColumnEmail, SortColumnDate:
		return true
	}
	return false
}

// IsInteger reports whether the column holds integer values
func (c SortColumn) IsInteger() bool {
	return c == SortColumnID || c == SortColumnDate
}

// Label returns the column header text
func (c SortColumn) Label() string {
	return ColumnLabels[c]
}

// IntValue returns the integer value of an integer column
func (row Row) IntValue(column SortColumn) int64 {
	if column == SortColumnDate {
		return row.Date
	}
	return row.ID
}

// StringValue returns the value of a column as text
func (row Row) StringValue(column SortColumn) string {
	switch column {
	case SortColumnFName:
		return row.FName
	case SortColumnLName:
		return row.LName
	case SortColumnEmail:
		return row.Email
	case SortColumnDate:
		return formatInt(row.Date)
	default:
		return formatInt(row.ID)
	}
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
