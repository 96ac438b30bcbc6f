package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Dataset is the validated payload of the challenge API.
// Its JSON form mirrors the upstream document:
//
//	{"title": "...", "data": {"headers": [...], "rows": {"1": {...}, ...}}}
type Dataset struct {
	Title   string
	Headers []string
	Rows    Rows
}

// Row is a single record of the challenge table
type Row struct {
	// Key is the object key the row was stored under upstream
	Key   string `json:"-"`
	ID    int64  `json:"id"`
	FName string `json:"fname"`
	LName string `json:"lname"`
	Email string `json:"email"`
	Date  int64  `json:"date"`
}

// Rows keeps upstream insertion order while serializing as a JSON object
type Rows []Row

// EmptyDataset returns the placeholder shown when no valid data is available
func EmptyDataset() *Dataset {
	return &Dataset{
		Title:   "",
		Headers: []string{},
		Rows:    Rows{},
	}
}

type datasetJSON struct {
	Title string          `json:"title"`
	Data  datasetDataJSON `json:"data"`
}

type datasetDataJSON struct {
	Headers []string `json:"headers"`
	Rows    Rows     `json:"rows"`
}

func (d Dataset) MarshalJSON() ([]byte, error) {
	headers := d.Headers
	if headers == nil {
		headers = []string{}
	}
	return json.Marshal(datasetJSON{
		Title: d.Title,
		Data:  datasetDataJSON{Headers: headers, Rows: d.Rows},
	})
}

func (d *Dataset) UnmarshalJSON(b []byte) error {
	var aux datasetJSON
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	d.Title = aux.Title
	d.Headers = aux.Data.Headers
	if d.Headers == nil {
		d.Headers = []string{}
	}
	d.Rows = aux.Data.Rows
	if d.Rows == nil {
		d.Rows = Rows{}
	}
	return nil
}

// ToJSON serializes the dataset in its upstream shape
func (d *Dataset) ToJSON() ([]byte, error) {
	return json.Marshal(d)
}

// FromJSON deserializes an upstream-shaped document into the dataset
func (d *Dataset) FromJSON(data []byte) error {
	return json.Unmarshal(data, d)
}

func (r Rows) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, row := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key := row.Key
		if key == "" {
			key = strconv.Itoa(i + 1)
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(row)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads rows from a JSON object in document order. A JSON array
// is also accepted, in which case keys are the element indexes.
func (r *Rows) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*r = nil
		return nil
	}

	delim, ok := tok.(json.Delim)
	if !ok || (delim != '{' && delim != '[') {
		return fmt.Errorf("rows: unexpected token %v", tok)
	}

	rows := Rows{}
	for i := 0; dec.More(); i++ {
		key := strconv.Itoa(i)
		if delim == '{' {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ = keyTok.(string)
		}

		var row Row
		if err := dec.Decode(&row); err != nil {
			return fmt.Errorf("rows[%q]: %w", key, err)
		}
		row.Key = key
		rows = append(rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*r = rows
	return nil
}

// UnmarshalJSON accepts id and date either as JSON integers or as numeric strings
func (row *Row) UnmarshalJSON(b []byte) error {
	var aux struct {
		ID    json.RawMessage `json:"id"`
		FName string          `json:"fname"`
		LName string          `json:"lname"`
		Email string          `json:"email"`
		Date  json.RawMessage `json:"date"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	id, err := parseInteger(aux.ID)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	date, err := parseInteger(aux.Date)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}

	row.ID = id
	row.FName = aux.FName
	row.LName = aux.LName
	row.Email = aux.Email
	row.Date = date
	return nil
}

// parseInteger accepts any JSON number or numeric string with an integral
// value in the int64 range, so 71, 71.0 and 7.1e1 all read as 71
func parseInteger(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	value, ok := new(big.Rat).SetString(s)
	if !ok {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if !value.IsInt() {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if !value.Num().IsInt64() {
		return 0, fmt.Errorf("%q: %w", s, ErrIntegerRange)
	}
	return value.Num().Int64(), nil
}

// ErrIntegerRange reports an integral value that does not fit in int64
var ErrIntegerRange = errors.New("integer out of range")
