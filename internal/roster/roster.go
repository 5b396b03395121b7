// Package roster loads the student roster and answers roll-number lookups.
package roster

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/xuri/excelize/v2"
)

const (
	ColumnRollNumber = "Roll Number"
	ColumnName       = "Name"
	ColumnLeetCode   = "Leet code links"
	ColumnHackerRank = "Hackerrank profile link"
)

var (
	ErrMissingColumn     = errors.New("missing required column")
	ErrUnsupportedFormat = errors.New("unsupported roster format")
	ErrEmpty             = errors.New("roster has no header row")
)

const maxSuggestDistance = 3

type Field struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Student is one roster row. Fields holds every column in header order.
type Student struct {
	RollNumber    string  `json:"roll_number"`
	Name          string  `json:"name"`
	LeetCodeURL   string  `json:"leetcode_url"`
	HackerRankURL string  `json:"hackerrank_url"`
	Fields        []Field `json:"fields"`
}

func (s Student) LeetCodeUsername() (string, bool) {
	return Username(s.LeetCodeURL, LeetCodeDomain)
}

func (s Student) HackerRankUsername() (string, bool) {
	return Username(s.HackerRankURL, HackerRankDomain)
}

type Roster struct {
	Columns  []string
	Students []Student
	index    map[string]int
}

// Parse reads a CSV roster.
func Parse(r io.Reader) (*Roster, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv roster: %w", err)
	}
	return fromRows(records)
}

// ParseXLSX reads the first sheet of an XLSX workbook.
func ParseXLSX(r io.Reader) (*Roster, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx roster: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

// ParseFile picks a parser from the file name's extension.
func ParseFile(name string, r io.Reader) (*Roster, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return Parse(r)
	case ".xlsx":
		return ParseXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// New builds a roster from a header and its rows.
func New(columns []string, rows [][]string) (*Roster, error) {
	return fromRows(append([][]string{columns}, rows...))
}

func fromRows(records [][]string) (*Roster, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	header := make([]string, len(records[0]))
	for i, col := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
	}
	lookup := make(map[string]int, len(header))
	for i, col := range header {
		key := strings.ToLower(col)
		if _, dup := lookup[key]; !dup {
			lookup[key] = i
		}
	}
	rollIdx, ok := lookup[strings.ToLower(ColumnRollNumber)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, ColumnRollNumber)
	}
	cell := func(row []string, col string) string {
		i, ok := lookup[strings.ToLower(col)]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := &Roster{
		Columns: header,
		index:   make(map[string]int),
	}
	for _, row := range records[1:] {
		if rollIdx >= len(row) || strings.TrimSpace(row[rollIdx]) == "" {
			continue
		}
		student := Student{
			RollNumber:    cell(row, ColumnRollNumber),
			Name:          cell(row, ColumnName),
			LeetCodeURL:   cell(row, ColumnLeetCode),
			HackerRankURL: cell(row, ColumnHackerRank),
			Fields:        make([]Field, len(header)),
		}
		for i, col := range header {
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			student.Fields[i] = Field{Column: col, Value: value}
		}

		key := rollKey(student.RollNumber)
		if _, dup := out.index[key]; !dup {
			out.index[key] = len(out.Students)
		}
		out.Students = append(out.Students, student)
	}
	return out, nil
}

func rollKey(roll string) string {
	return strings.ToUpper(strings.TrimSpace(roll))
}

func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Students)
}

// Find looks up a roll number, ignoring case and surrounding whitespace.
func (r *Roster) Find(roll string) (Student, bool) {
	if r == nil {
		return Student{}, false
	}
	i, ok := r.index[rollKey(roll)]
	if !ok {
		return Student{}, false
	}
	return r.Students[i], true
}

// Suggest returns up to n roll numbers within a small edit distance of roll, closest
// first.
func (r *Roster) Suggest(roll string, n int) []string {
	key := rollKey(roll)
	if r == nil || key == "" || n <= 0 {
		return nil
	}

	type scored struct {
		roll string
		dist int
	}
	var matches []scored
	for k, i := range r.index {
		if d := matchr.Levenshtein(key, k); d <= maxSuggestDistance {
			matches = append(matches, scored{roll: r.Students[i].RollNumber, dist: d})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].roll < matches[j].roll
	})

	var out []string
	for i := 0; i < len(matches) && i < n; i++ {
		out = append(out, matches[i].roll)
	}
	return out
}

// Rows returns the cell values of every student in column order.
func (r *Roster) Rows() [][]string {
	if r == nil {
		return nil
	}
	rows := make([][]string, len(r.Students))
	for i, s := range r.Students {
		row := make([]string, len(s.Fields))
		for j, f := range s.Fields {
			row[j] = f.Value
		}
		rows[i] = row
	}
	return rows
}
