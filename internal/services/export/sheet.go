package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"rollcall/internal/domain"
	"rollcall/internal/hackerrank"
)

const sheetName = "Roster"

var enrichedColumns = []string{
	"LeetCode Username",
	"LeetCode Total Solved",
	"LeetCode Easy",
	"LeetCode Medium",
	"LeetCode Hard",
	"LeetCode Ranking",
	"HackerRank Username",
	"HackerRank Badges",
	"HackerRank Stars",
}

// Header is the roster's own columns followed by the enriched ones.
func Header(columns []string) []string {
	out := make([]string, 0, len(columns)+len(enrichedColumns))
	out = append(out, columns...)
	return append(out, enrichedColumns...)
}

// Row lays out one profile under Header(columns). Absent data is left blank.
func Row(columns []string, prof domain.Profile) []string {
	row := make([]string, 0, len(columns)+len(enrichedColumns))
	for i := range columns {
		value := ""
		if i < len(prof.Student.Fields) {
			value = prof.Student.Fields[i].Value
		}
		row = append(row, value)
	}

	row = append(row, prof.LeetCodeUsername)
	if st := prof.LeetCode; st != nil {
		row = append(row,
			strconv.Itoa(st.TotalSolved),
			strconv.Itoa(st.EasySolved),
			strconv.Itoa(st.MediumSolved),
			strconv.Itoa(st.HardSolved),
			strconv.Itoa(st.Ranking),
		)
	} else {
		row = append(row, "", "", "", "", "")
	}

	row = append(row, prof.HackerRankUsername, FormatBadges(prof.Badges))
	if prof.Badges != nil {
		row = append(row, strconv.Itoa(hackerrank.TotalStars(prof.Badges)))
	} else {
		row = append(row, "")
	}
	return row
}

// FormatBadges renders badges as "Python (3★), Java (1★)".
func FormatBadges(badges []hackerrank.Badge) string {
	parts := make([]string, len(badges))
	for i, b := range badges {
		parts[i] = fmt.Sprintf("%s (%d★)", b.Name, b.Stars)
	}
	return strings.Join(parts, ", ")
}

func WriteCSV(w io.Writer, columns []string, profiles []domain.Profile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(columns)); err != nil {
		return err
	}
	for _, prof := range profiles {
		if err := cw.Write(Row(columns, prof)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, columns []string, profiles []domain.Profile) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}

	writeRow := func(n int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = v
		}
		return sw.SetRow(cell, row)
	}

	if err := writeRow(1, Header(columns)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, prof := range profiles {
		if err := writeRow(i+2, Row(columns, prof)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
