package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rollcall/internal/domain"
	"rollcall/internal/hackerrank"
	"rollcall/internal/leetcode"
	"rollcall/internal/roster"
)

type fakeEnricher struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeEnricher) Enrich(ctx context.Context, s roster.Student) domain.Profile {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(time.Millisecond * time.Duration(len(s.Name)%3))

	prof := domain.Profile{Student: s}
	switch s.RollNumber {
	case "22DS001":
		prof.LeetCodeUsername = "asha"
		prof.LeetCode = &leetcode.Stats{TotalSolved: 10, EasySolved: 5, MediumSolved: 4, HardSolved: 1, Ranking: 999}
		prof.HackerRankUsername = "asha_r"
		prof.Badges = []hackerrank.Badge{{Name: "Python", Stars: 3}, {Name: "Java", Stars: 1}}
	case "22DS002":
		prof.HackerRankUsername = "vik"
	}
	return prof
}

func testSnapshot(t *testing.T, n int) *roster.Snapshot {
	t.Helper()
	var b strings.Builder
	b.WriteString("Roll Number,Name,Section\n")
	b.WriteString("22DS001,Asha,A\n22DS002,Vikram,B\n")
	for i := 3; i <= n; i++ {
		fmt.Fprintf(&b, "22DS%03d,Student %d,C\n", 100+i, i)
	}
	r, err := roster.Parse(strings.NewReader(b.String()))
	require.NoError(t, err)
	return &roster.Snapshot{Version: 1, Roster: r}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnrichPreservesOrder(t *testing.T) {
	snap := testSnapshot(t, 40)
	enricher := &fakeEnricher{}
	svc := New(enricher, 4, quietLogger())

	var calls, totals []int
	profiles, err := svc.Enrich(context.Background(), snap.Roster.Students, func(done, total int) {
		calls = append(calls, done)
		totals = append(totals, total)
	})
	require.NoError(t, err)
	require.Len(t, profiles, 40)
	for i, prof := range profiles {
		require.Equal(t, snap.Roster.Students[i].RollNumber, prof.Student.RollNumber)
	}
	require.Len(t, calls, 40)
	require.Equal(t, 40, calls[39])
	require.Equal(t, 40, totals[0])
	require.LessOrEqual(t, enricher.peak.Load(), int32(4))
}

func TestEnrichSequentialByDefault(t *testing.T) {
	snap := testSnapshot(t, 12)
	enricher := &fakeEnricher{}
	svc := New(enricher, 0, quietLogger())

	_, err := svc.Enrich(context.Background(), snap.Roster.Students, nil)
	require.NoError(t, err)
	require.Equal(t, int32(1), enricher.peak.Load())
}

func TestEnrichCancelled(t *testing.T) {
	snap := testSnapshot(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&fakeEnricher{}, 2, quietLogger()).Enrich(ctx, snap.Roster.Students, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestExportCSV(t *testing.T) {
	snap := testSnapshot(t, 2)
	svc := New(&fakeEnricher{}, 1, quietLogger())

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), snap, domain.FormatCSV, &buf, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, Header([]string{"Roll Number", "Name", "Section"}), records[0])
	require.Equal(t, []string{
		"22DS001", "Asha", "A",
		"asha", "10", "5", "4", "1", "999",
		"asha_r", "Python (3★), Java (1★)", "4",
	}, records[1])
	require.Equal(t, []string{
		"22DS002", "Vikram", "B",
		"", "", "", "", "", "",
		"vik", "", "",
	}, records[2])
}

func TestExportXLSX(t *testing.T) {
	snap := testSnapshot(t, 2)
	svc := New(&fakeEnricher{}, 2, quietLogger())

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), snap, domain.FormatXLSX, &buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "HackerRank Stars", rows[0][len(rows[0])-1])
	require.Equal(t, "22DS001", rows[1][0])
	require.Equal(t, "Python (3★), Java (1★)", rows[1][10])
}

func TestExportUnknownFormat(t *testing.T) {
	snap := testSnapshot(t, 2)
	err := New(&fakeEnricher{}, 1, quietLogger()).Export(context.Background(), snap, "ods", io.Discard, nil)
	require.ErrorIs(t, err, domain.ErrUnknownFormat)
}
