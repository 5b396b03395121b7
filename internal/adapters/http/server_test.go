package httpadapter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rollcall/internal/adapters/memory"
	"rollcall/internal/domain"
	"rollcall/internal/hackerrank"
	"rollcall/internal/leetcode"
	"rollcall/internal/roster"
	"rollcall/internal/services/export"
	"rollcall/internal/services/students"
	"rollcall/internal/workers/exportrunner"
)

const testRoster = `Roll Number,Name,Leet code links,Hackerrank profile link
22DS001,Asha Rao,https://leetcode.com/u/asha/,https://www.hackerrank.com/profile/asha_r
22DS002,Vikram,,https://www.hackerrank.com/vik
22DS003,Meera,https://leetcode.com/meera,
`

type badgeTable map[string][]hackerrank.Badge

func (b badgeTable) Badges(_ context.Context, username string) []hackerrank.Badge {
	return b[username]
}

type statsTable map[string]*leetcode.Stats

func (s statsTable) Stats(_ context.Context, username string) *leetcode.Stats {
	return s[username]
}

type fixture struct {
	server  *httptest.Server
	store   *roster.Store
	rosters *memory.Rosters
	jobs    *memory.Jobs
}

func setup(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r, err := roster.Parse(strings.NewReader(testRoster))
	require.NoError(t, err)
	store := roster.NewStore()
	store.Replace(r, "students.csv")

	badges := badgeTable{"asha_r": {{Name: "Problem Solving", Stars: 4}, {Name: "Python", Stars: 2}}}
	stats := statsTable{"asha": {Status: "success", TotalSolved: 120, EasySolved: 70, MediumSolved: 40, HardSolved: 10, Ranking: 150000}}

	studentSvc := students.New(store, badges, stats)
	exporter := export.New(studentSvc, 2, logger)
	jobs := memory.NewJobs()
	rosters := memory.NewRosters()

	srv := New(Deps{
		Students: studentSvc,
		Exporter: exporter,
		Store:    store,
		Rosters:  rosters,
		Jobs:     jobs,
		Processor: exportrunner.FileProcessor{
			Store:    store,
			Exporter: exporter,
			Repo:     jobs,
			Dir:      filepath.Join(t.TempDir(), "exports"),
		},
		UploadMaxBytes: 1 << 20,
		Logger:         logger,
	})
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return &fixture{server: ts, store: store, rosters: rosters, jobs: jobs}
}

func noRedirects() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestIndexAndHealth(t *testing.T) {
	f := setup(t)

	resp, err := http.Get(f.server.URL + "/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	require.Contains(t, body, `action="/student"`)
	require.Contains(t, body, "3 students, roster version 1")

	resp, err = http.Get(f.server.URL + "/healthz")
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"ok","roster_version":1}`, readBody(t, resp))
}

func TestStudentLookup(t *testing.T) {
	f := setup(t)

	resp, err := http.PostForm(f.server.URL+"/student", url.Values{"roll": {" 22ds001 "}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	require.Contains(t, body, "Asha Rao")
	require.Contains(t, body, "<td>120</td>")
	require.Contains(t, body, "Problem Solving")
	require.Contains(t, body, "★★★★")
	require.Contains(t, body, "<th>Total stars</th><td>6</td>")
}

func TestStudentWithoutPlatformData(t *testing.T) {
	f := setup(t)

	resp, err := http.PostForm(f.server.URL+"/student", url.Values{"roll": {"22DS002"}})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	require.Contains(t, body, "No LeetCode data available.")
	require.Contains(t, body, "No HackerRank badges found.")
}

func TestStudentErrors(t *testing.T) {
	f := setup(t)

	resp, err := http.PostForm(f.server.URL+"/student", url.Values{"roll": {"  "}})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Roll number is required.", strings.TrimSpace(readBody(t, resp)))

	resp, err = http.PostForm(f.server.URL+"/student", url.Values{"roll": {"22DS01"}})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := readBody(t, resp)
	require.True(t, strings.HasPrefix(body, "Student not found."))
	require.Contains(t, body, "22DS001")
}

func TestHackerRankBadgesEndpoint(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name string
		link string
		want string
	}{
		{"badges", "https://www.hackerrank.com/profile/asha_r", `{"badges":[{"Badge Name":"Problem Solving","Stars":4},{"Badge Name":"Python","Stars":2}]}`},
		{"no badges", "hackerrank.com/nobody", `{"badges":null}`},
		{"other site", "https://leetcode.com/asha", `{"error":"Invalid URL"}`},
		{"missing", "", `{"error":"Invalid URL"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.PostForm(f.server.URL+"/hackerrank_badges", url.Values{"hackerrank_url": {tt.link}})
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			require.JSONEq(t, tt.want, readBody(t, resp))
		})
	}
}

func multipartUpload(t *testing.T, filename, contents string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	f := setup(t)

	body, contentType := multipartUpload(t, "new.csv", "Roll Number,Name\n23DS010,Ravi\n")
	resp, err := noRedirects().Post(f.server.URL+"/upload", contentType, body)
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/?uploaded=2", resp.Header.Get("Location"))

	snap := f.store.Current()
	require.Equal(t, int64(2), snap.Version)
	require.Equal(t, "new.csv", snap.Source)
	_, ok := snap.Roster.Find("23ds010")
	require.True(t, ok)

	saved, found, err := f.rosters.LatestRoster(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(2), saved.Version)

	resp, err = http.PostForm(f.server.URL+"/student", url.Values{"roll": {"22DS001"}})
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadRejected(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name     string
		filename string
		contents string
	}{
		{"no roll column", "bad.csv", "Name,Email\nRavi,r@example.com\n"},
		{"unsupported", "roster.txt", "Roll Number\n1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartUpload(t, tt.filename, tt.contents)
			resp, err := http.Post(f.server.URL+"/upload", contentType, body)
			require.NoError(t, err)
			require.Contains(t, readBody(t, resp), "Invalid roster")
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp, err := http.Post(f.server.URL+"/upload", "text/plain", strings.NewReader("nope"))
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, int64(1), f.store.Current().Version)
}

func TestBulkFetch(t *testing.T) {
	f := setup(t)

	resp, err := http.Get(f.server.URL + "/bulk_fetch?format=csv")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Content-Disposition"), ".csv")

	records, err := csv.NewReader(strings.NewReader(readBody(t, resp))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	require.Equal(t, export.Header(f.store.Current().Roster.Columns), records[0])
	require.Equal(t, "22DS001", records[1][0])
	require.Equal(t, "120", records[1][5])
	require.Equal(t, "Problem Solving (4★), Python (2★)", records[1][11])
	require.Equal(t, "6", records[1][12])

	resp, err = http.Get(f.server.URL + "/bulk_fetch")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	xlsx, err := excelize.OpenReader(strings.NewReader(readBody(t, resp)))
	require.NoError(t, err)
	defer xlsx.Close()
	rows, err := xlsx.GetRows(xlsx.GetSheetList()[0])
	require.NoError(t, err)
	require.Len(t, rows, 4)

	resp, err = http.Get(f.server.URL + "/bulk_fetch?format=ods")
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportJobInline(t *testing.T) {
	f := setup(t)

	resp, err := http.Post(f.server.URL+"/exports?format=csv&wait=true&timeout=10", "", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var job domain.ExportJob
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &job))
	require.Equal(t, domain.JobCompleted, job.Status)
	require.Equal(t, 1.0, job.Progress)

	resp, err = http.Get(f.server.URL + "/exports/1/download")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "export-1.csv")
	require.True(t, strings.HasPrefix(readBody(t, resp), "Roll Number,Name,"))
}

func TestExportJobQueued(t *testing.T) {
	f := setup(t)

	resp, err := http.Post(f.server.URL+"/exports", "", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.JSONEq(t, `{"id":1}`, readBody(t, resp))

	resp, err = http.Get(f.server.URL + "/exports/1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var job domain.ExportJob
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &job))
	require.Equal(t, domain.JobQueued, job.Status)
	require.Equal(t, domain.FormatXLSX, job.Format)

	resp, err = http.Get(f.server.URL + "/exports/1/download")
	require.NoError(t, err)
	readBody(t, resp)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestExportJobErrors(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"unknown job", http.MethodGet, "/exports/42", http.StatusNotFound},
		{"bad id", http.MethodGet, "/exports/abc", http.StatusBadRequest},
		{"bad format", http.MethodPost, "/exports?format=ods", http.StatusBadRequest},
		{"bad wait", http.MethodPost, "/exports?wait=maybe", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, f.server.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			readBody(t, resp)
			require.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

// stalledProcessor never finishes on its own.
type stalledProcessor struct{}

func (stalledProcessor) Process(ctx context.Context, _ domain.ExportJob) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestExportJobInlineTimeout(t *testing.T) {
	jobs := memory.NewJobs()
	srv := New(Deps{
		Store:     roster.NewStore(),
		Jobs:      jobs,
		Processor: stalledProcessor{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	resp, err := http.Post(ts.URL+"/exports?wait=true&timeout=1", "", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	var job domain.ExportJob
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &job))
	require.Equal(t, int64(1), job.ID)
	require.Equal(t, domain.JobFailed, job.Status)
	require.Contains(t, job.Error, "deadline exceeded")
}
