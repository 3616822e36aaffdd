package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"

	"shortscout/internal/config"
	"shortscout/internal/services"
	"shortscout/internal/shorts"
	"shortscout/internal/testsupport"
)

func sampleBatch() Batch {
	return Batch{
		RunID: "3f2b8c1e-0000-4000-8000-000000000001",
		Topic: "Cooking Tips",
		Rows: []shorts.EnrichedRow{
			{
				Candidate: shorts.Candidate{
					ID: "c", Title: "Knife, \"fast\"", ViewCount: "200", Duration: "PT10S",
					URL: shorts.WatchURL("c"),
				},
				Transcript:  "line one\nline two",
				Translation: "строка",
			},
			{Candidate: shorts.Candidate{ID: "a", ViewCount: "abc", Duration: "PT30S"}},
		},
		ExportedAt: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	}
}

func TestSQLiteWriteUpserts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "shorts.db")
	sink, err := OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	defer sink.Close()

	batch := sampleBatch()
	if err := sink.Write(ctx, batch); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	batch.Rows[0].Transcript = "updated"
	if err := sink.Write(ctx, batch); err != nil {
		t.Fatalf("second Write returned error: %v", err)
	}

	var count int
	if err := sink.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM shorts").Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}
	var transcript, url string
	var views int64
	if err := sink.db.QueryRowContext(ctx,
		"SELECT transcript, url, view_count FROM shorts WHERE video_id = ?", "c",
	).Scan(&transcript, &url, &views); err != nil {
		t.Fatalf("select row: %v", err)
	}
	if transcript != "updated" || url != shorts.WatchURL("c") || views != 200 {
		t.Fatalf("unexpected row transcript=%q url=%q views=%d", transcript, url, views)
	}
	if err := sink.db.QueryRowContext(ctx,
		"SELECT url, view_count FROM shorts WHERE video_id = ?", "a",
	).Scan(&url, &views); err != nil {
		t.Fatalf("select row: %v", err)
	}
	if url != shorts.WatchURL("a") || views != 0 {
		t.Fatalf("expected derived url and zero views, got %q %d", url, views)
	}
}

func TestSQLiteReopenKeepsSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shorts.db")
	first, err := OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	if err := first.Write(ctx, sampleBatch()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	_ = first.Close()

	second, err := OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer second.Close()
	if err := second.Ping(ctx); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
}

func TestCSVWriteProducesStandardFile(t *testing.T) {
	dir := t.TempDir()
	sink := NewCSV(dir, nil)
	batch := sampleBatch()
	if err := sink.Write(context.Background(), batch); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	target := sink.FileName(batch)
	if filepath.Base(target) != "cooking_tips-3f2b8c1e.csv" {
		t.Fatalf("unexpected file name %s", target)
	}
	f, err := os.Open(target)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(Header, ",") {
		t.Fatalf("unexpected header %v", records[0])
	}
	if records[1][3] != `Knife, "fast"` || records[1][11] != "line one\nline two" {
		t.Fatalf("fields not preserved: %q", records[1])
	}
	if records[2][7] != "0" {
		t.Fatalf("expected normalized view count, got %q", records[2][7])
	}
}

func TestSheetsWriteAppendsWithHeader(t *testing.T) {
	var appended [][]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-1/values/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"range":"Shorts!A1"}`))
		case http.MethodPost:
			if got := r.URL.Query().Get("valueInputOption"); got != "RAW" {
				t.Errorf("valueInputOption = %q", got)
			}
			var body struct {
				Values [][]any `json:"values"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
			appended = body.Values
			_ = json.NewEncoder(w).Encode(map[string]any{
				"updates": map[string]any{"updatedRows": len(body.Values)},
			})
		}
	}))
	defer server.Close()

	sink, err := OpenSheets(context.Background(), SheetsConfig{
		SpreadsheetID: "sheet-1",
		BaseURL:       server.URL + "/",
	}, nil, option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("OpenSheets returned error: %v", err)
	}
	if err := sink.Write(context.Background(), sampleBatch()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if len(appended) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(appended))
	}
	if appended[0][0] != "run_id" || appended[1][2] != "c" {
		t.Fatalf("unexpected appended values %v", appended)
	}
}

func TestSheetsForbiddenIsConfiguration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"caller lacks permission"}}`))
	}))
	defer server.Close()

	sink, err := OpenSheets(context.Background(), SheetsConfig{SpreadsheetID: "s", BaseURL: server.URL + "/"},
		nil, option.WithoutAuthentication())
	if err != nil {
		t.Fatalf("OpenSheets returned error: %v", err)
	}
	err = sink.Write(context.Background(), sampleBatch())
	if services.KindOf(err) != services.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestOpenSheetsRequiresCredentials(t *testing.T) {
	_, err := OpenSheets(context.Background(), SheetsConfig{
		SpreadsheetID:   "s",
		CredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
	}, nil)
	if services.KindOf(err) != services.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewSelectsSink(t *testing.T) {
	ctx := context.Background()
	cfg := testsupport.NewConfig(t, testsupport.WithSink(config.SinkSQLite))
	sink, err := New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	defer sink.Close()
	if sink.Name() != config.SinkSQLite {
		t.Fatalf("expected sqlite sink, got %s", sink.Name())
	}

	cfg.Export.Sink = config.SinkNone
	none, err := New(ctx, cfg, nil)
	if err != nil || none.Write(ctx, sampleBatch()) != nil {
		t.Fatalf("none sink failed: %v", err)
	}

	cfg.Export.Sink = "parquet"
	if _, err := New(ctx, cfg, nil); services.KindOf(err) != services.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestPostgresWrite(t *testing.T) {
	dsn := os.Getenv("SHORTSCOUT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SHORTSCOUT_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	sink, err := OpenPostgres(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("OpenPostgres returned error: %v", err)
	}
	defer sink.Close()

	batch := sampleBatch()
	batch.RunID = "test-" + time.Now().UTC().Format("20060102150405.000000000")
	if err := sink.Write(ctx, batch); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	n, err := sink.CountRun(ctx, batch.RunID)
	if err != nil {
		t.Fatalf("CountRun returned error: %v", err)
	}
	if n != len(batch.Rows) {
		t.Fatalf("expected %d rows, got %d", len(batch.Rows), n)
	}
}

func TestOpenPostgresWithoutDSNIsConfiguration(t *testing.T) {
	if _, err := OpenPostgres(context.Background(), " ", nil); services.KindOf(err) != services.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
