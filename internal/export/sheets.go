package export

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"shortscout/internal/config"
	"shortscout/internal/logging"
	"shortscout/internal/services"
)

const defaultSheetsRange = "Shorts!A1"

// SheetsConfig selects the spreadsheet and credentials.
type SheetsConfig struct {
	SpreadsheetID   string
	Range           string
	CredentialsFile string
	// BaseURL replaces the Sheets API endpoint, mainly for tests.
	BaseURL string
}

// Sheets appends rows to a Google Sheets range.
type Sheets struct {
	service       *sheets.Service
	spreadsheetID string
	rangeName     string
	logger        *slog.Logger
}

// OpenSheets authenticates with a service account key file.
func OpenSheets(ctx context.Context, cfg SheetsConfig, logger *slog.Logger, extra ...option.ClientOption) (*Sheets, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "export", "open sheets",
			"export.sheets_spreadsheet_id is required", nil)
	}
	opts := append([]option.ClientOption{}, extra...)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithEndpoint(base))
	}
	if len(extra) == 0 {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "export", "open sheets",
				"read export.sheets_credentials_file", err)
		}
		jwt, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "export", "open sheets",
				"parse service account credentials", err)
		}
		opts = append(opts, option.WithHTTPClient(jwt.Client(ctx)))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "export", "open sheets", "create service", err)
	}
	rangeName := strings.TrimSpace(cfg.Range)
	if rangeName == "" {
		rangeName = defaultSheetsRange
	}
	return &Sheets{
		service:       svc,
		spreadsheetID: cfg.SpreadsheetID,
		rangeName:     rangeName,
		logger:        logging.NewComponentLogger(logger, "export"),
	}, nil
}

// Name implements Sink.
func (s *Sheets) Name() string { return config.SinkSheets }

// Close is a no-op; the HTTP client owns no resources needing release.
func (s *Sheets) Close() error { return nil }

// Write appends the batch, prefixing the header when the range is empty.
func (s *Sheets) Write(ctx context.Context, batch Batch) error {
	if len(batch.Rows) == 0 {
		return nil
	}
	existing, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeName).Context(ctx).Do()
	if err != nil {
		return classifySheets("read range", err)
	}

	values := make([][]any, 0, len(batch.Rows)+1)
	if len(existing.Values) == 0 {
		values = append(values, toCells(Header))
	}
	for _, record := range batch.records() {
		values = append(values, toCells(record))
	}

	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.rangeName, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return classifySheets("append", err)
	}
	updated := 0
	if resp.Updates != nil {
		updated = int(resp.Updates.UpdatedRows)
	}
	s.logger.Debug("rows appended",
		logging.String("spreadsheet_id", s.spreadsheetID),
		logging.Int("updated_rows", updated),
		logging.String(logging.FieldRunID, batch.RunID),
	)
	return nil
}

func toCells(record []string) []any {
	cells := make([]any, len(record))
	for i, v := range record {
		cells[i] = v
	}
	return cells
}

func classifySheets(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return services.Wrap(services.ErrConfiguration, "export", "sheets "+op, apiErr.Message, err)
		}
	}
	return services.Wrap(services.ErrTransient, "export", "sheets "+op, "", err)
}
