package sheets

import (
	"context"
	"log/slog"

	"soapbatch/app/config"
	"soapbatch/app/service/batch"

	"github.com/samber/do"
	"github.com/samber/oops"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

type Client struct {
	cfg *config.Config
	srv *gsheets.Service
}

func NewClient(di *do.Injector) (*Client, error) {
	ctx := do.MustInvoke[context.Context](di)
	cfg := do.MustInvoke[*config.Config](di)

	srv, err := gsheets.NewService(ctx, option.WithCredentialsFile(cfg.Sheets.CredentialsFile))
	if err != nil {
		return nil, oops.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		cfg: cfg,
		srv: srv,
	}, nil
}

// AppendRecord appends one finalized batch as a row to the
// configured worksheet.
func (c *Client) AppendRecord(ctx context.Context, rec batch.Record) error {
	valueRange := &gsheets.ValueRange{
		Values: [][]any{rec.Row()},
	}

	_, err := c.srv.Spreadsheets.Values.
		Append(c.cfg.Sheets.SpreadsheetID, c.cfg.Sheets.SheetName, valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return oops.Errorf("failed to append batch row: %w", err)
	}

	slog.Debug("Appended batch row", "batch", rec.Number)

	return nil
}
