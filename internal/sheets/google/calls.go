package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	retryAttempts = 3
	retryDelay    = 2 * time.Second
)

// withRetry retries transient Sheets API failures: rate limiting and server
// errors. Everything else fails fast.
func withRetry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) {
				if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500 {
					slog.WarnContext(ctx, "Sheets API transient error, will retry",
						"operation", op, "code", apiErr.Code, "error", err)
					return true
				}
			}
			return false
		}),
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
	)
}

func (c *Client) getValues(ctx context.Context, rng string) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	var resp *gsheet.ValueRange
	err := withRetry(ctx, "get", func() error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (c *Client) updateValues(ctx context.Context, rng string, values [][]any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: values}
	err := withRetry(ctx, "update", func() error {
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (c *Client) appendValues(ctx context.Context, rng string, values [][]any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: values}
	var resp *gsheet.AppendValuesResponse
	err := withRetry(ctx, "append", func() error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("append %s: %w", rng, err)
	}
	if resp != nil && resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

func (c *Client) clearValues(ctx context.Context, rng string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	err := withRetry(ctx, "clear", func() error {
		_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}
