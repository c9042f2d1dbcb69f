package sources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"tubepulse/internal/logging"
	"tubepulse/internal/services"
)

// ChannelResolver turns a channel URL into a channel ID.
type ChannelResolver interface {
	ResolveChannelID(ctx context.Context, rawURL string) (string, error)
}

// ImportReport counts the rows an import kept and skipped.
type ImportReport struct {
	Imported int
	Skipped  int
}

// ImportChannelsCSV reads key,url,label,group rows and resolves each URL to
// a channel ID. Rows with a missing key or URL, or an unresolvable URL, are
// logged and skipped. Only configuration errors and context cancellation
// abort the import.
func ImportChannelsCSV(ctx context.Context, r io.Reader, resolver ChannelResolver, logger *slog.Logger) ([]Channel, ImportReport, error) {
	logger = logging.NewComponentLogger(logger, "sources")
	rows, err := readRows(r)
	if err != nil {
		return nil, ImportReport{}, err
	}

	var (
		channels []Channel
		report   ImportReport
	)
	for i, row := range rows {
		key := row["key"]
		url := row["url"]
		if key == "" || url == "" {
			logger.Warn("skipping channel row with missing key/url",
				logging.Int("row", i+2),
				logging.String(logging.FieldEventType, "sources_row_skipped"))
			report.Skipped++
			continue
		}

		channelID, err := resolver.ResolveChannelID(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, report, ctx.Err()
			}
			if errors.Is(err, services.ErrConfiguration) {
				return nil, report, err
			}
			logging.WarnWithContext(logger, "could not resolve channel", "sources_resolve_failed",
				logging.String("key", key),
				logging.String("url", url),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "use a /channel/UC… or /@handle URL"),
				logging.String(logging.FieldImpact, "channel omitted from channels list"))
			report.Skipped++
			continue
		}

		label := row["label"]
		if label == "" {
			label = key
		}
		channels = append(channels, Channel{Key: key, ChannelID: channelID, Label: label, Group: row["group"]})
		report.Imported++
	}
	return channels, report, nil
}

// ImportKeywordsCSV reads key,label,group,queries rows; queries are split
// on ';'. Rows with a missing key or no queries are skipped.
func ImportKeywordsCSV(r io.Reader, logger *slog.Logger) ([]Keyword, ImportReport, error) {
	logger = logging.NewComponentLogger(logger, "sources")
	rows, err := readRows(r)
	if err != nil {
		return nil, ImportReport{}, err
	}

	var (
		keywords []Keyword
		report   ImportReport
	)
	for i, row := range rows {
		key := row["key"]
		queries := cleanQueries(strings.Split(row["queries"], ";"))
		if key == "" || len(queries) == 0 {
			logger.Warn("skipping keyword row with missing key/queries",
				logging.Int("row", i+2),
				logging.String(logging.FieldEventType, "sources_row_skipped"))
			report.Skipped++
			continue
		}
		label := row["label"]
		if label == "" {
			label = key
		}
		keywords = append(keywords, Keyword{Key: key, Label: label, Group: row["group"], Queries: queries})
		report.Imported++
	}
	return keywords, report, nil
}

// readRows maps each record to its header names, trimming every cell.
func readRows(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
