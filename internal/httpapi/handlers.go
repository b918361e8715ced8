package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/collate/internal/db"
	"horse.fit/collate/internal/record"
	cleanschema "horse.fit/collate/schema"
)

const defaultBatchListLimit = 50

type cleanResponseRecord struct {
	RawText     string `json:"raw_text"`
	CleanedText string `json:"cleaned_text"`
}

type batchRecordItem struct {
	Position    int    `json:"position"`
	RawText     string `json:"raw_text"`
	CleanedText string `json:"cleaned_text"`
}

func (s *Server) handleHealth(c echo.Context) error {
	data := map[string]any{
		"status":  "ok",
		"service": "collate",
	}

	if s.store != nil {
		if err := s.store.Ping(c.Request().Context()); err != nil {
			s.logger.Error().Err(err).Msg("health database ping failed")
			return fail(c, http.StatusServiceUnavailable, "Database ping failed", nil)
		}
		data["database"] = "ok"
	}

	return success(c, data)
}

func (s *Server) handleClean(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return failValidation(c, map[string]string{"body": "could not be read"})
	}

	request, err := cleanschema.ValidateCleanRequest(body, s.opts.MaxRecords)
	if err != nil {
		if errors.Is(err, cleanschema.ErrTooManyRecords) {
			return fail(c, http.StatusRequestEntityTooLarge, err.Error(), nil)
		}
		return fail(c, http.StatusUnprocessableEntity, "Payload validation failed", map[string]any{
			"detail": err.Error(),
		})
	}

	texts := make([]string, 0, len(request.Records))
	for _, item := range request.Records {
		texts = append(texts, item.RawText)
	}
	records := record.FromTexts(texts)

	outcome, err := s.service.Clean(c.Request().Context(), records)
	if err != nil {
		s.logger.Error().Err(err).Int("records", len(records)).Msg("clean request failed")
		return internalError(c, "Failed to clean records")
	}

	items := make([]cleanResponseRecord, 0, len(records))
	for i := range records {
		items = append(items, cleanResponseRecord{
			RawText:     records[i].RawText,
			CleanedText: records[i].CleanedText,
		})
	}

	return success(c, map[string]any{
		"records":              items,
		"clusters":             outcome.Clusters,
		"duplicates_collapsed": outcome.DuplicatesCollapsed,
		"empty_key_records":    outcome.EmptyKeyRecords,
		"stem_fallbacks":       outcome.StemFallbacks,
	})
}

func (s *Server) handleBatches(c echo.Context) error {
	if s.store == nil {
		return fail(c, http.StatusServiceUnavailable, "Database is not configured", nil)
	}

	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultBatchListLimit, 1, 500)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	batches, err := s.store.ListBatches(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("query batches failed")
		return internalError(c, "Failed to load batches")
	}

	return success(c, map[string]any{
		"items": batches,
		"limit": limit,
	})
}

func (s *Server) handleBatchRecords(c echo.Context) error {
	if s.store == nil {
		return fail(c, http.StatusServiceUnavailable, "Database is not configured", nil)
	}

	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		return failValidation(c, map[string]string{"name": "is required"})
	}

	batch, err := s.store.GetBatchByName(c.Request().Context(), name)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "Batch not found")
		}
		s.logger.Error().Err(err).Str("batch", name).Msg("query batch failed")
		return internalError(c, "Failed to load batch")
	}

	records, err := s.store.LoadBatchRecords(c.Request().Context(), name)
	if err != nil {
		s.logger.Error().Err(err).Str("batch", name).Msg("query batch records failed")
		return internalError(c, "Failed to load batch records")
	}

	items := make([]batchRecordItem, 0, len(records))
	for i := range records {
		items = append(items, batchRecordItem{
			Position:    records[i].Position,
			RawText:     records[i].RawText,
			CleanedText: records[i].CleanedText,
		})
	}

	return success(c, map[string]any{
		"batch":   batch,
		"records": items,
	})
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}
