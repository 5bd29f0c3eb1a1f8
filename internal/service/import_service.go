package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/speed-article-api/internal/apperr"
	"github.com/speed-article-api/internal/config"
	"github.com/speed-article-api/internal/models"
)

// requiredColumns must appear in a CSV import header
var requiredColumns = []string{"title", "authors", "yearofpublication", "claim"}

// importService is the concrete implementation of ImportService
type importService struct {
	articles   *articleService
	maxRecords int
	log        zerolog.Logger
}

// newImportService creates a new ImportService
func newImportService(articles *articleService, cfg config.ImportConfig, log zerolog.Logger) *importService {
	return &importService{
		articles:   articles,
		maxRecords: cfg.MaxRecords,
		log:        log.With().Str("service", "import").Logger(),
	}
}

// ImportArticles reads one article per record and stores each valid one as Pending.
// Records are independent: an invalid line is reported and the import moves on.
func (s *importService) ImportArticles(ctx context.Context, r io.Reader, format string) (*models.BatchResult, error) {
	startTime := time.Now()
	result := &models.BatchResult{Message: "Import completed"}

	s.log.Info().Str("format", format).Msg("Starting articles import")

	var err error
	switch format {
	case "csv":
		err = s.importCSV(ctx, r, result)
	case "ndjson":
		err = s.importNDJSON(ctx, r, result)
	default:
		return nil, apperr.BadRequest("format must be one of: csv, ndjson")
	}
	if err != nil {
		s.log.Error().Err(err).Int("processed", len(result.Results)).Msg("Import aborted")
		return nil, readError(err)
	}
	if len(result.Results) == 0 {
		return nil, apperr.BadRequest("import file contains no articles")
	}

	// Calculate metrics
	duration := time.Since(startTime)
	total := len(result.Results)
	var rowsPerSec float64
	if duration.Seconds() > 0 {
		rowsPerSec = float64(total) / duration.Seconds()
	}

	s.log.Info().
		Int("total", total).
		Int("successful", result.Succeeded).
		Int("failed", result.Failed).
		Float64("error_rate_pct", float64(result.Failed)/float64(total)*100).
		Int64("duration_ms", duration.Milliseconds()).
		Float64("rows_per_sec", rowsPerSec).
		Msg("Import completed")

	return result, nil
}

func (s *importService) importCSV(ctx context.Context, r io.Reader, result *models.BatchResult) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// Read header
	header, err := reader.Read()
	if err == io.EOF {
		return apperr.BadRequest("import file is empty")
	}
	if err != nil {
		return err
	}
	headerMap := make(map[string]int)
	for i, h := range header {
		headerMap[columnKey(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := headerMap[col]; !ok {
			return apperr.BadRequest("CSV header must include title, authors, yearOfPublication and claim")
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			result.Add(models.ItemResult{Line: parseErr.StartLine, Error: fmt.Sprintf("invalid CSV: %v", parseErr.Err)})
			continue
		}
		if err != nil {
			return err
		}

		line, _ := reader.FieldPos(0)
		if s.limitReached(result) {
			return nil
		}
		if err := checkCancelled(ctx, len(result.Results)); err != nil {
			return err
		}

		req, details := articleFromCSV(record, headerMap)
		if len(details) > 0 {
			result.Add(models.ItemResult{Line: line, Error: "validation failed", Details: details})
			continue
		}
		result.Add(s.store(ctx, line, req))
	}
}

func (s *importService) importNDJSON(ctx context.Context, r io.Reader, result *models.BatchResult) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		if s.limitReached(result) {
			return nil
		}
		if err := checkCancelled(ctx, len(result.Results)); err != nil {
			return err
		}

		var req models.CreateArticleRequest
		if err := json.Unmarshal(line, &req); err != nil {
			result.Add(models.ItemResult{Line: lineNum, Error: fmt.Sprintf("invalid JSON: %v", err)})
			continue
		}
		result.Add(s.store(ctx, lineNum, &req))
	}

	return scanner.Err()
}

// store creates one article and turns the outcome into a line-numbered result
func (s *importService) store(ctx context.Context, line int, req *models.CreateArticleRequest) models.ItemResult {
	article, err := s.articles.create(ctx, req)
	if err != nil {
		e := apperr.From(err)
		if e.Kind == apperr.KindInternal {
			s.log.Error().Err(err).Int("line", line).Msg("Import record failed")
		}
		return models.ItemResult{Line: line, Error: e.Message, Details: e.Details}
	}
	return models.ItemResult{ID: article.ID, Line: line, Status: article.Status, Success: true}
}

func (s *importService) limitReached(result *models.BatchResult) bool {
	if len(result.Results) < s.maxRecords {
		return false
	}
	result.Message = fmt.Sprintf("Import stopped after %d records; the remaining lines were not read", s.maxRecords)
	return true
}

// checkCancelled respects context cancellation for long-running imports
func checkCancelled(ctx context.Context, processed int) error {
	if processed%1000 != 0 {
		return nil
	}
	return ctx.Err()
}

// readError classifies a failure to read the upload itself
func readError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.TooLarge("import file exceeds %d bytes", tooLarge.Limit)
	}
	if errors.Is(err, bufio.ErrTooLong) {
		return apperr.BadRequest("import line exceeds 1MB")
	}
	var e *apperr.Error
	if errors.As(err, &e) {
		return e
	}
	return apperr.Internal(err, "failed to read import file")
}

// articleFromCSV maps a record onto a create request; unparsable numbers are reported per field
func articleFromCSV(record []string, headerMap map[string]int) (*models.CreateArticleRequest, []models.ValidationError) {
	var details []models.ValidationError
	intField := func(name, key string) *int {
		raw := getField(record, headerMap, key)
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			details = append(details, models.ValidationError{Field: name, Message: name + " must be an integer", Value: raw})
			return nil
		}
		return &n
	}

	req := &models.CreateArticleRequest{
		Title:             getField(record, headerMap, "title"),
		Authors:           getField(record, headerMap, "authors"),
		Source:            getField(record, headerMap, "source"),
		Pages:             intField("pages", "pages"),
		Volume:            intField("volume", "volume"),
		DOI:               getField(record, headerMap, "doi"),
		Claim:             getField(record, headerMap, "claim"),
		Evidence:          getField(record, headerMap, "evidence"),
		TypeOfResearch:    getField(record, headerMap, "typeofresearch"),
		TypeOfParticipant: getField(record, headerMap, "typeofparticipant"),
		Link:              getField(record, headerMap, "link"),
	}
	if year := intField("yearOfPublication", "yearofpublication"); year != nil {
		req.YearOfPublication = *year
	}
	if raw := getField(record, headerMap, "isevidencepositive"); raw != "" {
		positive, err := strconv.ParseBool(raw)
		if err != nil {
			details = append(details, models.ValidationError{Field: "isEvidencePositive", Message: "isEvidencePositive must be true or false", Value: raw})
		} else {
			req.IsEvidencePositive = &positive
		}
	}
	return req, details
}

// columnKey folds yearOfPublication, year_of_publication and "Year Of Publication" together
func columnKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(h)
}

func getField(record []string, headerMap map[string]int, field string) string {
	if idx, ok := headerMap[field]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
