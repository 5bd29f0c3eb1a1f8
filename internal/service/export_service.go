package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/speed-article-api/internal/apperr"
	"github.com/speed-article-api/internal/models"
	"github.com/speed-article-api/internal/repository"
)

// ExportFormats lists the accepted export formats
var ExportFormats = map[string]bool{
	"ndjson": true,
	"json":   true,
	"csv":    true,
}

var csvHeader = []string{
	"_id", "title", "authors", "source", "yearOfPublication", "pages", "volume", "doi", "claim",
	"evidence", "isEvidencePositive", "typeOfResearch", "typeOfParticipant", "link", "status",
	"reasonForRejection", "submittedDate", "approvedDate", "ratingCounter", "totalRating", "averageRating",
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	articles repository.ArticleRepository
	log      zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(articles repository.ArticleRepository, log zerolog.Logger) *exportService {
	return &exportService{
		articles: articles,
		log:      log.With().Str("service", "export").Logger(),
	}
}

// StreamArticles streams articles in the specified format
func (s *exportService) StreamArticles(ctx context.Context, w http.ResponseWriter, format string, filter models.ArticleFilter) error {
	if !ExportFormats[format] {
		return apperr.BadRequest("format must be one of: ndjson, json, csv")
	}

	s.log.Info().Str("format", format).Msg("Starting articles export")

	var (
		count int
		err   error
	)
	switch format {
	case "ndjson":
		count, err = s.streamNDJSON(ctx, w, filter)
	case "json":
		count, err = s.streamJSON(ctx, w, filter)
	case "csv":
		count, err = s.streamCSV(ctx, w, filter)
	}

	s.log.Info().Int("count", count).Str("format", format).Msg("Articles export completed")
	return err
}

// download sets the attachment headers right before the first byte is written,
// so a query that fails up front can still be answered with a JSON error
type download struct {
	w           http.ResponseWriter
	contentType string
	filename    string
	started     bool
}

func (d *download) start() {
	if d.started {
		return
	}
	d.started = true
	d.w.Header().Set("Content-Type", d.contentType)
	d.w.Header().Set("Content-Disposition", "attachment; filename="+d.filename)
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter, filter models.ArticleFilter) (int, error) {
	d := &download{w: w, contentType: "application/x-ndjson", filename: "articles.ndjson"}
	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.articles.StreamAll(ctx, filter, func(article *models.Article) error {
		data, err := json.Marshal(article)
		if err != nil {
			return err
		}
		d.start()
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
		count++

		// Flush every 100 records for streaming
		if count%100 == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err == nil {
		d.start()
	}
	return count, err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter, filter models.ArticleFilter) (int, error) {
	d := &download{w: w, contentType: "application/json", filename: "articles.json"}
	count := 0

	err := s.articles.StreamAll(ctx, filter, func(article *models.Article) error {
		data, err := json.Marshal(article)
		if err != nil {
			return err
		}
		if count == 0 {
			d.start()
			w.Write([]byte("["))
		} else {
			w.Write([]byte(","))
		}
		count++
		_, err = w.Write(data)
		return err
	})
	if err != nil {
		// A truncated array is left unclosed
		return count, err
	}

	if count == 0 {
		d.start()
		w.Write([]byte("["))
	}
	w.Write([]byte("]"))
	return count, nil
}

func (s *exportService) streamCSV(ctx context.Context, w http.ResponseWriter, filter models.ArticleFilter) (int, error) {
	d := &download{w: w, contentType: "text/csv", filename: "articles.csv"}
	writer := csv.NewWriter(w)
	writeHeader := func() error {
		if d.started {
			return nil
		}
		d.start()
		return writer.Write(csvHeader)
	}

	count := 0
	err := s.articles.StreamAll(ctx, filter, func(a *models.Article) error {
		if err := writeHeader(); err != nil {
			return err
		}
		count++
		return writer.Write(csvRecord(a))
	})
	if err == nil {
		err = writeHeader()
	}
	if d.started {
		writer.Flush()
		if err == nil {
			err = writer.Error()
		}
	}
	return count, err
}

func csvRecord(a *models.Article) []string {
	approved := ""
	if a.ApprovedDate != nil {
		approved = a.ApprovedDate.UTC().Format(time.RFC3339)
	}
	research, participant, positive := "", "", ""
	if a.TypeOfResearch != nil {
		research = string(*a.TypeOfResearch)
	}
	if a.TypeOfParticipant != nil {
		participant = string(*a.TypeOfParticipant)
	}
	if a.IsEvidencePositive != nil {
		positive = strconv.FormatBool(*a.IsEvidencePositive)
	}

	return []string{
		a.ID,
		a.Title,
		a.Authors,
		a.Source,
		strconv.Itoa(a.YearOfPublication),
		intString(a.Pages),
		intString(a.Volume),
		deref(a.DOI),
		a.Claim,
		deref(a.Evidence),
		positive,
		research,
		participant,
		deref(a.Link),
		string(a.Status),
		deref(a.ReasonForRejection),
		a.SubmittedDate.UTC().Format(time.RFC3339),
		approved,
		strconv.Itoa(a.RatingCounter),
		strconv.Itoa(a.TotalRating),
		fmt.Sprintf("%.2f", a.AverageRating),
	}
}

func intString(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
