package benchmark

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/speed-article-api/internal/auth"
	"github.com/speed-article-api/internal/config"
	"github.com/speed-article-api/internal/mocks"
	"github.com/speed-article-api/internal/models"
	"github.com/speed-article-api/internal/repository"
	"github.com/speed-article-api/internal/service"
	"github.com/speed-article-api/internal/validation"
)

func seededServices(n int) (*service.Services, *mocks.MockArticleRepository) {
	articles := mocks.NewMockArticleRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		articles.Put(&models.Article{
			ID:                fmt.Sprintf("article-%06d", i),
			Title:             fmt.Sprintf("Practice %d", i),
			Authors:           "Bench Author",
			YearOfPublication: 2000 + i%24,
			Claim:             "improves quality",
			Status:            models.AllStatuses[i%len(models.AllStatuses)],
			SubmittedDate:     base.Add(time.Duration(i) * time.Minute),
		})
	}

	repos := &repository.Repositories{Article: articles, Moderator: mocks.NewMockModeratorRepository()}
	tokens := auth.NewTokenManager("bench-secret", "bench", time.Hour)
	return service.NewServices(repos, tokens, config.Default().Import, zerolog.Nop()), articles
}

// BenchmarkExportNDJSON benchmarks streaming export performance
func BenchmarkExportNDJSON(b *testing.B) {
	services, _ := seededServices(1000)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		if err := services.Export.StreamArticles(ctx, w, "ndjson", models.ArticleFilter{}); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(1000*b.N)/b.Elapsed().Seconds(), "rows/sec")
}

// BenchmarkImportNDJSON benchmarks streaming import with validation
func BenchmarkImportNDJSON(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&sb, `{"title":"Practice %d","authors":"Bench Author","yearOfPublication":2020,"claim":"improves quality"}`+"\n", i)
	}
	payload := sb.String()
	ctx := context.Background()

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		services, _ := seededServices(0)
		b.StartTimer()

		result, err := services.Import.ImportArticles(ctx, strings.NewReader(payload), "ndjson")
		if err != nil {
			b.Fatal(err)
		}
		if result.Succeeded != 1000 {
			b.Fatalf("expected 1000 imported, got %d", result.Succeeded)
		}
	}

	b.ReportMetric(float64(1000*b.N)/b.Elapsed().Seconds(), "rows/sec")
}

// BenchmarkRate benchmarks concurrent voting on a single article
func BenchmarkRate(b *testing.B) {
	services, _ := seededServices(1)
	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rating := 4
		req := &models.RateArticleRequest{Rating: &rating}
		for pb.Next() {
			if _, err := services.Article.Rate(ctx, "article-000000", req); err != nil {
				b.Error(err)
			}
		}
	})
}

// BenchmarkValidateArticle benchmarks request validation
func BenchmarkValidateArticle(b *testing.B) {
	v := validation.NewValidator()
	req := &models.CreateArticleRequest{
		Title:             "Pair programming at scale",
		Authors:           "Doe",
		YearOfPublication: 2021,
		DOI:               "10.1145/3368089.3409755",
		Claim:             "pairing reduces defects",
		TypeOfResearch:    "Experiment",
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if errs := v.Struct(req); len(errs) != 0 {
			b.Fatalf("unexpected errors: %+v", errs)
		}
	}
}

// BenchmarkListFiltered benchmarks status and year filtering over the listing path
func BenchmarkListFiltered(b *testing.B) {
	services, _ := seededServices(5000)
	ctx := context.Background()
	filter := models.ArticleFilter{
		Statuses: []models.ArticleStatus{models.StatusDisplayable},
		FromYear: 2010,
		Limit:    50,
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := services.Article.List(ctx, filter); err != nil {
			b.Fatal(err)
		}
	}
}
