package feed

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RichieLoco/coinsniper/internal/cache"
	"github.com/RichieLoco/coinsniper/internal/persistence"
)

// errorSource tags audit records written by the ingestion pipeline.
const errorSource = "announcement-feed"

// symbolPattern matches the trailing parenthesized coin symbol in listing
// titles, e.g. "Binance Will List Aerodrome Finance (AERO)".
var symbolPattern = regexp.MustCompile(`\(([A-Z0-9]{2,12})\)`)

// Fetcher is the feed boundary consumed by the ingestor.
type Fetcher interface {
	FetchArticles(ctx context.Context) ([]Article, error)
}

// Ingestor runs one fetch-decode-persist cycle per polling tick. Cycle
// failures are recorded in the error audit store and swallowed so a bad
// cycle can never take down the polling loop.
type Ingestor struct {
	fetcher       Fetcher
	announcements persistence.AnnouncementsRepo
	errorLog      persistence.ErrorsRepo
	seen          cache.Cache
	seenTTL       time.Duration

	// ErrorHook, when set, is invoked once per failed cycle (metrics).
	ErrorHook func()
}

// NewIngestor creates an ingestion pipeline
func NewIngestor(fetcher Fetcher, announcements persistence.AnnouncementsRepo, errorLog persistence.ErrorsRepo, seen cache.Cache, seenTTL time.Duration) *Ingestor {
	return &Ingestor{
		fetcher:       fetcher,
		announcements: announcements,
		errorLog:      errorLog,
		seen:          seen,
		seenTTL:       seenTTL,
	}
}

// RunCycle performs one ingestion cycle and returns the number of
// announcements persisted. It never returns an error: feed and decode
// failures are converted to audit records.
func (i *Ingestor) RunCycle(ctx context.Context) int {
	articles, err := i.fetcher.FetchArticles(ctx)
	if err != nil {
		i.recordFailure(ctx, err)
		return 0
	}

	stored := 0
	for _, article := range articles {
		ann, ok := mapArticle(article)
		if !ok {
			log.Debug().Str("title", article.Title).Msg("Skipping article with no coin symbol")
			continue
		}

		key := seenKey(article)
		if _, dup := i.seen.Get(key); dup {
			continue
		}

		if err := i.announcements.Insert(ctx, ann); err != nil {
			log.Error().Err(err).Str("symbol", ann.Symbol).Msg("Failed to persist announcement")
			continue
		}

		i.seen.Set(key, []byte("1"), i.seenTTL)
		stored++

		log.Info().
			Str("symbol", ann.Symbol).
			Bool("delisting", ann.Delisting).
			Str("title", ann.Title).
			Msg("Announcement ingested")
	}

	return stored
}

// recordFailure persists one audit record for a failed cycle.
func (i *Ingestor) recordFailure(ctx context.Context, err error) {
	if i.ErrorHook != nil {
		i.ErrorHook()
	}

	record := persistence.ErrorRecord{
		Source:     errorSource,
		Message:    err.Error(),
		OccurredAt: time.Now().UTC(),
	}

	var apiErr *ExternalAPIError
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		record.StatusCode = &code
	}

	if insertErr := i.errorLog.Insert(ctx, record); insertErr != nil {
		// Audit write failed too; logging is the only remaining channel.
		log.Error().Err(insertErr).Str("cycle_error", err.Error()).Msg("Failed to persist ingestion error record")
		return
	}

	log.Warn().Err(err).Msg("Ingestion cycle failed, error recorded")
}

// mapArticle converts a raw feed article into a domain announcement.
// Articles whose title carries no recognizable coin symbol are dropped.
func mapArticle(a Article) (persistence.Announcement, bool) {
	symbol := extractSymbol(a.Title)
	if symbol == "" {
		return persistence.Announcement{}, false
	}

	return persistence.Announcement{
		ID:          uuid.New().String(),
		Title:       a.Title,
		Symbol:      symbol,
		AnnouncedAt: time.UnixMilli(a.ReleaseDate).UTC(),
		Delisting:   isDelisting(a.Title),
	}, true
}

func extractSymbol(title string) string {
	m := symbolPattern.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	return m[1]
}

func isDelisting(title string) bool {
	lower := strings.ToLower(title)
	return strings.Contains(lower, "delist") || strings.Contains(lower, "removal")
}

func seenKey(a Article) string {
	return "announcement:seen:" + strconv.FormatInt(a.ID, 10)
}
