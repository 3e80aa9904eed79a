package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichieLoco/coinsniper/internal/cache"
	"github.com/RichieLoco/coinsniper/internal/persistence"
)

type stubFetcher struct {
	articles []Article
	err      error
}

func (s *stubFetcher) FetchArticles(ctx context.Context) ([]Article, error) {
	return s.articles, s.err
}

type fakeAnnouncementsRepo struct {
	inserted  []persistence.Announcement
	insertErr error
}

func (f *fakeAnnouncementsRepo) Insert(ctx context.Context, ann persistence.Announcement) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, ann)
	return nil
}

func (f *fakeAnnouncementsRepo) GetByID(ctx context.Context, id string) (*persistence.Announcement, error) {
	return nil, nil
}

func (f *fakeAnnouncementsRepo) ListBySymbol(ctx context.Context, symbol string, limit int) ([]persistence.Announcement, error) {
	return nil, nil
}

type fakeErrorsRepo struct {
	records   []persistence.ErrorRecord
	insertErr error
}

func (f *fakeErrorsRepo) Insert(ctx context.Context, rec persistence.ErrorRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeErrorsRepo) ListRecent(ctx context.Context, limit int) ([]persistence.ErrorRecord, error) {
	return nil, nil
}

func newTestIngestor(fetcher Fetcher, anns *fakeAnnouncementsRepo, errs *fakeErrorsRepo) *Ingestor {
	return NewIngestor(fetcher, anns, errs, cache.New(), time.Minute)
}

func TestRunCycle_PersistsAnnouncements(t *testing.T) {
	fetcher := &stubFetcher{articles: []Article{
		{ID: 1, Title: "Binance Will List Aerodrome Finance (AERO)", ReleaseDate: 1693526400000},
		{ID: 2, Title: "Binance Will Delist OldCoin (OLD)", ReleaseDate: 1693530000000},
	}}
	anns := &fakeAnnouncementsRepo{}
	errs := &fakeErrorsRepo{}

	stored := newTestIngestor(fetcher, anns, errs).RunCycle(context.Background())

	assert.Equal(t, 2, stored)
	require.Len(t, anns.inserted, 2)
	assert.Empty(t, errs.records)

	first := anns.inserted[0]
	assert.Equal(t, "AERO", first.Symbol)
	assert.False(t, first.Delisting)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, time.UnixMilli(1693526400000).UTC(), first.AnnouncedAt)

	assert.Equal(t, "OLD", anns.inserted[1].Symbol)
	assert.True(t, anns.inserted[1].Delisting)
}

func TestRunCycle_FeedFailureBecomesAuditRecord(t *testing.T) {
	fetcher := &stubFetcher{err: &ExternalAPIError{StatusCode: 500, Message: "upstream exploded"}}
	anns := &fakeAnnouncementsRepo{}
	errs := &fakeErrorsRepo{}

	hookCalls := 0
	ingestor := newTestIngestor(fetcher, anns, errs)
	ingestor.ErrorHook = func() { hookCalls++ }

	stored := ingestor.RunCycle(context.Background())

	assert.Equal(t, 0, stored)
	assert.Empty(t, anns.inserted)
	require.Len(t, errs.records, 1)
	assert.Equal(t, 1, hookCalls)

	rec := errs.records[0]
	assert.Equal(t, "announcement-feed", rec.Source)
	require.NotNil(t, rec.StatusCode)
	assert.Equal(t, 500, *rec.StatusCode)
	assert.Contains(t, rec.Message, "upstream exploded")
	assert.False(t, rec.OccurredAt.IsZero())
}

func TestRunCycle_DecodeFailureHasNoStatusCode(t *testing.T) {
	fetcher := &stubFetcher{err: &DecodeError{Err: errors.New("unexpected token")}}
	anns := &fakeAnnouncementsRepo{}
	errs := &fakeErrorsRepo{}

	stored := newTestIngestor(fetcher, anns, errs).RunCycle(context.Background())

	assert.Equal(t, 0, stored)
	require.Len(t, errs.records, 1)
	assert.Nil(t, errs.records[0].StatusCode)
}

func TestRunCycle_AuditWriteFailureIsSwallowed(t *testing.T) {
	fetcher := &stubFetcher{err: &ExternalAPIError{StatusCode: 503, Message: "unavailable"}}
	errs := &fakeErrorsRepo{insertErr: errors.New("audit store down")}

	assert.NotPanics(t, func() {
		stored := newTestIngestor(fetcher, &fakeAnnouncementsRepo{}, errs).RunCycle(context.Background())
		assert.Equal(t, 0, stored)
	})
}

func TestRunCycle_DeduplicatesAcrossCycles(t *testing.T) {
	fetcher := &stubFetcher{articles: []Article{
		{ID: 7, Title: "Binance Will List NewCoin (NEW)", ReleaseDate: 1693526400000},
	}}
	anns := &fakeAnnouncementsRepo{}
	ingestor := newTestIngestor(fetcher, anns, &fakeErrorsRepo{})

	assert.Equal(t, 1, ingestor.RunCycle(context.Background()))
	assert.Equal(t, 0, ingestor.RunCycle(context.Background()))
	assert.Len(t, anns.inserted, 1)
}

func TestRunCycle_SkipsArticlesWithoutSymbol(t *testing.T) {
	fetcher := &stubFetcher{articles: []Article{
		{ID: 9, Title: "Scheduled System Maintenance Notice", ReleaseDate: 1693526400000},
		{ID: 10, Title: "Binance Will List NewCoin (NEW)", ReleaseDate: 1693526400000},
	}}
	anns := &fakeAnnouncementsRepo{}

	stored := newTestIngestor(fetcher, anns, &fakeErrorsRepo{}).RunCycle(context.Background())

	assert.Equal(t, 1, stored)
	require.Len(t, anns.inserted, 1)
	assert.Equal(t, "NEW", anns.inserted[0].Symbol)
}

func TestRunCycle_InsertFailureSkipsDedupMark(t *testing.T) {
	fetcher := &stubFetcher{articles: []Article{
		{ID: 11, Title: "Binance Will List NewCoin (NEW)", ReleaseDate: 1693526400000},
	}}
	anns := &fakeAnnouncementsRepo{insertErr: errors.New("db down")}
	ingestor := newTestIngestor(fetcher, anns, &fakeErrorsRepo{})

	assert.Equal(t, 0, ingestor.RunCycle(context.Background()))

	// A failed insert must not mark the article seen; the next cycle retries.
	anns.insertErr = nil
	assert.Equal(t, 1, ingestor.RunCycle(context.Background()))
}

func TestExtractSymbol(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Binance Will List Aerodrome Finance (AERO)", "AERO"},
		{"Binance Will List Jupiter (JUP) in the Innovation Zone", "JUP"},
		{"Notice of Removal of Margin Pairs", ""},
		{"Lowercase symbol (abc) is not a ticker", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, extractSymbol(tc.title), tc.title)
	}
}
