package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"forum_relay/internal/domain"
	"forum_relay/internal/service/mocks"
	"forum_relay/internal/testutil"
)

type MonitorTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	configs      *mocks.MockConfigStore
	sources      *mocks.MockSourceStore
	items        *mocks.MockItemStore
	translations *mocks.MockTranslationStore
	webhooks     *mocks.MockWebhookStore
	fetcher      *mocks.MockFetcher
	sender       *mocks.MockSender
	txManager    *mocks.MockTransactionManager
	publisher    *mocks.MockPublisher
	translator   *mocks.MockTranslator

	factoryCalls []string
	factoryErr   error

	monitor *Monitor
	now     time.Time
	cfg     *domain.UserConfig
	source  domain.Source
	target  *domain.WebhookTarget
	logger  *slog.Logger
}

func (s *MonitorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.configs = mocks.NewMockConfigStore(s.ctrl)
	s.sources = mocks.NewMockSourceStore(s.ctrl)
	s.items = mocks.NewMockItemStore(s.ctrl)
	s.translations = mocks.NewMockTranslationStore(s.ctrl)
	s.webhooks = mocks.NewMockWebhookStore(s.ctrl)
	s.fetcher = mocks.NewMockFetcher(s.ctrl)
	s.sender = mocks.NewMockSender(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.translator = mocks.NewMockTranslator(s.ctrl)

	s.factoryCalls = nil
	s.factoryErr = nil

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.cfg = &domain.UserConfig{ID: 1, Language: "ko", TranslatorService: "deepl", PollIntervalMinutes: 5}
	s.source = domain.Source{ID: 7, Name: "golang", Kind: domain.SourceKindReddit, Enabled: true}
	s.target = &domain.WebhookTarget{ID: 1, Type: domain.TargetDiscord, URL: "https://discord.com/api/webhooks/1/x", Enabled: true}

	s.translator.EXPECT().Name().Return("deepl").AnyTimes()
	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).AnyTimes()

	s.monitor = s.newMonitor(Config{}, nil)
}

func (s *MonitorTestSuite) newMonitor(cfg Config, publisher Publisher) *Monitor {
	m := NewMonitor(Dependencies{
		Configs:      s.configs,
		Sources:      s.sources,
		Items:        s.items,
		Translations: s.translations,
		Webhooks:     s.webhooks,
		Fetcher:      s.fetcher,
		Sender:       s.sender,
		TxManager:    s.txManager,
		NewTranslator: func(name string) (Translator, error) {
			s.factoryCalls = append(s.factoryCalls, name)
			if s.factoryErr != nil {
				return nil, s.factoryErr
			}
			return s.translator, nil
		},
		Publisher: publisher,
	}, cfg, s.logger)
	m.now = func() time.Time { return s.now }
	return m
}

func (s *MonitorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestMonitorTestSuite(t *testing.T) {
	suite.Run(t, new(MonitorTestSuite))
}

func (s *MonitorTestSuite) fetched(id string, created time.Time) domain.FetchedItem {
	return domain.FetchedItem{
		ID:        id,
		Title:     "Title " + id,
		Body:      testutil.Ptr("Body " + id),
		Author:    "gopher",
		Permalink: "https://www.reddit.com/r/golang/comments/" + id + "/",
		CreatedAt: created,
	}
}

func (s *MonitorTestSuite) expectTranslated(ctx context.Context, f domain.FetchedItem) {
	s.translator.EXPECT().TranslateItem(ctx, f.Title, f.Body, "ko").Return(&domain.ItemTranslation{
		Title:      "제목 " + f.ID,
		Body:       testutil.Ptr("본문 " + f.ID),
		SourceLang: "en",
	}, nil)
}

func (s *MonitorTestSuite) TestCheckSource_NewItemDelivered() {
	ctx := context.Background()
	f := s.fetched("a1", s.now.Add(-time.Minute))

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return([]domain.FetchedItem{f}, nil)
	s.items.EXPECT().Exists(ctx, "a1").Return(false, nil)
	s.items.EXPECT().InsertPending(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, item *domain.Item) (bool, error) {
			s.Equal("a1", item.ID)
			s.Equal(int64(7), item.SourceID)
			s.Equal(domain.ItemStatusPending, item.Status)
			return true, nil
		},
	)
	s.expectTranslated(ctx, f)
	s.webhooks.EXPECT().FirstEnabled(ctx).Return(s.target, nil)
	s.sender.EXPECT().Deliver(ctx, *s.target, domain.Notification{
		SourceName: "golang",
		SourceKind: domain.SourceKindReddit,
		Title:      "제목 a1",
		Body:       "본문 a1",
		Permalink:  f.Permalink,
		Author:     "gopher",
	}).Return(domain.DeliveryResult{Delivered: true, Attempts: 1, StatusCode: 204})
	s.translations.EXPECT().Save(ctx, &domain.Translation{
		ItemID:          "a1",
		SourceLang:      "en",
		TargetLang:      "ko",
		TranslatedTitle: "제목 a1",
		TranslatedBody:  testutil.Ptr("본문 a1"),
	}).Return(nil)
	s.items.EXPECT().MarkSuccess(ctx, "a1", s.now).Return(nil)
	s.sources.EXPECT().AdvanceCheckpoint(ctx, int64(7), s.now).Return(nil)

	stats, err := s.monitor.CheckSource(ctx, s.source)

	s.NoError(err)
	s.Equal(1, stats.Fetched)
	s.Equal(1, stats.Processed)
	s.Equal(0, stats.Failed)
	s.Require().Len(stats.Outcomes, 1)
	s.True(stats.Outcomes[0].Delivered)
	s.Equal(1, stats.Outcomes[0].Attempts)
	s.Equal([]string{"deepl"}, s.factoryCalls)
}

func (s *MonitorTestSuite) TestCheckSource_SkipsExistingItems() {
	ctx := context.Background()
	f := s.fetched("old", s.now.Add(-time.Minute))

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return([]domain.FetchedItem{f}, nil)
	s.items.EXPECT().Exists(ctx, "old").Return(true, nil)
	s.sources.EXPECT().AdvanceCheckpoint(ctx, int64(7), s.now).Return(nil)

	stats, err := s.monitor.CheckSource(ctx, s.source)

	s.NoError(err)
	s.Equal(1, stats.Skipped)
	s.Equal(0, stats.Processed)
	s.Empty(s.factoryCalls)
}

func (s *MonitorTestSuite) TestCheckSource_LostClaimIsSkipped() {
	ctx := context.Background()
	f := s.fetched("race", s.now.Add(-time.Minute))

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return([]domain.FetchedItem{f}, nil)
	s.items.EXPECT().Exists(ctx, "race").Return(false, nil)
	s.items.EXPECT().InsertPending(ctx, gomock.Any()).Return(false, nil)
	s.sources.EXPECT().AdvanceCheckpoint(ctx, int64(7), s.now).Return(nil)

	stats, err := s.monitor.CheckSource(ctx, s.source)

	s.NoError(err)
	s.Equal(1, stats.Skipped)
	s.Empty(stats.Outcomes)
}

func (s *MonitorTestSuite) TestCheckSource_FiltersItemsAtOrBeforeCheckpoint() {
	ctx := context.Background()
	t0 := s.now.Add(-time.Hour)
	s.source.LastCheckedAt = &t0

	a1 := s.fetched("a1", t0.Add(time.Second))
	a2 := s.fetched("a2", t0.Add(-time.Second))
	atT0 := s.fetched("a3", t0)

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, &t0).Return([]domain.FetchedItem{a1, a2, atT0}, nil)
	s.items.EXPECT().Exists(ctx, "a1").Return(false, nil)
	s.items.EXPECT().InsertPending(ctx, gomock.Any()).Return(true, nil)
	s.expectTranslated(ctx, a1)
	s.webhooks.EXPECT().FirstEnabled(ctx).Return(nil, nil)
	s.translations.EXPECT().Save(ctx, gomock.Any()).Return(nil)
	s.items.EXPECT().MarkSuccess(ctx, "a1", s.now).Return(nil)
	s.sources.EXPECT().AdvanceCheckpoint(ctx, int64(7), s.now).Return(nil)

	stats, err := s.monitor.CheckSource(ctx, s.source)

	s.NoError(err)
	s.Equal(1, stats.Fetched)
	s.Equal(1, stats.Processed)
}

func (s *MonitorTestSuite) TestCheckSource_NoWebhookStillSucceeds() {
	ctx := context.Background()
	f := s.fetched("n1", s.now.Add(-time.Minute))

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return([]domain.FetchedItem{f}, nil)
	s.items.EXPECT().Exists(ctx, "n1").Return(false, nil)
	s.items.EXPECT().InsertPending(ctx, gomock.Any()).Return(true, nil)
	s.expectTranslated(ctx, f)
	s.webhooks.EXPECT().FirstEnabled(ctx).Return(nil, nil)
	s.translations.EXPECT().Save(ctx, gomock.Any()).Return(nil)
	s.items.EXPECT().MarkSuccess(ctx, "n1", s.now).Return(nil)
	s.sources.EXPECT().AdvanceCheckpoint(ctx, int64(7), s.now).Return(nil)

	stats, err := s.monitor.CheckSource(ctx, s.source)

	s.NoError(err)
	s.Equal(1, stats.Processed)
	s.Require().Len(stats.Outcomes, 1)
	s.False(stats.Outcomes[0].Delivered)
	s.Zero(stats.Outcomes[0].Attempts)
}

func (s *MonitorTestSuite) TestCheckSource_DeliveryFailureMarksFailed() {
	ctx := context.Background()
	f := s.fetched("d1", s.now.Add(-time.Minute))

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return([]domain.FetchedItem{f}, nil)
	s.items.EXPECT().Exists(ctx, "d1").Return(false, nil)
	s.items.EXPECT().InsertPending(ctx, gomock.Any()).Return(true, nil)
	s.expectTranslated(ctx, f)
	s.webhooks.EXPECT().FirstEnabled(ctx).Return(s.target, nil)
	s.sender.EXPECT().Deliver(ctx, *s.target, gomock.Any()).Return(domain.DeliveryResult{
		Attempts:   3,
		StatusCode: 500,
		Err:        errors.New("unexpected status: 500"),
	})
	s.translations.EXPECT().Save(ctx, gomock.Any()).Return(nil)
	s.items.EXPECT().MarkFailed(ctx, "d1", "Webhook delivery failed", s.now).Return(nil)
	s.sources.EXPECT().AdvanceCheckpoint(ctx, int64(7), s.now).Return(nil)

	stats, err := s.monitor.CheckSource(ctx, s.source)

	s.NoError(err)
	s.Equal(0, stats.Processed)
	s.Equal(1, stats.Failed)
	s.Require().Len(stats.Outcomes, 1)
	s.Equal(domain.ItemStatusFailed, stats.Outcomes[0].Status)
	s.Equal(3, stats.Outcomes[0].Attempts)
	s.Error(stats.Outcomes[0].Err)
}

func (s *MonitorTestSuite) TestCheckSource_TranslatorErrorIsItemLevel() {
	ctx := context.Background()
	b1 := s.fetched("b1", s.now.Add(-2*time.Minute))
	b2 := s.fetched("b2", s.now.Add(-time.Minute))

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return([]domain.FetchedItem{b1, b2}, nil)

	s.items.EXPECT().Exists(ctx, "b1").Return(false, nil)
	s.items.EXPECT().InsertPending(ctx, gomock.Any()).Return(true, nil)
	s.translator.EXPECT().TranslateItem(ctx, b1.Title, b1.Body, "ko").Return(nil, errors.New("quota exceeded"))
	s.items.EXPECT().MarkFailed(ctx, "b1", gomock.Any(), s.now).DoAndReturn(
		func(_ context.Context, _ string, msg string, _ time.Time) error {
			s.Contains(msg, "quota exceeded")
			return nil
		},
	)

	s.items.EXPECT().Exists(ctx, "b2").Return(false, nil)
	s.items.EXPECT().InsertPending(ctx, gomock.Any()).Return(true, nil)
	s.expectTranslated(ctx, b2)
	s.webhooks.EXPECT().FirstEnabled(ctx).Return(nil, nil)
	s.translations.EXPECT().Save(ctx, gomock.Any()).Return(nil)
	s.items.EXPECT().MarkSuccess(ctx, "b2", s.now).Return(nil)

	s.sources.EXPECT().AdvanceCheckpoint(ctx, int64(7), s.now).Return(nil)

	stats, err := s.monitor.CheckSource(ctx, s.source)

	s.NoError(err)
	s.Equal(1, stats.Processed)
	s.Equal(1, stats.Failed)
	s.Equal([]string{"deepl"}, s.factoryCalls)
}

func (s *MonitorTestSuite) TestCheckSource_TranslatorConstructionFailure() {
	ctx := context.Background()
	f := s.fetched("c1", s.now.Add(-time.Minute))
	s.factoryErr = errors.New("configuration error: DeepL API key not found")

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return([]domain.FetchedItem{f}, nil)
	s.items.EXPECT().Exists(ctx, "c1").Return(false, nil)
	s.items.EXPECT().InsertPending(ctx, gomock.Any()).Return(true, nil)
	s.items.EXPECT().MarkFailed(ctx, "c1", gomock.Any(), s.now).Return(nil)
	s.sources.EXPECT().AdvanceCheckpoint(ctx, int64(7), s.now).Return(nil)

	stats, err := s.monitor.CheckSource(ctx, s.source)

	s.NoError(err)
	s.Equal(1, stats.Failed)
}

func (s *MonitorTestSuite) TestCheckSource_TranslatorOverride() {
	ctx := context.Background()
	monitor := s.newMonitor(Config{Translator: "gemini"}, nil)
	f := s.fetched("o1", s.now.Add(-time.Minute))

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return([]domain.FetchedItem{f}, nil)
	s.items.EXPECT().Exists(ctx, "o1").Return(false, nil)
	s.items.EXPECT().InsertPending(ctx, gomock.Any()).Return(true, nil)
	s.expectTranslated(ctx, f)
	s.webhooks.EXPECT().FirstEnabled(ctx).Return(nil, nil)
	s.translations.EXPECT().Save(ctx, gomock.Any()).Return(nil)
	s.items.EXPECT().MarkSuccess(ctx, "o1", s.now).Return(nil)
	s.sources.EXPECT().AdvanceCheckpoint(ctx, int64(7), s.now).Return(nil)

	_, err := monitor.CheckSource(ctx, s.source)

	s.NoError(err)
	s.Equal([]string{"gemini"}, s.factoryCalls)
}

func (s *MonitorTestSuite) TestCheckSource_FetchErrorLeavesCheckpoint() {
	ctx := context.Background()

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return(nil, domain.ErrSourceNotFound)

	stats, err := s.monitor.CheckSource(ctx, s.source)

	s.ErrorIs(err, domain.ErrSourceNotFound)
	s.Equal(0, stats.Processed)
	s.ErrorIs(stats.Err, domain.ErrSourceNotFound)
}

func (s *MonitorTestSuite) TestCheckSource_MissingConfig() {
	ctx := context.Background()

	s.configs.EXPECT().Get(ctx).Return(nil, domain.ErrNotFound)

	_, err := s.monitor.CheckSource(ctx, s.source)

	s.ErrorIs(err, domain.ErrConfig)
}

func (s *MonitorTestSuite) TestCheckSource_DedupeLookupErrorAborts() {
	ctx := context.Background()
	f := s.fetched("e1", s.now.Add(-time.Minute))

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return([]domain.FetchedItem{f}, nil)
	s.items.EXPECT().Exists(ctx, "e1").Return(false, errors.New("database is locked"))

	stats, err := s.monitor.CheckSource(ctx, s.source)

	s.Error(err)
	s.Equal(0, stats.Processed)
}

func (s *MonitorTestSuite) TestCheckSource_CheckpointErrorReportsZero() {
	ctx := context.Background()
	f := s.fetched("k1", s.now.Add(-time.Minute))

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return([]domain.FetchedItem{f}, nil)
	s.items.EXPECT().Exists(ctx, "k1").Return(false, nil)
	s.items.EXPECT().InsertPending(ctx, gomock.Any()).Return(true, nil)
	s.expectTranslated(ctx, f)
	s.webhooks.EXPECT().FirstEnabled(ctx).Return(nil, nil)
	s.translations.EXPECT().Save(ctx, gomock.Any()).Return(nil)
	s.items.EXPECT().MarkSuccess(ctx, "k1", s.now).Return(nil)
	s.sources.EXPECT().AdvanceCheckpoint(ctx, int64(7), s.now).Return(errors.New("disk full"))

	stats, err := s.monitor.CheckSource(ctx, s.source)

	s.Error(err)
	s.Equal(0, stats.Processed)
}

func (s *MonitorTestSuite) TestCheckSource_FinalizeErrorMarksFailed() {
	ctx := context.Background()
	f := s.fetched("f1", s.now.Add(-time.Minute))

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return([]domain.FetchedItem{f}, nil)
	s.items.EXPECT().Exists(ctx, "f1").Return(false, nil)
	s.items.EXPECT().InsertPending(ctx, gomock.Any()).Return(true, nil)
	s.expectTranslated(ctx, f)
	s.webhooks.EXPECT().FirstEnabled(ctx).Return(nil, nil)
	s.translations.EXPECT().Save(ctx, gomock.Any()).Return(errors.New("constraint failed"))
	s.items.EXPECT().MarkFailed(ctx, "f1", gomock.Any(), s.now).Return(nil)
	s.sources.EXPECT().AdvanceCheckpoint(ctx, int64(7), s.now).Return(nil)

	stats, err := s.monitor.CheckSource(ctx, s.source)

	s.NoError(err)
	s.Equal(1, stats.Failed)
}

func (s *MonitorTestSuite) TestCheckSource_PublishesItemEvents() {
	ctx := context.Background()
	monitor := s.newMonitor(Config{}, s.publisher)
	f := s.fetched("p1", s.now.Add(-time.Minute))

	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil)
	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return([]domain.FetchedItem{f}, nil)
	s.items.EXPECT().Exists(ctx, "p1").Return(false, nil)
	s.items.EXPECT().InsertPending(ctx, gomock.Any()).Return(true, nil)
	s.expectTranslated(ctx, f)
	s.webhooks.EXPECT().FirstEnabled(ctx).Return(nil, nil)
	s.translations.EXPECT().Save(ctx, gomock.Any()).Return(nil)
	s.items.EXPECT().MarkSuccess(ctx, "p1", s.now).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, event *domain.ItemEvent) error {
			s.Equal("success", event.Action)
			s.Equal("golang", event.Source)
			s.Equal("p1", event.Item.ID)
			s.Require().NotNil(event.Translation)
			s.Equal("제목 p1", event.Translation.TranslatedTitle)
			return errors.New("broker down")
		},
	)
	s.sources.EXPECT().AdvanceCheckpoint(ctx, int64(7), s.now).Return(nil)

	stats, err := monitor.CheckSource(ctx, s.source)

	s.NoError(err)
	s.Equal(1, stats.Processed)
}

func (s *MonitorTestSuite) TestCheckAllEnabled_IsolatesSourceErrors() {
	ctx := context.Background()
	broken := domain.Source{ID: 8, Name: "private", Kind: domain.SourceKindReddit, Enabled: true}
	f := s.fetched("g1", s.now.Add(-time.Minute))

	s.sources.EXPECT().ListEnabled(ctx).Return([]domain.Source{broken, s.source}, nil)
	s.configs.EXPECT().Get(ctx).Return(s.cfg, nil).Times(2)

	s.fetcher.EXPECT().FetchNew(ctx, broken, DefaultPageSize, nil).Return(nil, errors.New("status 503"))

	s.fetcher.EXPECT().FetchNew(ctx, s.source, DefaultPageSize, nil).Return([]domain.FetchedItem{f}, nil)
	s.items.EXPECT().Exists(ctx, "g1").Return(false, nil)
	s.items.EXPECT().InsertPending(ctx, gomock.Any()).Return(true, nil)
	s.expectTranslated(ctx, f)
	s.webhooks.EXPECT().FirstEnabled(ctx).Return(nil, nil)
	s.translations.EXPECT().Save(ctx, gomock.Any()).Return(nil)
	s.items.EXPECT().MarkSuccess(ctx, "g1", s.now).Return(nil)
	s.sources.EXPECT().AdvanceCheckpoint(ctx, int64(7), s.now).Return(nil)

	stats := s.monitor.CheckAllEnabled(ctx)

	s.Equal(2, stats.TotalChecked)
	s.Equal(1, stats.TotalPosts)
	s.Equal(1, stats.Errors)
	s.Require().Len(stats.Sources, 2)
	s.Error(stats.Sources[0].Err)
	s.NoError(stats.Sources[1].Err)
}

func (s *MonitorTestSuite) TestCheckAllEnabled_NoSources() {
	ctx := context.Background()
	s.sources.EXPECT().ListEnabled(ctx).Return(nil, nil)

	stats := s.monitor.RunOnce(ctx)

	s.Equal(&domain.CycleStats{}, stats)
}

func (s *MonitorTestSuite) TestCheckAllEnabled_ListError() {
	ctx := context.Background()
	s.sources.EXPECT().ListEnabled(ctx).Return(nil, errors.New("no such table"))

	stats := s.monitor.CheckAllEnabled(ctx)

	s.Equal(1, stats.Errors)
	s.Zero(stats.TotalChecked)
}

func (s *MonitorTestSuite) TestRunDaemon_StopsOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())

	s.sources.EXPECT().ListEnabled(gomock.Any()).DoAndReturn(
		func(context.Context) ([]domain.Source, error) {
			cancel()
			return nil, nil
		},
	)

	err := s.monitor.RunDaemon(ctx, time.Hour)

	s.ErrorIs(err, context.Canceled)
}
