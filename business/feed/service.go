package feed

import (
	"context"

	"outfitJourney/business/bandit"
	"outfitJourney/business/eventlog"
	"outfitJourney/business/feedback"
	"outfitJourney/domain"
	"outfitJourney/pkg/logger"
	"outfitJourney/pkg/metrics"
)

type Interactions interface {
	ToggleLike(ctx context.Context, id domain.Identity, outfitID uint64, rawLikeType string, bucket *string) (domain.ToggleResult, error)
	RefreshLastAction(ctx context.Context, id domain.Identity) error
}

type OutfitChecker interface {
	Exists(ctx context.Context, outfitID uint64) (bool, error)
}

type EventLogger interface {
	Append(ctx context.Context, sink eventlog.Sink, rec eventlog.Record) error
	AppendBatch(ctx context.Context, sink eventlog.Sink, recs []eventlog.Record) error
	ViewRecords(id domain.Identity, outfitIDs []uint64, viewType string) []eventlog.Record
	ClickRecord(id domain.Identity, outfitID uint64, clickType string) eventlog.Record
	ShareRecord(id domain.Identity, outfitID uint64) eventlog.Record
}

type Dispatcher interface {
	Dispatch(job feedback.Job) bool
}

// Service is the request-facing feed API. Each operation computes its
// response synchronously and hands session refresh, logging and bandit
// rewards to the dispatcher.
type Service struct {
	assembler    *Assembler
	interactions Interactions
	outfits      OutfitChecker
	bandit       Bandit
	events       EventLogger
	dispatcher   Dispatcher
}

func NewFeedService(
	assembler *Assembler,
	interactions Interactions,
	outfits OutfitChecker,
	banditSvc Bandit,
	events EventLogger,
	dispatcher Dispatcher,
) *Service {
	return &Service{
		assembler:    assembler,
		interactions: interactions,
		outfits:      outfits,
		bandit:       banditSvc,
		events:       events,
		dispatcher:   dispatcher,
	}
}

// GetJourneyFeed serves one journey page, then logs the views and submits
// a zero reward for every shown outfit.
func (s *Service) GetJourneyFeed(
	ctx context.Context,
	id domain.Identity,
	bucket *string,
	modeHint string,
	pageSize, offset int,
) (JourneyPage, error) {

	page, err := s.assembler.BuildJourneyPage(ctx, id, deref(bucket), modeHint, pageSize, offset)
	if err != nil {
		return JourneyPage{}, err
	}

	metrics.JourneyPagesByMode.WithLabelValues(string(page.Mode)).Inc()

	shown := viewIDs(page.Outfits)
	s.dispatch(ctx, id,
		s.refreshEffect(id),
		s.viewLogEffect(id, shown, "journey"),
		s.rewardEffect(ctx, id, bandit.InteractionView, shown...),
	)

	return page, nil
}

func (s *Service) GetCollectionFeed(ctx context.Context, id domain.Identity, pageSize, offset int) (CollectionPage, error) {
	page, err := s.assembler.BuildCollectionPage(ctx, id, pageSize, offset)
	if err != nil {
		return CollectionPage{}, err
	}

	s.dispatch(ctx, id, s.refreshEffect(id))

	return page, nil
}

// GetOutfitDetail serves the outfit and its sampled neighbours; the
// neighbours are logged as "similar" views with zero rewards.
func (s *Service) GetOutfitDetail(ctx context.Context, id domain.Identity, outfitID uint64, nSamples int) (DetailPage, error) {
	page, err := s.assembler.BuildSingleAndSimilar(ctx, id, outfitID, nSamples)
	if err != nil {
		return DetailPage{}, err
	}

	shown := viewIDs(page.Similar)
	s.dispatch(ctx, id,
		s.refreshEffect(id),
		s.viewLogEffect(id, shown, "similar"),
		s.rewardEffect(ctx, id, bandit.InteractionView, shown...),
	)

	return page, nil
}

// ToggleLike commits the toggle before any feedback is dispatched, so the
// reward label always matches the stored state.
func (s *Service) ToggleLike(
	ctx context.Context,
	id domain.Identity,
	outfitID uint64,
	likeType string,
	bucket *string,
) (domain.ToggleResult, error) {

	result, err := s.interactions.ToggleLike(ctx, id, outfitID, likeType, bucket)
	if err != nil {
		return "", err
	}

	interaction := bandit.InteractionLikeClick
	if !result.Liked() {
		interaction = bandit.InteractionLikeCancel
	}

	s.dispatch(ctx, id,
		s.refreshEffect(id),
		s.rewardEffect(ctx, id, interaction, outfitID),
	)

	return result, nil
}

// RecordClick logs the click and rewards the outfit.
func (s *Service) RecordClick(ctx context.Context, id domain.Identity, outfitID uint64, clickType string) error {
	exists, err := s.outfits.Exists(ctx, outfitID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrOutfitNotFound
	}

	rec := s.events.ClickRecord(id, outfitID, clickType)
	s.dispatch(ctx, id,
		s.refreshEffect(id),
		feedback.Effect{Name: "log_click", Run: func(ctx context.Context) error {
			return s.events.Append(ctx, eventlog.SinkClick, rec)
		}},
		s.rewardEffect(ctx, id, bandit.InteractionClick, outfitID),
	)

	return nil
}

// RecordShare only logs; shares carry no reward.
func (s *Service) RecordShare(ctx context.Context, id domain.Identity, outfitID uint64, shareType string) error {
	sink := eventlog.SinkForShare(shareType)
	rec := s.events.ShareRecord(id, outfitID)

	s.dispatch(ctx, id,
		s.refreshEffect(id),
		feedback.Effect{Name: "log_" + string(sink), Run: func(ctx context.Context) error {
			return s.events.Append(ctx, sink, rec)
		}},
	)

	return nil
}

func (s *Service) DebugSelect(ctx context.Context, id domain.Identity, pageSize int) ([]domain.DebugRecommendation, error) {
	return s.assembler.DebugSelect(ctx, id, pageSize)
}

// ---- feedback effects ----

func (s *Service) dispatch(ctx context.Context, id domain.Identity, effects ...feedback.Effect) {
	job := feedback.Job{Key: id.Key()}
	for _, eff := range effects {
		if eff.Run != nil {
			job.Effects = append(job.Effects, eff)
		}
	}

	if !s.dispatcher.Dispatch(job) {
		logger.Warn("feedback not scheduled",
			"trace_id", logger.TraceID(ctx),
			"identity", id.Key(),
		)
	}
}

func (s *Service) refreshEffect(id domain.Identity) feedback.Effect {
	return feedback.Effect{Name: "refresh_session", Run: func(ctx context.Context) error {
		return s.interactions.RefreshLastAction(ctx, id)
	}}
}

func (s *Service) viewLogEffect(id domain.Identity, outfitIDs []uint64, viewType string) feedback.Effect {
	if len(outfitIDs) == 0 {
		return feedback.Effect{}
	}
	recs := s.events.ViewRecords(id, outfitIDs, viewType)
	return feedback.Effect{Name: "log_view", Run: func(ctx context.Context) error {
		return s.events.AppendBatch(ctx, eventlog.SinkView, recs)
	}}
}

// rewardEffect resolves rewards now so the configured like-cancel policy
// applies; the trace id of the request is carried into the update.
func (s *Service) rewardEffect(reqCtx context.Context, id domain.Identity, in bandit.Interaction, outfitIDs ...uint64) feedback.Effect {
	if len(outfitIDs) == 0 {
		return feedback.Effect{}
	}

	rewards, err := s.bandit.Config().RewardsFor(in, outfitIDs...)
	if err != nil {
		logger.Error("invalid reward interaction", "interaction", string(in), err)
		return feedback.Effect{}
	}
	if len(rewards) == 0 {
		return feedback.Effect{}
	}

	traceID := logger.TraceID(reqCtx)
	return feedback.Effect{Name: "bandit_update", Run: func(ctx context.Context) error {
		return s.bandit.Update(logger.ContextWithTraceID(ctx, traceID), id, rewards)
	}}
}

func viewIDs(views []domain.OutfitView) []uint64 {
	out := make([]uint64, 0, len(views))
	for _, v := range views {
		out = append(out, v.OutfitID)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
