package usecase

import (
	"context"
	"fmt"

	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
	"telegram-repo-notifier/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Router maps a platform-specific event-type string to the correct classifier
// and hands the produced intents to the dispatcher. Unrecognized event types
// are logged and ignored; zero intents is a normal outcome, not an error.
type Router struct {
	engine     *Engine
	dispatcher *Dispatcher
	decoders   map[model.Platform]adapter.WebhookDecoder
	log        *zerolog.Logger
}

func NewRouter(engine *Engine, dispatcher *Dispatcher, decoders map[model.Platform]adapter.WebhookDecoder, logger *zerolog.Logger) *Router {
	return &Router{engine: engine, dispatcher: dispatcher, decoders: decoders, log: logger}
}

// HandleEvent processes one inbound webhook delivery start-to-finish. The
// returned error covers decode and classification failures only; notification
// delivery failures are absorbed by the dispatcher.
func (r *Router) HandleEvent(ctx context.Context, platform model.Platform, eventType string, payload []byte) error {
	dec, ok := r.decoders[platform]
	if !ok {
		return fmt.Errorf("no decoder for platform %q", platform)
	}

	ev, err := dec.Decode(eventType, payload)
	if err != nil {
		return fmt.Errorf("decode %s event %q: %w", platform, eventType, err)
	}
	if ev == nil {
		r.log.Warn().Str("platform", string(platform)).Str("event", eventType).Msg("no handler for event")
		return nil
	}

	var intents []NotificationIntent
	switch e := ev.(type) {
	case *model.NoteEvent:
		intents, err = r.engine.ClassifyNote(ctx, repository.NoTx, e)
	case *model.MergeRequestEvent:
		intents, err = r.engine.ClassifyMergeRequest(ctx, repository.NoTx, e)
	case *model.PipelineEvent:
		intents, err = r.engine.ClassifyPipeline(ctx, repository.NoTx, e)
	case *model.IssueEvent:
		intents, err = r.engine.ClassifyIssue(ctx, repository.NoTx, e)
	default:
		return fmt.Errorf("decoder for %s returned unexpected type %T", platform, ev)
	}
	if err != nil {
		return fmt.Errorf("classify %s event %q: %w", platform, eventType, err)
	}

	if len(intents) == 0 {
		r.log.Debug().Str("platform", string(platform)).Str("event", eventType).Msg("no notifications generated")
		return nil
	}

	r.log.Info().Str("platform", string(platform)).Str("event", eventType).Int("notifications", len(intents)).Msg("dispatching notifications")
	r.dispatcher.Dispatch(ctx, repository.NoTx, intents)
	return nil
}
