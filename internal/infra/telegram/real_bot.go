package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-repo-notifier/internal/application"
	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
)

var _ adapter.ChatTransport = (*RealBotAdapter)(nil)

// RealBotAdapter polls Telegram updates, routes commands and callbacks to the
// facade, and implements the outbound ChatTransport port for the dispatcher.
type RealBotAdapter struct {
	bot           *tgbotapi.BotAPI
	facade        *application.BotFacade
	updateWorkers int
	cancelPolling context.CancelFunc
	log           *zerolog.Logger
}

func NewRealBotAdapter(token string, facade *application.BotFacade, updateWorkers int, logger *zerolog.Logger) (*RealBotAdapter, error) {
	if updateWorkers <= 0 {
		updateWorkers = 5
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &RealBotAdapter{
		bot:           bot,
		facade:        facade,
		updateWorkers: updateWorkers,
		log:           logger,
	}, nil
}

// Send implements adapter.ChatTransport. Messages are HTML-formatted; the
// returned id lets the dispatcher thread follow-ups under this message.
func (r *RealBotAdapter) Send(ctx context.Context, chatID int64, text string, opts adapter.SendOptions) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = opts.DisableLinkPreview
	if opts.ReplyTo != 0 {
		msg.ReplyToMessageID = opts.ReplyTo
	}
	if len(opts.Buttons) > 0 {
		msg.ReplyMarkup = buildKeyboard(opts.Buttons)
	}

	sent, err := r.bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func buildKeyboard(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, kbRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}

// StartPolling consumes the update channel with a small worker pool and
// blocks until the context is canceled.
func (r *RealBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	r.startWorkers(ctx, &wg, updateChan)

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

// startWorkers launches the update worker pool. Workers drain the channel
// until it is closed; the close is the sole termination signal, so no worker
// ever reads a zero-value update from a closed channel.
func (r *RealBotAdapter) startWorkers(ctx context.Context, wg *sync.WaitGroup, updateChan <-chan tgbotapi.Update) {
	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for up := range updateChan {
				if err := r.handleUpdate(ctx, up); err != nil {
					r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
				}
			}
		}(i)
	}
}

func (r *RealBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil || update.Message.From == nil {
		return nil
	}

	tgUser := update.Message.From
	tgID := tgUser.ID
	fields := strings.Fields(update.Message.Text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return nil
	}
	command := strings.TrimSuffix(fields[0], "@"+r.bot.Self.UserName)
	command = strings.SplitN(command, "@", 2)[0]
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	var (
		reply application.Reply
		err   error
	)
	switch command {
	case "/start":
		reply, err = r.facade.HandleStart(ctx, tgID, tgUser.UserName, tgUser.FirstName, tgUser.LastName)
	case "/help":
		reply = r.facade.HandleHelp(ctx)
	case "/status":
		reply, err = r.facade.HandleStatus(ctx, tgID)
	case "/set_gitlab_token":
		reply, err = r.facade.HandleSetToken(ctx, tgID, model.PlatformGitLab, arg)
	case "/set_github_token":
		reply, err = r.facade.HandleSetToken(ctx, tgID, model.PlatformGitHub, arg)
	case "/subscribe":
		reply, err = r.facade.HandleSubscribeStart(ctx, tgID)
	case "/unsubscribe":
		reply, err = r.facade.HandleUnsubscribeMenu(ctx, tgID)
	case "/list_subscriptions":
		reply, err = r.facade.HandleListSubscriptions(ctx, tgID)
	case "/notifications":
		reply, err = r.facade.HandleNotificationSettings(ctx, tgID)
	case "/history":
		limit := 0
		if arg != "" {
			limit, _ = strconv.Atoi(arg)
		}
		reply, err = r.facade.HandleHistory(ctx, tgID, limit)
	default:
		return nil
	}
	if err != nil {
		r.log.Error().Err(err).Str("command", command).Int64("tg_id", tgID).Msg("command failed")
		reply = application.Reply{Text: "Something went wrong. Please try again."}
	}
	return r.sendReply(ctx, tgID, reply)
}

func (r *RealBotAdapter) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	// Acknowledge first so the client stops the loading spinner.
	if _, err := r.bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		r.log.Warn().Err(err).Msg("callback ack failed")
	}
	if cb.From == nil {
		return nil
	}
	tgID := cb.From.ID
	data := cb.Data

	var (
		reply application.Reply
		err   error
	)
	switch {
	case data == "cancel":
		reply, err = r.facade.HandleWizardCancel(ctx, tgID)
	case data == "confirm":
		reply, err = r.facade.HandleWizardConfirm(ctx, tgID)
	case data == "enable_all":
		reply, err = r.facade.HandleSetAllSettings(ctx, tgID, true)
	case data == "disable_all":
		reply, err = r.facade.HandleSetAllSettings(ctx, tgID, false)
	case strings.HasPrefix(data, "platform:"):
		p := model.Platform(strings.TrimPrefix(data, "platform:"))
		reply, err = r.facade.HandleWizardPlatform(ctx, tgID, p)
	case strings.HasPrefix(data, "project:"):
		idx, convErr := strconv.Atoi(strings.TrimPrefix(data, "project:"))
		if convErr != nil {
			return nil
		}
		reply, err = r.facade.HandleWizardProject(ctx, tgID, idx)
	case strings.HasPrefix(data, "page:"):
		page, convErr := strconv.Atoi(strings.TrimPrefix(data, "page:"))
		if convErr != nil {
			return nil
		}
		reply, err = r.facade.HandleWizardPage(ctx, tgID, page)
	case strings.HasPrefix(data, "event:"):
		c := model.EventCategory(strings.TrimPrefix(data, "event:"))
		reply, err = r.facade.HandleWizardToggleCategory(ctx, tgID, c)
	case strings.HasPrefix(data, "toggle:"):
		c := model.SettingsCategory(strings.TrimPrefix(data, "toggle:"))
		reply, err = r.facade.HandleToggleSetting(ctx, tgID, c)
	case strings.HasPrefix(data, "unsub:"):
		reply, err = r.facade.HandleUnsubscribe(ctx, tgID, strings.TrimPrefix(data, "unsub:"))
	case strings.HasPrefix(data, "mr_approve:"):
		reply, err = r.mrAction(ctx, tgID, application.MRActionApprove, strings.TrimPrefix(data, "mr_approve:"))
	case strings.HasPrefix(data, "mr_merge:"):
		reply, err = r.mrAction(ctx, tgID, application.MRActionMerge, strings.TrimPrefix(data, "mr_merge:"))
	case strings.HasPrefix(data, "mr_retry:"):
		reply, err = r.mrAction(ctx, tgID, application.MRActionRetry, strings.TrimPrefix(data, "mr_retry:"))
	default:
		return nil
	}
	if err != nil {
		r.log.Error().Err(err).Str("data", data).Int64("tg_id", tgID).Msg("callback failed")
		reply = application.Reply{Text: "Something went wrong. Please try again."}
	}
	return r.sendReply(ctx, tgID, reply)
}

// mrAction parses "<platform>:<project>:<iid>" callback payloads.
func (r *RealBotAdapter) mrAction(ctx context.Context, tgID int64, action application.MRAction, rest string) (application.Reply, error) {
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return application.Reply{Text: "Malformed action."}, nil
	}
	platform := model.Platform(parts[0])
	iid, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return application.Reply{Text: "Malformed action."}, nil
	}
	return r.facade.HandleMRAction(ctx, tgID, action, platform, parts[1], iid)
}

func (r *RealBotAdapter) sendReply(ctx context.Context, tgID int64, reply application.Reply) error {
	if reply.Text == "" {
		return nil
	}
	msg := tgbotapi.NewMessage(tgID, reply.Text)
	if len(reply.Buttons) > 0 {
		msg.ReplyMarkup = buildKeyboard(reply.Buttons)
	}
	_, err := r.bot.Send(msg)
	return err
}
