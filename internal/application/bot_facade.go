package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"telegram-repo-notifier/internal/domain"
	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
	"telegram-repo-notifier/internal/domain/ports/repository"
	"telegram-repo-notifier/internal/usecase"
)

const projectsPerPage = 8

// Reply is what a bot command hands back to the Telegram adapter: text plus
// an optional inline keyboard.
type Reply struct {
	Text    string
	Buttons [][]adapter.InlineButton
}

func textReply(format string, args ...interface{}) Reply {
	return Reply{Text: fmt.Sprintf(format, args...)}
}

// BotFacade composes usecases into high-level bot commands. The Telegram
// adapter parses updates and forwards them here; this layer owns the
// subscribe-wizard state machine and all reply texts.
type BotFacade struct {
	UserUC     usecase.UserUseCase
	SubUC      usecase.SubscriptionUseCase
	SettingsUC usecase.SettingsUseCase
	HistoryUC  usecase.HistoryUseCase
	ActionsUC  usecase.ActionsUseCase

	states repository.StateRepository
}

func NewBotFacade(
	userUC usecase.UserUseCase,
	subUC usecase.SubscriptionUseCase,
	settingsUC usecase.SettingsUseCase,
	historyUC usecase.HistoryUseCase,
	actionsUC usecase.ActionsUseCase,
	states repository.StateRepository,
) *BotFacade {
	return &BotFacade{
		UserUC:     userUC,
		SubUC:      subUC,
		SettingsUC: settingsUC,
		HistoryUC:  historyUC,
		ActionsUC:  actionsUC,
		states:     states,
	}
}

// HandleStart registers or fetches the user and returns the welcome text.
func (b *BotFacade) HandleStart(ctx context.Context, tgID int64, username, firstName, lastName string) (Reply, error) {
	u, err := b.UserUC.RegisterOrFetch(ctx, tgID, username, firstName, lastName)
	if err != nil {
		return Reply{}, fmt.Errorf("register/fetch user: %w", err)
	}

	name := u.FirstName
	if name == "" {
		name = u.Username
	}
	return textReply(
		"Hello %s!\n\n"+
			"I deliver GitLab and GitHub notifications that matter to you: "+
			"mentions, review requests, merges, pipelines and issues.\n\n"+
			"Link a token first:\n"+
			"/set_gitlab_token <token>\n"+
			"/set_github_token <token>\n\n"+
			"Then /subscribe to pick a project. /help shows everything.", name), nil
}

func (b *BotFacade) HandleHelp(ctx context.Context) Reply {
	return Reply{Text: strings.Join([]string{
		"Commands:",
		"/start - register and show intro",
		"/status - linked accounts and subscription count",
		"/set_gitlab_token <token> - link your GitLab personal access token",
		"/set_github_token <token> - link your GitHub personal access token",
		"/subscribe - pick a project to watch",
		"/list_subscriptions - what you are watching",
		"/unsubscribe - stop watching a project",
		"/notifications - per-category notification toggles",
		"/history - last notifications sent to you",
	}, "\n")}
}

// HandleStatus reports linked platform accounts and subscription count.
func (b *BotFacade) HandleStatus(ctx context.Context, tgID int64) (Reply, error) {
	u, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return textReply("You are not registered yet. Send /start first."), nil
		}
		return Reply{}, err
	}

	subs, err := b.SubUC.List(ctx, u.ID)
	if err != nil {
		return Reply{}, err
	}

	var sb strings.Builder
	sb.WriteString("Your status:\n\n")
	sb.WriteString("GitLab: " + linkedLabel(u.GitLabUsername) + "\n")
	sb.WriteString("GitHub: " + linkedLabel(u.GitHubUsername) + "\n")
	fmt.Fprintf(&sb, "\nActive subscriptions: %d", len(subs))
	return Reply{Text: sb.String()}, nil
}

func linkedLabel(username string) string {
	if username == "" {
		return "not linked"
	}
	return "@" + username
}

// HandleSetToken validates and stores a platform access token.
func (b *BotFacade) HandleSetToken(ctx context.Context, tgID int64, platform model.Platform, token string) (Reply, error) {
	if strings.TrimSpace(token) == "" {
		return textReply("Usage: /set_%s_token <token>", platform), nil
	}
	username, err := b.UserUC.LinkPlatformToken(ctx, tgID, platform, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return textReply("You are not registered yet. Send /start first."), nil
		}
		return textReply("Could not verify the token with %s. Check it and try again.", platform), nil
	}
	return textReply("Token linked. You are @%s on %s.", username, platform), nil
}

//
// ---- subscribe wizard ----
//

// HandleSubscribeStart begins the wizard at platform selection.
func (b *BotFacade) HandleSubscribeStart(ctx context.Context, tgID int64) (Reply, error) {
	u, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return textReply("You are not registered yet. Send /start first."), nil
	}
	if u.GitLabToken == "" && u.GitHubToken == "" {
		return textReply("Link a token first: /set_gitlab_token or /set_github_token."), nil
	}

	state := &repository.WizardState{Step: repository.StepChoosingPlatform}
	if err := b.states.SetState(ctx, tgID, state); err != nil {
		return Reply{}, err
	}

	var row []adapter.InlineButton
	if u.GitLabToken != "" {
		row = append(row, adapter.InlineButton{Text: "GitLab", Data: "platform:gitlab"})
	}
	if u.GitHubToken != "" {
		row = append(row, adapter.InlineButton{Text: "GitHub", Data: "platform:github"})
	}
	return Reply{
		Text:    "Which platform?",
		Buttons: [][]adapter.InlineButton{row, {cancelButton()}},
	}, nil
}

// HandleWizardPlatform records the platform choice and shows the first
// project page.
func (b *BotFacade) HandleWizardPlatform(ctx context.Context, tgID int64, platform model.Platform) (Reply, error) {
	state, reply, err := b.wizardState(ctx, tgID, repository.StepChoosingPlatform)
	if state == nil {
		return reply, err
	}

	u, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return Reply{}, err
	}

	projects, err := b.SubUC.ListProjects(ctx, u, platform)
	if err != nil {
		if errors.Is(err, domain.ErrNoPlatformToken) {
			return textReply("No %s token linked. Use /set_%s_token first.", platform, platform), nil
		}
		return textReply("Could not list your %s projects. Try again later.", platform), nil
	}
	if len(projects) == 0 {
		_ = b.states.ClearState(ctx, tgID)
		return textReply("No projects found for your %s account.", platform), nil
	}

	state.Step = repository.StepChoosingProject
	state.Platform = platform
	state.Page = 0
	state.Projects = make([]repository.ProjectOption, len(projects))
	for i, p := range projects {
		state.Projects[i] = repository.ProjectOption{ID: p.ID, Name: p.Name}
	}
	if err := b.states.SetState(ctx, tgID, state); err != nil {
		return Reply{}, err
	}
	return projectPageReply(state), nil
}

// HandleWizardPage flips the project keyboard to another page.
func (b *BotFacade) HandleWizardPage(ctx context.Context, tgID int64, page int) (Reply, error) {
	state, reply, err := b.wizardState(ctx, tgID, repository.StepChoosingProject)
	if state == nil {
		return reply, err
	}

	maxPage := (len(state.Projects) - 1) / projectsPerPage
	if page < 0 || page > maxPage {
		page = 0
	}
	state.Page = page
	if err := b.states.SetState(ctx, tgID, state); err != nil {
		return Reply{}, err
	}
	return projectPageReply(state), nil
}

// HandleWizardProject records the chosen project (by index into the stored
// option list) and shows the category picker.
func (b *BotFacade) HandleWizardProject(ctx context.Context, tgID int64, index int) (Reply, error) {
	state, reply, err := b.wizardState(ctx, tgID, repository.StepChoosingProject)
	if state == nil {
		return reply, err
	}
	if index < 0 || index >= len(state.Projects) {
		return textReply("That project is no longer on the list. Run /subscribe again."), nil
	}

	chosen := state.Projects[index]
	state.Step = repository.StepChoosingEvents
	state.ProjectID = chosen.ID
	state.ProjectName = chosen.Name
	state.Categories = model.CategoriesFor(state.Platform)
	state.Projects = nil
	if err := b.states.SetState(ctx, tgID, state); err != nil {
		return Reply{}, err
	}
	return categoryPickerReply(state), nil
}

// HandleWizardToggleCategory flips one event category in the pending
// selection.
func (b *BotFacade) HandleWizardToggleCategory(ctx context.Context, tgID int64, category model.EventCategory) (Reply, error) {
	state, reply, err := b.wizardState(ctx, tgID, repository.StepChoosingEvents)
	if state == nil {
		return reply, err
	}

	found := -1
	for i, c := range state.Categories {
		if c == category {
			found = i
			break
		}
	}
	if found >= 0 {
		state.Categories = append(state.Categories[:found], state.Categories[found+1:]...)
	} else {
		state.Categories = append(state.Categories, category)
	}
	if err := b.states.SetState(ctx, tgID, state); err != nil {
		return Reply{}, err
	}
	return categoryPickerReply(state), nil
}

// HandleWizardConfirm creates the subscription and provisions the webhook.
func (b *BotFacade) HandleWizardConfirm(ctx context.Context, tgID int64) (Reply, error) {
	state, reply, err := b.wizardState(ctx, tgID, repository.StepChoosingEvents)
	if state == nil {
		return reply, err
	}
	if len(state.Categories) == 0 {
		return textReply("Pick at least one event category first."), nil
	}

	u, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return Reply{}, err
	}

	state.Step = repository.StepConfirming
	_ = b.states.SetState(ctx, tgID, state)

	sub, err := b.SubUC.Subscribe(ctx, u, state.Platform, state.ProjectID, state.ProjectName, state.Categories)
	if err != nil {
		return textReply("Could not subscribe to %s. Try again later.", state.ProjectName), nil
	}
	_ = b.states.ClearState(ctx, tgID)

	hookNote := ""
	if sub.WebhookID == "" {
		hookNote = "\n\nNote: I could not install a webhook on the project. " +
			"Ask a maintainer to add one pointing at the bot, or re-subscribe once you have access."
	}
	return textReply("Subscribed to %s (%s).\nEvents: %s%s",
		sub.ProjectName, sub.Platform, joinCategories(sub.Categories), hookNote), nil
}

// HandleWizardCancel drops any in-flight wizard state.
func (b *BotFacade) HandleWizardCancel(ctx context.Context, tgID int64) (Reply, error) {
	_ = b.states.ClearState(ctx, tgID)
	return textReply("Canceled."), nil
}

// wizardState loads the wizard state and validates the expected step. When
// the returned state is nil, the Reply explains what went wrong.
func (b *BotFacade) wizardState(ctx context.Context, tgID int64, want repository.WizardStep) (*repository.WizardState, Reply, error) {
	state, err := b.states.GetState(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrWizardStateExpired) {
			return nil, textReply("This menu has expired. Run /subscribe again."), nil
		}
		return nil, Reply{}, err
	}
	if state.Step != want {
		return nil, textReply("That button is out of date. Run /subscribe again."), nil
	}
	return state, Reply{}, nil
}

//
// ---- subscriptions ----
//

func (b *BotFacade) HandleListSubscriptions(ctx context.Context, tgID int64) (Reply, error) {
	u, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return textReply("You are not registered yet. Send /start first."), nil
	}
	subs, err := b.SubUC.List(ctx, u.ID)
	if err != nil {
		return Reply{}, err
	}
	if len(subs) == 0 {
		return textReply("You are not watching any projects. Use /subscribe."), nil
	}

	var sb strings.Builder
	sb.WriteString("Your subscriptions:\n")
	for i, s := range subs {
		fmt.Fprintf(&sb, "%d. [%s] %s - %s\n", i+1, s.Platform, s.ProjectName, joinCategories(s.Categories))
	}
	return Reply{Text: sb.String()}, nil
}

// HandleUnsubscribeMenu shows one button per subscription.
func (b *BotFacade) HandleUnsubscribeMenu(ctx context.Context, tgID int64) (Reply, error) {
	u, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return textReply("You are not registered yet. Send /start first."), nil
	}
	subs, err := b.SubUC.List(ctx, u.ID)
	if err != nil {
		return Reply{}, err
	}
	if len(subs) == 0 {
		return textReply("Nothing to unsubscribe from."), nil
	}

	rows := make([][]adapter.InlineButton, 0, len(subs)+1)
	for _, s := range subs {
		rows = append(rows, []adapter.InlineButton{{
			Text: fmt.Sprintf("[%s] %s", s.Platform, s.ProjectName),
			Data: "unsub:" + s.ID,
		}})
	}
	rows = append(rows, []adapter.InlineButton{cancelButton()})
	return Reply{Text: "Which project should I stop watching?", Buttons: rows}, nil
}

func (b *BotFacade) HandleUnsubscribe(ctx context.Context, tgID int64, subscriptionID string) (Reply, error) {
	u, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return textReply("You are not registered yet. Send /start first."), nil
	}
	if err := b.SubUC.Unsubscribe(ctx, u, subscriptionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return textReply("That subscription is already gone."), nil
		}
		return Reply{}, err
	}
	return textReply("Unsubscribed."), nil
}

//
// ---- notification settings ----
//

func settingLabel(c model.SettingsCategory) string {
	switch c {
	case model.SettingMentions:
		return "Mentions"
	case model.SettingGeneralUpdates:
		return "General updates"
	case model.SettingReviewerAssignment:
		return "Review requests"
	case model.SettingMerge:
		return "Merges"
	case model.SettingPipelineCompletion:
		return "Pipeline results"
	case model.SettingIssueAssignment:
		return "Issue assignment"
	case model.SettingLabelChanges:
		return "Label changes"
	case model.SettingThreadUpdates:
		return "Replies in your threads"
	}
	return string(c)
}

func settingsKeyboard(s *model.NotificationSettings) [][]adapter.InlineButton {
	rows := make([][]adapter.InlineButton, 0, len(model.AllSettingsCategories)+1)
	for _, c := range model.AllSettingsCategories {
		mark := "🔕"
		if s.Enabled(c) {
			mark = "🔔"
		}
		rows = append(rows, []adapter.InlineButton{{
			Text: mark + " " + settingLabel(c),
			Data: "toggle:" + string(c),
		}})
	}
	rows = append(rows, []adapter.InlineButton{
		{Text: "Enable all", Data: "enable_all"},
		{Text: "Disable all", Data: "disable_all"},
	})
	return rows
}

func (b *BotFacade) HandleNotificationSettings(ctx context.Context, tgID int64) (Reply, error) {
	u, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return textReply("You are not registered yet. Send /start first."), nil
	}
	s, err := b.SettingsUC.Get(ctx, u.ID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: "Notification settings. Tap to toggle:", Buttons: settingsKeyboard(s)}, nil
}

func (b *BotFacade) HandleToggleSetting(ctx context.Context, tgID int64, category model.SettingsCategory) (Reply, error) {
	u, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return textReply("You are not registered yet. Send /start first."), nil
	}
	s, err := b.SettingsUC.Toggle(ctx, u.ID, category)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return textReply("Unknown setting."), nil
		}
		return Reply{}, err
	}
	return Reply{Text: "Notification settings. Tap to toggle:", Buttons: settingsKeyboard(s)}, nil
}

func (b *BotFacade) HandleSetAllSettings(ctx context.Context, tgID int64, on bool) (Reply, error) {
	u, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return textReply("You are not registered yet. Send /start first."), nil
	}
	s, err := b.SettingsUC.SetAll(ctx, u.ID, on)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: "Notification settings. Tap to toggle:", Buttons: settingsKeyboard(s)}, nil
}

//
// ---- history ----
//

func (b *BotFacade) HandleHistory(ctx context.Context, tgID int64, limit int) (Reply, error) {
	u, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return textReply("You are not registered yet. Send /start first."), nil
	}
	items, err := b.HistoryUC.Recent(ctx, u.ID, limit)
	if err != nil {
		return Reply{}, err
	}
	if len(items) == 0 {
		return textReply("No notifications yet."), nil
	}

	var sb strings.Builder
	sb.WriteString("Recent notifications:\n")
	for _, n := range items {
		fmt.Fprintf(&sb, "- %s [%s] %s %s\n",
			n.SentAt.Format("Jan 02 15:04"), n.Platform, n.ProjectName, n.EventType)
	}
	return Reply{Text: sb.String()}, nil
}

//
// ---- inline merge request actions ----
//

// MRAction is the verb encoded in a merge request action callback.
type MRAction string

const (
	MRActionApprove MRAction = "approve"
	MRActionMerge   MRAction = "merge"
	MRActionRetry   MRAction = "retry"
)

func (b *BotFacade) HandleMRAction(ctx context.Context, tgID int64, action MRAction, platform model.Platform, projectID string, iid int64) (Reply, error) {
	u, err := b.UserUC.GetByTelegramID(ctx, tgID)
	if err != nil {
		return textReply("You are not registered yet. Send /start first."), nil
	}

	switch action {
	case MRActionApprove:
		err = b.ActionsUC.Approve(ctx, u, platform, projectID, iid)
	case MRActionMerge:
		err = b.ActionsUC.Merge(ctx, u, platform, projectID, iid)
	case MRActionRetry:
		err = b.ActionsUC.RetryPipeline(ctx, u, platform, projectID, iid)
	default:
		return textReply("Unknown action."), nil
	}

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoPlatformToken):
			return textReply("No %s token linked. Use /set_%s_token first.", platform, platform), nil
		case errors.Is(err, domain.ErrUnsupportedAction):
			return textReply("That action is not available on %s.", platform), nil
		default:
			return textReply("The %s action failed: %v", action, err), nil
		}
	}

	switch action {
	case MRActionApprove:
		return textReply("Approved !%d.", iid), nil
	case MRActionMerge:
		return textReply("Merge requested for !%d.", iid), nil
	default:
		return textReply("Pipeline retry requested for !%d.", iid), nil
	}
}

//
// ---- keyboard helpers ----
//

func cancelButton() adapter.InlineButton {
	return adapter.InlineButton{Text: "Cancel", Data: "cancel"}
}

func projectPageReply(state *repository.WizardState) Reply {
	start := state.Page * projectsPerPage
	end := start + projectsPerPage
	if end > len(state.Projects) {
		end = len(state.Projects)
	}

	rows := make([][]adapter.InlineButton, 0, projectsPerPage+2)
	for i := start; i < end; i++ {
		rows = append(rows, []adapter.InlineButton{{
			Text: state.Projects[i].Name,
			Data: "project:" + strconv.Itoa(i),
		}})
	}

	var nav []adapter.InlineButton
	if state.Page > 0 {
		nav = append(nav, adapter.InlineButton{Text: "« Prev", Data: "page:" + strconv.Itoa(state.Page-1)})
	}
	if end < len(state.Projects) {
		nav = append(nav, adapter.InlineButton{Text: "Next »", Data: "page:" + strconv.Itoa(state.Page+1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, []adapter.InlineButton{cancelButton()})

	return Reply{
		Text:    fmt.Sprintf("Pick a project (%d found):", len(state.Projects)),
		Buttons: rows,
	}
}

func categoryPickerReply(state *repository.WizardState) Reply {
	selected := make(map[model.EventCategory]bool, len(state.Categories))
	for _, c := range state.Categories {
		selected[c] = true
	}

	all := model.CategoriesFor(state.Platform)
	rows := make([][]adapter.InlineButton, 0, len(all)+2)
	for _, c := range all {
		mark := "☐"
		if selected[c] {
			mark = "☑"
		}
		rows = append(rows, []adapter.InlineButton{{
			Text: mark + " " + string(c),
			Data: "event:" + string(c),
		}})
	}
	rows = append(rows, []adapter.InlineButton{{Text: "Confirm", Data: "confirm"}})
	rows = append(rows, []adapter.InlineButton{cancelButton()})

	return Reply{
		Text:    fmt.Sprintf("Events for %s. Tap to toggle, then confirm:", state.ProjectName),
		Buttons: rows,
	}
}

func joinCategories(cats []model.EventCategory) string {
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
