package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"telegram-repo-notifier/internal/domain"
	"telegram-repo-notifier/internal/domain/model"
	"telegram-repo-notifier/internal/domain/ports/adapter"
)

var _ adapter.GitHostClient = (*Client)(nil)

// Client talks to the GitLab REST API (v4) on behalf of one user.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the given API base URL, e.g.
// "https://gitlab.com/api/v4". The token is the user's personal access token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// NewFactory returns a per-token client constructor bound to one base URL.
func NewFactory(baseURL string) adapter.GitHostFactory {
	return func(token string) adapter.GitHostClient {
		return NewClient(baseURL, token)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("PRIVATE-TOKEN", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gitlab api %s %s: %d: %s", method, path, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) CurrentUser(ctx context.Context) (adapter.Identity, error) {
	var u apiUser
	if err := c.do(ctx, http.MethodGet, "/user", nil, &u); err != nil {
		return adapter.Identity{}, err
	}
	return adapter.Identity{Username: u.Username, Name: u.Name}, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]adapter.Project, error) {
	var projects []apiProject
	path := "/projects?" + url.Values{
		"membership": {"true"},
		"simple":     {"true"},
		"per_page":   {"100"},
	}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &projects); err != nil {
		return nil, err
	}
	out := make([]adapter.Project, len(projects))
	for i, p := range projects {
		out[i] = adapter.Project{
			ID:   strconv.FormatInt(p.ID, 10),
			Name: p.PathWithNamespace,
		}
	}
	return out, nil
}

func (c *Client) ListHooks(ctx context.Context, projectID string) ([]adapter.Hook, error) {
	var hooks []apiHook
	path := fmt.Sprintf("/projects/%s/hooks", url.PathEscape(projectID))
	if err := c.do(ctx, http.MethodGet, path, nil, &hooks); err != nil {
		return nil, err
	}
	out := make([]adapter.Hook, len(hooks))
	for i, h := range hooks {
		out[i] = adapter.Hook{ID: strconv.FormatInt(h.ID, 10), URL: h.URL}
	}
	return out, nil
}

func (c *Client) CreateHook(ctx context.Context, projectID, hookURL, secret string, categories []model.EventCategory) (string, error) {
	body := map[string]interface{}{
		"url":                     hookURL,
		"push_events":             false,
		"enable_ssl_verification": true,
	}
	if secret != "" {
		body["token"] = secret
	}
	for _, cat := range categories {
		switch cat {
		case model.CategoryPipeline:
			body["pipeline_events"] = true
		case model.CategoryMergeRequest:
			body["merge_requests_events"] = true
		case model.CategoryIssue:
			body["issues_events"] = true
		case model.CategoryNote:
			body["note_events"] = true
		case model.CategoryWiki:
			body["wiki_page_events"] = true
		}
	}

	var created apiHook
	path := fmt.Sprintf("/projects/%s/hooks", url.PathEscape(projectID))
	if err := c.do(ctx, http.MethodPost, path, body, &created); err != nil {
		return "", err
	}
	return strconv.FormatInt(created.ID, 10), nil
}

func (c *Client) DeleteHook(ctx context.Context, projectID, hookID string) error {
	path := fmt.Sprintf("/projects/%s/hooks/%s", url.PathEscape(projectID), url.PathEscape(hookID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ApproveMergeRequest(ctx context.Context, projectID string, iid int64) error {
	path := fmt.Sprintf("/projects/%s/merge_requests/%d/approve", url.PathEscape(projectID), iid)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) MergeMergeRequest(ctx context.Context, projectID string, iid int64) error {
	path := fmt.Sprintf("/projects/%s/merge_requests/%d/merge", url.PathEscape(projectID), iid)
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

// RetryLatestPipeline retries the newest pipeline attached to the merge
// request.
func (c *Client) RetryLatestPipeline(ctx context.Context, projectID string, iid int64) error {
	var pipelines []apiPipeline
	path := fmt.Sprintf("/projects/%s/merge_requests/%d/pipelines", url.PathEscape(projectID), iid)
	if err := c.do(ctx, http.MethodGet, path, nil, &pipelines); err != nil {
		return err
	}
	if len(pipelines) == 0 {
		return domain.ErrNotFound
	}
	retry := fmt.Sprintf("/projects/%s/pipelines/%d/retry", url.PathEscape(projectID), pipelines[0].ID)
	return c.do(ctx, http.MethodPost, retry, nil, nil)
}
