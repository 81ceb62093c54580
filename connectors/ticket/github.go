package ticket

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	dc "kardboard/domain/config"
	"kardboard/domain/kard"
)

const acceptGitHub = "application/vnd.github+json"

// GitHubHelper syncs cards with GitHub issues. Card keys look like
// owner/repo#123.
type GitHubHelper struct {
	refresher
	apiURL string
	webURL string
	conn   *Connection
	issues map[string]map[string]any
}

type githubIssue struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	State   string `json:"state"`
	HTMLURL string `json:"html_url"`
	User    *struct {
		Login string `json:"login"`
	} `json:"user"`
	Assignee *struct {
		Login string `json:"login"`
	} `json:"assignee"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Type *struct {
		Name string `json:"name"`
	} `json:"type"`
}

func NewGitHubHelper(cfg dc.TicketConfig, conn *Connection) (*GitHubHelper, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: you must provide GitHub credentials (GITHUB_TOKEN)", ErrImproperlyConfigured)
	}
	api := strings.TrimRight(strings.TrimSpace(cfg.GitHub.APIURL), "/")
	if api == "" {
		api = dc.DefaultGitHubAPI
	}
	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = dc.DefaultStaleAfter
	}
	h := &GitHubHelper{
		apiURL: api,
		webURL: webURL(api),
		conn:   conn,
		issues: map[string]map[string]any{},
	}
	h.refresher = refresher{system: "github", staleAfter: staleAfter, now: time.Now, fetch: h.fetchIssue}
	return h, nil
}

// webURL turns an API base into the host serving issue pages:
// api.github.com becomes github.com, GitHub Enterprise drops /api/v3.
func webURL(api string) string {
	if u, err := url.Parse(api); err == nil && u.Host == "api.github.com" {
		return u.Scheme + "://github.com"
	}
	return strings.TrimSuffix(api, "/api/v3")
}

// ParseKey splits owner/repo#123.
func ParseKey(key string) (owner, repo string, number int, err error) {
	path, num, ok := strings.Cut(key, "#")
	if !ok {
		return "", "", 0, fmt.Errorf("github key %q: missing #number", key)
	}
	owner, repo, ok = strings.Cut(path, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", 0, fmt.Errorf("github key %q: want owner/repo#number", key)
	}
	number, err = strconv.Atoi(num)
	if err != nil || number <= 0 {
		return "", "", 0, fmt.Errorf("github key %q: bad issue number", key)
	}
	return owner, repo, number, nil
}

func (h *GitHubHelper) Title(c *kard.Card) string { return title(c) }

func (h *GitHubHelper) TicketURL(key string) string {
	owner, repo, number, err := ParseKey(key)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s/issues/%d", h.webURL, owner, repo, number)
}

func (h *GitHubHelper) Update(ctx context.Context, c *kard.Card, sync bool) error {
	return h.update(ctx, c, sync)
}

func (h *GitHubHelper) fetchIssue(ctx context.Context, key string) (map[string]any, error) {
	if issue, ok := h.issues[key]; ok {
		return issue, nil
	}
	owner, repo, number, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	var is githubIssue
	rawURL := fmt.Sprintf("%s/repos/%s/%s/issues/%d", h.apiURL, url.PathEscape(owner), url.PathEscape(repo), number)
	if err := h.conn.getJSON(ctx, rawURL, acceptGitHub, &is); err != nil {
		return nil, err
	}

	issue := map[string]any{
		"summary":     is.Title,
		"key":         key,
		"description": is.Body,
		"status":      is.State,
		"type":        issueType(is),
		"url":         is.HTMLURL,
		"reporter":    "",
		"assignee":    "",
	}
	if is.User != nil {
		issue["reporter"] = is.User.Login
	}
	if is.Assignee != nil {
		issue["assignee"] = is.Assignee.Login
	}
	h.issues[key] = issue
	return issue, nil
}

// issueType prefers the GitHub issue type and falls back to label names.
func issueType(is githubIssue) string {
	if is.Type != nil && strings.TrimSpace(is.Type.Name) != "" {
		return strings.ToLower(strings.TrimSpace(is.Type.Name))
	}
	for _, l := range is.Labels {
		name := strings.ToLower(strings.TrimSpace(l.Name))
		switch {
		case name == "bug":
			return "bug"
		case strings.Contains(name, "feature"):
			return "feature"
		case strings.Contains(name, "chore"), strings.Contains(name, "refactor"):
			return "chore"
		case strings.Contains(name, "doc"):
			return "docs"
		}
	}
	return "task"
}
