package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	dc "kardboard/domain/config"
	"kardboard/domain/kard"

	lo "github.com/samber/lo"
)

// JIRAHelper syncs cards with a JIRA server over its REST API.
type JIRAHelper struct {
	refresher
	baseURL string
	conn    *Connection
	cache   Cache
	issues  map[string]map[string]any
}

type jiraRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type jiraUser struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string    `json:"summary"`
		Description string    `json:"description"`
		Reporter    *jiraUser `json:"reporter"`
		Assignee    *jiraUser `json:"assignee"`
		Status      jiraRef   `json:"status"`
		IssueType   jiraRef   `json:"issuetype"`
	} `json:"fields"`
}

// NewJIRAHelper needs ticket.jira.url and a connection holding JIRA_TOKEN.
func NewJIRAHelper(cfg dc.TicketConfig, conn *Connection, cache Cache) (*JIRAHelper, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.JIRA.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: you must provide a ticket.jira.url setting", ErrImproperlyConfigured)
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("%w: ticket.jira.url: %v", ErrImproperlyConfigured, err)
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: you must provide JIRA credentials (JIRA_TOKEN)", ErrImproperlyConfigured)
	}
	if cache == nil {
		cache = NewMemoryCache(time.Hour)
	}
	staleAfter := cfg.StaleAfter
	if staleAfter <= 0 {
		staleAfter = dc.DefaultStaleAfter
	}

	h := &JIRAHelper{
		baseURL: base,
		conn:    conn,
		cache:   cache,
		issues:  map[string]map[string]any{},
	}
	h.refresher = refresher{system: "jira", staleAfter: staleAfter, now: time.Now, fetch: h.Issue}
	return h, nil
}

func (h *JIRAHelper) cachePrefix() string { return "jira_" + h.baseURL }

func (h *JIRAHelper) Title(c *kard.Card) string { return title(c) }

// TicketURL points at the browse page on the same host as the API.
func (h *JIRAHelper) TicketURL(key string) string {
	u, err := url.Parse(h.baseURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/browse/" + key
}

func (h *JIRAHelper) Update(ctx context.Context, c *kard.Card, sync bool) error {
	return h.update(ctx, c, sync)
}

// Issue returns the cached issue for key, fetching it on first use.
func (h *JIRAHelper) Issue(ctx context.Context, key string) (map[string]any, error) {
	if issue, ok := h.issues[key]; ok {
		return issue, nil
	}
	var raw jiraIssue
	if err := h.conn.getJSON(ctx, h.baseURL+"/rest/api/2/issue/"+url.PathEscape(key), "application/json", &raw); err != nil {
		return nil, err
	}
	issue := h.issueToMap(ctx, raw)
	h.issues[key] = issue
	return issue, nil
}

func (h *JIRAHelper) issueToMap(ctx context.Context, is jiraIssue) map[string]any {
	userName := func(u *jiraUser) string {
		if u == nil {
			return ""
		}
		return lo.Ternary(u.Name != "", u.Name, u.DisplayName)
	}
	return map[string]any{
		"summary":     is.Fields.Summary,
		"key":         is.Key,
		"reporter":    userName(is.Fields.Reporter),
		"assignee":    userName(is.Fields.Assignee),
		"description": is.Fields.Description,
		"status":      h.resolve(ctx, "statuses", "/rest/api/2/status", is.Fields.Status.ID),
		"type":        h.resolve(ctx, "issue_types", "/rest/api/2/issuetype", is.Fields.IssueType.ID),
	}
}

// resolve maps a status or issue type id to its full record using a cached
// list. An id that cannot be resolved is returned unchanged.
func (h *JIRAHelper) resolve(ctx context.Context, kind, path, id string) any {
	key := fmt.Sprintf("%s_%s", h.cachePrefix(), kind)
	var list []map[string]any
	if v, ok := h.cache.Get(key); ok {
		list, _ = v.([]map[string]any)
	}
	if len(list) == 0 {
		slog.Info("ticket.jira.cache.miss", "key", key)
		if err := h.conn.getJSON(ctx, h.baseURL+path, "application/json", &list); err != nil {
			slog.Warn("ticket.jira.resolve.error", "kind", kind, "error", err)
			return id
		}
		h.cache.Set(key, list)
	}
	if found, ok := lo.Find(list, func(m map[string]any) bool { return fmt.Sprint(m["id"]) == id }); ok {
		return found
	}
	return id
}
