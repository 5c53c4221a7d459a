package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/logger"
	"github.com/jomei/notionapi"
)

// SyncResult counts the page operations of one sync run. In dry-run mode the
// counts are what would have happened.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// Syncer mirrors a user's goals into a Notion database, one page per goal
// keyed by the "Goal ID" title.
type Syncer struct {
	Goals      GoalLister
	Accounts   AccountLister
	Notion     NotionService
	DatabaseID string
	DryRun     bool
}

// SyncGoals archives pages whose goal no longer exists, updates pages of
// existing goals and creates pages for new ones. Running it twice without
// ledger changes only issues updates.
func (s *Syncer) SyncGoals(ctx context.Context, userID string) (*SyncResult, error) {
	log := logger.FromContext(ctx).With().
		Str("user_id", userID).
		Bool("dry_run", s.DryRun).
		Logger()

	log.Info().Msg("Starting goals sync to Notion")

	goals, err := s.Goals.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("SyncGoals: list goals: %w", err)
	}

	accounts := make(map[string]*domain.Account)
	if s.Accounts != nil {
		accs, err := s.Accounts.Accounts(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("SyncGoals: list accounts: %w", err)
		}
		for _, a := range accs {
			accounts[a.ID] = a
		}
	}

	log.Info().Int("goal_count", len(goals)).Msg("Retrieved goals from ledger")

	pages, err := queryAllNotionPages(ctx, s.Notion, s.DatabaseID)
	if err != nil {
		return nil, fmt.Errorf("SyncGoals: %w", err)
	}

	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	valid := make(map[string]bool, len(goals))
	for _, g := range goals {
		valid[g.ID] = true
	}

	res := &SyncResult{}

	// First page per goal ID wins; later duplicates are archived with the stale ones.
	existing := make(map[string]string)
	for _, page := range pages {
		goalID := extractGoalID(page)
		if goalID != "" && valid[goalID] {
			if _, dup := existing[goalID]; !dup {
				existing[goalID] = string(page.ID)
				continue
			}
		}

		pageLog := log.With().Str("goal_id", goalID).Str("page_id", string(page.ID)).Logger()
		if s.DryRun {
			pageLog.Info().Msg("[DRY RUN] Would delete stale Notion page")
			res.Deleted++
			continue
		}
		if err := s.Notion.DeletePage(ctx, string(page.ID)); err != nil {
			pageLog.Warn().Err(err).Msg("Failed to delete stale Notion page")
			res.Failed++
			continue
		}
		pageLog.Info().Msg("Deleted stale Notion page")
		res.Deleted++
	}

	for _, g := range goals {
		props := GoalToNotionProperties(g, accounts[g.AccountID])
		pageID, ok := existing[g.ID]
		goalLog := log.With().Str("goal_id", g.ID).Logger()

		if s.DryRun {
			if ok {
				goalLog.Info().Msg("[DRY RUN] Would update Notion page for goal")
				res.Updated++
			} else {
				goalLog.Info().Msg("[DRY RUN] Would create Notion page for goal")
				res.Created++
			}
			continue
		}

		if ok {
			if _, err := s.Notion.UpdatePage(ctx, pageID, props); err != nil {
				goalLog.Warn().Err(err).Str("page_id", pageID).Msg("Failed to update Notion page for goal")
				res.Failed++
				continue
			}
			res.Updated++
			continue
		}

		page, err := s.Notion.CreatePage(ctx, s.DatabaseID, props)
		if err != nil {
			goalLog.Warn().Err(err).Msg("Failed to create Notion page for goal")
			res.Failed++
			continue
		}
		goalLog.Info().Str("page_id", string(page.ID)).Msg("Created Notion page for goal")
		res.Created++
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("deleted", res.Deleted).
		Int("failed", res.Failed).
		Int("total", len(goals)).
		Msg("Goals sync completed")

	return res, nil
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}

// extractGoalID returns the page's "Goal ID" title, or "" when absent.
func extractGoalID(page notionapi.Page) string {
	prop, ok := page.Properties[PropGoalID]
	if !ok {
		return ""
	}
	switch title := prop.(type) {
	case *notionapi.TitleProperty:
		if len(title.Title) > 0 {
			return titleText(title.Title[0])
		}
	case notionapi.TitleProperty:
		if len(title.Title) > 0 {
			return titleText(title.Title[0])
		}
	}
	return ""
}

func titleText(rt notionapi.RichText) string {
	if rt.PlainText != "" {
		return rt.PlainText
	}
	if rt.Text != nil {
		return rt.Text.Content
	}
	return ""
}
