package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-advisor/internal/logger"
)

// PageSize is the Notion query page size.
const PageSize = 100

// SyncResult counts what a sync did, or would do in a dry run.
type SyncResult struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Archived int `json:"archived"`
	Skipped  int `json:"skipped"`
}

// SyncInsights mirrors a user's insights into a Notion database. Pages are
// matched by the Insight ID property: new insights are created, pages whose
// read flag drifted are updated, and pages for insights that no longer
// exist are archived. Failures on single pages are logged and skipped.
func SyncInsights(ctx context.Context, lister InsightLister, notionClient NotionService, notionDBID, userID string, dryRun bool) (*SyncResult, error) {
	log := logger.FromContext(ctx)
	log.Info().Str("user_id", userID).Bool("dry_run", dryRun).Msg("Starting insight sync to Notion")

	insights, err := lister.ListInsights(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("SyncInsights: list insights: %w", err)
	}

	pages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return nil, fmt.Errorf("SyncInsights: %w", err)
	}

	existing := make(map[string]notionapi.Page)
	for _, page := range pages {
		if plainText(page, PropUser) != userID {
			continue
		}
		if id := plainText(page, PropInsightID); id != "" {
			existing[id] = page
		}
	}

	result := &SyncResult{}
	valid := make(map[string]bool, len(insights))

	for _, in := range insights {
		valid[in.ID] = true

		page, found := existing[in.ID]
		switch {
		case found && checkbox(page, PropRead) == in.IsRead:
			result.Skipped++

		case found:
			if dryRun {
				log.Info().Str("insight_id", in.ID).Msg("[DRY RUN] Would update Notion page")
				result.Updated++
				continue
			}
			if _, err := notionClient.UpdatePage(ctx, string(page.ID), ReadStateProperties(in.IsRead)); err != nil {
				log.Warn().Err(err).Str("insight_id", in.ID).Str("page_id", string(page.ID)).Msg("Failed to update Notion page")
				continue
			}
			result.Updated++

		default:
			if dryRun {
				log.Info().Str("insight_id", in.ID).Msg("[DRY RUN] Would create Notion page")
				result.Created++
				continue
			}
			created, err := notionClient.CreatePage(ctx, notionDBID, InsightToNotionProperties(in))
			if err != nil {
				log.Warn().Err(err).Str("insight_id", in.ID).Msg("Failed to create Notion page")
				continue
			}
			log.Debug().Str("insight_id", in.ID).Str("page_id", string(created.ID)).Msg("Created Notion page")
			result.Created++
		}
	}

	for id, page := range existing {
		if valid[id] {
			continue
		}
		if dryRun {
			log.Info().Str("insight_id", id).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
			result.Archived++
			continue
		}
		if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
			log.Warn().Err(err).Str("insight_id", id).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
			continue
		}
		result.Archived++
	}

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("archived", result.Archived).
		Int("skipped", result.Skipped).
		Int("total", len(insights)).
		Msg("Insight sync completed")
	return result, nil
}

// queryAllNotionPages follows pagination until the database is exhausted.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: PageSize}
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
