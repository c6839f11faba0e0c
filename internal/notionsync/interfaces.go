package notionsync

import (
	"context"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// NotionService is the part of the Notion API the sync needs.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	// ArchivePage moves a page to the trash.
	ArchivePage(ctx context.Context, pageID string) error
}

// InsightLister loads the insights to export.
type InsightLister interface {
	ListInsights(ctx context.Context, userID string) ([]domain.FinancialInsight, error)
}
