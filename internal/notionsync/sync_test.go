package notionsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// MockNotionService is a mock implementation of NotionService.
type MockNotionService struct {
	CreatePageFunc    func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePageFunc    func(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabaseFunc func(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	ArchivePageFunc   func(ctx context.Context, pageID string) error

	created  []notionapi.Properties
	updated  []string
	archived []string
}

func (m *MockNotionService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	m.created = append(m.created, properties)
	if m.CreatePageFunc != nil {
		return m.CreatePageFunc(ctx, databaseID, properties)
	}
	return &notionapi.Page{ID: "new-page"}, nil
}

func (m *MockNotionService) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	m.updated = append(m.updated, pageID)
	if m.UpdatePageFunc != nil {
		return m.UpdatePageFunc(ctx, pageID, properties)
	}
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (m *MockNotionService) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if m.QueryDatabaseFunc != nil {
		return m.QueryDatabaseFunc(ctx, databaseID, filter)
	}
	return &notionapi.DatabaseQueryResponse{}, nil
}

func (m *MockNotionService) ArchivePage(ctx context.Context, pageID string) error {
	m.archived = append(m.archived, pageID)
	if m.ArchivePageFunc != nil {
		return m.ArchivePageFunc(ctx, pageID)
	}
	return nil
}

// MockInsightLister is a mock implementation of InsightLister.
type MockInsightLister struct {
	ListInsightsFunc func(ctx context.Context, userID string) ([]domain.FinancialInsight, error)
}

func (m *MockInsightLister) ListInsights(ctx context.Context, userID string) ([]domain.FinancialInsight, error) {
	return m.ListInsightsFunc(ctx, userID)
}

func listerOf(insights ...domain.FinancialInsight) *MockInsightLister {
	return &MockInsightLister{ListInsightsFunc: func(context.Context, string) ([]domain.FinancialInsight, error) {
		return insights, nil
	}}
}

func notionPage(pageID, insightID, userID string, read bool) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(pageID),
		Properties: notionapi.Properties{
			PropInsightID: &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: insightID}}},
			PropUser:      &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: userID}}},
			PropRead:      &notionapi.CheckboxProperty{Checkbox: read},
		},
	}
}

func insight(id string, read bool) domain.FinancialInsight {
	return domain.FinancialInsight{
		ID:          id,
		UserID:      "u1",
		Type:        domain.InsightTypeSpending,
		Title:       "Budget exceeded: Food",
		Description: "You've exceeded your Food budget by $50.00.",
		Severity:    domain.SeverityHigh,
		IsRead:      read,
		CreatedAt:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSyncInsights(t *testing.T) {
	notion := &MockNotionService{
		QueryDatabaseFunc: func(context.Context, string, *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			return &notionapi.DatabaseQueryResponse{Results: []notionapi.Page{
				notionPage("p-same", "i-same", "u1", false),
				notionPage("p-read", "i-read", "u1", false),
				notionPage("p-stale", "i-gone", "u1", false),
				notionPage("p-other", "i-x", "u2", false),
			}}, nil
		},
	}
	lister := listerOf(insight("i-same", false), insight("i-read", true), insight("i-new", false))

	res, err := SyncInsights(context.Background(), lister, notion, "db", "u1", false)
	require.NoError(t, err)

	assert.Equal(t, &SyncResult{Created: 1, Updated: 1, Archived: 1, Skipped: 1}, res)
	assert.Equal(t, []string{"p-read"}, notion.updated)
	assert.Equal(t, []string{"p-stale"}, notion.archived)
	require.Len(t, notion.created, 1)
	assert.Contains(t, notion.created[0], PropInsightID)
}

func TestSyncInsights_DryRunMakesNoWrites(t *testing.T) {
	notion := &MockNotionService{
		QueryDatabaseFunc: func(context.Context, string, *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			return &notionapi.DatabaseQueryResponse{Results: []notionapi.Page{
				notionPage("p-stale", "i-gone", "u1", false),
			}}, nil
		},
	}

	res, err := SyncInsights(context.Background(), listerOf(insight("i-new", false)), notion, "db", "u1", true)
	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Created: 1, Archived: 1}, res)
	assert.Empty(t, notion.created)
	assert.Empty(t, notion.archived)
}

func TestSyncInsights_Pagination(t *testing.T) {
	calls := 0
	notion := &MockNotionService{
		QueryDatabaseFunc: func(_ context.Context, _ string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			calls++
			if req.StartCursor == "" {
				return &notionapi.DatabaseQueryResponse{
					Results:    []notionapi.Page{notionPage("p1", "i1", "u1", false)},
					HasMore:    true,
					NextCursor: "next",
				}, nil
			}
			assert.Equal(t, notionapi.Cursor("next"), req.StartCursor)
			return &notionapi.DatabaseQueryResponse{
				Results: []notionapi.Page{notionPage("p2", "i2", "u1", false)},
			}, nil
		},
	}

	res, err := SyncInsights(context.Background(), listerOf(insight("i1", false), insight("i2", false)), notion, "db", "u1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, res.Skipped)
	assert.Empty(t, notion.created)
}

func TestSyncInsights_PageFailuresAreSkipped(t *testing.T) {
	notion := &MockNotionService{
		CreatePageFunc: func(context.Context, string, notionapi.Properties) (*notionapi.Page, error) {
			return nil, errors.New("rate limited")
		},
	}

	res, err := SyncInsights(context.Background(), listerOf(insight("i1", false)), notion, "db", "u1", false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
}

func TestSyncInsights_Errors(t *testing.T) {
	failing := &MockInsightLister{ListInsightsFunc: func(context.Context, string) ([]domain.FinancialInsight, error) {
		return nil, errors.New("db down")
	}}
	_, err := SyncInsights(context.Background(), failing, &MockNotionService{}, "db", "u1", false)
	assert.Error(t, err)

	notion := &MockNotionService{
		QueryDatabaseFunc: func(context.Context, string, *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			return nil, errors.New("unauthorized")
		},
	}
	_, err = SyncInsights(context.Background(), listerOf(), notion, "db", "u1", false)
	assert.Error(t, err)
}

func TestInsightToNotionProperties(t *testing.T) {
	props := InsightToNotionProperties(insight("i1", true))

	title, ok := props[PropTitle].(notionapi.TitleProperty)
	require.True(t, ok)
	assert.Equal(t, "Budget exceeded: Food", title.Title[0].Text.Content)

	sev, ok := props[PropSeverity].(notionapi.SelectProperty)
	require.True(t, ok)
	assert.Equal(t, "high", sev.Select.Name)

	read, ok := props[PropRead].(notionapi.CheckboxProperty)
	require.True(t, ok)
	assert.True(t, read.Checkbox)

	assert.Contains(t, props, PropCreated)
	assert.Contains(t, props, PropDescription)

	bare := InsightToNotionProperties(domain.FinancialInsight{ID: "i2"})
	assert.NotContains(t, bare, PropCreated)
	assert.NotContains(t, bare, PropDescription)
}
