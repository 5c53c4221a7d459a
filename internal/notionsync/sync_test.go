package notionsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockNotionService is a function-field NotionService.
type MockNotionService struct {
	CreatePageFunc    func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePageFunc    func(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabaseFunc func(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	DeletePageFunc    func(ctx context.Context, pageID string) error
}

func (m *MockNotionService) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	return m.CreatePageFunc(ctx, databaseID, properties)
}

func (m *MockNotionService) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	return m.UpdatePageFunc(ctx, pageID, properties)
}

func (m *MockNotionService) QueryDatabase(ctx context.Context, databaseID string, filter *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return m.QueryDatabaseFunc(ctx, databaseID, filter)
}

func (m *MockNotionService) DeletePage(ctx context.Context, pageID string) error {
	return m.DeletePageFunc(ctx, pageID)
}

type MockGoalLister struct {
	ListFunc func(ctx context.Context, userID string) ([]*domain.Goal, error)
}

func (m *MockGoalLister) List(ctx context.Context, userID string) ([]*domain.Goal, error) {
	return m.ListFunc(ctx, userID)
}

type MockAccountLister struct {
	AccountsFunc func(ctx context.Context, userID string) ([]*domain.Account, error)
}

func (m *MockAccountLister) Accounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	return m.AccountsFunc(ctx, userID)
}

func goalPage(pageID, goalID string) notionapi.Page {
	props := notionapi.Properties{}
	if goalID != "" {
		props[PropGoalID] = &notionapi.TitleProperty{
			Title: []notionapi.RichText{{PlainText: goalID}},
		}
	}
	return notionapi.Page{ID: notionapi.ObjectID(pageID), Properties: props}
}

func goal(id string, current, target int64) *domain.Goal {
	return &domain.Goal{
		ID:            id,
		Name:          "goal " + id,
		AccountID:     "acc-1",
		CurrentAmount: decimal.NewFromInt(current),
		TargetAmount:  decimal.NewFromInt(target),
		Status:        domain.StatusFor(decimal.NewFromInt(current), decimal.NewFromInt(target)),
		Deadline:      time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC),
	}
}

func singlePage(pages ...notionapi.Page) func(context.Context, string, *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return func(context.Context, string, *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
		return &notionapi.DatabaseQueryResponse{Results: pages}, nil
	}
}

func TestSyncGoals(t *testing.T) {
	var created []string
	var updated []string
	var deleted []string

	notion := &MockNotionService{
		QueryDatabaseFunc: singlePage(
			goalPage("page-1", "g-1"),
			goalPage("page-stale", "g-gone"),
			goalPage("page-untitled", ""),
			goalPage("page-dup", "g-1"),
		),
		CreatePageFunc: func(_ context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
			assert.Equal(t, "db-1", databaseID)
			title := props[PropGoalID].(notionapi.TitleProperty)
			created = append(created, title.Title[0].Text.Content)
			return &notionapi.Page{ID: "page-new"}, nil
		},
		UpdatePageFunc: func(_ context.Context, pageID string, _ notionapi.Properties) (*notionapi.Page, error) {
			updated = append(updated, pageID)
			return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
		},
		DeletePageFunc: func(_ context.Context, pageID string) error {
			deleted = append(deleted, pageID)
			return nil
		},
	}

	s := &Syncer{
		Goals: &MockGoalLister{ListFunc: func(_ context.Context, userID string) ([]*domain.Goal, error) {
			assert.Equal(t, "user-1", userID)
			return []*domain.Goal{goal("g-1", 50, 100), goal("g-2", 0, 300)}, nil
		}},
		Accounts: &MockAccountLister{AccountsFunc: func(context.Context, string) ([]*domain.Account, error) {
			return []*domain.Account{{ID: "acc-1", Name: "Main", Currency: "EUR"}}, nil
		}},
		Notion:     notion,
		DatabaseID: "db-1",
	}

	res, err := s.SyncGoals(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, &SyncResult{Created: 1, Updated: 1, Deleted: 3}, res)
	assert.Equal(t, []string{"g-2"}, created)
	assert.Equal(t, []string{"page-1"}, updated)
	assert.ElementsMatch(t, []string{"page-stale", "page-untitled", "page-dup"}, deleted)
}

func TestSyncGoals_DryRunWritesNothing(t *testing.T) {
	fail := func() { t.Fatal("dry run must not write to Notion") }
	notion := &MockNotionService{
		QueryDatabaseFunc: singlePage(goalPage("page-1", "g-1"), goalPage("page-stale", "g-gone")),
		CreatePageFunc: func(context.Context, string, notionapi.Properties) (*notionapi.Page, error) {
			fail()
			return nil, nil
		},
		UpdatePageFunc: func(context.Context, string, notionapi.Properties) (*notionapi.Page, error) {
			fail()
			return nil, nil
		},
		DeletePageFunc: func(context.Context, string) error {
			fail()
			return nil
		},
	}
	s := &Syncer{
		Goals: &MockGoalLister{ListFunc: func(context.Context, string) ([]*domain.Goal, error) {
			return []*domain.Goal{goal("g-1", 0, 10), goal("g-2", 0, 10)}, nil
		}},
		Notion:     notion,
		DatabaseID: "db-1",
		DryRun:     true,
	}

	res, err := s.SyncGoals(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Created: 1, Updated: 1, Deleted: 1}, res)
}

func TestSyncGoals_FailuresAreCounted(t *testing.T) {
	notion := &MockNotionService{
		QueryDatabaseFunc: singlePage(goalPage("page-stale", "g-gone")),
		CreatePageFunc: func(context.Context, string, notionapi.Properties) (*notionapi.Page, error) {
			return nil, errors.New("rate limited")
		},
		DeletePageFunc: func(context.Context, string) error {
			return errors.New("rate limited")
		},
	}
	s := &Syncer{
		Goals: &MockGoalLister{ListFunc: func(context.Context, string) ([]*domain.Goal, error) {
			return []*domain.Goal{goal("g-1", 0, 10)}, nil
		}},
		Notion:     notion,
		DatabaseID: "db-1",
	}

	res, err := s.SyncGoals(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Failed: 2}, res)
}

func TestSyncGoals_ListError(t *testing.T) {
	s := &Syncer{
		Goals: &MockGoalLister{ListFunc: func(context.Context, string) ([]*domain.Goal, error) {
			return nil, domain.NotFoundf("List", "no account for user %s", "user-1")
		}},
		Notion: &MockNotionService{},
	}

	_, err := s.SyncGoals(context.Background(), "user-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestQueryAllNotionPages_Paginates(t *testing.T) {
	var cursors []notionapi.Cursor
	notion := &MockNotionService{
		QueryDatabaseFunc: func(_ context.Context, _ string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			cursors = append(cursors, req.StartCursor)
			if req.StartCursor == "" {
				return &notionapi.DatabaseQueryResponse{
					Results:    []notionapi.Page{goalPage("p1", "g-1")},
					HasMore:    true,
					NextCursor: "next",
				}, nil
			}
			return &notionapi.DatabaseQueryResponse{Results: []notionapi.Page{goalPage("p2", "g-2")}}, nil
		},
	}

	pages, err := queryAllNotionPages(context.Background(), notion, "db-1")
	require.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Equal(t, []notionapi.Cursor{"", "next"}, cursors)
}
