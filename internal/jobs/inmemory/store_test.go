package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/finance-ledger/internal/domain"
	"github.com/dvloznov/finance-ledger/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndGet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	job := &jobs.IngestStatementJob{JobID: "j1", UserID: "u1", TransactionIDs: []string{"t1"}}
	require.NoError(t, s.SaveJob(ctx, job))

	job.TransactionIDs[0] = "mutated"

	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, got.TransactionIDs)
}

func TestStore_SaveRequiresID(t *testing.T) {
	err := NewStore().SaveJob(context.Background(), &jobs.IngestStatementJob{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStore_GetMissing(t *testing.T) {
	_, err := NewStore().GetJob(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListJobs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, j := range []struct {
		id, user string
		status   jobs.JobStatus
	}{
		{"a", "u1", jobs.JobStatusCompleted},
		{"b", "u1", jobs.JobStatusFailed},
		{"c", "u2", jobs.JobStatusCompleted},
		{"d", "u1", jobs.JobStatusCompleted},
	} {
		require.NoError(t, s.SaveJob(ctx, &jobs.IngestStatementJob{
			JobID:     j.id,
			UserID:    j.user,
			Status:    j.status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	ids := func(list []*jobs.IngestStatementJob) []string {
		out := make([]string, len(list))
		for i, j := range list {
			out[i] = j.JobID
		}
		return out
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{"all", jobs.JobFilter{}, []string{"d", "c", "b", "a"}},
		{"by user", jobs.JobFilter{UserID: "u1"}, []string{"d", "b", "a"}},
		{"by status", jobs.JobFilter{Status: jobs.JobStatusCompleted}, []string{"d", "c", "a"}},
		{"limit", jobs.JobFilter{Limit: 2}, []string{"d", "c"}},
		{"offset", jobs.JobFilter{Offset: 3}, []string{"a"}},
		{"offset past end", jobs.JobFilter{Offset: 10}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}
