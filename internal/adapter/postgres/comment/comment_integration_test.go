//go:build integration

package comment_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgcomment "github.com/sanchitsehgal8/SupportPilot/internal/adapter/postgres/comment"
	pgticket "github.com/sanchitsehgal8/SupportPilot/internal/adapter/postgres/ticket"
	domaincomment "github.com/sanchitsehgal8/SupportPilot/internal/domain/comment"
	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
	"github.com/sanchitsehgal8/SupportPilot/internal/testutil"
)

func setupTicket(t *testing.T, ctx context.Context, repo *pgticket.Repository) domainticket.Ticket {
	t.Helper()
	tk, err := repo.Create(ctx, domainticket.New(uuid.New(), "ticket-"+uuid.New().String()[:8], "", domainticket.PriorityMedium, nil))
	require.NoError(t, err)
	return tk
}

func TestCreateAndListByTicket(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	tickets := pgticket.New(pool)
	comments := pgcomment.New(pool)
	ctx := context.Background()

	tk := setupTicket(t, ctx, tickets)
	author := uuid.New()

	first := domaincomment.New(tk.ID, tk.CustomerID, domaincomment.RoleCustomer, "it broke")
	second := domaincomment.New(tk.ID, author, domaincomment.RoleAgent, "on it")
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	_, err := comments.Create(ctx, first)
	require.NoError(t, err)
	_, err = comments.Create(ctx, second)
	require.NoError(t, err)

	got, err := comments.ListByTicket(ctx, tk.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Oldest first.
	assert.Equal(t, "it broke", got[0].Body)
	assert.Equal(t, domaincomment.RoleCustomer, got[0].AuthorRole)
	assert.Equal(t, "on it", got[1].Body)
}

func TestListByTicket_Empty(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	tickets := pgticket.New(pool)
	comments := pgcomment.New(pool)
	ctx := context.Background()

	tk := setupTicket(t, ctx, tickets)

	got, err := comments.ListByTicket(ctx, tk.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCreateRejectsUnknownTicket(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	comments := pgcomment.New(pool)
	ctx := context.Background()

	_, err := comments.Create(ctx, domaincomment.New(uuid.New(), uuid.New(), domaincomment.RoleCustomer, "hello"))
	require.Error(t, err) // FK to tickets
}
