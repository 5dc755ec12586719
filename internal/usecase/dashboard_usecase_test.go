package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localmart/internal/domain/entity"
)

func TestUnreadSummaryCountsTailMessagesFromOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.send(t, "u1", "u2", "p42", "Is this in stock?")
	f.send(t, "u1", "u2", "p7", "And the tin?")

	summary, err := f.dashboard.GetUnreadSummary(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.UnreadMessages)
	require.Len(t, summary.RecentMessages, 2)

	newest := summary.RecentMessages[0]
	assert.Equal(t, entity.ConversationID("u1", "u2", "p7"), newest.ConversationID)
	assert.Equal(t, "And the tin?", newest.Text)
	assert.Equal(t, entity.UserSummary{ID: "u1", Name: "Asha"}, newest.Counterpart)
	assert.Equal(t, "Tea Tin", newest.Product.Name)
	assert.False(t, newest.IsRead)

	f.send(t, "u2", "u1", "p42", "Yes!")
	summary, err = f.dashboard.GetUnreadSummary(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UnreadMessages, "a reply clears the conversation from the seller's count")

	summary, err = f.dashboard.GetUnreadSummary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.UnreadMessages)
	assert.Equal(t, "Yes!", summary.RecentMessages[0].Text)

	_, err = f.chat.MarkConversationRead(ctx, "u2", entity.ConversationID("u1", "u2", "p7"))
	require.NoError(t, err)
	summary, err = f.dashboard.GetUnreadSummary(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.UnreadMessages)
	assert.NotNil(t, summary.RecentMessages)
	assert.Empty(t, summary.RecentMessages)
}

func TestUnreadSummaryOnlyInspectsRecentConversations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.dashboard = NewDashboardUseCase(f.convs, f.users, f.products, 3)

	for i := 0; i < 5; i++ {
		pid := fmt.Sprintf("extra%d", i)
		f.products.Put(entity.Product{ID: pid, ShopkeeperID: "u2", Name: pid})
		f.send(t, "u1", "u2", pid, "hello")
	}

	summary, err := f.dashboard.GetUnreadSummary(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.UnreadMessages)
	assert.Equal(t, "extra4", summary.RecentMessages[0].Product.ID)
}

func TestUnreadSummaryForUserWithoutConversations(t *testing.T) {
	f := newFixture(t)
	summary, err := f.dashboard.GetUnreadSummary(context.Background(), "u3")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.UnreadMessages)
	assert.Empty(t, summary.RecentMessages)
}

func TestNewDashboardUseCaseDefaultsLimit(t *testing.T) {
	f := newFixture(t)
	uc := NewDashboardUseCase(f.convs, f.users, f.products, 0)
	assert.Equal(t, DefaultDashboardRecentLimit, uc.recentLimit)
}
