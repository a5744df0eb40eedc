package service

import (
	"testing"
	"time"

	"example.com/backstage/services/picking/internal/metrics"
	"example.com/backstage/services/picking/internal/tokenstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type inviteFixture struct {
	*fixture
	now     time.Time
	metrics *metrics.Metrics
	invites InviteService
}

func newInviteFixture(t *testing.T) *inviteFixture {
	t.Helper()
	f := &inviteFixture{fixture: newFixture(t), now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), metrics: metrics.NewMetrics()}
	store := tokenstore.NewMemoryStore[InviteCode](15*time.Minute, tokenstore.WithClock(func() time.Time { return f.now }))
	f.invites = NewInviteService(f.repo, store, f.metrics, 0)
	return f
}

func TestInviteRoundTrip(t *testing.T) {
	f := newInviteFixture(t)

	guest, err := f.users.Register(f.ctx, RegisterUserRequest{Email: "Guest@Example.com"})
	require.NoError(t, err)
	require.Nil(t, guest.WarehouseID)

	code, err := f.invites.IssueInvite(f.ctx, f.warehouse.ID, "guest@example.com")
	require.NoError(t, err)
	require.Len(t, code.Token, DefaultInviteLength)
	require.Equal(t, "guest@example.com", code.Email)

	joined, err := f.invites.AcceptInvite(f.ctx, guest.ID, "GUEST@example.com", code.Token)
	require.NoError(t, err)
	require.Equal(t, f.warehouse.ID, *joined.WarehouseID)

	_, err = f.invites.AcceptInvite(f.ctx, guest.ID, "guest@example.com", code.Token)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "token", verr.Field)

	counters := f.metrics.GetCounters()
	require.Equal(t, int64(1), counters[metrics.TokensIssued])
	require.Equal(t, int64(1), counters[metrics.TokensAccepted])
	require.Equal(t, int64(1), counters[metrics.TokensRejected])
}

func TestInviteRejectsWrongOrExpiredToken(t *testing.T) {
	f := newInviteFixture(t)
	guest, err := f.users.Register(f.ctx, RegisterUserRequest{Email: "guest@example.com"})
	require.NoError(t, err)

	code, err := f.invites.IssueInvite(f.ctx, f.warehouse.ID, guest.Email)
	require.NoError(t, err)

	_, err = f.invites.AcceptInvite(f.ctx, guest.ID, guest.Email, code.Token+"x")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	f.now = f.now.Add(16 * time.Minute)
	_, err = f.invites.AcceptInvite(f.ctx, guest.ID, guest.Email, code.Token)
	require.ErrorAs(t, err, &verr)

	stored, err := f.users.GetUser(f.ctx, guest.ID)
	require.NoError(t, err)
	require.Nil(t, stored.WarehouseID)
}

func TestInviteReissueReplacesCode(t *testing.T) {
	f := newInviteFixture(t)
	guest, err := f.users.Register(f.ctx, RegisterUserRequest{Email: "guest@example.com"})
	require.NoError(t, err)

	first, err := f.invites.IssueInvite(f.ctx, f.warehouse.ID, guest.Email)
	require.NoError(t, err)
	second, err := f.invites.IssueInvite(f.ctx, f.warehouse.ID, guest.Email)
	require.NoError(t, err)

	if first.Token != second.Token {
		_, err = f.invites.AcceptInvite(f.ctx, guest.ID, guest.Email, first.Token)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	}

	_, err = f.invites.AcceptInvite(f.ctx, guest.ID, guest.Email, second.Token)
	require.NoError(t, err)
}

func TestInviteChecks(t *testing.T) {
	f := newInviteFixture(t)

	_, err := f.invites.IssueInvite(f.ctx, f.warehouse.ID, "not-an-email")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "email", verr.Field)

	_, err = f.invites.IssueInvite(f.ctx, uuid.New(), "guest@example.com")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	code, err := f.invites.IssueInvite(f.ctx, f.warehouse.ID, "guest@example.com")
	require.NoError(t, err)

	// the actor redeeming must own the invited address
	_, err = f.invites.AcceptInvite(f.ctx, f.actor.ID, "guest@example.com", code.Token)
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "email", verr.Field)
}
