package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/server/config"
	"github.com/dmitrijs2005/credkeeper/internal/server/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reg, err := h.svc.Register(ctx, RegisterInput{Username: "alice", Password: "password1", Email: "alice@x.com"})
	require.NoError(t, err)
	token := tokenFromLink(t, h.mailer.last(t))

	res, err := h.svc.VerifyEmail(ctx, token)
	require.NoError(t, err)
	assert.False(t, res.AlreadyVerified)

	a := h.store.get(reg.ID)
	assert.True(t, a.IsVerified)
	assert.Nil(t, a.VerificationToken)
	assert.Nil(t, a.VerificationPurpose)
	assert.Equal(t, notify.TemplateWelcome, h.mailer.last(t).Template)

	_, err = h.svc.VerifyEmail(ctx, token)
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)
}

func TestVerifyEmail_RetriesAfterConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reg, err := h.svc.Register(ctx, RegisterInput{Username: "alice", Password: "password1", Email: "alice@x.com"})
	require.NoError(t, err)

	h.store.failNextUpdate = true
	_, err = h.svc.VerifyEmail(ctx, tokenFromLink(t, h.mailer.last(t)))
	require.NoError(t, err)
	assert.True(t, h.store.get(reg.ID).IsVerified)
}

func TestVerifyEmail_ConcurrentSameToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Register(ctx, RegisterInput{Username: "alice", Password: "password1", Email: "alice@x.com"})
	require.NoError(t, err)
	token := tokenFromLink(t, h.mailer.last(t))

	const n = 5
	var wg sync.WaitGroup
	results := make([]*VerifyEmailResult, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.svc.VerifyEmail(ctx, token)
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i := range errs {
		if errs[i] != nil {
			// arrived after the winner cleared the token
			assert.ErrorIs(t, errs[i], common.ErrInvalidOrExpiredToken)
			continue
		}
		if !results[i].AlreadyVerified {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
}

func TestVerifyEmail_Expired(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.VerificationTokenValidityDuration = time.Hour })
	ctx := context.Background()

	_, err := h.svc.Register(ctx, RegisterInput{Username: "alice", Password: "password1", Email: "alice@x.com"})
	require.NoError(t, err)

	h.svc.broker.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = h.svc.VerifyEmail(ctx, tokenFromLink(t, h.mailer.last(t)))
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)
}

func TestResendVerification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reg, err := h.svc.Register(ctx, RegisterInput{Username: "alice", Password: "password1", Email: "alice@x.com"})
	require.NoError(t, err)
	first := tokenFromLink(t, h.mailer.last(t))

	require.NoError(t, h.svc.ResendVerification(ctx, reg.ID))
	msg := h.mailer.last(t)
	assert.Equal(t, "alice@x.com", msg.To)
	second := tokenFromLink(t, msg)
	assert.NotEqual(t, first, second)

	_, err = h.svc.VerifyEmail(ctx, first)
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredToken)

	_, err = h.svc.VerifyEmail(ctx, second)
	require.NoError(t, err)

	err = h.svc.ResendVerification(ctx, reg.ID)
	assert.ErrorIs(t, err, common.ErrAlreadyVerified)
}

func TestResendVerification_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reg, err := h.svc.Register(ctx, RegisterInput{Username: "bob", Password: "password1"})
	require.NoError(t, err)

	assert.ErrorIs(t, h.svc.ResendVerification(ctx, reg.ID), common.ErrNoEmail)
	assert.ErrorIs(t, h.svc.ResendVerification(ctx, "3f1c2b7e-0000-4000-8000-000000000000"), common.ErrAccountNotFound)
}

func TestChangeEmail_Scenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg := h.registerVerified(t, "alice", "alice@x.com")

	require.NoError(t, h.svc.ChangeEmail(ctx, reg.ID, "alice2@x.com"))
	msg := h.mailer.last(t)
	assert.Equal(t, "alice2@x.com", msg.To)
	assert.Contains(t, msg.Data["Link"], "/verify-email-change?token=")

	a := h.store.get(reg.ID)
	require.NotNil(t, a.PendingEmail)
	assert.Equal(t, "alice2@x.com", *a.PendingEmail)
	assert.Equal(t, "alice@x.com", *a.Email)

	require.NoError(t, h.svc.ConfirmEmailChange(ctx, tokenFromLink(t, msg)))

	a = h.store.get(reg.ID)
	require.NotNil(t, a.Email)
	assert.Equal(t, "alice2@x.com", *a.Email)
	assert.Nil(t, a.PendingEmail)
	assert.True(t, a.IsVerified)
	assert.Nil(t, a.VerificationToken)
	assert.Equal(t, "alice2@x.com", h.mailer.last(t).To)

	err := h.svc.ConfirmEmailChange(ctx, tokenFromLink(t, msg))
	assert.ErrorIs(t, err, common.ErrInvalidEmailToken)
}

func TestChangeEmail_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.registerVerified(t, "alice", "alice@x.com")
	bob := h.registerVerified(t, "bob", "bob@x.com")

	assert.ErrorIs(t, h.svc.ChangeEmail(ctx, alice.ID, "alice@x.com"), common.ErrNoOpChange)
	assert.ErrorIs(t, h.svc.ChangeEmail(ctx, alice.ID, "bob@x.com"), common.ErrEmailInUse)
	assert.ErrorIs(t, h.svc.ChangeEmail(ctx, alice.ID, ""), common.ErrValidation)

	// a pending address is reserved too
	require.NoError(t, h.svc.ChangeEmail(ctx, bob.ID, "shared@x.com"))
	assert.ErrorIs(t, h.svc.ChangeEmail(ctx, alice.ID, "shared@x.com"), common.ErrEmailInUse)
}

func TestChangeEmail_NewRequestReplacesOld(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg := h.registerVerified(t, "alice", "alice@x.com")

	require.NoError(t, h.svc.ChangeEmail(ctx, reg.ID, "a2@x.com"))
	first := tokenFromLink(t, h.mailer.last(t))
	require.NoError(t, h.svc.ChangeEmail(ctx, reg.ID, "a3@x.com"))
	second := tokenFromLink(t, h.mailer.last(t))

	assert.ErrorIs(t, h.svc.ConfirmEmailChange(ctx, first), common.ErrInvalidEmailToken)
	require.NoError(t, h.svc.ConfirmEmailChange(ctx, second))
	assert.Equal(t, "a3@x.com", *h.store.get(reg.ID).Email)
}

func TestConfirmEmailChange_RejectsVerifyToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Register(ctx, RegisterInput{Username: "alice", Password: "password1", Email: "alice@x.com"})
	require.NoError(t, err)

	err = h.svc.ConfirmEmailChange(ctx, tokenFromLink(t, h.mailer.last(t)))
	assert.ErrorIs(t, err, common.ErrInvalidEmailToken)
}

func TestCancelPendingEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	reg := h.registerVerified(t, "alice", "alice@x.com")

	assert.ErrorIs(t, h.svc.CancelPendingEmail(ctx, reg.ID), common.ErrNoPendingChange)

	require.NoError(t, h.svc.ChangeEmail(ctx, reg.ID, "alice2@x.com"))
	token := tokenFromLink(t, h.mailer.last(t))

	require.NoError(t, h.svc.CancelPendingEmail(ctx, reg.ID))
	a := h.store.get(reg.ID)
	assert.Nil(t, a.PendingEmail)
	assert.Nil(t, a.VerificationToken)

	assert.ErrorIs(t, h.svc.ConfirmEmailChange(ctx, token), common.ErrInvalidEmailToken)
}
