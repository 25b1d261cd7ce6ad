// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmails struct {
	got *resend.SendEmailRequest
	err error
}

func (f *fakeEmails) SendWithContext(_ context.Context, p *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.got = p
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func TestResendMailer_Send(t *testing.T) {
	fake := &fakeEmails{}
	m := &ResendMailer{from: "AuroraSocial <noreply@aurora.test>", emails: fake}

	err := m.Send(context.Background(), Message{To: "ana@aurora.gov.br", Subject: "Oi", HTML: "<p>oi</p>", Text: "oi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@aurora.gov.br"}, fake.got.To)
	assert.Equal(t, "AuroraSocial <noreply@aurora.test>", fake.got.From)
	assert.Equal(t, "<p>oi</p>", fake.got.Html)

	fake.err = errors.New("rate limited")
	assert.Error(t, m.Send(context.Background(), Message{To: "ana@aurora.gov.br"}))
	assert.Error(t, m.Send(context.Background(), Message{}))
}

func TestMagicLinkMessage(t *testing.T) {
	link := "http://localhost:3318/auth/verify?token=abc&email=ana%40aurora.gov.br"
	msg, err := MagicLinkMessage("ana@aurora.gov.br", MagicLinkData{Link: link, ExpiresIn: 24 * time.Hour})
	require.NoError(t, err)

	assert.Equal(t, "ana@aurora.gov.br", msg.To)
	assert.Contains(t, msg.Text, link)
	assert.Contains(t, msg.Text, "24 horas")
	// html/template escapes the ampersand in attributes.
	assert.Contains(t, msg.HTML, "token=abc&amp;email=ana%40aurora.gov.br")
}

func TestInvitationMessage(t *testing.T) {
	msg, err := InvitationMessage("jo@aurora.gov.br", InvitationData{
		InviterName: "<script>alert(1)</script>",
		TenantName:  "Aurora do Norte",
		Role:        "TECNICO",
		Link:        "http://localhost:3318/auth/verify?token=xyz",
		ExpiresIn:   7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	assert.Contains(t, msg.Subject, "Aurora do Norte")
	assert.Contains(t, msg.HTML, "Técnico(a)")
	assert.Contains(t, msg.HTML, "7 dias")
	assert.False(t, strings.Contains(msg.HTML, "<script>"), "inviter name must be escaped")
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_, ok := r.Last()
	assert.False(t, ok)

	require.NoError(t, r.Send(context.Background(), Message{To: "a@b.c"}))
	last, ok := r.Last()
	assert.True(t, ok)
	assert.Equal(t, "a@b.c", last.To)
	assert.Len(t, r.Sent(), 1)

	r.Err = errors.New("down")
	assert.Error(t, r.Send(context.Background(), Message{To: "x@y.z"}))
	assert.Len(t, r.Sent(), 1)
}

func TestRecorder_ErrChangedDuringSends(t *testing.T) {
	r := &Recorder{}
	down := errors.New("down")

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Send(context.Background(), Message{To: fmt.Sprintf("u%d@aurora.gov.br", i)})
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.mu.Lock()
		r.Err = down
		r.mu.Unlock()
	}()
	wg.Wait()

	assert.LessOrEqual(t, len(r.Sent()), 20)
	assert.ErrorIs(t, r.Send(context.Background(), Message{To: "late@aurora.gov.br"}), down)
}

func TestHours(t *testing.T) {
	assert.Equal(t, "1 hora", hours(time.Hour))
	assert.Equal(t, "24 horas", hours(24*time.Hour))
	assert.Equal(t, "7 dias", hours(168*time.Hour))
}
