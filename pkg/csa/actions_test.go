package csa

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/selfservice/pkg/domain"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func linkRequest() *domain.Action {
	return &domain.Action{
		UserID:        "urn:collab:person:rug.nl:admin",
		UserName:      "Jan Admin",
		UserEmail:     "admin@rug.nl",
		Type:          domain.ActionTypeLinkRequest,
		Body:          "Please connect us",
		IdpID:         groningen.ID,
		SpID:          "https://sp.example.org",
		InstitutionID: "RUG",
	}
}

type pipelineRecorder struct {
	calls []string
}

func (p *pipelineRecorder) deps(ticketErr, saveErr, mailErr error) Dependencies {
	return Dependencies{
		Tickets: &mockTicketClient{CreateIssueFunc: func(ctx context.Context, action *domain.Action) (string, error) {
			p.calls = append(p.calls, StepTicket)
			if ticketErr != nil {
				return "", ticketErr
			}
			return "CSA-42", nil
		}},
		Actions: &mockActionStore{SaveFunc: func(ctx context.Context, action *domain.Action) (int64, error) {
			p.calls = append(p.calls, StepPersist)
			if saveErr != nil {
				return 0, saveErr
			}
			return 7, nil
		}},
		Mailer: &mockMailer{SendMailFunc: func(from, subject, body string) error {
			p.calls = append(p.calls, StepEmail)
			return mailErr
		}},
	}
}

func TestCreateActionPipelineOrder(t *testing.T) {
	rec := &pipelineRecorder{}
	f := newFixture()
	agg := f.aggregator(rec.deps(nil, nil, nil), Config{TicketEnabled: true, EmailEnabled: true, Now: func() time.Time { return fixedNow }})

	input := linkRequest()
	action, err := agg.CreateAction(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, []string{StepTicket, StepPersist, StepEmail}, rec.calls)
	assert.Equal(t, int64(7), action.ID)
	assert.Equal(t, "CSA-42", action.TicketKey)
	assert.Equal(t, "Example SP", action.SpName)
	assert.Equal(t, "Groningen", action.IdpName)
	assert.Equal(t, domain.ActionStatusOpen, action.Status)
	assert.Equal(t, fixedNow, action.RequestDate)
	assert.Equal(t, []string{"LINKREQUEST:success"}, f.observer.actions)

	// the caller's value is not modified
	assert.Empty(t, input.SpName)
	assert.Zero(t, input.ID)
}

func TestCreateActionFeatureFlags(t *testing.T) {
	tests := []struct {
		name     string
		ticket   bool
		email    bool
		expected []string
	}{
		{"persist only", false, false, []string{StepPersist}},
		{"ticket", true, false, []string{StepTicket, StepPersist}},
		{"email", false, true, []string{StepPersist, StepEmail}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &pipelineRecorder{}
			agg := newFixture().aggregator(rec.deps(nil, nil, nil), Config{TicketEnabled: tt.ticket, EmailEnabled: tt.email})

			action, err := agg.CreateAction(context.Background(), linkRequest())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rec.calls)
			if !tt.ticket {
				assert.Empty(t, action.TicketKey)
			}
		})
	}
}

func TestCreateActionStepFailures(t *testing.T) {
	ticketDown := errors.New("ticket system unavailable")
	dbDown := errors.New("connection refused")
	smtpDown := errors.New("550 relay denied")

	tests := []struct {
		name      string
		ticketErr error
		saveErr   error
		mailErr   error
		step      string
		cause     error
		calls     []string
	}{
		{"ticket", ticketDown, nil, nil, StepTicket, ticketDown, []string{StepTicket}},
		{"persist", nil, dbDown, nil, StepPersist, dbDown, []string{StepTicket, StepPersist}},
		{"email", nil, nil, smtpDown, StepEmail, smtpDown, []string{StepTicket, StepPersist, StepEmail}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &pipelineRecorder{}
			f := newFixture()
			agg := f.aggregator(rec.deps(tt.ticketErr, tt.saveErr, tt.mailErr), Config{TicketEnabled: true, EmailEnabled: true})

			action, err := agg.CreateAction(context.Background(), linkRequest())

			assert.Nil(t, action)
			var stepErr *ActionStepError
			require.True(t, errors.As(err, &stepErr))
			assert.Equal(t, tt.step, stepErr.Step)
			assert.ErrorIs(t, err, tt.cause)
			assert.Equal(t, tt.calls, rec.calls)
			assert.Equal(t, []string{"LINKREQUEST:error"}, f.observer.actions)
		})
	}
}

func TestCreateActionUnknownProviders(t *testing.T) {
	rec := &pipelineRecorder{}
	agg := newFixture().aggregator(rec.deps(nil, nil, nil), Config{TicketEnabled: true, EmailEnabled: true})

	action := linkRequest()
	action.SpID = "https://sp.unknown"
	_, err := agg.CreateAction(context.Background(), action)
	assert.ErrorIs(t, err, domain.ErrUnknownServiceProvider)

	action = linkRequest()
	action.IdpID = "https://idp.unknown"
	_, err = agg.CreateAction(context.Background(), action)
	assert.ErrorIs(t, err, domain.ErrUnknownIdentityProvider)

	assert.Empty(t, rec.calls)

	_, err = agg.CreateAction(context.Background(), nil)
	assert.Error(t, err)
}

func TestCreateActionKeepsExplicitStatusAndDate(t *testing.T) {
	rec := &pipelineRecorder{}
	agg := newFixture().aggregator(rec.deps(nil, nil, nil), Config{})

	input := linkRequest()
	input.Status = domain.ActionStatusClosed
	input.RequestDate = fixedNow.Add(-time.Hour)

	action, err := agg.CreateAction(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionStatusClosed, action.Status)
	assert.Equal(t, fixedNow.Add(-time.Hour), action.RequestDate)
}

func TestCreateActionMissingCollaborators(t *testing.T) {
	rec := &pipelineRecorder{}
	deps := rec.deps(nil, nil, nil)
	deps.Tickets = nil
	agg := newFixture().aggregator(deps, Config{TicketEnabled: true})

	_, err := agg.CreateAction(context.Background(), linkRequest())
	var stepErr *ActionStepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepTicket, stepErr.Step)
	assert.Empty(t, rec.calls)
}

func TestCreateActionCancelled(t *testing.T) {
	rec := &pipelineRecorder{}
	agg := newFixture().aggregator(rec.deps(nil, nil, nil), Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agg.CreateAction(ctx, linkRequest())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.calls)
}

func TestAdministrationMail(t *testing.T) {
	var from, subject, body string
	deps := Dependencies{
		Actions: &mockActionStore{SaveFunc: func(ctx context.Context, action *domain.Action) (int64, error) { return 1, nil }},
		Mailer: &mockMailer{SendMailFunc: func(f, s, b string) error {
			from, subject, body = f, s, b
			return nil
		}},
	}
	agg := newFixture().aggregator(deps, Config{
		EmailEnabled: true,
		MailCC:       "beheer@example.org",
		Now:          func() time.Time { return fixedNow },
	})

	_, err := agg.CreateAction(context.Background(), linkRequest())
	require.NoError(t, err)

	assert.Equal(t, "admin@rug.nl", from)
	assert.Equal(t, "[Csa (dashboard-1) request] LINKREQUEST connection from IdP 'https://idp.rug.nl' to SP 'https://sp.example.org' (Issue : none)", subject)

	lines := strings.Split(body, "\n")
	require.Len(t, lines, 12)
	assert.Equal(t, "Domain of Reporter: RUG", lines[0])
	assert.Equal(t, "SP EntityID: https://sp.example.org", lines[1])
	assert.Equal(t, "SP Name: Example SP", lines[2])
	assert.Equal(t, "IdP EntityID: https://idp.rug.nl", lines[3])
	assert.Equal(t, "IdP Name: Groningen", lines[4])
	assert.Equal(t, "Request: LINKREQUEST", lines[5])
	assert.Equal(t, "Applicant name: Jan Admin", lines[6])
	assert.Equal(t, "Applicant email: admin@rug.nl", lines[7])
	assert.True(t, strings.HasPrefix(lines[8], "Mail applicant: mailto:admin@rug.nl?CC=beheer@example.org&SUBJECT="))
	assert.Contains(t, lines[8], "LINKREQUEST%20to%20Example%20SP")
	assert.Contains(t, lines[8], "&BODY=Beste%20Jan%20Admin")
	assert.Equal(t, "Time: 14-03-2026 09:30", lines[9])
	assert.Equal(t, "Remark from User:", lines[10])
	assert.Equal(t, "Please connect us", lines[11])
}

func TestActionStepError(t *testing.T) {
	cause := errors.New("boom")
	err := &ActionStepError{Step: StepPersist, Err: cause}

	assert.Equal(t, "action step persist failed: boom", err.Error())
	assert.Same(t, cause, errors.Unwrap(err))
}
