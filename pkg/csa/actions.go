package csa

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/selfservice/pkg/domain"
)

const mailTimeLayout = "02-01-2006 15:04"

// ActionStep is one side effect of CreateAction. Disabled steps are skipped.
type ActionStep struct {
	Name    string
	Enabled bool
	Run     func(ctx context.Context, req *ActionRequest) error
}

// ActionRequest carries the action through the pipeline together with the resolved providers
type ActionRequest struct {
	Action           *domain.Action
	ServiceProvider  domain.ServiceProvider
	IdentityProvider domain.IdentityProvider
}

// CreateAction resolves both providers, stamps their names on the action and runs the
// ticket, persist and email steps in that order. The first failing step aborts the
// pipeline and is returned as an *ActionStepError.
func (a *Aggregator) CreateAction(ctx context.Context, action *domain.Action) (*domain.Action, error) {
	if action == nil {
		return nil, errors.New("action is required")
	}

	ctx, span := a.startSpan(ctx, "create_action",
		attribute.String("idp", action.IdpID),
		attribute.String("sp", action.SpID),
		attribute.String("type", string(action.Type)))
	defer span.End()

	req, err := a.resolve(action)
	if err != nil {
		recordError(span, err)
		a.observer.ObserveAction(string(action.Type), err)
		return nil, err
	}

	if err := a.runSteps(ctx, req, a.actionSteps()); err != nil {
		recordError(span, err)
		a.observer.ObserveAction(string(action.Type), err)
		return nil, err
	}

	a.observer.ObserveAction(string(action.Type), nil)
	a.logger.WithFields(logrus.Fields{
		"action_id":  req.Action.ID,
		"ticket_key": req.Action.TicketKey,
		"type":       req.Action.Type,
		"idp":        req.Action.IdpID,
		"sp":         req.Action.SpID,
	}).Info("action created")
	return req.Action, nil
}

func (a *Aggregator) resolve(action *domain.Action) (*ActionRequest, error) {
	sp, ok := a.deps.Directory.GetServiceProvider(action.SpID)
	if !ok {
		return nil, domain.UnknownServiceProvider(action.SpID)
	}
	idp, ok := a.deps.Directory.GetIdentityProvider(action.IdpID)
	if !ok {
		return nil, domain.UnknownIdentityProvider(action.IdpID)
	}

	stamped := *action
	stamped.SpName = sp.Name
	stamped.IdpName = idp.Name
	if stamped.Status == "" {
		stamped.Status = domain.ActionStatusOpen
	}
	if stamped.RequestDate.IsZero() {
		stamped.RequestDate = a.now()
	}
	return &ActionRequest{Action: &stamped, ServiceProvider: sp, IdentityProvider: idp}, nil
}

// actionSteps returns the pipeline in execution order
func (a *Aggregator) actionSteps() []ActionStep {
	return []ActionStep{
		{Name: StepTicket, Enabled: a.cfg.TicketEnabled, Run: a.createTicket},
		{Name: StepPersist, Enabled: true, Run: a.persist},
		{Name: StepEmail, Enabled: a.cfg.EmailEnabled, Run: a.notifyAdministration},
	}
}

func (a *Aggregator) runSteps(ctx context.Context, req *ActionRequest, steps []ActionStep) error {
	for _, step := range steps {
		if !step.Enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return &ActionStepError{Step: step.Name, Err: err}
		}
		if err := step.Run(ctx, req); err != nil {
			return &ActionStepError{Step: step.Name, Err: err}
		}
	}
	return nil
}

func (a *Aggregator) createTicket(ctx context.Context, req *ActionRequest) error {
	if a.deps.Tickets == nil {
		return errors.New("ticketing is enabled but no ticket client is configured")
	}
	key, err := a.deps.Tickets.CreateIssue(ctx, req.Action)
	if err != nil {
		return err
	}
	req.Action.TicketKey = key
	return nil
}

func (a *Aggregator) persist(ctx context.Context, req *ActionRequest) error {
	id, err := a.deps.Actions.Save(ctx, req.Action)
	if err != nil {
		return err
	}
	req.Action.ID = id
	return nil
}

func (a *Aggregator) notifyAdministration(ctx context.Context, req *ActionRequest) error {
	if a.deps.Mailer == nil {
		return errors.New("email is enabled but no mailer is configured")
	}
	subject, body := a.administrationMail(req)
	return a.deps.Mailer.SendMail(req.Action.UserEmail, subject, body)
}

// administrationMail renders the notification sent to the administration mailbox
func (a *Aggregator) administrationMail(req *ActionRequest) (string, string) {
	action := req.Action
	issue := action.TicketKey
	if issue == "" {
		issue = "none"
	}

	subject := fmt.Sprintf("[Csa (%s) request] %s connection from IdP '%s' to SP '%s' (Issue : %s)",
		a.cfg.Hostname, action.Type, action.IdpID, action.SpID, issue)

	var b strings.Builder
	fmt.Fprintf(&b, "Domain of Reporter: %s\n", action.InstitutionID)
	fmt.Fprintf(&b, "SP EntityID: %s\n", req.ServiceProvider.ID)
	fmt.Fprintf(&b, "SP Name: %s\n", req.ServiceProvider.Name)
	fmt.Fprintf(&b, "IdP EntityID: %s\n", req.IdentityProvider.ID)
	fmt.Fprintf(&b, "IdP Name: %s\n", req.IdentityProvider.Name)
	fmt.Fprintf(&b, "Request: %s\n", action.Type)
	fmt.Fprintf(&b, "Applicant name: %s\n", action.UserName)
	fmt.Fprintf(&b, "Applicant email: %s\n", action.UserEmail)
	fmt.Fprintf(&b, "Mail applicant: %s\n", a.applicantMailto(action, req.ServiceProvider, issue))
	fmt.Fprintf(&b, "Time: %s\n", a.now().Format(mailTimeLayout))
	b.WriteString("Remark from User:\n")
	b.WriteString(action.Body)

	return subject, b.String()
}

func (a *Aggregator) applicantMailto(action *domain.Action, sp domain.ServiceProvider, issue string) string {
	query := []string{}
	if a.cfg.MailCC != "" {
		query = append(query, "CC="+a.cfg.MailCC)
	}
	query = append(query,
		"SUBJECT="+url.PathEscape(fmt.Sprintf("[%s] %s to %s", issue, action.Type, sp.Name)),
		"BODY="+url.PathEscape("Beste "+action.UserName),
	)
	return "mailto:" + action.UserEmail + "?" + strings.Join(query, "&")
}
