package email

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEmailer struct {
	messages []Message
	err      error
}

func (r *recordingEmailer) SendAsync(msg Message) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func TestParseAddressList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"single", "admin@example.org", []string{"admin@example.org"}},
		{"multiple with spaces", "a@example.org, b@example.org ,c@example.org", []string{"a@example.org", "b@example.org", "c@example.org"}},
		{"blanks dropped", "a@example.org,, ,", []string{"a@example.org"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAddressList(tt.input))
		})
	}
}

func TestMessageValidate(t *testing.T) {
	valid := Message{From: "john@example.org", To: []string{"admin@example.org"}, Subject: "s"}
	assert.NoError(t, valid.Validate())

	noSender := valid
	noSender.From = " "
	assert.ErrorIs(t, noSender.Validate(), ErrNoSender)

	noRecipients := valid
	noRecipients.To = nil
	assert.ErrorIs(t, noRecipients.Validate(), ErrNoRecipients)

	badRecipient := valid
	badRecipient.To = []string{"admin"}
	assert.Error(t, badRecipient.Validate())
}

func TestServiceSendMail(t *testing.T) {
	emailer := &recordingEmailer{}
	service := NewService("a@example.org, b@example.org", emailer)

	require.NoError(t, service.SendMail("john@example.org", "subject", "body"))
	require.Len(t, emailer.messages, 1)
	assert.Equal(t, Message{
		From:    "john@example.org",
		To:      []string{"a@example.org", "b@example.org"},
		Subject: "subject",
		Body:    "body",
	}, emailer.messages[0])

	// callers cannot change the admin list
	admins := service.Admins()
	admins[0] = "evil@example.org"
	assert.Equal(t, "a@example.org", service.Admins()[0])
}

func TestServiceSendMailError(t *testing.T) {
	service := NewService("a@example.org", &recordingEmailer{err: errors.New("queue full")})
	assert.Error(t, service.SendMail("john@example.org", "subject", "body"))
}
