package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func TestSMTPMailerSend(t *testing.T) {
	dialer := &recordingDialer{}
	m := NewSMTPMailerWithDialer(dialer, "no-reply@inventory.local")

	err := m.Send(context.Background(), []string{"alice@example.com"}, "Stock Report Generated", "<a href=\"http://host/r/abc\">report</a>")
	require.NoError(t, err)
	require.Len(t, dialer.sent, 1)

	msg := dialer.sent[0]
	assert.Equal(t, []string{"no-reply@inventory.local"}, msg.GetHeader("From"))
	assert.Equal(t, []string{"alice@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Stock Report Generated"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "http://host/r/abc")
}

func TestSMTPMailerErrors(t *testing.T) {
	m := NewSMTPMailerWithDialer(&recordingDialer{err: errors.New("connection refused")}, "from@x")

	assert.Error(t, m.Send(context.Background(), nil, "s", "b"))
	assert.ErrorContains(t, m.Send(context.Background(), []string{"a@x"}, "s", "b"), "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, []string{"a@x"}, "s", "b"), context.Canceled)
}
