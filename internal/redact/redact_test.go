package redact_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kotae-ai/kotae/internal/redact"
)

func TestRedactEmail(t *testing.T) {
	got := redact.Redact("contact me at jane.doe+spam@example.co.uk please")
	assert.Equal(t, "contact me at [REDACTED_EMAIL] please", got)
}

func TestRedactPhone(t *testing.T) {
	got := redact.Redact("call +92 300 1234567 after lunch")
	assert.Equal(t, "call [REDACTED_PHONE] after lunch", got)
}

func TestRedactCardNotPhone(t *testing.T) {
	// 16 digits must be tagged as a card, not swallowed by the looser
	// phone pattern.
	got := redact.Redact("my card is 4111 1111 1111 1111 ok")
	assert.Equal(t, "my card is [REDACTED_CC] ok", got)
}

func TestRedactNationalIDNotCard(t *testing.T) {
	got := redact.Redact("id 12345-1234567-1 on file")
	assert.Equal(t, "id [REDACTED_NID] on file", got)
}

func TestRedactAllCategoriesInOneMessage(t *testing.T) {
	in := "email a@b.com phone 0300-1234567 card 4111111111111111 id 12345-1234567-1"
	got := redact.Redact(in)

	assert.Contains(t, got, "[REDACTED_EMAIL]")
	assert.Contains(t, got, "[REDACTED_PHONE]")
	assert.Contains(t, got, "[REDACTED_CC]")
	assert.Contains(t, got, "[REDACTED_NID]")
	assert.NotContains(t, got, "a@b.com")
	assert.NotContains(t, got, "4111111111111111")
}

func TestRedactIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"no pii here",
		"email a@b.com phone 0300 1234567",
		"card 4111-1111-1111-1111 and id 12345-1234567-1",
		"[REDACTED_EMAIL] already clean",
	}
	for _, in := range inputs {
		once := redact.Redact(in)
		twice := redact.Redact(once)
		assert.Equal(t, once, twice, "redaction must be idempotent for %q", in)
	}
}

func TestRedactLeavesShortNumbersAlone(t *testing.T) {
	got := redact.Redact("order 1234 shipped in 3 days")
	assert.Equal(t, "order 1234 shipped in 3 days", got)
}
