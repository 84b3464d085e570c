package formatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	cases := map[int]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		123456:   "123,456",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
		-12:      "-12",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatNumber(in), "input %d", in)
	}
}

func TestFormatLikes(t *testing.T) {
	assert.Equal(t, "0 likes", FormatLikes(0))
	assert.Equal(t, "1 like", FormatLikes(1))
	assert.Equal(t, "2,500 likes", FormatLikes(2500))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "", FormatDate(time.Time{}))
	assert.Equal(t, "March 4, 2024", FormatDate(time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)))
}

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `off\-topic \(spam\)\!`, EscapeMarkdownV2("off-topic (spam)!"))
	assert.Equal(t, "plain text", EscapeMarkdownV2("plain text"))
}
