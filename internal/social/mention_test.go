package social_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tomotachi/backend/internal/social"
)

func TestExtractMentions(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{"two addresses", "hi jane@example.com and bob@x.co!", []string{"jane@example.com", "bob@x.co"}},
		{"no at sign", "hello world", []string{}},
		{"empty", "", []string{}},
		{"duplicates kept", "kate@example.com kate@example.com", []string{"kate@example.com", "kate@example.com"}},
		{"multi-segment domain", "ping ops_1@mail.corp.example.org", []string{"ops_1@mail.corp.example.org"}},
		{"top-level too long", "someone@example.info", []string{}},
		{"top-level too short", "someone@example.c", []string{}},
		{"digits in domain", "a@ex4mple.com", []string{}},
		{"trailing punctuation", "(mail lisa@example.com.)", []string{"lisa@example.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := social.ExtractMentions(tc.text)
			assert.NotNil(t, got)
			assert.Equal(t, tc.want, got)
		})
	}
}
