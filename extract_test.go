package packlate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullReply = `{"ruRU":"Привет","deDE":"Hallo","frFR":"Bonjour","zhCN":"你好","esES":"Hola"}`

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		expected string
	}{
		{
			name:     "bare object",
			reply:    `{"a":1}`,
			expected: `{"a":1}`,
		},
		{
			name:     "surrounding prose",
			reply:    "Here you go: {\"a\":1} Hope that helps!",
			expected: `{"a":1}`,
		},
		{
			name:     "fenced json block",
			reply:    "Sure! ```json\n{\"a\":{\"b\":2}}\n``` anything else?",
			expected: `{"a":{"b":2}}`,
		},
		{
			name:     "unterminated fence",
			reply:    "```json\n{\"a\":1}",
			expected: `{"a":1}`,
		},
		{
			name:     "braces inside values",
			reply:    `{"a":"{x}"}`,
			expected: `{"a":"{x}"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractJSON_NoObject(t *testing.T) {
	for _, reply := range []string{"", "no json here", "} backwards {", "{ never closed"} {
		_, err := ExtractJSON(reply)
		assert.True(t, IsParseError(err), "reply %q should fail to extract", reply)
	}
}

func TestParseTranslation_Full(t *testing.T) {
	tr, err := ParseTranslation(fullReply)
	require.NoError(t, err)

	assert.Equal(t, "Привет", *tr.RuRU)
	assert.Equal(t, "Hallo", *tr.DeDE)
	assert.Equal(t, "Bonjour", *tr.FrFR)
	assert.Equal(t, "你好", *tr.ZhCN)
	assert.Equal(t, "Hola", *tr.EsES)
}

func TestParseTranslation_FencedWithNulls(t *testing.T) {
	reply := "Sure! ```json\n{\"ruRU\":\"привет\",\"deDE\":null,\"frFR\":null,\"zhCN\":null,\"esES\":null}\n```"

	tr, err := ParseTranslation(reply)
	require.NoError(t, err)

	require.NotNil(t, tr.RuRU)
	assert.Equal(t, "привет", *tr.RuRU)
	assert.Nil(t, tr.DeDE)
	assert.Nil(t, tr.FrFR)
	assert.Nil(t, tr.ZhCN)
	assert.Nil(t, tr.EsES)
}

func TestParseTranslation_TrailingProseWithBraces(t *testing.T) {
	reply := fullReply + "\nNote: I kept the {damage} placeholder untouched."

	tr, err := ParseTranslation(reply)
	require.NoError(t, err)

	require.NotNil(t, tr.EsES)
	assert.Equal(t, "Hola", *tr.EsES)
}

func TestParseTranslation_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no object", "I cannot translate that."},
		{"missing field", `{"ruRU":"a","deDE":"b","frFR":"c","zhCN":"d"}`},
		{"unknown field", `{"ruRU":"a","deDE":"b","frFR":"c","zhCN":"d","esES":"e","itIT":"f"}`},
		{"mistyped field", `{"ruRU":1,"deDE":"b","frFR":"c","zhCN":"d","esES":"e"}`},
		{"truncated object", `{"ruRU":"a","deDE":"b"} and then {"frFR"`},
		{"array instead of object", `[{"ruRU":"a"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTranslation(tt.reply)
			require.Error(t, err)
			assert.True(t, IsParseError(err), "expected ParseError, got %T", err)
		})
	}
}
