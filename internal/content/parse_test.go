package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		title string
		err   error
	}{
		{name: "whole body", raw: `{"hero":{"title":"A"}}`, title: "A"},
		{name: "leading prose", raw: `Here it is: {"hero":{"title":"B"}} thanks`, title: "B"},
		{name: "braces in strings", raw: `x {"hero":{"title":"C {not} \"quoted\" }"}} y`, title: `C {not} "quoted" }`},
		{name: "fenced", raw: "```json\n{\"hero\":{\"title\":\"D\"}}\n```", title: "D"},
		{name: "empty", raw: "   ", err: errEmptyResponse},
		{name: "no json", raw: "sorry, no", err: errNoDocument},
		{name: "unbalanced", raw: `{"hero": {"title": "E"}`, err: errNoDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.raw)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.title, doc.Hero.Title)
		})
	}
}
