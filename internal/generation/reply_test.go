package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		reply Reply
		want  string
	}{
		{name: "no blocks", reply: Reply{}, want: "none"},
		{name: "first text block", reply: Reply{Blocks: []Block{TextBlock{Text: "Turkey is a republic (Article 1)."}, TextBlock{Text: "second"}}}, want: "Turkey is a republic (Article 1)."},
		{name: "blank text", reply: Reply{Blocks: []Block{TextBlock{Text: "  \n"}}}, want: "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.reply, "none")
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got)
		})
	}
}
