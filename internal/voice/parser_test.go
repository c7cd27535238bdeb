package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/entity"
)

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

var testMenu = []entity.MenuItem{
	{ID: "m-burger", Name: "Classic Burger", Price: decimal.NewFromInt(250)},
	{ID: "m-coke", Name: "Coke", Price: decimal.NewFromInt(60)},
}

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
		qty   []int
	}{
		{"plain array", `[{"menuItemId":"m-burger","quantity":2,"notes":"no onion"}]`, []string{"m-burger"}, []int{2}},
		{"fenced", "```json\n[{\"menuItemId\":\"m-coke\",\"quantity\":1,\"notes\":null}]\n```", []string{"m-coke"}, []int{1}},
		{"missing quantity", `[{"menuItemId":"m-coke"}]`, []string{"m-coke"}, []int{1}},
		{"unknown id dropped", `[{"menuItemId":"m-pizza","quantity":1},{"menuItemId":"m-burger","quantity":1}]`, []string{"m-burger"}, []int{1}},
		{"empty array", `[]`, nil, nil},
		{"chatter", `Sorry, I could not understand.`, nil, nil},
		{"object not array", `{"menuItemId":"m-burger"}`, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(&fakeCompleter{reply: tt.reply}, zap.NewNop())
			lines := p.Parse(context.Background(), "two burgers please", testMenu)

			require.Len(t, lines, len(tt.want))
			for i, line := range lines {
				assert.Equal(t, tt.want[i], line.MenuItemID)
				assert.Equal(t, tt.qty[i], line.Quantity)
			}
		})
	}
}

func TestParser_SnapshotsMenuData(t *testing.T) {
	p := NewParser(&fakeCompleter{reply: `[{"menuItemId":"m-burger","quantity":1,"notes":" no onion "}]`}, zap.NewNop())
	lines := p.Parse(context.Background(), "a burger without onion", testMenu)

	require.Len(t, lines, 1)
	assert.Equal(t, "Classic Burger", lines[0].Name)
	assert.True(t, decimal.NewFromInt(250).Equal(lines[0].UnitPrice))
	assert.Equal(t, "no onion", lines[0].Notes)
}

func TestParser_PromptCarriesMenuAndTranscript(t *testing.T) {
	fc := &fakeCompleter{reply: `[]`}
	NewParser(fc, zap.NewNop()).Parse(context.Background(), "one coke", testMenu)

	assert.Contains(t, fc.prompt, `"id":"m-coke"`)
	assert.Contains(t, fc.prompt, `"one coke"`)
	assert.NotContains(t, fc.prompt, "250")
}

func TestParser_CompleterErrorYieldsNothing(t *testing.T) {
	p := NewParser(&fakeCompleter{err: errors.New("quota exceeded")}, zap.NewNop())
	assert.Empty(t, p.Parse(context.Background(), "one coke", testMenu))
}

func TestParser_EmptyTranscriptSkipsModel(t *testing.T) {
	fc := &fakeCompleter{reply: `[{"menuItemId":"m-coke"}]`}
	assert.Empty(t, NewParser(fc, zap.NewNop()).Parse(context.Background(), "   ", testMenu))
	assert.Empty(t, fc.prompt)
}

func TestNoopCompleter(t *testing.T) {
	p := NewParser(NoopCompleter{}, zap.NewNop())
	assert.Empty(t, p.Parse(context.Background(), "one coke", testMenu))
}
