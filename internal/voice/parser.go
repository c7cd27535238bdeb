// Package voice turns spoken order transcripts into cart lines.
package voice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/tableside/internal/cart"
	"github.com/Additional-Code/tableside/internal/entity"
)

var tracer = otel.Tracer("github.com/Additional-Code/tableside/voice")

// Completer sends a prompt to a generative model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Module provides the completer and parser to Fx.
var Module = fx.Provide(NewCompleter, NewParser)

// Parser extracts order lines from a transcript.
type Parser struct {
	completer Completer
	logger    *zap.Logger
}

// NewParser builds a Parser over completer.
func NewParser(completer Completer, logger *zap.Logger) *Parser {
	return &Parser{completer: completer, logger: logger}
}

type menuEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type extracted struct {
	MenuItemID string  `json:"menuItemId"`
	Quantity   int     `json:"quantity"`
	Notes      *string `json:"notes"`
}

// Parse returns the menu lines mentioned in transcript. Model failures,
// malformed replies and unknown items yield no lines rather than an error.
func (p *Parser) Parse(ctx context.Context, transcript string, menu []entity.MenuItem) []cart.Line {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" || len(menu) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "voice.Parse", trace.WithAttributes(attribute.Int("menu.size", len(menu))))
	defer span.End()

	prompt, err := buildPrompt(transcript, menu)
	if err != nil {
		p.logger.Warn("build voice prompt", zap.Error(err))
		return nil
	}

	reply, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		p.logger.Warn("voice completion failed", zap.Error(err))
		return nil
	}

	var items []extracted
	if err := json.Unmarshal([]byte(stripFences(reply)), &items); err != nil {
		p.logger.Info("voice reply was not a JSON array", zap.Error(err))
		return nil
	}

	byID := make(map[string]entity.MenuItem, len(menu))
	for _, m := range menu {
		byID[m.ID] = m
	}

	lines := make([]cart.Line, 0, len(items))
	for _, it := range items {
		m, ok := byID[it.MenuItemID]
		if !ok {
			continue
		}
		qty := it.Quantity
		if qty < 1 {
			qty = 1
		}
		line := cart.Line{
			MenuItemID: m.ID,
			Name:       m.Name,
			Quantity:   qty,
			UnitPrice:  m.Price,
		}
		if it.Notes != nil {
			line.Notes = strings.TrimSpace(*it.Notes)
		}
		lines = append(lines, line)
	}
	span.SetAttributes(attribute.Int("voice.lines", len(lines)))
	return lines
}

func buildPrompt(transcript string, menu []entity.MenuItem) (string, error) {
	entries := make([]menuEntry, 0, len(menu))
	for _, m := range menu {
		entries = append(entries, menuEntry{ID: m.ID, Name: m.Name})
	}
	compact, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`You are an intelligent waiter POS system.
Context: The restaurant menu items are: %s.

Task: Extract the customer's order from this speech transcript: %q.

Rules:
1. Fuzzy match the transcript to the closest menu item names.
2. Extract quantities (default to 1 if not specified).
3. Extract any special notes or modifications (e.g., "no ice", "extra spicy").
4. Return ONLY a valid JSON array of objects with keys: "menuItemId", "quantity" (number), "notes" (string or null).
5. If the user is just chatting or no items match, return an empty JSON array [].
6. Do not include markdown formatting. Just the raw JSON.`, compact, transcript), nil
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
