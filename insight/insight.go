/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package insight asks a generative language model for conversation
// starters between two matched members. Every failure is reported as a
// display string; nothing here returns an error to the caller.
package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/Seednode/matchwheel/roster"
)

const (
	MissingKeyMessage = "Please configure your API Key to generate insights."
	FailureMessage    = "Could not generate insights at this time. Please try again later."
	EmptyMessage      = "No insights generated."
)

// Generator produces display text (simple HTML) for a pair of members.
type Generator interface {
	Generate(ctx context.Context, a, b roster.Member) string
}

// Logger receives failure details that are hidden from users.
type Logger interface {
	Printf(format string, args ...any)
}

// Disabled is the generator used when no credential is configured.
type Disabled struct{}

func (Disabled) Generate(context.Context, roster.Member, roster.Member) string {
	return MissingKeyMessage
}

// Prompt is the request sent to the model for members a and b.
func Prompt(a, b roster.Member) string {
	var sb strings.Builder

	sb.WriteString("I am facilitating a business networking 1-to-1 meeting between two professionals.\n\n")
	fmt.Fprintf(&sb, "Person A: %s (%s at %s)\n", a.Name, a.Category, a.Company)
	fmt.Fprintf(&sb, "Person B: %s (%s at %s)\n\n", b.Name, b.Category, b.Company)
	sb.WriteString("Please provide:\n")
	sb.WriteString("1. 3 engaging icebreaker questions tailored to their specific industries for a professional networking context.\n")
	fmt.Fprintf(&sb, "2. 1 potential synergy or collaboration idea between a %s and a %s.\n\n", a.Category, b.Category)
	sb.WriteString("Format the output as a clean HTML string (using tags like <ul>, <li>, <strong>, <p>) suitable for a card display. ")
	sb.WriteString("Do not use markdown syntax like ```. Keep it concise.")

	return sb.String()
}

// clean strips a markdown code fence the model may wrap its HTML in anyway.
func clean(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}
