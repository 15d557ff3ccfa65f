package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/mindful/backend/internal/analysis/sentiment"
)

var (
	okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	labelStyles = map[sentiment.Label]lipgloss.Style{
		sentiment.Positive: lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		sentiment.Neutral:  lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Bold(true),
		sentiment.Negative: lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true),
		sentiment.Crisis:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#DC2626")).Bold(true),
	}
)

// styleLabel pads the label so that stdin output lines up in columns.
func styleLabel(label sentiment.Label) string {
	text := fmt.Sprintf("%-8s", label)
	style, ok := labelStyles[label]
	if !ok {
		return text
	}
	return style.Render(text)
}

func renderMarkdown(md string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render reply: %w", err)
	}
	return out, nil
}
