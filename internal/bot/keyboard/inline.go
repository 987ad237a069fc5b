package keyboard

import (
	"fmt"

	telebot "gopkg.in/telebot.v3"
)

// InlineButton is a button label together with the callback data it sends back.
type InlineButton struct {
	Text string
	Data string
}

// Layout accumulates rows of InlineButton definitions before rendering telebot markup.
type Layout struct {
	rows [][]InlineButton
}

// NewLayout returns an empty layout.
func NewLayout() *Layout {
	return &Layout{rows: make([][]InlineButton, 0)}
}

// AddRow appends a new row. Empty rows are ignored.
func (l *Layout) AddRow(buttons ...InlineButton) *Layout {
	if len(buttons) == 0 {
		return l
	}

	row := make([]InlineButton, len(buttons))
	copy(row, buttons)
	l.rows = append(l.rows, row)
	return l
}

// Rows returns a copy of the layout rows.
func (l *Layout) Rows() [][]InlineButton {
	if l == nil {
		return nil
	}

	rows := make([][]InlineButton, len(l.rows))
	for i, row := range l.rows {
		rows[i] = append([]InlineButton(nil), row...)
	}
	return rows
}

// Build renders inline markup, rejecting callback data above Telegram's limit.
func (l *Layout) Build() (*telebot.ReplyMarkup, error) {
	if l == nil {
		return nil, nil
	}

	inlineKeyboard := make([][]telebot.InlineButton, len(l.rows))
	for i, row := range l.rows {
		inlineKeyboard[i] = make([]telebot.InlineButton, len(row))
		for j, btn := range row {
			if err := ValidateData(btn.Data); err != nil {
				return nil, fmt.Errorf("button %q: %w", btn.Text, err)
			}
			inlineKeyboard[i][j] = telebot.InlineButton{
				Text: btn.Text,
				Data: btn.Data,
			}
		}
	}

	return &telebot.ReplyMarkup{InlineKeyboard: inlineKeyboard}, nil
}
