package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/fish-shop-bot/internal/bot/keyboard"
)

func TestLayoutBuild(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		layout := keyboard.NewLayout().
			AddRow(
				keyboard.InlineButton{Text: "1 kg", Data: "1,p1"},
				keyboard.InlineButton{Text: "2 kg", Data: "2,p1"},
			).
			AddRow().
			AddRow(keyboard.InlineButton{Text: "Cart", Data: keyboard.DataCart})

		markup, err := layout.Build()
		require.NoError(t, err)
		require.NotNil(t, markup)

		require.Len(t, markup.InlineKeyboard, 2)
		assert.Len(t, markup.InlineKeyboard[0], 2)
		assert.Len(t, markup.InlineKeyboard[1], 1)
		assert.Equal(t, "2,p1", markup.InlineKeyboard[0][1].Data)
		assert.Equal(t, "Cart", markup.InlineKeyboard[1][0].Text)
	})

	t.Run("callback data overflow", func(t *testing.T) {
		layout := keyboard.NewLayout().AddRow(keyboard.InlineButton{
			Text: "Too big",
			Data: strings.Repeat("x", keyboard.CallbackDataLimitBytes+1),
		})

		_, err := layout.Build()
		assert.Error(t, err)
	})

	t.Run("data at the limit", func(t *testing.T) {
		layout := keyboard.NewLayout().AddRow(keyboard.InlineButton{
			Text: "Max",
			Data: strings.Repeat("x", keyboard.CallbackDataLimitBytes),
		})

		_, err := layout.Build()
		assert.NoError(t, err)
	})

	t.Run("nil layout", func(t *testing.T) {
		var layout *keyboard.Layout
		markup, err := layout.Build()
		assert.NoError(t, err)
		assert.Nil(t, markup)
	})
}

func TestLayoutRowsIsACopy(t *testing.T) {
	layout := keyboard.NewLayout().AddRow(keyboard.InlineButton{Text: "Menu", Data: keyboard.DataMenu})

	rows := layout.Rows()
	rows[0][0].Text = "changed"

	assert.Equal(t, "Menu", layout.Rows()[0][0].Text)
}
