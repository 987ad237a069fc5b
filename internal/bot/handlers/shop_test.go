package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/fish-shop-bot/internal/bot/keyboard"
	"github.com/Proton-105/fish-shop-bot/internal/conversation"
	apperrors "github.com/Proton-105/fish-shop-bot/internal/errors"
	"github.com/Proton-105/fish-shop-bot/internal/i18n"
	"github.com/Proton-105/fish-shop-bot/internal/state"
	appredis "github.com/Proton-105/fish-shop-bot/pkg/redis"
)

const chatID int64 = 42

type shopFixture struct {
	shop     *Shop
	catalog  *fakeCatalog
	gateway  *recordingGateway
	recorder *fakeRecorder
}

func newShopFixture(t *testing.T) *shopFixture {
	t.Helper()

	translations, err := i18n.Load("en")
	require.NoError(t, err)

	f := &shopFixture{
		catalog:  newFakeCatalog(),
		gateway:  &recordingGateway{},
		recorder: &fakeRecorder{},
	}
	f.shop = NewShop(f.catalog, f.gateway, translations, f.recorder, discardLogger())
	return f
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func text(payload string) conversation.Event {
	return conversation.Event{Kind: conversation.KindText, ChatID: chatID, Payload: payload, MessageID: 100, FirstName: "Ann"}
}

func callback(payload string, messageID int) conversation.Event {
	return conversation.Event{
		Kind:       conversation.KindCallback,
		ChatID:     chatID,
		Payload:    payload,
		CallbackID: "cb-" + payload,
		MessageID:  messageID,
		FirstName:  "Ann",
	}
}

func TestStart(t *testing.T) {
	t.Run("text keeps the user's message", func(t *testing.T) {
		f := newShopFixture(t)

		next, err := f.shop.Start(context.Background(), text("/start"))
		require.NoError(t, err)
		assert.Equal(t, state.HandleMenu, next)

		msg := f.gateway.last()
		assert.Equal(t, "Please choose:", msg.Text)
		assert.Equal(t, [][]keyboard.InlineButton{
			{{Text: "Salmon", Data: "p1"}},
			{{Text: "Trout", Data: "p2"}},
			{{Text: "Cart", Data: "cart"}},
		}, msg.Layout.Rows())
		assert.Empty(t, f.gateway.deleted)
	})

	t.Run("callback deletes the carrying message", func(t *testing.T) {
		f := newShopFixture(t)

		_, err := f.shop.Start(context.Background(), callback("menu", 7))
		require.NoError(t, err)
		assert.Equal(t, []int{7}, f.gateway.deleted)
	})

	t.Run("backend failure", func(t *testing.T) {
		f := newShopFixture(t)
		f.catalog.err = errors.New("boom")

		_, err := f.shop.Start(context.Background(), text("/start"))
		assert.Error(t, err)
		assert.Empty(t, f.gateway.sent)
	})
}

func TestHandleMenu(t *testing.T) {
	t.Run("shows product card", func(t *testing.T) {
		f := newShopFixture(t)

		next, err := f.shop.HandleMenu(context.Background(), callback("p1", 8))
		require.NoError(t, err)
		assert.Equal(t, state.HandleDescription, next)

		msg := f.gateway.last()
		assert.Equal(t, "https://cdn.example.com/salmon.jpg", msg.PhotoURL)
		assert.Equal(t, "Salmon\n\n$10.00 per kg\n7 on stock\n\nFresh", msg.Text)
		assert.Equal(t, "1,p1", msg.Layout.Rows()[0][0].Data)
		assert.Equal(t, []int{8}, f.gateway.deleted)
	})

	t.Run("text is rejected", func(t *testing.T) {
		f := newShopFixture(t)

		_, err := f.shop.HandleMenu(context.Background(), text("Salmon"))
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeState, apperrors.CodeOf(err))
	})

	t.Run("long description is truncated", func(t *testing.T) {
		f := newShopFixture(t)
		f.catalog.products[0].Description = strings.Repeat("a", 2000)

		_, err := f.shop.HandleMenu(context.Background(), callback("p1", 8))
		require.NoError(t, err)
		assert.Equal(t, captionLimit, len([]rune(f.gateway.last().Text)))
	})
}

func TestHandleDescription(t *testing.T) {
	t.Run("adds quantity and answers", func(t *testing.T) {
		f := newShopFixture(t)

		next, err := f.shop.HandleDescription(context.Background(), callback("2,p1", 9))
		require.NoError(t, err)
		assert.Equal(t, state.HandleDescription, next)

		require.Len(t, f.catalog.carts["42"], 1)
		assert.Equal(t, 2, f.catalog.carts["42"][0].Quantity)
		assert.Equal(t, []answer{{CallbackID: "cb-2,p1", Text: "Added 2 kg to cart"}}, f.gateway.answers)
		assert.Empty(t, f.gateway.deleted)
	})

	t.Run("same selection twice adds twice", func(t *testing.T) {
		f := newShopFixture(t)

		for i := 0; i < 2; i++ {
			_, err := f.shop.HandleDescription(context.Background(), callback("5,p1", 9))
			require.NoError(t, err)
		}

		require.Len(t, f.catalog.carts["42"], 1)
		assert.Equal(t, 10, f.catalog.carts["42"][0].Quantity)
	})

	t.Run("invalid quantities", func(t *testing.T) {
		for _, payload := range []string{"0,p1", "-2,p1", "x,p1", "p1"} {
			f := newShopFixture(t)

			_, err := f.shop.HandleDescription(context.Background(), callback(payload, 9))
			require.Error(t, err, payload)
			assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err), payload)
			assert.Empty(t, f.catalog.carts["42"], payload)
		}
	})
}

func TestHandleCart(t *testing.T) {
	t.Run("lists lines", func(t *testing.T) {
		f := newShopFixture(t)
		require.NoError(t, f.catalog.AddCartItem(context.Background(), "42", "p1", 2))

		next, err := f.shop.HandleCart(context.Background(), callback("cart", 12))
		require.NoError(t, err)
		assert.Equal(t, state.HandleCart, next)

		msg := f.gateway.last()
		assert.Contains(t, msg.Text, "Salmon\nFresh\n$10.00 per kg\n2 kg in cart for 2 units")
		assert.True(t, strings.HasSuffix(msg.Text, "Total: $42.00"))
		assert.Equal(t, [][]keyboard.InlineButton{
			{{Text: "Remove from cart Salmon", Data: "remove,line-1"}},
			{{Text: "Menu", Data: "menu"}},
			{{Text: "Payment", Data: "payment"}},
		}, msg.Layout.Rows())
		assert.Equal(t, []int{12}, f.gateway.deleted)
	})

	t.Run("remove then list", func(t *testing.T) {
		f := newShopFixture(t)
		require.NoError(t, f.catalog.AddCartItem(context.Background(), "42", "p1", 2))

		_, err := f.shop.HandleCart(context.Background(), callback("remove,line-1", 13))
		require.NoError(t, err)

		assert.Empty(t, f.catalog.carts["42"])
		assert.Equal(t, "Your cart is empty.", f.gateway.last().Text)
	})

	t.Run("text input keeps the message", func(t *testing.T) {
		f := newShopFixture(t)

		_, err := f.shop.HandleCart(context.Background(), text("hi"))
		require.NoError(t, err)
		assert.Empty(t, f.gateway.deleted)
	})
}

func TestCheckout(t *testing.T) {
	t.Run("asks for email", func(t *testing.T) {
		f := newShopFixture(t)

		next, err := f.shop.WaitingEmail(context.Background(), callback("payment", 14))
		require.NoError(t, err)
		assert.Equal(t, state.HandleUser, next)
		assert.Equal(t, "Please send your email", f.gateway.last().Text)
	})

	tests := []struct {
		name      string
		input     string
		wantNext  state.State
		wantEmail string
	}{
		{name: "valid", input: "ann@example.com", wantNext: state.Start, wantEmail: "ann@example.com"},
		{name: "normalized", input: "  Ann@Example.COM ", wantNext: state.Start, wantEmail: "Ann@example.com"},
		{name: "one letter domain", input: "a@b.com", wantNext: state.Start, wantEmail: "a@b.com"},
		{name: "missing at", input: "ann.example.com", wantNext: state.HandleUser},
		{name: "missing domain", input: "ann@", wantNext: state.HandleUser},
		{name: "empty", input: "   ", wantNext: state.HandleUser},
		{name: "spaces inside", input: "ann smith@example.com", wantNext: state.HandleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newShopFixture(t)

			next, err := f.shop.HandleUser(context.Background(), text(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.wantNext, next)

			if tt.wantEmail == "" {
				assert.Empty(t, f.catalog.customers)
				assert.Equal(t, "Sorry, but we cannot validate your email. Please try again", f.gateway.last().Text)
				return
			}

			require.Len(t, f.catalog.customers, 1)
			created := f.catalog.customers[0]
			assert.Equal(t, "Ann_42", created.Name)
			assert.Equal(t, tt.wantEmail, created.Email)
			assert.Equal(t, "42", created.Password)

			require.Len(t, f.recorder.saved, 1)
			assert.Equal(t, "cust-1", f.recorder.saved[0].ExternalID)

			msg := f.gateway.last()
			assert.Equal(t, "Thank you for your order. We will contact you soon", msg.Text)
			assert.Equal(t, [][]keyboard.InlineButton{{{Text: "Continue shopping", Data: "menu"}}}, msg.Layout.Rows())
		})
	}

	t.Run("registry failure is not fatal", func(t *testing.T) {
		f := newShopFixture(t)
		f.recorder.err = errors.New("db down")

		next, err := f.shop.HandleUser(context.Background(), text("ann@example.com"))
		require.NoError(t, err)
		assert.Equal(t, state.Start, next)
	})

	t.Run("backend failure", func(t *testing.T) {
		f := newShopFixture(t)
		f.catalog.err = apperrors.NewExternalAPIError("commerce", errors.New("502"))

		_, err := f.shop.HandleUser(context.Background(), text("ann@example.com"))
		require.Error(t, err)
		assert.Empty(t, f.recorder.saved)
	})
}

func TestConversationScenario(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newShopFixture(t)
	storage := state.NewRedisStorage(appredis.Wrap(client), 0, discardLogger())
	translations, err := i18n.Load("en")
	require.NoError(t, err)

	engine := conversation.NewEngine(storage, f.shop, f.gateway, apperrors.NewHandler(discardLogger()), translations, conversation.PolicySilent, discardLogger())
	ctx := context.Background()

	current := func() state.State {
		session, err := storage.GetState(ctx, chatID)
		require.NoError(t, err)
		return session.CurrentState
	}

	require.NoError(t, engine.Handle(ctx, text("/start")))
	assert.Equal(t, state.HandleMenu, current())

	require.NoError(t, engine.Handle(ctx, callback("p1", 200)))
	assert.Equal(t, state.HandleDescription, current())

	require.NoError(t, engine.Handle(ctx, callback("2,p1", 201)))
	assert.Equal(t, state.HandleDescription, current())
	require.Len(t, f.catalog.carts["42"], 1)
	assert.Equal(t, 2, f.catalog.carts["42"][0].Quantity)

	require.NoError(t, engine.Handle(ctx, callback("cart", 201)))
	assert.Equal(t, state.HandleCart, current())
	cartView := f.gateway.last()
	assert.Equal(t, "Salmon\nFresh\n$10.00 per kg\n2 kg in cart for 2 units\n\nTotal: $42.00", cartView.Text)
	removals := 0
	for _, row := range cartView.Layout.Rows() {
		for _, button := range row {
			if strings.HasPrefix(button.Data, "remove,") {
				removals++
			}
		}
	}
	assert.Equal(t, 1, removals)

	require.NoError(t, engine.Handle(ctx, callback("payment", 202)))
	assert.Equal(t, state.HandleUser, current())

	require.NoError(t, engine.Handle(ctx, text("not-an-email")))
	assert.Equal(t, state.HandleUser, current())

	require.NoError(t, engine.Handle(ctx, text("ann@example.com")))
	assert.Equal(t, state.Start, current())

	require.NoError(t, engine.Handle(ctx, callback("menu", 203)))
	assert.Equal(t, state.HandleMenu, current())

	// a typed product name is not a button press
	require.Error(t, engine.Handle(ctx, text("Salmon")))
	assert.Equal(t, state.HandleMenu, current())
}
