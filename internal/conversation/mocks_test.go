package conversation

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Proton-105/fish-shop-bot/internal/bot/keyboard"
	"github.com/Proton-105/fish-shop-bot/internal/state"
)

type handlersMock struct {
	mock.Mock
}

func (m *handlersMock) call(name string, _ context.Context, ev Event) (state.State, error) {
	args := m.MethodCalled(name, ev)
	return args.Get(0).(state.State), args.Error(1)
}

func (m *handlersMock) Start(ctx context.Context, ev Event) (state.State, error) {
	return m.call("Start", ctx, ev)
}

func (m *handlersMock) HandleMenu(ctx context.Context, ev Event) (state.State, error) {
	return m.call("HandleMenu", ctx, ev)
}

func (m *handlersMock) HandleDescription(ctx context.Context, ev Event) (state.State, error) {
	return m.call("HandleDescription", ctx, ev)
}

func (m *handlersMock) HandleCart(ctx context.Context, ev Event) (state.State, error) {
	return m.call("HandleCart", ctx, ev)
}

func (m *handlersMock) WaitingEmail(ctx context.Context, ev Event) (state.State, error) {
	return m.call("WaitingEmail", ctx, ev)
}

func (m *handlersMock) HandleUser(ctx context.Context, ev Event) (state.State, error) {
	return m.call("HandleUser", ctx, ev)
}

type gatewayMock struct {
	mock.Mock
}

func (m *gatewayMock) SendText(ctx context.Context, chatID int64, text string, layout *keyboard.Layout) error {
	return m.Called(chatID, text, layout).Error(0)
}

func (m *gatewayMock) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, layout *keyboard.Layout) error {
	return m.Called(chatID, photoURL, caption, layout).Error(0)
}

func (m *gatewayMock) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return m.Called(chatID, messageID).Error(0)
}

func (m *gatewayMock) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return m.Called(callbackID, text).Error(0)
}
