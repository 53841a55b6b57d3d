package telegram

import (
	"context"
	"errors"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"

	"chanrelay/internal/messenger"
)

var errSignUpUnsupported = errors.New("telegram: phone number is not registered; sign up in an official app first")

// userAuth adapts a messenger.Authenticator to gotd's sign-in flow.
type userAuth struct {
	phone  string
	prompt messenger.Authenticator
}

var _ auth.UserAuthenticator = userAuth{}

func (a userAuth) Phone(_ context.Context) (string, error) { return a.phone, nil }

func (a userAuth) Password(ctx context.Context) (string, error) {
	return a.prompt.Password(ctx)
}

func (a userAuth) Code(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
	code, err := a.prompt.Code(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(code), nil
}

func (a userAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return errSignUpUnsupported
}

func (a userAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errSignUpUnsupported
}
