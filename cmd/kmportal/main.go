package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Bigfish4tim/km-portal-client/api"
	"github.com/Bigfish4tim/km-portal-client/gateway"
	"github.com/Bigfish4tim/km-portal-client/internal/config"
	"github.com/Bigfish4tim/km-portal-client/session"
	"github.com/Bigfish4tim/km-portal-client/transport"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("kmportal failed")
	}
}

func run(args []string) error {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if len(args) == 0 {
		usage()
		return errors.New("no command given")
	}

	c := config.New()
	displayAppname("KM Portal")

	gw, store, closeStorage, err := buildGateway(c)
	if err != nil {
		return err
	}
	defer closeStorage()

	ctx := context.Background()
	switch args[0] {
	case "login":
		if len(args) != 3 {
			usage()
			return errors.New("login needs <username> <password>")
		}
		return login(ctx, gw, args[1], args[2])
	case "me":
		return currentUser(ctx, gw)
	case "logout":
		result := gw.Logout(ctx)
		fmt.Println(result.Message)
		return nil
	case "status":
		return status(store)
	case "health":
		if !gw.Health(ctx) {
			return errors.New("backend is not healthy")
		}
		fmt.Println("backend is healthy")
		return nil
	default:
		usage()
		return errors.Errorf("unknown command %q", args[0])
	}
}

func buildGateway(c config.Config) (*gateway.Gateway, *session.Store, func(), error) {
	storage, err := session.NewSQLiteStorage(c.GetSessionFile())
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "open session storage")
	}

	store, err := session.NewStore(storage)
	if err != nil {
		storage.Close()
		return nil, nil, nil, err
	}
	if err := store.Restore(); err != nil {
		log.Warn().Err(err).Msg("could not restore previous session")
	}

	refreshTimeout, err := time.ParseDuration(c.GetRefreshTimeout())
	if err != nil {
		storage.Close()
		return nil, nil, nil, errors.Wrap(err, "parse refresh timeout")
	}
	requestTimeout, err := time.ParseDuration(c.GetRequestTimeout())
	if err != nil {
		storage.Close()
		return nil, nil, nil, errors.Wrap(err, "parse request timeout")
	}

	base := c.GetBaseURL() + c.GetAPIPrefix()
	tr, err := transport.New(store, base+api.RefreshPath,
		transport.WithRefreshTimeout(refreshTimeout),
		transport.WithOnSessionEnd(func() {
			log.Warn().Msg("session expired, please log in again")
		}))
	if err != nil {
		storage.Close()
		return nil, nil, nil, err
	}

	client := &http.Client{Transport: tr, Timeout: requestTimeout}
	gw, err := gateway.New(store, base, client)
	if err != nil {
		storage.Close()
		return nil, nil, nil, err
	}

	return gw, store, func() { storage.Close() }, nil
}

func login(ctx context.Context, gw *gateway.Gateway, username, password string) error {
	result := gw.Login(ctx, username, password)
	if !result.Success {
		return errors.New(result.Message)
	}
	fmt.Printf("logged in as %s (%s)\n", result.User.DisplayName(), result.User.PrimaryRoleLabel())
	return nil
}

func currentUser(ctx context.Context, gw *gateway.Gateway) error {
	result := gw.CurrentUser(ctx)
	if !result.Success {
		return errors.New(result.Message)
	}
	u := result.User
	fmt.Printf("%s — %s / %s (%s)\n", u.Username, u.Department, u.Position, u.PrimaryRoleLabel())
	return nil
}

func status(store *session.Store) error {
	if !store.IsAuthenticated() {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("logged in as %s\n", store.User().DisplayName())
	if d, ok := store.LoginDuration(); ok {
		fmt.Printf("session age: %s\n", d.Round(time.Second))
	}
	if !store.TokenValid() {
		fmt.Println("access token expired or expiring, next request will refresh it")
	}
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: kmportal <command>

commands:
  login <username> <password>
  me
  status
  logout
  health`)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
