package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	kudos "github.com/kudos-league/kudos-client"
	"github.com/kudos-league/kudos-client/internal/config"
	"github.com/kudos-league/kudos-client/internal/notify"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg := config.Load()
	if cfg.Token == "" {
		log.Fatal("KUDOS_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := kudos.Dial(ctx, kudos.Options{
		APIBaseURL:  cfg.APIBaseURL,
		WSURL:       cfg.WSURL,
		Token:       cfg.Token,
		HTTPTimeout: cfg.HTTPTimeout,
	})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer client.Close()

	log.Printf("connected as user %d", client.UserID)

	toasts := make(chan notify.Toast, 16)
	client.Notifications.SetOnToast(func(t notify.Toast) {
		select {
		case toasts <- t:
		default:
		}
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.Run(ctx)
	})

	g.Go(func() error {
		for {
			select {
			case t := <-toasts:
				log.Printf("notification: [%s] %s", t.Type, t.Text)
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("session ended: %v", err)
	}
}
