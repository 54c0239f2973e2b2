package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/opla/zoauth/auth"
	"github.com/opla/zoauth/internal/config"
	"github.com/opla/zoauth/model"
	"github.com/opla/zoauth/notification"
	"github.com/opla/zoauth/server"
	"github.com/opla/zoauth/storage"
	"github.com/opla/zoauth/storage/memstore"
	"github.com/opla/zoauth/storage/sqlstore"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := loadConfig()
	if err != nil {
		return err
	}
	displayAppname(c.GetAppName())

	authService, err := buildAuthService(c)
	if err != nil {
		return err
	}
	defer func() { _ = authService.Stop() }()

	httpServer := &http.Server{Addr: c.GetPort(), Handler: server.New(c, authService)}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// loadConfig reads the yaml file passed as first argument, falling back to
// environment variables only.
func loadConfig() (config.Config, error) {
	if len(os.Args) > 1 {
		return config.NewFromFile(os.Args[1])
	}
	return config.New(), nil
}

func buildAuthService(c config.Config) (*auth.AuthorizationService, error) {
	store, err := openStore(c)
	if err != nil {
		return nil, err
	}
	accessor := model.New(store,
		model.WithTokenExpiration(c.GetTokenExpiration()),
		model.WithRefreshExpiration(c.GetRefreshTokenExpiration()),
	)
	options := []auth.AuthorizationServiceOption{}
	if c.GetSmtpAccount() != "" {
		options = append(options, auth.WithNotifier(notification.NewSMTPDispatcher(c)))
	}
	authService, err := auth.NewAuthorizationService(accessor, options...)
	if err != nil {
		return nil, err
	}
	if err := authService.Start(); err != nil {
		return nil, fmt.Errorf("authService.Start: %w", err)
	}
	return authService, nil
}

func openStore(c config.Config) (storage.Store, error) {
	path := c.GetDatabasePath()
	if path == "" {
		return memstore.New(), nil
	}
	store, err := sqlstore.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sqlstore.Open: %w", err)
	}
	return store, nil
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
