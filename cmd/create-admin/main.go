package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/stemsi/quizprep-backend/internal/config"
	"github.com/stemsi/quizprep-backend/internal/database"
	"github.com/stemsi/quizprep-backend/internal/logger"
	"github.com/stemsi/quizprep-backend/internal/repository"
	"github.com/stemsi/quizprep-backend/internal/service"
	"golang.org/x/term"
)

// create-admin adds a question editor. Missing flags are prompted for; the
// password is read without echo on a terminal, or as one line from a pipe:
//
//	echo "$PASS" | create-admin -name Ada -email ada@example.com
func main() {
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "login email")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	in := bufio.NewReader(os.Stdin)
	stdinFd := int(os.Stdin.Fd())
	interactive := term.IsTerminal(stdinFd)

	var err error
	if *name, err = askIfEmpty(in, *name, "Name"); err != nil {
		fail(err)
	}
	if *email, err = askIfEmpty(in, *email, "Email"); err != nil {
		fail(err)
	}

	var password string
	if interactive {
		fmt.Fprint(os.Stderr, "Password: ")
		raw, err := term.ReadPassword(stdinFd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fail(fmt.Errorf("read password: %w", err))
		}
		password = string(raw)
	} else if password, err = readLine(in); err != nil {
		fail(fmt.Errorf("read password: %w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// Login throttling is not needed here, so the auth service runs without Redis.
	admins := service.NewAdminService(repository.NewAdminRepository(pool), service.NewAuthService(cfg, nil))

	admin, err := admins.Create(ctx, *name, *email, password)
	switch {
	case errors.Is(err, service.ErrPasswordTooShort):
		fail(err)
	case errors.Is(err, repository.ErrDuplicateEmail):
		fail(fmt.Errorf("%s: %w", *email, err))
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	log.Info().Int("admin_id", admin.ID).Str("email", admin.Email).Msg("Editor created")
}

func askIfEmpty(in *bufio.Reader, value, label string) (string, error) {
	if strings.TrimSpace(value) != "" {
		return value, nil
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	v, err := readLine(in)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return v, nil
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "create-admin:", err)
	os.Exit(1)
}
