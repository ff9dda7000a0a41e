// Command create-admin registers an administrator account interactively.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/diewo77/go-materiel/internal/config"
	"github.com/diewo77/go-materiel/internal/db"
	"github.com/diewo77/go-materiel/internal/services"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := config.SetupLogger(cfg.Log)

	if err := run(cfg, logger, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "create-admin:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, in *os.File, out io.Writer) error {
	gdb, err := db.Connect(cfg.Database, logger)
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb, cfg.Database, logger); err != nil {
		return err
	}
	svc := services.New(services.Deps{DB: gdb, Log: logger})

	reader := bufio.NewReader(in)
	fmt.Fprint(out, "Nom d'utilisateur de l'administrateur : ")
	username, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	username = strings.TrimSpace(username)

	password, err := readPassword(in, reader, out, "Mot de passe : ")
	if err != nil {
		return err
	}
	confirm, err := readPassword(in, reader, out, "Confirmez le mot de passe : ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("les mots de passe ne correspondent pas")
	}

	created, err := svc.Users.EnsureAdmin(context.Background(), username, password)
	switch {
	case errors.Is(err, services.ErrConflict):
		return fmt.Errorf("l'utilisateur %q existe déjà", username)
	case err != nil:
		return err
	case !created:
		return errors.New("un administrateur existe déjà")
	}
	fmt.Fprintf(out, "Administrateur %q créé.\n", username)
	return nil
}

// readPassword reads without echo on a terminal, and a plain line otherwise.
func readPassword(in *os.File, reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		return string(b), err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
