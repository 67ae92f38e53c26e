// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

// Command kaalition is a small operator CLI over the client library:
// bootstrap accounts, inspect the credential store, send messages, and reach
// support from a shell.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/kaalition/kaalition-go"
	"github.com/kaalition/kaalition-go/lib/credstore"
)

const defaultBaseURL = "https://kaalition.ru"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "kaalition: %v\n", err)
		os.Exit(1)
	}
}

func usage() string {
	return `Usage: kaalition <command> [flags]

Commands:
  register            create a new account (identity generated when omitted)
  login <email>       authenticate with email and password
  whoami <username>   show the server's view of a stored account
  accounts            list stored accounts
  clean               remove inactive accounts from the store
  send <username> <peer> <text>
                      send a direct message from a stored account
  support <username> <text>
                      send a message to platform support

Global flags:
  --config PATH       YAML config file
  --base-url URL      platform base URL (default ` + defaultBaseURL + `)
  --accounts PATH     credential store path (default ~/.config/kaalition/accounts.json)
  --verbose           debug logging
`
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage())
		return fmt.Errorf("command is required")
	}
	command, rest := args[0], args[1:]

	flags := pflag.NewFlagSet(command, pflag.ContinueOnError)
	configPath := flags.String("config", "", "YAML config file")
	baseURL := flags.String("base-url", "", "platform base URL")
	accountsPath := flags.String("accounts", "", "credential store path")
	verbose := flags.Bool("verbose", false, "debug logging")

	// Command-specific flags live on the same set so they can appear in any
	// position.
	username := flags.String("username", "", "username for register")
	email := flags.String("email", "", "email for register")
	nickname := flags.String("nickname", "", "nickname for register")
	backup := flags.Bool("backup", false, "write a backup before clean")
	activeOnly := flags.Bool("active", false, "list active accounts only")

	if err := flags.Parse(rest); err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	config, err := buildConfig(*configPath, *baseURL, *accountsPath)
	if err != nil {
		return err
	}
	config.Logger = logger

	client, err := kaalition.NewClient(config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	positional := flags.Args()
	switch command {
	case "register":
		return runRegister(ctx, client, kaalition.RegisterOptions{
			Username: *username,
			Email:    *email,
			Nickname: *nickname,
		})
	case "login":
		if len(positional) < 1 {
			return fmt.Errorf("usage: kaalition login <email>")
		}
		return runLogin(ctx, client, positional[0])
	case "whoami":
		if len(positional) < 1 {
			return fmt.Errorf("usage: kaalition whoami <username>")
		}
		return runWhoAmI(ctx, client, positional[0])
	case "accounts":
		return runAccounts(client, *activeOnly)
	case "clean":
		return runClean(client, *backup)
	case "send":
		if len(positional) < 3 {
			return fmt.Errorf("usage: kaalition send <username> <peer> <text>")
		}
		return runSend(ctx, client, positional[0], positional[1], positional[2])
	case "support":
		if len(positional) < 2 {
			return fmt.Errorf("usage: kaalition support <username> <text>")
		}
		return runSupport(ctx, client, positional[0], positional[1])
	case "help", "--help", "-h":
		fmt.Print(usage())
		return nil
	default:
		fmt.Fprint(os.Stderr, usage())
		return fmt.Errorf("unknown command %q", command)
	}
}

// buildConfig layers the configuration sources: YAML file first, then flag
// overrides, then built-in defaults.
func buildConfig(configPath, baseURL, accountsPath string) (kaalition.ClientConfig, error) {
	var config kaalition.ClientConfig
	if configPath != "" {
		loaded, err := kaalition.LoadClientConfig(configPath)
		if err != nil {
			return config, err
		}
		config = loaded
	}
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if accountsPath != "" {
		config.Store = credstore.New(accountsPath)
	}
	if config.Store == nil {
		path, err := defaultAccountsPath()
		if err != nil {
			return config, err
		}
		config.Store = credstore.New(path)
	}
	return config, nil
}

func defaultAccountsPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(configDir, "kaalition", "accounts.json"), nil
}

func runRegister(ctx context.Context, client *kaalition.Client, options kaalition.RegisterOptions) error {
	account, err := client.Register(ctx, options)
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s (id %d)\n", account.Username, account.ID)
	fmt.Printf("  email:    %s\n", account.Email)
	fmt.Printf("  password: %s\n", account.Password)
	fmt.Printf("Saved to %s\n", client.Store().Path())
	return nil
}

func runLogin(ctx context.Context, client *kaalition.Client, email string) error {
	password, err := promptPassword()
	if err != nil {
		return err
	}
	account, err := client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (id %d)\n", account.Username, account.ID)
	fmt.Printf("Saved to %s\n", client.Store().Path())
	return nil
}

func runWhoAmI(ctx context.Context, client *kaalition.Client, username string) error {
	account, err := storedAccount(client, username)
	if err != nil {
		return err
	}
	if err := account.Refresh(ctx); err != nil {
		return err
	}
	fmt.Printf("%s (id %d)\n", account.Username, account.ID)
	fmt.Printf("  nickname: %s\n", account.Nickname)
	fmt.Printf("  email:    %s\n", account.Email)
	fmt.Printf("  active:   %t\n", account.Active)
	return nil
}

func runAccounts(client *kaalition.Client, activeOnly bool) error {
	accounts := client.Accounts(activeOnly)
	if len(accounts) == 0 {
		fmt.Println("no stored accounts")
		return nil
	}
	for _, account := range accounts {
		state := "active"
		if !account.Active {
			state = "inactive"
		}
		fmt.Printf("%-20s id=%-8d %s\n", account.Username, account.ID, state)
	}
	return nil
}

func runClean(client *kaalition.Client, backup bool) error {
	removed, backupPath, err := client.Store().CleanInactive(backup)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d inactive account(s)\n", removed)
	if backupPath != "" {
		fmt.Printf("Backup written to %s\n", backupPath)
	}
	return nil
}

func runSend(ctx context.Context, client *kaalition.Client, username, peer, text string) error {
	account, err := storedAccount(client, username)
	if err != nil {
		return err
	}
	matches := account.SearchUsers(ctx, peer)
	if len(matches) == 0 {
		return fmt.Errorf("no user matches %q", peer)
	}
	message, err := account.SendMessage(ctx, matches[0], text)
	if err != nil {
		return err
	}
	fmt.Printf("Sent message %d to %s\n", message.ID, matches[0].Username)
	return nil
}

func runSupport(ctx context.Context, client *kaalition.Client, username, text string) error {
	account, err := storedAccount(client, username)
	if err != nil {
		return err
	}
	ticket, err := account.SendToSupport(ctx, text, "CLI request")
	if err != nil {
		return err
	}
	fmt.Printf("Delivered to support ticket %d\n", ticket.ID)
	return nil
}

// storedAccount looks up one account in the credential store by username.
func storedAccount(client *kaalition.Client, username string) (*kaalition.Account, error) {
	for _, account := range client.Accounts(false) {
		if account.Username == username {
			return account, nil
		}
	}
	return nil, fmt.Errorf("no stored account %q (run register or login first)", username)
}

// promptPassword reads a password from the terminal with echo disabled.
func promptPassword() (string, error) {
	stdinFileDescriptor := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFileDescriptor) {
		return "", fmt.Errorf("no terminal available for password prompt")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	passwordBytes, err := term.ReadPassword(stdinFileDescriptor)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(passwordBytes), nil
}
