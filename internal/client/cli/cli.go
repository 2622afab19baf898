// Package cli реализует команды консольного клиента координатора.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/fedsim/internal/client/api"
	"github.com/iudanet/fedsim/internal/client/iocli"
	"github.com/iudanet/fedsim/internal/client/storage"
)

type Cli struct {
	apiClient *api.Client
	sessions  storage.SessionStorage
	io        iocli.IO
}

func New(apiClient *api.Client, sessions storage.SessionStorage, io iocli.IO) *Cli {
	return &Cli{
		apiClient: apiClient,
		sessions:  sessions,
		io:        io,
	}
}

// Run выполняет команду клиента
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "simulate":
		return c.runSimulate(ctx, args)
	case "metrics":
		return c.runMetrics(ctx, args)
	case "watch":
		return c.runWatch(ctx, args)
	case "exit":
		return c.runExit(ctx, args)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// requireSession загружает сохраненную сессию и устанавливает token
// в API клиент. Возвращает ошибку если сессии нет или она истекла.
func (c *Cli) requireSession(ctx context.Context) (*storage.SessionData, error) {
	session, err := c.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, fmt.Errorf("not authenticated. Please run 'fedsim login' first")
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if time.Now().Unix() >= session.ExpiresAt {
		return nil, fmt.Errorf("session expired. Please run 'fedsim login' again")
	}

	c.apiClient.SetAccessToken(session.AccessToken)
	return session, nil
}

// saveSession сохраняет сессию после register/login
func (c *Cli) saveSession(ctx context.Context, username, accessToken string, expiresIn int64) error {
	session := &storage.SessionData{
		Username:    username,
		AccessToken: accessToken,
		ExpiresAt:   time.Now().Unix() + expiresIn,
	}
	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// rememberGroup запоминает последнюю группу как дефолт для metrics/exit
func (c *Cli) rememberGroup(ctx context.Context, session *storage.SessionData, groupName string) {
	session.LastGroup = groupName
	if err := c.sessions.SaveSession(ctx, session); err != nil {
		// Не критично: следующая команда просто попросит имя группы
		c.io.Printf("Warning: failed to remember group: %v\n", err)
	}
}

// resolveGroupName выбирает имя группы: аргумент, затем запомненная
// группа, затем интерактивный запрос
func (c *Cli) resolveGroupName(args []string, session *storage.SessionData) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if session.LastGroup != "" {
		return session.LastGroup, nil
	}
	name, err := c.io.ReadInput("Group name: ")
	if err != nil {
		return "", fmt.Errorf("failed to read group name: %w", err)
	}
	if name == "" {
		return "", fmt.Errorf("group name cannot be empty")
	}
	return name, nil
}

func PrintUsage() {
	fmt.Println("FedSim Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fedsim [OPTIONS] COMMAND [ARGS]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version         Show version information")
	fmt.Println("  --server URL      Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH         Path to local session database (default: fedsim-client.db)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  register              Register new user")
	fmt.Println("  login                 Login to server")
	fmt.Println("  logout                Delete local session")
	fmt.Println("  status                Show authentication status")
	fmt.Println("  simulate [GROUP] [N]  Start a training group with N simulated clients")
	fmt.Println("  metrics [GROUP]       Show metric history of a group")
	fmt.Println("  watch [GROUP]         Poll metrics until interrupted")
	fmt.Println("  exit [GROUP]          Stop a training group")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  fedsim register")
	fmt.Println("  fedsim simulate income 5")
	fmt.Println("  fedsim metrics income")
	fmt.Println("  fedsim watch income")
	fmt.Println("  fedsim exit income")
	fmt.Println("  fedsim --server https://example.com login")
}
