// cmd/proposal-chat/main.go
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	commonaws "proposal-chat/internal/common/aws"
	"proposal-chat/internal/common/config"
	"proposal-chat/internal/common/database"
	"proposal-chat/internal/common/logger"

	"proposal-chat/internal/clients/chatstore"
	"proposal-chat/internal/clients/documents"
	"proposal-chat/internal/clients/estimator"
	"proposal-chat/internal/clients/leads"
	"proposal-chat/internal/clients/packager"
	"proposal-chat/internal/dialogue"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "proposal-chat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	resumeID := flag.String("resume", "", "session id whose saved transcript to print before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync() //nolint:errcheck
	log := logger.NewZapAdapter(zapLogger)

	log.Info("starting proposal chat", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"mode":        cfg.Chat.Mode,
	})

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
				log.Warn("metrics listener stopped", map[string]interface{}{
					"address": cfg.Metrics.Address,
					"error":   err.Error(),
				})
			}
		}()
	}

	ctx := context.Background()

	estimatorClient, err := estimator.NewClient(
		cfg.Services.Estimator.BaseURL,
		time.Duration(cfg.Services.Estimator.Timeout)*time.Millisecond,
		log,
	)
	if err != nil {
		return err
	}

	opts := dialogue.Options{
		Logger:           log,
		Estimator:        estimatorClient,
		Mode:             cfg.Chat.Mode,
		AutosaveInterval: time.Duration(cfg.Chat.AutosaveDebounceMS) * time.Millisecond,
		NamePrompt:       cfg.Chat.NamePrompt,
		EmailPrompt:      cfg.Chat.EmailPrompt,
		OnMessage: func(m dialogue.Message) {
			if m.Sender != dialogue.SenderBot {
				return
			}
			if m.AttachedLink != "" {
				fmt.Printf("bot> %s %s\n", m.Text, m.AttachedLink)
				return
			}
			fmt.Printf("bot> %s\n", m.Text)
		},
	}

	if cfg.Services.Documents.BaseURL != "" {
		opts.Documents = documents.NewClient(
			cfg.Services.Documents.BaseURL,
			time.Duration(cfg.Services.Documents.Timeout)*time.Millisecond,
			log,
		)
	}

	if cfg.Services.Leads.BaseURL != "" {
		var notifier leads.Notifier
		if cfg.Notifications.Email.Enabled {
			sesClient, err := commonaws.NewSESClient(ctx, cfg.Notifications.Email.Region)
			if err != nil {
				log.Warn("SES client unavailable, lead alerts disabled", map[string]interface{}{
					"error": err.Error(),
				})
			} else {
				notifier = leads.NewEmailNotifier(
					sesClient,
					cfg.Notifications.Email.Sender,
					cfg.Notifications.Email.SalesAddress,
					log,
				)
			}
		}
		opts.Leads = leads.NewClient(
			cfg.Services.Leads.BaseURL,
			time.Duration(cfg.Services.Leads.Timeout)*time.Millisecond,
			notifier,
			log,
		)
	}

	if cfg.Services.Packager.BaseURL != "" {
		opts.Packager = packager.NewClient(
			cfg.Services.Packager.BaseURL,
			time.Duration(cfg.Services.Packager.Timeout)*time.Millisecond,
			log,
		)
		opts.Files = packager.DiskSaver{}
	}

	var redisClient *database.RedisClient
	if cfg.Redis.Address != "" {
		rc, err := database.NewRedis(cfg.Redis)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = rc.Ping(pingCtx)
			cancel()
		}
		if err != nil {
			log.Warn("redis unavailable, transcript autosave disabled", map[string]interface{}{
				"address": cfg.Redis.Address,
				"error":   err.Error(),
			})
		} else {
			redisClient = rc
			defer redisClient.Close()
		}
	}

	// The chat store is keyed on the session id, so generate the id first
	// and hand it to both.
	sessionID := dialogue.NewSessionID()
	opts.SessionID = sessionID
	if redisClient != nil {
		opts.Store = chatstore.NewRedisStore(redisClient.GetClient(), sessionID, log)
	}

	if *resumeID != "" {
		if redisClient == nil {
			log.Warn("cannot resume without redis", map[string]interface{}{"sessionId": *resumeID})
		} else {
			printSavedTranscript(ctx, redisClient, *resumeID, log)
		}
	}

	session, err := dialogue.NewSession(opts)
	if err != nil {
		return err
	}

	return repl(ctx, session, log)
}

// printSavedTranscript replays an earlier session's stored transcript so
// the user has the context in front of them before the new dialogue.
func printSavedTranscript(ctx context.Context, redisClient *database.RedisClient, sessionID string, log logger.Logger) {
	store := chatstore.NewRedisStore(redisClient.GetClient(), sessionID, log)
	title, msgs, err := store.LoadTranscript(ctx)
	if err != nil {
		log.Warn("failed to load saved transcript", map[string]interface{}{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return
	}
	if len(msgs) == 0 {
		fmt.Printf("No saved transcript for session %s.\n", sessionID)
		return
	}
	fmt.Printf("--- %s ---\n", title)
	for _, m := range msgs {
		if m.AttachedLink != "" {
			fmt.Printf("%s> %s %s\n", m.Sender, m.Text, m.AttachedLink)
			continue
		}
		fmt.Printf("%s> %s\n", m.Sender, m.Text)
	}
	fmt.Println("---")
}

func repl(ctx context.Context, session *dialogue.Session, log logger.Logger) error {
	fmt.Println("Describe your project to get an estimate. Commands: /share, /restart, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	confirm := func() bool {
		fmt.Print("Contact details are incomplete; close anyway and lose this lead? [y/N] ")
		if !scanner.Scan() {
			return true
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		return answer == "y" || answer == "yes"
	}

	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			return session.Close(ctx, confirm)
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit":
			err := session.Close(ctx, confirm)
			if err == dialogue.ErrCloseAborted {
				fmt.Println("Close aborted; the conversation continues.")
				continue
			}
			return err
		case "/restart":
			session.Restart()
			fmt.Println("Session restarted.")
			continue
		case "/share":
			if err := session.ShareCurrentSession(ctx); err != nil {
				log.Warn("share failed", map[string]interface{}{"error": err.Error()})
			}
			continue
		}

		if err := session.Submit(ctx, line); err != nil {
			fmt.Printf("(%v)\n", err)
		}
	}
}
