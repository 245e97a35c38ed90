package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"pulse-chat/internal/auth"
	"pulse-chat/internal/chat"
	"pulse-chat/internal/config"
	"pulse-chat/internal/gateway"
	"pulse-chat/internal/logger"
	"pulse-chat/internal/models"
	"pulse-chat/internal/remote"
	"pulse-chat/internal/snapshot"
)

const helpText = `commands:
  :new              start a new conversation
  :list             list conversations
  :open <n>         switch to conversation n
  :delete <n>       delete conversation n
  :provider <name>  select provider (claude, gpt, llama)
  :quit             exit
anything else is sent as a message (try /image <description>)`

func main() {
	cfg := config.LoadConfig()

	store, err := snapshot.NewSQLiteStore(cfg.Snapshot.Path)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to open snapshot store")
	}
	defer store.Close()

	tokens := auth.NewBearerToken(cfg.Auth.Token)
	httpClient := &http.Client{Timeout: 120 * time.Second}

	gw := gateway.NewClient(cfg.Gateway.BaseURL, httpClient)

	policy := chat.PolicyLocal
	var svc remote.Service
	if cfg.Remote.Enabled {
		policy = chat.PolicyRemote
		svc = remote.NewClient(cfg.Remote.BaseURL, httpClient, tokens)
	}

	manager := chat.New(store, gw, svc, tokens, chat.Options{
		Policy:      policy,
		Temperature: cfg.Gateway.Temperature,
	})
	manager.Initialize(context.Background())

	fmt.Println("pulse (type :help for commands)")
	runREPL(manager)

	manager.Wait()
}

// runREPL is a minimal stand-in for the presentation layer: it only reads
// manager state and calls its operations.
func runREPL(manager *chat.Manager) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		printPrompt(manager)
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if quit := runCommand(manager, line); quit {
				return
			}
			continue
		}

		sendMessage(manager, line)
	}
}

func runCommand(manager *chat.Manager, line string) (quit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Println(helpText)
	case ":new":
		conv := manager.CreateConversation()
		fmt.Printf("started %s\n", conv.Title)
	case ":list":
		printConversations(manager)
	case ":open":
		if conv, ok := conversationArg(manager, fields); ok {
			manager.SetActiveConversation(conv.ID)
			printTranscript(conv)
		}
	case ":delete":
		if conv, ok := conversationArg(manager, fields); ok {
			manager.DeleteConversation(conv.ID)
			fmt.Printf("deleted %s\n", conv.Title)
		}
	case ":provider":
		if len(fields) < 2 {
			fmt.Printf("current provider: %s\n", manager.SelectedProvider())
			return false
		}
		manager.SetProvider(models.Provider(fields[1]))
		fmt.Printf("provider: %s\n", manager.SelectedProvider())
	default:
		fmt.Println("unknown command, try :help")
	}
	return false
}

func sendMessage(manager *chat.Manager, content string) {
	draft := models.Draft{
		Content:  content,
		Role:     models.RoleUser,
		Provider: manager.SelectedProvider(),
	}

	if _, err := manager.AppendMessage(manager.ActiveConversationID(), draft); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	manager.Wait()

	if conv, ok := manager.ActiveConversation(); ok {
		printTranscript(conv)
	}
}

func conversationArg(manager *chat.Manager, fields []string) (models.Conversation, bool) {
	if len(fields) < 2 {
		fmt.Println("which conversation? use :list")
		return models.Conversation{}, false
	}
	n, err := strconv.Atoi(fields[1])
	conversations := manager.Conversations()
	if err != nil || n < 1 || n > len(conversations) {
		fmt.Println("no such conversation, use :list")
		return models.Conversation{}, false
	}
	return conversations[n-1], true
}

func printConversations(manager *chat.Manager) {
	conversations := manager.Conversations()
	if len(conversations) == 0 {
		fmt.Println("no conversations yet, type a message or :new")
		return
	}
	activeID := manager.ActiveConversationID()
	for i, conv := range conversations {
		marker := " "
		if conv.ID == activeID {
			marker = "*"
		}
		fmt.Printf("%s %d. %s (%d messages)\n", marker, i+1, conv.Title, len(conv.Messages))
	}
}

func printTranscript(conv models.Conversation) {
	fmt.Printf("--- %s ---\n", conv.Title)
	for _, msg := range conv.Messages {
		body := msg.Content
		for _, att := range msg.Attachments {
			if body != "" {
				body += " "
			}
			body += fmt.Sprintf("[%s: %s]", att.Type, att.URL)
		}
		fmt.Printf("%s: %s\n", msg.Role, body)
	}
}

func printPrompt(manager *chat.Manager) {
	if conv, ok := manager.ActiveConversation(); ok {
		fmt.Printf("[%s|%s] > ", conv.Title, manager.SelectedProvider())
		return
	}
	fmt.Printf("[%s] > ", manager.SelectedProvider())
}
