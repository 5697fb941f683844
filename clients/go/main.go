// Command line client for the chat API.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/joeychilson/chat/clients/go/chat"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client := chat.NewClient(os.Getenv("CHAT_URL"))
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "models":
		resp, err := client.ListModels()
		exitOnError(err)
		for _, m := range resp {
			fmt.Printf("  %-28s %-8s %-8s %s\n", m.ID, m.Type, m.Provider, m.Name)
		}

	case "chats":
		resp, err := client.ListChats(50, 0)
		exitOnError(err)
		for _, c := range resp {
			pin := " "
			if c.Pinned {
				pin = "*"
			}
			fmt.Printf("%s %s  %s  %s\n", pin, c.ID, c.LastMessageAt.Format("2006-01-02 15:04"), c.Title)
		}

	case "show":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: chat show <chat_id>")
			os.Exit(1)
		}
		resp, err := client.GetChat(os.Args[2])
		exitOnError(err)
		fmt.Printf("# %s\n\n", resp.Chat.Title)
		for _, msg := range resp.Messages {
			fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Format("15:04:05"), msg.Role, msg.Text())
		}

	case "send":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: chat send <model_id> <message> [chat_id]")
			os.Exit(1)
		}
		chatID := uuid.NewString()
		var history []chat.Message
		if len(os.Args) > 4 {
			chatID = os.Args[4]
			prev, err := client.GetChat(chatID)
			exitOnError(err)
			history = prev.Messages
		}
		history = append(history, chat.Message{
			ID:   uuid.NewString(),
			Role: "user",
			Parts: []chat.Part{
				{Type: "text", Text: os.Args[3]},
			},
		})
		err := client.Generate(chat.GenerateRequest{
			ChatID:   chatID,
			Model:    map[string]any{"id": os.Args[2]},
			Messages: history,
		}, printEvent)
		exitOnError(err)

	case "resume":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: chat resume <chat_id>")
			os.Exit(1)
		}
		resumed, err := client.ResumeStream(os.Args[2], printEvent)
		exitOnError(err)
		if !resumed {
			fmt.Println("no generation in progress")
		}

	case "branch":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: chat branch <message_id>")
			os.Exit(1)
		}
		resp, err := client.Branch(os.Args[2])
		exitOnError(err)
		fmt.Printf("Branched into: %s\n", resp.ChatID)

	case "retry":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: chat retry <message_id> <model_id>")
			os.Exit(1)
		}
		resp, err := client.Retry(os.Args[2], os.Args[3])
		exitOnError(err)
		fmt.Printf("Retrying in: %s\n", resp.ChatID)

	case "search":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: chat search <query>")
			os.Exit(1)
		}
		resp, err := client.SearchChats(os.Args[2], 20)
		exitOnError(err)
		for _, c := range resp {
			fmt.Printf("%s  %s  %s\n", c.ID, c.LastMessageAt.Format(time.DateOnly), c.Title)
		}

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

// printEvent renders stream events as they arrive. Text deltas go straight
// to stdout; artifacts print their URL.
func printEvent(ev chat.Event) error {
	switch ev.Type {
	case "text-delta":
		fmt.Print(ev.Delta)
	case "file":
		fmt.Printf("[%s] %s\n", ev.MediaType, ev.URL)
	case "finish":
		fmt.Println()
	case "error":
		fmt.Fprintf(os.Stderr, "\nError: %s\n", ev.Message)
	}
	return nil
}

func usage() {
	fmt.Println(`chat - command line client for the chat API

Usage: chat <command> [options]

Commands:
  send <model> <msg> [chat]  Generate a reply (streams to stdout)
  resume <chat_id>           Reattach to an in-flight generation
  chats                      List chats
  show <chat_id>             Show a chat's messages
  branch <message_id>        Branch a chat at a message
  retry <message_id> <model> Retry from a message with another model
  search <query>             Search chats
  models                     List available models
  health                     Check server health

Environment:
  CHAT_URL     Server URL (default: http://localhost:8080)
  CHAT_TOKEN   Session bearer token`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
