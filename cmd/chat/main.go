package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/chatkit"
	"github.com/mrj0nesmtl/loftsdesarts-sub000/internal/store"
)

var (
	serverURL string
	token     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chat",
		Short: "Lofts des Arts messaging console",
	}

	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "messaging server base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token from the identity provider")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your conversations",
		RunE:  runList,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "open <conversation-id>",
		Short: "Open a conversation thread",
		Args:  cobra.ExactArgs(1),
		RunE:  runOpen,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() {
	viper.AddConfigPath("./configs")
	viper.SetConfigName("chat")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Config file is optional; flags and env win.
	_ = viper.ReadInConfig()

	if serverURL == "" {
		serverURL = viper.GetString("server.url")
	}
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	if token == "" {
		token = viper.GetString("auth.token")
	}
}

// viewerID pulls the resident id out of the token. The server verifies
// the signature; the client only needs the subject claim.
func viewerID() (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, fmt.Errorf("no token configured (use --token or auth.token in configs/chat.yaml)")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return uuid.Nil, fmt.Errorf("parsing token: %w", err)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(sub)
}

func newLogger() *zap.SugaredLogger {
	logger, _ := zap.NewProduction()
	return logger.Sugar()
}

func runList(cmd *cobra.Command, args []string) error {
	viewer, err := viewerID()
	if err != nil {
		return err
	}

	gateway := store.NewAPIGateway(serverURL, token, newLogger())
	convs, err := gateway.Conversations(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetching conversations: %w", err)
	}

	if len(convs) == 0 {
		fmt.Println("No conversations yet.")
		return nil
	}

	now := time.Now()
	for _, conv := range convs {
		name := chatkit.DisplayName(&conv, viewer)

		marker := " "
		if conv.Important() {
			marker = "!"
		}
		badge := ""
		if conv.UnreadCount > 0 {
			badge = fmt.Sprintf(" (%d unread)", conv.UnreadCount)
		}

		preview, when := "", ""
		if conv.LastMessage != nil {
			preview = chatkit.Preview(conv.LastMessage.Content)
			when = chatkit.FormatConversationTime(conv.LastMessage.CreatedAt, now)
		}

		fmt.Printf("%s %-36s  %-24s %8s%s\n", marker, conv.ID, name, when, badge)
		if preview != "" {
			fmt.Printf("    %s\n", preview)
		}
	}
	return nil
}

func runOpen(cmd *cobra.Command, args []string) error {
	convID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid conversation id: %w", err)
	}
	if _, err := viewerID(); err != nil {
		return err
	}

	logger := newLogger()
	gateway := store.NewAPIGateway(serverURL, token, logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	view := &threadView{}
	st := store.New(gateway, convID, logger)
	st.SetOnChange(func() { view.render(st.Snapshot()) })
	st.Open(ctx)
	defer st.Close()

	// Opening the thread counts as reading it.
	if err := gateway.MarkRead(ctx, convID); err != nil {
		logger.Warnw("mark read failed", "error", err)
	}

	fmt.Println("Type a message and press enter. Commands: /delete <message-id>, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "/quit":
			return nil

		case strings.HasPrefix(line, "/delete "):
			id, err := uuid.Parse(strings.TrimSpace(strings.TrimPrefix(line, "/delete ")))
			if err != nil {
				fmt.Println("! invalid message id")
				continue
			}
			if err := st.Delete(ctx, id); err != nil {
				fmt.Printf("! delete failed: %v\n", err)
			}

		default:
			if err := st.Send(ctx, line, nil); err != nil {
				fmt.Printf("! send failed: %v\n", err)
			}
		}
	}
	return scanner.Err()
}

// threadView prints the thread incrementally: the grouped history once,
// then each new message and status change as it lands.
type threadView struct {
	mu       sync.Mutex
	rendered int
	loaded   bool
	status   store.ConnectionStatus
	lastDay  string
}

func (v *threadView) render(snap store.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.loaded {
		if snap.Loading {
			return
		}
		v.loaded = true
		if snap.Err != nil {
			fmt.Printf("! could not load history: %v\n", snap.Err)
		}
		for _, group := range chatkit.GroupByDay(snap.Messages) {
			fmt.Printf("--- %s ---\n", group.Label)
			for _, msg := range group.Messages {
				v.printMessage(msg.CreatedAt, msg.SenderName, msg.Content)
			}
			v.lastDay = group.Label
		}
		v.rendered = len(snap.Messages)
		v.status = snap.Status
		return
	}

	if snap.Status != v.status {
		v.status = snap.Status
		fmt.Printf("* %s\n", snap.Status)
	}

	if len(snap.Messages) < v.rendered {
		// A deletion; counts resync without reprinting history.
		v.rendered = len(snap.Messages)
		return
	}

	for _, msg := range snap.Messages[v.rendered:] {
		day := msg.CreatedAt.Local().Format("Monday, January 2, 2006")
		if day != v.lastDay {
			fmt.Printf("--- %s ---\n", day)
			v.lastDay = day
		}
		v.printMessage(msg.CreatedAt, msg.SenderName, msg.Content)
	}
	v.rendered = len(snap.Messages)
}

func (v *threadView) printMessage(at time.Time, sender, content string) {
	if sender == "" {
		sender = chatkit.FallbackName
	}
	fmt.Printf("[%s] %s: %s\n", chatkit.FormatMessageTime(at), sender, content)
}
