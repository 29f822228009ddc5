package chatbot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Flojomojo/mistral-chat/internal/cache"
	"github.com/Flojomojo/mistral-chat/internal/config"
	"github.com/Flojomojo/mistral-chat/internal/mistral"
	"github.com/Flojomojo/mistral-chat/internal/session"
	"github.com/Flojomojo/mistral-chat/internal/storage"
	"github.com/Flojomojo/mistral-chat/internal/telemetry"
	"github.com/Flojomojo/mistral-chat/internal/ui"
)

// ChatBot represents the main application
type ChatBot struct {
	cfg      *config.Config
	client   *mistral.Client
	store    *storage.Store
	cache    *cache.Cache
	logger   *slog.Logger
	tracer   trace.Tracer
	meter    metric.Meter
	session  *session.Session
	input    *ui.Input
	renderer *ui.Renderer
	out      io.Writer
	mu       sync.Mutex

	// cancel aborts the in-flight stream on Ctrl+C.
	cancel context.CancelFunc

	// cleanup flushes and shuts down the telemetry providers.
	cleanup func()
	// saveWG tracks async session saves so shutdown can join them
	// before the database closes.
	saveWG sync.WaitGroup
}

// NewChatBot creates a new ChatBot instance
func NewChatBot(cfg *config.Config) (*ChatBot, error) {
	logger, err := telemetry.InitLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := context.Background()
	tracer, meter, cleanup, err := telemetry.InitTelemetry(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	dataDir, err := config.EnsureConfigDir()
	if err != nil {
		logger.Warn("failed to create config directory, using temp dir", "error", err)
		dataDir = os.TempDir()
	}

	store, err := storage.Open(filepath.Join(dataDir, "chat.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	client := mistral.NewClient(cfg.API.Key)
	if cfg.API.BaseURL != "" {
		client.SetBaseURL(cfg.API.BaseURL)
	}

	cb := &ChatBot{
		cfg:      cfg,
		client:   client,
		store:    store,
		cache:    cache.New(),
		logger:   logger,
		tracer:   tracer,
		meter:    meter,
		input:    ui.NewInput(filepath.Join(dataDir, "history")),
		renderer: ui.NewRenderer(),
		out:      os.Stdout,
		cleanup:  cleanup,
	}

	if cfg.SessionID != "" {
		sess, err := store.Load(cfg.SessionID)
		if err != nil {
			logger.Warn("failed to load session, creating new one", "error", err)
			cb.session = cb.newSession()
		} else {
			cb.session = sess
			logger.Info("loaded existing session", "session_id", sess.ID)
		}
	} else {
		cb.session = cb.newSession()
	}

	return cb, nil
}

// newSession creates a fresh session with the configured model and system
// message.
func (cb *ChatBot) newSession() *session.Session {
	sess := session.New(cb.cfg.Chat.Model, cb.cfg.Chat.SystemMessage)
	cb.logger.Info("created new session", "session_id", sess.ID, "model", sess.Model)
	return sess
}

// saveSession persists the current session.
func (cb *ChatBot) saveSession() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.store == nil {
		return nil
	}
	if err := cb.store.Save(cb.session); err != nil {
		return err
	}
	cb.logger.Info("session saved", "session_id", cb.session.ID, "message_count", cb.session.Len())
	return nil
}

// recordUsage records OpenTelemetry metrics from usage data
func (cb *ChatBot) recordUsage(ctx context.Context, usage mistral.Usage) {
	counters := map[string]int{
		"llm.usage.prompt_tokens":     usage.PromptTokens,
		"llm.usage.completion_tokens": usage.CompletionTokens,
		"llm.usage.total_tokens":      usage.TotalTokens,
	}

	for name, value := range counters {
		counter, err := cb.meter.Int64Counter(
			name,
			metric.WithDescription(fmt.Sprintf("LLM usage metric: %s", name)),
		)
		if err != nil {
			cb.logger.Warn("failed to create counter", "name", name, "error", err)
			continue
		}
		counter.Add(ctx, int64(value))
	}
}

// recordDuration records the request duration histogram.
func (cb *ChatBot) recordDuration(ctx context.Context, d time.Duration) {
	histogram, err := cb.meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err == nil {
		histogram.Record(ctx, float64(d.Milliseconds()))
	}
}

// sendMessage runs one turn: append the user message, call the API, print
// the reply, append the assistant message. On failure, or when the API
// produces no content, the user message is rolled back so the session only
// ever contains completed turns.
func (cb *ChatBot) sendMessage(ctx context.Context, text string) error {
	ctx, span := cb.tracer.Start(ctx, "chat_completion")
	defer span.End()

	start := time.Now()

	cb.mu.Lock()
	cb.session.Append(session.RoleUser, text)
	messages := cb.session.Snapshot()
	model := cb.session.Model
	cb.mu.Unlock()

	cacheKey := cache.Key(model, messages)
	if cached, ok := cb.cache.Get(cacheKey); ok {
		cb.logger.Info("cache hit", "key", cacheKey[:16])
		cb.printReply(cached)
		cb.mu.Lock()
		cb.session.Append(session.RoleAssistant, cached)
		cb.mu.Unlock()
		return nil
	}

	cb.logger.Debug("sending messages", "count", len(messages), "model", model)

	var reply string
	var usage mistral.Usage
	var err error

	if cb.cfg.Chat.Streamed {
		reply, usage, err = cb.streamTurn(ctx, model, messages)
	} else {
		reply, usage, err = cb.blockingTurn(ctx, model, messages)
	}

	if err != nil {
		cb.mu.Lock()
		cb.session.Rollback()
		cb.mu.Unlock()
		return err
	}

	cb.recordDuration(ctx, time.Since(start))
	cb.recordUsage(ctx, usage)

	if reply == "" {
		// An empty reply never completes a turn, so the user message is
		// rolled back the same way a failed request is.
		cb.logger.Warn("empty reply from API, discarding turn")
		cb.mu.Lock()
		cb.session.Rollback()
		cb.mu.Unlock()
		return nil
	}

	cb.cache.Put(cacheKey, reply)
	cb.mu.Lock()
	cb.session.Append(session.RoleAssistant, reply)
	cb.mu.Unlock()

	cb.saveWG.Add(1)
	go func() {
		defer cb.saveWG.Done()
		if err := cb.saveSession(); err != nil {
			cb.logger.Error("failed to save session", "error", err)
		}
	}()

	return nil
}

// streamTurn prints fragments as they arrive. The printed output is exactly
// the concatenation of the streamed fragments plus a trailing newline.
func (cb *ChatBot) streamTurn(ctx context.Context, model string, messages []session.Message) (string, mistral.Usage, error) {
	fmt.Fprintln(cb.out, ui.AssistantStyle.Render("MISTRAL:"))

	acc := mistral.NewStreamAccumulator()
	err := cb.client.ChatStream(ctx, model, mistral.FromSession(messages), func(chunk mistral.StreamChunk) {
		acc.Add(chunk)
		fmt.Fprint(cb.out, chunk.Content())
	})
	if err != nil {
		fmt.Fprintln(cb.out)
		return "", mistral.Usage{}, err
	}

	fmt.Fprintln(cb.out)
	return acc.Content(), acc.Usage, nil
}

// blockingTurn waits for the full reply and renders it as markdown when
// stdout is a terminal.
func (cb *ChatBot) blockingTurn(ctx context.Context, model string, messages []session.Message) (string, mistral.Usage, error) {
	fmt.Fprintln(os.Stderr, ui.InfoStyle.Render("Generating answer..."))

	resp, err := cb.client.Chat(ctx, model, mistral.FromSession(messages))
	if err != nil {
		return "", mistral.Usage{}, err
	}

	cb.printReply(resp.Content())
	return resp.Content(), resp.Usage, nil
}

// printReply renders a complete reply, markdown-formatted on a TTY.
func (cb *ChatBot) printReply(reply string) {
	fmt.Fprintln(cb.out, ui.AssistantStyle.Render("MISTRAL:"))
	if ui.IsStdoutTTY() {
		fmt.Fprint(cb.out, cb.renderer.Render(reply))
	} else {
		fmt.Fprintln(cb.out, reply)
	}
}

// switchModel changes the active model after validating the name against
// the fixed model list. The session content is untouched either way.
func (cb *ChatBot) switchModel(name string) {
	if name == "" {
		fmt.Fprintln(cb.out, ui.WarnStyle.Render("No model provided"))
		cb.printModels()
		return
	}

	if !config.KnownModel(name) {
		fmt.Fprintln(cb.out, ui.WarnStyle.Render(fmt.Sprintf("Invalid model name %s", name)))
		cb.printModels()
		return
	}

	cb.mu.Lock()
	cb.session.Model = name
	cb.cfg.Chat.Model = name
	cb.mu.Unlock()

	cb.logger.Info("switched model", "model", name)
	fmt.Fprintln(cb.out, ui.CommandStyle.Render(fmt.Sprintf("Successfully switched to model %s", name)))
}

// printModels lists the available models, marking the active one.
func (cb *ChatBot) printModels() {
	fmt.Fprintln(cb.out, "Available models are:")
	for _, model := range config.ModelList {
		marker := "-"
		if model == cb.session.Model {
			marker = "*"
		}
		fmt.Fprintf(cb.out, "\t %s %s\n", marker, model)
	}
}

// startNewChat saves the current session and begins a fresh one.
func (cb *ChatBot) startNewChat() {
	if err := cb.saveSession(); err != nil {
		cb.logger.Error("failed to save current session", "error", err)
	}

	fmt.Fprintln(cb.out, ui.CommandStyle.Render("Starting new chat..."))
	cb.mu.Lock()
	cb.session = cb.newSession()
	cb.mu.Unlock()
	if cb.input != nil {
		cb.input.ClearHistory()
	}
}

// printHelp prints the in-chat command reference.
func (cb *ChatBot) printHelp() {
	fmt.Fprintln(cb.out)
	fmt.Fprintln(cb.out, ui.AssistantStyle.Render("Help"))
	fmt.Fprintln(cb.out, ui.InfoStyle.Render(strings.Repeat("─", 40)))
	fmt.Fprintln(cb.out, "To chat: type your message and hit enter")
	fmt.Fprintln(cb.out, "To start a new chat: /new")
	fmt.Fprintln(cb.out, "To switch models: /model {model_name}")
	fmt.Fprintln(cb.out, "To show this help: /help")
	fmt.Fprintln(cb.out, "To exit: /quit")
	fmt.Fprintln(cb.out)
}

// handleInput dispatches one parsed input. Returns false when the loop
// should exit.
func (cb *ChatBot) handleInput(in Input) bool {
	switch in.Kind {
	case KindEmpty:
		// No API call, no history entry.
		return true

	case KindHelp:
		cb.printHelp()
		return true

	case KindQuit:
		return false

	case KindNewChat:
		cb.startNewChat()
		return true

	case KindSwitchModel:
		cb.switchModel(in.Model)
		return true

	case KindUnknown:
		fmt.Fprintln(cb.out, ui.WarnStyle.Render(fmt.Sprintf("Unknown command %s (type /help for commands)", in.Command)))
		return true

	case KindMessage:
		ctx, cancel := context.WithCancel(context.Background())
		cb.mu.Lock()
		cb.cancel = cancel
		cb.mu.Unlock()
		defer func() {
			cb.mu.Lock()
			cb.cancel = nil
			cb.mu.Unlock()
			cancel()
		}()

		if err := cb.sendMessage(ctx, in.Text); err != nil {
			fmt.Fprintln(cb.out, ui.ErrorStyle.Render(fmt.Sprintf("Error: %v", err)))
			cb.logger.Error("failed to send message", "error", err)
		}
		return true

	default:
		return true
	}
}

// Close joins pending session saves and releases the bot's resources,
// flushing buffered telemetry on the way out.
func (cb *ChatBot) Close() {
	cb.saveWG.Wait()
	if cb.input != nil {
		cb.input.Close()
	}
	if cb.store != nil {
		cb.store.Close()
	}
	if cb.cleanup != nil {
		cb.cleanup()
	}
}

// Run starts the chat loop and blocks until the user quits.
func (cb *ChatBot) Run() error {
	defer cb.Close()

	cb.printHelp()
	fmt.Fprintf(cb.out, "%s %s\n", ui.InfoStyle.Render("Session:"), cb.session.ID)
	fmt.Fprintf(cb.out, "%s %s\n\n", ui.InfoStyle.Render("Model:"), cb.session.Model)

	// Ctrl+C during generation aborts the stream instead of the process.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		for range sigChan {
			cb.mu.Lock()
			cancel := cb.cancel
			cb.cancel = nil
			cb.mu.Unlock()
			if cancel != nil {
				cancel()
				fmt.Fprintln(os.Stderr, ui.WarnStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		line, err := cb.input.ReadLine(ui.PromptStyle.Render("> "))
		if err != nil {
			if ui.ErrAborted(err) {
				fmt.Fprintln(cb.out, ui.InfoStyle.Render("Use /quit to quit"))
				continue
			}
			// EOF (Ctrl+D) or a broken terminal ends the session.
			break
		}

		if !cb.handleInput(ParseInput(line)) {
			break
		}
	}

	if err := cb.saveSession(); err != nil {
		cb.logger.Error("failed to save session on exit", "error", err)
		return err
	}

	fmt.Fprintln(cb.out, ui.InfoStyle.Render("Goodbye!"))
	return nil
}
