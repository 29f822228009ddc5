package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Flojomojo/mistral-chat/internal/chatbot"
	"github.com/Flojomojo/mistral-chat/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var apiKey, model, systemMessage string

	flag.StringVar(&apiKey, "api-key", "", "Mistral API key (defaults to the "+config.EnvAPIKey+" environment variable)")
	flag.StringVar(&model, "model", "", "Model for chat inference ("+config.ModelTiny+"|"+config.ModelSmall+"|"+config.ModelMedium+")")
	flag.StringVar(&model, "m", "", "Shorthand for -model")
	flag.StringVar(&systemMessage, "system-message", "", "Optional system message prepended to each chat")
	flag.StringVar(&systemMessage, "s", "", "Shorthand for -system-message")
	flag.BoolVar(&cfg.Chat.Streamed, "streamed", cfg.Chat.Streamed, "Print tokens as they arrive instead of a markdown panel")
	flag.StringVar(&cfg.SessionID, "session-id", "", "Load an existing session by ID")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&cfg.Debug, "d", cfg.Debug, "Shorthand for -debug")
	flag.Parse()

	// Flags beat environment and config file.
	if apiKey != "" {
		cfg.API.Key = apiKey
	}
	if model != "" {
		cfg.Chat.Model = model
	}
	if systemMessage != "" {
		cfg.Chat.SystemMessage = systemMessage
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	bot, err := chatbot.NewChatBot(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize chatbot: %v\n", err)
		os.Exit(1)
	}

	if err := bot.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
