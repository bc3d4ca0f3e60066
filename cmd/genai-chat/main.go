// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// genai-chat is a terminal chat client for the genai package.
//
// It reads its configuration from the environment and from a .env file in the
// working directory. Set GEMINI_API_KEY to talk to the Google AI service, or
// OPENAI_API_KEY (and optionally OPENAI_BASE_URL) to talk to a server that
// speaks the OpenAI chat completions protocol.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v9"
	"github.com/genaichat/chat-go/genai"
	"github.com/genaichat/chat-go/internal"
	"github.com/genaichat/chat-go/openaicompat"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
)

type config struct {
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	Model         string `env:"GENAI_MODEL"`
	MaxToolRounds int    `env:"GENAI_MAX_TOOL_ROUNDS" envDefault:"10"`
	Verbosity     int    `env:"GENAI_VERBOSITY" envDefault:"0"`
}

var errNoKey = errors.New("set GEMINI_API_KEY or OPENAI_API_KEY")

// Models used when GENAI_MODEL is not set.
const (
	defaultGeminiModel = "gemini-1.5-flash"
	defaultOpenAIModel = "gpt-4o-mini"
)

// loadConfig parses the configuration from environ, or from the process
// environment if environ is nil. It returns errNoKey if neither backend
// has a key. The default model depends on the backend.
func loadConfig(environ map[string]string) (config, error) {
	var cfg config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return config{}, fmt.Errorf("parsing env config: %w", err)
	}
	if cfg.GeminiAPIKey == "" && cfg.OpenAIAPIKey == "" {
		return config{}, errNoKey
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
		if cfg.useOpenAI() {
			cfg.Model = defaultOpenAIModel
		}
	}
	return cfg, nil
}

func (cfg config) useOpenAI() bool {
	return cfg.OpenAIAPIKey != ""
}

var (
	cfg    config
	logger logr.Logger

	modelFlag string

	rootCmd = &cobra.Command{
		Use:               "genai-chat",
		Short:             "Chat with a generative model from the terminal",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "model name (overrides GENAI_MODEL)")
}

func setup(cmd *cobra.Command, args []string) error {
	// Variables already in the environment take precedence over the file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	var err error
	cfg, err = loadConfig(nil)
	if err != nil {
		return err
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	stdr.SetVerbosity(cfg.Verbosity)
	logger = stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("genai-chat")
	return nil
}

// newModel returns the configured model and a function that releases
// its resources.
func newModel(ctx context.Context) (*genai.GenerativeModel, func() error, error) {
	if cfg.useOpenAI() {
		m := genai.NewGenerativeModel(openaicompat.NewWithBaseURL(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), cfg.Model)
		m.Logger = logger
		return m, func() error { return nil }, nil
	}
	client, err := newClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	return client.GenerativeModel(cfg.Model), client.Close, nil
}

func newClient(ctx context.Context) (*genai.Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("this command needs GEMINI_API_KEY")
	}
	return genai.NewClient(ctx,
		option.WithAPIKey(cfg.GeminiAPIKey),
		genai.WithClientInfo("genai-chat", internal.Version),
		genai.WithLogger(logger))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
