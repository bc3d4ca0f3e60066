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

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/genaichat/chat-go/genai"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	chatSystem      string
	chatNoStream    bool
	chatRecordCalls bool

	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		Long: `chat reads messages from standard input, one per line, and prints the
model's replies. The model can call two local functions: add, which adds
two integers, and now, which reports the current time.

Lines starting with a slash are commands:
  /history  print the conversation so far
  /tokens   count the tokens of the conversation
  /quit     end the chat`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}
)

func init() {
	chatCmd.Flags().StringVarP(&chatSystem, "system", "s", "", "system instruction")
	chatCmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "wait for each complete reply")
	chatCmd.Flags().BoolVar(&chatRecordCalls, "record-calls", false, "keep function calls in the history")
	rootCmd.AddCommand(chatCmd)
}

// chatTools returns the functions the model may call.
func chatTools() ([]*genai.Tool, error) {
	add, err := genai.NewCallableFunctionDeclaration("add", "Adds two integers.",
		func(a, b int) int { return a + b }, "a", "b")
	if err != nil {
		return nil, err
	}
	now, err := genai.NewCallableFunctionDeclaration("now", "Returns the current local time in RFC 3339 format.",
		func() string { return time.Now().Format(time.RFC3339) })
	if err != nil {
		return nil, err
	}
	return []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{add, now}}}, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	model, closeModel, err := newModel(ctx)
	if err != nil {
		return err
	}
	defer closeModel()

	if chatSystem != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(chatSystem)}}
	}
	if model.Tools, err = chatTools(); err != nil {
		return err
	}
	cs, err := model.StartChat()
	if err != nil {
		return err
	}
	cs.MaxToolRounds = cfg.MaxToolRounds
	cs.RecordFunctionCalls = chatRecordCalls

	r := &repl{
		cs:     cs,
		out:    cmd.OutOrStdout(),
		prompt: term.IsTerminal(int(os.Stdin.Fd())),
	}
	return r.run(ctx, cmd.InOrStdin())
}

type repl struct {
	cs     *genai.ChatSession
	out    io.Writer
	prompt bool
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		if r.prompt {
			fmt.Fprint(r.out, "> ")
		}
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return nil
		case "/history":
			r.printHistory()
			continue
		case "/tokens":
			n, err := r.cs.CountTokens(ctx)
			if err != nil {
				fmt.Fprintf(r.out, "error: %v\n", err)
			} else {
				fmt.Fprintf(r.out, "%d tokens\n", n.TotalTokens)
			}
			continue
		}
		if err := r.send(ctx, line); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if !recoverable(err) {
				return err
			}
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}
}

// send sends one message and prints the reply.
func (r *repl) send(ctx context.Context, msg string) error {
	if chatNoStream {
		resp, err := r.cs.SendMessage(ctx, genai.Text(msg))
		if err != nil {
			return err
		}
		fmt.Fprintln(r.out, resp.Text())
		return nil
	}
	iter := r.cs.SendMessageStream(ctx, genai.Text(msg))
	_, err := iter.Drain(genai.StreamFuncs{
		Fragment: func(resp *genai.GenerateContentResponse) {
			fmt.Fprint(r.out, resp.Text())
		},
	})
	fmt.Fprintln(r.out)
	return err
}

// recoverable reports whether the chat can go on after err. The history is
// unchanged after a failed send, so the user can try again.
func recoverable(err error) bool {
	var (
		blocked *genai.BlockedError
		loop    *genai.ToolLoopExceededError
		tool    *genai.ToolError
		unknown *genai.UnknownToolError
		invalid *genai.InvalidContentError
		tperr   *genai.TransportError
	)
	return errors.As(err, &blocked) ||
		errors.As(err, &loop) ||
		errors.As(err, &tool) ||
		errors.As(err, &unknown) ||
		errors.As(err, &invalid) ||
		errors.As(err, &tperr) ||
		errors.Is(err, genai.ErrNoContent)
}

func (r *repl) printHistory() {
	for _, c := range r.cs.History() {
		for _, p := range c.Parts {
			switch p := p.(type) {
			case genai.Text:
				fmt.Fprintf(r.out, "%s: %s\n", c.Role, p)
			case genai.FunctionCall:
				fmt.Fprintf(r.out, "%s: call %s(%v)\n", c.Role, p.Name, p.Args)
			case genai.FunctionResponse:
				fmt.Fprintf(r.out, "%s: %s returned %v\n", c.Role, p.Name, p.Response)
			default:
				fmt.Fprintf(r.out, "%s: %T\n", c.Role, p)
			}
		}
	}
}
