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

package genai_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/genaichat/chat-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const model = "gemini-1.5-flash"

func ExampleGenerativeModel_GenerateContent() {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	model := client.GenerativeModel(model)
	resp, err := model.GenerateContent(ctx, genai.Text("What is the average size of a swallow?"))
	if err != nil {
		log.Fatal(err)
	}

	printResponse(resp)
}

// This example shows how to a configure a model. See [GenerationConfig]
// for the complete set of configuration options.
func ExampleGenerativeModel_GenerateContent_config() {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	model := client.GenerativeModel(model)
	model.SetTemperature(0.9)
	model.SetTopP(0.5)
	model.SetTopK(20)
	model.SetMaxOutputTokens(100)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text("You are Yoda from Star Wars.")}}
	model.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockMediumAndAbove,
		},
	}
	resp, err := model.GenerateContent(ctx, genai.Text("What is the average size of a swallow?"))
	if err != nil {
		var berr *genai.BlockedError
		if errors.As(err, &berr) {
			log.Fatalf("blocked: %v", berr)
		}
		log.Fatal(err)
	}
	printResponse(resp)
}

func ExampleGenerativeModel_GenerateContentStream() {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	model := client.GenerativeModel(model)

	iter := model.GenerateContentStream(ctx, genai.Text("Tell me a story about a lumberjack and his giant ox. Keep it very short."))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		printResponse(resp)
	}
	// The merged response holds the whole story.
	fmt.Println(iter.MergedResponse().Text())
}

// This example uses a StreamObserver to print the text of a response as it
// arrives.
func ExampleGenerateContentResponseIterator_Drain() {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	model := client.GenerativeModel(model)
	iter := model.GenerateContentStream(ctx, genai.Text("Write a haiku about rivers."))
	resp, err := iter.Drain(genai.StreamFuncs{
		Fragment: func(r *genai.GenerateContentResponse) { fmt.Print(r.Text()) },
		Error:    func(err error) { log.Printf("stream failed: %v", err) },
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println()
	if um := resp.UsageMetadata; um != nil {
		fmt.Println("tokens used:", um.TotalTokenCount)
	}
}

func ExampleGenerativeModel_CountTokens() {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	model := client.GenerativeModel(model)

	resp, err := model.CountTokens(ctx, genai.Text("What kind of fish is this?"))
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Num tokens:", resp.TotalTokens)
}

func ExampleChatSession() {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()
	model := client.GenerativeModel(model)
	cs, err := model.StartChat()
	if err != nil {
		log.Fatal(err)
	}

	send := func(msg string) *genai.GenerateContentResponse {
		fmt.Printf("== Me: %s\n== Model:\n", msg)
		res, err := cs.SendMessage(ctx, genai.Text(msg))
		if err != nil {
			log.Fatal(err)
		}
		return res
	}

	res := send("Can you name some brands of air fryer?")
	printResponse(res)
	iter := cs.SendMessageStream(ctx, genai.Text("Which one of those do you recommend?"))
	for {
		res, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
		printResponse(res)
	}

	for i, c := range cs.History() {
		log.Printf("    %d: %+v", i, c)
	}
	res = send("Why do you like the Philips?")
	printResponse(res)
}

// This example starts a chat with earlier turns of a conversation.
func ExampleGenerativeModel_StartChat() {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	model := client.GenerativeModel(model)
	cs, err := model.StartChat(
		genai.NewUserContent(genai.Text("Hello, I have 2 dogs in my house.")),
		&genai.Content{Role: "model", Parts: []genai.Part{genai.Text("Great to meet you. What would you like to know?")}},
	)
	if err != nil {
		log.Fatal(err)
	}
	res, err := cs.SendMessage(ctx, genai.Text("How many paws are in my house?"))
	if err != nil {
		log.Fatal(err)
	}
	printResponse(res)
}

// This example shows how to get the model to call functions that you provide,
// and answer the calls yourself.
func ExampleChatSession_SendMessage_functionCall() {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	model := client.GenerativeModel(model)
	weatherTool := &genai.Tool{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        "CurrentWeather",
			Description: "Get the current weather in a given location",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"location": {
						Type:        genai.TypeString,
						Description: "The city and state, e.g. San Francisco, CA",
					},
					"unit": {
						Type: genai.TypeString,
						Enum: []string{"celsius", "fahrenheit"},
					},
				},
				Required: []string{"location"},
			},
		}},
	}

	model.Tools = []*genai.Tool{weatherTool}
	session, err := model.StartChat()
	if err != nil {
		log.Fatal(err)
	}
	res, err := session.SendMessage(ctx, genai.Text("What is the weather like in New York?"))
	if err != nil {
		log.Fatal(err)
	}
	funcalls := res.FunctionCalls()
	if len(funcalls) == 0 {
		log.Fatal("model did not call a function")
	}
	if funcalls[0].Name != "CurrentWeather" {
		log.Fatalf("unknown function %q", funcalls[0].Name)
	}
	w := getCurrentWeather(funcalls[0].Args["location"])
	resp, err := session.SendMessage(ctx, genai.FunctionResponse{
		Name:     "CurrentWeather",
		Response: map[string]any{"weather_there": w},
	})
	if err != nil {
		log.Fatal(err)
	}
	printResponse(resp)
}

func getCurrentWeather(any) string {
	return "cold"
}

// This example registers a handler, so the session answers the model's
// function calls itself.
func ExampleChatSession_RegisterFunction() {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	model := client.GenerativeModel(model)
	model.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        "lookup_stock",
			Description: "Returns the number of items of a product that are in stock",
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"product": {Type: genai.TypeString}},
				Required:   []string{"product"},
			},
		}},
	}}
	cs, err := model.StartChat()
	if err != nil {
		log.Fatal(err)
	}
	cs.MaxToolRounds = 3
	cs.RegisterFunction("lookup_stock", func(ctx context.Context, args map[string]any) (map[string]any, error) {
		product, _ := args["product"].(string)
		return map[string]any{"product": product, "count": 12}, nil
	})
	res, err := cs.SendMessage(ctx, genai.Text("How many umbrellas do we have?"))
	if err != nil {
		var lerr *genai.ToolLoopExceededError
		if errors.As(err, &lerr) {
			log.Fatalf("gave up after %d rounds", lerr.MaxRounds)
		}
		log.Fatal(err)
	}
	printResponse(res)
}

// This example builds a function declaration, including its handler, from
// a Go function.
func ExampleNewCallableFunctionDeclaration() {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	add, err := genai.NewCallableFunctionDeclaration("add", "Adds two numbers",
		func(a, b float64) float64 { return a + b }, "a", "b")
	if err != nil {
		log.Fatal(err)
	}
	model := client.GenerativeModel(model)
	model.Tools = []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{add}}}
	cs, err := model.StartChat()
	if err != nil {
		log.Fatal(err)
	}
	res, err := cs.SendMessage(ctx, genai.Text("What is 1234 plus 5678?"))
	if err != nil {
		log.Fatal(err)
	}
	printResponse(res)
}

func ExampleClient_ListModels() {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(os.Getenv("GEMINI_API_KEY")))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	iter := client.ListModels(ctx)
	for {
		m, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			panic(err)
		}
		fmt.Println(m.Name, m.Description)
	}
}

func printResponse(resp *genai.GenerateContentResponse) {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			fmt.Println(part)
		}
	}
	fmt.Println("---")
}
