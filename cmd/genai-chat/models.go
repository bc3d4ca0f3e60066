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
	"fmt"
	"strings"

	"github.com/genaichat/chat-go/genai"
	"github.com/spf13/cobra"
	"google.golang.org/api/iterator"
)

var (
	modelsCmd = &cobra.Command{
		Use:   "models",
		Short: "List the available models (Google AI only)",
		Args:  cobra.NoArgs,
		RunE:  runModels,
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Describe the configured model (Google AI only)",
		Args:  cobra.NoArgs,
		RunE:  runInfo,
	}
	countCmd = &cobra.Command{
		Use:   "count TEXT...",
		Short: "Count the tokens of a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCount,
	}
)

func init() {
	rootCmd.AddCommand(modelsCmd, infoCmd, countCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	out := cmd.OutOrStdout()
	iter := client.ListModels(ctx)
	for {
		m, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-40s %s\n", m.Name, strings.Join(m.SupportedGenerationMethods, ","))
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	info, err := client.GenerativeModel(cfg.Model).Info(ctx)
	if err != nil {
		return err
	}
	printInfo(cmd, info)
	return nil
}

func printInfo(cmd *cobra.Command, info *genai.ModelInfo) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "name:          %s\n", info.Name)
	fmt.Fprintf(out, "display name:  %s\n", info.DisplayName)
	fmt.Fprintf(out, "version:       %s\n", info.Version)
	fmt.Fprintf(out, "input limit:   %d\n", info.InputTokenLimit)
	fmt.Fprintf(out, "output limit:  %d\n", info.OutputTokenLimit)
	if info.Temperature != nil {
		fmt.Fprintf(out, "temperature:   %g\n", *info.Temperature)
	}
	if info.TopP != nil {
		fmt.Fprintf(out, "top p:         %g\n", *info.TopP)
	}
	if info.TopK != nil {
		fmt.Fprintf(out, "top k:         %d\n", *info.TopK)
	}
}

func runCount(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	model, closeModel, err := newModel(ctx)
	if err != nil {
		return err
	}
	defer closeModel()

	res, err := model.CountTokens(ctx, genai.Text(strings.Join(args, " ")))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.TotalTokens)
	return nil
}
