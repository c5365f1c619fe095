package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pawsona/pawsona/internal/models"
	"github.com/pawsona/pawsona/pkg/rag"
)

var (
	chatTypeCode string
	chatModel    string
	chatNoLLM    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the knowledge base in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if st.Count() == 0 {
			color.Yellow("The knowledge base is empty. Run 'pawsona ingest' first.")
		}

		gateway := newGateway(cfg)
		if !chatNoLLM && !gateway.Available() {
			color.Yellow("No OpenRouter API key configured, answers come from retrieval only.")
		}
		composer := newComposer(cfg, st, gateway, logger, nil)

		typeCode := strings.ToUpper(strings.TrimSpace(chatTypeCode))
		if typeCode != "" {
			color.Cyan("\nPawsona care chat for the %s type (type 'exit' to quit)", typeCode)
		} else {
			color.Cyan("\nPawsona care chat (type 'exit' to quit)")
		}

		scanner := bufio.NewScanner(os.Stdin)
		userPrompt := color.New(color.FgGreen).PrintfFunc()
		assistantPrompt := color.New(color.FgCyan).PrintfFunc()
		faint := color.New(color.Faint).PrintfFunc()

		var history []models.ChatMessage
		for {
			userPrompt("\nYou: ")
			if !scanner.Scan() {
				break
			}

			query := strings.TrimSpace(scanner.Text())
			if query == "" {
				continue
			}
			if q := strings.ToLower(query); q == "exit" || q == "quit" {
				break
			}

			spinner := getSpinner(" Thinking...")
			resp := composer.Compose(cmd.Context(), rag.Request{
				Query:        query,
				TypeCode:     typeCode,
				Model:        chatModel,
				UseGenerator: !chatNoLLM,
				History:      history,
			})
			spinner.Finish()

			assistantPrompt("\nPawsona: ")
			fmt.Println(resp.Text)
			if resp.Confidence > 0 {
				faint("(confidence %.2f)\n", resp.Confidence)
			}

			history = append(history,
				models.ChatMessage{Role: models.RoleUser, Content: query},
				models.ChatMessage{Role: models.RoleAssistant, Content: resp.Text},
			)
		}
		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatTypeCode, "type", "", "Pawna type code to scope retrieval (e.g. WTIL)")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "model alias or full OpenRouter model id")
	chatCmd.Flags().BoolVar(&chatNoLLM, "no-llm", false, "answer from retrieved documents only")
}
