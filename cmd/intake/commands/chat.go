package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/cobra"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/agent"
)

func NewChatCmd(flags *globalFlags) *cobra.Command {
	var (
		sessionID string
		corpusID  string
		keep      int
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, flags)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if corpusID == "" {
				corpusID = a.conf.Server.CorpusID
			}

			intakeAgent := agent.NewAgent(
				"IncentiveIntake",
				"Collects the details of a planned investment and answers incentive questions",
				a.flow,
				corpusID,
			)
			runner := adk.NewRunner(ctx, adk.RunnerConfig{
				Agent: intakeAgent,
			})
			historyStore := agent.NewMemoryHistoryStore(agent.KeepSystemLastNTrimmer{N: keep})
			chatCtx := agent.WithSessionKey(ctx, sessionID)

			out := cmd.OutOrStdout()
			reader := bufio.NewReader(cmd.InOrStdin())
			fmt.Fprintln(out, "Yatırım teşvik asistanına hoş geldiniz. Çıkmak için boş satır girin.")
			for {
				fmt.Fprint(out, "Siz: ")
				input, rErr := reader.ReadString('\n')
				input = strings.TrimSpace(input)
				if input == "" {
					break
				}
				history, hErr := historyStore.Append(chatCtx, schema.UserMessage(input))
				if hErr != nil {
					return hErr
				}
				iter := runner.Run(chatCtx, history)
				for {
					event, ok := iter.Next()
					if !ok {
						break
					}
					if event.Err != nil {
						return event.Err
					}
					msg, mErr := event.Output.MessageOutput.GetMessage()
					if mErr != nil {
						return mErr
					}
					if _, apErr := historyStore.Append(chatCtx, msg); apErr != nil {
						return apErr
					}
					fmt.Fprintf(out, "\nAsistan: %s\n======\n", msg.Content)
				}
				if rErr != nil {
					break
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "cli", "session id used to store the intake session")
	cmd.Flags().StringVar(&corpusID, "corpus", "", "document corpus (overrides server.corpus_id)")
	cmd.Flags().IntVar(&keep, "history", 50, "number of messages kept in the chat history")
	return cmd
}
