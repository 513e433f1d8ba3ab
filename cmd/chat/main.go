// Command chat is a terminal client for the chat gateway.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/tracedchat/chat-gateway/internal/chatclient"
)

func main() {
	_ = godotenv.Load()

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "chat with an LLM through the gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "gateway",
				Value:   chatclient.DefaultGatewayURL,
				Usage:   "gateway base URL",
				Sources: cli.EnvVars("CHAT_GATEWAY_URL"),
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "model to request (gateway default when empty)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log client errors to stderr",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := slog.LevelError + 1
			if cmd.Bool("verbose") {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrWriter, &slog.HandlerOptions{Level: level}))

			client := chatclient.NewHTTPClient(cmd.String("gateway"))
			if err := client.Health(ctx); err != nil {
				logger.Warn("gateway health check failed", slog.String("error", err.Error()))
			}

			w := chatclient.New(client,
				chatclient.WithModel(cmd.String("model")),
				chatclient.WithLogger(logger),
			)
			return repl(ctx, w, cmd.Reader, cmd.Writer)
		},
	}
}

// repl reads one message per line until EOF or "/quit".
func repl(ctx context.Context, w *chatclient.Widget, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "/quit" {
			return nil
		}

		reply, err := w.Submit(ctx, line)
		switch {
		case errors.Is(err, chatclient.ErrEmptyInput):
		case reply.Content != "":
			fmt.Fprintf(out, "assistant: %s\n", reply.Content)
			if id := w.LastTraceID(); id != "" && err == nil {
				fmt.Fprintf(out, "trace: %s\n", id)
			}
		}
		fmt.Fprint(out, "> ")
	}
	fmt.Fprintln(out)
	return scanner.Err()
}
