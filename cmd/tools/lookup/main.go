package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tikdl.local/internal/app/tiktok"
	"tikdl.local/internal/app/tiktok/events"
	"tikdl.local/internal/app/tiktok/viewstate"
	"tikdl.local/internal/platform/config"
)

var Root = &cobra.Command{
	Use:           "tikdl",
	Short:         "resolves TikTok share links into watermark-free media URLs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	cmdLookup := &cobra.Command{
		Use:     "lookup <url>",
		Aliases: []string{"get", "l"},
		Short:   "look up one share link and print the result as JSON",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			proxy, _ := cmd.Flags().GetString("proxy")
			extractor, _ := cmd.Flags().GetString("extractor")
			pretty, _ := cmd.Flags().GetBool("pretty")

			fetcher := tiktok.NewFetcher(&http.Client{Timeout: timeout}, proxy, extractor, cfg.UpstreamMaxBytes)
			st := viewstate.NewController(fetcher, viewstate.WithTimeout(timeout)).Submit(cmd.Context(), args[0])
			return printState(cmd, st, pretty)
		},
	}
	cmdLookup.Flags().Duration("timeout", cfg.LookupTimeout, "give up after this long")
	cmdLookup.Flags().String("proxy", cfg.ProxyBaseURL, "pass-through proxy base URL")
	cmdLookup.Flags().String("extractor", cfg.ExtractorBaseURL, "extractor API base URL")
	cmdLookup.Flags().Bool("pretty", false, "indent the JSON output")
	Root.AddCommand(cmdLookup)

	cmdEvents := &cobra.Command{
		Use:   "events",
		Short: "consume lookup events from kafka and log batch summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			brokers, _ := cmd.Flags().GetString("brokers")
			topic, _ := cmd.Flags().GetString("topic")
			group, _ := cmd.Flags().GetString("group")

			consumer := events.NewKafkaConsumer(strings.Split(brokers, ","), topic, group, events.LogFlush("kafka"))
			defer consumer.Close()
			slog.Info("consuming lookup events", "brokers", brokers, "topic", topic, "group", group)
			consumer.Run(cmd.Context())
			return nil
		},
	}
	cmdEvents.Flags().String("brokers", strings.Join(cfg.KafkaBrokers, ","), "comma separated kafka brokers")
	cmdEvents.Flags().String("topic", cfg.KafkaTopic, "topic to read")
	cmdEvents.Flags().String("group", cfg.ServiceName+"-events-cli", "consumer group id")
	Root.AddCommand(cmdEvents)
}

// lookupFailed carries the error kind out of RunE so main can print it.
type lookupFailed struct {
	kind tiktok.ErrorKind
	msg  string
}

func (e *lookupFailed) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func printState(cmd *cobra.Command, st viewstate.State, pretty bool) error {
	switch st.Status {
	case viewstate.StatusSuccess:
		enc := json.NewEncoder(cmd.OutOrStdout())
		if pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(st.Result)
	case viewstate.StatusError:
		return &lookupFailed{kind: st.ErrKind, msg: st.Err}
	case viewstate.StatusIdle:
		return fmt.Errorf("empty url")
	default:
		return fmt.Errorf("lookup %s did not finish", st.Submission)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err := Root.ExecuteContext(ctx)
	slog.Debug("done", "elapsed_ms", time.Since(start).Milliseconds())
	if err != nil {
		log.Fatal(err)
	}
}
