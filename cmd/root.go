package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kafkaload/internal/banner"
	"kafkaload/internal/publisher"
	"kafkaload/internal/runner"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "kafkaload",
	Short: "kafkaload - synthetic event load for message brokers",
	Long: `
kafkaload publishes synthetic order/payment/inventory events to a broker topic
at a target rate, replaying a share of earlier message ids as duplicates so
consumers can be tested for idempotency.

Commands:
  run      paced load test
  suite    short deterministic smoke test with one known duplicate
  history  runs recorded on this machine`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Println(banner.GetString())
		cmd.Usage()
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, runner.ErrInterrupted):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(runCmd, suiteCmd, historyCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.kafkaload.yaml)")
	pf.String("transport", string(publisher.TransportKafka), "broker transport: kafka, mqtt, nats, redis or sim")
	pf.StringSlice("brokers", []string{"localhost:9092"}, "broker addresses (sim: a latency profile such as sim://fast)")
	pf.StringP("topic", "t", runner.DefaultTopic, "topic, subject or stream to publish to")
	pf.Duration("publish-timeout", publisher.DefaultTimeout, "upper bound on a single publish")
	pf.String("format", "json", "record encoding: json or msgpack")
	pf.String("acks", string(publisher.AcksAll), "kafka acks: all, leader or none")
	pf.String("compression", string(publisher.CompressionGzip), "kafka compression: gzip, snappy, lz4, zstd or none")
	pf.Int("retries", 3, "kafka producer retries per record")
	pf.Bool("auto-create-topic", false, "let the kafka client create a missing topic")
	pf.Int("qos", 1, "mqtt QoS level")
	pf.String("client-id", "", "client id (kafka/mqtt)")
	pf.Uint64("seed", 0, "random seed; 0 picks one")
	pf.String("log-level", "warn", "log level: trace, debug, info, warn, error")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9100")
	pf.String("history-file", "", "run history database (default is $HOME/.kafkaload/history.db)")
	pf.Bool("no-history", false, "do not record this run in the history")
	pf.BoolP("verbose", "v", false, "print a line for every published record")

	if err := viper.BindPFlags(pf); err != nil {
		panic(err)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigType("yaml")
			viper.SetConfigName(".kafkaload")
		}
	}

	viper.SetEnvPrefix("KAFKALOAD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "⚠ config: %v\n", err)
		}
	}
}
