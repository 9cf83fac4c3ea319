package messages

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/snowfork/lane-relayer/chain/ethereum"
	"github.com/snowfork/lane-relayer/chain/lanes"
	"github.com/snowfork/lane-relayer/chain/parachain"
	"github.com/snowfork/lane-relayer/relays/messages"
)

var (
	configFile              string
	substratePrivateKey     string
	substratePrivateKeyFile string
	ethereumPrivateKey      string
	ethereumPrivateKeyFile  string
	metricsEndpoint         string
	logLevel                string
)

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Start the lane message relay",
		Args:  cobra.ExactArgs(0),
		RunE:  run,
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to configuration file")
	cmd.MarkFlagRequired("config")

	cmd.Flags().StringVar(&substratePrivateKey, "substrate.private-key", "", "Private key URI for Substrate")
	cmd.Flags().StringVar(&substratePrivateKeyFile, "substrate.private-key-file", "", "The file from which to read the private key URI")
	cmd.Flags().StringVar(&ethereumPrivateKey, "ethereum.private-key", "", "Ethereum private key")
	cmd.Flags().StringVar(&ethereumPrivateKeyFile, "ethereum.private-key-file", "", "The file from which to read the private key")

	cmd.Flags().StringVar(&metricsEndpoint, "metrics-endpoint", "", "Serve prometheus metrics on this address, e.g. :9090")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")

	return cmd
}

func run(_ *cobra.Command, _ []string) error {
	log.SetOutput(logrus.WithFields(logrus.Fields{"logger": "stdlib"}).WriterLevel(logrus.InfoLevel))
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		return err
	}

	var config messages.Config
	err = viper.Unmarshal(&config, viper.DecodeHook(HexHookFunc()))
	if err != nil {
		return err
	}

	err = config.Validate()
	if err != nil {
		return fmt.Errorf("config file validation failed: %w", err)
	}

	keys, err := resolveKeys(&config)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	relay, err := messages.NewRelay(&config, keys, registry)
	if err != nil {
		return err
	}
	defer func() {
		err := relay.Close()
		if err != nil {
			logrus.WithError(err).Error("Failed to close watermark store")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	// Ensure clean termination upon SIGINT, SIGTERM
	eg.Go(func() error {
		notify := make(chan os.Signal, 1)
		signal.Notify(notify, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-notify:
			logrus.WithField("signal", sig.String()).Info("Received signal")
			cancel()
		}

		return nil
	})

	if metricsEndpoint != "" {
		serveMetrics(ctx, eg, registry)
	}

	err = relay.Start(ctx, eg)
	if err != nil {
		logrus.WithError(err).Error("Unhandled error")
		cancel()
		return err
	}

	err = eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithError(err).Error("Unhandled error")
		return err
	}

	return nil
}

// Keys are only required for the chain families the relay submits to.
func resolveKeys(config *messages.Config) (messages.Keys, error) {
	var keys messages.Keys

	// Delivery submits to the target and names the source account as the
	// relayer to reward; confirmation submits to the source.
	kinds := make(map[string]bool)
	if config.Delivery.Enabled {
		kinds[config.Target.Kind] = true
		kinds[config.Source.Kind] = true
	}
	if config.Confirmation.Enabled {
		kinds[config.Source.Kind] = true
	}

	if kinds[messages.KindSubstrate] || substratePrivateKey != "" || substratePrivateKeyFile != "" {
		keypair, err := parachain.ResolvePrivateKey(substratePrivateKey, substratePrivateKeyFile)
		if err != nil {
			return keys, fmt.Errorf("substrate key: %w", err)
		}
		keys.Substrate = keypair
	}
	if kinds[messages.KindEthereum] || ethereumPrivateKey != "" || ethereumPrivateKeyFile != "" {
		keypair, err := ethereum.ResolvePrivateKey(ethereumPrivateKey, ethereumPrivateKeyFile)
		if err != nil {
			return keys, fmt.Errorf("ethereum key: %w", err)
		}
		keys.Ethereum = keypair
	}

	return keys, nil
}

func serveMetrics(ctx context.Context, eg *errgroup.Group, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	server := &http.Server{
		Addr:              metricsEndpoint,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	eg.Go(func() error {
		logrus.WithField("endpoint", metricsEndpoint).Info("Serving metrics")
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
}

func HexHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		// Check that the data is string
		if f.Kind() != reflect.String {
			return data, nil
		}

		// Check that the target type is our custom type
		if t != reflect.TypeOf(lanes.LaneID{}) {
			return data, nil
		}

		lane, err := lanes.ParseLaneID(data.(string))
		if err != nil {
			return nil, err
		}

		// Return the parsed value
		return lane, nil
	}
}
