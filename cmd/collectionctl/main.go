package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Sternrassler/resource-collection/pkg/client"
	"github.com/Sternrassler/resource-collection/pkg/logging"
	"github.com/Sternrassler/resource-collection/pkg/resource"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "collectionctl",
		Short: "Browse paginated REST resource collections",
		Long: `collectionctl lists paginated resource collections of a JSON REST API
and can serve them over HTTP with Prometheus metrics.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.collectionctl/config.yml)")
	flags.StringP("api", "a", "", "API base URL, e.g. https://acme.zendesk.com/api/v2")
	flags.StringP("token", "t", "", "bearer token")
	flags.String("username", "", "basic auth username")
	flags.String("password", "", "basic auth password")
	flags.String("redis", "", "Redis URL for the shared response cache (optional)")
	flags.String("user-agent", "collectionctl/"+version, "User-Agent header")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("log-pretty", false, "human readable logs")

	for _, name := range []string{"config", "api", "token", "username", "password", "redis", "user-agent", "log-level", "log-pretty"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(newListCommand())
	root.AddCommand(newServeCommand())

	return root
}

func initConfig() error {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home + "/.collectionctl")
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("COLLECTION")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && viper.GetString("config") != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}

	logging.Setup(logging.Config{
		Level:   logging.Level(viper.GetString("log-level")),
		Pretty:  viper.GetBool("log-pretty"),
		Output:  os.Stderr,
		Service: "collectionctl",
	})
	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug().Str("file", used).Msg("Using config file")
	}
	return nil
}

// newAPIClient builds the transport from configuration. The returned close
// function releases the client and the optional Redis connection.
func newAPIClient(ctx context.Context) (*client.Client, func(), error) {
	cfg := client.DefaultConfig(viper.GetString("api"), viper.GetString("user-agent"))
	cfg.Token = viper.GetString("token")
	cfg.Username = viper.GetString("username")
	cfg.Password = viper.GetString("password")

	var rdb *redis.Client
	if addr := viper.GetString("redis"); addr != "" {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			opts = &redis.Options{Addr: addr}
		}
		rdb = redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
		}
		log.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
		cfg.Redis = rdb
	}

	api, err := client.New(cfg)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, err
	}

	return api, func() {
		_ = api.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
	}, nil
}

// kindFor derives the resource type from the last non-numeric path segment,
// e.g. "users/5/tickets" → tickets.
func kindFor(collectionPath, modelKey string) *resource.Kind {
	p := strings.Trim(collectionPath, "/")
	name := path.Base(p)
	for _, seg := range slices.Backward(strings.Split(p, "/")) {
		if seg != "" && strings.Trim(seg, "0123456789") != "" {
			name = seg
			break
		}
	}

	var opts []resource.KindOption
	if modelKey != "" {
		opts = append(opts, resource.WithModelKey(modelKey))
	}
	return resource.NewKind(name, opts...)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
