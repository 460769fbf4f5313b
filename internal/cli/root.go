package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	port       string
	wsPort     string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	if envPort == "" {
		envPort = "8080"
	}
	envWSPort := os.Getenv("WS_PORT")
	if envWSPort == "" {
		envWSPort = "8081"
	}
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   "sk2kahoot",
		Short: "Real-time multiplayer quiz server (TCP line protocol + WebSocket)",
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "TCP port to listen on")
	cmd.PersistentFlags().StringVar(&wsPort, "ws-port", envWSPort, "HTTP port for the WebSocket endpoint")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&configPath, &port, &wsPort))
	return cmd
}
