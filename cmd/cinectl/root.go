package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"selfcinema/internal/api/client"
	"selfcinema/internal/auth"
)

var (
	cfgFile   string
	apiURL    string
	tokenFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cinectl",
	Short: "Admin CLI for the series/episode catalog backend",
	Long: `cinectl manages the private streaming catalog from the command line:
log in, create and update series and episodes, and mint share links.

Credentials obtained with "cinectl login" are stored on disk and attached
to every subsequent request.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cinectl.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend base URL (default http://localhost:8000)")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "credential file (default $HOME/.cinectl/token)")

	_ = viper.BindPFlag("api-url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("token-file", rootCmd.PersistentFlags().Lookup("token-file"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".cinectl")
	}

	viper.SetEnvPrefix("CINEMA")
	viper.AutomaticEnv()
	viper.SetDefault("api-url", "http://localhost:8000")

	_ = viper.ReadInConfig()
}

func resolvedTokenFile() string {
	if path := viper.GetString("token-file"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cinectl-token"
	}
	return filepath.Join(home, ".cinectl", "token")
}

func newCatalogClient() (*client.Client, *auth.TokenStore) {
	tokens := auth.NewTokenStore(resolvedTokenFile())
	return client.New(viper.GetString("api-url"), tokens), tokens
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
