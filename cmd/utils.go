package cmd

import (
	"fmt"
	"time"

	"github.com/qaskills/qas/pkg/client"
	"github.com/qaskills/qas/pkg/config"
	"github.com/qaskills/qas/pkg/storage"
)

// newAPIClient builds the REST client from the loaded configuration.
func newAPIClient(configPath string) (*client.Client, *config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	c := client.NewClient(client.Config{
		BaseURL: cfg.APIURL,
		Timeout: 10 * time.Second,
	})
	return c, cfg, nil
}

// openStore opens the local skills database from the loaded configuration.
func openStore(configPath string) (*storage.Store, *config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	store, err := storage.NewStore(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening skills database: %w", err)
	}
	return store, cfg, nil
}

// reportAPIError prints a short actionable message for a failed API call and
// swallows the error: API failures never crash the CLI and exit normally.
func reportAPIError(err error) error {
	switch {
	case client.IsTimeout(err):
		fmt.Println("The skills API did not respond in time. Check your connection and try again.")
	case client.ErrKind(err) == client.KindNetwork:
		fmt.Println("Could not reach the skills API. Check your connection or QAS_API_URL.")
	case client.IsNotFound(err):
		fmt.Println("Skill not found. Try 'qas search' to find the right name.")
	case client.ErrKind(err) == client.KindHTTP:
		fmt.Printf("The skills API returned an error (HTTP %d): %v\n", client.StatusCode(err), err)
	case client.ErrKind(err) == client.KindParse:
		fmt.Println("The skills API returned an unexpected response. Try again later.")
	default:
		fmt.Printf("Request failed: %v\n", err)
	}
	return nil
}
