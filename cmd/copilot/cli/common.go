package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/affiliateai/copilot/internal/adapter"
	"github.com/affiliateai/copilot/internal/credential"
	"github.com/affiliateai/copilot/internal/observe"
	"github.com/affiliateai/copilot/internal/registry"
	"github.com/affiliateai/copilot/internal/store"
	"github.com/affiliateai/copilot/internal/translator"
)

func copilotDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".copilot")
}

func getStore() store.Storage {
	mgr, err := credential.NewManager()
	if err != nil {
		fmt.Printf("Warning: secrets will be stored unencrypted: %v\n", err)
		mgr = nil
	}
	storeLayer, err := store.NewSQLiteStore(filepath.Join(copilotDir(), "library.db"), mgr)
	if err != nil {
		fmt.Printf("Failed to init store: %v\n", err)
		os.Exit(1)
	}
	return storeLayer
}

func newObserver() *observe.Observer {
	if jsonOutput {
		return observe.NewJSON(os.Stderr, verbose)
	}
	return observe.New(os.Stderr, verbose)
}

// buildRegistry loads the default providers plus any overrides from
// ~/.copilot/providers.yaml.
func buildRegistry() (*registry.Registry, error) {
	r := registry.Default()
	o, err := registry.LoadOverrides(filepath.Join(copilotDir(), "providers.yaml"))
	if err != nil {
		return nil, err
	}
	if err := r.Apply(o); err != nil {
		return nil, err
	}
	return r, nil
}

func newAssistant(obs *observe.Observer) (*adapter.Assistant, *registry.Registry, error) {
	r, err := buildRegistry()
	if err != nil {
		return nil, nil, err
	}
	return adapter.New(adapter.WithRegistry(r), adapter.WithObserver(obs)), r, nil
}

// resolveCredential picks the key for a provider: the --key flag wins,
// then the stored secret, then the conventional environment variable.
func resolveCredential(s store.Storage, id string) string {
	if apiKey != "" {
		return apiKey
	}
	if id == "" {
		id = registry.DefaultTextProvider
	}
	if s != nil {
		if key, err := s.GetSecret(id); err == nil && key != "" {
			return key
		}
	}
	return os.Getenv(envVarFor(id))
}

func envVarFor(id string) string {
	return strings.ToUpper(id) + "_API_KEY"
}

func generationOptions() translator.Options {
	return translator.Options{Model: modelName, Tier: tierName}
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to render result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func fatal(obs *observe.Observer, err error, msg string) {
	obs.Log().Fatal().Err(err).Msg(msg)
}
