package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .modkit.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to modkit! Let's configure your host application.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Remote module repository.
	basePrompt := promptui.Prompt{
		Label:   "Remote module repository base URL",
		Default: DefaultRemoteBaseURL,
	}
	baseURL, err := basePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("base URL: %w", err)
	}
	cfg.RemoteBaseURL = baseURL

	// 2. Debug mode.
	debugPrompt := promptui.Select{
		Label: "Load modules from a local checkout (debug mode)?",
		Items: []string{"no", "yes"},
	}
	debugIdx, _, err := debugPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("debug mode: %w", err)
	}
	cfg.DebugMode = debugIdx == 1

	if cfg.DebugMode {
		modulesPrompt := promptui.Prompt{
			Label:   "Local modules directory",
			Default: "./modules",
		}
		modulesPath, err := modulesPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("local modules path: %w", err)
		}
		cfg.LocalPaths.Modules = modulesPath
		cfg.LocalPaths.HTML = modulesPath + "/../html"
		cfg.LocalPaths.Stylesheets = modulesPath + "/../stylesheet"
		cfg.LocalPaths.Store = modulesPath + "/../store"
	}

	// 3. Server port.
	portPrompt := promptui.Prompt{
		Label:   "Management API port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// Save to .modkit.yml.
	configPath := ".modkit.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}
