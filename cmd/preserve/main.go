// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command preserve measures whether automated Java refactorings preserve
// behavior. It snapshots a project, applies one transformation per work
// item, reruns the project's test suite, scores the before/after results,
// and restores the tree.
//
// Usage:
//
//	preserve run --batch work.yaml
//	preserve run --batch work.yaml --out verdicts.json
//	preserve kinds
package main

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var config Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		config = DefaultCLIConfig()

		yamlFile, err := os.ReadFile(configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				// Defaults apply when no config file is present.
				return
			}
			log.Fatalf("Error reading %s: %v", configPath, err)
		}

		if err := yaml.Unmarshal(yamlFile, &config); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
	}
}
