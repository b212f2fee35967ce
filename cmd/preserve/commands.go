// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

var (
	batchPath    string
	outPath      string
	rootOverride string
	toolOverride string

	rootCmd = &cobra.Command{
		Use:   "preserve",
		Short: "Measure behavior preservation of automated Java refactorings",
		Long: `Preserve applies source transformations to a Java project one at a
time, reruns the project's test suite after each, and scores how many
previously passing tests still pass. The tree is snapshotted before and
restored after every item.`,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a batch of work items against a project",
		RunE:  runBatch, // Defined in cmd_run.go
	}

	kindsCmd = &cobra.Command{
		Use:   "kinds",
		Short: "List the transformation catalogue",
		Run:   runKinds, // Defined in cmd_run.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the config file")

	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&batchPath, "batch", "", "Path to the batch YAML file (required)")
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the JSON batch result to this file instead of stdout")
	runCmd.Flags().StringVar(&rootOverride, "root", "", "Override the project root from the batch file")
	runCmd.Flags().StringVar(&toolOverride, "tool", "", "Override the build tool (maven, gradle); default is marker-file detection")
	_ = runCmd.MarkFlagRequired("batch")

	rootCmd.AddCommand(kindsCmd)
}
