// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadBatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "work.yaml")
	content := `project_root: /tmp/demo
tool: maven
items:
  - target_file: src/main/java/Main.java
    transformation_kind: Rename Method
  - target_file: src/main/java/Main.java
    transformation_kind: Add Method Annotation
    parameters:
      annotation: "@Deprecated"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	batch, err := loadBatchFile(path)
	if err != nil {
		t.Fatalf("loadBatchFile() error = %v", err)
	}
	if batch.ProjectRoot != "/tmp/demo" {
		t.Errorf("ProjectRoot = %q, want %q", batch.ProjectRoot, "/tmp/demo")
	}
	if batch.Tool != "maven" {
		t.Errorf("Tool = %q, want %q", batch.Tool, "maven")
	}
	if len(batch.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(batch.Items))
	}
	if batch.Items[0].Kind != "Rename Method" {
		t.Errorf("Items[0].Kind = %q, want %q", batch.Items[0].Kind, "Rename Method")
	}
	if got := batch.Items[1].Parameters["annotation"]; got != "@Deprecated" {
		t.Errorf("Items[1].Parameters[annotation] = %q, want %q", got, "@Deprecated")
	}
}

func TestLoadBatchFile_Missing(t *testing.T) {
	_, err := loadBatchFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("loadBatchFile() error = nil for missing file")
	}
}

func TestLoadBatchFile_Garbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "work.yaml")
	if err := os.WriteFile(path, []byte("items: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadBatchFile(path); err == nil {
		t.Fatal("loadBatchFile() error = nil for malformed YAML")
	}
}

func TestSelectTool_ByName(t *testing.T) {
	batch := BatchFile{ProjectRoot: t.TempDir(), Tool: "gradle"}
	tool, err := selectTool(batch)
	if err != nil {
		t.Fatalf("selectTool() error = %v", err)
	}
	if tool.Name != "gradle" {
		t.Errorf("tool.Name = %q, want %q", tool.Name, "gradle")
	}
}

func TestSelectTool_UnknownName(t *testing.T) {
	batch := BatchFile{ProjectRoot: t.TempDir(), Tool: "bazel"}
	if _, err := selectTool(batch); err == nil {
		t.Fatal("selectTool() error = nil for unknown tool")
	}
}

func TestSelectTool_Detect(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "pom.xml"), []byte("<project/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	tool, err := selectTool(BatchFile{ProjectRoot: root})
	if err != nil {
		t.Fatalf("selectTool() error = %v", err)
	}
	if tool.Name != "maven" {
		t.Errorf("tool.Name = %q, want %q", tool.Name, "maven")
	}
}

func TestStartMetricsServer(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# HELP preserve_up always 1\n"))
	})

	srv, addr, err := startMetricsServer(handler, 0)
	if err != nil {
		t.Fatalf("startMetricsServer() error = %v", err)
	}
	defer srv.Close()

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("SplitHostPort(%q) error = %v", addr, err)
	}
	base := "http://127.0.0.1:" + port

	resp, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "# HELP") {
		t.Errorf("body = %q, want prometheus exposition text", body)
	}

	// Anything but /metrics is not served.
	other, err := http.Get(base + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer other.Body.Close()
	if other.StatusCode != http.StatusNotFound {
		t.Errorf("non-metrics path status = %d, want %d", other.StatusCode, http.StatusNotFound)
	}
}

func TestDefaultCLIConfig(t *testing.T) {
	cfg := DefaultCLIConfig()
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Telemetry.MetricExporter != "none" {
		t.Errorf("Telemetry.MetricExporter = %q, want %q", cfg.Telemetry.MetricExporter, "none")
	}
	if cfg.Telemetry.PrometheusPort != 9090 {
		t.Errorf("Telemetry.PrometheusPort = %d, want 9090", cfg.Telemetry.PrometheusPort)
	}
	if !cfg.Pipeline.EnableMetrics {
		t.Error("Pipeline.EnableMetrics = false, want true")
	}
}
