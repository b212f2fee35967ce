// Copyright (C) 2025 Refactor Lab (oss@refactorlab.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package snapshot provides full-copy snapshots of a project tree with
// guaranteed restoration.
//
// A snapshot is an isolated recursive copy of the project root, taken before
// a mutation experiment and restored after it regardless of how the
// experiment ended. Storage lives at a deterministic sibling location per
// root, so at most one snapshot can exist per root at a time; a stale
// directory left by a crashed run is evicted before a new copy is taken.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// storageSuffix is appended to the project root path to form the snapshot
// storage directory. Keeping storage outside the root avoids copying the
// snapshot into itself.
const storageSuffix = ".preserve-snapshot"

// copyWorkers bounds the number of concurrent file copies.
const copyWorkers = 8

// =============================================================================
// HANDLE
// =============================================================================

// Handle names one snapshot of one project root. Treat as opaque: the
// orchestrator owns it for the lifetime of one work item and must Restore
// it on both success and failure paths.
type Handle struct {
	// ID uniquely identifies this snapshot.
	ID string `json:"id"`

	// Root is the project root that was copied.
	Root string `json:"root"`

	// Dir is the storage directory holding the copy.
	Dir string `json:"dir"`

	// TakenAt is when the copy completed.
	TakenAt time.Time `json:"taken_at"`

	// Files is the number of regular files copied.
	Files int `json:"files"`
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager takes and restores project-tree snapshots.
//
// Thread Safety: a Manager is safe for concurrent use across distinct roots.
// Snapshot and Restore against the same root must not overlap; the pipeline's
// strictly sequential per-root discipline is the synchronization.
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a snapshot manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// StorageDir returns the deterministic snapshot storage location for a root.
func StorageDir(root string) string {
	return filepath.Clean(root) + storageSuffix
}

// Snapshot copies the full tree under root into isolated storage.
//
// Description:
//
//	Performs a recursive copy of root into the per-root storage directory.
//	A stale storage directory from a previous run is evicted first rather
//	than erroring. On any copy failure the partial storage is removed
//	before returning, so a failed Snapshot leaves no residue.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	root - Project root directory to copy.
//
// Outputs:
//
//	*Handle - Names the completed snapshot.
//	error - ErrRootNotFound or ErrSnapshotFailed (wrapped with detail).
func (m *Manager) Snapshot(ctx context.Context, root string) (*Handle, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	dir := StorageDir(root)

	// Evict stale storage from a crashed run.
	if _, err := os.Stat(dir); err == nil {
		m.logger.Warn("evicting stale snapshot storage", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("%w: evicting stale storage: %v", ErrSnapshotFailed, err)
		}
	}

	start := time.Now()
	files, err := copyTree(ctx, root, dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: %v", ErrSnapshotFailed, err)
	}

	h := &Handle{
		ID:      uuid.New().String(),
		Root:    filepath.Clean(root),
		Dir:     dir,
		TakenAt: time.Now(),
		Files:   files,
	}

	m.logger.Debug("snapshot taken",
		"snapshot_id", h.ID,
		"root", h.Root,
		"files", files,
		"duration", time.Since(start))

	return h, nil
}

// Restore returns the project root to its snapshotted state and deletes
// the snapshot storage.
//
// Description:
//
//	Deletes the current contents of the root, copies the snapshot back in
//	full, then removes the storage directory. The root ends byte-identical
//	to its pre-snapshot state, including files modified outside the
//	mutation target (project-wide reference edits). Safe to call even if
//	work between Snapshot and Restore crashed partway, and runs to
//	completion even when ctx is already cancelled.
//
// Outputs:
//
//	error - ErrRestoreFailed if the root cannot be re-established. Callers
//	  must treat this as fatal for the root: its contents can no longer be
//	  trusted.
func (m *Manager) Restore(ctx context.Context, h *Handle) error {
	if h == nil {
		return ErrNilHandle
	}

	if _, err := os.Stat(h.Dir); err != nil {
		return fmt.Errorf("%w: storage missing at %s: %v", ErrRestoreFailed, h.Dir, err)
	}

	// Once the root is cleared the copy-back must run to completion: a
	// cancelled caller context (Ctrl-C mid-batch) must not strand an empty
	// root. Restore therefore detaches from cancellation.
	ctx = context.WithoutCancel(ctx)

	start := time.Now()

	if err := clearDir(h.Root); err != nil {
		return fmt.Errorf("%w: clearing root: %v", ErrRestoreFailed, err)
	}

	if _, err := copyTree(ctx, h.Dir, h.Root); err != nil {
		return fmt.Errorf("%w: copying back: %v", ErrRestoreFailed, err)
	}

	if err := os.RemoveAll(h.Dir); err != nil {
		// The root is intact; a leftover storage dir is only a hygiene
		// problem and gets evicted on the next Snapshot.
		m.logger.Warn("failed to remove snapshot storage",
			"snapshot_id", h.ID,
			"dir", h.Dir,
			"error", err)
	}

	m.logger.Debug("snapshot restored",
		"snapshot_id", h.ID,
		"root", h.Root,
		"duration", time.Since(start))

	return nil
}

// Discard removes snapshot storage without touching the root. Used when the
// caller decides to keep the mutated tree (not part of the pipeline's normal
// cycle, which always restores).
func (m *Manager) Discard(h *Handle) error {
	if h == nil {
		return ErrNilHandle
	}
	return os.RemoveAll(h.Dir)
}

// =============================================================================
// TREE COPY
// =============================================================================

// copyTree recursively copies src into dst. Directories and symlinks are
// recreated during the walk; regular file contents are copied concurrently
// with a bounded worker group. Returns the number of regular files copied.
func copyTree(ctx context.Context, src, dst string) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(copyWorkers)

	files := 0
	walkErr := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case info.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case info.Mode().IsRegular():
			files++
			mode := info.Mode().Perm()
			g.Go(func() error {
				return copyFile(path, target, mode)
			})
			return nil
		default:
			// Sockets, devices and the like have no business in a source
			// tree; skip rather than fail the whole snapshot.
			return nil
		}
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}
	if walkErr != nil {
		return 0, walkErr
	}
	return files, nil
}

// copyFile copies one regular file preserving its permission bits.
func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// clearDir removes every entry under dir but keeps dir itself, so the root
// inode (and any process cwd pointing at it) survives a restore.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
