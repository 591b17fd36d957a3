package main

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	apperrors "github.com/FocuswithJustin/sqlexpress/core/errors"
	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
	"github.com/FocuswithJustin/sqlexpress/internal/logging"
	"github.com/FocuswithJustin/sqlexpress/internal/snapshot"
	"github.com/FocuswithJustin/sqlexpress/internal/ui"
	"github.com/FocuswithJustin/sqlexpress/internal/validation"
)

// SnapshotCmd groups the snapshot subcommands.
type SnapshotCmd struct {
	Save SnapshotSaveCmd `cmd:"" help:"Write a compressed, checksummed snapshot of the database."`
	Load SnapshotLoadCmd `cmd:"" help:"Restore a snapshot into a new database file."`
	Info SnapshotInfoCmd `cmd:"" help:"Print a snapshot's manifest."`
}

// SnapshotSaveCmd writes a snapshot of the configured database.
type SnapshotSaveCmd struct {
	Schema string `name:"schema" default:"main" help:"Schema to serialize."`
	Out    string `arg:"" help:"Snapshot file to write." type:"path"`
}

func (c *SnapshotSaveCmd) Run(g *Globals) (err error) {
	if err := g.setup(); err != nil {
		return err
	}
	conn, err := g.open()
	if err != nil {
		return err
	}
	defer g.close(conn, &err)

	m, err := snapshot.SaveFile(conn, c.Schema, c.Out)
	if err != nil {
		return err
	}
	logging.SnapshotWritten(g.ctx, "save", c.Out, m.Size, "blake3", m.BLAKE3)
	ui.Success(g.stdout(), "saved %s bytes from %s to %s", ui.CountText(m.Size), conn.Location(), c.Out)
	return nil
}

// SnapshotLoadCmd restores a snapshot into the database file named by
// --db. The image is verified in memory first, then written out with
// VACUUM INTO, so the target must not exist unless --force is given.
type SnapshotLoadCmd struct {
	Force bool   `name:"force" short:"f" help:"Replace an existing database file."`
	In    string `arg:"" help:"Snapshot file to restore." type:"existingfile"`
}

func (c *SnapshotLoadCmd) Run(g *Globals) (err error) {
	if err := g.setup(); err != nil {
		return err
	}
	target := g.cfg.Location()
	if target == sqlite.Memory || target == "" {
		return &apperrors.ValidationError{Field: "database.path", Value: target, Message: "snapshot load needs a database file"}
	}
	switch _, statErr := os.Stat(target); {
	case statErr == nil && !c.Force:
		return &apperrors.ValidationError{Field: "database.path", Value: target, Message: "already exists (use --force to replace it)"}
	case statErr == nil:
		if err := os.Remove(target); err != nil {
			return apperrors.NewIO("remove", target, err)
		}
	case !errors.Is(statErr, fs.ErrNotExist):
		return apperrors.NewIO("stat", target, statErr)
	}

	if err := validation.CheckFile(c.In, validation.FileTypeSnapshot, 0); err != nil {
		return err
	}

	mem, err := sqlite.Open(sqlite.Memory, sqlite.OpenDefault, g.cfg.Options()...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := mem.Close(); err == nil {
			err = cerr
		}
	}()

	m, err := snapshot.LoadFile(mem, "main", c.In)
	if err != nil {
		return err
	}
	if err := mem.Exec("VACUUM main INTO ?", target); err != nil {
		return err
	}
	logging.SnapshotWritten(g.ctx, "load", c.In, m.Size, "target", target)
	ui.Success(g.stdout(), "restored %s bytes from %s into %s", ui.CountText(m.Size), c.In, target)
	return nil
}

// SnapshotInfoCmd prints a snapshot manifest as YAML without restoring it.
type SnapshotInfoCmd struct {
	In string `arg:"" help:"Snapshot file to inspect." type:"existingfile"`
}

func (c *SnapshotInfoCmd) Run(g *Globals) error {
	if err := validation.CheckFile(c.In, validation.FileTypeSnapshot, 0); err != nil {
		return err
	}
	f, err := os.Open(c.In)
	if err != nil {
		return apperrors.NewIO("open", c.In, err)
	}
	defer f.Close()

	m, err := snapshot.ReadManifest(f)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	_, err = g.stdout().Write(data)
	return err
}
