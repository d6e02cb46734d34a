package fsgateway

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalGatewayCheckExistsAndCreateDir(t *testing.T) {
	root := t.TempDir()
	g := NewLocalGateway()
	ctx := context.Background()

	dir := filepath.Join(root, "albums", "trip")
	existed, err := g.CheckExistsAndCreateDir(ctx, dir)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if existed {
		t.Fatalf("expected dir to not have existed")
	}

	existed, err = g.CheckExistsAndCreateDir(ctx, dir)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !existed {
		t.Fatalf("expected dir to already exist")
	}
}

func TestLocalGatewaySaveAndReadTextFile(t *testing.T) {
	root := t.TempDir()
	g := NewLocalGateway()
	ctx := context.Background()

	path := filepath.Join(root, "export_status.json")
	if err := g.SaveFileToDisk(ctx, path, []byte(`{"stage":0}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := g.ReadTextFile(ctx, path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"stage":0}` {
		t.Fatalf("unexpected content: %s", data)
	}
}

func TestLocalGatewaySaveStreamToDisk(t *testing.T) {
	root := t.TempDir()
	g := NewLocalGateway()
	ctx := context.Background()

	path := filepath.Join(root, "IMG_0001.jpg")
	n, err := g.SaveStreamToDisk(ctx, path, strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("save stream: %v", err)
	}
	if n != int64(len("jpeg-bytes")) {
		t.Fatalf("wrote %d bytes, want %d", n, len("jpeg-bytes"))
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed away")
	}
}

func TestLocalGatewayDeleteFolderRequiresEmpty(t *testing.T) {
	root := t.TempDir()
	g := NewLocalGateway()
	ctx := context.Background()

	dir := filepath.Join(root, "trip")
	if _, err := g.CheckExistsAndCreateDir(ctx, dir); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if err := g.DeleteFolder(ctx, dir, false); err == nil {
		t.Fatalf("expected non-empty delete to fail")
	}
	if err := g.DeleteFolder(ctx, dir, true); err != nil {
		t.Fatalf("forced delete: %v", err)
	}
	if exists, _ := g.Exists(ctx, dir); exists {
		t.Fatalf("dir should be gone")
	}
}

func TestLocalGatewaySelectDirectoryAbortsHeadless(t *testing.T) {
	g := NewLocalGateway()
	if _, err := g.SelectDirectory(context.Background()); err == nil {
		t.Fatalf("expected abort error without a PromptDir set")
	}
}
