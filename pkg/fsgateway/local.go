package fsgateway

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mirrorkit/photomirror/pkg/model"
)

// LocalGateway implements FsGateway against the local OS filesystem.
// Grounded on pkg/storage/local.go's implementation idioms (filepath.Abs
// rooting, os.MkdirAll parent creation, atomic-ish writes).
type LocalGateway struct {
	// PromptDir, when set, is called by SelectDirectory instead of
	// failing with ErrSelectFolderAborted. Headless runs leave this nil.
	PromptDir func(ctx context.Context) (string, error)
}

// NewLocalGateway returns a LocalGateway ready for use.
func NewLocalGateway() *LocalGateway {
	return &LocalGateway{}
}

func (g *LocalGateway) SelectDirectory(ctx context.Context) (string, error) {
	if g.PromptDir == nil {
		return "", model.NewError("LocalGateway.SelectDirectory", model.ErrSelectFolderAborted, nil)
	}
	return g.PromptDir(ctx)
}

func (g *LocalGateway) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("fsgateway: stat %s: %w", path, err)
}

func (g *LocalGateway) CheckExistsAndCreateDir(ctx context.Context, path string) (bool, error) {
	existed, err := g.Exists(ctx, path)
	if err != nil {
		return false, err
	}
	if existed {
		return true, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, fmt.Errorf("fsgateway: mkdir %s: %w", path, err)
	}
	return false, nil
}

func (g *LocalGateway) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("fsgateway: rename mkdir %s: %w", filepath.Dir(newPath), err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("fsgateway: rename %s -> %s: %w", oldPath, newPath, err)
	}
	return nil
}

func (g *LocalGateway) MoveFile(ctx context.Context, srcPath, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("fsgateway: move mkdir %s: %w", filepath.Dir(destPath), err)
	}
	if err := os.Rename(srcPath, destPath); err == nil {
		return nil
	}
	// Cross-device rename fails with EXDEV; fall back to copy+remove.
	if err := copyFile(srcPath, destPath); err != nil {
		return fmt.Errorf("fsgateway: move copy %s -> %s: %w", srcPath, destPath, err)
	}
	if err := os.Remove(srcPath); err != nil {
		return fmt.Errorf("fsgateway: move cleanup %s: %w", srcPath, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func (g *LocalGateway) DeleteFile(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("fsgateway: delete file %s: %w", path, err)
	}
	return nil
}

func (g *LocalGateway) DeleteFolder(ctx context.Context, path string, force bool) error {
	if !force {
		entries, err := os.ReadDir(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("fsgateway: read dir %s: %w", path, err)
		}
		if len(entries) > 0 {
			return model.NewError("LocalGateway.DeleteFolder", model.ErrCollectionNotEmpty, nil)
		}
		return os.Remove(path)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("fsgateway: delete folder %s: %w", path, err)
	}
	return nil
}

func (g *LocalGateway) SaveFileToDisk(ctx context.Context, path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("fsgateway: save mkdir %s: %w", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("fsgateway: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("fsgateway: finalize %s: %w", path, err)
	}
	return nil
}

func (g *LocalGateway) SaveStreamToDisk(ctx context.Context, path string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("fsgateway: save mkdir %s: %w", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("fsgateway: create %s: %w", tmp, err)
	}
	n, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(tmp)
		return n, fmt.Errorf("fsgateway: write %s: %w", tmp, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmp)
		return n, fmt.Errorf("fsgateway: close %s: %w", tmp, closeErr)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return n, fmt.Errorf("fsgateway: finalize %s: %w", path, err)
	}
	return n, nil
}

func (g *LocalGateway) ReadTextFile(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fsgateway: read %s: %w", path, err)
	}
	return data, nil
}

func (g *LocalGateway) ListDir(ctx context.Context, path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("fsgateway: read dir %s: %w", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
