package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/odvcencio/grit/pkg/object"
	"go.uber.org/zap"
)

// WriteTree snapshots the directory at dir, writing every blob and subtree
// to the store and returning the root tree hash. ok is false when nothing
// survives exclusion, in which case no object is written.
//
// Names listed in the config's exclusions (and .git) are skipped at every
// level. Empty subdirectories are omitted from their parent. Any filesystem
// error aborts the whole snapshot.
func (r *Repo) WriteTree(dir string) (h object.Hash, ok bool, err error) {
	cfg := r.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return r.writeTreeDir(dir, cfg.ExcludedNames())
}

// writeTreeDir builds the tree for one directory. Each call owns its entry
// slice; subtrees are written before their parent.
func (r *Repo) writeTreeDir(dir string, excluded map[string]struct{}) (object.Hash, bool, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return object.ZeroHash, false, fmt.Errorf("write tree %s: %w", dir, err)
	}

	var entries []object.TreeEntry
	for _, de := range dirEntries {
		name := de.Name()
		if _, skip := excluded[name]; skip {
			r.logger.Debug("tree walk: excluded", zap.String("path", filepath.Join(dir, name)))
			continue
		}
		p := filepath.Join(dir, name)
		info, err := de.Info()
		if err != nil {
			return object.ZeroHash, false, fmt.Errorf("write tree: stat %s: %w", p, err)
		}

		mode := modeFromFileInfo(info)
		var h object.Hash
		if mode == object.TreeModeDir {
			sub, ok, err := r.writeTreeDir(p, excluded)
			if err != nil {
				return object.ZeroHash, false, err
			}
			if !ok {
				r.logger.Debug("tree walk: empty directory omitted", zap.String("path", p))
				continue
			}
			h = sub
		} else {
			h, err = r.writeBlob(p, info)
			if err != nil {
				return object.ZeroHash, false, fmt.Errorf("write tree: blob %s: %w", p, err)
			}
		}
		entries = append(entries, object.TreeEntry{Mode: mode, Name: name, Hash: h})
	}

	if len(entries) == 0 {
		return object.ZeroHash, false, nil
	}

	h, err := r.Store.WriteBytes(object.TypeTree, object.MarshalTree(entries))
	if err != nil {
		return object.ZeroHash, false, fmt.Errorf("write tree %s: %w", dir, err)
	}
	return h, true, nil
}

// writeBlob stores the content behind a non-directory entry. Regular files
// are streamed; symlinks store their target path. Other special files (fifos,
// sockets, devices) cannot be read without side effects and are stored as
// empty blobs.
func (r *Repo) writeBlob(path string, info fs.FileInfo) (object.Hash, error) {
	switch {
	case info.Mode().IsRegular():
		return r.writeFileBlob(path)
	case info.Mode()&fs.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			return object.ZeroHash, err
		}
		return r.Store.WriteBytes(object.TypeBlob, []byte(filepath.ToSlash(target)))
	default:
		return r.Store.WriteBytes(object.TypeBlob, nil)
	}
}
