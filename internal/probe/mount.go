package probe

import (
	"fmt"
	"os"
	"path/filepath"

	"tasnim.dev/aws-probe/internal/constants"
	"tasnim.dev/aws-probe/internal/logger"
)

// DownloadDir is where the round-trip download lands.
type DownloadDir struct {
	Path string
	// Persistent is true when Path is on the host mount and survives the container.
	Persistent bool
	Warnings   []string
}

// ResolveDownloadDir picks the download directory. With a mount path set it
// prefers <mount>/s3-test-downloads after a throwaway write confirms the
// mount is writable; otherwise it falls back to a directory under tempBase.
func ResolveDownloadDir(mountPath, tempBase string) (DownloadDir, error) {
	fallback := func(warning string) (DownloadDir, error) {
		dir := filepath.Join(tempBase, constants.FallbackDownloadDir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return DownloadDir{}, fmt.Errorf("create download dir: %w", err)
		}
		d := DownloadDir{Path: dir}
		if warning != "" {
			d.Warnings = append(d.Warnings, warning,
				fmt.Sprintf("downloads go to %s and will not survive container teardown", dir))
		}
		return d, nil
	}

	if mountPath == "" {
		return fallback("")
	}

	st, err := os.Stat(mountPath)
	if err != nil {
		return fallback(fmt.Sprintf("host mount %s not found", mountPath))
	}
	if !st.IsDir() {
		return fallback(fmt.Sprintf("host mount %s is not a directory", mountPath))
	}

	probe := filepath.Join(mountPath, constants.WriteTestFile)
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		logger.Log.Debug().Err(err).Str("mount", mountPath).Msg("mount write check failed")
		return fallback(fmt.Sprintf("host mount %s is not writable", mountPath))
	}
	if err := os.Remove(probe); err != nil {
		logger.Log.Warn().Err(err).Str("file", probe).Msg("could not remove write-check file")
	}

	dir := filepath.Join(mountPath, constants.DownloadSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fallback(fmt.Sprintf("cannot create %s", dir))
	}
	return DownloadDir{Path: dir, Persistent: true}, nil
}
