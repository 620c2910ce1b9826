package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/conneroisu/pandoc-spec/internal/errors"
	"github.com/conneroisu/pandoc-spec/internal/logging"
	"github.com/conneroisu/pandoc-spec/pkg/options"
)

// CopyResources copies the declared CSS and resource files into the output
// directory after a successful run. Remote stylesheet references are
// skipped, relative entries expand as glob patterns against the input
// directory and keep their relative layout, and absolute entries land flat
// at the output root. Copying a file onto itself fails the run.
//
// When output and input directory coincide the rendered document already
// sits next to its resources and nothing happens.
func CopyResources(ctx context.Context, logger logging.Logger, o *options.Resolved) error {
	if o.OutputDirectory == o.InputDirectory {
		return nil
	}

	entries := make([]string, 0, len(o.CSSFiles)+len(o.ResourceFiles))
	for _, css := range o.CSSFiles {
		if options.IsRemote(css) {
			logger.Debug(ctx, "Skipping remote stylesheet", "url", css)
			continue
		}
		entries = append(entries, css)
	}
	entries = append(entries, o.ResourceFiles...)

	for _, entry := range entries {
		if err := copyEntry(ctx, logger, o, entry); err != nil {
			return err
		}
	}

	return nil
}

func copyEntry(ctx context.Context, logger logging.Logger, o *options.Resolved, entry string) error {
	absolute := filepath.IsAbs(entry)

	pattern := entry
	if !absolute {
		pattern = filepath.Join(o.InputDirectory, entry)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return errors.NewCopyError(errors.ErrCodeCopyFailed,
			fmt.Sprintf("bad pattern %q", entry), err)
	}
	if len(matches) == 0 {
		logger.Warn(ctx, nil, "Resource matched nothing", "pattern", entry)
		return nil
	}

	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			return errors.NewCopyError(errors.ErrCodeCopyFailed,
				"could not stat "+match, err)
		}
		if info.IsDir() {
			logger.Debug(ctx, "Skipping directory match", "path", match)
			continue
		}

		var dest string
		if absolute {
			dest = filepath.Join(o.OutputDirectory, filepath.Base(match))
		} else {
			rel, err := filepath.Rel(o.InputDirectory, match)
			if err != nil {
				return errors.NewCopyError(errors.ErrCodeCopyFailed,
					"could not relativize "+match, err)
			}
			dest = filepath.Join(o.OutputDirectory, rel)
		}

		if err := copyFile(match, dest, info); err != nil {
			return err
		}
		logger.Debug(ctx, "Copied resource", "from", match, "to", dest)
	}

	return nil
}

func copyFile(src, dest string, info os.FileInfo) error {
	if filepath.Clean(src) == filepath.Clean(dest) {
		return errors.NewCopyError(errors.ErrCodeCopySelf,
			fmt.Sprintf("cannot copy %s onto itself", src), nil)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.NewCopyError(errors.ErrCodeCopyFailed,
			"could not create "+filepath.Dir(dest), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.NewCopyError(errors.ErrCodeCopyFailed,
			"could not open "+src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.NewCopyError(errors.ErrCodeCopyFailed,
			"could not create "+dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.NewCopyError(errors.ErrCodeCopyFailed,
			"could not copy "+src, err)
	}

	if err := out.Close(); err != nil {
		return errors.NewCopyError(errors.ErrCodeCopyFailed,
			"could not finish "+dest, err)
	}

	return nil
}
