package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ds124wfegd/cartoonizer/internal/entity"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/cartoon"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/codec"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/packager"
	"github.com/ds124wfegd/cartoonizer/internal/pkg/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type convertOptions struct {
	outDir   string
	zip      bool
	original bool
	parallel bool
	style    string
	seed     uint64
	force    bool
}

func newConvertCmd() *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert <image>",
		Short: "Render every style of an image into a directory",
		Long: `Decodes the image (jpeg, png, webp, bmp or gif), runs the five cartoon
styles and writes one PNG per style. With --zip the styles are bundled
into all_cartoon_outputs.zip instead. Existing outputs are kept unless
--force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "./cartoon_out", "output directory")
	cmd.Flags().BoolVar(&opts.zip, "zip", false, "write a single archive instead of separate files")
	cmd.Flags().BoolVar(&opts.original, "original", false, "also write the decoded original as original.png")
	cmd.Flags().BoolVar(&opts.parallel, "parallel", true, "run styles concurrently")
	cmd.Flags().StringVarP(&opts.style, "style", "s", "", "render only this style")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "overwrite existing outputs")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "k-means seed (0 = random)")
	return cmd
}

func runConvert(cmd *cobra.Command, input string, opts convertOptions) error {
	start := time.Now()

	if opts.zip && opts.style != "" {
		return errors.New("--zip bundles every style and cannot be combined with --style")
	}
	if opts.zip && opts.original {
		logrus.Warn("--original is ignored with --zip, the archive only holds the styles")
		opts.original = false
	}

	registry := cartoon.SeededRegistry(opts.seed)
	names, err := outputNames(registry, opts)
	if err != nil {
		return err
	}

	fs := storage.NewFileStorage(opts.outDir)
	if !opts.force {
		for _, name := range names {
			if fs.Exists(name) {
				return fmt.Errorf("%s already exists in %s, use --force to overwrite", name, opts.outDir)
			}
		}
	}

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	img, info, err := codec.Decode(f, codec.DefaultLimits)
	if err != nil {
		return fmt.Errorf("decode %s: %w", input, err)
	}
	logrus.WithFields(logrus.Fields{
		"format":   info.Format,
		"width":    info.Width,
		"height":   info.Height,
		"checksum": info.Checksum,
	}).Debug("Decoded input")

	converter := cartoon.NewConverter(registry, cartoon.WithParallel(opts.parallel))
	ctx := cmd.Context()

	var paths []string
	switch {
	case opts.style != "":
		res, err := converter.ConvertStyle(ctx, img, opts.style)
		if err != nil {
			return err
		}
		out, err := packager.EncodeResult(res)
		if err != nil {
			return err
		}
		if paths, err = storage.SaveFiles(fs, []packager.File{out}); err != nil {
			return err
		}
	case opts.zip:
		rs, err := converter.Convert(ctx, img)
		if err != nil {
			return err
		}
		archive, err := packager.Archive(rs)
		if err != nil {
			return err
		}
		p, err := fs.Save(packager.ArchiveName, bytes.NewReader(archive))
		if err != nil {
			return err
		}
		paths = []string{p}
	default:
		rs, err := converter.Convert(ctx, img)
		if err != nil {
			return err
		}
		files, err := packager.Files(rs, opts.original)
		if err != nil {
			return err
		}
		if paths, err = storage.SaveFiles(fs, files); err != nil {
			return err
		}
	}

	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	logrus.WithField("duration", time.Since(start)).Debug("Conversion finished")
	return nil
}

// outputNames lists the files a run will write, so existing outputs are
// detected before any work is done.
func outputNames(registry *cartoon.Registry, opts convertOptions) ([]string, error) {
	if opts.zip {
		return []string{packager.ArchiveName}, nil
	}
	if opts.style != "" {
		s, ok := registry.Lookup(opts.style)
		if !ok {
			return nil, fmt.Errorf("%w: %q", entity.ErrUnknownStyle, opts.style)
		}
		return []string{s.Filename()}, nil
	}

	var names []string
	if opts.original {
		names = append(names, cartoon.Filename(cartoon.OriginalLabel))
	}
	for _, s := range registry.Styles() {
		names = append(names, s.Filename())
	}
	return names, nil
}
