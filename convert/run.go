package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/ianaindex"

	"mailc/archive"
	"mailc/config"
	"mailc/email"
	"mailc/state"
)

// job is a single document to compile. "src" is part of the source path
// (always including file name) relative to the original path: base name when
// actual file was specified, relative path inside archive or directory
// otherwise. "from" names the source in logs.
type job struct {
	src  string
	from string
	data []byte
}

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")
	env.Jobs = int(cmd.Int("jobs"))

	// Old newsletters may be saved in archaic code pages without proper
	// charset declaration
	if cp := cmd.String("force-charset"); len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully decoding all sources without byte order mark", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Int("jobs", env.Parallelism()))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file), collects
// documents and compiles them.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	var (
		head, tail string
		jobs       []job
	)
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if jobs, err = collectDir(ctx, head, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if jobs, err = collectArchive(ctx, head, tail, "", log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			storeInput(env, head, log)
			break
		}

		isDoc, err := isDocumentFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if isDoc && len(tail) == 0 {
			// document cannot have tail
			data, err := os.ReadFile(head)
			if err != nil {
				return fmt.Errorf("unable to read file: %w", err)
			}
			jobs = []job{{src: filepath.Base(head), from: head, data: data}}
			storeInput(env, head, log)
			break
		}
		return fmt.Errorf("input was not recognized as HTML document (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return compileBatch(ctx, jobs, dst, log)
}

func storeInput(env *state.LocalEnv, path string, log *zap.Logger) {
	if err := env.Rpt.StoreCopy("input-"+filepath.Base(path), path); err != nil {
		log.Warn("Unable to store input in the report", zap.String("file", path), zap.Error(err))
	}
}

// collectDir walks directory tree finding documents and archives. Entries
// are taken in natural order.
func collectDir(ctx context.Context, dir string, log *zap.Logger) ([]job, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(paths, naturalCompare)

	var jobs []job
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArchive, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if isArchive {
			found, err := collectArchive(ctx, path, "", filepath.Dir(rel), log)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
				continue
			}
			jobs = append(jobs, found...)
			continue
		}

		isDoc, err := isDocumentFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !isDoc {
			log.Debug("Skipping file, not recognized as document or archive", zap.String("file", path))
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("Unable to read file", zap.String("file", path), zap.Error(err))
			continue
		}
		jobs = append(jobs, job{src: rel, from: path, data: data})
	}
	return jobs, nil
}

// collectArchive reads all documents inside archive under "pathIn". Output
// paths are rooted at "pathOut".
func collectArchive(ctx context.Context, path, pathIn, pathOut string, log *zap.Logger) ([]job, error) {
	cp := state.EnvFromContext(ctx).CodePage

	var jobs []job
	err := archive.Walk(path, pathIn, documentExts, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		isDoc, err := isDocumentInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive", zap.String("archive", arc), zap.String("path", f.Name), zap.Error(err))
			return nil
		}
		if !isDoc {
			log.Debug("Skipping file, not recognized as document", zap.String("archive", arc), zap.String("file", f.Name))
			return nil
		}

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to open file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			log.Error("Unable to read file in archive", zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			return nil
		}

		pathInArchive := f.Name
		if cp != nil && f.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(pathInArchive); err == nil {
				pathInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
			}
		}
		jobs = append(jobs, job{
			src:  filepath.Join(pathOut, filepath.FromSlash(pathInArchive)),
			from: arc + ":" + f.Name,
			data: data,
		})
		return nil
	})
	if err == nil && len(jobs) == 0 {
		log.Debug("Nothing to process", zap.String("archive", path))
	}
	return jobs, err
}

// compileBatch compiles collected documents using up to env.Parallelism()
// goroutines. Failure of a single document does not stop the batch, all
// failures are reported together.
func compileBatch(ctx context.Context, jobs []job, dst string, log *zap.Logger) error {
	if len(jobs) == 0 {
		log.Debug("Nothing to process")
		return nil
	}

	env := state.EnvFromContext(ctx)
	compiler := email.NewCompiler(log, compilerOptions(&env.Cfg.Email))

	var (
		mu   sync.Mutex
		errs error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(env.Parallelism())
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := processDocument(gctx, compiler, j, i+1, dst, log); err != nil {
				log.Error("Unable to process file", zap.String("file", j.from), zap.Error(err))
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", j.from, err))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if errs != nil {
		return fmt.Errorf("unable to compile %d of %d documents: %w", len(multierr.Errors(errs)), len(jobs), errs)
	}
	return nil
}

func compilerOptions(cfg *config.EmailConfig) email.Options {
	return email.Options{
		RootClass:      cfg.RootClass,
		TrackingPrefix: cfg.TrackingPrefix.Value(),
		MaxWidth:       cfg.MaxWidth,
		Preheader:      cfg.Preheader,
		Audit:          cfg.Audit,
		Defaults: email.Defaults{
			FontBody:  cfg.Defaults.FontBody,
			ColorText: cfg.Defaults.ColorText,
			ColorBg:   cfg.Defaults.ColorBg,
		},
	}
}

// processDocument compiles single document. "index" is its position in the
// batch starting with 1, "dst" is the destination directory.
func processDocument(ctx context.Context, compiler *email.Compiler, j job, index int, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var refID, outputName string

	log.Info("Compilation starting", zap.String("from", j.from))
	defer func(start time.Time) {
		// panic in one document fails only this job
		if r := recover(); r != nil {
			log.Error("Compilation ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("compilation panic: %v", r)
		} else if rerr == nil {
			log.Info("Compilation completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.String("ref_id", refID))
		}
	}(time.Now())

	text, charsetName, err := decodeDocument(j.data, env.CodePage)
	if err != nil {
		return err
	}
	log.Debug("Source decoded", zap.String("from", j.from), zap.String("charset", charsetName))

	doc, err := compiler.Compile(text)
	if err != nil {
		return fmt.Errorf("unable to compile document: %w", err)
	}
	refID = doc.RefID.String()

	outputName = buildOutputPath(doc, j.src, dst, index, env)
	if err := writeOutput(outputName, []byte(doc.HTML), env.Overwrite, log); err != nil {
		return err
	}

	// keep everything needed to reproduce the problem
	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("source-%s%s", refID, filepath.Ext(j.src)), j.data)
		env.Rpt.StoreData(fmt.Sprintf("styles-%s.txt", refID), []byte(doc.Styles))
		env.Rpt.StoreData(fmt.Sprintf("result-%s%s", refID, outputExt), []byte(doc.HTML))
	}
	return nil
}

// writeOutput creates file atomically with respect to other jobs of the same
// batch: without overwrite the first writer wins.
func writeOutput(name string, data []byte, overwrite bool, log *zap.Logger) error {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_EXCL
	if overwrite {
		if _, err := os.Stat(name); err == nil {
			log.Warn("Overwriting existing file", zap.String("file", name))
		}
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	f, err := os.OpenFile(name, flags, 0644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("output file already exists: %s", name)
	}
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("unable to write output file: %w", err)
	}
	return f.Close()
}

func naturalCompare(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	}
	return 0
}
