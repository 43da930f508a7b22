// genbuiltins generates the built-in object and string init data of a
// runtime build from the metadata documents.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/svaarala/duktape-sub000/config"
	"github.com/svaarala/duktape-sub000/emit"
	"github.com/svaarala/duktape-sub000/generator"
	"github.com/svaarala/duktape-sub000/metadata"
)

func main() {
	configPath := flag.String("config", "", "Config file (default: nearest "+config.FileName+")")
	outDir := flag.String("o", "", "Output directory (default: config directory)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: genbuiltins [options]\n\n")
		fmt.Fprintf(os.Stderr, "Generates duk_builtins.h and duk_builtins.c from the built-in metadata.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *verbose {
		commonlog.Configure(2, nil)
	} else {
		commonlog.Configure(0, nil)
	}

	if err := run(*configPath, *outDir, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, outDir string, verbose bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	orders, err := cfg.ByteOrders()
	if err != nil {
		return err
	}

	set, err := metadata.Load(cfg.Path(cfg.Metadata.Builtins), cfg.Path(cfg.Metadata.Strings))
	if err != nil {
		return err
	}

	var initjs []byte
	if cfg.Build.InitJS != "" {
		initjs, err = os.ReadFile(cfg.Path(cfg.Build.InitJS))
		if err != nil {
			return fmt.Errorf("cannot read init script: %w", err)
		}
	}

	out, err := generator.Generate(context.Background(), generator.Input{
		Set:           set,
		ByteOrders:    orders,
		Extensions:    cfg.Extensions(),
		Version:       cfg.Build.Version,
		GitDescribe:   cfg.ResolveGitDescribe(),
		VersionObject: cfg.Target.VersionObject,
		InitJS:        initjs,
		DefinePrefix:  cfg.Output.DefinePrefix,
	})
	if err != nil {
		return err
	}

	files, err := render(cfg, out)
	if err != nil {
		return err
	}

	if outDir == "" {
		outDir = cfg.Dir
	}
	// Everything rendered; only now touch the output directory.
	staged, err := stage(outDir, files)
	if err != nil {
		return err
	}
	if err := commit(staged); err != nil {
		return err
	}
	if verbose {
		for _, f := range staged {
			fmt.Printf("Wrote %s (%d bytes)\n", f.path, f.size)
		}
		for _, v := range out.Variants {
			fmt.Printf("%s: %d objects, %d values, %d functions, %d bytes\n",
				v.ByteOrder, v.Stats.Objects, v.Stats.Values, v.Stats.Functions, len(v.Data))
		}
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.FindAndLoad(cwd)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return config.Default(cwd)
	}
	return cfg, nil
}

type outputFile struct {
	name string
	data []byte
}

func render(cfg *config.Config, out *generator.Output) ([]outputFile, error) {
	renderers := []struct {
		name   string
		render func(*generator.Output) ([]byte, error)
	}{
		{cfg.Output.Header, emit.Header},
		{cfg.Output.Source, emit.Source},
		{cfg.Output.MetadataJSON, emit.MetadataJSON},
		{cfg.Output.IndexCBOR, emit.IndexCBOR},
		{cfg.Output.Go, func(o *generator.Output) ([]byte, error) {
			return emit.GoBindings(o, cfg.Output.GoPackage)
		}},
	}
	var files []outputFile
	for _, r := range renderers {
		if r.name == "" {
			continue
		}
		data, err := r.render(out)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", r.name, err)
		}
		files = append(files, outputFile{name: r.name, data: data})
	}
	return files, nil
}

// stagedFile is a fully written temp file waiting to be renamed to path.
type stagedFile struct {
	tmp  string
	path string
	size int
}

// stage writes every file to a temp file beside its destination. On error
// all temp files are removed and no destination is touched.
func stage(dir string, files []outputFile) (_ []stagedFile, err error) {
	var staged []stagedFile
	defer func() {
		if err != nil {
			discard(staged)
		}
	}()
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		tmp, err := writeTemp(path, f.data)
		if err != nil {
			return nil, err
		}
		staged = append(staged, stagedFile{tmp: tmp, path: path, size: len(f.data)})
	}
	return staged, nil
}

// commit renames staged files into place. Temp files not yet renamed are
// removed on error.
func commit(staged []stagedFile) error {
	for i, f := range staged {
		if err := os.Rename(f.tmp, f.path); err != nil {
			discard(staged[i:])
			return err
		}
	}
	return nil
}

func discard(staged []stagedFile) {
	for _, f := range staged {
		os.Remove(f.tmp)
	}
}

// writeTemp writes data to a new temp file in the directory of path and
// returns its name.
func writeTemp(path string, data []byte) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
