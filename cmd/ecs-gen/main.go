// Command ecs-gen writes the static component registrations of a package.
//
// Types whose doc comment carries the ecs:component marker get a
// package-level ComponentType variable registered with the default
// registry:
//
//	// Velocity is the per-second displacement.
//	// ecs:component
//	type Velocity struct{ DX, DY float64 }
//
// Use it from go:generate:
//
//	//go:generate go run github.com/plus3/ecsrt/cmd/ecs-gen
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/tools/go/packages"

	"github.com/plus3/ecsrt/internal/config"
)

func main() {
	dir := flag.String("dir", ".", "Directory of the package to scan.")
	out := flag.String("out", "components_gen.go", "Output file name, relative to -dir.")
	registry := flag.String("registry", "ecs.DefaultRegistry", "Registry expression the components are registered with.")
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := cfg.Logger(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(logger, *dir, *out, *registry); err != nil {
		logger.Error().Msg(eris.ToString(err, false))
		os.Exit(1)
	}
}

func run(logger zerolog.Logger, dir, out, registry string) error {
	pkgs, err := packages.Load(&packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax | packages.NeedTypes,
		Dir:  dir,
	}, ".")
	if err != nil {
		return eris.Wrapf(err, "load %s", dir)
	}
	if len(pkgs) != 1 {
		return eris.Errorf("expected one package in %s, found %d", dir, len(pkgs))
	}
	pkg := pkgs[0]
	// Type errors are expected before the first run: the package may already
	// refer to the variables this command generates.
	for _, perr := range pkg.Errors {
		if perr.Kind != packages.TypeError {
			return eris.Wrapf(perr, "load %s", pkg.PkgPath)
		}
		logger.Debug().Str("error", perr.Msg).Msg("ignoring type error")
	}

	components, errs := Collect(pkg.Fset, pkg.Syntax)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	target := filepath.Join(dir, out)
	if len(components) == 0 {
		logger.Warn().Str("package", pkg.PkgPath).Msg("no marked components, nothing written")
		return nil
	}

	src, err := Render(target, pkg.Name, registry, components)
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, src, 0o644); err != nil {
		return eris.Wrapf(err, "write %s", target)
	}
	logger.Info().Str("package", pkg.PkgPath).Int("components", len(components)).Str("file", target).Msg("generated")
	return nil
}
