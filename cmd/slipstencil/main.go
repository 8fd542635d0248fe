// SlipStencil - Donation slip editor.
//
// Usage:
//
//	slipstencil serve [--port 8080] [--assets <dir>]
//	slipstencil render -o <dir> [--template <id>] [--name ..] [options]
//	slipstencil templates
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/xob0t/SlipStencil/clients/server"
	"github.com/xob0t/SlipStencil/pkg/editor"
	"github.com/xob0t/SlipStencil/pkg/export"
	"github.com/xob0t/SlipStencil/pkg/loader"
	"github.com/xob0t/SlipStencil/pkg/template"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := server.RunServe(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "render":
		if err := runRender(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "templates":
		runTemplates()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// overrides collects repeatable "field=value" flags.
type overrides []string

func (o *overrides) String() string { return strings.Join(*o, ",") }

func (o *overrides) Set(v string) error {
	*o = append(*o, v)
	return nil
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)

	var (
		outDir      string
		templateID  string
		assetsDir   string
		interactive bool
		values      = template.DefaultValues
		sizes       overrides
		colors      overrides
		moves       overrides
		fonts       overrides
	)

	fs.StringVar(&outDir, "o", ".", "Output directory")
	fs.StringVar(&outDir, "output", ".", "Output directory")
	fs.StringVar(&templateID, "template", "", "Template id (default: first template)")
	fs.StringVar(&assetsDir, "assets", "", "Directory to resolve template images from (default: embedded)")
	fs.StringVar(&values.Name, "name", values.Name, "Donor name")
	fs.StringVar(&values.Amount, "amount", values.Amount, "Donation amount")
	fs.StringVar(&values.Purpose, "purpose", values.Purpose, "Donation purpose")
	fs.Var(&sizes, "size", "Font size override field=N (repeatable)")
	fs.Var(&colors, "color", "Color override field=#rrggbb (repeatable)")
	fs.Var(&moves, "move", "Position override field=X,Y (repeatable)")
	fs.Var(&fonts, "font", "Register a TTF for a font family: \"Family Name=path.ttf\" (repeatable)")
	fs.BoolVar(&interactive, "i", false, "Prompt for template and field values")

	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := template.Default()
	if interactive {
		var err error
		if templateID, err = askTemplate(ctx, reg, templateID); err != nil {
			return err
		}
		if values, err = askValues(ctx, values); err != nil {
			return err
		}
	}

	fm, err := template.NewFontManager()
	if err != nil {
		return err
	}
	for _, arg := range fonts {
		family, path, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("--font %q: expected family=path", arg)
		}
		if err := fm.RegisterFile(family, path); err != nil {
			return err
		}
	}

	images := template.Images()
	if assetsDir != "" {
		images = os.DirFS(assetsDir)
	}

	session, err := editor.New(editor.Config{
		Registry: reg,
		Resolver: loader.NewDefaultResolver(images),
		Fonts:    fm,
		Values:   &values,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	if templateID != "" {
		if err := session.SelectTemplate(templateID); err != nil {
			return err
		}
	}

	if err := session.WaitImage(ctx); err != nil {
		if ctx.Err() != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Warning: %v, exporting text only\n", err)
	}

	if err := applyOverrides(session, sizes, colors, moves); err != nil {
		return err
	}

	saver := export.FileSaver{Dir: outDir}
	fmt.Printf("Rendering template: %s\n", session.Template().Name)
	name, err := export.Export(session, saver)
	if err != nil {
		return err
	}
	fmt.Printf("Done: %s\n", saver.Path(name))
	return nil
}

func applyOverrides(s *editor.Session, sizes, colors, moves overrides) error {
	for _, arg := range sizes {
		f, v, err := splitOverride("size", arg)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("--size %q: %w", arg, err)
		}
		if err := s.ApplyStyle(editor.StyleUpdate{Field: f, Kind: editor.StyleFontSize, FontSize: n}); err != nil {
			return err
		}
	}

	for _, arg := range colors {
		f, v, err := splitOverride("color", arg)
		if err != nil {
			return err
		}
		if err := s.ApplyStyle(editor.StyleUpdate{Field: f, Kind: editor.StyleColor, Color: v}); err != nil {
			return fmt.Errorf("--color %q: %w", arg, err)
		}
	}

	for _, arg := range moves {
		f, v, err := splitOverride("move", arg)
		if err != nil {
			return err
		}
		xs, ys, ok := strings.Cut(v, ",")
		if !ok {
			return fmt.Errorf("--move %q: expected field=X,Y", arg)
		}
		x, errX := strconv.Atoi(strings.TrimSpace(xs))
		y, errY := strconv.Atoi(strings.TrimSpace(ys))
		if errX != nil || errY != nil {
			return fmt.Errorf("--move %q: coordinates must be integers", arg)
		}
		if err := s.MoveField(f, x, y); err != nil {
			return err
		}
	}
	return nil
}

func splitOverride(flagName, arg string) (template.FieldID, string, error) {
	name, value, ok := strings.Cut(arg, "=")
	if !ok {
		return template.NoField, "", fmt.Errorf("--%s %q: expected field=value", flagName, arg)
	}
	f, err := template.ParseFieldID(name)
	if err != nil {
		return template.NoField, "", fmt.Errorf("--%s %q: %w", flagName, arg, err)
	}
	return f, strings.TrimSpace(value), nil
}

func runTemplates() {
	for _, t := range template.Default().List() {
		fmt.Printf("%-20s %s (%dx%d, %s)\n", t.ID, t.Name, t.CanvasWidth, t.CanvasHeight, t.ImageRef)
		for _, f := range template.Fields {
			st := t.Defaults.Get(f)
			fmt.Printf("    %-8s x=%-4d y=%-4d %s %s\n", f.String()+":", st.X, st.Y, st.Font(), st.Color)
		}
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`SlipStencil - Donation Slip Editor

USAGE:
    slipstencil serve [--port 8080] [--assets <dir>] [--no-browser]
    slipstencil render -o <dir> [options]
    slipstencil templates

RENDER:
    -o, --output <dir>       Output directory (file: donation_slip_<template>.png)
    --template <id>          Template id (default: first template)
    --name <text>            Donor name
    --amount <text>          Donation amount (drawn with a ₹ prefix)
    --purpose <text>         Donation purpose
    --size field=N           Font size 10–80 (repeatable)
    --color field=#rrggbb    Text color (repeatable)
    --move field=X,Y         Canvas position (repeatable)
    --font "Family=f.ttf"    Use a TTF for a font family (repeatable)
    --assets <dir>           Resolve template images from a directory
    -i                       Prompt for template and values

EXAMPLES:
    slipstencil serve
    slipstencil templates
    slipstencil render -o out --name "Jane Doe" --amount 250.00
    slipstencil render -o out --template receipt-classic --size amount=48 --color name=#000000
    slipstencil render -i -o out
`)
}
