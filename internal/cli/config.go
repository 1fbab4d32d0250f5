// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - config command.
//
// Command: config [subcommand]
//
// Subcommands:
//
//	show (default)      Print the effective configuration
//	path                Print the config file location
//	get KEY             Print one value, e.g. gemini.model
//	set KEY VALUE       Change a value and save the file
//	keys                List every settable key
//	set-key             Store the API key, read without echo
//	clear-key           Remove the stored API key
//
// The API key lives in the conversation store (sealed at rest), not in
// config.toml. gemini.api_key in the file only seeds an empty store.

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/geminichat/internal/config"
	"github.com/jeranaias/geminichat/internal/gemini"
)

// HandleConfig runs the config subcommands. It does not open the store
// except for the key commands, so a broken config can still be repaired.
func HandleConfig(args Args) error {
	p := NewArgParser(args.Rest)
	w := os.Stdout

	switch p.Subcommand() {
	case "", "show":
		return configShow(w, args.JSON)
	case "path":
		path, err := config.Path()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, path)
		return nil
	case "get":
		return configGet(w, p.Positional(1))
	case "set":
		if p.PositionalCount() < 3 {
			return usageErr("config set KEY VALUE")
		}
		return configSet(w, p.Positional(1), JoinPositionalArgs(p, 2))
	case "keys":
		for _, k := range config.Keys() {
			fmt.Fprintln(w, k)
		}
		return nil
	case "set-key":
		return configSetKey(w, args)
	case "clear-key":
		return withApp(args, func(app *App) error {
			if err := app.Store.SetAPIKey(""); err != nil {
				return err
			}
			fmt.Fprintln(w, SuccessStyle.Render("API key removed"))
			return nil
		})
	default:
		return usageErr("unknown config subcommand %q", p.Subcommand())
	}
}

func configShow(w io.Writer, asJSON bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if asJSON {
		// String redacts the key.
		_, err := fmt.Fprintln(w, cfg.String())
		return err
	}

	path, _ := config.Path()
	fmt.Fprintln(w, TitleStyle.Render("geminichat configuration"))
	fmt.Fprintln(w, DimStyle.Render(path))
	fmt.Fprintln(w)
	for _, key := range config.Keys() {
		val, err := cfg.Get(key)
		if err != nil {
			continue
		}
		text := fmt.Sprint(val)
		if key == "gemini.api_key" && text != "" {
			text = gemini.MaskKey(text)
		}
		fmt.Fprintf(w, "%s %s\n", LabelStyle.Width(26).Render(key), ValueStyle.Render(text))
	}
	return nil
}

func configGet(w io.Writer, key string) error {
	if key == "" {
		return usageErr("config get KEY")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	val, err := cfg.Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, val)
	return nil
}

// configSet edits the file as written, without environment overrides, so
// overrides are not persisted by accident.
func configSet(w io.Writer, key, value string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s = %s\n", SuccessStyle.Render("Set"), key, value)
	return nil
}

func configSetKey(w io.Writer, args Args) error {
	key, err := readSecret(os.Stderr, os.Stdin, "Gemini API key: ")
	if err != nil {
		return err
	}
	if key == "" {
		return usageErr("no key entered")
	}
	return withApp(args, func(app *App) error {
		if err := app.Store.SetAPIKey(key); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("API key saved"), DimStyle.Render(gemini.MaskKey(key)))
		return nil
	})
}

func withApp(args Args, fn func(*App) error) error {
	app, err := openApp(args)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
