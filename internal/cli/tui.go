// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/geminichat/internal/storage"
	"github.com/jeranaias/geminichat/internal/ui/chat"
)

// HandleTUI runs the full-screen chat until the user quits or ctx ends.
func HandleTUI(ctx context.Context, app *App) error {
	if err := RequiresTTY("start the terminal UI"); err != nil {
		return fmt.Errorf("%w (try 'geminichat ask' or 'geminichat serve')", err)
	}

	m := chat.New(app.Store, app.Chat,
		chat.WithLogger(app.Log),
		chat.WithExportDir(app.ExportDir()),
	)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	// Another geminichat process (a second TUI, serve, or a one-shot ask)
	// may rewrite the store file while we run.
	if fkv, ok := app.KV.(*storage.FileKV); ok {
		err := fkv.Watch(storage.DefaultWatchDebounce, func() {
			p.Send(chat.StoreChangedMsg{})
		})
		if err != nil {
			app.Log.Warn().Err(err).Msg("store watch unavailable; external changes will not show")
		}
	}

	app.Log.Info().Str("model", app.Store.Model()).Msg("tui started")
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal UI: %w", err)
	}
	return nil
}
