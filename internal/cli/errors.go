// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - error display and exit codes.
//
// Commands always return errors; main decides how to show them.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/geminichat/internal/attach"
	"github.com/jeranaias/geminichat/internal/config"
	"github.com/jeranaias/geminichat/internal/export"
	"github.com/jeranaias/geminichat/internal/gemini"
	"github.com/jeranaias/geminichat/internal/session"
	"github.com/jeranaias/geminichat/internal/storage"
)

// Exit codes by error category.
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// GetExitCode maps an error to its exit code.
func GetExitCode(err error) int {
	var cfgErr config.ValidateErrors
	var apiErr *gemini.APIError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrUsage),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, attach.ErrUnsupportedType),
		errors.Is(err, attach.ErrTooLarge):
		return ExitUsageError
	case errors.As(err, &cfgErr), errors.Is(err, storage.ErrUnknownBackend):
		return ExitConfigError
	case errors.Is(err, session.ErrMissingAPIKey), errors.Is(err, gemini.ErrAuthFailed):
		return ExitAuthError
	case errors.As(err, &apiErr):
		return ExitNetworkError
	case errors.Is(err, session.ErrConversationNotFound), errors.Is(err, session.ErrIndexOutOfRange):
		return ExitNotFoundError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	default:
		return ExitGeneralError
	}
}

// DisplayError writes err to w, as {"error": ...} in JSON mode.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		_ = writeJSON(w, map[string]any{
			"error":     err.Error(),
			"exit_code": GetExitCode(err),
		})
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	if errors.Is(err, ErrUsage) {
		fmt.Fprintln(w, DimStyle.Render("Run 'geminichat help' for usage."))
	}
}
