// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the geminichat TUI.
// All colors use Lip Gloss AdaptiveColor so a single palette serves the
// dark and light themes.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Blue - Primary accent, selections, the assistant label
var Blue = lipgloss.AdaptiveColor{Light: "#1A73E8", Dark: "#8AB4F8"}

// Violet - Gemini brand accent
var Violet = lipgloss.AdaptiveColor{Light: "#7B57C8", Dark: "#C58AF9"}

// Teal - User label
var Teal = lipgloss.AdaptiveColor{Light: "#0B8043", Dark: "#81C995"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Red - Errors and destructive actions
var Red = lipgloss.AdaptiveColor{Light: "#D93025", Dark: "#F28B82"}

// Amber - Warnings and notices
var Amber = lipgloss.AdaptiveColor{Light: "#E37400", Dark: "#FDD663"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#131314"}
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F0F4F9", Dark: "#1E1F20"}
var SurfaceBright = lipgloss.AdaptiveColor{Light: "#E1E5EA", Dark: "#282A2C"}
var Border = lipgloss.AdaptiveColor{Light: "#DADCE0", Dark: "#3C4043"}

// =============================================================================
// TEXT COLORS
// =============================================================================

var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#E3E3E3"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#444746", Dark: "#C4C7C5"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#80868B", Dark: "#8E918F"}
