// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

// Stylesheet is the page CSS shared by the HTTP UI and the HTML export.
// The body carries a dark-theme or light-theme class.
const Stylesheet = `
* { margin: 0; padding: 0; box-sizing: border-box; }

:root {
    --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
    --font-mono: "SF Mono", Monaco, Inconsolata, "Fira Code", "Source Code Pro", monospace;
}

.dark-theme {
    --bg-primary: #131314;
    --bg-secondary: #1e1f20;
    --bg-tertiary: #282a2c;
    --text-primary: #e3e3e3;
    --text-secondary: #c4c7c5;
    --text-muted: #8e918f;
    --border-color: #3c4043;
    --accent: #8ab4f8;
    --danger: #f28b82;
}

.light-theme {
    --bg-primary: #ffffff;
    --bg-secondary: #f0f4f9;
    --bg-tertiary: #e9eef6;
    --text-primary: #1f1f1f;
    --text-secondary: #444746;
    --text-muted: #747775;
    --border-color: #c4c7c5;
    --accent: #0b57d0;
    --danger: #b3261e;
}

body {
    font-family: var(--font-sans);
    font-size: 16px;
    line-height: 1.6;
    color: var(--text-primary);
    background: var(--bg-primary);
}

.container { max-width: 900px; margin: 0 auto; padding: 24px; }

.header { padding: 24px 0; border-bottom: 1px solid var(--border-color); margin-bottom: 24px; }
.header h1 { font-size: 26px; font-weight: 600; }
.metadata { display: flex; flex-wrap: wrap; gap: 16px; font-size: 14px; color: var(--text-secondary); }

.message { padding: 16px 20px; margin-bottom: 16px; border-radius: 12px; background: var(--bg-secondary); }
.message.user { background: var(--bg-tertiary); }
.message-header { display: flex; justify-content: space-between; margin-bottom: 8px; font-size: 14px; }
.role-label { font-weight: 600; color: var(--accent); }
.message-header time { color: var(--text-muted); }

.message-content p { margin-bottom: 8px; }
.message-content ul, .message-content ol { margin: 8px 0 8px 24px; }
.message-content a { color: var(--accent); }
.message-content code { font-family: var(--font-mono); font-size: 0.9em; padding: 2px 6px; border-radius: 4px; background: var(--bg-primary); }
.message-content pre { margin: 12px 0; padding: 16px; overflow-x: auto; border-radius: 8px; background: var(--bg-primary); }
.message-content pre code { padding: 0; background: none; }

.message-attachments { display: flex; flex-wrap: wrap; gap: 8px; margin-bottom: 8px; }
.attachment-image { max-width: 200px; max-height: 200px; border-radius: 8px; }
.attachment-pdf { display: inline-flex; gap: 6px; align-items: center; padding: 4px 10px; border-radius: 6px; background: var(--bg-primary); }
.pdf-badge { font-size: 11px; font-weight: 700; color: var(--danger); }

.message-actions { display: flex; gap: 8px; margin-top: 8px; opacity: 0.6; }
.message:hover .message-actions { opacity: 1; }
.action { border: 1px solid var(--border-color); border-radius: 6px; padding: 2px 10px; font-size: 12px; color: var(--text-secondary); background: transparent; cursor: pointer; }

.loading-dots { display: flex; gap: 4px; }
.dot { width: 8px; height: 8px; border-radius: 50%; background: var(--text-muted); animation: pulse 1.4s infinite ease-in-out both; }
.dot:nth-child(2) { animation-delay: 0.16s; }
.dot:nth-child(3) { animation-delay: 0.32s; }
@keyframes pulse { 0%, 80%, 100% { opacity: 0.3; } 40% { opacity: 1; } }

.welcome { text-align: center; padding: 64px 0; }
.welcome h1 { font-size: 40px; font-weight: 500; color: var(--accent); }
.welcome p { font-size: 20px; color: var(--text-muted); margin-bottom: 24px; }
.suggestions { display: flex; flex-wrap: wrap; gap: 12px; justify-content: center; list-style: none; }
.suggestions button { padding: 12px 16px; border: 1px solid var(--border-color); border-radius: 12px; color: var(--text-primary); background: var(--bg-secondary); cursor: pointer; }

.footer { margin-top: 32px; padding-top: 16px; border-top: 1px solid var(--border-color); text-align: center; font-size: 13px; color: var(--text-muted); }

@media (max-width: 600px) {
    .container { padding: 12px; }
    .message { padding: 12px; }
}
`

// ThemeClass returns the body class for theme.
func ThemeClass(theme string) string {
	if theme == "light" {
		return "light-theme"
	}
	return "dark-theme"
}
