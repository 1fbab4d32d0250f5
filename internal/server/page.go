// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/jeranaias/geminichat/internal/model"
	"github.com/jeranaias/geminichat/internal/render"
)

// handleIndex serves the full page with the active conversation rendered.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	theme := s.store.Theme()
	active := s.store.Active()
	currentModel := s.store.Model()

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString("<title>Gemini Chat</title>\n")
	sb.WriteString("<style>")
	sb.WriteString(render.Stylesheet)
	sb.WriteString(pageCSS)
	sb.WriteString("</style>\n")
	sb.WriteString("<link rel=\"stylesheet\" href=\"/api/highlight.css\">\n")
	sb.WriteString("</head>\n")
	sb.WriteString("<body class=\"app " + render.ThemeClass(theme) + "\">\n")

	// Sidebar
	sb.WriteString("<aside class=\"sidebar\">\n")
	sb.WriteString("<button class=\"new-chat\" data-action=\"new-chat\">+ New chat</button>\n")
	sb.WriteString("<input id=\"search\" type=\"search\" placeholder=\"Search conversations\" autocomplete=\"off\">\n")
	sb.WriteString("<ul id=\"conversation-list\">\n")
	for _, c := range s.store.Conversations() {
		class := "conversation"
		if active != nil && c.ID == active.ID {
			class += " active"
		}
		sb.WriteString("<li class=\"" + class + "\" data-id=\"" + html.EscapeString(c.ID) + "\">")
		sb.WriteString("<span class=\"conversation-title\">" + html.EscapeString(c.GetTitle()) + "</span>")
		sb.WriteString("<button class=\"conversation-delete\" data-action=\"delete-conversation\" title=\"Delete\">&times;</button>")
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</ul>\n")
	sb.WriteString("<div class=\"prompts\"><h2>Saved prompts</h2><ul id=\"prompt-list\">")
	for i, p := range s.store.SavedPrompts() {
		sb.WriteString("<li data-index=\"")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString("\"><span class=\"prompt-text\">" + html.EscapeString(p.Text) + "</span></li>")
	}
	sb.WriteString("</ul></div>\n")
	sb.WriteString("</aside>\n")

	// Main column
	sb.WriteString("<main class=\"chat\">\n<header class=\"topbar\">\n")
	title := ""
	if active != nil {
		title = active.GetTitle()
	}
	sb.WriteString("<h1 id=\"conversation-title\" data-action=\"rename\">" + html.EscapeString(title) + "</h1>\n")
	sb.WriteString("<select id=\"model-select\">")
	for _, id := range modelOptions(currentModel) {
		sel := ""
		if id == currentModel {
			sel = " selected"
		}
		sb.WriteString("<option value=\"" + html.EscapeString(id) + "\"" + sel + ">" + html.EscapeString(id) + "</option>")
	}
	sb.WriteString("</select>\n")
	sb.WriteString("<select id=\"export-format\"><option value=\"\">Export&hellip;</option>")
	sb.WriteString("<option value=\"md\">Markdown</option><option value=\"json\">JSON</option>")
	sb.WriteString("<option value=\"txt\">Text</option><option value=\"html\">HTML</option></select>\n")
	sb.WriteString("<button data-action=\"toggle-theme\">Theme</button>\n")
	sb.WriteString("</header>\n")

	if s.store.APIKey() == "" {
		sb.WriteString("<form id=\"api-key-form\" class=\"banner\">")
		sb.WriteString("<label for=\"api-key\">Gemini API key</label>")
		sb.WriteString("<input id=\"api-key\" type=\"password\" autocomplete=\"off\" placeholder=\"AIza...\">")
		sb.WriteString("<button type=\"submit\">Save</button></form>\n")
	}

	convID := ""
	if active != nil {
		convID = active.ID
	}
	sb.WriteString("<section id=\"messages\" data-conversation-id=\"" + html.EscapeString(convID) + "\">")
	sb.WriteString(render.HTML(active, render.Options{
		Markdown: s.renderer(),
		Actions:  true,
		Loading:  s.store.Loading(),
		Metrics:  s.metrics,
	}))
	sb.WriteString("</section>\n")

	sb.WriteString("<ul id=\"pending\">")
	for _, a := range s.pending() {
		sb.WriteString("<li data-index=\"" + strconv.Itoa(a.Index) + "\">" + html.EscapeString(a.Name))
		sb.WriteString("<button data-action=\"remove-attachment\">&times;</button></li>")
	}
	sb.WriteString("</ul>\n")

	sb.WriteString("<form id=\"composer\">\n")
	sb.WriteString("<label class=\"attach\" title=\"Attach image or PDF\">+<input id=\"file-input\" type=\"file\" multiple accept=\"image/*,application/pdf\"></label>\n")
	sb.WriteString("<textarea id=\"input\" rows=\"1\" placeholder=\"Message Gemini\"></textarea>\n")
	sb.WriteString("<button type=\"button\" data-action=\"save-prompt\" title=\"Save prompt\">&#9734;</button>\n")
	sb.WriteString("<button type=\"submit\" id=\"send\">Send</button>\n")
	sb.WriteString("</form>\n</main>\n")
	sb.WriteString("<script src=\"/static/app.js\"></script>\n")
	sb.WriteString("</body>\n</html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(sb.String()))
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	_, _ = w.Write([]byte(appScript))
}

// modelOptions lists the known models, plus current if it is custom.
func modelOptions(current string) []string {
	ids := model.ModelIDs()
	for _, id := range ids {
		if id == current {
			return ids
		}
	}
	if current == "" {
		return ids
	}
	return append(ids, current)
}

const pageCSS = `
body.app { display: flex; height: 100vh; overflow: hidden; }
.sidebar { width: 260px; background: var(--bg-secondary); border-right: 1px solid var(--border-color); display: flex; flex-direction: column; padding: 12px; gap: 8px; overflow-y: auto; }
.sidebar input { padding: 8px; border-radius: 8px; border: 1px solid var(--border-color); background: var(--bg-primary); color: var(--text-primary); }
.new-chat { padding: 10px; border-radius: 20px; border: none; background: var(--bg-tertiary); color: var(--text-primary); cursor: pointer; }
#conversation-list, #prompt-list, #pending { list-style: none; }
.conversation { display: flex; justify-content: space-between; padding: 8px 10px; border-radius: 8px; cursor: pointer; color: var(--text-secondary); }
.conversation.active, .conversation:hover { background: var(--bg-tertiary); color: var(--text-primary); }
.conversation-delete { background: none; border: none; color: var(--text-muted); cursor: pointer; }
.prompts h2 { font-size: 12px; text-transform: uppercase; color: var(--text-muted); margin: 12px 0 4px; }
#prompt-list li { padding: 6px 10px; cursor: pointer; font-size: 13px; color: var(--text-secondary); white-space: nowrap; overflow: hidden; text-overflow: ellipsis; }
main.chat { flex: 1; display: flex; flex-direction: column; min-width: 0; }
.topbar { display: flex; align-items: center; gap: 8px; padding: 12px 20px; border-bottom: 1px solid var(--border-color); }
.topbar h1 { flex: 1; font-size: 16px; font-weight: 500; cursor: text; }
.topbar select, .topbar button, .banner button, #composer button { padding: 6px 10px; border-radius: 8px; border: 1px solid var(--border-color); background: var(--bg-secondary); color: var(--text-primary); cursor: pointer; }
.banner { display: flex; gap: 8px; align-items: center; padding: 10px 20px; background: var(--bg-tertiary); }
.banner input { flex: 1; padding: 6px; }
#messages { flex: 1; overflow-y: auto; padding: 20px; }
#pending { display: flex; gap: 6px; padding: 0 20px; flex-wrap: wrap; }
#pending li { font-size: 12px; padding: 4px 8px; border-radius: 12px; background: var(--bg-tertiary); }
#pending button { background: none; border: none; color: var(--text-muted); cursor: pointer; margin-left: 4px; }
#composer { display: flex; gap: 8px; align-items: flex-end; padding: 12px 20px 20px; }
#composer textarea { flex: 1; resize: none; max-height: 200px; padding: 10px 14px; border-radius: 20px; border: 1px solid var(--border-color); background: var(--bg-secondary); color: var(--text-primary); font: inherit; }
.attach { cursor: pointer; padding: 6px 10px; font-size: 20px; color: var(--text-muted); }
.attach input { display: none; }
`
