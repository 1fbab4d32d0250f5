// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/geminichat/internal/model"
)

// The browser client keeps conversations under the same key but with its
// own value shape: camelCase fields, epoch-millisecond times and
// attachments typed "image" or "pdf".
type browserConversation struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Messages  []browserMessage `json:"messages"`
	Model     string           `json:"model"`
	CreatedAt int64            `json:"createdAt"`
}

type browserMessage struct {
	Role        string              `json:"role"`
	Content     string              `json:"content"`
	Attachments []browserAttachment `json:"attachments"`
	Timestamp   int64               `json:"timestamp"`
}

type browserAttachment struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// decodeConversations reads the stored conversation list. It accepts the
// native layout and falls back to the browser layout; browser reports the
// latter so the caller can rewrite it.
func decodeConversations(raw []byte) (convs []*model.Conversation, browser bool, err error) {
	nativeErr := json.Unmarshal(raw, &convs)
	if nativeErr == nil {
		return convs, false, nil
	}

	var bc []browserConversation
	if err := json.Unmarshal(raw, &bc); err != nil {
		return nil, false, nativeErr
	}
	convs = make([]*model.Conversation, 0, len(bc))
	for _, c := range bc {
		convs = append(convs, c.toModel())
	}
	return convs, true, nil
}

func (c browserConversation) toModel() *model.Conversation {
	created := fromMillis(c.CreatedAt)
	conv := &model.Conversation{
		ID:        c.ID,
		Title:     c.Title,
		Messages:  make([]*model.Message, 0, len(c.Messages)),
		Model:     c.Model,
		CreatedAt: created,
		UpdatedAt: created,
		TitleSet:  c.Title != "" && c.Title != model.DefaultTitle,
	}
	if conv.Model == "" {
		conv.Model = model.DefaultModel
	}

	for _, m := range c.Messages {
		role := model.Role(m.Role)
		if !role.Valid() {
			continue
		}
		var atts []model.Attachment
		for _, a := range m.Attachments {
			kind := model.KindImage
			if a.Type == "pdf" {
				kind = model.KindDocumentText
			}
			atts = append(atts, model.Attachment{Kind: kind, Name: a.Name, Data: a.Data, MimeType: a.MimeType})
		}
		msg := model.NewMessage(role, m.Content, atts)
		msg.Timestamp = fromMillis(m.Timestamp)
		if msg.Timestamp.After(conv.UpdatedAt) {
			conv.UpdatedAt = msg.Timestamp
		}
		conv.Messages = append(conv.Messages, msg)
	}
	if conv.TitleSet {
		return conv
	}
	for _, m := range conv.Messages {
		if m.Role == model.RoleUser {
			conv.Title = model.DeriveTitle(m.Content)
			conv.TitleSet = true
			break
		}
	}
	return conv
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}
