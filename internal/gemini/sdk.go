// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/jeranaias/geminichat/internal/model"
)

// ErrNoUserTurn means the history has nothing for the SDK to send.
var ErrNoUserTurn = errors.New("history has no user message")

// SDKClient generates replies through the official Go SDK.
//
// The SDK sends the newest user turn as the message and everything before
// it as chat history. Model turns after the newest user turn are dropped.
type SDKClient struct {
	key      KeyFunc
	endpoint string
	log      zerolog.Logger
}

// NewSDKClient creates an SDK-backed generator.
func NewSDKClient(key KeyFunc) *SDKClient {
	if key == nil {
		key = StaticKey("")
	}
	return &SDKClient{key: key, log: zerolog.Nop()}
}

// WithEndpoint overrides the SDK's service endpoint.
func (c *SDKClient) WithEndpoint(endpoint string) *SDKClient {
	c.endpoint = endpoint
	return c
}

// WithLogger sets the logger.
func (c *SDKClient) WithLogger(l zerolog.Logger) *SDKClient {
	c.log = l.With().Str("component", "gemini-sdk").Logger()
	return c
}

// Generate implements session.Generator.
func (c *SDKClient) Generate(ctx context.Context, modelName string, history []*model.Message) (string, error) {
	key := strings.TrimSpace(c.key())
	if key == "" {
		return "", ErrNotConfigured
	}
	if modelName == "" {
		modelName = model.DefaultModel
	}

	contents, err := toGenai(BuildRequest(history))
	if err != nil {
		return "", err
	}
	past, turn, err := splitLastUser(contents)
	if err != nil {
		return "", err
	}

	opts := []option.ClientOption{option.WithAPIKey(key)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}
	defer client.Close()

	cs := client.GenerativeModel(modelName).StartChat()
	cs.History = past
	resp, err := cs.SendMessage(ctx, turn.Parts...)
	if err != nil {
		c.log.Debug().Err(err).Str("model", modelName).Str("key", MaskKey(key)).Msg("sdk request failed")
		return "", err
	}
	return sdkText(resp), nil
}

// toGenai converts a REST request body into SDK contents.
func toGenai(req *GenerateContentRequest) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(req.Contents))
	for _, content := range req.Contents {
		gc := &genai.Content{Role: content.Role}
		for _, p := range content.Parts {
			if p.InlineData != nil {
				data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("decode inline %s data: %w", p.InlineData.MimeType, err)
				}
				gc.Parts = append(gc.Parts, genai.Blob{MIMEType: p.InlineData.MimeType, Data: data})
				continue
			}
			gc.Parts = append(gc.Parts, genai.Text(p.Text))
		}
		out = append(out, gc)
	}
	return out, nil
}

func splitLastUser(contents []*genai.Content) ([]*genai.Content, *genai.Content, error) {
	for i := len(contents) - 1; i >= 0; i-- {
		if contents[i].Role == RoleUser && len(contents[i].Parts) > 0 {
			return contents[:i], contents[i], nil
		}
	}
	return nil, nil, ErrNoUserTurn
}

func sdkText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return model.NoResponse
	}
	c := resp.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 {
		return model.NoResponse
	}
	if t, ok := c.Parts[0].(genai.Text); ok && t != "" {
		return string(t)
	}
	return model.NoResponse
}
