// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/geminichat/internal/model"
)

func TestToGenai(t *testing.T) {
	history := []*model.Message{
		model.NewMessage(model.RoleUser, "look", []model.Attachment{png("data:image/png;base64,QUJD")}),
		model.NewMessage(model.RoleAssistant, "three letters", nil),
	}

	contents, err := toGenai(BuildRequest(history))
	require.NoError(t, err)
	require.Len(t, contents, 2)

	assert.Equal(t, "user", contents[0].Role)
	require.Len(t, contents[0].Parts, 2)
	assert.Equal(t, genai.Text("look"), contents[0].Parts[0])
	assert.Equal(t, genai.Blob{MIMEType: "image/png", Data: []byte("ABC")}, contents[0].Parts[1])
	assert.Equal(t, "model", contents[1].Role)
}

func TestToGenai_BadBase64(t *testing.T) {
	history := []*model.Message{
		model.NewMessage(model.RoleUser, "", []model.Attachment{png("data:image/png;base64,***")}),
	}
	_, err := toGenai(BuildRequest(history))
	assert.Error(t, err)
}

func TestSplitLastUser(t *testing.T) {
	contents := []*genai.Content{
		{Role: "user", Parts: []genai.Part{genai.Text("q1")}},
		{Role: "model", Parts: []genai.Part{genai.Text("a1")}},
		{Role: "user", Parts: []genai.Part{genai.Text("q2")}},
		{Role: "model", Parts: []genai.Part{genai.Text("a2")}},
	}
	past, turn, err := splitLastUser(contents)
	require.NoError(t, err)
	assert.Len(t, past, 2)
	assert.Equal(t, genai.Text("q2"), turn.Parts[0])

	_, _, err = splitLastUser(contents[1:2])
	assert.ErrorIs(t, err, ErrNoUserTurn)
}

func TestSDKText(t *testing.T) {
	assert.Equal(t, model.NoResponse, sdkText(nil))
	assert.Equal(t, model.NoResponse, sdkText(&genai.GenerateContentResponse{}))
	assert.Equal(t, model.NoResponse, sdkText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Blob{}}}}},
	}))
	assert.Equal(t, "hi", sdkText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("hi")}}}},
	}))
}

func TestSDKClient_NotConfigured(t *testing.T) {
	_, err := NewSDKClient(nil).Generate(context.Background(), "", userTurn("hi"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}
