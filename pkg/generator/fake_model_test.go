package generator

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

// recordedCall は fakeModel が受け取った呼び出しです。
type recordedCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

// fakeModel は gemini.GenerativeModel のテスト用実装です。
type fakeModel struct {
	mu      sync.Mutex
	calls   []recordedCall
	respond func(call recordedCall) (*genai.GenerateContentResponse, error)
}

func (f *fakeModel) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	call := recordedCall{model: model, contents: contents, config: config}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	return f.respond(call)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func partsResponse(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: parts},
		}},
	}
}
