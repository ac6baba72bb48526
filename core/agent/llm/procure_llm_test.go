package llm

import (
	"testing"

	"procure_server/core/domain"
)

func TestNewClientConfigDefaults(t *testing.T) {
	c := NewClient(ClientConfig{APIKey: "sk-test"})
	if c.model != DefaultModel {
		t.Errorf("model = %q, want %q", c.model, DefaultModel)
	}
	if c.maxTokens != defaultMaxTokens {
		t.Errorf("maxTokens = %d, want default %d", c.maxTokens, defaultMaxTokens)
	}

	c = NewClient(ClientConfig{APIKey: "sk-test", Model: "gpt-4o", MaxTokens: 256, Temperature: 0.7})
	if c.model != "gpt-4o" || c.maxTokens != 256 || c.temperature != 0.7 {
		t.Errorf("configured client = model %q maxTokens %d temperature %v", c.model, c.maxTokens, c.temperature)
	}
}

func TestParseSubjectAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    domain.Kind
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"type":"negotiation","confidence":0.85,"reasoning":"price talk"}`,
			want:    domain.KindNegotiation,
		},
		{
			name:    "fenced json",
			content: "```json\n{\"type\":\"rfx\",\"confidence\":0.9}\n```",
			want:    domain.KindRFx,
		},
		{
			name:    "unknown type",
			content: `{"type":"spam","confidence":0.9}`,
			wantErr: true,
		},
		{
			name:    "confidence out of range",
			content: `{"type":"rfx","confidence":1.5}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: "the subject is a quotation request",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSubjectAnalysis(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSubjectAnalysis() error = %v", err)
			}
			if got.Kind != tt.want {
				t.Errorf("kind = %s, want %s", got.Kind, tt.want)
			}
		})
	}
}
