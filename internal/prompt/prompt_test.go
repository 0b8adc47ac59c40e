package prompt

import (
	"errors"
	"strings"
	"testing"

	"answerxtractor/pkg/ai"
	"answerxtractor/pkg/domain"
)

const docText = "The mitochondria is the powerhouse of the cell."

func TestForChatNoContextNeverSendsDocument(t *testing.T) {
	p := ForChat(docText, "What is 2+2?", true)
	if strings.Contains(p.System, docText) || strings.Contains(p.User, docText) {
		t.Fatalf("ungrounded prompt leaked document text: %+v", p)
	}
	if p.User != "What is 2+2?" {
		t.Fatalf("expected user turn to be the question verbatim, got %q", p.User)
	}
	if strings.Contains(p.System, "DOCUMENT CONTEXT") {
		t.Fatalf("ungrounded system prompt should not mention document context")
	}
}

func TestGroundedIncludesContextAndQuestion(t *testing.T) {
	p := ForChat(docText, "What is the powerhouse?", false)
	if !strings.HasPrefix(p.User, "DOCUMENT CONTEXT:\n"+docText+"\n\nUSER QUESTION:\nWhat is the powerhouse?\n\n") {
		t.Fatalf("unexpected grounded user prompt: %q", p.User)
	}
	if !strings.Contains(p.System, "greet") {
		t.Fatalf("expected greeting guidance in system prompt")
	}
	if p.Options != AnswerOptions {
		t.Fatalf("unexpected options: %+v", p.Options)
	}
	if p.Options.Temperature != 0.1 || p.Options.TopP != 0.9 || p.Options.MaxTokens != 1024 || p.Options.JSON {
		t.Fatalf("unexpected answer defaults: %+v", p.Options)
	}
}

func TestStudyTemplates(t *testing.T) {
	tests := []struct {
		kind domain.StudyKind
		want []string
	}{
		{domain.StudyFlashcards, []string{"10 and 15", `"flashcards"`, `"question"`, `"answer"`}},
		{domain.StudyQuiz, []string{"exactly 10", "exactly 4 options", `"correct_index"`, "0-based"}},
		{domain.StudyMindmap, []string{"2 to 3 levels", `"mindmap"`, `"children"`}},
	}
	for _, tc := range tests {
		p, err := Study(tc.kind, docText)
		if err != nil {
			t.Fatalf("Study(%s): %v", tc.kind, err)
		}
		for _, w := range tc.want {
			if !strings.Contains(p.User, w) {
				t.Fatalf("Study(%s) missing %q", tc.kind, w)
			}
		}
		if !strings.Contains(p.User, docText) {
			t.Fatalf("Study(%s) missing document text", tc.kind)
		}
		if !strings.HasSuffix(p.User, "markdown code fences.") {
			t.Fatalf("Study(%s) should end with the JSON-only demand", tc.kind)
		}
		if !p.Options.JSON || p.Options.MaxTokens != 4096 {
			t.Fatalf("Study(%s) unexpected options: %+v", tc.kind, p.Options)
		}
	}
}

func TestStudyUnknownKind(t *testing.T) {
	if _, err := Study("bogus", docText); !errors.Is(err, ErrUnsupportedTool) {
		t.Fatalf("expected unsupported tool, got %v", err)
	}
}

func TestRequestPlacesHistoryBeforeUserTurn(t *testing.T) {
	p := Ungrounded("next question")
	req := p.Request([]ai.Message{
		{Role: ai.RoleUser, Content: "earlier"},
		{Role: ai.RoleAssistant, Content: "earlier answer"},
	})
	if len(req.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(req.Messages))
	}
	last := req.Messages[2]
	if last.Role != ai.RoleUser || last.Content != "next question" {
		t.Fatalf("unexpected final turn: %+v", last)
	}
	if req.System != p.System || req.Options != p.Options {
		t.Fatalf("request lost system prompt or options")
	}
}
