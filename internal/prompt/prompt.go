// Package prompt builds the system and user prompts sent to the model for
// document chat and study-material generation.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"answerxtractor/pkg/ai"
	"answerxtractor/pkg/domain"
)

// ErrUnsupportedTool is returned for study kinds without a template.
var ErrUnsupportedTool = errors.New("unsupported study tool")

// Prompt is a ready-to-send system prompt, user turn and sampling options.
type Prompt struct {
	System  string
	User    string
	Options ai.Options
}

// Request converts p into a model request, placing history before the user turn.
func (p Prompt) Request(history []ai.Message) ai.Request {
	msgs := make([]ai.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: p.User})
	return ai.Request{System: p.System, Messages: msgs, Options: p.Options}
}

// Q&A and study sampling defaults.
var (
	AnswerOptions = ai.Options{Temperature: 0.1, TopP: 0.9, MaxTokens: 1024}
	StudyOptions  = ai.Options{Temperature: 0.3, MaxTokens: 4096, JSON: true}
)

const groundedSystem = `You are AnswerXtractor, a helpful AI assistant.

YOUR PRIMARY GOAL:
1. Answer the user's questions based on the provided DOCUMENT CONTEXT.
2. Always be helpful and polite.

GREETINGS AND GENERAL CHAT:
- If the user greets you ("hi", "hello", "thanks", "perfect") or makes small talk, reply naturally and politely.
- Do NOT say the answer was not found in the document for greetings or pleasantries.

DOCUMENT-BASED QUESTIONS:
- If a question is about the document content, answer using ONLY the document context.
- If the answer is NOT in the document, say so explicitly first: "I couldn't find information about that in the document, but based on general knowledge..." and then optionally give a brief general answer or ask for clarification.
- Keep answers professional and accurate.`

const ungroundedSystem = `You are AnswerXtractor, a knowledgeable and friendly general-purpose AI assistant.
Answer the user's question clearly and accurately from your general knowledge.
Keep answers concise unless the user asks for detail.`

// Grounded builds a prompt that answers question from documentText.
func Grounded(documentText, question string) Prompt {
	var b strings.Builder
	b.WriteString("DOCUMENT CONTEXT:\n")
	b.WriteString(documentText)
	b.WriteString("\n\nUSER QUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\nAnswer the question using ONLY the information from the document context above.")
	return Prompt{System: groundedSystem, User: b.String(), Options: AnswerOptions}
}

// Ungrounded builds a general-knowledge prompt. The user turn is the question verbatim.
func Ungrounded(question string) Prompt {
	return Prompt{System: ungroundedSystem, User: question, Options: AnswerOptions}
}

// ForChat picks Grounded or Ungrounded. With noContext the document text is never sent.
func ForChat(documentText, question string, noContext bool) Prompt {
	if noContext {
		return Ungrounded(question)
	}
	return Grounded(documentText, question)
}

const studySystem = `You are an expert educator who turns study material into learning aids.
You always respond with a single valid JSON object and nothing else.`

const jsonOnly = `

Respond with valid JSON only. Do not include any explanation, prose or markdown code fences.`

var studyTemplates = map[domain.StudyKind]string{
	domain.StudyFlashcards: `Create between 10 and 15 flashcards covering the key concepts of the document below.
Each flashcard has a "question" and an "answer". Keep answers short and factual.

Return exactly this shape:
{"flashcards": [{"question": "...", "answer": "..."}]}`,

	domain.StudyQuiz: `Create a multiple-choice quiz of exactly 10 questions about the document below.
Each question has exactly 4 options and one correct answer. "correct_index" is the 0-based index of the correct option.

Return exactly this shape:
{"quiz": [{"question": "...", "options": ["...", "...", "...", "..."], "correct_index": 0}]}`,

	domain.StudyMindmap: `Create a hierarchical mind map of the document below, 2 to 3 levels deep.
The root "name" is the main topic; "children" hold subtopics, each with their own "name" and optional "children".

Return exactly this shape:
{"mindmap": {"name": "...", "children": [{"name": "...", "children": [{"name": "..."}]}]}}`,
}

// Study builds the study-material prompt for kind over documentText.
func Study(kind domain.StudyKind, documentText string) (Prompt, error) {
	tmpl, ok := studyTemplates[kind]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %q", ErrUnsupportedTool, kind)
	}
	var b strings.Builder
	b.WriteString(tmpl)
	b.WriteString("\n\nDOCUMENT:\n")
	b.WriteString(documentText)
	b.WriteString(jsonOnly)
	return Prompt{System: studySystem, User: b.String(), Options: StudyOptions}, nil
}
