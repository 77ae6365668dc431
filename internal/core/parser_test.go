// ABOUTME: Tests for ReAct field parsing
// ABOUTME: Verifies last-occurrence scanning, missing anchors, and prompt skipping

package core

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]string
	}{
		{
			name: "all fields",
			text: "...Thought: T1\nAction: lookup: X\nObservation: O1\nAnswer: A1",
			want: map[string]string{"thought": "T1", "action": "lookup: X", "observation": "O1", "answer": "A1"},
		},
		{
			name: "no answer anchor",
			text: "Thought: T1\nAction: lookup: X\nObservation: O1",
			want: map[string]string{},
		},
		{
			name: "empty text",
			text: "",
			want: map[string]string{},
		},
		{
			name: "answer only",
			text: "Answer: Paris",
			want: map[string]string{"answer": "Paris"},
		},
		{
			name: "exemplar before live response",
			text: "Question: Q0\nThought: old\nAction: lookup: old\nObservation: old\nAnswer: old\n\nQuestion: Q1\nThought: new\nAction: lookup: new\nObservation: new\nAnswer: new",
			want: map[string]string{"thought": "new", "action": "lookup: new", "observation": "new", "answer": "new"},
		},
		{
			name: "value stops at newline",
			text: "Thought: first line\nsecond line\nAnswer: done\ntrailing",
			want: map[string]string{"thought": "first line", "answer": "done"},
		},
		{
			name: "labels are case sensitive",
			text: "thought: lower\nanswer: lower\nAnswer: upper",
			want: map[string]string{"answer": "upper"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Parse() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("Parse()[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestParse_ShrinkingWindow(t *testing.T) {
	text := "Observation: exemplar\nAnswer: exemplar\nThought: live\nAnswer: live"
	got := Parse(text)

	if got["answer"] != "live" {
		t.Errorf("answer = %q, want %q", got["answer"], "live")
	}
	if got["observation"] != "exemplar" {
		t.Errorf("observation = %q, want %q", got["observation"], "exemplar")
	}
	// the window shrank past the live Thought once Observation was consumed
	if _, ok := got["thought"]; ok {
		t.Errorf("thought = %q, want it absent", got["thought"])
	}
}

func TestParseAfter_IgnoresPromptFields(t *testing.T) {
	prompt := "Thought: exemplar\nAction: lookup: exemplar\nObservation: exemplar\nAnswer: exemplar\nQuestion: What is 2+2?"
	response := "Thought: simple arithmetic\nAnswer: 4"
	text := prompt + "\n" + response

	got := ParseAfter(text, len(prompt))

	if got["answer"] != "4" {
		t.Errorf("answer = %q, want %q", got["answer"], "4")
	}
	if got["thought"] != "simple arithmetic" {
		t.Errorf("thought = %q, want %q", got["thought"], "simple arithmetic")
	}
	if _, ok := got["action"]; ok {
		t.Errorf("action = %q, want it absent", got["action"])
	}
	if _, ok := got["observation"]; ok {
		t.Errorf("observation = %q, want it absent", got["observation"])
	}
}

func TestParseAfter_AnswerOnlyInPrompt(t *testing.T) {
	prompt := "Answer: exemplar\nQuestion: hi"
	got := ParseAfter(prompt+"\nThought: thinking", len(prompt))

	if _, ok := got["answer"]; ok {
		t.Errorf("answer should be absent when only the prompt has one, got %q", got["answer"])
	}
	if got["thought"] != "thinking" {
		t.Errorf("thought = %q, want %q", got["thought"], "thinking")
	}
}
