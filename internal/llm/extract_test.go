package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "fenced block",
			in:   "Here you go:\n```json\n{\"intent\": \"submit_expense\"}\n```\nDone.",
			want: `{"intent": "submit_expense"}`,
		},
		{
			name: "think block stripped",
			in:   "<think>reasoning about amounts</think>{\"amount\": 6500}",
			want: `{"amount": 6500}`,
		},
		{
			name: "balanced braces with trailing prose",
			in:   `The plan is {"steps": [{"id": 1}]} as requested`,
			want: `{"steps": [{"id": 1}]}`,
		},
		{
			name: "bare object",
			in:   `{"ok": true}`,
			want: `{"ok": true}`,
		},
		{
			name: "no json returns text",
			in:   "I cannot help with that.",
			want: "I cannot help with that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.in); got != tt.want {
				t.Fatalf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Intent string `json:"intent"`
	}
	in := "```json\n{\"intent\": \"book_flight\"}\n```"
	if err := DecodeJSON(in, &out); err != nil {
		t.Fatal(err)
	}
	if out.Intent != "book_flight" {
		t.Fatalf("intent = %q", out.Intent)
	}

	if err := DecodeJSON("not json at all", &out); err == nil {
		t.Fatal("expected decode error")
	}
}
