package llm

import "testing"

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Sure! Here is the plan: {"a":1} Hope it helps.`, `{"a":1}`},
		{"nested", `{"a":{"b":[1,2]}}`, `{"a":{"b":[1,2]}}`},
		{"braces in strings", `{"text":"use { and } freely"}`, `{"text":"use { and } freely"}`},
		{"escaped quotes", `{"text":"she said \"hi\""}`, `{"text":"she said \"hi\""}`},
		{"array", `the list: [1,2,3]`, `[1,2,3]`},
		{"object before array", `{"a":[1]} trailing [9]`, `{"a":[1]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ExtractJSON(c.in)
			if err != nil {
				t.Fatalf("ExtractJSON(%q): %v", c.in, err)
			}
			if got != c.want {
				t.Fatalf("got %q want %q", got, c.want)
			}
		})
	}
}

func TestExtractJSON_Failures(t *testing.T) {
	for _, in := range []string{
		"",
		"no json here at all",
		`{"unterminated": `,
		"{broken}",
	} {
		if got, err := ExtractJSON(in); err == nil {
			t.Fatalf("ExtractJSON(%q) succeeded with %q", in, got)
		}
	}
}
