package ai

import "testing"

func TestParseFollowUps(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{
			name: "numbered list",
			raw:  "1. How does caching change the design?\n2. What breaks at 10x scale?",
			want: []string{"How does caching change the design?", "What breaks at 10x scale?"},
		},
		{
			name: "plain lines with blanks",
			raw:  "\nFirst question?\n\nSecond question?\n",
			want: []string{"First question?", "Second question?"},
		},
		{
			name: "dashes and parens",
			raw:  "- First question?\n2) Second question?",
			want: []string{"First question?", "Second question?"},
		},
		{
			name: "extra lines truncated",
			raw:  "1. A?\n2. B?\n3. C?",
			want: []string{"A?", "B?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFollowUps(tt.raw)
			if len(got) != FollowUpCount {
				t.Fatalf("len = %d, want %d", len(got), FollowUpCount)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseFollowUpsDegradesToDefaults(t *testing.T) {
	for _, raw := range []string{"", "only one question?", "   \n  \n"} {
		got := ParseFollowUps(raw)
		defaults := DefaultFollowUps()
		if got[0] != defaults[0] || got[1] != defaults[1] {
			t.Errorf("ParseFollowUps(%q) = %q, want canned defaults", raw, got)
		}
	}
}

func TestDefaultFollowUpsReturnsCopy(t *testing.T) {
	a := DefaultFollowUps()
	a[0] = "mutated"
	if b := DefaultFollowUps(); b[0] == "mutated" {
		t.Error("callers must not be able to mutate the canned pair")
	}
}

func TestParseGrade(t *testing.T) {
	raw := `{"score": 18, "summary": "Solid answer", "strengths": ["clear"], "improvements": ["depth"]}`
	g, err := ParseGrade(raw, 25)
	if err != nil {
		t.Fatalf("ParseGrade: %v", err)
	}
	if g.Score != 18 || g.Summary != "Solid answer" {
		t.Errorf("grade = %+v", g)
	}
	if len(g.Strengths) != 1 || len(g.Improvements) != 1 {
		t.Errorf("lists = %v / %v", g.Strengths, g.Improvements)
	}
}

func TestParseGradeStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"score\": 21, \"summary\": \"ok\"}\n```"
	g, err := ParseGrade(raw, 25)
	if err != nil {
		t.Fatalf("ParseGrade: %v", err)
	}
	if g.Score != 21 {
		t.Errorf("score = %d, want 21", g.Score)
	}
}

func TestParseGradeClamps(t *testing.T) {
	g, err := ParseGrade(`{"score": 120, "summary": "generous"}`, 25)
	if err != nil {
		t.Fatal(err)
	}
	if g.Score != 25 {
		t.Errorf("score = %d, want clamped to 25", g.Score)
	}

	g, err = ParseGrade(`{"score": -3, "summary": "harsh"}`, 25)
	if err != nil {
		t.Fatal(err)
	}
	if g.Score != 0 {
		t.Errorf("score = %d, want clamped to 0", g.Score)
	}
}

func TestParseGradeInvalid(t *testing.T) {
	if _, err := ParseGrade("I would give this a 20 out of 25.", 25); err == nil {
		t.Error("prose response must fail to parse")
	}
}

func TestClampScore(t *testing.T) {
	cases := []struct{ in, max, want int }{
		{-1, 25, 0},
		{0, 25, 0},
		{13, 25, 13},
		{25, 25, 25},
		{26, 25, 25},
	}
	for _, c := range cases {
		if got := ClampScore(c.in, c.max); got != c.want {
			t.Errorf("ClampScore(%d, %d) = %d, want %d", c.in, c.max, got, c.want)
		}
	}
}
