package security

import "testing"

func TestTextSanitizer_Sanitize(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Groceries", "Groceries"},
		{"空文字列", "", ""},
		{"前後の空白を除去", "  Rent  ", "Rent"},
		{"scriptタグを内容ごと除去", `Lunch<script>alert(1)</script>`, "Lunch"},
		{"装飾タグは除去して本文を残す", "<b>Salary</b> bonus", "Salary bonus"},
		{"イベント属性付きタグを除去", `<img src=x onerror="alert(1)">Coffee`, "Coffee"},
		{"記号はエスケープせず保持", "Tom & Jerry < 5", "Tom & Jerry < 5"},
		{"マルチバイト文字", "食費 🍙", "食費 🍙"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// 2回適用しても結果が変わらないことを検証
func TestTextSanitizer_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()
	inputs := []string{"<p>Dinner</p>", "a & b", "  <i>x</i>  "}

	for _, in := range inputs {
		once := sanitizer.Sanitize(in)
		if twice := sanitizer.Sanitize(once); twice != once {
			t.Errorf("Sanitize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
