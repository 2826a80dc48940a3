package diffclassify

import "testing"

func TestIsCommentOrWhitespaceOnly(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{
			name:    "pure comment swap",
			content: "-// old explanation\n+// new explanation",
			want:    true,
		},
		{
			name:    "whitespace only",
			content: "-func foo() {\n+func foo()   {",
			want:    true,
		},
		{
			name:    "real code change",
			content: "-return a + b\n+return a - b",
			want:    false,
		},
		{
			name:    "string literal containing slashes is not a comment",
			content: "-x := \"http://example.com\"\n+x := \"http://example.com\"",
			want:    true,
		},
		{
			name:    "quoted text that looks like a comment is preserved as code",
			content: "-log.Print(\"value\")\n+log.Print(\"// not a comment\")",
			want:    false,
		},
		{
			name:    "block comment rewording",
			content: "-/* old */\n+/* new */",
			want:    true,
		},
		{
			name:    "javadoc continuation margin ignored",
			content: "- * old line\n+ * new line",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCommentOrWhitespaceOnly(tt.content); got != tt.want {
				t.Errorf("IsCommentOrWhitespaceOnly(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestIsCodeLine(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"return x", true},
		{"// a comment", false},
		{"  // indented comment", false},
		{"/* block start", false},
		{" * continuation", false},
		{"x := \"// in a string\"", true},
	}

	for _, tt := range tests {
		if got := IsCodeLine(tt.text); got != tt.want {
			t.Errorf("IsCodeLine(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
