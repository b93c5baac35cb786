package security

import (
	"net/http"
	"strings"
	"testing"
)

func TestValidateRelativePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
		errType string
	}{
		// Valid paths
		{"valid simple", "annotations.jsonl", false, ""},
		{"valid nested", "annotations/alice_annotations.jsonl", false, ""},
		{"valid deep", "data/runs/2024/q1/preds.json", false, ""},
		{"valid with dots", "preds.openai.json", false, ""},
		{"valid hidden", ".gitignore", false, ""},
		{"valid current dir", "./problems.json", false, ""},

		// Invalid paths
		{"empty", "", true, "empty"},
		{"null byte", "preds\x00.json", true, "null byte"},
		{"traversal simple", "../preds.json", true, "traversal"},
		{"traversal nested", "annotations/../../../etc/passwd", true, "traversal"},
		{"traversal hidden", "data/.../preds.json", false, ""}, // ... is not traversal
		{"absolute unix", "/etc/passwd", true, "traversal"},
		{"absolute windows", "C:\\Windows\\System32", true, "traversal"},
		{"reserved con", "con.json", true, "reserved"},
		{"reserved prn", "data/prn.jsonl", true, "reserved"},
		{"reserved aux", "aux", true, "reserved"},
		{"reserved lpt1", "lpt1.json", true, "reserved"},
		{"too long", strings.Repeat("a", 2000), true, "length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRelativePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRelativePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err != nil && tt.errType != "" {
				if !strings.Contains(err.Error(), tt.errType) {
					t.Errorf("ValidateRelativePath(%q) error = %v, should contain %q", tt.path, err, tt.errType)
				}
			}
		})
	}
}

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"simple", "hello world", "hello world"},
		{"newline", "line1\nline2", "line1\\nline2"},
		{"carriage return", "line1\rline2", "line1\\rline2"},
		{"tab", "col1\tcol2", "col1\\tcol2"},
		{"mixed", "a\nb\rc\td", "a\\nb\\rc\\td"},
		{"control chars", "hello\x00\x01\x02world", "helloworld"},
		{"long string", strings.Repeat("a", 300), strings.Repeat("a", 200) + "..."},
		{"unicode", "hello 世界", "hello 世界"},
		{"log injection", "alice\nERROR: fake error", "alice\\nERROR: fake error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeForLog(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeForLog(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestMaskSensitiveHeaders(t *testing.T) {
	headers := http.Header{
		"Content-Type":  []string{"application/json"},
		"Authorization": []string{"Bearer secret123"},
		"X-Api-Key":     []string{"key123"},
		"X-Request-Id":  []string{"req-456"},
		"Cookie":        []string{"session=abc"},
		"X-Custom-Auth": []string{"should-be-masked"},
	}

	masked := MaskSensitiveHeaders(headers)

	// Check non-sensitive headers are preserved
	if masked.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type should not be masked")
	}
	if masked.Get("X-Request-Id") != "req-456" {
		t.Errorf("X-Request-Id should not be masked")
	}

	// Check sensitive headers are masked
	sensitiveKeys := []string{"Authorization", "X-Api-Key", "Cookie", "X-Custom-Auth"}
	for _, key := range sensitiveKeys {
		if masked.Get(key) != "[REDACTED]" {
			t.Errorf("%s should be masked, got %q", key, masked.Get(key))
		}
	}

	// Check original headers are not modified
	if headers.Get("Authorization") != "Bearer secret123" {
		t.Errorf("Original headers should not be modified")
	}
}

func TestMaskSensitiveMap(t *testing.T) {
	m := map[string]string{
		"username":     "alice",
		"password":     "secret123",
		"api_key":      "key123",
		"database_url": "postgres://...",
		"secret_token": "tok123",
	}

	masked := MaskSensitiveMap(m)

	// Check non-sensitive values are preserved
	if masked["username"] != "alice" {
		t.Errorf("username should not be masked")
	}
	if masked["database_url"] != "postgres://..." {
		t.Errorf("database_url should not be masked")
	}

	// Check sensitive values are masked
	sensitiveKeys := []string{"password", "api_key", "secret_token"}
	for _, key := range sensitiveKeys {
		if masked[key] != "[REDACTED]" {
			t.Errorf("%s should be masked, got %q", key, masked[key])
		}
	}

	// Check original map is not modified
	if m["password"] != "secret123" {
		t.Errorf("Original map should not be modified")
	}
}

func TestSanitizeKeyword(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"simple", "equivalent fractions", "equivalent fractions"},
		{"with spaces", "  add  fractions  ", "add  fractions"},
		{"with newline", "add\nfractions", "addfractions"},
		{"with tab", "area\tmodel", "areamodel"},
		{"control chars", "solve\x00\x01equations", "solveequations"},
		{"unicode", "数学 fractions", "数学 fractions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeKeyword(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeKeyword(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestMaskSensitiveHeaders_Nil(t *testing.T) {
	result := MaskSensitiveHeaders(nil)
	if result != nil {
		t.Errorf("MaskSensitiveHeaders(nil) should return nil")
	}
}

func TestMaskSensitiveMap_Nil(t *testing.T) {
	result := MaskSensitiveMap(nil)
	if result != nil {
		t.Errorf("MaskSensitiveMap(nil) should return nil")
	}
}

func BenchmarkSanitizeForLog(b *testing.B) {
	input := strings.Repeat("hello\nworld\t", 100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SanitizeForLog(input)
	}
}

func BenchmarkValidateRelativePath(b *testing.B) {
	path := "annotations/alice_annotations.jsonl"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ValidateRelativePath(path)
	}
}

func BenchmarkMaskSensitiveHeaders(b *testing.B) {
	headers := http.Header{
		"Content-Type":  []string{"application/json"},
		"Authorization": []string{"Bearer secret123"},
		"X-Api-Key":     []string{"key123"},
		"X-Request-Id":  []string{"req-456"},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MaskSensitiveHeaders(headers)
	}
}
