package filter

import (
	"reflect"
	"testing"
)

// TestParseIDs_SplitsAndTrims はカンマ区切り文字列が前後空白除去付きでトークン化されることをテストする。
func TestParseIDs_SplitsAndTrims(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "空文字列はnil", input: "", want: nil},
		{name: "単一トークン", input: "42", want: []string{"42"}},
		{name: "複数トークン", input: "1,2,3", want: []string{"1", "2", "3"}},
		{name: "空白を除去", input: "1, 2,3", want: []string{"1", "2", "3"}},
		{name: "前後の空白", input: "  a  ,  b  ", want: []string{"a", "b"}},
		{name: "空トークンを除外", input: "1,,2,", want: []string{"1", "2"}},
		{name: "カンマのみ", input: ",,,", want: nil},
		{name: "非数値トークンは通過する", input: "abc,5", want: []string{"abc", "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseIDs(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseIDs(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestParseIDs_NoEmptyOrPaddedTokens は結果に空文字列と前後空白付きトークンが含まれないことをテストする。
func TestParseIDs_NoEmptyOrPaddedTokens(t *testing.T) {
	inputs := []string{"", " ", "a, ,b", " 1 , 2 ", ",x,", "a,\tb , c"}
	for _, input := range inputs {
		for _, token := range ParseIDs(input) {
			if token == "" {
				t.Errorf("ParseIDs(%q) に空トークンが含まれています", input)
			}
			if token != trimmed(token) {
				t.Errorf("ParseIDs(%q) のトークン %q に前後空白が含まれています", input, token)
			}
		}
	}
}

func trimmed(s string) string {
	start := 0
	for start < len(s) && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	end := len(s)
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}
