package core

import (
	"reflect"
	"testing"
)

func TestParseDelimited(t *testing.T) {
	tests := []struct {
		name  string
		input string
		delim rune
		want  [][]string
	}{
		{
			name:  "simple rows",
			input: "a,b,c\n1,2,3\n",
			delim: ',',
			want:  [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name:  "no trailing newline",
			input: "a,b\n1,2",
			delim: ',',
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "crlf and bare cr line endings",
			input: "a,b\r\n1,2\r3,4",
			delim: ',',
			want:  [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}},
		},
		{
			name:  "quoted delimiter",
			input: `name,address` + "\n" + `Ann,"12 Main St, Apt 4"`,
			delim: ',',
			want:  [][]string{{"name", "address"}, {"Ann", "12 Main St, Apt 4"}},
		},
		{
			name:  "escaped quotes",
			input: `"say ""hi""",x`,
			delim: ',',
			want:  [][]string{{`say "hi"`, "x"}},
		},
		{
			name:  "newline inside quotes",
			input: "\"line one\nline two\",b\n",
			delim: ',',
			want:  [][]string{{"line one\nline two", "b"}},
		},
		{
			name:  "cells trimmed",
			input: "  a ,  b  \n",
			delim: ',',
			want:  [][]string{{"a", "b"}},
		},
		{
			name:  "blank rows dropped",
			input: "a,b\n\n , \n1,2\n\n",
			delim: ',',
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "empty cells kept inside a row",
			input: "a,,c\n",
			delim: ',',
			want:  [][]string{{"a", "", "c"}},
		},
		{
			name:  "pipe delimiter",
			input: "a|b,c\n1|2",
			delim: '|',
			want:  [][]string{{"a", "b,c"}, {"1", "2"}},
		},
		{
			name:  "tab delimiter",
			input: "a\tb\n1\t2",
			delim: '\t',
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "unterminated quote runs to end",
			input: "a,\"open\nstill open",
			delim: ',',
			want:  [][]string{{"a", "open\nstill open"}},
		},
		{
			name:  "empty input",
			input: "",
			delim: ',',
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDelimited(tt.input, tt.delim)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDelimited(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSerializeDelimited_RoundTrip(t *testing.T) {
	rows := [][]string{
		{"Work Order ID", "Notes", "Address"},
		{"WO-1", `gate code "1234"`, "12 Main St, Apt 4"},
		{"WO-2", "two\nlines", "5 Elm"},
		{"WO-3", "", "semi;colon"},
	}

	for _, delim := range []rune{',', ';', '|', '\t'} {
		text := SerializeDelimited(rows, delim)
		got := ParseDelimited(text, delim)
		if !reflect.DeepEqual(got, rows) {
			t.Errorf("round trip with %q = %q, want %q", delim, got, rows)
		}
	}
}
