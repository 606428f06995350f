package cmd

import (
	"errors"
	"testing"

	"github.com/ardnew/ajs/lang"
)

func TestRunRun(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string // file name to content; "-" is stdin
		want    string
		wantErr error
	}{
		{
			name:  "single file",
			files: map[string]string{"a.ajs": `print("hello");`},
			want:  "hello\n",
		},
		{
			name:  "stdin",
			files: map[string]string{"-": "var x = 2; print(x * 21);"},
			want:  "42\n",
		},
		{
			name:  "host registry",
			files: map[string]string{"-": `print(strings.Join(["a", "b"], "-"));`},
			want:  "a-b\n",
		},
		{
			name:    "syntax error",
			files:   map[string]string{"-": "var = ;"},
			wantErr: lang.ErrSyntax,
		},
		{
			name:    "runtime error",
			files:   map[string]string{"-": "var n = 1; n();"},
			wantErr: lang.ErrNotCallable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := withStdio(t, tt.files["-"])

			var args []string

			for name, content := range tt.files {
				if name == "-" {
					args = append(args, name)
				} else {
					args = append(args, writeFile(t, name, content))
				}
			}

			err := (&Run{Files: args}).Run(t.Context())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Run() unexpected error = %v", err)
			}

			if got := out.String(); got != tt.want {
				t.Errorf("Run() output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunSharesRuntimeAcrossFiles(t *testing.T) {
	out := withStdio(t, "")

	first := writeFile(t, "first.ajs", "var greet = function(name) { return 'hi ' + name; };")
	second := writeFile(t, "second.ajs", "print(greet('ajs'));")

	if err := (&Run{Files: []string{first, second}}).Run(t.Context()); err != nil {
		t.Fatalf("Run() unexpected error = %v", err)
	}

	if got, want := out.String(), "hi ajs\n"; got != want {
		t.Errorf("Run() output = %q, want %q", got, want)
	}
}
