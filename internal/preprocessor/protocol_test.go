package preprocessor_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"mdbook-backlinks/internal/book"
	"mdbook-backlinks/internal/preprocessor"
	"mdbook-backlinks/internal/preprocessor/mocks"
)

const input = `[
  {"root": "/books/guide", "config": {"book": {"title": "Guide"}}, "renderer": "html", "mdbook_version": "0.4.40"},
  {"sections": [
    {"Chapter": {"name": "Index", "content": "see [x](b/x.md)", "number": [1], "sub_items": [
      {"Chapter": {"name": "X", "content": "root doc", "number": [1, 1], "sub_items": [], "path": "b/x.md", "source_path": "b/x.md", "parent_names": ["Index"]}},
      {"Chapter": {"name": "Y", "content": "[back](../index.md)", "number": [1, 2], "sub_items": [], "path": "b/y.md", "source_path": "b/y.md", "parent_names": ["Index"]}}
    ], "path": "index.md", "source_path": "index.md", "parent_names": []}}
  ], "__non_exhaustive": null}
]`

func TestReadInput(t *testing.T) {
	hostCtx, b, err := preprocessor.ReadInput(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadInput() error = %v", err)
	}
	if hostCtx.Renderer != "html" || hostCtx.MDBookVersion != "0.4.40" || hostCtx.Root != "/books/guide" {
		t.Errorf("unexpected context %+v", hostCtx)
	}
	if got := len(book.Flatten(b)); got != 3 {
		t.Errorf("expected 3 chapters, got %d", got)
	}
}

func TestReadInput_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not json", "hello"},
		{"object instead of pair", `{"sections": []}`},
		{"one element", `[{}]`},
		{"bad context", `["ctx", {"sections": []}]`},
		{"bad book", `[{}, {"sections": "nope"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := preprocessor.ReadInput(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, preprocessor.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			var perr *preprocessor.ParseError
			if !errors.As(err, &perr) {
				t.Errorf("expected *ParseError, got %T", err)
			}
		})
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		host    string
		wantErr bool
	}{
		{"0.4.40", false},
		{"0.4.52", false},
		{"v0.4.41", false},
		{"0.4.39", true},
		{"0.5.0", true},
		{"1.0.0", true},
		{"", true},
		{"latest", true},
	}
	for _, tt := range tests {
		err := preprocessor.CheckVersion(tt.host)
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckVersion(%q): wantErr %v, got %v", tt.host, tt.wantErr, err)
		}
		if err != nil && !errors.Is(err, preprocessor.ErrUnsupported) {
			t.Errorf("CheckVersion(%q): expected ErrUnsupported, got %v", tt.host, err)
		}
	}
}

func TestHandle_EndToEnd(t *testing.T) {
	var out bytes.Buffer
	if err := preprocessor.Handle(context.Background(), preprocessor.New(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	var b book.Book
	if err := json.Unmarshal(out.Bytes(), &b); err != nil {
		t.Fatalf("output is not a book: %v", err)
	}
	byID := make(map[string]string)
	for _, ch := range book.Flatten(&b) {
		byID[ch.ID()] = ch.Content
	}

	if !strings.Contains(byID["index.md"], "- [back](b/y.md)") {
		t.Errorf("index.md: expected backlink, got %q", byID["index.md"])
	}
	if !strings.Contains(byID["b/x.md"], "- [x](../index.md)") {
		t.Errorf("b/x.md: expected backlink, got %q", byID["b/x.md"])
	}
	if byID["b/y.md"] != "[back](../index.md)" {
		t.Errorf("b/y.md: expected unchanged, got %q", byID["b/y.md"])
	}
}

func TestHandle_WithMock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPre := mocks.NewMockPreprocessor(ctrl)
	mockPre.EXPECT().
		Run(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, hostCtx *preprocessor.Context, b *book.Book) (*book.Book, error) {
			if hostCtx.Renderer != "html" {
				t.Errorf("expected renderer html, got %q", hostCtx.Renderer)
			}
			return b, nil
		})

	var out bytes.Buffer
	if err := preprocessor.Handle(context.Background(), mockPre, strings.NewReader(input), &out); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if !strings.Contains(out.String(), `"sections"`) {
		t.Errorf("expected book on output, got %q", out.String())
	}
}

func TestHandle_VersionMismatchOnlyWarns(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPre := mocks.NewMockPreprocessor(ctrl)
	mockPre.EXPECT().Name().Return("backlinks")
	mockPre.EXPECT().
		Run(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *preprocessor.Context, b *book.Book) (*book.Book, error) {
			return b, nil
		})

	old := strings.Replace(input, `"0.4.40"`, `"0.3.7"`, 1)
	var out bytes.Buffer
	if err := preprocessor.Handle(context.Background(), mockPre, strings.NewReader(old), &out); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if out.Len() == 0 {
		t.Error("expected book on output despite version mismatch")
	}
}

func TestHandle_Errors(t *testing.T) {
	t.Run("malformed input writes nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockPre := mocks.NewMockPreprocessor(ctrl)

		var out bytes.Buffer
		err := preprocessor.Handle(context.Background(), mockPre, strings.NewReader(`[{"root": `), &out)
		if !errors.Is(err, preprocessor.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if out.Len() != 0 {
			t.Errorf("expected nothing on output, got %q", out.String())
		}
	})

	t.Run("run failure writes nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockPre := mocks.NewMockPreprocessor(ctrl)
		boom := errors.New("boom")
		mockPre.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)

		var out bytes.Buffer
		err := preprocessor.Handle(context.Background(), mockPre, strings.NewReader(input), &out)
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped boom, got %v", err)
		}
		if out.Len() != 0 {
			t.Errorf("expected nothing on output, got %q", out.String())
		}
	})
}
