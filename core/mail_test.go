package core

import (
	"strings"
	"testing"

	appfs "github.com/trezcool/bossmaker/fs"
)

func TestEmailMessage_renderWelcome(t *testing.T) {
	SetTemplatesFS(appfs.FS)

	msg := &EmailMessage{
		Subject:      "Your account is ready",
		TemplateName: "welcome",
		TemplateData: struct {
			FirstName string
			Email     string
			Password  string
		}{"Jane", "jane@test.cm", "s3cr3t!"},
	}
	if err := msg.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !msg.HasContent() {
		t.Fatal("Render() produced no content")
	}
	for _, want := range []string{"Jane", "jane@test.cm", "s3cr3t!"} {
		if !strings.Contains(msg.TextContent, want) {
			t.Errorf("text content missing %q:\n%s", want, msg.TextContent)
		}
	}
	if !strings.Contains(msg.HTMLContent, "Jane") {
		t.Errorf("html content missing recipient name:\n%s", msg.HTMLContent)
	}
}
