package bodycache

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	mids := []string{
		"<abc@example.com>",
		"<with%percent@example.com>",
		`<with"quote@example.com>`,
		"<with*star@example.com>",
		"<with/slash@example.com>",
		"<with:colon@example.com>",
		"<with?question@example.com>",
		"<with|pipe@example.com>",
		`<with\backslash@example.com>`,
		"<pan$1a2b3c$00000001$00000002$00000003@nospam.com>",
	}
	for _, mid := range mids {
		fn := EncodeFilename(mid)
		got, ok := DecodeFilename(fn)
		if !ok {
			t.Fatalf("DecodeFilename(%q) failed", fn)
		}
		if got != mid {
			t.Errorf("round trip failed: %q -> %q -> %q", mid, fn, got)
		}
	}
}

func TestEncodeFilenameHasMsgSuffix(t *testing.T) {
	fn := EncodeFilename("<a@b>")
	if fn[len(fn)-4:] != ".msg" {
		t.Fatalf("expected .msg suffix, got %q", fn)
	}
}

func TestDecodeFilenameCaseInsensitiveEscape(t *testing.T) {
	// Upper-case hex escape should still decode, even though we always
	// emit lowercase ourselves.
	got, ok := DecodeFilename("with%2Aupper.msg")
	if !ok || got != "<with*upper>" {
		t.Fatalf("expected case-insensitive decode, got %q ok=%v", got, ok)
	}
}

func TestDecodeFilenameRejectsMissingSuffix(t *testing.T) {
	if _, ok := DecodeFilename("not-a-cache-file.txt"); ok {
		t.Fatalf("expected decode to fail without .msg suffix")
	}
}
