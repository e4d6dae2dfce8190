package encoding

import (
	"errors"
	"strings"
	"testing"
)

type testProps struct {
	CompanyID string   `msgpack:"c"`
	Active    string   `msgpack:"a,omitempty"`
	Search    string   `msgpack:"q,omitempty"`
	Page      int      `msgpack:"n,omitempty"`
	Tags      []string `msgpack:"t,omitempty"`
	Hydrated  string   `msgpack:"-"`
}

func newTestEncoder(t *testing.T) *Encoder {
	t.Helper()
	enc, err := NewEncoder([]byte("test-key"))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}
	return enc
}

func TestNewEncoder(t *testing.T) {
	for _, key := range []string{"short", "this-is-a-32-byte-key-for-aes!!!", strings.Repeat("k", 64)} {
		if _, err := NewEncoder([]byte(key)); err != nil {
			t.Fatalf("NewEncoder(%d bytes) failed: %v", len(key), err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	enc := newTestEncoder(t)
	original := testProps{
		CompanyID: "c-42",
		Active:    "totalRevenue",
		Page:      3,
		Tags:      []string{"a", "b"},
		Hydrated:  "dropped",
	}

	for _, sensitive := range []bool{false, true} {
		encoded, err := enc.Encode(original, sensitive)
		if err != nil {
			t.Fatalf("Encode(sensitive=%v) failed: %v", sensitive, err)
		}
		if strings.ContainsAny(encoded, "+/=") {
			t.Errorf("encoded token %q is not URL safe", encoded)
		}

		var decoded testProps
		if err := enc.Decode(encoded, sensitive, &decoded); err != nil {
			t.Fatalf("Decode(sensitive=%v) failed: %v", sensitive, err)
		}
		if decoded.CompanyID != original.CompanyID || decoded.Active != original.Active || decoded.Page != original.Page {
			t.Errorf("decoded %+v, want %+v", decoded, original)
		}
		if len(decoded.Tags) != 2 || decoded.Tags[1] != "b" {
			t.Errorf("Tags = %v", decoded.Tags)
		}
		if decoded.Hydrated != "" {
			t.Errorf("skipped field leaked: %q", decoded.Hydrated)
		}
	}
}

func TestSignedIsReadableEncryptedIsNot(t *testing.T) {
	enc := newTestEncoder(t)
	props := testProps{CompanyID: "visible-id"}

	signed, _ := enc.Encode(props, false)
	if !strings.Contains(signed, ".") {
		t.Errorf("signed token %q has no signature separator", signed)
	}
	sealed, _ := enc.Encode(props, true)
	if strings.Contains(sealed, ".") {
		t.Errorf("sealed token %q looks signed", sealed)
	}

	again, _ := enc.Encode(props, true)
	if again == sealed {
		t.Error("encrypted tokens should use a fresh nonce")
	}
}

func TestTamperedSignature(t *testing.T) {
	enc := newTestEncoder(t)
	encoded, _ := enc.Encode(testProps{CompanyID: "c1"}, false)

	payload, _, _ := strings.Cut(encoded, ".")
	forged, _ := enc.Encode(testProps{CompanyID: "c2"}, false)
	_, forgedSig, _ := strings.Cut(forged, ".")

	var out testProps
	err := enc.Decode(payload+"."+forgedSig, false, &out)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("Decode error = %v, want ErrSignatureInvalid", err)
	}
}

func TestWrongKey(t *testing.T) {
	enc := newTestEncoder(t)
	other, _ := NewEncoder([]byte("other-key"))

	signed, _ := enc.Encode(testProps{CompanyID: "c1"}, false)
	sealed, _ := enc.Encode(testProps{CompanyID: "c1"}, true)

	var out testProps
	if err := other.Decode(signed, false, &out); !errors.Is(err, ErrSignatureInvalid) {
		t.Errorf("signed with wrong key: %v", err)
	}
	if err := other.Decode(sealed, true, &out); !errors.Is(err, ErrDecryptFailed) {
		t.Errorf("sealed with wrong key: %v", err)
	}
}

func TestMalformed(t *testing.T) {
	enc := newTestEncoder(t)
	tests := []struct {
		name      string
		input     string
		sensitive bool
	}{
		{"no separator", "abc", false},
		{"bad base64 payload", "!!!.abc", false},
		{"bad base64 signature", "abc.!!!", false},
		{"sealed too short", "YQ", true},
		{"sealed bad base64", "***", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out testProps
			if err := enc.Decode(tt.input, tt.sensitive, &out); !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Decode(%q) = %v, want ErrInvalidFormat", tt.input, err)
			}
		})
	}
}
