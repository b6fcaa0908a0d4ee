package auth

import (
	"encoding/hex"
	"strings"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	if len(key) != keySecretBytes*2 {
		t.Errorf("key should be %d hex chars, got %d", keySecretBytes*2, len(key))
	}

	if _, err := hex.DecodeString(key); err != nil {
		t.Errorf("key should be valid hex, got %q: %v", key, err)
	}
}

func TestGenerateKey_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := GenerateKey()
		if err != nil {
			t.Fatalf("GenerateKey failed: %v", err)
		}
		if seen[key] {
			t.Fatalf("duplicate key generated: %s", key)
		}
		seen[key] = true
	}
}

func TestSelectKey(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		clientKey string
		verbatim  bool
	}{
		{
			name:      "long client key used verbatim",
			clientKey: "my-custom-key-longer-than-ten",
			verbatim:  true,
		},
		{
			name:      "eleven characters is long enough",
			clientKey: strings.Repeat("a", 11),
			verbatim:  true,
		},
		{
			name:      "exactly ten characters is replaced",
			clientKey: strings.Repeat("a", 10),
			verbatim:  false,
		},
		{
			name:      "short key is replaced",
			clientKey: "short",
			verbatim:  false,
		},
		{
			name:      "empty key is replaced",
			clientKey: "",
			verbatim:  false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			key, err := SelectKey(tc.clientKey)
			if err != nil {
				t.Fatalf("SelectKey failed: %v", err)
			}

			if tc.verbatim {
				if key != tc.clientKey {
					t.Errorf("expected client key %q verbatim, got %q", tc.clientKey, key)
				}
				return
			}

			if key == tc.clientKey {
				t.Errorf("short client key %q should have been replaced", tc.clientKey)
			}
			if len(key) != keySecretBytes*2 {
				t.Errorf("generated key should be %d chars, got %d", keySecretBytes*2, len(key))
			}
		})
	}
}
