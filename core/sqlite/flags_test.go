package sqlite

import (
	"errors"
	"testing"
)

func TestOpenFlagsValidate(t *testing.T) {
	tests := []struct {
		name  string
		flags OpenFlags
		ok    bool
	}{
		{"default", OpenDefault, true},
		{"read only", OpenReadOnly, true},
		{"read write", OpenReadWrite, true},
		{"uri shared", OpenDefault | OpenURI | OpenSharedCache, true},
		{"full mutex", OpenReadWrite | OpenFullMutex, true},
		{"exclusive", OpenDefault | OpenExclusiveLock, true},
		{"none", 0, false},
		{"create alone", OpenCreate, false},
		{"ro and rw", OpenReadOnly | OpenReadWrite, false},
		{"ro create", OpenReadOnly | OpenCreate, false},
		{"both caches", OpenDefault | OpenSharedCache | OpenPrivateCache, false},
		{"both mutex modes", OpenDefault | OpenNoMutex | OpenFullMutex, false},
		{"unknown bit", OpenDefault | 1<<20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.flags.Validate()
			if tt.ok {
				if err != nil {
					t.Fatalf("Validate(%s) = %v", tt.flags, err)
				}
				return
			}
			if !errors.Is(err, CodeMisuse) {
				t.Fatalf("Validate(%s) = %v, want misuse", tt.flags, err)
			}
		})
	}
}

func TestOpenFlagsString(t *testing.T) {
	tests := []struct {
		flags OpenFlags
		want  string
	}{
		{0, "0"},
		{OpenDefault, "ReadWrite|Create"},
		{OpenReadOnly | OpenURI, "ReadOnly|URI"},
		{OpenDefault | OpenExclusiveLock, "ReadWrite|Create|ExclusiveLock"},
		{OpenReadOnly | 0x100000, "ReadOnly|0x100000"},
	}
	for _, tt := range tests {
		if got := tt.flags.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.flags), got, tt.want)
		}
	}
}

func TestOpenFlagsEngineBits(t *testing.T) {
	if got := (OpenDefault | OpenExclusiveLock).engineFlags(); got != int(OpenDefault) {
		t.Errorf("engineFlags() = %#x, want %#x", got, int(OpenDefault))
	}
}
