package handle_test

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"grab-a-time/internal/handle"
)

// seqSource replays fixed draws.
type seqSource struct {
	mu    sync.Mutex
	draws []uint64
}

func (s *seqSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.draws[0]
	s.draws = s.draws[1:]
	return v
}

func TestEncodeKnownValues(t *testing.T) {
	tests := []struct {
		v    uint64
		want string
	}{
		{0, "AAAAAAAAAAA"},
		{100, "AAAAAAAAAGQ"},
		{1 << 63, "gAAAAAAAAAA"},
		{math.MaxUint64, "__________8"},
	}
	for _, tt := range tests {
		if got := handle.Encode(tt.v); got != tt.want {
			t.Errorf("Encode(%d) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestEncode100RoundTrip(t *testing.T) {
	v, err := handle.Decode(handle.Encode(100))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v != 100 {
		t.Fatalf("got %d, want 100", v)
	}
}

func TestRoundTrip(t *testing.T) {
	values := []uint64{
		handle.Min, handle.Min + 1, 255, 256, 65535, 1 << 32, 1<<40 + 7,
		1<<62 - 1, 1 << 62, handle.Max - 1, handle.Max, math.MaxUint64,
	}
	for _, v := range values {
		h := handle.Encode(v)
		if len(h) != handle.Len {
			t.Errorf("Encode(%d) = %q, want length %d", v, h, handle.Len)
		}
		got, err := handle.Decode(h)
		if err != nil {
			t.Errorf("Decode(%q): %v", h, err)
			continue
		}
		if got != v {
			t.Errorf("Decode(Encode(%d)) = %d", v, got)
		}
	}
}

func TestGeneratedHandlesAreURLSafe(t *testing.T) {
	g := handle.NewGenerator(nil)
	for i := 0; i < 1000; i++ {
		h := g.Generate()
		if strings.Contains(h, "=") {
			t.Fatalf("%q has padding", h)
		}
		for _, r := range h {
			ok := r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_'
			if !ok {
				t.Fatalf("%q has %q outside the url-safe alphabet", h, r)
			}
		}
		v, err := handle.Decode(h)
		if err != nil {
			t.Fatalf("decode generated %q: %v", h, err)
		}
		if v < handle.Min || v > handle.Max {
			t.Fatalf("generated %d outside [%d, %d]", v, handle.Min, handle.Max)
		}
	}
}

func TestGeneratorRange(t *testing.T) {
	span := handle.Max - handle.Min + 1
	// 2^64 mod span == 198, so draws below 198 are rejected
	src := &seqSource{draws: []uint64{0, 197, 198, 198 + span - 1, 199}}
	g := handle.NewGenerator(src)

	if got := g.Value(); got != handle.Min {
		t.Errorf("first value = %d, want %d", got, handle.Min)
	}
	if got := g.Value(); got != handle.Max {
		t.Errorf("second value = %d, want %d", got, handle.Max)
	}
	if got := g.Value(); got != handle.Min+1 {
		t.Errorf("third value = %d, want %d", got, handle.Min+1)
	}
	if len(src.draws) != 0 {
		t.Errorf("%d draws left over", len(src.draws))
	}
}

func TestGenerateIsDeterministicWithSource(t *testing.T) {
	g := handle.NewGenerator(&seqSource{draws: []uint64{198}})
	if got := g.Generate(); got != handle.Encode(100) {
		t.Errorf("Generate() = %q, want %q", got, handle.Encode(100))
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"bad characters", "not valid!!"},
		{"padding kept", "AAAAAAAAAGQ="},
		{"standard alphabet", "AAAAAAAAA+Q"},
		{"impossible length", "AAAAA"},
		{"too short", "AAAA"},
		{"too long", "AAAAAAAAAAAAAAAA"},
		{"non canonical trailing bits", "AAAAAAAAAGR"},
		{"newline", "AAAAAAAAAG\nQ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handle.Decode(tt.in)
			if !errors.Is(err, handle.ErrInvalidHandle) {
				t.Fatalf("Decode(%q) error = %v, want ErrInvalidHandle", tt.in, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := handle.Validate("abc_-XYZ09"); err != nil {
		t.Errorf("valid alphabet rejected: %v", err)
	}
	// alphabet only; length is Decode's job
	if err := handle.Validate("AAAA"); err != nil {
		t.Errorf("short but well-formed string rejected: %v", err)
	}
	for _, s := range []string{"", "a b", "a=b", "a/b", "a+b", "ü"} {
		if err := handle.Validate(s); !errors.Is(err, handle.ErrInvalidHandle) {
			t.Errorf("Validate(%q) = %v, want ErrInvalidHandle", s, err)
		}
	}
}

func TestParse(t *testing.T) {
	h := handle.Encode(4242)
	got, err := handle.Parse(h)
	if err != nil || got != h {
		t.Fatalf("Parse(%q) = %q, %v", h, got, err)
	}
	if _, err := handle.Parse("not valid!!"); !errors.Is(err, handle.ErrInvalidHandle) {
		t.Fatalf("expected ErrInvalidHandle, got %v", err)
	}
}
