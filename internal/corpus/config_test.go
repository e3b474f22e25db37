package corpus

import (
	"errors"
	"testing"
)

func TestParseVariant(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Variant
	}{
		{"standard", VariantStandard},
		{"byte_pooling", VariantBytePooling},
		{"byte_pooling_dataloader", VariantBytePooling},
		{"BytePooling", VariantBytePooling},
		{"conversational", VariantConversational},
		{"mlm", VariantMLM},
		{" next_token_mlm ", VariantMLM},
	}
	for _, tt := range tests {
		got, err := ParseVariant(tt.in)
		if err != nil {
			t.Fatalf("ParseVariant(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseVariant(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseVariant("diffusion"); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for unknown variant, got %v", err)
	}
}

func TestVariantText(t *testing.T) {
	t.Parallel()

	var v Variant
	if err := v.UnmarshalText([]byte("mlm")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	b, err := v.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(b) != "mlm" {
		t.Fatalf("MarshalText = %q", b)
	}
	if Variant(42).Valid() {
		t.Fatalf("variant 42 should be invalid")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	base := Config{
		DataDir:       "/data",
		Dataset:       "tiny",
		Tokenizer:     "bytes",
		VocabSize:     258,
		ContextWindow: 8,
		BatchSize:     2,
	}.WithDefaults()
	if err := base.Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing data dir", func(c *Config) { c.DataDir = "" }},
		{"missing dataset", func(c *Config) { c.Dataset = " " }},
		{"dataset with separator", func(c *Config) { c.Dataset = "a/b" }},
		{"tokenizer dotdot", func(c *Config) { c.Tokenizer = ".." }},
		{"unknown variant", func(c *Config) { c.Variant = Variant(9) }},
		{"zero vocab", func(c *Config) { c.VocabSize = 0 }},
		{"vocab above 16 bits", func(c *Config) { c.VocabSize = 65537 }},
		{"zero context window", func(c *Config) { c.ContextWindow = 0 }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"pad id out of range", func(c *Config) { c.PadID = 70000 }},
		{"byte pooling without row width", func(c *Config) { c.Variant = VariantBytePooling }},
		{"masking above one", func(c *Config) { c.Variant = VariantMLM; c.MaskingPct = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}

	widest := base
	widest.VocabSize = 65536
	if err := widest.Validate(); err != nil {
		t.Fatalf("vocab 65536 should fit: %v", err)
	}
}

func TestConfigPaths(t *testing.T) {
	t.Parallel()

	cfg := Config{DataDir: "/data", Dataset: "tinystories", Tokenizer: "gpt2", VocabSize: 50257}
	if got, want := cfg.SplitPath("train"), "/data/tinystories/gpt2-50257/train.bin"; got != want {
		t.Fatalf("SplitPath = %q, want %q", got, want)
	}
	cfg.Variant = VariantBytePooling
	cfg.RowWidth = 4
	if got, want := cfg.Dir(), "/data/tinystories/gpt2-50257-BytePooling-4"; got != want {
		t.Fatalf("Dir = %q, want %q", got, want)
	}
	cfg.Variant = VariantConversational
	cfg.ContextWindow = 128
	if got, want := cfg.Dir(), "/data/tinystories/gpt2-50257-Conversational-128"; got != want {
		t.Fatalf("Dir = %q, want %q", got, want)
	}
}
