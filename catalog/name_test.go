package catalog

import "testing"

func TestCleanName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain title", raw: "Hades", want: "Hades"},
		{name: "surrounding whitespace", raw: "  Sea of Thieves  ", want: "Sea of Thieves"},
		{name: "explore prefix with tier line", raw: "explore Halo Infinite\nULTIMATE · PC", want: "Halo Infinite"},
		{name: "learn more prefix", raw: "Learn More, Forza Horizon 5", want: "Forza Horizon 5"},
		{name: "tier text only", raw: "ULTIMATE · PC", want: ""},
		{name: "empty", raw: "", want: ""},
		{name: "multiline with nav line", raw: "LEARN MORE\nStarfield", want: "Starfield"},
		{name: "tier suffix after dot", raw: "Persona 3 Reload · ULTIMATE", want: "Persona 3 Reload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanName(tt.raw); got != tt.want {
				t.Fatalf("CleanName(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNameFromSlug(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{slug: "halo-infinite", want: "Halo Infinite"},
		{slug: "goat-simulator-3-xbox-one", want: "Goat Simulator 3"},
		{slug: "grounded-game-preview", want: "Grounded"},
		{slug: "sea-of-thieves", want: "Sea Of Thieves"},
	}

	for _, tt := range tests {
		if got := NameFromSlug(tt.slug); got != tt.want {
			t.Fatalf("NameFromSlug(%q) = %q, want %q", tt.slug, got, tt.want)
		}
	}
}
