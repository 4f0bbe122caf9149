package skin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"starsky/internal/app/session"
)

func TestDefaultCatalog(t *testing.T) {
	req := require.New(t)
	c := Default()

	req.Equal(9, c.Len())
	req.Equal("gold_color", c.All()[0].ID)
	req.Equal("pulsar_combo", c.All()[8].ID)

	gold, ok := c.Lookup("gold_color")
	req.True(ok)
	req.Equal(30.0, gold.Cost)
	req.Equal("#facc15", *gold.Color)
	req.Nil(gold.Shape)

	_, ok = c.Lookup("rainbow")
	req.False(ok)
}

func TestApplyRespectsKind(t *testing.T) {
	req := require.New(t)
	c := Default()

	s := session.Session{StarColor: session.DefaultColor, StarShape: session.DefaultShape}

	ring, _ := c.Lookup("ring_shape")
	ring.Apply(&s)
	req.Equal(session.DefaultColor, s.StarColor)
	req.Equal("ring", s.StarShape)

	pulsar, _ := c.Lookup("pulsar_combo")
	pulsar.Apply(&s)
	req.Equal("#f97316", s.StarColor)
	req.Equal("pulsar", s.StarShape)
}

func TestEntryJSONShape(t *testing.T) {
	req := require.New(t)

	gold, _ := Default().Lookup("gold_color")
	raw, err := json.Marshal(gold)
	req.NoError(err)
	req.JSONEq(`{"id":"gold_color","color":"#facc15","cost":30,"shape":null,"type":"color"}`, string(raw))
}

func TestNewRejectsInvalidEntries(t *testing.T) {
	cases := map[string][]Entry{
		"duplicate":     {{ID: "a", Color: ptr("#000"), Kind: KindColor}, {ID: "a", Color: ptr("#111"), Kind: KindColor}},
		"missing color": {{ID: "a", Kind: KindColor}},
		"missing shape": {{ID: "a", Color: ptr("#000"), Kind: KindBoth}},
		"unknown kind":  {{ID: "a", Color: ptr("#000"), Kind: "sparkle"}},
		"negative cost": {{ID: "a", Color: ptr("#000"), Cost: -1, Kind: KindColor}},
		"empty id":      {{Color: ptr("#000"), Kind: KindColor}},
	}

	for name, entries := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(entries)
			require.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	req := require.New(t)

	path := filepath.Join(t.TempDir(), "skins.yaml")
	req.NoError(os.WriteFile(path, []byte(`
skins:
  - id: violet_color
    color: "#8b5cf6"
    cost: 25
    type: color
  - id: hex_shape
    shape: hexagon
    cost: 45
    type: shape
`), 0o600))

	c, err := LoadFile(path)
	req.NoError(err)
	req.Equal(2, c.Len())

	hex, ok := c.Lookup("hex_shape")
	req.True(ok)
	req.Equal("hexagon", *hex.Shape)
	req.Nil(hex.Color)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	req.Error(err)
}
