package skin

func ptr(s string) *string { return &s }

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New([]Entry{
		{ID: "gold_color", Color: ptr("#facc15"), Cost: 30, Kind: KindColor},
		{ID: "blue_color", Color: ptr("#38bdf8"), Cost: 30, Kind: KindColor},
		{ID: "pink_color", Color: ptr("#ec4899"), Cost: 30, Kind: KindColor},
		{ID: "green_color", Color: ptr("#22c55e"), Cost: 30, Kind: KindColor},

		{ID: "diamond_shape", Shape: ptr("diamond"), Cost: 40, Kind: KindShape},
		{ID: "cross_shape", Shape: ptr("cross"), Cost: 40, Kind: KindShape},
		{ID: "triangle_shape", Shape: ptr("triangle"), Cost: 50, Kind: KindShape},
		{ID: "ring_shape", Shape: ptr("ring"), Cost: 60, Kind: KindShape},

		{ID: "pulsar_combo", Color: ptr("#f97316"), Shape: ptr("pulsar"), Cost: 80, Kind: KindBoth},
	})
	if err != nil {
		panic(err)
	}
	return c
}
