package config

// TestShared returns in-memory settings for tests, with no backing file.
// Overrides run against the defaults before clamping.
func TestShared(overrides ...func(*Settings)) *Shared {
	s := &Shared{cur: defaultSettings()}
	for _, fn := range overrides {
		fn(&s.cur)
	}
	s.cur.clamp()
	return s
}
