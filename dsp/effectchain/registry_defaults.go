package effectchain

// DefaultRegistry returns a Registry with the four built-in effects.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(OptionPhaser, newPhaserRuntime)
	r.MustRegister(OptionChorus, newChorusRuntime)
	r.MustRegister(OptionOverdrive, newOverdriveRuntime)
	r.MustRegister(OptionLadderFilter, newLadderRuntime)

	return r
}
